package asmstats

import (
	"context"

	"github.com/grailbio/asmstats/biosimd"
	"github.com/grailbio/asmstats/encoding/fasta"
	"github.com/grailbio/asmstats/encoding/seqfile"
	"github.com/grailbio/base/log"
)

// AnalyzeFile computes the statistics of the file at path: one Result for a
// sequence file, one per sequence entry for a zip container, in entry
// order.  On failure it returns a *FileError and no results.  A nil opts
// selects DefaultOpts.
func AnalyzeFile(ctx context.Context, path string, opts *Opts) ([]Result, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	f, err := seqfile.Open(ctx, path, opts.BufferSize)
	if err != nil {
		return nil, newFileError(path, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Error.Printf("asmstats: close %s: %v", path, err)
		}
	}()
	c := opts.classifier()
	log.Debug.Printf("asmstats: %s: format %v, %d stream(s), classifier %v", path, f.Format, len(f.Streams), c)
	results := make([]Result, 0, len(f.Streams))
	for _, s := range f.Streams {
		res, err := analyzeStream(s, c, opts.VerifyClassifier)
		if err != nil {
			return nil, newFileError(path, err)
		}
		results = append(results, res)
	}
	return results, nil
}

func analyzeStream(s seqfile.Stream, c *biosimd.Classifier, verify bool) (Result, error) {
	src, err := s.Open()
	if err != nil {
		return Result{}, err
	}
	defer func() {
		if err := src.Close(); err != nil {
			log.Debug.Printf("asmstats: close %s: %v", s.Name, err)
		}
	}()
	acc := newAccumulator(s.Name, c, verify)
	sc := fasta.NewScanner(src)
	var rec fasta.Record
	for sc.Scan(&rec) {
		if err := acc.add(rec.ID, rec.Seq); err != nil {
			return Result{}, err
		}
	}
	if err := sc.Err(); err != nil {
		return Result{}, err
	}
	return acc.finish(), nil
}
