package main

/*
bio-asmstats reports assembly statistics (total length, sequence count,
average and extreme contig lengths, N25/N50/N75, GC and N content) for FASTA
files.  Inputs may be plain, gzip, bgzip, xz, bzip2 or zstd compressed, NAF
archives, or zip containers of any of these.  Files are analyzed in
parallel, one file per worker.

  bio-asmstats genome.fna other.fa.gz
  bio-asmstats -dir ./genomes -dir ./more -csv results.csv

The buffer size used for decoding can be set with the BUFFER_SIZE
environment variable (bytes, at most 5 MiB).
*/

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"github.com/grailbio/asmstats/asmstats"
	"github.com/grailbio/asmstats/biosimd"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
)

type stringsFlag []string

func (s *stringsFlag) String() string     { return fmt.Sprint(*s) }
func (s *stringsFlag) Set(v string) error { *s = append(*s, v); return nil }

var (
	csvPath     = flag.String("csv", "", "Append results to this ';'-separated file, creating it with a header if needed, instead of printing a report")
	threads     = flag.Int("threads", asmstats.DefaultOpts.Parallelism, "Number of files to analyze in parallel; 0 = 90% of the CPUs")
	legacy      = flag.Bool("legacy", false, "Omit the file name line from the report")
	noSIMD      = flag.Bool("no-simd", false, "Count GC and N bases with the scalar classifier")
	classifier  = flag.String("classifier", "", "Name of the GC/N classifier to use; default is the widest one the CPU supports")
	verify      = flag.Bool("verify-classifier", false, "Recount every sequence with the scalar classifier and fail files on disagreement")
	directories stringsFlag
)

func init() {
	flag.Var(&directories, "dir", "Analyze the sequence files in this directory (not recursive); may be repeated")
	flag.StringVar(csvPath, "c", "", "Shorthand for -csv")
	flag.IntVar(threads, "t", asmstats.DefaultOpts.Parallelism, "Shorthand for -threads")
	flag.Var(&directories, "d", "Shorthand for -dir")
}

func bioAsmstatsUsage() {
	fmt.Printf("Usage: %s [OPTIONS] [file ...]\n", os.Args[0])
	fmt.Printf("Options:\n")
	flag.PrintDefaults()
	fmt.Printf("Classifiers available on this host: %v\n", biosimd.Available())
}

func main() {
	flag.Usage = bioAsmstatsUsage
	shutdown := grail.Init()
	defer shutdown()

	paths, err := expandDirectories(directories)
	if err != nil {
		log.Fatalf("%v", err)
	}
	paths = append(paths, flag.Args()...)
	if len(paths) == 0 {
		flag.Usage()
		log.Fatalf("no input files")
	}

	opts := asmstats.DefaultOpts
	opts.Parallelism = *threads
	opts.BufferSize = asmstats.BufferSizeFromEnv()
	opts.DisableSIMD = *noSIMD
	opts.VerifyClassifier = *verify
	if *classifier != "" {
		if opts.Classifier = biosimd.Lookup(*classifier); opts.Classifier == nil {
			log.Fatalf("classifier %q is not available; choose from %v", *classifier, biosimd.Available())
		}
	}

	ctx := vcontext.Background()
	outcomes := asmstats.Run(ctx, paths, &opts)
	var (
		results []asmstats.Result
		failed  int
	)
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
			continue
		}
		results = append(results, o.Results...)
	}

	if *csvPath != "" {
		if err := appendCSV(*csvPath, results); err != nil {
			log.Fatalf("%v", err)
		}
	} else {
		w := bufio.NewWriter(os.Stdout)
		for i := range results {
			writeReport(w, &results[i], *legacy)
		}
		if err := w.Flush(); err != nil {
			log.Fatalf("write report: %v", err)
		}
	}
	log.Debug.Printf("analyzed %d file(s), %d failed", len(paths), failed)
	if failed > 0 {
		shutdown()
		os.Exit(1)
	}
}
