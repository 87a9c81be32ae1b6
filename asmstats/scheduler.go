package asmstats

import (
	"context"
	"time"

	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
)

// Outcome is the result of analyzing one input path: either Results or a
// *FileError in Err.
type Outcome struct {
	// Index is the position of Path in the input list.
	Index   int
	Path    string
	Results []Result
	Err     error
}

// Stream analyzes paths on a pool of workers and calls fn once per path,
// in completion order.  Each worker takes the next unclaimed path and
// analyzes it to completion before taking another.  Calls to fn are
// serialized on a single goroutine.  Stream returns after the last call to
// fn.
func Stream(ctx context.Context, paths []string, opts *Opts, fn func(Outcome)) {
	if len(paths) == 0 {
		return
	}
	if opts == nil {
		opts = &DefaultOpts
	}
	nworkers := workers(opts.Parallelism, len(paths))
	log.Debug.Printf("asmstats: analyzing %d file(s) with %d worker(s)", len(paths), nworkers)

	outcomes := make(chan Outcome, nworkers)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for o := range outcomes {
			fn(o)
		}
	}()
	// Workers never return errors; failures travel in the Outcome.
	_ = traverse.T{Limit: nworkers}.Each(len(paths), func(i int) error {
		start := time.Now()
		results, err := AnalyzeFile(ctx, paths[i], opts)
		if err != nil {
			log.Error.Printf("asmstats: %v", err)
		} else {
			log.Debug.Printf("asmstats: %s: %d result(s) in %v", paths[i], len(results), time.Since(start))
		}
		outcomes <- Outcome{Index: i, Path: paths[i], Results: results, Err: err}
		return nil
	})
	close(outcomes)
	<-done
}

// Run analyzes paths like Stream and returns the outcomes in input order.
func Run(ctx context.Context, paths []string, opts *Opts) []Outcome {
	out := make([]Outcome, len(paths))
	Stream(ctx, paths, opts, func(o Outcome) {
		out[o.Index] = o
	})
	return out
}
