package asmstats

import (
	"fmt"
	"math"

	"github.com/grailbio/asmstats/biosimd"
)

// mismatchError reports a Classifier that disagrees with biosimd.Scalar.
type mismatchError struct {
	classifier    string
	record        string
	gc, n         int
	wantGC, wantN int
}

func (e *mismatchError) Error() string {
	return fmt.Sprintf("classifier %s counted gc=%d n=%d in record %q, scalar reference counted gc=%d n=%d",
		e.classifier, e.gc, e.n, e.record, e.wantGC, e.wantN)
}

// accumulator folds the records of one stream into a Result.
type accumulator struct {
	res        Result
	lengths    []uint64
	classifier *biosimd.Classifier
	verify     bool
}

func newAccumulator(filename string, c *biosimd.Classifier, verify bool) *accumulator {
	return &accumulator{
		res:        Result{Filename: filename, ShortestContig: math.MaxUint64},
		classifier: c,
		verify:     verify && c != biosimd.Scalar,
	}
}

// add counts one record.
func (a *accumulator) add(id string, seq []byte) error {
	gc, n := a.classifier.Count(seq)
	if a.verify {
		if wantGC, wantN := biosimd.Scalar.Count(seq); gc != wantGC || n != wantN {
			return &mismatchError{a.classifier.Name, id, gc, n, wantGC, wantN}
		}
	}
	l := uint64(len(seq))
	a.res.SequenceCount++
	a.res.TotalLength += l
	a.res.GCCount += uint64(gc)
	a.res.NCount += uint64(n)
	if l > a.res.LargestContig {
		a.res.LargestContig = l
	}
	if l < a.res.ShortestContig {
		a.res.ShortestContig = l
	}
	a.lengths = append(a.lengths, l)
	return nil
}

// finish computes the N-statistics and returns the Result.  The
// accumulator must not be used afterwards.
func (a *accumulator) finish() Result {
	if a.res.SequenceCount == 0 {
		a.res.ShortestContig = 0
	}
	n := nStats(a.lengths, a.res.TotalLength)
	a.res.N25, a.res.N50, a.res.N75 = n[0], n[1], n[2]
	a.lengths = nil
	return a.res
}
