package asmstats

import (
	"math"
	"os"
	"runtime"
	"strconv"

	"github.com/grailbio/asmstats/biosimd"
	"github.com/grailbio/asmstats/encoding/seqfile"
	"github.com/grailbio/base/log"
)

// Opts controls analysis.
type Opts struct {
	// Parallelism is the number of files analyzed at once.  Zero selects
	// 90% of the CPUs.  The pool never exceeds the number of files.
	Parallelism int
	// BufferSize is the decode chunk size in bytes.
	BufferSize int
	// Classifier counts GC and N residues.  Nil selects biosimd.Default().
	Classifier *biosimd.Classifier
	// DisableSIMD forces biosimd.Scalar, overriding Classifier.
	DisableSIMD bool
	// VerifyClassifier recounts every record with biosimd.Scalar and fails
	// the file when the counts differ.
	VerifyClassifier bool
}

// DefaultOpts is the default configuration.
var DefaultOpts = Opts{
	Parallelism: 0,
	BufferSize:  seqfile.DefaultBufferSize,
}

// MaxBufferSize caps BufferSizeFromEnv.
const MaxBufferSize = 5 << 20

// BufferSizeFromEnv returns the BUFFER_SIZE environment variable, capped at
// MaxBufferSize.  It returns seqfile.DefaultBufferSize when the variable is
// unset or not a positive integer.
func BufferSizeFromEnv() int {
	v, ok := os.LookupEnv("BUFFER_SIZE")
	if !ok {
		return seqfile.DefaultBufferSize
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("asmstats: ignoring BUFFER_SIZE=%q", v)
		return seqfile.DefaultBufferSize
	}
	if n > MaxBufferSize {
		n = MaxBufferSize
	}
	return n
}

func (o *Opts) classifier() *biosimd.Classifier {
	switch {
	case o.DisableSIMD:
		return biosimd.Scalar
	case o.Classifier != nil:
		return o.Classifier
	}
	return biosimd.Default()
}

// workers returns the pool size for ntasks files.
func workers(parallelism, ntasks int) int {
	n := parallelism
	if n <= 0 {
		n = int(math.Round(0.9 * float64(runtime.NumCPU())))
	}
	if n > ntasks {
		n = ntasks
	}
	if n < 1 {
		n = 1
	}
	return n
}
