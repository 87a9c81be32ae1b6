//go:build !unix

package seqfile

func adviseSequential([]byte) {}
