// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package biosimd

import (
	"encoding/binary"
	"math/bits"
)

// Classifier counts G/C and N bases in residue buffers.  All Classifiers
// return identical counts; they differ only in throughput.  Counting is
// case-insensitive: 'G', 'g', 'C' and 'c' are GC bases, 'N' and 'n' are N
// bases, and every other byte value is ignored.
//
// Classifiers never allocate and never modify the buffer.
type Classifier struct {
	// Name identifies the variant in logs and benchmarks.
	Name string
	// Width is the number of bytes examined per inner-loop step.
	Width int

	count func(seq []byte) (gc, n int)
}

// Count returns the number of GC bases and the number of N bases in seq.
func (c *Classifier) Count(seq []byte) (gc, n int) {
	return c.count(seq)
}

// NewClassifier wraps count, which must satisfy the Classifier contract, as
// a Classifier.  It is meant for experimental variants; the built-in ones
// are returned by Available.
func NewClassifier(name string, width int, count func(seq []byte) (gc, n int)) *Classifier {
	return &Classifier{Name: name, Width: width, count: count}
}

// Lookup returns the host-supported Classifier with the given name, or nil.
func Lookup(name string) *Classifier {
	for _, c := range hostClassifiers() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// String implements fmt.Stringer.
func (c *Classifier) String() string {
	return c.Name
}

var (
	// Scalar is the byte-at-a-time reference implementation.
	Scalar = &Classifier{Name: "scalar", Width: 1, count: countScalar}

	// SWAR64 processes eight bytes per step using 64-bit word arithmetic.  It
	// is available on every platform.
	SWAR64 = &Classifier{Name: "swar64", Width: 8, count: countSWAR64}
)

// defaultClassifier is set once by init() and never modified afterwards.
var defaultClassifier *Classifier

func init() {
	cs := hostClassifiers()
	defaultClassifier = cs[len(cs)-1]
}

// Default returns the widest Classifier supported by the host CPU.
func Default() *Classifier {
	return defaultClassifier
}

// Available returns all Classifiers supported by the host CPU, narrowest
// first.  Available()[0] is always Scalar.
func Available() []*Classifier {
	return hostClassifiers()
}

const (
	classGC = 1
	classN  = 2
)

var baseClass = [256]uint8{
	'G': classGC, 'g': classGC,
	'C': classGC, 'c': classGC,
	'N': classN, 'n': classN,
}

func countScalar(seq []byte) (gc, n int) {
	for _, b := range seq {
		c := baseClass[b]
		gc += int(c & classGC)
		n += int(c >> 1)
	}
	return
}

const (
	lo7Bits  = 0x7f7f7f7f7f7f7f7f
	caseBits = 0x2020202020202020
	byteOnes = 0x0101010101010101

	wordG = byteOnes * 'g'
	wordC = byteOnes * 'c'
	wordN = byteOnes * 'n'
)

// zeroBytes returns a word with the high bit of each byte set iff the
// corresponding byte of x is zero.  There are no false positives, so the
// popcount is exact.
func zeroBytes(x uint64) uint64 {
	t := (x&lo7Bits + lo7Bits) | x
	return ^(t | lo7Bits)
}

// countSWAR64 folds case by setting bit 5 of every byte.  Only 'G'/'g' map to
// 'g' under that fold (likewise for 'c' and 'n'), so no other byte value is
// miscounted.
func countSWAR64(seq []byte) (gc, n int) {
	for len(seq) >= 8 {
		w := binary.LittleEndian.Uint64(seq) | caseBits
		gc += bits.OnesCount64(zeroBytes(w^wordG) | zeroBytes(w^wordC))
		n += bits.OnesCount64(zeroBytes(w ^ wordN))
		seq = seq[8:]
	}
	tailGC, tailN := countScalar(seq)
	return gc + tailGC, n + tailN
}
