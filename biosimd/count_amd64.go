// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

//go:build amd64 && !appengine && !nobasesimd
// +build amd64,!appengine,!nobasesimd

package biosimd

import (
	"github.com/grailbio/base/simd"
	"golang.org/x/sys/cpu"
)

// SSE42 counts with 16-byte compares, via base/simd.  base/simd refuses to
// initialize on amd64 hosts without SSE4.2, so this variant is listed
// exactly when the host reports SSE4.2.
var SSE42 = &Classifier{Name: "sse4.2", Width: 16, count: countSSE42}

// countSSE42 makes three passes over seq.  Each base/simd pass handles its
// own unaligned head and tail.
func countSSE42(seq []byte) (gc, n int) {
	gc = simd.Count2Bytes(seq, 'G', 'g') + simd.Count2Bytes(seq, 'C', 'c')
	n = simd.Count2Bytes(seq, 'N', 'n')
	return
}

func hostClassifiers() []*Classifier {
	cs := []*Classifier{Scalar, SWAR64}
	if cpu.X86.HasSSE42 {
		cs = append(cs, SSE42)
	}
	return cs
}
