// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

//go:build amd64 && !appengine && !nobasesimd
// +build amd64,!appengine,!nobasesimd

package biosimd_test

import (
	"testing"

	"github.com/grailbio/asmstats/biosimd"
	"golang.org/x/sys/cpu"
)

func TestSSE42FollowsCPU(t *testing.T) {
	if !cpu.X86.HasSSE42 {
		// base/simd panics during init on such hosts, so this line is
		// only reached if that ever changes.
		t.Skip("host lacks SSE4.2")
	}
	if got := biosimd.Lookup("sse4.2"); got != biosimd.SSE42 {
		t.Fatalf("Lookup(sse4.2) = %v, want %v", got, biosimd.SSE42)
	}
	if got := biosimd.Default(); got.Width < biosimd.SSE42.Width {
		t.Errorf("Default() = %v, narrower than %v", got, biosimd.SSE42)
	}
	if got := biosimd.Lookup("sse4.1"); got != nil {
		t.Errorf("Lookup(sse4.1) = %v, want nil", got)
	}
}
