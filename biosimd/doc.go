// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package biosimd provides vectorized implementations of the byte-array
// operations that dominate .fa processing: counting G/C and N bases in
// residue buffers, and unpacking 4-bit nucleotide codes.
//
// Every accelerated path has a scalar reference implementation in this
// package, and all paths must return identical results for every input,
// regardless of length or alignment.  The widest path supported by the host
// CPU is selected once, at package initialization, and exposed through
// Default().
//
// On amd64 the 16-byte variant comes from github.com/grailbio/base/simd,
// whose init panics unless the CPU has SSE4.2.  Importing this package
// therefore makes SSE4.2 a hard requirement on amd64.  Build with the
// nobasesimd tag to drop that variant, and the requirement, in favor of
// the scalar and SWAR paths.
package biosimd
