// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package biosimd

// UnpackLowFirstAndReplace sets the bytes in dst[] as follows:
//
//	if pos is even, dst[pos] := table[src[pos / 2] & 15]
//	if pos is odd, dst[pos] := table[src[pos / 2] >> 4]
//
// This is the nibble order used by .naf sequence sections; .bam uses the
// opposite order.
// It panics if len(dst) != 2 * len(src).
func UnpackLowFirstAndReplace(dst, src []byte, table *[16]byte) {
	if len(dst) != 2*len(src) {
		panic("UnpackLowFirstAndReplace() requires len(dst) == 2 * len(src).")
	}
	for srcPos, srcByte := range src {
		dst[2*srcPos] = table[srcByte&15]
		dst[2*srcPos+1] = table[srcByte>>4]
	}
}
