// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

//go:build !amd64 || appengine || nobasesimd
// +build !amd64 appengine nobasesimd

package biosimd

func hostClassifiers() []*Classifier {
	return []*Classifier{Scalar, SWAR64}
}
