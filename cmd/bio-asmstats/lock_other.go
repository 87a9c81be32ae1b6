//go:build !unix

package main

import "os"

func lockFile(*os.File) (func(), error) { return func() {}, nil }
