//go:build unix

package seqfile

import "golang.org/x/sys/unix"

// adviseSequential tells the kernel that b will be read front to back, so
// that it reads ahead aggressively and drops pages behind the reader.
func adviseSequential(b []byte) {
	_ = unix.Madvise(b, unix.MADV_SEQUENTIAL)
}
