package asmstats

import (
	"fmt"

	"github.com/grailbio/asmstats/encoding/seqfile"
	"github.com/grailbio/base/errors"
)

// Kind classifies a FileError.
type Kind int

const (
	// UnknownKind is the zero Kind.  Errors returned by this package
	// always carry one of the kinds below.
	UnknownKind Kind = iota
	// IoFailure is a failure to open or read the file.
	IoFailure
	// UnsupportedFormat means that neither the name nor the content of the
	// file identifies a known format.
	UnsupportedFormat
	// EmptyArchive is a zip container without sequence files.
	EmptyArchive
	// CorruptStream is a codec-level integrity failure: a bad header,
	// checksum or a truncated stream.
	CorruptStream
	// ClassifierMismatch means the GC/N classifier disagreed with the
	// scalar reference.  It indicates a bug.
	ClassifierMismatch
)

var kindNames = [...]string{
	UnknownKind:        "unknown error",
	IoFailure:          "I/O failure",
	UnsupportedFormat:  "unsupported format",
	EmptyArchive:       "empty archive",
	CorruptStream:      "corrupt stream",
	ClassifierMismatch: "classifier mismatch",
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// FileError is the failure of one input file.
type FileError struct {
	Path string
	Kind Kind
	Err  error
}

// Error implements error.
func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Path, e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *FileError) Unwrap() error { return e.Err }

// newFileError labels err, which was returned while analyzing path.
func newFileError(path string, err error) *FileError {
	e := &FileError{Path: path, Err: err}
	switch {
	case err == seqfile.ErrEmptyArchive:
		e.Kind = EmptyArchive
	case isMismatch(err):
		e.Kind = ClassifierMismatch
	case errors.Is(errors.NotSupported, err):
		e.Kind = UnsupportedFormat
	case errors.Is(errors.Integrity, err):
		e.Kind = CorruptStream
	default:
		e.Kind = IoFailure
	}
	return e
}

func isMismatch(err error) bool {
	_, ok := err.(*mismatchError)
	return ok
}
