package seqfile

import (
	"bytes"
	"context"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/edsrzf/mmap-go"
	"github.com/grailbio/base/errors"
	"github.com/klauspost/compress/zip"
)

// DefaultBufferSize is the chunk size used when none is given.
const DefaultBufferSize = 2 << 20

// ErrEmptyArchive is returned by Open for a zip container that holds no
// sequence files.
var ErrEmptyArchive = errors.E(errors.Invalid, "zip archive contains no sequence files")

// Stream is one decodable input: a whole file, or one entry of a zip
// container.
type Stream struct {
	// Name is the final path component of the file or entry.
	Name string
	// Format is the stream's decoding.
	Format Format

	open func() (Source, error)
}

// Open starts decoding the stream.  The Source must be closed before the
// owning File.
func (s Stream) Open() (Source, error) { return s.open() }

// File is an opened sequence file.
type File struct {
	Path   string
	Format Format
	// Streams lists the inputs held by the file: exactly one, except for
	// zip containers.
	Streams []Stream

	close func() error
}

// Close releases resources held by the file.
func (f *File) Close() error {
	if f.close == nil {
		return nil
	}
	return f.close()
}

// Open detects path's format and prepares its streams.  Chunks produced by
// the streams are at most bufSize bytes; bufSize <= 0 selects
// DefaultBufferSize.
func Open(ctx context.Context, path string, bufSize int) (*File, error) {
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}
	format, err := Detect(ctx, path)
	if err != nil {
		return nil, err
	}
	name := filepath.Base(path)
	f := &File{Path: path, Format: format}
	switch format {
	case Zip:
		return openZip(path, bufSize)
	case Plain:
		f.Streams = []Stream{{Name: name, Format: format, open: func() (Source, error) {
			return openPlain(ctx, name, path, bufSize)
		}}}
	default:
		f.Streams = []Stream{{Name: name, Format: format, open: func() (Source, error) {
			return openStreamed(ctx, name, path, format, bufSize)
		}}}
	}
	return f, nil
}

// openZip maps a zip container and lists the entries that are sequence
// files.  Nested zip containers are skipped.  Entries are decoded with the
// format named by their extension.
func openZip(zipPath string, bufSize int) (*File, error) {
	osf, err := os.Open(zipPath)
	if err != nil {
		return nil, errors.E(err, "open", zipPath)
	}
	info, err := osf.Stat()
	if err != nil {
		osf.Close()
		return nil, errors.E(err, "stat", zipPath)
	}
	var (
		ra io.ReaderAt = osf
		m  mmap.MMap
	)
	if info.Size() > 0 {
		if m, err = mmap.Map(osf, mmap.RDONLY, 0); err == nil {
			ra = bytes.NewReader(m)
		} else {
			m = nil
		}
	}
	f := &File{Path: zipPath, Format: Zip, close: func() error {
		var err error
		if m != nil {
			err = m.Unmap()
		}
		if e := osf.Close(); err == nil {
			err = e
		}
		return err
	}}
	t := new(ioTracker)
	zr, err := zip.NewReader(trackedReaderAt{ra, t}, info.Size())
	if err != nil {
		if t.err != nil {
			err = errors.E(t.err, "read", zipPath)
		} else {
			err = errors.E(errors.Integrity, "zip", zipPath, err)
		}
		f.Close()
		return nil, err
	}
	for _, zf := range zr.File {
		if zf.FileInfo().IsDir() {
			continue
		}
		format := FormatFromName(zf.Name)
		if format == Unknown || format == Zip {
			continue
		}
		var (
			zf   = zf
			name = path.Base(zf.Name)
		)
		f.Streams = append(f.Streams, Stream{Name: name, Format: format, open: func() (Source, error) {
			t.err = nil
			rc, err := zf.Open()
			if err != nil {
				return nil, classify(name, t, err)
			}
			return newDecodedSource(name, format, rc, t, bufSize, nil, rc.Close)
		}})
	}
	if len(f.Streams) == 0 {
		f.Close()
		return nil, ErrEmptyArchive
	}
	return f, nil
}
