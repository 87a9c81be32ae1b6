package seqfile

import (
	"bufio"
	"context"
	"io"
	"os"

	"github.com/dsnet/compress/bzip2"
	"github.com/edsrzf/mmap-go"
	"github.com/grailbio/asmstats/encoding/bgzf"
	"github.com/grailbio/asmstats/encoding/fasta"
	"github.com/grailbio/asmstats/encoding/naf"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
	"github.com/ulikunitz/xz"
)

// Source is a finite, non-restartable sequence of decoded byte chunks.  It
// satisfies fasta.Chunker.  Errors other than io.EOF carry an
// errors.Integrity kind when the decoder rejected the data, and the
// underlying I/O error otherwise.
type Source interface {
	fasta.Chunker
	Close() error
}

// ioTracker remembers the first error returned by the storage beneath a
// decoder, so that decode failures can be told apart from read failures.
type ioTracker struct {
	err error
}

func (t *ioTracker) note(err error) {
	if err != nil && err != io.EOF && t.err == nil {
		t.err = err
	}
}

type trackedReader struct {
	r io.Reader
	t *ioTracker
}

func (r trackedReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	r.t.note(err)
	return n, err
}

type trackedReaderAt struct {
	r io.ReaderAt
	t *ioTracker
}

func (r trackedReaderAt) ReadAt(p []byte, off int64) (int, error) {
	n, err := r.r.ReadAt(p, off)
	r.t.note(err)
	return n, err
}

// classify labels a failure of stream name.
func classify(name string, t *ioTracker, err error) error {
	if t.err != nil {
		return errors.E(t.err, "read", name)
	}
	return errors.E(errors.Integrity, "decode", name, err)
}

// readerSource chunks a decoded stream.
type readerSource struct {
	name    string
	chunker *fasta.ReaderChunker
	tracker *ioTracker
	// decoders are stopped on Close.  Their errors restate a failure
	// already returned by Next and are dropped.
	decoders []func() error
	release  func() error
}

func (s *readerSource) Next() ([]byte, error) {
	b, err := s.chunker.Next()
	if err != nil && err != io.EOF {
		return nil, classify(s.name, s.tracker, err)
	}
	return b, err
}

// Close stops the decoders and releases the underlying storage.  Only a
// failure to release the storage is reported.
func (s *readerSource) Close() error {
	for i := len(s.decoders) - 1; i >= 0; i-- {
		_ = s.decoders[i]()
	}
	s.decoders = nil
	if s.release == nil {
		return nil
	}
	err := s.release()
	s.release = nil
	return err
}

// newDecodedSource decodes raw, which must already be wrapped so that its
// errors reach t.  release frees the storage beneath raw and may be nil.
// inner closes readers layered between the storage and raw, such as a
// zip entry.
func newDecodedSource(name string, format Format, raw io.Reader, t *ioTracker, bufSize int, release func() error, inner ...func() error) (Source, error) {
	s := &readerSource{name: name, tracker: t, decoders: inner, release: release}
	r, closer, err := newDecoder(format, bufio.NewReaderSize(raw, 64<<10))
	if err != nil {
		err = classify(name, t, err)
		_ = s.Close()
		return nil, err
	}
	if closer != nil {
		s.decoders = append(s.decoders, closer)
	}
	s.chunker = fasta.NewReaderChunker(r, bufSize)
	return s, nil
}

func newDecoder(format Format, r *bufio.Reader) (io.Reader, func() error, error) {
	switch format {
	case Plain:
		return r, nil, nil
	case Gzip, Bgzip:
		// Peek errors surface again in the decoder.
		header, _ := r.Peek(bgzf.HeaderLen)
		if bgzf.IsBGZF(header) {
			rc, err := bgzf.NewReader(r, 1)
			if err != nil {
				return nil, nil, err
			}
			return rc, rc.Close, nil
		}
		zr, err := pgzip.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return zr, zr.Close, nil
	case Xz:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return xr, nil, nil
	case Bzip2:
		br, err := bzip2.NewReader(r, nil)
		if err != nil {
			return nil, nil, err
		}
		return br, br.Close, nil
	case Zstd:
		zr, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, nil, err
		}
		return zr, func() error { zr.Close(); return nil }, nil
	case NAF:
		nr, err := naf.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return nr, nr.Close, nil
	}
	return nil, nil, errors.E(errors.NotSupported, "no decoder for", format.String())
}

// openStreamed opens path through grailbio file and decodes it.
func openStreamed(ctx context.Context, name, path string, format Format, bufSize int) (Source, error) {
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(err, "open", path)
	}
	t := new(ioTracker)
	raw := trackedReader{f.Reader(ctx), t}
	return newDecodedSource(name, format, raw, t, bufSize, func() error { return f.Close(ctx) })
}

// mmapSource hands out a mapped file in chunks.  The chunks alias the
// mapping and are valid until Close.
type mmapSource struct {
	f     *os.File
	m     mmap.MMap
	off   int
	chunk int
}

func (s *mmapSource) Next() ([]byte, error) {
	if s.off >= len(s.m) {
		return nil, io.EOF
	}
	end := s.off + s.chunk
	if end > len(s.m) {
		end = len(s.m)
	}
	b := s.m[s.off:end]
	s.off = end
	return b, nil
}

func (s *mmapSource) Close() error {
	err := s.m.Unmap()
	if e := s.f.Close(); err == nil {
		err = e
	}
	return err
}

// openPlain maps path.  Files that cannot be mapped, such as empty files,
// pipes and other special files, are streamed instead.
func openPlain(ctx context.Context, name, path string, bufSize int) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.E(err, "open", path)
	}
	if info, err := f.Stat(); err == nil && info.Mode().IsRegular() && info.Size() > 0 {
		if m, err := mmap.Map(f, mmap.RDONLY, 0); err == nil {
			adviseSequential(m)
			return &mmapSource{f: f, m: m, chunk: bufSize}, nil
		}
	}
	t := new(ioTracker)
	return newDecodedSource(name, Plain, trackedReader{f, t}, t, bufSize, f.Close)
}
