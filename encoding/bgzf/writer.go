// Package bgzf reads and writes bgzip-compressed streams.
//
// A bgzip stream is a series of gzip members, each holding at most 64KB of
// payload and tagged with a "BC" extra subfield that records the size of
// the member.  It ends with an empty member, the EOF terminator.  Every
// bgzip stream is a valid multi-member gzip stream, so the two can only be
// told apart by the header of the first member; see IsBGZF.
//
// The layout is described in the SAM/BAM spec:
// https://samtools.github.io/hts-specs/SAMv1.pdf
//
// The Writer exists to build bgzip-compressed .fa fixtures:
//
//	var buf bytes.Buffer
//	w, err := bgzf.NewWriter(&buf, flate.BestSpeed, 1000)
//	_, err = w.Write([]byte(">chr1\nACGT\n"))
//	err = w.Close()
package bgzf

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"v.io/x/lib/vlog"
)

const (
	// DefaultBlockSize is the payload size of each block written by the
	// bgzip tool.
	DefaultBlockSize = 0xff00

	// MaxBlockSize bounds the payload of one block.
	MaxBlockSize = 0x10000

	// maxMemberSize bounds the compressed size of one block.  BSIZE holds
	// the member size minus one in 16 bits.
	maxMemberSize = 0x10000

	// bsizeOffset is the position of BSIZE within a member: the 10-byte
	// gzip header, XLEN, then the BC subfield id and length.
	bsizeOffset = 16
)

var (
	// bgzfExtra is the gzip extra field of every member: subfield "BC",
	// two bytes long, holding BSIZE.
	bgzfExtra       = [...]byte{'B', 'C', 2, 0, 0, 0}
	bgzfExtraPrefix = [...]byte{'B', 'C', 2, 0}

	// terminator is the empty member that ends a bgzip stream.
	terminator = []byte{
		0x1f, 0x8b, 0x08, 0x04, 0x00, 0x00, 0x00, 0x00, 0x00, 0xff, 0x06, 0x00, 0x42, 0x43,
		0x02, 0x00, 0x1b, 0x00, 0x03, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	}
)

// Writer bgzip-compresses everything written to it.  Payload is buffered
// until a full block is available; Close writes the final partial block
// and the terminator.
type Writer struct {
	w         io.Writer
	blockSize int
	gz        *gzip.Writer
	pending   []byte
	member    bytes.Buffer
	err       error
}

// NewWriter returns a Writer that compresses blocks of blockSize payload
// bytes at the given flate level.  blockSize <= 0 selects
// DefaultBlockSize.
func NewWriter(w io.Writer, level, blockSize int) (*Writer, error) {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	if blockSize > MaxBlockSize {
		return nil, fmt.Errorf("bgzf: block size %d exceeds %d", blockSize, MaxBlockSize)
	}
	bw := &Writer{w: w, blockSize: blockSize, pending: make([]byte, 0, blockSize)}
	var err error
	if bw.gz, err = gzip.NewWriterLevel(&bw.member, level); err != nil {
		return nil, err
	}
	return bw, nil
}

// Write buffers p and writes out every block it completes.
func (w *Writer) Write(p []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	n := 0
	for len(p) > 0 {
		k := copy(w.pending[len(w.pending):w.blockSize], p)
		w.pending = w.pending[:len(w.pending)+k]
		p = p[k:]
		n += k
		if len(w.pending) == w.blockSize {
			if w.err = w.flush(); w.err != nil {
				return n, w.err
			}
		}
	}
	return n, nil
}

// Close writes the buffered payload as a final block, followed by the
// terminator.  It does not close the underlying writer.
func (w *Writer) Close() error {
	if w.err != nil {
		return w.err
	}
	if len(w.pending) > 0 {
		if w.err = w.flush(); w.err != nil {
			return w.err
		}
	}
	_, w.err = w.w.Write(terminator)
	return w.err
}

// flush compresses the pending payload into one member, patches its BSIZE
// and writes it out.
func (w *Writer) flush() error {
	w.member.Reset()
	w.gz.Reset(&w.member)
	w.gz.Header.Extra = append(w.gz.Header.Extra[:0], bgzfExtra[:]...)
	w.gz.Header.OS = 0xff // unknown
	if _, err := w.gz.Write(w.pending); err != nil {
		return err
	}
	if err := w.gz.Close(); err != nil {
		return err
	}
	w.pending = w.pending[:0]

	b := w.member.Bytes()
	if len(b) > maxMemberSize {
		return fmt.Errorf("bgzf: compressed block is %d bytes, max %d", len(b), maxMemberSize)
	}
	if !IsBGZF(b) {
		vlog.Fatalf("bgzf: gzip writer dropped the BC subfield")
	}
	bsize := len(b) - 1
	b[bsizeOffset] = byte(bsize)
	b[bsizeOffset+1] = byte(bsize >> 8)
	_, err := w.w.Write(b)
	return err
}
