package naf

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"

	"github.com/grailbio/asmstats/biosimd"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// zstdMagic starts every zstd frame.  It is left out of the sections of an
// archive.  A frame header descriptor never begins with 0x28, so the two
// forms cannot be confused.
var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// maxLength is the escape value in the lengths section: a record longer
// than this is stored as a run of maxLength entries plus a remainder.
const maxLength = 0xFFFFFFFF

// Reader renders a .naf archive as FASTA text.  Each record becomes a
// header line (">id", or ">id<sep>name" when the record has a name)
// followed by the whole sequence on a single line.
type Reader struct {
	hdr     Header
	ids     []string
	names   []string
	lengths []uint64

	dec  *zstd.Decoder
	data io.Reader

	rec       int
	remaining uint64
	pending   []byte
	err       error
}

// NewReader parses the archive header and the record metadata sections.
// Residues are decompressed lazily as the Reader is read.
func NewReader(r io.Reader) (*Reader, error) {
	br := bufio.NewReaderSize(r, 64<<10)
	hdr, err := readHeader(br)
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, err
	}
	nr := &Reader{hdr: hdr, dec: dec}
	if err := nr.init(br); err != nil {
		dec.Close()
		return nil, err
	}
	return nr, nil
}

func (r *Reader) init(br *bufio.Reader) error {
	if r.hdr.has(flagIDs) {
		b, err := r.section(br, "ids")
		if err != nil {
			return err
		}
		if r.ids, err = splitStrings(b, r.hdr.NumRecords); err != nil {
			return errors.Wrap(err, "naf: ids")
		}
	}
	if r.hdr.has(flagNames) {
		b, err := r.section(br, "names")
		if err != nil {
			return err
		}
		if r.names, err = splitStrings(b, r.hdr.NumRecords); err != nil {
			return errors.Wrap(err, "naf: names")
		}
	}
	if r.hdr.has(flagLengths) {
		b, err := r.section(br, "lengths")
		if err != nil {
			return err
		}
		if r.lengths, err = decodeLengths(b, r.hdr.NumRecords); err != nil {
			return err
		}
	}
	if r.hdr.has(flagMask) {
		// Case is irrelevant once rendered; skip over the section.
		if err := skipSection(br); err != nil {
			return errors.Wrap(err, "naf: mask")
		}
	}
	if !r.hdr.has(flagData) {
		// Records without residues; render one header per known record.
		n := len(r.ids)
		if len(r.names) > n {
			n = len(r.names)
		}
		if len(r.lengths) > n {
			n = len(r.lengths)
		}
		r.data = bytes.NewReader(nil)
		r.lengths = make([]uint64, n)
		return nil
	}
	if r.lengths == nil {
		return errors.New("naf: sequence section without lengths section")
	}
	if _, err := readNumber(br); err != nil {
		return errors.Wrap(err, "naf: sequence size")
	}
	csize, err := readNumber(br)
	if err != nil {
		return errors.Wrap(err, "naf: sequence size")
	}
	if csize == 0 {
		r.data = bytes.NewReader(nil)
		return nil
	}
	if err := r.dec.Reset(withMagic(br, csize)); err != nil {
		return err
	}
	switch r.hdr.SeqType {
	case DNA:
		r.data = newNibbleReader(r.dec, &dnaTable)
	case RNA:
		r.data = newNibbleReader(r.dec, &rnaTable)
	default:
		r.data = r.dec
	}
	return nil
}

// Header returns the archive header.
func (r *Reader) Header() Header { return r.hdr }

// section reads and decompresses one whole metadata section.
func (r *Reader) section(br *bufio.Reader, name string) ([]byte, error) {
	size, err := readNumber(br)
	if err != nil {
		return nil, errors.Wrapf(err, "naf: %s size", name)
	}
	csize, err := readNumber(br)
	if err != nil {
		return nil, errors.Wrapf(err, "naf: %s size", name)
	}
	// Sizes come from the file; read and allocate no more than is present.
	src, err := io.ReadAll(io.LimitReader(br, int64(csize)))
	if err != nil {
		return nil, errors.Wrapf(err, "naf: reading %s", name)
	}
	if uint64(len(src)) != csize {
		return nil, errors.Wrapf(io.ErrUnexpectedEOF, "naf: reading %s", name)
	}
	if csize == 0 {
		if size != 0 {
			return nil, errors.Errorf("naf: %s section is empty, header says %d bytes", name, size)
		}
		return nil, nil
	}
	if !bytes.HasPrefix(src, zstdMagic) {
		src = append(append(make([]byte, 0, len(zstdMagic)+len(src)), zstdMagic...), src...)
	}
	out, err := r.dec.DecodeAll(src, make([]byte, 0, min(size, uint64(len(src))*8)))
	if err != nil {
		return nil, errors.Wrapf(err, "naf: decompressing %s", name)
	}
	if uint64(len(out)) != size {
		return nil, errors.Errorf("naf: %s section is %d bytes, header says %d", name, len(out), size)
	}
	return out, nil
}

// withMagic returns the n-byte zstd section at the front of br with its
// frame magic restored.  Archives store sections without the magic;
// sections that kept it are passed through unchanged.
func withMagic(br *bufio.Reader, n uint64) io.Reader {
	sec := io.LimitReader(br, int64(n))
	if b, _ := br.Peek(len(zstdMagic)); n >= uint64(len(zstdMagic)) && bytes.Equal(b, zstdMagic) {
		return sec
	}
	return io.MultiReader(bytes.NewReader(zstdMagic), sec)
}

func skipSection(br *bufio.Reader) error {
	if _, err := readNumber(br); err != nil {
		return err
	}
	csize, err := readNumber(br)
	if err != nil {
		return err
	}
	_, err = io.CopyN(io.Discard, br, int64(csize))
	return noEOF(err)
}

// splitStrings splits a sequence of NUL-terminated strings.
func splitStrings(b []byte, n uint64) ([]string, error) {
	out := make([]string, 0, min(n, uint64(len(b))))
	for len(b) > 0 {
		i := bytes.IndexByte(b, 0)
		if i < 0 {
			return nil, errors.New("unterminated string")
		}
		out = append(out, string(b[:i]))
		b = b[i+1:]
	}
	if uint64(len(out)) != n {
		return nil, errors.Errorf("found %d entries, expected %d", len(out), n)
	}
	return out, nil
}

func decodeLengths(b []byte, n uint64) ([]uint64, error) {
	if len(b)%4 != 0 {
		return nil, errors.Errorf("naf: lengths section size %d is not a multiple of 4", len(b))
	}
	out := make([]uint64, 0, min(n, uint64(len(b)/4)))
	var acc uint64
	for ; len(b) > 0; b = b[4:] {
		v := binary.LittleEndian.Uint32(b)
		acc += uint64(v)
		if v == maxLength {
			continue
		}
		out = append(out, acc)
		acc = 0
	}
	if acc != 0 || uint64(len(out)) != n {
		return nil, errors.Errorf("naf: found %d lengths, expected %d", len(out), n)
	}
	return out, nil
}

func (r *Reader) headerLine(i int) []byte {
	line := make([]byte, 0, 64)
	line = append(line, '>')
	if r.ids != nil {
		line = append(line, r.ids[i]...)
	}
	if r.names != nil && r.names[i] != "" {
		if r.ids != nil {
			line = append(line, r.hdr.NameSeparator)
		}
		line = append(line, r.names[i]...)
	}
	return append(line, '\n')
}

// Read implements io.Reader.
func (r *Reader) Read(p []byte) (int, error) {
	if r.err != nil {
		return 0, r.err
	}
	n := 0
	for n < len(p) {
		if len(r.pending) > 0 {
			c := copy(p[n:], r.pending)
			r.pending = r.pending[c:]
			n += c
			continue
		}
		if r.remaining > 0 {
			want := uint64(len(p) - n)
			if want > r.remaining {
				want = r.remaining
			}
			c, err := r.data.Read(p[n : n+int(want)])
			n += c
			r.remaining -= uint64(c)
			if r.remaining == 0 {
				r.pending = []byte{'\n'}
			}
			if err == io.EOF && r.remaining > 0 {
				err = errors.New("naf: sequence section ended early")
			}
			if err != nil && err != io.EOF {
				r.err = err
				return n, err
			}
			if c == 0 {
				return n, nil
			}
			continue
		}
		if r.rec < len(r.lengths) {
			r.pending = r.headerLine(r.rec)
			r.remaining = r.lengths[r.rec]
			r.rec++
			continue
		}
		r.err = io.EOF
		if n == 0 {
			return 0, io.EOF
		}
		return n, nil
	}
	return n, nil
}

// Close releases the zstd decoder.  It does not close the underlying reader.
func (r *Reader) Close() error {
	r.dec.Close()
	return nil
}

// nibbleReader expands 4-bit packed residues, low nibble first.
type nibbleReader struct {
	r      io.Reader
	table  *[16]byte
	packed []byte
	buf    []byte
	out    []byte
}

func newNibbleReader(r io.Reader, table *[16]byte) *nibbleReader {
	const packedSize = 32 << 10
	return &nibbleReader{
		r:      r,
		table:  table,
		packed: make([]byte, packedSize),
		buf:    make([]byte, 2*packedSize),
	}
}

func (u *nibbleReader) Read(p []byte) (int, error) {
	if len(u.out) == 0 {
		n, err := u.r.Read(u.packed)
		if n == 0 {
			return 0, err
		}
		u.out = u.buf[:2*n]
		biosimd.UnpackLowFirstAndReplace(u.out, u.packed[:n], u.table)
	}
	n := copy(p, u.out)
	u.out = u.out[n:]
	return n, nil
}
