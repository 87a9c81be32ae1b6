// Package naf reads and writes Nucleotide Archive Format (.naf) files.
//
// A .naf file is a small header followed by independently zstd-compressed
// sections: record ids, record names, record lengths, a case mask, the
// concatenated residues, and qualities.  Every section is optional, and
// present sections always appear in that order.  DNA and RNA residues are
// stored as 4-bit IUPAC codes, two per byte with the first residue in the
// low nibble; protein and text residues are stored one per byte.
//
// Reader renders an archive back into FASTA text, so that .naf input can
// flow through the same record parser as every other sequence file.
package naf

import (
	"bufio"
	"io"

	"github.com/pkg/errors"
)

// Magic is the three-byte format descriptor every .naf file starts with.
var Magic = [3]byte{0x01, 0xF9, 0xEC}

// SeqType identifies the residue alphabet of an archive.
type SeqType byte

const (
	// DNA residues, 4-bit packed.
	DNA SeqType = iota
	// RNA residues, 4-bit packed; 'U' replaces 'T'.
	RNA
	// Protein residues, one byte each.
	Protein
	// Text residues, one byte each.
	Text
)

// Header flag bits.
const (
	flagExtended = 1 << 7
	flagTitle    = 1 << 6
	flagIDs      = 1 << 5
	flagNames    = 1 << 4
	flagLengths  = 1 << 3
	flagMask     = 1 << 2
	flagData     = 1 << 1
	flagQuality  = 1 << 0
)

// Header is the decoded .naf file header.
type Header struct {
	Version       byte
	SeqType       SeqType
	Flags         byte
	NameSeparator byte
	LineLength    uint64
	NumRecords    uint64
	Title         string
}

// has reports whether all the given flag bits are set.
func (h *Header) has(flags byte) bool {
	return h.Flags&flags == flags
}

// Nibble code -> residue.  Codes are the bitwise IUPAC encoding with
// T=1, G=2, C=4, A=8; code 0 is a gap.
var (
	dnaTable = [16]byte{'-', 'T', 'G', 'K', 'C', 'Y', 'S', 'B', 'A', 'W', 'R', 'D', 'M', 'H', 'V', 'N'}
	rnaTable = [16]byte{'-', 'U', 'G', 'K', 'C', 'Y', 'S', 'B', 'A', 'W', 'R', 'D', 'M', 'H', 'V', 'N'}
)

// maxVarintLen bounds the encoded size of a 64-bit number.
const maxVarintLen = 10

// readNumber reads a big-endian base-128 number in which every byte except
// the last has its high bit set.
func readNumber(r io.ByteReader) (uint64, error) {
	var v uint64
	for i := 0; i < maxVarintLen; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, noEOF(err)
		}
		v = v<<7 | uint64(b&0x7f)
		if b&0x80 == 0 {
			return v, nil
		}
	}
	return 0, errors.New("naf: number too long")
}

func appendNumber(dst []byte, v uint64) []byte {
	var tmp [maxVarintLen]byte
	i := len(tmp) - 1
	tmp[i] = byte(v & 0x7f)
	for v >>= 7; v > 0; v >>= 7 {
		i--
		tmp[i] = byte(v&0x7f) | 0x80
	}
	return append(dst, tmp[i:]...)
}

// noEOF turns a premature io.EOF into io.ErrUnexpectedEOF: every read in
// this package happens where the format requires more bytes.
func noEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

func readHeader(r *bufio.Reader) (Header, error) {
	var h Header
	var magic [3]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return h, errors.Wrap(noEOF(err), "naf: reading format descriptor")
	}
	if magic != Magic {
		return h, errors.Errorf("naf: bad format descriptor %x", magic)
	}
	var err error
	if h.Version, err = r.ReadByte(); err != nil {
		return h, noEOF(err)
	}
	switch h.Version {
	case 1:
		h.SeqType = DNA
	case 2:
		b, err := r.ReadByte()
		if err != nil {
			return h, noEOF(err)
		}
		h.SeqType = SeqType(b)
		if h.SeqType > Text {
			return h, errors.Errorf("naf: unknown sequence type %d", b)
		}
	default:
		return h, errors.Errorf("naf: unsupported format version %d", h.Version)
	}
	if h.Flags, err = r.ReadByte(); err != nil {
		return h, noEOF(err)
	}
	if h.has(flagExtended) {
		return h, errors.New("naf: extended format is not supported")
	}
	if h.NameSeparator, err = r.ReadByte(); err != nil {
		return h, noEOF(err)
	}
	if h.LineLength, err = readNumber(r); err != nil {
		return h, err
	}
	if h.NumRecords, err = readNumber(r); err != nil {
		return h, err
	}
	if h.has(flagTitle) {
		n, err := readNumber(r)
		if err != nil {
			return h, err
		}
		title := make([]byte, n)
		if _, err := io.ReadFull(r, title); err != nil {
			return h, errors.Wrap(noEOF(err), "naf: reading title")
		}
		h.Title = string(title)
	}
	return h, nil
}

func appendHeader(dst []byte, h *Header) []byte {
	dst = append(dst, Magic[:]...)
	dst = append(dst, h.Version)
	if h.Version >= 2 {
		dst = append(dst, byte(h.SeqType))
	}
	dst = append(dst, h.Flags, h.NameSeparator)
	dst = appendNumber(dst, h.LineLength)
	dst = appendNumber(dst, h.NumRecords)
	if h.has(flagTitle) {
		dst = appendNumber(dst, uint64(len(h.Title)))
		dst = append(dst, h.Title...)
	}
	return dst
}
