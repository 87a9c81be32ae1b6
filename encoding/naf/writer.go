package naf

import (
	"encoding/binary"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// Record is one sequence to archive.
type Record struct {
	ID   string
	Name string
	Seq  []byte
}

// WriteOpts controls Write.
type WriteOpts struct {
	SeqType SeqType
	// Title is stored in the header when non-empty.
	Title string
	// NameSeparator joins ID and Name when the archive is rendered.
	// Zero means ' '.
	NameSeparator byte
	// LineLength is advisory; readers in this package ignore it.
	LineLength uint64
	// Level is the zstd encoder level.  Zero means zstd.SpeedDefault.
	Level zstd.EncoderLevel
}

// DefaultWriteOpts produces a version 2 DNA archive.
var DefaultWriteOpts = WriteOpts{
	SeqType:       DNA,
	NameSeparator: ' ',
	LineLength:    60,
	Level:         zstd.SpeedDefault,
}

// Write encodes recs as a complete .naf archive.  DNA and RNA residues that
// are not IUPAC codes are stored as 'N'.  Case is not preserved.
func Write(w io.Writer, recs []Record, opts WriteOpts) error {
	if opts.SeqType > Text {
		return errors.Errorf("naf: unknown sequence type %d", opts.SeqType)
	}
	if opts.NameSeparator == 0 {
		opts.NameSeparator = ' '
	}
	if opts.Level == 0 {
		opts.Level = zstd.SpeedDefault
	}
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(opts.Level),
		zstd.WithEncoderConcurrency(1),
		zstd.WithZeroFrames(true))
	if err != nil {
		return err
	}
	defer enc.Close()

	h := Header{
		Version:       2,
		SeqType:       opts.SeqType,
		Flags:         flagIDs | flagLengths | flagData,
		NameSeparator: opts.NameSeparator,
		LineLength:    opts.LineLength,
		NumRecords:    uint64(len(recs)),
		Title:         opts.Title,
	}
	if opts.Title != "" {
		h.Flags |= flagTitle
	}
	var ids, names, lengths, data []byte
	for _, rec := range recs {
		ids = append(append(ids, rec.ID...), 0)
		names = append(append(names, rec.Name...), 0)
		if rec.Name != "" {
			h.Flags |= flagNames
		}
		lengths = appendLength(lengths, uint64(len(rec.Seq)))
		data = append(data, rec.Seq...)
	}
	residues := uint64(len(data))
	if opts.SeqType == DNA || opts.SeqType == RNA {
		data = packNibbles(data)
	}

	out := appendHeader(nil, &h)
	out = appendSection(out, enc, ids, uint64(len(ids)))
	if h.has(flagNames) {
		out = appendSection(out, enc, names, uint64(len(names)))
	}
	out = appendSection(out, enc, lengths, uint64(len(lengths)))
	out = appendSection(out, enc, data, residues)
	_, err = w.Write(out)
	return err
}

func appendLength(dst []byte, n uint64) []byte {
	for ; n >= maxLength; n -= maxLength {
		dst = binary.LittleEndian.AppendUint32(dst, maxLength)
	}
	return binary.LittleEndian.AppendUint32(dst, uint32(n))
}

// appendSection appends b compressed as one zstd frame, minus the frame
// magic.  size is the original size recorded for the section: its byte
// count, except for residues, where it is the residue count.
func appendSection(dst []byte, enc *zstd.Encoder, b []byte, size uint64) []byte {
	c := enc.EncodeAll(b, nil)[len(zstdMagic):]
	dst = appendNumber(dst, size)
	dst = appendNumber(dst, uint64(len(c)))
	return append(dst, c...)
}

// nibbleCode maps a residue to its 4-bit code.  'U' shares the code of 'T'.
var nibbleCode = func() (t [256]byte) {
	for i := range t {
		t[i] = 15
	}
	for code, c := range dnaTable {
		t[c] = byte(code)
		t[c|0x20] = byte(code)
	}
	t['U'], t['u'] = 1, 1
	return
}()

// packNibbles packs residues two per byte, first residue in the low nibble.
// An odd trailing residue is padded with a zero nibble.
func packNibbles(seq []byte) []byte {
	out := make([]byte, (len(seq)+1)/2)
	for i, c := range seq {
		code := nibbleCode[c]
		if i&1 == 1 {
			code <<= 4
		}
		out[i/2] |= code
	}
	return out
}
