// Package seqfile opens sequence files of any supported format and presents
// their decoded contents as a stream of byte chunks.
//
// Plain FASTA and zip containers are memory mapped.  Compressed inputs
// (gzip, bgzip, xz, bzip2, zstd and NAF) are decoded through a bounded
// buffer.  A zip container yields one stream per inner sequence file.
package seqfile

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/grailbio/asmstats/encoding/bgzf"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
)

// Format identifies how a file's bytes are decoded.
type Format int

const (
	// Unknown is the zero Format.
	Unknown Format = iota
	// Plain is uncompressed FASTA text.
	Plain
	// Gzip is a gzip (RFC 1952) stream, possibly multi-member.
	Gzip
	// Bgzip is blocked gzip as written by bgzip and htslib.
	Bgzip
	// Xz is an xz container.
	Xz
	// Bzip2 is a bzip2 stream.
	Bzip2
	// Zstd is a zstandard stream.
	Zstd
	// NAF is a Nucleotide Archive Format file.
	NAF
	// Zip is a zip container of other sequence files.
	Zip
)

var formatNames = [...]string{
	Unknown: "unknown",
	Plain:   "fasta",
	Gzip:    "gzip",
	Bgzip:   "bgzip",
	Xz:      "xz",
	Bzip2:   "bzip2",
	Zstd:    "zstd",
	NAF:     "naf",
	Zip:     "zip",
}

// String implements fmt.Stringer.
func (f Format) String() string {
	if f < 0 || int(f) >= len(formatNames) {
		return "unknown"
	}
	return formatNames[f]
}

var extFormats = map[string]Format{
	".fa":    Plain,
	".fasta": Plain,
	".fna":   Plain,
	".gz":    Gzip,
	".bgz":   Bgzip,
	".bgzip": Bgzip,
	".xz":    Xz,
	".bz2":   Bzip2,
	".zst":   Zstd,
	".zstd":  Zstd,
	".naf":   NAF,
	".zip":   Zip,
}

// FormatFromName returns the format implied by name's extension, compared
// case-insensitively, or Unknown.  Gzip and Bgzip are told apart by content,
// not by name; see Detect.
func FormatFromName(name string) Format {
	return extFormats[strings.ToLower(filepath.Ext(name))]
}

// IsSequenceFile reports whether name carries a recognized extension.
func IsSequenceFile(name string) bool {
	return FormatFromName(name) != Unknown
}

// sniffLen is the number of leading bytes Sniff looks at.
const sniffLen = 64

var (
	gzipMagic  = []byte{0x1f, 0x8b}
	xzMagic    = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
	bzip2Magic = []byte("BZh")
	zstdMagic  = []byte{0x28, 0xb5, 0x2f, 0xfd}
	nafMagic   = []byte{0x01, 0xf9, 0xec}
	zipMagic   = []byte("PK\x03\x04")
	zipEmpty   = []byte("PK\x05\x06")
)

// Sniff identifies a format from the leading bytes of a file.  Any gzip
// stream whose first member carries the bgzf "BC" extra subfield is Bgzip.
func Sniff(header []byte) Format {
	switch {
	case bytes.HasPrefix(header, gzipMagic):
		if bgzf.IsBGZF(header) {
			return Bgzip
		}
		return Gzip
	case bytes.HasPrefix(header, xzMagic):
		return Xz
	case bytes.HasPrefix(header, bzip2Magic):
		return Bzip2
	case bytes.HasPrefix(header, zstdMagic):
		return Zstd
	case bytes.HasPrefix(header, nafMagic):
		return NAF
	case bytes.HasPrefix(header, zipMagic), bytes.HasPrefix(header, zipEmpty):
		return Zip
	}
	if text := bytes.TrimLeft(header, " \t\r\n"); len(text) > 0 && (text[0] == '>' || text[0] == ';') {
		return Plain
	}
	return Unknown
}

// Detect selects the decoding for path.  The extension decides, except that
// gzip-family names (.gz, .bgz, .bgzip) are resolved by content into Gzip or
// Bgzip, and names without a recognized extension are identified by their
// leading bytes.  Detect fails with errors.NotSupported when neither works.
func Detect(ctx context.Context, path string) (Format, error) {
	format := FormatFromName(path)
	switch format {
	case Unknown, Gzip, Bgzip:
	default:
		return format, nil
	}
	header, err := readHeader(ctx, path)
	if err != nil {
		return Unknown, err
	}
	sniffed := Sniff(header)
	switch {
	case format == Unknown && sniffed == Unknown:
		return Unknown, errors.E(errors.NotSupported, "unrecognized sequence file format", path)
	case format == Unknown:
		return sniffed, nil
	case sniffed == Bgzip:
		return Bgzip, nil
	default:
		// Non-gzip content under a gzip name fails in the decoder.
		return Gzip, nil
	}
}

func readHeader(ctx context.Context, path string) (header []byte, err error) {
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(err, "open", path)
	}
	defer file.CloseAndReport(ctx, f, &err)
	header = make([]byte, sniffLen)
	n, err := io.ReadFull(f.Reader(ctx), header)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		err = nil
	}
	if err != nil {
		return nil, errors.E(err, "read", path)
	}
	return header[:n], nil
}
