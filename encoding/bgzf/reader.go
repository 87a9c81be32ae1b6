package bgzf

import (
	"io"

	"github.com/grailbio/hts/bgzf"
)

// HeaderLen is the number of leading bytes IsBGZF needs to see.
const HeaderLen = 16

// IsBGZF reports whether header, the first bytes of a file, starts with a
// .bgzf block: a gzip member header with the FEXTRA flag set whose first
// extra subfield is "BC" with a 2-byte payload.  This is the same test
// htslib's bgzf_is_bgzf() applies.  Plain gzip streams, which never carry
// the BC subfield, are rejected even though .bgzf streams are valid gzip.
func IsBGZF(header []byte) bool {
	if len(header) < HeaderLen {
		return false
	}
	const (
		gzipID1     = 0x1f
		gzipID2     = 0x8b
		gzipDeflate = 8
		flagExtra   = 1 << 2
	)
	if header[0] != gzipID1 || header[1] != gzipID2 || header[2] != gzipDeflate || header[3]&flagExtra == 0 {
		return false
	}
	xlen := int(header[10]) | int(header[11])<<8
	if xlen < len(bgzfExtra) {
		return false
	}
	offset := 12 // This is the offset of the Extra field in the gzip header.
	return header[offset] == bgzfExtraPrefix[0] &&
		header[offset+1] == bgzfExtraPrefix[1] &&
		header[offset+2] == bgzfExtraPrefix[2] &&
		header[offset+3] == bgzfExtraPrefix[3]
}

// NewReader returns a reader for the payload of the .bgzf stream r.  Blocks
// are decompressed by rd concurrent decompressors; rd == 0 means
// GOMAXPROCS.  Callers that already parallelize across files should pass 1.
func NewReader(r io.Reader, rd int) (io.ReadCloser, error) {
	br, err := bgzf.NewReader(r, rd)
	if err != nil {
		return nil, err
	}
	return br, nil
}
