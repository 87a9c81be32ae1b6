// Package seqfiletest builds sequence file fixtures in every format that
// package seqfile reads.
package seqfiletest

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/dsnet/compress/bzip2"
	"github.com/grailbio/asmstats/encoding/bgzf"
	"github.com/grailbio/asmstats/encoding/fasta"
	"github.com/grailbio/asmstats/encoding/naf"
	"github.com/grailbio/asmstats/encoding/seqfile"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
)

// Encode returns fasta encoded in format.  Zip produces a container with a
// single entry named "entry.fa".
func Encode(format seqfile.Format, fastaText []byte) ([]byte, error) {
	var buf bytes.Buffer
	var w io.WriteCloser
	var err error
	switch format {
	case seqfile.Plain:
		return fastaText, nil
	case seqfile.Gzip:
		w = gzip.NewWriter(&buf)
	case seqfile.Bgzip:
		w, err = bgzf.NewWriter(&buf, 6, 1000)
	case seqfile.Xz:
		w, err = xz.NewWriter(&buf)
	case seqfile.Bzip2:
		w, err = bzip2.NewWriter(&buf, nil)
	case seqfile.Zstd:
		w, err = zstd.NewWriter(&buf)
	case seqfile.NAF:
		recs, err := parse(fastaText)
		if err != nil {
			return nil, err
		}
		err = naf.Write(&buf, recs, naf.DefaultWriteOpts)
		return buf.Bytes(), err
	case seqfile.Zip:
		err := WriteZip(&buf, map[string][]byte{"entry.fa": fastaText})
		return buf.Bytes(), err
	default:
		return nil, errors.Errorf("seqfiletest: cannot encode %v", format)
	}
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(fastaText); err != nil {
		return nil, err
	}
	err = w.Close()
	return buf.Bytes(), err
}

// WriteZip writes a deflated zip container holding entries, in name order.
func WriteZip(w io.Writer, entries map[string][]byte) error {
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)
	zw := zip.NewWriter(w)
	for _, name := range names {
		ew, err := zw.Create(name)
		if err != nil {
			return err
		}
		if _, err := ew.Write(entries[name]); err != nil {
			return err
		}
	}
	return zw.Close()
}

// parse splits FASTA headers at the first space into ID and Name.
func parse(text []byte) ([]naf.Record, error) {
	sc := fasta.NewScanner(fasta.NewReaderChunker(bytes.NewReader(text), 4096))
	var (
		rec  fasta.Record
		recs []naf.Record
	)
	for sc.Scan(&rec) {
		id, name := rec.ID, ""
		if i := strings.IndexByte(id, ' '); i >= 0 {
			id, name = id[:i], id[i+1:]
		}
		recs = append(recs, naf.Record{ID: id, Name: name, Seq: append([]byte(nil), rec.Seq...)})
	}
	return recs, sc.Err()
}

// WriteFile encodes fastaText in format and writes it to dir/name.
func WriteFile(t testing.TB, dir, name string, format seqfile.Format, fastaText string) string {
	data, err := Encode(format, []byte(fastaText))
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

// Extensions maps each format to a file extension that selects it.
var Extensions = map[seqfile.Format]string{
	seqfile.Plain: ".fa",
	seqfile.Gzip:  ".fa.gz",
	seqfile.Bgzip: ".fa.bgz",
	seqfile.Xz:    ".fa.xz",
	seqfile.Bzip2: ".fa.bz2",
	seqfile.Zstd:  ".fa.zst",
	seqfile.NAF:   ".naf",
	seqfile.Zip:   ".zip",
}
