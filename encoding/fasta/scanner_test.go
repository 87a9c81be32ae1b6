package fasta_test

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/grailbio/asmstats/encoding/fasta"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// splitChunker hands out data in pieces of at most size bytes.
type splitChunker struct {
	data []byte
	size int
}

func (c *splitChunker) Next() ([]byte, error) {
	if len(c.data) == 0 {
		return nil, io.EOF
	}
	n := c.size
	if n > len(c.data) {
		n = len(c.data)
	}
	chunk := c.data[:n]
	c.data = c.data[n:]
	return chunk, nil
}

type rec struct {
	id, seq string
}

func scanAll(t *testing.T, src fasta.Chunker) []rec {
	var (
		s    = fasta.NewScanner(src)
		r    fasta.Record
		recs []rec
	)
	for s.Scan(&r) {
		recs = append(recs, rec{r.ID, string(r.Seq)})
	}
	require.NoError(t, s.Err())
	return recs
}

func TestScanner(t *testing.T) {
	tests := []struct {
		name string
		data string
		want []rec
	}{
		{"empty", "", nil},
		{"two records", ">seq1\nATGC\n>seq2\nAAAAA\n", []rec{{"seq1", "ATGC"}, {"seq2", "AAAAA"}}},
		{"multi-line", ">seq1\nACGTA\nCGTAC\nGT\n>seq2 A viral sequence\nACGT\nACGT\n",
			[]rec{{"seq1", "ACGTACGTACGT"}, {"seq2 A viral sequence", "ACGTACGT"}}},
		{"crlf", ">seq1\r\nATGC\r\n>seq2\r\nAAAAA\r\n", []rec{{"seq1", "ATGC"}, {"seq2", "AAAAA"}}},
		{"mixed line endings", ">seq1\nATGC\r\n>seq2\r\nAAAAA\n", []rec{{"seq1", "ATGC"}, {"seq2", "AAAAA"}}},
		{"gaps and whitespace", ">seq1\nAT GC\n-..-\nATGC\t\n", []rec{{"seq1", "ATGCATGC"}}},
		{"no trailing newline", ">seq1\nATGC", []rec{{"seq1", "ATGC"}}},
		{"only header", ">only_header\n", []rec{{"only_header", ""}}},
		{"header without newline", ">only_header", []rec{{"only_header", ""}}},
		{"empty record in the middle", ">a\n>b\nAC\n", []rec{{"a", ""}, {"b", "AC"}}},
		{"noise before header", "some noise\n>seq1\nATGC\n", []rec{{"seq1", "ATGC"}}},
		{"comment lines", "; legacy comment line\n>seq1 with spaces\nATGC\n;inner\nAA\n>  seq2\tmetadata\nGGGG\n",
			[]rec{{"seq1 with spaces", "ATGCAA"}, {"  seq2\tmetadata", "GGGG"}}},
		{"header bases are not residues", ">seq_with_GC_and_N\nATGC\n>next\nNNNN\n",
			[]rec{{"seq_with_GC_and_N", "ATGC"}, {"next", "NNNN"}}},
		{"gt inside a line", ">a\nAC>GT\n", []rec{{"a", "AC>GT"}}},
		{"blank lines", "\n\n>a\n\nAC\n\nGT\n\n", []rec{{"a", "ACGT"}}},
	}
	for _, tt := range tests {
		// Every chunk size must give the same records.
		maxSize := len(tt.data) + 1
		for size := 1; size <= maxSize; size++ {
			got := scanAll(t, &splitChunker{data: []byte(tt.data), size: size})
			assert.Equal(t, tt.want, got, "%s: chunk size %d", tt.name, size)
		}
	}
}

func TestRecordName(t *testing.T) {
	for _, tt := range []struct{ id, name string }{
		{"chr1 A viral sequence", "chr1"},
		{"chr2\tx", "chr2"},
		{"chr3", "chr3"},
		{"", ""},
	} {
		r := fasta.Record{ID: tt.id}
		assert.Equal(t, tt.name, r.Name())
	}
}

func TestReaderChunker(t *testing.T) {
	data := ">seq1\n" + strings.Repeat("ACGTN", 1000) + "\n>seq2\nGG\n"
	for _, bufSize := range []int{1, 7, 64, 1 << 20} {
		got := scanAll(t, fasta.NewReaderChunker(strings.NewReader(data), bufSize))
		require.Len(t, got, 2, "buffer size %d", bufSize)
		assert.Equal(t, 5000, len(got[0].seq))
		assert.Equal(t, "GG", got[1].seq)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("forced failure")
}

func TestScannerError(t *testing.T) {
	s := fasta.NewScanner(fasta.NewReaderChunker(failingReader{}, 16))
	var r fasta.Record
	assert.False(t, s.Scan(&r))
	assert.EqualError(t, s.Err(), "forced failure")
	assert.False(t, s.Scan(&r))

	// Records completed before the failure are still delivered.
	src := fasta.NewReaderChunker(io.MultiReader(strings.NewReader(">a\nAC\n>b\nG"), failingReader{}), 4)
	s = fasta.NewScanner(src)
	require.True(t, s.Scan(&r))
	assert.Equal(t, "a", r.ID)
	assert.False(t, s.Scan(&r))
	assert.Error(t, s.Err())
}

func BenchmarkScanner(b *testing.B) {
	var sb strings.Builder
	for i := 0; i < 100; i++ {
		fmt.Fprintf(&sb, ">seq%d\n", i)
		for j := 0; j < 100; j++ {
			sb.WriteString(strings.Repeat("ACGT", 15) + "\n")
		}
	}
	data := []byte(sb.String())
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s := fasta.NewScanner(&splitChunker{data: data, size: 1 << 16})
		var r fasta.Record
		for s.Scan(&r) {
		}
	}
}
