package naf

import (
	"bufio"
	"bytes"
	"io"
	"math/rand"
	"os"
	"strings"
	"testing"

	"github.com/grailbio/asmstats/biosimd"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, archive []byte) string {
	r, err := NewReader(bytes.NewReader(archive))
	require.NoError(t, err)
	defer r.Close()
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(out)
}

func TestNumber(t *testing.T) {
	for _, v := range []uint64{0, 1, 127, 128, 300, 1 << 32, 1<<64 - 1} {
		b := appendNumber(nil, v)
		got, err := readNumber(bufio.NewReader(bytes.NewReader(b)))
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
	assert.Equal(t, []byte{0x82, 0x2c}, appendNumber(nil, 300))
	_, err := readNumber(bufio.NewReader(bytes.NewReader([]byte{0x80})))
	assert.Equal(t, io.ErrUnexpectedEOF, err)
}

func TestRoundTripDNA(t *testing.T) {
	var buf bytes.Buffer
	recs := []Record{
		{ID: "chr1", Name: "first contig", Seq: []byte("ACGTNACGT")},
		{ID: "chr2", Seq: []byte("")},
		{ID: "chr3", Seq: []byte("acgtRYKM-")},
	}
	require.NoError(t, Write(&buf, recs, DefaultWriteOpts))
	assert.Equal(t,
		">chr1 first contig\nACGTNACGT\n>chr2\n>chr3\nACGTRYKM-\n",
		render(t, buf.Bytes()))
}

func TestRoundTripRNA(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultWriteOpts
	opts.SeqType = RNA
	opts.Title = "rna"
	require.NoError(t, Write(&buf, []Record{{ID: "r", Seq: []byte("ACGUU")}}, opts))
	r, err := NewReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, "rna", r.Header().Title)
	assert.Equal(t, RNA, r.Header().SeqType)
	require.NoError(t, r.Close())
	assert.Equal(t, ">r\nACGUU\n", render(t, buf.Bytes()))
}

func TestRoundTripProtein(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultWriteOpts
	opts.SeqType = Protein
	require.NoError(t, Write(&buf, []Record{{ID: "p", Name: "x", Seq: []byte("MKV*")}}, opts))
	assert.Equal(t, ">p x\nMKV*\n", render(t, buf.Bytes()))
}

func TestLargeRecordSmallReads(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	const alphabet = "ACGTN"
	seq := make([]byte, 200001)
	for i := range seq {
		seq[i] = alphabet[rng.Intn(len(alphabet))]
	}
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, []Record{{ID: "a", Seq: seq}, {ID: "b", Seq: seq[:7]}}, DefaultWriteOpts))
	r, err := NewReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer r.Close()
	var out bytes.Buffer
	p := make([]byte, 1000)
	for {
		n, err := r.Read(p)
		out.Write(p[:n])
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}
	want := ">a\n" + string(seq) + "\n>b\n" + string(seq[:7]) + "\n"
	assert.Equal(t, want, out.String())
}

func TestLengthEscape(t *testing.T) {
	b := appendLength(nil, maxLength+5)
	assert.Len(t, b, 8)
	got, err := decodeLengths(append(b, appendLength(nil, 3)...), 2)
	require.NoError(t, err)
	assert.Equal(t, []uint64{maxLength + 5, 3}, got)

	_, err = decodeLengths(b[:4], 1)
	assert.Error(t, err)
}

func TestBadInput(t *testing.T) {
	_, err := NewReader(bytes.NewReader([]byte(">not naf\n")))
	assert.Error(t, err)

	_, err = NewReader(bytes.NewReader([]byte{0x01, 0xF9, 0xEC, 9}))
	assert.Error(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, []Record{{ID: "a", Seq: []byte("ACGTACGTACGT")}}, DefaultWriteOpts))
	truncated := buf.Bytes()[:buf.Len()-10]
	r, err := NewReader(bytes.NewReader(truncated))
	if err == nil {
		_, err = io.ReadAll(r)
		r.Close()
	}
	assert.Error(t, err)
}

// two_records.naf was assembled byte by byte from the NAF v2 layout, with
// sections compressed by the zstd command-line tool and their frame magic
// removed.  chr1 has a lowercase run, so the archive also carries a mask.
func TestReadArchiveFile(t *testing.T) {
	data, err := os.ReadFile("testdata/two_records.naf")
	require.NoError(t, err)
	r, err := NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	h := r.Header()
	assert.Equal(t, byte(2), h.Version)
	assert.Equal(t, DNA, h.SeqType)
	assert.Equal(t, "asmstats fixture", h.Title)
	assert.Equal(t, uint64(2), h.NumRecords)
	assert.Equal(t, uint64(60), h.LineLength)
	assert.True(t, h.has(flagMask))
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, ">chr1 first contig\nACGTNNGGCCACGTAT\n>chr2\nNNNNAAAAGC\n", string(out))

	var (
		lengths []int
		gc, n   int
	)
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		if strings.HasPrefix(line, ">") {
			continue
		}
		lengths = append(lengths, len(line))
		g, nn := biosimd.Scalar.Count([]byte(line))
		gc += g
		n += nn
	}
	assert.Equal(t, []int{16, 10}, lengths)
	assert.Equal(t, 10, gc)
	assert.Equal(t, 6, n)
}

func TestSectionFrameMagic(t *testing.T) {
	recs := []Record{{ID: "a", Name: "alpha", Seq: []byte("ACGTN")}, {ID: "b", Seq: []byte("GG")}}
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, recs, DefaultWriteOpts))

	// Sections are written without the zstd frame magic.
	br := bufio.NewReader(bytes.NewReader(buf.Bytes()))
	h, err := readHeader(br)
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		size, err := readNumber(br)
		require.NoError(t, err)
		csize, err := readNumber(br)
		require.NoError(t, err)
		sec := make([]byte, csize)
		_, err = io.ReadFull(br, sec)
		require.NoError(t, err)
		assert.False(t, bytes.HasPrefix(sec, zstdMagic), "section %d", i)
		if i == 3 {
			assert.Equal(t, uint64(7), size, "residue count")
		}
	}
	_, err = br.ReadByte()
	assert.Equal(t, io.EOF, err)

	// Sections that keep the magic are read as well.
	enc, err := zstd.NewWriter(nil, zstd.WithZeroFrames(true))
	require.NoError(t, err)
	defer enc.Close()
	full := func(dst, b []byte, size uint64) []byte {
		c := enc.EncodeAll(b, nil)
		require.True(t, bytes.HasPrefix(c, zstdMagic))
		dst = appendNumber(dst, size)
		dst = appendNumber(dst, uint64(len(c)))
		return append(dst, c...)
	}
	out := appendHeader(nil, &h)
	out = full(out, []byte("a\x00b\x00"), 4)
	out = full(out, []byte("alpha\x00\x00"), 7)
	out = full(out, append(appendLength(nil, 5), appendLength(nil, 2)...), 8)
	out = full(out, packNibbles([]byte("ACGTNGG")), 7)
	want := ">a alpha\nACGTN\n>b\nGG\n"
	assert.Equal(t, want, render(t, out))
	assert.Equal(t, want, render(t, buf.Bytes()))
}
