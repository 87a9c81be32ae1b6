package bgzf

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"
	"testing"

	"github.com/grailbio/base/grail"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// genomeText returns FASTA text of roughly n bytes with 60-column lines.
func genomeText(rng *rand.Rand, n int) []byte {
	const residues = "ACGTNacgtn"
	var b bytes.Buffer
	for contig := 0; b.Len() < n; contig++ {
		fmt.Fprintf(&b, ">contig%d length unknown\n", contig)
		for line := 0; line < 50 && b.Len() < n; line++ {
			for i := 0; i < 60; i++ {
				b.WriteByte(residues[rng.Intn(len(residues))])
			}
			b.WriteByte('\n')
		}
	}
	return b.Bytes()
}

// members splits a bgzip stream at the BSIZE of each member.
func members(t *testing.T, data []byte) [][]byte {
	var out [][]byte
	for len(data) > 0 {
		require.True(t, IsBGZF(data), "member %d", len(out))
		size := int(binary.LittleEndian.Uint16(data[bsizeOffset:])) + 1
		require.True(t, size <= len(data), "member %d: bsize %d > %d", len(out), size, len(data))
		out = append(out, data[:size])
		data = data[size:]
	}
	return out
}

func TestWriter(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, tc := range []struct {
		size, blockSize, writeSize int
	}{
		{0, 0, 1},
		{1, 0, 1},
		{1000, 100, 7},
		{1000, 100, 100},
		{DefaultBlockSize + 1, 0, 4096},
		{300000, 0x8000, 1 << 20},
	} {
		name := fmt.Sprintf("%d/%d/%d", tc.size, tc.blockSize, tc.writeSize)
		text := genomeText(rng, tc.size)[:tc.size]
		var buf bytes.Buffer
		w, err := NewWriter(&buf, 1, tc.blockSize)
		require.NoError(t, err, name)
		for p := text; len(p) > 0; {
			n := tc.writeSize
			if n > len(p) {
				n = len(p)
			}
			k, err := w.Write(p[:n])
			require.NoError(t, err, name)
			require.Equal(t, n, k, name)
			p = p[n:]
		}
		require.NoError(t, w.Close(), name)

		blockSize := tc.blockSize
		if blockSize == 0 {
			blockSize = DefaultBlockSize
		}
		ms := members(t, buf.Bytes())
		assert.Equal(t, terminator, ms[len(ms)-1], name)
		assert.Equal(t, (tc.size+blockSize-1)/blockSize, len(ms)-1, name)

		// Plain gzip and bgzf readers both see the whole text.
		zr, err := gzip.NewReader(bytes.NewReader(buf.Bytes()))
		require.NoError(t, err, name)
		got, err := io.ReadAll(zr)
		require.NoError(t, err, name)
		assert.True(t, bytes.Equal(text, got), name)

		br, err := NewReader(bytes.NewReader(buf.Bytes()), 1)
		require.NoError(t, err, name)
		got, err = io.ReadAll(br)
		require.NoError(t, err, name)
		assert.NoError(t, br.Close())
		assert.True(t, bytes.Equal(text, got), name)
	}
}

func TestWriterBlockSize(t *testing.T) {
	var buf bytes.Buffer
	_, err := NewWriter(&buf, 1, MaxBlockSize+1)
	assert.Error(t, err)
	_, err = NewWriter(&buf, 42, 0)
	assert.Error(t, err)
}

func TestWriterSmallBlocks(t *testing.T) {
	// Every block of a FASTA file written in 16-byte blocks decompresses
	// on its own to the matching slice of the text.
	text := []byte(">chr1 first\nACGTACGTNNacgt\nGGCC\n>chr2\n>chr3\nAAAA-TTTT.\nCCCC\n")
	var buf bytes.Buffer
	w, err := NewWriter(&buf, 6, 16)
	require.NoError(t, err)
	_, err = w.Write(text)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	ms := members(t, buf.Bytes())
	require.Len(t, ms, (len(text)+15)/16+1)
	var got []byte
	for i, m := range ms {
		zr, err := gzip.NewReader(bytes.NewReader(m))
		require.NoError(t, err, "member %d", i)
		zr.Multistream(false)
		b, err := io.ReadAll(zr)
		require.NoError(t, err, "member %d", i)
		if i < len(ms)-1 {
			assert.True(t, len(b) > 0 && len(b) <= 16, "member %d: %d bytes", i, len(b))
		} else {
			assert.Empty(t, b)
		}
		got = append(got, b...)
	}
	assert.Equal(t, string(text), string(got))
}

type failingWriter struct{ n int }

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.n == 0 {
		return 0, io.ErrShortWrite
	}
	w.n--
	return len(p), nil
}

func TestWriterError(t *testing.T) {
	w, err := NewWriter(&failingWriter{n: 1}, 1, 8)
	require.NoError(t, err)
	_, err = w.Write([]byte(strings.Repeat("ACGT", 4)))
	assert.Equal(t, io.ErrShortWrite, err)
	// The error sticks.
	_, err = w.Write([]byte("A"))
	assert.Equal(t, io.ErrShortWrite, err)
	assert.Equal(t, io.ErrShortWrite, w.Close())
}

func TestIsBGZF(t *testing.T) {
	var plain bytes.Buffer
	gz := gzip.NewWriter(&plain)
	_, err := gz.Write([]byte(">seq1\nACGT\n"))
	require.Nil(t, err)
	require.Nil(t, gz.Close())
	assert.False(t, IsBGZF(plain.Bytes()))

	// A gzip member with an extra field that isn't BC.
	var other bytes.Buffer
	gz = gzip.NewWriter(&other)
	gz.Header.Extra = []byte{'X', 'Y', 2, 0, 0, 0}
	_, err = gz.Write([]byte(">seq1\nACGT\n"))
	require.Nil(t, err)
	require.Nil(t, gz.Close())
	assert.False(t, IsBGZF(other.Bytes()))

	assert.True(t, IsBGZF(terminator))
	assert.False(t, IsBGZF(terminator[:HeaderLen-1]))
	assert.False(t, IsBGZF([]byte(">seq1\nACGTACGTACGTACGT\n")))
}

func TestMain(m *testing.M) {
	shutdown := grail.Init()
	defer shutdown()
	os.Exit(m.Run())
}
