package fasta

import (
	"bytes"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// Chunker supplies FASTA text as a sequence of byte chunks.  Chunk
// boundaries carry no meaning: a line, or a record, may be split across any
// number of chunks.  The slice returned by Next is only valid until the
// following call.  Next returns io.EOF once the input is exhausted.
type Chunker interface {
	Next() ([]byte, error)
}

// Record is one FASTA record.
type Record struct {
	// ID is the header line without the leading '>' and the line terminator.
	// It is not otherwise interpreted.
	ID string
	// Seq holds the residues: the concatenation of the record's sequence lines
	// with whitespace and alignment gap characters ('-', '.') removed.  It is
	// owned by the Scanner and only valid until the next call to Scan.
	Seq []byte
}

// Name returns the sequence name, i.e. the stretch of ID before the first
// space or tab.  For example, '>chr1 A viral sequence' has name 'chr1'.
func (r *Record) Name() string {
	if i := strings.IndexAny(r.ID, " \t"); i >= 0 {
		return r.ID[:i]
	}
	return r.ID
}

var errEOF = errors.New("eof")

// Bytes removed from sequence lines.  '\n' never reaches the residue path.
var skipResidue = [256]bool{
	' ': true, '\t': true, '\r': true, '\v': true, '\f': true,
	'-': true, '.': true,
}

type scanState int

const (
	// Before the first header, or right after a record was emitted.
	stateIdle scanState = iota
	stateHeader
	stateResidues
)

// Scanner reads FASTA records from a Chunker.  Scanners are not threadsafe.
//
// Text before the first header is ignored, as are lines starting with ';'
// outside of headers.  A header followed by no sequence lines is a record
// with an empty Seq.  Both LF and CRLF line terminators are accepted.
//
// Peak memory is proportional to the longest record, not to the input size.
type Scanner struct {
	src       Chunker
	chunk     []byte // unconsumed part of the current chunk
	eof       bool
	lineStart bool
	comment   bool // inside a ';' line
	state     scanState
	id        []byte
	seq       []byte
	err       error
}

// NewScanner creates a Scanner that reads from src.
func NewScanner(src Chunker) *Scanner {
	return &Scanner{src: src, lineStart: true}
}

// Scan reads the next record into rec.  Scan returns a boolean indicating
// whether the scan succeeded.  Once Scan returns false, it never returns
// true again.  Upon completion, the user should check the Err method to
// determine whether scanning stopped because of an error or because the end
// of the input was reached.
func (s *Scanner) Scan(rec *Record) bool {
	if s.err != nil {
		return false
	}
	for {
		if len(s.chunk) == 0 {
			if s.eof {
				if s.state != stateIdle {
					s.emit(rec)
					return true
				}
				s.err = errEOF
				return false
			}
			if !s.fill() {
				return false
			}
			continue
		}
		if s.lineStart && !s.comment && s.state != stateHeader {
			switch s.chunk[0] {
			case '>':
				if s.state == stateResidues {
					// Leave '>' in place; the next call starts the new record.
					s.emit(rec)
					return true
				}
				s.chunk = s.chunk[1:]
				s.state = stateHeader
				s.id = s.id[:0]
				s.seq = s.seq[:0]
				s.lineStart = false
				continue
			case ';':
				s.comment = true
			}
		}
		line := s.chunk
		i := bytes.IndexByte(line, '\n')
		if i >= 0 {
			line = line[:i]
			s.chunk = s.chunk[i+1:]
		} else {
			s.chunk = nil
		}
		switch {
		case s.comment:
		case s.state == stateHeader:
			s.id = append(s.id, line...)
		case s.state == stateResidues:
			s.seq = appendResidues(s.seq, line)
		}
		s.lineStart = i >= 0
		if s.lineStart {
			s.comment = false
			if s.state == stateHeader {
				s.state = stateResidues
			}
		}
	}
}

func (s *Scanner) fill() bool {
	chunk, err := s.src.Next()
	if err == io.EOF {
		s.eof = true
		err = nil
	}
	if err != nil {
		s.err = err
		return false
	}
	s.chunk = chunk
	return true
}

func (s *Scanner) emit(rec *Record) {
	id := s.id
	if n := len(id); n > 0 && id[n-1] == '\r' {
		id = id[:n-1]
	}
	rec.ID = string(id)
	rec.Seq = s.seq
	s.state = stateIdle
}

// Err returns the scanning error, if any.
func (s *Scanner) Err() error {
	if s.err == errEOF {
		return nil
	}
	return s.err
}

// appendResidues appends the bytes of line that are not in skipResidue to
// dst, copying maximal clean runs at a time.
func appendResidues(dst, line []byte) []byte {
	for len(line) > 0 {
		i := 0
		for i < len(line) && !skipResidue[line[i]] {
			i++
		}
		dst = append(dst, line[:i]...)
		for i < len(line) && skipResidue[line[i]] {
			i++
		}
		line = line[i:]
	}
	return dst
}

// ReaderChunker adapts an io.Reader to a Chunker, reading into a reusable
// buffer of fixed size.
type ReaderChunker struct {
	r   io.Reader
	buf []byte
	err error
}

// NewReaderChunker returns a Chunker that reads r in chunks of at most
// bufSize bytes.
func NewReaderChunker(r io.Reader, bufSize int) *ReaderChunker {
	return &ReaderChunker{r: r, buf: make([]byte, bufSize)}
}

// Next implements Chunker.
func (c *ReaderChunker) Next() ([]byte, error) {
	for c.err == nil {
		var n int
		n, c.err = c.r.Read(c.buf)
		if n > 0 {
			// c.err, if any, is reported by the following call.
			return c.buf[:n], nil
		}
	}
	return nil, c.err
}
