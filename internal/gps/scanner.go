package gps

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
)

const (
	maxLineBytes = 1 << 20
	// oversized lines keep this much text for the log
	tooLongPrefix = 64
)

// ErrLineTooLong marks a line longer than the scanner's limit. The rest
// of the line is discarded and scanning continues with the next one.
var ErrLineTooLong = errors.New("gps: line too long")

// LineError is a per-line decode failure. It never stops a pass.
type LineError struct {
	Num  int
	Text string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v: %q", e.Num, e.Err, e.Text)
}

func (e *LineError) Unwrap() error { return e.Err }

// Line is the outcome of decoding one log line: either a Sentence or the
// reason the line was skipped.
type Line struct {
	Num      int
	Text     string
	Sentence Sentence
	Err      error // nil, ErrNotMatched, or a *LineError
}

// OK reports whether the line carries a decoded sentence.
func (l Line) OK() bool { return l.Err == nil }

// Scanner reads a log line by line and decodes each line.
type Scanner struct {
	r       *bufio.Reader
	dec     Decoder
	maxLine int
	line    Line
	num     int
	err     error
}

// NewScanner returns a Scanner reading from r.
func NewScanner(r io.Reader, dec Decoder) *Scanner {
	return &Scanner{r: bufio.NewReader(r), dec: dec, maxLine: maxLineBytes}
}

// Scan advances to the next line. It returns false at EOF or on a read error.
func (s *Scanner) Scan() bool {
	if s.err != nil {
		return false
	}
	text, tooLong, err := s.readLine()
	if err != nil {
		if !errors.Is(err, io.EOF) {
			s.err = err
		}
		return false
	}
	s.num++
	if tooLong {
		s.line = Line{Num: s.num, Text: text, Err: &LineError{Num: s.num, Text: text, Err: ErrLineTooLong}}
		return true
	}

	sent, err := s.dec.Decode(text)
	if err != nil && !errors.Is(err, ErrNotMatched) {
		err = &LineError{Num: s.num, Text: text, Err: err}
	}
	s.line = Line{Num: s.num, Text: text, Sentence: sent, Err: err}
	return true
}

// readLine returns the next line without its line ending. A line over the
// limit is drained up to its newline and only a short prefix is returned.
// io.EOF is returned only when no bytes were left.
func (s *Scanner) readLine() (string, bool, error) {
	var buf []byte
	tooLong, read := false, false
	for {
		chunk, err := s.r.ReadSlice('\n')
		if len(chunk) > 0 {
			read = true
		}
		switch {
		case tooLong:
		case len(buf)+len(chunk) > s.maxLine:
			tooLong = true
			if n := tooLongPrefix - len(buf); n > 0 {
				buf = append(buf, chunk[:min(n, len(chunk))]...)
			}
			buf = buf[:min(tooLongPrefix, len(buf))]
		default:
			buf = append(buf, chunk...)
		}

		switch {
		case err == nil:
			return string(trimEOL(buf)), tooLong, nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if !read {
				return "", false, io.EOF
			}
			return string(trimEOL(buf)), tooLong, nil
		default:
			return "", false, err
		}
	}
}

func trimEOL(b []byte) []byte {
	b = bytes.TrimSuffix(b, []byte("\n"))
	return bytes.TrimSuffix(b, []byte("\r"))
}

// Line returns the most recent line read by Scan.
func (s *Scanner) Line() Line { return s.line }

// Err returns the first read error, if any.
func (s *Scanner) Err() error { return s.err }
