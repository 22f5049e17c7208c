package psmove

import (
	"bufio"
	"io"
)

// Stream reads tracker lines one at a time. It is not safe for concurrent use.
type Stream struct {
	scanner *bufio.Scanner
	line    int
}

func NewStream(r io.Reader) *Stream {
	return &Stream{scanner: bufio.NewScanner(r)}
}

// Next blocks until the next line is available and parses it.
// It returns io.EOF once the tracker closes its end of the pipe.
func (s *Stream) Next() (Signal, error) {
	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			return Signal{}, err
		}
		return Signal{}, io.EOF
	}
	s.line++
	return ParseLine(s.scanner.Text())
}

// Line returns the number of lines consumed so far.
func (s *Stream) Line() int {
	return s.line
}
