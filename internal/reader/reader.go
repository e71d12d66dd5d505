package reader

import (
	"bufio"
	"io"
)

const (
	bufferBytes = 64 * 1024
	// Access log lines are rarely longer than a few hundred bytes, but
	// request URIs and user agents are attacker controlled.
	maxLineBytes = 1024 * 1024
)

// LineReader reads complete text lines from a stream, typically stdin or
// an access log file. The trailing newline is stripped from every line.
type LineReader struct {
	scanner *bufio.Scanner
	number  int
}

func New(input io.Reader) *LineReader {
	scanner := bufio.NewScanner(input)
	scanner.Buffer(make([]byte, bufferBytes), maxLineBytes)
	return &LineReader{scanner: scanner}
}

// Next returns the next line and its 1-based line number. io.EOF is
// returned at the end of the stream.
func (r *LineReader) Next() (string, int, error) {
	if r.scanner.Scan() {
		r.number++
		return r.scanner.Text(), r.number, nil
	}
	if err := r.scanner.Err(); err != nil {
		return "", r.number, err
	}
	return "", r.number, io.EOF
}
