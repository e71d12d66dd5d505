package token

import (
	"fmt"
)

// Splits an access log line into its top level fields. Whitespace separates
// fields except inside double quoted spans ("...") and bracketed spans
// ([...]), where it is kept as part of the field.

// public

type Token struct {
	// Text is the field contents with the surrounding quotes or
	// brackets already stripped.
	Text string
	// Start is the byte offset of the first byte of the span in the
	// line, including the opening delimiter if any.
	Start int
	// End is the byte offset one past the last byte of the span,
	// including the closing delimiter if any.
	End int
}

type Error struct {
	Offset int
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s at offset %d", e.Reason, e.Offset)
}

// Tokenize splits the given line (without trailing newline) into tokens in
// line order. An unterminated quoted or bracketed span is an error that
// identifies the byte offset where the span started. The number of tokens
// is not validated here.
func Tokenize(line string) ([]Token, error) {
	var tokens []Token
	i := 0
	n := len(line)
	for i < n {
		for i < n && isSpace(line[i]) {
			i++
		}
		if i >= n {
			break
		}
		start := i
		switch line[i] {
		case '"':
			end, err := scanSpan(line, i, '"', "quoted", true)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, Token{Text: line[i+1 : end], Start: start, End: end + 1})
			i = end + 1
		case '[':
			end, err := scanSpan(line, i, ']', "bracketed", false)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, Token{Text: line[i+1 : end], Start: start, End: end + 1})
			i = end + 1
		default:
			for i < n && !isSpace(line[i]) {
				i++
			}
			tokens = append(tokens, Token{Text: line[start:i], Start: start, End: i})
		}
	}
	return tokens, nil
}

// private

// scanSpan returns the offset of the closing delimiter of the span opened
// at offset start. Escaped closing delimiters (\") are literal characters
// when escapes is true.
func scanSpan(line string, start int, closing byte, kind string, escapes bool) (int, error) {
	i := start + 1
	escaped := false
	for i < len(line) {
		c := line[i]
		if escaped {
			escaped = false
			i++
			continue
		}
		if escapes && c == '\\' {
			escaped = true
			i++
			continue
		}
		if c == closing {
			return i, nil
		}
		i++
	}
	return 0, &Error{Offset: start, Reason: fmt.Sprintf("unterminated %s span", kind)}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t'
}
