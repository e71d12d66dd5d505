package parser

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/56quarters/redeye/internal/token"
)

// public

// Record is the structured form of a single access log line. Optional
// fields (remote user, referrer, user agent) are empty strings when the
// log contains "-" for them. ContentLength is nil when the log contains
// "-". Message is always the verbatim input line.
type Record struct {
	RemoteHost    string
	RemoteUser    string
	Timestamp     time.Time
	Method        string
	RequestedURI  string
	Protocol      string
	StatusCode    uint64
	ContentLength *uint64
	Referrer      string
	UserAgent     string
	Message       string
}

// RequestedURL reconstructs the request line from the parts that were
// recovered, e.g. "GET /index.html HTTP/1.0".
func (r Record) RequestedURL() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{r.Method, r.RequestedURI, r.Protocol} {
		if len(p) > 0 {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

type Field int

const (
	FieldTokenize Field = iota
	FieldTimestamp
	FieldStatus
	FieldBytes
)

func (f Field) String() string {
	switch f {
	case FieldTokenize:
		return "tokenize"
	case FieldTimestamp:
		return "timestamp"
	case FieldStatus:
		return "status"
	case FieldBytes:
		return "bytes"
	}
	return "unknown"
}

// ParseError reports which field of a log line could not be parsed and
// carries the offending line for diagnostics.
type ParseError struct {
	Field Field
	Line  string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s field: %s: '%s'", e.Field, e.Err.Error(), e.Line)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

type Format int

const (
	// FormatAny accepts both Common and Combined lines, inferred per
	// line from the number of fields.
	FormatAny Format = iota
	FormatCommon
	FormatCombined
)

const (
	commonFields   = 7
	combinedFields = 9
)

// Parse converts one access log line into a Record. The format is
// inferred per line: 7 fields parse as Common Log Format, 9 or more as
// Combined. Parse has no state and is safe to call concurrently.
func Parse(line string) (Record, error) {
	return ParseFormat(line, FormatAny)
}

// ParseFormat is Parse with shape pre-validation: FormatCommon rejects
// lines with more or fewer than 7 fields, FormatCombined rejects lines
// with fewer than 9. The field values themselves are parsed the same way
// regardless of format.
func ParseFormat(line string, format Format) (Record, error) {
	tokens, err := token.Tokenize(line)
	if err != nil {
		return Record{}, &ParseError{Field: FieldTokenize, Line: line, Err: err}
	}
	if err := checkFields(len(tokens), format); err != nil {
		return Record{}, &ParseError{Field: FieldTokenize, Line: line, Err: err}
	}

	record := Record{Message: line}
	record.RemoteHost = tokens[0].Text
	// tokens[1] is the rfc931 ident field, present in the format but
	// effectively unused. Not retained.
	record.RemoteUser = emptyField(tokens[2].Text)

	record.Timestamp, err = ParseTimestamp(tokens[3].Text)
	if err != nil {
		return Record{}, &ParseError{Field: FieldTimestamp, Line: line, Err: err}
	}

	// A malformed request line degrades to empty fields instead of
	// failing the whole line, see ParseRequestLine.
	record.Method, record.RequestedURI, record.Protocol = ParseRequestLine(tokens[4].Text)

	record.StatusCode, err = strconv.ParseUint(tokens[5].Text, 10, 64)
	if err != nil {
		return Record{}, &ParseError{Field: FieldStatus, Line: line, Err: fmt.Errorf("invalid status code '%s'", tokens[5].Text)}
	}

	if tokens[6].Text != "-" {
		length, err := strconv.ParseUint(tokens[6].Text, 10, 64)
		if err != nil {
			return Record{}, &ParseError{Field: FieldBytes, Line: line, Err: fmt.Errorf("invalid content length '%s'", tokens[6].Text)}
		}
		record.ContentLength = &length
	}

	// Combined Log Format trailing fields. Anything beyond them is
	// ignored for forward compatibility.
	if len(tokens) > 7 {
		record.Referrer = emptyField(tokens[7].Text)
	}
	if len(tokens) > 8 {
		record.UserAgent = emptyField(tokens[8].Text)
	}
	return record, nil
}

// private

func checkFields(count int, format Format) error {
	min := commonFields
	if format == FormatCombined {
		min = combinedFields
	}
	if count < min {
		return fmt.Errorf("expected at least %d fields, found %d", min, count)
	}
	if format == FormatCommon && count > commonFields {
		return fmt.Errorf("expected %d fields, found %d", commonFields, count)
	}
	return nil
}

// emptyField collapses the "-" placeholder to an absent value.
func emptyField(val string) string {
	if val == "-" {
		return ""
	}
	return val
}
