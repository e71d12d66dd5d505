package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/56quarters/redeye/internal/token"
)

func TestParseCommon(t *testing.T) {
	line := `127.0.0.1 - frank [10/Oct/2000:13:55:36 -0700] "GET /index.html HTTP/1.0" 200 2326`
	record, err := Parse(line)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", record.RemoteHost)
	assert.Equal(t, "frank", record.RemoteUser)
	assert.Equal(t, "GET", record.Method)
	assert.Equal(t, "/index.html", record.RequestedURI)
	assert.Equal(t, "HTTP/1.0", record.Protocol)
	assert.Equal(t, uint64(200), record.StatusCode)
	require.NotNil(t, record.ContentLength)
	assert.Equal(t, uint64(2326), *record.ContentLength)
	assert.Equal(t, "", record.Referrer)
	assert.Equal(t, "", record.UserAgent)
	assert.Equal(t, line, record.Message)
}

func TestParseCombined(t *testing.T) {
	line := `192.168.1.1 - - [15/Jan/2024:10:30:45 +0000] "POST /login HTTP/1.1" 302 512 "http://example.com/start.html" "Mozilla/4.08 (Win98)"`
	record, err := Parse(line)
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.1", record.RemoteHost)
	assert.Equal(t, "", record.RemoteUser)
	assert.Equal(t, "http://example.com/start.html", record.Referrer)
	assert.Equal(t, "Mozilla/4.08 (Win98)", record.UserAgent)
	assert.Equal(t, line, record.Message)
}

func TestParseTimestampOffsetPreserved(t *testing.T) {
	record, err := Parse(`127.0.0.1 - - [10/Oct/2000:13:55:36 -0700] "GET / HTTP/1.0" 200 1`)
	require.NoError(t, err)
	_, offset := record.Timestamp.Zone()
	assert.Equal(t, -7*3600, offset)
	assert.Equal(t, "2000-10-10T13:55:36-07:00", record.Timestamp.Format("2006-01-02T15:04:05Z07:00"))
}

func TestParseMissingContentLength(t *testing.T) {
	record, err := Parse(`127.0.0.1 - - [10/Oct/2000:13:55:36 -0700] "GET / HTTP/1.0" 200 -`)
	require.NoError(t, err)
	assert.Nil(t, record.ContentLength)
}

func TestParseDashReferrerAndUserAgent(t *testing.T) {
	record, err := Parse(`127.0.0.1 - - [10/Oct/2000:13:55:36 -0700] "GET / HTTP/1.0" 200 1 "-" "-"`)
	require.NoError(t, err)
	assert.Equal(t, "", record.Referrer)
	assert.Equal(t, "", record.UserAgent)
}

func TestParseDegradedRequestLine(t *testing.T) {
	record, err := Parse(`127.0.0.1 - - [10/Oct/2000:13:55:36 -0700] "GET" 400 -`)
	require.NoError(t, err)
	assert.Equal(t, "GET", record.Method)
	assert.Equal(t, "", record.RequestedURI)
	assert.Equal(t, "", record.Protocol)
	assert.Equal(t, "GET", record.RequestedURL())

	record, err = Parse(`127.0.0.1 - - [10/Oct/2000:13:55:36 -0700] "" 400 -`)
	require.NoError(t, err)
	assert.Equal(t, "", record.Method)
	assert.Equal(t, "", record.RequestedURI)
	assert.Equal(t, "", record.Protocol)
}

func TestParseRequestLineRoundTrip(t *testing.T) {
	request := "GET /index.html HTTP/1.0"
	record, err := Parse(`127.0.0.1 - - [10/Oct/2000:13:55:36 -0700] "` + request + `" 200 1`)
	require.NoError(t, err)
	assert.Equal(t, request, record.RequestedURL())
}

func TestParseTokenizeErrors(t *testing.T) {
	// unterminated quote
	line := `127.0.0.1 - - [10/Oct/2000:13:55:36 -0700] "GET /index.html 200 2326`
	_, err := Parse(line)
	require.Error(t, err)
	parseErr := requireParseError(t, err)
	assert.Equal(t, FieldTokenize, parseErr.Field)
	assert.Equal(t, line, parseErr.Line)
	var tokErr *token.Error
	assert.True(t, errors.As(err, &tokErr))

	// not enough fields
	_, err = Parse(`127.0.0.1 - -`)
	parseErr = requireParseError(t, err)
	assert.Equal(t, FieldTokenize, parseErr.Field)

	// empty line
	_, err = Parse(``)
	parseErr = requireParseError(t, err)
	assert.Equal(t, FieldTokenize, parseErr.Field)
}

func TestParseBadTimestamp(t *testing.T) {
	_, err := Parse(`127.0.0.1 - - [10/Xxx/2000:13:55:36 -0700] "GET / HTTP/1.0" 200 1`)
	parseErr := requireParseError(t, err)
	assert.Equal(t, FieldTimestamp, parseErr.Field)
}

func TestParseBadStatus(t *testing.T) {
	line := `127.0.0.1 - - [10/Oct/2000:13:55:36 -0700] "GET / HTTP/1.0" ABC 1`
	_, err := Parse(line)
	parseErr := requireParseError(t, err)
	assert.Equal(t, FieldStatus, parseErr.Field)
	assert.Equal(t, line, parseErr.Line)

	// negative status is not a valid unsigned integer
	_, err = Parse(`127.0.0.1 - - [10/Oct/2000:13:55:36 -0700] "GET / HTTP/1.0" -200 1`)
	parseErr = requireParseError(t, err)
	assert.Equal(t, FieldStatus, parseErr.Field)
}

func TestParseBadBytes(t *testing.T) {
	_, err := Parse(`127.0.0.1 - - [10/Oct/2000:13:55:36 -0700] "GET / HTTP/1.0" 200 abc`)
	parseErr := requireParseError(t, err)
	assert.Equal(t, FieldBytes, parseErr.Field)
}

func TestParseExtraFieldsIgnored(t *testing.T) {
	line := `127.0.0.1 - - [10/Oct/2000:13:55:36 -0700] "GET / HTTP/1.0" 200 1 "ref" "agent" trailing garbage`
	record, err := Parse(line)
	require.NoError(t, err)
	assert.Equal(t, "ref", record.Referrer)
	assert.Equal(t, "agent", record.UserAgent)
	assert.Equal(t, line, record.Message)
}

func TestParseFormatShape(t *testing.T) {
	common := `127.0.0.1 - - [10/Oct/2000:13:55:36 -0700] "GET / HTTP/1.0" 200 1`
	combined := common + ` "ref" "agent"`

	_, err := ParseFormat(common, FormatCommon)
	assert.NoError(t, err)
	_, err = ParseFormat(combined, FormatCommon)
	assert.Error(t, err)

	_, err = ParseFormat(combined, FormatCombined)
	assert.NoError(t, err)
	_, err = ParseFormat(common, FormatCombined)
	assert.Error(t, err)

	_, err = ParseFormat(common, FormatAny)
	assert.NoError(t, err)
	_, err = ParseFormat(combined, FormatAny)
	assert.NoError(t, err)
}

func requireParseError(t *testing.T, err error) *ParseError {
	t.Helper()
	require.Error(t, err)
	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	return parseErr
}
