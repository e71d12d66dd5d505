package emitter

import (
	"bufio"
	"encoding/json"
	"io"
	"time"

	"github.com/56quarters/redeye/internal/parser"
)

// Version of the JSON output layout, emitted as @version on every record.
const outputVersion = "1"

// Emitter serializes parsed records into Logstash compatible JSON, one
// object per line (NDJSON).
type Emitter struct {
	writer  *bufio.Writer
	encoder *json.Encoder
}

func New(output io.Writer) *Emitter {
	writer := bufio.NewWriter(output)
	encoder := json.NewEncoder(writer)
	// URLs and user agents should come out as written, not HTML escaped
	encoder.SetEscapeHTML(false)
	return &Emitter{writer: writer, encoder: encoder}
}

// Emit writes one record as a single JSON line and flushes it so output
// keeps up with input when reading a live stream.
func (e *Emitter) Emit(record parser.Record) error {
	if err := e.encoder.Encode(Fields(record)); err != nil {
		return err
	}
	return e.writer.Flush()
}

func (e *Emitter) Close() error {
	return e.writer.Flush()
}

// Fields maps a record to its output fields. Optional fields that were
// "-" in the log are omitted, but the degraded request line fields
// (method, requested_uri, protocol) are always present, even when empty,
// so malformed requests stay inspectable downstream.
func Fields(record parser.Record) map[string]any {
	out := map[string]any{
		"@timestamp":    record.Timestamp.Format(time.RFC3339),
		"@version":      outputVersion,
		"remote_host":   record.RemoteHost,
		"requested_url": record.RequestedURL(),
		"method":        record.Method,
		"requested_uri": record.RequestedURI,
		"protocol":      record.Protocol,
		"status_code":   record.StatusCode,
		"message":       record.Message,
	}
	if len(record.RemoteUser) > 0 {
		out["remote_user"] = record.RemoteUser
	}
	if record.ContentLength != nil {
		out["content_length"] = *record.ContentLength
	}
	if len(record.Referrer) > 0 {
		out["referrer"] = record.Referrer
	}
	if len(record.UserAgent) > 0 {
		out["user_agent"] = record.UserAgent
	}
	return out
}
