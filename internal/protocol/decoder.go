// Package protocol decodes the worker's stdout line protocol into typed
// events. The worker emits one event per newline-terminated UTF-8 line:
//
//	PRG:<stage>:<current>:<total>   progress (numeric or textual current)
//	SKIP_ACK                        skip request honored
//	anything else                   free-form log text
package protocol

import (
	"strconv"
	"strings"
)

const (
	progressPrefix = "PRG:"
	skipAckLine    = "SKIP_ACK"
)

// Decoder buffers raw stream chunks and yields events for every complete
// line. Partial lines spanning multiple reads are held until terminated.
type Decoder struct {
	buf []byte
}

// Feed appends a chunk and decodes every line completed by it, in receipt
// order. Lines may be terminated by \n or \r (worker progress output uses
// carriage returns on some hosts, like yt-dlp does).
func (d *Decoder) Feed(p []byte) []Event {
	d.buf = append(d.buf, p...)
	var events []Event
	start := 0
	for i := 0; i < len(d.buf); i++ {
		if d.buf[i] != '\n' && d.buf[i] != '\r' {
			continue
		}
		if ev, ok := DecodeLine(string(d.buf[start:i])); ok {
			events = append(events, ev)
		}
		start = i + 1
	}
	d.buf = d.buf[start:]
	return events
}

// Flush decodes any trailing unterminated line. Called once the stream has
// closed.
func (d *Decoder) Flush() []Event {
	if len(d.buf) == 0 {
		return nil
	}
	line := string(d.buf)
	d.buf = nil
	if ev, ok := DecodeLine(line); ok {
		return []Event{ev}
	}
	return nil
}

// DecodeLine converts one complete line into an event. Empty lines yield
// nothing. Malformed PRG lines degrade to generic log lines rather than
// failing the stream.
func DecodeLine(line string) (Event, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, false
	}
	if line == skipAckLine {
		return SkipAck{}, true
	}
	if strings.HasPrefix(line, progressPrefix) {
		if ev, ok := decodeProgress(line); ok {
			return ev, true
		}
	}
	return LogLine{Severity: ClassifySeverity(line), Text: line}, true
}

func decodeProgress(line string) (Event, bool) {
	parts := strings.SplitN(line, ":", 4)
	if len(parts) < 4 {
		return nil, false
	}
	stage := strings.TrimSpace(parts[1])
	rawCurrent := strings.TrimSpace(parts[2])
	total, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
	if err != nil || stage == "" {
		return nil, false
	}
	if current, err := strconv.ParseFloat(strings.TrimSuffix(rawCurrent, "%"), 64); err == nil {
		return StageProgress{Stage: stage, Current: current, Total: total}, true
	}
	return StageStatus{Stage: stage, Text: rawCurrent, Total: total}, true
}

// ClassifySeverity infers a severity from the marker glyphs and substrings
// the worker uses. Lines without a recognizable marker are informational.
func ClassifySeverity(line string) Severity {
	switch {
	case strings.Contains(line, "❌"):
		return SeverityError
	case strings.Contains(line, "⚠️"), strings.Contains(line, "⚠"):
		return SeverityWarn
	case strings.Contains(line, "✅"):
		return SeverityOK
	}
	lower := strings.ToLower(line)
	switch {
	case strings.Contains(lower, "error:"), strings.Contains(lower, "traceback"):
		return SeverityError
	case strings.Contains(lower, "warning:"):
		return SeverityWarn
	default:
		return SeverityInfo
	}
}
