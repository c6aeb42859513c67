// Package sse encodes server-sent-event messages onto an io.Writer,
// reconstructed from the wire format the teacher's deleted sse/encoder.go
// used for its own event stream: id, event, and data fields in that order,
// one "data:" line per newline in the payload, a trailing retry field when
// set, and a blank line terminating the message.
package sse

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Message is one server-sent event.
type Message struct {
	ID    string
	Event string
	Data  []byte
	Retry int
}

// Encode writes m to w in SSE wire format and flushes if w supports it.
func Encode(w io.Writer, m Message) error {
	bw := bufio.NewWriter(w)

	if m.ID != "" {
		if _, err := fmt.Fprintf(bw, "id: %s\n", sanitizeField(m.ID)); err != nil {
			return err
		}
	}
	if m.Event != "" {
		if _, err := fmt.Fprintf(bw, "event: %s\n", sanitizeField(m.Event)); err != nil {
			return err
		}
	}
	for _, line := range strings.Split(string(m.Data), "\n") {
		if _, err := fmt.Fprintf(bw, "data: %s\n", line); err != nil {
			return err
		}
	}
	if m.Retry > 0 {
		if _, err := fmt.Fprintf(bw, "retry: %s\n", strconv.Itoa(m.Retry)); err != nil {
			return err
		}
	}
	if _, err := bw.WriteString("\n"); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	if f, ok := w.(interface{ Flush() }); ok {
		f.Flush()
	}
	return nil
}

// sanitizeField replaces embedded newlines and carriage returns, which the
// SSE field syntax cannot carry, with their escaped representations.
func sanitizeField(s string) string {
	s = strings.ReplaceAll(s, "\r", "\\r")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
