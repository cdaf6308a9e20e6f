package sse

import (
	"bufio"
	"io"
	"strings"
)

// Done is the sentinel payload OpenAI-style streams send after the last
// data frame.
const Done = "[DONE]"

// Decoder reads "data:" payloads from an event stream. Reads from the
// underlying stream may split a frame at any byte boundary; buffering
// carries partial lines across reads instead of dropping them.
type Decoder struct {
	reader *bufio.Reader
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{reader: bufio.NewReader(r)}
}

// Next returns the payload of the next data frame, skipping comments,
// blank separators and non-data fields. Returns io.EOF when the stream
// ends.
func (d *Decoder) Next() (string, error) {
	for {
		line, err := d.readLine()
		if err != nil {
			return "", err
		}
		line = strings.TrimSuffix(line, "\r")
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		if payload, ok := strings.CutPrefix(line, "data:"); ok {
			return strings.TrimSpace(payload), nil
		}
		// event:, id: and retry: fields are not used by our providers.
	}
}

func (d *Decoder) readLine() (string, error) {
	line, err := d.reader.ReadString('\n')
	if err != nil {
		if err == io.EOF && line != "" {
			// Stream ended mid-line; surface what we have.
			return line, nil
		}
		return "", err
	}
	return strings.TrimSuffix(line, "\n"), nil
}
