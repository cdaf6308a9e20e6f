package sse

import (
	"io"
	"strings"
	"testing"
)

// chunkedReader returns its payload in fixed-size reads to simulate a
// network stream splitting frames at arbitrary byte boundaries.
type chunkedReader struct {
	data []byte
	size int
	pos  int
}

func (r *chunkedReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	end := r.pos + r.size
	if end > len(r.data) {
		end = len(r.data)
	}
	n := copy(p, r.data[r.pos:end])
	r.pos += n
	return n, nil
}

func collect(t *testing.T, d *Decoder) []string {
	t.Helper()
	var payloads []string
	for {
		payload, err := d.Next()
		if err == io.EOF {
			return payloads
		}
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		payloads = append(payloads, payload)
	}
}

func TestDecoderFrames(t *testing.T) {
	stream := "data: {\"a\":1}\n\ndata: {\"b\":2}\n\ndata: [DONE]\n\n"
	got := collect(t, NewDecoder(strings.NewReader(stream)))
	want := []string{`{"a":1}`, `{"b":2}`, Done}
	if len(got) != len(want) {
		t.Fatalf("expected %d payloads, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("payload %d: got %q want %q", i, got[i], want[i])
		}
	}
}

func TestDecoderSplitAcrossReads(t *testing.T) {
	stream := "data: {\"content\":\"hello world\"}\n\ndata: [DONE]\n\n"
	for size := 1; size <= 7; size++ {
		decoder := NewDecoder(&chunkedReader{data: []byte(stream), size: size})
		got := collect(t, decoder)
		if len(got) != 2 || got[0] != `{"content":"hello world"}` || got[1] != Done {
			t.Fatalf("read size %d: unexpected payloads %v", size, got)
		}
	}
}

func TestDecoderSkipsCommentsAndBlanks(t *testing.T) {
	stream := ": ping\n\n\ndata: x\n\n: another comment\ndata: y\n\n"
	got := collect(t, NewDecoder(strings.NewReader(stream)))
	if len(got) != 2 || got[0] != "x" || got[1] != "y" {
		t.Fatalf("unexpected payloads %v", got)
	}
}

func TestDecoderCRLF(t *testing.T) {
	stream := "data: x\r\n\r\ndata: y\r\n\r\n"
	got := collect(t, NewDecoder(strings.NewReader(stream)))
	if len(got) != 2 || got[0] != "x" || got[1] != "y" {
		t.Fatalf("unexpected payloads %v", got)
	}
}

func TestDecoderPartialFinalLine(t *testing.T) {
	// Stream cut mid-frame without a trailing newline.
	stream := "data: x\n\ndata: tail"
	got := collect(t, NewDecoder(strings.NewReader(stream)))
	if len(got) != 2 || got[1] != "tail" {
		t.Fatalf("expected the truncated payload surfaced, got %v", got)
	}
}

func TestDecoderIgnoresOtherFields(t *testing.T) {
	stream := "event: message\nid: 7\nretry: 100\ndata: x\n\n"
	got := collect(t, NewDecoder(strings.NewReader(stream)))
	if len(got) != 1 || got[0] != "x" {
		t.Fatalf("unexpected payloads %v", got)
	}
}
