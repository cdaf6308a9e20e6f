package sse

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWriterHeaders(t *testing.T) {
	recorder := httptest.NewRecorder()
	if _, err := NewWriter(recorder); err != nil {
		t.Fatalf("new writer: %v", err)
	}
	if got := recorder.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("unexpected content type %q", got)
	}
	if got := recorder.Header().Get("Cache-Control"); got != "no-cache" {
		t.Fatalf("unexpected cache control %q", got)
	}
	if got := recorder.Header().Get("X-Accel-Buffering"); got != "no" {
		t.Fatalf("unexpected buffering header %q", got)
	}
}

func TestWriterEventSequence(t *testing.T) {
	recorder := httptest.NewRecorder()
	writer, err := NewWriter(recorder)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	if err := writer.Start("session-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := writer.Chunk("Hello "); err != nil {
		t.Fatalf("chunk: %v", err)
	}
	if err := writer.Chunk("world"); err != nil {
		t.Fatalf("chunk: %v", err)
	}
	if err := writer.End("session-1", 42, 1); err != nil {
		t.Fatalf("end: %v", err)
	}

	frames := strings.Split(strings.TrimSuffix(recorder.Body.String(), "\n\n"), "\n\n")
	if len(frames) != 4 {
		t.Fatalf("expected 4 frames, got %d:\n%s", len(frames), recorder.Body.String())
	}
	events := make([]Event, 0, len(frames))
	for _, frame := range frames {
		payload, ok := strings.CutPrefix(frame, "data: ")
		if !ok {
			t.Fatalf("frame missing data prefix: %q", frame)
		}
		var event Event
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			t.Fatalf("frame %q: %v", frame, err)
		}
		events = append(events, event)
	}
	if events[0].Type != TypeStart || events[0].SessionID != "session-1" {
		t.Fatalf("unexpected start event %+v", events[0])
	}
	if events[1].Content != "Hello " || events[2].Content != "world" {
		t.Fatalf("unexpected chunk order %+v %+v", events[1], events[2])
	}
	if events[3].Type != TypeEnd || events[3].Tokens != 42 || events[3].Credits != 1 {
		t.Fatalf("unexpected end event %+v", events[3])
	}
	if !recorder.Flushed {
		t.Fatal("writer must flush after events")
	}
}

func TestWriterErrorEvent(t *testing.T) {
	recorder := httptest.NewRecorder()
	writer, err := NewWriter(recorder)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	if err := writer.Error("provider unavailable"); err != nil {
		t.Fatalf("error event: %v", err)
	}
	body := recorder.Body.String()
	if !strings.Contains(body, `"type":"error"`) || !strings.Contains(body, "provider unavailable") {
		t.Fatalf("unexpected error frame %q", body)
	}
}

func TestWriterKeepAliveIsComment(t *testing.T) {
	recorder := httptest.NewRecorder()
	writer, err := NewWriter(recorder)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	if err := writer.KeepAlive(); err != nil {
		t.Fatalf("keepalive: %v", err)
	}
	if got := recorder.Body.String(); got != ": ping\n\n" {
		t.Fatalf("unexpected keepalive frame %q", got)
	}
}
