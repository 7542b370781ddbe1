package parser

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"agentline/internal/model"
)

func writeSession(t *testing.T, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write session file: %v", err)
	}
	return path
}

func TestReadSessionMetaHeader(t *testing.T) {
	path := writeSession(t, "demo.jsonl",
		`{"type":"SESSION","session_id":"sess-1","title":"refactor run","timestamp":1000}`,
		`{"type":"THOUGHT","timestamp":2000}`,
	)

	meta, err := ReadSessionMeta(path)
	if err != nil {
		t.Fatalf("ReadSessionMeta returned error: %v", err)
	}
	if meta.ID != "sess-1" {
		t.Fatalf("unexpected id: %s", meta.ID)
	}
	if meta.Title != "refactor run" {
		t.Fatalf("unexpected title: %s", meta.Title)
	}
	if meta.StartedAt.Millis != 1000 {
		t.Fatalf("unexpected start: %d", meta.StartedAt.Millis)
	}
}

func TestReadSessionMetaFallback(t *testing.T) {
	path := writeSession(t, "fallback.jsonl",
		`{"type":"THOUGHT","timestamp":"2025-10-27T12:00:00Z"}`,
	)

	meta, err := ReadSessionMeta(path)
	if err != nil {
		t.Fatalf("ReadSessionMeta returned error: %v", err)
	}
	if meta.ID != "fallback" {
		t.Fatalf("id should fall back to file name, got %s", meta.ID)
	}
	if !meta.StartedAt.Valid {
		t.Fatal("start should come from first valid message timestamp")
	}
}

func TestReadSessionMetaEmpty(t *testing.T) {
	path := writeSession(t, "empty.jsonl", "not json at all")
	if _, err := ReadSessionMeta(path); !errors.Is(err, ErrEmptySession) {
		t.Fatalf("expected ErrEmptySession, got %v", err)
	}
}

func TestReadSessionMessagesAndStreaming(t *testing.T) {
	path := writeSession(t, "full.jsonl",
		`{"type":"SESSION","session_id":"sess-2","timestamp":1}`,
		`{"type":"USER_INPUT","timestamp":10,"text":"start"}`,
		`{"type":"STREAM_DELTA","stream_id":"s1","timestamp":20,"text":"hel"}`,
		`{"type":"STREAM_DELTA","stream_id":"s1","timestamp":25,"text":"lo","done":true}`,
		`{"type":"STREAM_DELTA","stream_id":"s2","timestamp":30,"text":"partial","workstream_id":"side"}`,
		`garbage line`,
		`{"type":"THOUGHT","timestamp":40,"details":{"tool":"search","tool_status":"completed"}}`,
	)

	session, err := ReadSession(path)
	if err != nil {
		t.Fatalf("ReadSession returned error: %v", err)
	}

	if session.Meta.ID != "sess-2" {
		t.Fatalf("unexpected session id: %s", session.Meta.ID)
	}
	if len(session.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(session.Messages))
	}
	if session.Messages[1].Details == nil || session.Messages[1].Details.Tool != "search" {
		t.Fatalf("details lost in decode: %+v", session.Messages[1])
	}

	s1, ok := session.Streaming["s1"]
	if !ok {
		t.Fatal("stream s1 missing")
	}
	if s1.Text != "hello" {
		t.Fatalf("delta text should accumulate, got %q", s1.Text)
	}
	if !s1.Complete {
		t.Fatal("done delta should mark the entry complete")
	}
	if s1.StartTimestamp.Millis != 20 {
		t.Fatalf("start timestamp should come from the first delta, got %d", s1.StartTimestamp.Millis)
	}

	s2, ok := session.Streaming["s2"]
	if !ok {
		t.Fatal("stream s2 missing")
	}
	if s2.WorkstreamID != "side" || s2.Complete {
		t.Fatalf("unexpected s2 entry: %+v", s2)
	}
}

func TestReadSessionSupersededStream(t *testing.T) {
	path := writeSession(t, "supersede.jsonl",
		`{"type":"STREAM_DELTA","stream_id":"s1","timestamp":10,"text":"draft"}`,
		`{"type":"THOUGHT","timestamp":20,"text":"final","details":{"stream_id":"s1"}}`,
	)

	session, err := ReadSession(path)
	if err != nil {
		t.Fatalf("ReadSession returned error: %v", err)
	}
	if _, ok := session.Streaming["s1"]; ok {
		t.Fatal("finalized message should supersede the streaming entry")
	}
	if len(session.Messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(session.Messages))
	}
}

func TestReadSessionMalformedTimestamp(t *testing.T) {
	path := writeSession(t, "badts.jsonl",
		`{"type":"THOUGHT","timestamp":"not a time"}`,
		`{"type":"THOUGHT","timestamp":5}`,
	)

	session, err := ReadSession(path)
	if err != nil {
		t.Fatalf("ReadSession returned error: %v", err)
	}
	if len(session.Messages) != 2 {
		t.Fatalf("malformed timestamps keep the record, got %d messages", len(session.Messages))
	}
	if session.Messages[0].Timestamp.Valid {
		t.Fatal("malformed timestamp should normalize to invalid")
	}
	if session.Meta.StartedAt.Millis != 5 {
		t.Fatalf("start should skip invalid timestamps, got %d", session.Meta.StartedAt.Millis)
	}
}

func TestIterateMessages(t *testing.T) {
	path := writeSession(t, "iter.jsonl",
		`{"type":"SESSION","session_id":"x","timestamp":1}`,
		`{"type":"THOUGHT","timestamp":2}`,
		`{"type":"STREAM_DELTA","stream_id":"s","timestamp":3,"text":"t"}`,
		`{"type":"COMPLETE","timestamp":4}`,
	)

	var types []model.MessageType
	err := IterateMessages(path, func(msg model.Message) error {
		types = append(types, msg.Type)
		return nil
	})
	if err != nil {
		t.Fatalf("IterateMessages returned error: %v", err)
	}
	if len(types) != 2 || types[0] != model.MessageTypeThought || types[1] != model.MessageTypeComplete {
		t.Fatalf("unexpected message types: %v", types)
	}
}

func TestIterateMessagesStopsOnError(t *testing.T) {
	path := writeSession(t, "stop.jsonl",
		`{"type":"THOUGHT","timestamp":1}`,
		`{"type":"THOUGHT","timestamp":2}`,
	)

	stop := errors.New("stop")
	count := 0
	err := IterateMessages(path, func(model.Message) error {
		count++
		return stop
	})
	if !errors.Is(err, stop) {
		t.Fatalf("expected callback error to propagate, got %v", err)
	}
	if count != 1 {
		t.Fatalf("iteration should stop after the error, saw %d calls", count)
	}
}
