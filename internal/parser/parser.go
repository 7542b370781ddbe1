// Package parser reads agent session replay logs in JSONL form.
package parser

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"agentline/internal/model"
)

// ErrEmptySession is returned when a replay file has no valid records.
var ErrEmptySession = errors.New("no valid records found in session file")

// SessionMeta holds lightweight information about one replay file.
type SessionMeta struct {
	ID        string
	Path      string
	Title     string
	StartedAt model.Timestamp
}

// Session is the fully loaded replay: the finalized message log plus the
// streaming map reconstructed from delta records.
type Session struct {
	Meta      SessionMeta
	Messages  []model.Message
	Streaming map[string]model.StreamingEntry
}

type rawRecord struct {
	Type         string          `json:"type"`
	Timestamp    model.Timestamp `json:"timestamp"`
	WorkstreamID string          `json:"workstream_id"`
	Text         string          `json:"text"`
	Details      *model.Details  `json:"details"`

	// STREAM_DELTA fields
	StreamID string `json:"stream_id"`
	Done     bool   `json:"done"`

	// SESSION header fields
	SessionID string `json:"session_id"`
	Title     string `json:"title"`
}

// ReadSessionMeta loads metadata from a replay file. A SESSION header record
// wins; otherwise the id falls back to the file name and the start time to the
// first valid message timestamp.
func ReadSessionMeta(path string) (*SessionMeta, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open session file: %w", err)
	}
	defer file.Close() //nolint:errcheck

	meta := SessionMeta{ID: sessionIDFromPath(path), Path: path}
	found := false

	scanner := newScanner(file)
	for scanner.Scan() {
		var rec rawRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			continue // Skip invalid records
		}
		found = true

		if model.MessageType(rec.Type) == model.MessageTypeSession {
			if rec.SessionID != "" {
				meta.ID = rec.SessionID
			}
			meta.Title = rec.Title
			if rec.Timestamp.Valid {
				meta.StartedAt = rec.Timestamp
			}
			return &meta, nil
		}

		if !meta.StartedAt.Valid && rec.Timestamp.Valid {
			meta.StartedAt = rec.Timestamp
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}

	if !found {
		return nil, ErrEmptySession
	}
	return &meta, nil
}

// ReadSession loads the full replay: messages in file order plus the streaming
// map rebuilt from STREAM_DELTA records. Deltas for one stream id accumulate
// text; a delta with done set marks the entry complete; a finalized message
// whose details reference the stream id supersedes the entry entirely.
func ReadSession(path string) (*Session, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open session file: %w", err)
	}
	defer file.Close() //nolint:errcheck

	session := Session{
		Meta:      SessionMeta{ID: sessionIDFromPath(path), Path: path},
		Streaming: make(map[string]model.StreamingEntry),
	}
	found := false

	scanner := newScanner(file)
	for scanner.Scan() {
		var rec rawRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			continue // Skip invalid records
		}
		found = true

		switch model.MessageType(rec.Type) {
		case model.MessageTypeSession:
			if rec.SessionID != "" {
				session.Meta.ID = rec.SessionID
			}
			session.Meta.Title = rec.Title
			if rec.Timestamp.Valid {
				session.Meta.StartedAt = rec.Timestamp
			}

		case model.MessageTypeStreamDelta:
			if rec.StreamID == "" {
				continue
			}
			entry, ok := session.Streaming[rec.StreamID]
			if !ok {
				entry = model.StreamingEntry{
					WorkstreamID:   rec.WorkstreamID,
					StartTimestamp: rec.Timestamp,
				}
			}
			entry.Text += rec.Text
			if rec.Done {
				entry.Complete = true
			}
			session.Streaming[rec.StreamID] = entry

		default:
			msg := model.Message{
				Timestamp:    rec.Timestamp,
				Type:         model.MessageType(rec.Type),
				WorkstreamID: rec.WorkstreamID,
				Text:         rec.Text,
				Details:      rec.Details,
			}
			session.Messages = append(session.Messages, msg)
			if msg.Details != nil && msg.Details.StreamID != "" {
				// Finalized message supersedes the in-flight entry.
				delete(session.Streaming, msg.Details.StreamID)
			}
			if !session.Meta.StartedAt.Valid && msg.Timestamp.Valid {
				session.Meta.StartedAt = msg.Timestamp
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}

	if !found {
		return nil, ErrEmptySession
	}
	return &session, nil
}

// IterateMessages walks the replay file and calls fn for each finalized
// message, skipping headers, deltas, and invalid lines.
func IterateMessages(path string, fn func(model.Message) error) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open session file: %w", err)
	}
	defer file.Close() //nolint:errcheck

	scanner := newScanner(file)
	for scanner.Scan() {
		var rec rawRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			continue
		}
		switch model.MessageType(rec.Type) {
		case model.MessageTypeSession, model.MessageTypeStreamDelta:
			continue
		}
		msg := model.Message{
			Timestamp:    rec.Timestamp,
			Type:         model.MessageType(rec.Type),
			WorkstreamID: rec.WorkstreamID,
			Text:         rec.Text,
			Details:      rec.Details,
		}
		if err := fn(msg); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan session: %w", err)
	}
	return nil
}

func sessionIDFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func newScanner(file *os.File) *bufio.Scanner {
	scanner := bufio.NewScanner(file)
	// Allow large payloads
	const maxCapacity = 8 * 1024 * 1024
	buf := make([]byte, 1024)
	scanner.Buffer(buf, maxCapacity)
	return scanner
}
