// Package store provides session replay enumeration and lookup.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"agentline/internal/model"
	"agentline/internal/parser"
	"agentline/internal/workstream"
)

var errStop = errors.New("stop iteration")

// SessionSummary holds the derived listing row for one replay file.
type SessionSummary struct {
	ID              string          `json:"session_id"`
	Path            string          `json:"path"`
	Title           string          `json:"title"`
	StartedAt       model.Timestamp `json:"started_at"`
	MessageCount    int             `json:"message_count"`
	WorkstreamCount int             `json:"workstream_count"`
	DurationSeconds int             `json:"duration_seconds"`
	InProgress      bool            `json:"in_progress"`
}

// ListOptions controls how sessions are enumerated.
type ListOptions struct {
	Root     string
	After    *time.Time
	Before   *time.Time
	Limit    int
	MaxTitle int
}

// ListResult contains session summaries and non-fatal warnings.
type ListResult struct {
	Summaries []SessionSummary
	Warnings  []error
}

// List enumerates replay sessions under Root in reverse chronological order.
// Files that fail to parse produce warnings, not errors.
func List(opts ListOptions) (ListResult, error) {
	if opts.Root == "" {
		return ListResult{}, errors.New("root directory is required")
	}

	var result ListResult

	err := filepath.WalkDir(opts.Root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			result.Warnings = append(result.Warnings, fmt.Errorf("walk %s: %w", path, walkErr))
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".jsonl") {
			return nil
		}

		session, err := parser.ReadSession(path)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Errorf("parse session %s: %w", path, err))
			return nil
		}

		startedAt := session.Meta.StartedAt
		if opts.After != nil && (!startedAt.Valid || startedAt.Time().Before(*opts.After)) {
			return nil
		}
		if opts.Before != nil && startedAt.Valid && startedAt.Time().After(*opts.Before) {
			return nil
		}

		title := session.Meta.Title
		if opts.MaxTitle > 0 {
			title = truncate(title, opts.MaxTitle)
		}

		result.Summaries = append(result.Summaries, SessionSummary{
			ID:              session.Meta.ID,
			Path:            path,
			Title:           title,
			StartedAt:       startedAt,
			MessageCount:    len(session.Messages),
			WorkstreamCount: countWorkstreams(session.Messages),
			DurationSeconds: durationSeconds(session.Messages, startedAt),
			InProgress:      workstream.InProgress(session.Messages),
		})
		return nil
	})
	if err != nil {
		return result, err
	}

	sort.Slice(result.Summaries, func(i, j int) bool {
		return result.Summaries[i].StartedAt.SortKey() > result.Summaries[j].StartedAt.SortKey()
	})

	if opts.Limit > 0 && len(result.Summaries) > opts.Limit {
		result.Summaries = result.Summaries[:opts.Limit]
	}

	return result, nil
}

// FindPath searches Root for the replay file whose session id matches id.
func FindPath(root, id string) (string, error) {
	if root == "" {
		return "", errors.New("root directory is required")
	}
	if id == "" {
		return "", errors.New("session id is required")
	}

	var matched string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".jsonl") {
			return nil
		}
		meta, err := parser.ReadSessionMeta(path)
		if err != nil {
			return nil
		}
		if meta.ID == id {
			matched = path
			return errStop
		}
		return nil
	})

	if matched != "" {
		return matched, nil
	}
	if err != nil && !errors.Is(err, errStop) {
		return "", err
	}
	return "", fmt.Errorf("session id %s not found under %s", id, root)
}

func countWorkstreams(msgs []model.Message) int {
	seen := make(map[string]struct{})
	for _, msg := range msgs {
		seen[workstream.Of(msg)] = struct{}{}
	}
	return len(seen)
}

func durationSeconds(msgs []model.Message, startedAt model.Timestamp) int {
	if !startedAt.Valid {
		return 0
	}
	last := startedAt
	for _, msg := range msgs {
		if msg.Timestamp.Valid && last.Before(msg.Timestamp) {
			last = msg.Timestamp
		}
	}
	if last.Millis <= startedAt.Millis {
		return 0
	}
	return int((last.Millis - startedAt.Millis) / 1000)
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "…"
}
