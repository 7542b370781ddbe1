// Package format provides formatting and rendering functions for timeline data.
package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"agentline/internal/store"
)

// WriteSummaries writes session summaries to w in the requested format.
func WriteSummaries(w io.Writer, items []store.SessionSummary, includeHeader bool, format string) error {
	format = strings.ToLower(format)
	switch format {
	case "", "table":
		return writeSummariesTable(w, items, includeHeader)
	case "plain":
		return writeSummariesPlain(w, items, includeHeader)
	case "json":
		return writeSummariesJSON(w, items)
	case "jsonl":
		return writeSummariesJSONL(w, items)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func writeSummariesPlain(w io.Writer, items []store.SessionSummary, includeHeader bool) error {
	if includeHeader {
		if _, err := fmt.Fprintln(w, "timestamp\tsession_id\ttitle\tduration\tmessages\tworkstreams\tstate"); err != nil {
			return err
		}
	}
	for _, item := range items {
		line := fmt.Sprintf(
			"%s\t%s\t%s\t%s\t%d\t%d\t%s",
			item.StartedAt.Format(),
			item.ID,
			escapeNewlines(item.Title),
			FormatDuration(item.DurationSeconds),
			item.MessageCount,
			item.WorkstreamCount,
			stateLabel(item.InProgress),
		)
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func writeSummariesJSON(w io.Writer, items []store.SessionSummary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(items)
}

func writeSummariesJSONL(w io.Writer, items []store.SessionSummary) error {
	enc := json.NewEncoder(w)
	for _, item := range items {
		if err := enc.Encode(item); err != nil {
			return err
		}
	}
	return nil
}

func writeSummariesTable(w io.Writer, items []store.SessionSummary, includeHeader bool) error {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.Style().Options.SeparateRows = true
	tw.Style().Options.SeparateHeader = true
	tw.Style().Options.DrawBorder = true

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignCenter},
		{Number: 2, Align: text.AlignLeft, AlignHeader: text.AlignCenter},
		{Number: 3, Align: text.AlignLeft, AlignHeader: text.AlignCenter, WidthMax: 60},
		{Number: 4, Align: text.AlignCenter, AlignHeader: text.AlignCenter},
		{Number: 5, Align: text.AlignRight, AlignHeader: text.AlignCenter},
		{Number: 6, Align: text.AlignRight, AlignHeader: text.AlignCenter},
		{Number: 7, Align: text.AlignCenter, AlignHeader: text.AlignCenter},
	})

	if includeHeader {
		tw.AppendHeader(table.Row{"Timestamp", "Session ID", "Title", "Duration", "Messages", "Workstreams", "State"})
	}

	for _, item := range items {
		tw.AppendRow(table.Row{
			item.StartedAt.Format(),
			item.ID,
			escapeNewlines(item.Title),
			FormatDuration(item.DurationSeconds),
			item.MessageCount,
			item.WorkstreamCount,
			stateLabel(item.InProgress),
		})
	}

	if len(items) == 0 {
		tw.AppendRow(table.Row{"-", "(no sessions)", "-", "00:00:00", 0, 0, "-"})
	}

	_ = tw.Render()
	return nil
}

func stateLabel(inProgress bool) string {
	if inProgress {
		return "in progress"
	}
	return "finished"
}

func escapeNewlines(text string) string {
	return strings.ReplaceAll(text, "\n", "\\n")
}

// FormatDuration renders a second count as HH:MM:SS.
func FormatDuration(seconds int) string {
	if seconds <= 0 {
		return "00:00:00"
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
