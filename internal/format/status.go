package format

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"agentline/internal/model"
	"agentline/internal/workstream"
)

// WriteStatuses writes the conversation progress flag and the per-workstream
// status map to w. The main workstream always lists first, the rest sort by id.
func WriteStatuses(w io.Writer, inProgress bool, statuses map[string]workstream.Status, format string) error {
	format = strings.ToLower(format)
	switch format {
	case "", "table":
		return writeStatusesTable(w, inProgress, statuses)
	case "plain":
		return writeStatusesPlain(w, inProgress, statuses)
	case "json":
		payload := struct {
			InProgress  bool                         `json:"in_progress"`
			Workstreams map[string]workstream.Status `json:"workstreams"`
		}{inProgress, statuses}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func orderedIDs(statuses map[string]workstream.Status) []string {
	ids := make([]string, 0, len(statuses))
	for id := range statuses {
		if id == model.DefaultWorkstream {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if _, ok := statuses[model.DefaultWorkstream]; ok {
		ids = append([]string{model.DefaultWorkstream}, ids...)
	}
	return ids
}

func writeStatusesPlain(w io.Writer, inProgress bool, statuses map[string]workstream.Status) error {
	if _, err := fmt.Fprintf(w, "conversation\t%s\n", conversationLabel(inProgress)); err != nil {
		return err
	}
	for _, id := range orderedIDs(statuses) {
		if _, err := fmt.Fprintf(w, "%s\t%s\n", id, statuses[id]); err != nil {
			return err
		}
	}
	return nil
}

func writeStatusesTable(w io.Writer, inProgress bool, statuses map[string]workstream.Status) error {
	if _, err := fmt.Fprintf(w, "Conversation: %s\n", conversationLabel(inProgress)); err != nil {
		return err
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignCenter},
	})
	tw.AppendHeader(table.Row{"Workstream", "Status"})

	ids := orderedIDs(statuses)
	for _, id := range ids {
		tw.AppendRow(table.Row{id, string(statuses[id])})
	}
	if len(ids) == 0 {
		tw.AppendRow(table.Row{"(none)", "-"})
	}

	_ = tw.Render()
	return nil
}

func conversationLabel(inProgress bool) string {
	if inProgress {
		return "in progress"
	}
	return "finished"
}
