package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"agentline/internal/metrics"
)

// WriteMetrics writes a tool-call summary to w in the requested format.
func WriteMetrics(w io.Writer, summary metrics.Summary, format string) error {
	format = strings.ToLower(format)
	switch format {
	case "", "table":
		return writeMetricsTable(w, summary)
	case "plain":
		return writeMetricsPlain(w, summary)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func writeMetricsPlain(w io.Writer, summary metrics.Summary) error {
	lines := []string{
		fmt.Sprintf("total\t%d", summary.TotalCalls),
		fmt.Sprintf("successful\t%d", summary.SuccessfulCalls),
		fmt.Sprintf("failed\t%d", summary.FailedCalls),
		fmt.Sprintf("warnings\t%d", summary.WarningCalls),
		fmt.Sprintf("success_rate\t%s%%", summary.SuccessRate),
		fmt.Sprintf("avg_duration_ms\t%s", averageLabel(summary)),
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func writeMetricsTable(w io.Writer, summary metrics.Summary) error {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignRight},
	})

	tw.AppendHeader(table.Row{"Metric", "Value"})
	tw.AppendRow(table.Row{"Total calls", summary.TotalCalls})
	tw.AppendRow(table.Row{"Successful", summary.SuccessfulCalls})
	tw.AppendRow(table.Row{"Failed", summary.FailedCalls})
	tw.AppendRow(table.Row{"Warnings", summary.WarningCalls})
	tw.AppendRow(table.Row{"Success rate", summary.SuccessRate + "%"})
	tw.AppendRow(table.Row{"Avg duration (ms)", averageLabel(summary)})

	_ = tw.Render()
	return nil
}

func averageLabel(summary metrics.Summary) string {
	if summary.AverageDurationMS == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *summary.AverageDurationMS)
}
