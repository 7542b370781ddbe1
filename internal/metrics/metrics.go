// Package metrics reduces extracted tool-call records to summary counters.
package metrics

import (
	"fmt"

	"agentline/internal/model"
	"agentline/internal/timeline"
)

// ToolCall is one extracted tool invocation record.
type ToolCall struct {
	Timestamp  model.Timestamp  `json:"timestamp"`
	Name       string           `json:"name"`
	Status     model.ToolStatus `json:"status"`
	DurationMS *int64           `json:"duration_ms,omitempty"`
}

// Summary holds the derived counters for a set of tool calls.
type Summary struct {
	TotalCalls        int      `json:"total_calls"`
	SuccessfulCalls   int      `json:"successful_calls"`
	FailedCalls       int      `json:"failed_calls"`
	WarningCalls      int      `json:"warning_calls"`
	SuccessRate       string   `json:"success_rate"`
	AverageDurationMS *float64 `json:"average_duration_ms,omitempty"`
}

// ExtractToolCalls pulls tool-call records out of the message log.
func ExtractToolCalls(msgs []model.Message) []ToolCall {
	var calls []ToolCall
	for _, msg := range msgs {
		if !timeline.IsToolCall(msg) {
			continue
		}
		calls = append(calls, ToolCall{
			Timestamp:  msg.Timestamp,
			Name:       msg.Details.Tool,
			Status:     msg.Details.ToolStatus,
			DurationMS: msg.Details.DurationMS,
		})
	}
	return calls
}

// Aggregate reduces tool-call records to counters. The success rate is a
// one-decimal percent string; an empty input yields "0.0". The average
// duration covers only records that report one and is absent when none do.
func Aggregate(calls []ToolCall) Summary {
	summary := Summary{TotalCalls: len(calls)}

	var durationSum int64
	var durationCount int
	for _, call := range calls {
		switch call.Status {
		case model.ToolStatusCompleted:
			summary.SuccessfulCalls++
		case model.ToolStatusError:
			summary.FailedCalls++
		case model.ToolStatusWarning:
			summary.WarningCalls++
		}
		if call.DurationMS != nil {
			durationSum += *call.DurationMS
			durationCount++
		}
	}

	rate := 0.0
	if summary.TotalCalls > 0 {
		rate = float64(summary.SuccessfulCalls) / float64(summary.TotalCalls) * 100
	}
	summary.SuccessRate = fmt.Sprintf("%.1f", rate)

	if durationCount > 0 {
		avg := float64(durationSum) / float64(durationCount)
		summary.AverageDurationMS = &avg
	}

	return summary
}
