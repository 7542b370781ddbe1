// Package timeline merges a persisted agent message log with in-flight
// streaming entries into a single ordered sequence of renderable groups.
package timeline

import (
	"strings"

	"agentline/internal/model"
)

// Grouping-key precedence, strongest first. A message is claimed by the first
// dimension that applies; only keyless tool calls fall through to positional
// consecutive-run grouping.
//
//	activity group id > tool iteration > tool run id > positional
const (
	keyActivityGroup = iota
	keyIteration
	keyRunID
	keyNone
)

// ActivityGroupID returns the message's activity-group correlation key, or ""
// when absent or blank after trimming.
func ActivityGroupID(msg model.Message) string {
	if msg.Details == nil {
		return ""
	}
	id := strings.TrimSpace(msg.Details.ActivityGroupID)
	return id
}

// ToolIteration returns the message's tool iteration number if present.
func ToolIteration(msg model.Message) (int, bool) {
	if msg.Details == nil || msg.Details.ToolIteration == nil {
		return 0, false
	}
	return *msg.Details.ToolIteration, true
}

// ToolRunID returns the message's tool run id, or "" when absent.
func ToolRunID(msg model.Message) string {
	if msg.Details == nil {
		return ""
	}
	return msg.Details.ToolRunID
}

// IsToolCall reports whether the message is a tool-call event: a THOUGHT
// carrying a tool name.
func IsToolCall(msg model.Message) bool {
	return msg.Type == model.MessageTypeThought && msg.Details != nil && msg.Details.Tool != ""
}

// groupKey classifies a message along the precedence order above.
func groupKey(msg model.Message) (dimension int, key string, iteration int) {
	// Routed to specialized renderers; never grouped.
	if msg.Type == model.MessageTypeRequestInput || msg.Type == model.MessageTypeBatchProgress {
		return keyNone, "", 0
	}
	if id := ActivityGroupID(msg); id != "" {
		return keyActivityGroup, id, 0
	}
	if IsToolCall(msg) {
		if it, ok := ToolIteration(msg); ok {
			return keyIteration, "", it
		}
		if runID := ToolRunID(msg); runID != "" {
			return keyRunID, runID, 0
		}
	}
	return keyNone, "", 0
}
