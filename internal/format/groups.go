package format

import (
	"fmt"
	"strings"

	"agentline/internal/model"
	"agentline/internal/workstream"
)

// GroupLabel returns the display label for a renderable group header.
func GroupLabel(group model.RenderableGroup) string {
	switch group.Kind {
	case model.GroupKindSingle:
		if group.Message != nil {
			return strings.ToLower(string(group.Message.Type))
		}
	case model.GroupKindTool:
		if group.ToolRunID != "" {
			return "tools: " + group.ToolRunID
		}
		return "tools"
	case model.GroupKindStreaming:
		if group.Streaming != nil && !group.Streaming.Complete {
			return "streaming (live)"
		}
		return "streaming"
	}
	return "event"
}

// GroupLines returns the formatted body lines for one renderable group.
func GroupLines(group model.RenderableGroup, wrapWidth int) []string {
	switch group.Kind {
	case model.GroupKindSingle:
		if group.Message == nil {
			return nil
		}
		return messageLines(*group.Message, wrapWidth)

	case model.GroupKindTool:
		lines := make([]string, 0, len(group.Messages)+1)
		header := fmt.Sprintf("%d tool call(s)", len(group.Messages))
		if group.ToolStatus != model.ToolStatusNone {
			header += fmt.Sprintf(" [%s]", group.ToolStatus)
		}
		lines = append(lines, header)
		for _, msg := range group.Messages {
			lines = append(lines, toolCallLine(msg))
			if msg.Text != "" {
				lines = append(lines, indent(wrapBody(strings.TrimSpace(msg.Text), wrapWidth)))
			}
		}
		return lines

	case model.GroupKindStreaming:
		if group.Streaming == nil {
			return nil
		}
		body := wrapBody(strings.TrimSpace(group.Streaming.Text), wrapWidth)
		lines := strings.Split(body, "\n")
		if !group.Streaming.Complete {
			lines = append(lines, "…")
		}
		return lines
	}
	return nil
}

func messageLines(msg model.Message, wrapWidth int) []string {
	var lines []string
	if msg.Text != "" {
		lines = strings.Split(wrapBody(strings.TrimSpace(msg.Text), wrapWidth), "\n")
	}
	if msg.Details != nil && msg.Details.Tool != "" {
		lines = append(lines, toolCallLine(msg))
	}
	if len(lines) == 0 {
		lines = []string{strings.ToLower(string(msg.Type))}
	}
	return lines
}

func toolCallLine(msg model.Message) string {
	name := "(unknown tool)"
	status := model.ToolStatusNone
	if msg.Details != nil {
		if msg.Details.Tool != "" {
			name = msg.Details.Tool
		}
		status = msg.Details.ToolStatus
	}
	line := fmt.Sprintf("- %s", name)
	if status != model.ToolStatusNone {
		line += fmt.Sprintf(" [%s]", status)
	}
	if ws := workstream.Of(msg); ws != model.DefaultWorkstream {
		line += fmt.Sprintf(" (%s)", ws)
	}
	return line
}

func indent(body string) string {
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		lines[i] = "  " + line
	}
	return strings.Join(lines, "\n")
}

func wrapBody(text string, width int) string {
	if width <= 0 || len(text) <= width {
		return text
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		if len(current)+1+len(word) > width {
			lines = append(lines, current)
			current = word
		} else {
			current += " " + word
		}
	}
	lines = append(lines, current)

	return strings.Join(lines, "\n")
}
