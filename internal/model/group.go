package model

// GroupKind tags the renderable group variants handed to the presentation
// layer.
type GroupKind string

const (
	GroupKindSingle    GroupKind = "single"
	GroupKindTool      GroupKind = "tool_group"
	GroupKindStreaming GroupKind = "streaming"
)

// StreamingProjection is the read-only view of one in-flight streaming entry
// emitted into the timeline.
type StreamingProjection struct {
	ID             string
	Text           string
	WorkstreamID   string
	StartTimestamp Timestamp
	Complete       bool
}

// RenderableGroup is one output unit of the timeline builder. Exactly one of
// the variant field sets is populated, selected by Kind:
//
//   - single: Message
//   - tool_group: Messages, FirstTimestamp, ToolRunID (optional), ToolStatus
//   - streaming: Streaming
type RenderableGroup struct {
	Kind GroupKind

	Message *Message

	Messages       []Message
	FirstTimestamp Timestamp
	ToolRunID      string
	ToolStatus     ToolStatus

	Streaming *StreamingProjection
}

// SingleGroup wraps one message.
func SingleGroup(msg Message) RenderableGroup {
	m := msg
	return RenderableGroup{Kind: GroupKindSingle, Message: &m}
}

// ToolGroup wraps an ordered run of related tool-call messages.
func ToolGroup(msgs []Message, first Timestamp, runID string, status ToolStatus) RenderableGroup {
	return RenderableGroup{
		Kind:           GroupKindTool,
		Messages:       msgs,
		FirstTimestamp: first,
		ToolRunID:      runID,
		ToolStatus:     status,
	}
}

// StreamingGroup wraps one streaming projection.
func StreamingGroup(p StreamingProjection) RenderableGroup {
	proj := p
	return RenderableGroup{Kind: GroupKindStreaming, Streaming: &proj}
}

// AnchorTimestamp returns the instant the group is ordered by.
func (g RenderableGroup) AnchorTimestamp() Timestamp {
	switch g.Kind {
	case GroupKindSingle:
		if g.Message != nil {
			return g.Message.Timestamp
		}
	case GroupKindTool:
		return g.FirstTimestamp
	case GroupKindStreaming:
		if g.Streaming != nil {
			return g.Streaming.StartTimestamp
		}
	}
	return Timestamp{}
}
