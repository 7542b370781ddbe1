// Package model provides the shared data types for agent timeline aggregation.
package model

// DefaultWorkstream is the conventional primary execution branch. Messages
// without an explicit workstream id belong to it.
const DefaultWorkstream = "main"

// WorkstreamFilterAll is the sentinel filter value that disables workstream
// filtering of streaming entries.
const WorkstreamFilterAll = "all"

// MessageType represents the "type" field values observed in agent replay logs.
type MessageType string

const (
	MessageTypeThought       MessageType = "THOUGHT"
	MessageTypeComplete      MessageType = "COMPLETE"
	MessageTypeIdle          MessageType = "IDLE"
	MessageTypeRequestInput  MessageType = "REQUEST_INPUT"
	MessageTypeTerminated    MessageType = "TERMINATED"
	MessageTypeBatchProgress MessageType = "BATCH_PROGRESS"
	MessageTypeUserInput     MessageType = "USER_INPUT"
	MessageTypeError         MessageType = "ERROR"
	MessageTypeStreamDelta   MessageType = "STREAM_DELTA"
	MessageTypeSession       MessageType = "SESSION"
)

// Terminal reports whether a message of this type ends its workstream.
func (t MessageType) Terminal() bool {
	switch t {
	case MessageTypeComplete, MessageTypeIdle, MessageTypeRequestInput, MessageTypeTerminated:
		return true
	}
	return false
}

// ToolStatus captures the "details.tool_status" values in tool-call messages.
type ToolStatus string

const (
	ToolStatusNone      ToolStatus = ""
	ToolStatusCompleted ToolStatus = "completed"
	ToolStatusRunning   ToolStatus = "running"
	ToolStatusWarning   ToolStatus = "warning"
	ToolStatusError     ToolStatus = "error"
)

// statusPriority is the total order used when two statuses meet: the
// higher-priority one wins, equal priority keeps the left-hand value.
var statusPriority = map[ToolStatus]int{
	ToolStatusNone:      0,
	ToolStatusCompleted: 1,
	ToolStatusRunning:   2,
	ToolStatusWarning:   3,
	ToolStatusError:     4,
}

// Priority returns the merge rank of the status. Unknown statuses rank as none.
func (s ToolStatus) Priority() int { return statusPriority[s] }

// MergeToolStatus combines two statuses, preferring the higher-priority one.
// Equal priority keeps the earlier (left) value.
func MergeToolStatus(left, right ToolStatus) ToolStatus {
	if right.Priority() > left.Priority() {
		return right
	}
	return left
}

// Details is the optional attachment bag carried by a message. All fields may
// be absent; absence is represented by the zero value.
type Details struct {
	Tool            string     `json:"tool,omitempty"`
	ToolRunID       string     `json:"tool_run_id,omitempty"`
	ToolIteration   *int       `json:"tool_iteration,omitempty"`
	ToolStatus      ToolStatus `json:"tool_status,omitempty"`
	ActivityGroupID string     `json:"activity_group_id,omitempty"`
	StreamID        string     `json:"stream_id,omitempty"`
	DurationMS      *int64     `json:"duration_ms,omitempty"`
}

// Message is one immutable agent event from the persisted log.
type Message struct {
	Timestamp    Timestamp   `json:"timestamp"`
	Type         MessageType `json:"type"`
	WorkstreamID string      `json:"workstream_id,omitempty"`
	Text         string      `json:"text,omitempty"`
	Details      *Details    `json:"details,omitempty"`
}

// StreamingEntry is an in-flight block of generated text keyed by stream id.
// It is owned by the caller; the aggregation core only reads it per invocation.
type StreamingEntry struct {
	Text           string    `json:"text"`
	WorkstreamID   string    `json:"workstream_id,omitempty"`
	StartTimestamp Timestamp `json:"start_timestamp"`
	Complete       bool      `json:"complete"`
}
