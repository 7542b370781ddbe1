package timeline

import (
	"sort"
	"testing"

	"agentline/internal/model"
)

func thought(ts int64, details *model.Details) model.Message {
	return model.Message{
		Timestamp: model.TimestampFromMillis(ts),
		Type:      model.MessageTypeThought,
		Details:   details,
	}
}

func intPtr(v int) *int { return &v }

func flatten(groups []model.RenderableGroup) []model.Message {
	var msgs []model.Message
	for _, g := range groups {
		switch g.Kind {
		case model.GroupKindSingle:
			msgs = append(msgs, *g.Message)
		case model.GroupKindTool:
			msgs = append(msgs, g.Messages...)
		}
	}
	return msgs
}

func TestBuildEmpty(t *testing.T) {
	groups := Build(nil, nil, "")
	if len(groups) != 0 {
		t.Fatalf("expected empty output, got %d groups", len(groups))
	}
}

func TestBuildIterationGrouping(t *testing.T) {
	msgs := []model.Message{
		thought(1, &model.Details{Tool: "search", ToolIteration: intPtr(1)}),
		thought(2, &model.Details{Tool: "fetch", ToolIteration: intPtr(1)}),
	}

	groups := Build(msgs, nil, "")
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	g := groups[0]
	if g.Kind != model.GroupKindTool {
		t.Fatalf("expected tool_group, got %s", g.Kind)
	}
	if len(g.Messages) != 2 {
		t.Fatalf("expected 2 messages in group, got %d", len(g.Messages))
	}
	if g.FirstTimestamp.Millis != 1 {
		t.Fatalf("expected FirstTimestamp 1, got %d", g.FirstTimestamp.Millis)
	}
	if g.ToolRunID != "" {
		t.Fatalf("iteration groups carry no run id, got %q", g.ToolRunID)
	}
}

func TestBuildActivityGroupPrecedence(t *testing.T) {
	msgs := []model.Message{
		thought(1, &model.Details{Tool: "search", ToolIteration: intPtr(1), ActivityGroupID: "act-1"}),
		thought(2, &model.Details{Tool: "fetch", ToolIteration: intPtr(2), ActivityGroupID: "act-1"}),
	}

	groups := Build(msgs, nil, "")
	if len(groups) != 1 {
		t.Fatalf("activity group id should bind across iterations, got %d groups", len(groups))
	}
	if groups[0].ToolRunID != "act-1" {
		t.Fatalf("expected run id act-1 for activity bucket, got %q", groups[0].ToolRunID)
	}
}

func TestBuildRunIDGrouping(t *testing.T) {
	msgs := []model.Message{
		thought(1, &model.Details{Tool: "search", ToolRunID: "run-7"}),
		thought(5, &model.Details{Tool: "search", ToolRunID: "run-7", ToolStatus: model.ToolStatusCompleted}),
		{Timestamp: model.TimestampFromMillis(3), Type: model.MessageTypeThought, Text: "thinking"},
	}

	groups := Build(msgs, nil, "")
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	// Plain thought at ts 3 sorts after the bucket anchored at ts 1.
	if groups[0].Kind != model.GroupKindTool {
		t.Fatalf("expected tool_group first, got %s", groups[0].Kind)
	}
	if groups[0].ToolRunID != "run-7" {
		t.Fatalf("expected run id run-7, got %q", groups[0].ToolRunID)
	}
	if groups[0].ToolStatus != model.ToolStatusCompleted {
		t.Fatalf("latest status should win, got %q", groups[0].ToolStatus)
	}
	if groups[1].Kind != model.GroupKindSingle {
		t.Fatalf("expected single second, got %s", groups[1].Kind)
	}
}

func TestBuildRequestInputNeverGrouped(t *testing.T) {
	msgs := []model.Message{
		{
			Timestamp: model.TimestampFromMillis(1),
			Type:      model.MessageTypeRequestInput,
			Details:   &model.Details{Tool: "ask", ActivityGroupID: "act-1"},
		},
		thought(2, &model.Details{Tool: "search", ActivityGroupID: "act-1"}),
	}

	groups := Build(msgs, nil, "")
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Kind != model.GroupKindSingle || groups[0].Message.Type != model.MessageTypeRequestInput {
		t.Fatalf("REQUEST_INPUT should stay standalone: %+v", groups[0])
	}
}

func TestBuildConsecutiveKeylessToolCalls(t *testing.T) {
	msgs := []model.Message{
		thought(1, &model.Details{Tool: "read"}),
		thought(2, &model.Details{Tool: "write", ToolStatus: model.ToolStatusRunning}),
		{Timestamp: model.TimestampFromMillis(3), Type: model.MessageTypeComplete},
		thought(4, &model.Details{Tool: "read"}),
	}

	groups := Build(msgs, nil, "")
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}
	if groups[0].Kind != model.GroupKindTool {
		t.Fatalf("buffered run should become a tool_group, got %s", groups[0].Kind)
	}
	if groups[0].FirstTimestamp.Millis != 1 {
		t.Fatalf("expected FirstTimestamp 1, got %d", groups[0].FirstTimestamp.Millis)
	}
	if groups[0].ToolRunID != "" {
		t.Fatalf("positional groups carry no run id, got %q", groups[0].ToolRunID)
	}
	if groups[0].ToolStatus != model.ToolStatusRunning {
		t.Fatalf("expected running status, got %q", groups[0].ToolStatus)
	}
	if groups[1].Kind != model.GroupKindSingle {
		t.Fatalf("expected single COMPLETE, got %s", groups[1].Kind)
	}
	// A lone trailing keyless tool call flushes as a single.
	if groups[2].Kind != model.GroupKindSingle {
		t.Fatalf("single buffered tool call should emit as single, got %s", groups[2].Kind)
	}
}

func TestBuildConservation(t *testing.T) {
	msgs := []model.Message{
		thought(5, &model.Details{Tool: "a", ToolIteration: intPtr(2)}),
		{Timestamp: model.TimestampFromMillis(1), Type: model.MessageTypeUserInput, Text: "go"},
		thought(3, &model.Details{Tool: "b"}),
		thought(2, &model.Details{Tool: "c", ActivityGroupID: "act"}),
		{Timestamp: model.TimestampFromMillis(4), Type: model.MessageTypeBatchProgress},
		thought(6, &model.Details{Tool: "d", ToolRunID: "r1"}),
		{Timestamp: model.TimestampFromMillis(7), Type: model.MessageTypeComplete},
	}
	streaming := map[string]model.StreamingEntry{
		"s1": {Text: "live", StartTimestamp: model.TimestampFromMillis(2)},
	}

	groups := Build(msgs, streaming, "")
	flat := flatten(groups)
	if len(flat) != len(msgs) {
		t.Fatalf("conservation violated: %d in, %d out", len(msgs), len(flat))
	}

	sort.SliceStable(flat, func(i, j int) bool {
		return flat[i].Timestamp.SortKey() < flat[j].Timestamp.SortKey()
	})
	for i := 1; i < len(flat); i++ {
		if flat[i].Timestamp.SortKey() < flat[i-1].Timestamp.SortKey() {
			t.Fatalf("flattened output out of order at %d", i)
		}
	}
}

func TestBuildIncompleteStreamingSortsLast(t *testing.T) {
	msgs := []model.Message{
		{Timestamp: model.TimestampFromMillis(100), Type: model.MessageTypeThought, Text: "late"},
	}
	streaming := map[string]model.StreamingEntry{
		"live":  {Text: "typing", StartTimestamp: model.TimestampFromMillis(1)},
		"done":  {Text: "settled", StartTimestamp: model.TimestampFromMillis(2), Complete: true},
		"empty": {Text: "", StartTimestamp: model.TimestampFromMillis(3)},
	}

	groups := Build(msgs, streaming, "")
	if len(groups) != 3 {
		t.Fatalf("empty streaming entries should be dropped, got %d groups", len(groups))
	}

	last := groups[len(groups)-1]
	if last.Kind != model.GroupKindStreaming || last.Streaming.Complete {
		t.Fatalf("incomplete streaming entry must sort last: %+v", last)
	}
	if groups[0].Kind != model.GroupKindStreaming || !groups[0].Streaming.Complete {
		t.Fatalf("complete streaming entry orders by timestamp: %+v", groups[0])
	}
}

func TestBuildWorkstreamFilter(t *testing.T) {
	streaming := map[string]model.StreamingEntry{
		"a": {Text: "main text", StartTimestamp: model.TimestampFromMillis(1)},
		"b": {Text: "side text", WorkstreamID: "side", StartTimestamp: model.TimestampFromMillis(2)},
	}

	groups := Build(nil, streaming, "side")
	if len(groups) != 1 {
		t.Fatalf("expected 1 filtered group, got %d", len(groups))
	}
	if groups[0].Streaming.WorkstreamID != "side" {
		t.Fatalf("unexpected workstream: %s", groups[0].Streaming.WorkstreamID)
	}

	groups = Build(nil, streaming, model.WorkstreamFilterAll)
	if len(groups) != 2 {
		t.Fatalf("'all' sentinel disables filtering, got %d groups", len(groups))
	}

	// An entry without a workstream id belongs to main.
	groups = Build(nil, streaming, model.DefaultWorkstream)
	if len(groups) != 1 || groups[0].Streaming.ID != "a" {
		t.Fatalf("default workstream filter mismatch: %+v", groups)
	}
}

func TestBuildDoesNotMutateInput(t *testing.T) {
	msgs := []model.Message{
		thought(3, &model.Details{Tool: "b"}),
		thought(1, &model.Details{Tool: "a"}),
	}
	Build(msgs, nil, "")
	if msgs[0].Timestamp.Millis != 3 {
		t.Fatal("Build must not reorder the caller's slice")
	}
}

func TestIsToolCall(t *testing.T) {
	if !IsToolCall(thought(1, &model.Details{Tool: "x"})) {
		t.Fatal("THOUGHT with tool should be a tool call")
	}
	if IsToolCall(thought(1, nil)) {
		t.Fatal("THOUGHT without details is not a tool call")
	}
	msg := model.Message{Type: model.MessageTypeComplete, Details: &model.Details{Tool: "x"}}
	if IsToolCall(msg) {
		t.Fatal("only THOUGHT messages qualify as tool calls")
	}
}

func TestActivityGroupIDTrimsBlank(t *testing.T) {
	msg := thought(1, &model.Details{ActivityGroupID: "   "})
	if ActivityGroupID(msg) != "" {
		t.Fatal("blank activity group id should read as absent")
	}
	msg = thought(1, &model.Details{ActivityGroupID: " act "})
	if ActivityGroupID(msg) != "act" {
		t.Fatalf("expected trimmed id, got %q", ActivityGroupID(msg))
	}
}
