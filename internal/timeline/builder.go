package timeline

import (
	"sort"
	"strconv"

	"agentline/internal/model"
)

// bucket collects messages that share a non-positional grouping key.
type bucket struct {
	runID  string
	msgs   []model.Message
	anchor model.Timestamp
}

// item is one candidate entry in the unified ordering pass. Exactly one of
// msg, bucket, stream is set.
type item struct {
	anchor     model.Timestamp
	msg        *model.Message
	bucket     *bucket
	stream     *model.StreamingProjection
	incomplete bool
}

// Build merges the message log with the live streaming map into a
// time-ordered list of renderable groups.
//
// Messages need not be pre-sorted; ties keep their relative input order.
// Streaming entries are additive overlays: every input message appears exactly
// once across the single and tool_group outputs. An incomplete streaming entry
// always orders after every other item so live text stays at the bottom.
// workstreamFilter restricts streaming entries to one workstream; "" or "all"
// disables the filter.
func Build(msgs []model.Message, streaming map[string]model.StreamingEntry, workstreamFilter string) []model.RenderableGroup {
	sorted := make([]model.Message, len(msgs))
	copy(sorted, msgs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.SortKey() < sorted[j].Timestamp.SortKey()
	})

	items := make([]item, 0, len(sorted)+len(streaming))

	buckets := make(map[string]*bucket)
	var bucketOrder []string
	for i := range sorted {
		msg := sorted[i]
		dim, key, iteration := groupKey(msg)
		if dim == keyNone {
			items = append(items, item{anchor: msg.Timestamp, msg: &sorted[i]})
			continue
		}

		var composite, runID string
		switch dim {
		case keyActivityGroup:
			composite = "activity\x00" + key
			runID = key
		case keyIteration:
			composite = "iteration\x00" + strconv.Itoa(iteration)
		case keyRunID:
			composite = "run\x00" + key
			runID = key
		}

		b, ok := buckets[composite]
		if !ok {
			// First sighting in sorted order, so the anchor is the minimum.
			b = &bucket{runID: runID, anchor: msg.Timestamp}
			buckets[composite] = b
			bucketOrder = append(bucketOrder, composite)
		}
		b.msgs = append(b.msgs, msg)
	}

	for _, composite := range bucketOrder {
		b := buckets[composite]
		items = append(items, item{anchor: b.anchor, bucket: b})
	}

	items = append(items, streamingItems(streaming, workstreamFilter)...)

	// Incomplete streaming entries always sort last; everything else orders
	// by anchor timestamp, ties keeping encounter order.
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].incomplete != items[j].incomplete {
			return !items[i].incomplete
		}
		return items[i].anchor.SortKey() < items[j].anchor.SortKey()
	})

	return materialize(items)
}

// streamingItems projects the live streaming map into ordering candidates.
// Entries with empty text are dropped entirely.
func streamingItems(streaming map[string]model.StreamingEntry, workstreamFilter string) []item {
	if len(streaming) == 0 {
		return nil
	}

	ids := make([]string, 0, len(streaming))
	for id := range streaming {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	filtered := workstreamFilter != "" && workstreamFilter != model.WorkstreamFilterAll

	items := make([]item, 0, len(ids))
	for _, id := range ids {
		entry := streaming[id]
		if entry.Text == "" {
			continue
		}
		ws := entry.WorkstreamID
		if ws == "" {
			ws = model.DefaultWorkstream
		}
		if filtered && ws != workstreamFilter {
			continue
		}
		proj := model.StreamingProjection{
			ID:             id,
			Text:           entry.Text,
			WorkstreamID:   ws,
			StartTimestamp: entry.StartTimestamp,
			Complete:       entry.Complete,
		}
		items = append(items, item{
			anchor:     entry.StartTimestamp,
			stream:     &proj,
			incomplete: !entry.Complete,
		})
	}
	return items
}

// materialize walks the ordered items, coalescing consecutive keyless
// tool-call messages into positional tool groups.
func materialize(items []item) []model.RenderableGroup {
	out := make([]model.RenderableGroup, 0, len(items))
	var buffer []model.Message

	flush := func() {
		switch len(buffer) {
		case 0:
		case 1:
			out = append(out, model.SingleGroup(buffer[0]))
		default:
			msgs := append([]model.Message(nil), buffer...)
			out = append(out, model.ToolGroup(msgs, msgs[0].Timestamp, "", latestToolStatus(msgs)))
		}
		buffer = buffer[:0]
	}

	for _, it := range items {
		switch {
		case it.msg != nil && IsToolCall(*it.msg):
			buffer = append(buffer, *it.msg)
		case it.msg != nil:
			flush()
			out = append(out, model.SingleGroup(*it.msg))
		case it.bucket != nil:
			flush()
			b := it.bucket
			out = append(out, model.ToolGroup(b.msgs, b.anchor, b.runID, latestToolStatus(b.msgs)))
		case it.stream != nil:
			flush()
			out = append(out, model.StreamingGroup(*it.stream))
		}
	}
	flush()

	return out
}

// latestToolStatus returns the last reported status scanning the messages in
// timestamp order: the freshest report wins.
func latestToolStatus(msgs []model.Message) model.ToolStatus {
	status := model.ToolStatusNone
	for _, msg := range msgs {
		if msg.Details != nil && msg.Details.ToolStatus != model.ToolStatusNone {
			status = msg.Details.ToolStatus
		}
	}
	return status
}
