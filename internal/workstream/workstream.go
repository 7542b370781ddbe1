// Package workstream derives per-branch progress state from an agent message log.
package workstream

import (
	"agentline/internal/model"
)

// Status is the derived state of one workstream.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Of returns the workstream id a message belongs to, defaulting to "main"
// when the message carries none.
func Of(msg model.Message) string {
	if msg.WorkstreamID != "" {
		return msg.WorkstreamID
	}
	return model.DefaultWorkstream
}

// partition groups messages by workstream id, preserving input order within
// each group. The returned order slice records first-sighting order of ids.
func partition(msgs []model.Message) (map[string][]model.Message, []string) {
	groups := make(map[string][]model.Message)
	var order []string
	for _, msg := range msgs {
		id := Of(msg)
		if _, ok := groups[id]; !ok {
			order = append(order, id)
		}
		groups[id] = append(groups[id], msg)
	}
	return groups, order
}

// InProgress reports whether the conversation is still running. Messages are
// expected in arrival order; the last message per workstream decides.
//
// An empty log counts as in progress: nothing has happened yet. A sole
// workstream is treated as the main branch even under another name. With
// multiple workstreams and no main branch, the conversation ends only when
// every workstream has reached a terminal message.
func InProgress(msgs []model.Message) bool {
	if len(msgs) == 0 {
		return true
	}

	groups, order := partition(msgs)

	if len(order) == 1 && order[0] != model.DefaultWorkstream {
		return lastNonTerminal(groups[order[0]])
	}

	if main, ok := groups[model.DefaultWorkstream]; ok {
		if len(main) == 0 {
			return true
		}
		return lastNonTerminal(main)
	}

	for _, id := range order {
		if lastNonTerminal(groups[id]) {
			return true
		}
	}
	return false
}

func lastNonTerminal(msgs []model.Message) bool {
	if len(msgs) == 0 {
		return true
	}
	return !msgs[len(msgs)-1].Type.Terminal()
}

// StatusMap recomputes the status of every sighted workstream from the full
// message log. A workstream with messages is in progress until its last
// message is terminal or it contains a COMPLETE message, after which it stays
// completed regardless of activity elsewhere.
func StatusMap(msgs []model.Message) map[string]Status {
	groups, _ := partition(msgs)

	statuses := make(map[string]Status, len(groups))
	for id, group := range groups {
		if len(group) == 0 {
			statuses[id] = StatusPending
			continue
		}
		statuses[id] = StatusInProgress
		if group[len(group)-1].Type.Terminal() {
			statuses[id] = StatusCompleted
			continue
		}
		for _, msg := range group {
			if msg.Type == model.MessageTypeComplete {
				statuses[id] = StatusCompleted
				break
			}
		}
	}
	return statuses
}
