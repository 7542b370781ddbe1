package timeline

import (
	"agentline/internal/model"
)

// MergeConsecutiveToolGroups coalesces adjacent tool_group entries into one.
// Messages concatenate in encounter order, statuses merge by priority, and an
// already-present tool run id is kept over a later one. The output never
// contains two adjacent tool groups, and the pass is idempotent.
func MergeConsecutiveToolGroups(groups []model.RenderableGroup) []model.RenderableGroup {
	out := make([]model.RenderableGroup, 0, len(groups))
	var pending *model.RenderableGroup

	flush := func() {
		if pending != nil {
			out = append(out, *pending)
			pending = nil
		}
	}

	for _, group := range groups {
		if group.Kind != model.GroupKindTool {
			flush()
			out = append(out, group)
			continue
		}

		if pending == nil {
			merged := model.ToolGroup(
				append([]model.Message(nil), group.Messages...),
				group.FirstTimestamp,
				group.ToolRunID,
				group.ToolStatus,
			)
			pending = &merged
			continue
		}

		pending.Messages = append(pending.Messages, group.Messages...)
		pending.ToolStatus = model.MergeToolStatus(pending.ToolStatus, group.ToolStatus)
		if pending.ToolRunID == "" {
			pending.ToolRunID = group.ToolRunID
		}
	}
	flush()

	return out
}
