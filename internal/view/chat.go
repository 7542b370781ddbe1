package view

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"agentline/internal/format"
	"agentline/internal/model"
)

func renderChatTranscript(groups []model.RenderableGroup, width int, useColor bool) []string {
	if width <= 0 {
		width = 80
	}
	padding := 2

	lines := make([]string, 0, len(groups)*6)
	for idx, group := range groups {
		if idx > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, renderChatBubble(group, width, padding, useColor)...)
	}
	return lines
}

func renderChatBubble(group model.RenderableGroup, totalWidth int, padding int, useColor bool) []string {
	bodyLines := format.GroupLines(group, 0)

	maxContentWidth := totalWidth - padding*2 - 10
	if maxContentWidth < 20 {
		if totalWidth > 30 {
			maxContentWidth = totalWidth - 12
		} else {
			maxContentWidth = totalWidth - 8
		}
		if maxContentWidth < 8 {
			maxContentWidth = 8
		}
	}

	headerText, headerLabel, headerTime := chatHeader(group)
	content := wrapLines(append([]string{headerText}, bodyLines...), maxContentWidth)
	maxLineWidth := contentMaxWidth(content)

	bubbleWidth := maxLineWidth
	if bubbleWidth > maxContentWidth {
		bubbleWidth = maxContentWidth
	}

	align := alignmentForGroup(group)
	leftPad := computeLeftPad(totalWidth, bubbleWidth, padding, align)

	if useColor && len(content) > 0 {
		colored := fmt.Sprintf("%s · %s",
			colorize(true, groupColor(group), headerLabel),
			colorize(true, ansiTimestamp, headerTime),
		)
		content[0] = strings.Replace(content[0], headerText, colored, 1)
	}

	top := fmt.Sprintf("%s╭%s╮", strings.Repeat(" ", leftPad), strings.Repeat("─", bubbleWidth+2))
	bottom := fmt.Sprintf("%s╰%s╯", strings.Repeat(" ", leftPad), strings.Repeat("─", bubbleWidth+2))

	result := []string{top}
	for _, line := range content {
		result = append(result, renderBubbleBodyLine(line, bubbleWidth, leftPad, useColor))
	}
	result = append(result, bottom)
	return result
}

func renderBubbleBodyLine(line string, bubbleWidth int, leftPad int, useColor bool) string {
	displayLen := visibleWidth(line)
	if displayLen > bubbleWidth {
		line = truncateToWidth(line, bubbleWidth)
		displayLen = bubbleWidth
	}
	paddingRight := bubbleWidth - displayLen

	border := "|"
	if useColor {
		border = colorize(true, ansiSeparator, border)
	}

	return fmt.Sprintf("%s%s %s%s %s", strings.Repeat(" ", leftPad), border, line, strings.Repeat(" ", paddingRight), border)
}

func chatHeader(group model.RenderableGroup) (header string, label string, timeText string) {
	label = titleCase(format.GroupLabel(group))
	if label == "" {
		label = "Event"
	}
	timeText = "-"
	if ts := group.AnchorTimestamp(); ts.Valid {
		timeText = ts.Time().Format("Jan 02 15:04")
	}

	return fmt.Sprintf("%s · %s", label, timeText), label, timeText
}

// alignmentForGroup positions bubbles by origin: user-facing messages sit on
// the right, tool groups in the center, agent output on the left.
func alignmentForGroup(group model.RenderableGroup) string {
	switch group.Kind {
	case model.GroupKindTool:
		return "center"
	case model.GroupKindSingle:
		if group.Message != nil {
			switch group.Message.Type {
			case model.MessageTypeUserInput, model.MessageTypeRequestInput:
				return "right"
			}
		}
		return "left"
	default:
		return "left"
	}
}

func computeLeftPad(totalWidth, bubbleWidth, padding int, align string) int {
	maxPad := totalWidth - bubbleWidth - 4
	if maxPad < 0 {
		maxPad = 0
	}

	switch align {
	case "right":
		return maxPad
	case "center":
		center := maxPad / 2
		if center < padding {
			center = padding
		}
		if center > maxPad {
			center = maxPad
		}
		return center
	default:
		if padding > maxPad {
			return maxPad
		}
		return padding
	}
}

func wrapLines(lines []string, width int) []string {
	var out []string
	for _, line := range lines {
		out = append(out, wrapText(line, width)...)
	}
	return out
}

func wrapText(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}
	text = strings.TrimRight(text, " ")
	if text == "" {
		return []string{""}
	}
	var out []string
	var current strings.Builder
	currentWidth := 0

	for _, r := range text {
		rw := runewidth.RuneWidth(r)
		if currentWidth+rw > width && current.Len() > 0 {
			out = append(out, current.String())
			current.Reset()
			currentWidth = 0
		}
		current.WriteRune(r)
		currentWidth += rw
	}
	if currentWidth > 0 || current.Len() > 0 {
		out = append(out, current.String())
	}
	return out
}

func titleCase(text string) string {
	runes := []rune(text)
	if len(runes) == 0 {
		return ""
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func contentMaxWidth(lines []string) int {
	max := 0
	for _, line := range lines {
		if w := visibleWidth(line); w > max {
			max = w
		}
	}
	return max
}

func truncateToWidth(text string, width int) string {
	if visibleWidth(text) <= width {
		return text
	}
	var colored strings.Builder
	current := 0

	for i := 0; i < len(text); {
		if m := ansiPattern.FindStringIndex(text[i:]); m != nil && m[0] == 0 {
			seq := text[i : i+m[1]]
			colored.WriteString(seq)
			i += m[1]
			continue
		}
		r, size := utf8.DecodeRuneInString(text[i:])
		rw := runewidth.RuneWidth(r)
		if current+rw > width {
			break
		}
		colored.WriteRune(r)
		current += rw
		i += size
	}
	return colored.String()
}

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func visibleWidth(text string) int {
	clean := ansiPattern.ReplaceAllString(text, "")
	return runewidth.StringWidth(clean)
}
