// Package view renders aggregated session timelines to a terminal.
package view

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"

	"agentline/internal/format"
	"agentline/internal/model"
	"agentline/internal/parser"
	"agentline/internal/timeline"
)

// Options defines the configurable parameters for rendering a timeline.
type Options struct {
	Path         string
	Format       string
	Wrap         int
	MaxGroups    int
	Workstream   string
	ForceColor   bool
	ForceNoColor bool
	Out          io.Writer
	OutFile      *os.File
}

// Run loads a session replay, aggregates it into renderable groups, and
// writes the result according to the provided options.
func Run(opts Options) error {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	formatMode := strings.ToLower(opts.Format)
	if formatMode == "" {
		formatMode = "text"
	}

	if formatMode == "raw" {
		return copyFile(opts.Out, opts.Path)
	}

	session, err := parser.ReadSession(opts.Path)
	if err != nil {
		return err
	}

	groups := timeline.MergeConsecutiveToolGroups(
		timeline.Build(session.Messages, session.Streaming, opts.Workstream),
	)
	if opts.MaxGroups > 0 && len(groups) > opts.MaxGroups {
		groups = groups[len(groups)-opts.MaxGroups:]
	}

	if len(groups) == 0 {
		return nil
	}

	useColor := resolveColorChoice(opts)

	switch formatMode {
	case "text":
		for idx, group := range groups {
			if idx > 0 {
				fmt.Fprintln(opts.Out)
			}
			printGroup(opts.Out, group, idx+1, opts.Wrap, useColor)
		}
		return nil

	case "chat":
		width := determineWidth(opts.OutFile, opts.Wrap)
		lines := renderChatTranscript(groups, width, useColor)
		if len(lines) == 0 {
			return nil
		}
		if opts.OutFile != nil && isatty.IsTerminal(opts.OutFile.Fd()) {
			return pipeThroughPager(lines, useColor)
		}
		return writeLines(opts.Out, lines)

	default:
		return fmt.Errorf("unsupported format: %s", opts.Format)
	}
}

func printGroup(out io.Writer, group model.RenderableGroup, index int, wrap int, useColor bool) {
	label := format.GroupLabel(group)
	ts := group.AnchorTimestamp().Format()
	headerPlain := fmt.Sprintf("[#%03d] %s | %s", index, label, ts)

	indexText := fmt.Sprintf("#%03d", index)
	labelText := label
	tsText := ts
	separator := "|"

	if useColor {
		indexText = colorize(true, ansiBoldWhite, indexText)
		labelText = colorize(true, groupColor(group), labelText)
		tsText = colorize(true, ansiTimestamp, tsText)
		separator = colorize(true, ansiSeparator, "|")
	}

	header := fmt.Sprintf("[%s] %s %s %s", indexText, labelText, separator, tsText)
	fmt.Fprintln(out, header)
	fmt.Fprintln(out, strings.Repeat("-", len(headerPlain)))

	lines := format.GroupLines(group, wrap)
	if len(lines) == 0 {
		prefix := "|"
		if useColor {
			prefix = colorize(true, ansiSeparator, "|")
		}
		fmt.Fprintf(out, "%s %s\n", prefix, "(no content)")
		return
	}
	linePrefix := "| "
	emptyPrefix := "|"
	if useColor {
		separatorColor := colorize(true, ansiSeparator, "|")
		linePrefix = separatorColor + " "
		emptyPrefix = separatorColor
	}
	for _, line := range lines {
		if line == "" {
			fmt.Fprintln(out, emptyPrefix)
			continue
		}
		fmt.Fprintf(out, "%s%s\n", linePrefix, line)
	}
}

func determineWidth(out *os.File, wrap int) int {
	if wrap > 0 {
		return wrap
	}
	if out != nil {
		if w, _, err := term.GetSize(int(out.Fd())); err == nil && w > 0 {
			return w
		}
	}
	if colsStr := os.Getenv("COLUMNS"); colsStr != "" {
		if v, err := strconv.Atoi(colsStr); err == nil && v > 0 {
			return v
		}
	}
	return 80
}

func pipeThroughPager(lines []string, colorEnabled bool) error {
	text := strings.Join(lines, "\n")
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}

	pagerCmd := os.Getenv("PAGER")
	var cmd *exec.Cmd
	if pagerCmd == "" {
		args := []string{"less"}
		if colorEnabled {
			args = append(args, "-R")
		}
		cmd = exec.Command(args[0], args[1:]...) // #nosec G204
	} else {
		cmd = exec.Command("sh", "-c", pagerCmd) // #nosec G204
	}

	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create pager pipe: %w", err)
	}
	go func() {
		defer stdin.Close()
		io.WriteString(stdin, text) //nolint:errcheck
	}()

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("run pager: %w", err)
	}

	return nil
}

func writeLines(out io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}
	return nil
}

const (
	ansiReset     = "\x1b[0m"
	ansiBoldWhite = "\x1b[1;97m"
	ansiTimestamp = "\x1b[38;5;245m"
	ansiSeparator = "\x1b[38;5;240m"
	ansiSingle    = "\x1b[38;5;44m"
	ansiUser      = "\x1b[38;5;220m"
	ansiTool      = "\x1b[38;5;207m"
	ansiStreaming = "\x1b[38;5;84m"
)

func colorize(enabled bool, code string, text string) string {
	if !enabled {
		return text
	}
	return code + text + ansiReset
}

func groupColor(group model.RenderableGroup) string {
	switch group.Kind {
	case model.GroupKindTool:
		return ansiTool
	case model.GroupKindStreaming:
		return ansiStreaming
	case model.GroupKindSingle:
		if group.Message != nil {
			switch group.Message.Type {
			case model.MessageTypeUserInput, model.MessageTypeRequestInput:
				return ansiUser
			}
		}
		return ansiSingle
	}
	return ansiSeparator
}

func resolveColorChoice(opts Options) bool {
	if opts.ForceColor {
		return true
	}
	if opts.ForceNoColor {
		return false
	}
	return shouldUseColorAuto(opts.Out)
}

func shouldUseColorAuto(out io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := out.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func copyFile(dst io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(dst, f)
	return err
}
