// Package main provides the agentline CLI for browsing agent session timelines.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"agentline/internal/config"
	"agentline/internal/format"
	"agentline/internal/metrics"
	"agentline/internal/parser"
	"agentline/internal/store"
	"agentline/internal/view"
	"agentline/internal/workstream"
)

var version = "dev"

var cfg = config.DefaultConfig()

var rootCmd = &cobra.Command{
	Use:     "agentline",
	Short:   "Browse and analyze agent session timelines",
	Version: version,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newViewCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newMetricsCmd())
	rootCmd.AddCommand(newInfoCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "agentline: %v\n", err)
		os.Exit(1)
	}
}

// resolveSessionsDir picks the sessions directory: flag, then environment,
// then config file, then the default location.
func resolveSessionsDir(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if dir := os.Getenv("AGENTLINE_SESSIONS_DIR"); dir != "" {
		return dir
	}
	if cfg.SessionsDir != "" {
		return cfg.SessionsDir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".agentline", "sessions")
}

func newListCmd() *cobra.Command {
	var (
		afterStr    string
		beforeStr   string
		limit       int
		formatFlag  string
		noHeader    bool
		titleWidth  int
		sessionsDir string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List session replays in reverse chronological order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var after, before *time.Time
			if afterStr != "" {
				t, err := time.Parse(time.RFC3339, afterStr)
				if err != nil {
					return fmt.Errorf("invalid --after value: %w", err)
				}
				after = &t
			}
			if beforeStr != "" {
				t, err := time.Parse(time.RFC3339, beforeStr)
				if err != nil {
					return fmt.Errorf("invalid --before value: %w", err)
				}
				before = &t
			}

			result, err := store.List(store.ListOptions{
				Root:     resolveSessionsDir(sessionsDir),
				After:    after,
				Before:   before,
				Limit:    limit,
				MaxTitle: titleWidth,
			})
			if err != nil {
				return err
			}

			errs := cmd.ErrOrStderr()
			for _, warn := range result.Warnings {
				fmt.Fprintf(errs, "warning: %v\n", warn) //nolint:errcheck
			}

			if formatFlag == "" {
				formatFlag = cfg.Format
			}
			return format.WriteSummaries(cmd.OutOrStdout(), result.Summaries, !noHeader, strings.ToLower(formatFlag))
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&afterStr, "after", "", "include sessions starting on/after the given RFC3339 timestamp")
	flags.StringVar(&beforeStr, "before", "", "include sessions starting on/before the given RFC3339 timestamp")
	flags.IntVar(&limit, "limit", 0, "limit number of sessions returned (0 means no limit)")
	flags.StringVar(&formatFlag, "format", "", "output format: table, plain, json, or jsonl")
	flags.BoolVar(&noHeader, "no-header", false, "omit header row")
	flags.IntVar(&titleWidth, "title-width", 60, "maximum characters included in the title column")
	flags.StringVar(&sessionsDir, "sessions-dir", "", "override the sessions directory")

	return cmd
}

func newViewCmd() *cobra.Command {
	var (
		workstreamArg string
		maxGroups     int
		wrap          int
		formatFlag    string
		forceColor    bool
		forceNoColor  bool
		sessionsDir   string
	)

	cmd := &cobra.Command{
		Use:   "view <session-id-or-path>",
		Short: "Render a session timeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if forceColor && forceNoColor {
				return errors.New("--color and --no-color cannot be used together")
			}
			path, err := resolveSessionPath(args[0], resolveSessionsDir(sessionsDir))
			if err != nil {
				return err
			}

			switch cfg.Color {
			case "always":
				forceColor = forceColor || !forceNoColor
			case "never":
				forceNoColor = forceNoColor || !forceColor
			}

			out := cmd.OutOrStdout()
			outFile, _ := out.(*os.File)
			return view.Run(view.Options{
				Path:         path,
				Format:       formatFlag,
				Wrap:         wrap,
				MaxGroups:    maxGroups,
				Workstream:   workstreamArg,
				ForceColor:   forceColor,
				ForceNoColor: forceNoColor,
				Out:          out,
				OutFile:      outFile,
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&workstreamArg, "workstream", "W", "", "restrict live streaming output to one workstream ('all' disables)")
	flags.IntVar(&maxGroups, "max", 0, "show only the most recent N groups (0 means no limit)")
	flags.IntVar(&wrap, "wrap", 0, "wrap group bodies at the given column width")
	flags.StringVar(&formatFlag, "format", "text", "output format: text, chat, or raw")
	flags.BoolVar(&forceColor, "color", false, "force-enable ANSI colors even when stdout is not a TTY")
	flags.BoolVar(&forceNoColor, "no-color", false, "disable ANSI colors regardless of terminal detection")
	flags.StringVar(&sessionsDir, "sessions-dir", "", "override the sessions directory")

	return cmd
}

func newStatusCmd() *cobra.Command {
	var (
		formatFlag  string
		sessionsDir string
	)

	cmd := &cobra.Command{
		Use:   "status <session-id-or-path>",
		Short: "Show conversation progress and per-workstream status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolveSessionPath(args[0], resolveSessionsDir(sessionsDir))
			if err != nil {
				return err
			}
			session, err := parser.ReadSession(path)
			if err != nil {
				return err
			}

			return format.WriteStatuses(
				cmd.OutOrStdout(),
				workstream.InProgress(session.Messages),
				workstream.StatusMap(session.Messages),
				formatFlag,
			)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&formatFlag, "format", "table", "output format: table, plain, or json")
	flags.StringVar(&sessionsDir, "sessions-dir", "", "override the sessions directory")

	return cmd
}

func newMetricsCmd() *cobra.Command {
	var (
		formatFlag  string
		sessionsDir string
	)

	cmd := &cobra.Command{
		Use:   "metrics <session-id-or-path>",
		Short: "Show tool-call metrics for a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolveSessionPath(args[0], resolveSessionsDir(sessionsDir))
			if err != nil {
				return err
			}
			session, err := parser.ReadSession(path)
			if err != nil {
				return err
			}

			summary := metrics.Aggregate(metrics.ExtractToolCalls(session.Messages))
			return format.WriteMetrics(cmd.OutOrStdout(), summary, formatFlag)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&formatFlag, "format", "table", "output format: table, plain, or json")
	flags.StringVar(&sessionsDir, "sessions-dir", "", "override the sessions directory")

	return cmd
}

type infoPayload struct {
	SessionID       string `json:"session_id"`
	Path            string `json:"path"`
	Title           string `json:"title"`
	StartedAt       string `json:"started_at"`
	MessageCount    int    `json:"message_count"`
	WorkstreamCount int    `json:"workstream_count"`
	StreamingCount  int    `json:"streaming_count"`
	InProgress      bool   `json:"in_progress"`
}

func newInfoCmd() *cobra.Command {
	var (
		formatFlag  string
		sessionsDir string
	)

	cmd := &cobra.Command{
		Use:   "info <session-id-or-path>",
		Short: "Show session metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolveSessionPath(args[0], resolveSessionsDir(sessionsDir))
			if err != nil {
				return err
			}
			session, err := parser.ReadSession(path)
			if err != nil {
				return err
			}

			statuses := workstream.StatusMap(session.Messages)
			payload := infoPayload{
				SessionID:       session.Meta.ID,
				Path:            path,
				Title:           session.Meta.Title,
				StartedAt:       session.Meta.StartedAt.Format(),
				MessageCount:    len(session.Messages),
				WorkstreamCount: len(statuses),
				StreamingCount:  len(session.Streaming),
				InProgress:      workstream.InProgress(session.Messages),
			}

			switch strings.ToLower(formatFlag) {
			case "json":
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(payload)
			case "", "text":
				renderInfoText(cmd.OutOrStdout(), payload)
				return nil
			default:
				return fmt.Errorf("unsupported format: %s", formatFlag)
			}
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&formatFlag, "format", "text", "output format: text or json")
	flags.StringVar(&sessionsDir, "sessions-dir", "", "override the sessions directory")

	return cmd
}

func resolveSessionPath(arg, root string) (string, error) {
	if arg == "" {
		return "", errors.New("session identifier is empty")
	}

	if info, err := os.Stat(arg); err == nil && !info.IsDir() {
		return arg, nil
	}

	candidate := filepath.Join(root, arg)
	if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
		return candidate, nil
	}

	return store.FindPath(root, arg)
}

func renderInfoText(out io.Writer, payload infoPayload) {
	const labelWidth = 14
	writeKV(out, labelWidth, "Session ID", payload.SessionID)
	writeKV(out, labelWidth, "Title", payload.Title)
	writeKV(out, labelWidth, "Started At", payload.StartedAt)
	writeKV(out, labelWidth, "Messages", fmt.Sprintf("%d", payload.MessageCount))
	writeKV(out, labelWidth, "Workstreams", fmt.Sprintf("%d", payload.WorkstreamCount))
	writeKV(out, labelWidth, "Streaming", fmt.Sprintf("%d", payload.StreamingCount))
	writeKV(out, labelWidth, "In Progress", fmt.Sprintf("%t", payload.InProgress))
	writeKV(out, labelWidth, "Path", payload.Path)
}

func writeKV(out io.Writer, width int, label string, value string) {
	fmt.Fprintf(out, "%-*s: %s\n", width, label, value) //nolint:errcheck
}
