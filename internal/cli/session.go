package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/timeline/internal/model"
	"github.com/roach88/timeline/internal/session"
)

// SessionView describes the saved session and the startup decision for it.
type SessionView struct {
	ID       string                 `json:"id"`
	Exists   bool                   `json:"exists"`
	Metadata *model.SessionMetadata `json:"metadata,omitempty"`
	Summary  string                 `json:"summary,omitempty"`
	Age      string                 `json:"age,omitempty"`
	Strategy session.Strategy       `json:"strategy"`
}

func newSessionCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect, restore and discard the saved session",
	}
	cmd.AddCommand(newSessionShowCommand(opts))
	cmd.AddCommand(newSessionRestoreCommand(opts))
	cmd.AddCommand(newSessionDiscardCommand(opts))
	cmd.AddCommand(newSessionListCommand(opts))
	cmd.AddCommand(newSessionPolicyCommand(opts))
	return cmd
}

func newSessionShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the saved session and what startup would do with it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, false, func(ctx context.Context, app *App, out *OutputFormatter) error {
				info, strategy := app.Coord.Decide(ctx)
				v := SessionView{ID: app.Coord.SessionID(), Exists: info.Exists, Strategy: strategy}
				if !info.Exists {
					return out.Success(v, fmt.Sprintf("No saved %s (startup: %s)", sessionLabel(v.ID), strategy))
				}
				meta := info.Metadata
				v.Metadata = &meta
				v.Summary = session.FormatSummary(meta)
				v.Age = session.FormatAge(meta.LastModified, app.now())
				return out.Success(v, fmt.Sprintf("Saved %s: %s, last modified %s (startup: %s)",
					sessionLabel(v.ID), v.Summary, v.Age, strategy))
			})
		},
	}
}

func newSessionRestoreCommand(opts *RootOptions) *cobra.Command {
	var now bool
	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Restore the saved session, counting down first when the policy auto-restores",
		Long: `Restore the saved session into the editor and report what was restored.

When the restore policy picks auto-restore, a countdown runs first; press
Ctrl-C during the countdown to start fresh instead. --now skips the
countdown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, false, func(ctx context.Context, app *App, out *OutputFormatter) error {
				info, strategy := app.Coord.Decide(ctx)
				if !info.Exists {
					_ = out.Error("NO_SESSION", "no saved "+sessionLabel(app.Coord.SessionID()), nil)
					return NewExitError(ExitFailure, "no saved session")
				}

				restore := func(ctx context.Context) error {
					_, err := app.Coord.Restore(ctx)
					return err
				}

				var err error
				if now || strategy != session.AutoRestore {
					err = restore(ctx)
				} else {
					cd := newRestoreCountdown(cmd, opts, app.Coord.Policy(), restore)
					sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
					err = cd.Run(sigCtx)
					stop()
					if cd.Status().Outcome == session.OutcomeCancelled {
						return out.Success(map[string]any{"restored": false}, "Restore cancelled; starting fresh")
					}
				}
				if err != nil {
					_ = out.Error("RESTORE_FAILED", err.Error(), nil)
					return WrapExitError(ExitFailure, "restore failed", err)
				}

				view, err := buildHistoryView(app.History)
				if err != nil {
					return WrapExitError(ExitCommandError, "read history", err)
				}
				summary := session.FormatSummary(info.Metadata)
				lines := []string{fmt.Sprintf("Restored %s: %s", sessionLabel(app.Coord.SessionID()), summary)}
				if len(view.Undo) > 0 {
					lines = append(lines, "Undo: "+view.Undo[0].Description)
				}
				if len(view.Redo) > 0 {
					lines = append(lines, "Redo: "+view.Redo[0].Description)
				}
				return out.Success(map[string]any{
					"restored": true,
					"metadata": info.Metadata,
					"history":  view,
				}, strings.Join(lines, "\n"))
			})
		},
	}
	cmd.Flags().BoolVar(&now, "now", false, "skip the countdown")
	return cmd
}

// newRestoreCountdown prints the countdown to stderr in text mode.
func newRestoreCountdown(cmd *cobra.Command, opts *RootOptions, p session.Policy, restore func(context.Context) error) *session.Countdown {
	cdOpts := []session.CountdownOption{}
	if opts.ticker != nil {
		cdOpts = append(cdOpts, session.WithTicker(opts.ticker))
	}
	if opts.Format == "text" {
		w := cmd.ErrOrStderr()
		cdOpts = append(cdOpts, session.OnChange(func(s session.Status) {
			switch s.Phase {
			case session.PhaseCountdown:
				fmt.Fprintf(w, "Restoring in %d... (Ctrl-C to start fresh)\n", s.Remaining)
			case session.PhaseRestoring:
				fmt.Fprintln(w, "Restoring...")
			}
		}))
	}
	return session.NewCountdown(p.CountdownSeconds, restore, cdOpts...)
}

func newSessionDiscardCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "discard",
		Short: "Delete the saved session and its history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, false, func(ctx context.Context, app *App, out *OutputFormatter) error {
				if err := app.Coord.Discard(ctx); err != nil {
					if isUnavailable(err) {
						return WrapExitError(ExitCommandError, "storage unavailable", err)
					}
					return WrapExitError(ExitFailure, "discard failed", err)
				}
				return out.Success(map[string]string{"discarded": app.Coord.SessionID()},
					"Discarded "+sessionLabel(app.Coord.SessionID()))
			})
		},
	}
}

func newSessionListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved sessions, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, false, func(ctx context.Context, app *App, out *OutputFormatter) error {
				sessions, err := app.Persist.List(ctx)
				if err != nil {
					return WrapExitError(ExitCommandError, "list sessions", err)
				}
				if len(sessions) == 0 {
					return out.Success(sessions, "No saved sessions")
				}
				var b strings.Builder
				for _, s := range sessions {
					fmt.Fprintf(&b, "%-12s %-40s %s\n", s.ID, session.FormatSummary(s.Metadata),
						session.FormatAge(s.Metadata.LastModified, app.now()))
				}
				return out.Success(sessions, strings.TrimRight(b.String(), "\n"))
			})
		},
	}
}

func newSessionPolicyCommand(opts *RootOptions) *cobra.Command {
	var (
		autoRestore  bool
		maxAge       time.Duration
		alwaysPrompt bool
		countdown    int
	)
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Show or change the restore policy",
		Long: `Show the restore policy, or store a new one when any flag is set.

A stored policy takes precedence over the configuration file.`,
		Example: `  timeline session policy
  timeline session policy --max-age 8h --countdown 3
  timeline session policy --always-prompt`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, false, func(ctx context.Context, app *App, out *OutputFormatter) error {
				p := app.Coord.Policy()
				flags := cmd.Flags()
				changed := false
				if flags.Changed("auto-restore") {
					p.AutoRestoreIfRecent, changed = autoRestore, true
				}
				if flags.Changed("max-age") {
					if maxAge <= 0 {
						return NewExitError(ExitCommandError, "--max-age must be positive")
					}
					p.MaxAge, changed = maxAge, true
				}
				if flags.Changed("always-prompt") {
					p.ShowPromptAlways, changed = alwaysPrompt, true
				}
				if flags.Changed("countdown") {
					if countdown <= 0 {
						return NewExitError(ExitCommandError, "--countdown must be positive")
					}
					p.CountdownSeconds, changed = countdown, true
				}
				if changed {
					if err := app.Coord.SavePolicy(ctx, p); err != nil {
						return WrapExitError(ExitCommandError, "save policy", err)
					}
				}
				return out.Success(p, fmt.Sprintf(
					"auto-restore: %t\nmax-age: %s\nalways-prompt: %t\ncountdown: %ds",
					p.AutoRestoreIfRecent, p.MaxAge, p.ShowPromptAlways, p.CountdownSeconds))
			})
		},
	}
	cmd.Flags().BoolVar(&autoRestore, "auto-restore", true, "auto-restore recent sessions")
	cmd.Flags().DurationVar(&maxAge, "max-age", session.DefaultMaxAge, "sessions younger than this auto-restore")
	cmd.Flags().BoolVar(&alwaysPrompt, "always-prompt", false, "always ask instead of auto-restoring")
	cmd.Flags().IntVar(&countdown, "countdown", session.DefaultCountdownSeconds, "countdown length in seconds")
	return cmd
}
