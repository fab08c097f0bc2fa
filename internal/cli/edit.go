package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/timeline/internal/action"
	"github.com/roach88/timeline/internal/engine"
	"github.com/roach88/timeline/internal/importer"
)

func newNotesCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notes",
		Short: "Show or replace the timeline notes",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set <text>...",
		Short: "Replace the timeline notes (undoable)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			notes := strings.Join(args, " ")
			return mutate(cmd, opts, func(*App) (action.Payload, error) {
				return action.UpdateNotesPayload{Notes: notes}, nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the timeline notes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, true, func(_ context.Context, app *App, out *OutputFormatter) error {
				notes := app.Store.Notes()
				return out.Success(map[string]string{"notes": notes}, notes)
			})
		},
	})
	return cmd
}

func newImportCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json>",
		Short: "Replace all properties and events with the contents of a file",
		Long: `Validate a timeline JSON document and import it as one undoable step.

The document's notes, if present, are applied as a second step.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "read import file", err)
			}
			im, err := importer.New()
			if err != nil {
				return WrapExitError(ExitCommandError, "load import schema", err)
			}
			res, err := im.Parse(args[0], data)
			if err != nil {
				return reportImportError(newFormatter(cmd, opts), err)
			}
			return withApp(cmd, opts, true, func(ctx context.Context, app *App, out *OutputFormatter) error {
				results := make([]engine.Result, 0, 2)
				var lines []string
				for _, a := range res.Actions() {
					r := app.Execute(ctx, a)
					if !r.Success {
						return out.Result(r)
					}
					results = append(results, r)
					lines = append(lines, r.Message)
				}
				return out.Success(results, strings.Join(lines, "\n"))
			})
		},
	}
}

func reportImportError(out *OutputFormatter, err error) error {
	var verr *importer.ValidationError
	if !errors.As(err, &verr) {
		_ = out.Error("IMPORT_FAILED", err.Error(), nil)
		return WrapExitError(ExitFailure, "import failed", err)
	}
	problems := make([]string, len(verr.Problems))
	for i, p := range verr.Problems {
		problems[i] = p.String()
	}
	if out.Format == "json" {
		_ = out.Error("IMPORT_INVALID", verr.Error(), problems)
	} else {
		_ = out.Error("IMPORT_INVALID", verr.Error(), nil)
		for _, p := range problems {
			fmt.Fprintf(out.Writer, "  %s\n", p)
		}
	}
	return WrapExitError(ExitFailure, "import failed", err)
}

func newClearCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every property and event (undoable)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutate(cmd, opts, func(*App) (action.Payload, error) {
				return action.ClearAllPayload{}, nil
			})
		},
	}
}

func newUndoCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "undo",
		Short: "Revert the most recent action",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, true, func(ctx context.Context, app *App, out *OutputFormatter) error {
				return out.Result(app.Undo(ctx))
			})
		},
	}
}

func newRedoCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "redo",
		Short: "Re-apply the most recently undone action",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, true, func(ctx context.Context, app *App, out *OutputFormatter) error {
				return out.Result(app.Redo(ctx))
			})
		},
	}
}

func newHistoryCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show the undo and redo stacks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, true, func(_ context.Context, app *App, out *OutputFormatter) error {
				view, err := buildHistoryView(app.History)
				if err != nil {
					return WrapExitError(ExitCommandError, "read history", err)
				}
				return out.Success(view, renderHistory(view))
			})
		},
	}
}

func newListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List properties with their events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, true, func(_ context.Context, app *App, out *OutputFormatter) error {
				view := buildTimelineView(app.Store)
				return out.Success(view, renderTimeline(view))
			})
		},
	}
}
