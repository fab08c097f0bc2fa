package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/timeline/internal/entity"
	"github.com/roach88/timeline/internal/session"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	DBPath     string
	SessionID  string

	// Test hooks.
	now    func() time.Time
	ticker func() session.Ticker
	ids    entity.IDGenerator
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the timeline CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timeline",
		Short: "Property timeline editor",
		Long: `Edit a property and event timeline with full undo/redo history.

Every command resumes the saved session, applies its edit and saves the
result, history included, so undo works across invocations.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default: user config dir)")
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "session database path (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.SessionID, "session", "", "session id (overrides config)")

	cmd.AddCommand(newPropertyCommand(opts))
	cmd.AddCommand(newEventCommand(opts))
	cmd.AddCommand(newCostCommand(opts))
	cmd.AddCommand(newNotesCommand(opts))
	cmd.AddCommand(newImportCommand(opts))
	cmd.AddCommand(newClearCommand(opts))
	cmd.AddCommand(newUndoCommand(opts))
	cmd.AddCommand(newRedoCommand(opts))
	cmd.AddCommand(newHistoryCommand(opts))
	cmd.AddCommand(newListCommand(opts))
	cmd.AddCommand(newSessionCommand(opts))
	cmd.AddCommand(newTestCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
