package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/timeline/internal/action"
	"github.com/roach88/timeline/internal/config"
	"github.com/roach88/timeline/internal/engine"
	"github.com/roach88/timeline/internal/entity"
	"github.com/roach88/timeline/internal/model"
	"github.com/roach88/timeline/internal/persist"
	"github.com/roach88/timeline/internal/session"
	"github.com/roach88/timeline/internal/undo"
)

// App is one CLI invocation's editor: the entity store, its executor and
// history, and the session services around them.
type App struct {
	Config  config.Config
	Logger  *slog.Logger
	Persist *persist.Service
	Store   *entity.Store
	History *undo.Manager
	Exec    *engine.Executor
	Coord   *session.Coordinator

	autosaver *session.Autosaver
	stop      func() error
	mutated   bool
	now       func() time.Time
}

// openApp loads configuration, applies flag overrides and starts the executor.
func openApp(ctx context.Context, opts *RootOptions, logOut io.Writer) (*App, error) {
	cfgPath := opts.ConfigPath
	if cfgPath == "" {
		cfgPath = config.DefaultPath()
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load config", err)
	}
	if opts.DBPath != "" {
		cfg.Storage.Path = opts.DBPath
	}
	if opts.SessionID != "" {
		cfg.Session.ID = opts.SessionID
	}
	if err := cfg.Validate(); err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid config", err)
	}

	logger := cfg.Logging.NewLogger(logOut, opts.Verbose)
	slog.SetDefault(logger)

	if dir := filepath.Dir(cfg.Storage.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Warn("cannot create storage directory", "dir", dir, "error", err)
		}
	}

	now := opts.now
	if now == nil {
		now = time.Now
	}

	svc := persist.NewService(persist.SharedAccessor(cfg.Storage.Path), persist.WithLogger(logger))
	var storeOpts []entity.Option
	if opts.ids != nil {
		storeOpts = append(storeOpts, entity.WithIDGenerator(opts.ids))
	}
	store := entity.New(storeOpts...)
	history := undo.NewManager(cfg.Undo.MaxSize)
	autosaver := session.NewAutosaver(svc, store, history, cfg.Session.ID, now)

	execOpts := []engine.Option{engine.WithHistory(history)}
	if cfg.Autosave.Enabled {
		execOpts = append(execOpts, engine.WithAutosave(autosaver, cfg.Autosave.Delay))
	}
	exec := engine.New(store, execOpts...)

	coord := session.NewCoordinator(svc, exec, store,
		session.WithSessionID(cfg.Session.ID),
		session.WithPolicy(cfg.Restore),
		session.WithClock(now),
		session.WithLogger(logger),
	)

	app := &App{
		Config:    cfg,
		Logger:    logger,
		Persist:   svc,
		Store:     store,
		History:   history,
		Exec:      exec,
		Coord:     coord,
		autosaver: autosaver,
		now:       now,
	}
	app.stop = exec.Start(ctx)
	coord.LoadPolicy(ctx)
	return app, nil
}

// Resume restores the saved session, if there is one, so the command
// edits on top of it. A record that cannot be restored is logged and the
// command starts from an empty editor.
func (a *App) Resume(ctx context.Context) (restored bool) {
	info := a.Coord.CheckForSavedSession(ctx)
	if !info.Exists {
		return false
	}
	if _, err := a.Coord.Restore(ctx); err != nil {
		a.Logger.Warn("starting fresh", "error", err)
		return false
	}
	return true
}

// Execute runs a through the executor.
func (a *App) Execute(ctx context.Context, act action.Action) engine.Result {
	res := a.Exec.Execute(ctx, act)
	if res.Success {
		a.mutated = true
	}
	return res
}

// Undo reverts the most recent action.
func (a *App) Undo(ctx context.Context) engine.Result {
	res := a.Exec.Undo(ctx)
	if res.Success {
		a.mutated = true
	}
	return res
}

// Redo re-applies the most recently undone action.
func (a *App) Redo(ctx context.Context) engine.Result {
	res := a.Exec.Redo(ctx)
	if res.Success {
		a.mutated = true
	}
	return res
}

// Close stops the executor, which flushes a pending autosave. With
// autosave disabled, edits are saved once here instead.
func (a *App) Close(ctx context.Context) error {
	err := a.stop()
	if a.mutated && !a.Config.Autosave.Enabled {
		if serr := a.autosaver.Autosave(ctx); serr != nil {
			a.Logger.Warn("save failed", "error", serr)
		}
	}
	return err
}

// withApp opens the app, optionally resumes the saved session, runs fn and
// closes the app.
func withApp(cmd *cobra.Command, opts *RootOptions, resume bool, fn func(ctx context.Context, app *App, out *OutputFormatter) error) (err error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	app, err := openApp(ctx, opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := app.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if resume {
		app.Resume(ctx)
	}
	return fn(ctx, app, newFormatter(cmd, opts))
}

// mutate runs one action and prints its result.
func mutate(cmd *cobra.Command, opts *RootOptions, build func(app *App) (action.Payload, error)) error {
	return withApp(cmd, opts, true, func(ctx context.Context, app *App, out *OutputFormatter) error {
		p, err := build(app)
		if err != nil {
			return err
		}
		return out.Result(app.Execute(ctx, action.New(p, "")))
	})
}

func newFormatter(cmd *cobra.Command, opts *RootOptions) *OutputFormatter {
	return &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
}

// errNotFound reports an id that does not exist in the restored session.
func errNotFound(kind, id string) error {
	return NewExitError(ExitCommandError, fmt.Sprintf("%s %q not found", kind, id))
}

func isUnavailable(err error) bool {
	return errors.Is(err, persist.ErrUnavailable)
}

func sessionLabel(id string) string {
	if id == model.DefaultSessionID {
		return "current session"
	}
	return "session " + id
}
