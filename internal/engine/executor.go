package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/roach88/timeline/internal/action"
	"github.com/roach88/timeline/internal/model"
	"github.com/roach88/timeline/internal/snapshot"
	"github.com/roach88/timeline/internal/undo"
)

// Store is the entity store surface the executor needs: the primitive
// mutators plus the reads used for snapshot capture.
type Store interface {
	action.Mutator
	snapshot.Source
}

// Autosaver persists the current editing state. It is called from the Run
// loop, so it observes a consistent store and history.
type Autosaver interface {
	Autosave(ctx context.Context) error
}

// DefaultAutosaveDelay is the debounce window between the last edit and a save.
const DefaultAutosaveDelay = time.Second

// Result is the outcome of Execute, Undo or Redo.
type Result struct {
	Success  bool      `json:"success"`
	EntityID string    `json:"entity_id,omitempty"`
	Message  string    `json:"message,omitempty"`
	Error    string    `json:"error,omitempty"`
	Code     ErrorCode `json:"code,omitempty"`
	// Seq is the job number the result was produced under. Results from
	// concurrent callers order by Seq. Zero if the job never ran.
	Seq int64 `json:"seq,omitempty"`

	err error
}

// Err returns the structured failure, or nil on success.
func (r Result) Err() error {
	if r.Success {
		return nil
	}
	if r.err != nil {
		return r.err
	}
	return &ActionError{Code: r.Code, Message: r.Error}
}

// Executor is the single-writer command layer over the entity store.
//
// Every mutation (execute, undo, redo, rehydrate, autosave) runs as a job on
// one Run goroutine, so the capture-mutate-record sequence of one action can
// never interleave with another. Callers on any goroutine submit jobs and
// block until their job completes.
//
// Thread-safety model:
//   - Execute/Undo/Redo/BeginGroup/EndGroup/Rehydrate/ClearHistory/Flush:
//     safe from any goroutine
//   - CanUndo/CanRedo/UndoDescription/RedoDescription: safe, read-only
//   - Run: must be called from exactly one goroutine
type Executor struct {
	store   Store
	snaps   *snapshot.Service
	history *undo.Manager
	queue   *jobQueue
	clock   *Clock

	// Loop-owned autosave state.
	autosaver Autosaver
	delay     time.Duration
	timer     *time.Timer
	dirty     bool
}

// Option configures an Executor.
type Option func(*Executor)

// WithHistory sets the undo manager (default: undo.NewManager(undo.DefaultMaxSize)).
func WithHistory(m *undo.Manager) Option {
	return func(e *Executor) {
		e.history = m
	}
}

// WithSnapshots sets the snapshot service (default: snapshot.New()).
func WithSnapshots(s *snapshot.Service) Option {
	return func(e *Executor) {
		e.snaps = s
	}
}

// WithAutosave enables debounced autosave. A non-positive delay uses
// DefaultAutosaveDelay.
func WithAutosave(a Autosaver, delay time.Duration) Option {
	return func(e *Executor) {
		e.autosaver = a
		if delay <= 0 {
			delay = DefaultAutosaveDelay
		}
		e.delay = delay
	}
}

// New creates an executor over store. Call Run (or Start) before submitting work.
func New(store Store, opts ...Option) *Executor {
	e := &Executor{
		store: store,
		queue: newJobQueue(),
		clock: NewClock(),
		delay: DefaultAutosaveDelay,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.history == nil {
		e.history = undo.NewManager(undo.DefaultMaxSize)
	}
	if e.snaps == nil {
		e.snaps = snapshot.New()
	}
	return e
}

// History exposes the undo manager for read-only queries and export.
func (e *Executor) History() *undo.Manager {
	return e.history
}

// Run processes jobs until ctx is cancelled or Stop is called.
// A pending autosave is flushed before Run returns.
func (e *Executor) Run(ctx context.Context) error {
	slog.Debug("executor starting")

	for {
		if j, ok := e.queue.TryDequeue(); ok {
			e.runJob(ctx, j)
			continue
		}

		select {
		case <-ctx.Done():
			slog.Debug("executor stopping: context cancelled")
			e.queue.Close()
			bg := context.WithoutCancel(ctx)
			for j, ok := e.queue.TryDequeue(); ok; j, ok = e.queue.TryDequeue() {
				e.runJob(bg, j)
			}
			_ = e.save(bg)
			return ctx.Err()

		case <-e.timerC():
			e.timer = nil
			_ = e.save(ctx)

		case <-e.queue.Wait():
			if e.queue.Drained() {
				slog.Debug("executor stopping: queue closed")
				_ = e.save(ctx)
				return nil
			}
		}
	}
}

// Start runs the loop on a new goroutine. The returned function stops the
// executor and waits for Run to return.
func (e *Executor) Start(ctx context.Context) (stop func() error) {
	errc := make(chan error, 1)
	go func() {
		errc <- e.Run(ctx)
	}()
	return func() error {
		e.Stop()
		err := <-errc
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
}

// Stop closes the job queue. Jobs already queued still run.
func (e *Executor) Stop() {
	e.queue.Close()
}

// Execute validates and applies a, recording it for undo on success.
//
// A failed action is not recorded. The store is left as the failing mutator
// left it; Undo of the previous entry restores a consistent state.
func (e *Executor) Execute(ctx context.Context, a action.Action) Result {
	var res Result
	if err := e.submit(ctx, "execute", func(context.Context) {
		res = e.execute(a)
		res.Seq = e.clock.Current()
	}); err != nil {
		return failure(err)
	}
	return res
}

// Undo restores the store to the state before the most recent action.
func (e *Executor) Undo(ctx context.Context) Result {
	var res Result
	if err := e.submit(ctx, "undo", func(context.Context) {
		res = e.undo()
		res.Seq = e.clock.Current()
	}); err != nil {
		return failure(err)
	}
	return res
}

// Redo re-executes the most recently undone action.
func (e *Executor) Redo(ctx context.Context) Result {
	var res Result
	if err := e.submit(ctx, "redo", func(context.Context) {
		res = e.redo()
		res.Seq = e.clock.Current()
	}); err != nil {
		return failure(err)
	}
	return res
}

// Rehydrate replaces the store contents and history without recording
// anything. Used when restoring a saved session.
func (e *Executor) Rehydrate(ctx context.Context, snap model.Snapshot, undoStack, redoStack []model.SerializedAction) error {
	var err error
	if serr := e.submit(ctx, "rehydrate", func(context.Context) {
		if err = e.snaps.Restore(e.store, snap); err != nil {
			return
		}
		if skipped := e.history.Load(undoStack, redoStack); skipped > 0 {
			slog.Warn("history entries dropped during rehydrate", "skipped", skipped)
		}
	}); serr != nil {
		return serr
	}
	return err
}

// BeginGroup folds the actions executed until EndGroup into one undo entry
// described by description. Undo or redo closes an open group.
func (e *Executor) BeginGroup(ctx context.Context, description string) error {
	return e.submit(ctx, "begin-group", func(context.Context) {
		e.history.BeginGroup(description)
	})
}

// EndGroup closes the open group.
func (e *Executor) EndGroup(ctx context.Context) error {
	return e.submit(ctx, "end-group", func(context.Context) {
		if e.history.EndGroup() {
			slog.Debug("action group recorded", "description", e.history.UndoDescription())
		}
	})
}

// ClearHistory drops both undo stacks.
func (e *Executor) ClearHistory(ctx context.Context) error {
	return e.submit(ctx, "clear-history", func(context.Context) {
		e.history.Clear()
	})
}

// Flush runs a pending autosave now.
func (e *Executor) Flush(ctx context.Context) error {
	var err error
	if serr := e.submit(ctx, "flush", func(ctx context.Context) {
		err = e.save(ctx)
	}); serr != nil {
		return serr
	}
	return err
}

// CanUndo reports whether Undo has anything to do.
func (e *Executor) CanUndo() bool { return e.history.CanUndo() }

// CanRedo reports whether Redo has anything to do.
func (e *Executor) CanRedo() bool { return e.history.CanRedo() }

// UndoDescription describes what Undo would revert.
func (e *Executor) UndoDescription() string { return e.history.UndoDescription() }

// RedoDescription describes what Redo would re-apply.
func (e *Executor) RedoDescription() string { return e.history.RedoDescription() }

// submit enqueues fn and waits for it.
//
// If ctx ends while the job is still queued, the job is abandoned and never
// runs. Once it has started, submit waits for it to finish so the caller
// sees its real outcome.
func (e *Executor) submit(ctx context.Context, name string, fn func(ctx context.Context)) error {
	j := job{name: name, run: fn, done: make(chan struct{}), state: new(atomic.Int32)}
	if err := ctx.Err(); err != nil {
		return err
	}
	if !e.queue.Enqueue(j) {
		return errStopped
	}
	select {
	case <-j.done:
	case <-ctx.Done():
		if j.abandon() {
			return ctx.Err()
		}
		<-j.done
	}
	return nil
}

// runJob is only called from the Run goroutine.
func (e *Executor) runJob(ctx context.Context, j job) {
	defer close(j.done)
	if !j.claim() {
		slog.Debug("skipping abandoned job", "job", j.name)
		return
	}
	slog.Debug("running job", "job", j.name, "seq", e.clock.Next())
	j.run(ctx)
}

func (e *Executor) execute(a action.Action) Result {
	prev := e.snaps.Capture(e.store)

	out, err := action.Apply(e.store, a, "")
	if err != nil {
		return e.fail(a, err)
	}

	e.history.Record(a, &prev, out.EntityID)
	e.markDirty()

	slog.Info("action executed",
		"id", a.ID,
		"type", a.Type,
		"entity_id", out.EntityID,
		"seq", e.clock.Current(),
	)
	return Result{Success: true, EntityID: out.EntityID, Message: out.Message}
}

func (e *Executor) undo() Result {
	entry, ok := e.history.PeekUndo()
	if !ok {
		return failure(&ActionError{Code: ErrCodeNothingToUndo, Message: "Nothing to undo"})
	}
	if entry.PreviousState == nil {
		e.history.DropUndo()
		return failure(&ActionError{
			Code:       ErrCodeNotUndoable,
			Message:    "Cannot undo this action",
			ActionID:   entry.Action.ID,
			ActionType: entry.Action.Type,
		})
	}
	if err := e.snaps.Restore(e.store, *entry.PreviousState); err != nil {
		slog.Error("undo restore failed", "id", entry.Action.ID, "error", err)
		return failure(&ActionError{
			Code:       ErrCodeRestoreFailed,
			Message:    err.Error(),
			ActionID:   entry.Action.ID,
			ActionType: entry.Action.Type,
			Err:        err,
		})
	}
	e.history.PopUndo()
	e.markDirty()

	slog.Info("action undone", "id", entry.Action.ID, "type", entry.Action.Type, "steps", len(entry.Steps))
	return Result{Success: true, EntityID: entry.EntityID, Message: "Undid: " + entry.Description()}
}

// redo re-executes the action rather than replaying a forward snapshot.
// Ids the original run created are pinned, so entries further up the redo
// stack that reference them still resolve. A grouped entry replays every
// step; if any fails the store is rolled back to before the redo.
func (e *Executor) redo() Result {
	if !e.history.CanRedo() {
		return failure(&ActionError{Code: ErrCodeNothingToRedo, Message: "Nothing to redo"})
	}
	before := e.snaps.Capture(e.store)
	entry, _ := e.history.PopRedo()

	steps := append([]undo.Step{{Action: entry.Action, EntityID: entry.EntityID}}, entry.Steps...)
	var first action.Outcome
	for i, st := range steps {
		out, err := action.Apply(e.store, st.Action, st.EntityID)
		if err != nil {
			if rerr := e.snaps.Restore(e.store, before); rerr != nil {
				slog.Error("redo rollback failed", "id", entry.Action.ID, "error", rerr)
			}
			e.history.PopUndo()
			return e.fail(st.Action, err)
		}
		if i == 0 {
			first = out
		}
	}
	e.markDirty()

	slog.Info("action redone", "id", entry.Action.ID, "type", entry.Action.Type, "entity_id", first.EntityID, "steps", len(entry.Steps))
	return Result{Success: true, EntityID: first.EntityID, Message: "Redid: " + entry.Description()}
}

func (e *Executor) fail(a action.Action, err error) Result {
	var ae *ActionError
	var ute *action.UnknownTypeError
	if errors.As(err, &ute) {
		ae = newValidationError(a, err)
	} else {
		ae = newMutationError(a, err)
	}
	slog.Warn("action failed",
		"id", a.ID,
		"type", a.Type,
		"code", ae.Code,
		"error", err,
	)
	return failure(ae)
}

func failure(err error) Result {
	r := Result{Error: err.Error(), err: err}
	var ae *ActionError
	if errors.As(err, &ae) {
		r.Code = ae.Code
		r.Error = ae.Message
	}
	return r
}

// markDirty arms the autosave debounce timer.
func (e *Executor) markDirty() {
	if e.autosaver == nil {
		return
	}
	e.dirty = true
	if e.timer == nil {
		e.timer = time.NewTimer(e.delay)
		return
	}
	e.timer.Reset(e.delay)
}

func (e *Executor) timerC() <-chan time.Time {
	if e.timer == nil {
		return nil
	}
	return e.timer.C
}

// save runs the autosaver if there are unsaved edits.
func (e *Executor) save(ctx context.Context) error {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	if e.autosaver == nil || !e.dirty {
		return nil
	}
	e.dirty = false
	if err := e.autosaver.Autosave(ctx); err != nil {
		slog.Warn("autosave failed", "error", err)
		return err
	}
	slog.Debug("autosaved", "seq", e.clock.Current())
	return nil
}
