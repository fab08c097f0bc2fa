package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/timeline/internal/model"
	"github.com/roach88/timeline/internal/persist"
)

// PolicySettingKey is the settings key the restore policy is stored under.
const PolicySettingKey = "restore_policy"

// Persistence is the storage surface the coordinator needs.
// *persist.Service satisfies it.
type Persistence interface {
	GetMetadata(ctx context.Context, id string) (model.SessionMetadata, error)
	Load(ctx context.Context, id string) (model.Session, error)
	Save(ctx context.Context, s model.Session) error
	Delete(ctx context.Context, id string) error
	SaveSetting(ctx context.Context, key, value string) error
	LoadSetting(ctx context.Context, key string) (string, bool, error)
}

// Rehydrator replaces the editing state without recording history.
// *engine.Executor satisfies it.
type Rehydrator interface {
	Rehydrate(ctx context.Context, snap model.Snapshot, undoStack, redoStack []model.SerializedAction) error
	ClearHistory(ctx context.Context) error
}

// Extras holds the session state that lives outside undo history.
// *entity.Store satisfies it.
type Extras interface {
	SetStickyNotes(notes []model.StickyNote)
	SetAnalysis(a *model.SavedAnalysis)
}

// Coordinator decides whether to restore a saved session at startup and
// carries out the decision.
type Coordinator struct {
	persist   Persistence
	exec      Rehydrator
	extras    Extras
	sessionID string
	policy    Policy
	now       func() time.Time
	logger    *slog.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithSessionID sets the record id (default model.DefaultSessionID).
func WithSessionID(id string) Option {
	return func(c *Coordinator) {
		c.sessionID = id
	}
}

// WithPolicy sets the restore policy (default DefaultPolicy()).
func WithPolicy(p Policy) Option {
	return func(c *Coordinator) {
		c.policy = p
	}
}

// WithClock sets the clock used to age sessions.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		c.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = l
	}
}

// NewCoordinator creates a coordinator.
func NewCoordinator(p Persistence, exec Rehydrator, extras Extras, opts ...Option) *Coordinator {
	c := &Coordinator{
		persist:   p,
		exec:      exec,
		extras:    extras,
		sessionID: model.DefaultSessionID,
		policy:    DefaultPolicy(),
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SessionID returns the record id this coordinator manages.
func (c *Coordinator) SessionID() string {
	return c.sessionID
}

// Policy returns the active restore policy.
func (c *Coordinator) Policy() Policy {
	return c.policy
}

// CheckForSavedSession reads only the session metadata. Any failure,
// including unavailable storage, reads as "no session".
func (c *Coordinator) CheckForSavedSession(ctx context.Context) Info {
	meta, err := c.persist.GetMetadata(ctx, c.sessionID)
	if err != nil {
		if !errors.Is(err, persist.ErrNotFound) {
			c.logger.Warn("session check failed", "id", c.sessionID, "error", err)
		}
		return Info{}
	}
	return Info{Exists: true, Metadata: meta}
}

// Decide checks for a saved session and applies the policy to it.
func (c *Coordinator) Decide(ctx context.Context) (Info, Strategy) {
	info := c.CheckForSavedSession(ctx)
	strategy := ShouldAutoRestore(info, c.policy, c.now())
	c.logger.Debug("restore decision", "id", c.sessionID, "exists", info.Exists, "strategy", strategy)
	return info, strategy
}

// Restore loads the full record and rehydrates the editor from it: entities
// and notes, both history stacks, sticky notes and the saved analysis.
// Rehydration is not itself recorded in history.
//
// If the record is absent, corrupt or unreadable the error is returned and
// the editor is left untouched.
func (c *Coordinator) Restore(ctx context.Context) (model.SessionMetadata, error) {
	sess, err := c.persist.Load(ctx, c.sessionID)
	if err != nil {
		return model.SessionMetadata{}, fmt.Errorf("restore session: %w", err)
	}

	snap := model.Snapshot{
		Properties: sess.Properties,
		Events:     sess.Events,
		Notes:      sess.Notes,
		Timestamp:  sess.UpdatedAt,
	}
	if err := c.exec.Rehydrate(ctx, snap, sess.UndoStack, sess.RedoStack); err != nil {
		return model.SessionMetadata{}, fmt.Errorf("restore session: %w", err)
	}
	c.extras.SetStickyNotes(sess.StickyNotes)
	c.extras.SetAnalysis(sess.SavedAnalysis)

	meta := sess.Metadata()
	c.logger.Info("session restored",
		"id", c.sessionID,
		"properties", meta.PropertyCount,
		"events", meta.EventCount,
		"undo", len(sess.UndoStack),
		"redo", len(sess.RedoStack),
	)
	return meta, nil
}

// Discard clears in-memory history and deletes the saved record.
// History is cleared even when storage is unavailable; the storage error is
// still returned so callers can report it.
func (c *Coordinator) Discard(ctx context.Context) error {
	if err := c.exec.ClearHistory(ctx); err != nil {
		return fmt.Errorf("discard session: %w", err)
	}
	if err := c.persist.Delete(ctx, c.sessionID); err != nil {
		c.logger.Warn("saved session not deleted", "id", c.sessionID, "error", err)
		return fmt.Errorf("discard session: %w", err)
	}
	c.logger.Info("session discarded", "id", c.sessionID)
	return nil
}

// LoadPolicy replaces the active policy with the stored one, if any.
// A missing or malformed setting keeps the current policy.
func (c *Coordinator) LoadPolicy(ctx context.Context) Policy {
	raw, ok, err := c.persist.LoadSetting(ctx, PolicySettingKey)
	if err != nil || !ok {
		return c.policy
	}
	p := c.policy
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		c.logger.Warn("ignoring malformed restore policy", "error", err)
		return c.policy
	}
	c.policy = p
	return p
}

// SavePolicy stores p and makes it the active policy.
func (c *Coordinator) SavePolicy(ctx context.Context, p Policy) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode restore policy: %w", err)
	}
	if err := c.persist.SaveSetting(ctx, PolicySettingKey, string(data)); err != nil {
		return fmt.Errorf("save restore policy: %w", err)
	}
	c.policy = p
	return nil
}
