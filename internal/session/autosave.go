package session

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/timeline/internal/model"
)

// Source is the read surface of the entity store needed to build a record.
// *entity.Store satisfies it.
type Source interface {
	Properties() []model.Property
	Events() []model.TimelineEvent
	Notes() string
	StickyNotes() []model.StickyNote
	Analysis() *model.SavedAnalysis
}

// HistoryExporter serializes undo history. *undo.Manager satisfies it.
type HistoryExporter interface {
	Export() (undo, redo []model.SerializedAction, err error)
}

// Saver writes a session record.
type Saver interface {
	Save(ctx context.Context, s model.Session) error
}

// Autosaver writes the current editing state as a session record.
// It implements engine.Autosaver and is invoked from the executor loop.
type Autosaver struct {
	saver     Saver
	source    Source
	history   HistoryExporter
	sessionID string
	now       func() time.Time
}

// NewAutosaver creates an autosaver for sessionID. A nil now uses time.Now.
func NewAutosaver(saver Saver, source Source, history HistoryExporter, sessionID string, now func() time.Time) *Autosaver {
	if now == nil {
		now = time.Now
	}
	if sessionID == "" {
		sessionID = model.DefaultSessionID
	}
	return &Autosaver{saver: saver, source: source, history: history, sessionID: sessionID, now: now}
}

// Record builds the session record for the current state.
func (a *Autosaver) Record() (model.Session, error) {
	undoStack, redoStack, err := a.history.Export()
	if err != nil {
		return model.Session{}, fmt.Errorf("export history: %w", err)
	}
	return model.Session{
		ID:            a.sessionID,
		Version:       model.SessionVersion,
		Properties:    a.source.Properties(),
		Events:        a.source.Events(),
		Notes:         a.source.Notes(),
		StickyNotes:   a.source.StickyNotes(),
		SavedAnalysis: a.source.Analysis(),
		UndoStack:     undoStack,
		RedoStack:     redoStack,
		UpdatedAt:     a.now(),
	}, nil
}

// Autosave saves the current state.
func (a *Autosaver) Autosave(ctx context.Context) error {
	rec, err := a.Record()
	if err != nil {
		return err
	}
	return a.saver.Save(ctx, rec)
}
