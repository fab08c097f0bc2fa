package persist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/timeline/internal/model"
)

var (
	// ErrNotFound means no usable record exists. Corrupt records and records
	// with an unsupported version are reported the same way.
	ErrNotFound = errors.New("session not found")

	// ErrUnavailable means durable storage could not be reached.
	ErrUnavailable = errors.New("storage unavailable")
)

// Summary is one row of List.
type Summary struct {
	ID       string                `json:"id"`
	Version  string                `json:"version"`
	Metadata model.SessionMetadata `json:"metadata"`
}

// Save writes the full record, replacing any previous record with the same
// id (last write wins). CreatedAt of an existing record is preserved. Zero
// timestamps are filled from the clock; an empty version is set to
// model.SessionVersion.
func (d *DB) Save(ctx context.Context, s model.Session) error {
	if s.ID == "" {
		return fmt.Errorf("save session: empty id")
	}
	now := d.now()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = now
	}
	if s.Version == "" {
		s.Version = model.SessionVersion
	}

	props, err := marshalList(s.Properties)
	if err != nil {
		return fmt.Errorf("save session %s: %w", s.ID, err)
	}
	events, err := marshalList(s.Events)
	if err != nil {
		return fmt.Errorf("save session %s: %w", s.ID, err)
	}
	sticky, err := marshalList(s.StickyNotes)
	if err != nil {
		return fmt.Errorf("save session %s: %w", s.ID, err)
	}
	undoStack, err := marshalList(s.UndoStack)
	if err != nil {
		return fmt.Errorf("save session %s: %w", s.ID, err)
	}
	redoStack, err := marshalList(s.RedoStack)
	if err != nil {
		return fmt.Errorf("save session %s: %w", s.ID, err)
	}
	analysis, err := marshalAnalysis(s.SavedAnalysis)
	if err != nil {
		return fmt.Errorf("save session %s: %w", s.ID, err)
	}
	meta := s.Metadata()

	_, err = d.db.ExecContext(ctx, `
		INSERT INTO sessions (
			id, version, properties, events, notes, sticky_notes, saved_analysis,
			undo_stack, redo_stack, property_count, event_count, has_analysis,
			has_notes, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			version = excluded.version,
			properties = excluded.properties,
			events = excluded.events,
			notes = excluded.notes,
			sticky_notes = excluded.sticky_notes,
			saved_analysis = excluded.saved_analysis,
			undo_stack = excluded.undo_stack,
			redo_stack = excluded.redo_stack,
			property_count = excluded.property_count,
			event_count = excluded.event_count,
			has_analysis = excluded.has_analysis,
			has_notes = excluded.has_notes,
			updated_at = excluded.updated_at
	`,
		s.ID, s.Version, props, events, s.Notes, sticky, analysis,
		undoStack, redoStack, meta.PropertyCount, meta.EventCount,
		boolToInt(meta.HasAnalysis), boolToInt(meta.HasNotes),
		formatTime(s.CreatedAt), formatTime(s.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("save session %s: %w", s.ID, err)
	}
	return nil
}

// Load reads the full record for id.
//
// Returns ErrNotFound when there is no record, when the record's version is
// not supported, or when any column fails to decode. A record is never
// partially returned.
func (d *DB) Load(ctx context.Context, id string) (model.Session, error) {
	var (
		s                     model.Session
		props, events, sticky string
		undoStack, redoStack  string
		analysis              sql.NullString
		createdAt, updatedAt  string
	)
	err := d.db.QueryRowContext(ctx, `
		SELECT version, properties, events, notes, sticky_notes, saved_analysis,
		       undo_stack, redo_stack, created_at, updated_at
		FROM sessions WHERE id = ?
	`, id).Scan(&s.Version, &props, &events, &s.Notes, &sticky, &analysis,
		&undoStack, &redoStack, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Session{}, fmt.Errorf("load session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Session{}, fmt.Errorf("load session %s: %w", id, err)
	}
	if !model.IsSupportedSessionVersion(s.Version) {
		slog.Warn("ignoring session with unsupported version", "id", id, "version", s.Version)
		return model.Session{}, fmt.Errorf("load session %s: version %q: %w", id, s.Version, ErrNotFound)
	}

	s.ID = id
	if err := decodeSession(&s, props, events, sticky, undoStack, redoStack, analysis, createdAt, updatedAt); err != nil {
		slog.Warn("ignoring corrupt session", "id", id, "error", err)
		return model.Session{}, fmt.Errorf("load session %s: %v: %w", id, err, ErrNotFound)
	}
	return s, nil
}

func decodeSession(s *model.Session, props, events, sticky, undoStack, redoStack string, analysis sql.NullString, createdAt, updatedAt string) error {
	var err error
	if s.Properties, err = unmarshalList[model.Property]("properties", props); err != nil {
		return err
	}
	if s.Events, err = unmarshalList[model.TimelineEvent]("events", events); err != nil {
		return err
	}
	if s.StickyNotes, err = unmarshalList[model.StickyNote]("sticky_notes", sticky); err != nil {
		return err
	}
	if s.UndoStack, err = unmarshalList[model.SerializedAction]("undo_stack", undoStack); err != nil {
		return err
	}
	if s.RedoStack, err = unmarshalList[model.SerializedAction]("redo_stack", redoStack); err != nil {
		return err
	}
	if s.SavedAnalysis, err = unmarshalAnalysis(analysis); err != nil {
		return err
	}
	if s.CreatedAt, err = parseTime(createdAt); err != nil {
		return err
	}
	if s.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return err
	}
	return nil
}

// GetMetadata reads only the summary columns for id; the JSON columns are
// never touched. Absence rules match Load.
func (d *DB) GetMetadata(ctx context.Context, id string) (model.SessionMetadata, error) {
	var (
		meta                  model.SessionMetadata
		version, updatedAt    string
		hasAnalysis, hasNotes int
	)
	err := d.db.QueryRowContext(ctx, `
		SELECT version, property_count, event_count, has_analysis, has_notes, updated_at
		FROM sessions WHERE id = ?
	`, id).Scan(&version, &meta.PropertyCount, &meta.EventCount, &hasAnalysis, &hasNotes, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.SessionMetadata{}, fmt.Errorf("session %s metadata: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.SessionMetadata{}, fmt.Errorf("session %s metadata: %w", id, err)
	}
	if !model.IsSupportedSessionVersion(version) {
		return model.SessionMetadata{}, fmt.Errorf("session %s metadata: version %q: %w", id, version, ErrNotFound)
	}
	if meta.LastModified, err = parseTime(updatedAt); err != nil {
		return model.SessionMetadata{}, fmt.Errorf("session %s metadata: %v: %w", id, err, ErrNotFound)
	}
	meta.HasAnalysis = hasAnalysis != 0
	meta.HasNotes = hasNotes != 0
	return meta, nil
}

// Delete removes the record for id. Deleting a missing record is not an error.
func (d *DB) Delete(ctx context.Context, id string) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

// List returns summaries of every readable session, most recent first.
// Returns an empty slice (not nil) if there are none.
func (d *DB) List(ctx context.Context) ([]Summary, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, version, property_count, event_count, has_analysis, has_notes, updated_at
		FROM sessions ORDER BY updated_at DESC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	out := make([]Summary, 0)
	for rows.Next() {
		var (
			s                     Summary
			updatedAt             string
			hasAnalysis, hasNotes int
		)
		if err := rows.Scan(&s.ID, &s.Version, &s.Metadata.PropertyCount, &s.Metadata.EventCount,
			&hasAnalysis, &hasNotes, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		if !model.IsSupportedSessionVersion(s.Version) {
			continue
		}
		t, err := parseTime(updatedAt)
		if err != nil {
			continue
		}
		s.Metadata.LastModified = t
		s.Metadata.HasAnalysis = hasAnalysis != 0
		s.Metadata.HasNotes = hasNotes != 0
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return out, nil
}
