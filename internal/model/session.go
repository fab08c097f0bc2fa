package model

import (
	"encoding/json"
	"time"
)

// Snapshot is a deep copy of the editable entities at a point in time.
// A Snapshot never shares slices or pointers with the live store.
type Snapshot struct {
	Properties []Property      `json:"properties"`
	Events     []TimelineEvent `json:"events"`
	Notes      string          `json:"notes,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
}

// Clone returns a non-aliased copy of s.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{
		Properties: CloneProperties(s.Properties),
		Events:     CloneEvents(s.Events),
		Notes:      s.Notes,
		Timestamp:  s.Timestamp,
	}
}

// SerializedAction is the durable form of one undo/redo history entry.
type SerializedAction struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Timestamp     time.Time       `json:"timestamp"`
	Payload       json.RawMessage `json:"payload"`
	Description   string          `json:"description"`
	Reversible    bool            `json:"reversible"`
	EntityID      string          `json:"entity_id,omitempty"`
	PreviousState *Snapshot       `json:"previous_state,omitempty"`

	// Group is the description of a grouped entry. Steps are the actions
	// executed after this one inside the same group, oldest first.
	Group string             `json:"group,omitempty"`
	Steps []SerializedAction `json:"steps,omitempty"`
}

// Session is the durable record of one user's editing state.
type Session struct {
	ID            string             `json:"id"`
	Version       string             `json:"version"`
	Properties    []Property         `json:"properties"`
	Events        []TimelineEvent    `json:"events"`
	Notes         string             `json:"notes"`
	StickyNotes   []StickyNote       `json:"sticky_notes"`
	SavedAnalysis *SavedAnalysis     `json:"saved_analysis,omitempty"`
	UndoStack     []SerializedAction `json:"undo_stack"`
	RedoStack     []SerializedAction `json:"redo_stack"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// Metadata projects the cheap summary fields of s.
func (s Session) Metadata() SessionMetadata {
	return SessionMetadata{
		PropertyCount: len(s.Properties),
		EventCount:    len(s.Events),
		LastModified:  s.UpdatedAt,
		HasAnalysis:   s.SavedAnalysis != nil,
		HasNotes:      s.Notes != "" || len(s.StickyNotes) > 0,
	}
}

// SessionMetadata is a lightweight projection of Session.
type SessionMetadata struct {
	PropertyCount int       `json:"property_count"`
	EventCount    int       `json:"event_count"`
	LastModified  time.Time `json:"last_modified"`
	HasAnalysis   bool      `json:"has_analysis"`
	HasNotes      bool      `json:"has_notes"`
}

// IsEmpty reports whether the session holds no entities.
func (m SessionMetadata) IsEmpty() bool {
	return m.PropertyCount == 0 && m.EventCount == 0
}
