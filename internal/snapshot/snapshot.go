// Package snapshot captures and restores whole-store copies of the timeline.
//
// Restore is a wholesale replace, never a merge. Cascading deletes and bulk
// imports touch many entities at once and are hard to invert piecewise, but
// replacing everything with a captured copy is correct no matter which
// action produced the state being undone.
package snapshot

import (
	"fmt"
	"time"

	"github.com/roach88/timeline/internal/model"
)

// Source is the read side of the entity store.
type Source interface {
	Properties() []model.Property
	Events() []model.TimelineEvent
	Notes() string
}

// Target is the write side used by Restore.
type Target interface {
	ImportTimelineData(props []model.Property, events []model.TimelineEvent) error
	SetNotes(notes string)
}

// Service captures and restores snapshots.
type Service struct {
	now func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the function used to stamp captures.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New creates a snapshot service.
func New(opts ...Option) *Service {
	s := &Service{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Capture deep-copies the current store contents.
// Later mutations of the store never reach the returned snapshot.
func (s *Service) Capture(src Source) model.Snapshot {
	return model.Snapshot{
		Properties: model.CloneProperties(src.Properties()),
		Events:     model.CloneEvents(src.Events()),
		Notes:      src.Notes(),
		Timestamp:  s.now(),
	}
}

// Restore replaces the store contents with snap in one step.
// The snapshot itself is copied first, so it stays usable afterwards.
func (s *Service) Restore(dst Target, snap model.Snapshot) error {
	c := snap.Clone()
	if err := dst.ImportTimelineData(c.Properties, c.Events); err != nil {
		return fmt.Errorf("restore snapshot from %s: %w", snap.Timestamp.Format(time.RFC3339), err)
	}
	dst.SetNotes(c.Notes)
	return nil
}
