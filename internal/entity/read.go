package entity

import "github.com/roach88/timeline/internal/model"

// Properties returns a deep copy of all properties in insertion order.
// Returns an empty slice, not nil, when there are none.
func (s *Store) Properties() []model.Property {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.CloneProperties(s.properties)
}

// Events returns a deep copy of all events in insertion order.
func (s *Store) Events() []model.TimelineEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.CloneEvents(s.events)
}

// Property looks up a property by id.
func (s *Store) Property(id string) (model.Property, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.propIndex[id]
	if !ok {
		return model.Property{}, false
	}
	return s.properties[i].Clone(), true
}

// Event looks up an event by id.
func (s *Store) Event(id string) (model.TimelineEvent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.eventIndex[id]
	if !ok {
		return model.TimelineEvent{}, false
	}
	return s.events[i].Clone(), true
}

// EventsForProperty returns the events that reference propertyID.
func (s *Store) EventsForProperty(propertyID string) []model.TimelineEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.TimelineEvent, 0)
	for _, e := range s.events {
		if e.PropertyID == propertyID {
			out = append(out, e.Clone())
		}
	}
	return out
}

// Counts returns the number of properties and events.
func (s *Store) Counts() (properties, events int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.properties), len(s.events)
}

// Notes returns the free-text timeline notes.
func (s *Store) Notes() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.notes
}

// StickyNotes returns a copy of all sticky notes.
func (s *Store) StickyNotes() []model.StickyNote {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.CloneStickyNotes(s.stickyNotes)
}

// Analysis returns the saved analysis, or nil.
func (s *Store) Analysis() *model.SavedAnalysis {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.analysis.Clone()
}
