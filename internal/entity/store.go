package entity

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/timeline/internal/model"
)

var (
	// ErrPropertyNotFound is returned when a property id is unknown.
	ErrPropertyNotFound = errors.New("property not found")

	// ErrEventNotFound is returned when an event id is unknown.
	ErrEventNotFound = errors.New("event not found")

	// ErrDuplicateID is returned when a caller-supplied id is already taken.
	ErrDuplicateID = errors.New("duplicate id")

	// ErrInvalid is returned for entities that fail validation.
	ErrInvalid = errors.New("invalid entity")
)

// Store holds the authoritative property and event collections.
//
// Entities are kept in insertion order in flat slices with an id->index map
// per collection. Every read returns copies and every write clones its input,
// so callers can never alias live state.
//
// Thread-safety: all methods are safe for concurrent use. Writes are expected
// to come from a single writer (the action executor).
type Store struct {
	mu  sync.RWMutex
	ids IDGenerator

	properties []model.Property
	events     []model.TimelineEvent
	propIndex  map[string]int
	eventIndex map[string]int

	notes       string
	stickyNotes []model.StickyNote
	analysis    *model.SavedAnalysis
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator overrides the id generator (default UUIDv7Generator).
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Store) {
		s.ids = g
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		ids:        UUIDv7Generator{},
		propIndex:  make(map[string]int),
		eventIndex: make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddProperty inserts p and returns the id it was stored under.
//
// An empty p.ID gets a fresh id from the store's generator. A non-empty
// p.ID is kept as given; if a property already uses it, AddProperty returns
// ErrDuplicateID and the store is unchanged.
func (s *Store) AddProperty(p model.Property) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p = normalizeProperty(p.Clone())
	if p.Address == "" {
		return "", fmt.Errorf("add property: %w: address is required", ErrInvalid)
	}
	if p.CurrentStatus != "" && !p.CurrentStatus.Valid() {
		return "", fmt.Errorf("add property: %w: unknown status %q", ErrInvalid, p.CurrentStatus)
	}
	if p.ID == "" {
		p.ID = s.ids.Generate()
	} else if _, taken := s.propIndex[p.ID]; taken {
		return "", fmt.Errorf("add property %s: %w", p.ID, ErrDuplicateID)
	}
	if p.Name == "" {
		p.Name = p.Address
	}
	if p.Color == "" {
		p.Color = propertyColor(len(s.properties))
	}
	if p.Branch == 0 {
		p.Branch = len(s.properties)
	}

	s.propIndex[p.ID] = len(s.properties)
	s.properties = append(s.properties, p)
	return p.ID, nil
}

// UpdateProperty applies a partial update to the property with the given id.
func (s *Store) UpdateProperty(id string, u model.PropertyUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.propIndex[id]
	if !ok {
		return fmt.Errorf("update property %s: %w", id, ErrPropertyNotFound)
	}
	p := s.properties[i].Clone()
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Address != nil {
		p.Address = *u.Address
	}
	if u.Color != nil {
		p.Color = *u.Color
	}
	if u.PurchaseDate != nil {
		v := *u.PurchaseDate
		p.PurchaseDate = &v
	}
	if u.PurchasePrice != nil {
		v := *u.PurchasePrice
		p.PurchasePrice = &v
	}
	if u.SaleDate != nil {
		v := *u.SaleDate
		p.SaleDate = &v
	}
	if u.SalePrice != nil {
		v := *u.SalePrice
		p.SalePrice = &v
	}
	if u.CurrentValue != nil {
		v := *u.CurrentValue
		p.CurrentValue = &v
	}
	if u.CurrentStatus != nil {
		if !u.CurrentStatus.Valid() {
			return fmt.Errorf("update property %s: %w: unknown status %q", id, ErrInvalid, *u.CurrentStatus)
		}
		p.CurrentStatus = *u.CurrentStatus
	}
	if u.IsRental != nil {
		p.IsRental = *u.IsRental
	}

	p = normalizeProperty(p)
	if p.Address == "" {
		return fmt.Errorf("update property %s: %w: address is required", id, ErrInvalid)
	}
	s.properties[i] = p
	return nil
}

// DeleteProperty removes the property and every event that references it.
func (s *Store) DeleteProperty(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.propIndex[id]
	if !ok {
		return fmt.Errorf("delete property %s: %w", id, ErrPropertyNotFound)
	}

	kept := s.events[:0]
	for _, e := range s.events {
		if e.PropertyID != id {
			kept = append(kept, e)
		}
	}
	clearTail(s.events, len(kept))
	s.events = kept

	s.properties = append(s.properties[:i], s.properties[i+1:]...)
	s.reindex()
	return nil
}

// AddEvent inserts e and returns the id it was stored under.
// The referenced property must exist.
func (s *Store) AddEvent(e model.TimelineEvent) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e = normalizeEvent(e.Clone())
	if err := s.validateEvent(e); err != nil {
		return "", fmt.Errorf("add event: %w", err)
	}
	if e.ID == "" {
		e.ID = s.ids.Generate()
	} else if _, taken := s.eventIndex[e.ID]; taken {
		return "", fmt.Errorf("add event %s: %w", e.ID, ErrDuplicateID)
	}
	if e.Color == "" {
		e.Color = eventColor(e.Type)
	}
	if e.Title == "" {
		e.Title = defaultTitle(e.Type)
	}

	s.eventIndex[e.ID] = len(s.events)
	s.events = append(s.events, e)
	return e.ID, nil
}

// UpdateEvent applies a partial update to the event with the given id.
func (s *Store) UpdateEvent(id string, u model.EventUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.eventIndex[id]
	if !ok {
		return fmt.Errorf("update event %s: %w", id, ErrEventNotFound)
	}
	e := s.events[i].Clone()
	if u.PropertyID != nil {
		e.PropertyID = *u.PropertyID
	}
	if u.Type != nil {
		e.Type = *u.Type
	}
	if u.Date != nil {
		e.Date = *u.Date
	}
	if u.Title != nil {
		e.Title = *u.Title
	}
	if u.Amount != nil {
		v := *u.Amount
		e.Amount = &v
	}
	if u.Description != nil {
		e.Description = *u.Description
	}
	if u.Color != nil {
		e.Color = *u.Color
	}
	if u.ContractDate != nil {
		v := *u.ContractDate
		e.ContractDate = &v
	}
	if u.SettlementDate != nil {
		v := *u.SettlementDate
		e.SettlementDate = &v
	}
	if u.NewStatus != nil {
		v := *u.NewStatus
		e.NewStatus = &v
	}
	if u.IsPPR != nil {
		v := *u.IsPPR
		e.IsPPR = &v
	}
	if u.CostBases != nil {
		e.CostBases = append([]model.CostBaseItem(nil), (*u.CostBases)...)
	}

	e = normalizeEvent(e)
	if err := s.validateEvent(e); err != nil {
		return fmt.Errorf("update event %s: %w", id, err)
	}
	s.events[i] = e
	return nil
}

// DeleteEvent removes the event with the given id.
func (s *Store) DeleteEvent(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.eventIndex[id]
	if !ok {
		return fmt.Errorf("delete event %s: %w", id, ErrEventNotFound)
	}
	s.events = append(s.events[:i], s.events[i+1:]...)
	s.reindex()
	return nil
}

// ImportTimelineData replaces both collections wholesale.
//
// The import is all-or-nothing: ids must be unique, every event must
// reference an imported property, and on any violation the store is left
// untouched. Entities without an id get a fresh one.
func (s *Store) ImportTimelineData(props []model.Property, events []model.TimelineEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	newProps := make([]model.Property, 0, len(props))
	propIndex := make(map[string]int, len(props))
	for _, p := range props {
		p = normalizeProperty(p.Clone())
		if p.ID == "" {
			p.ID = s.ids.Generate()
		}
		if _, dup := propIndex[p.ID]; dup {
			return fmt.Errorf("import: property %s: %w", p.ID, ErrDuplicateID)
		}
		if p.Address == "" {
			return fmt.Errorf("import: property %s: %w: address is required", p.ID, ErrInvalid)
		}
		if p.Name == "" {
			p.Name = p.Address
		}
		if p.Color == "" {
			p.Color = propertyColor(len(newProps))
		}
		propIndex[p.ID] = len(newProps)
		newProps = append(newProps, p)
	}

	newEvents := make([]model.TimelineEvent, 0, len(events))
	eventIndex := make(map[string]int, len(events))
	for _, e := range events {
		e = normalizeEvent(e.Clone())
		if e.ID == "" {
			e.ID = s.ids.Generate()
		}
		if _, dup := eventIndex[e.ID]; dup {
			return fmt.Errorf("import: event %s: %w", e.ID, ErrDuplicateID)
		}
		if _, ok := propIndex[e.PropertyID]; !ok {
			return fmt.Errorf("import: event %s references %s: %w", e.ID, e.PropertyID, ErrPropertyNotFound)
		}
		if !e.Type.Valid() {
			return fmt.Errorf("import: event %s: %w: unknown type %q", e.ID, ErrInvalid, e.Type)
		}
		if e.Title == "" {
			e.Title = defaultTitle(e.Type)
		}
		if e.Color == "" {
			e.Color = eventColor(e.Type)
		}
		eventIndex[e.ID] = len(newEvents)
		newEvents = append(newEvents, e)
	}

	s.properties = newProps
	s.events = newEvents
	s.propIndex = propIndex
	s.eventIndex = eventIndex
	return nil
}

// ClearAllData removes every property and event. Notes are kept.
func (s *Store) ClearAllData() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.properties = nil
	s.events = nil
	s.propIndex = make(map[string]int)
	s.eventIndex = make(map[string]int)
}

// SetNotes replaces the free-text timeline notes.
func (s *Store) SetNotes(notes string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes = norm.NFC.String(notes)
}

// SetStickyNotes replaces all sticky notes.
func (s *Store) SetStickyNotes(notes []model.StickyNote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stickyNotes = model.CloneStickyNotes(notes)
}

// SetAnalysis replaces the saved analysis. Nil clears it.
func (s *Store) SetAnalysis(a *model.SavedAnalysis) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analysis = a.Clone()
}

// validateEvent must be called with s.mu held.
func (s *Store) validateEvent(e model.TimelineEvent) error {
	if !e.Type.Valid() {
		return fmt.Errorf("%w: unknown event type %q", ErrInvalid, e.Type)
	}
	if e.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalid)
	}
	if e.NewStatus != nil && !e.NewStatus.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalid, *e.NewStatus)
	}
	if _, ok := s.propIndex[e.PropertyID]; !ok {
		return fmt.Errorf("property %q: %w", e.PropertyID, ErrPropertyNotFound)
	}
	return nil
}

// reindex rebuilds both index maps. Must be called with s.mu held.
func (s *Store) reindex() {
	s.propIndex = make(map[string]int, len(s.properties))
	for i, p := range s.properties {
		s.propIndex[p.ID] = i
	}
	s.eventIndex = make(map[string]int, len(s.events))
	for i, e := range s.events {
		s.eventIndex[e.ID] = i
	}
}

// clearTail zeroes the slots past n so dropped events can be collected.
func clearTail(events []model.TimelineEvent, n int) {
	for i := n; i < len(events); i++ {
		events[i] = model.TimelineEvent{}
	}
}

func normalizeProperty(p model.Property) model.Property {
	p.Name = norm.NFC.String(strings.TrimSpace(p.Name))
	p.Address = norm.NFC.String(strings.TrimSpace(p.Address))
	return p
}

func normalizeEvent(e model.TimelineEvent) model.TimelineEvent {
	e.Title = norm.NFC.String(strings.TrimSpace(e.Title))
	e.Description = norm.NFC.String(e.Description)
	return e
}

func defaultTitle(t model.EventType) string {
	words := strings.Split(string(t), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		if w == "ppr" {
			words[i] = "PPR"
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
