package action

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/roach88/timeline/internal/model"
)

// ErrNotFound is returned when a payload references an entity that is gone.
var ErrNotFound = errors.New("not found")

// ErrDuplicateID is returned when a cost base id is already used on the event.
var ErrDuplicateID = errors.New("duplicate id")

// AddPropertyPayload creates a property.
type AddPropertyPayload struct {
	Property model.Property `json:"property"`
}

func (AddPropertyPayload) Type() Type { return TypeAddProperty }

func (p AddPropertyPayload) apply(m Mutator, pinned string) (Outcome, error) {
	prop := p.Property.Clone()
	if prop.ID == "" {
		prop.ID = pinned
	}
	id, err := m.AddProperty(prop)
	if err != nil {
		return Outcome{}, err
	}
	added, _ := m.Property(id)
	return Outcome{EntityID: id, Message: "Added property: " + label(added)}, nil
}

func (p AddPropertyPayload) describe() string {
	return "Add property " + label(p.Property)
}

// UpdatePropertyPayload applies a partial update to a property.
type UpdatePropertyPayload struct {
	PropertyID string               `json:"property_id"`
	Updates    model.PropertyUpdate `json:"updates"`
}

func (UpdatePropertyPayload) Type() Type { return TypeUpdateProperty }

func (p UpdatePropertyPayload) apply(m Mutator, _ string) (Outcome, error) {
	if err := m.UpdateProperty(p.PropertyID, p.Updates); err != nil {
		return Outcome{}, err
	}
	prop, _ := m.Property(p.PropertyID)
	return Outcome{EntityID: p.PropertyID, Message: "Updated property: " + label(prop)}, nil
}

func (p UpdatePropertyPayload) describe() string {
	return "Update property"
}

// DeletePropertyPayload removes a property together with its events.
// Events lists the dependents known when the action was built.
type DeletePropertyPayload struct {
	Property model.Property        `json:"property"`
	Events   []model.TimelineEvent `json:"events"`
}

func (DeletePropertyPayload) Type() Type { return TypeDeleteProperty }

func (p DeletePropertyPayload) apply(m Mutator, _ string) (Outcome, error) {
	for _, e := range p.Events {
		if _, ok := m.Event(e.ID); !ok {
			continue
		}
		if err := m.DeleteEvent(e.ID); err != nil {
			return Outcome{}, err
		}
	}
	// The store cascade also catches dependents added after the payload was built.
	if err := m.DeleteProperty(p.Property.ID); err != nil {
		return Outcome{}, err
	}
	return Outcome{
		EntityID: p.Property.ID,
		Message:  fmt.Sprintf("Deleted property: %s (%d events)", label(p.Property), len(p.Events)),
	}, nil
}

func (p DeletePropertyPayload) describe() string {
	return "Delete property " + label(p.Property)
}

// AddEventPayload creates an event.
type AddEventPayload struct {
	Event model.TimelineEvent `json:"event"`
}

func (AddEventPayload) Type() Type { return TypeAddEvent }

func (p AddEventPayload) apply(m Mutator, pinned string) (Outcome, error) {
	ev := p.Event.Clone()
	if ev.ID == "" {
		ev.ID = pinned
	}
	id, err := m.AddEvent(ev)
	if err != nil {
		return Outcome{}, err
	}
	added, _ := m.Event(id)
	return Outcome{EntityID: id, Message: "Added event: " + added.Title}, nil
}

func (p AddEventPayload) describe() string {
	return "Add " + string(p.Event.Type) + " event"
}

// UpdateEventPayload applies a partial update to an event.
type UpdateEventPayload struct {
	EventID string            `json:"event_id"`
	Updates model.EventUpdate `json:"updates"`
}

func (UpdateEventPayload) Type() Type { return TypeUpdateEvent }

func (p UpdateEventPayload) apply(m Mutator, _ string) (Outcome, error) {
	if err := m.UpdateEvent(p.EventID, p.Updates); err != nil {
		return Outcome{}, err
	}
	ev, _ := m.Event(p.EventID)
	return Outcome{EntityID: p.EventID, Message: "Updated event: " + ev.Title}, nil
}

func (p UpdateEventPayload) describe() string {
	return "Update event"
}

// DeleteEventPayload removes one event.
type DeleteEventPayload struct {
	Event model.TimelineEvent `json:"event"`
}

func (DeleteEventPayload) Type() Type { return TypeDeleteEvent }

func (p DeleteEventPayload) apply(m Mutator, _ string) (Outcome, error) {
	if err := m.DeleteEvent(p.Event.ID); err != nil {
		return Outcome{}, err
	}
	return Outcome{EntityID: p.Event.ID, Message: "Deleted event: " + p.Event.Title}, nil
}

func (p DeleteEventPayload) describe() string {
	if p.Event.Title != "" {
		return "Delete event " + p.Event.Title
	}
	return "Delete event"
}

// MoveEventPayload changes an event's date.
type MoveEventPayload struct {
	EventID string    `json:"event_id"`
	Date    time.Time `json:"date"`
}

func (MoveEventPayload) Type() Type { return TypeMoveEvent }

func (p MoveEventPayload) apply(m Mutator, _ string) (Outcome, error) {
	d := p.Date
	if err := m.UpdateEvent(p.EventID, model.EventUpdate{Date: &d}); err != nil {
		return Outcome{}, err
	}
	return Outcome{EntityID: p.EventID, Message: "Moved event to " + p.Date.Format(time.DateOnly)}, nil
}

func (p MoveEventPayload) describe() string {
	return "Move event to " + p.Date.Format(time.DateOnly)
}

// BulkDeleteEventsPayload removes several events in one undoable step.
type BulkDeleteEventsPayload struct {
	EventIDs []string `json:"event_ids"`
}

func (BulkDeleteEventsPayload) Type() Type { return TypeBulkDeleteEvents }

func (p BulkDeleteEventsPayload) apply(m Mutator, _ string) (Outcome, error) {
	for _, id := range p.EventIDs {
		if err := m.DeleteEvent(id); err != nil {
			return Outcome{}, err
		}
	}
	return Outcome{Message: fmt.Sprintf("Deleted %d events", len(p.EventIDs))}, nil
}

func (p BulkDeleteEventsPayload) describe() string {
	return fmt.Sprintf("Delete %d events", len(p.EventIDs))
}

// AddCostBasePayload appends a cost base line item to an event.
type AddCostBasePayload struct {
	EventID  string             `json:"event_id"`
	CostBase model.CostBaseItem `json:"cost_base"`
}

func (AddCostBasePayload) Type() Type { return TypeAddCostBase }

func (p AddCostBasePayload) apply(m Mutator, pinned string) (Outcome, error) {
	ev, ok := m.Event(p.EventID)
	if !ok {
		return Outcome{}, fmt.Errorf("event %s: %w", p.EventID, ErrNotFound)
	}
	item := p.CostBase
	if item.ID == "" {
		item.ID = pinned
	}
	if item.ID == "" {
		item.ID = nextCostBaseID(p.EventID, ev.CostBases)
	}
	for _, cb := range ev.CostBases {
		if cb.ID == item.ID {
			return Outcome{}, fmt.Errorf("cost base %s: %w", item.ID, ErrDuplicateID)
		}
	}
	items := append(ev.CostBases, item)
	if err := m.UpdateEvent(p.EventID, model.EventUpdate{CostBases: &items}); err != nil {
		return Outcome{}, err
	}
	return Outcome{EntityID: item.ID, Message: "Added cost base: " + item.Name}, nil
}

// nextCostBaseID returns "<eventID>-cb-N" with N one past the largest
// suffix in use on the event.
func nextCostBaseID(eventID string, items []model.CostBaseItem) string {
	prefix := eventID + "-cb-"
	highest := 0
	for _, cb := range items {
		rest, ok := strings.CutPrefix(cb.ID, prefix)
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(rest); err == nil && n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("%s%d", prefix, highest+1)
}

func (p AddCostBasePayload) describe() string {
	return "Add cost base " + p.CostBase.Name
}

// DeleteCostBasePayload removes one cost base line item from an event.
type DeleteCostBasePayload struct {
	EventID    string `json:"event_id"`
	CostBaseID string `json:"cost_base_id"`
}

func (DeleteCostBasePayload) Type() Type { return TypeDeleteCostBase }

func (p DeleteCostBasePayload) apply(m Mutator, _ string) (Outcome, error) {
	ev, ok := m.Event(p.EventID)
	if !ok {
		return Outcome{}, fmt.Errorf("event %s: %w", p.EventID, ErrNotFound)
	}
	items := make([]model.CostBaseItem, 0, len(ev.CostBases))
	for _, cb := range ev.CostBases {
		if cb.ID != p.CostBaseID {
			items = append(items, cb)
		}
	}
	if len(items) == len(ev.CostBases) {
		return Outcome{}, fmt.Errorf("cost base %s: %w", p.CostBaseID, ErrNotFound)
	}
	if err := m.UpdateEvent(p.EventID, model.EventUpdate{CostBases: &items}); err != nil {
		return Outcome{}, err
	}
	return Outcome{EntityID: p.CostBaseID, Message: "Deleted cost base"}, nil
}

func (p DeleteCostBasePayload) describe() string {
	return "Delete cost base"
}

// UpdateNotesPayload replaces the timeline notes.
type UpdateNotesPayload struct {
	Notes string `json:"notes"`
}

func (UpdateNotesPayload) Type() Type { return TypeUpdateNotes }

func (p UpdateNotesPayload) apply(m Mutator, _ string) (Outcome, error) {
	m.SetNotes(p.Notes)
	return Outcome{Message: "Updated notes"}, nil
}

func (UpdateNotesPayload) describe() string {
	return "Update notes"
}

// BulkImportPayload replaces all properties and events at once.
type BulkImportPayload struct {
	Properties []model.Property      `json:"properties"`
	Events     []model.TimelineEvent `json:"events"`
}

func (BulkImportPayload) Type() Type { return TypeBulkImport }

func (p BulkImportPayload) apply(m Mutator, _ string) (Outcome, error) {
	if err := m.ImportTimelineData(p.Properties, p.Events); err != nil {
		return Outcome{}, err
	}
	return Outcome{
		Message: fmt.Sprintf("Imported %d properties and %d events", len(p.Properties), len(p.Events)),
	}, nil
}

func (BulkImportPayload) describe() string {
	return "Import timeline data"
}

// ClearAllPayload empties the store.
type ClearAllPayload struct{}

func (ClearAllPayload) Type() Type { return TypeClearAll }

func (ClearAllPayload) apply(m Mutator, _ string) (Outcome, error) {
	m.ClearAllData()
	return Outcome{Message: "Cleared all data"}, nil
}

func (ClearAllPayload) describe() string {
	return "Clear all data"
}

func label(p model.Property) string {
	if p.Name != "" {
		return p.Name
	}
	return p.Address
}
