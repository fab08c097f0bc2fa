package action

import (
	"time"

	"github.com/google/uuid"

	"github.com/roach88/timeline/internal/model"
)

// Type tags an Action variant.
type Type string

const (
	TypeAddProperty      Type = "ADD_PROPERTY"
	TypeUpdateProperty   Type = "UPDATE_PROPERTY"
	TypeDeleteProperty   Type = "DELETE_PROPERTY"
	TypeAddEvent         Type = "ADD_EVENT"
	TypeUpdateEvent      Type = "UPDATE_EVENT"
	TypeDeleteEvent      Type = "DELETE_EVENT"
	TypeMoveEvent        Type = "MOVE_EVENT"
	TypeBulkDeleteEvents Type = "BULK_DELETE_EVENTS"
	TypeAddCostBase      Type = "ADD_COST_BASE"
	TypeDeleteCostBase   Type = "DELETE_COST_BASE"
	TypeUpdateNotes      Type = "UPDATE_NOTES"
	TypeBulkImport       Type = "BULK_IMPORT"
	TypeClearAll         Type = "CLEAR_ALL"
)

// AllTypes lists every action type.
func AllTypes() []Type {
	return []Type{
		TypeAddProperty,
		TypeUpdateProperty,
		TypeDeleteProperty,
		TypeAddEvent,
		TypeUpdateEvent,
		TypeDeleteEvent,
		TypeMoveEvent,
		TypeBulkDeleteEvents,
		TypeAddCostBase,
		TypeDeleteCostBase,
		TypeUpdateNotes,
		TypeBulkImport,
		TypeClearAll,
	}
}

// Mutator is the Entity Store contract that actions are applied through.
// Every mutation goes through these methods; actions never touch state directly.
type Mutator interface {
	AddProperty(p model.Property) (string, error)
	UpdateProperty(id string, u model.PropertyUpdate) error
	DeleteProperty(id string) error
	AddEvent(e model.TimelineEvent) (string, error)
	UpdateEvent(id string, u model.EventUpdate) error
	DeleteEvent(id string) error
	ImportTimelineData(props []model.Property, events []model.TimelineEvent) error
	ClearAllData()
	SetNotes(notes string)
	Property(id string) (model.Property, bool)
	Event(id string) (model.TimelineEvent, bool)
}

// Payload is the sealed set of action payload variants.
//
// The unexported methods mean only this package can add variants, and a
// new variant does not compile until it can be applied and described.
// Decoding is covered by decodePayload's switch.
type Payload interface {
	Type() Type
	apply(m Mutator, pinnedID string) (Outcome, error)
	describe() string
}

// Outcome is what applying a payload produced.
type Outcome struct {
	EntityID string
	Message  string
}

// Action is one high-level, undoable edit.
type Action struct {
	ID          string
	Type        Type
	Payload     Payload
	Description string
	Timestamp   time.Time
}

// New builds an action for payload, stamped with a fresh id and the current time.
// An empty description is replaced with the payload's default.
func New(p Payload, description string) Action {
	if description == "" {
		description = p.describe()
	}
	return Action{
		ID:          uuid.Must(uuid.NewV7()).String(),
		Type:        p.Type(),
		Payload:     p,
		Description: description,
		Timestamp:   time.Now(),
	}
}

// Describe returns the default description for a payload.
func Describe(p Payload) string {
	return p.describe()
}

// Apply performs a's mutation against m.
//
// pinnedID, when non-empty, is offered to the store as the id for an entity
// the action creates. Redo uses it so re-execution reproduces the ids that
// later history entries refer to.
func Apply(m Mutator, a Action, pinnedID string) (Outcome, error) {
	if a.Payload == nil || a.Payload.Type() != a.Type {
		return Outcome{}, &UnknownTypeError{Type: a.Type}
	}
	return a.Payload.apply(m, pinnedID)
}

// UnknownTypeError reports an action whose type has no payload variant
// or does not match its payload.
type UnknownTypeError struct {
	Type Type
}

func (e *UnknownTypeError) Error() string {
	return "Unknown action type"
}
