package action

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/timeline/internal/model"
)

// Serialize converts a into its durable form. previous and entityID are
// carried along so history can be rebuilt exactly.
func Serialize(a Action, previous *model.Snapshot, entityID string) (model.SerializedAction, error) {
	if a.Payload == nil || a.Payload.Type() != a.Type {
		return model.SerializedAction{}, &UnknownTypeError{Type: a.Type}
	}
	raw, err := json.Marshal(a.Payload)
	if err != nil {
		return model.SerializedAction{}, fmt.Errorf("marshal %s payload: %w", a.Type, err)
	}
	out := model.SerializedAction{
		ID:          a.ID,
		Type:        string(a.Type),
		Timestamp:   a.Timestamp,
		Payload:     raw,
		Description: a.Description,
		Reversible:  previous != nil,
		EntityID:    entityID,
	}
	if previous != nil {
		snap := previous.Clone()
		out.PreviousState = &snap
	}
	return out, nil
}

// Deserialize rebuilds an action from its durable form.
func Deserialize(sa model.SerializedAction) (Action, error) {
	p, err := decodePayload(Type(sa.Type), sa.Payload)
	if err != nil {
		return Action{}, err
	}
	return Action{
		ID:          sa.ID,
		Type:        p.Type(),
		Payload:     p,
		Description: sa.Description,
		Timestamp:   sa.Timestamp,
	}, nil
}

// Decode builds the payload variant for t from its JSON form.
// Returns *UnknownTypeError if t has no payload variant.
func Decode(t Type, raw json.RawMessage) (Payload, error) {
	return decodePayload(t, raw)
}

func decodePayload(t Type, raw json.RawMessage) (Payload, error) {
	switch t {
	case TypeAddProperty:
		return decodeAs[AddPropertyPayload](t, raw)
	case TypeUpdateProperty:
		return decodeAs[UpdatePropertyPayload](t, raw)
	case TypeDeleteProperty:
		return decodeAs[DeletePropertyPayload](t, raw)
	case TypeAddEvent:
		return decodeAs[AddEventPayload](t, raw)
	case TypeUpdateEvent:
		return decodeAs[UpdateEventPayload](t, raw)
	case TypeDeleteEvent:
		return decodeAs[DeleteEventPayload](t, raw)
	case TypeMoveEvent:
		return decodeAs[MoveEventPayload](t, raw)
	case TypeBulkDeleteEvents:
		return decodeAs[BulkDeleteEventsPayload](t, raw)
	case TypeAddCostBase:
		return decodeAs[AddCostBasePayload](t, raw)
	case TypeDeleteCostBase:
		return decodeAs[DeleteCostBasePayload](t, raw)
	case TypeUpdateNotes:
		return decodeAs[UpdateNotesPayload](t, raw)
	case TypeBulkImport:
		return decodeAs[BulkImportPayload](t, raw)
	case TypeClearAll:
		return ClearAllPayload{}, nil
	default:
		return nil, &UnknownTypeError{Type: t}
	}
}

func decodeAs[P Payload](t Type, raw json.RawMessage) (Payload, error) {
	var p P
	if len(raw) == 0 {
		return nil, fmt.Errorf("decode %s payload: empty", t)
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", t, err)
	}
	return p, nil
}
