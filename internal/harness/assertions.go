package harness

import (
	"fmt"

	"github.com/roach88/timeline/internal/entity"
)

// AssertionContext is the final state assertions are evaluated against.
type AssertionContext struct {
	Store    *entity.Store
	UndoSize int
	RedoSize int
}

// EvaluateAssertions checks every assertion and returns one message per failure.
func EvaluateAssertions(assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		for _, msg := range evaluate(a, actx) {
			errs = append(errs, fmt.Sprintf("assertions[%d] %s: %s", i, a.Type, msg))
		}
	}
	return errs
}

func evaluate(a Assertion, actx *AssertionContext) []string {
	switch a.Type {
	case AssertCounts:
		return assertCounts(a, actx.Store)
	case AssertNotes:
		if got := actx.Store.Notes(); got != *a.Equals {
			return []string{fmt.Sprintf("expected notes %q, got %q", *a.Equals, got)}
		}
	case AssertHistory:
		return assertHistory(a, actx)
	case AssertEntity:
		return assertEntity(a, actx.Store)
	default:
		return []string{fmt.Sprintf("unknown assertion type %q", a.Type)}
	}
	return nil
}

func assertCounts(a Assertion, store *entity.Store) []string {
	var msgs []string
	props, events := store.Counts()
	if a.Properties != nil && props != *a.Properties {
		msgs = append(msgs, fmt.Sprintf("expected %d properties, got %d", *a.Properties, props))
	}
	if a.Events != nil && events != *a.Events {
		msgs = append(msgs, fmt.Sprintf("expected %d events, got %d", *a.Events, events))
	}
	return msgs
}

func assertHistory(a Assertion, actx *AssertionContext) []string {
	var msgs []string
	if a.Undo != nil && actx.UndoSize != *a.Undo {
		msgs = append(msgs, fmt.Sprintf("expected undo depth %d, got %d", *a.Undo, actx.UndoSize))
	}
	if a.Redo != nil && actx.RedoSize != *a.Redo {
		msgs = append(msgs, fmt.Sprintf("expected redo depth %d, got %d", *a.Redo, actx.RedoSize))
	}
	return msgs
}

// assertEntity looks the id up as an event first, then as a property.
func assertEntity(a Assertion, store *entity.Store) []string {
	wantExists := a.Exists == nil || *a.Exists

	ev, isEvent := store.Event(a.ID)
	prop, isProp := store.Property(a.ID)
	exists := isEvent || isProp

	if exists != wantExists {
		if wantExists {
			return []string{fmt.Sprintf("expected %s to exist", a.ID)}
		}
		return []string{fmt.Sprintf("expected %s to be absent", a.ID)}
	}
	if !exists {
		return nil
	}

	var msgs []string
	if a.Title != "" {
		switch {
		case !isEvent:
			msgs = append(msgs, fmt.Sprintf("%s is not an event", a.ID))
		case ev.Title != a.Title:
			msgs = append(msgs, fmt.Sprintf("expected title %q, got %q", a.Title, ev.Title))
		}
	}
	if a.Name != "" {
		switch {
		case !isProp:
			msgs = append(msgs, fmt.Sprintf("%s is not a property", a.ID))
		case prop.Name != a.Name:
			msgs = append(msgs, fmt.Sprintf("expected name %q, got %q", a.Name, prop.Name))
		}
	}
	return msgs
}
