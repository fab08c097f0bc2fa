package snapshot

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/roach88/timeline/internal/model"
)

// Diff counts entity-level changes between two snapshots.
type Diff struct {
	PropertiesAdded    int
	PropertiesRemoved  int
	PropertiesModified int
	EventsAdded        int
	EventsRemoved      int
	EventsModified     int
}

// IsEmpty reports whether nothing changed.
func (d Diff) IsEmpty() bool {
	return d == Diff{}
}

// String renders a short human summary, e.g. "Added 1 property(s), Removed 2 event(s)".
func (d Diff) String() string {
	var parts []string
	add := func(verb string, n int, noun string) {
		if n > 0 {
			parts = append(parts, fmt.Sprintf("%s %d %s(s)", verb, n, noun))
		}
	}
	add("Added", d.PropertiesAdded, "property")
	add("Removed", d.PropertiesRemoved, "property")
	add("Modified", d.PropertiesModified, "property")
	add("Added", d.EventsAdded, "event")
	add("Removed", d.EventsRemoved, "event")
	add("Modified", d.EventsModified, "event")
	if len(parts) == 0 {
		return "No changes"
	}
	return strings.Join(parts, ", ")
}

// Compare computes the diff from before to after, matching entities by id.
func Compare(before, after model.Snapshot) Diff {
	var d Diff

	oldProps := make(map[string]model.Property, len(before.Properties))
	for _, p := range before.Properties {
		oldProps[p.ID] = p
	}
	for _, p := range after.Properties {
		old, ok := oldProps[p.ID]
		switch {
		case !ok:
			d.PropertiesAdded++
		case !reflect.DeepEqual(old, p):
			d.PropertiesModified++
		}
		delete(oldProps, p.ID)
	}
	d.PropertiesRemoved = len(oldProps)

	oldEvents := make(map[string]model.TimelineEvent, len(before.Events))
	for _, e := range before.Events {
		oldEvents[e.ID] = e
	}
	for _, e := range after.Events {
		old, ok := oldEvents[e.ID]
		switch {
		case !ok:
			d.EventsAdded++
		case !reflect.DeepEqual(old, e):
			d.EventsModified++
		}
		delete(oldEvents, e.ID)
	}
	d.EventsRemoved = len(oldEvents)

	return d
}

// Validate checks the structural shape of a snapshot loaded from storage.
// It returns every problem found, or nil.
func Validate(snap model.Snapshot) []error {
	var errs []error
	if snap.Timestamp.IsZero() {
		errs = append(errs, errors.New("snapshot: missing timestamp"))
	}
	for i, p := range snap.Properties {
		if p.ID == "" {
			errs = append(errs, fmt.Errorf("properties[%d]: missing id", i))
		}
		if p.Address == "" {
			errs = append(errs, fmt.Errorf("properties[%d]: missing address", i))
		}
	}
	for i, e := range snap.Events {
		if e.ID == "" {
			errs = append(errs, fmt.Errorf("events[%d]: missing id", i))
		}
		if e.PropertyID == "" {
			errs = append(errs, fmt.Errorf("events[%d]: missing property_id", i))
		}
		if !e.Type.Valid() {
			errs = append(errs, fmt.Errorf("events[%d]: unknown type %q", i, e.Type))
		}
		if e.Date.IsZero() {
			errs = append(errs, fmt.Errorf("events[%d]: missing date", i))
		}
	}
	return errs
}
