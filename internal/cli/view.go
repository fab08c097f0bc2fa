package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/timeline/internal/entity"
	"github.com/roach88/timeline/internal/model"
)

// HistoryItem is one undo or redo entry.
type HistoryItem struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	EntityID    string `json:"entity_id,omitempty"`
	// Steps counts the actions folded into a grouped entry after the first.
	Steps int `json:"steps,omitempty"`
}

// HistoryView lists both stacks, most recent entry first.
type HistoryView struct {
	Undo []HistoryItem `json:"undo"`
	Redo []HistoryItem `json:"redo"`
}

type historyExporter interface {
	Export() (undo, redo []model.SerializedAction, err error)
}

func buildHistoryView(h historyExporter) (HistoryView, error) {
	undoStack, redoStack, err := h.Export()
	if err != nil {
		return HistoryView{}, err
	}
	return HistoryView{Undo: newestFirst(undoStack), Redo: newestFirst(redoStack)}, nil
}

func newestFirst(stack []model.SerializedAction) []HistoryItem {
	out := make([]HistoryItem, 0, len(stack))
	for i := len(stack) - 1; i >= 0; i-- {
		sa := stack[i]
		it := HistoryItem{Type: sa.Type, Description: sa.Description, EntityID: sa.EntityID, Steps: len(sa.Steps)}
		if sa.Group != "" {
			it.Description = sa.Group
		}
		out = append(out, it)
	}
	return out
}

func renderHistory(v HistoryView) string {
	var b strings.Builder
	writeStack(&b, "Undo", v.Undo)
	b.WriteString("\n")
	writeStack(&b, "Redo", v.Redo)
	return strings.TrimRight(b.String(), "\n")
}

func writeStack(b *strings.Builder, title string, items []HistoryItem) {
	fmt.Fprintf(b, "%s (%d):\n", title, len(items))
	if len(items) == 0 {
		b.WriteString("  (empty)\n")
		return
	}
	for i, it := range items {
		fmt.Fprintf(b, "  %2d. %-20s %s\n", i+1, it.Type, it.Description)
	}
}

// PropertyView is a property with its events in date order.
type PropertyView struct {
	model.Property
	Events []model.TimelineEvent `json:"events"`
}

// TimelineView is everything list prints.
type TimelineView struct {
	Properties []PropertyView `json:"properties"`
	Notes      string         `json:"notes,omitempty"`
}

func buildTimelineView(s *entity.Store) TimelineView {
	props := s.Properties()
	v := TimelineView{Properties: make([]PropertyView, 0, len(props)), Notes: s.Notes()}
	for _, p := range props {
		events := s.EventsForProperty(p.ID)
		sort.SliceStable(events, func(i, j int) bool { return events[i].Date.Before(events[j].Date) })
		v.Properties = append(v.Properties, PropertyView{Property: p, Events: events})
	}
	return v
}

func renderTimeline(v TimelineView) string {
	if len(v.Properties) == 0 && v.Notes == "" {
		return "Timeline is empty"
	}
	var b strings.Builder
	for _, p := range v.Properties {
		fmt.Fprintf(&b, "%s  [%s]", p.Name, p.ID)
		if p.Address != p.Name {
			fmt.Fprintf(&b, "  %s", p.Address)
		}
		if p.CurrentStatus != "" {
			fmt.Fprintf(&b, "  (%s)", p.CurrentStatus)
		}
		b.WriteString("\n")
		for _, ev := range p.Events {
			fmt.Fprintf(&b, "  %s\n", describeEvent(ev))
			for _, cb := range ev.CostBases {
				fmt.Fprintf(&b, "      + %s %s  [%s]\n", cb.Name, cb.Amount.StringFixed(2), cb.ID)
			}
		}
	}
	if v.Notes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", v.Notes)
	}
	return strings.TrimRight(b.String(), "\n")
}
