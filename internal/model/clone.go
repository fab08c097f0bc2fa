package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Clone returns a copy of p that shares no pointers with p.
func (p Property) Clone() Property {
	out := p
	out.PurchaseDate = cloneTime(p.PurchaseDate)
	out.PurchasePrice = cloneDecimal(p.PurchasePrice)
	out.SaleDate = cloneTime(p.SaleDate)
	out.SalePrice = cloneDecimal(p.SalePrice)
	out.CurrentValue = cloneDecimal(p.CurrentValue)
	return out
}

// Clone returns a copy of e that shares no pointers or slices with e.
func (e TimelineEvent) Clone() TimelineEvent {
	out := e
	out.Amount = cloneDecimal(e.Amount)
	out.ContractDate = cloneTime(e.ContractDate)
	out.SettlementDate = cloneTime(e.SettlementDate)
	if e.NewStatus != nil {
		s := *e.NewStatus
		out.NewStatus = &s
	}
	if e.IsPPR != nil {
		b := *e.IsPPR
		out.IsPPR = &b
	}
	if e.CostBases != nil {
		out.CostBases = make([]CostBaseItem, len(e.CostBases))
		copy(out.CostBases, e.CostBases)
	}
	return out
}

// Clone returns a copy of n with its own position buffer.
func (n StickyNote) Clone() StickyNote {
	out := n
	out.Position = cloneRaw(n.Position)
	return out
}

// Clone returns a copy of a with its own response buffer.
func (a *SavedAnalysis) Clone() *SavedAnalysis {
	if a == nil {
		return nil
	}
	out := *a
	out.Response = cloneRaw(a.Response)
	return &out
}

// CloneProperties deep-copies a property slice. The result is never nil.
func CloneProperties(in []Property) []Property {
	out := make([]Property, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}

// CloneEvents deep-copies an event slice. The result is never nil.
func CloneEvents(in []TimelineEvent) []TimelineEvent {
	out := make([]TimelineEvent, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}

// CloneStickyNotes deep-copies a sticky note slice. The result is never nil.
func CloneStickyNotes(in []StickyNote) []StickyNote {
	out := make([]StickyNote, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// decimal.Decimal is immutable, so a value copy is enough.
func cloneDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}

func cloneRaw(r json.RawMessage) json.RawMessage {
	if r == nil {
		return nil
	}
	out := make(json.RawMessage, len(r))
	copy(out, r)
	return out
}
