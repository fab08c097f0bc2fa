package testutil

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/roach88/timeline/internal/model"
)

// Date returns midnight UTC on the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Money parses a decimal amount, panicking on malformed input.
func Money(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

// Property builds a minimal property at address.
func Property(address string) model.Property {
	return model.Property{Address: address}
}

// Event builds a minimal event of type typ for propertyID.
func Event(propertyID string, typ model.EventType, date time.Time) model.TimelineEvent {
	return model.TimelineEvent{PropertyID: propertyID, Type: typ, Date: date}
}

// SessionWith builds a current-version session holding one property and
// its purchase event, last modified at updated.
func SessionWith(id string, updated time.Time) model.Session {
	return model.Session{
		ID:      id,
		Version: model.SessionVersion,
		Properties: []model.Property{{
			ID: "p1", Name: "1 Main St", Address: "1 Main St", Color: "#3B82F6",
		}},
		Events: []model.TimelineEvent{{
			ID: "e1", PropertyID: "p1", Type: model.EventPurchase,
			Date: Date(2018, time.June, 1), Title: "Purchase", Amount: Money("650000"),
			Color: "#3B82F6",
		}},
		Notes:     "first home",
		CreatedAt: updated,
		UpdatedAt: updated,
	}
}
