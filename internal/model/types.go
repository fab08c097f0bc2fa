package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// EventType tags a TimelineEvent variant.
type EventType string

const (
	EventPurchase            EventType = "purchase"
	EventSale                EventType = "sale"
	EventMoveIn              EventType = "move_in"
	EventMoveOut             EventType = "move_out"
	EventRentStart           EventType = "rent_start"
	EventRentEnd             EventType = "rent_end"
	EventImprovement         EventType = "improvement"
	EventRefinance           EventType = "refinance"
	EventStatusChange        EventType = "status_change"
	EventLivingInRentalStart EventType = "living_in_rental_start"
	EventLivingInRentalEnd   EventType = "living_in_rental_end"
	EventCustom              EventType = "custom"
)

// EventTypes lists every known event type in display order.
var EventTypes = []EventType{
	EventPurchase,
	EventSale,
	EventMoveIn,
	EventMoveOut,
	EventRentStart,
	EventRentEnd,
	EventImprovement,
	EventRefinance,
	EventStatusChange,
	EventLivingInRentalStart,
	EventLivingInRentalEnd,
	EventCustom,
}

// Valid reports whether t is one of EventTypes.
func (t EventType) Valid() bool {
	for _, known := range EventTypes {
		if t == known {
			return true
		}
	}
	return false
}

// PropertyStatus is the occupancy status of a property.
type PropertyStatus string

const (
	StatusPPR            PropertyStatus = "ppr"
	StatusRental         PropertyStatus = "rental"
	StatusVacant         PropertyStatus = "vacant"
	StatusConstruction   PropertyStatus = "construction"
	StatusSold           PropertyStatus = "sold"
	StatusLivingInRental PropertyStatus = "living_in_rental"
)

// PropertyStatuses lists every known status.
var PropertyStatuses = []PropertyStatus{
	StatusPPR,
	StatusRental,
	StatusVacant,
	StatusConstruction,
	StatusSold,
	StatusLivingInRental,
}

// Valid reports whether s is one of PropertyStatuses.
func (s PropertyStatus) Valid() bool {
	for _, known := range PropertyStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Property is a single real-estate holding on the timeline.
// Events reference it by ID; it never embeds them.
type Property struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Address       string           `json:"address"`
	Color         string           `json:"color"`
	PurchaseDate  *time.Time       `json:"purchase_date,omitempty"`
	PurchasePrice *decimal.Decimal `json:"purchase_price,omitempty"`
	SaleDate      *time.Time       `json:"sale_date,omitempty"`
	SalePrice     *decimal.Decimal `json:"sale_price,omitempty"`
	CurrentValue  *decimal.Decimal `json:"current_value,omitempty"`
	CurrentStatus PropertyStatus   `json:"current_status,omitempty"`
	Branch        int              `json:"branch"`
	// IsRental marks a rented home the user lives in but does not own.
	IsRental bool `json:"is_rental,omitempty"`
}

// TimelineEvent is a dated occurrence attached to a Property.
type TimelineEvent struct {
	ID             string           `json:"id"`
	PropertyID     string           `json:"property_id"`
	Type           EventType        `json:"type"`
	Date           time.Time        `json:"date"`
	Title          string           `json:"title"`
	Amount         *decimal.Decimal `json:"amount,omitempty"`
	Description    string           `json:"description,omitempty"`
	Color          string           `json:"color"`
	ContractDate   *time.Time       `json:"contract_date,omitempty"`
	SettlementDate *time.Time       `json:"settlement_date,omitempty"`
	NewStatus      *PropertyStatus  `json:"new_status,omitempty"`
	IsPPR          *bool            `json:"is_ppr,omitempty"`
	CostBases      []CostBaseItem   `json:"cost_bases,omitempty"`
}

// CostBaseItem is one line of an event's cost base.
type CostBaseItem struct {
	ID           string          `json:"id"`
	DefinitionID string          `json:"definition_id,omitempty"`
	Name         string          `json:"name"`
	Amount       decimal.Decimal `json:"amount"`
	Category     string          `json:"category,omitempty"`
	IsCustom     bool            `json:"is_custom,omitempty"`
	Description  string          `json:"description,omitempty"`
}

// StickyNoteContext says which view a sticky note belongs to.
type StickyNoteContext string

const (
	NoteContextTimeline StickyNoteContext = "timeline"
	NoteContextAnalysis StickyNoteContext = "analysis"
)

// StickyNote is a free-floating annotation. Position is opaque to the core.
type StickyNote struct {
	ID        string            `json:"id"`
	Content   string            `json:"content"`
	Color     string            `json:"color,omitempty"`
	Context   StickyNoteContext `json:"context"`
	Position  json.RawMessage   `json:"position,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// SavedAnalysis is the last response received from the external tax engine.
type SavedAnalysis struct {
	Response   json.RawMessage `json:"response"`
	AnalyzedAt time.Time       `json:"analyzed_at"`
	Provider   string          `json:"provider,omitempty"`
}

// PropertyUpdate is a partial update. Nil fields are left unchanged.
type PropertyUpdate struct {
	Name          *string          `json:"name,omitempty"`
	Address       *string          `json:"address,omitempty"`
	Color         *string          `json:"color,omitempty"`
	PurchaseDate  *time.Time       `json:"purchase_date,omitempty"`
	PurchasePrice *decimal.Decimal `json:"purchase_price,omitempty"`
	SaleDate      *time.Time       `json:"sale_date,omitempty"`
	SalePrice     *decimal.Decimal `json:"sale_price,omitempty"`
	CurrentValue  *decimal.Decimal `json:"current_value,omitempty"`
	CurrentStatus *PropertyStatus  `json:"current_status,omitempty"`
	IsRental      *bool            `json:"is_rental,omitempty"`
}

// IsEmpty reports whether the update changes nothing.
func (u PropertyUpdate) IsEmpty() bool {
	return u == PropertyUpdate{}
}

// EventUpdate is a partial update. Nil fields are left unchanged.
type EventUpdate struct {
	PropertyID     *string          `json:"property_id,omitempty"`
	Type           *EventType       `json:"type,omitempty"`
	Date           *time.Time       `json:"date,omitempty"`
	Title          *string          `json:"title,omitempty"`
	Amount         *decimal.Decimal `json:"amount,omitempty"`
	Description    *string          `json:"description,omitempty"`
	Color          *string          `json:"color,omitempty"`
	ContractDate   *time.Time       `json:"contract_date,omitempty"`
	SettlementDate *time.Time       `json:"settlement_date,omitempty"`
	NewStatus      *PropertyStatus  `json:"new_status,omitempty"`
	IsPPR          *bool            `json:"is_ppr,omitempty"`
	CostBases      *[]CostBaseItem  `json:"cost_bases,omitempty"`
}
