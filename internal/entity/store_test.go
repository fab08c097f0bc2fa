package entity

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/timeline/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(WithIDGenerator(NewSequenceGenerator("id")))
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAddProperty_AssignsIDAndDefaults(t *testing.T) {
	s := newTestStore(t)

	id, err := s.AddProperty(model.Property{Address: "  123 Main St "})
	require.NoError(t, err)
	assert.Equal(t, "id-1", id)

	p, ok := s.Property(id)
	require.True(t, ok)
	assert.Equal(t, "123 Main St", p.Address)
	assert.Equal(t, "123 Main St", p.Name)
	assert.Equal(t, propertyPalette[0], p.Color)
}

func TestAddProperty_RequiresAddress(t *testing.T) {
	s := newTestStore(t)
	_, err := s.AddProperty(model.Property{Name: "nowhere"})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestAddProperty_HonoursFreeID(t *testing.T) {
	s := newTestStore(t)

	id, err := s.AddProperty(model.Property{ID: "pinned", Address: "1 A St"})
	require.NoError(t, err)
	assert.Equal(t, "pinned", id)

	_, err = s.AddProperty(model.Property{ID: "pinned", Address: "2 B St"})
	assert.ErrorIs(t, err, ErrDuplicateID)

	props := s.Properties()
	require.Len(t, props, 1, "a taken id is rejected, not reassigned")
	assert.Equal(t, "1 A St", props[0].Address)
}

func TestAddProperty_NormalizesUnicode(t *testing.T) {
	s := newTestStore(t)
	id, err := s.AddProperty(model.Property{Address: "1 Rue de l'E\u0301glise"})
	require.NoError(t, err)

	p, _ := s.Property(id)
	assert.Equal(t, "1 Rue de l'\u00c9glise", p.Address)
}

func TestAddEvent_RejectsUnknownProperty(t *testing.T) {
	s := newTestStore(t)
	_, err := s.AddEvent(model.TimelineEvent{PropertyID: "ghost", Type: model.EventPurchase, Date: day(2020, 1, 1)})
	assert.ErrorIs(t, err, ErrPropertyNotFound)
}

func TestAddEvent_Validates(t *testing.T) {
	s := newTestStore(t)
	pid, err := s.AddProperty(model.Property{Address: "1 A St"})
	require.NoError(t, err)

	tests := []struct {
		name  string
		event model.TimelineEvent
	}{
		{"unknown type", model.TimelineEvent{PropertyID: pid, Type: "party", Date: day(2020, 1, 1)}},
		{"missing date", model.TimelineEvent{PropertyID: pid, Type: model.EventSale}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.AddEvent(tt.event)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestAddEvent_DefaultsTitleAndColor(t *testing.T) {
	s := newTestStore(t)
	pid, _ := s.AddProperty(model.Property{Address: "1 A St"})

	eid, err := s.AddEvent(model.TimelineEvent{PropertyID: pid, Type: model.EventMoveIn, Date: day(2020, 2, 1)})
	require.NoError(t, err)

	e, ok := s.Event(eid)
	require.True(t, ok)
	assert.Equal(t, "Move In", e.Title)
	assert.Equal(t, eventColors[model.EventMoveIn], e.Color)
}

func TestDeleteProperty_CascadesEvents(t *testing.T) {
	s := newTestStore(t)
	p1, _ := s.AddProperty(model.Property{Address: "1 A St"})
	p2, _ := s.AddProperty(model.Property{Address: "2 B St"})
	_, err := s.AddEvent(model.TimelineEvent{PropertyID: p1, Type: model.EventPurchase, Date: day(2018, 1, 1)})
	require.NoError(t, err)
	keep, err := s.AddEvent(model.TimelineEvent{PropertyID: p2, Type: model.EventPurchase, Date: day(2019, 1, 1)})
	require.NoError(t, err)
	_, err = s.AddEvent(model.TimelineEvent{PropertyID: p1, Type: model.EventSale, Date: day(2021, 1, 1)})
	require.NoError(t, err)

	require.NoError(t, s.DeleteProperty(p1))

	assert.Empty(t, s.EventsForProperty(p1))
	events := s.Events()
	require.Len(t, events, 1)
	assert.Equal(t, keep, events[0].ID)

	// index still resolves after compaction
	_, ok := s.Event(keep)
	assert.True(t, ok)
	_, ok = s.Property(p2)
	assert.True(t, ok)

	assert.ErrorIs(t, s.DeleteProperty(p1), ErrPropertyNotFound)
}

func TestUpdateEvent_CannotOrphan(t *testing.T) {
	s := newTestStore(t)
	pid, _ := s.AddProperty(model.Property{Address: "1 A St"})
	eid, _ := s.AddEvent(model.TimelineEvent{PropertyID: pid, Type: model.EventPurchase, Date: day(2020, 1, 1)})

	ghost := "ghost"
	err := s.UpdateEvent(eid, model.EventUpdate{PropertyID: &ghost})
	assert.ErrorIs(t, err, ErrPropertyNotFound)

	e, _ := s.Event(eid)
	assert.Equal(t, pid, e.PropertyID)
}

func TestUpdateProperty_PartialFields(t *testing.T) {
	s := newTestStore(t)
	pid, _ := s.AddProperty(model.Property{Name: "Home", Address: "1 A St"})

	price := decimal.NewFromInt(810000)
	require.NoError(t, s.UpdateProperty(pid, model.PropertyUpdate{SalePrice: &price}))

	p, _ := s.Property(pid)
	assert.Equal(t, "Home", p.Name)
	require.NotNil(t, p.SalePrice)
	assert.True(t, p.SalePrice.Equal(price))

	assert.ErrorIs(t, s.UpdateProperty("nope", model.PropertyUpdate{}), ErrPropertyNotFound)
}

func TestUpdateProperty_IsRental(t *testing.T) {
	s := newTestStore(t)
	pid, _ := s.AddProperty(model.Property{Address: "3 Lease Ln", IsRental: true})

	p, _ := s.Property(pid)
	assert.True(t, p.IsRental)

	owned := false
	require.NoError(t, s.UpdateProperty(pid, model.PropertyUpdate{IsRental: &owned}))
	p, _ = s.Property(pid)
	assert.False(t, p.IsRental)
}

func TestImportTimelineData_AllOrNothing(t *testing.T) {
	s := newTestStore(t)
	pid, _ := s.AddProperty(model.Property{Address: "Original"})

	err := s.ImportTimelineData(
		[]model.Property{{ID: "p1", Address: "1 A St"}},
		[]model.TimelineEvent{{ID: "e1", PropertyID: "missing", Type: model.EventPurchase, Date: day(2020, 1, 1)}},
	)
	assert.ErrorIs(t, err, ErrPropertyNotFound)

	props := s.Properties()
	require.Len(t, props, 1)
	assert.Equal(t, pid, props[0].ID)

	err = s.ImportTimelineData(
		[]model.Property{{ID: "p1", Address: "1 A St"}},
		[]model.TimelineEvent{{ID: "e1", PropertyID: "p1", Type: model.EventPurchase, Date: day(2020, 1, 1)}},
	)
	require.NoError(t, err)
	n, m := s.Counts()
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, m)
	_, ok := s.Property(pid)
	assert.False(t, ok)
}

func TestImportTimelineData_RejectsDuplicates(t *testing.T) {
	s := newTestStore(t)
	err := s.ImportTimelineData(
		[]model.Property{{ID: "p1", Address: "1 A St"}, {ID: "p1", Address: "2 B St"}},
		nil,
	)
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestReads_ReturnCopies(t *testing.T) {
	s := newTestStore(t)
	pid, _ := s.AddProperty(model.Property{Address: "1 A St"})
	eid, _ := s.AddEvent(model.TimelineEvent{
		PropertyID: pid,
		Type:       model.EventImprovement,
		Date:       day(2020, 1, 1),
		CostBases:  []model.CostBaseItem{{ID: "cb1", Name: "Kitchen", Amount: decimal.NewFromInt(30000)}},
	})

	events := s.Events()
	events[0].CostBases[0].Name = "mutated"

	e, _ := s.Event(eid)
	assert.Equal(t, "Kitchen", e.CostBases[0].Name)
}

func TestClearAllData_KeepsNotes(t *testing.T) {
	s := newTestStore(t)
	_, _ = s.AddProperty(model.Property{Address: "1 A St"})
	s.SetNotes("remember the depreciation schedule")

	s.ClearAllData()

	n, m := s.Counts()
	assert.Zero(t, n)
	assert.Zero(t, m)
	assert.Equal(t, "remember the depreciation schedule", s.Notes())
	assert.NotNil(t, s.Properties())
}

func TestDefaultTitle(t *testing.T) {
	assert.Equal(t, "Living In Rental Start", defaultTitle(model.EventLivingInRentalStart))
	assert.Equal(t, "Purchase", defaultTitle(model.EventPurchase))
}

func TestImportTimelineData_FillsDisplayDefaults(t *testing.T) {
	s := newTestStore(t)
	err := s.ImportTimelineData(
		[]model.Property{{ID: "p1", Address: "1 A St"}, {ID: "p2", Address: "2 B St", Name: "Unit", Color: "#000000"}},
		[]model.TimelineEvent{{ID: "e1", PropertyID: "p1", Type: model.EventMoveOut, Date: day(2021, 1, 1)}},
	)
	require.NoError(t, err)

	p1, _ := s.Property("p1")
	assert.Equal(t, "1 A St", p1.Name)
	assert.Equal(t, propertyPalette[0], p1.Color)
	p2, _ := s.Property("p2")
	assert.Equal(t, "Unit", p2.Name)
	assert.Equal(t, "#000000", p2.Color)

	e1, _ := s.Event("e1")
	assert.Equal(t, "Move Out", e1.Title)
	assert.Equal(t, eventColors[model.EventMoveOut], e1.Color)
}
