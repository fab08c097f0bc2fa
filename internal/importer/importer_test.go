package importer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/timeline/internal/action"
	"github.com/roach88/timeline/internal/engine"
	"github.com/roach88/timeline/internal/entity"
	"github.com/roach88/timeline/internal/model"
)

func newImporter(t *testing.T) *Importer {
	t.Helper()
	im, err := New()
	require.NoError(t, err)
	return im
}

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

func problemPaths(t *testing.T, err error) []string {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "want *ValidationError, got %T: %v", err, err)
	paths := make([]string, len(verr.Problems))
	for i, p := range verr.Problems {
		paths[i] = p.Path
	}
	return paths
}

func TestParse_ValidDocument(t *testing.T) {
	im := newImporter(t)

	res, err := im.Parse("portfolio.json", readFixture(t, "portfolio.json"))
	require.NoError(t, err)

	require.Len(t, res.Properties, 2)
	require.Len(t, res.Events, 3)
	require.NotNil(t, res.Notes)
	assert.Equal(t, "Imported from spreadsheet", *res.Notes)

	home := res.Properties[0]
	assert.Equal(t, "home", home.ID)
	assert.Equal(t, model.StatusPPR, home.CurrentStatus)
	require.NotNil(t, home.PurchaseDate)
	assert.Equal(t, time.Date(2015, 7, 1, 0, 0, 0, 0, time.UTC), *home.PurchaseDate)
	assert.True(t, home.PurchasePrice.Equal(decimal.NewFromInt(720000)))

	unit := res.Properties[1]
	assert.True(t, unit.PurchasePrice.Equal(decimal.NewFromInt(455000)), "numeric money")
	assert.Equal(t, 1, unit.Branch)

	buy := res.Events[0]
	require.Len(t, buy.CostBases, 1)
	assert.True(t, buy.CostBases[0].Amount.Equal(decimal.NewFromInt(27490)))
	require.NotNil(t, buy.ContractDate)
	assert.Equal(t, 20, buy.ContractDate.Day())

	moveIn := res.Events[1]
	assert.Equal(t, 2015, moveIn.Date.Year())
	assert.Empty(t, moveIn.ID)

	require.NotNil(t, res.Events[2].NewStatus)
	assert.Equal(t, model.StatusRental, *res.Events[2].NewStatus)
}

func TestParse_SchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		path string
	}{
		{"unknown event type", `{"properties":[{"id":"p","address":"a"}],"events":[{"property_id":"p","type":"demolish","date":"2020-01-01"}]}`, "events.0.type"},
		{"missing address", `{"properties":[{"id":"p"}]}`, "properties.0.address"},
		{"blank address", `{"properties":[{"address":"   "}]}`, "properties.0.address"},
		{"bad date", `{"properties":[{"id":"p","address":"a"}],"events":[{"property_id":"p","type":"sale","date":"last week"}]}`, "events.0.date"},
		{"bad status", `{"properties":[{"address":"a","current_status":"haunted"}]}`, "properties.0.current_status"},
		{"bad money", `{"properties":[{"address":"a","purchase_price":"lots"}]}`, "properties.0.purchase_price"},
		{"unknown field", `{"properties":[{"address":"a","pool":true}]}`, "properties.0.pool"},
		{"negative branch", `{"properties":[{"address":"a","branch":-1}]}`, "properties.0.branch"},
	}
	im := newImporter(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := im.Parse("doc.json", []byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, problemPaths(t, err), tt.path)
		})
	}
}

func TestParse_ProblemsAreDocumentRelativeAndUnique(t *testing.T) {
	im := newImporter(t)
	doc := `{"properties":[{"address":"a","current_status":"haunted","pool":true}],
		"events":[{"property_id":"p","type":"demolish","date":"2020-01-01"}]}`

	_, err := im.Parse("doc.json", []byte(doc))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	seen := make(map[string]bool)
	for _, p := range verr.Problems {
		assert.False(t, strings.HasPrefix(p.Path, "#"), "path %q names a schema definition", p.Path)
		key := p.Path + "\x00" + p.Message
		assert.False(t, seen[key], "problem repeated: %s", p)
		seen[key] = true
	}
	paths := problemPaths(t, err)
	assert.Contains(t, paths, "properties.0.current_status")
	assert.Contains(t, paths, "properties.0.pool")
	assert.Contains(t, paths, "events.0.type")
}

func TestParse_EventsOptional(t *testing.T) {
	im := newImporter(t)

	res, err := im.Parse("doc.json", []byte(`{"properties":[{"id":"p","address":"1 Main St"}]}`))
	require.NoError(t, err)
	assert.Len(t, res.Properties, 1)
	assert.Empty(t, res.Events)
}

func TestParse_RentalFlag(t *testing.T) {
	im := newImporter(t)

	res, err := im.Parse("doc.json", []byte(`{"properties":[{"address":"3 Lease Ln","is_rental":true},{"address":"4 Own St"}]}`))
	require.NoError(t, err)
	require.Len(t, res.Properties, 2)
	assert.True(t, res.Properties[0].IsRental)
	assert.False(t, res.Properties[1].IsRental)

	_, err = im.Parse("doc.json", []byte(`{"properties":[{"address":"a","is_rental":"yes"}]}`))
	assert.Contains(t, problemPaths(t, err), "properties.0.is_rental")
}

func TestParse_MalformedJSON(t *testing.T) {
	im := newImporter(t)

	_, err := im.Parse("broken.json", []byte(`{"properties": [`))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.NotEmpty(t, verr.Problems)
}

func TestParse_ReferentialIntegrity(t *testing.T) {
	im := newImporter(t)
	doc := `{
		"properties": [{"id": "p1", "address": "1 Main St"}, {"id": "p1", "address": "2 Main St"}],
		"events": [
			{"id": "e1", "property_id": "p1", "type": "purchase", "date": "2020-01-01"},
			{"id": "e2", "property_id": "ghost", "type": "sale", "date": "2021-01-01"}
		]
	}`

	_, err := im.Parse("doc.json", []byte(doc))
	require.Error(t, err)
	paths := problemPaths(t, err)
	assert.Contains(t, paths, "properties.1.id")
	assert.Contains(t, paths, "events.1.property_id")
	assert.Contains(t, err.Error(), "2 problems")
}

func TestResult_Actions(t *testing.T) {
	notes := "hello"
	withNotes := Result{Notes: &notes}.Actions()
	require.Len(t, withNotes, 2)
	assert.Equal(t, action.TypeBulkImport, withNotes[0].Type)
	assert.Equal(t, action.TypeUpdateNotes, withNotes[1].Type)

	without := Result{}.Actions()
	require.Len(t, without, 1)
	assert.Equal(t, action.TypeBulkImport, without[0].Type)
}

func TestImport_ExecutesAndUndoes(t *testing.T) {
	im := newImporter(t)
	res, err := im.Parse("portfolio.json", readFixture(t, "portfolio.json"))
	require.NoError(t, err)

	store := entity.New(entity.WithIDGenerator(entity.NewSequenceGenerator("id")))
	ex := engine.New(store)
	stop := ex.Start(context.Background())
	t.Cleanup(func() { _ = stop() })

	for _, a := range res.Actions() {
		r := ex.Execute(context.Background(), a)
		require.True(t, r.Success, r.Error)
	}

	props, events := store.Counts()
	assert.Equal(t, 2, props)
	assert.Equal(t, 3, events)
	assert.Equal(t, "Imported from spreadsheet", store.Notes())
	assert.Equal(t, "Move In", store.EventsForProperty("home")[1].Title)

	require.True(t, ex.Undo(context.Background()).Success)
	require.True(t, ex.Undo(context.Background()).Success)
	props, events = store.Counts()
	assert.Zero(t, props)
	assert.Zero(t, events)
}
