package importer

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	cuejson "cuelang.org/go/encoding/json"
	"github.com/shopspring/decimal"

	"github.com/roach88/timeline/internal/action"
	"github.com/roach88/timeline/internal/model"
)

//go:embed schema.cue
var schemaCUE string

// Problem is one validation failure in an import document.
type Problem struct {
	Path    string
	Message string
	Pos     token.Pos
}

func (p Problem) String() string {
	var b strings.Builder
	if p.Pos.IsValid() {
		fmt.Fprintf(&b, "%s:%d:%d: ", p.Pos.Filename(), p.Pos.Line(), p.Pos.Column())
	}
	if p.Path != "" {
		fmt.Fprintf(&b, "%s: ", p.Path)
	}
	b.WriteString(p.Message)
	return b.String()
}

// ValidationError lists every problem found in a document.
type ValidationError struct {
	Problems []Problem
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return "invalid import document: " + e.Problems[0].String()
	}
	lines := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		lines[i] = "  " + p.String()
	}
	return fmt.Sprintf("invalid import document (%d problems):\n%s", len(e.Problems), strings.Join(lines, "\n"))
}

// Result is a decoded import document.
type Result struct {
	Properties []model.Property
	Events     []model.TimelineEvent
	Notes      *string
}

// Actions returns the actions that apply the document: one BULK_IMPORT,
// followed by UPDATE_NOTES when the document carries notes.
func (r Result) Actions() []action.Action {
	out := []action.Action{action.New(action.BulkImportPayload{
		Properties: r.Properties,
		Events:     r.Events,
	}, "")}
	if r.Notes != nil {
		out = append(out, action.New(action.UpdateNotesPayload{Notes: *r.Notes}, ""))
	}
	return out
}

// Importer validates and decodes import documents.
//
// Thread-safety: Parse is safe for concurrent use; the CUE context is
// guarded by a mutex.
type Importer struct {
	mu     sync.Mutex
	ctx    *cue.Context
	schema cue.Value
}

// New compiles the document schema.
func New() (*Importer, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile import schema: %w", err)
	}
	doc := v.LookupPath(cue.ParsePath("#Document"))
	if !doc.Exists() {
		return nil, fmt.Errorf("compile import schema: #Document not defined")
	}
	return &Importer{ctx: ctx, schema: doc}, nil
}

// Parse validates data (named filename in error positions) and decodes it.
//
// Returns *ValidationError when the document does not match the schema,
// references unknown properties or repeats an id.
func (im *Importer) Parse(filename string, data []byte) (Result, error) {
	if err := im.validate(filename, data); err != nil {
		return Result{}, err
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Result{}, fmt.Errorf("decode import document: %w", err)
	}
	return doc.convert()
}

func (im *Importer) validate(filename string, data []byte) error {
	expr, err := cuejson.Extract(filename, data)
	if err != nil {
		return &ValidationError{Problems: problemsFrom(err)}
	}

	im.mu.Lock()
	defer im.mu.Unlock()

	v := im.ctx.BuildExpr(expr)
	if err := v.Err(); err != nil {
		return &ValidationError{Problems: problemsFrom(err)}
	}
	if err := im.schema.Unify(v).Validate(cue.Concrete(true)); err != nil {
		return &ValidationError{Problems: problemsFrom(err)}
	}
	return nil
}

func problemsFrom(err error) []Problem {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return []Problem{{Message: err.Error()}}
	}
	type key struct{ path, msg string }
	seen := make(map[key]bool, len(errs))
	out := make([]Problem, 0, len(errs))
	for _, e := range errs {
		p := Problem{Path: documentPath(e.Path())}
		format, args := e.Msg()
		p.Message = fmt.Sprintf(format, args...)
		// Disjunctions report the same failure once per branch.
		k := key{p.Path, p.Message}
		if seen[k] {
			continue
		}
		seen[k] = true
		if pos := cueerrors.Positions(e); len(pos) > 0 {
			p.Pos = pos[0]
		}
		out = append(out, p)
	}
	return out
}

// documentPath joins a CUE error path relative to the document root,
// dropping the schema definition labels it is reported under.
func documentPath(sels []string) string {
	for len(sels) > 0 && strings.HasPrefix(sels[0], "#") {
		sels = sels[1:]
	}
	return strings.Join(sels, ".")
}

type document struct {
	Properties []propertyDoc `json:"properties"`
	Events     []eventDoc    `json:"events"`
	Notes      *string       `json:"notes"`
}

type propertyDoc struct {
	ID            string               `json:"id"`
	Name          string               `json:"name"`
	Address       string               `json:"address"`
	Color         string               `json:"color"`
	PurchaseDate  string               `json:"purchase_date"`
	PurchasePrice *decimal.Decimal     `json:"purchase_price"`
	SaleDate      string               `json:"sale_date"`
	SalePrice     *decimal.Decimal     `json:"sale_price"`
	CurrentValue  *decimal.Decimal     `json:"current_value"`
	CurrentStatus model.PropertyStatus `json:"current_status"`
	Branch        int                  `json:"branch"`
	IsRental      bool                 `json:"is_rental"`
}

type eventDoc struct {
	ID             string                `json:"id"`
	PropertyID     string                `json:"property_id"`
	Type           model.EventType       `json:"type"`
	Date           string                `json:"date"`
	Title          string                `json:"title"`
	Amount         *decimal.Decimal      `json:"amount"`
	Description    string                `json:"description"`
	Color          string                `json:"color"`
	ContractDate   string                `json:"contract_date"`
	SettlementDate string                `json:"settlement_date"`
	NewStatus      *model.PropertyStatus `json:"new_status"`
	IsPPR          *bool                 `json:"is_ppr"`
	CostBases      []model.CostBaseItem  `json:"cost_bases"`
}

func (d document) convert() (Result, error) {
	var problems []Problem
	add := func(path, format string, args ...any) {
		problems = append(problems, Problem{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	res := Result{
		Properties: make([]model.Property, 0, len(d.Properties)),
		Events:     make([]model.TimelineEvent, 0, len(d.Events)),
		Notes:      d.Notes,
	}

	ids := make(map[string]string)
	propIDs := make(map[string]bool)
	for i, pd := range d.Properties {
		path := fmt.Sprintf("properties.%d", i)
		p := model.Property{
			ID:            pd.ID,
			Name:          pd.Name,
			Address:       pd.Address,
			Color:         pd.Color,
			PurchasePrice: pd.PurchasePrice,
			SalePrice:     pd.SalePrice,
			CurrentValue:  pd.CurrentValue,
			CurrentStatus: pd.CurrentStatus,
			Branch:        pd.Branch,
			IsRental:      pd.IsRental,
		}
		p.PurchaseDate = optionalDate(pd.PurchaseDate, path+".purchase_date", add)
		p.SaleDate = optionalDate(pd.SaleDate, path+".sale_date", add)
		if p.ID != "" {
			if prev, dup := ids[p.ID]; dup {
				add(path+".id", "duplicate id %q (also %s)", p.ID, prev)
			}
			ids[p.ID] = path
			propIDs[p.ID] = true
		}
		res.Properties = append(res.Properties, p)
	}

	for i, ed := range d.Events {
		path := fmt.Sprintf("events.%d", i)
		e := model.TimelineEvent{
			ID:          ed.ID,
			PropertyID:  ed.PropertyID,
			Type:        ed.Type,
			Title:       ed.Title,
			Amount:      ed.Amount,
			Description: ed.Description,
			Color:       ed.Color,
			NewStatus:   ed.NewStatus,
			IsPPR:       ed.IsPPR,
			CostBases:   ed.CostBases,
		}
		if date, err := parseDate(ed.Date); err != nil {
			add(path+".date", "%v", err)
		} else {
			e.Date = date
		}
		e.ContractDate = optionalDate(ed.ContractDate, path+".contract_date", add)
		e.SettlementDate = optionalDate(ed.SettlementDate, path+".settlement_date", add)
		if !propIDs[e.PropertyID] {
			add(path+".property_id", "unknown property %q", e.PropertyID)
		}
		if e.ID != "" {
			if prev, dup := ids[e.ID]; dup {
				add(path+".id", "duplicate id %q (also %s)", e.ID, prev)
			}
			ids[e.ID] = path
		}
		res.Events = append(res.Events, e)
	}

	if len(problems) > 0 {
		return Result{}, &ValidationError{Problems: problems}
	}
	return res, nil
}

func optionalDate(s, path string, add func(path, format string, args ...any)) *time.Time {
	if s == "" {
		return nil
	}
	t, err := parseDate(s)
	if err != nil {
		add(path, "%v", err)
		return nil
	}
	return &t
}

// parseDate accepts a calendar date or a full RFC 3339 timestamp.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t, nil
}
