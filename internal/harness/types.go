package harness

// Step verbs that are not action types.
const (
	VerbUndo = "undo"
	VerbRedo = "redo"
)

// Trace phases.
const (
	PhaseSetup = "setup"
	PhaseStep  = "step"
)

// TraceEvent records the outcome of one setup action or step.
// Failure messages are left out so traces stay stable when store error
// wording changes; the code identifies the failure.
type TraceEvent struct {
	Phase    string `json:"phase"`
	Index    int    `json:"index"`
	Do       string `json:"do"`
	Success  bool   `json:"success"`
	EntityID string `json:"entity_id,omitempty"`
	Message  string `json:"message,omitempty"`
	Code     string `json:"code,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace contains setup actions and steps in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains expectation and assertion failures.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
