package harness

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/timeline/internal/action"
	"github.com/roach88/timeline/internal/engine"
	"github.com/roach88/timeline/internal/entity"
	"github.com/roach88/timeline/internal/undo"
)

// IDPrefix prefixes entity ids assigned during a scenario ("id-1", "id-2", ...).
const IDPrefix = "id"

// Harness runs one scenario against a fresh store and executor.
type Harness struct {
	store *entity.Store
	exec  *engine.Executor
}

// Run executes a scenario and returns the result.
//
// Each scenario gets its own store with sequential ids and its own executor
// with a full-size undo history, so scenarios are isolated and
// deterministic. A setup action that fails is an error; step outcomes that
// differ from their expectations are recorded in the result.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	store := entity.New(entity.WithIDGenerator(entity.NewSequenceGenerator(IDPrefix)))
	exec := engine.New(store, engine.WithHistory(undo.NewManager(undo.DefaultMaxSize)))
	stop := exec.Start(ctx)
	defer stop()

	h := &Harness{store: store, exec: exec}
	result := NewResult()

	for i, step := range scenario.Setup {
		res := h.do(ctx, step)
		result.Trace = append(result.Trace, traceEvent(PhaseSetup, i, step, res))
		if !res.Success {
			return nil, fmt.Errorf("setup[%d] %s: %w", i, step.Do, res.Err())
		}
	}

	for i, step := range scenario.Steps {
		res := h.do(ctx, step)
		result.Trace = append(result.Trace, traceEvent(PhaseStep, i, step, res))
		for _, msg := range checkExpect(step, res) {
			result.AddError(fmt.Sprintf("steps[%d] %s: %s", i, step.Do, msg))
		}
	}

	undoSize, redoSize := exec.History().Sizes()
	actx := &AssertionContext{Store: store, UndoSize: undoSize, RedoSize: redoSize}
	for _, msg := range EvaluateAssertions(scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

func (h *Harness) do(ctx context.Context, step Step) engine.Result {
	switch step.Do {
	case VerbUndo:
		return h.exec.Undo(ctx)
	case VerbRedo:
		return h.exec.Redo(ctx)
	}
	return h.exec.Execute(ctx, buildAction(step))
}

// buildAction turns a step into an action. A step whose payload cannot be
// decoded yields an action with no payload, which the executor rejects as
// a validation failure.
func buildAction(step Step) action.Action {
	t := action.Type(step.Do)
	raw, err := json.Marshal(payloadOrEmpty(step.Payload))
	if err == nil {
		var p action.Payload
		if p, err = action.Decode(t, raw); err == nil {
			return action.New(p, step.Description)
		}
	}
	return action.Action{
		ID:          uuid.Must(uuid.NewV7()).String(),
		Type:        t,
		Description: step.Description,
	}
}

func payloadOrEmpty(p map[string]any) map[string]any {
	if p == nil {
		return map[string]any{}
	}
	return p
}

func traceEvent(phase string, i int, step Step, res engine.Result) TraceEvent {
	ev := TraceEvent{
		Phase:    phase,
		Index:    i,
		Do:       step.Do,
		Success:  res.Success,
		EntityID: res.EntityID,
	}
	if res.Success {
		ev.Message = res.Message
	} else {
		ev.Code = string(res.Code)
	}
	return ev
}

func checkExpect(step Step, res engine.Result) []string {
	var msgs []string
	exp := step.Expect
	if exp == nil {
		exp = &Expect{}
	}
	switch {
	case exp.Code == "" && !res.Success:
		msgs = append(msgs, fmt.Sprintf("expected success, got %s (%s)", res.Code, res.Error))
	case exp.Code != "" && res.Success:
		msgs = append(msgs, fmt.Sprintf("expected %s, got success", exp.Code))
	case exp.Code != "" && string(res.Code) != exp.Code:
		msgs = append(msgs, fmt.Sprintf("expected %s, got %s", exp.Code, res.Code))
	}
	if exp.EntityID != "" && res.EntityID != exp.EntityID {
		msgs = append(msgs, fmt.Sprintf("expected entity %q, got %q", exp.EntityID, res.EntityID))
	}
	if exp.Message != "" && res.Message != exp.Message {
		msgs = append(msgs, fmt.Sprintf("expected message %q, got %q", exp.Message, res.Message))
	}
	return msgs
}
