// Package undo keeps the bounded, linear undo/redo history of executed actions.
package undo

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/timeline/internal/action"
	"github.com/roach88/timeline/internal/model"
)

// DefaultMaxSize is the default bound on each stack.
const DefaultMaxSize = 50

// Entry is one executed action and the store state from just before it ran.
// EntityID is the id the action created, if any; redo pins it.
//
// A grouped entry also carries the actions executed after Action while the
// group was open. Undo restores PreviousState, which predates all of them;
// redo replays Action and then each step in order.
type Entry struct {
	Action        action.Action
	PreviousState *model.Snapshot
	EntityID      string
	Group         string
	Steps         []Step
}

// Step is an action folded into a grouped entry.
type Step struct {
	Action   action.Action
	EntityID string
}

// Description is the group description for grouped entries and the
// action's description otherwise.
func (e Entry) Description() string {
	if e.Group != "" {
		return e.Group
	}
	return e.Action.Description
}

// group tracks an open BeginGroup. started is set once the first action of
// the group has been pushed onto the undo stack.
type group struct {
	description string
	started     bool
}

// Manager holds two bounded stacks.
//
// Recording a new action always clears the redo stack, so history never
// branches. When the undo stack grows past its bound the oldest entry is
// dropped for good.
//
// Thread-safety: all methods are safe for concurrent use.
type Manager struct {
	mu      sync.Mutex
	undo    []Entry
	redo    []Entry
	maxSize int
	group   *group
}

// NewManager creates a manager. A non-positive maxSize uses DefaultMaxSize.
func NewManager(maxSize int) *Manager {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Manager{maxSize: maxSize}
}

// MaxSize returns the per-stack bound.
func (m *Manager) MaxSize() int {
	return m.maxSize
}

// Record pushes a newly executed action and clears the redo stack.
//
// While a group is open, the first recorded action starts a new entry and
// later ones are appended to it as steps, so the whole group takes one slot.
func (m *Manager) Record(a action.Action, previous *model.Snapshot, entityID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	clear(m.redo)
	m.redo = m.redo[:0]

	if m.group != nil && m.group.started && len(m.undo) > 0 {
		top := &m.undo[len(m.undo)-1]
		top.Steps = append(top.Steps, Step{Action: a, EntityID: entityID})
		return
	}
	e := Entry{Action: a, PreviousState: previous, EntityID: entityID}
	if m.group != nil {
		e.Group = m.group.description
		m.group.started = true
	}
	m.undo = pushBounded(m.undo, e, m.maxSize)
}

// BeginGroup collects the actions recorded until EndGroup into a single
// entry described by description. Beginning a group while one is open
// closes the open one first.
func (m *Manager) BeginGroup(description string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.group = &group{description: description}
}

// EndGroup closes the open group. It reports whether the group recorded
// anything; an empty group leaves no entry.
func (m *Manager) EndGroup() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	g := m.group
	m.group = nil
	return g != nil && g.started
}

// InGroup reports whether a group is open.
func (m *Manager) InGroup() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.group != nil
}

// PeekUndo returns the most recent undo entry without removing it.
func (m *Manager) PeekUndo() (Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.undo) == 0 {
		return Entry{}, false
	}
	return m.undo[len(m.undo)-1], true
}

// PopUndo moves the most recent undo entry onto the redo stack and returns it.
func (m *Manager) PopUndo() (Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.group = nil
	e, ok := pop(&m.undo)
	if !ok {
		return Entry{}, false
	}
	m.redo = pushBounded(m.redo, e, m.maxSize)
	return e, true
}

// PopRedo moves the most recent redo entry onto the undo stack and returns it.
// Unlike Record, it leaves the rest of the redo stack intact.
func (m *Manager) PopRedo() (Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.group = nil
	e, ok := pop(&m.redo)
	if !ok {
		return Entry{}, false
	}
	m.undo = pushBounded(m.undo, e, m.maxSize)
	return e, true
}

// DropUndo discards the most recent undo entry.
func (m *Manager) DropUndo() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.group = nil
	pop(&m.undo)
}

// CanUndo reports whether there is anything to undo.
func (m *Manager) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undo) > 0
}

// CanRedo reports whether there is anything to redo.
func (m *Manager) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.redo) > 0
}

// UndoDescription describes the action undo would revert, or "".
func (m *Manager) UndoDescription() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.undo) == 0 {
		return ""
	}
	return m.undo[len(m.undo)-1].Description()
}

// RedoDescription describes the action redo would re-apply, or "".
func (m *Manager) RedoDescription() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.redo) == 0 {
		return ""
	}
	return m.redo[len(m.redo)-1].Description()
}

// Sizes returns the current stack depths.
func (m *Manager) Sizes() (undo, redo int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undo), len(m.redo)
}

// Clear drops both stacks.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.undo = nil
	m.redo = nil
	m.group = nil
}

// Export serializes both stacks, oldest entry first.
func (m *Manager) Export() (undo, redo []model.SerializedAction, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if undo, err = serializeAll(m.undo); err != nil {
		return nil, nil, fmt.Errorf("serialize undo stack: %w", err)
	}
	if redo, err = serializeAll(m.redo); err != nil {
		return nil, nil, fmt.Errorf("serialize redo stack: %w", err)
	}
	return undo, redo, nil
}

// Load replaces both stacks with deserialized entries.
//
// Entries whose payload cannot be decoded are skipped and logged. Each stack
// keeps at most MaxSize of its newest entries. Load returns the number of
// skipped entries.
func (m *Manager) Load(undo, redo []model.SerializedAction) int {
	u, skippedU := deserializeAll(undo, m.maxSize)
	r, skippedR := deserializeAll(redo, m.maxSize)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.undo = u
	m.redo = r
	m.group = nil
	return skippedU + skippedR
}

func serializeAll(entries []Entry) ([]model.SerializedAction, error) {
	out := make([]model.SerializedAction, 0, len(entries))
	for _, e := range entries {
		sa, err := action.Serialize(e.Action, e.PreviousState, e.EntityID)
		if err != nil {
			return nil, fmt.Errorf("entry %s: %w", e.Action.ID, err)
		}
		sa.Group = e.Group
		for _, st := range e.Steps {
			ss, err := action.Serialize(st.Action, nil, st.EntityID)
			if err != nil {
				return nil, fmt.Errorf("entry %s step %s: %w", e.Action.ID, st.Action.ID, err)
			}
			sa.Steps = append(sa.Steps, ss)
		}
		out = append(out, sa)
	}
	return out, nil
}

func deserializeAll(in []model.SerializedAction, maxSize int) ([]Entry, int) {
	if len(in) > maxSize {
		in = in[len(in)-maxSize:]
	}
	out := make([]Entry, 0, len(in))
	skipped := 0
	for _, sa := range in {
		e, err := deserializeEntry(sa)
		if err != nil {
			slog.Warn("skipping unreadable history entry",
				"id", sa.ID,
				"type", sa.Type,
				"error", err,
			)
			skipped++
			continue
		}
		out = append(out, e)
	}
	return out, skipped
}

// deserializeEntry rebuilds one entry. A group with any unreadable step is
// unreadable as a whole.
func deserializeEntry(sa model.SerializedAction) (Entry, error) {
	a, err := action.Deserialize(sa)
	if err != nil {
		return Entry{}, err
	}
	e := Entry{Action: a, EntityID: sa.EntityID, Group: sa.Group}
	if sa.PreviousState != nil {
		snap := sa.PreviousState.Clone()
		e.PreviousState = &snap
	}
	for _, ss := range sa.Steps {
		st, err := action.Deserialize(ss)
		if err != nil {
			return Entry{}, fmt.Errorf("step %s: %w", ss.ID, err)
		}
		e.Steps = append(e.Steps, Step{Action: st, EntityID: ss.EntityID})
	}
	return e, nil
}

func pushBounded(stack []Entry, e Entry, maxSize int) []Entry {
	stack = append(stack, e)
	if over := len(stack) - maxSize; over > 0 {
		clear(stack[:over])
		stack = stack[over:]
	}
	return stack
}

func pop(stack *[]Entry) (Entry, bool) {
	s := *stack
	if len(s) == 0 {
		return Entry{}, false
	}
	e := s[len(s)-1]
	s[len(s)-1] = Entry{}
	*stack = s[:len(s)-1]
	return e, true
}
