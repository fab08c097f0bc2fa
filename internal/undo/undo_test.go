package undo

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/timeline/internal/action"
	"github.com/roach88/timeline/internal/model"
)

func notesAction(i int) action.Action {
	return action.New(action.UpdateNotesPayload{Notes: fmt.Sprintf("v%d", i)}, fmt.Sprintf("edit %d", i))
}

func snap(notes string) *model.Snapshot {
	return &model.Snapshot{Notes: notes}
}

func TestNewManager_Defaults(t *testing.T) {
	assert.Equal(t, DefaultMaxSize, NewManager(0).MaxSize())
	assert.Equal(t, 50, NewManager(-3).MaxSize())
	assert.Equal(t, 7, NewManager(7).MaxSize())
}

func TestRecord_EvictsOldest(t *testing.T) {
	m := NewManager(50)
	for i := 1; i <= 51; i++ {
		m.Record(notesAction(i), snap(""), "")
	}

	u, r := m.Sizes()
	assert.Equal(t, 50, u)
	assert.Zero(t, r)

	var last action.Action
	for i := 0; i < 50; i++ {
		e, ok := m.PopUndo()
		require.True(t, ok)
		last = e.Action
	}
	assert.Equal(t, "edit 2", last.Description)
	_, ok := m.PopUndo()
	assert.False(t, ok)
}

func TestRecord_ClearsRedo(t *testing.T) {
	m := NewManager(0)
	m.Record(notesAction(1), snap(""), "")
	m.Record(notesAction(2), snap(""), "")
	_, ok := m.PopUndo()
	require.True(t, ok)
	require.True(t, m.CanRedo())

	m.Record(notesAction(3), snap(""), "")
	assert.False(t, m.CanRedo())
	assert.Equal(t, "edit 3", m.UndoDescription())
}

func TestPop_TransfersBetweenStacks(t *testing.T) {
	m := NewManager(0)
	m.Record(notesAction(1), snap("before"), "x")

	e, ok := m.PopUndo()
	require.True(t, ok)
	assert.Equal(t, "before", e.PreviousState.Notes)
	assert.Equal(t, "x", e.EntityID)
	assert.False(t, m.CanUndo())
	assert.Equal(t, "edit 1", m.RedoDescription())

	e, ok = m.PopRedo()
	require.True(t, ok)
	assert.Equal(t, "edit 1", e.Action.Description)
	assert.True(t, m.CanUndo())
	assert.False(t, m.CanRedo())

	_, ok = m.PopRedo()
	assert.False(t, ok)
}

func TestPopRedo_KeepsRemainingRedo(t *testing.T) {
	m := NewManager(0)
	m.Record(notesAction(1), snap(""), "")
	m.Record(notesAction(2), snap(""), "")
	m.PopUndo()
	m.PopUndo()

	_, ok := m.PopRedo()
	require.True(t, ok)
	assert.True(t, m.CanRedo())
	assert.Equal(t, "edit 2", m.RedoDescription())
}

func TestQueries_DoNotMutate(t *testing.T) {
	m := NewManager(0)
	assert.Equal(t, "", m.UndoDescription())
	assert.Equal(t, "", m.RedoDescription())

	m.Record(notesAction(1), snap(""), "")
	for i := 0; i < 3; i++ {
		assert.True(t, m.CanUndo())
		assert.Equal(t, "edit 1", m.UndoDescription())
	}
	u, _ := m.Sizes()
	assert.Equal(t, 1, u)
}

func TestDropUndoAndClear(t *testing.T) {
	m := NewManager(0)
	m.Record(notesAction(1), nil, "")
	m.Record(notesAction(2), nil, "")

	m.DropUndo()
	assert.Equal(t, "edit 1", m.UndoDescription())
	m.PopUndo()

	m.Clear()
	assert.False(t, m.CanUndo())
	assert.False(t, m.CanRedo())
}

func TestExportLoad(t *testing.T) {
	m := NewManager(0)
	m.Record(notesAction(1), snap("s0"), "")
	m.Record(notesAction(2), snap("s1"), "")
	m.PopUndo()

	undo, redo, err := m.Export()
	require.NoError(t, err)
	require.Len(t, undo, 1)
	require.Len(t, redo, 1)
	assert.True(t, undo[0].Reversible)

	loaded := NewManager(0)
	skipped := loaded.Load(undo, redo)
	assert.Zero(t, skipped)
	assert.Equal(t, "edit 1", loaded.UndoDescription())
	assert.Equal(t, "edit 2", loaded.RedoDescription())

	e, ok := loaded.PeekUndo()
	require.True(t, ok)
	assert.Equal(t, "s0", e.PreviousState.Notes)
}

func TestLoad_SkipsUnreadableAndTrims(t *testing.T) {
	m := NewManager(2)
	good, err := action.Serialize(notesAction(1), nil, "")
	require.NoError(t, err)
	bad := model.SerializedAction{ID: "bad", Type: "TELEPORT", Payload: json.RawMessage(`{}`)}

	skipped := m.Load([]model.SerializedAction{good, good, bad}, nil)
	assert.Equal(t, 1, skipped)
	u, _ := m.Sizes()
	assert.Equal(t, 1, u)

	// trimmed to the newest two before decoding
	skipped = m.Load([]model.SerializedAction{bad, good, good}, nil)
	assert.Zero(t, skipped)
	u, _ = m.Sizes()
	assert.Equal(t, 2, u)

	e, ok := m.PeekUndo()
	require.True(t, ok)
	assert.Nil(t, e.PreviousState)
}

func TestGroup_CollapsesIntoOneEntry(t *testing.T) {
	m := NewManager(0)
	m.Record(notesAction(1), snap(""), "")

	m.BeginGroup("Rename everything")
	assert.True(t, m.InGroup())
	m.Record(notesAction(2), snap("v1"), "first-id")
	m.Record(notesAction(3), snap("v2"), "")
	m.Record(notesAction(4), snap("v3"), "")
	assert.True(t, m.EndGroup())
	assert.False(t, m.InGroup())

	u, _ := m.Sizes()
	assert.Equal(t, 2, u)
	assert.Equal(t, "Rename everything", m.UndoDescription())

	e, ok := m.PopUndo()
	require.True(t, ok)
	assert.Equal(t, "v1", e.PreviousState.Notes, "group keeps the first action's previous state")
	assert.Equal(t, "edit 2", e.Action.Description)
	assert.Equal(t, "first-id", e.EntityID)
	require.Len(t, e.Steps, 2)
	assert.Equal(t, "edit 3", e.Steps[0].Action.Description)
	assert.Equal(t, "edit 4", e.Steps[1].Action.Description)
	assert.Equal(t, "Rename everything", m.RedoDescription())
}

func TestGroup_EmptyGroupRecordsNothing(t *testing.T) {
	m := NewManager(0)
	m.BeginGroup("nothing")
	assert.False(t, m.EndGroup())
	assert.False(t, m.CanUndo())
	assert.False(t, m.EndGroup(), "no group open")
}

func TestGroup_TakesOneSlotAgainstBound(t *testing.T) {
	m := NewManager(3)
	m.BeginGroup("batch")
	for i := 1; i <= 10; i++ {
		m.Record(notesAction(i), snap(""), "")
	}
	m.EndGroup()
	m.Record(notesAction(11), snap(""), "")

	u, _ := m.Sizes()
	assert.Equal(t, 2, u)
}

func TestGroup_PopClosesGroup(t *testing.T) {
	m := NewManager(0)
	m.BeginGroup("batch")
	m.Record(notesAction(1), snap(""), "")
	_, ok := m.PopUndo()
	require.True(t, ok)
	assert.False(t, m.InGroup())

	m.Record(notesAction(2), snap(""), "")
	e, _ := m.PeekUndo()
	assert.Empty(t, e.Group)
	assert.Empty(t, e.Steps)
}

func TestGroup_ExportLoadRoundTrip(t *testing.T) {
	m := NewManager(0)
	m.BeginGroup("batch")
	m.Record(notesAction(1), snap(""), "")
	m.Record(notesAction(2), snap("v1"), "made-id")
	m.EndGroup()

	undo, redo, err := m.Export()
	require.NoError(t, err)
	require.Len(t, undo, 1)
	assert.Equal(t, "batch", undo[0].Group)
	require.Len(t, undo[0].Steps, 1)
	assert.Nil(t, undo[0].Steps[0].PreviousState)

	loaded := NewManager(0)
	require.Zero(t, loaded.Load(undo, redo))
	e, ok := loaded.PeekUndo()
	require.True(t, ok)
	assert.Equal(t, "batch", e.Description())
	require.Len(t, e.Steps, 1)
	assert.Equal(t, "made-id", e.Steps[0].EntityID)
	assert.Equal(t, "edit 2", e.Steps[0].Action.Description)
}

func TestGroup_UnreadableStepDropsEntry(t *testing.T) {
	good, err := action.Serialize(notesAction(1), snap(""), "")
	require.NoError(t, err)
	good.Group = "batch"
	good.Steps = []model.SerializedAction{{ID: "bad", Type: "FROBNICATE", Payload: json.RawMessage(`{}`)}}

	m := NewManager(0)
	assert.Equal(t, 1, m.Load([]model.SerializedAction{good}, nil))
	assert.False(t, m.CanUndo())
}
