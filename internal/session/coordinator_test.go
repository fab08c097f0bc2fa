package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/timeline/internal/action"
	"github.com/roach88/timeline/internal/engine"
	"github.com/roach88/timeline/internal/entity"
	"github.com/roach88/timeline/internal/model"
	"github.com/roach88/timeline/internal/persist"
	"github.com/roach88/timeline/internal/testutil"
	"github.com/roach88/timeline/internal/undo"
)

// editor is one running editing stack: store, history and executor.
type editor struct {
	store   *entity.Store
	history *undo.Manager
	exec    *engine.Executor
	stop    func() error
}

func newEditor(t *testing.T, svc *persist.Service, clock *testutil.ManualClock) *editor {
	t.Helper()
	ed := &editor{
		store:   entity.New(entity.WithIDGenerator(entity.NewSequenceGenerator("id"))),
		history: undo.NewManager(undo.DefaultMaxSize),
	}
	saver := NewAutosaver(svc, ed.store, ed.history, model.DefaultSessionID, clock.Now)
	ed.exec = engine.New(ed.store,
		engine.WithHistory(ed.history),
		engine.WithAutosave(saver, time.Hour),
	)
	ed.stop = ed.exec.Start(context.Background())
	t.Cleanup(func() { _ = ed.stop() })
	return ed
}

func (ed *editor) do(t *testing.T, p action.Payload) string {
	t.Helper()
	res := ed.exec.Execute(context.Background(), action.New(p, ""))
	require.True(t, res.Success, res.Error)
	return res.EntityID
}

func openService(t *testing.T, clock *testutil.ManualClock) *persist.Service {
	t.Helper()
	db, err := persist.Open(filepath.Join(t.TempDir(), "sessions.db"), persist.WithClock(clock.Now))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return persist.NewService(persist.StaticAccessor(db))
}

// seedSession edits in one editor and flushes the autosave.
func seedSession(t *testing.T, svc *persist.Service, clock *testutil.ManualClock) {
	t.Helper()
	ed := newEditor(t, svc, clock)
	pid := ed.do(t, action.AddPropertyPayload{Property: testutil.Property("1 Main St")})
	ed.do(t, action.AddEventPayload{Event: testutil.Event(pid, model.EventPurchase, testutil.Date(2018, time.June, 1))})
	ed.do(t, action.UpdateNotesPayload{Notes: "first home"})
	ed.store.SetStickyNotes([]model.StickyNote{{ID: "n1", Content: "ask about strata", Context: model.NoteContextTimeline}})
	require.NoError(t, ed.exec.Flush(context.Background()))
}

func TestCoordinator_RecentSessionAutoRestores(t *testing.T) {
	clock := testutil.NewManualClock(now)
	svc := openService(t, clock)
	seedSession(t, svc, clock)
	clock.Advance(time.Hour)

	ed := newEditor(t, svc, clock)
	coord := NewCoordinator(svc, ed.exec, ed.store, WithClock(clock.Now))

	info, strategy := coord.Decide(context.Background())
	require.True(t, info.Exists)
	assert.Equal(t, AutoRestore, strategy)
	assert.Equal(t, 1, info.Metadata.PropertyCount)
	assert.Equal(t, 1, info.Metadata.EventCount)
	assert.True(t, info.Metadata.HasNotes)

	meta, err := coord.Restore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, meta.PropertyCount)

	props, events := ed.store.Counts()
	assert.Equal(t, 1, props)
	assert.Equal(t, 1, events)
	assert.Equal(t, "first home", ed.store.Notes())
	assert.Len(t, ed.store.StickyNotes(), 1)

	// History came back with the record.
	assert.True(t, ed.exec.CanUndo())
	assert.Equal(t, "Update notes", ed.exec.UndoDescription())
	require.True(t, ed.exec.Undo(context.Background()).Success)
	assert.Empty(t, ed.store.Notes())
}

func TestCoordinator_OldSessionPrompts(t *testing.T) {
	clock := testutil.NewManualClock(now)
	svc := openService(t, clock)
	seedSession(t, svc, clock)
	clock.Advance(10 * time.Hour)

	ed := newEditor(t, svc, clock)
	coord := NewCoordinator(svc, ed.exec, ed.store, WithClock(clock.Now))

	_, strategy := coord.Decide(context.Background())
	assert.Equal(t, Prompt, strategy)
}

func TestCoordinator_NoSessionStartsFresh(t *testing.T) {
	clock := testutil.NewManualClock(now)
	svc := openService(t, clock)
	ed := newEditor(t, svc, clock)
	coord := NewCoordinator(svc, ed.exec, ed.store, WithClock(clock.Now))

	info, strategy := coord.Decide(context.Background())
	assert.False(t, info.Exists)
	assert.Equal(t, StartFresh, strategy)

	_, err := coord.Restore(context.Background())
	assert.ErrorIs(t, err, persist.ErrNotFound)
}

func TestCoordinator_Discard(t *testing.T) {
	clock := testutil.NewManualClock(now)
	svc := openService(t, clock)
	seedSession(t, svc, clock)

	ed := newEditor(t, svc, clock)
	coord := NewCoordinator(svc, ed.exec, ed.store, WithClock(clock.Now))
	_, err := coord.Restore(context.Background())
	require.NoError(t, err)
	require.True(t, ed.exec.CanUndo())

	require.NoError(t, coord.Discard(context.Background()))

	assert.False(t, coord.CheckForSavedSession(context.Background()).Exists)
	assert.False(t, ed.exec.CanUndo())
	assert.False(t, ed.exec.CanRedo())
}

func TestCoordinator_UnavailableStorage(t *testing.T) {
	clock := testutil.NewManualClock(now)
	svc := persist.NewService(func(context.Context) (*persist.DB, error) {
		return nil, errors.New("quota exceeded")
	})
	ed := newEditor(t, svc, clock)
	coord := NewCoordinator(svc, ed.exec, ed.store, WithClock(clock.Now))

	_, strategy := coord.Decide(context.Background())
	assert.Equal(t, StartFresh, strategy)

	_, err := coord.Restore(context.Background())
	assert.ErrorIs(t, err, persist.ErrNotFound)

	props, events := ed.store.Counts()
	assert.Zero(t, props)
	assert.Zero(t, events)

	// Editing still works; only the save fails.
	ed.do(t, action.AddPropertyPayload{Property: testutil.Property("2 High St")})
	assert.ErrorIs(t, ed.exec.Flush(context.Background()), persist.ErrUnavailable)
}

func TestCoordinator_DiscardClearsHistoryWhenStorageUnavailable(t *testing.T) {
	clock := testutil.NewManualClock(now)
	svc := persist.NewService(func(context.Context) (*persist.DB, error) {
		return nil, errors.New("blocked")
	})
	ed := newEditor(t, svc, clock)
	coord := NewCoordinator(svc, ed.exec, ed.store, WithClock(clock.Now))

	ed.do(t, action.AddPropertyPayload{Property: testutil.Property("2 High St")})
	require.True(t, ed.exec.CanUndo())

	err := coord.Discard(context.Background())
	assert.ErrorIs(t, err, persist.ErrUnavailable)
	assert.False(t, ed.exec.CanUndo())
	assert.False(t, ed.exec.CanRedo())
}

func TestCoordinator_RestoreWithDanglingEventLeavesStoreEmpty(t *testing.T) {
	clock := testutil.NewManualClock(now)
	svc := openService(t, clock)
	sess := testutil.SessionWith(model.DefaultSessionID, now)
	sess.Events[0].PropertyID = "missing"
	require.NoError(t, svc.Save(context.Background(), sess))

	ed := newEditor(t, svc, clock)
	coord := NewCoordinator(svc, ed.exec, ed.store, WithClock(clock.Now))

	_, err := coord.Restore(context.Background())
	require.Error(t, err)

	props, events := ed.store.Counts()
	assert.Zero(t, props)
	assert.Zero(t, events)
	assert.Empty(t, ed.store.StickyNotes())
}

func TestCoordinator_CountdownDrivesRestore(t *testing.T) {
	clock := testutil.NewManualClock(now)
	svc := openService(t, clock)
	require.NoError(t, svc.Save(context.Background(), testutil.SessionWith(model.DefaultSessionID, now)))

	ed := newEditor(t, svc, clock)
	coord := NewCoordinator(svc, ed.exec, ed.store, WithClock(clock.Now))

	ticker := testutil.NewManualTicker()
	cd := NewCountdown(2, func(ctx context.Context) error {
		_, err := coord.Restore(ctx)
		return err
	}, WithTicker(func() Ticker { return ticker }))
	go func() { _ = cd.Run(context.Background()) }()
	require.Eventually(t, func() bool { return cd.Status().Phase == PhaseCountdown },
		time.Second, 5*time.Millisecond)

	require.True(t, ticker.Tick())
	require.True(t, ticker.Tick())
	waitDone(t, cd)

	assert.Equal(t, OutcomeRestored, cd.Status().Outcome)
	props, _ := ed.store.Counts()
	assert.Equal(t, 1, props)
}

func TestCoordinator_PolicySetting(t *testing.T) {
	clock := testutil.NewManualClock(now)
	svc := openService(t, clock)
	ed := newEditor(t, svc, clock)
	coord := NewCoordinator(svc, ed.exec, ed.store)

	// Nothing stored yet.
	assert.Equal(t, DefaultPolicy(), coord.LoadPolicy(context.Background()))

	custom := Policy{AutoRestoreIfRecent: true, MaxAge: 30 * time.Minute, CountdownSeconds: 3}
	require.NoError(t, coord.SavePolicy(context.Background(), custom))

	other := NewCoordinator(svc, ed.exec, ed.store)
	assert.Equal(t, custom, other.LoadPolicy(context.Background()))
	assert.Equal(t, custom, other.Policy())
}

func TestAutosaver_Record(t *testing.T) {
	clock := testutil.NewManualClock(now)
	store := entity.New(entity.WithIDGenerator(entity.NewSequenceGenerator("id")))
	history := undo.NewManager(undo.DefaultMaxSize)
	_, err := store.AddProperty(testutil.Property("1 Main St"))
	require.NoError(t, err)
	store.SetAnalysis(&model.SavedAnalysis{Provider: "local", AnalyzedAt: now})

	rec, err := NewAutosaver(nil, store, history, "", clock.Now).Record()
	require.NoError(t, err)

	assert.Equal(t, model.DefaultSessionID, rec.ID)
	assert.Equal(t, model.SessionVersion, rec.Version)
	assert.Len(t, rec.Properties, 1)
	assert.True(t, rec.UpdatedAt.Equal(now))
	assert.True(t, rec.Metadata().HasAnalysis)
	assert.Empty(t, rec.UndoStack)
}
