package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/timeline/internal/testutil"
)

type countdownRig struct {
	cd       *Countdown
	ticker   *testutil.ManualTicker
	restores atomic.Int32
	runErr   chan error
}

func startCountdown(t *testing.T, ctx context.Context, seconds int, restoreErr error) *countdownRig {
	t.Helper()
	rig := &countdownRig{ticker: testutil.NewManualTicker(), runErr: make(chan error, 1)}
	rig.cd = NewCountdown(seconds, func(context.Context) error {
		rig.restores.Add(1)
		return restoreErr
	}, WithTicker(func() Ticker { return rig.ticker }))
	go func() { rig.runErr <- rig.cd.Run(ctx) }()
	require.Eventually(t, func() bool { return rig.cd.Status().Phase == PhaseCountdown },
		time.Second, 5*time.Millisecond)
	return rig
}

func waitDone(t *testing.T, cd *Countdown) {
	t.Helper()
	select {
	case <-cd.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("countdown did not finish")
	}
}

func TestCountdown_StartsIdle(t *testing.T) {
	cd := NewCountdown(5, func(context.Context) error { return nil })

	assert.Equal(t, Status{Phase: PhaseIdle, Remaining: 5}, cd.Status())
	assert.False(t, cd.Cancel(), "cancel before start")
	assert.False(t, cd.RestoreNow(), "restore now before start")
}

func TestCountdown_DefaultSeconds(t *testing.T) {
	cd := NewCountdown(0, func(context.Context) error { return nil })
	assert.Equal(t, DefaultCountdownSeconds, cd.Status().Remaining)
}

func TestCountdown_RestoresAtZero(t *testing.T) {
	rig := startCountdown(t, context.Background(), 5, nil)

	for i := 4; i >= 1; i-- {
		require.True(t, rig.ticker.Tick())
		want := i
		require.Eventually(t, func() bool { return rig.cd.Status().Remaining == want },
			time.Second, 5*time.Millisecond)
		assert.Equal(t, PhaseCountdown, rig.cd.Status().Phase)
	}
	assert.Zero(t, rig.restores.Load())

	require.True(t, rig.ticker.Tick())
	waitDone(t, rig.cd)

	assert.Equal(t, Status{Phase: PhaseDone, Remaining: 0, Outcome: OutcomeRestored}, rig.cd.Status())
	assert.Equal(t, int32(1), rig.restores.Load())
	assert.NoError(t, <-rig.runErr)
	assert.True(t, rig.ticker.Stopped())
}

func TestCountdown_CancelPreventsRestore(t *testing.T) {
	rig := startCountdown(t, context.Background(), 5, nil)

	require.True(t, rig.ticker.Tick())
	require.True(t, rig.ticker.Tick())
	require.Eventually(t, func() bool { return rig.cd.Status().Remaining == 3 },
		time.Second, 5*time.Millisecond)

	assert.True(t, rig.cd.Cancel())
	waitDone(t, rig.cd)

	assert.Equal(t, OutcomeCancelled, rig.cd.Status().Outcome)
	assert.Zero(t, rig.restores.Load())
	assert.False(t, rig.cd.RestoreNow(), "restore after cancel is ignored")
	assert.False(t, rig.cd.Cancel(), "second cancel is ignored")
}

func TestCountdown_RestoreNowSkipsAhead(t *testing.T) {
	rig := startCountdown(t, context.Background(), 5, nil)

	assert.True(t, rig.cd.RestoreNow())
	waitDone(t, rig.cd)

	st := rig.cd.Status()
	assert.Equal(t, OutcomeRestored, st.Outcome)
	assert.Equal(t, 5, st.Remaining)
	assert.Equal(t, int32(1), rig.restores.Load())
	assert.False(t, rig.cd.Cancel(), "cancel after restore is ignored")
}

func TestCountdown_RestoreFailure(t *testing.T) {
	boom := errors.New("disk gone")
	rig := startCountdown(t, context.Background(), 1, boom)

	require.True(t, rig.ticker.Tick())
	waitDone(t, rig.cd)

	assert.Equal(t, OutcomeFailed, rig.cd.Status().Outcome)
	assert.ErrorIs(t, rig.cd.Err(), boom)
	assert.ErrorIs(t, <-rig.runErr, boom)
}

func TestCountdown_ContextCancelCancels(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	rig := startCountdown(t, ctx, 5, nil)

	cancel()
	waitDone(t, rig.cd)

	assert.Equal(t, OutcomeCancelled, rig.cd.Status().Outcome)
	assert.Zero(t, rig.restores.Load())
}

func TestCountdown_RunTwice(t *testing.T) {
	rig := startCountdown(t, context.Background(), 5, nil)

	assert.ErrorIs(t, rig.cd.Run(context.Background()), ErrCountdownStarted)
	rig.cd.Cancel()
	waitDone(t, rig.cd)
}

func TestCountdown_FirstTransitionWins(t *testing.T) {
	rig := startCountdown(t, context.Background(), 5, nil)

	var wg sync.WaitGroup
	var wins atomic.Int32
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var ok bool
			if i%2 == 0 {
				ok = rig.cd.Cancel()
			} else {
				ok = rig.cd.RestoreNow()
			}
			if ok {
				wins.Add(1)
			}
		}(i)
	}
	wg.Wait()
	waitDone(t, rig.cd)

	assert.Equal(t, int32(1), wins.Load())
	outcome := rig.cd.Status().Outcome
	if outcome == OutcomeRestored {
		assert.Equal(t, int32(1), rig.restores.Load())
	} else {
		assert.Equal(t, OutcomeCancelled, outcome)
		assert.Zero(t, rig.restores.Load())
	}
}

func TestCountdown_OnChangeSeesEveryPhase(t *testing.T) {
	var mu sync.Mutex
	var phases []Phase
	ticker := testutil.NewManualTicker()
	cd := NewCountdown(1, func(context.Context) error { return nil },
		WithTicker(func() Ticker { return ticker }),
		OnChange(func(s Status) {
			mu.Lock()
			defer mu.Unlock()
			if len(phases) == 0 || phases[len(phases)-1] != s.Phase {
				phases = append(phases, s.Phase)
			}
		}))
	go func() { _ = cd.Run(context.Background()) }()
	require.Eventually(t, func() bool { return cd.Status().Phase == PhaseCountdown },
		time.Second, 5*time.Millisecond)

	require.True(t, ticker.Tick())
	waitDone(t, cd)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Phase{PhaseCountdown, PhaseRestoring, PhaseDone}, phases)
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "countdown", PhaseCountdown.String())
	assert.Equal(t, "cancelled", OutcomeCancelled.String())
}
