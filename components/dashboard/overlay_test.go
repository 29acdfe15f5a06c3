package dashboard

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedTransition struct {
	reason string
	state  ChatOverlayState
}

type transitionRecorder struct {
	mu     sync.Mutex
	events []recordedTransition
}

func (r *transitionRecorder) record(reason string, state ChatOverlayState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedTransition{reason: reason, state: state})
}

func (r *transitionRecorder) reasons() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.reason
	}
	return out
}

func newTestOverlay(clock Clock, rec *transitionRecorder) *ChatOverlayController {
	opts := OverlayOptions{
		ExitDelay:  DefaultOverlayExitDelay,
		EnterDelay: DefaultOverlayEnterDelay,
		Clock:      clock,
	}
	if rec != nil {
		opts.OnChange = rec.record
	}
	return NewChatOverlayController(opts)
}

func TestOverlayStartsClosed(t *testing.T) {
	overlay := newTestOverlay(newManualClock(), nil)
	state := overlay.State()
	assert.Equal(t, ChatOverlayState{}, state)
	assert.Equal(t, OverlayClosed, state.Phase())
	assert.True(t, state.ShowToggle())
}

func TestOverlayOpenMountsSynchronously(t *testing.T) {
	clock := newManualClock()
	overlay := newTestOverlay(clock, nil)

	state := overlay.ToggleOpen()
	assert.True(t, state.OpenIntent)
	assert.True(t, state.Mounted)
	assert.Equal(t, OverlayOpening, state.Phase())
	assert.False(t, state.ShowToggle())

	clock.Advance(DefaultOverlayEnterDelay)
	assert.Equal(t, OverlayOpen, overlay.State().Phase())
}

func TestOverlayCloseUnmountsAfterExitDelay(t *testing.T) {
	clock := newManualClock()
	rec := &transitionRecorder{}
	overlay := newTestOverlay(clock, rec)
	overlay.ToggleOpen()
	clock.Advance(DefaultOverlayEnterDelay)

	state := overlay.ToggleOpen()
	assert.False(t, state.OpenIntent)
	assert.True(t, state.Mounted)
	assert.Equal(t, OverlayClosing, state.Phase())

	clock.Advance(DefaultOverlayExitDelay - time.Millisecond)
	assert.True(t, overlay.State().Mounted)

	clock.Advance(time.Millisecond)
	state = overlay.State()
	assert.False(t, state.Mounted)
	assert.Equal(t, OverlayClosed, state.Phase())

	assert.Equal(t, []string{
		ReasonOverlayToggle,
		ReasonOverlayEntered,
		ReasonOverlayToggle,
		ReasonOverlayUnmounted,
	}, rec.reasons())
}

func TestOverlayReopenDuringExitCancelsUnmount(t *testing.T) {
	clock := newManualClock()
	overlay := newTestOverlay(clock, nil)
	overlay.ToggleOpen()
	clock.Advance(DefaultOverlayEnterDelay)

	overlay.ToggleOpen()
	clock.Advance(100 * time.Millisecond)
	state := overlay.ToggleOpen()
	assert.True(t, state.OpenIntent)
	assert.True(t, state.Mounted)

	clock.Advance(time.Second)
	state = overlay.State()
	assert.True(t, state.OpenIntent)
	assert.True(t, state.Mounted)
	assert.Equal(t, OverlayOpen, state.Phase())
}

func TestOverlayStaleUnmountCallbackIsNoop(t *testing.T) {
	clock := newManualClock()
	overlay := newTestOverlay(clock, nil)
	overlay.ToggleOpen()

	overlay.ToggleOpen()
	unmountTimer := clock.last()
	require.NotNil(t, unmountTimer)

	overlay.ToggleOpen()
	unmountTimer.forceFire()

	state := overlay.State()
	assert.True(t, state.OpenIntent)
	assert.True(t, state.Mounted)
}

func TestOverlayCloseDuringEntryCancelsSettle(t *testing.T) {
	clock := newManualClock()
	rec := &transitionRecorder{}
	overlay := newTestOverlay(clock, rec)
	overlay.ToggleOpen()
	overlay.ToggleOpen()

	clock.Advance(DefaultOverlayExitDelay)
	assert.Equal(t, OverlayClosed, overlay.State().Phase())
	assert.NotContains(t, rec.reasons(), ReasonOverlayEntered)
}

func TestOverlaySetMaximizedIdempotent(t *testing.T) {
	clock := newManualClock()
	rec := &transitionRecorder{}
	overlay := newTestOverlay(clock, rec)
	overlay.ToggleOpen()

	first := overlay.SetMaximized(true)
	second := overlay.SetMaximized(true)
	assert.True(t, first.Maximized)
	assert.Equal(t, first, second)
	assert.Equal(t, []string{ReasonOverlayToggle, ReasonOverlayMaximize}, rec.reasons())
}

func TestOverlayMaximizedResetsOnUnmount(t *testing.T) {
	clock := newManualClock()
	overlay := newTestOverlay(clock, nil)
	overlay.ToggleOpen()
	overlay.SetMaximized(true)

	overlay.ToggleOpen()
	assert.True(t, overlay.State().Maximized)
	clock.Advance(DefaultOverlayExitDelay)
	assert.False(t, overlay.State().Maximized)

	state := overlay.ToggleOpen()
	assert.False(t, state.Maximized)
}

func TestOverlayCloseOnlyWhenOpen(t *testing.T) {
	clock := newManualClock()
	overlay := newTestOverlay(clock, nil)

	state := overlay.Close()
	assert.False(t, state.OpenIntent)
	assert.False(t, state.Mounted)

	overlay.ToggleOpen()
	state = overlay.Close()
	assert.False(t, state.OpenIntent)
	assert.True(t, state.Mounted)
}

func TestOverlayConcurrentCloseTogglesOnce(t *testing.T) {
	for round := 0; round < 50; round++ {
		clock := newManualClock()
		rec := &transitionRecorder{}
		overlay := newTestOverlay(clock, rec)
		overlay.ToggleOpen()

		start := make(chan struct{})
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				overlay.Close()
			}()
		}
		close(start)
		wg.Wait()

		state := overlay.State()
		require.False(t, state.OpenIntent, "round %d", round)
		require.Equal(t, []string{ReasonOverlayToggle, ReasonOverlayToggle}, rec.reasons(), "round %d", round)

		clock.Advance(DefaultOverlayExitDelay)
		require.False(t, overlay.State().Mounted, "round %d", round)
	}
}

func TestOverlayCloseAfterStopIsNoop(t *testing.T) {
	clock := newManualClock()
	overlay := newTestOverlay(clock, nil)
	overlay.ToggleOpen()
	overlay.Stop()

	state := overlay.Close()
	assert.True(t, state.OpenIntent)
}

func TestOverlayWidgetProps(t *testing.T) {
	clock := newManualClock()
	overlay := newTestOverlay(clock, nil)
	overlay.ToggleOpen()

	props := overlay.WidgetProps()
	assert.False(t, props.Maximized)
	props.SetMaximized(true)
	assert.True(t, overlay.State().Maximized)

	props.Toggle()
	assert.False(t, overlay.State().OpenIntent)
}

func TestOverlayStopCancelsPendingUnmount(t *testing.T) {
	clock := newManualClock()
	overlay := newTestOverlay(clock, nil)
	overlay.ToggleOpen()
	overlay.ToggleOpen()
	overlay.Stop()

	clock.Advance(time.Second)
	assert.True(t, overlay.State().Mounted)
	assert.Equal(t, overlay.State(), overlay.ToggleOpen())
}

func TestOverlayWithSystemClock(t *testing.T) {
	overlay := NewChatOverlayController(OverlayOptions{
		ExitDelay:  10 * time.Millisecond,
		EnterDelay: 10 * time.Millisecond,
	})
	overlay.ToggleOpen()
	overlay.ToggleOpen()
	assert.True(t, overlay.State().Mounted)

	require.Eventually(t, func() bool {
		return !overlay.State().Mounted
	}, time.Second, 5*time.Millisecond)
}
