package proctor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRecorder(store *fakeStore, notify *fakeNotifier, clock *fakeClock, onBlocked func()) *Recorder {
	if onBlocked == nil {
		onBlocked = func() {}
	}
	return NewRecorder(store, notify, clock, zerolog.Nop(), DefaultConfig(), 42, onBlocked)
}

func TestRecorderCountsMonotonicallyUpToCeiling(t *testing.T) {
	store := &fakeStore{}
	notify := &fakeNotifier{}
	clock := newFakeClock()
	blocked := 0
	rec := newTestRecorder(store, notify, clock, func() { blocked++ })

	for i := 0; i < 5; i++ {
		rec.Record(context.Background())
		clock.Advance(2 * time.Second)
	}

	writes := store.writeLog()
	require.Len(t, writes, 5)
	for i, w := range writes {
		assert.Equal(t, i+1, w.count)
		assert.Equal(t, i+1 == 5, w.block)
	}
	assert.Equal(t, 1, blocked)
	assert.Len(t, notify.warnLog(), 4)
	assert.Len(t, notify.terminalLog(), 1)
}

func TestRecorderDebouncesWithinWindow(t *testing.T) {
	store := &fakeStore{}
	clock := newFakeClock()
	rec := newTestRecorder(store, &fakeNotifier{}, clock, nil)

	rec.Record(context.Background())
	clock.Advance(300 * time.Millisecond)
	rec.Record(context.Background())
	clock.Advance(300 * time.Millisecond)
	rec.Record(context.Background())

	assert.Len(t, store.writeLog(), 1)
	assert.Equal(t, 1, rec.Count())

	clock.Advance(time.Second)
	rec.Record(context.Background())
	assert.Len(t, store.writeLog(), 2)
}

func TestRecorderOverCeilingShortCircuits(t *testing.T) {
	store := &fakeStore{violations: 5}
	clock := newFakeClock()
	blocked := 0
	rec := newTestRecorder(store, &fakeNotifier{}, clock, func() { blocked++ })
	rec.SetCount(5)

	rec.Record(context.Background())
	clock.Advance(2 * time.Second)
	rec.Record(context.Background())

	assert.Empty(t, store.writeLog())
	assert.Equal(t, 5, rec.Count())
	assert.Equal(t, 2, blocked)
}

func TestRecorderFifthViolationBlocksInSameWrite(t *testing.T) {
	store := &fakeStore{violations: 4}
	notify := &fakeNotifier{}
	clock := newFakeClock()
	blocked := 0
	rec := newTestRecorder(store, notify, clock, func() { blocked++ })
	rec.SetCount(4)

	rec.Record(context.Background())

	writes := store.writeLog()
	require.Len(t, writes, 1)
	assert.Equal(t, violationWrite{count: 5, block: true}, writes[0])
	assert.Equal(t, 1, blocked)
	require.Len(t, notify.terminalLog(), 1)
	assert.Contains(t, notify.terminalLog()[0], "blocked")
}

func TestRecorderFreshCountClampsAtCeiling(t *testing.T) {
	// A stale local count paired with a server row already at the ceiling
	// must not write past it.
	store := &fakeStore{violations: 5}
	clock := newFakeClock()
	blocked := 0
	rec := newTestRecorder(store, &fakeNotifier{}, clock, func() { blocked++ })
	rec.SetCount(2)

	rec.Record(context.Background())

	writes := store.writeLog()
	require.Len(t, writes, 1)
	assert.Equal(t, violationWrite{count: 5, block: true}, writes[0])
	assert.Equal(t, 5, rec.Count())
	assert.Equal(t, 1, blocked)
}

func TestRecorderStoreErrorsLeaveStateUntouched(t *testing.T) {
	clock := newFakeClock()

	store := &fakeStore{getErr: errors.New("connection refused")}
	rec := newTestRecorder(store, &fakeNotifier{}, clock, nil)
	rec.Record(context.Background())
	assert.Equal(t, 0, rec.Count())
	assert.Empty(t, store.writeLog())

	store = &fakeStore{writeErr: errors.New("connection refused")}
	rec = newTestRecorder(store, &fakeNotifier{}, clock, nil)
	rec.Record(context.Background())
	assert.Equal(t, 0, rec.Count())

	// A failed recording does not consume the debounce window.
	store.mu.Lock()
	store.writeErr = nil
	store.mu.Unlock()
	rec.Record(context.Background())
	assert.Equal(t, 1, rec.Count())
}

func TestRecorderZeroStudentIsNoop(t *testing.T) {
	store := &fakeStore{}
	rec := NewRecorder(store, &fakeNotifier{}, newFakeClock(), zerolog.Nop(), DefaultConfig(), 0, func() {
		t.Fatal("onBlocked must not fire for an unidentified student")
	})
	rec.Record(context.Background())
	assert.Empty(t, store.writeLog())
}
