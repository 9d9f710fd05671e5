package proctor

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTimer(store *fakeStore, clock *fakeClock, examID uuid.UUID, durationSeconds int,
	persistedExam *uuid.UUID, persistedRemaining *int, onExpired func()) *SessionTimer {
	if onExpired == nil {
		onExpired = func() {}
	}
	return NewSessionTimer(store, clock, zerolog.Nop(), DefaultConfig(), 42, examID,
		durationSeconds, persistedExam, persistedRemaining, onExpired)
}

func TestTimerResumesFromPersistedRemaining(t *testing.T) {
	clock := newFakeClock()
	examID := uuid.New()
	remaining := 1200
	timer := newTestTimer(&fakeStore{}, clock, examID, 3600, &examID, &remaining, nil)

	assert.Equal(t, 20*time.Minute, timer.Remaining(),
		"persisted remaining wins over the full duration")
}

func TestTimerIgnoresPersistedStateOfAnotherExam(t *testing.T) {
	clock := newFakeClock()
	stale := uuid.New()
	remaining := 1200
	timer := newTestTimer(&fakeStore{}, clock, uuid.New(), 3600, &stale, &remaining, nil)

	assert.Equal(t, time.Hour, timer.Remaining())
}

func TestTimerRecomputesFromSessionStart(t *testing.T) {
	clock := newFakeClock()
	timer := newTestTimer(&fakeStore{}, clock, uuid.New(), 3600, nil, nil, nil)

	timer.Start(clock.Now())
	defer timer.Stop()
	clock.Advance(10 * time.Minute)

	assert.Equal(t, 50*time.Minute, timer.Remaining())
}

func TestTimerExcludesBlockedTime(t *testing.T) {
	clock := newFakeClock()
	timer := newTestTimer(&fakeStore{}, clock, uuid.New(), 3600, nil, nil, nil)

	timer.Start(clock.Now())
	defer timer.Stop()

	clock.Advance(10 * time.Minute)
	timer.Pause()
	clock.Advance(30 * time.Minute)
	assert.Equal(t, 50*time.Minute, timer.Remaining(), "remaining freezes while blocked")

	timer.Resume()
	clock.Advance(5 * time.Minute)
	assert.Equal(t, 45*time.Minute, timer.Remaining())
}

func TestTimerAutoSubmitFiresOnce(t *testing.T) {
	clock := newFakeClock()
	expired := 0
	timer := newTestTimer(&fakeStore{}, clock, uuid.New(), 3, nil, nil, func() { expired++ })

	timer.Start(clock.Now())
	defer timer.Stop()
	clock.Advance(10 * time.Second)

	assert.Equal(t, 1, expired, "auto-submit is one-shot")
	assert.Equal(t, time.Duration(0), timer.Remaining())
}

func TestTimerPersistsProgressPeriodically(t *testing.T) {
	clock := newFakeClock()
	store := &fakeStore{}
	examID := uuid.New()
	timer := newTestTimer(store, clock, examID, 3600, nil, nil, nil)

	timer.Start(clock.Now())
	defer timer.Stop()
	clock.Advance(30 * time.Second)

	saves := store.progressLog()
	require.Len(t, saves, 3)
	assert.Equal(t, examID, saves[0].examID)
	assert.Equal(t, 3590, saves[0].remaining)
	assert.Equal(t, 3570, saves[2].remaining)
}

func TestTimerSkipsPersistenceWhileBlocked(t *testing.T) {
	clock := newFakeClock()
	store := &fakeStore{}
	timer := newTestTimer(store, clock, uuid.New(), 3600, nil, nil, nil)

	timer.Start(clock.Now())
	defer timer.Stop()
	timer.Pause()
	clock.Advance(time.Minute)

	assert.Empty(t, store.progressLog(), "no writes while blocked")

	timer.Resume()
	clock.Advance(10 * time.Second)
	assert.NotEmpty(t, store.progressLog())
}
