package proctor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionEventLog struct {
	mu           sync.Mutex
	blocked      int
	unblocked    int
	disqualified []string
	autoSubmits  int
	states       []StudentState
}

func (l *sessionEventLog) events() SessionEvents {
	return SessionEvents{
		StateChanged: func(s StudentState) {
			l.mu.Lock()
			l.states = append(l.states, s)
			l.mu.Unlock()
		},
		Blocked: func() {
			l.mu.Lock()
			l.blocked++
			l.mu.Unlock()
		},
		Unblocked: func() {
			l.mu.Lock()
			l.unblocked++
			l.mu.Unlock()
		},
		Disqualified: func(reason string) {
			l.mu.Lock()
			l.disqualified = append(l.disqualified, reason)
			l.mu.Unlock()
		},
		AutoSubmit: func() {
			l.mu.Lock()
			l.autoSubmits++
			l.mu.Unlock()
		},
	}
}

func (l *sessionEventLog) snapshot() (blocked, unblocked int, disqualified []string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.blocked, l.unblocked, append([]string(nil), l.disqualified...)
}

type sessionFixture struct {
	store    *fakeStore
	notify   *fakeNotifier
	platform *fakePlatform
	clock    *fakeClock
	audit    *fakeAudit
	log      *sessionEventLog
	session  *Session
}

func newSessionFixture(t *testing.T, student StudentState, exam *ExamInfo) *sessionFixture {
	t.Helper()
	f := &sessionFixture{
		store:    &fakeStore{violations: student.Violations},
		notify:   &fakeNotifier{},
		platform: newFakePlatform(),
		clock:    newFakeClock(),
		audit:    &fakeAudit{},
		log:      &sessionEventLog{},
	}
	start := time.Time{}
	if exam != nil {
		start = f.clock.Now()
	}
	f.session = NewSession(SessionParams{
		Store:        f.store,
		Audit:        f.audit,
		Notifier:     f.notify,
		Platform:     f.platform,
		Clock:        f.clock,
		Log:          zerolog.Nop(),
		Config:       DefaultConfig(),
		Student:      student,
		Exam:         exam,
		SessionStart: start,
		Events:       f.log.events(),
	})
	t.Cleanup(f.session.Close)
	return f
}

func TestSessionBlocksAtCeiling(t *testing.T) {
	exam := &ExamInfo{ID: uuid.New(), DurationSeconds: 3600}
	f := newSessionFixture(t, StudentState{ID: 7, Status: StatusActive}, exam)
	f.session.Start(context.Background())

	for i := 0; i < 5; i++ {
		f.session.RecordViolation(context.Background())
		f.clock.Advance(2 * time.Second)
	}

	writes := f.store.writeLog()
	require.Len(t, writes, 5)
	assert.Equal(t, violationWrite{count: 5, block: true}, writes[4])
	assert.Equal(t, StatusBlocked, f.session.Status())

	blocked, _, _ := f.log.snapshot()
	assert.Equal(t, 1, blocked)

	// Sensors are disarmed: further gestures are suppressed but not counted.
	f.session.HandleContextMenu(context.Background())
	f.clock.Advance(2 * time.Second)
	assert.Len(t, f.store.writeLog(), 5)

	// The exam clock freezes while blocked.
	before := f.session.Remaining()
	f.clock.Advance(5 * time.Minute)
	assert.Equal(t, before, f.session.Remaining())
}

func TestSessionOverCeilingReSurfacesBlockedScreen(t *testing.T) {
	f := newSessionFixture(t, StudentState{ID: 7, Status: StatusActive}, nil)
	f.session.Start(context.Background())

	for i := 0; i < 5; i++ {
		f.session.RecordViolation(context.Background())
		f.clock.Advance(2 * time.Second)
	}
	blocked, _, _ := f.log.snapshot()
	require.Equal(t, 1, blocked)

	f.session.RecordViolation(context.Background())
	blocked, _, _ = f.log.snapshot()
	assert.Equal(t, 2, blocked, "over-ceiling call re-fires the blocked event without a write")
	assert.Len(t, f.store.writeLog(), 5)
}

func TestSessionUnblockResetsViolations(t *testing.T) {
	f := newSessionFixture(t, StudentState{ID: 7, Status: StatusBlocked, Violations: 5}, nil)
	f.session.Start(context.Background())

	// Administrator unblocks; the racing write left violations at 2.
	f.session.ApplySnapshot(context.Background(), StudentState{ID: 7, Status: StatusActive, Violations: 2})

	assert.Equal(t, StatusActive, f.session.Status())
	assert.Zero(t, f.session.Violations())
	assert.Equal(t, 1, f.store.resetCount(), "stale server count needs a corrective write")

	_, unblocked, _ := f.log.snapshot()
	assert.Equal(t, 1, unblocked)

	// The state pushed to the client reflects the reset.
	f.log.mu.Lock()
	last := f.log.states[len(f.log.states)-1]
	f.log.mu.Unlock()
	assert.Zero(t, last.Violations)

	// Fullscreen re-entry happens after the settle delay.
	f.clock.Advance(time.Second)
	require.NotEmpty(t, f.notify.infoLog())
	assert.Contains(t, f.notify.infoLog()[0], "unblocked")
}

func TestSessionUnblockWithCleanServerCountSkipsWrite(t *testing.T) {
	f := newSessionFixture(t, StudentState{ID: 7, Status: StatusBlocked, Violations: 5}, nil)
	f.session.Start(context.Background())

	f.session.ApplySnapshot(context.Background(), StudentState{ID: 7, Status: StatusActive, Violations: 0})

	assert.Zero(t, f.store.resetCount(), "no corrective write when the server is already at zero")
	assert.Zero(t, f.session.Violations())
}

func TestSessionUnblockFullscreenFailureFallsBackToPrompt(t *testing.T) {
	f := newSessionFixture(t, StudentState{ID: 7, Status: StatusBlocked}, nil)
	f.session.Start(context.Background())
	f.platform.mu.Lock()
	f.platform.requestErr = errors.New("permission denied")
	f.platform.mu.Unlock()

	f.session.ApplySnapshot(context.Background(), StudentState{ID: 7, Status: StatusActive})
	f.clock.Advance(time.Second)

	require.NotEmpty(t, f.notify.infoLog())
	assert.Contains(t, f.notify.infoLog()[0], "manually")
}

func TestSessionFullscreenTimeoutDisqualifies(t *testing.T) {
	f := newSessionFixture(t, StudentState{ID: 7, Status: StatusActive}, nil)
	f.platform.setFullscreen(false)
	f.session.Start(context.Background())

	f.session.HandleFullscreenChange(context.Background())
	f.clock.Advance(45 * time.Second)

	assert.Equal(t, StatusBlocked, f.session.Status())
	assert.Equal(t, []Status{StatusBlocked}, f.store.statusSets)

	blocked, _, disqualified := f.log.snapshot()
	assert.Equal(t, 1, blocked)
	require.Len(t, disqualified, 1)
	assert.Contains(t, disqualified[0], "fullscreen")
	require.NotEmpty(t, f.notify.terminalLog())
	assert.Contains(t, f.notify.terminalLog()[0], "terminated")
}

func TestSessionNetworkTimeoutDisqualifies(t *testing.T) {
	f := newSessionFixture(t, StudentState{ID: 7, Status: StatusActive}, nil)
	f.session.Start(context.Background())

	f.session.HandleConnectivity(context.Background(), false)
	f.clock.Advance(45 * time.Second)

	assert.Equal(t, StatusBlocked, f.session.Status())
	_, _, disqualified := f.log.snapshot()
	require.Len(t, disqualified, 1)
	assert.Contains(t, disqualified[0], "disconnected")
}

func TestSessionPendingSnapshotDisarms(t *testing.T) {
	f := newSessionFixture(t, StudentState{ID: 7, Status: StatusActive}, nil)
	f.session.Start(context.Background())

	f.session.ApplySnapshot(context.Background(), StudentState{ID: 7, Status: StatusPending})

	f.session.HandleContextMenu(context.Background())
	f.clock.Advance(2 * time.Second)
	assert.Empty(t, f.store.writeLog(), "pending sessions do not collect violations")
}

func TestSessionStartResetsStaleActiveCount(t *testing.T) {
	f := newSessionFixture(t, StudentState{ID: 7, Status: StatusActive, Violations: 3}, nil)
	f.session.Start(context.Background())

	assert.Zero(t, f.session.Violations())
	assert.Equal(t, 1, f.store.resetCount())
}

func TestSessionAuditTagsSensorKinds(t *testing.T) {
	f := newSessionFixture(t, StudentState{ID: 7, Status: StatusActive}, nil)
	f.session.Start(context.Background())

	f.session.HandleContextMenu(context.Background())
	f.clock.Advance(2 * time.Second)

	f.session.HandlePointer(context.Background(), false)
	f.clock.Advance(3 * time.Second)

	kinds := f.audit.kindLog()
	require.Len(t, kinds, 2)
	assert.Equal(t, ViolationInput, kinds[0])
	assert.Equal(t, ViolationCursorExit, kinds[1])
}

func TestSessionAutoSubmitOnExhaustedBudget(t *testing.T) {
	examID := uuid.New()
	remaining := 3
	f := newSessionFixture(t, StudentState{
		ID:            7,
		Status:        StatusActive,
		CurrentExamID: &examID,
		TimeRemaining: &remaining,
	}, &ExamInfo{ID: examID, DurationSeconds: 3600})
	f.session.Start(context.Background())

	f.clock.Advance(10 * time.Second)

	f.log.mu.Lock()
	autoSubmits := f.log.autoSubmits
	f.log.mu.Unlock()
	assert.Equal(t, 1, autoSubmits)
	assert.Equal(t, time.Duration(0), f.session.Remaining())
}
