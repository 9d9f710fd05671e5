package proctor

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// fakeClock is a manually driven scheduler. Advance moves time forward and
// fires due callbacks in deadline order, so countdowns and dwell windows
// run deterministically.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	c        *fakeClock
	when     time.Time
	interval time.Duration // zero for one-shots
	fn       func()
	stopped  bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{c: c, when: c.now.Add(d), fn: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) TickFunc(d time.Duration, f func()) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{c: c, when: c.now.Add(d), interval: d, fn: f}
	c.timers = append(c.timers, t)
	return fakeTicker{t}
}

// fakeTicker adapts fakeTimer's Stop() bool to the Ticker interface's Stop().
type fakeTicker struct {
	t *fakeTimer
}

func (ft fakeTicker) Stop() {
	ft.t.Stop()
}

// Advance runs the clock forward. Callbacks may schedule further timers;
// anything falling due before the target fires too.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	for {
		var next *fakeTimer
		for _, t := range c.timers {
			if t.stopped || t.when.After(target) {
				continue
			}
			if next == nil || t.when.Before(next.when) {
				next = t
			}
		}
		if next == nil {
			break
		}
		if next.when.After(c.now) {
			c.now = next.when
		}
		if next.interval > 0 {
			next.when = next.when.Add(next.interval)
		} else {
			next.stopped = true
		}
		fn := next.fn
		c.mu.Unlock()
		fn()
		c.mu.Lock()
	}
	c.now = target
	c.mu.Unlock()
}

func (t *fakeTimer) Stop() bool {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	if t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// fakeStore implements SessionStore in memory with error injection.
type fakeStore struct {
	mu         sync.Mutex
	violations int
	getErr     error
	writeErr   error
	writes     []violationWrite
	statusSets []Status
	resets     int
	progress   []progressSave
}

type violationWrite struct {
	count int
	block bool
}

type progressSave struct {
	examID    uuid.UUID
	remaining int
}

func (f *fakeStore) GetViolations(_ context.Context, _ int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return 0, f.getErr
	}
	return f.violations, nil
}

func (f *fakeStore) WriteViolations(_ context.Context, _, count int, block bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.violations = count
	f.writes = append(f.writes, violationWrite{count: count, block: block})
	return nil
}

func (f *fakeStore) SetStatus(_ context.Context, _ int, status Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusSets = append(f.statusSets, status)
	return nil
}

func (f *fakeStore) ResetViolations(context.Context, int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.violations = 0
	f.resets++
	return nil
}

func (f *fakeStore) SaveProgress(_ context.Context, _ int, examID uuid.UUID, remaining int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.progress = append(f.progress, progressSave{examID: examID, remaining: remaining})
	return nil
}

func (f *fakeStore) writeLog() []violationWrite {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]violationWrite(nil), f.writes...)
}

func (f *fakeStore) resetCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resets
}

func (f *fakeStore) progressLog() []progressSave {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]progressSave(nil), f.progress...)
}

// fakeNotifier records every user-facing message by level.
type fakeNotifier struct {
	mu        sync.Mutex
	warns     []string
	terminals []string
	infos     []string
}

func (f *fakeNotifier) Warn(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.warns = append(f.warns, msg)
}

func (f *fakeNotifier) Terminal(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.terminals = append(f.terminals, msg)
}

func (f *fakeNotifier) Info(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.infos = append(f.infos, msg)
}

func (f *fakeNotifier) warnLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.warns...)
}

func (f *fakeNotifier) terminalLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.terminals...)
}

func (f *fakeNotifier) infoLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.infos...)
}

// fakePlatform implements Platform with settable state.
type fakePlatform struct {
	mu          sync.Mutex
	fullscreen  bool
	online      bool
	widthRatio  float64
	heightRatio float64
	requestErr  error
	requests    int
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{fullscreen: true, online: true, widthRatio: 1, heightRatio: 1}
}

func (f *fakePlatform) IsFullscreen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fullscreen
}

func (f *fakePlatform) IsOnline() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.online
}

func (f *fakePlatform) ViewportRatio() (float64, float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.widthRatio, f.heightRatio
}

func (f *fakePlatform) RequestFullscreen() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests++
	if f.requestErr != nil {
		return f.requestErr
	}
	f.fullscreen = true
	return nil
}

func (f *fakePlatform) setFullscreen(v bool) {
	f.mu.Lock()
	f.fullscreen = v
	f.mu.Unlock()
}

func (f *fakePlatform) setRatio(w, h float64) {
	f.mu.Lock()
	f.widthRatio = w
	f.heightRatio = h
	f.mu.Unlock()
}

// fakeAudit records audit events per kind.
type fakeAudit struct {
	mu    sync.Mutex
	kinds []ViolationKind
}

func (f *fakeAudit) RecordEvent(_ context.Context, _ int, kind ViolationKind) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kinds = append(f.kinds, kind)
}

func (f *fakeAudit) kindLog() []ViolationKind {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ViolationKind(nil), f.kinds...)
}
