package proctor

import "time"

// Timer is a cancellable one-shot callback scheduled on a Clock.
type Timer interface {
	// Stop prevents the callback from firing. Returns false if it already
	// fired or was stopped.
	Stop() bool
}

// Ticker is a repeating callback scheduled on a Clock.
type Ticker interface {
	Stop()
}

// Clock is the scheduler abstraction every sensor and timer runs on.
// Production code uses SystemClock; tests drive a manual fake so dwell
// windows and countdowns can be advanced deterministically.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
	TickFunc(d time.Duration, f func()) Ticker
}

type systemClock struct{}

// SystemClock returns a Clock backed by the runtime timers.
func SystemClock() Clock { return systemClock{} }

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return sysTimer{time.AfterFunc(d, f)}
}

func (systemClock) TickFunc(d time.Duration, f func()) Ticker {
	t := time.NewTicker(d)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-t.C:
				f()
			case <-done:
				return
			}
		}
	}()
	return &sysTicker{t: t, done: done}
}

type sysTimer struct{ t *time.Timer }

func (s sysTimer) Stop() bool { return s.t.Stop() }

type sysTicker struct {
	t    *time.Ticker
	done chan struct{}
}

func (s *sysTicker) Stop() {
	s.t.Stop()
	close(s.done)
}
