package proctor

import (
	"context"

	"github.com/google/uuid"
)

// Status is a student's access state.
type Status string

const (
	StatusActive  Status = "active"
	StatusBlocked Status = "blocked"
	StatusPending Status = "pending"
)

// StudentState is the authoritative row snapshot the core reconciles against.
// It mirrors the student_details fields the core reads and writes.
type StudentState struct {
	ID            int        `json:"id"`
	Status        Status     `json:"status"`
	Violations    int        `json:"fullscreen_violations"`
	CurrentExamID *uuid.UUID `json:"current_exam_id,omitempty"`
	TimeRemaining *int       `json:"last_exam_time_remaining,omitempty"`
}

// SessionStore is the narrow row-store contract of the core. Updates are
// read-then-write at the application level; the accepted race is documented
// on Recorder.Record.
type SessionStore interface {
	// GetViolations reads the authoritative violation count.
	GetViolations(ctx context.Context, studentID int) (int, error)
	// WriteViolations persists a new count, flipping status to blocked in
	// the same update when block is true.
	WriteViolations(ctx context.Context, studentID, count int, block bool) error
	// SetStatus persists an access-status change on its own.
	SetStatus(ctx context.Context, studentID int, status Status) error
	// ResetViolations forces the persisted count back to zero.
	ResetViolations(ctx context.Context, studentID int) error
	// SaveProgress persists the remaining exam time for resume.
	SaveProgress(ctx context.Context, studentID int, examID uuid.UUID, remainingSeconds int) error
}

// AuditSink receives individual violation events for the audit trail.
// Events are fire-and-forget; only the aggregate count is authoritative.
type AuditSink interface {
	RecordEvent(ctx context.Context, studentID int, kind ViolationKind)
}

// Notifier surfaces user-visible notifications. Warn is used for the
// "N/5" levels, Terminal for the blocking one.
type Notifier interface {
	Warn(msg string)
	Terminal(msg string)
	Info(msg string)
}

// Platform abstracts the browser-side signals a session observes. The
// WebSocket bridge implements it from client reports; tests use a fake.
type Platform interface {
	IsFullscreen() bool
	IsOnline() bool
	// ViewportRatio returns viewport width and height as fractions of the
	// physical screen dimensions.
	ViewportRatio() (w, h float64)
	// RequestFullscreen asks the client to re-enter fullscreen. Best
	// effort: an error means the user must act manually.
	RequestFullscreen() error
}

// ViolationKind tags the sensor that observed a violation event.
type ViolationKind string

const (
	ViolationFullscreenExit ViolationKind = "fullscreen_exit"
	ViolationNetworkLoss    ViolationKind = "network_loss"
	ViolationInput          ViolationKind = "restricted_input"
	ViolationCursorExit     ViolationKind = "cursor_exit"
	ViolationSplitScreen    ViolationKind = "split_screen"
)

// nopAudit is used when no audit sink is configured.
type nopAudit struct{}

func (nopAudit) RecordEvent(context.Context, int, ViolationKind) {}
