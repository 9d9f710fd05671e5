package model

import (
	"time"

	"github.com/google/uuid"
)

// ViolationEvent is one audit-trail row for a detected proctoring violation.
// The aggregate counter on the student row is authoritative; these rows are
// the per-event history behind it.
type ViolationEvent struct {
	ID        uuid.UUID `json:"id"`
	StudentID int       `json:"student_id"`
	Kind      string    `json:"kind"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
