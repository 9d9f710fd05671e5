package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/comsockare/quizguard/internal/config"
	"github.com/comsockare/quizguard/internal/model"
	"github.com/comsockare/quizguard/internal/proctor"
	"github.com/comsockare/quizguard/internal/repository"
)

// ProctorService binds the proctoring core to the row store and the Redis
// change feed. It implements proctor.SessionStore and proctor.AuditSink:
// every status or violation write is followed by a snapshot publish on the
// student's channel, which the WebSocket stream and the admin SSE monitor
// consume. Audit events are queued for the violation audit worker rather
// than written inline.
type ProctorService struct {
	studentRepo *repository.StudentRepository
	rdb         *redis.Client
	log         zerolog.Logger
}

// NewProctorService creates a new ProctorService.
func NewProctorService(studentRepo *repository.StudentRepository, rdb *redis.Client, log zerolog.Logger) *ProctorService {
	return &ProctorService{
		studentRepo: studentRepo,
		rdb:         rdb,
		log:         log.With().Str("component", "proctor_service").Logger(),
	}
}

// stateOf converts a student row into the core's snapshot type.
func stateOf(s *model.Student) proctor.StudentState {
	return proctor.StudentState{
		ID:            s.ID,
		Status:        proctor.Status(s.Status),
		Violations:    s.FullscreenViolations,
		CurrentExamID: s.CurrentExamID,
		TimeRemaining: s.LastExamTimeRemaining,
	}
}

// Snapshot fetches the current authoritative state for one student.
func (s *ProctorService) Snapshot(ctx context.Context, studentID int) (proctor.StudentState, error) {
	student, err := s.studentRepo.GetByID(ctx, studentID)
	if err != nil {
		return proctor.StudentState{}, err
	}
	return stateOf(student), nil
}

// ─── proctor.SessionStore ───────────────────────────────────────────

// GetViolations reads the authoritative violation count.
func (s *ProctorService) GetViolations(ctx context.Context, studentID int) (int, error) {
	return s.studentRepo.GetViolations(ctx, studentID)
}

// WriteViolations persists a new count (blocking in the same update when
// asked) and publishes the resulting snapshot.
func (s *ProctorService) WriteViolations(ctx context.Context, studentID, count int, block bool) error {
	if err := s.studentRepo.UpdateViolations(ctx, studentID, count, block); err != nil {
		return err
	}
	s.publishSnapshot(ctx, studentID)
	return nil
}

// SetStatus persists an access-status change and publishes the snapshot.
func (s *ProctorService) SetStatus(ctx context.Context, studentID int, status proctor.Status) error {
	if err := s.studentRepo.SetStatus(ctx, studentID, model.StudentStatus(status)); err != nil {
		return err
	}
	s.publishSnapshot(ctx, studentID)
	return nil
}

// ResetViolations zeroes the persisted count and publishes the snapshot.
func (s *ProctorService) ResetViolations(ctx context.Context, studentID int) error {
	if err := s.studentRepo.ResetViolations(ctx, studentID); err != nil {
		return err
	}
	s.publishSnapshot(ctx, studentID)
	return nil
}

// SaveProgress persists remaining exam time. No publish: progress is not
// part of the status feed.
func (s *ProctorService) SaveProgress(ctx context.Context, studentID int, examID uuid.UUID, remainingSeconds int) error {
	return s.studentRepo.SaveExamProgress(ctx, studentID, examID, remainingSeconds)
}

// ─── proctor.AuditSink ──────────────────────────────────────────────

// ViolationEventPayload is the queue message consumed by the audit worker.
type ViolationEventPayload struct {
	StudentID int    `json:"student_id"`
	Kind      string `json:"kind"`
	Detail    string `json:"detail,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// RecordEvent queues one audit-trail event. Fire-and-forget: the counter on
// the student row is authoritative, a lost audit row is only a gap in the
// history.
func (s *ProctorService) RecordEvent(ctx context.Context, studentID int, kind proctor.ViolationKind) {
	payload := ViolationEventPayload{
		StudentID: studentID,
		Kind:      string(kind),
		Timestamp: time.Now().Unix(),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Error().Err(err).Msg("marshal violation event")
		return
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistViolationsQueue, data).Err(); err != nil {
		s.log.Error().Err(err).Int("student_id", studentID).Msg("queue violation event")
	}
}

// ─── Change feed ────────────────────────────────────────────────────

// Subscribe opens the student's snapshot feed. The returned cancel function
// must be called to release the subscription.
func (s *ProctorService) Subscribe(ctx context.Context, studentID int) (<-chan proctor.StudentState, func(), error) {
	sub := s.rdb.Subscribe(ctx, config.CacheKey.StudentStatusChannel(studentID))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, fmt.Errorf("subscribe student feed: %w", err)
	}

	out := make(chan proctor.StudentState, 8)
	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			var state proctor.StudentState
			if err := json.Unmarshal([]byte(msg.Payload), &state); err != nil {
				s.log.Error().Err(err).Msg("decode student snapshot")
				continue
			}
			select {
			case out <- state:
			default:
				// Slow consumer: drop, the next snapshot supersedes this one.
			}
		}
	}()

	cancel := func() { _ = sub.Close() }
	return out, cancel, nil
}

// publishSnapshot pushes the post-write row state onto the student channel.
// Best-effort: subscribers re-fetch on attach, so a lost publish heals.
func (s *ProctorService) publishSnapshot(ctx context.Context, studentID int) {
	student, err := s.studentRepo.GetByID(ctx, studentID)
	if err != nil {
		s.log.Error().Err(err).Int("student_id", studentID).Msg("fetch snapshot for publish")
		return
	}
	data, err := json.Marshal(stateOf(student))
	if err != nil {
		s.log.Error().Err(err).Msg("marshal snapshot")
		return
	}
	if err := s.rdb.Publish(ctx, config.CacheKey.StudentStatusChannel(studentID), data).Err(); err != nil {
		s.log.Error().Err(err).Int("student_id", studentID).Msg("publish snapshot")
	}
}

// ─── Admin operations ───────────────────────────────────────────────

// Block flips a student to blocked and publishes.
func (s *ProctorService) Block(ctx context.Context, studentID int) error {
	return s.SetStatus(ctx, studentID, proctor.StatusBlocked)
}

// Unblock sets the student active and zeroes the counter in one update,
// then publishes. The session applies its reset-on-active rule on receipt.
func (s *ProctorService) Unblock(ctx context.Context, studentID int) error {
	if err := s.studentRepo.Unblock(ctx, studentID); err != nil {
		return err
	}
	s.publishSnapshot(ctx, studentID)
	return nil
}
