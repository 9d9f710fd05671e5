package repository

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/comsockare/quizguard/internal/model"
)

var ErrDuplicateRegistrationNo = errors.New("student with this registration number already exists")

// StudentRepository handles student data access, including the proctoring
// columns (status, fullscreen_violations, exam progress).
type StudentRepository struct {
	pool *pgxpool.Pool
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

const studentColumns = `id, registration_no, name, email, year, status, fullscreen_violations,
	current_exam_id, last_exam_time_remaining, password_hash, created_at, updated_at`

func scanStudent(row interface{ Scan(...any) error }) (*model.Student, error) {
	s := &model.Student{}
	err := row.Scan(&s.ID, &s.RegistrationNo, &s.Name, &s.Email, &s.Year, &s.Status,
		&s.FullscreenViolations, &s.CurrentExamID, &s.LastExamTimeRemaining,
		&s.PasswordHash, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetByID retrieves a student by ID.
func (r *StudentRepository) GetByID(ctx context.Context, id int) (*model.Student, error) {
	return scanStudent(r.pool.QueryRow(ctx,
		`SELECT `+studentColumns+` FROM students WHERE id = $1`, id))
}

// GetByRegistrationNo retrieves a student by their unique registration number.
func (r *StudentRepository) GetByRegistrationNo(ctx context.Context, registrationNo string) (*model.Student, error) {
	return scanStudent(r.pool.QueryRow(ctx,
		`SELECT `+studentColumns+` FROM students WHERE registration_no = $1`, registrationNo))
}

// ListPaginated retrieves students with pagination and optional year filter.
func (r *StudentRepository) ListPaginated(ctx context.Context, year *int, limit, offset int) ([]model.Student, int, error) {
	countQuery := `SELECT COUNT(*) FROM students`
	var countArgs []interface{}
	if year != nil {
		countQuery += ` WHERE year = $1`
		countArgs = append(countArgs, *year)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + studentColumns + ` FROM students`
	var args []interface{}
	argIdx := 1

	if year != nil {
		query += ` WHERE year = $1`
		args = append(args, *year)
		argIdx++
	}

	query += ` ORDER BY name LIMIT $` + strconv.Itoa(argIdx) + ` OFFSET $` + strconv.Itoa(argIdx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var students []model.Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, 0, err
		}
		students = append(students, *s)
	}
	return students, total, rows.Err()
}

// Create inserts a new student. New accounts start active with a clean slate.
func (r *StudentRepository) Create(ctx context.Context, s *model.Student) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO students (registration_no, name, email, year, status, password_hash)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`,
		s.RegistrationNo, s.Name, s.Email, s.Year, model.StudentStatusActive, s.PasswordHash,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateRegistrationNo
		}
		return err
	}
	s.Status = model.StudentStatusActive
	return nil
}

// Update modifies a student's basic info (excluding password and proctoring state).
func (r *StudentRepository) Update(ctx context.Context, s *model.Student) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE students SET registration_no = $1, name = $2, email = $3, year = $4, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $5`,
		s.RegistrationNo, s.Name, s.Email, s.Year, s.ID,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateRegistrationNo
		}
		return err
	}
	return nil
}

// UpdatePassword updates a student's password hash.
func (r *StudentRepository) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE students SET password_hash = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		passwordHash, id,
	)
	return err
}

// Delete removes a student by ID.
func (r *StudentRepository) Delete(ctx context.Context, id int) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM students WHERE id = $1`, id)
	return err
}

// ─── Proctoring state ───────────────────────────────────────────────

// GetViolations reads the authoritative violation count.
func (r *StudentRepository) GetViolations(ctx context.Context, id int) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT fullscreen_violations FROM students WHERE id = $1`, id,
	).Scan(&count)
	return count, err
}

// UpdateViolations persists a new violation count; when block is true the
// status flips to blocked in the same UPDATE so the two can never diverge.
func (r *StudentRepository) UpdateViolations(ctx context.Context, id, count int, block bool) error {
	if block {
		_, err := r.pool.Exec(ctx,
			`UPDATE students SET fullscreen_violations = $1, status = $2, updated_at = CURRENT_TIMESTAMP
			 WHERE id = $3`,
			count, model.StudentStatusBlocked, id)
		return err
	}
	_, err := r.pool.Exec(ctx,
		`UPDATE students SET fullscreen_violations = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		count, id)
	return err
}

// SetStatus persists an access-status change.
func (r *StudentRepository) SetStatus(ctx context.Context, id int, status model.StudentStatus) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE students SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		status, id)
	return err
}

// ResetViolations forces the persisted count back to zero.
func (r *StudentRepository) ResetViolations(ctx context.Context, id int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE students SET fullscreen_violations = 0, updated_at = CURRENT_TIMESTAMP WHERE id = $1`,
		id)
	return err
}

// Unblock sets the student active and zeroes the counter in one UPDATE.
func (r *StudentRepository) Unblock(ctx context.Context, id int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE students SET status = $1, fullscreen_violations = 0, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $2`,
		model.StudentStatusActive, id)
	return err
}

// SaveExamProgress persists the exam assignment and remaining seconds for resume.
func (r *StudentRepository) SaveExamProgress(ctx context.Context, id int, examID uuid.UUID, remainingSeconds int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE students SET current_exam_id = $1, last_exam_time_remaining = $2, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $3`,
		examID, remainingSeconds, id)
	return err
}

// ClearExamProgress drops the exam assignment after a submission.
func (r *StudentRepository) ClearExamProgress(ctx context.Context, id int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE students SET current_exam_id = NULL, last_exam_time_remaining = NULL, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $1`,
		id)
	return err
}
