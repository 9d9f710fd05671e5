package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/comsockare/quizguard/internal/model"
)

var ErrDuplicateResult = errors.New("result already exists for this student and exam")

// ResultRepository handles quiz results and student responses.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// Exists reports whether a result row already exists for (student, exam).
// The submission path checks this before grading.
func (r *ResultRepository) Exists(ctx context.Context, studentID int, examID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM quiz_results WHERE student_id = $1 AND exam_id = $2)`,
		studentID, examID,
	).Scan(&exists)
	return exists, err
}

// GetByStudentAndExam fetches one result row.
func (r *ResultRepository) GetByStudentAndExam(ctx context.Context, studentID int, examID uuid.UUID) (*model.QuizResult, error) {
	res := &model.QuizResult{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, student_id, exam_id, score, correct_count, total_questions, submitted_at
		 FROM quiz_results WHERE student_id = $1 AND exam_id = $2`,
		studentID, examID,
	).Scan(&res.ID, &res.StudentID, &res.ExamID, &res.Score, &res.CorrectCount,
		&res.TotalQuestions, &res.SubmittedAt)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// CreateWithResponses stores the graded result and its definitive response
// rows in one transaction. The unique (student_id, exam_id) constraint makes
// a racing duplicate submission fail here rather than double-grade.
func (r *ResultRepository) CreateWithResponses(ctx context.Context, res *model.QuizResult, responses []model.StudentResponse) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO quiz_results (student_id, exam_id, score, correct_count, total_questions)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, submitted_at`,
		res.StudentID, res.ExamID, res.Score, res.CorrectCount, res.TotalQuestions,
	).Scan(&res.ID, &res.SubmittedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateResult
		}
		return err
	}

	// The definitive grading replaces whatever the autosave worker wrote.
	if _, err := tx.Exec(ctx,
		`DELETE FROM student_responses WHERE student_id = $1 AND exam_id = $2`,
		res.StudentID, res.ExamID); err != nil {
		return err
	}

	if len(responses) > 0 {
		rows := make([][]interface{}, 0, len(responses))
		for _, resp := range responses {
			rows = append(rows, []interface{}{
				resp.StudentID, resp.ExamID, resp.QuestionID, resp.SelectedOption, resp.IsCorrect,
			})
		}
		if _, err := tx.CopyFrom(ctx,
			pgx.Identifier{"student_responses"},
			[]string{"student_id", "exam_id", "question_id", "selected_option", "is_correct"},
			pgx.CopyFromRows(rows),
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// ListByExam retrieves all results for an exam joined with student identity,
// best score first.
func (r *ResultRepository) ListByExam(ctx context.Context, examID uuid.UUID) ([]model.QuizResult, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT r.id, r.student_id, s.name, s.registration_no, r.exam_id,
		        r.score, r.correct_count, r.total_questions, r.submitted_at
		 FROM quiz_results r
		 JOIN students s ON s.id = r.student_id
		 WHERE r.exam_id = $1
		 ORDER BY r.score DESC, r.submitted_at`, examID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.QuizResult
	for rows.Next() {
		var res model.QuizResult
		if err := rows.Scan(&res.ID, &res.StudentID, &res.StudentName, &res.RegistrationNo,
			&res.ExamID, &res.Score, &res.CorrectCount, &res.TotalQuestions, &res.SubmittedAt); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

// UpsertResponse persists one incremental answer (autosave path). Submission
// later overwrites with the definitive grading.
func (r *ResultRepository) UpsertResponse(ctx context.Context, resp *model.StudentResponse) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO student_responses (student_id, exam_id, question_id, selected_option, is_correct)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (student_id, exam_id, question_id)
		 DO UPDATE SET selected_option = EXCLUDED.selected_option,
		               is_correct = EXCLUDED.is_correct,
		               answered_at = CURRENT_TIMESTAMP`,
		resp.StudentID, resp.ExamID, resp.QuestionID, resp.SelectedOption, resp.IsCorrect)
	return err
}

// DeleteResponses drops the incremental rows for (student, exam); used when
// a submission replaces them wholesale.
func (r *ResultRepository) DeleteResponses(ctx context.Context, studentID int, examID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM student_responses WHERE student_id = $1 AND exam_id = $2`,
		studentID, examID)
	return err
}
