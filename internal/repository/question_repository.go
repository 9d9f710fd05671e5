package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/comsockare/quizguard/internal/model"
)

// QuestionRepository handles question and option data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// ListByExam retrieves all questions for an exam with their options, ordered
// by order_num then option letter.
func (r *QuestionRepository) ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, exam_id, text, order_num
		 FROM questions WHERE exam_id = $1
		 ORDER BY order_num`, examID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.ExamID, &q.Text, &q.OrderNum); err != nil {
			return nil, err
		}
		index[q.ID] = len(questions)
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return questions, nil
	}

	optRows, err := r.pool.Query(ctx,
		`SELECT o.id, o.question_id, o.letter, o.text, o.is_correct
		 FROM options o
		 JOIN questions q ON q.id = o.question_id
		 WHERE q.exam_id = $1
		 ORDER BY o.letter`, examID,
	)
	if err != nil {
		return nil, err
	}
	defer optRows.Close()

	for optRows.Next() {
		var o model.Option
		if err := optRows.Scan(&o.ID, &o.QuestionID, &o.Letter, &o.Text, &o.IsCorrect); err != nil {
			return nil, err
		}
		if i, ok := index[o.QuestionID]; ok {
			questions[i].Options = append(questions[i].Options, o)
		}
	}
	return questions, optRows.Err()
}

// Create inserts a question with its options in one transaction.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := tx.QueryRow(ctx,
		`INSERT INTO questions (exam_id, text, order_num)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		q.ExamID, q.Text, q.OrderNum,
	).Scan(&q.ID); err != nil {
		return err
	}

	for i := range q.Options {
		o := &q.Options[i]
		o.QuestionID = q.ID
		if err := tx.QueryRow(ctx,
			`INSERT INTO options (question_id, letter, text, is_correct)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id`,
			o.QuestionID, o.Letter, o.Text, o.IsCorrect,
		).Scan(&o.ID); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// Replace swaps a question's text and options atomically.
func (r *QuestionRepository) Replace(ctx context.Context, q *model.Question) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE questions SET text = $1, order_num = $2 WHERE id = $3`,
		q.Text, q.OrderNum, q.ID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM options WHERE question_id = $1`, q.ID); err != nil {
		return err
	}
	for i := range q.Options {
		o := &q.Options[i]
		o.QuestionID = q.ID
		if err := tx.QueryRow(ctx,
			`INSERT INTO options (question_id, letter, text, is_correct)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id`,
			o.QuestionID, o.Letter, o.Text, o.IsCorrect,
		).Scan(&o.ID); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// Delete removes a question and, via cascade, its options.
func (r *QuestionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	return err
}
