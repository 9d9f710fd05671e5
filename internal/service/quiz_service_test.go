package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comsockare/quizguard/internal/model"
)

func makeQuestion(correct string, letters ...string) model.Question {
	q := model.Question{ID: uuid.New()}
	for _, l := range letters {
		q.Options = append(q.Options, model.Option{
			Letter:    l,
			IsCorrect: l == correct,
		})
	}
	return q
}

func TestGradeScoresCorrectAnswers(t *testing.T) {
	examID := uuid.New()
	q1 := makeQuestion("a", "a", "b", "c", "d")
	q2 := makeQuestion("c", "a", "b", "c", "d")
	q3 := makeQuestion("b", "a", "b", "c", "d")
	q4 := makeQuestion("d", "a", "b", "c", "d")
	questions := []model.Question{q1, q2, q3, q4}

	answers := map[string]string{
		q1.ID.String(): "a", // correct
		q2.ID.String(): "b", // wrong
		q3.ID.String(): "b", // correct
		// q4 unanswered
	}

	result, responses := grade(7, examID, questions, answers)

	assert.Equal(t, 50, result.Score)
	assert.Equal(t, 2, result.CorrectCount)
	assert.Equal(t, 4, result.TotalQuestions)
	assert.Equal(t, 7, result.StudentID)
	assert.Equal(t, examID, result.ExamID)

	// Unanswered questions produce no response row.
	require.Len(t, responses, 3)
	byQuestion := make(map[uuid.UUID]model.StudentResponse)
	for _, r := range responses {
		byQuestion[r.QuestionID] = r
	}
	assert.True(t, byQuestion[q1.ID].IsCorrect)
	assert.False(t, byQuestion[q2.ID].IsCorrect)
	assert.True(t, byQuestion[q3.ID].IsCorrect)
}

func TestGradeEmptyAnswers(t *testing.T) {
	questions := []model.Question{
		makeQuestion("a", "a", "b"),
		makeQuestion("b", "a", "b"),
	}

	result, responses := grade(1, uuid.New(), questions, map[string]string{})

	assert.Equal(t, 0, result.Score)
	assert.Equal(t, 0, result.CorrectCount)
	assert.Equal(t, 2, result.TotalQuestions)
	assert.Empty(t, responses)
}

func TestGradeAnswerForUnknownQuestionIgnored(t *testing.T) {
	q := makeQuestion("a", "a", "b")
	answers := map[string]string{
		q.ID.String():       "a",
		uuid.New().String(): "b", // not part of the exam
	}

	result, responses := grade(1, uuid.New(), []model.Question{q}, answers)

	assert.Equal(t, 100, result.Score)
	assert.Len(t, responses, 1)
}

func TestGradeScoreRoundsDown(t *testing.T) {
	questions := []model.Question{
		makeQuestion("a", "a", "b"),
		makeQuestion("a", "a", "b"),
		makeQuestion("a", "a", "b"),
	}
	answers := map[string]string{
		questions[0].ID.String(): "a",
	}

	result, _ := grade(1, uuid.New(), questions, answers)

	assert.Equal(t, 33, result.Score)
}
