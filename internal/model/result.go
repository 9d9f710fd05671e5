package model

import (
	"time"

	"github.com/google/uuid"
)

// QuizResult is a student's graded submission for one exam. One row per
// (student, exam); duplicate submissions are rejected.
type QuizResult struct {
	ID             uuid.UUID `json:"id"`
	StudentID      int       `json:"student_id"`
	StudentName    string    `json:"student_name,omitempty"`
	RegistrationNo string    `json:"registration_no,omitempty"`
	ExamID         uuid.UUID `json:"exam_id"`
	Score          int       `json:"score"`
	CorrectCount   int       `json:"correct_count"`
	TotalQuestions int       `json:"total_questions"`
	SubmittedAt    time.Time `json:"submitted_at"`
}

// StudentResponse is one answered question, persisted both incrementally by
// the autosave worker and definitively at submission.
type StudentResponse struct {
	ID             uuid.UUID `json:"id"`
	StudentID      int       `json:"student_id"`
	ExamID         uuid.UUID `json:"exam_id"`
	QuestionID     uuid.UUID `json:"question_id"`
	SelectedOption string    `json:"selected_option"`
	IsCorrect      bool      `json:"is_correct"`
	AnsweredAt     time.Time `json:"answered_at"`
}

// SubmitQuizRequest carries the final answer map at submission time.
// Keys are question IDs, values are option letters.
type SubmitQuizRequest struct {
	Answers map[string]string `json:"answers" binding:"required"`
}
