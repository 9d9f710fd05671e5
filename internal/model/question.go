package model

import "github.com/google/uuid"

// Question represents a single multiple-choice exam question.
type Question struct {
	ID       uuid.UUID `json:"id"`
	ExamID   uuid.UUID `json:"exam_id"`
	Text     string    `json:"text"`
	OrderNum int       `json:"order_num"`
	Options  []Option  `json:"options,omitempty"`
}

// Option is one answer choice of a question.
type Option struct {
	ID         uuid.UUID `json:"id"`
	QuestionID uuid.UUID `json:"question_id"`
	Letter     string    `json:"letter"`
	Text       string    `json:"text"`
	IsCorrect  bool      `json:"is_correct"`
}

// OptionInput is the admin payload for one answer choice.
type OptionInput struct {
	Letter    string `json:"letter" binding:"required,len=1,alpha"`
	Text      string `json:"text" binding:"required,min=1,max=1000"`
	IsCorrect bool   `json:"is_correct"`
}

// AddQuestionRequest is the payload for adding a question to an exam.
type AddQuestionRequest struct {
	Text     string        `json:"text" binding:"required,min=1,max=2000"`
	OrderNum int           `json:"order_num" binding:"min=0"`
	Options  []OptionInput `json:"options" binding:"required,min=2,max=8,dive"`
}

// UpdateQuestionRequest is the payload for replacing a question's content.
type UpdateQuestionRequest struct {
	Text     string        `json:"text" binding:"required,min=1,max=2000"`
	OrderNum int           `json:"order_num" binding:"min=0"`
	Options  []OptionInput `json:"options" binding:"required,min=2,max=8,dive"`
}
