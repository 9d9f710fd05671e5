package model

import (
	"time"

	"github.com/google/uuid"
)

// StudentStatus is the access state gate for taking a quiz.
type StudentStatus string

const (
	StudentStatusActive  StudentStatus = "active"
	StudentStatusBlocked StudentStatus = "blocked"
	StudentStatusPending StudentStatus = "pending"
)

// Student represents a student account with its proctoring state.
type Student struct {
	ID                    int           `json:"id"`
	RegistrationNo        string        `json:"registration_no"`
	Name                  string        `json:"name"`
	Email                 string        `json:"email"`
	Year                  int           `json:"year"`
	Status                StudentStatus `json:"status"`
	FullscreenViolations  int           `json:"fullscreen_violations"`
	CurrentExamID         *uuid.UUID    `json:"current_exam_id,omitempty"`
	LastExamTimeRemaining *int          `json:"last_exam_time_remaining,omitempty"`
	PasswordHash          string        `json:"-"`
	CreatedAt             time.Time     `json:"created_at"`
	UpdatedAt             time.Time     `json:"updated_at"`
}

// StudentLoginRequest is the payload for student authentication.
type StudentLoginRequest struct {
	RegistrationNo string `json:"registration_no" binding:"required,min=4,max=30"`
	Password       string `json:"password" binding:"required,min=4,max=128"`
}

// StudentLoginResponse is returned after successful student login.
type StudentLoginResponse struct {
	Token   string  `json:"token"`
	Student Student `json:"student"`
}

// CreateStudentRequest is the payload for creating a new student account.
type CreateStudentRequest struct {
	RegistrationNo string `json:"registration_no" binding:"required,min=4,max=30"`
	Name           string `json:"name" binding:"required,min=2,max=100"`
	Email          string `json:"email" binding:"required,email,max=255"`
	Year           int    `json:"year" binding:"required,min=2000,max=2100"`
	Password       string `json:"password" binding:"required,min=6,max=128"`
}

// UpdateStudentRequest is the payload for updating an existing student.
type UpdateStudentRequest struct {
	RegistrationNo string `json:"registration_no" binding:"required,min=4,max=30"`
	Name           string `json:"name" binding:"required,min=2,max=100"`
	Email          string `json:"email" binding:"required,email,max=255"`
	Year           int    `json:"year" binding:"required,min=2000,max=2100"`
	Password       string `json:"password" binding:"omitempty,min=6,max=128"`
}
