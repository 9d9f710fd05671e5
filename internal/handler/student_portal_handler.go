package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comsockare/quizguard/internal/middleware"
	"github.com/comsockare/quizguard/internal/model"
	"github.com/comsockare/quizguard/internal/response"
	"github.com/comsockare/quizguard/internal/service"
	"github.com/comsockare/quizguard/internal/validator"
)

// StudentPortalHandler serves the student-facing quiz endpoints: paper
// delivery, resume state and submission. Access-status gating happens
// here; the live enforcement runs on the WebSocket stream.
type StudentPortalHandler struct {
	quizService    *service.QuizService
	studentService *service.StudentService
}

// NewStudentPortalHandler creates a new StudentPortalHandler.
func NewStudentPortalHandler(quizService *service.QuizService, studentService *service.StudentService) *StudentPortalHandler {
	return &StudentPortalHandler{
		quizService:    quizService,
		studentService: studentService,
	}
}

// currentStudent loads the caller's row and applies the status gate.
// Returns nil after writing the error response.
func (h *StudentPortalHandler) currentStudent(c *gin.Context) *model.Student {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
		return nil
	}

	student, err := h.studentService.Get(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return nil
	}

	switch student.Status {
	case model.StudentStatusBlocked:
		response.Fail(c, http.StatusForbidden, response.ErrAccountBlocked)
		return nil
	case model.StudentStatusPending:
		response.Fail(c, http.StatusForbidden, response.ErrAccountPending)
		return nil
	}
	return student
}

// GetQuiz godoc
// GET /api/v1/student/quiz
// Delivers the active exam's paper and assigns it to the student.
func (h *StudentPortalHandler) GetQuiz(c *gin.Context) {
	student := h.currentStudent(c)
	if student == nil {
		return
	}

	paper, err := h.quizService.GetPaper(c.Request.Context(), student)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoActiveQuiz):
			response.Fail(c, http.StatusNotFound, response.ErrNoActiveQuiz)
		case errors.Is(err, service.ErrNoQuestions):
			response.Fail(c, http.StatusNotFound, response.ErrNoQuestions)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}
	response.Success(c, http.StatusOK, paper)
}

// GetQuizState godoc
// GET /api/v1/student/quiz/state
// Returns saved answers and remaining time for reload recovery.
func (h *StudentPortalHandler) GetQuizState(c *gin.Context) {
	student := h.currentStudent(c)
	if student == nil {
		return
	}

	state, err := h.quizService.GetState(c.Request.Context(), student)
	if err != nil {
		if errors.Is(err, service.ErrQuizNotInProgress) {
			response.Fail(c, http.StatusNotFound, response.ErrQuizNotInProgress)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, state)
}

// SubmitQuiz godoc
// POST /api/v1/student/quiz/submit
// Grades the submitted answer map and stores the result.
func (h *StudentPortalHandler) SubmitQuiz(c *gin.Context) {
	student := h.currentStudent(c)
	if student == nil {
		return
	}

	var req model.SubmitQuizRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.quizService.Submit(c.Request.Context(), student, req.Answers)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrQuizNotInProgress):
			response.Fail(c, http.StatusNotFound, response.ErrQuizNotInProgress)
		case errors.Is(err, service.ErrAlreadySubmitted):
			response.Fail(c, http.StatusConflict, response.ErrAlreadySubmitted)
		case errors.Is(err, service.ErrNoQuestions):
			response.Fail(c, http.StatusNotFound, response.ErrNoQuestions)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}
	response.Success(c, http.StatusOK, result)
}
