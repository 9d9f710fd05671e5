package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/comsockare/quizguard/internal/model"
	"github.com/comsockare/quizguard/internal/response"
	"github.com/comsockare/quizguard/internal/service"
	"github.com/comsockare/quizguard/internal/validator"
)

// ExamHandler serves the admin-side exam, question and result endpoints.
type ExamHandler struct {
	examService *service.ExamService
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(examService *service.ExamService) *ExamHandler {
	return &ExamHandler{examService: examService}
}

func examIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}

// ListExams godoc
// GET /api/v1/admin/exams?page=&per_page=
func (h *ExamHandler) ListExams(c *gin.Context) {
	page, perPage, offset := parsePagination(c)

	exams, total, err := h.examService.List(c.Request.Context(), perPage, offset)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, exams, buildPagination(page, perPage, total))
}

// GetExam godoc
// GET /api/v1/admin/exams/:id
func (h *ExamHandler) GetExam(c *gin.Context) {
	id, ok := examIDParam(c, "id")
	if !ok {
		return
	}

	exam, err := h.examService.Get(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}
	response.Success(c, http.StatusOK, exam)
}

// CreateExam godoc
// POST /api/v1/admin/exams
func (h *ExamHandler) CreateExam(c *gin.Context) {
	var req model.CreateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.examService.Create(c.Request.Context(), &req)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusCreated, exam)
}

// UpdateExam godoc
// PUT /api/v1/admin/exams/:id
func (h *ExamHandler) UpdateExam(c *gin.Context) {
	id, ok := examIDParam(c, "id")
	if !ok {
		return
	}

	var req model.UpdateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.examService.Update(c.Request.Context(), id, &req)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, exam)
}

// DeleteExam godoc
// DELETE /api/v1/admin/exams/:id
func (h *ExamHandler) DeleteExam(c *gin.Context) {
	id, ok := examIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.examService.Delete(c.Request.Context(), id); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "exam deleted"})
}

// ActivateExam godoc
// POST /api/v1/admin/exams/:id/activate
// Makes this exam the one students take, deactivating any other.
func (h *ExamHandler) ActivateExam(c *gin.Context) {
	id, ok := examIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.examService.Activate(c.Request.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "exam activated"})
}

// DeactivateExam godoc
// POST /api/v1/admin/exams/:id/deactivate
func (h *ExamHandler) DeactivateExam(c *gin.Context) {
	id, ok := examIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.examService.Deactivate(c.Request.Context(), id); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "exam deactivated"})
}

// ListQuestions godoc
// GET /api/v1/admin/exams/:id/questions
func (h *ExamHandler) ListQuestions(c *gin.Context) {
	id, ok := examIDParam(c, "id")
	if !ok {
		return
	}

	questions, err := h.examService.Questions(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, questions)
}

// AddQuestion godoc
// POST /api/v1/admin/exams/:id/questions
func (h *ExamHandler) AddQuestion(c *gin.Context) {
	id, ok := examIDParam(c, "id")
	if !ok {
		return
	}

	var req model.AddQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	q, err := h.examService.AddQuestion(c.Request.Context(), id, &req)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusCreated, q)
}

// UpdateQuestion godoc
// PUT /api/v1/admin/exams/:id/questions/:question_id
func (h *ExamHandler) UpdateQuestion(c *gin.Context) {
	id, ok := examIDParam(c, "id")
	if !ok {
		return
	}
	questionID, ok := examIDParam(c, "question_id")
	if !ok {
		return
	}

	var req model.UpdateQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	q, err := h.examService.ReplaceQuestion(c.Request.Context(), id, questionID, &req)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, q)
}

// DeleteQuestion godoc
// DELETE /api/v1/admin/exams/:id/questions/:question_id
func (h *ExamHandler) DeleteQuestion(c *gin.Context) {
	id, ok := examIDParam(c, "id")
	if !ok {
		return
	}
	questionID, ok := examIDParam(c, "question_id")
	if !ok {
		return
	}

	if err := h.examService.DeleteQuestion(c.Request.Context(), id, questionID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "question deleted"})
}

// GetExamResults godoc
// GET /api/v1/admin/exams/:id/results
func (h *ExamHandler) GetExamResults(c *gin.Context) {
	id, ok := examIDParam(c, "id")
	if !ok {
		return
	}

	results, err := h.examService.Results(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, results)
}
