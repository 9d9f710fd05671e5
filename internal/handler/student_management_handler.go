package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/comsockare/quizguard/internal/model"
	"github.com/comsockare/quizguard/internal/repository"
	"github.com/comsockare/quizguard/internal/response"
	"github.com/comsockare/quizguard/internal/service"
	"github.com/comsockare/quizguard/internal/validator"
)

// StudentManagementHandler serves the admin-side student endpoints:
// account CRUD, session resets, block/unblock and the violation history.
type StudentManagementHandler struct {
	studentService *service.StudentService
	proctorService *service.ProctorService
	authService    *service.AuthService
}

// NewStudentManagementHandler creates a new StudentManagementHandler.
func NewStudentManagementHandler(
	studentService *service.StudentService,
	proctorService *service.ProctorService,
	authService *service.AuthService,
) *StudentManagementHandler {
	return &StudentManagementHandler{
		studentService: studentService,
		proctorService: proctorService,
		authService:    authService,
	}
}

func studentIDParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return id, true
}

// ListStudents godoc
// GET /api/v1/admin/students?year=&page=&per_page=
func (h *StudentManagementHandler) ListStudents(c *gin.Context) {
	page, perPage, offset := parsePagination(c)

	var year *int
	if raw := c.Query("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
			return
		}
		year = &y
	}

	students, total, err := h.studentService.List(c.Request.Context(), year, perPage, offset)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, students, buildPagination(page, perPage, total))
}

// GetStudent godoc
// GET /api/v1/admin/students/:id
func (h *StudentManagementHandler) GetStudent(c *gin.Context) {
	id, ok := studentIDParam(c)
	if !ok {
		return
	}

	student, err := h.studentService.Get(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}
	response.Success(c, http.StatusOK, student)
}

// CreateStudent godoc
// POST /api/v1/admin/students
func (h *StudentManagementHandler) CreateStudent(c *gin.Context) {
	var req model.CreateStudentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	student, err := h.studentService.Create(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateRegistrationNo) {
			response.Fail(c, http.StatusConflict, response.ErrConflict)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusCreated, student)
}

// UpdateStudent godoc
// PUT /api/v1/admin/students/:id
func (h *StudentManagementHandler) UpdateStudent(c *gin.Context) {
	id, ok := studentIDParam(c)
	if !ok {
		return
	}

	var req model.UpdateStudentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	student, err := h.studentService.Update(c.Request.Context(), id, &req)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateRegistrationNo) {
			response.Fail(c, http.StatusConflict, response.ErrConflict)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, student)
}

// DeleteStudent godoc
// DELETE /api/v1/admin/students/:id
func (h *StudentManagementHandler) DeleteStudent(c *gin.Context) {
	id, ok := studentIDParam(c)
	if !ok {
		return
	}

	if err := h.studentService.Delete(c.Request.Context(), id); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "student deleted"})
}

// ResetStudentSession godoc
// POST /api/v1/admin/students/:id/reset-session
// Clears the single-device session lock so the student can log in again.
func (h *StudentManagementHandler) ResetStudentSession(c *gin.Context) {
	id, ok := studentIDParam(c)
	if !ok {
		return
	}

	if err := h.authService.ResetStudentSession(c.Request.Context(), id); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "session reset"})
}

// BlockStudent godoc
// POST /api/v1/admin/students/:id/block
func (h *StudentManagementHandler) BlockStudent(c *gin.Context) {
	id, ok := studentIDParam(c)
	if !ok {
		return
	}

	if _, err := h.studentService.Get(c.Request.Context(), id); err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}
	if err := h.proctorService.Block(c.Request.Context(), id); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "student blocked"})
}

// UnblockStudent godoc
// POST /api/v1/admin/students/:id/unblock
// Restores access and zeroes the violation counter in one update. The
// live session picks the change up through the status feed.
func (h *StudentManagementHandler) UnblockStudent(c *gin.Context) {
	id, ok := studentIDParam(c)
	if !ok {
		return
	}

	student, err := h.studentService.Get(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}
	if student.Status != model.StudentStatusBlocked {
		response.Fail(c, http.StatusConflict, response.ErrStudentNotBlocked)
		return
	}

	if err := h.proctorService.Unblock(c.Request.Context(), id); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "student unblocked"})
}

// GetStudentViolations godoc
// GET /api/v1/admin/students/:id/violations?limit=
func (h *StudentManagementHandler) GetStudentViolations(c *gin.Context) {
	id, ok := studentIDParam(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit < 1 || limit > 500 {
		limit = 50
	}

	events, err := h.studentService.Violations(c.Request.Context(), id, limit)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, events)
}
