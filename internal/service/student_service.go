package service

import (
	"context"
	"fmt"

	"github.com/comsockare/quizguard/internal/model"
	"github.com/comsockare/quizguard/internal/repository"
)

// StudentService handles admin-side student account management.
type StudentService struct {
	studentRepo   *repository.StudentRepository
	violationRepo *repository.ViolationRepository
	authService   *AuthService
}

// NewStudentService creates a new StudentService.
func NewStudentService(studentRepo *repository.StudentRepository, violationRepo *repository.ViolationRepository, authService *AuthService) *StudentService {
	return &StudentService{
		studentRepo:   studentRepo,
		violationRepo: violationRepo,
		authService:   authService,
	}
}

// Get retrieves a single student.
func (s *StudentService) Get(ctx context.Context, id int) (*model.Student, error) {
	return s.studentRepo.GetByID(ctx, id)
}

// GetByRegistrationNo retrieves a student by registration number for login.
func (s *StudentService) GetByRegistrationNo(ctx context.Context, registrationNo string) (*model.Student, error) {
	return s.studentRepo.GetByRegistrationNo(ctx, registrationNo)
}

// List retrieves students with pagination and optional year filter.
func (s *StudentService) List(ctx context.Context, year *int, limit, offset int) ([]model.Student, int, error) {
	return s.studentRepo.ListPaginated(ctx, year, limit, offset)
}

// Create registers a new student account with a hashed password.
func (s *StudentService) Create(ctx context.Context, req *model.CreateStudentRequest) (*model.Student, error) {
	hash, err := s.authService.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	student := &model.Student{
		RegistrationNo: req.RegistrationNo,
		Name:           req.Name,
		Email:          req.Email,
		Year:           req.Year,
		PasswordHash:   hash,
	}
	if err := s.studentRepo.Create(ctx, student); err != nil {
		return nil, err
	}
	return student, nil
}

// Update modifies a student's identity fields; a non-empty password is
// re-hashed and replaced.
func (s *StudentService) Update(ctx context.Context, id int, req *model.UpdateStudentRequest) (*model.Student, error) {
	student, err := s.studentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	student.RegistrationNo = req.RegistrationNo
	student.Name = req.Name
	student.Email = req.Email
	student.Year = req.Year
	if err := s.studentRepo.Update(ctx, student); err != nil {
		return nil, err
	}

	if req.Password != "" {
		hash, err := s.authService.HashPassword(req.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		if err := s.studentRepo.UpdatePassword(ctx, id, hash); err != nil {
			return nil, err
		}
	}
	return student, nil
}

// Delete removes a student and tears down any live session.
func (s *StudentService) Delete(ctx context.Context, id int) error {
	if err := s.authService.ResetStudentSession(ctx, id); err != nil {
		return fmt.Errorf("reset session: %w", err)
	}
	return s.studentRepo.Delete(ctx, id)
}

// Violations retrieves a student's recent audit-trail entries.
func (s *StudentService) Violations(ctx context.Context, id, limit int) ([]model.ViolationEvent, error) {
	return s.violationRepo.ListByStudent(ctx, id, limit)
}
