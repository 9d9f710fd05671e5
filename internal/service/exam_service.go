package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/comsockare/quizguard/internal/model"
	"github.com/comsockare/quizguard/internal/repository"
)

// ExamService handles admin-side exam and question management. Every
// mutation invalidates the cached student paper so the next fetch rebuilds.
type ExamService struct {
	examRepo     *repository.ExamRepository
	questionRepo *repository.QuestionRepository
	resultRepo   *repository.ResultRepository
	quizService  *QuizService
}

// NewExamService creates a new ExamService.
func NewExamService(
	examRepo *repository.ExamRepository,
	questionRepo *repository.QuestionRepository,
	resultRepo *repository.ResultRepository,
	quizService *QuizService,
) *ExamService {
	return &ExamService{
		examRepo:     examRepo,
		questionRepo: questionRepo,
		resultRepo:   resultRepo,
		quizService:  quizService,
	}
}

// Get retrieves one exam.
func (s *ExamService) Get(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	return s.examRepo.GetByID(ctx, id)
}

// List retrieves exams newest first.
func (s *ExamService) List(ctx context.Context, limit, offset int) ([]model.Exam, int, error) {
	return s.examRepo.ListPaginated(ctx, limit, offset)
}

// Create inserts a new, inactive exam.
func (s *ExamService) Create(ctx context.Context, req *model.CreateExamRequest) (*model.Exam, error) {
	exam := &model.Exam{
		Title:           req.Title,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
	}
	if err := s.examRepo.Create(ctx, exam); err != nil {
		return nil, fmt.Errorf("create exam: %w", err)
	}
	return exam, nil
}

// Update modifies an exam's definition.
func (s *ExamService) Update(ctx context.Context, id uuid.UUID, req *model.UpdateExamRequest) (*model.Exam, error) {
	exam, err := s.examRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != "" {
		exam.Title = req.Title
	}
	if req.Description != "" {
		exam.Description = req.Description
	}
	if req.DurationMinutes > 0 {
		exam.DurationMinutes = req.DurationMinutes
	}
	if err := s.examRepo.Update(ctx, exam); err != nil {
		return nil, err
	}
	s.quizService.InvalidatePaperCache(ctx, id)
	return exam, nil
}

// Activate makes this exam the one students take, deactivating any other.
func (s *ExamService) Activate(ctx context.Context, id uuid.UUID) error {
	if err := s.examRepo.SetActive(ctx, id); err != nil {
		return err
	}
	s.quizService.InvalidatePaperCache(ctx, id)
	return nil
}

// Deactivate turns an exam off.
func (s *ExamService) Deactivate(ctx context.Context, id uuid.UUID) error {
	if err := s.examRepo.Deactivate(ctx, id); err != nil {
		return err
	}
	s.quizService.InvalidatePaperCache(ctx, id)
	return nil
}

// Delete removes an exam with its questions.
func (s *ExamService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.examRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.quizService.InvalidatePaperCache(ctx, id)
	return nil
}

// Questions retrieves an exam's questions with options.
func (s *ExamService) Questions(ctx context.Context, examID uuid.UUID) ([]model.Question, error) {
	return s.questionRepo.ListByExam(ctx, examID)
}

// AddQuestion appends one question with its options.
func (s *ExamService) AddQuestion(ctx context.Context, examID uuid.UUID, req *model.AddQuestionRequest) (*model.Question, error) {
	q := &model.Question{
		ExamID:   examID,
		Text:     req.Text,
		OrderNum: req.OrderNum,
		Options:  optionsFromInput(req.Options),
	}
	if err := s.questionRepo.Create(ctx, q); err != nil {
		return nil, err
	}
	s.quizService.InvalidatePaperCache(ctx, examID)
	return q, nil
}

// ReplaceQuestion swaps a question's text and options.
func (s *ExamService) ReplaceQuestion(ctx context.Context, examID, questionID uuid.UUID, req *model.UpdateQuestionRequest) (*model.Question, error) {
	q := &model.Question{
		ID:       questionID,
		ExamID:   examID,
		Text:     req.Text,
		OrderNum: req.OrderNum,
		Options:  optionsFromInput(req.Options),
	}
	if err := s.questionRepo.Replace(ctx, q); err != nil {
		return nil, err
	}
	s.quizService.InvalidatePaperCache(ctx, examID)
	return q, nil
}

// DeleteQuestion removes one question.
func (s *ExamService) DeleteQuestion(ctx context.Context, examID, questionID uuid.UUID) error {
	if err := s.questionRepo.Delete(ctx, questionID); err != nil {
		return err
	}
	s.quizService.InvalidatePaperCache(ctx, examID)
	return nil
}

// Results retrieves an exam's graded submissions.
func (s *ExamService) Results(ctx context.Context, examID uuid.UUID) ([]model.QuizResult, error) {
	return s.resultRepo.ListByExam(ctx, examID)
}

func optionsFromInput(inputs []model.OptionInput) []model.Option {
	options := make([]model.Option, 0, len(inputs))
	for _, in := range inputs {
		options = append(options, model.Option{
			Letter:    in.Letter,
			Text:      in.Text,
			IsCorrect: in.IsCorrect,
		})
	}
	return options
}
