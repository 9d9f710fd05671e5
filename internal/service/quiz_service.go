package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/comsockare/quizguard/internal/config"
	"github.com/comsockare/quizguard/internal/model"
	"github.com/comsockare/quizguard/internal/repository"
)

// Quiz flow errors.
var (
	ErrNoActiveQuiz      = errors.New("no quiz is available right now")
	ErrNoQuestions       = errors.New("quiz has no questions")
	ErrQuizNotInProgress = errors.New("no quiz in progress")
	ErrAlreadySubmitted  = errors.New("quiz already submitted")
)

// QuizService handles the student-facing quiz flow: paper delivery, answer
// autosave through the Redis cache and worker queue, and graded submission.
type QuizService struct {
	examRepo     *repository.ExamRepository
	questionRepo *repository.QuestionRepository
	resultRepo   *repository.ResultRepository
	studentRepo  *repository.StudentRepository
	rdb          *redis.Client
	log          zerolog.Logger
}

// NewQuizService creates a new QuizService.
func NewQuizService(
	examRepo *repository.ExamRepository,
	questionRepo *repository.QuestionRepository,
	resultRepo *repository.ResultRepository,
	studentRepo *repository.StudentRepository,
	rdb *redis.Client,
	log zerolog.Logger,
) *QuizService {
	return &QuizService{
		examRepo:     examRepo,
		questionRepo: questionRepo,
		resultRepo:   resultRepo,
		studentRepo:  studentRepo,
		rdb:          rdb,
		log:          log.With().Str("component", "quiz_service").Logger(),
	}
}

// GetActiveExam returns the single active exam, ErrNoActiveQuiz when none.
func (s *QuizService) GetActiveExam(ctx context.Context) (*model.Exam, error) {
	exam, err := s.examRepo.GetActive(ctx)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoActiveQuiz
		}
		return nil, fmt.Errorf("get active exam: %w", err)
	}
	return exam, nil
}

// GetPaper delivers the active exam's paper to a student. The paper is
// cached in Redis; a cache miss rebuilds it and also caches the
// correct-answer map for the autosave path. Fetching the paper assigns the
// exam to the student unless a matching assignment already exists, so the
// resume path keeps its persisted remaining time.
func (s *QuizService) GetPaper(ctx context.Context, student *model.Student) (*model.ExamPaper, error) {
	exam, err := s.GetActiveExam(ctx)
	if err != nil {
		return nil, err
	}

	paper, err := s.loadPaper(ctx, exam)
	if err != nil {
		return nil, err
	}
	if len(paper.Questions) == 0 {
		return nil, ErrNoQuestions
	}

	if student.CurrentExamID == nil || *student.CurrentExamID != exam.ID {
		if err := s.studentRepo.SaveExamProgress(ctx, student.ID, exam.ID, exam.DurationMinutes*60); err != nil {
			return nil, fmt.Errorf("assign exam: %w", err)
		}
	}

	return paper, nil
}

// QuizState is the resume payload: saved answers plus remaining time.
type QuizState struct {
	ExamID           uuid.UUID         `json:"exam_id"`
	Answers          map[string]string `json:"answers"`
	RemainingSeconds int               `json:"remaining_seconds"`
}

// GetState returns a student's in-progress answers and remaining time.
func (s *QuizService) GetState(ctx context.Context, student *model.Student) (*QuizState, error) {
	if student.CurrentExamID == nil {
		return nil, ErrQuizNotInProgress
	}
	examID := *student.CurrentExamID

	answers, err := s.rdb.HGetAll(ctx, config.CacheKey.StudentAnswersKey(examID.String(), student.ID)).Result()
	if err != nil {
		return nil, fmt.Errorf("get saved answers: %w", err)
	}

	remaining := 0
	if student.LastExamTimeRemaining != nil {
		remaining = *student.LastExamTimeRemaining
	}

	return &QuizState{
		ExamID:           examID,
		Answers:          answers,
		RemainingSeconds: remaining,
	}, nil
}

// AnswerPayload is the queue message consumed by the autosave worker.
type AnswerPayload struct {
	StudentID      int    `json:"student_id"`
	ExamID         string `json:"exam_id"`
	QuestionID     string `json:"question_id"`
	SelectedOption string `json:"selected_option"`
	IsCorrect      bool   `json:"is_correct"`
	Timestamp      int64  `json:"timestamp"`
}

// SaveAnswer records one answer change: synchronously into the Redis hash
// that backs reload recovery, asynchronously onto the persistence queue.
func (s *QuizService) SaveAnswer(ctx context.Context, studentID int, examID uuid.UUID, questionID uuid.UUID, option string) error {
	answersKey := config.CacheKey.StudentAnswersKey(examID.String(), studentID)
	if err := s.rdb.HSet(ctx, answersKey, questionID.String(), option).Err(); err != nil {
		return fmt.Errorf("cache answer: %w", err)
	}

	correct, err := s.rdb.HGet(ctx, config.CacheKey.ExamAnswerKey(examID.String()), questionID.String()).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Msg("answer key lookup failed, grading deferred to submission")
	}

	payload := AnswerPayload{
		StudentID:      studentID,
		ExamID:         examID.String(),
		QuestionID:     questionID.String(),
		SelectedOption: option,
		IsCorrect:      option == correct && correct != "",
		Timestamp:      time.Now().Unix(),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal answer payload: %w", err)
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistAnswersQueue, data).Err(); err != nil {
		// The cache write succeeded; the worker will miss this one but the
		// submission path regrades everything.
		s.log.Error().Err(err).Int("student_id", studentID).Msg("queue answer")
	}
	return nil
}

// Submit grades a student's quiz and stores the result. When answers is nil
// the cached answer hash is used (the auto-submit path). Duplicate
// submissions are rejected both by the pre-check and by the unique
// constraint underneath.
func (s *QuizService) Submit(ctx context.Context, student *model.Student, answers map[string]string) (*model.QuizResult, error) {
	if student.CurrentExamID == nil {
		return nil, ErrQuizNotInProgress
	}
	examID := *student.CurrentExamID

	exists, err := s.resultRepo.Exists(ctx, student.ID, examID)
	if err != nil {
		return nil, fmt.Errorf("check existing result: %w", err)
	}
	if exists {
		return nil, ErrAlreadySubmitted
	}

	answersKey := config.CacheKey.StudentAnswersKey(examID.String(), student.ID)
	if answers == nil {
		answers, err = s.rdb.HGetAll(ctx, answersKey).Result()
		if err != nil {
			return nil, fmt.Errorf("load cached answers: %w", err)
		}
	}

	questions, err := s.questionRepo.ListByExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}

	result, responses := grade(student.ID, examID, questions, answers)
	if err := s.resultRepo.CreateWithResponses(ctx, result, responses); err != nil {
		if errors.Is(err, repository.ErrDuplicateResult) {
			return nil, ErrAlreadySubmitted
		}
		return nil, fmt.Errorf("store result: %w", err)
	}

	// Post-submission cleanup, all best-effort.
	if err := s.rdb.Del(ctx, answersKey).Err(); err != nil {
		s.log.Warn().Err(err).Msg("clear answer cache")
	}
	if err := s.studentRepo.ClearExamProgress(ctx, student.ID); err != nil {
		s.log.Warn().Err(err).Msg("clear exam assignment")
	}

	s.log.Info().Int("student_id", student.ID).Str("exam_id", examID.String()).
		Int("score", result.Score).Msg("Quiz submitted")
	return result, nil
}

// grade scores an answer map against the questions' correct options.
func grade(studentID int, examID uuid.UUID, questions []model.Question, answers map[string]string) (*model.QuizResult, []model.StudentResponse) {
	correctCount := 0
	responses := make([]model.StudentResponse, 0, len(answers))

	for _, q := range questions {
		selected, answered := answers[q.ID.String()]
		if !answered {
			continue
		}
		isCorrect := false
		for _, o := range q.Options {
			if o.IsCorrect && o.Letter == selected {
				isCorrect = true
				break
			}
		}
		if isCorrect {
			correctCount++
		}
		responses = append(responses, model.StudentResponse{
			StudentID:      studentID,
			ExamID:         examID,
			QuestionID:     q.ID,
			SelectedOption: selected,
			IsCorrect:      isCorrect,
		})
	}

	score := 0
	if len(questions) > 0 {
		score = correctCount * 100 / len(questions)
	}

	return &model.QuizResult{
		StudentID:      studentID,
		ExamID:         examID,
		Score:          score,
		CorrectCount:   correctCount,
		TotalQuestions: len(questions),
	}, responses
}

// loadPaper returns the cached student-facing paper, rebuilding the cache
// (paper JSON + correct-answer hash) on a miss.
func (s *QuizService) loadPaper(ctx context.Context, exam *model.Exam) (*model.ExamPaper, error) {
	paperKey := config.CacheKey.ExamPaperKey(exam.ID.String())
	cached, err := s.rdb.Get(ctx, paperKey).Result()
	if err == nil {
		paper := &model.ExamPaper{}
		if err := json.Unmarshal([]byte(cached), paper); err == nil {
			return paper, nil
		}
		// Corrupt cache entry falls through to a rebuild.
	} else if !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("read paper cache: %w", err)
	}

	questions, err := s.questionRepo.ListByExam(ctx, exam.ID)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}

	paper := &model.ExamPaper{
		ExamID:          exam.ID,
		Title:           exam.Title,
		DurationMinutes: exam.DurationMinutes,
		Questions:       make([]model.QuestionForStudent, 0, len(questions)),
	}
	answerKey := make(map[string]string, len(questions))
	for _, q := range questions {
		sq := model.QuestionForStudent{
			ID:       q.ID,
			Text:     q.Text,
			OrderNum: q.OrderNum,
			Options:  make([]model.OptionForStudent, 0, len(q.Options)),
		}
		for _, o := range q.Options {
			sq.Options = append(sq.Options, model.OptionForStudent{Letter: o.Letter, Text: o.Text})
			if o.IsCorrect {
				answerKey[q.ID.String()] = o.Letter
			}
		}
		paper.Questions = append(paper.Questions, sq)
	}

	ttl := time.Duration(exam.DurationMinutes)*time.Minute + time.Hour
	data, err := json.Marshal(paper)
	if err != nil {
		return nil, fmt.Errorf("marshal paper: %w", err)
	}
	pipe := s.rdb.Pipeline()
	pipe.Set(ctx, paperKey, data, ttl)
	if len(answerKey) > 0 {
		keyName := config.CacheKey.ExamAnswerKey(exam.ID.String())
		pairs := make([]interface{}, 0, len(answerKey)*2)
		for k, v := range answerKey {
			pairs = append(pairs, k, v)
		}
		pipe.HSet(ctx, keyName, pairs...)
		pipe.Expire(ctx, keyName, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		// Cache population failure is not fatal; serve the built paper.
		s.log.Warn().Err(err).Msg("cache exam paper")
	}

	return paper, nil
}

// InvalidatePaperCache drops the cached paper and answer key after an admin
// edits the exam or its questions.
func (s *QuizService) InvalidatePaperCache(ctx context.Context, examID uuid.UUID) {
	pipe := s.rdb.Pipeline()
	pipe.Del(ctx, config.CacheKey.ExamPaperKey(examID.String()))
	pipe.Del(ctx, config.CacheKey.ExamAnswerKey(examID.String()))
	if _, err := pipe.Exec(ctx); err != nil {
		s.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("invalidate paper cache")
	}
}
