package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/aulalink/exercise-service/internal/cache"
	"github.com/aulalink/exercise-service/internal/events"
	"github.com/aulalink/exercise-service/internal/grading"
	"github.com/aulalink/exercise-service/internal/models"
	"github.com/aulalink/exercise-service/internal/repositories"
	"github.com/aulalink/exercise-service/internal/utils"
)

// GradingService applies manual grades to submission answers and keeps
// the graded state of each submission consistent.
type GradingService interface {
	// GradeSubmission records assigned scores for the given answers.
	// Answers left ungraded that carry an auto score default to it, so
	// a grading pass only has to touch the manual kinds.
	GradeSubmission(ctx context.Context, submissionID uint, req *GradeSubmissionRequest, graderID string) (*GradingResult, error)

	GetOverview(ctx context.Context, exerciseID uint, filters repositories.SubmissionFilters) (*GradingOverview, error)

	// SetOptionWeight adjusts the stored weight of a single option for
	// grader-defined scoring schemes.
	SetOptionWeight(ctx context.Context, questionID, optionID uint, score float64) error
}

type gradingService struct {
	repo      repositories.Repository
	cache     cache.CacheService
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *utils.Validator
}

func NewGradingService(repo repositories.Repository, cache cache.CacheService, publisher events.EventPublisher, logger *slog.Logger, validator *utils.Validator) GradingService {
	return &gradingService{
		repo:      repo,
		cache:     cache,
		publisher: publisher,
		logger:    logger,
		validator: validator,
	}
}

// ===== REQUEST / RESPONSE TYPES =====

type AnswerGradeInput struct {
	AnswerID uint     `json:"answer_id" validate:"required"`
	Score    *float64 `json:"score"`
}

type GradeSubmissionRequest struct {
	Grades []AnswerGradeInput `json:"grades" validate:"required,min=1,dive"`
}

type GradingResult struct {
	SubmissionID uint      `json:"submission_id"`
	ExerciseID   uint      `json:"exercise_id"`
	StudentID    string    `json:"student_id"`
	IsGraded     bool      `json:"is_graded"`
	TotalScore   float64   `json:"total_score"`
	MaxScore     float64   `json:"max_score"`
	GradedAt     time.Time `json:"graded_at"`
}

type GradingOverviewRow struct {
	SubmissionID uint      `json:"submission_id"`
	StudentID    string    `json:"student_id"`
	SubmittedAt  time.Time `json:"submitted_at"`
	IsGraded     bool      `json:"is_graded"`
}

type GradingOverview struct {
	ExerciseID  uint                          `json:"exercise_id"`
	Stats       *repositories.SubmissionStats `json:"stats"`
	Submissions []GradingOverviewRow          `json:"submissions"`
	Total       int64                         `json:"total"`
}

// ===== OPERATIONS =====

func (s *gradingService) GradeSubmission(ctx context.Context, submissionID uint, req *GradeSubmissionRequest, graderID string) (*GradingResult, error) {
	s.logger.Info("Grading submission", "submission_id", submissionID, "grader_id", graderID)

	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}
	for _, g := range req.Grades {
		if g.Score != nil && (math.IsNaN(*g.Score) || math.IsInf(*g.Score, 0)) {
			return nil, fmt.Errorf("%w: answer %d", ErrGradingInvalidScore, g.AnswerID)
		}
	}

	submission, err := s.repo.Submission().GetByIDWithAnswers(ctx, submissionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	answers := make(map[uint]*models.SubmissionAnswer, len(submission.Answers))
	for i := range submission.Answers {
		answers[submission.Answers[i].ID] = &submission.Answers[i]
	}

	grades := make([]repositories.AnswerGrade, 0, len(req.Grades))
	for _, g := range req.Grades {
		answer, ok := answers[g.AnswerID]
		if !ok {
			return nil, fmt.Errorf("%w: answer %d", ErrAnswerNotFound, g.AnswerID)
		}
		answer.AssignedScore = g.Score
		grades = append(grades, repositories.AnswerGrade{AnswerID: g.AnswerID, Score: g.Score})
	}

	// Untouched answers with an auto score inherit it as the assigned
	// score; open-ended and cloze answers stay pending until a grader
	// scores them explicitly.
	for i := range submission.Answers {
		a := &submission.Answers[i]
		if a.AssignedScore == nil && a.AutoScore != nil {
			a.AssignedScore = a.AutoScore
			grades = append(grades, repositories.AnswerGrade{AnswerID: a.ID, Score: a.AutoScore})
		}
	}

	graded := grading.FullyGraded(submission.Answers)
	if err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.Submission().UpdateAnswerGrades(ctx, grades); err != nil {
			return err
		}
		return tx.Submission().SetGraded(ctx, submissionID, graded)
	}); err != nil {
		return nil, fmt.Errorf("failed to apply grades: %w", err)
	}

	result := &GradingResult{
		SubmissionID: submissionID,
		ExerciseID:   submission.ExerciseID,
		StudentID:    submission.StudentID,
		IsGraded:     graded,
		TotalScore:   grading.Total(submission.Answers),
		MaxScore:     maxScore(submission.Answers),
		GradedAt:     time.Now(),
	}

	s.logger.Info("Grades applied",
		"submission_id", submissionID,
		"graded_answers", len(grades),
		"is_graded", graded)

	if graded {
		s.publishEvent(ctx, events.NewSubmissionGradedEvent(
			submissionID, submission.ExerciseID, submission.StudentID,
			result.TotalScore, result.MaxScore, graderID))
	}
	return result, nil
}

func (s *gradingService) GetOverview(ctx context.Context, exerciseID uint, filters repositories.SubmissionFilters) (*GradingOverview, error) {
	if _, err := s.repo.Exercise().GetByID(ctx, exerciseID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExerciseNotFound
		}
		return nil, fmt.Errorf("failed to get exercise: %w", err)
	}

	stats, err := s.repo.Submission().GetStats(ctx, exerciseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get submission stats: %w", err)
	}

	submissions, total, err := s.repo.Submission().GetByExercise(ctx, exerciseID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}

	overview := &GradingOverview{
		ExerciseID:  exerciseID,
		Stats:       stats,
		Submissions: make([]GradingOverviewRow, 0, len(submissions)),
		Total:       total,
	}
	for _, sub := range submissions {
		overview.Submissions = append(overview.Submissions, GradingOverviewRow{
			SubmissionID: sub.ID,
			StudentID:    sub.StudentID,
			SubmittedAt:  sub.SubmittedAt,
			IsGraded:     sub.IsGraded,
		})
	}
	return overview, nil
}

func (s *gradingService) SetOptionWeight(ctx context.Context, questionID, optionID uint, score float64) error {
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return fmt.Errorf("%w: option %d", ErrGradingInvalidScore, optionID)
	}

	question, err := s.repo.Exercise().GetQuestion(ctx, questionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("failed to get question: %w", err)
	}

	found := false
	for _, opt := range question.Options {
		if opt.ID == optionID {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: option %d on question %d", ErrOptionNotFound, optionID, questionID)
	}

	if err := s.repo.Exercise().UpdateOptionScore(ctx, optionID, score); err != nil {
		return fmt.Errorf("failed to update option weight: %w", err)
	}

	// Weight changes alter future auto scores, drop the cached exercise.
	if err := s.cache.Delete(ctx, exerciseCacheKey(question.ExerciseID)); err != nil {
		s.logger.Warn("Failed to invalidate exercise cache", "exercise_id", question.ExerciseID, "error", err)
	}

	s.logger.Info("Option weight updated", "question_id", questionID, "option_id", optionID, "score", score)
	return nil
}

// ===== HELPERS =====

func (s *gradingService) publishEvent(ctx context.Context, event *events.DomainEvent) {
	if err := s.publisher.PublishEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish event", "event_type", event.Type, "error", err)
	}
}

func maxScore(answers []models.SubmissionAnswer) float64 {
	total := 0.0
	for i := range answers {
		total += float64(answers[i].Question.Points)
	}
	return total
}
