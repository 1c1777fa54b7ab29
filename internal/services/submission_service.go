package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/datatypes"

	"github.com/aulalink/exercise-service/internal/events"
	"github.com/aulalink/exercise-service/internal/grading"
	"github.com/aulalink/exercise-service/internal/models"
	"github.com/aulalink/exercise-service/internal/repositories"
	"github.com/aulalink/exercise-service/internal/utils"
)

// SubmissionService reconciles raw submitted answers against the
// exercise's persisted question set and records the attempt.
type SubmissionService interface {
	Submit(ctx context.Context, req *SubmitRequest, studentID string) (*SubmissionResponse, error)
	GetByID(ctx context.Context, id uint) (*SubmissionResponse, error)
	ListByExercise(ctx context.Context, exerciseID uint, filters repositories.SubmissionFilters) (*SubmissionListResponse, error)
	ListByStudent(ctx context.Context, studentID string, filters repositories.SubmissionFilters) (*SubmissionListResponse, error)
	Delete(ctx context.Context, id uint) error
}

type submissionService struct {
	repo      repositories.Repository
	engine    *grading.Engine
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *utils.Validator
}

func NewSubmissionService(repo repositories.Repository, engine *grading.Engine, publisher events.EventPublisher, logger *slog.Logger, validator *utils.Validator) SubmissionService {
	return &submissionService{
		repo:      repo,
		engine:    engine,
		publisher: publisher,
		logger:    logger,
		validator: validator,
	}
}

// ===== REQUEST / RESPONSE TYPES =====

// AnswerInput is the raw answer payload for one question. Exactly one
// of the payload fields should be set, matching the question's type.
type AnswerInput struct {
	QuestionID        uint           `json:"question_id" validate:"required"`
	SelectedOptionIDs []uint         `json:"selected_option_ids,omitempty"`
	OpenAnswer        *string        `json:"open_answer,omitempty"`
	ClozeAnswers      map[int]string `json:"cloze_answers,omitempty"`
}

type SubmitRequest struct {
	ExerciseID uint          `json:"exercise_id" validate:"required"`
	Answers    []AnswerInput `json:"answers" validate:"required,min=1,dive"`
}

type AnswerResponse struct {
	ID                uint                `json:"id"`
	QuestionID        uint                `json:"question_id"`
	QuestionOrder     int                 `json:"question_order"`
	Type              models.QuestionType `json:"type"`
	SelectedOptionIDs []uint              `json:"selected_option_ids,omitempty"`
	OpenAnswer        *string             `json:"open_answer,omitempty"`
	ClozeAnswers      map[int]string      `json:"cloze_answers,omitempty"`
	AutoScore         *float64            `json:"auto_score,omitempty"`
	AssignedScore     *float64            `json:"assigned_score,omitempty"`
	MaxPoints         float64             `json:"max_points"`
}

type SubmissionResponse struct {
	ID          uint             `json:"id"`
	ExerciseID  uint             `json:"exercise_id"`
	StudentID   string           `json:"student_id"`
	SubmittedAt time.Time        `json:"submitted_at"`
	IsGraded    bool             `json:"is_graded"`
	TotalScore  float64          `json:"total_score"`
	MaxScore    float64          `json:"max_score"`
	Answers     []AnswerResponse `json:"answers,omitempty"`
}

type SubmissionListResponse struct {
	Submissions []SubmissionResponse `json:"submissions"`
	Total       int64                `json:"total"`
	Limit       int                  `json:"limit"`
	Offset      int                  `json:"offset"`
}

// ===== OPERATIONS =====

func (s *submissionService) Submit(ctx context.Context, req *SubmitRequest, studentID string) (*SubmissionResponse, error) {
	s.logger.Info("Creating submission", "exercise_id", req.ExerciseID, "student_id", studentID)

	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	exercise, err := s.repo.Exercise().GetByIDWithQuestions(ctx, req.ExerciseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExerciseNotFound
		}
		return nil, fmt.Errorf("failed to get exercise: %w", err)
	}

	exists, err := s.repo.Submission().Exists(ctx, req.ExerciseID, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to check for existing submission: %w", err)
	}
	if exists {
		return nil, ErrDuplicateSubmission
	}

	answers, needsManual, err := s.reconcile(exercise, req.Answers)
	if err != nil {
		return nil, err
	}

	submission := &models.Submission{
		ExerciseID:  req.ExerciseID,
		StudentID:   studentID,
		SubmittedAt: time.Now(),
		Answers:     answers,
	}

	// The duplicate check above is advisory; the unique index on
	// (exercise_id, student_id) settles concurrent submits.
	if err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		return tx.Submission().Create(ctx, submission)
	}); err != nil {
		return nil, fmt.Errorf("failed to create submission: %w", err)
	}

	s.logger.Info("Submission created", "submission_id", submission.ID, "answers", len(submission.Answers))

	s.publishEvent(ctx, events.NewSubmissionCreatedEvent(
		submission.ID, submission.ExerciseID, studentID, submission.SubmittedAt, needsManual))

	return s.buildSubmissionResponse(submission, exercise.Questions), nil
}

func (s *submissionService) GetByID(ctx context.Context, id uint) (*SubmissionResponse, error) {
	submission, err := s.repo.Submission().GetByIDWithAnswers(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return s.buildSubmissionResponse(submission, nil), nil
}

func (s *submissionService) ListByExercise(ctx context.Context, exerciseID uint, filters repositories.SubmissionFilters) (*SubmissionListResponse, error) {
	submissions, total, err := s.repo.Submission().GetByExercise(ctx, exerciseID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return s.buildSubmissionListResponse(submissions, total, filters), nil
}

func (s *submissionService) ListByStudent(ctx context.Context, studentID string, filters repositories.SubmissionFilters) (*SubmissionListResponse, error) {
	submissions, total, err := s.repo.Submission().GetByStudent(ctx, studentID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return s.buildSubmissionListResponse(submissions, total, filters), nil
}

func (s *submissionService) Delete(ctx context.Context, id uint) error {
	s.logger.Info("Deleting submission", "submission_id", id)

	if _, err := s.repo.Submission().GetByID(ctx, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrSubmissionNotFound
		}
		return fmt.Errorf("failed to get submission: %w", err)
	}

	if err := s.repo.Submission().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete submission: %w", err)
	}
	return nil
}

// ===== RECONCILIATION =====

// reconcile validates the raw answers against the exercise's question
// set and materializes one answer row per question. Any mismatch
// rejects the whole submission; nothing partial is ever stored.
func (s *submissionService) reconcile(exercise *models.Exercise, inputs []AnswerInput) ([]models.SubmissionAnswer, bool, error) {
	byQuestion := make(map[uint]*AnswerInput, len(inputs))
	for i := range inputs {
		in := &inputs[i]
		if _, dup := byQuestion[in.QuestionID]; dup {
			return nil, false, NewValidationError("answers", "duplicate answer for question", in.QuestionID)
		}
		byQuestion[in.QuestionID] = in
	}

	known := make(map[uint]bool, len(exercise.Questions))
	for i := range exercise.Questions {
		known[exercise.Questions[i].ID] = true
	}
	for qid := range byQuestion {
		if !known[qid] {
			return nil, false, fmt.Errorf("%w: question %d", ErrUnknownQuestion, qid)
		}
	}

	answers := make([]models.SubmissionAnswer, 0, len(exercise.Questions))
	needsManual := false
	for i := range exercise.Questions {
		q := &exercise.Questions[i]

		answer, err := buildAnswer(q, byQuestion[q.ID])
		if err != nil {
			return nil, false, err
		}

		result, err := s.engine.Score(q, answer)
		if err != nil {
			return nil, false, fmt.Errorf("failed to auto-score question %d: %w", q.ID, err)
		}
		answer.AutoScore = result.AutoScore
		if result.NeedsManual {
			needsManual = true
		}

		answers = append(answers, *answer)
	}
	return answers, needsManual, nil
}

// buildAnswer converts one raw input into the per-question answer row.
// A nil input produces an empty answer for an unanswered question.
func buildAnswer(q *models.Question, in *AnswerInput) (*models.SubmissionAnswer, error) {
	answer := &models.SubmissionAnswer{QuestionID: q.ID}
	if in == nil {
		return answer, nil
	}

	switch q.Type {
	case models.MultipleChoice, models.MultipleResponse:
		if in.OpenAnswer != nil || len(in.ClozeAnswers) > 0 {
			return nil, fmt.Errorf("%w: question %d expects selected options", ErrAnswerTypeMismatch, q.ID)
		}
		if q.Type == models.MultipleChoice && len(in.SelectedOptionIDs) > 1 {
			return nil, fmt.Errorf("%w: question %d accepts a single selection", ErrAnswerTypeMismatch, q.ID)
		}
		valid := make(map[uint]bool, len(q.Options))
		for _, opt := range q.Options {
			valid[opt.ID] = true
		}
		for _, id := range in.SelectedOptionIDs {
			if !valid[id] {
				return nil, fmt.Errorf("%w: option %d on question %d", ErrOptionNotFound, id, q.ID)
			}
		}
		if len(in.SelectedOptionIDs) > 0 {
			payload, err := json.Marshal(in.SelectedOptionIDs)
			if err != nil {
				return nil, fmt.Errorf("failed to encode selected options: %w", err)
			}
			answer.SelectedOptions = datatypes.JSON(payload)
		}

	case models.OpenEnded:
		if len(in.SelectedOptionIDs) > 0 || len(in.ClozeAnswers) > 0 {
			return nil, fmt.Errorf("%w: question %d expects free text", ErrAnswerTypeMismatch, q.ID)
		}
		if in.OpenAnswer != nil {
			if q.CharLimit != nil && len([]rune(*in.OpenAnswer)) > *q.CharLimit {
				return nil, fmt.Errorf("%w: question %d limit %d", ErrCharLimitExceeded, q.ID, *q.CharLimit)
			}
			answer.OpenAnswer = in.OpenAnswer
		}

	case models.ClozeTest:
		if len(in.SelectedOptionIDs) > 0 || in.OpenAnswer != nil {
			return nil, fmt.Errorf("%w: question %d expects blank answers", ErrAnswerTypeMismatch, q.ID)
		}
		if len(in.ClozeAnswers) > 0 {
			payload, err := json.Marshal(in.ClozeAnswers)
			if err != nil {
				return nil, fmt.Errorf("failed to encode blank answers: %w", err)
			}
			answer.ClozeAnswers = datatypes.JSON(payload)
		}

	default:
		return nil, fmt.Errorf("%w: %s", ErrQuestionInvalidType, q.Type)
	}
	return answer, nil
}

// ===== HELPERS =====

func (s *submissionService) publishEvent(ctx context.Context, event *events.DomainEvent) {
	if err := s.publisher.PublishEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish event", "event_type", event.Type, "error", err)
	}
}

// buildSubmissionResponse renders a submission. questions may carry the
// exercise's question set when the answers were built in-process and do
// not have their Question association loaded.
func (s *submissionService) buildSubmissionResponse(submission *models.Submission, questions []models.Question) *SubmissionResponse {
	byID := make(map[uint]*models.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}

	resp := &SubmissionResponse{
		ID:          submission.ID,
		ExerciseID:  submission.ExerciseID,
		StudentID:   submission.StudentID,
		SubmittedAt: submission.SubmittedAt,
		IsGraded:    submission.IsGraded,
		TotalScore:  grading.Total(submission.Answers),
	}

	for i := range submission.Answers {
		a := &submission.Answers[i]
		q := &a.Question
		if q.ID == 0 {
			if qq, ok := byID[a.QuestionID]; ok {
				q = qq
			}
		}

		ar := AnswerResponse{
			ID:            a.ID,
			QuestionID:    a.QuestionID,
			QuestionOrder: q.Order,
			Type:          q.Type,
			OpenAnswer:    a.OpenAnswer,
			AutoScore:     a.AutoScore,
			AssignedScore: a.AssignedScore,
			MaxPoints:     float64(q.Points),
		}
		if ids, err := a.SelectedOptionIDs(); err == nil {
			ar.SelectedOptionIDs = ids
		}
		if words, err := a.ClozeWords(); err == nil {
			ar.ClozeAnswers = words
		}

		resp.MaxScore += float64(q.Points)
		resp.Answers = append(resp.Answers, ar)
	}
	return resp
}

func (s *submissionService) buildSubmissionListResponse(submissions []*models.Submission, total int64, filters repositories.SubmissionFilters) *SubmissionListResponse {
	resp := &SubmissionListResponse{
		Submissions: make([]SubmissionResponse, 0, len(submissions)),
		Total:       total,
		Limit:       filters.Limit,
		Offset:      filters.Offset,
	}
	for _, sub := range submissions {
		r := s.buildSubmissionResponse(sub, nil)
		r.Answers = nil
		resp.Submissions = append(resp.Submissions, *r)
	}
	return resp
}
