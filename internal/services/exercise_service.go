package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/datatypes"

	"github.com/aulalink/exercise-service/internal/cache"
	"github.com/aulalink/exercise-service/internal/events"
	"github.com/aulalink/exercise-service/internal/models"
	"github.com/aulalink/exercise-service/internal/parser"
	"github.com/aulalink/exercise-service/internal/repositories"
	"github.com/aulalink/exercise-service/internal/utils"
)

// ExerciseService manages the authoring lifecycle: parsing exercise
// text into questions, persisting the parsed set and keeping it in
// sync with content edits.
type ExerciseService interface {
	Create(ctx context.Context, req *CreateExerciseRequest, creatorID string) (*ExerciseResponse, error)
	GetByID(ctx context.Context, id uint) (*ExerciseResponse, error)
	Update(ctx context.Context, id uint, req *UpdateExerciseRequest) (*ExerciseResponse, error)
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filters repositories.ExerciseFilters) (*ExerciseListResponse, error)

	// Preview parses content without persisting anything, returning the
	// questions that would be accepted plus all diagnostics.
	Preview(ctx context.Context, content string) (*PreviewResponse, error)
}

type exerciseService struct {
	repo      repositories.Repository
	cache     cache.CacheService
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *utils.Validator
}

func NewExerciseService(repo repositories.Repository, cache cache.CacheService, publisher events.EventPublisher, logger *slog.Logger, validator *utils.Validator) ExerciseService {
	return &exerciseService{
		repo:      repo,
		cache:     cache,
		publisher: publisher,
		logger:    logger,
		validator: validator,
	}
}

// ===== REQUEST / RESPONSE TYPES =====

type CreateExerciseRequest struct {
	Title   string `json:"title" validate:"required,max=255"`
	Content string `json:"content" validate:"required"`
}

type UpdateExerciseRequest struct {
	Title   string `json:"title" validate:"required,max=255"`
	Content string `json:"content" validate:"required"`
}

type OptionResponse struct {
	ID        uint    `json:"id"`
	Label     string  `json:"label"`
	Text      string  `json:"text"`
	Score     float64 `json:"score"`
	IsCorrect bool    `json:"is_correct"`
}

type QuestionResponse struct {
	ID        uint                `json:"id"`
	Type      models.QuestionType `json:"type"`
	Text      string              `json:"text"`
	Points    int                 `json:"points"`
	Order     int                 `json:"order"`
	Options   []OptionResponse    `json:"options,omitempty"`
	CharLimit *int                `json:"char_limit,omitempty"`
	WordList  []string            `json:"word_list,omitempty"`
	Solution  map[int]string      `json:"solution,omitempty"`
}

type ExerciseResponse struct {
	ID          uint               `json:"id"`
	Title       string             `json:"title"`
	Content     string             `json:"content"`
	CreatorID   string             `json:"creator_id"`
	TotalPoints int                `json:"total_points"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
	Questions   []QuestionResponse `json:"questions"`

	Diagnostics []parser.Diagnostic `json:"diagnostics,omitempty"`
}

type ExerciseListResponse struct {
	Exercises []ExerciseResponse `json:"exercises"`
	Total     int64              `json:"total"`
	Limit     int                `json:"limit"`
	Offset    int                `json:"offset"`
}

type PreviewResponse struct {
	Questions   []QuestionResponse  `json:"questions"`
	TotalPoints int                 `json:"total_points"`
	Diagnostics []parser.Diagnostic `json:"diagnostics"`
}

// ===== CORE CRUD OPERATIONS =====

func (s *exerciseService) Create(ctx context.Context, req *CreateExerciseRequest, creatorID string) (*ExerciseResponse, error) {
	s.logger.Info("Creating exercise", "creator_id", creatorID, "title", req.Title)

	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	doc, diags := parser.ParseDocument(req.Content)
	questions := doc.Questions()
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoValidQuestions, summarizeDiagnostics(diags))
	}

	exists, err := s.repo.Exercise().ExistsByTitle(ctx, req.Title, creatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to check title uniqueness: %w", err)
	}
	if exists {
		return nil, ErrExerciseDuplicateTitle
	}

	exercise := &models.Exercise{
		Title:     req.Title,
		Content:   req.Content,
		CreatorID: creatorID,
	}
	exercise.Questions, err = buildQuestionModels(questions)
	if err != nil {
		return nil, fmt.Errorf("failed to build question set: %w", err)
	}

	if err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		return tx.Exercise().Create(ctx, exercise)
	}); err != nil {
		return nil, fmt.Errorf("failed to create exercise: %w", err)
	}

	s.logger.Info("Exercise created", "exercise_id", exercise.ID, "questions", len(exercise.Questions))

	s.publishEvent(ctx, events.NewExerciseCreatedEvent(
		exercise.ID, exercise.Title, creatorID, len(exercise.Questions), totalPoints(exercise.Questions)))

	resp := buildExerciseResponse(exercise)
	resp.Diagnostics = diags
	return resp, nil
}

func (s *exerciseService) GetByID(ctx context.Context, id uint) (*ExerciseResponse, error) {
	cacheKey := exerciseCacheKey(id)

	var cached ExerciseResponse
	if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
		return &cached, nil
	}

	exercise, err := s.repo.Exercise().GetByIDWithQuestions(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExerciseNotFound
		}
		return nil, fmt.Errorf("failed to get exercise: %w", err)
	}

	resp := buildExerciseResponse(exercise)
	if err := s.cache.Set(ctx, cacheKey, resp, exerciseCacheTTL); err != nil {
		s.logger.Warn("Failed to cache exercise", "exercise_id", id, "error", err)
	}
	return resp, nil
}

func (s *exerciseService) Update(ctx context.Context, id uint, req *UpdateExerciseRequest) (*ExerciseResponse, error) {
	s.logger.Info("Updating exercise", "exercise_id", id, "title", req.Title)

	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	exercise, err := s.repo.Exercise().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExerciseNotFound
		}
		return nil, fmt.Errorf("failed to get exercise: %w", err)
	}

	doc, diags := parser.ParseDocument(req.Content)
	questions := doc.Questions()
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoValidQuestions, summarizeDiagnostics(diags))
	}

	if req.Title != exercise.Title {
		exists, err := s.repo.Exercise().ExistsByTitle(ctx, req.Title, exercise.CreatorID)
		if err != nil {
			return nil, fmt.Errorf("failed to check title uniqueness: %w", err)
		}
		if exists {
			return nil, ErrExerciseDuplicateTitle
		}
	}

	questionModels, err := buildQuestionModels(questions)
	if err != nil {
		return nil, fmt.Errorf("failed to build question set: %w", err)
	}

	exercise.Title = req.Title
	exercise.Content = req.Content

	// Content edits replace the whole parsed question set; partial
	// patches would leave stale options behind.
	if err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.Exercise().Update(ctx, exercise); err != nil {
			return err
		}
		return tx.Exercise().ReplaceQuestions(ctx, exercise.ID, questionModels)
	}); err != nil {
		return nil, fmt.Errorf("failed to update exercise: %w", err)
	}

	s.invalidateExercise(ctx, id)

	s.publishEvent(ctx, events.NewExerciseUpdatedEvent(
		exercise.ID, exercise.Title, len(questionModels), totalPoints(questionModels)))

	exercise.Questions = questionModels
	resp := buildExerciseResponse(exercise)
	resp.Diagnostics = diags
	return resp, nil
}

func (s *exerciseService) Delete(ctx context.Context, id uint) error {
	s.logger.Info("Deleting exercise", "exercise_id", id)

	if _, err := s.repo.Exercise().GetByID(ctx, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrExerciseNotFound
		}
		return fmt.Errorf("failed to get exercise: %w", err)
	}

	stats, err := s.repo.Submission().GetStats(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check submissions: %w", err)
	}
	if stats.TotalSubmissions > 0 {
		return ErrExerciseNotDeletable
	}

	if err := s.repo.Exercise().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete exercise: %w", err)
	}

	s.invalidateExercise(ctx, id)
	s.publishEvent(ctx, events.NewExerciseDeletedEvent(id))
	return nil
}

func (s *exerciseService) List(ctx context.Context, filters repositories.ExerciseFilters) (*ExerciseListResponse, error) {
	exercises, total, err := s.repo.Exercise().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list exercises: %w", err)
	}

	resp := &ExerciseListResponse{
		Exercises: make([]ExerciseResponse, 0, len(exercises)),
		Total:     total,
		Limit:     filters.Limit,
		Offset:    filters.Offset,
	}
	for _, ex := range exercises {
		resp.Exercises = append(resp.Exercises, *buildExerciseResponse(ex))
	}
	return resp, nil
}

func (s *exerciseService) Preview(ctx context.Context, content string) (*PreviewResponse, error) {
	doc, diags := parser.ParseDocument(content)

	questionModels, err := buildQuestionModels(doc.Questions())
	if err != nil {
		return nil, fmt.Errorf("failed to build question set: %w", err)
	}

	resp := &PreviewResponse{
		Questions:   make([]QuestionResponse, 0, len(questionModels)),
		TotalPoints: totalPoints(questionModels),
		Diagnostics: diags,
	}
	if resp.Diagnostics == nil {
		resp.Diagnostics = []parser.Diagnostic{}
	}
	for i := range questionModels {
		resp.Questions = append(resp.Questions, buildQuestionResponse(&questionModels[i]))
	}
	return resp, nil
}

// ===== HELPERS =====

const exerciseCacheTTL = 10 * time.Minute

func exerciseCacheKey(id uint) string {
	return fmt.Sprintf("exercise:%d", id)
}

func (s *exerciseService) invalidateExercise(ctx context.Context, id uint) {
	if err := s.cache.Delete(ctx, exerciseCacheKey(id)); err != nil {
		s.logger.Warn("Failed to invalidate exercise cache", "exercise_id", id, "error", err)
	}
}

func (s *exerciseService) publishEvent(ctx context.Context, event *events.DomainEvent) {
	if err := s.publisher.PublishEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish event", "event_type", event.Type, "error", err)
	}
}

// buildQuestionModels converts accepted parse results into persistence
// models. Option weights default to the question points split evenly
// across the options flagged correct; graders can adjust individual
// weights afterwards.
func buildQuestionModels(questions []*parser.Question) ([]models.Question, error) {
	out := make([]models.Question, 0, len(questions))
	for _, q := range questions {
		m := models.Question{
			Type:   models.QuestionType(q.Kind),
			Text:   q.Text,
			Points: q.Points,
			Order:  q.Order,
		}

		switch q.Kind {
		case parser.MultipleChoice, parser.MultipleResponse:
			m.Options = buildOptionModels(q)

		case parser.OpenEnded:
			m.CharLimit = q.CharLimit

		case parser.ClozeTest:
			payload, err := json.Marshal(models.ClozeData{
				WordList: q.WordList,
				Solution: q.Solution,
			})
			if err != nil {
				return nil, fmt.Errorf("failed to encode cloze payload: %w", err)
			}
			m.ClozeData = datatypes.JSON(payload)
		}

		out = append(out, m)
	}
	return out, nil
}

func buildOptionModels(q *parser.Question) []models.QuestionOption {
	correct := 0
	for _, opt := range q.Options {
		if opt.IsCorrect {
			correct++
		}
	}

	weight := 0.0
	if correct > 0 {
		weight = float64(q.Points) / float64(correct)
	}

	options := make([]models.QuestionOption, 0, len(q.Options))
	for i, opt := range q.Options {
		score := 0.0
		if opt.IsCorrect {
			score = weight
		}
		options = append(options, models.QuestionOption{
			Text:      opt.Text,
			Score:     score,
			IsCorrect: opt.IsCorrect,
			Position:  i + 1,
		})
	}
	return options
}

func buildExerciseResponse(exercise *models.Exercise) *ExerciseResponse {
	resp := &ExerciseResponse{
		ID:          exercise.ID,
		Title:       exercise.Title,
		Content:     exercise.Content,
		CreatorID:   exercise.CreatorID,
		TotalPoints: totalPoints(exercise.Questions),
		CreatedAt:   exercise.CreatedAt,
		UpdatedAt:   exercise.UpdatedAt,
		Questions:   make([]QuestionResponse, 0, len(exercise.Questions)),
	}
	for i := range exercise.Questions {
		resp.Questions = append(resp.Questions, buildQuestionResponse(&exercise.Questions[i]))
	}
	return resp
}

func buildQuestionResponse(q *models.Question) QuestionResponse {
	resp := QuestionResponse{
		ID:        q.ID,
		Type:      q.Type,
		Text:      q.Text,
		Points:    q.Points,
		Order:     q.Order,
		CharLimit: q.CharLimit,
	}

	for _, opt := range q.Options {
		resp.Options = append(resp.Options, OptionResponse{
			ID:        opt.ID,
			Label:     optionLabel(opt.Position),
			Text:      opt.Text,
			Score:     opt.Score,
			IsCorrect: opt.IsCorrect,
		})
	}

	if q.Type == models.ClozeTest {
		if cd, err := q.Cloze(); err == nil {
			resp.WordList = cd.WordList
			resp.Solution = cd.Solution
		}
	}
	return resp
}

// optionLabel maps a 1-based option position back to its letter.
func optionLabel(position int) string {
	if position < 1 || position > 26 {
		return ""
	}
	return string(rune('A' + position - 1))
}

func totalPoints(questions []models.Question) int {
	total := 0
	for i := range questions {
		total += questions[i].Points
	}
	return total
}

func summarizeDiagnostics(diags []parser.Diagnostic) string {
	errors := 0
	for _, d := range diags {
		if d.Severity == parser.SeverityError {
			errors++
		}
	}
	return fmt.Sprintf("%d question block(s) rejected", errors)
}
