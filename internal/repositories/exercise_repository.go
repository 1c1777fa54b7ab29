package repositories

import (
	"context"

	"github.com/aulalink/exercise-service/internal/models"
)

// ExerciseRepository handles persistence of exercises and their parsed
// question sets.
type ExerciseRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, exercise *models.Exercise) error
	GetByID(ctx context.Context, id uint) (*models.Exercise, error)
	GetByIDWithQuestions(ctx context.Context, id uint) (*models.Exercise, error)
	Update(ctx context.Context, exercise *models.Exercise) error
	Delete(ctx context.Context, id uint) error

	// Query operations
	List(ctx context.Context, filters ExerciseFilters) ([]*models.Exercise, int64, error)
	ExistsByTitle(ctx context.Context, title, creatorID string) (bool, error)

	// Question management. An exercise edit fully replaces the parsed
	// question set; questions are never patched in place.
	ReplaceQuestions(ctx context.Context, exerciseID uint, questions []models.Question) error
	GetQuestions(ctx context.Context, exerciseID uint) ([]models.Question, error)
	GetQuestion(ctx context.Context, id uint) (*models.Question, error)

	// Option weight management for grader-defined scoring schemes.
	UpdateOptionScore(ctx context.Context, optionID uint, score float64) error
}
