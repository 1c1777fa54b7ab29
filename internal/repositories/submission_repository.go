package repositories

import (
	"context"

	"github.com/aulalink/exercise-service/internal/models"
)

// SubmissionRepository handles persistence of submissions, their
// answers and grading state.
type SubmissionRepository interface {
	// Create inserts the submission and all its answers. Callers wrap
	// this in WithTransaction together with the duplicate check.
	Create(ctx context.Context, submission *models.Submission) error
	GetByID(ctx context.Context, id uint) (*models.Submission, error)
	GetByIDWithAnswers(ctx context.Context, id uint) (*models.Submission, error)
	Delete(ctx context.Context, id uint) error

	// Query operations
	GetByExercise(ctx context.Context, exerciseID uint, filters SubmissionFilters) ([]*models.Submission, int64, error)
	GetByStudent(ctx context.Context, studentID string, filters SubmissionFilters) ([]*models.Submission, int64, error)
	Exists(ctx context.Context, exerciseID uint, studentID string) (bool, error)

	// Grading operations
	UpdateAnswerGrades(ctx context.Context, grades []AnswerGrade) error
	SetGraded(ctx context.Context, submissionID uint, graded bool) error

	// Statistics
	GetStats(ctx context.Context, exerciseID uint) (*SubmissionStats, error)
}
