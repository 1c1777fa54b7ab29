package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Repository aggregates the data-access interfaces and provides the
// transaction boundary the services delegate atomic units of work to.
type Repository interface {
	Exercise() ExerciseRepository
	Submission() SubmissionRepository

	// WithTransaction runs fn against a Repository bound to a single
	// transaction; fn returning an error rolls everything back.
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	Ping(ctx context.Context) error
	Close() error
}

// IsNotFoundError reports whether err is the storage layer's
// record-not-found condition.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// ===== SHARED FILTER STRUCTS =====

type ExerciseFilters struct {
	CreatorID *string `json:"creator_id"`
	Limit     int     `json:"limit"`
	Offset    int     `json:"offset"`
	SortBy    string  `json:"sort_by"`    // "created_at", "title"
	SortOrder string  `json:"sort_order"` // "asc", "desc"
}

type SubmissionFilters struct {
	IsGraded  *bool  `json:"is_graded"`
	Limit     int    `json:"limit"`
	Offset    int    `json:"offset"`
	SortBy    string `json:"sort_by"`    // "submitted_at", "student_id", "is_graded"
	SortOrder string `json:"sort_order"` // "asc", "desc"
}

// AnswerGrade is one entry of a grading action: the assigned score for
// a single answer row. A nil score clears the grade.
type AnswerGrade struct {
	AnswerID uint     `json:"answer_id"`
	Score    *float64 `json:"score"`
}

// ===== SHARED STATISTICS STRUCTS =====

type SubmissionStats struct {
	TotalSubmissions  int     `json:"total_submissions"`
	GradedSubmissions int     `json:"graded_submissions"`
	AverageScore      float64 `json:"average_score"`
}
