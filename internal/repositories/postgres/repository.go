package postgres

import (
	"context"

	"github.com/aulalink/exercise-service/internal/models"
	"github.com/aulalink/exercise-service/internal/repositories"
	"gorm.io/gorm"
)

type repository struct {
	db         *gorm.DB
	exercise   repositories.ExerciseRepository
	submission repositories.SubmissionRepository
}

// NewRepository builds the GORM-backed repository aggregate.
func NewRepository(db *gorm.DB) repositories.Repository {
	return &repository{
		db:         db,
		exercise:   NewExercisePostgreSQL(db),
		submission: NewSubmissionPostgreSQL(db),
	}
}

func (r *repository) Exercise() repositories.ExerciseRepository     { return r.exercise }
func (r *repository) Submission() repositories.SubmissionRepository { return r.submission }

func (r *repository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}

func (r *repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Migrate creates or updates the schema for all persisted models.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Exercise{},
		&models.Question{},
		&models.QuestionOption{},
		&models.Submission{},
		&models.SubmissionAnswer{},
	)
}
