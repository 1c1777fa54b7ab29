package postgres

import (
	"context"

	"github.com/aulalink/exercise-service/internal/models"
	"github.com/aulalink/exercise-service/internal/repositories"
	"gorm.io/gorm"
)

type ExercisePostgreSQL struct {
	db *gorm.DB
}

func NewExercisePostgreSQL(db *gorm.DB) repositories.ExerciseRepository {
	return &ExercisePostgreSQL{db: db}
}

func (e *ExercisePostgreSQL) Create(ctx context.Context, exercise *models.Exercise) error {
	return e.db.WithContext(ctx).Create(exercise).Error
}

func (e *ExercisePostgreSQL) GetByID(ctx context.Context, id uint) (*models.Exercise, error) {
	var exercise models.Exercise
	if err := e.db.WithContext(ctx).First(&exercise, id).Error; err != nil {
		return nil, err
	}
	return &exercise, nil
}

func (e *ExercisePostgreSQL) GetByIDWithQuestions(ctx context.Context, id uint) (*models.Exercise, error) {
	var exercise models.Exercise
	if err := e.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("question_order ASC")
		}).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&exercise, id).Error; err != nil {
		return nil, err
	}
	return &exercise, nil
}

func (e *ExercisePostgreSQL) Update(ctx context.Context, exercise *models.Exercise) error {
	return e.db.WithContext(ctx).
		Model(&models.Exercise{}).
		Where("id = ?", exercise.ID).
		Updates(map[string]interface{}{
			"title":   exercise.Title,
			"content": exercise.Content,
		}).Error
}

func (e *ExercisePostgreSQL) Delete(ctx context.Context, id uint) error {
	return e.db.WithContext(ctx).Delete(&models.Exercise{}, id).Error
}

func (e *ExercisePostgreSQL) List(ctx context.Context, filters repositories.ExerciseFilters) ([]*models.Exercise, int64, error) {
	var exercises []*models.Exercise
	var total int64

	query := e.db.WithContext(ctx).Model(&models.Exercise{})
	if filters.CreatorID != nil {
		query = query.Where("creator_id = ?", *filters.CreatorID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderBy := sortColumn(filters.SortBy, "created_at", exerciseSortColumns)
	query = applyPaginationAndSort(query, filters.Limit, filters.Offset, orderBy, filters.SortOrder)
	if err := query.Find(&exercises).Error; err != nil {
		return nil, 0, err
	}

	return exercises, total, nil
}

func (e *ExercisePostgreSQL) ExistsByTitle(ctx context.Context, title, creatorID string) (bool, error) {
	var count int64
	if err := e.db.WithContext(ctx).
		Model(&models.Exercise{}).
		Where("title = ? AND creator_id = ?", title, creatorID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ReplaceQuestions drops the exercise's question rows (options cascade)
// and inserts the new set. Simpler than diffing, and an edit fully
// replaces the previous parse anyway.
func (e *ExercisePostgreSQL) ReplaceQuestions(ctx context.Context, exerciseID uint, questions []models.Question) error {
	db := e.db.WithContext(ctx)
	if err := db.Where("exercise_id = ?", exerciseID).Delete(&models.Question{}).Error; err != nil {
		return err
	}
	if len(questions) == 0 {
		return nil
	}
	for i := range questions {
		questions[i].ID = 0
		questions[i].ExerciseID = exerciseID
	}
	return db.Create(&questions).Error
}

func (e *ExercisePostgreSQL) GetQuestions(ctx context.Context, exerciseID uint) ([]models.Question, error) {
	var questions []models.Question
	if err := e.db.WithContext(ctx).
		Where("exercise_id = ?", exerciseID).
		Order("question_order ASC").
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Find(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (e *ExercisePostgreSQL) GetQuestion(ctx context.Context, id uint) (*models.Question, error) {
	var question models.Question
	if err := e.db.WithContext(ctx).
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&question, id).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

func (e *ExercisePostgreSQL) UpdateOptionScore(ctx context.Context, optionID uint, score float64) error {
	return e.db.WithContext(ctx).
		Model(&models.QuestionOption{}).
		Where("id = ?", optionID).
		Update("score", score).Error
}

var exerciseSortColumns = map[string]bool{
	"created_at": true,
	"title":      true,
}

// sortColumn resolves a caller-supplied sort key against the sortable
// columns of a listing. Anything else falls back, the key goes into
// the ORDER BY clause verbatim.
func sortColumn(sortBy, fallback string, sortable map[string]bool) string {
	if sortable[sortBy] {
		return sortBy
	}
	return fallback
}

func applyPaginationAndSort(query *gorm.DB, limit, offset int, orderBy, sortOrder string) *gorm.DB {
	if sortOrder != "asc" {
		sortOrder = "desc"
	}
	query = query.Order(orderBy + " " + sortOrder)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	return query
}
