package postgres

import (
	"context"

	"github.com/aulalink/exercise-service/internal/models"
	"github.com/aulalink/exercise-service/internal/repositories"
	"gorm.io/gorm"
)

var submissionSortColumns = map[string]bool{
	"submitted_at": true,
	"student_id":   true,
	"is_graded":    true,
}

type SubmissionPostgreSQL struct {
	db *gorm.DB
}

func NewSubmissionPostgreSQL(db *gorm.DB) repositories.SubmissionRepository {
	return &SubmissionPostgreSQL{db: db}
}

func (s *SubmissionPostgreSQL) Create(ctx context.Context, submission *models.Submission) error {
	return s.db.WithContext(ctx).Create(submission).Error
}

func (s *SubmissionPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Submission, error) {
	var submission models.Submission
	if err := s.db.WithContext(ctx).First(&submission, id).Error; err != nil {
		return nil, err
	}
	return &submission, nil
}

func (s *SubmissionPostgreSQL) GetByIDWithAnswers(ctx context.Context, id uint) (*models.Submission, error) {
	var submission models.Submission
	if err := s.db.WithContext(ctx).
		Preload("Answers", func(db *gorm.DB) *gorm.DB {
			return db.Order("question_id ASC")
		}).
		Preload("Answers.Question").
		Preload("Answers.Question.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&submission, id).Error; err != nil {
		return nil, err
	}
	return &submission, nil
}

func (s *SubmissionPostgreSQL) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Delete(&models.Submission{}, id).Error
}

func (s *SubmissionPostgreSQL) GetByExercise(ctx context.Context, exerciseID uint, filters repositories.SubmissionFilters) ([]*models.Submission, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Submission{}).Where("exercise_id = ?", exerciseID)
	return s.list(query, filters)
}

func (s *SubmissionPostgreSQL) GetByStudent(ctx context.Context, studentID string, filters repositories.SubmissionFilters) ([]*models.Submission, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Submission{}).Where("student_id = ?", studentID)
	return s.list(query, filters)
}

func (s *SubmissionPostgreSQL) list(query *gorm.DB, filters repositories.SubmissionFilters) ([]*models.Submission, int64, error) {
	var submissions []*models.Submission
	var total int64

	if filters.IsGraded != nil {
		query = query.Where("is_graded = ?", *filters.IsGraded)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderBy := sortColumn(filters.SortBy, "submitted_at", submissionSortColumns)
	query = applyPaginationAndSort(query, filters.Limit, filters.Offset, orderBy, filters.SortOrder)

	if err := query.Preload("Answers").Find(&submissions).Error; err != nil {
		return nil, 0, err
	}
	return submissions, total, nil
}

func (s *SubmissionPostgreSQL) Exists(ctx context.Context, exerciseID uint, studentID string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("exercise_id = ? AND student_id = ?", exerciseID, studentID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *SubmissionPostgreSQL) UpdateAnswerGrades(ctx context.Context, grades []repositories.AnswerGrade) error {
	db := s.db.WithContext(ctx)
	for _, g := range grades {
		if err := db.Model(&models.SubmissionAnswer{}).
			Where("id = ?", g.AnswerID).
			Update("assigned_score", g.Score).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *SubmissionPostgreSQL) SetGraded(ctx context.Context, submissionID uint, graded bool) error {
	return s.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("id = ?", submissionID).
		Update("is_graded", graded).Error
}

func (s *SubmissionPostgreSQL) GetStats(ctx context.Context, exerciseID uint) (*repositories.SubmissionStats, error) {
	stats := &repositories.SubmissionStats{}

	var total, graded int64
	if err := s.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("exercise_id = ?", exerciseID).
		Count(&total).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("exercise_id = ? AND is_graded = ?", exerciseID, true).
		Count(&graded).Error; err != nil {
		return nil, err
	}
	stats.TotalSubmissions = int(total)
	stats.GradedSubmissions = int(graded)

	if graded > 0 {
		var avg *float64
		row := s.db.WithContext(ctx).
			Model(&models.SubmissionAnswer{}).
			Select("AVG(total)").
			Table("(?) AS totals", s.db.
				Model(&models.SubmissionAnswer{}).
				Select("submission_id, SUM(COALESCE(assigned_score, 0)) AS total").
				Joins("JOIN submissions ON submissions.id = submission_answers.submission_id").
				Where("submissions.exercise_id = ? AND submissions.is_graded = ?", exerciseID, true).
				Group("submission_id"))
		if err := row.Scan(&avg).Error; err != nil {
			return nil, err
		}
		if avg != nil {
			stats.AverageScore = *avg
		}
	}

	return stats, nil
}
