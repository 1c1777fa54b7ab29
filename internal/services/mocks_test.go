package services

import (
	"context"
	"encoding/json"
	"path"
	"time"

	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"github.com/aulalink/exercise-service/internal/cache"
	"github.com/aulalink/exercise-service/internal/models"
	"github.com/aulalink/exercise-service/internal/repositories"
)

// MockExerciseRepository is a mock implementation of ExerciseRepository
type MockExerciseRepository struct {
	mock.Mock
}

func (m *MockExerciseRepository) Create(ctx context.Context, exercise *models.Exercise) error {
	args := m.Called(ctx, exercise)
	return args.Error(0)
}

func (m *MockExerciseRepository) GetByID(ctx context.Context, id uint) (*models.Exercise, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Exercise), args.Error(1)
}

func (m *MockExerciseRepository) GetByIDWithQuestions(ctx context.Context, id uint) (*models.Exercise, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Exercise), args.Error(1)
}

func (m *MockExerciseRepository) Update(ctx context.Context, exercise *models.Exercise) error {
	args := m.Called(ctx, exercise)
	return args.Error(0)
}

func (m *MockExerciseRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockExerciseRepository) List(ctx context.Context, filters repositories.ExerciseFilters) ([]*models.Exercise, int64, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]*models.Exercise), args.Get(1).(int64), args.Error(2)
}

func (m *MockExerciseRepository) ExistsByTitle(ctx context.Context, title, creatorID string) (bool, error) {
	args := m.Called(ctx, title, creatorID)
	return args.Bool(0), args.Error(1)
}

func (m *MockExerciseRepository) ReplaceQuestions(ctx context.Context, exerciseID uint, questions []models.Question) error {
	args := m.Called(ctx, exerciseID, questions)
	return args.Error(0)
}

func (m *MockExerciseRepository) GetQuestions(ctx context.Context, exerciseID uint) ([]models.Question, error) {
	args := m.Called(ctx, exerciseID)
	return args.Get(0).([]models.Question), args.Error(1)
}

func (m *MockExerciseRepository) GetQuestion(ctx context.Context, id uint) (*models.Question, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Question), args.Error(1)
}

func (m *MockExerciseRepository) UpdateOptionScore(ctx context.Context, optionID uint, score float64) error {
	args := m.Called(ctx, optionID, score)
	return args.Error(0)
}

// MockSubmissionRepository is a mock implementation of SubmissionRepository
type MockSubmissionRepository struct {
	mock.Mock
}

func (m *MockSubmissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	args := m.Called(ctx, submission)
	return args.Error(0)
}

func (m *MockSubmissionRepository) GetByID(ctx context.Context, id uint) (*models.Submission, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Submission), args.Error(1)
}

func (m *MockSubmissionRepository) GetByIDWithAnswers(ctx context.Context, id uint) (*models.Submission, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Submission), args.Error(1)
}

func (m *MockSubmissionRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSubmissionRepository) GetByExercise(ctx context.Context, exerciseID uint, filters repositories.SubmissionFilters) ([]*models.Submission, int64, error) {
	args := m.Called(ctx, exerciseID, filters)
	return args.Get(0).([]*models.Submission), args.Get(1).(int64), args.Error(2)
}

func (m *MockSubmissionRepository) GetByStudent(ctx context.Context, studentID string, filters repositories.SubmissionFilters) ([]*models.Submission, int64, error) {
	args := m.Called(ctx, studentID, filters)
	return args.Get(0).([]*models.Submission), args.Get(1).(int64), args.Error(2)
}

func (m *MockSubmissionRepository) Exists(ctx context.Context, exerciseID uint, studentID string) (bool, error) {
	args := m.Called(ctx, exerciseID, studentID)
	return args.Bool(0), args.Error(1)
}

func (m *MockSubmissionRepository) UpdateAnswerGrades(ctx context.Context, grades []repositories.AnswerGrade) error {
	args := m.Called(ctx, grades)
	return args.Error(0)
}

func (m *MockSubmissionRepository) SetGraded(ctx context.Context, submissionID uint, graded bool) error {
	args := m.Called(ctx, submissionID, graded)
	return args.Error(0)
}

func (m *MockSubmissionRepository) GetStats(ctx context.Context, exerciseID uint) (*repositories.SubmissionStats, error) {
	args := m.Called(ctx, exerciseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repositories.SubmissionStats), args.Error(1)
}

// MockRepository bundles the repository mocks and runs transactions
// against itself.
type MockRepository struct {
	exercise   *MockExerciseRepository
	submission *MockSubmissionRepository
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		exercise:   &MockExerciseRepository{},
		submission: &MockSubmissionRepository{},
	}
}

func (m *MockRepository) Exercise() repositories.ExerciseRepository {
	return m.exercise
}

func (m *MockRepository) Submission() repositories.SubmissionRepository {
	return m.submission
}

func (m *MockRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}

func (m *MockRepository) Ping(ctx context.Context) error { return nil }

func (m *MockRepository) Close() error { return nil }

func gormNotFound() error {
	return gorm.ErrRecordNotFound
}

// memoryCache is an in-process CacheService for tests.
type memoryCache struct {
	data map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string][]byte)}
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = data
	return nil
}

func (c *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	data, ok := c.data[key]
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	delete(c.data, key)
	return nil
}

func (c *memoryCache) DeletePattern(_ context.Context, pattern string) error {
	for key := range c.data {
		if ok, _ := path.Match(pattern, key); ok {
			delete(c.data, key)
		}
	}
	return nil
}
