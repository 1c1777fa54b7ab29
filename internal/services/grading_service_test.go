package services

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aulalink/exercise-service/internal/events"
	"github.com/aulalink/exercise-service/internal/models"
	"github.com/aulalink/exercise-service/internal/repositories"
	"github.com/aulalink/exercise-service/internal/utils"
)

func newGradingService(repo *MockRepository) (GradingService, *memoryCache, *events.MockEventPublisher) {
	logger := testLogger()
	cache := newMemoryCache()
	publisher := events.NewMockEventPublisher(logger)
	svc := NewGradingService(repo, cache, publisher, logger, utils.NewValidator())
	return svc, cache, publisher
}

func floatPtr(v float64) *float64 { return &v }

// pendingSubmission has one auto-scored choice answer and one pending
// open answer.
func pendingSubmission() *models.Submission {
	return &models.Submission{
		ID:         100,
		ExerciseID: 1,
		StudentID:  "student-1",
		Answers: []models.SubmissionAnswer{
			{
				ID: 1001, SubmissionID: 100, QuestionID: 1,
				AutoScore: floatPtr(5),
				Question:  models.Question{ID: 1, Type: models.MultipleChoice, Points: 5},
			},
			{
				ID: 1002, SubmissionID: 100, QuestionID: 2,
				Question: models.Question{ID: 2, Type: models.OpenEnded, Points: 10},
			},
		},
	}
}

func TestGradingService_GradeSubmission_FullyGraded(t *testing.T) {
	repo := NewMockRepository()
	svc, _, publisher := newGradingService(repo)

	var applied []repositories.AnswerGrade
	repo.submission.On("GetByIDWithAnswers", mock.Anything, uint(100)).Return(pendingSubmission(), nil)
	repo.submission.On("UpdateAnswerGrades", mock.Anything, mock.AnythingOfType("[]repositories.AnswerGrade")).
		Run(func(args mock.Arguments) {
			applied = args.Get(1).([]repositories.AnswerGrade)
		}).Return(nil)
	repo.submission.On("SetGraded", mock.Anything, uint(100), true).Return(nil)

	result, err := svc.GradeSubmission(context.Background(), 100, &GradeSubmissionRequest{
		Grades: []AnswerGradeInput{{AnswerID: 1002, Score: floatPtr(7)}},
	}, "teacher-1")

	require.NoError(t, err)
	assert.True(t, result.IsGraded)
	assert.Equal(t, 12.0, result.TotalScore)
	assert.Equal(t, 15.0, result.MaxScore)

	// The untouched choice answer inherits its auto score.
	require.Len(t, applied, 2)
	assert.Equal(t, uint(1002), applied[0].AnswerID)
	assert.Equal(t, 7.0, *applied[0].Score)
	assert.Equal(t, uint(1001), applied[1].AnswerID)
	assert.Equal(t, 5.0, *applied[1].Score)

	require.Len(t, publisher.Events, 1)
	assert.Equal(t, events.EventSubmissionGraded, publisher.Events[0].Type)
	graded := publisher.Events[0].Data.(events.SubmissionGradedEvent)
	assert.Equal(t, 12.0, graded.TotalScore)
	assert.Equal(t, "teacher-1", graded.GraderID)

	repo.submission.AssertExpectations(t)
}

func TestGradingService_GradeSubmission_PartialStaysUngraded(t *testing.T) {
	repo := NewMockRepository()
	svc, _, publisher := newGradingService(repo)

	submission := pendingSubmission()
	// Second manual answer keeps the submission pending when only the
	// first one is graded.
	submission.Answers = append(submission.Answers, models.SubmissionAnswer{
		ID: 1003, SubmissionID: 100, QuestionID: 3,
		Question: models.Question{ID: 3, Type: models.ClozeTest, Points: 6},
	})

	repo.submission.On("GetByIDWithAnswers", mock.Anything, uint(100)).Return(submission, nil)
	repo.submission.On("UpdateAnswerGrades", mock.Anything, mock.Anything).Return(nil)
	repo.submission.On("SetGraded", mock.Anything, uint(100), false).Return(nil)

	result, err := svc.GradeSubmission(context.Background(), 100, &GradeSubmissionRequest{
		Grades: []AnswerGradeInput{{AnswerID: 1002, Score: floatPtr(7)}},
	}, "teacher-1")

	require.NoError(t, err)
	assert.False(t, result.IsGraded)
	assert.Empty(t, publisher.Events)
	repo.submission.AssertExpectations(t)
}

func TestGradingService_GradeSubmission_InvalidScore(t *testing.T) {
	repo := NewMockRepository()
	svc, _, _ := newGradingService(repo)

	_, err := svc.GradeSubmission(context.Background(), 100, &GradeSubmissionRequest{
		Grades: []AnswerGradeInput{{AnswerID: 1002, Score: floatPtr(math.NaN())}},
	}, "teacher-1")

	assert.ErrorIs(t, err, ErrGradingInvalidScore)
	repo.submission.AssertNotCalled(t, "GetByIDWithAnswers", mock.Anything, mock.Anything)
}

func TestGradingService_GradeSubmission_UnknownAnswer(t *testing.T) {
	repo := NewMockRepository()
	svc, _, _ := newGradingService(repo)

	repo.submission.On("GetByIDWithAnswers", mock.Anything, uint(100)).Return(pendingSubmission(), nil)

	_, err := svc.GradeSubmission(context.Background(), 100, &GradeSubmissionRequest{
		Grades: []AnswerGradeInput{{AnswerID: 9999, Score: floatPtr(1)}},
	}, "teacher-1")

	assert.ErrorIs(t, err, ErrAnswerNotFound)
	repo.submission.AssertNotCalled(t, "UpdateAnswerGrades", mock.Anything, mock.Anything)
}

func TestGradingService_GradeSubmission_NotFound(t *testing.T) {
	repo := NewMockRepository()
	svc, _, _ := newGradingService(repo)

	repo.submission.On("GetByIDWithAnswers", mock.Anything, uint(404)).Return(nil, gormNotFound())

	_, err := svc.GradeSubmission(context.Background(), 404, &GradeSubmissionRequest{
		Grades: []AnswerGradeInput{{AnswerID: 1, Score: floatPtr(1)}},
	}, "teacher-1")

	assert.ErrorIs(t, err, ErrSubmissionNotFound)
}

func TestGradingService_GetOverview(t *testing.T) {
	repo := NewMockRepository()
	svc, _, _ := newGradingService(repo)

	now := time.Now()
	repo.exercise.On("GetByID", mock.Anything, uint(1)).Return(&models.Exercise{ID: 1}, nil)
	repo.submission.On("GetStats", mock.Anything, uint(1)).Return(&repositories.SubmissionStats{
		TotalSubmissions:  2,
		GradedSubmissions: 1,
	}, nil)
	repo.submission.On("GetByExercise", mock.Anything, uint(1), mock.Anything).Return([]*models.Submission{
		{ID: 100, StudentID: "student-1", SubmittedAt: now, IsGraded: true},
		{ID: 101, StudentID: "student-2", SubmittedAt: now},
	}, int64(2), nil)

	overview, err := svc.GetOverview(context.Background(), 1, repositories.SubmissionFilters{Limit: 20})

	require.NoError(t, err)
	assert.Equal(t, int64(2), overview.Total)
	require.Len(t, overview.Submissions, 2)
	assert.True(t, overview.Submissions[0].IsGraded)
	assert.Equal(t, "student-2", overview.Submissions[1].StudentID)
	assert.Equal(t, 1, overview.Stats.GradedSubmissions)
}

func TestGradingService_SetOptionWeight(t *testing.T) {
	repo := NewMockRepository()
	svc, cache, _ := newGradingService(repo)

	require.NoError(t, cache.Set(context.Background(), "exercise:1", "cached", 0))
	repo.exercise.On("GetQuestion", mock.Anything, uint(1)).Return(&models.Question{
		ID: 1, ExerciseID: 1, Type: models.MultipleChoice,
		Options: []models.QuestionOption{{ID: 11}, {ID: 12}},
	}, nil)
	repo.exercise.On("UpdateOptionScore", mock.Anything, uint(11), 2.5).Return(nil)

	err := svc.SetOptionWeight(context.Background(), 1, 11, 2.5)

	require.NoError(t, err)
	repo.exercise.AssertExpectations(t)
	_, cached := cache.data["exercise:1"]
	assert.False(t, cached)
}

func TestGradingService_SetOptionWeight_OptionNotOnQuestion(t *testing.T) {
	repo := NewMockRepository()
	svc, _, _ := newGradingService(repo)

	repo.exercise.On("GetQuestion", mock.Anything, uint(1)).Return(&models.Question{
		ID: 1, ExerciseID: 1,
		Options: []models.QuestionOption{{ID: 11}},
	}, nil)

	err := svc.SetOptionWeight(context.Background(), 1, 999, 2.5)

	assert.ErrorIs(t, err, ErrOptionNotFound)
	repo.exercise.AssertNotCalled(t, "UpdateOptionScore", mock.Anything, mock.Anything, mock.Anything)
}
