package grading

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/aulalink/exercise-service/internal/models"
)

func choiceQuestion(kind models.QuestionType, points int, scores ...float64) *models.Question {
	q := &models.Question{ID: 1, Type: kind, Points: points}
	for i, s := range scores {
		q.Options = append(q.Options, models.QuestionOption{
			ID:        uint(i + 1),
			Score:     s,
			IsCorrect: s > 0,
			Position:  i + 1,
		})
	}
	return q
}

func answerWithSelection(ids ...uint) *models.SubmissionAnswer {
	payload, _ := json.Marshal(ids)
	return &models.SubmissionAnswer{QuestionID: 1, SelectedOptions: datatypes.JSON(payload)}
}

func TestEngine_MultipleChoice_CorrectSelection(t *testing.T) {
	engine := NewEngine()
	q := choiceQuestion(models.MultipleChoice, 5, 5, 0, 0)

	result, err := engine.Score(q, answerWithSelection(1))

	require.NoError(t, err)
	require.NotNil(t, result.AutoScore)
	assert.Equal(t, 5.0, *result.AutoScore)
	assert.Equal(t, 5.0, result.MaxPoints)
	assert.False(t, result.NeedsManual)
}

func TestEngine_MultipleChoice_WrongSelection(t *testing.T) {
	engine := NewEngine()
	q := choiceQuestion(models.MultipleChoice, 5, 5, 0, 0)

	result, err := engine.Score(q, answerWithSelection(2))

	require.NoError(t, err)
	require.NotNil(t, result.AutoScore)
	assert.Equal(t, 0.0, *result.AutoScore)
}

func TestEngine_MultipleResponse_PartialCredit(t *testing.T) {
	engine := NewEngine()
	// Options A and B carry 5 points each, C carries nothing.
	q := choiceQuestion(models.MultipleResponse, 10, 5, 5, 0)

	// Selecting one correct and one worthless option earns the weight
	// of the correct one only.
	result, err := engine.Score(q, answerWithSelection(1, 3))

	require.NoError(t, err)
	require.NotNil(t, result.AutoScore)
	assert.Equal(t, 5.0, *result.AutoScore)
}

func TestEngine_ScoreIsIndependentOfCorrectFlag(t *testing.T) {
	engine := NewEngine()
	q := &models.Question{ID: 1, Type: models.MultipleChoice, Points: 5, Options: []models.QuestionOption{
		// Flagged correct but weighted zero: selecting it earns nothing.
		{ID: 1, Score: 0, IsCorrect: true, Position: 1},
		// Not flagged correct but carries weight.
		{ID: 2, Score: 2, IsCorrect: false, Position: 2},
	}}

	result, err := engine.Score(q, answerWithSelection(1))
	require.NoError(t, err)
	assert.Equal(t, 0.0, *result.AutoScore)

	result, err = engine.Score(q, answerWithSelection(2))
	require.NoError(t, err)
	assert.Equal(t, 2.0, *result.AutoScore)
}

func TestEngine_EmptySelectionScoresZero(t *testing.T) {
	engine := NewEngine()
	q := choiceQuestion(models.MultipleResponse, 10, 5, 5)

	result, err := engine.Score(q, &models.SubmissionAnswer{QuestionID: 1})

	require.NoError(t, err)
	require.NotNil(t, result.AutoScore)
	assert.Equal(t, 0.0, *result.AutoScore)
}

func TestEngine_ScoringIsIdempotent(t *testing.T) {
	engine := NewEngine()
	q := choiceQuestion(models.MultipleResponse, 10, 5, 5, 0)
	a := answerWithSelection(1, 2)

	first, err := engine.Score(q, a)
	require.NoError(t, err)
	second, err := engine.Score(q, a)
	require.NoError(t, err)

	assert.Equal(t, *first.AutoScore, *second.AutoScore)
}

func TestEngine_ManualKindsProduceNoAutoScore(t *testing.T) {
	engine := NewEngine()

	for _, kind := range []models.QuestionType{models.OpenEnded, models.ClozeTest} {
		q := &models.Question{ID: 1, Type: kind, Points: 8}
		result, err := engine.Score(q, &models.SubmissionAnswer{QuestionID: 1})

		require.NoError(t, err)
		assert.Nil(t, result.AutoScore)
		assert.True(t, result.NeedsManual)
		assert.Equal(t, 8.0, result.MaxPoints)
	}
}

func TestEngine_UnknownTypeFails(t *testing.T) {
	engine := NewEngine()
	q := &models.Question{ID: 1, Type: "essay"}

	_, err := engine.Score(q, &models.SubmissionAnswer{QuestionID: 1})

	assert.ErrorIs(t, err, ErrUnknownQuestionType)
}

func TestTotal_TreatsNullAsZero(t *testing.T) {
	five := 5.0
	three := 3.0
	answers := []models.SubmissionAnswer{
		{AssignedScore: &five},
		{AssignedScore: nil},
		{AssignedScore: &three},
	}

	assert.Equal(t, 8.0, Total(answers))
}

func TestFullyGraded(t *testing.T) {
	five := 5.0

	assert.False(t, FullyGraded(nil))
	assert.False(t, FullyGraded([]models.SubmissionAnswer{{AssignedScore: nil}}))
	assert.False(t, FullyGraded([]models.SubmissionAnswer{{AssignedScore: &five}, {AssignedScore: nil}}))
	assert.True(t, FullyGraded([]models.SubmissionAnswer{{AssignedScore: &five}}))
}
