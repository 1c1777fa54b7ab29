// Package grading computes objective scores for submitted answers.
// It is pure: every function works on already-materialized models and
// the same inputs always produce the same result.
package grading

import (
	"errors"
	"fmt"

	"github.com/aulalink/exercise-service/internal/models"
)

var ErrUnknownQuestionType = errors.New("unknown question type")

// Result is the outcome of auto-scoring a single answer.
type Result struct {
	// AutoScore is nil for kinds that require manual grading.
	AutoScore   *float64 `json:"auto_score"`
	MaxPoints   float64  `json:"max_points"`
	NeedsManual bool     `json:"needs_manual"`
}

// Strategy scores one answer against its question.
type Strategy interface {
	Score(q *models.Question, a *models.SubmissionAnswer) (Result, error)
}

// Engine routes by question type to the right strategy.
type Engine struct {
	strategies map[models.QuestionType]Strategy
}

// NewEngine installs the built-in strategies.
func NewEngine() *Engine {
	return &Engine{
		strategies: map[models.QuestionType]Strategy{
			models.MultipleChoice:   optionWeightStrategy{},
			models.MultipleResponse: optionWeightStrategy{},
			models.OpenEnded:        manualStrategy{},
			models.ClozeTest:        manualStrategy{},
		},
	}
}

// Score auto-scores a single answer.
func (e *Engine) Score(q *models.Question, a *models.SubmissionAnswer) (Result, error) {
	s, ok := e.strategies[q.Type]
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownQuestionType, q.Type)
	}
	return s.Score(q, a)
}

// optionWeightStrategy sums the stored weight of every selected
// option. Weights are taken from the option rows as-is; the strategy
// never re-derives them from the is_correct flag, so partial-credit
// and penalty schemes score exactly as stored.
type optionWeightStrategy struct{}

func (optionWeightStrategy) Score(q *models.Question, a *models.SubmissionAnswer) (Result, error) {
	selected, err := a.SelectedOptionIDs()
	if err != nil {
		return Result{}, fmt.Errorf("decode selected options: %w", err)
	}

	weights := make(map[uint]float64, len(q.Options))
	for _, opt := range q.Options {
		weights[opt.ID] = opt.Score
	}

	total := 0.0
	for _, id := range selected {
		total += weights[id]
	}
	return Result{AutoScore: &total, MaxPoints: float64(q.Points)}, nil
}

// manualStrategy marks the answer for manual grading and never
// produces an auto score.
type manualStrategy struct{}

func (manualStrategy) Score(q *models.Question, _ *models.SubmissionAnswer) (Result, error) {
	return Result{MaxPoints: float64(q.Points), NeedsManual: true}, nil
}

// Total sums assigned scores over a submission's answers, treating
// null as 0. This is a display total: the submission is not graded
// until every assigned score is non-null.
func Total(answers []models.SubmissionAnswer) float64 {
	total := 0.0
	for i := range answers {
		if answers[i].AssignedScore != nil {
			total += *answers[i].AssignedScore
		}
	}
	return total
}

// FullyGraded reports whether every answer carries an assigned score.
func FullyGraded(answers []models.SubmissionAnswer) bool {
	for i := range answers {
		if answers[i].AssignedScore == nil {
			return false
		}
	}
	return len(answers) > 0
}
