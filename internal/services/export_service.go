package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"github.com/aulalink/exercise-service/internal/grading"
	"github.com/aulalink/exercise-service/internal/models"
	"github.com/aulalink/exercise-service/internal/repositories"
)

// ExportService produces downloadable score sheets for an exercise.
type ExportService interface {
	ExportScores(ctx context.Context, exerciseID uint) ([]byte, error)
}

type exportService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewExportService(repo repositories.Repository, logger *slog.Logger) ExportService {
	return &exportService{
		repo:   repo,
		logger: logger,
	}
}

// ExportScores renders one row per submission with a score column per
// question, in question order, plus the running total.
func (s *exportService) ExportScores(ctx context.Context, exerciseID uint) ([]byte, error) {
	s.logger.Info("Exporting scores", "exercise_id", exerciseID)

	exercise, err := s.repo.Exercise().GetByIDWithQuestions(ctx, exerciseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExerciseNotFound
		}
		return nil, fmt.Errorf("failed to get exercise: %w", err)
	}

	submissions, _, err := s.repo.Submission().GetByExercise(ctx, exerciseID, repositories.SubmissionFilters{
		SortBy:    "submitted_at",
		SortOrder: "asc",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}

	f := excelize.NewFile()
	sheetName := "Scores"

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headers := []interface{}{"Student ID", "Submitted At", "Graded"}
	for _, q := range exercise.Questions {
		headers = append(headers, fmt.Sprintf("Q%d (%d pts)", q.Order, q.Points))
	}
	headers = append(headers, "Total", "Max")
	if err := writeRow(f, sheetName, 1, headers); err != nil {
		return nil, err
	}

	maxTotal := 0
	for _, q := range exercise.Questions {
		maxTotal += q.Points
	}

	for i, sub := range submissions {
		full, err := s.repo.Submission().GetByIDWithAnswers(ctx, sub.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load submission %d: %w", sub.ID, err)
		}

		byQuestion := make(map[uint]*models.SubmissionAnswer, len(full.Answers))
		for j := range full.Answers {
			byQuestion[full.Answers[j].QuestionID] = &full.Answers[j]
		}

		row := []interface{}{
			full.StudentID,
			full.SubmittedAt.Format("2006-01-02 15:04:05"),
			full.IsGraded,
		}
		for _, q := range exercise.Questions {
			answer, ok := byQuestion[q.ID]
			if !ok || answer.AssignedScore == nil {
				row = append(row, "")
				continue
			}
			row = append(row, *answer.AssignedScore)
		}
		row = append(row, grading.Total(full.Answers), maxTotal)

		if err := writeRow(f, sheetName, i+2, row); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	s.logger.Info("Scores exported", "exercise_id", exerciseID, "submissions", len(submissions))
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheetName string, rowIndex int, values []interface{}) error {
	for colIndex, value := range values {
		cell, err := excelize.CoordinatesToCellName(colIndex+1, rowIndex)
		if err != nil {
			return fmt.Errorf("failed to compute cell name: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, value); err != nil {
			return fmt.Errorf("failed to write cell %s: %w", cell, err)
		}
	}
	return nil
}
