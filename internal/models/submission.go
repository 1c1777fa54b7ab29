package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Submission is a student's single attempt at an exercise. The unique
// index enforces one submission per (exercise, student) pair; a second
// attempt is rejected, never merged.
type Submission struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	ExerciseID  uint      `json:"exercise_id" gorm:"not null;uniqueIndex:idx_submissions_exercise_student"`
	StudentID   string    `json:"student_id" gorm:"not null;size:255;uniqueIndex:idx_submissions_exercise_student"`
	SubmittedAt time.Time `json:"submitted_at"`
	IsGraded    bool      `json:"is_graded" gorm:"not null;default:false"`

	Answers []SubmissionAnswer `json:"answers,omitempty" gorm:"foreignKey:SubmissionID;constraint:OnDelete:CASCADE"`
}

// SubmissionAnswer is the normalized answer for one question, one row
// per question. Exactly one of the payload columns is populated,
// matching the question's kind. Answers are immutable after creation;
// only the score columns change during grading.
type SubmissionAnswer struct {
	ID           uint `json:"id" gorm:"primaryKey"`
	SubmissionID uint `json:"submission_id" gorm:"not null;uniqueIndex:idx_answers_submission_question"`
	QuestionID   uint `json:"question_id" gorm:"not null;uniqueIndex:idx_answers_submission_question"`

	// Choice kinds: JSON array of selected option ids.
	SelectedOptions datatypes.JSON `json:"selected_options,omitempty" gorm:"type:jsonb"`
	// Open-ended: free text.
	OpenAnswer *string `json:"open_answer,omitempty" gorm:"type:text"`
	// Cloze: JSON object mapping blank index to submitted word.
	ClozeAnswers datatypes.JSON `json:"cloze_answers,omitempty" gorm:"type:jsonb"`

	// AutoScore is set once at submission time for option-based kinds
	// and never for open-ended or cloze. AssignedScore is the score of
	// record, set by grading actions.
	AutoScore     *float64 `json:"auto_score,omitempty"`
	AssignedScore *float64 `json:"assigned_score,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Question Question `json:"question,omitempty" gorm:"foreignKey:QuestionID"`
}

// SelectedOptionIDs decodes the choice payload.
func (a *SubmissionAnswer) SelectedOptionIDs() ([]uint, error) {
	if len(a.SelectedOptions) == 0 {
		return nil, nil
	}
	var ids []uint
	err := json.Unmarshal(a.SelectedOptions, &ids)
	return ids, err
}

// ClozeWords decodes the cloze payload.
func (a *SubmissionAnswer) ClozeWords() (map[int]string, error) {
	if len(a.ClozeAnswers) == 0 {
		return nil, nil
	}
	var words map[int]string
	err := json.Unmarshal(a.ClozeAnswers, &words)
	return words, err
}
