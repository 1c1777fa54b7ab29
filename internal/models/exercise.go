package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type QuestionType string

const (
	MultipleChoice   QuestionType = "multiple_choice"
	MultipleResponse QuestionType = "multiple_response"
	OpenEnded        QuestionType = "open_ended"
	ClozeTest        QuestionType = "cloze_test"
)

// Exercise is an authored exercise: a title plus the raw authoring
// text. The parsed question set is persisted alongside and fully
// replaced whenever the content is edited.
type Exercise struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	Title     string `json:"title" gorm:"not null;size:255" validate:"required,max=255"`
	Content   string `json:"content" gorm:"type:text;not null" validate:"required"`
	CreatorID string `json:"creator_id" gorm:"not null;index;size:255"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Questions []Question `json:"questions,omitempty" gorm:"foreignKey:ExerciseID;constraint:OnDelete:CASCADE"`
}

// Question is one persisted question of an exercise.
type Question struct {
	ID         uint         `json:"id" gorm:"primaryKey"`
	ExerciseID uint         `json:"exercise_id" gorm:"not null;index"`
	Type       QuestionType `json:"type" gorm:"not null;index"`
	Text       string       `json:"text" gorm:"type:text;not null"`
	Points     int          `json:"points" gorm:"default:0"`
	Order      int          `json:"order" gorm:"column:question_order;not null"`

	// Open-ended only
	CharLimit *int `json:"char_limit,omitempty"`

	// Cloze test only, stored as JSONB
	ClozeData datatypes.JSON `json:"cloze_data,omitempty" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`

	Options []QuestionOption `json:"options,omitempty" gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE"`
}

// ClozeData is the JSONB payload of a cloze question.
type ClozeData struct {
	WordList []string       `json:"word_list"`
	Solution map[int]string `json:"solution"`
}

// Cloze decodes the cloze payload. Returns an empty value for
// non-cloze questions.
func (q *Question) Cloze() (ClozeData, error) {
	var cd ClozeData
	if len(q.ClozeData) == 0 {
		return cd, nil
	}
	err := json.Unmarshal(q.ClozeData, &cd)
	return cd, err
}

// QuestionOption is a single option of a choice question. Score is the
// weight awarded when the option is selected and is independent of
// IsCorrect: graders may store zero or negative weights on options
// flagged correct and vice versa. The scoring engine sums Score only.
type QuestionOption struct {
	ID         uint    `json:"id" gorm:"primaryKey"`
	QuestionID uint    `json:"question_id" gorm:"not null;index"`
	Text       string  `json:"text" gorm:"not null"`
	Score      float64 `json:"score" gorm:"not null;default:0"`
	IsCorrect  bool    `json:"is_correct" gorm:"not null;default:false"`
	Position   int     `json:"position" gorm:"not null;default:0"`
}
