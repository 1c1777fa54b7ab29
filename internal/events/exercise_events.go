package events

import (
	"time"

	"github.com/ThreeDotsLabs/watermill"
)

// EventType represents different types of domain events
type EventType string

const (
	// Exercise events
	EventExerciseCreated EventType = "exercise.created"
	EventExerciseUpdated EventType = "exercise.updated"
	EventExerciseDeleted EventType = "exercise.deleted"

	// Submission events
	EventSubmissionCreated EventType = "submission.created"
	EventSubmissionGraded  EventType = "submission.graded"
)

// DomainEvent is the base event structure for all published events
type DomainEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Exercise event payloads

type ExerciseCreatedEvent struct {
	ExerciseID    uint   `json:"exercise_id"`
	Title         string `json:"title"`
	CreatorID     string `json:"creator_id"`
	QuestionCount int    `json:"question_count"`
	TotalPoints   int    `json:"total_points"`
}

type ExerciseUpdatedEvent struct {
	ExerciseID    uint   `json:"exercise_id"`
	Title         string `json:"title"`
	QuestionCount int    `json:"question_count"`
	TotalPoints   int    `json:"total_points"`
}

type ExerciseDeletedEvent struct {
	ExerciseID uint `json:"exercise_id"`
}

// Submission event payloads

type SubmissionCreatedEvent struct {
	SubmissionID uint      `json:"submission_id"`
	ExerciseID   uint      `json:"exercise_id"`
	StudentID    string    `json:"student_id"`
	SubmittedAt  time.Time `json:"submitted_at"`
	NeedsManual  bool      `json:"needs_manual_grading"`
}

type SubmissionGradedEvent struct {
	SubmissionID uint    `json:"submission_id"`
	ExerciseID   uint    `json:"exercise_id"`
	StudentID    string  `json:"student_id"`
	TotalScore   float64 `json:"total_score"`
	MaxScore     float64 `json:"max_score"`
	GraderID     string  `json:"grader_id"`
}

// Event factory functions

func NewExerciseCreatedEvent(exerciseID uint, title, creatorID string, questionCount, totalPoints int) *DomainEvent {
	return newEvent(EventExerciseCreated, ExerciseCreatedEvent{
		ExerciseID:    exerciseID,
		Title:         title,
		CreatorID:     creatorID,
		QuestionCount: questionCount,
		TotalPoints:   totalPoints,
	})
}

func NewExerciseUpdatedEvent(exerciseID uint, title string, questionCount, totalPoints int) *DomainEvent {
	return newEvent(EventExerciseUpdated, ExerciseUpdatedEvent{
		ExerciseID:    exerciseID,
		Title:         title,
		QuestionCount: questionCount,
		TotalPoints:   totalPoints,
	})
}

func NewExerciseDeletedEvent(exerciseID uint) *DomainEvent {
	return newEvent(EventExerciseDeleted, ExerciseDeletedEvent{ExerciseID: exerciseID})
}

func NewSubmissionCreatedEvent(submissionID, exerciseID uint, studentID string, submittedAt time.Time, needsManual bool) *DomainEvent {
	return newEvent(EventSubmissionCreated, SubmissionCreatedEvent{
		SubmissionID: submissionID,
		ExerciseID:   exerciseID,
		StudentID:    studentID,
		SubmittedAt:  submittedAt,
		NeedsManual:  needsManual,
	})
}

func NewSubmissionGradedEvent(submissionID, exerciseID uint, studentID string, totalScore, maxScore float64, graderID string) *DomainEvent {
	return newEvent(EventSubmissionGraded, SubmissionGradedEvent{
		SubmissionID: submissionID,
		ExerciseID:   exerciseID,
		StudentID:    studentID,
		TotalScore:   totalScore,
		MaxScore:     maxScore,
		GraderID:     graderID,
	})
}

func newEvent(eventType EventType, data interface{}) *DomainEvent {
	return &DomainEvent{
		ID:        watermill.NewUUID(),
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    "exercise-service",
		Version:   "1.0",
		Data:      data,
	}
}
