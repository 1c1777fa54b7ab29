package services

import (
	"errors"
	"fmt"

	apperrors "github.com/aulalink/exercise-service/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrValidationFailed = errors.New("validation failed")
	ErrInternalError    = errors.New("internal server error")
	ErrBadRequest       = errors.New("bad request")
	ErrConflict         = errors.New("resource conflict")

	// Exercise specific errors
	ErrExerciseNotFound       = errors.New("exercise not found")
	ErrExerciseDuplicateTitle = errors.New("exercise title already exists")
	ErrExerciseNotDeletable   = errors.New("exercise cannot be deleted - has existing submissions")
	ErrNoValidQuestions       = errors.New("exercise content contains no valid questions")

	// Question specific errors
	ErrQuestionNotFound    = errors.New("question not found")
	ErrQuestionInvalidType = errors.New("invalid question type")
	ErrOptionNotFound      = errors.New("option does not belong to question")

	// Submission specific errors
	ErrSubmissionNotFound  = errors.New("submission not found")
	ErrDuplicateSubmission = errors.New("student has already submitted for this exercise")
	ErrUnknownQuestion     = errors.New("answer references a question not in the exercise")
	ErrAnswerTypeMismatch  = errors.New("answer payload does not match question type")
	ErrCharLimitExceeded   = errors.New("open answer exceeds character limit")

	// Grading specific errors
	ErrGradingInvalidScore = errors.New("invalid score value")
	ErrAnswerNotFound      = errors.New("answer not found in submission")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

type BusinessRuleError struct {
	Rule    string                 `json:"rule"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func (bre *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule violation (%s): %s", bre.Rule, bre.Message)
}

// ===== ERROR HELPERS =====

// NewValidationError creates a new validation error using the shared type
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

func NewBusinessRuleError(rule, message string, context map[string]interface{}) *BusinessRuleError {
	return &BusinessRuleError{
		Rule:    rule,
		Message: message,
		Context: context,
	}
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrExerciseNotFound) ||
		errors.Is(err, ErrQuestionNotFound) ||
		errors.Is(err, ErrSubmissionNotFound) ||
		errors.Is(err, ErrAnswerNotFound)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) ||
		errors.Is(err, ErrNoValidQuestions) ||
		errors.Is(err, ErrUnknownQuestion) ||
		errors.Is(err, ErrOptionNotFound) ||
		errors.Is(err, ErrAnswerTypeMismatch) ||
		errors.Is(err, ErrCharLimitExceeded) ||
		errors.Is(err, ErrGradingInvalidScore) {
		return true
	}
	var ves apperrors.ValidationErrors
	if errors.As(err, &ves) {
		return true
	}
	var ve *apperrors.ValidationError
	return errors.As(err, &ve)
}

// IsBusinessRule checks if error represents a business rule violation
func IsBusinessRule(err error) bool {
	var bre *BusinessRuleError
	return errors.As(err, &bre)
}

// IsConflict checks if error represents a resource conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrExerciseDuplicateTitle) ||
		errors.Is(err, ErrExerciseNotDeletable) ||
		errors.Is(err, ErrDuplicateSubmission)
}
