package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aulalink/exercise-service/internal/services"
	"github.com/aulalink/exercise-service/internal/utils"
)

type SubmissionHandler struct {
	BaseHandler
	submissionService services.SubmissionService
	validator         *utils.Validator
}

func NewSubmissionHandler(
	submissionService services.SubmissionService,
	validator *utils.Validator,
	logger utils.Logger,
) *SubmissionHandler {
	return &SubmissionHandler{
		BaseHandler:       NewBaseHandler(logger),
		submissionService: submissionService,
		validator:         validator,
	}
}

// SubmitAnswers records a student's submission for an exercise
// @Summary Submit answers
// @Description Validates the submitted answers against the exercise and records the attempt
// @Tags submissions
// @Accept json
// @Produce json
// @Param submission body services.SubmitRequest true "Submission data"
// @Success 201 {object} services.SubmissionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /submissions [post]
func (h *SubmissionHandler) SubmitAnswers(c *gin.Context) {
	var req services.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	studentID, ok := h.RequireUserID(c)
	if !ok {
		return
	}

	submission, err := h.submissionService.Submit(c.Request.Context(), &req, studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, submission)
}

// GetSubmission retrieves a submission with its answers
// @Summary Get submission
// @Tags submissions
// @Produce json
// @Param id path uint true "Submission ID"
// @Success 200 {object} services.SubmissionResponse
// @Failure 404 {object} ErrorResponse
// @Router /submissions/{id} [get]
func (h *SubmissionHandler) GetSubmission(c *gin.Context) {
	id := ParseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Getting submission", "submission_id", id)

	submission, err := h.submissionService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, submission)
}

// GetSubmissionsByExercise lists submissions for an exercise
// @Summary List submissions by exercise
// @Tags submissions
// @Produce json
// @Param exercise_id path uint true "Exercise ID"
// @Param is_graded query bool false "Filter by graded state"
// @Success 200 {object} services.SubmissionListResponse
// @Router /submissions/exercise/{exercise_id} [get]
func (h *SubmissionHandler) GetSubmissionsByExercise(c *gin.Context) {
	exerciseID := ParseIDParam(c, "exercise_id")
	if exerciseID == 0 {
		return
	}

	submissions, err := h.submissionService.ListByExercise(c.Request.Context(), exerciseID, ParseSubmissionFilters(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, submissions)
}

// GetSubmissionsByStudent lists a student's submissions
// @Summary List submissions by student
// @Tags submissions
// @Produce json
// @Param student_id path string true "Student ID"
// @Success 200 {object} services.SubmissionListResponse
// @Router /submissions/student/{student_id} [get]
func (h *SubmissionHandler) GetSubmissionsByStudent(c *gin.Context) {
	studentID := ParseStringIDParam(c, "student_id")
	if studentID == "" {
		return
	}

	submissions, err := h.submissionService.ListByStudent(c.Request.Context(), studentID, ParseSubmissionFilters(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, submissions)
}

// DeleteSubmission removes a submission
// @Summary Delete submission
// @Tags submissions
// @Produce json
// @Param id path uint true "Submission ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /submissions/{id} [delete]
func (h *SubmissionHandler) DeleteSubmission(c *gin.Context) {
	id := ParseIDParam(c, "id")
	if id == 0 {
		return
	}

	if err := h.submissionService.Delete(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Submission deleted"})
}

func (h *SubmissionHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrExerciseNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Exercise not found",
		})
	case errors.Is(err, services.ErrSubmissionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Submission not found",
		})
	case errors.Is(err, services.ErrDuplicateSubmission):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Student has already submitted for this exercise",
		})
	case errors.Is(err, services.ErrUnknownQuestion),
		errors.Is(err, services.ErrOptionNotFound),
		errors.Is(err, services.ErrAnswerTypeMismatch):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Submission does not match the exercise",
			Details: err.Error(),
		})
	case errors.Is(err, services.ErrCharLimitExceeded):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Open answer exceeds character limit",
			Details: err.Error(),
		})
	case services.IsValidation(err):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: err.Error(),
		})
	default:
		h.LogError(c, err, "Unhandled service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
