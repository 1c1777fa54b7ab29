package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aulalink/exercise-service/internal/services"
	"github.com/aulalink/exercise-service/internal/utils"
)

type GradingHandler struct {
	BaseHandler
	gradingService services.GradingService
	exportService  services.ExportService
	validator      *utils.Validator
}

func NewGradingHandler(
	gradingService services.GradingService,
	exportService services.ExportService,
	validator *utils.Validator,
	logger utils.Logger,
) *GradingHandler {
	return &GradingHandler{
		BaseHandler:    NewBaseHandler(logger),
		gradingService: gradingService,
		exportService:  exportService,
		validator:      validator,
	}
}

// GradeSubmission applies assigned scores to a submission's answers
// @Summary Grade submission
// @Description Records assigned scores; ungraded answers with an auto score inherit it
// @Tags grading
// @Accept json
// @Produce json
// @Param submission_id path uint true "Submission ID"
// @Param grades body services.GradeSubmissionRequest true "Grades"
// @Success 200 {object} services.GradingResult
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /grading/submissions/{submission_id} [post]
func (h *GradingHandler) GradeSubmission(c *gin.Context) {
	submissionID := ParseIDParam(c, "submission_id")
	if submissionID == 0 {
		return
	}

	var req services.GradeSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	graderID, ok := h.RequireUserID(c)
	if !ok {
		return
	}

	result, err := h.gradingService.GradeSubmission(c.Request.Context(), submissionID, &req, graderID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetGradingOverview summarizes the grading state of an exercise
// @Summary Grading overview
// @Tags grading
// @Produce json
// @Param exercise_id path uint true "Exercise ID"
// @Success 200 {object} services.GradingOverview
// @Failure 404 {object} ErrorResponse
// @Router /grading/exercises/{exercise_id}/overview [get]
func (h *GradingHandler) GetGradingOverview(c *gin.Context) {
	exerciseID := ParseIDParam(c, "exercise_id")
	if exerciseID == 0 {
		return
	}

	overview, err := h.gradingService.GetOverview(c.Request.Context(), exerciseID, ParseSubmissionFilters(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, overview)
}

// SetOptionWeight adjusts the scoring weight of a single option
// @Summary Set option weight
// @Tags grading
// @Accept json
// @Produce json
// @Param question_id path uint true "Question ID"
// @Param option_id path uint true "Option ID"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /grading/questions/{question_id}/options/{option_id}/weight [put]
func (h *GradingHandler) SetOptionWeight(c *gin.Context) {
	questionID := ParseIDParam(c, "question_id")
	if questionID == 0 {
		return
	}
	optionID := ParseIDParam(c, "option_id")
	if optionID == 0 {
		return
	}

	var req struct {
		Score float64 `json:"score"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	if err := h.gradingService.SetOptionWeight(c.Request.Context(), questionID, optionID, req.Score); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Option weight updated"})
}

// ExportScores downloads the score sheet for an exercise
// @Summary Export scores
// @Tags grading
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param exercise_id path uint true "Exercise ID"
// @Success 200 {file} binary
// @Failure 404 {object} ErrorResponse
// @Router /grading/exercises/{exercise_id}/export [get]
func (h *GradingHandler) ExportScores(c *gin.Context) {
	exerciseID := ParseIDParam(c, "exercise_id")
	if exerciseID == 0 {
		return
	}

	h.LogRequest(c, "Exporting scores", "exercise_id", exerciseID)

	data, err := h.exportService.ExportScores(c.Request.Context(), exerciseID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("exercise_%d_scores.xlsx", exerciseID)
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func (h *GradingHandler) handleServiceError(c *gin.Context, err error) {
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
	case errors.Is(err, services.ErrQuestionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Question not found",
		})
	case errors.Is(err, services.ErrAnswerNotFound):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Answer not found in submission",
			Details: err.Error(),
		})
	case errors.Is(err, services.ErrOptionNotFound):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Option does not belong to question",
			Details: err.Error(),
		})
	case errors.Is(err, services.ErrGradingInvalidScore):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid score value",
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
