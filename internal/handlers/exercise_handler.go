package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aulalink/exercise-service/internal/repositories"
	"github.com/aulalink/exercise-service/internal/services"
	"github.com/aulalink/exercise-service/internal/utils"
)

type ExerciseHandler struct {
	BaseHandler
	exerciseService services.ExerciseService
	validator       *utils.Validator
}

func NewExerciseHandler(
	exerciseService services.ExerciseService,
	validator *utils.Validator,
	logger utils.Logger,
) *ExerciseHandler {
	return &ExerciseHandler{
		BaseHandler:     NewBaseHandler(logger),
		exerciseService: exerciseService,
		validator:       validator,
	}
}

// CreateExercise creates a new exercise from authoring text
// @Summary Create exercise
// @Description Parses the exercise content and persists the accepted questions
// @Tags exercises
// @Accept json
// @Produce json
// @Param exercise body services.CreateExerciseRequest true "Exercise data"
// @Success 201 {object} services.ExerciseResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /exercises [post]
func (h *ExerciseHandler) CreateExercise(c *gin.Context) {
	var req services.CreateExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	creatorID, ok := h.RequireUserID(c)
	if !ok {
		return
	}

	exercise, err := h.exerciseService.Create(c.Request.Context(), &req, creatorID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, exercise)
}

// GetExercise retrieves an exercise with its parsed questions
// @Summary Get exercise
// @Tags exercises
// @Produce json
// @Param id path uint true "Exercise ID"
// @Success 200 {object} services.ExerciseResponse
// @Failure 404 {object} ErrorResponse
// @Router /exercises/{id} [get]
func (h *ExerciseHandler) GetExercise(c *gin.Context) {
	id := ParseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Getting exercise", "exercise_id", id)

	exercise, err := h.exerciseService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, exercise)
}

// ListExercises lists exercises with pagination
// @Summary List exercises
// @Tags exercises
// @Produce json
// @Param creator_id query string false "Filter by creator"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} services.ExerciseListResponse
// @Router /exercises [get]
func (h *ExerciseHandler) ListExercises(c *gin.Context) {
	filters := repositories.ExerciseFilters{
		Limit:     ParseIntQuery(c, "limit", 20),
		Offset:    ParseIntQuery(c, "offset", 0),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if creatorID := c.Query("creator_id"); creatorID != "" {
		filters.CreatorID = &creatorID
	}

	exercises, err := h.exerciseService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, exercises)
}

// UpdateExercise updates an exercise and reparses its content
// @Summary Update exercise
// @Description Replaces the exercise content and its parsed question set
// @Tags exercises
// @Accept json
// @Produce json
// @Param id path uint true "Exercise ID"
// @Param exercise body services.UpdateExerciseRequest true "Exercise update data"
// @Success 200 {object} services.ExerciseResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /exercises/{id} [put]
func (h *ExerciseHandler) UpdateExercise(c *gin.Context) {
	id := ParseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.UpdateExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	exercise, err := h.exerciseService.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, exercise)
}

// DeleteExercise deletes an exercise without submissions
// @Summary Delete exercise
// @Tags exercises
// @Produce json
// @Param id path uint true "Exercise ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /exercises/{id} [delete]
func (h *ExerciseHandler) DeleteExercise(c *gin.Context) {
	id := ParseIDParam(c, "id")
	if id == 0 {
		return
	}

	if err := h.exerciseService.Delete(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Exercise deleted"})
}

// PreviewExercise parses content without persisting it
// @Summary Preview exercise content
// @Description Returns the questions that would be accepted plus all parse diagnostics
// @Tags exercises
// @Accept json
// @Produce json
// @Param content body services.CreateExerciseRequest true "Content to parse"
// @Success 200 {object} services.PreviewResponse
// @Failure 400 {object} ErrorResponse
// @Router /exercises/preview [post]
func (h *ExerciseHandler) PreviewExercise(c *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	preview, err := h.exerciseService.Preview(c.Request.Context(), req.Content)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, preview)
}

func (h *ExerciseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	var businessRuleError *services.BusinessRuleError
	if errors.As(err, &businessRuleError) {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: businessRuleError.Message,
			Details: map[string]interface{}{
				"rule":    businessRuleError.Rule,
				"context": businessRuleError.Context,
			},
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrExerciseNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Exercise not found",
		})
	case errors.Is(err, services.ErrExerciseDuplicateTitle):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Exercise title already exists",
		})
	case errors.Is(err, services.ErrExerciseNotDeletable):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Exercise cannot be deleted - has existing submissions",
		})
	case errors.Is(err, services.ErrNoValidQuestions):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Exercise content contains no valid questions",
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
