package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/aulalink/exercise-service/internal/services"
	"github.com/aulalink/exercise-service/internal/utils"
)

type HandlerManager struct {
	exerciseHandler   *ExerciseHandler
	submissionHandler *SubmissionHandler
	gradingHandler    *GradingHandler
}

func NewHandlerManager(
	exerciseService services.ExerciseService,
	submissionService services.SubmissionService,
	gradingService services.GradingService,
	exportService services.ExportService,
	validator *utils.Validator,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		exerciseHandler:   NewExerciseHandler(exerciseService, validator, logger),
		submissionHandler: NewSubmissionHandler(submissionService, validator, logger),
		gradingHandler:    NewGradingHandler(gradingService, exportService, validator, logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Exercise routes
		exercises := v1.Group("/exercises")
		{
			exercises.POST("", hm.exerciseHandler.CreateExercise)
			exercises.GET("", hm.exerciseHandler.ListExercises)
			exercises.POST("/preview", hm.exerciseHandler.PreviewExercise)
			exercises.GET("/:id", hm.exerciseHandler.GetExercise)
			exercises.PUT("/:id", hm.exerciseHandler.UpdateExercise)
			exercises.DELETE("/:id", hm.exerciseHandler.DeleteExercise)
		}

		// Submission routes
		submissions := v1.Group("/submissions")
		{
			submissions.POST("", hm.submissionHandler.SubmitAnswers)
			submissions.GET("/:id", hm.submissionHandler.GetSubmission)
			submissions.DELETE("/:id", hm.submissionHandler.DeleteSubmission)
			submissions.GET("/exercise/:exercise_id", hm.submissionHandler.GetSubmissionsByExercise)
			submissions.GET("/student/:student_id", hm.submissionHandler.GetSubmissionsByStudent)
		}

		// Grading routes
		grading := v1.Group("/grading")
		{
			grading.POST("/submissions/:submission_id", hm.gradingHandler.GradeSubmission)
			grading.GET("/exercises/:exercise_id/overview", hm.gradingHandler.GetGradingOverview)
			grading.GET("/exercises/:exercise_id/export", hm.gradingHandler.ExportScores)
			grading.PUT("/questions/:question_id/options/:option_id/weight", hm.gradingHandler.SetOptionWeight)
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "exercise-service",
		})
	})
}
