package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/aulalink/exercise-service/internal/repositories"
)

// ParseIDParam parses a numeric path parameter, responding with 400 and
// returning 0 when it is not a valid id.
func ParseIDParam(c *gin.Context, param string) uint {
	idStr := c.Param(param)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
		})
		return 0
	}
	return uint(id)
}

// ParseStringIDParam parses a non-empty string path parameter,
// responding with 400 when it is empty.
func ParseStringIDParam(c *gin.Context, param string) string {
	idStr := strings.TrimSpace(c.Param(param))
	if idStr == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: "ID cannot be empty",
		})
		return ""
	}
	return idStr
}

// ParseIntQuery parses an integer query parameter with a default.
func ParseIntQuery(c *gin.Context, param string, defaultValue int) int {
	valueStr := c.Query(param)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// ParseSubmissionFilters builds submission list filters from common
// query parameters.
func ParseSubmissionFilters(c *gin.Context) repositories.SubmissionFilters {
	filters := repositories.SubmissionFilters{
		Limit:     ParseIntQuery(c, "limit", 20),
		Offset:    ParseIntQuery(c, "offset", 0),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if gradedStr := c.Query("is_graded"); gradedStr != "" {
		graded := gradedStr == "true"
		filters.IsGraded = &graded
	}
	return filters
}
