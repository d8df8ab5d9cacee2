package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// PaginationParams holds pagination-related query parameters.
type PaginationParams struct {
	Page  int
	Limit int
}

// ParsePaginationParams parses page/limit query parameters, applying a
// default and capping the maximum limit.
func ParsePaginationParams(c *gin.Context, defaultLimit, maxLimit int) PaginationParams {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	} else if limit > maxLimit {
		limit = maxLimit
	}

	return PaginationParams{Page: page, Limit: limit}
}

// CalculateOffset calculates the SQL offset for a page.
func CalculateOffset(page, limit int) int {
	return (page - 1) * limit
}

// SendErrorResponse sends a standardized error response.
func SendErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{"error": message})
}

// SendPaginatedResponse sends data with pagination metadata.
func SendPaginatedResponse(c *gin.Context, statusCode int, data interface{}, totalItems, page, limit int) {
	totalPages := (totalItems + limit - 1) / limit
	if totalPages == 0 {
		totalPages = 1
	}
	c.JSON(statusCode, gin.H{
		"data": data,
		"pagination": gin.H{
			"totalItems":   totalItems,
			"currentPage":  page,
			"totalPages":   totalPages,
			"itemsPerPage": limit,
		},
	})
}
