package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/staya/travel-booking-backend/internal/models"
)

// parsePagination reads ?page= and ?limit= with sane bounds
func parsePagination(c *gin.Context) (page, limit, offset int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}

	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "10"))
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	return page, limit, (page - 1) * limit
}

// respondSuccess writes a 200 envelope with optional data
func respondSuccess(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// respondCreated writes a 201 envelope
func respondCreated(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, models.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// respondList writes a 200 envelope with pagination metadata
func respondList(c *gin.Context, message string, data interface{}, pagination *models.Pagination) {
	c.JSON(http.StatusOK, models.APIResponse{
		Success:    true,
		Message:    message,
		Data:       data,
		Pagination: pagination,
	})
}

// respondError writes an error envelope with a machine-readable code
func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, models.APIResponse{
		Success: false,
		Message: message,
		Error:   code,
	})
}

// respondValidationError writes a 400 envelope for a binding failure
func respondValidationError(c *gin.Context, err error) {
	respondError(c, http.StatusBadRequest, models.ErrCodeValidation, err.Error())
}

// respondInternalError writes a 500 envelope without leaking internals
func respondInternalError(c *gin.Context, message string) {
	respondError(c, http.StatusInternalServerError, models.ErrCodeInternal, message)
}
