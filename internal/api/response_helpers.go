// internal/api/response_helpers.go
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/MYMGG/storysmith-mvp/internal/errors"
)

// APIResponse is the uniform JSON envelope for API replies.
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Message   string      `json:"message,omitempty"`
	Error     string      `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Success writes a 200 response.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, &APIResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now(),
	})
}

// Created writes a 201 response.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, &APIResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now(),
	})
}

// Fail writes an error response, mapping AppError types to HTTP status codes.
func Fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		switch appErr.Type {
		case apperrors.ErrorTypeValidation, apperrors.ErrorTypeParse, apperrors.ErrorTypeEnvelope:
			status = http.StatusBadRequest
		case apperrors.ErrorTypeNotFound:
			status = http.StatusNotFound
		case apperrors.ErrorTypeUnauthorized:
			status = http.StatusUnauthorized
		case apperrors.ErrorTypeConflict:
			status = http.StatusConflict
		}
	}

	c.JSON(status, &APIResponse{
		Success:   false,
		Error:     err.Error(),
		Timestamp: time.Now(),
	})
}

// FailWithStatus writes an error response with an explicit status code.
func FailWithStatus(c *gin.Context, status int, message string) {
	c.JSON(status, &APIResponse{
		Success:   false,
		Error:     message,
		Timestamp: time.Now(),
	})
}
