package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"flatfeed/internal/domain"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondError maps a service error to an HTTP status and envelope.
func RespondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrSchemaNotFound):
		respondWith(c, http.StatusNotFound, "SCHEMA_NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrRunAborted):
		respondWith(c, http.StatusUnprocessableEntity, "RUN_ABORTED", err.Error())
	default:
		respondWith(c, http.StatusInternalServerError, "INTERNAL", "internal server error")
	}
}

// RespondBadRequest sends a 400 error response.
func RespondBadRequest(c *gin.Context, message string) {
	respondWith(c, http.StatusBadRequest, "BAD_REQUEST", message)
}

func respondWith(c *gin.Context, status int, code, message string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: message},
	})
}
