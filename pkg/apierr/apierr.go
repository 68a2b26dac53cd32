// Package apierr gives every API error the same JSON shape.
package apierr

import (
	"github.com/gin-gonic/gin"
)

// Response is the error body returned by the API and decoded by the gateway
// client.
type Response struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Field   string `json:"field,omitempty"`
	Details string `json:"details,omitempty"`
}

const (
	ErrInvalidRequest   = "invalid_request"
	ErrInvalidBody      = "invalid_request_body"
	ErrValidationFailed = "validation_failed"
	ErrLimitReached     = "limit_reached"
	ErrNotFound         = "not_found"
	ErrConflict         = "conflict"
	ErrInternal         = "internal_error"
	ErrDatabaseError    = "database_error"
)

// Abort writes the error and stops the handler chain.
func Abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, Response{Code: code, Message: message, Status: status})
}

// AbortWithField is Abort for validation errors tied to one field.
func AbortWithField(c *gin.Context, status int, code, message, field string) {
	c.AbortWithStatusJSON(status, Response{Code: code, Message: message, Status: status, Field: field})
}

// AbortWithDetails is Abort with extra context, typically the wrapped error.
func AbortWithDetails(c *gin.Context, status int, code, message string, err error) {
	resp := Response{Code: code, Message: message, Status: status}
	if err != nil {
		resp.Details = err.Error()
	}
	c.AbortWithStatusJSON(status, resp)
}
