package response

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Envelope is the unified API response format. Every endpoint, success or
// failure, responds with this shape.
type Envelope struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data"`
	Error     *string     `json:"error"`
	Timestamp string      `json:"timestamp"`
}

// AppError is a structured application error carrying the HTTP status to
// respond with. The message is what the client sees; anything more
// detailed belongs in the server-side log.
type AppError struct {
	Status  int
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

func NewValidation(msg string) *AppError {
	return &AppError{Status: http.StatusBadRequest, Message: msg}
}

func NewUnauthorized() *AppError {
	return &AppError{Status: http.StatusUnauthorized, Message: "Unauthorized"}
}

// NewForbidden deliberately reveals nothing about which check failed.
func NewForbidden() *AppError {
	return &AppError{Status: http.StatusForbidden, Message: "Insufficient permissions"}
}

// NewNotFound covers both missing resources and resources outside the
// caller's visibility; the two are intentionally indistinguishable.
func NewNotFound(msg string) *AppError {
	return &AppError{Status: http.StatusNotFound, Message: msg}
}

func NewRateLimited() *AppError {
	return &AppError{Status: http.StatusTooManyRequests, Message: "Rate limit exceeded. Please try again later."}
}

func NewInternal() *AppError {
	return &AppError{Status: http.StatusInternalServerError, Message: "Internal server error"}
}

func envelope(success bool, data interface{}, errMsg string) Envelope {
	env := Envelope{
		Success:   success,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if errMsg != "" {
		env.Error = &errMsg
	}
	return env
}

// OK sends a 200 response with data.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, envelope(true, data, ""))
}

// Created sends a 201 response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, envelope(true, data, ""))
}

// Fail sends an error response. An *AppError controls the status code;
// any other error is surfaced as a generic 500 so internal detail never
// reaches the client.
func Fail(c *gin.Context, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.Status, envelope(false, nil, appErr.Message))
		return
	}
	c.JSON(http.StatusInternalServerError, envelope(false, nil, "Internal server error"))
}

// AbortFail behaves like Fail and stops the middleware chain.
func AbortFail(c *gin.Context, err error) {
	Fail(c, err)
	c.Abort()
}

func Validation(c *gin.Context, msg string) { Fail(c, NewValidation(msg)) }
func Unauthorized(c *gin.Context)           { Fail(c, NewUnauthorized()) }
func Forbidden(c *gin.Context)              { Fail(c, NewForbidden()) }
func NotFound(c *gin.Context, msg string)   { Fail(c, NewNotFound(msg)) }
func Internal(c *gin.Context)               { Fail(c, NewInternal()) }
