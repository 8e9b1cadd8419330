// Package response implements the API's standard envelope:
// {success, data?, error?:{code,message,timestamp}}.
package response

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/eventra-app/workspace-backend/internal/service"
	"github.com/gin-gonic/gin"
)

type ErrorBody struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

func Error(c *gin.Context, status int, code, message string) {
	c.JSON(status, Envelope{
		Success: false,
		Error: &ErrorBody{
			Code:      code,
			Message:   message,
			Timestamp: time.Now().UTC(),
		},
	})
}

// FromError maps service errors onto HTTP responses. Permission denials
// stay generic; validation errors carry their field detail; unexpected
// failures are logged in full and surfaced as a bare 500.
func FromError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrUserNotFound):
		Error(c, http.StatusNotFound, "NOT_FOUND", "resource not found")
	case errors.Is(err, service.ErrForbidden):
		Error(c, http.StatusForbidden, "ACCESS_DENIED", "access denied")
	case errors.Is(err, service.ErrConflict), errors.Is(err, service.ErrUserExists):
		Error(c, http.StatusConflict, "CONFLICT", "already exists")
	case errors.Is(err, service.ErrInvalidCredentials):
		Error(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid credentials")
	case errors.Is(err, service.ErrInvalidToken):
		Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "invalid or expired token")
	case errors.Is(err, service.ErrInvitationExpired):
		Error(c, http.StatusGone, "INVITATION_EXPIRED", "invitation expired")
	default:
		log.Printf("[API] %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		Error(c, http.StatusInternalServerError, "UNAVAILABLE", "service unavailable")
	}
}
