package handler

import (
	"errors"
	"net/http"

	"github.com/gdugdh24/roomshare-backend/internal/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse represents error response
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Field     string `json:"field,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

// respondError maps domain errors to HTTP responses. Anything unknown is
// logged and reported as 500 without details.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: ve.Msg, Code: "validation_failed", Field: ve.Field})
	case errors.Is(err, domain.ErrVerificationRequired):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "identity verification required", Code: "verification_required"})
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "forbidden", Code: "forbidden"})
	case errors.Is(err, domain.ErrInvalidStateTransition):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "this request was already handled", Code: "invalid_state_transition"})
	case errors.Is(err, domain.ErrDuplicateRequest):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "duplicate_request"})
	case errors.Is(err, domain.ErrRoomNotSharing):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "room_not_sharing"})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "not_found"})
	case errors.Is(err, domain.ErrTransient):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "temporarily unavailable, try again", Code: "transient", Retryable: true})
	default:
		logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg, Code: "bad_request"})
}

// caller returns the authenticated user id and role set by the auth middleware.
func caller(c *gin.Context) (int, domain.Role, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return 0, "", false
	}
	id, ok := userID.(int)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return 0, "", false
	}
	role, _ := c.Get("role")
	r, _ := role.(domain.Role)
	return id, r, true
}
