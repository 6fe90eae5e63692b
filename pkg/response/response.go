// Package response writes the JSON envelopes every endpoint answers with.
package response

import (
	"errors"
	"net/http"
	"time"

	"arc-exchange/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CtxRequestID is the gin context key holding the per-request ID.
const CtxRequestID = "request_id"

// Meta is shared by both envelopes.
type Meta struct {
	RequestID string `json:"request_id"`
	Timestamp string `json:"timestamp"`
}

// SuccessResponse wraps a payload as {"data": ..., "request_id", "timestamp"}.
type SuccessResponse struct {
	Data any `json:"data"`
	Meta
}

// ErrorResponse carries a stable code and a fixed catalogue message. Causes
// wrapped inside an AppError are never serialized.
type ErrorResponse struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
	Meta
}

var errUnclassified = apperror.New("SYS_000", "Internal server error", http.StatusInternalServerError)

func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, SuccessResponse{Data: data, Meta: meta(c)})
}

func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, SuccessResponse{Data: data, Meta: meta(c)})
}

// Error answers with the AppError found in err's chain, or SYS_000. The
// original error is attached to the gin context for the request logger.
func Error(c *gin.Context, err error) {
	_ = c.Error(err)

	appErr := errUnclassified
	var target *apperror.AppError
	if errors.As(err, &target) {
		appErr = target
	}
	c.JSON(appErr.HTTPStatus, ErrorResponse{
		ErrorCode: appErr.Code,
		Message:   appErr.Message,
		Meta:      meta(c),
	})
}

func meta(c *gin.Context) Meta {
	id := c.GetString(CtxRequestID)
	if id == "" {
		id = uuid.NewString()
	}
	return Meta{RequestID: id, Timestamp: time.Now().UTC().Format(time.RFC3339)}
}
