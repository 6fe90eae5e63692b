package handler

import (
	"arc-exchange/internal/adapter/http/middleware"
	"arc-exchange/pkg/apperror"
	"arc-exchange/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// bindJSON binds and validates the body into req, writing the error response on failure.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Error(c, middleware.BindError(err))
		return false
	}
	return true
}

// authUserID returns the caller set by TokenAuth, writing 401 when absent.
func authUserID(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrAuthRequired())
		return uuid.Nil, false
	}
	return id, true
}
