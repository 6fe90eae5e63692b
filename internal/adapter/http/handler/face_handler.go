package handler

import (
	"arc-exchange/internal/adapter/http/dto"
	"arc-exchange/internal/core/ports"
	"arc-exchange/pkg/response"

	"github.com/gin-gonic/gin"
)

// FaceHandler handles face enrollment and verification.
type FaceHandler struct {
	faceSvc ports.FaceService
}

// NewFaceHandler creates a new FaceHandler.
func NewFaceHandler(faceSvc ports.FaceService) *FaceHandler {
	return &FaceHandler{faceSvc: faceSvc}
}

// Register handles POST /api/v1/face/register.
func (h *FaceHandler) Register(c *gin.Context) {
	userID, ok := authUserID(c)
	if !ok {
		return
	}
	var req dto.FaceRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.faceSvc.Register(c.Request.Context(), userID, req.Encoding); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"enrolled": true})
}

// Verify handles POST /api/v1/face/verify.
func (h *FaceHandler) Verify(c *gin.Context) {
	userID, ok := authUserID(c)
	if !ok {
		return
	}
	var req dto.FaceRequest
	if !bindJSON(c, &req) {
		return
	}

	v, err := h.faceSvc.Verify(c.Request.Context(), userID, req.Encoding)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewFaceVerifyResponse(v))
}
