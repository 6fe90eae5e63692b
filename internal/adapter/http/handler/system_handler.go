package handler

import (
	"net/http"

	"arc-exchange/internal/adapter/http/dto"
	"arc-exchange/internal/core/ports"
	"arc-exchange/pkg/response"

	"github.com/gin-gonic/gin"
)

// SystemHandler handles administrative endpoints.
type SystemHandler struct {
	systemSvc ports.SystemService
}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler(systemSvc ports.SystemService) *SystemHandler {
	return &SystemHandler{systemSvc: systemSvc}
}

// Initialize handles POST /api/v1/system/initialize.
func (h *SystemHandler) Initialize(c *gin.Context) {
	result, err := h.systemSvc.Initialize(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.InitializeResponse{
		PairsCreated:         result.PairsCreated,
		PairsSimulated:       result.PairsSimulated,
		MerchantsProvisioned: result.MerchantsProvisioned,
	})
}

// HealthCheck returns a handler that pings every dependency.
func HealthCheck(checkers ...ports.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		type depStatus struct {
			Status string `json:"status"`
			Error  string `json:"error,omitempty"`
		}

		deps := make(map[string]depStatus)
		allHealthy := true

		for _, checker := range checkers {
			if err := checker.Ping(c.Request.Context()); err != nil {
				deps[checker.Name()] = depStatus{Status: "unhealthy", Error: err.Error()}
				allHealthy = false
			} else {
				deps[checker.Name()] = depStatus{Status: "healthy"}
			}
		}

		status := "healthy"
		httpCode := http.StatusOK
		if !allHealthy {
			status = "degraded"
			httpCode = http.StatusServiceUnavailable
		}

		c.JSON(httpCode, gin.H{
			"status":       status,
			"dependencies": deps,
		})
	}
}
