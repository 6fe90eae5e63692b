package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"arc-exchange/internal/core/domain"
	"arc-exchange/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type auditRoute struct {
	action       domain.AuditAction
	resourceType string
	param        string // route parameter used as resource id
}

// auditRoutes maps "METHOD route-template" to the audited action.
var auditRoutes = map[string]auditRoute{
	"POST /api/v1/auth/register":            {domain.AuditActionRegister, "user", ""},
	"POST /api/v1/auth/login":               {domain.AuditActionLogin, "session", ""},
	"POST /api/v1/auth/logout":              {domain.AuditActionLogout, "session", ""},
	"POST /api/v1/wallets":                  {domain.AuditActionCreateWallet, "wallet", ""},
	"POST /api/v1/wallets/deposit":          {domain.AuditActionDeposit, "wallet", ""},
	"POST /api/v1/wallets/withdraw":         {domain.AuditActionWithdraw, "wallet", ""},
	"POST /api/v1/transfers":                {domain.AuditActionTransfer, "transaction", ""},
	"POST /api/v1/orders":                   {domain.AuditActionPlaceOrder, "order", ""},
	"DELETE /api/v1/orders/:order_id":       {domain.AuditActionCancelOrder, "order", "order_id"},
	"POST /api/v1/transactions":             {domain.AuditActionCreateTransaction, "transaction", ""},
	"POST /api/v1/transactions/cancel":      {domain.AuditActionCancelTransaction, "transaction", ""},
	"POST /api/v1/merchants":                {domain.AuditActionRegisterMerchant, "merchant", ""},
	"POST /api/v1/merchants/:name/pay":      {domain.AuditActionMerchantPayment, "merchant", "name"},
	"POST /api/v1/merchants/:name/transfer": {domain.AuditActionMerchantPayment, "merchant", "name"},
	"PUT /api/v1/merchants/me/webhook":      {domain.AuditActionUpdateWebhook, "merchant", ""},
	"POST /api/v1/carts":                    {domain.AuditActionCreateCart, "cart", ""},
	"POST /api/v1/carts/pay":                {domain.AuditActionPayCart, "cart", ""},
	"POST /api/v1/face/register":            {domain.AuditActionRegisterFace, "face", ""},
	"POST /api/v1/face/verify":              {domain.AuditActionVerifyFace, "face", ""},
	"POST /api/v1/system/initialize":        {domain.AuditActionSystemInitialize, "system", ""},
}

// AuditLog records successful write operations after the handler ran.
func AuditLog(auditSvc ports.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		status := c.Writer.Status()
		if status < 200 || status >= 300 {
			return
		}
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			return
		}

		route, ok := mapRouteToAction(c.Request.Method, c.FullPath())
		if !ok {
			return
		}

		var userID *uuid.UUID
		if id, ok := UserID(c); ok {
			userID = &id
		}

		details, _ := json.Marshal(map[string]interface{}{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"status": status,
		})

		entry := &domain.AuditLog{
			ID:           uuid.New(),
			UserID:       userID,
			Action:       route.action,
			ResourceType: route.resourceType,
			IPAddress:    c.ClientIP(),
			Details:      string(details),
			CreatedAt:    time.Now(),
		}
		if route.param != "" {
			entry.ResourceID = c.Param(route.param)
		}
		auditSvc.Log(c.Request.Context(), entry)
	}
}

func mapRouteToAction(method, fullPath string) (auditRoute, bool) {
	r, ok := auditRoutes[method+" "+fullPath]
	return r, ok
}
