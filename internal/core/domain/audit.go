package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of audited action.
type AuditAction string

const (
	AuditActionRegister          AuditAction = "REGISTER"
	AuditActionLogin             AuditAction = "LOGIN"
	AuditActionLogout            AuditAction = "LOGOUT"
	AuditActionCreateWallet      AuditAction = "CREATE_WALLET"
	AuditActionDeposit           AuditAction = "DEPOSIT"
	AuditActionWithdraw          AuditAction = "WITHDRAW"
	AuditActionTransfer          AuditAction = "TRANSFER"
	AuditActionPlaceOrder        AuditAction = "PLACE_ORDER"
	AuditActionCancelOrder       AuditAction = "CANCEL_ORDER"
	AuditActionCreateTransaction AuditAction = "CREATE_TRANSACTION"
	AuditActionCancelTransaction AuditAction = "CANCEL_TRANSACTION"
	AuditActionRegisterMerchant  AuditAction = "REGISTER_MERCHANT"
	AuditActionMerchantPayment   AuditAction = "MERCHANT_PAYMENT"
	AuditActionUpdateWebhook     AuditAction = "UPDATE_WEBHOOK"
	AuditActionCreateCart        AuditAction = "CREATE_CART"
	AuditActionPayCart           AuditAction = "PAY_CART"
	AuditActionRegisterFace      AuditAction = "REGISTER_FACE"
	AuditActionVerifyFace        AuditAction = "VERIFY_FACE"
	AuditActionSystemInitialize  AuditAction = "SYSTEM_INITIALIZE"
)

// AuditLog records a single audited action in the system.
type AuditLog struct {
	ID           uuid.UUID   `json:"id"`
	UserID       *uuid.UUID  `json:"user_id,omitempty"`
	Action       AuditAction `json:"action"`
	ResourceType string      `json:"resource_type"`
	ResourceID   string      `json:"resource_id,omitempty"`
	Details      string      `json:"details,omitempty"` // JSON string
	IPAddress    string      `json:"ip_address"`
	CreatedAt    time.Time   `json:"created_at"`
}
