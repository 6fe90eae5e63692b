package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is an account holder. Merchants are users with IsMerchant set.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never expose
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	IsMerchant   bool      `json:"is_merchant"`
	MerchantName *string   `json:"merchant_name,omitempty"`
	KYCVerified  bool      `json:"kyc_verified"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AuthToken is an opaque bearer token persisted per user.
// A nil ExpiresAt means the token never expires.
type AuthToken struct {
	Token     string     `json:"token"`
	UserID    uuid.UUID  `json:"user_id"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// IsExpired reports whether the token is past its expiry at now.
func (t *AuthToken) IsExpired(now time.Time) bool {
	return t.ExpiresAt != nil && !now.Before(*t.ExpiresAt)
}
