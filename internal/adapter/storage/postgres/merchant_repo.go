package postgres

import (
	"context"
	"errors"
	"fmt"

	"arc-exchange/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const merchantColumns = `id, user_id, merchant_name, business_name, website_url, webhook_url,
	webhook_secret_enc, total_received, is_active, created_at, updated_at`

// MerchantRepo implements ports.MerchantRepository.
type MerchantRepo struct {
	pool Pool
}

// NewMerchantRepo creates a new MerchantRepo.
func NewMerchantRepo(pool Pool) *MerchantRepo {
	return &MerchantRepo{pool: pool}
}

// Create inserts a merchant profile within a database transaction.
func (r *MerchantRepo) Create(ctx context.Context, tx pgx.Tx, m *domain.Merchant) error {
	query := `INSERT INTO merchants (` + merchantColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := tx.Exec(ctx, query,
		m.ID, m.UserID, m.MerchantName, m.BusinessName, m.WebsiteURL, m.WebhookURL,
		m.WebhookSecretEnc, m.TotalReceived, m.IsActive, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert merchant: %w", err)
	}
	return nil
}

// GetByName fetches a merchant by its unique name.
func (r *MerchantRepo) GetByName(ctx context.Context, name string) (*domain.Merchant, error) {
	query := `SELECT ` + merchantColumns + ` FROM merchants WHERE merchant_name = $1`
	return scanMerchant(r.pool.QueryRow(ctx, query, name))
}

// GetByUserID fetches the merchant profile of a user.
func (r *MerchantRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Merchant, error) {
	query := `SELECT ` + merchantColumns + ` FROM merchants WHERE user_id = $1`
	return scanMerchant(r.pool.QueryRow(ctx, query, userID))
}

// AddReceived increments total_received atomically.
func (r *MerchantRepo) AddReceived(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount decimal.Decimal) error {
	query := `UPDATE merchants SET total_received = total_received + $1, updated_at = NOW() WHERE id = $2`

	tag, err := tx.Exec(ctx, query, amount, id)
	if err != nil {
		return fmt.Errorf("add merchant received: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("merchant not found: %s", id)
	}
	return nil
}

// UpdateWebhookURL sets or clears the webhook URL.
func (r *MerchantRepo) UpdateWebhookURL(ctx context.Context, id uuid.UUID, webhookURL *string) error {
	query := `UPDATE merchants SET webhook_url = $1, updated_at = NOW() WHERE id = $2`

	tag, err := r.pool.Exec(ctx, query, webhookURL, id)
	if err != nil {
		return fmt.Errorf("update webhook url: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("merchant not found: %s", id)
	}
	return nil
}

func scanMerchant(row pgx.Row) (*domain.Merchant, error) {
	m := &domain.Merchant{}
	err := row.Scan(
		&m.ID, &m.UserID, &m.MerchantName, &m.BusinessName, &m.WebsiteURL, &m.WebhookURL,
		&m.WebhookSecretEnc, &m.TotalReceived, &m.IsActive, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan merchant: %w", err)
	}
	return m, nil
}
