package postgres

import (
	"context"
	"errors"
	"fmt"
)

// HealthCheck reports postgres healthy only when it answers and the
// schema has been applied, so a fresh database shows up as degraded.
type HealthCheck struct {
	pool  Pool
	table string
}

func NewHealthCheck(pool Pool) *HealthCheck {
	return &HealthCheck{pool: pool, table: "public.wallets"}
}

func (h *HealthCheck) Name() string { return "postgresql" }

func (h *HealthCheck) Ping(ctx context.Context) error {
	var migrated bool
	if err := h.pool.QueryRow(ctx, `SELECT to_regclass($1) IS NOT NULL`, h.table).Scan(&migrated); err != nil {
		return fmt.Errorf("postgres probe: %w", err)
	}
	if !migrated {
		return errors.New("schema not migrated")
	}
	return nil
}
