package service

import (
	"context"
	"fmt"
	"time"

	"arc-exchange/internal/core/domain"
	"arc-exchange/internal/core/ports"
	"arc-exchange/pkg/apperror"

	"github.com/google/uuid"
)

var merchantPaymentTypes = []domain.TransactionType{
	domain.TransactionTypeMerchantPayment,
	domain.TransactionTypeCartPayment,
}

// ReportingServiceImpl implements ports.ReportingService.
type ReportingServiceImpl struct {
	txRepo       ports.TransactionRepository
	merchantRepo ports.MerchantRepository
	now          func() time.Time
}

// NewReportingService creates a new ReportingServiceImpl.
func NewReportingService(txRepo ports.TransactionRepository, merchantRepo ports.MerchantRepository) *ReportingServiceImpl {
	return &ReportingServiceImpl{txRepo: txRepo, merchantRepo: merchantRepo, now: time.Now}
}

// MerchantStats returns payments the caller's merchant received in period.
func (s *ReportingServiceImpl) MerchantStats(ctx context.Context, userID uuid.UUID, period domain.StatsPeriod) (*domain.MerchantStats, error) {
	if period == "" {
		period = domain.StatsPeriodAll
	}
	if !domain.ValidStatsPeriod(period) {
		return nil, apperror.Validation("invalid period: must be day, week, month, or all")
	}

	merchant, err := s.merchantRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get merchant: %w", err))
	}
	if merchant == nil {
		return nil, apperror.ErrNotFound("Merchant")
	}

	var since *time.Time
	if t := period.Since(s.now().UTC()); !t.IsZero() {
		since = &t
	}

	bySymbol, err := s.txRepo.SumReceived(ctx, userID, merchantPaymentTypes, since)
	if err != nil {
		return nil, apperror.InternalError(err)
	}

	stats := &domain.MerchantStats{
		MerchantName:  merchant.MerchantName,
		Period:        period,
		Since:         since,
		TotalReceived: merchant.TotalReceived,
		BySymbol:      []domain.SymbolStats{},
	}
	for _, st := range bySymbol {
		stats.PaymentCount += st.Count
		stats.BySymbol = append(stats.BySymbol, st)
	}
	return stats, nil
}
