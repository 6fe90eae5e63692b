package service

import (
	"context"
	"fmt"
	"strings"

	"arc-exchange/internal/core/domain"
	"arc-exchange/internal/core/ports"
	"arc-exchange/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// TransferServiceImpl implements ports.TransferService.
type TransferServiceImpl struct {
	ledger     *Ledger
	userRepo   ports.UserRepository
	transactor ports.DBTransactor
	events     ports.EventPublisher
	log        zerolog.Logger
}

// NewTransferService creates a new TransferServiceImpl.
func NewTransferService(
	ledger *Ledger,
	userRepo ports.UserRepository,
	transactor ports.DBTransactor,
	events ports.EventPublisher,
	log zerolog.Logger,
) *TransferServiceImpl {
	return &TransferServiceImpl{
		ledger:     ledger,
		userRepo:   userRepo,
		transactor: transactor,
		events:     events,
		log:        log,
	}
}

// Transfer moves funds between two users in one database transaction.
func (s *TransferServiceImpl) Transfer(ctx context.Context, req ports.TransferRequest) (*domain.Transaction, error) {
	if !validAmount(req.Amount) {
		return nil, apperror.ErrInvalidAmount()
	}

	toID := req.ToUserID
	if toID == uuid.Nil {
		name := strings.TrimSpace(req.ToUsername)
		if name == "" {
			return nil, apperror.Validation("Recipient required")
		}
		user, err := s.userRepo.GetByUsername(ctx, name)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("find recipient: %w", err))
		}
		if user == nil {
			return nil, apperror.ErrNotFound("User")
		}
		toID = user.ID
	}

	symbol := normalizeSymbol(req.Symbol)

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	record, err := s.ledger.transfer(ctx, dbTx, transferParams{
		From:   req.FromUserID,
		To:     toID,
		Symbol: symbol,
		Amount: req.Amount,
		Memo:   req.Memo,
		Type:   req.Type,
	})
	if err != nil {
		return nil, err
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("tx_hash", record.Hash).
		Str("user_id", req.FromUserID.String()).
		Str("to_user_id", toID.String()).
		Str("symbol", symbol).
		Str("amount", req.Amount.String()).
		Msg("transfer confirmed")

	publishEvent(ctx, s.events, s.log, domain.NewEvent(domain.EventTransferConfirmed, record.Hash, &record.UserID, record))
	return record, nil
}
