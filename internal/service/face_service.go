package service

import (
	"context"
	"fmt"
	"time"

	"arc-exchange/internal/core/domain"
	"arc-exchange/internal/core/ports"
	"arc-exchange/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const replayScopeFaceTicket = "face_ticket"

// FaceServiceImpl implements ports.FaceService.
type FaceServiceImpl struct {
	faceRepo  ports.FaceRepository
	tickets   ports.TicketService
	replays   ports.ReplayGuard
	tolerance float64
	log       zerolog.Logger
	now       func() time.Time
}

// NewFaceService creates a new FaceServiceImpl. A non-positive tolerance
// falls back to domain.DefaultFaceTolerance.
func NewFaceService(faceRepo ports.FaceRepository, tickets ports.TicketService, replays ports.ReplayGuard, tolerance float64, log zerolog.Logger) *FaceServiceImpl {
	if tolerance <= 0 {
		tolerance = domain.DefaultFaceTolerance
	}
	return &FaceServiceImpl{
		faceRepo:  faceRepo,
		tickets:   tickets,
		replays:   replays,
		tolerance: tolerance,
		log:       log,
		now:       time.Now,
	}
}

// Register enrolls or replaces the face encoding of a user.
func (s *FaceServiceImpl) Register(ctx context.Context, userID uuid.UUID, encoding []float64) error {
	if err := domain.ValidateEncoding(encoding); err != nil {
		return apperror.Validation("Invalid face encoding")
	}

	now := s.now().UTC()
	face := &domain.FaceData{UserID: userID, Encoding: encoding, CreatedAt: now, UpdatedAt: now}
	if err := s.faceRepo.Upsert(ctx, face); err != nil {
		return apperror.InternalError(fmt.Errorf("upsert face data: %w", err))
	}

	s.log.Info().Str("user_id", userID.String()).Msg("face enrolled")
	return nil
}

// Verify compares a probe with the enrolled encoding and issues a ticket on a match.
func (s *FaceServiceImpl) Verify(ctx context.Context, userID uuid.UUID, encoding []float64) (*ports.FaceVerification, error) {
	if err := domain.ValidateEncoding(encoding); err != nil {
		return nil, apperror.Validation("Invalid face encoding")
	}

	face, err := s.faceRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get face data: %w", err))
	}
	if face == nil {
		return nil, apperror.ErrNotFound("Face data")
	}

	distance, err := domain.Distance(face.Encoding, encoding)
	if err != nil {
		return nil, apperror.InternalError(err)
	}

	result := &ports.FaceVerification{Match: distance <= s.tolerance, Distance: distance}
	if !result.Match {
		s.log.Info().Str("user_id", userID.String()).Float64("distance", distance).Msg("face mismatch")
		return result, nil
	}

	ticket, err := s.tickets.Issue(userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("issue face ticket: %w", err))
	}
	result.Ticket = ticket
	return result, nil
}

// ConsumeTicket accepts a ticket once, and only for the user it was issued to.
func (s *FaceServiceImpl) ConsumeTicket(ctx context.Context, userID uuid.UUID, ticket string) error {
	if ticket == "" {
		return apperror.ErrFaceVerificationRequired()
	}

	claims, err := s.tickets.Validate(ticket)
	if err != nil || claims.UserID != userID {
		return apperror.ErrFaceVerificationRequired()
	}

	ttl := claims.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return apperror.ErrFaceVerificationRequired()
	}

	fresh, err := s.replays.FirstUse(ctx, replayScopeFaceTicket, claims.ID, ttl)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("check face ticket replay: %w", err))
	}
	if !fresh {
		s.log.Warn().Str("user_id", userID.String()).Str("ticket_id", claims.ID).Msg("face ticket replayed")
		return apperror.ErrFaceVerificationRequired()
	}
	return nil
}
