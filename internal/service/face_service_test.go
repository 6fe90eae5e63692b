package service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"arc-exchange/internal/core/domain"
	"arc-exchange/internal/core/ports/mocks"
	"arc-exchange/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func encoding(v float64) []float64 {
	enc := make([]float64, domain.EncodingSize)
	for i := range enc {
		enc[i] = v
	}
	return enc
}

func newFaceFixture(t *testing.T) (*FaceServiceImpl, *mocks.MockFaceRepository, *mocks.MockReplayGuard) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockFaceRepository(ctrl)
	replays := mocks.NewMockReplayGuard(ctrl)
	tickets := NewJWTTicketService(testTicketSecret, 2*time.Minute, "arc-face")
	return NewFaceService(repo, tickets, replays, 0, newTestLogger()), repo, replays
}

func TestFaceService_Register(t *testing.T) {
	svc, repo, _ := newFaceFixture(t)
	userID := uuid.New()

	repo.EXPECT().Upsert(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, f *domain.FaceData) error {
		assert.Equal(t, userID, f.UserID)
		assert.Len(t, f.Encoding, domain.EncodingSize)
		return nil
	})
	require.NoError(t, svc.Register(context.Background(), userID, encoding(0.1)))

	err := svc.Register(context.Background(), userID, []float64{1, 2})
	assert.True(t, errors.Is(err, apperror.Validation("")))

	bad := encoding(0.1)
	bad[3] = math.NaN()
	err = svc.Register(context.Background(), userID, bad)
	assert.True(t, errors.Is(err, apperror.Validation("")))
}

func TestFaceService_VerifyIssuesTicketOnMatch(t *testing.T) {
	svc, repo, _ := newFaceFixture(t)
	userID := uuid.New()
	enrolled := &domain.FaceData{UserID: userID, Encoding: encoding(0.1)}
	repo.EXPECT().GetByUserID(gomock.Any(), userID).Return(enrolled, nil).Times(2)

	// sqrt(128 * 0.05^2) ~ 0.566
	res, err := svc.Verify(context.Background(), userID, encoding(0.15))
	require.NoError(t, err)
	assert.True(t, res.Match)
	assert.InDelta(t, 0.5657, res.Distance, 0.001)
	require.NotNil(t, res.Ticket)
	assert.NotEmpty(t, res.Ticket.Token)

	// sqrt(128 * 0.1^2) ~ 1.13
	res, err = svc.Verify(context.Background(), userID, encoding(0.2))
	require.NoError(t, err)
	assert.False(t, res.Match)
	assert.Nil(t, res.Ticket)
}

func TestFaceService_VerifyWithoutEnrollment(t *testing.T) {
	svc, repo, _ := newFaceFixture(t)
	userID := uuid.New()
	repo.EXPECT().GetByUserID(gomock.Any(), userID).Return(nil, nil)

	_, err := svc.Verify(context.Background(), userID, encoding(0.1))
	assert.True(t, errors.Is(err, apperror.ErrNotFound("Face data")))
}

func TestFaceService_ConsumeTicketOnce(t *testing.T) {
	svc, _, replays := newFaceFixture(t)
	userID := uuid.New()
	ticket, err := svc.tickets.Issue(userID)
	require.NoError(t, err)

	gomock.InOrder(
		replays.EXPECT().FirstUse(gomock.Any(), replayScopeFaceTicket, ticket.ID, gomock.Any()).Return(true, nil),
		replays.EXPECT().FirstUse(gomock.Any(), replayScopeFaceTicket, ticket.ID, gomock.Any()).Return(false, nil),
	)

	require.NoError(t, svc.ConsumeTicket(context.Background(), userID, ticket.Token))
	err = svc.ConsumeTicket(context.Background(), userID, ticket.Token)
	assert.True(t, errors.Is(err, apperror.ErrFaceVerificationRequired()))
}

func TestFaceService_ConsumeTicketRejections(t *testing.T) {
	svc, _, _ := newFaceFixture(t)
	owner := uuid.New()
	ticket, err := svc.tickets.Issue(owner)
	require.NoError(t, err)

	tests := []struct {
		name   string
		userID uuid.UUID
		ticket string
	}{
		{"empty", owner, ""},
		{"garbage", owner, "not-a-jwt"},
		{"other user", uuid.New(), ticket.Token},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.ConsumeTicket(context.Background(), tt.userID, tt.ticket)
			assert.True(t, errors.Is(err, apperror.ErrFaceVerificationRequired()))
		})
	}

	t.Run("expired", func(t *testing.T) {
		svc.now = func() time.Time { return time.Now().Add(time.Hour) }
		defer func() { svc.now = time.Now }()
		err := svc.ConsumeTicket(context.Background(), owner, ticket.Token)
		assert.True(t, errors.Is(err, apperror.ErrFaceVerificationRequired()))
	})
}
