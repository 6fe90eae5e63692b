package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTicketSecret = "test-ticket-secret-for-unit-tests"

func TestJWTTicketService_IssueAndValidate(t *testing.T) {
	svc := NewJWTTicketService(testTicketSecret, 2*time.Minute, "arc-face")
	userID := uuid.New()

	ticket, err := svc.Issue(userID)
	require.NoError(t, err)
	assert.NotEmpty(t, ticket.Token)
	assert.NotEmpty(t, ticket.ID)
	assert.True(t, ticket.ExpiresAt.After(time.Now()))

	claims, err := svc.Validate(ticket.Token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, ticket.ID, claims.ID)
}

func TestJWTTicketService_UniqueIDs(t *testing.T) {
	svc := NewJWTTicketService(testTicketSecret, time.Minute, "arc-face")
	userID := uuid.New()

	a, err := svc.Issue(userID)
	require.NoError(t, err)
	b, err := svc.Issue(userID)
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
}

func TestJWTTicketService_Expired(t *testing.T) {
	svc := NewJWTTicketService(testTicketSecret, 2*time.Minute, "arc-face")
	ticket, err := svc.Issue(uuid.New())
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(5 * time.Minute) }
	_, err = svc.Validate(ticket.Token)
	assert.Error(t, err)
}

func TestJWTTicketService_Rejects(t *testing.T) {
	issuer := NewJWTTicketService("secret-1", time.Minute, "arc-face")
	ticket, err := issuer.Issue(uuid.New())
	require.NoError(t, err)

	tests := []struct {
		name  string
		svc   *JWTTicketService
		token string
	}{
		{"other secret", NewJWTTicketService("secret-2", time.Minute, "arc-face"), ticket.Token},
		{"other issuer", NewJWTTicketService("secret-1", time.Minute, "someone-else"), ticket.Token},
		{"garbage", issuer, "not.a.valid.jwt"},
		{"empty", issuer, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.svc.Validate(tt.token)
			assert.Error(t, err)
		})
	}
}
