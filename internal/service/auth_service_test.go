package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"arc-exchange/internal/core/domain"
	"arc-exchange/internal/core/ports"
	"arc-exchange/internal/core/ports/mocks"
	"arc-exchange/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type authFixture struct {
	*fixture
	svc    *AuthServiceImpl
	tokens *mocks.MockTokenRepository
	faces  *mocks.MockFaceRepository
	hash   *mocks.MockHashService
}

func setupAuthService(t *testing.T, ttl time.Duration) *authFixture {
	ctrl := gomock.NewController(t)
	f := newFixture(t)
	tokens := mocks.NewMockTokenRepository(ctrl)
	faces := mocks.NewMockFaceRepository(ctrl)
	hash := mocks.NewMockHashService(ctrl)
	svc := NewAuthService(f.ledger, f.users, tokens, faces, hash, f.store, ttl, newTestLogger())
	return &authFixture{fixture: f, svc: svc, tokens: tokens, faces: faces, hash: hash}
}

func TestAuthService_Register_ProvisionsDefaultWallets(t *testing.T) {
	a := setupAuthService(t, 0)
	ctx := context.Background()

	a.hash.EXPECT().Hash("StrongP@ss123").Return("$argon2id$hashed", nil)
	a.tokens.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, tok *domain.AuthToken) error {
		assert.Len(t, tok.Token, 64)
		assert.Nil(t, tok.ExpiresAt)
		return nil
	})

	res, err := a.svc.Register(ctx, ports.RegisterRequest{
		Username: "alice",
		Email:    "Alice@Example.com",
		Password: "StrongP@ss123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.False(t, res.FaceEnrolled)
	assert.Equal(t, "alice@example.com", res.User.Email)
	assert.Equal(t, "$argon2id$hashed", res.User.PasswordHash)

	for _, g := range domain.DefaultUserAssets() {
		assert.True(t, g.Balance.Equal(a.balance(t, res.User.ID, g.Symbol)), g.Symbol)
	}
}

func TestAuthService_Register_WithFace(t *testing.T) {
	a := setupAuthService(t, time.Hour)
	ctx := context.Background()

	a.hash.EXPECT().Hash(gomock.Any()).Return("hashed", nil)
	a.faces.EXPECT().Upsert(ctx, gomock.Any()).Return(nil)
	a.tokens.EXPECT().Create(ctx, gomock.Any()).Return(nil)

	res, err := a.svc.Register(ctx, ports.RegisterRequest{
		Username: "bob", Email: "bob@example.com", Password: "pw", FaceEncoding: encoding(0.2),
	})
	require.NoError(t, err)
	assert.True(t, res.FaceEnrolled)
	require.NotNil(t, res.ExpiresAt)
}

func TestAuthService_Register_Rejections(t *testing.T) {
	a := setupAuthService(t, 0)
	ctx := context.Background()
	a.addUser(t, "taken")

	_, err := a.svc.Register(ctx, ports.RegisterRequest{Username: "taken", Email: "new@example.com", Password: "pw"})
	assert.True(t, errors.Is(err, apperror.ErrUserExists()))

	_, err = a.svc.Register(ctx, ports.RegisterRequest{Username: "x", Password: "pw"})
	assert.True(t, errors.Is(err, apperror.ErrInvalidRequest()))

	_, err = a.svc.Register(ctx, ports.RegisterRequest{Username: "x", Email: "x@example.com", Password: "pw", FaceEncoding: []float64{1}})
	assert.True(t, errors.Is(err, apperror.Validation("")))
}

func TestAuthService_Login(t *testing.T) {
	a := setupAuthService(t, time.Hour)
	ctx := context.Background()
	u := a.addUser(t, "alice")

	t.Run("reuses live token", func(t *testing.T) {
		exp := time.Now().Add(time.Minute)
		a.hash.EXPECT().Verify("pw", "x").Return(true, nil)
		a.tokens.EXPECT().GetLatestByUser(ctx, u.ID).Return(&domain.AuthToken{Token: "live", UserID: u.ID, ExpiresAt: &exp}, nil)

		res, err := a.svc.Login(ctx, "alice", "pw")
		require.NoError(t, err)
		assert.Equal(t, "live", res.Token)
	})

	t.Run("issues a new token when expired", func(t *testing.T) {
		exp := time.Now().Add(-time.Minute)
		a.hash.EXPECT().Verify("pw", "x").Return(true, nil)
		a.tokens.EXPECT().GetLatestByUser(ctx, u.ID).Return(&domain.AuthToken{Token: "old", UserID: u.ID, ExpiresAt: &exp}, nil)
		a.tokens.EXPECT().Create(ctx, gomock.Any()).Return(nil)

		res, err := a.svc.Login(ctx, "alice@example.com", "pw")
		require.NoError(t, err)
		assert.NotEqual(t, "old", res.Token)
	})

	t.Run("wrong password", func(t *testing.T) {
		a.hash.EXPECT().Verify("nope", "x").Return(false, nil)
		_, err := a.svc.Login(ctx, "alice", "nope")
		assert.True(t, errors.Is(err, apperror.ErrInvalidCredentials()))
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := a.svc.Login(ctx, "ghost", "pw")
		assert.True(t, errors.Is(err, apperror.ErrInvalidCredentials()))
	})
}

func TestAuthService_Authenticate(t *testing.T) {
	a := setupAuthService(t, 0)
	ctx := context.Background()
	u := a.addUser(t, "alice")
	past := time.Now().Add(-time.Second)

	a.tokens.EXPECT().Get(ctx, "good").Return(&domain.AuthToken{Token: "good", UserID: u.ID}, nil)
	a.tokens.EXPECT().Get(ctx, "expired").Return(&domain.AuthToken{Token: "expired", UserID: u.ID, ExpiresAt: &past}, nil)
	a.tokens.EXPECT().Get(ctx, "unknown").Return(nil, nil)
	a.tokens.EXPECT().Get(ctx, "orphan").Return(&domain.AuthToken{Token: "orphan", UserID: uuid.New()}, nil)

	user, err := a.svc.Authenticate(ctx, "good")
	require.NoError(t, err)
	assert.Equal(t, u.ID, user.ID)

	_, err = a.svc.Authenticate(ctx, "")
	assert.True(t, errors.Is(err, apperror.ErrAuthRequired()))

	for _, tok := range []string{"expired", "unknown", "orphan"} {
		_, err = a.svc.Authenticate(ctx, tok)
		assert.True(t, errors.Is(err, apperror.ErrInvalidToken()), tok)
	}
}

func TestAuthService_LogoutAndProfile(t *testing.T) {
	a := setupAuthService(t, 0)
	ctx := context.Background()
	u := a.addUser(t, "alice")

	a.tokens.EXPECT().Delete(ctx, "tok").Return(nil)
	require.NoError(t, a.svc.Logout(ctx, "tok"))

	a.tokens.EXPECT().Delete(ctx, "tok").Return(errors.New("db down"))
	assert.Error(t, a.svc.Logout(ctx, "tok"))

	user, err := a.svc.Profile(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	_, err = a.svc.Profile(ctx, uuid.New())
	assert.True(t, errors.Is(err, apperror.ErrNotFound("User")))
}
