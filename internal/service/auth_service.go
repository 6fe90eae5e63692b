package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"arc-exchange/internal/core/domain"
	"arc-exchange/internal/core/ports"
	"arc-exchange/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AuthServiceImpl implements ports.AuthService with persisted opaque tokens.
type AuthServiceImpl struct {
	ledger     *Ledger
	userRepo   ports.UserRepository
	tokenRepo  ports.TokenRepository
	faceRepo   ports.FaceRepository
	hashSvc    ports.HashService
	transactor ports.DBTransactor
	tokenTTL   time.Duration // 0 means tokens never expire
	now        func() time.Time
	log        zerolog.Logger
}

// NewAuthService creates a new AuthServiceImpl.
func NewAuthService(
	ledger *Ledger,
	userRepo ports.UserRepository,
	tokenRepo ports.TokenRepository,
	faceRepo ports.FaceRepository,
	hashSvc ports.HashService,
	transactor ports.DBTransactor,
	tokenTTL time.Duration,
	log zerolog.Logger,
) *AuthServiceImpl {
	return &AuthServiceImpl{
		ledger:     ledger,
		userRepo:   userRepo,
		tokenRepo:  tokenRepo,
		faceRepo:   faceRepo,
		hashSvc:    hashSvc,
		transactor: transactor,
		tokenTTL:   tokenTTL,
		now:        time.Now,
		log:        log,
	}
}

// Register creates a user with the default wallets and signs them in.
func (s *AuthServiceImpl) Register(ctx context.Context, req ports.RegisterRequest) (*ports.AuthResult, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if username == "" || email == "" || req.Password == "" {
		return nil, apperror.ErrInvalidRequest()
	}
	if req.FaceEncoding != nil {
		if err := domain.ValidateEncoding(req.FaceEncoding); err != nil {
			return nil, apperror.Validation("Invalid face encoding")
		}
	}

	exists, err := s.userRepo.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check user exists: %w", err))
	}
	if exists {
		return nil, apperror.ErrUserExists()
	}

	passwordHash, err := s.hashSvc.Hash(req.Password)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("hash password: %w", err))
	}

	now := s.now().UTC()
	user := &domain.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if err := s.userRepo.Create(ctx, dbTx, user); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create user: %w", err))
	}
	if _, err := s.ledger.provisionAssets(ctx, dbTx, user.ID, domain.DefaultUserAssets()); err != nil {
		return nil, apperror.InternalError(err)
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	faceEnrolled := false
	if req.FaceEncoding != nil {
		face := &domain.FaceData{UserID: user.ID, Encoding: req.FaceEncoding, CreatedAt: now, UpdatedAt: now}
		if err := s.faceRepo.Upsert(ctx, face); err != nil {
			s.log.Warn().Err(err).Str("user_id", user.ID.String()).Msg("face enrollment at registration failed")
		} else {
			faceEnrolled = true
		}
	}

	token, err := s.issueToken(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", user.ID.String()).Str("username", username).Bool("face", faceEnrolled).Msg("user registered")
	return &ports.AuthResult{Token: token.Token, ExpiresAt: token.ExpiresAt, User: user, FaceEnrolled: faceEnrolled}, nil
}

// Login accepts a username or email. A live token of the user is reused.
func (s *AuthServiceImpl) Login(ctx context.Context, login, password string) (*ports.AuthResult, error) {
	user, err := s.userRepo.GetByLogin(ctx, strings.TrimSpace(login))
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find user: %w", err))
	}
	if user == nil {
		return nil, apperror.ErrInvalidCredentials()
	}

	valid, err := s.hashSvc.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("verify password: %w", err))
	}
	if !valid {
		return nil, apperror.ErrInvalidCredentials()
	}

	token, err := s.tokenRepo.GetLatestByUser(ctx, user.ID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find token: %w", err))
	}
	if token == nil || token.IsExpired(s.now()) {
		if token, err = s.issueToken(ctx, user.ID); err != nil {
			return nil, err
		}
	}

	return &ports.AuthResult{Token: token.Token, ExpiresAt: token.ExpiresAt, User: user}, nil
}

// Logout deletes the token.
func (s *AuthServiceImpl) Logout(ctx context.Context, token string) error {
	if err := s.tokenRepo.Delete(ctx, token); err != nil {
		return apperror.InternalError(fmt.Errorf("delete token: %w", err))
	}
	return nil
}

// Authenticate resolves a bearer token to its user.
func (s *AuthServiceImpl) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, apperror.ErrAuthRequired()
	}

	stored, err := s.tokenRepo.Get(ctx, token)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get token: %w", err))
	}
	if stored == nil || stored.IsExpired(s.now()) {
		return nil, apperror.ErrInvalidToken()
	}

	user, err := s.userRepo.GetByID(ctx, stored.UserID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get user: %w", err))
	}
	if user == nil {
		return nil, apperror.ErrInvalidToken()
	}
	return user, nil
}

// Profile returns the user.
func (s *AuthServiceImpl) Profile(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get user: %w", err))
	}
	if user == nil {
		return nil, apperror.ErrNotFound("User")
	}
	return user, nil
}

func (s *AuthServiceImpl) issueToken(ctx context.Context, userID uuid.UUID) (*domain.AuthToken, error) {
	value, err := generateRandomHex(32)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("generate token: %w", err))
	}

	now := s.now().UTC()
	token := &domain.AuthToken{Token: value, UserID: userID, CreatedAt: now}
	if s.tokenTTL > 0 {
		exp := now.Add(s.tokenTTL)
		token.ExpiresAt = &exp
	}
	if err := s.tokenRepo.Create(ctx, token); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create token: %w", err))
	}
	return token, nil
}

// generateRandomHex generates a random hex string of n bytes.
func generateRandomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
