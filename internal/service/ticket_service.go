package service

import (
	"fmt"
	"time"

	"arc-exchange/internal/core/ports"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// JWTTicketService implements ports.TicketService using HS256 JWTs.
// A ticket proves a recent face match; its jti makes it single-use.
type JWTTicketService struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewJWTTicketService creates a new face ticket service.
func NewJWTTicketService(secret string, ttl time.Duration, issuer string) *JWTTicketService {
	return &JWTTicketService{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: issuer,
		now:    time.Now,
	}
}

// Issue signs a ticket for userID.
func (s *JWTTicketService) Issue(userID uuid.UUID) (*ports.FaceTicket, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)
	id := uuid.NewString()

	claims := jwt.MapClaims{
		"sub": userID.String(),
		"jti": id,
		"iat": now.Unix(),
		"exp": expiresAt.Unix(),
		"iss": s.issuer,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("signing ticket: %w", err)
	}

	return &ports.FaceTicket{Token: signed, ID: id, ExpiresAt: expiresAt}, nil
}

// Validate parses a ticket and checks signature, expiry and issuer.
func (s *JWTTicketService) Validate(ticket string) (*ports.TicketClaims, error) {
	token, err := jwt.Parse(ticket, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithExpirationRequired(), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("parsing ticket: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid ticket claims")
	}

	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, fmt.Errorf("invalid subject in ticket: %w", err)
	}

	jti, _ := claims["jti"].(string)
	if jti == "" {
		return nil, fmt.Errorf("missing ticket id")
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, fmt.Errorf("missing expiry")
	}

	return &ports.TicketClaims{UserID: userID, ID: jti, ExpiresAt: exp.Time}, nil
}
