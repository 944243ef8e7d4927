package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/arcana/internal/config"
	"github.com/phrazzld/arcana/internal/platform/logger"
)

const (
	tokenTypeAccess = "access"
	minSecretLength = 32
	clockSkew       = 2 * time.Minute
)

// jwtCustomClaims is the wire form of an access token.
type jwtCustomClaims struct {
	UserID    uuid.UUID `json:"uid"`
	TokenType string    `json:"type"`
	jwt.RegisteredClaims
}

// hmacJWTService signs with HS256 using a shared secret.
type hmacJWTService struct {
	signingKey    []byte
	tokenLifetime time.Duration
	now           func() time.Time
	parser        *jwt.Parser
}

var _ JWTService = (*hmacJWTService)(nil)

// NewJWTService builds the HS256 token service described by cfg.
func NewJWTService(cfg config.AuthConfig) (JWTService, error) {
	if len(cfg.JWTSecret) < minSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d characters", minSecretLength)
	}
	if cfg.TokenLifetimeMinutes <= 0 {
		return nil, errors.New("token lifetime must be positive")
	}
	lifetime := time.Duration(cfg.TokenLifetimeMinutes) * time.Minute
	return newHMACJWTService(cfg.JWTSecret, lifetime, time.Now), nil
}

func newHMACJWTService(secret string, lifetime time.Duration, now func() time.Time) *hmacJWTService {
	return &hmacJWTService{
		signingKey:    []byte(secret),
		tokenLifetime: lifetime,
		now:           now,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
			jwt.WithLeeway(clockSkew),
			jwt.WithTimeFunc(now),
		),
	}
}

func (s *hmacJWTService) GenerateToken(ctx context.Context, userID uuid.UUID) (string, error) {
	issued := s.now()
	claims := jwtCustomClaims{
		UserID:    userID,
		TokenType: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(s.tokenLifetime)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		logger.FromContext(ctx).Error("failed to sign access token",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

// ValidateToken also accepts tokens that carry the user only in the subject
// claim, as long as the subject parses as a UUID.
func (s *hmacJWTService) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	log := logger.FromContext(ctx).With("component", "jwt")

	var raw jwtCustomClaims
	token, err := s.parser.ParseWithClaims(tokenString, &raw, s.key)
	if err != nil {
		sentinel := classifyParseError(err)
		log.Debug("token rejected", slog.String("reason", sentinel.Error()), slog.String("error", err.Error()))
		return nil, sentinel
	}
	if !token.Valid {
		log.Debug("token rejected", slog.String("reason", "invalid claims"))
		return nil, ErrInvalidToken
	}
	if raw.TokenType != tokenTypeAccess {
		log.Debug("token rejected", slog.String("reason", "wrong type"), slog.String("type", raw.TokenType))
		return nil, ErrWrongTokenType
	}

	claims, err := toClaims(raw)
	if err != nil {
		log.Debug("token rejected", slog.String("reason", "subject is not a user id"))
		return nil, err
	}
	log.Debug("token accepted", slog.String("user_id", claims.UserID.String()), slog.String("token_id", claims.ID))
	return claims, nil
}

func (s *hmacJWTService) key(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return s.signingKey, nil
}

func classifyParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpiredToken
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return ErrTokenNotYetValid
	default:
		return ErrInvalidToken
	}
}

func toClaims(raw jwtCustomClaims) (*Claims, error) {
	userID := raw.UserID
	if userID == uuid.Nil {
		parsed, err := uuid.Parse(raw.Subject)
		if err != nil || parsed == uuid.Nil {
			return nil, ErrInvalidToken
		}
		userID = parsed
	}

	out := &Claims{
		UserID:    userID,
		TokenType: raw.TokenType,
		Subject:   raw.Subject,
		ID:        raw.ID,
	}
	if raw.IssuedAt != nil {
		out.IssuedAt = raw.IssuedAt.Time
	}
	if raw.ExpiresAt != nil {
		out.ExpiresAt = raw.ExpiresAt.Time
	}
	return out, nil
}
