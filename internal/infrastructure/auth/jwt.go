package auth

import (
	"errors"
	"time"

	"github.com/carconfig/backend/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType represents the type of JWT token
type TokenType string

const (
	// TokenTypeAccess authenticates a session against the configurator API
	TokenTypeAccess TokenType = "access"
	// TokenTypeEstimation authorizes a single estimation call and lives
	// for a minute by default
	TokenTypeEstimation TokenType = "estimation"
)

// Common errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidTokenType = errors.New("invalid token type")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrMissingUserID    = errors.New("missing user_id in claims")
	ErrTokenRevoked     = errors.New("token has been revoked")
)

// Claims are the claims of both token types
type Claims struct {
	jwt.RegisteredClaims
	UserID       int64     `json:"user_id"`
	Email        string    `json:"email,omitempty"`
	IsGoodClient bool      `json:"is_good_client"`
	TokenType    TokenType `json:"token_type"`
}

// SignedToken is a signed JWT with its expiry
type SignedToken struct {
	Token     string    `json:"token"`
	ID        string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

// JWTService issues and validates tokens
type JWTService struct {
	accessSecret         []byte
	estimationSecret     []byte
	accessExpiration     time.Duration
	estimationExpiration time.Duration
	issuer               string
}

// NewJWTService creates a new JWT service. When no estimation secret is
// configured the access secret is used for both token types.
func NewJWTService(cfg config.JWTConfig) *JWTService {
	estimationSecret := []byte(cfg.EstimationSecret)
	if cfg.EstimationSecret == "" {
		estimationSecret = []byte(cfg.Secret)
	}

	return &JWTService{
		accessSecret:         []byte(cfg.Secret),
		estimationSecret:     estimationSecret,
		accessExpiration:     cfg.AccessTokenExpiration,
		estimationExpiration: cfg.EstimationTokenExpiration,
		issuer:               cfg.Issuer,
	}
}

// TokenSubject identifies the user a token is issued for
type TokenSubject struct {
	UserID       int64
	Email        string
	IsGoodClient bool
}

// GenerateAccessToken issues a session token
func (s *JWTService) GenerateAccessToken(subject TokenSubject) (*SignedToken, error) {
	return s.issue(subject, TokenTypeAccess, s.accessSecret, s.accessExpiration)
}

// GenerateEstimationToken issues the short-lived token the estimator accepts
func (s *JWTService) GenerateEstimationToken(subject TokenSubject) (*SignedToken, error) {
	return s.issue(TokenSubject{UserID: subject.UserID, IsGoodClient: subject.IsGoodClient},
		TokenTypeEstimation, s.estimationSecret, s.estimationExpiration)
}

func (s *JWTService) issue(subject TokenSubject, tokenType TokenType, secret []byte, ttl time.Duration) (*SignedToken, error) {
	now := time.Now()
	jti := uuid.New().String()

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.issuer},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID:       subject.UserID,
		Email:        subject.Email,
		IsGoodClient: subject.IsGoodClient,
		TokenType:    tokenType,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return nil, err
	}
	return &SignedToken{Token: signed, ID: jti, ExpiresAt: now.Add(ttl)}, nil
}

// ValidateAccessToken validates a session token and returns its claims
func (s *JWTService) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.validateToken(tokenString, s.accessSecret, TokenTypeAccess)
}

// ValidateEstimationToken validates an estimation token and returns its claims
func (s *JWTService) ValidateEstimationToken(tokenString string) (*Claims, error) {
	return s.validateToken(tokenString, s.estimationSecret, TokenTypeEstimation)
}

// validateToken validates a JWT token
func (s *JWTService) validateToken(tokenString string, secret []byte, expectedType TokenType) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secret, nil
	}, jwt.WithIssuer(s.issuer))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		if errors.Is(err, jwt.ErrTokenNotValidYet) {
			return nil, ErrTokenNotYetValid
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if claims.TokenType != expectedType {
		return nil, ErrInvalidTokenType
	}
	if claims.UserID <= 0 {
		return nil, ErrMissingUserID
	}

	return claims, nil
}

// RemainingTTL returns how long the token stays valid
func (c *Claims) RemainingTTL() time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return max(time.Until(c.ExpiresAt.Time), 0)
}
