package identity

import (
	"context"
	"errors"

	"github.com/carconfig/backend/internal/domain/identity"
	"github.com/carconfig/backend/internal/domain/shared"
	"github.com/carconfig/backend/internal/infrastructure/auth"
	"github.com/carconfig/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// ErrInvalidCredentials is returned for an unknown email or a wrong password
var ErrInvalidCredentials = shared.NewDomainError("INVALID_CREDENTIALS", "Incorrect email or password")

// AuthService handles authentication operations
type AuthService struct {
	userRepo    identity.UserRepository
	jwtService  *auth.JWTService
	revocations auth.RevocationList
	logger      *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	userRepo identity.UserRepository,
	jwtService *auth.JWTService,
	revocations auth.RevocationList,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		jwtService:  jwtService,
		revocations: revocations,
		logger:      logger,
	}
}

// Login authenticates a user and returns a session token
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	log := logger.Enrich(ctx, s.logger)

	user, err := s.userRepo.FindByEmail(ctx, input.Email)
	if errors.Is(err, shared.ErrNotFound) {
		log.Warn("Login attempt for unknown email")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, shared.NewStorageError("find user", err)
	}

	if !user.VerifyPassword(input.Password) {
		log.Warn("Invalid password attempt", zap.Int64("user_id", user.ID))
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwtService.GenerateAccessToken(auth.TokenSubject{
		UserID:       user.ID,
		Email:        user.Email,
		IsGoodClient: user.IsGoodClient,
	})
	if err != nil {
		log.Error("Failed to generate access token", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate authentication token")
	}

	log.Info("User logged in", zap.Int64("user_id", user.ID))
	return &LoginResult{
		AccessToken: token.Token,
		ExpiresAt:   token.ExpiresAt,
		TokenType:   "Bearer",
		User:        ToUserInfo(user),
	}, nil
}

// GetCurrentUser returns the logged in user
func (s *AuthService) GetCurrentUser(ctx context.Context, userID int64) (*UserInfo, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.ErrUnauthorized
	}
	if err != nil {
		return nil, shared.NewStorageError("find user", err)
	}
	info := ToUserInfo(user)
	return &info, nil
}

// Logout revokes the presented session token until it would have expired
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if s.revocations == nil || claims.ID == "" {
		return nil
	}
	ttl := claims.RemainingTTL()
	if ttl <= 0 {
		return nil
	}
	if err := s.revocations.Revoke(ctx, claims.ID, ttl); err != nil {
		logger.Enrich(ctx, s.logger).Error("Failed to revoke token", zap.Error(err))
		return shared.NewStorageError("revoke token", err)
	}
	logger.Enrich(ctx, s.logger).Info("User logged out", zap.Int64("user_id", claims.UserID))
	return nil
}

// IssueEstimationToken signs the short-lived token a client presents to the
// estimator
func (s *AuthService) IssueEstimationToken(ctx context.Context, userID int64) (*EstimationTokenResult, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.ErrUnauthorized
	}
	if err != nil {
		return nil, shared.NewStorageError("find user", err)
	}

	token, err := s.jwtService.GenerateEstimationToken(auth.TokenSubject{
		UserID:       user.ID,
		IsGoodClient: user.IsGoodClient,
	})
	if err != nil {
		logger.Enrich(ctx, s.logger).Error("Failed to generate estimation token", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate estimation token")
	}
	return &EstimationTokenResult{
		Token:        token.Token,
		IsGoodClient: user.IsGoodClient,
		ExpiresAt:    token.ExpiresAt,
	}, nil
}
