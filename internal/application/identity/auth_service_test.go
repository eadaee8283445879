package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/carconfig/backend/internal/domain/identity"
	"github.com/carconfig/backend/internal/domain/shared"
	"github.com/carconfig/backend/internal/infrastructure/auth"
	"github.com/carconfig/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// MockUserRepository is a mock implementation of identity.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *identity.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id int64) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) LockForUpdate(ctx context.Context, id int64) (*identity.User, error) {
	return m.FindByID(ctx, id)
}

func (m *MockUserRepository) SetHasConfiguration(ctx context.Context, id int64, has bool) error {
	return m.Called(ctx, id, has).Error(0)
}

func (m *MockUserRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func newTestUser(t *testing.T) *identity.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	require.NoError(t, err)
	return &identity.User{
		ID:           3,
		Email:        "testuser@example.com",
		Name:         "Test User",
		PasswordHash: string(hash),
		IsGoodClient: true,
	}
}

func newTestAuthService(repo identity.UserRepository, revocations auth.RevocationList) (*AuthService, *auth.JWTService) {
	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                    "test-secret-key-at-least-32-chars",
		EstimationSecret:          "test-estimation-secret-32-chars!!",
		AccessTokenExpiration:     time.Hour,
		EstimationTokenExpiration: time.Minute,
		Issuer:                    "carconfig-test",
	})
	return NewAuthService(repo, jwtService, revocations, zap.NewNop()), jwtService
}

func TestAuthService_Login_Success(t *testing.T) {
	repo := new(MockUserRepository)
	user := newTestUser(t)
	repo.On("FindByEmail", mock.Anything, "testuser@example.com").Return(user, nil)
	svc, jwtService := newTestAuthService(repo, nil)

	result, err := svc.Login(context.Background(), LoginInput{Email: "testuser@example.com", Password: "password"})
	require.NoError(t, err)

	assert.Equal(t, "Bearer", result.TokenType)
	assert.Equal(t, user.ID, result.User.ID)
	assert.True(t, result.User.IsGoodClient)

	claims, err := jwtService.ValidateAccessToken(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
}

func TestAuthService_Login_InvalidCredentials(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("FindByEmail", mock.Anything, "testuser@example.com").Return(newTestUser(t), nil)
	repo.On("FindByEmail", mock.Anything, "nobody@example.com").Return(nil, shared.ErrNotFound)
	svc, _ := newTestAuthService(repo, nil)

	_, err := svc.Login(context.Background(), LoginInput{Email: "testuser@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), LoginInput{Email: "nobody@example.com", Password: "password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_Login_StorageFailure(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("FindByEmail", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset"))
	svc, _ := newTestAuthService(repo, nil)

	_, err := svc.Login(context.Background(), LoginInput{Email: "testuser@example.com", Password: "password"})
	assert.ErrorIs(t, err, shared.ErrStorage)
}

func TestAuthService_GetCurrentUser(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("FindByID", mock.Anything, int64(3)).Return(newTestUser(t), nil)
	repo.On("FindByID", mock.Anything, int64(4)).Return(nil, shared.ErrNotFound)
	svc, _ := newTestAuthService(repo, nil)

	info, err := svc.GetCurrentUser(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "Test User", info.Name)

	_, err = svc.GetCurrentUser(context.Background(), 4)
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestAuthService_Logout_RevokesToken(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("FindByEmail", mock.Anything, mock.Anything).Return(newTestUser(t), nil)
	revocations := auth.NewInMemoryRevocationList()
	svc, jwtService := newTestAuthService(repo, revocations)
	ctx := context.Background()

	result, err := svc.Login(ctx, LoginInput{Email: "testuser@example.com", Password: "password"})
	require.NoError(t, err)
	claims, err := jwtService.ValidateAccessToken(result.AccessToken)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, claims))

	revoked, err := revocations.IsRevoked(ctx, claims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestAuthService_IssueEstimationToken(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("FindByID", mock.Anything, int64(3)).Return(newTestUser(t), nil)
	svc, jwtService := newTestAuthService(repo, nil)

	result, err := svc.IssueEstimationToken(context.Background(), 3)
	require.NoError(t, err)
	assert.True(t, result.IsGoodClient)
	assert.WithinDuration(t, time.Now().Add(time.Minute), result.ExpiresAt, 5*time.Second)

	claims, err := jwtService.ValidateEstimationToken(result.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(3), claims.UserID)
	assert.True(t, claims.IsGoodClient)

	_, err = jwtService.ValidateAccessToken(result.Token)
	assert.Error(t, err)
}
