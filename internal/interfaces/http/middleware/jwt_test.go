package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/carconfig/backend/internal/infrastructure/auth"
	"github.com/carconfig/backend/internal/infrastructure/config"
	"github.com/carconfig/backend/internal/infrastructure/logger"
	"github.com/carconfig/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestJWTService(accessTTL time.Duration) *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                    "test-secret-key-for-unit-tests-only-32chars",
		AccessTokenExpiration:     accessTTL,
		Issuer:                    "carconfig-test",
		EstimationSecret:          "another-secret-key-for-estimation-tokens",
		EstimationTokenExpiration: time.Minute,
	})
}

type failingRevocations struct{}

func (failingRevocations) Revoke(context.Context, string, time.Duration) error {
	return errors.New("redis down")
}

func (failingRevocations) IsRevoked(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}

func newAuthEngine(mw gin.HandlerFunc) *gin.Engine {
	engine := gin.New()
	engine.Use(RequestID(), mw)
	engine.GET("/me", func(c *gin.Context) {
		claims := GetJWTClaims(c)
		c.JSON(http.StatusOK, gin.H{
			"user_id":     GetUserID(c),
			"ctx_user_id": logger.GetUserID(c.Request.Context()),
			"good":        claims.IsGoodClient,
		})
	})
	return engine
}

func serveWithToken(engine *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if header != "" {
		req.Header.Set(AuthHeaderKey, header)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestJWTAuth(t *testing.T) {
	svc := newTestJWTService(time.Hour)
	revocations := auth.NewInMemoryRevocationList()
	engine := newAuthEngine(JWTAuth(svc, revocations, zap.NewNop()))

	access, err := svc.GenerateAccessToken(auth.TokenSubject{UserID: 7, Email: "bob@example.com", IsGoodClient: true})
	require.NoError(t, err)
	estimation, err := svc.GenerateEstimationToken(auth.TokenSubject{UserID: 7})
	require.NoError(t, err)

	expiredSvc := newTestJWTService(-time.Minute)
	expired, err := expiredSvc.GenerateAccessToken(auth.TokenSubject{UserID: 7})
	require.NoError(t, err)

	t.Run("valid token", func(t *testing.T) {
		w := serveWithToken(engine, BearerPrefix+access.Token)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"user_id":7,"ctx_user_id":7,"good":true}`, w.Body.String())
	})

	failures := []struct {
		name   string
		header string
		code   string
	}{
		{"missing header", "", dto.ErrCodeTokenInvalid},
		{"not bearer", "Basic dXNlcjpwYXNz", dto.ErrCodeTokenInvalid},
		{"empty token", BearerPrefix, dto.ErrCodeTokenInvalid},
		{"garbage", BearerPrefix + "abc.def.ghi", dto.ErrCodeTokenInvalid},
		{"estimation token", BearerPrefix + estimation.Token, dto.ErrCodeTokenInvalid},
		{"expired", BearerPrefix + expired.Token, dto.ErrCodeTokenExpired},
	}
	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			w := serveWithToken(engine, tt.header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			errInfo := decodeError(t, w)
			assert.Equal(t, tt.code, errInfo.Code)
			assert.NotEmpty(t, errInfo.RequestID)
		})
	}

	t.Run("revoked token", func(t *testing.T) {
		require.NoError(t, revocations.Revoke(context.Background(), access.ID, time.Hour))
		w := serveWithToken(engine, BearerPrefix+access.Token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrCodeTokenRevoked, decodeError(t, w).Code)
	})
}

func TestJWTAuth_RevocationStoreDownFailsOpen(t *testing.T) {
	svc := newTestJWTService(time.Hour)
	engine := newAuthEngine(JWTAuth(svc, failingRevocations{}, zap.NewNop()))

	access, err := svc.GenerateAccessToken(auth.TokenSubject{UserID: 3})
	require.NoError(t, err)

	w := serveWithToken(engine, BearerPrefix+access.Token)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestEstimationAuth(t *testing.T) {
	svc := newTestJWTService(time.Hour)
	engine := newAuthEngine(EstimationAuth(svc, nil))

	estimation, err := svc.GenerateEstimationToken(auth.TokenSubject{UserID: 4, IsGoodClient: true})
	require.NoError(t, err)
	access, err := svc.GenerateAccessToken(auth.TokenSubject{UserID: 4})
	require.NoError(t, err)

	w := serveWithToken(engine, BearerPrefix+estimation.Token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":4,"ctx_user_id":4,"good":true}`, w.Body.String())

	w = serveWithToken(engine, BearerPrefix+access.Token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
