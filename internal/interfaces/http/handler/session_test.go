package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	estimationapp "github.com/carconfig/backend/internal/application/estimation"
	identityapp "github.com/carconfig/backend/internal/application/identity"
	"github.com/carconfig/backend/internal/infrastructure/auth"
	"github.com/carconfig/backend/internal/interfaces/http/dto"
	"github.com/carconfig/backend/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSessionHandler_Login(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodPost, "/api/v1/sessions", "", map[string]string{
		"email":    "Alice@Example.com",
		"password": "password",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	env := decode[identityapp.LoginResult](t, w)
	assert.NotEmpty(t, env.Data.AccessToken)
	assert.Equal(t, "Bearer", env.Data.TokenType)
	assert.Equal(t, "alice@example.com", env.Data.User.Email)
	assert.True(t, env.Data.User.IsGoodClient)
	assert.False(t, env.Data.User.HasCarConfiguration)

	tests := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"wrong password", map[string]string{"email": "alice@example.com", "password": "nope"}, http.StatusUnauthorized, dto.ErrCodeInvalidCredentials},
		{"unknown email", map[string]string{"email": "nobody@example.com", "password": "password"}, http.StatusUnauthorized, dto.ErrCodeInvalidCredentials},
		{"malformed email", map[string]string{"email": "alice", "password": "password"}, http.StatusBadRequest, dto.ErrCodeValidation},
		{"missing password", map[string]string{"email": "alice@example.com"}, http.StatusBadRequest, dto.ErrCodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.do(t, http.MethodPost, "/api/v1/sessions", "", tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decode[any](t, w).Error.Code)
		})
	}
}

func TestSessionHandler_CurrentAndLogout(t *testing.T) {
	api := newTestAPI(t)
	token := api.login(t, "bob@example.com")

	w := api.do(t, http.MethodPost, configurationPath, token, configurationBody(1, 1))
	require.Equal(t, http.StatusCreated, w.Code)

	w = api.do(t, http.MethodGet, "/api/v1/sessions/current", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	user := decode[identityapp.UserInfo](t, w).Data
	assert.Equal(t, "bob@example.com", user.Email)
	assert.True(t, user.HasCarConfiguration)
	assert.False(t, user.IsGoodClient)

	w = api.do(t, http.MethodDelete, "/api/v1/sessions/current", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = api.do(t, http.MethodGet, "/api/v1/sessions/current", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrCodeTokenRevoked, decode[any](t, w).Error.Code)

	// A fresh session still works
	token = api.login(t, "bob@example.com")
	w = api.do(t, http.MethodGet, "/api/v1/sessions/current", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSessionHandler_EstimationToken(t *testing.T) {
	api := newTestAPI(t)
	token := api.login(t, "alice@example.com")

	w := api.do(t, http.MethodGet, "/api/v1/auth-token", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	env := decode[identityapp.EstimationTokenResult](t, w)
	assert.True(t, env.Data.IsGoodClient)

	claims, err := api.jwt.ValidateEstimationToken(env.Data.Token)
	require.NoError(t, err)
	assert.True(t, claims.IsGoodClient)
	assert.Equal(t, auth.TokenTypeEstimation, claims.TokenType)

	// An estimation token cannot open a session
	w = api.do(t, http.MethodGet, "/api/v1/sessions/current", env.Data.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestEstimatorHandler(t *testing.T) {
	jwtService := newJWTService()
	srv := newEstimatorServer(t, jwtService)
	client := srv.Client()

	post := func(token, body string) *http.Response {
		req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, srv.URL+"/api/v1/estimate", strings.NewReader(body))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := client.Do(req)
		require.NoError(t, err)
		t.Cleanup(func() { _ = resp.Body.Close() })
		return resp
	}

	estimation, err := jwtService.GenerateEstimationToken(auth.TokenSubject{UserID: 1, IsGoodClient: false})
	require.NoError(t, err)
	resp := post(estimation.Token, `{"accessories":["radio","bluetooth"]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var env envelope[estimationapp.EstimateResponse]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	// 3 days for each of "radio" and "bluetooth" plus 1..90 days
	assert.GreaterOrEqual(t, env.Data.Days, 3*2+1)
	assert.LessOrEqual(t, env.Data.Days, 3*2+90)

	access, err := jwtService.GenerateAccessToken(auth.TokenSubject{UserID: 1})
	require.NoError(t, err)
	resp = post(access.Token, `{"accessories":[]}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = post("", `{"accessories":[]}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = post(estimation.Token, `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name   string
		checks map[string]handler.Pinger
		status int
	}{
		{"liveness only", nil, http.StatusOK},
		{"database up", map[string]handler.Pinger{"database": pingFunc(func(context.Context) error { return nil })}, http.StatusOK},
		{"database down", map[string]handler.Pinger{"database": pingFunc(func(context.Context) error { return errors.New("connection refused") })}, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handler.NewHealthHandler("1.2.3", tt.checks, zap.NewNop())
			engine := gin.New()
			h.RegisterRoutes(engine.Group("/api/v1"), nil)

			w := httptest.NewRecorder()
			engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
			assert.Equal(t, tt.status, w.Code)

			env := decode[handler.HealthResponse](t, w)
			assert.Equal(t, "1.2.3", env.Data.Version)
			if tt.status != http.StatusOK {
				assert.Equal(t, "unhealthy", env.Data.Status)
				assert.Equal(t, "unhealthy", env.Data.Checks["database"])
				assert.Equal(t, dto.ErrCodeStorage, env.Error.Code)
			}
		})
	}
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }
