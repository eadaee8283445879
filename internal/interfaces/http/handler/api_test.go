package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	catalogapp "github.com/carconfig/backend/internal/application/catalog"
	configapp "github.com/carconfig/backend/internal/application/configuration"
	estimationapp "github.com/carconfig/backend/internal/application/estimation"
	identityapp "github.com/carconfig/backend/internal/application/identity"
	"github.com/carconfig/backend/internal/infrastructure/auth"
	"github.com/carconfig/backend/internal/infrastructure/cache"
	"github.com/carconfig/backend/internal/infrastructure/config"
	"github.com/carconfig/backend/internal/infrastructure/estimation"
	"github.com/carconfig/backend/internal/infrastructure/persistence/memory"
	"github.com/carconfig/backend/internal/infrastructure/seed"
	"github.com/carconfig/backend/internal/interfaces/http/dto"
	"github.com/carconfig/backend/internal/interfaces/http/handler"
	"github.com/carconfig/backend/internal/interfaces/http/middleware"
	"github.com/carconfig/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-secret-key-for-unit-tests-only-32chars"

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

type testAPI struct {
	engine  *gin.Engine
	store   *memory.Store
	jwt     *auth.JWTService
	service *configapp.Service
}

func newJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                    testSecret,
		AccessTokenExpiration:     time.Hour,
		Issuer:                    "carconfig-test",
		EstimationSecret:          testSecret + "-estimation",
		EstimationTokenExpiration: time.Minute,
	})
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	log := zap.NewNop()

	store := memory.NewStore()
	require.NoError(t, seed.Run(context.Background(), store, seed.Default(), log))

	jwtService := newJWTService()
	revocations := auth.NewInMemoryRevocationList()

	service := configapp.NewService(store, log)
	idempotency := cache.NewInMemoryIdempotencyStore(time.Minute)
	t.Cleanup(func() { _ = idempotency.Close() })
	service.SetIdempotencyStore(idempotency, time.Minute)

	engine, err := router.NewEngine(router.EngineConfig{Logger: log, MaxBodySize: 1 << 16})
	require.NoError(t, err)

	router.NewRouter(engine, router.WithAuth(middleware.JWTAuth(jwtService, revocations, log))).
		Register(
			handler.NewHealthHandler("test", nil, log),
			handler.NewCatalogHandler(catalogapp.NewCatalogService(store.Catalog(), log), log),
			handler.NewConfigurationHandler(service, log),
			handler.NewSessionHandler(identityapp.NewAuthService(store.Users(), jwtService, revocations, log), nil, log),
		).
		Setup()

	return &testAPI{engine: engine, store: store, jwt: jwtService, service: service}
}

type envelope[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data"`
	Error   *dto.ErrorInfo `json:"error"`
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var env envelope[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func (a *testAPI) login(t *testing.T, email string) string {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/v1/sessions", "", map[string]string{
		"email":    email,
		"password": "password",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[identityapp.LoginResult](t, w).Data.AccessToken
}

// newEstimatorServer runs the estimator service on a local listener
func newEstimatorServer(t *testing.T, jwtService *auth.JWTService) *httptest.Server {
	t.Helper()
	engine, err := router.NewEngine(router.EngineConfig{Logger: zap.NewNop()})
	require.NoError(t, err)

	router.NewRouter(engine, router.WithAuth(middleware.EstimationAuth(jwtService, zap.NewNop()))).
		Register(handler.NewEstimatorHandler(estimationapp.NewEstimator(rand.NewPCG(1, 2)), zap.NewNop())).
		Setup()

	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)
	return srv
}

func newEstimationClient(baseURL string, jwtService *auth.JWTService) *estimation.Client {
	return estimation.NewClient(baseURL, 2*time.Second, jwtService, zap.NewNop())
}
