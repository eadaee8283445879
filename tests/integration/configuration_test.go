//go:build integration

package integration

import (
	"context"
	"net/http"
	"testing"
	"time"

	catalogapp "github.com/carconfig/backend/internal/application/catalog"
	configapp "github.com/carconfig/backend/internal/application/configuration"
	identityapp "github.com/carconfig/backend/internal/application/identity"
	"github.com/carconfig/backend/internal/domain/configuration"
	"github.com/carconfig/backend/internal/domain/inventory"
	"github.com/carconfig/backend/internal/infrastructure/auth"
	"github.com/carconfig/backend/internal/infrastructure/config"
	"github.com/carconfig/backend/internal/infrastructure/event"
	"github.com/carconfig/backend/internal/infrastructure/persistence"
	"github.com/carconfig/backend/internal/interfaces/http/dto"
	"github.com/carconfig/backend/internal/interfaces/http/handler"
	"github.com/carconfig/backend/internal/interfaces/http/middleware"
	"github.com/carconfig/backend/internal/interfaces/http/router"
	"github.com/carconfig/backend/tests/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	radio     int64 = 1
	navigator int64 = 2
	automatic int64 = 10
)

type stack struct {
	db      *persistence.Database
	engine  *gin.Engine
	service *configapp.Service
	events  *testutil.EventRecorder
}

func newStack(t *testing.T) *stack {
	t.Helper()
	log := zap.NewNop()
	db := NewTestDB(t)

	bus := event.NewInMemoryEventBus(log)
	events := testutil.NewEventRecorder()
	bus.Subscribe(events)
	require.NoError(t, bus.Start(context.Background()))
	t.Cleanup(func() { _ = bus.Stop(context.Background()) })

	service := configapp.NewService(persistence.NewGormUnitOfWork(db.DB), log)
	service.SetEventPublisher(bus)

	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                "integration-secret-key-at-least-32-chars",
		AccessTokenExpiration: time.Hour,
		Issuer:                "carconfig-integration",
	})
	revocations := auth.NewInMemoryRevocationList()

	middleware.SetupValidator()
	engine, err := router.NewEngine(router.EngineConfig{Logger: log, MaxBodySize: 1 << 16})
	require.NoError(t, err)
	router.NewRouter(engine, router.WithAuth(middleware.JWTAuth(jwtService, revocations, log))).
		Register(
			handler.NewHealthHandler("integration", map[string]handler.Pinger{"database": db}, log),
			handler.NewCatalogHandler(catalogapp.NewCatalogService(persistence.NewGormCatalogRepository(db.DB), log), log),
			handler.NewConfigurationHandler(service, log),
			handler.NewSessionHandler(identityapp.NewAuthService(
				persistence.NewGormUserRepository(db.DB), jwtService, revocations, log), nil, log),
		).
		Setup()

	return &stack{db: db, engine: engine, service: service, events: events}
}

func (s *stack) login(t *testing.T, email string) *testutil.Client {
	t.Helper()
	w := testutil.NewClient(s.engine).Do(t, http.MethodPost, "/api/v1/sessions",
		map[string]string{"email": email, "password": "password"})
	result := testutil.RequireSuccess[identityapp.LoginResult](t, w, http.StatusCreated)
	return testutil.NewClient(s.engine).WithToken(result.AccessToken)
}

func (s *stack) availability(t *testing.T, id int64) int {
	t.Helper()
	avail, err := persistence.NewGormLedger(s.db.DB).Availability(context.Background(), id)
	require.NoError(t, err)
	return avail
}

func (s *stack) userID(t *testing.T, email string) int64 {
	t.Helper()
	u, err := persistence.NewGormUserRepository(s.db.DB).FindByEmail(context.Background(), email)
	require.NoError(t, err)
	return u.ID
}

func TestPostgres_Health(t *testing.T) {
	s := newStack(t)

	w := testutil.NewClient(s.engine).Do(t, http.MethodGet, "/api/v1/health", nil)
	health := testutil.RequireSuccess[handler.HealthResponse](t, w, http.StatusOK)
	assert.Equal(t, "healthy", health.Checks["database"])
}

func TestPostgres_ConfigurationLifecycle(t *testing.T) {
	s := newStack(t)
	alice := s.login(t, "alice@example.com")
	body := map[string]any{"car_model_id": 1, "accessories": []int64{radio, navigator}}

	w := alice.Do(t, http.MethodPost, "/api/v1/user/configuration", body)
	created := testutil.RequireSuccess[configapp.ConfigurationResponse](t, w, http.StatusCreated)
	assert.Equal(t, []int64{radio, navigator}, created.Accessories)
	assert.Equal(t, 4, s.availability(t, radio))
	assert.Equal(t, 2, s.availability(t, navigator))

	w = alice.Do(t, http.MethodPost, "/api/v1/user/configuration", body)
	testutil.AssertError(t, w, http.StatusConflict, dto.ErrCodeAlreadyExists)

	w = alice.Do(t, http.MethodPut, "/api/v1/user/configuration",
		map[string]any{"car_model_id": 2, "accessories": []int64{radio}})
	updated := testutil.RequireSuccess[configapp.ConfigurationResponse](t, w, http.StatusOK)
	assert.Equal(t, int64(2), updated.CarModelID)
	assert.Equal(t, 4, s.availability(t, radio))
	assert.Equal(t, 3, s.availability(t, navigator))

	w = alice.Do(t, http.MethodDelete, "/api/v1/user/configuration", nil)
	deleted := testutil.RequireSuccess[configapp.DeleteResponse](t, w, http.StatusOK)
	assert.Equal(t, int64(1), deleted.Changes)
	assert.Equal(t, 5, s.availability(t, radio))

	w = alice.Do(t, http.MethodDelete, "/api/v1/user/configuration", nil)
	deleted = testutil.RequireSuccess[configapp.DeleteResponse](t, w, http.StatusOK)
	assert.Zero(t, deleted.Changes)

	testutil.RequireEventually(t, func() bool { return s.events.Count() == 3 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{
		configuration.EventTypeConfigurationCreated,
		configuration.EventTypeConfigurationUpdated,
		configuration.EventTypeConfigurationDeleted,
	}, s.events.Types())
}

func TestPostgres_RejectedConfigurationLeavesStockUntouched(t *testing.T) {
	s := newStack(t)
	bob := s.login(t, "bob@example.com")

	w := bob.Do(t, http.MethodPost, "/api/v1/user/configuration",
		map[string]any{"car_model_id": 1, "accessories": []int64{navigator}})
	errBody := testutil.AssertError(t, w, http.StatusUnprocessableEntity, dto.ErrCodeMissingRequiredAccessory)
	assert.EqualValues(t, navigator, errBody.Details["accessory_id"])

	assert.Equal(t, 3, s.availability(t, navigator))
	w = bob.Do(t, http.MethodGet, "/api/v1/user/configuration", nil)
	testutil.AssertError(t, w, http.StatusNotFound, dto.ErrCodeNotFound)
}

func TestPostgres_ConcurrentCreatesRespectFloor(t *testing.T) {
	s := newStack(t)
	ctx := testutil.ContextWithTimeout(t, 30*time.Second)

	emails := []string{"alice@example.com", "bob@example.com", "carol@example.com", "dave@example.com"}
	results := make([]error, len(emails))
	var g errgroup.Group
	for i, email := range emails {
		id := s.userID(t, email)
		g.Go(func() error {
			_, results[i] = s.service.Create(ctx, id, configapp.ConfigurationInput{
				CarModelID:   1,
				AccessoryIDs: []int64{automatic},
			})
			return nil
		})
	}
	require.NoError(t, g.Wait())

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, inventory.ErrInsufficientAvailability)
	}
	assert.Equal(t, 1, succeeded)
	assert.Zero(t, s.availability(t, automatic))
}

func TestPostgres_ConcurrentUpdatesOfOneUserSerialize(t *testing.T) {
	s := newStack(t)
	ctx := testutil.ContextWithTimeout(t, 30*time.Second)
	id := s.userID(t, "carol@example.com")

	_, err := s.service.Create(ctx, id, configapp.ConfigurationInput{CarModelID: 3, AccessoryIDs: []int64{radio}})
	require.NoError(t, err)

	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			accessories := []int64{radio}
			if i%2 == 0 {
				accessories = []int64{radio, navigator}
			}
			_, err := s.service.Update(ctx, id, configapp.ConfigurationInput{CarModelID: 3, AccessoryIDs: accessories})
			return err
		})
	}
	require.NoError(t, g.Wait())

	current, err := s.service.Get(ctx, id)
	require.NoError(t, err)
	held := 0
	for _, acc := range current.Accessories {
		if acc == navigator {
			held = 1
		}
	}
	assert.Equal(t, 4, s.availability(t, radio))
	assert.Equal(t, 3-held, s.availability(t, navigator))
}
