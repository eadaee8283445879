package configuration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/carconfig/backend/internal/domain/catalog"
	"github.com/carconfig/backend/internal/domain/configuration"
	"github.com/carconfig/backend/internal/domain/shared"
	"github.com/carconfig/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Customer identifies who a delivery estimate is requested for
type Customer struct {
	UserID       int64
	IsGoodClient bool
}

// DeliveryEstimator estimates delivery days for a set of accessories
type DeliveryEstimator interface {
	EstimateDelivery(ctx context.Context, customer Customer, accessoryNames []string) (int, error)
}

// Service runs the configuration lifecycle: validate, diff, adjust the
// ledger and persist, all inside one unit of work.
//
// Mutations of one user are serialized by an in-process keyed mutex and, on
// relational backends, by a row lock on the user. Mutations of different
// users only contend inside the ledger.
type Service struct {
	uow            UnitOfWork
	userLocks      *shared.KeyedMutex[int64]
	eventPublisher shared.EventPublisher
	estimator      DeliveryEstimator
	idempotency    shared.IdempotencyStore
	idempotencyTTL time.Duration
	logger         *zap.Logger
}

// NewService creates a new configuration service
func NewService(uow UnitOfWork, logger *zap.Logger) *Service {
	return &Service{
		uow:            uow,
		userLocks:      shared.NewKeyedMutex[int64](),
		idempotencyTTL: shared.DefaultIdempotencyTTL,
		logger:         logger,
	}
}

// SetEventPublisher sets the publisher for committed configuration events
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetDeliveryEstimator enables delivery estimates
func (s *Service) SetDeliveryEstimator(estimator DeliveryEstimator) {
	s.estimator = estimator
}

// SetIdempotencyStore enables Idempotency-Key handling on create
func (s *Service) SetIdempotencyStore(store shared.IdempotencyStore, ttl time.Duration) {
	s.idempotency = store
	if ttl > 0 {
		s.idempotencyTTL = ttl
	}
}

// Get returns the configuration of a user
func (s *Service) Get(ctx context.Context, userID int64) (*ConfigurationResponse, error) {
	var found *configuration.Configuration
	err := s.uow.Execute(ctx, func(repos TransactionalRepositories) error {
		cfg, err := s.findExisting(ctx, repos, userID)
		if err != nil {
			return err
		}
		found = cfg
		return nil
	})
	if err != nil {
		return nil, s.classify(ctx, "get configuration", err)
	}
	return ToConfigurationResponse(found), nil
}

// ErrIdempotencyKeyReused is returned when a key already produced a
// configuration that has since been deleted.
var ErrIdempotencyKeyReused = shared.NewDomainError("IDEMPOTENCY_KEY_REUSED",
	"Idempotency key belongs to a configuration that no longer exists")

// Create stores a first configuration for a user and reserves one unit of
// every chosen accessory
func (s *Service) Create(ctx context.Context, userID int64, input ConfigurationInput) (*ConfigurationResponse, error) {
	unlock := s.userLocks.Lock(userID)
	defer unlock()

	created, err := s.create(ctx, userID, input)
	if err != nil {
		return nil, err
	}
	s.announceCreated(ctx, created)
	return ToConfigurationResponse(created), nil
}

// CreateIdempotent is Create keyed by a client supplied idempotency key.
// A key that already produced a configuration replays it instead of failing
// with AlreadyExists; replayed reports whether that happened. The key is
// recorded before the user lock is released, so a retry queued behind the
// first request always sees it.
func (s *Service) CreateIdempotent(ctx context.Context, userID int64, key string, input ConfigurationInput) (resp *ConfigurationResponse, replayed bool, err error) {
	if key == "" || s.idempotency == nil {
		resp, err = s.Create(ctx, userID, input)
		return resp, false, err
	}
	scoped := fmt.Sprintf("configuration:create:%d:%s", userID, key)

	unlock := s.userLocks.Lock(userID)
	defer unlock()

	if s.isProcessed(ctx, scoped) {
		resp, err = s.replay(ctx, userID)
		return resp, err == nil, err
	}

	created, err := s.create(ctx, userID, input)
	if err != nil {
		// Another instance may have committed and recorded the same key.
		if errors.Is(err, configuration.ErrAlreadyExists) && s.isProcessed(ctx, scoped) {
			resp, err = s.replay(ctx, userID)
			return resp, err == nil, err
		}
		return nil, false, err
	}

	if _, markErr := s.idempotency.MarkProcessed(ctx, scoped, s.idempotencyTTL); markErr != nil {
		logger.Enrich(ctx, s.logger).Warn("failed to record idempotency key", zap.String("key", key), zap.Error(markErr))
	}
	s.announceCreated(ctx, created)
	return ToConfigurationResponse(created), false, nil
}

// create runs the creation unit of work. The caller holds the user lock.
func (s *Service) create(ctx context.Context, userID int64, input ConfigurationInput) (*configuration.Configuration, error) {
	var created *configuration.Configuration
	err := s.uow.Execute(ctx, func(repos TransactionalRepositories) error {
		if _, err := repos.Users().LockForUpdate(ctx, userID); err != nil {
			return err
		}
		_, err := repos.Configurations().FindByUser(ctx, userID)
		switch {
		case err == nil:
			return &configuration.ConflictError{Reason: configuration.ReasonAlreadyExists, UserID: userID}
		case !errors.Is(err, shared.ErrNotFound):
			return err
		}

		if err := s.checkProposal(ctx, repos.Catalog(), input); err != nil {
			return err
		}

		cfg := configuration.NewConfiguration(userID, input.CarModelID, input.AccessoryIDs)
		if err := repos.Ledger().AdjustMany(ctx, cfg.Reservations()); err != nil {
			return err
		}
		if err := repos.Configurations().Create(ctx, cfg); err != nil {
			return err
		}
		if err := repos.Users().SetHasConfiguration(ctx, userID, true); err != nil {
			return err
		}
		created = cfg
		return nil
	})
	if err != nil {
		return nil, s.classify(ctx, "create configuration", err)
	}
	return created, nil
}

func (s *Service) announceCreated(ctx context.Context, created *configuration.Configuration) {
	logger.Enrich(ctx, s.logger).Info("configuration created",
		zap.Int64("car_model_id", created.CarModelID),
		zap.Int64s("accessories", created.AccessoryIDs),
	)
	s.publish(ctx, created.PullEvents())
}

// Update replaces a user's configuration. Newly added accessories are
// reserved and dropped ones released in a single ledger batch.
func (s *Service) Update(ctx context.Context, userID int64, input ConfigurationInput) (*ConfigurationResponse, error) {
	unlock := s.userLocks.Lock(userID)
	defer unlock()

	var updated *configuration.Configuration
	err := s.uow.Execute(ctx, func(repos TransactionalRepositories) error {
		if _, err := repos.Users().LockForUpdate(ctx, userID); err != nil {
			return err
		}
		cfg, err := s.findExisting(ctx, repos, userID)
		if err != nil {
			return err
		}
		if err := s.checkProposal(ctx, repos.Catalog(), input); err != nil {
			return err
		}

		adjustments := cfg.Replace(input.CarModelID, input.AccessoryIDs)
		if err := repos.Ledger().AdjustMany(ctx, adjustments); err != nil {
			return err
		}
		if err := repos.Configurations().Replace(ctx, cfg); err != nil {
			return err
		}
		updated = cfg
		return nil
	})
	if err != nil {
		return nil, s.classify(ctx, "update configuration", err)
	}

	logger.Enrich(ctx, s.logger).Info("configuration updated",
		zap.Int64("car_model_id", updated.CarModelID),
		zap.Int64s("accessories", updated.AccessoryIDs),
	)
	s.publish(ctx, updated.PullEvents())
	return ToConfigurationResponse(updated), nil
}

// Delete removes a user's configuration and releases every accessory it
// held. Deleting a missing configuration is not an error and reports zero
// changes.
func (s *Service) Delete(ctx context.Context, userID int64) (*DeleteResponse, error) {
	unlock := s.userLocks.Lock(userID)
	defer unlock()

	var (
		deleted *configuration.Configuration
		changes int64
	)
	err := s.uow.Execute(ctx, func(repos TransactionalRepositories) error {
		if _, err := repos.Users().LockForUpdate(ctx, userID); err != nil {
			return err
		}
		cfg, err := repos.Configurations().FindByUser(ctx, userID)
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		if err := repos.Ledger().AdjustMany(ctx, cfg.ReleaseAll()); err != nil {
			return err
		}
		n, err := repos.Configurations().DeleteByUser(ctx, userID)
		if err != nil {
			return err
		}
		if err := repos.Users().SetHasConfiguration(ctx, userID, false); err != nil {
			return err
		}
		deleted, changes = cfg, n
		return nil
	})
	if err != nil {
		return nil, s.classify(ctx, "delete configuration", err)
	}

	if deleted != nil {
		logger.Enrich(ctx, s.logger).Info("configuration deleted", zap.Int64s("released", deleted.AccessoryIDs))
		s.publish(ctx, deleted.PullEvents())
	}
	return &DeleteResponse{Changes: changes}, nil
}

// Estimate returns the configuration enriched with a delivery estimate.
// The estimate is best-effort: estimator failures are logged and omitted.
func (s *Service) Estimate(ctx context.Context, userID int64) (*EstimateResponse, error) {
	var (
		found    *configuration.Configuration
		customer Customer
		names    []string
	)
	err := s.uow.Execute(ctx, func(repos TransactionalRepositories) error {
		cfg, err := s.findExisting(ctx, repos, userID)
		if err != nil {
			return err
		}
		user, err := repos.Users().FindByID(ctx, userID)
		if err != nil {
			return err
		}
		accessories, err := repos.Catalog().FindAccessories(ctx, cfg.AccessoryIDs)
		if err != nil {
			return err
		}
		names = make([]string, 0, len(accessories))
		for _, a := range accessories {
			names = append(names, a.Name)
		}
		found = cfg
		customer = Customer{UserID: user.ID, IsGoodClient: user.IsGoodClient}
		return nil
	})
	if err != nil {
		return nil, s.classify(ctx, "estimate configuration", err)
	}

	resp := &EstimateResponse{ConfigurationResponse: *ToConfigurationResponse(found)}
	if s.estimator == nil {
		return resp, nil
	}
	days, err := s.estimator.EstimateDelivery(ctx, customer, names)
	if err != nil {
		logger.Enrich(ctx, s.logger).Warn("delivery estimate unavailable", zap.Error(err))
		return resp, nil
	}
	resp.EstimatedDeliveryDays = &days
	return resp, nil
}

// checkProposal validates a proposal against the catalog. The pure rules run
// before accessory existence is checked.
func (s *Service) checkProposal(ctx context.Context, cat catalog.Repository, input ConfigurationInput) error {
	model, err := cat.FindModel(ctx, input.CarModelID)
	if errors.Is(err, shared.ErrNotFound) {
		return &configuration.ValidationError{Reason: configuration.ReasonUnknownCarModel, CarModelID: input.CarModelID}
	}
	if err != nil {
		return err
	}

	constraints, err := cat.ListConstraints(ctx)
	if err != nil {
		return err
	}
	if err := configuration.Validate(model.ID, input.AccessoryIDs, model.MaxAccessories, constraints); err != nil {
		return err
	}

	if len(input.AccessoryIDs) == 0 {
		return nil
	}
	known, err := cat.FindAccessories(ctx, input.AccessoryIDs)
	if err != nil {
		return err
	}
	exists := make(map[int64]struct{}, len(known))
	for _, a := range known {
		exists[a.ID] = struct{}{}
	}
	for _, id := range input.AccessoryIDs {
		if _, ok := exists[id]; !ok {
			return &configuration.ValidationError{Reason: configuration.ReasonUnknownAccessory, AccessoryID: id}
		}
	}
	return nil
}

func (s *Service) findExisting(ctx context.Context, repos TransactionalRepositories, userID int64) (*configuration.Configuration, error) {
	cfg, err := repos.Configurations().FindByUser(ctx, userID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, &configuration.ConflictError{Reason: configuration.ReasonNotFound, UserID: userID}
	}
	return cfg, err
}

func (s *Service) isProcessed(ctx context.Context, key string) bool {
	processed, err := s.idempotency.IsProcessed(ctx, key)
	if err != nil {
		logger.Enrich(ctx, s.logger).Warn("idempotency lookup failed", zap.Error(err))
		return false
	}
	return processed
}

// replay returns the configuration a processed key created. A key never
// creates a second configuration: once its configuration is deleted the key
// is spent.
func (s *Service) replay(ctx context.Context, userID int64) (*ConfigurationResponse, error) {
	resp, err := s.Get(ctx, userID)
	if errors.Is(err, configuration.ErrNotFound) {
		return nil, ErrIdempotencyKeyReused
	}
	return resp, err
}

// classify lets domain and context errors through unchanged and wraps
// anything else as a storage failure
func (s *Service) classify(ctx context.Context, op string, err error) error {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	logger.Enrich(ctx, s.logger).Error("storage failure", zap.String("op", op), zap.Error(err))
	return shared.NewStorageError(op, err)
}

func (s *Service) publish(ctx context.Context, events []shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		logger.Enrich(ctx, s.logger).Warn("failed to publish configuration events", zap.Error(err))
	}
}
