package telemetry

import (
	"context"
	"errors"
	"fmt"

	"github.com/carconfig/backend/internal/domain/catalog"
	"github.com/carconfig/backend/internal/domain/configuration"
	"github.com/carconfig/backend/internal/domain/shared"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Metric attribute keys
var (
	AttrChange      = attribute.Key("change")
	AttrAccessoryID = attribute.Key("accessory_id")
	AttrAccessory   = attribute.Key("accessory")
)

// AccessorySource lists accessories with their current availability
type AccessorySource interface {
	ListAccessories(ctx context.Context) ([]catalog.Accessory, error)
}

// HolderSource counts, per accessory, the configurations holding a unit
type HolderSource interface {
	CountHolders(ctx context.Context) (map[int64]int, error)
}

// MetricsOption configures ConfigurationMetrics
type MetricsOption func(*ConfigurationMetrics)

// WithHolders adds the accessory_reserved gauge fed by holders. Together with
// accessory_availability it shows every unit as either free or held.
func WithHolders(holders HolderSource) MetricsOption {
	return func(m *ConfigurationMetrics) { m.holders = holders }
}

// ConfigurationMetrics records configuration changes from domain events and
// reports accessory availability as an observable gauge
type ConfigurationMetrics struct {
	changes  metric.Int64Counter
	reserved metric.Int64Counter
	released metric.Int64Counter
	gauge    metric.Registration
	holders  HolderSource
	logger   *zap.Logger
}

// NewConfigurationMetrics registers the instruments on meter. source may be
// nil, in which case no availability gauge is registered.
func NewConfigurationMetrics(meter metric.Meter, source AccessorySource, logger *zap.Logger, opts ...MetricsOption) (*ConfigurationMetrics, error) {
	if meter == nil {
		return nil, errors.New("NewConfigurationMetrics: meter cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &ConfigurationMetrics{logger: logger}
	for _, opt := range opts {
		opt(m)
	}
	var err error
	if m.changes, err = meter.Int64Counter("configuration_changes_total",
		metric.WithDescription("Committed configuration changes by kind"),
		metric.WithUnit("{change}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create configuration_changes_total: %w", err)
	}
	if m.reserved, err = meter.Int64Counter("accessory_reservations_total",
		metric.WithDescription("Accessory units reserved by configurations"),
		metric.WithUnit("{unit}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create accessory_reservations_total: %w", err)
	}
	if m.released, err = meter.Int64Counter("accessory_releases_total",
		metric.WithDescription("Accessory units released by configurations"),
		metric.WithUnit("{unit}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create accessory_releases_total: %w", err)
	}

	var (
		observables []metric.Observable
		callbacks   []metric.Callback
	)
	if source != nil {
		availability, err := meter.Int64ObservableGauge("accessory_availability",
			metric.WithDescription("Units of an accessory still available"),
			metric.WithUnit("{unit}"),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create accessory_availability: %w", err)
		}
		observables = append(observables, availability)
		callbacks = append(callbacks, func(ctx context.Context, o metric.Observer) error {
			accessories, err := source.ListAccessories(ctx)
			if err != nil {
				m.logger.Warn("Failed to collect accessory availability", zap.Error(err))
				return nil
			}
			for _, a := range accessories {
				o.ObserveInt64(availability, int64(a.Availability),
					metric.WithAttributes(AttrAccessoryID.Int64(a.ID), AttrAccessory.String(a.Name)))
			}
			return nil
		})
	}
	if m.holders != nil {
		reserved, err := meter.Int64ObservableGauge("accessory_reserved",
			metric.WithDescription("Units of an accessory held by configurations"),
			metric.WithUnit("{unit}"),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create accessory_reserved: %w", err)
		}
		observables = append(observables, reserved)
		callbacks = append(callbacks, func(ctx context.Context, o metric.Observer) error {
			holders, err := m.holders.CountHolders(ctx)
			if err != nil {
				m.logger.Warn("Failed to collect accessory reservations", zap.Error(err))
				return nil
			}
			for id, n := range holders {
				o.ObserveInt64(reserved, int64(n), metric.WithAttributes(AttrAccessoryID.Int64(id)))
			}
			return nil
		})
	}

	if len(observables) > 0 {
		m.gauge, err = meter.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
			for _, cb := range callbacks {
				if err := cb(ctx, o); err != nil {
					return err
				}
			}
			return nil
		}, observables...)
		if err != nil {
			return nil, fmt.Errorf("failed to register gauge callback: %w", err)
		}
	}
	return m, nil
}

// EventTypes returns the event types this handler is interested in
func (m *ConfigurationMetrics) EventTypes() []string {
	return []string{
		configuration.EventTypeConfigurationCreated,
		configuration.EventTypeConfigurationUpdated,
		configuration.EventTypeConfigurationDeleted,
	}
}

// Handle records one committed change
func (m *ConfigurationMetrics) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *configuration.ConfigurationCreatedEvent:
		m.changes.Add(ctx, 1, metric.WithAttributes(AttrChange.String("created")))
		m.count(ctx, m.reserved, e.AccessoryIDs)
	case *configuration.ConfigurationUpdatedEvent:
		m.changes.Add(ctx, 1, metric.WithAttributes(AttrChange.String("updated")))
		m.count(ctx, m.reserved, e.Added)
		m.count(ctx, m.released, e.Removed)
	case *configuration.ConfigurationDeletedEvent:
		m.changes.Add(ctx, 1, metric.WithAttributes(AttrChange.String("deleted")))
		m.count(ctx, m.released, e.Released)
	default:
		return fmt.Errorf("unexpected event type %T", event)
	}
	return nil
}

func (m *ConfigurationMetrics) count(ctx context.Context, counter metric.Int64Counter, ids []int64) {
	for _, id := range ids {
		counter.Add(ctx, 1, metric.WithAttributes(AttrAccessoryID.Int64(id)))
	}
}

// Stop unregisters the gauge callback
func (m *ConfigurationMetrics) Stop() error {
	if m.gauge == nil {
		return nil
	}
	return m.gauge.Unregister()
}

var _ shared.EventHandler = (*ConfigurationMetrics)(nil)
