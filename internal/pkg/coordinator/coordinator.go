package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/anicoll/acinfinity-integration/internal/pkg/entity"
	"github.com/anicoll/acinfinity-integration/internal/pkg/metrics"
	"github.com/anicoll/acinfinity-integration/internal/pkg/model"
	"github.com/anicoll/acinfinity-integration/internal/pkg/publisher"
)

// ErrNotReady is returned by Load when the API could not be reached; the
// load is retried on the next poll interval.
var ErrNotReady = errors.New("acinfinity api not ready")

// refreshTimeout bounds one refresh including every port settings call.
const refreshTimeout = 60 * time.Second

type entryStore interface {
	LoadEntry(ctx context.Context, id string) (*model.Entry, error)
}

type propertyStore interface {
	entity.Store
	Refresh(ctx context.Context) error
	DeviceIDs() []string
}

type entryMigrator interface {
	Migrate(ctx context.Context, entry *model.Entry) (*model.Entry, error)
}

type deviceReconciler interface {
	InitializeNewDevices(ctx context.Context, entry *model.Entry) (*model.Entry, error)
	CleanupDisabledDevices(ctx context.Context, entry *model.Entry) (int, error)
}

type entityRegistry interface {
	RegisterEntity(ctx context.Context, e *entity.Entity) error
	Prune(ctx context.Context, entryID string, keep []*entity.Entity) (int, error)
}

// Coordinator owns one config entry: it loads it, keeps the property store
// fresh and publishes entity states on every poll.
type Coordinator struct {
	entryID    string
	entries    entryStore
	store      propertyStore
	migrator   entryMigrator
	reconciler deviceReconciler
	registry   entityRegistry
	metrics    *metrics.Metrics
	logger     *zap.Logger
	now        func() time.Time
	retryDelay time.Duration

	reload chan struct{}

	mu       sync.RWMutex
	entry    *model.Entry
	entities []*entity.Entity
	known    []string
}

func New(
	entryID string,
	entries entryStore,
	store propertyStore,
	migrate entryMigrator,
	reconcile deviceReconciler,
	registry entityRegistry,
	m *metrics.Metrics,
) *Coordinator {
	return &Coordinator{
		entryID:    entryID,
		entries:    entries,
		store:      store,
		migrator:   migrate,
		reconciler: reconcile,
		registry:   registry,
		metrics:    m,
		logger:     zap.L(),
		now:        time.Now,
		retryDelay: model.DefaultPollingInterval * time.Second,
		reload:     make(chan struct{}, 1),
	}
}

// Load runs the full set up of the entry: migrate, first refresh, adopt new
// devices, materialize and register entities, then drop disabled devices.
func (c *Coordinator) Load(ctx context.Context) error {
	entry, err := c.entries.LoadEntry(ctx, c.entryID)
	if err != nil {
		return fmt.Errorf("loading entry %s: %w", c.entryID, err)
	}

	entry, err = c.migrator.Migrate(ctx, entry)
	if err != nil {
		return err
	}

	if err := c.refresh(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrNotReady, err)
	}

	entry, err = c.reconciler.InitializeNewDevices(ctx, entry)
	if err != nil {
		// the in-memory entry still works, the new devices just get added
		// again on the next load
		c.logger.Warn("failed to persist new devices", zap.Error(err))
	}

	entities := entity.Materialize(c.store, entry)
	for _, e := range entities {
		if err := c.registry.RegisterEntity(ctx, e); err != nil {
			return fmt.Errorf("registering %s: %w", e.UniqueID, err)
		}
	}
	if _, err := c.registry.Prune(ctx, entry.ID, entities); err != nil {
		c.logger.Warn("failed to prune stale entities", zap.Error(err))
	}
	if _, err := c.reconciler.CleanupDisabledDevices(ctx, entry); err != nil {
		c.logger.Warn("failed to clean up disabled devices", zap.Error(err))
	}

	c.mu.Lock()
	c.entry = entry
	c.entities = entities
	c.known = c.store.DeviceIDs()
	c.mu.Unlock()

	c.metrics.ReloadsTotal.Inc()
	c.metrics.Controllers.Set(float64(len(c.known)))
	c.metrics.Entities.Reset()
	for platform, group := range lo.GroupBy(entities, func(e *entity.Entity) model.Platform { return e.Platform }) {
		c.metrics.Entities.WithLabelValues(platform.String()).Set(float64(len(group)))
	}
	c.logger.Info("loaded config entry",
		zap.String("entry", entry.ID),
		zap.Int("controllers", len(c.known)),
		zap.Int("entities", len(entities)))

	c.publish(ctx)
	return nil
}

// Run loads the entry and polls until ctx is done.
func (c *Coordinator) Run(ctx context.Context) error {
	for {
		err := c.Load(ctx)
		if err == nil {
			break
		}
		if !errors.Is(err, ErrNotReady) {
			return err
		}
		c.logger.Warn("entry not ready, retrying", zap.Error(err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.retryDelay):
		}
	}

	ticker := time.NewTicker(c.Entry().PollInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.reload:
			if err := c.Load(ctx); err != nil {
				if !errors.Is(err, ErrNotReady) {
					return err
				}
				c.logger.Warn("reload failed, keeping current entities", zap.Error(err))
				continue
			}
			ticker.Reset(c.Entry().PollInterval())
		case <-ticker.C:
			c.Poll(ctx)
		}
	}
}

// Poll refreshes the property store once. It requests a reload when the API
// reports a controller the entry has not seen yet, otherwise it publishes
// the entity states.
func (c *Coordinator) Poll(ctx context.Context) {
	if err := c.refresh(ctx); err != nil {
		c.logger.Warn("failed to refresh ac infinity data", zap.Error(err))
		return
	}

	c.mu.RLock()
	added, _ := lo.Difference(c.store.DeviceIDs(), c.known)
	c.mu.RUnlock()
	if len(added) > 0 {
		c.logger.Info("new controllers reported, reloading", zap.Strings("ids", added))
		c.Reload()
		return
	}
	c.publish(ctx)
}

// Reload asks Run to load the entry again. Calls while a reload is pending
// are merged.
func (c *Coordinator) Reload() {
	select {
	case c.reload <- struct{}{}:
	default:
	}
}

func (c *Coordinator) Entry() *model.Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entry
}

func (c *Coordinator) Entities() []*entity.Entity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entities
}

// States renders every current entity against the property store.
func (c *Coordinator) States() []model.EntityState {
	now := c.now()
	return lo.Map(c.Entities(), func(e *entity.Entity, _ int) model.EntityState {
		return e.State(now)
	})
}

func (c *Coordinator) publish(ctx context.Context) {
	n := publisher.PublishStates(ctx, c.States())
	c.metrics.StatesPublished.Add(float64(n))
}

func (c *Coordinator) refresh(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()

	c.metrics.PollsTotal.Inc()
	if err := c.store.Refresh(ctx); err != nil {
		c.metrics.PollFailuresTotal.Inc()
		return err
	}
	c.metrics.LastPoll.Set(float64(c.now().Unix()))
	return nil
}
