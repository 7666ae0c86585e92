package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/anicoll/acinfinity-integration/internal/pkg/entity"
	"github.com/anicoll/acinfinity-integration/internal/pkg/model"
	"github.com/anicoll/acinfinity-integration/internal/pkg/publisher"
)

type discovery interface {
	PublishDiscovery(ctx context.Context, e *entity.Entity) (string, error)
	ClearDiscovery(ctx context.Context, topic string) error
}

type storage interface {
	RegisterEntity(ctx context.Context, device model.Device, e model.RegisteredEntity) error
	Devices(ctx context.Context, entryID string) ([]model.Device, error)
	Entities(ctx context.Context, deviceIdentifier *string) ([]model.RegisteredEntity, error)
	DeleteDevice(ctx context.Context, identifier string) error
	DeleteEntity(ctx context.Context, uniqueID string) error
}

// Registry is the device and entity registry exposed to Home Assistant. Rows
// in storage remember what was announced so it can be withdrawn later.
type Registry struct {
	discovery discovery
	storage   storage
	logger    *zap.Logger

	mu       sync.Mutex
	entities map[string]*entity.Entity
}

func New(discovery discovery, storage storage) *Registry {
	return &Registry{
		discovery: discovery,
		storage:   storage,
		logger:    zap.L(),
		entities:  map[string]*entity.Entity{},
	}
}

func (r *Registry) RegisterEntity(ctx context.Context, e *entity.Entity) error {
	topic, err := r.discovery.PublishDiscovery(ctx, e)
	if err != nil {
		return err
	}
	if err := r.storage.RegisterEntity(ctx, e.Device, model.RegisteredEntity{
		UniqueID:         e.UniqueID,
		DeviceIdentifier: e.Device.Identifier,
		Platform:         e.Platform,
		ConfigTopic:      topic,
	}); err != nil {
		return fmt.Errorf("recording entity %s: %w", e.UniqueID, err)
	}

	r.mu.Lock()
	r.entities[e.UniqueID] = e
	r.mu.Unlock()
	// a fresh discovery config needs a fresh state
	publisher.Forget(e.UniqueID)
	return nil
}

// RemoveDevice withdraws every entity of a device from Home Assistant and
// forgets the device.
func (r *Registry) RemoveDevice(ctx context.Context, identifier string) error {
	registered, err := r.storage.Entities(ctx, &identifier)
	if err != nil {
		return err
	}
	for _, e := range registered {
		if err := r.discovery.ClearDiscovery(ctx, e.ConfigTopic); err != nil {
			return fmt.Errorf("clearing discovery for %s: %w", e.UniqueID, err)
		}
		r.mu.Lock()
		delete(r.entities, e.UniqueID)
		r.mu.Unlock()
		publisher.Forget(e.UniqueID)
	}
	if err := r.storage.DeleteDevice(ctx, identifier); err != nil {
		return err
	}
	r.logger.Debug("removed device", zap.String("identifier", identifier), zap.Int("entities", len(registered)))
	return nil
}

// Prune withdraws entities of the entry's devices that are no longer in
// keep, e.g. after the user narrowed a controller to sensors only. It
// returns how many were removed.
func (r *Registry) Prune(ctx context.Context, entryID string, keep []*entity.Entity) (int, error) {
	devices, err := r.storage.Devices(ctx, entryID)
	if err != nil {
		return 0, err
	}
	wanted := make(map[string]struct{}, len(keep))
	for _, e := range keep {
		wanted[e.UniqueID] = struct{}{}
	}

	removed := 0
	for _, device := range devices {
		registered, err := r.storage.Entities(ctx, &device.Identifier)
		if err != nil {
			return removed, err
		}
		for _, e := range registered {
			if _, ok := wanted[e.UniqueID]; ok {
				continue
			}
			if err := r.discovery.ClearDiscovery(ctx, e.ConfigTopic); err != nil {
				return removed, fmt.Errorf("clearing discovery for %s: %w", e.UniqueID, err)
			}
			if err := r.storage.DeleteEntity(ctx, e.UniqueID); err != nil {
				return removed, err
			}
			r.mu.Lock()
			delete(r.entities, e.UniqueID)
			r.mu.Unlock()
			publisher.Forget(e.UniqueID)
			removed++
		}
	}
	if removed > 0 {
		r.logger.Info("pruned stale entities", zap.String("entry", entryID), zap.Int("count", removed))
	}
	return removed, nil
}

func (r *Registry) Devices(ctx context.Context, entryID string) ([]model.Device, error) {
	return r.storage.Devices(ctx, entryID)
}

// Entities returns the entities registered since start up.
func (r *Registry) Entities() []*entity.Entity {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entity.Entity, 0, len(r.entities))
	for _, e := range r.entities {
		out = append(out, e)
	}
	return out
}

// Republish announces every known entity again, e.g. after the broker lost
// its retained messages.
func (r *Registry) Republish(ctx context.Context) error {
	var errs []error
	count := 0
	for _, e := range r.Entities() {
		if _, err := r.discovery.PublishDiscovery(ctx, e); err != nil {
			errs = append(errs, err)
			continue
		}
		publisher.Forget(e.UniqueID)
		count++
	}
	r.logger.Info("republished discovery configs", zap.Int("count", count), zap.Int("failed", len(errs)))
	return errors.Join(errs...)
}
