package migrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/anicoll/acinfinity-integration/internal/pkg/model"
)

var ErrMigration = errors.New("config entry migration failed")

type propertyStore interface {
	Refresh(ctx context.Context) error
	DeviceIDs() []string
	PortCount(controllerID string) int
	ControllerName(controllerID string) string
}

type entryStore interface {
	SaveEntry(ctx context.Context, entry *model.Entry) error
}

type Migrator struct {
	store   propertyStore
	entries entryStore
	logger  *zap.Logger
	now     func() time.Time
}

func New(store propertyStore, entries entryStore) *Migrator {
	return &Migrator{
		store:   store,
		entries: entries,
		logger:  zap.L(),
		now:     time.Now,
	}
}

// Migrate upgrades entry to the current version and persists it. Entries
// already at the current version are returned unchanged. On failure the
// persisted entry is left as it was.
func (m *Migrator) Migrate(ctx context.Context, entry *model.Entry) (*model.Entry, error) {
	if entry.Version >= model.CurrentEntryVersion {
		return entry, nil
	}
	m.logger.Info("migrating config entry", zap.String("entry", entry.ID), zap.Int("from_version", entry.Version))

	migrated, err := m.toVersion2(ctx, entry)
	if err != nil {
		m.logger.Error("failed to migrate config entry", zap.String("entry", entry.ID), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrMigration, err)
	}

	m.logger.Info("migrated config entry", zap.String("entry", entry.ID), zap.Int("version", migrated.Version))
	return migrated, nil
}

// toVersion2 adds explicit entity configuration. Version 1 exposed every
// entity, so existing devices get the most permissive settings.
func (m *Migrator) toVersion2(ctx context.Context, entry *model.Entry) (*model.Entry, error) {
	if err := m.store.Refresh(ctx); err != nil {
		return nil, fmt.Errorf("refreshing devices: %w", err)
	}

	migrated := entry.Clone()
	migrated.Data.Entities = map[string]model.DeviceConfig{}
	for _, id := range m.store.DeviceIDs() {
		migrated.Data.Entities[id] = model.NewDeviceConfig(
			m.store.PortCount(id),
			model.EntityConfigSensorsAndSettings,
			model.EntityConfigSensorsOnly,
			model.EntityConfigAll,
		)
		m.logger.Info("migrated device with all entities enabled",
			zap.String("device", m.store.ControllerName(id)),
			zap.String("id", id))
	}
	migrated.Touch(m.now())
	migrated.Version = model.CurrentEntryVersion

	if err := m.entries.SaveEntry(ctx, migrated); err != nil {
		return nil, fmt.Errorf("saving entry: %w", err)
	}
	return migrated, nil
}
