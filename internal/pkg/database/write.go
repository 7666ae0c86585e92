package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/anicoll/acinfinity-integration/internal/pkg/model"
)

// SaveEntry inserts or replaces an entry.
func (db *Database) SaveEntry(ctx context.Context, entry *model.Entry) error {
	id, err := uuid.Parse(entry.ID)
	if err != nil {
		return fmt.Errorf("invalid entry id %q: %w", entry.ID, err)
	}
	data, err := json.Marshal(entry.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal entry data: %w", err)
	}
	if _, err := db.pool.Exec(ctx, `
		INSERT INTO config_entry (id, title, version, data)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET title = EXCLUDED.title, version = EXCLUDED.version, data = EXCLUDED.data, updated_at = now()
	`, id, entry.Title, entry.Version, data); err != nil {
		return fmt.Errorf("failed to save entry: %w", err)
	}
	return nil
}

// RegisterEntity records an entity together with the device it belongs to.
func (db *Database) RegisterEntity(ctx context.Context, device model.Device, entity model.RegisteredEntity) error {
	entryID, err := uuid.Parse(device.EntryID)
	if err != nil {
		return fmt.Errorf("invalid entry id %q: %w", device.EntryID, err)
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		INSERT INTO registry_device (identifier, entry_id, name, model, via_device, sw_version, hw_version)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (identifier) DO UPDATE
		SET entry_id = EXCLUDED.entry_id, name = EXCLUDED.name, model = EXCLUDED.model,
			via_device = EXCLUDED.via_device, sw_version = EXCLUDED.sw_version,
			hw_version = EXCLUDED.hw_version, updated_at = now()
	`, device.Identifier, entryID, device.Name, device.Model, device.ViaDevice, device.SWVersion, device.HWVersion); err != nil {
		return fmt.Errorf("failed to upsert device: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO registry_entity (unique_id, device_identifier, platform, config_topic)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (unique_id) DO UPDATE
		SET device_identifier = EXCLUDED.device_identifier, platform = EXCLUDED.platform, config_topic = EXCLUDED.config_topic
	`, entity.UniqueID, entity.DeviceIdentifier, string(entity.Platform), entity.ConfigTopic); err != nil {
		return fmt.Errorf("failed to upsert entity: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteDevice removes a device and, by cascade, its entities.
func (db *Database) DeleteDevice(ctx context.Context, identifier string) error {
	result, err := db.pool.Exec(ctx, `
		DELETE FROM registry_device
		WHERE identifier = $1
	`, identifier)
	if err != nil {
		return fmt.Errorf("failed to delete device: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: device %s", ErrNotFound, identifier)
	}
	return nil
}

// DeleteEntity removes a single entity, leaving its device in place.
func (db *Database) DeleteEntity(ctx context.Context, uniqueID string) error {
	result, err := db.pool.Exec(ctx, `
		DELETE FROM registry_entity
		WHERE unique_id = $1
	`, uniqueID)
	if err != nil {
		return fmt.Errorf("failed to delete entity: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: entity %s", ErrNotFound, uniqueID)
	}
	return nil
}
