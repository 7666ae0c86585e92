package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/anicoll/acinfinity-integration/internal/pkg/model"
)

func (db *Database) LoadEntry(ctx context.Context, id string) (*model.Entry, error) {
	entryID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: entry %q", ErrNotFound, id)
	}
	row := db.pool.QueryRow(ctx, `
		SELECT id, title, version, data
		FROM config_entry
		WHERE id = $1
	`, entryID)

	entry, err := scanEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: entry %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load entry: %w", err)
	}
	return entry, nil
}

// Entries returns every config entry, oldest first.
func (db *Database) Entries(ctx context.Context) ([]*model.Entry, error) {
	rows, err := db.pool.Query(ctx, `
		SELECT id, title, version, data
		FROM config_entry
		ORDER BY updated_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	entries := make([]*model.Entry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func scanEntry(row pgx.Row) (*model.Entry, error) {
	var (
		entry model.Entry
		id    uuid.UUID
		data  []byte
	)
	if err := row.Scan(&id, &entry.Title, &entry.Version, &data); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &entry.Data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal entry data: %w", err)
	}
	entry.ID = id.String()
	return &entry, nil
}

func (db *Database) Devices(ctx context.Context, entryID string) ([]model.Device, error) {
	id, err := uuid.Parse(entryID)
	if err != nil {
		return nil, fmt.Errorf("%w: entry %q", ErrNotFound, entryID)
	}
	rows, err := db.pool.Query(ctx, `
		SELECT identifier, entry_id, name, model, via_device, sw_version, hw_version
		FROM registry_device
		WHERE entry_id = $1
		ORDER BY identifier
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query devices: %w", err)
	}
	defer rows.Close()

	devices := make([]model.Device, 0)
	for rows.Next() {
		var (
			device model.Device
			entry  uuid.UUID
		)
		if err := rows.Scan(&device.Identifier, &entry, &device.Name, &device.Model, &device.ViaDevice, &device.SWVersion, &device.HWVersion); err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		device.EntryID = entry.String()
		devices = append(devices, device)
	}
	return devices, rows.Err()
}

// Entities returns registered entities, optionally limited to one device.
func (db *Database) Entities(ctx context.Context, deviceIdentifier *string) ([]model.RegisteredEntity, error) {
	rows, err := db.pool.Query(ctx, `
		SELECT unique_id, device_identifier, platform, config_topic
		FROM registry_entity
		WHERE $1::text IS NULL OR device_identifier = $1
		ORDER BY unique_id
	`, deviceIdentifier)
	if err != nil {
		return nil, fmt.Errorf("failed to query entities: %w", err)
	}
	defer rows.Close()

	entities := make([]model.RegisteredEntity, 0)
	for rows.Next() {
		var e model.RegisteredEntity
		if err := rows.Scan(&e.UniqueID, &e.DeviceIdentifier, &e.Platform, &e.ConfigTopic); err != nil {
			return nil, fmt.Errorf("failed to scan entity: %w", err)
		}
		entities = append(entities, e)
	}
	return entities, rows.Err()
}
