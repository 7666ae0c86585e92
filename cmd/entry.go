package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/anicoll/acinfinity-integration/internal/pkg/config"
	"github.com/anicoll/acinfinity-integration/internal/pkg/model"
)

var (
	errNoEntry         = errors.New("no config entry stored and no account credentials configured")
	errMultipleEntries = errors.New("multiple config entries stored, set ENTRY_ID")
	errInvalidEntry    = errors.New("invalid config entry")
)

// resolveEntry picks the config entry to run. A fresh installation gets a
// new entry once the account credentials log in successfully.
func resolveEntry(
	ctx context.Context,
	cfg *config.Config,
	repo EntryRepository,
	login func(ctx context.Context, email, password string) error,
) (*model.Entry, error) {
	if cfg.EntryID != "" {
		return repo.LoadEntry(ctx, cfg.EntryID)
	}

	entries, err := repo.Entries(ctx)
	if err != nil {
		return nil, err
	}
	switch len(entries) {
	case 0:
	case 1:
		return entries[0], nil
	default:
		return nil, errMultipleEntries
	}

	if cfg.AcInfinityCfg.Email == "" {
		return nil, errNoEntry
	}
	if err := login(ctx, cfg.AcInfinityCfg.Email, cfg.AcInfinityCfg.Password); err != nil {
		return nil, fmt.Errorf("validating account credentials: %w", err)
	}

	interval := cfg.AcInfinityCfg.PollInterval
	entry := &model.Entry{
		ID:      uuid.NewString(),
		Title:   cfg.AcInfinityCfg.Email,
		Version: model.CurrentEntryVersion,
		Data: model.EntryData{
			Email:           cfg.AcInfinityCfg.Email,
			Password:        cfg.AcInfinityCfg.Password,
			PollingInterval: &interval,
		},
	}
	if err := repo.SaveEntry(ctx, entry); err != nil {
		return nil, err
	}
	zap.L().Info("created config entry", zap.String("entry", entry.ID), zap.String("title", entry.Title))
	return entry, nil
}

// parseEntry decodes a YAML config entry. Entries without a version are
// treated as version 1 so they are migrated on first load.
func parseEntry(data []byte) (*model.Entry, error) {
	var entry model.Entry
	if err := yaml.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidEntry, err)
	}
	if entry.Data.Email == "" || entry.Data.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", errInvalidEntry)
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	} else if _, err := uuid.Parse(entry.ID); err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidEntry, err)
	}
	if entry.Version == 0 {
		entry.Version = model.EntryVersion1
	}
	if entry.Title == "" {
		entry.Title = entry.Data.Email
	}
	for id, cfg := range entry.Data.Entities {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("%w: controller %s: %w", errInvalidEntry, id, err)
		}
	}
	return &entry, nil
}
