package cmd

import (
	"context"

	"github.com/anicoll/acinfinity-integration/internal/pkg/model"
)

// MqttService defines what cmd.run expects from the MQTT connection.
type MqttService interface {
	Connect() error
	Disconnect()
}

// Coordinator polls the API and publishes entity states until ctx ends.
type Coordinator interface {
	Run(ctx context.Context) error
}

// Republisher re-announces every discovery config.
type Republisher interface {
	Republish(ctx context.Context) error
}

// EntryRepository is the persisted config entry storage used at start up.
type EntryRepository interface {
	LoadEntry(ctx context.Context, id string) (*model.Entry, error)
	Entries(ctx context.Context) ([]*model.Entry, error)
	SaveEntry(ctx context.Context, entry *model.Entry) error
}
