package cmd

import (
	"context"
	"errors"

	"github.com/anicoll/acinfinity-integration/internal/pkg/model"
)

// MockMqttService is a mock implementation of the MqttService interface.
type MockMqttService struct {
	ConnectFunc    func() error
	DisconnectFunc func()
}

func (m *MockMqttService) Connect() error {
	if m.ConnectFunc != nil {
		return m.ConnectFunc()
	}
	return nil
}

func (m *MockMqttService) Disconnect() {
	if m.DisconnectFunc != nil {
		m.DisconnectFunc()
	}
}

// MockCoordinator is a mock implementation of the Coordinator interface.
// Without RunFunc it blocks until ctx is done.
type MockCoordinator struct {
	RunFunc func(ctx context.Context) error
}

func (m *MockCoordinator) Run(ctx context.Context) error {
	if m.RunFunc != nil {
		return m.RunFunc(ctx)
	}
	<-ctx.Done()
	return ctx.Err()
}

// MockRepublisher is a mock implementation of the Republisher interface.
type MockRepublisher struct {
	RepublishFunc func(ctx context.Context) error
}

func (m *MockRepublisher) Republish(ctx context.Context) error {
	if m.RepublishFunc != nil {
		return m.RepublishFunc(ctx)
	}
	return nil
}

// MockEntryRepository is a mock implementation of the EntryRepository
// interface.
type MockEntryRepository struct {
	LoadEntryFunc func(ctx context.Context, id string) (*model.Entry, error)
	EntriesFunc   func(ctx context.Context) ([]*model.Entry, error)
	SaveEntryFunc func(ctx context.Context, entry *model.Entry) error
}

func (m *MockEntryRepository) LoadEntry(ctx context.Context, id string) (*model.Entry, error) {
	if m.LoadEntryFunc != nil {
		return m.LoadEntryFunc(ctx, id)
	}
	return nil, errors.New("mocked LoadEntry not implemented")
}

func (m *MockEntryRepository) Entries(ctx context.Context) ([]*model.Entry, error) {
	if m.EntriesFunc != nil {
		return m.EntriesFunc(ctx)
	}
	return nil, nil
}

func (m *MockEntryRepository) SaveEntry(ctx context.Context, entry *model.Entry) error {
	if m.SaveEntryFunc != nil {
		return m.SaveEntryFunc(ctx, entry)
	}
	return nil
}
