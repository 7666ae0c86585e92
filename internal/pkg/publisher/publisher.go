package publisher

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/anicoll/acinfinity-integration/internal/pkg/model"
)

var errAlreadyRegistered = errors.New("publisher already registered")

var (
	mu                   sync.RWMutex
	registeredPublishers = make(map[string]publisher)
	states               sync.Map
)

type publisher interface {
	Write(ctx context.Context, states []model.EntityState) error
}

func RegisterPublisher(name string, p publisher) error {
	mu.Lock()
	defer mu.Unlock()
	if _, ok := registeredPublishers[name]; ok {
		return errAlreadyRegistered
	}
	registeredPublishers[name] = p
	return nil
}

// Reset drops every registered publisher and forgets published values.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	registeredPublishers = make(map[string]publisher)
	states.Clear()
}

// Forget makes the next PublishStates send uniqueID even if unchanged,
// e.g. after its discovery config was republished.
func Forget(uniqueID string) {
	states.Delete(uniqueID)
}

// PublishStates sends the states whose value changed since the last call to
// every registered publisher. A failing publisher is logged and skipped.
func PublishStates(ctx context.Context, all []model.EntityState) int {
	changed := make([]model.EntityState, 0, len(all))
	for _, state := range all {
		if shouldUpdate(state) {
			changed = append(changed, state)
		}
	}
	if len(changed) == 0 {
		return 0
	}

	mu.RLock()
	defer mu.RUnlock()
	for name, p := range registeredPublishers {
		if err := p.Write(ctx, changed); err != nil {
			zap.L().Error("failed to publish states", zap.Error(err), zap.String("publisher", name))
			continue
		}
		zap.L().Debug("updated entities", zap.Int("count", len(changed)), zap.String("publisher", name))
	}
	return len(changed)
}

func shouldUpdate(state model.EntityState) bool {
	newValue := "\x00unknown"
	if state.Value != nil {
		newValue = *state.Value
	}
	oldValue, exists := states.Swap(state.UniqueID, newValue)
	if exists && oldValue.(string) == newValue {
		return false
	}
	if !exists {
		zap.L().Info("configured entity", zap.String("device", state.DeviceIdentifier), zap.String("entity", state.UniqueID), zap.String("value", newValue))
	}
	return true
}
