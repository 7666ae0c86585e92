package reconciler

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/anicoll/acinfinity-integration/internal/pkg/model"
)

type propertyStore interface {
	DeviceIDs() []string
	PortCount(controllerID string) int
	ControllerName(controllerID string) string
}

type entryStore interface {
	SaveEntry(ctx context.Context, entry *model.Entry) error
}

type deviceRegistry interface {
	Devices(ctx context.Context, entryID string) ([]model.Device, error)
	RemoveDevice(ctx context.Context, identifier string) error
}

// Reconciler keeps the persisted entity configuration and the device
// registry in line with what the API reports.
type Reconciler struct {
	store    propertyStore
	entries  entryStore
	registry deviceRegistry
	logger   *zap.Logger
	now      func() time.Time
}

func New(store propertyStore, entries entryStore, registry deviceRegistry) *Reconciler {
	return &Reconciler{
		store:    store,
		entries:  entries,
		registry: registry,
		logger:   zap.L(),
		now:      time.Now,
	}
}

// InitializeNewDevices adds every controller the API reports but the entry
// does not know about, with only read-only sensors visible. It returns the
// entry to use from here on, which is the one passed in when nothing
// changed.
func (r *Reconciler) InitializeNewDevices(ctx context.Context, entry *model.Entry) (*model.Entry, error) {
	newIDs, _ := lo.Difference(r.store.DeviceIDs(), lo.Keys(entry.Data.Entities))
	if len(newIDs) == 0 {
		r.logger.Debug("no new devices found")
		return entry, nil
	}

	updated := entry.Clone()
	if updated.Data.Entities == nil {
		updated.Data.Entities = map[string]model.DeviceConfig{}
	}
	for _, id := range newIDs {
		updated.Data.Entities[id] = model.NewDeviceConfig(
			r.store.PortCount(id),
			model.EntityConfigSensorsOnly,
			model.EntityConfigSensorsOnly,
			model.EntityConfigSensorsOnly,
		)
		r.logger.Info("added new device to entity configuration with sensors only defaults",
			zap.String("device", r.store.ControllerName(id)),
			zap.String("id", id))
	}
	updated.Touch(r.now())

	if err := r.entries.SaveEntry(ctx, updated); err != nil {
		return entry, fmt.Errorf("saving new devices: %w", err)
	}
	return updated, nil
}

// CleanupDisabledDevices removes registry devices whose sensors or port the
// user disabled, returning how many were removed. Controller devices are
// never removed here.
func (r *Reconciler) CleanupDisabledDevices(ctx context.Context, entry *model.Entry) (int, error) {
	devices, err := r.registry.Devices(ctx, entry.ID)
	if err != nil {
		return 0, fmt.Errorf("listing registry devices: %w", err)
	}

	controllerIDs := lo.Keys(entry.Data.Entities)
	slices.Sort(controllerIDs)

	removed := 0
	for _, device := range devices {
		if !disabled(entry, controllerIDs, device.Identifier) {
			continue
		}
		if err := r.registry.RemoveDevice(ctx, device.Identifier); err != nil {
			return removed, fmt.Errorf("removing device %s: %w", device.Identifier, err)
		}
		r.logger.Info("removed disabled device", zap.String("device", device.Name), zap.String("identifier", device.Identifier))
		removed++
	}
	if removed > 0 {
		r.logger.Info("removed disabled devices from registry", zap.Int("count", removed))
	}
	return removed, nil
}

var sensorModelSuffixes = lo.Map(model.SensorModels, func(m model.SensorModel, _ int) string {
	return "_" + string(m)
})

// disabled matches identifier against "<controller>_<port>" and
// "<controller>_<sensor port>_<model>". The first controller whose prefix
// yields a port or sensor suffix decides.
func disabled(entry *model.Entry, controllerIDs []string, identifier string) bool {
	for _, controllerID := range controllerIDs {
		suffix, ok := strings.CutPrefix(identifier, controllerID+"_")
		if !ok {
			continue
		}
		cfg := entry.Data.Entities[controllerID]

		if lo.SomeBy(sensorModelSuffixes, func(s string) bool { return strings.HasSuffix(suffix, s) }) {
			return cfg[model.DeviceConfigKeySensors] == model.EntityConfigDisable
		}
		if isDigits(suffix) {
			port, err := strconv.Atoi(suffix)
			if err != nil {
				return false
			}
			return cfg[model.PortConfigKey(port)] == model.EntityConfigDisable
		}
	}
	return false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
