package entity

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/anicoll/acinfinity-integration/internal/pkg/acinfinity"
	"github.com/anicoll/acinfinity-integration/internal/pkg/model"
)

// Store is the property lookup the descriptor tables evaluate against.
type Store interface {
	Controllers() []acinfinity.Controller
	ControllerProperty(controllerID, key string) acinfinity.Value
	SensorProperty(controllerID string, sensorPort int, sensorType model.SensorType, key string) acinfinity.Value
	DeviceProperty(controllerID string, port int, key string) acinfinity.Value
	DeviceControl(controllerID string, port int, key string) acinfinity.Value
}

// Description holds what every descriptor shares regardless of where the
// entity attaches.
type Description struct {
	Key            string
	Platform       model.Platform
	DeviceClass    model.DeviceClass
	StateClass     model.StateClass
	Unit           model.Unit
	Icon           string
	TranslationKey string
	EntityCategory model.EntityCategory
}

// Entity is a materialized descriptor bound to one controller, sensor or
// port. Its value is read from the store each time State is called.
type Entity struct {
	UniqueID       string               `json:"unique_id"`
	Key            string               `json:"key"`
	Name           string               `json:"name"`
	Platform       model.Platform       `json:"platform"`
	DeviceClass    model.DeviceClass    `json:"device_class,omitempty"`
	StateClass     model.StateClass     `json:"state_class,omitempty"`
	Unit           model.Unit           `json:"unit_of_measurement,omitempty"`
	Icon           string               `json:"icon,omitempty"`
	EntityCategory model.EntityCategory `json:"entity_category,omitempty"`
	ControllerID   string               `json:"controller_id"`
	ConfigKey      string               `json:"config_key"`
	Device         model.Device         `json:"device"`

	value func() any
}

func newEntity(d Description, device model.Device, controllerID, configKey string, value func() any) *Entity {
	return &Entity{
		UniqueID:       fmt.Sprintf("%s_%s", device.Identifier, d.Key),
		Key:            d.Key,
		Name:           displayName(d.TranslationKey),
		Platform:       d.Platform,
		DeviceClass:    d.DeviceClass,
		StateClass:     d.StateClass,
		Unit:           d.Unit,
		Icon:           d.Icon,
		EntityCategory: d.EntityCategory,
		ControllerID:   controllerID,
		ConfigKey:      configKey,
		Device:         device,
		value:          value,
	}
}

// Value returns the current native value: a number, a string, a time or nil
// when the value is unknown.
func (e *Entity) Value() any {
	if e.value == nil {
		return nil
	}
	return e.value()
}

func (e *Entity) State(now time.Time) model.EntityState {
	return model.EntityState{
		UniqueID:         e.UniqueID,
		DeviceIdentifier: e.Device.Identifier,
		Key:              e.Key,
		Platform:         e.Platform,
		Value:            render(e.Value()),
		Unit:             e.Unit.String(),
		TimeStamp:        now,
	}
}

func render(v any) *string {
	var s string
	switch val := v.(type) {
	case nil:
		return nil
	case *time.Time:
		if val == nil {
			return nil
		}
		s = val.Format(time.RFC3339)
	case time.Time:
		s = val.Format(time.RFC3339)
	case float64:
		s = strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		s = strconv.Itoa(val)
	case string:
		s = val
	default:
		s = fmt.Sprint(val)
	}
	return &s
}

// displayName turns a translation key such as probe_temperature into
// "Probe Temperature".
func displayName(key string) string {
	words := strings.Split(key, "_")
	for i, w := range words {
		switch w {
		case "vpd", "co2", "ph", "ec", "tds", "id":
			words[i] = strings.ToUpper(w)
		default:
			if w != "" {
				words[i] = strings.ToUpper(w[:1]) + w[1:]
			}
		}
	}
	return strings.Join(words, " ")
}

// Enabled reports whether entities under configKey should be exposed.
// Anything but disable is enabled, and so is a key that was never configured.
func Enabled(entry *model.Entry, controllerID, configKey string) bool {
	v, ok := entry.Setting(controllerID, configKey)
	return !ok || v.SensorsEnabled()
}

// Entities collects materialized entities, skipping unsuitable or disabled
// ones and duplicate unique ids.
type Entities struct {
	entry *model.Entry
	list  []*Entity
	seen  map[string]struct{}
}

func NewEntities(entry *model.Entry) *Entities {
	return &Entities{entry: entry, seen: map[string]struct{}{}}
}

func (es *Entities) AppendIfSuitable(suitable bool, e *Entity) {
	if !suitable || !Enabled(es.entry, e.ControllerID, e.ConfigKey) {
		return
	}
	if _, dup := es.seen[e.UniqueID]; dup {
		return
	}
	es.seen[e.UniqueID] = struct{}{}
	es.list = append(es.list, e)
}

func (es *Entities) List() []*Entity {
	return es.list
}

// Materialize evaluates every descriptor table against every controller,
// sensor and port in the store.
func Materialize(store Store, entry *model.Entry) []*Entity {
	logger := zap.L()
	entities := NewEntities(entry)

	for _, controller := range store.Controllers() {
		controllerDevice := ControllerDevice(store, controller, entry.ID)

		for _, d := range ControllerDescriptions {
			entities.AppendIfSuitable(
				d.Suitable(store, controller, d.Key),
				newEntity(d.Description, controllerDevice, controller.ID, model.DeviceConfigKeyController, d.bind(store, controller)),
			)
		}
		for _, d := range BinaryControllerDescriptions {
			entities.AppendIfSuitable(
				d.Suitable(store, controller, d.Key),
				newEntity(d.Description, controllerDevice, controller.ID, model.DeviceConfigKeyController, d.bind(store, controller)),
			)
		}

		for _, sensor := range controller.Sensors {
			d, ok := SensorDescriptions[sensor.Type]
			if !ok {
				if !sensor.Type.Known() {
					logger.Warn("unknown sensor type, please open an issue with this message",
						zap.Int("sensor_type", int(sensor.Type)),
						zap.String("controller", controller.ID),
						zap.Int("port", sensor.Port),
						zap.String("issues", model.IssueURL))
				}
				continue
			}
			device := controllerDevice
			if !sensor.Type.BuiltIn() {
				device = SensorDevice(controller, sensor, entry.ID)
			}
			entities.AppendIfSuitable(
				d.Suitable(store, sensor, d.Key),
				newEntity(d.Description, device, controller.ID, model.DeviceConfigKeySensors, d.bind(store, sensor)),
			)
		}

		for _, port := range controller.Devices {
			device := PortDevice(controller, port, entry.ID)
			configKey := model.PortConfigKey(port.Port)
			for _, d := range DeviceDescriptions {
				entities.AppendIfSuitable(
					d.Suitable(store, port, d.Key),
					newEntity(d.Description, device, controller.ID, configKey, d.bind(store, port)),
				)
			}
			for _, d := range BinaryDeviceDescriptions {
				entities.AppendIfSuitable(
					d.Suitable(store, port, d.Key),
					newEntity(d.Description, device, controller.ID, configKey, d.bind(store, port)),
				)
			}
		}
	}

	logger.Debug("materialized entities", zap.Int("count", len(entities.List())))
	return entities.List()
}
