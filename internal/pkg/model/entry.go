package model

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidEntityConfig = errors.New("invalid entity configuration")

// EntityConfigValue is the per device visibility a user picks for a
// controller, its sensors or one of its ports.
type EntityConfigValue string

func (v EntityConfigValue) String() string {
	return string(v)
}

const (
	EntityConfigAll                EntityConfigValue = "all"
	EntityConfigSensorsOnly        EntityConfigValue = "sensors_only"
	EntityConfigSensorsAndSettings EntityConfigValue = "sensors_and_settings"
	EntityConfigDisable            EntityConfigValue = "disable"
)

var EntityConfigValues = []EntityConfigValue{
	EntityConfigAll,
	EntityConfigSensorsOnly,
	EntityConfigSensorsAndSettings,
	EntityConfigDisable,
}

func (v EntityConfigValue) Valid() bool {
	return slices.Contains(EntityConfigValues, v)
}

// SensorsEnabled is true for every value except disable; all three enabled
// values include read-only telemetry.
func (v EntityConfigValue) SensorsEnabled() bool {
	return v != EntityConfigDisable
}

const (
	DeviceConfigKeyController = "controller"
	DeviceConfigKeySensors    = "sensors"
	deviceConfigKeyPortPrefix = "port_"
)

func PortConfigKey(port int) string {
	return fmt.Sprintf("%s%d", deviceConfigKeyPortPrefix, port)
}

// DeviceConfig maps controller/sensors/port_N to a visibility value.
type DeviceConfig map[string]EntityConfigValue

// NewDeviceConfig builds the configuration of a controller with ports
// numbered 1..portCount.
func NewDeviceConfig(portCount int, controller, sensors, ports EntityConfigValue) DeviceConfig {
	cfg := DeviceConfig{
		DeviceConfigKeyController: controller,
		DeviceConfigKeySensors:    sensors,
	}
	for port := 1; port <= portCount; port++ {
		cfg[PortConfigKey(port)] = ports
	}
	return cfg
}

// Validate rejects unknown keys and values.
func (c DeviceConfig) Validate() error {
	for key, value := range c {
		if !value.Valid() {
			return fmt.Errorf("%w: %s has unknown value %q", ErrInvalidEntityConfig, key, value)
		}
		if key == DeviceConfigKeyController || key == DeviceConfigKeySensors {
			continue
		}
		if n, ok := portNumber(key); !ok || n < 1 {
			return fmt.Errorf("%w: unknown key %q", ErrInvalidEntityConfig, key)
		}
	}
	return nil
}

// ValidatePorts is Validate plus a bound on port keys: port_N must not exceed
// portCount.
func (c DeviceConfig) ValidatePorts(portCount int) error {
	if err := c.Validate(); err != nil {
		return err
	}
	for key := range c {
		if n, ok := portNumber(key); ok && n > portCount {
			return fmt.Errorf("%w: %s exceeds %d ports", ErrInvalidEntityConfig, key, portCount)
		}
	}
	return nil
}

// PortCount is the highest port number configured.
func (c DeviceConfig) PortCount() int {
	count := 0
	for key := range c {
		if n, ok := portNumber(key); ok {
			count = max(count, n)
		}
	}
	return count
}

func portNumber(key string) (int, bool) {
	port, ok := strings.CutPrefix(key, deviceConfigKeyPortPrefix)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(port)
	return n, err == nil
}

const (
	EntryVersion1       = 1
	CurrentEntryVersion = 2

	DefaultPollingInterval = 10 // seconds
	MinPollingInterval     = 5  // seconds
)

type EntryData struct {
	Email           string                  `json:"email" yaml:"email"`
	Password        string                  `json:"password" yaml:"password"`
	PollingInterval *int                    `json:"polling_interval,omitempty" yaml:"polling_interval,omitempty"`
	Entities        map[string]DeviceConfig `json:"entities,omitempty" yaml:"entities,omitempty"`
	ModifiedAt      string                  `json:"modified_at,omitempty" yaml:"modified_at,omitempty"`
}

// Entry is the persisted configuration of one vendor account.
type Entry struct {
	ID      string    `json:"id" yaml:"id"`
	Title   string    `json:"title" yaml:"title"`
	Version int       `json:"version" yaml:"version"`
	Data    EntryData `json:"data" yaml:"data"`
}

// Clone returns a deep copy so callers can build an updated entry without
// touching the one they were handed.
func (e *Entry) Clone() *Entry {
	out := *e
	if e.Data.PollingInterval != nil {
		v := *e.Data.PollingInterval
		out.Data.PollingInterval = &v
	}
	if e.Data.Entities != nil {
		out.Data.Entities = make(map[string]DeviceConfig, len(e.Data.Entities))
		for id, cfg := range e.Data.Entities {
			out.Data.Entities[id] = maps.Clone(cfg)
		}
	}
	return &out
}

func (e *Entry) PollInterval() time.Duration {
	seconds := DefaultPollingInterval
	if e.Data.PollingInterval != nil {
		seconds = max(*e.Data.PollingInterval, MinPollingInterval)
	}
	return time.Duration(seconds) * time.Second
}

// Setting returns the configured value for a controller key. The bool is
// false when the controller or key has never been configured.
func (e *Entry) Setting(controllerID, key string) (EntityConfigValue, bool) {
	cfg, ok := e.Data.Entities[controllerID]
	if !ok {
		return "", false
	}
	v, ok := cfg[key]
	return v, ok
}

func (e *Entry) Touch(now time.Time) {
	e.Data.ModifiedAt = now.Format(time.RFC3339)
}
