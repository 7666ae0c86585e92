package entity

import (
	"fmt"
	"time"

	"github.com/anicoll/acinfinity-integration/internal/pkg/acinfinity"
	"github.com/anicoll/acinfinity-integration/internal/pkg/model"
)

const (
	PortStatusActive   = "Active"
	PortStatusInactive = "Inactive"
)

// LoadTypeNames maps the loadType reported for a port to the kind of device
// plugged into it.
var LoadTypeNames = map[int]string{
	0:   "No Device Type",
	1:   "Grow Light",
	2:   "Humidifier",
	3:   "Dehumidifier",
	4:   "Heater",
	5:   "AC",
	6:   "Fan",
	8:   "Water Pump",
	128: "Outlet",
	129: "Grow Light",
	130: "Humidifier",
	131: "Dehumidifier",
	132: "Heater",
	133: "AC",
	134: "Circulation Fan",
	135: "Ventilation Fan",
	136: "Peristaltic Pump",
	137: "Water Pump",
	138: "CO2 Regulator",
}

func LoadTypeName(loadType int) string {
	if name, ok := LoadTypeNames[loadType]; ok {
		return name
	}
	return fmt.Sprintf("Unknown (%d)", loadType)
}

// now is replaced in tests.
var now = time.Now

type DeviceDescription struct {
	Description
	Suitable func(store Store, port acinfinity.Device, key string) bool
	Value    func(store Store, port acinfinity.Device, key string) any
}

func (d DeviceDescription) bind(store Store, port acinfinity.Device) func() any {
	return func() any {
		return d.Value(store, port, d.Key)
	}
}

func always(Store, acinfinity.Device, string) bool {
	return true
}

func suitableDeviceProperty(store Store, port acinfinity.Device, key string) bool {
	return store.DeviceProperty(port.ControllerID, port.Port, key).Exists()
}

func suitableDeviceControl(store Store, port acinfinity.Device, key string) bool {
	return store.DeviceControl(port.ControllerID, port.Port, key).Exists()
}

func suitableLoadType(store Store, port acinfinity.Device, _ string) bool {
	return suitableDeviceControl(store, port, model.ControlKeyLoadType)
}

func deviceProperty(store Store, port acinfinity.Device, key string) any {
	return store.DeviceProperty(port.ControllerID, port.Port, key).Float(0)
}

func deviceControl(store Store, port acinfinity.Device, key string) any {
	return store.DeviceControl(port.ControllerID, port.Port, key).Float(0)
}

func deviceControlHundredths(store Store, port acinfinity.Device, key string) any {
	return store.DeviceControl(port.ControllerID, port.Port, key).Float(0) / 100
}

func loadType(store Store, port acinfinity.Device) int {
	return store.DeviceControl(port.ControllerID, port.Port, model.ControlKeyLoadType).Int(0)
}

// A port is active when something is configured on it or it reports online.
func portStatus(store Store, port acinfinity.Device, _ string) any {
	online := store.DeviceProperty(port.ControllerID, port.Port, model.DeviceKeyOnline).Int(0)
	if loadType(store, port) > 0 || online == 1 {
		return PortStatusActive
	}
	return PortStatusInactive
}

func connectedDeviceType(store Store, port acinfinity.Device, _ string) any {
	return LoadTypeName(loadType(store, port))
}

func subDeviceID(store Store, port acinfinity.Device, key string) any {
	id := store.DeviceControl(port.ControllerID, port.Port, key).String("")
	if id == "" || id == "0" {
		return "None"
	}
	return id
}

// nextStateChange is the wall clock time, in the controller's zone, at which
// the running timer or cycle flips the port. Nil when nothing is counting down.
func nextStateChange(store Store, port acinfinity.Device, _ string) any {
	remaining := store.DeviceProperty(port.ControllerID, port.Port, model.DeviceKeyRemainingTime).Int(0)
	if remaining <= 0 {
		return nil
	}
	zone := store.ControllerProperty(port.ControllerID, model.ControllerKeyTimeZone).String("")
	loc, err := time.LoadLocation(zone)
	if err != nil {
		loc = time.UTC
	}
	return now().In(loc).Add(time.Duration(remaining) * time.Second)
}

func controlDescription(key, translationKey string, class model.DeviceClass, unit model.Unit, icon string, value func(Store, acinfinity.Device, string) any) DeviceDescription {
	return DeviceDescription{
		Description: Description{
			Key:            key,
			Platform:       model.PlatformSensor,
			DeviceClass:    class,
			Unit:           unit,
			Icon:           icon,
			TranslationKey: translationKey,
		},
		Suitable: suitableDeviceControl,
		Value:    value,
	}
}

func measuredControlDescription(key, translationKey string, class model.DeviceClass, unit model.Unit, icon string) DeviceDescription {
	d := controlDescription(key, translationKey, class, unit, icon, deviceControlHundredths)
	d.StateClass = model.StateClassMeasurement
	return d
}

var DeviceDescriptions = []DeviceDescription{
	{
		Description: Description{
			Key:            model.CustomKeyPortStatus,
			Platform:       model.PlatformSensor,
			DeviceClass:    model.DeviceClassEnum,
			Icon:           "mdi:power-plug",
			TranslationKey: "port_status",
		},
		Suitable: always,
		Value:    portStatus,
	},
	{
		Description: Description{
			Key:            model.CustomKeyConnectedDeviceType,
			Platform:       model.PlatformSensor,
			DeviceClass:    model.DeviceClassEnum,
			Icon:           "mdi:devices",
			TranslationKey: "connected_device_type",
		},
		Suitable: suitableLoadType,
		Value:    connectedDeviceType,
	},
	controlDescription(model.ControlKeyLoadType, "device_load_type_id", model.DeviceClassNone, model.UnitNone, "mdi:identifier", deviceControl),
	controlDescription(model.ControlKeySubDeviceID, "sub_device_id", model.DeviceClassNone, model.UnitNone, "mdi:barcode", subDeviceID),

	// current status
	{
		Description: Description{
			Key:            model.DeviceKeySpeak,
			Platform:       model.PlatformSensor,
			DeviceClass:    model.DeviceClassPowerFactor,
			StateClass:     model.StateClassMeasurement,
			TranslationKey: "current_power",
		},
		Suitable: suitableDeviceProperty,
		Value:    deviceProperty,
	},
	{
		Description: Description{
			Key:            model.DeviceKeyRemainingTime,
			Platform:       model.PlatformSensor,
			DeviceClass:    model.DeviceClassDuration,
			Unit:           model.UnitSeconds,
			TranslationKey: "remaining_time",
		},
		Suitable: suitableDeviceProperty,
		Value:    deviceProperty,
	},
	{
		Description: Description{
			Key:            model.CustomKeyNextStateChange,
			Platform:       model.PlatformSensor,
			DeviceClass:    model.DeviceClassTimestamp,
			TranslationKey: "next_state_change",
		},
		Suitable: always,
		Value:    nextStateChange,
	},

	// temperature automation
	controlDescription(model.ControlKeyTargetTemp, "target_temperature", model.DeviceClassTemperature, model.UnitCelsius, "mdi:target", deviceControlHundredths),
	controlDescription(model.ControlKeyAutoTempHighTrigger, "temperature_high_trigger", model.DeviceClassTemperature, model.UnitCelsius, "mdi:thermometer-chevron-up", deviceControlHundredths),
	controlDescription(model.ControlKeyAutoTempLowTrigger, "temperature_low_trigger", model.DeviceClassTemperature, model.UnitCelsius, "mdi:thermometer-chevron-down", deviceControlHundredths),

	// humidity automation
	controlDescription(model.ControlKeyTargetHumidity, "target_humidity", model.DeviceClassHumidity, model.UnitPercent, "mdi:target", deviceControlHundredths),
	controlDescription(model.ControlKeyAutoHumidityHigh, "humidity_high_trigger", model.DeviceClassHumidity, model.UnitPercent, "mdi:water-percent", deviceControlHundredths),
	controlDescription(model.ControlKeyAutoHumidityLow, "humidity_low_trigger", model.DeviceClassHumidity, model.UnitPercent, "mdi:water-percent-alert", deviceControlHundredths),

	// vpd automation
	controlDescription(model.ControlKeyTargetVPD, "target_vpd", model.DeviceClassPressure, model.UnitKiloPascal, "mdi:target", deviceControlHundredths),
	controlDescription(model.ControlKeyVPDHighTrigger, "vpd_high_trigger", model.DeviceClassPressure, model.UnitKiloPascal, "mdi:water-thermometer-outline", deviceControlHundredths),
	controlDescription(model.ControlKeyVPDLowTrigger, "vpd_low_trigger", model.DeviceClassPressure, model.UnitKiloPascal, "mdi:water-thermometer", deviceControlHundredths),

	// timers and cycles
	controlDescription(model.ControlKeyTimerDurationToOn, "timer_to_on_minutes", model.DeviceClassDuration, model.UnitMinutes, "mdi:timer", deviceControl),
	controlDescription(model.ControlKeyTimerDurationToOff, "timer_to_off_minutes", model.DeviceClassDuration, model.UnitMinutes, "mdi:timer-off", deviceControl),
	controlDescription(model.ControlKeyCycleDurationOn, "cycle_on_minutes", model.DeviceClassDuration, model.UnitMinutes, "mdi:cached", deviceControl),
	controlDescription(model.ControlKeyCycleDurationOff, "cycle_off_minutes", model.DeviceClassDuration, model.UnitMinutes, "mdi:cached", deviceControl),

	// schedules, minutes after midnight
	controlDescription(model.ControlKeyScheduledStartTime, "schedule_start_time", model.DeviceClassNone, model.UnitMinutes, "mdi:clock-start", deviceControl),
	controlDescription(model.ControlKeyScheduledEndTime, "schedule_end_time", model.DeviceClassNone, model.UnitMinutes, "mdi:clock-end", deviceControl),

	// readings the automation is acting on
	measuredControlDescription(model.ControlKeyTemperature, "automation_temperature", model.DeviceClassTemperature, model.UnitCelsius, ""),
	measuredControlDescription(model.ControlKeyHumidity, "automation_humidity", model.DeviceClassHumidity, model.UnitPercent, ""),
	measuredControlDescription(model.ControlKeyVPD, "automation_vpd", model.DeviceClassPressure, model.UnitKiloPascal, "mdi:water-thermometer"),
	controlDescription(model.ControlKeyTemperatureTrend, "temperature_trend", model.DeviceClassNone, model.UnitNone, "mdi:trending-up", deviceControl),
	controlDescription(model.ControlKeyHumidityTrend, "humidity_trend", model.DeviceClassNone, model.UnitNone, "mdi:trending-up", deviceControl),

	controlDescription(model.ControlKeyOnSpeed, "on_speed", model.DeviceClassPowerFactor, model.UnitNone, "mdi:fan", deviceControl),
	controlDescription(model.ControlKeyOffSpeed, "off_speed", model.DeviceClassPowerFactor, model.UnitNone, "mdi:fan-off", deviceControl),
}
