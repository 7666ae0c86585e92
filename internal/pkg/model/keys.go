package model

import "slices"

const (
	Domain       = "ac_infinity"
	Manufacturer = "AC Infinity"
	IssueURL     = "https://github.com/anicoll/acinfinity-integration/issues"
)

// Controller level keys. Lookups fall back from the controller object to
// its nested deviceInfo object.
const (
	ControllerKeyDeviceID    = "devId"
	ControllerKeyDeviceName  = "devName"
	ControllerKeyDeviceType  = "devType"
	ControllerKeyDeviceInfo  = "deviceInfo"
	ControllerKeyPorts       = "ports"
	ControllerKeySensors     = "sensors"
	ControllerKeyOnline      = "online"
	ControllerKeyTimeZone    = "zoneId"
	ControllerKeyPortCount   = "portNum"
	ControllerKeyTemperature = "temperature"
	ControllerKeyHumidity    = "humidity"
	ControllerKeyVPD         = "vpdNums"
	ControllerKeyHWVersion   = "hardwareVersion"
	ControllerKeySWVersion   = "firmwareVersion"
)

const (
	SensorKeyPort      = "accessPort"
	SensorKeyType      = "sensorType"
	SensorKeyUnit      = "sensorUnit"
	SensorKeyPrecision = "sensorPrecis"
	SensorKeyData      = "sensorData"
)

// Port (device) property keys, read from deviceInfo.ports.
const (
	DeviceKeyPort          = "port"
	DeviceKeyName          = "portName"
	DeviceKeySpeak         = "speak"
	DeviceKeyOnline        = "online"
	DeviceKeyState         = "loadState"
	DeviceKeyRemainingTime = "remainTime"
)

// Port control keys, read from the per-port mode settings.
const (
	ControlKeyLoadType            = "loadType"
	ControlKeySubDeviceID         = "subDeviceId"
	ControlKeyOnSpeed             = "onSpead"
	ControlKeyOffSpeed            = "offSpead"
	ControlKeyTargetTemp          = "targetTemp"
	ControlKeyAutoTempHighTrigger = "devHt"
	ControlKeyAutoTempLowTrigger  = "devLt"
	ControlKeyTargetHumidity      = "targetHumi"
	ControlKeyAutoHumidityHigh    = "devHh"
	ControlKeyAutoHumidityLow     = "devLh"
	ControlKeyTargetVPD           = "targetVpd"
	ControlKeyVPDHighTrigger      = "vpdHighTrig"
	ControlKeyVPDLowTrigger       = "vpdLowTrig"
	ControlKeyTimerDurationToOn   = "acitveTimerOn"
	ControlKeyTimerDurationToOff  = "acitveTimerOff"
	ControlKeyCycleDurationOn     = "activeCycleOn"
	ControlKeyCycleDurationOff    = "activeCycleOff"
	ControlKeyScheduledStartTime  = "schedStartTime"
	ControlKeyScheduledEndTime    = "schedEndtTime"
	ControlKeyTemperature         = "temperature"
	ControlKeyHumidity            = "humidity"
	ControlKeyVPD                 = "vpdNums"
	ControlKeyTemperatureTrend    = "tTrend"
	ControlKeyHumidityTrend       = "hTrend"
)

// Keys computed by the integration rather than read from the API.
const (
	CustomKeyNextStateChange     = "next_state_change"
	CustomKeyPortStatus          = "port_status"
	CustomKeyConnectedDeviceType = "connected_device_type"
)

type SensorType int

const (
	SensorTypeProbeTemperatureF      SensorType = 0
	SensorTypeProbeTemperatureC      SensorType = 1
	SensorTypeProbeHumidity          SensorType = 2
	SensorTypeProbeVPD               SensorType = 3
	SensorTypeControllerTemperatureF SensorType = 4
	SensorTypeControllerTemperatureC SensorType = 5
	SensorTypeControllerHumidity     SensorType = 6
	SensorTypeControllerVPD          SensorType = 7
	SensorTypeSoil                   SensorType = 10
	SensorTypeCO2                    SensorType = 11
	SensorTypeLight                  SensorType = 12
	SensorTypeWaterTempF             SensorType = 13
	SensorTypeWaterTempC             SensorType = 14
	SensorTypePH                     SensorType = 15
	SensorTypeEC                     SensorType = 16
	SensorTypeTDS                    SensorType = 17
)

// KnownSensorTypes lists every type code the vendor documents, including
// ones we deliberately do not expose.
var KnownSensorTypes = []SensorType{
	SensorTypeProbeTemperatureF,
	SensorTypeProbeTemperatureC,
	SensorTypeProbeHumidity,
	SensorTypeProbeVPD,
	SensorTypeControllerTemperatureF,
	SensorTypeControllerTemperatureC,
	SensorTypeControllerHumidity,
	SensorTypeControllerVPD,
	SensorTypeSoil,
	SensorTypeCO2,
	SensorTypeLight,
	SensorTypeWaterTempF,
	SensorTypeWaterTempC,
	SensorTypePH,
	SensorTypeEC,
	SensorTypeTDS,
}

func (t SensorType) Known() bool {
	return slices.Contains(KnownSensorTypes, t)
}

// BuiltIn reports whether the sensor lives inside the controller itself
// rather than on an accessory plugged into a sensor port.
func (t SensorType) BuiltIn() bool {
	switch t {
	case SensorTypeControllerTemperatureF, SensorTypeControllerTemperatureC,
		SensorTypeControllerHumidity, SensorTypeControllerVPD:
		return true
	}
	return false
}

// SensorModel is the accessory model suffix used in sensor device identifiers.
type SensorModel string

const (
	SensorModelProbe SensorModel = "spc24"
	SensorModelCO2   SensorModel = "cos3"
	SensorModelSoil  SensorModel = "sms25"
	SensorModelWater SensorModel = "wls12"
)

var SensorModels = []SensorModel{
	SensorModelProbe,
	SensorModelCO2,
	SensorModelSoil,
	SensorModelWater,
}

func (t SensorType) Model() SensorModel {
	switch t {
	case SensorTypeCO2, SensorTypeLight:
		return SensorModelCO2
	case SensorTypeSoil:
		return SensorModelSoil
	case SensorTypeWaterTempF, SensorTypeWaterTempC, SensorTypePH, SensorTypeEC, SensorTypeTDS:
		return SensorModelWater
	default:
		return SensorModelProbe
	}
}

type ControllerType int

const (
	ControllerTypeUIS69Pro     ControllerType = 11
	ControllerTypeUIS69ProPlus ControllerType = 18
	ControllerTypeUIS89AIPlus  ControllerType = 20
)

// AI controllers report their probe and built-in readings through the sensor
// array and duplicate the probe values on the base controller fields.
var AIControllerTypes = []ControllerType{
	ControllerTypeUIS89AIPlus,
}

func (t ControllerType) IsAI() bool {
	return slices.Contains(AIControllerTypes, t)
}

func (t ControllerType) ModelName() string {
	switch t {
	case ControllerTypeUIS69Pro:
		return "UIS Controller 69 Pro (CTR69P)"
	case ControllerTypeUIS69ProPlus:
		return "UIS Controller 69 Pro+ (CTR69Q)"
	case ControllerTypeUIS89AIPlus:
		return "UIS Controller AI+ (CTR89Q)"
	default:
		return "UIS Controller"
	}
}
