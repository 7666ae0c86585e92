package entity

import (
	"math"

	"github.com/anicoll/acinfinity-integration/internal/pkg/acinfinity"
	"github.com/anicoll/acinfinity-integration/internal/pkg/model"
)

// Keys of sensor entities. The Fahrenheit and Celsius variants of a reading
// share a key so switching the display unit on the controller does not
// create a new entity.
const (
	SensorKeyProbeTemperature      = "probe_temperature"
	SensorKeyProbeHumidity         = "probe_humidity"
	SensorKeyProbeVPD              = "probe_vpd"
	SensorKeyControllerTemperature = "controller_temperature"
	SensorKeyControllerHumidity    = "controller_humidity"
	SensorKeyControllerVPD         = "controller_vpd"
	SensorKeyCO2                   = "co2_sensor"
	SensorKeyLight                 = "light_sensor"
	SensorKeySoil                  = "soil_sensor"
	SensorKeyWaterTemperature      = "water_temperature"
	SensorKeyPH                    = "ph_sensor"
	SensorKeyEC                    = "ec_sensor"
	SensorKeyTDS                   = "tds_sensor"
)

type SensorDescription struct {
	Description
	Suitable func(store Store, sensor acinfinity.Sensor, key string) bool
	Value    func(store Store, sensor acinfinity.Sensor, key string) any
}

func (d SensorDescription) bind(store Store, sensor acinfinity.Sensor) func() any {
	return func() any {
		return d.Value(store, sensor, d.Key)
	}
}

func sensorProperty(store Store, sensor acinfinity.Sensor, key string) acinfinity.Value {
	return store.SensorProperty(sensor.ControllerID, sensor.Port, sensor.Type, key)
}

func suitableSensor(store Store, sensor acinfinity.Sensor, _ string) bool {
	return sensorProperty(store, sensor, model.SensorKeyPrecision).Exists() &&
		sensorProperty(store, sensor, model.SensorKeyData).Exists()
}

func suitableSensorTemperature(store Store, sensor acinfinity.Sensor, key string) bool {
	return suitableSensor(store, sensor, key) &&
		sensorProperty(store, sensor, model.SensorKeyUnit).Exists()
}

// sensorValue scales the raw reading by its precision. A precision of n
// means the value carries n-1 decimal places.
func sensorValue(store Store, sensor acinfinity.Sensor, _ string) any {
	precision := sensorProperty(store, sensor, model.SensorKeyPrecision).Int(1)
	data := sensorProperty(store, sensor, model.SensorKeyData).Float(0)
	if precision > 1 {
		return data / math.Pow10(precision-1)
	}
	return data
}

// sensorTemperature reports Celsius. A unit of 0 means the reading is in
// Fahrenheit.
func sensorTemperature(store Store, sensor acinfinity.Sensor, key string) any {
	value := sensorValue(store, sensor, key).(float64)
	if sensorProperty(store, sensor, model.SensorKeyUnit).Int(0) > 0 {
		return value
	}
	precision := sensorProperty(store, sensor, model.SensorKeyPrecision).Int(1)
	return roundTo(5*(value-32)/9, precision-1)
}

func roundTo(v float64, places int) float64 {
	if places < 0 {
		places = 0
	}
	scale := math.Pow10(places)
	return math.RoundToEven(v*scale) / scale
}

func temperatureDescription(key, translationKey string) SensorDescription {
	return SensorDescription{
		Description: Description{
			Key:            key,
			Platform:       model.PlatformSensor,
			DeviceClass:    model.DeviceClassTemperature,
			StateClass:     model.StateClassMeasurement,
			Unit:           model.UnitCelsius,
			TranslationKey: translationKey,
		},
		Suitable: suitableSensorTemperature,
		Value:    sensorTemperature,
	}
}

func measurementDescription(key, translationKey string, class model.DeviceClass, unit model.Unit, icon string) SensorDescription {
	return SensorDescription{
		Description: Description{
			Key:            key,
			Platform:       model.PlatformSensor,
			DeviceClass:    class,
			StateClass:     model.StateClassMeasurement,
			Unit:           unit,
			Icon:           icon,
			TranslationKey: translationKey,
		},
		Suitable: suitableSensor,
		Value:    sensorValue,
	}
}

var SensorDescriptions = map[model.SensorType]SensorDescription{
	model.SensorTypeProbeTemperatureF: temperatureDescription(SensorKeyProbeTemperature, "probe_temperature"),
	model.SensorTypeProbeTemperatureC: temperatureDescription(SensorKeyProbeTemperature, "probe_temperature"),
	model.SensorTypeProbeHumidity:     measurementDescription(SensorKeyProbeHumidity, "probe_humidity", model.DeviceClassHumidity, model.UnitPercent, ""),
	model.SensorTypeProbeVPD:          measurementDescription(SensorKeyProbeVPD, "probe_vapor_pressure_deficit", model.DeviceClassPressure, model.UnitKiloPascal, "mdi:water-thermometer"),

	model.SensorTypeControllerTemperatureF: temperatureDescription(SensorKeyControllerTemperature, "controller_temperature"),
	model.SensorTypeControllerTemperatureC: temperatureDescription(SensorKeyControllerTemperature, "controller_temperature"),
	model.SensorTypeControllerHumidity:     measurementDescription(SensorKeyControllerHumidity, "controller_humidity", model.DeviceClassHumidity, model.UnitPercent, ""),
	model.SensorTypeControllerVPD:          measurementDescription(SensorKeyControllerVPD, "controller_vapor_pressure_deficit", model.DeviceClassPressure, model.UnitKiloPascal, "mdi:water-thermometer"),

	model.SensorTypeCO2:   measurementDescription(SensorKeyCO2, "co2_sensor", model.DeviceClassCO2, model.UnitPartsPerMillion, ""),
	model.SensorTypeLight: measurementDescription(SensorKeyLight, "light_sensor", model.DeviceClassPowerFactor, model.UnitPercent, "mdi:lightbulb-on-outline"),
	model.SensorTypeSoil:  measurementDescription(SensorKeySoil, "soil_sensor", model.DeviceClassMoisture, model.UnitPercent, "mdi:watering-can-outline"),

	model.SensorTypeWaterTempF: temperatureDescription(SensorKeyWaterTemperature, "water_temperature"),
	model.SensorTypeWaterTempC: temperatureDescription(SensorKeyWaterTemperature, "water_temperature"),
	model.SensorTypePH:         measurementDescription(SensorKeyPH, "ph_sensor", model.DeviceClassPH, model.UnitNone, "mdi:ph"),
	model.SensorTypeEC:         measurementDescription(SensorKeyEC, "ec_sensor", model.DeviceClassConductivity, model.UnitMicroSiemensPerCm, "mdi:flash"),
	model.SensorTypeTDS:        measurementDescription(SensorKeyTDS, "tds_sensor", model.DeviceClassConductivity, model.UnitPartsPerMillion, "mdi:water-opacity"),
}
