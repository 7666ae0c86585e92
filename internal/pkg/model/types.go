package model

type Platform string

func (p Platform) String() string {
	return string(p)
}

const (
	PlatformSensor       Platform = "sensor"
	PlatformBinarySensor Platform = "binary_sensor"
)

// DeviceClass mirrors the Home Assistant sensor device classes we emit.
type DeviceClass string

const (
	DeviceClassNone         DeviceClass = ""
	DeviceClassTemperature  DeviceClass = "temperature"
	DeviceClassHumidity     DeviceClass = "humidity"
	DeviceClassPressure     DeviceClass = "pressure"
	DeviceClassCO2          DeviceClass = "carbon_dioxide"
	DeviceClassPowerFactor  DeviceClass = "power_factor"
	DeviceClassMoisture     DeviceClass = "moisture"
	DeviceClassPH           DeviceClass = "ph"
	DeviceClassConductivity DeviceClass = "conductivity"
	DeviceClassDuration     DeviceClass = "duration"
	DeviceClassTimestamp    DeviceClass = "timestamp"
	DeviceClassEnum         DeviceClass = "enum"
	DeviceClassConnectivity DeviceClass = "connectivity"
	DeviceClassPower        DeviceClass = "power"
)

type StateClass string

const (
	StateClassNone        StateClass = ""
	StateClassMeasurement StateClass = "measurement"
)

type Unit string

func (u Unit) String() string {
	return string(u)
}

const (
	UnitNone              Unit = ""
	UnitCelsius           Unit = "°C"
	UnitPercent           Unit = "%"
	UnitKiloPascal        Unit = "kPa"
	UnitPartsPerMillion   Unit = "ppm"
	UnitMicroSiemensPerCm Unit = "µS/cm"
	UnitSeconds           Unit = "s"
	UnitMinutes           Unit = "min"
)

// EntityCategory marks entities that describe configuration rather than
// measurements, so Home Assistant files them away from the main dashboard.
type EntityCategory string

const (
	EntityCategoryNone       EntityCategory = ""
	EntityCategoryDiagnostic EntityCategory = "diagnostic"
)
