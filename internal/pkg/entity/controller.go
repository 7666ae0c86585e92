package entity

import (
	"github.com/anicoll/acinfinity-integration/internal/pkg/acinfinity"
	"github.com/anicoll/acinfinity-integration/internal/pkg/model"
)

type ControllerDescription struct {
	Description
	Suitable func(store Store, controller acinfinity.Controller, key string) bool
	Value    func(store Store, controller acinfinity.Controller, key string) any
}

func (d ControllerDescription) bind(store Store, controller acinfinity.Controller) func() any {
	return func() any {
		return d.Value(store, controller, d.Key)
	}
}

// AI controllers duplicate their probe readings on the base fields. The
// sensor array is the source of truth there, so the base fields are skipped.
func suitableControllerProperty(store Store, controller acinfinity.Controller, key string) bool {
	return !controller.IsAI() && store.ControllerProperty(controller.ID, key).Exists()
}

func controllerHundredths(store Store, controller acinfinity.Controller, key string) any {
	return store.ControllerProperty(controller.ID, key).Float(0) / 100
}

var ControllerDescriptions = []ControllerDescription{
	{
		Description: Description{
			Key:            model.ControllerKeyTemperature,
			Platform:       model.PlatformSensor,
			DeviceClass:    model.DeviceClassTemperature,
			StateClass:     model.StateClassMeasurement,
			Unit:           model.UnitCelsius,
			TranslationKey: "temperature",
		},
		Suitable: suitableControllerProperty,
		Value:    controllerHundredths,
	},
	{
		Description: Description{
			Key:            model.ControllerKeyHumidity,
			Platform:       model.PlatformSensor,
			DeviceClass:    model.DeviceClassHumidity,
			StateClass:     model.StateClassMeasurement,
			Unit:           model.UnitPercent,
			TranslationKey: "humidity",
		},
		Suitable: suitableControllerProperty,
		Value:    controllerHundredths,
	},
	{
		Description: Description{
			Key:            model.ControllerKeyVPD,
			Platform:       model.PlatformSensor,
			DeviceClass:    model.DeviceClassPressure,
			StateClass:     model.StateClassMeasurement,
			Unit:           model.UnitKiloPascal,
			Icon:           "mdi:water-thermometer",
			TranslationKey: "vapor_pressure_deficit",
		},
		Suitable: suitableControllerProperty,
		Value:    controllerHundredths,
	},
}
