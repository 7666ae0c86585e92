package entity

import (
	"fmt"

	"github.com/anicoll/acinfinity-integration/internal/pkg/acinfinity"
	"github.com/anicoll/acinfinity-integration/internal/pkg/model"
)

var sensorModelNames = map[model.SensorModel]string{
	model.SensorModelProbe: "UIS Controller Probe (AC-SPC24)",
	model.SensorModelCO2:   "UIS CO2 + Light Sensor (AC-COS3)",
	model.SensorModelSoil:  "UIS Soil Moisture Sensor (AC-SMS25)",
	model.SensorModelWater: "UIS Water Sensor (AC-WLS12)",
}

var sensorModelLabels = map[model.SensorModel]string{
	model.SensorModelProbe: "Probe",
	model.SensorModelCO2:   "CO2 Sensor",
	model.SensorModelSoil:  "Soil Sensor",
	model.SensorModelWater: "Water Sensor",
}

func ControllerDevice(store Store, controller acinfinity.Controller, entryID string) model.Device {
	return model.Device{
		Identifier: controller.ID,
		EntryID:    entryID,
		Name:       controller.Name,
		Model:      controller.Type.ModelName(),
		SWVersion:  store.ControllerProperty(controller.ID, model.ControllerKeySWVersion).String(""),
		HWVersion:  store.ControllerProperty(controller.ID, model.ControllerKeyHWVersion).String(""),
	}
}

func SensorDevice(controller acinfinity.Controller, sensor acinfinity.Sensor, entryID string) model.Device {
	m := sensor.Type.Model()
	return model.Device{
		Identifier: sensor.DeviceIdentifier(),
		EntryID:    entryID,
		Name:       fmt.Sprintf("%s %s %d", controller.Name, sensorModelLabels[m], sensor.Port),
		Model:      sensorModelNames[m],
		ViaDevice:  controller.ID,
	}
}

func PortDevice(controller acinfinity.Controller, port acinfinity.Device, entryID string) model.Device {
	return model.Device{
		Identifier: port.DeviceIdentifier(),
		EntryID:    entryID,
		Name:       fmt.Sprintf("%s %s", controller.Name, port.Name),
		Model:      "Controller Port",
		ViaDevice:  controller.ID,
	}
}
