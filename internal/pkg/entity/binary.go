package entity

import (
	"github.com/anicoll/acinfinity-integration/internal/pkg/acinfinity"
	"github.com/anicoll/acinfinity-integration/internal/pkg/model"
)

const (
	StateOn  = "ON"
	StateOff = "OFF"
)

func onOff(v acinfinity.Value) any {
	if v.Int(0) == 1 {
		return StateOn
	}
	return StateOff
}

var BinaryControllerDescriptions = []ControllerDescription{
	{
		Description: Description{
			Key:            model.ControllerKeyOnline,
			Platform:       model.PlatformBinarySensor,
			DeviceClass:    model.DeviceClassConnectivity,
			EntityCategory: model.EntityCategoryDiagnostic,
			TranslationKey: "controller_online",
		},
		Suitable: func(store Store, controller acinfinity.Controller, key string) bool {
			return store.ControllerProperty(controller.ID, key).Exists()
		},
		Value: func(store Store, controller acinfinity.Controller, key string) any {
			return onOff(store.ControllerProperty(controller.ID, key))
		},
	},
}

func devicePropertyOnOff(store Store, port acinfinity.Device, key string) any {
	return onOff(store.DeviceProperty(port.ControllerID, port.Port, key))
}

var BinaryDeviceDescriptions = []DeviceDescription{
	{
		Description: Description{
			Key:            model.DeviceKeyOnline,
			Platform:       model.PlatformBinarySensor,
			DeviceClass:    model.DeviceClassConnectivity,
			EntityCategory: model.EntityCategoryDiagnostic,
			TranslationKey: "port_online",
		},
		Suitable: suitableDeviceProperty,
		Value:    devicePropertyOnOff,
	},
	{
		Description: Description{
			Key:            model.DeviceKeyState,
			Platform:       model.PlatformBinarySensor,
			DeviceClass:    model.DeviceClassPower,
			TranslationKey: "port_state",
		},
		Suitable: suitableDeviceProperty,
		Value:    devicePropertyOnOff,
	},
}
