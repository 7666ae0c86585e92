package acinfinity

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/anicoll/acinfinity-integration/internal/pkg/model"
)

// Controller is a read-only view over one controller in the current snapshot.
type Controller struct {
	ID      string
	Name    string
	Type    model.ControllerType
	Sensors []Sensor
	Devices []Device
}

func (c Controller) IsAI() bool {
	return c.Type.IsAI()
}

// Sensor is a sensor reported on a controller sensor port. Built-in sensors
// report the controller itself as their port.
type Sensor struct {
	ControllerID string
	Port         int
	Type         model.SensorType
}

// DeviceIdentifier is the host device the sensor's entities attach to.
// Built-in sensors belong to the controller device.
func (s Sensor) DeviceIdentifier() string {
	if s.Type.BuiltIn() {
		return s.ControllerID
	}
	return fmt.Sprintf("%s_%d_%s", s.ControllerID, s.Port, s.Type.Model())
}

// Device is whatever is plugged into a controller output port.
type Device struct {
	ControllerID string
	Port         int
	Name         string
}

func (d Device) DeviceIdentifier() string {
	return fmt.Sprintf("%s_%d", d.ControllerID, d.Port)
}

// Controllers returns views of every controller, sensors ordered by port and
// type, devices ordered by port.
func (s *Service) Controllers() []Controller {
	snap := s.current()
	out := make([]Controller, 0, len(snap.order))
	for _, id := range snap.order {
		controller := Controller{
			ID:   id,
			Name: s.ControllerName(id),
			Type: model.ControllerType(s.ControllerProperty(id, model.ControllerKeyDeviceType).Int(0)),
		}
		for key := range snap.sensors {
			if key.controllerID != id {
				continue
			}
			controller.Sensors = append(controller.Sensors, Sensor{ControllerID: id, Port: key.port, Type: key.sensorType})
		}
		slices.SortFunc(controller.Sensors, func(a, b Sensor) int {
			return cmp.Or(cmp.Compare(a.Port, b.Port), cmp.Compare(a.Type, b.Type))
		})
		for key := range snap.ports {
			if key.controllerID != id {
				continue
			}
			controller.Devices = append(controller.Devices, Device{
				ControllerID: id,
				Port:         key.port,
				Name:         s.DeviceProperty(id, key.port, model.DeviceKeyName).String(fmt.Sprintf("Port %d", key.port)),
			})
		}
		slices.SortFunc(controller.Devices, func(a, b Device) int {
			return cmp.Compare(a.Port, b.Port)
		})
		out = append(out, controller)
	}
	return out
}
