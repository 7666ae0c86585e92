// Package acinfinitytest provides an in-memory stand-in for the AC Infinity
// cloud API.
package acinfinitytest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

const (
	GrowTentID = "1424979258063355749"
	AIID       = "1424979258063365223"
)

// Controllers is a trimmed devInfoListAll response covering a classic
// controller with probe and CO2 accessories and an AI controller with
// built-in, soil, water and an unknown sensor.
const Controllers = `[
  {
    "devId": "1424979258063355749",
    "devName": "Grow Tent",
    "devType": 11,
    "devMacAddr": "3C:E9:0E:00:00:01",
    "online": 1,
    "zoneId": "America/Chicago",
    "portNum": 4,
    "temperature": 2417,
    "humidity": 5586,
    "vpdNums": 119,
    "firmwareVersion": "3.2.25",
    "hardwareVersion": "1.1",
    "deviceInfo": {
      "ports": [
        {"port": 1, "portName": "Exhaust Fan", "speak": 5, "online": 1, "loadState": 1, "remainTime": 120},
        {"port": 2, "portName": "Grow Light", "speak": 0, "online": 0, "loadState": 0, "remainTime": 0},
        {"port": 3, "portName": "Port 3", "speak": 0, "online": 0, "loadState": 0, "remainTime": 0},
        {"port": 4, "portName": "Port 4", "speak": 0, "online": 0, "loadState": 0, "remainTime": 0}
      ],
      "sensors": [
        {"accessPort": 1, "sensorType": 0, "sensorUnit": 0, "sensorPrecis": 3, "sensorData": 7512},
        {"accessPort": 1, "sensorType": 2, "sensorUnit": 1, "sensorPrecis": 3, "sensorData": 5560},
        {"accessPort": 1, "sensorType": 3, "sensorUnit": 1, "sensorPrecis": 3, "sensorData": 119},
        {"accessPort": 2, "sensorType": 11, "sensorUnit": 1, "sensorPrecis": 1, "sensorData": 865},
        {"accessPort": 2, "sensorType": 12, "sensorUnit": 1, "sensorPrecis": 1, "sensorData": 40}
      ]
    }
  },
  {
    "devId": "1424979258063365223",
    "devName": "Veg Room",
    "devType": "20",
    "devMacAddr": "3C:E9:0E:00:00:02",
    "online": 1,
    "zoneId": "Not/AZone",
    "temperature": 2140,
    "humidity": 4810,
    "vpdNums": 133,
    "deviceInfo": {
      "firmwareVersion": "1.0.4",
      "ports": [
        {"port": 1, "portName": "Heater", "speak": "3", "online": 1, "loadState": 1, "remainTime": 0},
        {"port": 2, "portName": "Pump", "speak": 0, "online": 0, "loadState": 0, "remainTime": 0}
      ],
      "sensors": [
        {"accessPort": 0, "sensorType": 5, "sensorUnit": 1, "sensorPrecis": 3, "sensorData": 2140},
        {"accessPort": 0, "sensorType": 6, "sensorUnit": 1, "sensorPrecis": 3, "sensorData": 4810},
        {"accessPort": 3, "sensorType": 10, "sensorUnit": 1, "sensorPrecis": 1, "sensorData": 37},
        {"accessPort": 4, "sensorType": 14, "sensorUnit": 1, "sensorPrecis": 3, "sensorData": 1985},
        {"accessPort": 4, "sensorType": 16, "sensorUnit": 1, "sensorPrecis": 1, "sensorData": 1200},
        {"accessPort": 5, "sensorType": 99, "sensorUnit": 1, "sensorPrecis": 1, "sensorData": 1}
      ]
    }
  }
]`

// PortSettings holds getdevModeSettingList responses keyed by "<devId>_<port>".
var PortSettings = map[string]string{
	GrowTentID + "_1": `{"loadType": 135, "subDeviceId": "", "onSpead": 7, "offSpead": 0, "targetTemp": 2600, "devHt": 2900, "devLt": 1800, "targetHumi": 55, "devHh": 70, "devLh": 40, "targetVpd": 110, "vpdHighTrig": 160, "vpdLowTrig": 80, "acitveTimerOn": 0, "acitveTimerOff": 30, "activeCycleOn": 15, "activeCycleOff": 45, "schedStartTime": 360, "schedEndtTime": 1080, "temperature": 2417, "humidity": 5586, "vpdNums": 119, "tTrend": 1, "hTrend": 0}`,
	GrowTentID + "_2": `{"loadType": 129, "subDeviceId": "LB-7721"}`,
	GrowTentID + "_3": `{"loadType": 0}`,
	GrowTentID + "_4": `{"loadType": 77}`,
	AIID + "_1":       `{"loadType": 132}`,
	AIID + "_2":       `{"loadType": 137}`,
}

// Client serves the fixtures above and counts calls. Err, when set, is
// returned from every call.
type Client struct {
	mu           sync.Mutex
	controllers  string
	Err          error
	ListCalls    int
	SettingCalls int
	Closed       bool
}

func NewClient() *Client {
	return &Client{controllers: Controllers}
}

// SetControllers replaces the devInfoListAll payload.
func (c *Client) SetControllers(raw string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.controllers = raw
}

func (c *Client) SetErr(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Err = err
}

func (c *Client) GetDevicesListAll(ctx context.Context) ([]map[string]any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ListCalls++
	if c.Err != nil {
		return nil, c.Err
	}
	var out []map[string]any
	if err := decode(c.controllers, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetDeviceModeSettingsList(ctx context.Context, controllerID string, port int) (map[string]any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.SettingCalls++
	if c.Err != nil {
		return nil, c.Err
	}
	raw, ok := PortSettings[fmt.Sprintf("%s_%d", controllerID, port)]
	if !ok {
		return map[string]any{}, nil
	}
	var out map[string]any
	if err := decode(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Closed = true
}

func decode(raw string, out any) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	return dec.Decode(out)
}
