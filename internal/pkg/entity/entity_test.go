package entity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/anicoll/acinfinity-integration/internal/pkg/acinfinity"
	"github.com/anicoll/acinfinity-integration/internal/pkg/acinfinity/acinfinitytest"
	"github.com/anicoll/acinfinity-integration/internal/pkg/model"
)

const (
	tentID = acinfinitytest.GrowTentID
	aiID   = acinfinitytest.AIID
)

func newStore(t *testing.T) *acinfinity.Service {
	t.Helper()
	svc := acinfinity.NewService(acinfinitytest.NewClient())
	require.NoError(t, svc.Refresh(context.Background()))
	return svc
}

func byUniqueID(entities []*Entity) map[string]*Entity {
	out := make(map[string]*Entity, len(entities))
	for _, e := range entities {
		out[e.UniqueID] = e
	}
	return out
}

func TestMaterialize_Values(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now = func() time.Time { return fixed }
	t.Cleanup(func() { now = time.Now })

	entities := byUniqueID(Materialize(newStore(t), &model.Entry{ID: "entry"}))

	chicago, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)

	tests := map[string]struct {
		uniqueID string
		want     any
	}{
		"controller temperature":        {tentID + "_temperature", 24.17},
		"controller humidity":           {tentID + "_humidity", 55.86},
		"controller vpd":                {tentID + "_vpdNums", 1.19},
		"controller online":             {tentID + "_online", StateOn},
		"probe fahrenheit to celsius":   {tentID + "_1_spc24_probe_temperature", 23.96},
		"probe humidity":                {tentID + "_1_spc24_probe_humidity", 55.6},
		"probe vpd three places":        {tentID + "_1_spc24_probe_vpd", 1.19},
		"co2 without precision":         {tentID + "_2_cos3_co2_sensor", 865.0},
		"light":                         {tentID + "_2_cos3_light_sensor", 40.0},
		"built in sensor on controller": {aiID + "_controller_temperature", 21.4},
		"soil":                          {aiID + "_3_sms25_soil_sensor", 37.0},
		"water temperature celsius":     {aiID + "_4_wls12_water_temperature", 19.85},
		"ec":                            {aiID + "_4_wls12_ec_sensor", 1200.0},
		"port active by load type":      {tentID + "_1_port_status", PortStatusActive},
		"port inactive":                 {tentID + "_3_port_status", PortStatusInactive},
		"connected device":              {tentID + "_1_connected_device_type", "Ventilation Fan"},
		"unknown load type":             {tentID + "_4_connected_device_type", "Unknown (77)"},
		"sub device id":                 {tentID + "_2_subDeviceId", "LB-7721"},
		"empty sub device id":           {tentID + "_1_subDeviceId", "None"},
		"current power":                 {tentID + "_1_speak", 5.0},
		"current power as string":       {aiID + "_1_speak", 3.0},
		"remaining time":                {tentID + "_1_remainTime", 120.0},
		"next state change":             {tentID + "_1_next_state_change", fixed.In(chicago).Add(2 * time.Minute)},
		"no next state change":          {tentID + "_2_next_state_change", nil},
		"target temperature":            {tentID + "_1_targetTemp", 26.0},
		"vpd high trigger":              {tentID + "_1_vpdHighTrig", 1.6},
		"cycle minutes":                 {tentID + "_1_activeCycleOff", 45.0},
		"schedule start":                {tentID + "_1_schedStartTime", 360.0},
		"automation humidity":           {tentID + "_1_humidity", 55.86},
		"on speed":                      {tentID + "_1_onSpead", 7.0},
		"port online":                   {tentID + "_1_online", StateOn},
		"port load state":               {tentID + "_2_loadState", StateOff},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			e, ok := entities[tt.uniqueID]
			require.True(t, ok, "missing entity %s", tt.uniqueID)
			got := e.Value()
			if want, ok := tt.want.(time.Time); ok {
				ts, ok := got.(time.Time)
				require.True(t, ok)
				assert.True(t, want.Equal(ts))
				assert.Equal(t, "America/Chicago", ts.Location().String())
				return
			}
			if f, ok := tt.want.(float64); ok {
				assert.InDelta(t, f, got, 0.0001)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMaterialize_Suitability(t *testing.T) {
	entities := byUniqueID(Materialize(newStore(t), &model.Entry{ID: "entry"}))

	tests := map[string]string{
		"ai controller skips base temperature": aiID + "_temperature",
		"ai controller skips base vpd":         aiID + "_vpdNums",
		"port without automation settings":     tentID + "_3_targetTemp",
		"port without sub device id":           tentID + "_3_subDeviceId",
		"unknown sensor type":                  aiID + "_5_spc24_probe_temperature",
	}
	for name, uniqueID := range tests {
		t.Run(name, func(t *testing.T) {
			assert.NotContains(t, entities, uniqueID)
		})
	}
	assert.Contains(t, entities, tentID+"_3_port_status")
	assert.Contains(t, entities, tentID+"_3_connected_device_type")
}

func TestMaterialize_Enablement(t *testing.T) {
	store := newStore(t)

	tests := map[string]struct {
		config      model.DeviceConfig
		wantPresent []string
		wantAbsent  []string
	}{
		"unconfigured controller is enabled": {
			config:      nil,
			wantPresent: []string{tentID + "_temperature", tentID + "_1_spc24_probe_temperature", tentID + "_4_port_status"},
		},
		"sensors disabled": {
			config: model.DeviceConfig{
				model.DeviceConfigKeyController: model.EntityConfigSensorsOnly,
				model.DeviceConfigKeySensors:    model.EntityConfigDisable,
			},
			wantPresent: []string{tentID + "_temperature", tentID + "_1_port_status"},
			wantAbsent:  []string{tentID + "_1_spc24_probe_temperature", tentID + "_2_cos3_co2_sensor"},
		},
		"one port disabled": {
			config: model.DeviceConfig{
				model.PortConfigKey(1): model.EntityConfigDisable,
				model.PortConfigKey(2): model.EntityConfigAll,
			},
			wantPresent: []string{tentID + "_2_port_status", tentID + "_3_port_status"},
			wantAbsent:  []string{tentID + "_1_port_status", tentID + "_1_targetTemp", tentID + "_1_online"},
		},
		"controller disabled": {
			config: model.DeviceConfig{
				model.DeviceConfigKeyController: model.EntityConfigDisable,
			},
			wantPresent: []string{tentID + "_1_spc24_probe_temperature"},
			wantAbsent:  []string{tentID + "_temperature", tentID + "_online"},
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			entry := &model.Entry{ID: "entry", Data: model.EntryData{Entities: map[string]model.DeviceConfig{}}}
			if tt.config != nil {
				entry.Data.Entities[tentID] = tt.config
			}
			entities := byUniqueID(Materialize(store, entry))
			for _, id := range tt.wantPresent {
				assert.Contains(t, entities, id)
			}
			for _, id := range tt.wantAbsent {
				assert.NotContains(t, entities, id)
			}
			// the other controller is never affected
			assert.Contains(t, entities, aiID+"_controller_temperature")
		})
	}
}

func TestMaterialize_UnknownSensorWarns(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	Materialize(newStore(t), &model.Entry{ID: "entry"})

	warnings := logs.FilterMessageSnippet("unknown sensor type").All()
	require.Len(t, warnings, 1)
	assert.EqualValues(t, 99, warnings[0].ContextMap()["sensor_type"])
	assert.Equal(t, model.IssueURL, warnings[0].ContextMap()["issues"])
}

func TestMaterialize_Devices(t *testing.T) {
	entities := byUniqueID(Materialize(newStore(t), &model.Entry{ID: "entry"}))

	probe := entities[tentID+"_1_spc24_probe_temperature"]
	require.NotNil(t, probe)
	assert.Equal(t, model.Device{
		Identifier: tentID + "_1_spc24",
		EntryID:    "entry",
		Name:       "Grow Tent Probe 1",
		Model:      "UIS Controller Probe (AC-SPC24)",
		ViaDevice:  tentID,
	}, probe.Device)

	port := entities[tentID+"_1_port_status"]
	require.NotNil(t, port)
	assert.Equal(t, tentID+"_1", port.Device.Identifier)
	assert.Equal(t, "Grow Tent Exhaust Fan", port.Device.Name)
	assert.Equal(t, model.PortConfigKey(1), port.ConfigKey)

	controller := entities[aiID+"_controller_temperature"]
	require.NotNil(t, controller)
	assert.Equal(t, aiID, controller.Device.Identifier)
	assert.Equal(t, "UIS Controller AI+ (CTR89Q)", controller.Device.Model)
	assert.Equal(t, "1.0.4", controller.Device.SWVersion)
	assert.Equal(t, model.DeviceConfigKeySensors, controller.ConfigKey)
}

func TestEntity_State(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := map[string]struct {
		value any
		want  *string
	}{
		"float":   {24.17, ptr("24.17")},
		"integer": {865.0, ptr("865")},
		"string":  {"Active", ptr("Active")},
		"time":    {ts, ptr("2026-03-01T12:00:00Z")},
		"unknown": {nil, nil},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			e := &Entity{UniqueID: "id", Key: "key", Unit: model.UnitCelsius, value: func() any { return tt.value }}
			state := e.State(ts)
			assert.Equal(t, tt.want, state.Value)
			assert.Equal(t, "°C", state.Unit)
			assert.Equal(t, ts, state.TimeStamp)
		})
	}
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Probe Vapor Pressure Deficit", displayName("probe_vapor_pressure_deficit"))
	assert.Equal(t, "Automation VPD", displayName("automation_vpd"))
	assert.Equal(t, "Device Load Type ID", displayName("device_load_type_id"))
}

func ptr(s string) *string {
	return &s
}
