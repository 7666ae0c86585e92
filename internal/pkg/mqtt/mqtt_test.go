package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	paho_mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anicoll/acinfinity-integration/internal/pkg/entity"
	"github.com/anicoll/acinfinity-integration/internal/pkg/model"
)

type fakeToken struct {
	err      error
	timedOut bool
}

func (t *fakeToken) Wait() bool                     { return !t.timedOut }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return !t.timedOut }
func (t *fakeToken) Error() error                   { return t.err }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type message struct {
	topic    string
	qos      byte
	retained bool
	payload  string
}

// fakeClient records publishes. Methods not overridden panic.
type fakeClient struct {
	paho_mqtt.Client

	mu           sync.Mutex
	published    []message
	publishErr   error
	connectErr   error
	disconnected bool
}

func (c *fakeClient) Connect() paho_mqtt.Token {
	return &fakeToken{err: c.connectErr}
}

func (c *fakeClient) Disconnect(uint) {
	c.disconnected = true
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload any) paho_mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	var body string
	switch p := payload.(type) {
	case []byte:
		body = string(p)
	case string:
		body = p
	}
	c.published = append(c.published, message{topic: topic, qos: qos, retained: retained, payload: body})
	return &fakeToken{err: c.publishErr}
}

func testEntity() *entity.Entity {
	return &entity.Entity{
		UniqueID:    "100_1_spc24_probe_temperature",
		Key:         "probe_temperature",
		Name:        "Probe Temperature",
		Platform:    model.PlatformSensor,
		DeviceClass: model.DeviceClassTemperature,
		StateClass:  model.StateClassMeasurement,
		Unit:        model.UnitCelsius,
		Device: model.Device{
			Identifier: "100_1_spc24",
			Name:       "Grow Tent Probe 1",
			Model:      "UIS Controller Probe (AC-SPC24)",
			ViaDevice:  "100",
		},
	}
}

func TestConnect(t *testing.T) {
	client := &fakeClient{}
	require.NoError(t, New(client).Connect())
	require.Len(t, client.published, 1)
	assert.Equal(t, message{topic: "ac_infinity/status", qos: 1, retained: true, payload: "online"}, client.published[0])

	boom := errors.New("boom")
	assert.ErrorIs(t, New(&fakeClient{connectErr: boom}).Connect(), boom)
}

func TestNewClientOptions(t *testing.T) {
	opts := NewClientOptions("tcp://broker:1883", "ha", "secret")
	assert.Equal(t, "ha", opts.Username)
	assert.Equal(t, "ac_infinity/status", opts.WillTopic)
	assert.Equal(t, []byte("offline"), opts.WillPayload)
	assert.True(t, opts.WillRetained)
	require.Len(t, opts.Servers, 1)
	assert.Equal(t, "broker:1883", opts.Servers[0].Host)

	client := &fakeClient{}
	opts.OnConnect(client)
	require.Len(t, client.published, 1)
	assert.Equal(t, "online", client.published[0].payload)
}

func TestDisconnect(t *testing.T) {
	client := &fakeClient{}
	New(client).Disconnect()
	assert.True(t, client.disconnected)
	assert.Equal(t, "offline", client.published[0].payload)
}

func TestPublishDiscovery(t *testing.T) {
	client := &fakeClient{}
	svc := New(client)

	topic, err := svc.PublishDiscovery(context.Background(), testEntity())
	require.NoError(t, err)
	assert.Equal(t, "homeassistant/sensor/ac_infinity_100_1_spc24/100_1_spc24_probe_temperature/config", topic)

	require.Len(t, client.published, 1)
	published := client.published[0]
	assert.True(t, published.retained)

	var msg map[string]any
	require.NoError(t, json.Unmarshal([]byte(published.payload), &msg))
	assert.Equal(t, "100_1_spc24_probe_temperature", msg["unique_id"])
	assert.Equal(t, "grow_tent_probe_1_probe_temperature", msg["object_id"])
	assert.Equal(t, "ac_infinity/100_1_spc24/probe_temperature/state", msg["state_topic"])
	assert.Equal(t, "°C", msg["unit_of_measurement"])
	assert.NotContains(t, msg, "payload_on")

	device := msg["device"].(map[string]any)
	assert.Equal(t, []any{"ac_infinity_100_1_spc24"}, device["identifiers"])
	assert.Equal(t, "ac_infinity_100", device["via_device"])
	assert.Equal(t, "AC Infinity", device["manufacturer"])
}

func TestRegisterMessage_BinarySensor(t *testing.T) {
	e := testEntity()
	e.Platform = model.PlatformBinarySensor
	e.Device.ViaDevice = ""

	msg := RegisterMessage(e)
	assert.Equal(t, "ON", msg.PayloadOn)
	assert.Equal(t, "OFF", msg.PayloadOff)
	assert.Empty(t, msg.Device.ViaDevice)
}

func TestClearDiscovery(t *testing.T) {
	client := &fakeClient{}
	require.NoError(t, New(client).ClearDiscovery(context.Background(), "homeassistant/sensor/x/y/config"))
	assert.Equal(t, message{topic: "homeassistant/sensor/x/y/config", qos: 1, retained: true}, client.published[0])
}

func TestWrite(t *testing.T) {
	value := "23.96"
	states := []model.EntityState{
		{UniqueID: "a", DeviceIdentifier: "100_1_spc24", Key: "probe_temperature", Value: &value},
		{UniqueID: "b", DeviceIdentifier: "100_1", Key: "next_state_change"},
	}

	tests := map[string]struct {
		publishErr error
		wantErr    bool
		want       []message
	}{
		"publishes values": {
			want: []message{
				{topic: "ac_infinity/100_1_spc24/probe_temperature/state", payload: "23.96"},
				{topic: "ac_infinity/100_1/next_state_change/state", payload: "None"},
			},
		},
		"publish error": {
			publishErr: errors.New("boom"),
			wantErr:    true,
			want: []message{
				{topic: "ac_infinity/100_1_spc24/probe_temperature/state", payload: "23.96"},
			},
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			client := &fakeClient{publishErr: tt.publishErr}
			err := New(client).Write(context.Background(), states)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, client.published)
		})
	}
}
