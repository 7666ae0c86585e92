package mqtt

import (
	"errors"
	"time"

	paho_mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/anicoll/acinfinity-integration/internal/pkg/model"
)

const (
	DiscoveryPrefix = "homeassistant"

	payloadOnline  = "online"
	payloadOffline = "offline"

	connectTimeout = 5 * time.Second
	publishTimeout = 10 * time.Second
)

// AvailabilityTopic carries the bridge's online/offline status. Every
// discovery config points at it.
var AvailabilityTopic = model.Domain + "/status"

var ErrTimeout = errors.New("mqtt: timed out")

type service struct {
	client paho_mqtt.Client
	logger *zap.Logger
}

func New(client paho_mqtt.Client) *service {
	return &service{
		client: client,
		logger: zap.L(),
	}
}

// NewClientOptions configures a client whose will marks the bridge offline.
func NewClientOptions(host, username, password string) *paho_mqtt.ClientOptions {
	return paho_mqtt.NewClientOptions().
		AddBroker(host).
		SetClientID(model.Domain + "-bridge").
		SetUsername(username).
		SetPassword(password).
		SetAutoReconnect(true).
		SetWill(AvailabilityTopic, payloadOffline, 1, true).
		SetOnConnectHandler(func(c paho_mqtt.Client) {
			// the broker published our will when the connection dropped;
			// waiting on the token here would block paho's reconnect
			c.Publish(AvailabilityTopic, 1, true, payloadOnline)
		})
}

func (s *service) Connect() error {
	token := s.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return ErrTimeout
	}
	if err := token.Error(); err != nil {
		return err
	}
	return s.publish(AvailabilityTopic, 1, true, []byte(payloadOnline))
}

// Disconnect marks the bridge offline before closing the connection.
func (s *service) Disconnect() {
	if err := s.publish(AvailabilityTopic, 1, true, []byte(payloadOffline)); err != nil {
		s.logger.Warn("failed to publish offline status", zap.Error(err))
	}
	s.client.Disconnect(250)
}

func (s *service) publish(topic string, qos byte, retained bool, payload []byte) error {
	token := s.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return ErrTimeout
	}
	return token.Error()
}
