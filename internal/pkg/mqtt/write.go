package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"github.com/anicoll/acinfinity-integration/internal/pkg/entity"
	"github.com/anicoll/acinfinity-integration/internal/pkg/model"
)

// payloadNone makes Home Assistant show the entity as unknown.
const payloadNone = "None"

func ConfigTopic(platform model.Platform, deviceIdentifier, uniqueID string) string {
	return fmt.Sprintf("%s/%s/%s_%s/%s/config", DiscoveryPrefix, platform, model.Domain, deviceIdentifier, uniqueID)
}

func StateTopic(deviceIdentifier, key string) string {
	return fmt.Sprintf("%s/%s/%s/state", model.Domain, deviceIdentifier, key)
}

// Write publishes entity states. It satisfies the publisher registry.
func (s *service) Write(ctx context.Context, states []model.EntityState) error {
	for _, state := range states {
		if err := ctx.Err(); err != nil {
			return err
		}
		payload := payloadNone
		if state.Value != nil {
			payload = *state.Value
		}
		if err := s.publish(StateTopic(state.DeviceIdentifier, state.Key), 0, false, []byte(payload)); err != nil {
			return fmt.Errorf("publishing state of %s: %w", state.UniqueID, err)
		}
	}
	return nil
}

// PublishDiscovery publishes the retained discovery config for e and
// returns the topic it was published on.
func (s *service) PublishDiscovery(ctx context.Context, e *entity.Entity) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	topic := ConfigTopic(e.Platform, e.Device.Identifier, e.UniqueID)
	payload, err := json.Marshal(RegisterMessage(e))
	if err != nil {
		return "", err
	}
	if err := s.publish(topic, 1, true, payload); err != nil {
		return "", fmt.Errorf("publishing discovery for %s: %w", e.UniqueID, err)
	}
	s.logger.Debug("published discovery config", zap.String("unique_id", e.UniqueID), zap.String("topic", topic))
	return topic, nil
}

// ClearDiscovery removes a retained discovery config, which makes Home
// Assistant drop the entity.
func (s *service) ClearDiscovery(ctx context.Context, topic string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.publish(topic, 1, true, nil)
}

func RegisterMessage(e *entity.Entity) model.RegisterMessage {
	msg := model.RegisterMessage{
		Name:              e.Name,
		ID:                e.UniqueID,
		ObjectID:          objectID(e),
		StateTopic:        StateTopic(e.Device.Identifier, e.Key),
		AvailabilityTopic: AvailabilityTopic,
		DeviceClass:       string(e.DeviceClass),
		StateClass:        string(e.StateClass),
		Unit:              e.Unit.String(),
		Icon:              e.Icon,
		EntityCategory:    string(e.EntityCategory),
		Device: model.RegisterDevice{
			Name:         e.Device.Name,
			Identifiers:  []string{fmt.Sprintf("%s_%s", model.Domain, e.Device.Identifier)},
			Model:        e.Device.Model,
			Manufacturer: model.Manufacturer,
			SWVersion:    e.Device.SWVersion,
			HWVersion:    e.Device.HWVersion,
		},
	}
	if e.Device.ViaDevice != "" {
		msg.Device.ViaDevice = fmt.Sprintf("%s_%s", model.Domain, e.Device.ViaDevice)
	}
	if e.Platform == model.PlatformBinarySensor {
		msg.PayloadOn = entity.StateOn
		msg.PayloadOff = entity.StateOff
	}
	return msg
}

func objectID(e *entity.Entity) string {
	return strings.ReplaceAll(slug.Make(e.Device.Name+" "+e.Name), "-", "_")
}
