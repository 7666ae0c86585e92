package model

type RegisterDevice struct {
	Name         string   `json:"name"`
	Identifiers  []string `json:"identifiers"`
	Model        string   `json:"model,omitempty"`
	Manufacturer string   `json:"manufacturer"`
	SWVersion    string   `json:"sw_version,omitempty"`
	HWVersion    string   `json:"hw_version,omitempty"`
	ViaDevice    string   `json:"via_device,omitempty"`
}

// RegisterMessage is the retained Home Assistant MQTT discovery payload for
// a single entity.
type RegisterMessage struct {
	Name              string         `json:"name"`
	ID                string         `json:"unique_id"`
	ObjectID          string         `json:"object_id"`
	StateTopic        string         `json:"state_topic"`
	AvailabilityTopic string         `json:"availability_topic,omitempty"`
	DeviceClass       string         `json:"device_class,omitempty"`
	StateClass        string         `json:"state_class,omitempty"`
	Unit              string         `json:"unit_of_measurement,omitempty"`
	Icon              string         `json:"icon,omitempty"`
	EntityCategory    string         `json:"entity_category,omitempty"`
	PayloadOn         string         `json:"payload_on,omitempty"`
	PayloadOff        string         `json:"payload_off,omitempty"`
	Device            RegisterDevice `json:"device"`
}

// Device is a registry device: a controller, one of its ports or an
// accessory sensor. Identifier is unique within the integration.
type Device struct {
	Identifier string `json:"identifier"`
	EntryID    string `json:"entry_id"`
	Name       string `json:"name"`
	Model      string `json:"model"`
	ViaDevice  string `json:"via_device,omitempty"`
	SWVersion  string `json:"sw_version,omitempty"`
	HWVersion  string `json:"hw_version,omitempty"`
}

// RegisteredEntity is what the registry remembers about an entity so it can
// withdraw the discovery config later.
type RegisteredEntity struct {
	UniqueID         string   `json:"unique_id"`
	DeviceIdentifier string   `json:"device_identifier"`
	Platform         Platform `json:"platform"`
	ConfigTopic      string   `json:"config_topic"`
}
