package model

import "time"

// EntityState is one rendered entity value, ready to publish.
type EntityState struct {
	UniqueID         string    `json:"unique_id"`
	DeviceIdentifier string    `json:"device_identifier"`
	Key              string    `json:"key"`
	Platform         Platform  `json:"platform"`
	Value            *string   `json:"value"`
	Unit             string    `json:"unit_of_measurement,omitempty"`
	TimeStamp        time.Time `json:"timestamp"`
}
