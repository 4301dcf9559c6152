package models

import (
	"time"
)

// CameraRef identifies the camera a computation belongs to
type CameraRef struct {
	ID       string `json:"camera_id"`
	Name     string `json:"camera_name"`
	Location string `json:"location,omitempty"`
}

// Camera is a registered camera together with its sample cutoff
type Camera struct {
	CameraRef

	// DataValidFrom excludes samples taken before it from every analysis
	DataValidFrom *time.Time `json:"data_valid_from,omitempty"`
	RegisteredAt  time.Time  `json:"registered_at"`
	LastSampleAt  time.Time  `json:"last_sample_at"`
	SampleCount   int        `json:"sample_count"`
}

// Ref returns the identifying part of the camera
func (c Camera) Ref() CameraRef {
	return c.CameraRef
}

// Accepts reports whether a sample taken at ts passes the camera cutoff
func (c Camera) Accepts(ts time.Time) bool {
	return c.DataValidFrom == nil || !ts.Before(*c.DataValidFrom)
}

// SampleMessage is the wire shape of a density sample published by the capture pipeline.
// Derivatives are per second, as produced upstream.
type SampleMessage struct {
	ID            int64      `json:"id"`
	CameraID      string     `json:"camera_id"`
	CameraName    string     `json:"camera_name"`
	Location      string     `json:"location,omitempty"`
	DataValidFrom *time.Time `json:"data_valid_from,omitempty"`

	Timestamp    time.Time `json:"timestamp"`
	Density      float64   `json:"density"`
	PersonCount  int       `json:"person_count"`
	Velocity     *float64  `json:"density_velocity,omitempty"`
	Acceleration *float64  `json:"density_acceleration,omitempty"`
}

// Sample converts the message into the engine's sample type
func (m SampleMessage) Sample() DensitySample {
	return DensitySample{
		ID:                     m.ID,
		CameraID:               m.CameraID,
		Timestamp:              m.Timestamp,
		Density:                m.Density,
		PersonCount:            m.PersonCount,
		VelocityPerSecond:      m.Velocity,
		AccelerationPerSecond2: m.Acceleration,
	}
}

// Camera returns the registry view of the message sender
func (m SampleMessage) Camera() Camera {
	return Camera{
		CameraRef: CameraRef{
			ID:       m.CameraID,
			Name:     m.CameraName,
			Location: m.Location,
		},
		DataValidFrom: m.DataValidFrom,
	}
}
