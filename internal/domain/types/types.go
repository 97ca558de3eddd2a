// Package types contains the JSON shapes shared by the HTTP API and the
// service layer.
package types

import (
	"time"

	"github.com/okian/hydrophys/internal/domain/profile"
)

// PropertiesRequest asks for the properties of a single water parcel.
type PropertiesRequest struct {
	T float64 `json:"t"`
	P float64 `json:"p"`
	S float64 `json:"s"`
}

// Properties is the response to a PropertiesRequest.
type Properties struct {
	T                   float64 `json:"t"`
	P                   float64 `json:"p"`
	S                   float64 `json:"s"`
	Density             float64 `json:"density"`
	SoundSpeed          float64 `json:"sound_speed"`
	SoundSpeedPlausible bool    `json:"sound_speed_plausible"`
	FreezingPoint       float64 `json:"freezing_point"`
	Frozen              bool    `json:"frozen"`
}

// SolveRequest describes a depth or path solve. Gravity takes precedence
// over Latitude; an inline Profile takes precedence over ProfileID.
// A nil Intervals selects the service default.
type SolveRequest struct {
	ID              string          `json:"id,omitempty"`
	Kind            string          `json:"kind,omitempty"`
	Pressure        float64         `json:"pressure,omitempty"`
	SurfacePressure *float64        `json:"surface_pressure,omitempty"`
	TimeOfFlight    float64         `json:"tof,omitempty"`
	Gravity         *float64        `json:"gravity,omitempty"`
	Latitude        *float64        `json:"latitude,omitempty"`
	Intervals       *int            `json:"intervals,omitempty"`
	ProfileID       string          `json:"profile_id,omitempty"`
	Profile         profile.Profile `json:"profile,omitempty"`
}

// SolveResult is the response to a synchronous solve.
type SolveResult struct {
	Kind      string  `json:"kind"`
	Value     float64 `json:"value"`
	Unit      string  `json:"unit"`
	Gravity   float64 `json:"gravity"`
	Intervals int     `json:"intervals"`
	ProfileID string  `json:"profile_id,omitempty"`
}

// Gravity is the response to a gravity lookup.
type Gravity struct {
	Phi     float64 `json:"phi"`
	Degrees bool    `json:"degrees"`
	Gravity float64 `json:"gravity"`
}

// BatchRequest submits several solves for asynchronous processing.
type BatchRequest struct {
	Jobs []SolveRequest `json:"jobs"`
}

// BatchAccepted is the response to a BatchRequest.
type BatchAccepted struct {
	BatchID    string   `json:"batch_id"`
	JobIDs     []string `json:"job_ids"`
	Duplicates []string `json:"duplicates,omitempty"`
	Rejected   []string `json:"rejected,omitempty"`
}

// JobStatus reports the state of an asynchronous job.
type JobStatus struct {
	JobID      string     `json:"job_id"`
	BatchID    string     `json:"batch_id"`
	Kind       string     `json:"kind"`
	Status     string     `json:"status"`
	Value      *float64   `json:"value,omitempty"`
	Reason     string     `json:"reason,omitempty"`
	Message    string     `json:"message,omitempty"`
	Submitted  time.Time  `json:"submitted"`
	Completed  *time.Time `json:"completed,omitempty"`
	DurationMs float64    `json:"duration_ms,omitempty"`
}

// ProfileInfo lists a stored profile without its samples.
type ProfileInfo struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Latitude float64         `json:"latitude"`
	Summary  profile.Summary `json:"summary"`
}
