package domain

import (
	"context"
	"math"
	"strings"
)

// mphToMPS converts miles per hour to meters per second.
const mphToMPS = 0.44704

// WindReading is a single wind measurement in geometry-friendly units.
type WindReading struct {
	SpeedMPS     float64  `json:"speed_mps"`
	DirectionDeg *float64 `json:"direction_deg"` // nil when unknown
}

// NewWindReading builds a reading, clamping negative and non-finite speeds to
// zero. A non-finite direction is dropped.
func NewWindReading(speedMPS float64, directionDeg *float64) WindReading {
	if directionDeg != nil && (math.IsNaN(*directionDeg) || math.IsInf(*directionDeg, 0)) {
		directionDeg = nil
	}
	return WindReading{SpeedMPS: clampSpeed(speedMPS), DirectionDeg: directionDeg}
}

// Direction returns a pointer to d, for building readings inline.
func Direction(d float64) *float64 {
	return &d
}

// WindSource supplies current wind for a named location.
type WindSource interface {
	FetchWind(ctx context.Context, location string, units Units) (WindReading, error)
}

// Units selects the unit system a provider reports wind speed in.
type Units string

const (
	UnitsStandard Units = "standard"
	UnitsMetric   Units = "metric"
	UnitsImperial Units = "imperial"
)

// ParseUnits normalizes a unit name. Unknown values fall back to metric.
func ParseUnits(s string) Units {
	switch u := Units(strings.ToLower(strings.TrimSpace(s))); u {
	case UnitsStandard, UnitsMetric, UnitsImperial:
		return u
	default:
		return UnitsMetric
	}
}

// ConvertSpeedToMPS converts a provider speed into meters per second.
// Standard and metric already report m/s.
func ConvertSpeedToMPS(speed float64, units Units) float64 {
	if units == UnitsImperial {
		return speed * mphToMPS
	}
	return speed
}

// FlowParams describes the scene geometry derived from the wind.
// It is a value type: transforms return modified copies.
type FlowParams struct {
	WindSpeedMPS     float64  `json:"wind_speed_mps"`
	WindDirectionDeg *float64 `json:"wind_direction_deg"`

	ClumpCount     int `json:"clump_count"`
	SpikesPerClump int `json:"spikes_per_clump"`

	SpikeLength float64 `json:"spike_length"`
	SpikeRadius float64 `json:"spike_radius"`

	ClumpRadius float64 `json:"clump_radius"`
	ClumpHeight float64 `json:"clump_height"`

	GlobalTwist float64 `json:"global_twist"`
}

// WithSpikeRadius returns a copy of p with the spike radius replaced.
func (p FlowParams) WithSpikeRadius(r float64) FlowParams {
	p.WindDirectionDeg = cloneFloat(p.WindDirectionDeg)
	p.SpikeRadius = r
	return p
}

// WithClumpCount returns a copy of p with the clump count replaced, floored at 1.
func (p FlowParams) WithClumpCount(n int) FlowParams {
	p.WindDirectionDeg = cloneFloat(p.WindDirectionDeg)
	p.ClumpCount = max(1, n)
	return p
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
