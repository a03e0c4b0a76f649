package domain

import (
	"context"
	"time"
)

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// WindReport is the JSON payload published by the upstream collector.
// Speed is expressed in Units; when it is absent the location is looked up
// against the configured weather source instead.
type WindReport struct {
	Location     string           `json:"location,omitempty"`
	SpeedMPS     *float64         `json:"speed_mps,omitempty"`
	DirectionDeg *float64         `json:"direction_deg,omitempty"`
	Units        string           `json:"units,omitempty"`
	Layout       string           `json:"layout,omitempty"`
	Seed         *int64           `json:"seed,omitempty"`
	MaxDepth     int              `json:"max_depth,omitempty"`
	Atmosphere   AtmosphereSignal `json:"atmosphere,omitzero"`
	Climate      *ClimateSample   `json:"climate,omitempty"`
	ObservedAt   time.Time        `json:"observed_at,omitzero"`
}

// ClimateSample is a normalized anomaly sampled from a climate raster.
type ClimateSample struct {
	Anomaly float64 `json:"anomaly"`           // -1..1
	Tag     string  `json:"tag,omitempty"`     // dataset label, e.g. "CHIRPS_1981-2020"
	HueDeg  float64 `json:"hue_deg,omitempty"` // swing at ±1, 0 means the default
}

// Scene is a generated EisenScript together with everything that shaped it.
type Scene struct {
	ID          string            `json:"id"`
	Location    string            `json:"location,omitempty"`
	Band        string            `json:"band"`
	Layout      string            `json:"layout"`
	Seed        int64             `json:"seed"`
	MaxDepth    int               `json:"max_depth"`
	Wind        WindReading       `json:"wind"`
	Flow        FlowParams        `json:"flow"`
	Atmosphere  *AtmosphereSignal `json:"atmosphere,omitempty"`
	Climate     *ClimateSample    `json:"climate,omitempty"`
	HueShiftDeg float64           `json:"hue_shift_deg"`
	Script      string            `json:"script"`
	ObservedAt  time.Time         `json:"observed_at,omitzero"`
	GeneratedAt time.Time         `json:"generated_at"`
}

// OutputEvent is the serialized form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}
