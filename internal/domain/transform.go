package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseWindReport deserializes a RawEvent's value into a WindReport.
// ObservedAt falls back to the message timestamp when the payload omits it.
func ParseWindReport(raw RawEvent) (WindReport, error) {
	var report WindReport
	if err := json.Unmarshal(raw.Value, &report); err != nil {
		return WindReport{}, fmt.Errorf("parse wind report: %w: %w", ErrInvalidReport, err)
	}

	report.Location = strings.TrimSpace(report.Location)
	if report.SpeedMPS == nil && report.Location == "" {
		return WindReport{}, fmt.Errorf("parse wind report: %w: needs speed_mps or location", ErrInvalidReport)
	}
	if report.ObservedAt.IsZero() {
		report.ObservedAt = raw.Timestamp
	}

	return report, nil
}

// Reading converts the report's inline measurement into a WindReading.
// ok is false when the report carries no speed and must be resolved against
// a weather source.
func (r WindReport) Reading() (reading WindReading, ok bool) {
	if r.SpeedMPS == nil {
		return WindReading{}, false
	}
	speed := ConvertSpeedToMPS(*r.SpeedMPS, ParseUnits(r.Units))
	return NewWindReading(speed, cloneFloat(r.DirectionDeg)), true
}

// SceneKey is every input that shapes a scene's script, after defaults have
// been resolved.
type SceneKey struct {
	Location   string
	Reading    WindReading
	Layout     string
	Seed       int64
	MaxDepth   int
	Atmosphere AtmosphereSignal
	Climate    *ClimateSample // resolved anomaly and swing; nil when absent
}

// GenerateSceneID produces a deterministic ID from a SceneKey. Reprocessing
// the same report with the same seed yields the same ID; changing any input
// that alters the script changes it.
func GenerateSceneID(k SceneKey) string {
	fields := []string{
		strings.ToLower(k.Location),
		fmt.Sprintf("%.3f", k.Reading.SpeedMPS),
		optional(k.Reading.DirectionDeg),
		k.Layout,
		strconv.FormatInt(k.Seed, 10),
		strconv.Itoa(k.MaxDepth),
		optional(k.Atmosphere.PrecipitationRateMMHr),
		optional(k.Atmosphere.HumidityPercent),
		optional(k.Atmosphere.BarometricPressureHPa),
		optional(k.Atmosphere.LightningStrikesPerHr),
	}
	if c := k.Climate; c != nil {
		fields = append(fields, fmt.Sprintf("%.3f", c.Anomaly), c.Tag, fmt.Sprintf("%.3f", c.HueDeg))
	} else {
		fields = append(fields, "none")
	}
	hash := sha256.Sum256([]byte(strings.Join(fields, "|")))
	return "scene-" + hex.EncodeToString(hash[:8])
}

func optional(v *float64) string {
	if v == nil {
		return "none"
	}
	return fmt.Sprintf("%.3f", *v)
}

// SerializeScene marshals a Scene into an OutputEvent keyed by scene ID.
func SerializeScene(scene Scene) (OutputEvent, error) {
	data, err := json.Marshal(scene)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize scene: %w", err)
	}
	return OutputEvent{
		Key:   []byte(scene.ID),
		Value: data,
		Headers: map[string]string{
			"band":         scene.Band,
			"layout":       scene.Layout,
			"generated_at": scene.GeneratedAt.UTC().Format(time.RFC3339),
		},
	}, nil
}
