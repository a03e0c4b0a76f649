// Package scene turns wind readings and location lookups into complete,
// identified EisenScript scenes.
package scene

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bseverns/pointy-clumps/internal/domain"
	"github.com/bseverns/pointy-clumps/internal/eisenscript"
	"github.com/bseverns/pointy-clumps/internal/observability"
)

// Request carries everything about a scene other than the wind itself.
// Zero values fall back to the generator's Defaults.
type Request struct {
	Location   string
	Units      domain.Units
	Layout     string
	Seed       *int64
	MaxDepth   int
	Atmosphere domain.AtmosphereSignal
	Climate    *domain.ClimateSample
	ObservedAt time.Time
}

// RequestFromReport copies the scene options out of a pipeline wind report.
func RequestFromReport(r domain.WindReport) Request {
	var units domain.Units
	if r.Units != "" {
		units = domain.ParseUnits(r.Units)
	}
	return Request{
		Location:   r.Location,
		Units:      units,
		Layout:     r.Layout,
		Seed:       r.Seed,
		MaxDepth:   r.MaxDepth,
		Atmosphere: r.Atmosphere,
		Climate:    r.Climate,
		ObservedAt: r.ObservedAt,
	}
}

// Defaults fill in whatever a Request leaves unset.
type Defaults struct {
	MaxDepth        int
	Layout          eisenscript.Layout
	Units           domain.Units
	ClimateHueSwing float64
}

// DefaultDefaults mirrors the command-line tool's defaults.
func DefaultDefaults() Defaults {
	return Defaults{
		MaxDepth:        eisenscript.DefaultMaxDepth,
		Layout:          eisenscript.LayoutRing,
		Units:           domain.UnitsMetric,
		ClimateHueSwing: domain.DefaultClimateHueSwing,
	}
}

// Generator builds scenes. It is safe for concurrent use as long as its
// WindSource is.
type Generator struct {
	source   domain.WindSource
	defaults Defaults
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewGenerator creates a Generator. source may be nil, in which case only
// FromReading works and ForLocation reports ErrSourceUnavailable.
func NewGenerator(source domain.WindSource, defaults Defaults, metrics *observability.Metrics, logger *slog.Logger) *Generator {
	return &Generator{source: source, defaults: defaults, metrics: metrics, logger: logger}
}

// ForLocation fetches the current wind at req.Location and builds a scene from it.
func (g *Generator) ForLocation(ctx context.Context, req Request) (domain.Scene, error) {
	if g.source == nil {
		return domain.Scene{}, fmt.Errorf("%w: no weather source configured", domain.ErrSourceUnavailable)
	}
	if req.Location == "" {
		return domain.Scene{}, fmt.Errorf("%w: location is required", domain.ErrInvalidReport)
	}

	units := req.Units
	if units == "" {
		units = g.defaults.Units
	}
	reading, err := g.source.FetchWind(ctx, req.Location, units)
	if err != nil {
		return domain.Scene{}, fmt.Errorf("fetch wind for %q: %w", req.Location, err)
	}
	return g.FromReading(reading, req), nil
}

// FromReading builds a scene from a reading already in hand. The seed is
// resolved before rendering so the scene records exactly what produced it.
func (g *Generator) FromReading(reading domain.WindReading, req Request) domain.Scene {
	flow := domain.MapWindToFlow(reading)

	var atmosphere *domain.AtmosphereSignal
	if !req.Atmosphere.IsZero() {
		flow = domain.ApplyAtmosphere(flow, req.Atmosphere)
		a := req.Atmosphere
		atmosphere = &a
	}

	seed := eisenscript.RandomSeed()
	if req.Seed != nil {
		seed = *req.Seed
	}
	layoutName := req.Layout
	if layoutName == "" {
		layoutName = string(g.defaults.Layout)
	}
	layout := eisenscript.ParseLayout(layoutName)
	maxDepth := cmp.Or(max(0, req.MaxDepth), g.defaults.MaxDepth, eisenscript.DefaultMaxDepth)

	opts := eisenscript.Options{MaxDepth: maxDepth, Seed: &seed, Layout: layout}

	var climate *domain.ClimateSample
	if req.Climate != nil {
		swing := req.Climate.HueDeg
		if swing == 0 {
			swing = g.defaults.ClimateHueSwing
		}
		anomaly, shift := domain.ClimateHueShift(req.Climate.Anomaly, swing)
		opts.HueShiftDeg = shift
		opts.ClimateAnomaly = &anomaly
		if req.Climate.Tag != "" {
			tag := req.Climate.Tag
			opts.ClimateTag = &tag
		}
		climate = &domain.ClimateSample{Anomaly: anomaly, Tag: req.Climate.Tag, HueDeg: swing}
	}

	band := domain.ClassifyBand(reading.SpeedMPS).Name
	scene := domain.Scene{
		ID: domain.GenerateSceneID(domain.SceneKey{
			Location:   req.Location,
			Reading:    reading,
			Layout:     string(layout),
			Seed:       seed,
			MaxDepth:   opts.MaxDepth,
			Atmosphere: req.Atmosphere,
			Climate:    climate,
		}),
		Location:    req.Location,
		Band:        band,
		Layout:      string(layout),
		Seed:        seed,
		MaxDepth:    opts.MaxDepth,
		Wind:        reading,
		Flow:        flow,
		Atmosphere:  atmosphere,
		Climate:     climate,
		HueShiftDeg: opts.HueShiftDeg,
		Script:      eisenscript.Build(flow, opts),
		ObservedAt:  req.ObservedAt,
		GeneratedAt: domain.Now(),
	}

	g.metrics.ScenesGenerated.WithLabelValues(band, scene.Layout).Inc()
	g.logger.Debug("scene generated",
		"id", scene.ID,
		"band", band,
		"layout", scene.Layout,
		"clumps", flow.ClumpCount,
		"seed", seed,
	)
	return scene
}
