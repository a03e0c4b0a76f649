package eisenscript

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"

	"github.com/bseverns/pointy-clumps/internal/domain"
)

// DefaultMaxDepth is the recursion depth used when Options leaves it unset.
const DefaultMaxDepth = 60

const (
	maxObjects       = 300000
	hueVariantOffset = 15.0
	towerStepFactor  = 1.4
)

const header = `/*
  Wind-Driven Pointy Clumps
  Auto-generated EisenScript.

  This file was produced by wind_clump, using live wind data to steer:
    - clump count
    - spikes per clump
    - spike length / thickness
    - twist and spread

  Open this in Structure Synth and export as OBJ to continue the journey.
*/`

const ringRule = `
// Start rule: a ring of clumps, wrapped around the origin.
rule scene {
  CLUMP_COUNT * {
    ry ANGLE_STEP
  } clump
}
`

const towerRule = `
// Start rule: a vertical tower of clumps, rising with the flow.
rule scene {
  CLUMP_COUNT * {
    y VERTICAL_STEP
  } clump
}
`

const subRules = `
// Each clump is pushed outward and twisted with the flow.
rule clump {
  {
    ry WIND_DIRECTION_DEG
    rz GLOBAL_TWIST
    x CLUMP_RADIUS
  } spike_cluster
}

// A clump is a dense cluster of slender spikes.
rule spike_cluster {
  SPIKES_PER_CLUMP * {
    y CLUMP_HEIGHT
    s SPIKE_RADIUS SPIKE_RADIUS SPIKE_LENGTH
  } spike
}

// Pointy spikes: three slight variations, randomly chosen.
rule spike {
  { hue BASE_HUE sat 90 b 90 a 90 } box
}

rule spike w 2 {
  { ry 10 hue HUE_VARIANT_1 sat 80 b 95 a 85 } box
}

rule spike w 2 {
  { ry -10 hue HUE_VARIANT_2 sat 80 b 80 a 80 } box
}
`

// Layout selects how clumps are arranged by the scene rule.
type Layout string

const (
	LayoutRing  Layout = "ring"
	LayoutTower Layout = "tower"
)

// ParseLayout lowercases s and falls back to LayoutRing for anything unknown.
func ParseLayout(s string) Layout {
	switch l := Layout(strings.ToLower(strings.TrimSpace(s))); l {
	case LayoutRing, LayoutTower:
		return l
	default:
		return LayoutRing
	}
}

// Options controls everything about a script that the flow parameters don't.
type Options struct {
	MaxDepth       int
	Seed           *int64 // nil draws a random seed
	Layout         Layout
	HueShiftDeg    float64
	ClimateTag     *string
	ClimateAnomaly *float64
}

// DefaultOptions returns a ring layout at the default depth with a random seed.
func DefaultOptions() Options {
	return Options{MaxDepth: DefaultMaxDepth, Layout: LayoutRing}
}

// RandomSeed draws a non-negative 31-bit seed.
func RandomSeed() int64 {
	return rand.Int64N(1 << 31)
}

// Build renders flow parameters as an EisenScript grammar.
// The output is deterministic whenever opts.Seed is set.
func Build(p domain.FlowParams, opts Options) string {
	direction := 0.0
	if p.WindDirectionDeg != nil {
		direction = *p.WindDirectionDeg
	}
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	seed := RandomSeed()
	if opts.Seed != nil {
		seed = *opts.Seed
	}
	layout := ParseLayout(string(opts.Layout))

	baseHue := wrapHue(direction + opts.HueShiftDeg)
	clumpCount := max(1, p.ClumpCount)

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "// Layout: %s\n\n", layout)

	fmt.Fprintf(&b, "set maxdepth %d\n", maxDepth)
	fmt.Fprintf(&b, "set maxobjects %d\n", maxObjects)
	fmt.Fprintf(&b, "set seed %d\n", seed)
	b.WriteString("set background #000000\n\n")

	b.WriteString("// Wind metadata\n")
	define(&b, "WIND_SPEED_MPS", p.WindSpeedMPS)
	define(&b, "WIND_DIRECTION_DEG", direction)
	b.WriteString("\n")

	b.WriteString("// Palette metadata\n")
	define(&b, "HUE_SHIFT_DEG", opts.HueShiftDeg)
	if opts.ClimateTag != nil {
		fmt.Fprintf(&b, "#define CLIMATE_TAG \"%s\"\n", sanitizeTag(*opts.ClimateTag))
	}
	if opts.ClimateAnomaly != nil {
		define(&b, "CLIMATE_ANOMALY", *opts.ClimateAnomaly)
	}
	b.WriteString("\n")

	b.WriteString("// Derived color anchors\n")
	define(&b, "BASE_HUE", baseHue)
	define(&b, "HUE_VARIANT_1", wrapHue(baseHue+hueVariantOffset))
	define(&b, "HUE_VARIANT_2", wrapHue(baseHue-hueVariantOffset))
	b.WriteString("\n")

	b.WriteString("// Clump geometry\n")
	fmt.Fprintf(&b, "#define CLUMP_COUNT %d\n", clumpCount)
	fmt.Fprintf(&b, "#define SPIKES_PER_CLUMP %d\n", p.SpikesPerClump)
	define(&b, "SPIKE_LENGTH", p.SpikeLength)
	define(&b, "SPIKE_RADIUS", p.SpikeRadius)
	define(&b, "CLUMP_RADIUS", p.ClumpRadius)
	define(&b, "CLUMP_HEIGHT", p.ClumpHeight)
	define(&b, "GLOBAL_TWIST", p.GlobalTwist)
	define(&b, "ANGLE_STEP", 360.0/float64(clumpCount))
	define(&b, "VERTICAL_STEP", p.ClumpHeight*towerStepFactor)

	if layout == LayoutTower {
		b.WriteString(towerRule)
	} else {
		b.WriteString(ringRule)
	}
	b.WriteString(subRules)

	return b.String()
}

// define writes a numeric define. Values that would print as -0.000 print as
// 0.000.
func define(b *strings.Builder, name string, v float64) {
	if math.Abs(v) < 0.0005 {
		v = 0
	}
	fmt.Fprintf(b, "#define %s %.3f\n", name, v)
}

// wrapHue maps any angle into [0, 360).
func wrapHue(deg float64) float64 {
	h := math.Mod(deg, 360)
	if h < 0 {
		h += 360
	}
	if h == 0 {
		return 0 // drop the sign of -0
	}
	return h
}

// sanitizeTag keeps the tag printable inside a quoted define.
func sanitizeTag(tag string) string {
	tag = strings.ReplaceAll(tag, `"`, "'")
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' {
			return ' '
		}
		return r
	}, tag)
}
