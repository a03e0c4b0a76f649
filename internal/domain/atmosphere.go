package domain

import "math"

// Normalization spans and blend weights for the atmosphere transforms.
const (
	humidityMaxPercent   = 100.0
	precipitationMaxMMHr = 20.0
	humidityWeight       = 0.6
	precipitationWeight  = 0.4

	standardPressureHPa  = 1013.25
	pressureDeltaSpanHPa = 35.0
	lightningMaxPerHr    = 12.0
	pressureWeight       = 0.7
	lightningWeight      = 0.3

	puffMinFactor = 0.75
	puffMaxFactor = 1.45
	clumpMinScale = 0.6
	clumpMaxScale = 1.6
)

// AtmosphereSignal is the subset of NOAA-style fields used to warp geometry.
// Every field is independently optional.
type AtmosphereSignal struct {
	PrecipitationRateMMHr *float64 `json:"precipitation_rate_mm_hr,omitempty"`
	HumidityPercent       *float64 `json:"humidity_percent,omitempty"`
	BarometricPressureHPa *float64 `json:"barometric_pressure_hpa,omitempty"`
	LightningStrikesPerHr *float64 `json:"lightning_strikes_per_hr,omitempty"`
}

// IsZero reports whether no signal is present.
func (a AtmosphereSignal) IsZero() bool {
	return a.PrecipitationRateMMHr == nil && a.HumidityPercent == nil &&
		a.BarometricPressureHPa == nil && a.LightningStrikesPerHr == nil
}

// contribution is one normalized signal and its blend weight.
type contribution struct {
	value  float64
	weight float64
}

// blend collects contributions from the signals that are present and returns
// their weighted mean, re-normalized by the weight actually present.
// ok is false when nothing contributed.
type blend []contribution

func (b *blend) add(value *float64, weight float64) {
	if value == nil {
		return
	}
	*b = append(*b, contribution{value: *value, weight: weight})
}

func (b blend) mean() (float64, bool) {
	var sum, weights float64
	for _, c := range b {
		sum += c.value * c.weight
		weights += c.weight
	}
	if weights == 0 {
		return 0, false
	}
	return sum / weights, true
}

// normalize maps v from [lo, hi] onto [0, 1], clamped. Nil in, nil out.
func normalize(v *float64, lo, hi float64) *float64 {
	if v == nil || hi <= lo {
		return nil
	}
	n := clamp01((*v - lo) / (hi - lo))
	return &n
}

// ApplyMoisturePuffiness blends humidity and precipitation into spike radius,
// scaling it between 0.75x (bone dry) and 1.45x (soaked). Returns p unchanged
// when neither signal is present.
func ApplyMoisturePuffiness(p FlowParams, a AtmosphereSignal) FlowParams {
	var b blend
	b.add(normalize(a.HumidityPercent, 0, humidityMaxPercent), humidityWeight)
	b.add(normalize(a.PrecipitationRateMMHr, 0, precipitationMaxMMHr), precipitationWeight)

	moisture, ok := b.mean()
	if !ok {
		return p
	}
	factor := lerp(puffMinFactor, puffMaxFactor, moisture)
	return p.WithSpikeRadius(p.SpikeRadius * factor)
}

// ApplyPressureClumping uses the barometric gradient and lightning rate to
// remap clump count between 0.6x and 1.6x of the original. Returns p unchanged
// when neither signal is present.
func ApplyPressureClumping(p FlowParams, a AtmosphereSignal) FlowParams {
	var pressure *float64
	if a.BarometricPressureHPa != nil {
		delta := math.Abs(*a.BarometricPressureHPa-standardPressureHPa) / pressureDeltaSpanHPa
		norm := clamp01(delta)
		pressure = &norm
	}

	var b blend
	b.add(pressure, pressureWeight)
	b.add(normalize(a.LightningStrikesPerHr, 0, lightningMaxPerHr), lightningWeight)

	gradient, ok := b.mean()
	if !ok {
		return p
	}

	n := float64(p.ClumpCount)
	lo := float64(max(1, roundInt(n*clumpMinScale)))
	hi := float64(max(1, roundInt(n*clumpMaxScale)))
	return p.WithClumpCount(roundInt(lerp(lo, hi, gradient)))
}

// ApplyAtmosphere runs moisture puffiness then pressure clumping. The two
// touch disjoint fields, so the order does not change the result.
func ApplyAtmosphere(p FlowParams, a AtmosphereSignal) FlowParams {
	return ApplyPressureClumping(ApplyMoisturePuffiness(p, a), a)
}
