package domain

import "math"

// Band is a contiguous wind-speed interval with its own output ranges.
type Band struct {
	Name string
	Min  float64 // inclusive, m/s
	Max  float64 // interpolation ceiling, m/s

	clumps      [2]float64
	spikes      [2]float64
	length      [2]float64
	radius      [2]float64 // larger → smaller
	clumpRadius [2]float64
	clumpHeight [2]float64
	twist       [2]float64
}

// bands are ordered by speed. Every range grows band-to-band except radius,
// which shrinks.
var bands = []Band{
	{
		Name: "calm", Min: 0.0, Max: 1.5,
		clumps: [2]float64{3, 5}, spikes: [2]float64{12, 40},
		length: [2]float64{0.6, 1.2}, radius: [2]float64{0.32, 0.24},
		clumpRadius: [2]float64{1.0, 2.0}, clumpHeight: [2]float64{0.4, 0.8},
		twist: [2]float64{-5.0, 5.0},
	},
	{
		Name: "breeze", Min: 1.5, Max: 7.5,
		clumps: [2]float64{5, 9}, spikes: [2]float64{40, 80},
		length: [2]float64{1.2, 2.0}, radius: [2]float64{0.24, 0.18},
		clumpRadius: [2]float64{2.0, 3.5}, clumpHeight: [2]float64{0.8, 1.5},
		twist: [2]float64{5.0, 15.0},
	},
	{
		Name: "fresh", Min: 7.5, Max: 13.5,
		clumps: [2]float64{9, 13}, spikes: [2]float64{80, 130},
		length: [2]float64{2.0, 3.0}, radius: [2]float64{0.18, 0.11},
		clumpRadius: [2]float64{3.5, 5.0}, clumpHeight: [2]float64{1.5, 2.3},
		twist: [2]float64{15.0, 30.0},
	},
	{
		Name: "gale", Min: 13.5, Max: 20.0,
		clumps: [2]float64{13, 18}, spikes: [2]float64{130, 190},
		length: [2]float64{3.0, 4.2}, radius: [2]float64{0.11, 0.06},
		clumpRadius: [2]float64{5.0, 7.0}, clumpHeight: [2]float64{2.3, 3.2},
		twist: [2]float64{30.0, 50.0},
	},
}

// Bands returns the band table in speed order.
func Bands() []Band {
	out := make([]Band, len(bands))
	copy(out, bands)
	return out
}

// ClassifyBand returns the band a speed falls into. Negative and non-finite
// speeds are calm; anything at or above the gale threshold is gale.
func ClassifyBand(speedMPS float64) Band {
	speed := clampSpeed(speedMPS)
	for _, b := range bands[:len(bands)-1] {
		if speed < b.Max {
			return b
		}
	}
	return bands[len(bands)-1]
}

// localNorm positions speed within the band on [0, 1]. Speeds past the ceiling
// clamp to 1.
func (b Band) localNorm(speed float64) float64 {
	if b.Max <= b.Min {
		return 0
	}
	return clamp01((speed - b.Min) / (b.Max - b.Min))
}

// MapWindToFlow maps a wind reading onto a family of clumpy, pointy shapes.
// It never fails: negative and non-finite speeds are treated as zero, and the
// direction is carried through untouched.
func MapWindToFlow(reading WindReading) FlowParams {
	speed := clampSpeed(reading.SpeedMPS)
	band := ClassifyBand(speed)
	t := band.localNorm(speed)

	return FlowParams{
		WindSpeedMPS:     speed,
		WindDirectionDeg: cloneFloat(reading.DirectionDeg),
		ClumpCount:       max(1, roundInt(lerpRange(band.clumps, t))),
		SpikesPerClump:   max(1, roundInt(lerpRange(band.spikes, t))),
		SpikeLength:      lerpRange(band.length, t),
		SpikeRadius:      lerpRange(band.radius, t),
		ClumpRadius:      lerpRange(band.clumpRadius, t),
		ClumpHeight:      lerpRange(band.clumpHeight, t),
		GlobalTwist:      lerpRange(band.twist, t),
	}
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func lerpRange(r [2]float64, t float64) float64 {
	return lerp(r[0], r[1], t)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}

// clampSpeed maps NaN, ±Inf and negative speeds to zero. The builtin max
// would let NaN through.
func clampSpeed(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// roundInt rounds to nearest, ties to even.
func roundInt(v float64) int {
	return int(math.RoundToEven(v))
}
