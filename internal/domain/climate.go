package domain

// DefaultClimateHueSwing is the hue swing, in degrees, applied when a climate
// anomaly reaches ±1.
const DefaultClimateHueSwing = 25.0

// NormalizeAnomaly maps a sampled raster value from [lo, hi] onto [-1, 1],
// clamped. A degenerate range yields 0.
func NormalizeAnomaly(value, lo, hi float64) float64 {
	if hi == lo {
		return 0
	}
	t := (value - lo) / (hi - lo)
	return clamp(t*2-1, -1, 1)
}

// ClimateHueShift converts a normalized anomaly into a hue offset. Positive
// anomalies swing warm, negative swing cool. The anomaly is clamped to [-1, 1]
// and returned alongside the shift so callers can embed it as metadata.
func ClimateHueShift(anomaly, swingDeg float64) (clamped, shiftDeg float64) {
	clamped = clamp(anomaly, -1, 1)
	return clamped, clamped * swingDeg
}
