// Package domain models wind readings and the clump geometry derived from them.
//
// # Data Source
//
// Readings come from the OpenWeatherMap current-weather endpoint
// (https://api.openweathermap.org/data/2.5/weather) or from wind reports
// published on the Kafka source topic by an upstream collector. Either way the
// core only ever sees a [WindReading]: speed in meters per second and an
// optional compass direction in degrees.
//
// # Wind Conventions
//
// Speed units:
//
//	"metric" and "standard" report m/s and pass through unchanged.
//	"imperial" reports mph and is converted with 1 mph = 0.44704 m/s.
//	Negative speeds are treated as 0 m/s.
//
// Direction:
//
//	Meteorological degrees, 0–360, where the wind blows FROM.
//	Missing or non-numeric directions are kept as nil, not 0. The script
//	builder substitutes 0 only when it needs a hue anchor.
//
// # Bands
//
// Mapping is piecewise linear across four Beaufort-like bands:
//
//	calm   [0, 1.5)    few, chunky clumps
//	breeze [1.5, 7.5)  more clumps, gentle twist
//	fresh  [7.5, 13.5) taller, sharper spikes
//	gale   [13.5, ∞)   dense, thin spikes with strong twist
//
// Gale interpolates up to a 20 m/s ceiling. Speeds above the ceiling produce
// the gale maxima while the raw speed still flows through to metadata.
// Within a band every attribute grows with speed except spike radius, which
// shrinks. Band N always exceeds band N-1 at the same local position.
//
// # Atmosphere
//
// Optional NOAA-style signals ([AtmosphereSignal]) warp a mapped parameter
// set after the fact. Moisture (humidity, precipitation) swells spike radius;
// pressure gradients and lightning remap clump count. Missing signals drop out
// of the blend rather than counting as zero.
//
// # ID Generation
//
// Scene IDs are deterministic SHA-256 hashes of a [SceneKey]: location, wind,
// layout, seed, depth, atmosphere and climate. Replaying a wind report yields
// the same key downstream.
// See [GenerateSceneID].
package domain
