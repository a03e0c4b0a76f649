package eisenscript

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidScript is wrapped by every problem Validate reports.
var ErrInvalidScript = errors.New("invalid eisenscript")

// numericDefines must be present and parse as numbers in every generated script.
var numericDefines = []string{
	"WIND_SPEED_MPS",
	"WIND_DIRECTION_DEG",
	"HUE_SHIFT_DEG",
	"BASE_HUE",
	"HUE_VARIANT_1",
	"HUE_VARIANT_2",
	"CLUMP_COUNT",
	"SPIKES_PER_CLUMP",
	"SPIKE_LENGTH",
	"SPIKE_RADIUS",
	"CLUMP_RADIUS",
	"CLUMP_HEIGHT",
	"GLOBAL_TWIST",
	"ANGLE_STEP",
	"VERTICAL_STEP",
}

var requiredSettings = []string{"maxdepth", "maxobjects", "seed", "background"}

// ParseDefines collects every "#define NAME VALUE" line. Quoted values are
// returned without their quotes. Later definitions win.
func ParseDefines(script string) map[string]string {
	defines := make(map[string]string)
	for line := range strings.Lines(script) {
		line = strings.TrimSpace(line)
		rest, ok := strings.CutPrefix(line, "#define ")
		if !ok {
			continue
		}
		name, value, _ := strings.Cut(strings.TrimSpace(rest), " ")
		if name == "" {
			continue
		}
		value = strings.TrimSpace(value)
		if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
			value = value[1 : len(value)-1]
		}
		defines[name] = value
	}
	return defines
}

// Validate checks that script carries the settings, constants and rules a
// renderer expects from a generated scene. All problems are reported at once.
func Validate(script string) error {
	var errs []error

	settings := parseSettings(script)
	for _, name := range requiredSettings {
		if _, ok := settings[name]; !ok {
			errs = append(errs, fmt.Errorf("%w: missing set %s", ErrInvalidScript, name))
		}
	}
	for _, name := range []string{"maxdepth", "seed"} {
		if v, ok := settings[name]; ok {
			if _, err := strconv.ParseInt(v, 10, 64); err != nil {
				errs = append(errs, fmt.Errorf("%w: set %s %q is not an integer", ErrInvalidScript, name, v))
			}
		}
	}

	defines := ParseDefines(script)
	for _, name := range numericDefines {
		v, ok := defines[name]
		if !ok {
			errs = append(errs, fmt.Errorf("%w: missing #define %s", ErrInvalidScript, name))
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("%w: #define %s %q is not numeric", ErrInvalidScript, name, v))
		case math.IsNaN(f) || math.IsInf(f, 0):
			errs = append(errs, fmt.Errorf("%w: #define %s %q is not finite", ErrInvalidScript, name, v))
		}
	}
	if v, ok := defines["CLUMP_COUNT"]; ok {
		if n, err := strconv.Atoi(v); err == nil && n < 1 {
			errs = append(errs, fmt.Errorf("%w: CLUMP_COUNT must be at least 1", ErrInvalidScript))
		}
	}

	rules := countRules(script)
	for _, name := range []string{"scene", "clump", "spike_cluster"} {
		if rules[name] == 0 {
			errs = append(errs, fmt.Errorf("%w: missing rule %s", ErrInvalidScript, name))
		}
	}
	if rules["spike"] < 3 {
		errs = append(errs, fmt.Errorf("%w: want 3 spike variants, got %d", ErrInvalidScript, rules["spike"]))
	}

	return errors.Join(errs...)
}

func parseSettings(script string) map[string]string {
	settings := make(map[string]string)
	for line := range strings.Lines(script) {
		fields := strings.Fields(line)
		if len(fields) == 3 && fields[0] == "set" {
			settings[fields[1]] = fields[2]
		}
	}
	return settings
}

// countRules counts rule declarations by name, so weighted variants of the
// same rule each count once.
func countRules(script string) map[string]int {
	rules := make(map[string]int)
	for line := range strings.Lines(script) {
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[0] == "rule" {
			rules[fields[1]]++
		}
	}
	return rules
}
