package eisenscript

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bseverns/pointy-clumps/internal/domain"
)

func seedOf(t *testing.T, script string) int64 {
	t.Helper()
	for line := range strings.Lines(script) {
		if v, ok := strings.CutPrefix(strings.TrimSpace(line), "set seed "); ok {
			seed, err := strconv.ParseInt(v, 10, 64)
			require.NoError(t, err)
			return seed
		}
	}
	t.Fatal("script has no seed")
	return 0
}

func TestParseDefines(t *testing.T) {
	script := "#define A 1.000\n  #define B \"two words\"\n// #define C 3\n#define A 2.000\n#define\n"
	defines := ParseDefines(script)

	assert.Equal(t, map[string]string{"A": "2.000", "B": "two words"}, defines)
}

func TestValidate_GeneratedScriptsPass(t *testing.T) {
	for _, speed := range []float64{0, 3, 9, 25} {
		for _, layout := range []Layout{LayoutRing, LayoutTower} {
			flow := domain.MapWindToFlow(domain.WindReading{SpeedMPS: speed, DirectionDeg: domain.Direction(200)})
			script := Build(flow, seeded(3, layout, 12))
			assert.NoError(t, Validate(script), "speed %v layout %s", speed, layout)
		}
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	script := Build(sampleFlow(), seeded(3, LayoutRing, 12))
	broken := strings.Replace(script, "#define SPIKE_LENGTH 1.500\n", "", 1)
	broken = strings.Replace(broken, "rule spike_cluster {", "rule cluster {", 1)
	broken = strings.Replace(broken, "set seed 3", "set seed banana", 1)

	err := Validate(broken)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidScript))
	assert.Contains(t, err.Error(), "missing #define SPIKE_LENGTH")
	assert.Contains(t, err.Error(), "missing rule spike_cluster")
	assert.Contains(t, err.Error(), `set seed "banana" is not an integer`)
}

func TestValidate_RejectsNonFiniteDefines(t *testing.T) {
	flow := sampleFlow()
	flow.SpikeLength = math.NaN()
	flow.GlobalTwist = math.Inf(1)

	err := Validate(Build(flow, seeded(3, LayoutRing, 12)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `#define SPIKE_LENGTH "NaN" is not finite`)
	assert.Contains(t, err.Error(), `#define GLOBAL_TWIST "+Inf" is not finite`)
}

func TestValidate_SpikeVariants(t *testing.T) {
	script := Build(sampleFlow(), seeded(3, LayoutRing, 12))
	broken := strings.Replace(script, "rule spike w 2 {", "rule other w 2 {", 1)

	err := Validate(broken)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want 3 spike variants, got 2")
}

func TestValidate_EmptyScript(t *testing.T) {
	err := Validate("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing set maxdepth")
	assert.Contains(t, err.Error(), "missing rule scene")
}
