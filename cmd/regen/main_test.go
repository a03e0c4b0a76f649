package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bseverns/pointy-clumps/internal/domain"
	"github.com/bseverns/pointy-clumps/internal/eisenscript"
	"github.com/bseverns/pointy-clumps/internal/observability"
	"github.com/bseverns/pointy-clumps/internal/scene"
)

func TestExampleFilenames(t *testing.T) {
	var names []string
	for _, ex := range examples() {
		names = append(names, ex.filename())
	}
	assert.Equal(t, []string{
		"calm_demo_xx_ring.es",
		"breeze_demo_xx_tower.es",
		"fresh_demo_xx_ring.es",
		"gale_demo_xx_tower.es",
	}, names)
}

func TestExamplesFallbackCoversEveryBand(t *testing.T) {
	for _, ex := range examples() {
		assert.Equal(t, ex.label, domain.ClassifyBand(ex.fallback.SpeedMPS).Name, ex.location)
	}
}

func TestRegenerate_FallsBackWithoutSource(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gen := scene.NewGenerator(nil, scene.DefaultDefaults(), observability.NewMetricsForTesting(), logger)
	dir := filepath.Join(t.TempDir(), "examples")

	var stdout, stderr bytes.Buffer
	require.NoError(t, regenerate(context.Background(), gen, dir, &stdout, &stderr))

	for _, ex := range examples() {
		data, err := os.ReadFile(filepath.Join(dir, ex.filename()))
		require.NoError(t, err)
		script := string(data)
		require.NoError(t, eisenscript.Validate(script), ex.filename())
		assert.Contains(t, script, "// Layout: "+ex.layout)
		assert.Contains(t, script, fmt.Sprintf("set seed %d\n", ex.seed))
	}
	assert.Contains(t, stderr.String(), "Used fallback wind for Gale Demo,XX [tower]")
	assert.Contains(t, stdout.String(), "band=gale")
}

func TestRegenerate_IsReproducible(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gen := scene.NewGenerator(nil, scene.DefaultDefaults(), observability.NewMetricsForTesting(), logger)
	a, b := t.TempDir(), t.TempDir()

	require.NoError(t, regenerate(context.Background(), gen, a, io.Discard, io.Discard))
	require.NoError(t, regenerate(context.Background(), gen, b, io.Discard, io.Discard))

	for _, ex := range examples() {
		first, err := os.ReadFile(filepath.Join(a, ex.filename()))
		require.NoError(t, err)
		second, err := os.ReadFile(filepath.Join(b, ex.filename()))
		require.NoError(t, err)
		assert.Equal(t, string(first), string(second))
	}
}
