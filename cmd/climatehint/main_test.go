package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func TestBuildHint_NormalizesAnomaly(t *testing.T) {
	h, err := buildHint(sample{lat: 51.5, lon: -0.12, normal: f(42), anomaly: f(1.5), anomalyMin: f(-3), anomalyMax: f(3), tag: "ESA_SM"})

	require.NoError(t, err)
	assert.InDelta(t, 0.5, h.NormalizedAnomaly, 1e-12)
	assert.Equal(t, `-climate-anomaly 0.500 -climate-tag "ESA_SM"`, h.SuggestedFlags)
}

func TestBuildHint_NormalOnly(t *testing.T) {
	h, err := buildHint(sample{normal: f(12)})

	require.NoError(t, err)
	assert.Equal(t, 0.0, h.NormalizedAnomaly)
	assert.Nil(t, h.AnomalyValue)
	assert.Equal(t, `-climate-anomaly 0.000 -climate-tag "CLIMATE_NORMAL"`, h.SuggestedFlags)
}

func TestBuildHint_ClampsOutOfRange(t *testing.T) {
	h, err := buildHint(sample{anomaly: f(-10), anomalyMin: f(-3), anomalyMax: f(3)})
	require.NoError(t, err)
	assert.Equal(t, -1.0, h.NormalizedAnomaly)
}

func TestBuildHint_AnomalyNeedsRange(t *testing.T) {
	_, err := buildHint(sample{anomaly: f(1), anomalyMin: f(-3)})
	assert.Error(t, err)
}

func TestEmit_WritesJSON(t *testing.T) {
	h, err := buildHint(sample{lat: 1, lon: 2, anomaly: f(3), anomalyMin: f(-3), anomalyMax: f(3)})
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "hints", "sample.json")

	var stdout bytes.Buffer
	require.NoError(t, emit(h, path, &stdout))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, 1.0, got["normalized_anomaly"])
	assert.Nil(t, got["normal_value"])
	assert.Contains(t, stdout.String(), "Use these flags when calling windclump:")
}
