package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bseverns/pointy-clumps/internal/domain"
	"github.com/bseverns/pointy-clumps/internal/observability"
	"github.com/bseverns/pointy-clumps/internal/pipeline"
	"github.com/bseverns/pointy-clumps/internal/scene"
)

// --- mocks ---

type mockExtractor struct {
	batches [][]domain.RawEvent
	errs    []error
	calls   atomic.Int64
}

func (m *mockExtractor) ExtractBatch(ctx context.Context, _ int) ([]domain.RawEvent, error) {
	i := int(m.calls.Add(1) - 1)
	if i < len(m.errs) && m.errs[i] != nil {
		return nil, m.errs[i]
	}
	if i >= len(m.batches) {
		// block until context cancelled to simulate waiting for messages
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return m.batches[i], nil
}

type mockTransformer struct {
	err error
}

func (m *mockTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	if m.err != nil {
		return domain.OutputEvent{}, m.err
	}
	return domain.OutputEvent{Key: raw.Key, Value: raw.Value}, nil
}

type mockLoader struct {
	loaded   []domain.OutputEvent
	failures int
	calls    int
}

func (m *mockLoader) LoadBatch(_ context.Context, events []domain.OutputEvent) error {
	m.calls++
	if m.calls <= m.failures {
		return errors.New("broker unavailable")
	}
	m.loaded = append(m.loaded, events...)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testOptions() pipeline.Options {
	return pipeline.Options{BatchSize: 10, MinBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}
}

func runFor(t *testing.T, p *pipeline.Pipeline, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	require.NoError(t, p.Run(ctx))
}

func makeRawEvent(t *testing.T, key string, report domain.WindReport) domain.RawEvent {
	t.Helper()
	data, err := json.Marshal(report)
	require.NoError(t, err)
	return domain.RawEvent{Key: []byte(key), Value: data, Topic: "wind-readings"}
}

func speed(v float64) *float64 { return &v }

// --- pipeline tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	raw := makeRawEvent(t, "r-1", domain.WindReport{SpeedMPS: speed(4)})

	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	ldr := &mockLoader{}
	metrics := observability.NewMetricsForTesting()

	p := pipeline.New(ext, &mockTransformer{}, ldr, discardLogger(), metrics, testOptions())
	require.Error(t, p.CheckReadiness(context.Background()))

	runFor(t, p, 200*time.Millisecond)

	require.Len(t, ldr.loaded, 1)
	assert.Equal(t, raw.Value, ldr.loaded[0].Value)
	assert.True(t, p.Ready())
	require.NoError(t, p.CheckReadiness(context.Background()))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.MessagesConsumed))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.MessagesProduced))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.PipelineRunning))
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	ldr := &mockLoader{}
	p := pipeline.New(&mockExtractor{}, &mockTransformer{}, ldr, discardLogger(), observability.NewMetricsForTesting(), testOptions())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, p.Run(ctx))
	assert.Empty(t, ldr.loaded)
}

func TestPipeline_Run_TransformErrorCommitsAndSkips(t *testing.T) {
	var committed atomic.Bool
	raw := makeRawEvent(t, "r-2", domain.WindReport{})
	raw.Commit = func(_ context.Context) error {
		committed.Store(true)
		return nil
	}

	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	ldr := &mockLoader{}
	metrics := observability.NewMetricsForTesting()

	p := pipeline.New(ext, &mockTransformer{err: domain.ErrInvalidReport}, ldr, discardLogger(), metrics, testOptions())
	runFor(t, p, 200*time.Millisecond)

	assert.Empty(t, ldr.loaded)
	assert.Zero(t, ldr.calls, "an all-failed batch must not reach the loader")
	assert.False(t, p.Ready())
	assert.True(t, committed.Load(), "poison reports are committed so they are not redelivered")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.TransformErrors))
}

func TestPipeline_Run_CommitsAfterLoad(t *testing.T) {
	var commits atomic.Int32
	batch := make([]domain.RawEvent, 3)
	for i := range batch {
		batch[i] = makeRawEvent(t, "r", domain.WindReport{SpeedMPS: speed(float64(i))})
		batch[i].Offset = int64(i)
		batch[i].Commit = func(_ context.Context) error {
			commits.Add(1)
			return nil
		}
	}

	ext := &mockExtractor{batches: [][]domain.RawEvent{batch}}
	ldr := &mockLoader{}
	p := pipeline.New(ext, &mockTransformer{}, ldr, discardLogger(), observability.NewMetricsForTesting(), testOptions())
	runFor(t, p, 200*time.Millisecond)

	assert.Len(t, ldr.loaded, 3)
	assert.Equal(t, int32(3), commits.Load())
}

func TestPipeline_Run_LoadFailureDoesNotCommit(t *testing.T) {
	var commits atomic.Int32
	raw := makeRawEvent(t, "r-3", domain.WindReport{SpeedMPS: speed(2)})
	raw.Commit = func(_ context.Context) error {
		commits.Add(1)
		return nil
	}

	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	ldr := &mockLoader{failures: 1}
	p := pipeline.New(ext, &mockTransformer{}, ldr, discardLogger(), observability.NewMetricsForTesting(), testOptions())
	runFor(t, p, 200*time.Millisecond)

	assert.Empty(t, ldr.loaded)
	assert.Zero(t, commits.Load())
	assert.False(t, p.Ready())
}

func TestPipeline_Run_RecoversAfterExtractErrors(t *testing.T) {
	raw := makeRawEvent(t, "r-4", domain.WindReport{SpeedMPS: speed(2)})
	ext := &mockExtractor{
		errs:    []error{errors.New("leader not available"), errors.New("leader not available")},
		batches: [][]domain.RawEvent{nil, nil, {raw}},
	}
	ldr := &mockLoader{}

	p := pipeline.New(ext, &mockTransformer{}, ldr, discardLogger(), observability.NewMetricsForTesting(), testOptions())
	runFor(t, p, 300*time.Millisecond)

	assert.Len(t, ldr.loaded, 1)
	assert.GreaterOrEqual(t, ext.calls.Load(), int64(3))
}

// --- transformer tests ---

type recordingGenerator struct {
	locationCalls int
	readingCalls  int
	lastRequest   scene.Request
	err           error
	script        string
}

func (g *recordingGenerator) FromReading(reading domain.WindReading, req scene.Request) domain.Scene {
	g.readingCalls++
	g.lastRequest = req
	return domain.Scene{ID: "scene-test", Band: domain.ClassifyBand(reading.SpeedMPS).Name, Layout: "ring", Wind: reading, Script: g.script}
}

func (g *recordingGenerator) ForLocation(_ context.Context, req scene.Request) (domain.Scene, error) {
	g.locationCalls++
	g.lastRequest = req
	if g.err != nil {
		return domain.Scene{}, g.err
	}
	return domain.Scene{ID: "scene-loc", Band: "calm", Layout: "ring", Location: req.Location, Script: g.script}, nil
}

func realScene() *scene.Generator {
	return scene.NewGenerator(nil, scene.DefaultDefaults(), observability.NewMetricsForTesting(), discardLogger())
}

func TestSceneTransformer_InlineReading(t *testing.T) {
	tfm := pipeline.NewTransformer(realScene(), discardLogger())
	seed := int64(12)
	raw := makeRawEvent(t, "r-5", domain.WindReport{SpeedMPS: speed(4.2), DirectionDeg: speed(120), Layout: "tower", Seed: &seed})

	out, err := tfm.Transform(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "breeze", out.Headers["band"])
	assert.Equal(t, "tower", out.Headers["layout"])

	var s domain.Scene
	require.NoError(t, json.Unmarshal(out.Value, &s))
	assert.Equal(t, string(out.Key), s.ID)
	assert.Equal(t, int64(12), s.Seed)
	assert.Contains(t, s.Script, "y VERTICAL_STEP")
	assert.Contains(t, s.Script, "set seed 12")
}

func TestSceneTransformer_LocationOnlyUsesSource(t *testing.T) {
	gen := &recordingGenerator{script: validScript(t)}
	tfm := pipeline.NewTransformer(gen, discardLogger())

	out, err := tfm.Transform(context.Background(), makeRawEvent(t, "r-6", domain.WindReport{Location: "Oslo", Units: "imperial"}))
	require.NoError(t, err)
	assert.Equal(t, []byte("scene-loc"), out.Key)
	assert.Equal(t, 1, gen.locationCalls)
	assert.Zero(t, gen.readingCalls)

	want := scene.Request{Location: "Oslo", Units: domain.UnitsImperial}
	if diff := cmp.Diff(want, gen.lastRequest); diff != "" {
		t.Fatalf("request mismatch (-want +got):\n%s", diff)
	}
}

func TestSceneTransformer_SourceError(t *testing.T) {
	gen := &recordingGenerator{err: domain.ErrSourceUnavailable}
	tfm := pipeline.NewTransformer(gen, discardLogger())

	_, err := tfm.Transform(context.Background(), makeRawEvent(t, "r-7", domain.WindReport{Location: "Oslo"}))
	assert.True(t, errors.Is(err, domain.ErrSourceUnavailable))
}

func TestSceneTransformer_InvalidReport(t *testing.T) {
	tfm := pipeline.NewTransformer(realScene(), discardLogger())

	_, err := tfm.Transform(context.Background(), domain.RawEvent{Value: []byte("not json")})
	assert.True(t, errors.Is(err, domain.ErrInvalidReport))

	_, err = tfm.Transform(context.Background(), domain.RawEvent{Value: []byte(`{}`)})
	assert.True(t, errors.Is(err, domain.ErrInvalidReport))
}

func TestSceneTransformer_RejectsBrokenScript(t *testing.T) {
	gen := &recordingGenerator{script: "set seed 1"}
	tfm := pipeline.NewTransformer(gen, discardLogger())

	_, err := tfm.Transform(context.Background(), makeRawEvent(t, "r-8", domain.WindReport{SpeedMPS: speed(3)}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scene-test")
}

func validScript(t *testing.T) string {
	t.Helper()
	seed := int64(1)
	return realScene().FromReading(domain.WindReading{SpeedMPS: 1}, scene.Request{Seed: &seed}).Script
}
