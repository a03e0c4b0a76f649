package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bseverns/pointy-clumps/internal/domain"
	"github.com/bseverns/pointy-clumps/internal/eisenscript"
	"github.com/bseverns/pointy-clumps/internal/scene"
)

// SceneGenerator builds scenes from inline readings or location lookups.
type SceneGenerator interface {
	FromReading(reading domain.WindReading, req scene.Request) domain.Scene
	ForLocation(ctx context.Context, req scene.Request) (domain.Scene, error)
}

// SceneTransformer implements Transformer. Reports with an inline speed are
// rendered directly; location-only reports go through the weather source.
type SceneTransformer struct {
	generator SceneGenerator
	logger    *slog.Logger
}

// NewTransformer creates a SceneTransformer.
func NewTransformer(generator SceneGenerator, logger *slog.Logger) *SceneTransformer {
	return &SceneTransformer{generator: generator, logger: logger}
}

func (t *SceneTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	report, err := domain.ParseWindReport(raw)
	if err != nil {
		return domain.OutputEvent{}, err
	}

	req := scene.RequestFromReport(report)

	var s domain.Scene
	if reading, ok := report.Reading(); ok {
		s = t.generator.FromReading(reading, req)
	} else {
		s, err = t.generator.ForLocation(ctx, req)
		if err != nil {
			return domain.OutputEvent{}, err
		}
	}

	if err := eisenscript.Validate(s.Script); err != nil {
		return domain.OutputEvent{}, fmt.Errorf("scene %s: %w", s.ID, err)
	}

	return domain.SerializeScene(s)
}
