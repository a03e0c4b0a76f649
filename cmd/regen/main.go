// Command regen rebuilds the curated calm, breeze, fresh, and gale example
// scenes. Live wind is used when OPENWEATHER_API_KEY is set; each example
// falls back to a fixed reading when the lookup fails or no key is present.
//
// Usage:
//
//	go run ./cmd/regen -out generated/examples
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/bseverns/pointy-clumps/internal/adapter/openweather"
	"github.com/bseverns/pointy-clumps/internal/domain"
	"github.com/bseverns/pointy-clumps/internal/observability"
	"github.com/bseverns/pointy-clumps/internal/scene"
)

type example struct {
	location string
	layout   string
	seed     int64
	label    string
	fallback domain.WindReading
}

func examples() []example {
	return []example{
		{location: "Calm Demo,XX", layout: "ring", seed: 11, label: "calm", fallback: domain.NewWindReading(0.8, domain.Direction(35))},
		{location: "Breeze Demo,XX", layout: "tower", seed: 12, label: "breeze", fallback: domain.NewWindReading(4.2, domain.Direction(120))},
		{location: "Fresh Demo,XX", layout: "ring", seed: 13, label: "fresh", fallback: domain.NewWindReading(8.7, domain.Direction(205))},
		{location: "Gale Demo,XX", layout: "tower", seed: 14, label: "gale", fallback: domain.NewWindReading(18.0, domain.Direction(315))},
	}
}

// filename is the example's slugged location plus its layout.
func (e example) filename() string {
	slug := strings.NewReplacer(",", "_", " ", "_").Replace(strings.ToLower(e.location))
	return fmt.Sprintf("%s_%s.es", slug, e.layout)
}

func main() {
	_ = godotenv.Load()

	outDir := flag.String("out", "generated/examples", "directory to write the example .es files into")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	metrics := observability.NewMetrics()

	var source domain.WindSource
	if key := os.Getenv("OPENWEATHER_API_KEY"); key != "" {
		source = openweather.NewClient(key, 10*time.Second, metrics, logger)
	}

	gen := scene.NewGenerator(source, scene.DefaultDefaults(), metrics, logger)
	if err := regenerate(context.Background(), gen, *outDir, os.Stdout, os.Stderr); err != nil {
		log.Fatal(err)
	}
}

// regenerate writes every curated example into outDir. Lookup failures fall
// back to the example's fixed reading; only filesystem errors are fatal.
func regenerate(ctx context.Context, gen *scene.Generator, outDir string, stdout, stderr io.Writer) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", outDir, err)
	}

	for _, ex := range examples() {
		seed := ex.seed
		req := scene.Request{Location: ex.location, Layout: ex.layout, Seed: &seed, Units: domain.UnitsMetric}

		sc, err := gen.ForLocation(ctx, req)
		if err != nil {
			fmt.Fprintf(stderr, "Live wind unavailable for %s [%s]: %v\n", ex.location, ex.layout, err)
			sc = gen.FromReading(ex.fallback, req)
			fmt.Fprintf(stderr, "Used fallback wind for %s [%s] (speed=%.1f m/s).\n", ex.location, ex.layout, ex.fallback.SpeedMPS)
		}

		path := filepath.Join(outDir, ex.filename())
		if err := os.WriteFile(path, []byte(sc.Script), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		fmt.Fprintf(stdout, "Wrote %s for %s [%s] band=%s\n", path, ex.location, ex.layout, sc.Band)
	}
	return nil
}
