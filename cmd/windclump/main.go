// Command windclump fetches the current wind for a location from
// OpenWeatherMap and writes a pointy-clump EisenScript scene.
//
// Usage:
//
//	go run ./cmd/windclump -api-key $KEY -layout tower -seed 12 "London,UK"
package main

import (
	"cmp"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/bseverns/pointy-clumps/internal/adapter/openweather"
	"github.com/bseverns/pointy-clumps/internal/domain"
	"github.com/bseverns/pointy-clumps/internal/eisenscript"
	"github.com/bseverns/pointy-clumps/internal/observability"
	"github.com/bseverns/pointy-clumps/internal/scene"
)

const fetchTimeout = 10 * time.Second

// cli holds the collaborators run needs, so tests can swap the weather source.
type cli struct {
	stdout, stderr io.Writer
	getenv         func(string) string
	newSource      func(apiKey string) domain.WindSource
	metrics        *observability.Metrics
	logger         *slog.Logger
}

func main() {
	_ = godotenv.Load()

	metrics := observability.NewMetrics()
	logger := observability.NewLogger(cmp.Or(os.Getenv("LOG_LEVEL"), "warn"), "text")

	c := cli{
		stdout: os.Stdout,
		stderr: os.Stderr,
		getenv: os.Getenv,
		newSource: func(apiKey string) domain.WindSource {
			return openweather.NewClient(apiKey, fetchTimeout, metrics, logger)
		},
		metrics: metrics,
		logger:  logger,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	os.Exit(c.run(ctx, os.Args[1:]))
}

type options struct {
	location      string
	apiKey        string
	units         string
	maxDepth      int
	seed          int64
	seedSet       bool
	output        string
	layout        string
	anomaly       float64
	anomalyHueDeg float64
	climateTag    string
}

func (c cli) parse(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("windclump", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	fs.StringVar(&o.apiKey, "api-key", "", "OpenWeatherMap API key (default $OPENWEATHER_API_KEY)")
	fs.StringVar(&o.units, "units", "metric", "units for the OpenWeatherMap request: standard, metric, or imperial")
	fs.IntVar(&o.maxDepth, "maxdepth", eisenscript.DefaultMaxDepth, "global max recursion depth for the EisenScript")
	fs.Func("seed", "random seed for Structure Synth (default random)", func(s string) error {
		_, err := fmt.Sscan(s, &o.seed)
		o.seedSet = err == nil
		return err
	})
	fs.StringVar(&o.output, "output", "generated/clump.es", "path of the EisenScript file to write")
	fs.StringVar(&o.output, "o", "generated/clump.es", "shorthand for -output")
	fs.StringVar(&o.layout, "layout", "ring", "scene layout: ring or tower")
	fs.Float64Var(&o.anomaly, "climate-anomaly", 0, "normalized climate anomaly in [-1, 1]; positive swings hues warm")
	fs.Float64Var(&o.anomalyHueDeg, "climate-anomaly-hue", domain.DefaultClimateHueSwing, "hue swing in degrees when the anomaly reaches ±1")
	fs.StringVar(&o.climateTag, "climate-tag", "", "label of the climate layer that drove the colors")
	fs.Usage = func() {
		fmt.Fprintln(c.stderr, "usage: windclump [flags] LOCATION")
		fs.PrintDefaults()
	}

	// Allow flags on either side of the location.
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return o, err
		}
		if fs.NArg() == 0 {
			break
		}
		positional = append(positional, fs.Arg(0))
		args = fs.Args()[1:]
	}
	if len(positional) != 1 {
		fs.Usage()
		return o, errors.New("exactly one LOCATION is required")
	}
	o.location = positional[0]

	switch o.units {
	case "standard", "metric", "imperial":
	default:
		return o, fmt.Errorf("invalid -units %q: want standard, metric, or imperial", o.units)
	}
	switch o.layout {
	case "ring", "tower":
	default:
		return o, fmt.Errorf("invalid -layout %q: want ring or tower", o.layout)
	}
	if o.apiKey == "" {
		o.apiKey = c.getenv("OPENWEATHER_API_KEY")
	}
	return o, nil
}

func (c cli) run(ctx context.Context, args []string) int {
	o, err := c.parse(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return 2
	}

	if strings.TrimSpace(o.apiKey) == "" {
		fmt.Fprintln(c.stderr, "Error: No API key supplied. Use -api-key or set OPENWEATHER_API_KEY.")
		return 2
	}

	req := scene.Request{
		Location: o.location,
		Units:    domain.ParseUnits(o.units),
		Layout:   o.layout,
		MaxDepth: o.maxDepth,
		Climate:  &domain.ClimateSample{Anomaly: o.anomaly, Tag: o.climateTag, HueDeg: o.anomalyHueDeg},
	}
	if o.seedSet {
		req.Seed = &o.seed
	}

	gen := scene.NewGenerator(c.newSource(o.apiKey), scene.DefaultDefaults(), c.metrics, c.logger)

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	sc, err := gen.ForLocation(ctx, req)
	if err != nil {
		if errors.Is(err, domain.ErrMissingCredentials) {
			fmt.Fprintf(c.stderr, "Error: %v\n", err)
			return 2
		}
		fmt.Fprintf(c.stderr, "Error fetching wind data: %v\n", err)
		return 1
	}

	if err := os.MkdirAll(filepath.Dir(o.output), 0o755); err != nil {
		fmt.Fprintf(c.stderr, "Error: create output directory: %v\n", err)
		return 1
	}
	if err := os.WriteFile(o.output, []byte(sc.Script), 0o644); err != nil {
		fmt.Fprintf(c.stderr, "Error: write %s: %v\n", o.output, err)
		return 1
	}

	fmt.Fprintf(c.stdout, "Wrote EisenScript to %s (location=%q, wind=%.2f m/s, band=%s, layout=%s, seed=%d).\n",
		o.output, o.location, sc.Wind.SpeedMPS, sc.Band, sc.Layout, sc.Seed)
	return 0
}
