// Command climatehint turns a climate anomaly sampled from a raster into the
// windclump flags that swing scene hues. Raster sampling happens elsewhere;
// pass the sampled values in directly.
//
// Usage:
//
//	go run ./cmd/climatehint -lat 51.5 -lon -0.12 \
//	  -normal 42.1 -anomaly 1.8 -anomaly-min -3 -anomaly-max 3 -tag ESA_CCI_SM_v07
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/bseverns/pointy-clumps/internal/domain"
)

const defaultTag = "CLIMATE_NORMAL"

// hint is the JSON document printed (and optionally written) for a sample.
type hint struct {
	Lat               float64  `json:"lat"`
	Lon               float64  `json:"lon"`
	NormalValue       *float64 `json:"normal_value"`
	AnomalyValue      *float64 `json:"anomaly_value"`
	NormalizedAnomaly float64  `json:"normalized_anomaly"`
	SuggestedFlags    string   `json:"suggested_cli_flags"`
}

type sample struct {
	lat, lon   float64
	normal     *float64
	anomaly    *float64
	anomalyMin *float64
	anomalyMax *float64
	tag        string
}

func main() {
	var s sample
	var output string
	flag.Float64Var(&s.lat, "lat", 0, "latitude in decimal degrees")
	flag.Float64Var(&s.lon, "lon", 0, "longitude in decimal degrees")
	flag.Func("normal", "value sampled from the normal/mean raster", floatPtr(&s.normal))
	flag.Func("anomaly", "value sampled from the anomaly raster for the same field", floatPtr(&s.anomaly))
	flag.Func("anomaly-min", "anomaly value mapped to -1 (required with -anomaly)", floatPtr(&s.anomalyMin))
	flag.Func("anomaly-max", "anomaly value mapped to +1 (required with -anomaly)", floatPtr(&s.anomalyMax))
	flag.StringVar(&s.tag, "tag", "", "short label describing the dataset (default "+defaultTag+")")
	flag.StringVar(&output, "output", "", "optional path to write the JSON hint to")
	flag.Parse()

	h, err := buildHint(s)
	if err != nil {
		flag.Usage()
		log.Fatal(err)
	}
	if err := emit(h, output, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func floatPtr(dst **float64) func(string) error {
	return func(s string) error {
		var v float64
		if _, err := fmt.Sscan(s, &v); err != nil {
			return err
		}
		*dst = &v
		return nil
	}
}

func buildHint(s sample) (hint, error) {
	h := hint{Lat: s.lat, Lon: s.lon, NormalValue: s.normal, AnomalyValue: s.anomaly}

	if s.anomaly != nil {
		if s.anomalyMin == nil || s.anomalyMax == nil {
			return hint{}, errors.New("-anomaly-min and -anomaly-max are required when -anomaly is used")
		}
		h.NormalizedAnomaly = domain.NormalizeAnomaly(*s.anomaly, *s.anomalyMin, *s.anomalyMax)
	}

	tag := s.tag
	if tag == "" {
		tag = defaultTag
	}
	h.SuggestedFlags = fmt.Sprintf("-climate-anomaly %.3f -climate-tag %q", h.NormalizedAnomaly, tag)
	return h, nil
}

func emit(h hint, output string, stdout io.Writer) error {
	doc, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal hint: %w", err)
	}

	if output != "" {
		if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
		if err := os.WriteFile(output, doc, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", output, err)
		}
	}

	fmt.Fprintf(stdout, "%s\n\nUse these flags when calling windclump:\n%s\n", doc, h.SuggestedFlags)
	return nil
}
