// Command validate checks generated EisenScript scenes before they are handed
// to a renderer. Every file must parse as a complete scene, and its palette
// anchors must agree with the wind direction and hue shift it records.
//
// Usage:
//
//	go run ./cmd/validate generated/examples
//	go run ./cmd/validate generated/clump.es other.es
package main

import (
	"flag"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/bseverns/pointy-clumps/internal/eisenscript"
)

// hueTolerance absorbs the three-decimal rounding of #define values.
const hueTolerance = 0.002

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: validate PATH [PATH...]")
		fmt.Fprintln(os.Stderr, "PATH may be a .es file or a directory searched recursively.")
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(flag.Args(), os.Stdout, os.Stderr); code != 0 {
		os.Exit(code)
	}
}

func run(paths []string, stdout, stderr io.Writer) int {
	files, err := collect(paths)
	if err != nil {
		fmt.Fprintf(stderr, "FATAL: %v\n", err)
		return 1
	}
	if len(files) == 0 {
		fmt.Fprintln(stderr, "FATAL: no .es files found")
		return 1
	}

	scripts := make(map[string]string, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			fmt.Fprintf(stderr, "FATAL: read %s: %v\n", f, err)
			return 1
		}
		scripts[f] = string(data)
	}

	fmt.Fprintln(stdout, "=== EisenScript Scene Validation ===")
	fmt.Fprintln(stdout)

	phases := []*phase{
		validateGrammar(files, scripts),
		validatePalette(files, scripts),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(stdout, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintf(stdout, "\nScenes: %d\n", len(files))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(stdout, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(stdout, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(stdout, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(stdout, "\nValidation FAILED.")
	return 1
}

// collect expands directories into the .es files beneath them, sorted.
func collect(paths []string) ([]string, error) {
	var files []string
	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, root)
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".es") {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	slices.Sort(files)
	return slices.Compact(files), nil
}

// ── Phase 1: every scene carries the settings, defines, and rules ──

func validateGrammar(files []string, scripts map[string]string) *phase {
	p := &phase{name: "Phase 1: Scene grammar"}
	for _, f := range files {
		if err := eisenscript.Validate(scripts[f]); err != nil {
			for line := range strings.Lines(err.Error()) {
				p.errorf("%s: %s", f, strings.TrimSpace(line))
			}
		}
	}
	return p
}

// ── Phase 2: palette anchors follow direction and hue shift ──

func validatePalette(files []string, scripts map[string]string) *phase {
	p := &phase{name: "Phase 2: Palette consistency"}
	for _, f := range files {
		defs := eisenscript.ParseDefines(scripts[f])
		vals := make(map[string]float64)
		ok := true
		for _, name := range []string{"WIND_DIRECTION_DEG", "HUE_SHIFT_DEG", "BASE_HUE", "HUE_VARIANT_1", "HUE_VARIANT_2"} {
			v, err := strconv.ParseFloat(defs[name], 64)
			if err != nil {
				// Missing defines are a grammar failure; don't double-report.
				ok = false
				break
			}
			vals[name] = v
		}
		if !ok {
			continue
		}

		base := wrap(vals["WIND_DIRECTION_DEG"] + vals["HUE_SHIFT_DEG"])
		checkHue(p, f, "BASE_HUE", vals["BASE_HUE"], base)
		checkHue(p, f, "HUE_VARIANT_1", vals["HUE_VARIANT_1"], wrap(vals["BASE_HUE"]+15))
		checkHue(p, f, "HUE_VARIANT_2", vals["HUE_VARIANT_2"], wrap(vals["BASE_HUE"]-15))

		if raw, present := defs["CLIMATE_ANOMALY"]; present {
			a, err := strconv.ParseFloat(raw, 64)
			if err != nil || a < -1 || a > 1 {
				p.errorf("%s: CLIMATE_ANOMALY %q outside [-1, 1]", f, raw)
			}
		}
	}
	return p
}

func checkHue(p *phase, file, name string, got, want float64) {
	d := math.Abs(got - want)
	d = math.Min(d, 360-d)
	if d > hueTolerance {
		p.errorf("%s: %s = %.3f, want %.3f", file, name, got, want)
	}
}

func wrap(deg float64) float64 {
	h := math.Mod(deg, 360)
	if h < 0 {
		h += 360
	}
	return h
}
