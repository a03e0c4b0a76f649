package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/bseverns/pointy-clumps/internal/domain"
	"github.com/bseverns/pointy-clumps/internal/scene"
)

// sceneQuery is the parsed form of a GET /scene request.
type sceneQuery struct {
	req     scene.Request
	reading *domain.WindReading
	asJSON  bool
}

// handleScene renders a scene for ?location= (live wind) or ?speed_mps=
// (inline wind). The script is returned as text unless format=json.
func (s *Server) handleScene(w http.ResponseWriter, r *http.Request) {
	q, err := parseSceneQuery(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var sc domain.Scene
	if q.reading != nil {
		sc = s.scenes.FromReading(*q.reading, q.req)
	} else {
		sc, err = s.scenes.ForLocation(r.Context(), q.req)
		if err != nil {
			status := statusFor(err)
			s.logger.Warn("scene request failed", "location", q.req.Location, "status", status, "error", err)
			http.Error(w, err.Error(), status)
			return
		}
	}

	w.Header().Set("X-Scene-Id", sc.ID)
	w.Header().Set("X-Scene-Band", sc.Band)
	w.Header().Set("X-Scene-Seed", strconv.FormatInt(sc.Seed, 10))

	if q.asJSON {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(sc) //nolint:errcheck // client went away
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(sc.Script))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidReport):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrMissingCredentials),
		errors.Is(err, domain.ErrSourceUnavailable),
		errors.Is(err, domain.ErrMalformedResponse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func parseSceneQuery(v url.Values) (sceneQuery, error) {
	var q sceneQuery
	q.req.Location = strings.TrimSpace(v.Get("location"))
	if u := v.Get("units"); u != "" {
		q.req.Units = domain.ParseUnits(u)
	}

	if raw := v.Get("speed_mps"); raw != "" {
		speed, err := parseFinite("speed_mps", raw)
		if err != nil {
			return q, err
		}
		var direction *float64
		if rawDir := v.Get("direction_deg"); rawDir != "" {
			d, err := parseFinite("direction_deg", rawDir)
			if err != nil {
				return q, err
			}
			direction = &d
		}
		reading := domain.NewWindReading(domain.ConvertSpeedToMPS(speed, q.req.Units), direction)
		q.reading = &reading
	} else if q.req.Location == "" {
		return q, errors.New("location or speed_mps is required")
	}

	if layout := strings.ToLower(v.Get("layout")); layout != "" {
		if layout != "ring" && layout != "tower" {
			return q, fmt.Errorf("invalid layout %q: want ring or tower", layout)
		}
		q.req.Layout = layout
	}
	if raw := v.Get("seed"); raw != "" {
		seed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || seed < 0 {
			return q, fmt.Errorf("invalid seed %q", raw)
		}
		q.req.Seed = &seed
	}
	if raw := v.Get("maxdepth"); raw != "" {
		depth, err := strconv.Atoi(raw)
		if err != nil || depth < 1 {
			return q, fmt.Errorf("invalid maxdepth %q", raw)
		}
		q.req.MaxDepth = depth
	}
	if raw := v.Get("climate_anomaly"); raw != "" {
		anomaly, err := parseFinite("climate_anomaly", raw)
		if err != nil {
			return q, err
		}
		q.req.Climate = &domain.ClimateSample{Anomaly: anomaly, Tag: v.Get("climate_tag")}
	}

	q.asJSON = v.Get("format") == "json"
	return q, nil
}

// parseFinite parses a float query value, rejecting NaN and ±Inf.
func parseFinite(name, raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return v, nil
}
