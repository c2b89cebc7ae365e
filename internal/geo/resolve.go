// Package geo resolves report coordinates from whichever representation a
// report row carries: pre-split latitude/longitude fields or a WKT point
// encoding. A resolution failure is never an error; downstream code treats
// unresolved coordinates as "skip the weather lookup".
package geo

import (
	"strings"

	geom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkt"
	"go.uber.org/zap"

	"github.com/healthsignals/riskwatch/internal/model"
)

// Coordinates is a resolved decimal-degree pair.
type Coordinates struct {
	Lat float64
	Lon float64
}

// Resolve extracts coordinates from a report. Preference order: the split
// latitude/longitude fields, then the WKT location text. A (0,0) pair is
// treated as absent so a defaulted column never geocodes to the Gulf of
// Guinea. Returns ok=false when nothing usable is present.
func Resolve(r model.Report) (Coordinates, bool) {
	if r.Latitude != nil && r.Longitude != nil {
		if c, ok := validate(*r.Latitude, *r.Longitude); ok {
			return c, true
		}
	}

	if r.Location != "" {
		if c, ok := parseWKTPoint(r.Location); ok {
			return c, true
		}
		zap.L().Warn("geo: unparseable location encoding",
			zap.String("report_id", r.ID),
			zap.String("location", truncate(r.Location, 64)),
		)
	}

	return Coordinates{}, false
}

// FromPair validates an already-split pair, applying the same range and
// zero-sentinel rules as Resolve.
func FromPair(lat, lon float64) (Coordinates, bool) {
	return validate(lat, lon)
}

// parseWKTPoint parses a "POINT(lon lat)" encoding.
func parseWKTPoint(s string) (Coordinates, bool) {
	g, err := wkt.Unmarshal(strings.TrimSpace(s))
	if err != nil {
		return Coordinates{}, false
	}
	p, ok := g.(*geom.Point)
	if !ok {
		return Coordinates{}, false
	}
	// WKT point order is (lon lat).
	return validate(p.Y(), p.X())
}

// validate range-checks a pair and rejects the all-zero sentinel.
func validate(lat, lon float64) (Coordinates, bool) {
	if lat == 0 && lon == 0 {
		return Coordinates{}, false
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return Coordinates{}, false
	}
	return Coordinates{Lat: lat, Lon: lon}, true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
