package risk

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/healthsignals/riskwatch/internal/geo"
	"github.com/healthsignals/riskwatch/pkg/openweather"
)

// Weather snapshot sentinels, persisted verbatim when the real value cannot
// be computed.
const (
	snapshotNoData     = "No data"
	snapshotUnresolved = "Location unresolved"
	snapshotFailed     = "Weather unavailable"

	rainPoints = 10
	noteRain   = "Recent rain increases contamination risk."
)

// WeatherSource fetches current conditions by coordinate. Implemented by
// pkg/openweather.
type WeatherSource interface {
	Current(ctx context.Context, lat, lon float64) (openweather.Conditions, error)
}

// weatherSignal adds the precipitation contribution and fills the snapshot.
// Unresolved coordinates skip the lookup entirely; provider and transport
// failures degrade to sentinel snapshots and never abort the run.
func (p *Pipeline) weatherSignal(ctx context.Context, coords geo.Coordinates, resolved bool, a Assessment) Assessment {
	if !resolved {
		a.WeatherSnapshot = snapshotUnresolved
		return a
	}
	if p.weather == nil {
		a.WeatherSnapshot = snapshotNoData
		return a
	}

	cond, err := p.weather.Current(ctx, coords.Lat, coords.Lon)
	if err != nil {
		zap.L().Warn("risk: weather lookup failed",
			zap.Float64("lat", coords.Lat),
			zap.Float64("lon", coords.Lon),
			zap.Error(err),
		)
		if p.metrics != nil {
			p.metrics.WeatherFailures.Inc()
		}
		var perr *openweather.ProviderError
		if errors.As(err, &perr) {
			a.WeatherSnapshot = fmt.Sprintf("Weather fetch failed: %s", perr.Message)
		} else {
			a.WeatherSnapshot = snapshotFailed
		}
		return a
	}

	a.WeatherSnapshot = fmt.Sprintf("%s, %.1f°C", cond.Description, cond.TempC)

	// Known gap: only the primary category is checked, so drizzle- or
	// storm-only classifications do not trip the flag.
	if strings.Contains(strings.ToLower(cond.Main), "rain") {
		a = a.Add(rainPoints, noteRain)
	}
	return a
}
