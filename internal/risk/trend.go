package risk

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/healthsignals/riskwatch/internal/model"
)

const (
	defaultTrendWindow = 7 * 24 * time.Hour
	trendMultiplier    = 3
	trendPoints        = 40
	noteTrend          = "Case velocity is high (3x historical average)."
)

// HistorySource provides prior diarrhea case counts for a village within a
// timestamp range. Implemented by the store.
type HistorySource interface {
	DiarrheaHistory(ctx context.Context, villageID string, from, until time.Time) ([]int, error)
}

// TrendAnalyzer computes the case-velocity signal from the trailing history
// window. A history failure degrades silently to an empty window.
type TrendAnalyzer struct {
	history HistorySource
	clock   clockwork.Clock
	window  time.Duration
}

// NewTrendAnalyzer creates a TrendAnalyzer. A nil clock falls back to the
// real clock; a non-positive window falls back to seven days.
func NewTrendAnalyzer(history HistorySource, clock clockwork.Clock, window time.Duration) *TrendAnalyzer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if window <= 0 {
		window = defaultTrendWindow
	}
	return &TrendAnalyzer{history: history, clock: clock, window: window}
}

// Evaluate adds the trend contribution for a report. The window is
// [ref-window, ref) where ref is the report's creation timestamp, or the
// current time when the webhook record carried none. An empty window
// contributes nothing; so does a mean of zero.
func (t *TrendAnalyzer) Evaluate(ctx context.Context, r model.Report, a Assessment) Assessment {
	ref := r.CreatedAt
	if ref.IsZero() {
		ref = t.clock.Now().UTC()
	}

	counts, err := t.history.DiarrheaHistory(ctx, r.VillageID, ref.Add(-t.window), ref)
	if err != nil {
		zap.L().Warn("risk: history query failed, treating window as empty",
			zap.String("village_id", r.VillageID),
			zap.Error(err),
		)
		return a
	}
	if len(counts) == 0 {
		return a
	}

	var sum int
	for _, c := range counts {
		sum += c
	}
	mean := float64(sum) / float64(len(counts))

	if mean > 0 && float64(r.DiarrheaCases) > trendMultiplier*mean {
		return a.Add(trendPoints, noteTrend)
	}
	return a
}
