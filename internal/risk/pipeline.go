package risk

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/healthsignals/riskwatch/internal/geo"
	"github.com/healthsignals/riskwatch/internal/model"
	"github.com/healthsignals/riskwatch/internal/observability"
)

// AssessmentStore is the persistence surface the pipeline depends on.
type AssessmentStore interface {
	HistorySource

	// ReportCoordinates returns a server-side normalized coordinate view of a
	// report, for rows whose location column carries an encoding the local
	// parser cannot read. ok=false means the row has no usable location.
	ReportCoordinates(ctx context.Context, reportID string) (lat, lon float64, ok bool, err error)

	// UpdateReportAssessment writes the tier, weather snapshot, and joined
	// notes back onto the report row.
	UpdateReportAssessment(ctx context.Context, reportID string, tier model.RiskTier, weatherSnapshot, notes string) error
}

// AlertSink delivers an alert for a classified report. Implemented by the
// alert dispatcher.
type AlertSink interface {
	Deliver(ctx context.Context, a Assessment, r model.Report) error
}

// Pipeline runs the fixed-order scoring steps for one report: trend,
// demographic, severity, environmental, weather. Notes concatenate in
// evaluation order, so the order is part of the persisted contract.
type Pipeline struct {
	store        AssessmentStore
	trend        *TrendAnalyzer
	weather      WeatherSource
	alerts       AlertSink
	policy       Policy
	alertMinTier model.RiskTier
	metrics      *observability.Metrics
}

// PipelineConfig holds the optional pipeline tunables.
type PipelineConfig struct {
	// Policy overrides the default classification table.
	Policy Policy
	// AlertMinTier is the least severe tier that triggers an alert.
	// Defaults to High.
	AlertMinTier model.RiskTier
}

// NewPipeline creates a scoring pipeline. weather, alerts, and metrics may be
// nil; the corresponding step then degrades (sentinel snapshot, no alert,
// no counters).
func NewPipeline(store AssessmentStore, trend *TrendAnalyzer, weather WeatherSource, alerts AlertSink, metrics *observability.Metrics, cfg PipelineConfig) *Pipeline {
	policy := cfg.Policy
	if policy == nil {
		policy = DefaultPolicy()
	}
	minTier := cfg.AlertMinTier
	if !minTier.Valid() {
		minTier = model.TierHigh
	}
	if trend == nil {
		trend = NewTrendAnalyzer(store, nil, 0)
	}
	return &Pipeline{
		store:        store,
		trend:        trend,
		weather:      weather,
		alerts:       alerts,
		policy:       policy,
		alertMinTier: minTier,
		metrics:      metrics,
	}
}

// Run scores one report, persists the classification, and dispatches an alert
// when the tier warrants one. Every external fault short of a panic degrades
// in place: the classification is always computed and the returned assessment
// is always complete.
func (p *Pipeline) Run(ctx context.Context, report model.Report) (Assessment, error) {
	a := Assessment{RunID: uuid.New().String()}
	log := zap.L().With(
		zap.String("run_id", a.RunID),
		zap.String("report_id", report.ID),
		zap.String("village_id", report.VillageID),
	)

	a = p.trend.Evaluate(ctx, report, a)
	a = demographicSignal(report, a)
	a = severitySignal(report, a)
	a = waterSignal(report, a)

	coords, resolved := p.resolveCoordinates(ctx, report, log)
	a = p.weatherSignal(ctx, coords, resolved, a)

	a.Tier = p.policy.Classify(a.Score)
	log.Info("risk: report classified",
		zap.Int("score", a.Score),
		zap.String("tier", string(a.Tier)),
	)
	if p.metrics != nil {
		p.metrics.ReportsScored.WithLabelValues(string(a.Tier)).Inc()
	}

	// Persistence and alerting are independent side effects of the same
	// classification, not a transaction.
	if err := p.store.UpdateReportAssessment(ctx, report.ID, a.Tier, a.WeatherSnapshot, a.JoinedNotes()); err != nil {
		log.Error("risk: persist assessment failed", zap.Error(err))
		if p.metrics != nil {
			p.metrics.PersistFailures.Inc()
		}
	}

	if a.Tier.AtLeast(p.alertMinTier) && p.alerts != nil {
		if err := p.alerts.Deliver(ctx, a, report); err != nil {
			log.Error("risk: alert dispatch failed", zap.Error(err))
			if p.metrics != nil {
				p.metrics.AlertFailures.Inc()
			}
		} else if p.metrics != nil {
			p.metrics.AlertsSent.Inc()
		}
	}

	return a, nil
}

// resolveCoordinates extracts coordinates from the report itself, falling
// back to the store's normalized view when the record carries only an
// encoding the local parser rejects.
func (p *Pipeline) resolveCoordinates(ctx context.Context, report model.Report, log *zap.Logger) (geo.Coordinates, bool) {
	if coords, ok := geo.Resolve(report); ok {
		return coords, true
	}

	if report.Location == "" {
		return geo.Coordinates{}, false
	}

	lat, lon, ok, err := p.store.ReportCoordinates(ctx, report.ID)
	if err != nil {
		log.Warn("risk: coordinate re-fetch failed", zap.Error(err))
		return geo.Coordinates{}, false
	}
	if !ok {
		return geo.Coordinates{}, false
	}
	return geo.FromPair(lat, lon)
}
