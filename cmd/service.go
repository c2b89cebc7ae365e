package main

import (
	"context"

	"github.com/jonboulle/clockwork"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/healthsignals/riskwatch/internal/alert"
	"github.com/healthsignals/riskwatch/internal/model"
	"github.com/healthsignals/riskwatch/internal/observability"
	"github.com/healthsignals/riskwatch/internal/risk"
	"github.com/healthsignals/riskwatch/internal/roles"
	"github.com/healthsignals/riskwatch/internal/store"
	"github.com/healthsignals/riskwatch/internal/webhook"
	"github.com/healthsignals/riskwatch/pkg/openweather"
	"github.com/healthsignals/riskwatch/pkg/twilio"
)

// serviceEnv wires the store, pipeline, role assigner, and webhook handler
// from configuration. Built once per command invocation.
type serviceEnv struct {
	Store    store.Store
	Pipeline *risk.Pipeline
	Assigner *roles.Assigner
	Handler  *webhook.Handler
	Metrics  *observability.Metrics
}

func (e *serviceEnv) Close() {
	if err := e.Store.Close(); err != nil {
		zap.L().Warn("store close failed", zap.Error(err))
	}
}

// openStore creates the configured store backend.
func openStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.Pool.MaxConns,
			MinConns: cfg.Store.Pool.MinConns,
		})
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// initService builds the full service wiring. Weather and SMS are optional:
// missing credentials leave the corresponding signal degraded rather than
// failing startup.
func initService(ctx context.Context) (*serviceEnv, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	st, err := openStore(ctx)
	if err != nil {
		return nil, err
	}

	metrics := observability.NewMetrics()

	var weather openweather.Client
	if cfg.Weather.APIKey != "" {
		weather = openweather.NewClient(cfg.Weather.APIKey,
			openweather.WithBaseURL(cfg.Weather.BaseURL),
			openweather.WithTimeout(cfg.Weather.Timeout()),
			openweather.WithRateLimit(cfg.Weather.RatePerSec, 1),
		)
	} else {
		zap.L().Warn("weather.api_key not set, weather signal disabled")
	}

	var alerts risk.AlertSink
	if cfg.SMS.AccountSID != "" && cfg.SMS.AuthToken != "" {
		sender := twilio.NewClient(cfg.SMS.AccountSID, cfg.SMS.AuthToken,
			twilio.WithBaseURL(cfg.SMS.BaseURL),
			twilio.WithTimeout(cfg.SMS.Timeout()),
			twilio.WithRateLimit(cfg.SMS.RatePerSec, 1),
		)
		dispatcher, err := alert.NewDispatcher(sender, cfg.SMS.FromNumber, cfg.SMS.AlertRecipient)
		if err != nil {
			st.Close()
			return nil, err
		}
		alerts = dispatcher
	} else {
		zap.L().Warn("sms credentials not set, alert dispatch disabled")
	}

	policy := risk.DefaultPolicy()
	if cfg.Risk.PolicyPath != "" {
		policy, err = risk.LoadPolicy(cfg.Risk.PolicyPath)
		if err != nil {
			st.Close()
			return nil, err
		}
	}

	trend := risk.NewTrendAnalyzer(st, clockwork.NewRealClock(), cfg.Risk.Window())
	pipeline := risk.NewPipeline(st, trend, weather, alerts, metrics, risk.PipelineConfig{
		Policy:       policy,
		AlertMinTier: model.RiskTier(cfg.Risk.AlertMinTier),
	})
	assigner := roles.NewAssigner(st, metrics)
	handler := webhook.NewHandler(pipeline, assigner, metrics, cfg.Server.WebhookSecret)

	return &serviceEnv{
		Store:    st,
		Pipeline: pipeline,
		Assigner: assigner,
		Handler:  handler,
		Metrics:  metrics,
	}, nil
}
