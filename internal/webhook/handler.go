// Package webhook exposes the HTTP surface of the service: the database
// trigger endpoint, a health probe, and Prometheus metrics.
package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/healthsignals/riskwatch/internal/model"
	"github.com/healthsignals/riskwatch/internal/observability"
	"github.com/healthsignals/riskwatch/internal/risk"
)

// Event is the trigger envelope posted by the database on row changes.
type Event struct {
	Type   string          `json:"type"`
	Table  string          `json:"table"`
	Record json.RawMessage `json:"record"`
}

// ReportScorer runs the scoring pipeline for one report.
type ReportScorer interface {
	Run(ctx context.Context, r model.Report) (risk.Assessment, error)
}

// RoleAssigner decides the role for a newly inserted profile.
type RoleAssigner interface {
	Assign(ctx context.Context, p model.UserProfile) (string, error)
}

// Handler routes webhook events to the scoring pipeline or the role assigner.
type Handler struct {
	scorer   ReportScorer
	assigner RoleAssigner
	metrics  *observability.Metrics
	secret   string
}

// NewHandler creates a webhook handler. secret, when non-empty, requires a
// matching bearer token on the webhook route. metrics may be nil.
func NewHandler(scorer ReportScorer, assigner RoleAssigner, metrics *observability.Metrics, secret string) *Handler {
	return &Handler{scorer: scorer, assigner: assigner, metrics: metrics, secret: secret}
}

// Router builds the chi router with permissive CORS so the database trigger's
// preflight always succeeds.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Client-Info", "apikey"},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Post("/webhook", h.handleEvent)
	r.Post("/", h.handleEvent)
	return r
}

// handleEvent is the trigger entry point. Any panic in the routed path is
// converted to a 400 here; the caller sees a failure response, never a
// dropped connection.
func (h *Handler) handleEvent(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			zap.L().Error("webhook: handler panic", zap.Any("panic", rec))
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprint(rec)})
		}
	}()

	if h.secret != "" && r.Header.Get("Authorization") != "Bearer "+h.secret {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	var ev Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		zap.L().Warn("webhook: malformed envelope", zap.Error(err))
		h.count("", "error")
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid event payload"})
		return
	}

	if ev.Type != "INSERT" {
		h.count(ev.Table, "ignored")
		writeJSON(w, http.StatusOK, map[string]string{"message": "ignored"})
		return
	}

	switch ev.Table {
	case "reports":
		h.handleReport(w, r, ev)
	case "profiles":
		h.handleProfile(w, r, ev)
	default:
		h.count(ev.Table, "ignored")
		writeJSON(w, http.StatusOK, map[string]string{"message": "ignored"})
	}
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request, ev Event) {
	var report model.Report
	if err := json.Unmarshal(ev.Record, &report); err != nil {
		zap.L().Warn("webhook: malformed report record", zap.Error(err))
		h.count(ev.Table, "error")
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid report record"})
		return
	}

	a, err := h.scorer.Run(r.Context(), report)
	if err != nil {
		// The pipeline degrades internally; an error here is unexpected.
		zap.L().Error("webhook: scoring failed", zap.String("report_id", report.ID), zap.Error(err))
		h.count(ev.Table, "error")
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "scoring failed"})
		return
	}

	h.count(ev.Table, "handled")
	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Report %s classified as %s", report.ID, a.Tier),
	})
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request, ev Event) {
	var profile model.UserProfile
	if err := json.Unmarshal(ev.Record, &profile); err != nil {
		zap.L().Warn("webhook: malformed profile record", zap.Error(err))
		h.count(ev.Table, "error")
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid profile record"})
		return
	}

	role, err := h.assigner.Assign(r.Context(), profile)
	if err != nil {
		zap.L().Error("webhook: role assignment failed", zap.String("profile_id", profile.ID), zap.Error(err))
		h.count(ev.Table, "error")
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "role assignment failed"})
		return
	}

	h.count(ev.Table, "handled")
	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Profile %s role: %s", profile.ID, role),
	})
}

func (h *Handler) count(table, outcome string) {
	if h.metrics != nil {
		h.metrics.WebhookEvents.WithLabelValues(table, outcome).Inc()
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
