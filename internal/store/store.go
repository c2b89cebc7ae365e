// Package store persists reports, profiles, and the approved-official
// allowlist. Two drivers: Postgres for deployments, SQLite for local
// development.
package store

import (
	"context"
	"time"

	"github.com/healthsignals/riskwatch/internal/model"
)

// Store defines the persistence interface for the scoring service.
type Store interface {
	// Reports
	GetReport(ctx context.Context, reportID string) (*model.Report, error)
	DiarrheaHistory(ctx context.Context, villageID string, from, until time.Time) ([]int, error)
	ReportCoordinates(ctx context.Context, reportID string) (lat, lon float64, ok bool, err error)
	UpdateReportAssessment(ctx context.Context, reportID string, tier model.RiskTier, weatherSnapshot, notes string) error

	// Profiles
	IsApprovedOfficial(ctx context.Context, phone string) (bool, error)
	UpdateProfileRole(ctx context.Context, profileID, role string) error
	ApproveOfficials(ctx context.Context, phones []string) (int64, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
