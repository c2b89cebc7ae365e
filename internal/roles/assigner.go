// Package roles assigns user profile roles from the approved-official phone
// allowlist.
package roles

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/healthsignals/riskwatch/internal/model"
	"github.com/healthsignals/riskwatch/internal/observability"
)

// Directory is the profile storage surface the assigner depends on.
type Directory interface {
	// IsApprovedOfficial reports whether the phone number is on the
	// pre-approved official allowlist. Exact string match.
	IsApprovedOfficial(ctx context.Context, phone string) (bool, error)

	// UpdateProfileRole sets the role on a profile row.
	UpdateProfileRole(ctx context.Context, profileID, role string) error
}

// Assigner promotes allowlisted phone numbers to the official role on profile
// insertion. Everything else keeps the database default. Allowlist lookup
// failures are treated as "not approved" so an outage can never mint
// officials.
type Assigner struct {
	dir     Directory
	metrics *observability.Metrics
}

// NewAssigner creates a role assigner. metrics may be nil.
func NewAssigner(dir Directory, metrics *observability.Metrics) *Assigner {
	return &Assigner{dir: dir, metrics: metrics}
}

// Assign decides and applies the role for a newly inserted profile. It
// returns the role the profile ends up with.
func (a *Assigner) Assign(ctx context.Context, p model.UserProfile) (string, error) {
	log := zap.L().With(zap.String("profile_id", p.ID))

	phone := p.Phone()
	if phone == "" {
		log.Info("roles: profile has no phone number, keeping default role")
		a.count("default")
		return model.RoleHealthWorker, nil
	}

	approved, err := a.dir.IsApprovedOfficial(ctx, phone)
	if err != nil {
		// Fail closed: an unreachable allowlist means no promotion.
		log.Warn("roles: allowlist lookup failed, keeping default role", zap.Error(err))
		a.count("failed")
		return model.RoleHealthWorker, nil
	}
	if !approved {
		a.count("default")
		return model.RoleHealthWorker, nil
	}

	if err := a.dir.UpdateProfileRole(ctx, p.ID, model.RoleOfficial); err != nil {
		a.count("failed")
		return "", eris.Wrapf(err, "roles: promote profile %s", p.ID)
	}
	log.Info("roles: profile promoted to official")
	a.count("promoted")
	return model.RoleOfficial, nil
}

func (a *Assigner) count(outcome string) {
	if a.metrics != nil {
		a.metrics.RoleAssignments.WithLabelValues(outcome).Inc()
	}
}
