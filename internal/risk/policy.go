package risk

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/healthsignals/riskwatch/internal/model"
)

// TierThreshold maps a minimum score to a tier label.
type TierThreshold struct {
	Min  int            `yaml:"min"`
	Tier model.RiskTier `yaml:"tier"`
}

// Policy is the score-to-tier table, evaluated top-down: the first band whose
// minimum the score meets wins, so thresholds must be strictly descending and
// the final band must start at zero to keep the mapping total.
type Policy []TierThreshold

// DefaultPolicy returns the built-in classification table.
func DefaultPolicy() Policy {
	return Policy{
		{Min: 75, Tier: model.TierCritical},
		{Min: 50, Tier: model.TierHigh},
		{Min: 25, Tier: model.TierWarning},
		{Min: 10, Tier: model.TierLow},
		{Min: 0, Tier: model.TierNormal},
	}
}

// Classify maps a score to its tier. Scores below every band (possible only
// with a malformed policy) fall back to Normal.
func (p Policy) Classify(score int) model.RiskTier {
	for _, t := range p {
		if score >= t.Min {
			return t.Tier
		}
	}
	return model.TierNormal
}

// Validate checks the structural invariants of a policy table.
func (p Policy) Validate() error {
	if len(p) == 0 {
		return eris.New("risk: policy has no bands")
	}
	for i, t := range p {
		if !t.Tier.Valid() {
			return eris.Errorf("risk: policy band %d has unknown tier %q", i, t.Tier)
		}
		if i > 0 && t.Min >= p[i-1].Min {
			return eris.Errorf("risk: policy bands must be strictly descending (band %d: %d >= %d)",
				i, t.Min, p[i-1].Min)
		}
	}
	if p[len(p)-1].Min != 0 {
		return eris.Errorf("risk: final policy band must start at 0 (got %d)", p[len(p)-1].Min)
	}
	return nil
}

// LoadPolicy reads a policy table from a YAML file and validates it.
func LoadPolicy(path string) (Policy, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "risk: read policy %s", path)
	}
	var p Policy
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return nil, eris.Wrapf(err, "risk: parse policy %s", path)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}
