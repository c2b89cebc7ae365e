// Package risk implements the composite risk-scoring pipeline for community
// health reports: historical case velocity, demographic concentration,
// symptom severity, water-source exposure, and a live weather signal are
// summed into a score and mapped to an ordinal risk tier.
package risk

import (
	"strings"

	"github.com/healthsignals/riskwatch/internal/model"
)

// Assessment is the result of one scoring run. Each scoring step takes an
// Assessment and returns a new one, so steps stay independently testable and
// never share mutable state. Notes keep evaluation order; their join must be
// byte-for-byte reproducible for a given input.
type Assessment struct {
	RunID           string
	Score           int
	Notes           []string
	WeatherSnapshot string
	Tier            model.RiskTier
}

// Add returns a copy of the assessment with the score delta applied and the
// note appended (empty notes are skipped).
func (a Assessment) Add(points int, note string) Assessment {
	a.Score += points
	if note != "" {
		notes := make([]string, len(a.Notes), len(a.Notes)+1)
		copy(notes, a.Notes)
		a.Notes = append(notes, note)
	}
	return a
}

// JoinedNotes returns the notes joined with single spaces, in evaluation
// order, as persisted onto the report.
func (a Assessment) JoinedNotes() string {
	return strings.Join(a.Notes, " ")
}
