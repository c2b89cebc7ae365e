package risk

import (
	"fmt"

	"github.com/healthsignals/riskwatch/internal/model"
)

// Feature rule contributions and note texts. The notes are persisted verbatim
// onto reports, so changing them is a data migration, not a refactor.
const (
	childCasesThreshold = 5
	childCasesPoints    = 50
	noteChildCases      = "High number of cases in children under 5."

	severityHighThreshold     = 15
	severityHighPoints        = 30
	noteSeverityHigh          = "High total case count."
	severityModerateThreshold = 8
	severityModeratePoints    = 15
	noteSeverityModerate      = "Moderate total case count."

	sharedWaterPoints = 10
)

// demographicSignal flags a concentration of cases in children under five.
func demographicSignal(r model.Report, a Assessment) Assessment {
	if r.ChildCases > childCasesThreshold {
		return a.Add(childCasesPoints, noteChildCases)
	}
	return a
}

// severitySignal scores the absolute symptom load. The two bands are mutually
// exclusive; everything at or below the moderate threshold contributes nothing.
func severitySignal(r model.Report, a Assessment) Assessment {
	total := r.TotalSymptomCases()
	switch {
	case total > severityHighThreshold:
		return a.Add(severityHighPoints, noteSeverityHigh)
	case total > severityModerateThreshold:
		return a.Add(severityModeratePoints, noteSeverityModerate)
	}
	return a
}

// waterSignal adds exposure risk for shared water sources.
func waterSignal(r model.Report, a Assessment) Assessment {
	switch r.WaterSource {
	case model.WaterSourceCommunityWell, model.WaterSourceRiver:
		return a.Add(sharedWaterPoints,
			fmt.Sprintf("Shared water source (%s) adds risk.", r.WaterSource))
	}
	return a
}
