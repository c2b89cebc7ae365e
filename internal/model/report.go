// Package model defines the data contracts shared across the risk pipeline.
package model

import "time"

// Water source categories as stored on report rows.
const (
	WaterSourceCommunityWell = "Community Well"
	WaterSourceRiver         = "River"
)

// Report is a community health report row. Rows are created by the mobile
// intake path; this service only mutates RiskTier, WeatherSnapshot, and
// AnalysisNotes after scoring.
type Report struct {
	ID            string `json:"id"`
	VillageID     string `json:"village_id"`
	DiarrheaCases int    `json:"diarrhea_cases"`
	FeverCases    int    `json:"fever_cases"`
	VomitingCases int    `json:"vomiting_cases"`
	ChildCases    int    `json:"cases_under_five"`
	WaterSource   string `json:"water_source"`

	// Location is the raw point encoding as stored (WKT "POINT(lon lat)" or
	// an opaque geography encoding). Latitude/Longitude are the pre-resolved
	// fields, present when the intake path already split them.
	Location  string   `json:"location,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`

	CreatedAt time.Time `json:"created_at"`

	RiskTier        string `json:"risk_level,omitempty"`
	WeatherSnapshot string `json:"weather_snapshot,omitempty"`
	AnalysisNotes   string `json:"analysis_notes,omitempty"`
}

// TotalSymptomCases returns diarrhea + fever + vomiting, clamping negative
// counts to zero so a malformed row cannot subtract from the total.
func (r Report) TotalSymptomCases() int {
	return clampNonNegative(r.DiarrheaCases) +
		clampNonNegative(r.FeverCases) +
		clampNonNegative(r.VomitingCases)
}

func clampNonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
