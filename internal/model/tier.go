package model

// RiskTier is the ordinal risk classification written back onto a report.
type RiskTier string

const (
	TierNormal   RiskTier = "Normal"
	TierLow      RiskTier = "Low"
	TierWarning  RiskTier = "Warning"
	TierHigh     RiskTier = "High"
	TierCritical RiskTier = "Critical"
)

var tierRank = map[RiskTier]int{
	TierNormal:   0,
	TierLow:      1,
	TierWarning:  2,
	TierHigh:     3,
	TierCritical: 4,
}

// Valid reports whether t is a known tier.
func (t RiskTier) Valid() bool {
	_, ok := tierRank[t]
	return ok
}

// AtLeast reports whether t is the same tier as min or a more severe one.
// Unknown tiers always compare below known ones.
func (t RiskTier) AtLeast(min RiskTier) bool {
	tr, ok := tierRank[t]
	if !ok {
		return false
	}
	mr, ok := tierRank[min]
	if !ok {
		return false
	}
	return tr >= mr
}
