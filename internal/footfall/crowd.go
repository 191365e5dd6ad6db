package footfall

import "github.com/tourpulse/backend/internal/domain"

// Read-side classification bands. Estimates below ModerateMin carry no level
// and never appear in high-crowd lists. These are fixed, not configuration.
const (
	ModerateMin = 8000
	HighMin     = 12000
	CriticalMin = 20000
)

// Classify maps a crowd estimate to its categorical level. ok is false below
// the Moderate band. The low-crowd recommendation cutoff is a separate,
// overlapping threshold (LowCrowdMax) and is deliberately not unified with
// these bands.
func Classify(count int) (level domain.CrowdLevel, ok bool) {
	switch {
	case count >= CriticalMin:
		return domain.CrowdCritical, true
	case count >= HighMin:
		return domain.CrowdHigh, true
	case count >= ModerateMin:
		return domain.CrowdModerate, true
	default:
		return "", false
	}
}
