package issue

import "slices"

// UnknownRank orders severities missing from the rank table after all known ones.
const UnknownRank = 99

var severityRanks = map[string]int{
	SeverityCritical: 0,
	SeverityHigh:     1,
	SeverityError:    2,
	SeverityWarning:  3,
	SeverityMedium:   4,
	SeverityLow:      5,
	SeverityInfo:     6,
}

// KnownSeverities lists the rank table in order.
func KnownSeverities() []string {
	return []string{
		SeverityCritical, SeverityHigh, SeverityError, SeverityWarning,
		SeverityMedium, SeverityLow, SeverityInfo,
	}
}

// Rank returns the ordering key of a severity. Only the exact capitalized
// names in KnownSeverities are ranked; "critical" or "CRITICAL" get UnknownRank.
func Rank(severity string) int {
	if r, ok := severityRanks[severity]; ok {
		return r
	}
	return UnknownRank
}

// RankAndFilter returns a new slice ordered by severity rank (stable, so equal
// ranks keep their input order) and, when keyword is not empty, reduced to the
// records containing keyword in any field, ignoring case. The keyword is used
// as given: " disk" does not match "disk" at the start of a field, and a
// keyword of only spaces still filters. The input slice is left untouched.
func RankAndFilter(issues []Record, keyword string) []Record {
	ranked := slices.Clone(issues)
	if ranked == nil {
		ranked = []Record{}
	}
	slices.SortStableFunc(ranked, func(a, b Record) int {
		return Rank(a.Severity) - Rank(b.Severity)
	})

	if keyword == "" {
		return ranked
	}

	filtered := make([]Record, 0, len(ranked))
	for _, r := range ranked {
		if r.Contains(keyword) {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// CountBySeverity tallies records per severity value as displayed.
func CountBySeverity(issues []Record) map[string]int {
	counts := make(map[string]int)
	for _, r := range issues {
		counts[r.Severity]++
	}
	return counts
}
