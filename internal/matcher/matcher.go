// Package matcher decides fuzzy membership of names in reference name sets.
package matcher

import (
	"unicode/utf8"

	"github.com/UnknownOlympus/pscgeo/internal/normalize"
	"github.com/hbollon/go-edlib"
)

// Default similarity thresholds on the 0–100 scale. Jurisdiction phrases are
// short and loosely written; listing matches exclude records, so they are stricter.
const (
	DefaultJurisdictionThreshold = 85.0
	DefaultListingThreshold      = 95.0
)

// Ratio returns the normalized Indel similarity of a and b on a 0–100 scale:
// 100·2·LCS/(|a|+|b|). It is symmetric, and two empty strings are identical.
func Ratio(a, b string) float64 {
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	if total == 0 {
		return 100
	}

	return 100 * float64(2*edlib.LCS(a, b)) / float64(total)
}

// Matcher tests normalized candidates against reference sets.
type Matcher struct {
	norm *normalize.Normalizer
}

// New returns a Matcher normalizing candidates with norm.
func New(norm *normalize.Normalizer) *Matcher {
	return &Matcher{norm: norm}
}

// Normalizer returns the normalizer applied to candidates.
func (m *Matcher) Normalizer() *normalize.Normalizer {
	return m.norm
}

// IsMember reports whether the normalized candidate reaches threshold against
// any of the already-normalized refs. It stops at the first qualifying entry.
// Empty candidates, before or after normalization, are never members.
func (m *Matcher) IsMember(candidate string, refs []string, threshold float64) bool {
	if candidate == "" {
		return false
	}

	normalized := m.norm.Normalize(candidate)
	if normalized == "" {
		return false
	}

	for _, ref := range refs {
		if Ratio(normalized, ref) >= threshold {
			return true
		}
	}

	return false
}
