package matcher

import "regexp"

// UKTerms are phrases seen in PSC jurisdiction fields that indicate a UK registration.
var UKTerms = []string{
	"uk", "england", "scotland", "wales", "northern ireland", "united kingdom",
	"england and wales", "england & wales", "united kingdom (england and wales)",
	"uk and wales", "united kingdom england", "u.k", "england, uk",
	"scotland united kingdom", "gbeng", "gbsct", "great britain", "united kingdom (scotland)", "london",
	"gbr", "cardiff", "e&w", "england, united kingdom", "britain", "uk/england", "cardiff, wales", "uk/scotland",
	"gb", "companies house", "n. ireland", "edinburgh", "uk, yorkshire", "Companies House - Registrar Of Companies",
	"Northern Ireland, United Kingdom", "london, england", "belfast", "eng", "u k", "england and wales, england",
	"west yorkshire", "scottish", "Wales Uk", "cymru", "suffolk", "Law Of England And Wales",
}

var registeredIn = regexp.MustCompile(`(?i)registered in`)

// JurisdictionClassifier recognizes UK jurisdiction phrases.
type JurisdictionClassifier struct {
	matcher   *Matcher
	terms     []string
	threshold float64
}

// NewJurisdictionClassifier normalizes terms (UKTerms when none are given) with
// the matcher's normalizer.
func NewJurisdictionClassifier(m *Matcher, threshold float64, terms ...string) *JurisdictionClassifier {
	if len(terms) == 0 {
		terms = UKTerms
	}

	seen := make(map[string]bool, len(terms))
	normalized := make([]string, 0, len(terms))
	for _, term := range m.Normalizer().NormalizeAll(terms) {
		if term != "" && !seen[term] {
			seen[term] = true
			normalized = append(normalized, term)
		}
	}

	return &JurisdictionClassifier{matcher: m, terms: normalized, threshold: threshold}
}

// IsUK reports whether value names a UK jurisdiction.
func (c *JurisdictionClassifier) IsUK(value string) bool {
	return c.matcher.IsMember(registeredIn.ReplaceAllString(value, ""), c.terms, c.threshold)
}

// AnyUK reports whether any of the values names a UK jurisdiction.
func (c *JurisdictionClassifier) AnyUK(values ...string) bool {
	for _, value := range values {
		if c.IsUK(value) {
			return true
		}
	}
	return false
}

// ListingClassifier recognizes publicly listed companies.
type ListingClassifier struct {
	matcher   *Matcher
	roster    *Roster
	threshold float64
}

// NewListingClassifier returns a classifier over the roster.
func NewListingClassifier(m *Matcher, roster *Roster, threshold float64) *ListingClassifier {
	return &ListingClassifier{matcher: m, roster: roster, threshold: threshold}
}

// IsListed reports whether name matches a listed company.
func (c *ListingClassifier) IsListed(name string) bool {
	return c.matcher.IsMember(name, c.roster.Names(), c.threshold)
}
