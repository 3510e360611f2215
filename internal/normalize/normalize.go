// Package normalize canonicalizes company names and jurisdiction phrases so
// they can be compared with a similarity ratio.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultCorporateTokens are the corporate-form words removed from names.
var DefaultCorporateTokens = []string{"inc", "llc", "ltd", "corp", "corporation", "class", "series"}

const commonStock = "common stock"

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9\s]`)
	whitespaceRun   = regexp.MustCompile(`\s+`)
)

// Normalizer lowercases text, strips punctuation and removes corporate-form
// tokens. It is safe for concurrent use.
type Normalizer struct {
	tokens *regexp.Regexp
}

// New returns a Normalizer removing the given whole-word tokens. With no
// tokens, DefaultCorporateTokens are used.
func New(tokens ...string) *Normalizer {
	if len(tokens) == 0 {
		tokens = DefaultCorporateTokens
	}

	quoted := make([]string, 0, len(tokens))
	for _, token := range tokens {
		token = strings.ToLower(strings.TrimSpace(token))
		if token != "" {
			quoted = append(quoted, regexp.QuoteMeta(token))
		}
	}

	n := &Normalizer{}
	if len(quoted) > 0 {
		n.tokens = regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)
	}

	return n
}

// Normalize returns the canonical form of text, e.g.
// "Acme Corp., Inc. Class A Common Stock" becomes "acme a".
func (n *Normalizer) Normalize(text string) string {
	text = foldAccents(strings.ToLower(text))
	text = nonAlphanumeric.ReplaceAllString(text, "")
	if n.tokens != nil {
		text = n.tokens.ReplaceAllString(text, "")
	}
	text = strings.ReplaceAll(text, commonStock, "")
	text = whitespaceRun.ReplaceAllString(text, " ")

	return strings.TrimSpace(text)
}

// NormalizeAll normalizes every entry, keeping order.
func (n *Normalizer) NormalizeAll(texts []string) []string {
	out := make([]string, len(texts))
	for i, text := range texts {
		out[i] = n.Normalize(text)
	}
	return out
}

// foldAccents maps accented letters to their base letter ("société" -> "societe").
func foldAccents(s string) string {
	folded, _, err := transform.String(
		transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
		s,
	)
	if err != nil {
		return s
	}
	return folded
}
