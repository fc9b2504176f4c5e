package model

import (
	"errors"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// MaxQueryRunes caps the search query derived from a claim
const MaxQueryRunes = 300

// ErrEmptyClaim is returned when the claim text is blank after trimming
var ErrEmptyClaim = errors.New("claim is empty")

// Claim is the user-submitted statement under evaluation
type Claim struct {
	Text  string `json:"text"`  // Original input, trimmed
	Query string `json:"query"` // Normalized form sent to search
}

// NewClaim builds a Claim and its normalized retrieval query
func NewClaim(text string) (Claim, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Claim{}, ErrEmptyClaim
	}
	return Claim{
		Text:  trimmed,
		Query: NormalizeQuery(trimmed),
	}, nil
}

// NormalizeQuery applies NFKC, collapses whitespace, strips wrapping quotes
// and truncates on a word boundary
func NormalizeQuery(text string) string {
	s := norm.NFKC.String(text)
	s = strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
	s = strings.Trim(s, "\"'“”‘’«» ")

	runes := []rune(s)
	if len(runes) <= MaxQueryRunes {
		return s
	}

	cut := string(runes[:MaxQueryRunes])
	if idx := strings.LastIndex(cut, " "); idx > MaxQueryRunes/2 {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut)
}
