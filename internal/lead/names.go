package lead

import "strings"

// honorifics and suffixes stripped during identity-key normalization.
// Tokens are compared after lowercasing and trimming punctuation, so both
// "Dr." and "dr" are caught.
var honorifics = map[string]struct{}{
	"dr":        {},
	"prof":      {},
	"professor": {},
	"phd":       {},
	"md":        {},
	"dsc":       {},
	"mr":        {},
	"mrs":       {},
	"ms":        {},
	"jr":        {},
	"sr":        {},
	"ii":        {},
	"iii":       {},
}

// IdentityKey derives the dedup key for a full name: honorifics and degree
// suffixes removed, whitespace collapsed, case folded. It is a pure function
// of the name; two records with the same key always merge into one candidate.
func IdentityKey(fullName string) string {
	return strings.Join(cleanTokens(fullName), " ")
}

// NameTokens returns the lowercase tokens of a raw name, untouched by
// honorific stripping. The fuzzy merge pass intersects these sets, so the
// tokenization deliberately mirrors what noisy bylines actually contain.
func NameTokens(fullName string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, tok := range strings.Fields(strings.ToLower(fullName)) {
		tokens[tok] = struct{}{}
	}
	return tokens
}

// SharedTokens counts lowercase tokens present in both names.
func SharedTokens(a, b string) int {
	at := NameTokens(a)
	shared := 0
	for tok := range NameTokens(b) {
		if _, ok := at[tok]; ok {
			shared++
		}
	}
	return shared
}

// SplitName returns the first and last name with honorifics removed. Either
// value may be empty when the name has too few usable tokens.
func SplitName(fullName string) (first, last string) {
	tokens := cleanTokens(fullName)
	if len(tokens) > 0 {
		first = tokens[0]
	}
	if len(tokens) > 1 {
		last = tokens[len(tokens)-1]
	}
	return first, last
}

func cleanTokens(fullName string) []string {
	raw := strings.FieldsFunc(strings.ToLower(fullName), func(r rune) bool {
		return r == ' ' || r == '\t' || r == ','
	})

	tokens := make([]string, 0, len(raw))
	for _, tok := range raw {
		tok = strings.Trim(tok, ".")
		// "Ph.D." collapses to "phd" once inner periods are removed.
		tok = strings.ReplaceAll(tok, ".", "")
		if tok == "" {
			continue
		}
		if _, ok := honorifics[tok]; ok {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}
