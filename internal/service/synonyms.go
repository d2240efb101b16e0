package service

import (
	"strings"
	"unicode"
)

// synonymGroups are equivalence classes of exercise-name tokens. Tokens in
// the same group are treated as interchangeable by the synonym matching
// tier. The table is static; refreshing it only requires a redeploy.
var synonymGroups = [][]string{
	{"press", "push"},
	{"row", "pull"},
	{"squat", "sit"},
	{"deadlift", "hinge"},
	{"lunge", "split"},
	{"curl", "flexion"},
	{"extension", "kickback"},
	{"raise", "lift", "elevation"},
	{"crunch", "situp"},
	{"plank", "hold"},
	{"dumbbell", "db"},
	{"barbell", "bb"},
	{"kettlebell", "kb"},
	{"overhead", "ohp", "shoulder"},
	{"romanian", "rdl", "stiff"},
}

// stopTokens are dropped during normalization; they carry no matching signal.
var stopTokens = map[string]bool{
	"the":  true,
	"a":    true,
	"of":   true,
	"and":  true,
	"with": true,
}

// synonymCanon maps every known token to a canonical representative of its
// group, built once at init.
var synonymCanon = buildSynonymIndex()

func buildSynonymIndex() map[string]string {
	canon := make(map[string]string)
	for _, group := range synonymGroups {
		for _, token := range group {
			canon[token] = group[0]
		}
	}
	return canon
}

// normalizeName lowercases a name, strips non-alphanumerics and collapses
// whitespace, so "Barbell Bench-Press" and "barbell bench press" compare equal.
func normalizeName(s string) string {
	var b strings.Builder
	s = strings.ToLower(s)
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// nameTokens normalizes a name and maps each surviving token through the
// synonym table to its canonical form.
func nameTokens(s string) map[string]bool {
	tokens := make(map[string]bool)
	for _, tok := range strings.Fields(normalizeName(s)) {
		if stopTokens[tok] {
			continue
		}
		if canon, ok := synonymCanon[tok]; ok {
			tok = canon
		}
		tokens[tok] = true
	}
	return tokens
}
