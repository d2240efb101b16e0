package service

import (
	"sort"
	"strings"

	"alcyxob/coach-orchestrator/internal/domain"
)

// ExerciseResolver maps a model-proposed exercise name to an entry of the
// exercise library, or marks it as new. Matching is tiered and applied in
// order, first match wins:
//
//  1. exact      - case-insensitive full-name equality
//  2. partial    - substring either way, and categories agree
//  3. synonym    - token overlap through the synonym table, and categories agree
//  4. none       - IsNew = true
//
// The library snapshot is an explicit argument so resolution stays a pure
// function of its inputs; for a fixed snapshot the same candidate always
// resolves to the same tier and entry (ties broken by smallest entry id).
// Re-synthesis therefore produces reproducible previews.
type ExerciseResolver struct{}

// NewExerciseResolver creates a resolver.
func NewExerciseResolver() *ExerciseResolver {
	return &ExerciseResolver{}
}

// Resolve returns the candidate annotated with its resolution outcome.
// The sets/reps fields of the input are preserved untouched.
func (r *ExerciseResolver) Resolve(candidate domain.ExerciseCandidate, library []domain.Exercise) domain.ExerciseCandidate {
	// Sort a copy by id so in-tier ties always break the same way.
	sorted := make([]domain.Exercise, len(library))
	copy(sorted, library)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	name := normalizeName(candidate.Name)
	category := strings.ToLower(strings.TrimSpace(candidate.Category))

	// Tier 1: exact name match.
	for _, entry := range sorted {
		if normalizeName(entry.Name) == name {
			candidate.ExerciseID = entry.ID
			candidate.IsNew = false
			candidate.Tier = domain.TierExact
			return candidate
		}
	}

	// Tier 2: partial name match with category agreement. The category
	// check prevents cross-category false positives ("Press" against an
	// unrelated cardio entry).
	for _, entry := range sorted {
		if !categoriesAgree(category, entry.Category) {
			continue
		}
		entryName := normalizeName(entry.Name)
		if entryName == "" || name == "" {
			continue
		}
		if strings.Contains(name, entryName) || strings.Contains(entryName, name) {
			candidate.ExerciseID = entry.ID
			candidate.IsNew = false
			candidate.Tier = domain.TierPartial
			return candidate
		}
	}

	// Tier 3: synonym-token overlap with category agreement.
	candTokens := nameTokens(candidate.Name)
	for _, entry := range sorted {
		if !categoriesAgree(category, entry.Category) {
			continue
		}
		if tokensOverlap(candTokens, nameTokens(entry.Name)) {
			candidate.ExerciseID = entry.ID
			candidate.IsNew = false
			candidate.Tier = domain.TierSynonym
			return candidate
		}
	}

	// Tier 4: no match.
	candidate.ExerciseID = ""
	candidate.IsNew = true
	candidate.Tier = domain.TierNone
	return candidate
}

// categoriesAgree treats an empty candidate category as a wildcard; the
// model does not always emit one.
func categoriesAgree(candidateCategory, entryCategory string) bool {
	if candidateCategory == "" {
		return true
	}
	return candidateCategory == strings.ToLower(strings.TrimSpace(entryCategory))
}

// tokensOverlap requires at least one shared canonical token. Both token
// sets are already mapped through the synonym table.
func tokensOverlap(a, b map[string]bool) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	for tok := range a {
		if b[tok] {
			return true
		}
	}
	return false
}
