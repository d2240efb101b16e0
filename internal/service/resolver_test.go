package service

import (
	"testing"

	"alcyxob/coach-orchestrator/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLibrary() []domain.Exercise {
	return []domain.Exercise{
		{ID: "ex-003", Name: "Bench Press", Category: "strength"},
		{ID: "ex-001", Name: "Squat", Category: "strength"},
		{ID: "ex-007", Name: "Running", Category: "cardio"},
		{ID: "ex-005", Name: "Overhead Press", Category: "strength"},
		{ID: "ex-009", Name: "Dumbbell Row", Category: "strength"},
	}
}

func TestResolveExactMatch(t *testing.T) {
	r := NewExerciseResolver()

	got := r.Resolve(domain.ExerciseCandidate{Name: "bench press", Category: "strength"}, testLibrary())

	assert.Equal(t, domain.TierExact, got.Tier)
	assert.Equal(t, "ex-003", got.ExerciseID)
	assert.False(t, got.IsNew)
}

func TestResolvePartialMatchRequiresCategory(t *testing.T) {
	r := NewExerciseResolver()
	library := testLibrary()

	// "Barbell Bench Press" contains "Bench Press" -> tier 2.
	got := r.Resolve(domain.ExerciseCandidate{Name: "Barbell Bench Press", Category: "strength"}, library)
	assert.Equal(t, domain.TierPartial, got.Tier)
	assert.Equal(t, "ex-003", got.ExerciseID)

	// Same name against the wrong category must not match the strength entry.
	got = r.Resolve(domain.ExerciseCandidate{Name: "Barbell Bench Press", Category: "cardio"}, library)
	assert.NotEqual(t, "ex-003", got.ExerciseID)
	assert.True(t, got.IsNew)
}

func TestResolveSynonymMatch(t *testing.T) {
	r := NewExerciseResolver()

	// "Overhead Push" shares no substring with "Overhead Press" as a whole,
	// but "push" maps to "press" through the synonym table.
	got := r.Resolve(domain.ExerciseCandidate{Name: "Standing Push Overhead", Category: "strength"}, testLibrary())

	assert.Equal(t, domain.TierSynonym, got.Tier)
	assert.False(t, got.IsNew)
}

func TestResolveNoMatch(t *testing.T) {
	r := NewExerciseResolver()

	got := r.Resolve(domain.ExerciseCandidate{Name: "Zercher Squat Walks", Category: "conditioning"}, testLibrary())

	assert.Equal(t, domain.TierNone, got.Tier)
	assert.True(t, got.IsNew)
	assert.Empty(t, got.ExerciseID)
}

func TestResolveExactlyOneOfIDOrIsNew(t *testing.T) {
	r := NewExerciseResolver()
	candidates := []domain.ExerciseCandidate{
		{Name: "Squat", Category: "strength"},
		{Name: "Barbell Bench Press", Category: "strength"},
		{Name: "Zercher Squat Walks", Category: "conditioning"},
	}

	for _, c := range candidates {
		got := r.Resolve(c, testLibrary())
		if got.IsNew {
			assert.Empty(t, got.ExerciseID, "IsNew candidate %q must have no id", c.Name)
		} else {
			assert.NotEmpty(t, got.ExerciseID, "matched candidate %q must have an id", c.Name)
		}
	}
}

func TestResolveDeterministic(t *testing.T) {
	r := NewExerciseResolver()
	library := testLibrary()
	candidate := domain.ExerciseCandidate{Name: "Incline Bench Push", Category: "strength"}

	first := r.Resolve(candidate, library)
	for i := 0; i < 20; i++ {
		again := r.Resolve(candidate, library)
		require.Equal(t, first.Tier, again.Tier)
		require.Equal(t, first.ExerciseID, again.ExerciseID)
	}
}

func TestResolveTieBreaksBySmallestID(t *testing.T) {
	r := NewExerciseResolver()
	// Two entries both exactly named "Press"; the smaller id must win
	// regardless of slice order.
	library := []domain.Exercise{
		{ID: "ex-200", Name: "Press", Category: "strength"},
		{ID: "ex-100", Name: "Press", Category: "strength"},
	}

	got := r.Resolve(domain.ExerciseCandidate{Name: "Press", Category: "strength"}, library)
	assert.Equal(t, "ex-100", got.ExerciseID)
}

func TestResolvePreservesPrescription(t *testing.T) {
	r := NewExerciseResolver()
	candidate := domain.ExerciseCandidate{
		Name: "Squat", Category: "strength",
		Sets: 4, Reps: 8, Weight: 80, RestSeconds: 120,
	}

	got := r.Resolve(candidate, testLibrary())

	assert.Equal(t, 4, got.Sets)
	assert.Equal(t, 8, got.Reps)
	assert.Equal(t, 80.0, got.Weight)
	assert.Equal(t, 120, got.RestSeconds)
}

func TestResolveEmptyLibrary(t *testing.T) {
	r := NewExerciseResolver()

	got := r.Resolve(domain.ExerciseCandidate{Name: "Squat", Category: "strength"}, nil)

	assert.True(t, got.IsNew)
	assert.Equal(t, domain.TierNone, got.Tier)
}
