// internal/domain/requirements_test.go
package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequirementSetIsComplete(t *testing.T) {
	var r RequirementSet
	assert.False(t, r.IsComplete())

	r.Goal = GoalBuildMuscle
	r.DurationWeeks = 8
	assert.False(t, r.IsComplete(), "frequency still missing")

	r.FrequencyPerWeek = 3
	assert.True(t, r.IsComplete(), "optional fields are not required")
}

func TestRequirementSetMissingFollowsPriority(t *testing.T) {
	var r RequirementSet
	assert.Equal(t, []string{
		FieldGoal,
		FieldDurationWeeks,
		FieldFrequency,
		FieldExperienceLevel,
		FieldEquipment,
	}, r.Missing())

	r.Goal = GoalLoseWeight
	r.FrequencyPerWeek = 4
	assert.Equal(t, []string{
		FieldDurationWeeks,
		FieldExperienceLevel,
		FieldEquipment,
	}, r.Missing())
}

func TestRequirementSetMergeIsMonotonic(t *testing.T) {
	r := RequirementSet{Goal: GoalBuildMuscle, DurationWeeks: 12}

	r.Merge(RequirementSet{FrequencyPerWeek: 4})
	assert.Equal(t, GoalBuildMuscle, r.Goal, "absent fields keep prior values")
	assert.Equal(t, 12, r.DurationWeeks)
	assert.Equal(t, 4, r.FrequencyPerWeek)

	// A restated field overwrites.
	r.Merge(RequirementSet{DurationWeeks: 8})
	assert.Equal(t, 8, r.DurationWeeks)
	assert.Equal(t, GoalBuildMuscle, r.Goal)
}

func TestRequirementSetWithDefaults(t *testing.T) {
	r := RequirementSet{Goal: GoalGeneralFitness, DurationWeeks: 6, FrequencyPerWeek: 2}

	filled := r.WithDefaults()
	assert.Equal(t, ExperienceBeginner, filled.ExperienceLevel)
	assert.Equal(t, []string{"bodyweight"}, filled.Equipment)

	// The receiver is untouched.
	assert.Empty(t, r.ExperienceLevel)
	assert.Empty(t, r.Equipment)

	stated := RequirementSet{ExperienceLevel: ExperienceAdvanced, Equipment: []string{"barbell"}}
	filled = stated.WithDefaults()
	assert.Equal(t, ExperienceAdvanced, filled.ExperienceLevel)
	assert.Equal(t, []string{"barbell"}, filled.Equipment)
}
