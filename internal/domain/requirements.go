// internal/domain/requirements.go
package domain

// Goal values the extractor recognises. Anything else the user states is
// kept verbatim as a custom goal.
const (
	GoalBuildMuscle    = "build_muscle"
	GoalLoseWeight     = "lose_weight"
	GoalGeneralFitness = "general_fitness"
)

// Experience levels.
const (
	ExperienceBeginner     = "beginner"
	ExperienceIntermediate = "intermediate"
	ExperienceAdvanced     = "advanced"
)

// Requirement field names, in follow-up priority order. When several fields
// are missing the conversation asks about the first one in this list only.
const (
	FieldGoal            = "goal"
	FieldDurationWeeks   = "duration_weeks"
	FieldFrequency       = "frequency_per_week"
	FieldExperienceLevel = "experience_level"
	FieldEquipment       = "equipment"
	FieldConstraints     = "constraints"
)

// FieldPriority fixes the order in which missing fields are asked about.
var FieldPriority = []string{
	FieldGoal,
	FieldDurationWeeks,
	FieldFrequency,
	FieldExperienceLevel,
	FieldEquipment,
	FieldConstraints,
}

// RequirementSet accumulates what the user has told us so far. Zero values
// mean "not stated yet"; merge never reverts a field that was already set.
type RequirementSet struct {
	Goal            string   `bson:"goal,omitempty" json:"goal,omitempty"`
	DurationWeeks   int      `bson:"durationWeeks,omitempty" json:"durationWeeks,omitempty"`
	FrequencyPerWeek int     `bson:"frequencyPerWeek,omitempty" json:"frequencyPerWeek,omitempty"`
	ExperienceLevel string   `bson:"experienceLevel,omitempty" json:"experienceLevel,omitempty"`
	Equipment       []string `bson:"equipment,omitempty" json:"equipment,omitempty"`
	Constraints     []string `bson:"constraints,omitempty" json:"constraints,omitempty"`
}

// IsComplete reports whether generation can start. Goal, duration and
// frequency are required; everything else has defaults.
func (r RequirementSet) IsComplete() bool {
	return r.Goal != "" && r.DurationWeeks > 0 && r.FrequencyPerWeek > 0
}

// Missing lists required-then-optional fields not yet set, in priority order.
func (r RequirementSet) Missing() []string {
	var missing []string
	if r.Goal == "" {
		missing = append(missing, FieldGoal)
	}
	if r.DurationWeeks <= 0 {
		missing = append(missing, FieldDurationWeeks)
	}
	if r.FrequencyPerWeek <= 0 {
		missing = append(missing, FieldFrequency)
	}
	if r.ExperienceLevel == "" {
		missing = append(missing, FieldExperienceLevel)
	}
	if len(r.Equipment) == 0 {
		missing = append(missing, FieldEquipment)
	}
	return missing
}

// Merge overlays newly extracted fields onto r. Fields absent from the
// update keep their previous value (monotonic merge).
func (r *RequirementSet) Merge(update RequirementSet) {
	if update.Goal != "" {
		r.Goal = update.Goal
	}
	if update.DurationWeeks > 0 {
		r.DurationWeeks = update.DurationWeeks
	}
	if update.FrequencyPerWeek > 0 {
		r.FrequencyPerWeek = update.FrequencyPerWeek
	}
	if update.ExperienceLevel != "" {
		r.ExperienceLevel = update.ExperienceLevel
	}
	if len(update.Equipment) > 0 {
		r.Equipment = update.Equipment
	}
	if len(update.Constraints) > 0 {
		r.Constraints = update.Constraints
	}
}

// WithDefaults fills optional fields for synthesis without mutating r.
func (r RequirementSet) WithDefaults() RequirementSet {
	out := r
	if out.ExperienceLevel == "" {
		out.ExperienceLevel = ExperienceBeginner
	}
	if len(out.Equipment) == 0 {
		out.Equipment = []string{"bodyweight"}
	}
	return out
}
