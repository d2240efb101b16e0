// internal/domain/plan.go
package domain

import "fmt"

// SessionPlan is a single workout within a week, e.g. "Day 1: Upper Body".
type SessionPlan struct {
	Name      string              `bson:"name" json:"name"`
	Sequence  int                 `bson:"sequence" json:"sequence"` // order within the week, 1-based
	Exercises []ExerciseCandidate `bson:"exercises" json:"exercises"`
}

// WeekPlan groups the sessions of one calendar week.
type WeekPlan struct {
	WeekNumber int           `bson:"weekNumber" json:"weekNumber"` // 1-based
	Sessions   []SessionPlan `bson:"sessions" json:"sessions"`
}

// GeneratedPlanDraft is the synthesizer's output: a full multi-week plan
// awaiting user approval. Summary fields are derived locally, never taken
// from the model.
type GeneratedPlanDraft struct {
	Name             string     `bson:"name" json:"name"`
	Difficulty       string     `bson:"difficulty" json:"difficulty"`
	DurationWeeks    int        `bson:"durationWeeks" json:"durationWeeks"`
	FrequencyPerWeek int        `bson:"frequencyPerWeek" json:"frequencyPerWeek"`
	Weeks            []WeekPlan `bson:"weeks" json:"weeks"`

	// Derived summary metrics.
	TotalSets               int `bson:"totalSets" json:"totalSets"`
	EstimatedSessionSeconds int `bson:"estimatedSessionSeconds" json:"estimatedSessionSeconds"`
}

// Validate checks the structural invariants every draft must satisfy:
// week count matches the requested duration, no empty week, no session
// without exercises.
func (d *GeneratedPlanDraft) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("plan name is empty")
	}
	if d.DurationWeeks <= 0 {
		return fmt.Errorf("duration_weeks must be positive, got %d", d.DurationWeeks)
	}
	if len(d.Weeks) != d.DurationWeeks {
		return fmt.Errorf("plan has %d weeks but duration_weeks is %d", len(d.Weeks), d.DurationWeeks)
	}
	for _, week := range d.Weeks {
		if len(week.Sessions) == 0 {
			return fmt.Errorf("week %d has no sessions", week.WeekNumber)
		}
		for _, sess := range week.Sessions {
			if len(sess.Exercises) == 0 {
				return fmt.Errorf("week %d session %q has no exercises", week.WeekNumber, sess.Name)
			}
		}
	}
	return nil
}

// SessionPlans returns all sessions of the draft flattened in week/sequence
// order. Commit idempotency keys rely on this ordering being stable.
func (d *GeneratedPlanDraft) SessionPlans() []SessionPlan {
	var out []SessionPlan
	for _, week := range d.Weeks {
		out = append(out, week.Sessions...)
	}
	return out
}

// NewExercises returns the candidates that resolved to no library entry,
// deduplicated by name (the same new exercise may appear in many sessions).
func (d *GeneratedPlanDraft) NewExercises() []ExerciseCandidate {
	seen := make(map[string]bool)
	var out []ExerciseCandidate
	for _, week := range d.Weeks {
		for _, sess := range week.Sessions {
			for _, ex := range sess.Exercises {
				if ex.IsNew && !seen[ex.Name] {
					seen[ex.Name] = true
					out = append(out, ex)
				}
			}
		}
	}
	return out
}
