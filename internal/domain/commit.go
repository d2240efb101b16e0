// internal/domain/commit.go
package domain

// Outcome of a single resource creation within a commit.
const (
	OutcomeCreated = "created"
	OutcomeFailed  = "failed"
)

// ResourceOutcome records what happened to one requested resource. Exactly
// one of ID / Error is set.
type ResourceOutcome struct {
	Name    string `bson:"name" json:"name"`   // exercise name, plan name, or session name
	Index   int    `bson:"index" json:"index"` // position within its batch, 0-based
	Outcome string `bson:"outcome" json:"outcome"`
	ID      string `bson:"id,omitempty" json:"id,omitempty"`
	Error   string `bson:"error,omitempty" json:"error,omitempty"`
}

// CommitResult aggregates every sub-operation of a commit. Partial failure
// is represented here as data; no failure is ever silently dropped.
type CommitResult struct {
	Exercises []ResourceOutcome `bson:"exercises" json:"exercises"`
	Plan      *ResourceOutcome  `bson:"plan,omitempty" json:"plan,omitempty"`
	Sessions  []ResourceOutcome `bson:"sessions" json:"sessions"`
}

// ExercisesSucceeded reports whether every exercise creation succeeded
// (vacuously true when none were needed).
func (r *CommitResult) ExercisesSucceeded() bool {
	for _, o := range r.Exercises {
		if o.Outcome != OutcomeCreated {
			return false
		}
	}
	return true
}

// PlanCreated reports whether the plan record itself was created.
func (r *CommitResult) PlanCreated() bool {
	return r.Plan != nil && r.Plan.Outcome == OutcomeCreated
}

// FailedSessions returns the outcomes for session creations that failed,
// so a caller can resubmit just that subset.
func (r *CommitResult) FailedSessions() []ResourceOutcome {
	var out []ResourceOutcome
	for _, o := range r.Sessions {
		if o.Outcome == OutcomeFailed {
			out = append(out, o)
		}
	}
	return out
}
