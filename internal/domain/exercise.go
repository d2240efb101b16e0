// internal/domain/exercise.go
package domain

// Exercise is one entry in the workout service's exercise library, as seen
// through a read-only snapshot. The library itself is owned by the external
// workout domain service; this service only reads it for name resolution.
type Exercise struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"` // e.g., "strength", "cardio", "mobility"
}

// ResolutionTier records which matching strategy resolved a candidate.
type ResolutionTier string

const (
	TierExact   ResolutionTier = "exact"
	TierPartial ResolutionTier = "partial"
	TierSynonym ResolutionTier = "synonym"
	TierNone    ResolutionTier = "none"
)

// ExerciseCandidate is an exercise as proposed by the model, after
// resolution against the library. Exactly one of ExerciseID / IsNew holds.
type ExerciseCandidate struct {
	Name        string         `bson:"name" json:"name"`
	Category    string         `bson:"category" json:"category"`
	Sets        int            `bson:"sets" json:"sets"`
	Reps        int            `bson:"reps" json:"reps"`
	Weight      float64        `bson:"weight,omitempty" json:"weight,omitempty"`
	RestSeconds int            `bson:"restSeconds" json:"restSeconds"`
	ExerciseID  string         `bson:"exerciseId,omitempty" json:"exerciseId,omitempty"`
	IsNew       bool           `bson:"isNew" json:"isNew"`
	Tier        ResolutionTier `bson:"tier,omitempty" json:"tier,omitempty"`
}
