package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"alcyxob/coach-orchestrator/internal/domain"
	"alcyxob/coach-orchestrator/internal/llm"
)

// SynthesisError is returned when the model could not produce a valid plan
// even after the single repair attempt. The session stays in
// READY_TO_GENERATE and the caller may retry.
type SynthesisError struct {
	Cause error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("plan synthesis failed: %v", e.Cause)
}

func (e *SynthesisError) Unwrap() error { return e.Cause }

// assumedSetSeconds is the assumed duration of one working set, used for the
// estimated session length. The source data only provides rest periods.
const assumedSetSeconds = 40

const synthesizerSystemPrompt = `You are a strength coach generating a structured workout plan.
Respond with a single JSON object and nothing else, in exactly this shape:
{
  "name": "<plan name>",
  "difficulty": "beginner" | "intermediate" | "advanced",
  "duration_weeks": <int>,
  "frequency_per_week": <int>,
  "weeks": [
    {
      "week_number": <int, 1-based>,
      "sessions": [
        {
          "name": "<session name>",
          "exercises": [
            {"name": "<exercise>", "category": "<category>", "sets": <int>, "reps": <int>, "weight": <kg or 0>, "rest_seconds": <int>}
          ]
        }
      ]
    }
  ]
}
Rules: exactly duration_weeks entries in "weeks"; exactly frequency_per_week sessions per week; every session has at least one exercise.`

// Wire shapes the model is asked to produce.
type rawPlan struct {
	Name             string    `json:"name"`
	Difficulty       string    `json:"difficulty"`
	DurationWeeks    int       `json:"duration_weeks"`
	FrequencyPerWeek int       `json:"frequency_per_week"`
	Weeks            []rawWeek `json:"weeks"`
}

type rawWeek struct {
	WeekNumber int          `json:"week_number"`
	Sessions   []rawSession `json:"sessions"`
}

type rawSession struct {
	Name      string        `json:"name"`
	Exercises []rawExercise `json:"exercises"`
}

type rawExercise struct {
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Sets        int     `json:"sets"`
	Reps        int     `json:"reps"`
	Weight      float64 `json:"weight"`
	RestSeconds int     `json:"rest_seconds"`
}

// LibraryProvider supplies the current exercise-library snapshot. The
// snapshot may be slightly stale; the worst case is creating a duplicate
// exercise, never corrupting state.
type LibraryProvider interface {
	Snapshot(ctx context.Context) ([]domain.Exercise, error)
}

// PlanSynthesizer calls the generative model to produce a full structured
// plan, validates its shape, resolves every exercise against the library
// and computes the derived summary metrics locally.
type PlanSynthesizer struct {
	llm      llm.CompletionClient
	resolver *ExerciseResolver
	library  LibraryProvider
}

// NewPlanSynthesizer creates a synthesizer.
func NewPlanSynthesizer(client llm.CompletionClient, resolver *ExerciseResolver, library LibraryProvider) *PlanSynthesizer {
	return &PlanSynthesizer{llm: client, resolver: resolver, library: library}
}

// Synthesize generates a plan draft for a complete requirement set.
// modification optionally carries a user instruction to change the previous
// draft ("make day 2 legs only"); it is empty for the initial generation.
// If the first model output fails validation, the model is re-prompted once
// with the validation error; a second failure yields a SynthesisError.
func (s *PlanSynthesizer) Synthesize(ctx context.Context, reqs domain.RequirementSet, modification string) (*domain.GeneratedPlanDraft, error) {
	reqs = reqs.WithDefaults()

	messages := []llm.Message{
		{Role: "system", Content: synthesizerSystemPrompt},
		{Role: "user", Content: buildPlanPrompt(reqs)},
	}
	if modification != "" {
		messages = append(messages, llm.Message{
			Role:    "user",
			Content: "Apply this change to the plan: " + modification,
		})
	}

	draft, validationErr := s.generateOnce(ctx, messages, reqs)
	if validationErr != nil {
		// Single repair attempt: feed the validation error back.
		messages = append(messages, llm.Message{
			Role:    "user",
			Content: fmt.Sprintf("The previous plan was invalid: %v. Produce a corrected JSON plan following all rules.", validationErr),
		})
		draft, validationErr = s.generateOnce(ctx, messages, reqs)
		if validationErr != nil {
			return nil, &SynthesisError{Cause: validationErr}
		}
	}

	// Resolve every exercise before returning, so the caller never sees
	// unresolved ambiguity.
	library, err := s.library.Snapshot(ctx)
	if err != nil {
		return nil, &SynthesisError{Cause: fmt.Errorf("fetching exercise library: %w", err)}
	}
	for wi := range draft.Weeks {
		for si := range draft.Weeks[wi].Sessions {
			exercises := draft.Weeks[wi].Sessions[si].Exercises
			for ei := range exercises {
				exercises[ei] = s.resolver.Resolve(exercises[ei], library)
			}
		}
	}

	computeSummary(draft)
	return draft, nil
}

// generateOnce performs one model call and full validation.
func (s *PlanSynthesizer) generateOnce(ctx context.Context, messages []llm.Message, reqs domain.RequirementSet) (*domain.GeneratedPlanDraft, error) {
	content, err := s.llm.Complete(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("model call failed: %w", err)
	}

	raw := llm.ExtractJSON(content)
	if raw == "" {
		return nil, fmt.Errorf("no JSON object in model response")
	}

	var parsed rawPlan
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("unparseable plan JSON: %w", err)
	}

	draft := mapRawPlan(parsed, reqs)
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	if err := validateAgainstRequirements(draft, reqs); err != nil {
		return nil, err
	}
	return draft, nil
}

// mapRawPlan converts the wire shape into the domain draft, forcing the
// duration and frequency to the user's requirements (the model sometimes
// restates them wrongly).
func mapRawPlan(in rawPlan, reqs domain.RequirementSet) *domain.GeneratedPlanDraft {
	draft := &domain.GeneratedPlanDraft{
		Name:             strings.TrimSpace(in.Name),
		Difficulty:       strings.TrimSpace(in.Difficulty),
		DurationWeeks:    reqs.DurationWeeks,
		FrequencyPerWeek: reqs.FrequencyPerWeek,
	}
	if draft.Difficulty == "" {
		draft.Difficulty = reqs.ExperienceLevel
	}
	for wi, week := range in.Weeks {
		w := domain.WeekPlan{WeekNumber: wi + 1}
		for si, sess := range week.Sessions {
			sp := domain.SessionPlan{
				Name:     strings.TrimSpace(sess.Name),
				Sequence: si + 1,
			}
			if sp.Name == "" {
				sp.Name = fmt.Sprintf("Week %d Day %d", wi+1, si+1)
			}
			for _, ex := range sess.Exercises {
				if strings.TrimSpace(ex.Name) == "" {
					continue
				}
				sp.Exercises = append(sp.Exercises, domain.ExerciseCandidate{
					Name:        strings.TrimSpace(ex.Name),
					Category:    strings.ToLower(strings.TrimSpace(ex.Category)),
					Sets:        ex.Sets,
					Reps:        ex.Reps,
					Weight:      ex.Weight,
					RestSeconds: ex.RestSeconds,
				})
			}
			w.Sessions = append(w.Sessions, sp)
		}
		draft.Weeks = append(draft.Weeks, w)
	}
	return draft
}

// validateAgainstRequirements checks the constraints that depend on the
// requirement set rather than the draft alone.
func validateAgainstRequirements(draft *domain.GeneratedPlanDraft, reqs domain.RequirementSet) error {
	for _, week := range draft.Weeks {
		if len(week.Sessions) != reqs.FrequencyPerWeek {
			return fmt.Errorf("week %d has %d sessions but frequency_per_week is %d",
				week.WeekNumber, len(week.Sessions), reqs.FrequencyPerWeek)
		}
	}
	return nil
}

// computeSummary fills the derived metrics deterministically from the draft,
// never from the model. EstimatedSessionSeconds is the average over all
// sessions of sets x (rest + assumed set duration).
func computeSummary(draft *domain.GeneratedPlanDraft) {
	totalSets := 0
	totalSessionSeconds := 0
	sessionCount := 0
	for _, week := range draft.Weeks {
		for _, sess := range week.Sessions {
			sessionSeconds := 0
			for _, ex := range sess.Exercises {
				totalSets += ex.Sets
				sessionSeconds += ex.Sets * (ex.RestSeconds + assumedSetSeconds)
			}
			totalSessionSeconds += sessionSeconds
			sessionCount++
		}
	}
	draft.TotalSets = totalSets
	if sessionCount > 0 {
		draft.EstimatedSessionSeconds = totalSessionSeconds / sessionCount
	}
}

// buildPlanPrompt renders the requirement set as the user prompt.
func buildPlanPrompt(reqs domain.RequirementSet) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate a workout plan.\n")
	fmt.Fprintf(&b, "Goal: %s\n", reqs.Goal)
	fmt.Fprintf(&b, "Duration: %d weeks\n", reqs.DurationWeeks)
	fmt.Fprintf(&b, "Sessions per week: %d\n", reqs.FrequencyPerWeek)
	fmt.Fprintf(&b, "Experience level: %s\n", reqs.ExperienceLevel)
	fmt.Fprintf(&b, "Available equipment: %s\n", strings.Join(reqs.Equipment, ", "))
	if len(reqs.Constraints) > 0 {
		fmt.Fprintf(&b, "Constraints: %s\n", strings.Join(reqs.Constraints, ", "))
	}
	return b.String()
}
