package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"alcyxob/coach-orchestrator/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLibrary serves a fixed snapshot.
type fakeLibrary struct {
	exercises []domain.Exercise
	err       error
}

func (f *fakeLibrary) Snapshot(ctx context.Context) ([]domain.Exercise, error) {
	return f.exercises, f.err
}

// planJSON builds a syntactically valid model response for the given shape.
func planJSON(weeks, sessionsPerWeek int, exerciseName string) string {
	type ex map[string]any
	type sess map[string]any
	type week map[string]any

	var ws []week
	for w := 1; w <= weeks; w++ {
		var ss []sess
		for s := 1; s <= sessionsPerWeek; s++ {
			ss = append(ss, sess{
				"name": fmt.Sprintf("Week %d Day %d", w, s),
				"exercises": []ex{
					{"name": exerciseName, "category": "strength", "sets": 3, "reps": 10, "rest_seconds": 90},
					{"name": "Zercher Squat Walks", "category": "conditioning", "sets": 2, "reps": 12, "rest_seconds": 60},
				},
			})
		}
		ws = append(ws, week{"week_number": w, "sessions": ss})
	}

	payload := map[string]any{
		"name":               "Hypertrophy Block",
		"difficulty":         "intermediate",
		"duration_weeks":     weeks,
		"frequency_per_week": sessionsPerWeek,
		"weeks":              ws,
	}
	b, _ := json.Marshal(payload)
	return string(b)
}

func completeReqs() domain.RequirementSet {
	return domain.RequirementSet{
		Goal:             "build_muscle",
		DurationWeeks:    12,
		FrequencyPerWeek: 4,
		ExperienceLevel:  "intermediate",
		Equipment:        []string{"barbell"},
	}
}

func TestSynthesizeValidPlan(t *testing.T) {
	fake := &fakeLLM{responses: []string{planJSON(12, 4, "Barbell Bench Press")}}
	s := NewPlanSynthesizer(fake, NewExerciseResolver(), &fakeLibrary{exercises: testLibrary()})

	draft, err := s.Synthesize(context.Background(), completeReqs(), "")

	require.NoError(t, err)
	assert.Equal(t, 12, draft.DurationWeeks)
	require.Len(t, draft.Weeks, 12)
	for _, week := range draft.Weeks {
		assert.Len(t, week.Sessions, 4)
		for _, sess := range week.Sessions {
			assert.NotEmpty(t, sess.Exercises)
		}
	}
}

func TestSynthesizeResolvesEveryExercise(t *testing.T) {
	fake := &fakeLLM{responses: []string{planJSON(2, 2, "Barbell Bench Press")}}
	reqs := completeReqs()
	reqs.DurationWeeks = 2
	reqs.FrequencyPerWeek = 2
	s := NewPlanSynthesizer(fake, NewExerciseResolver(), &fakeLibrary{exercises: testLibrary()})

	draft, err := s.Synthesize(context.Background(), reqs, "")

	require.NoError(t, err)
	for _, week := range draft.Weeks {
		for _, sess := range week.Sessions {
			for _, ex := range sess.Exercises {
				// The draft carries resolution status for every exercise.
				assert.NotEqual(t, domain.ResolutionTier(""), ex.Tier)
				if ex.Name == "Barbell Bench Press" {
					assert.Equal(t, domain.TierPartial, ex.Tier)
					assert.Equal(t, "ex-003", ex.ExerciseID)
				}
				if ex.Name == "Zercher Squat Walks" {
					assert.True(t, ex.IsNew)
				}
			}
		}
	}
}

func TestSynthesizeRepairAttempt(t *testing.T) {
	// First response has the wrong week count; the repair re-prompt
	// succeeds. The second call must carry the validation error.
	fake := &fakeLLM{responses: []string{
		planJSON(3, 4, "Squat"),
		planJSON(12, 4, "Squat"),
	}}
	s := NewPlanSynthesizer(fake, NewExerciseResolver(), &fakeLibrary{exercises: testLibrary()})

	draft, err := s.Synthesize(context.Background(), completeReqs(), "")

	require.NoError(t, err)
	assert.Len(t, draft.Weeks, 12)
	require.Len(t, fake.calls, 2)
	repairMsg := fake.calls[1][len(fake.calls[1])-1]
	assert.Contains(t, repairMsg.Content, "invalid")
}

func TestSynthesizeFailsAfterOneRepair(t *testing.T) {
	fake := &fakeLLM{responses: []string{
		planJSON(3, 4, "Squat"),
		planJSON(5, 4, "Squat"),
	}}
	s := NewPlanSynthesizer(fake, NewExerciseResolver(), &fakeLibrary{exercises: testLibrary()})

	_, err := s.Synthesize(context.Background(), completeReqs(), "")

	var synthErr *SynthesisError
	require.ErrorAs(t, err, &synthErr)
	assert.Len(t, fake.calls, 2, "exactly one repair attempt")
}

func TestSynthesizeRejectsEmptySessions(t *testing.T) {
	raw := `{"name": "P", "difficulty": "beginner", "duration_weeks": 1, "frequency_per_week": 1,
		"weeks": [{"week_number": 1, "sessions": [{"name": "Day 1", "exercises": []}]}]}`
	fake := &fakeLLM{responses: []string{raw, raw}}
	reqs := completeReqs()
	reqs.DurationWeeks = 1
	reqs.FrequencyPerWeek = 1
	s := NewPlanSynthesizer(fake, NewExerciseResolver(), &fakeLibrary{exercises: testLibrary()})

	_, err := s.Synthesize(context.Background(), reqs, "")

	var synthErr *SynthesisError
	require.ErrorAs(t, err, &synthErr)
}

func TestSynthesizeSummaryMetrics(t *testing.T) {
	fake := &fakeLLM{responses: []string{planJSON(1, 1, "Squat")}}
	reqs := completeReqs()
	reqs.DurationWeeks = 1
	reqs.FrequencyPerWeek = 1
	s := NewPlanSynthesizer(fake, NewExerciseResolver(), &fakeLibrary{exercises: testLibrary()})

	draft, err := s.Synthesize(context.Background(), reqs, "")

	require.NoError(t, err)
	// 3 sets @ 90s rest + 2 sets @ 60s rest, 40s assumed per set.
	assert.Equal(t, 5, draft.TotalSets)
	assert.Equal(t, 3*(90+40)+2*(60+40), draft.EstimatedSessionSeconds)
}

func TestSynthesizeModelFailure(t *testing.T) {
	fake := &fakeLLM{err: errors.New("model down")}
	s := NewPlanSynthesizer(fake, NewExerciseResolver(), &fakeLibrary{exercises: testLibrary()})

	_, err := s.Synthesize(context.Background(), completeReqs(), "")

	var synthErr *SynthesisError
	require.ErrorAs(t, err, &synthErr)
}
