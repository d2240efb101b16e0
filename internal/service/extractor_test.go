package service

import (
	"context"
	"errors"
	"testing"

	"alcyxob/coach-orchestrator/internal/domain"
	"alcyxob/coach-orchestrator/internal/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLLM replays scripted responses in order.
type fakeLLM struct {
	responses []string
	err       error
	calls     [][]llm.Message
}

func (f *fakeLLM) Complete(ctx context.Context, messages []llm.Message) (string, error) {
	f.calls = append(f.calls, messages)
	if f.err != nil {
		return "", f.err
	}
	if len(f.responses) == 0 {
		return "", errors.New("fakeLLM: no scripted response left")
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

func userTurns(texts ...string) []domain.Turn {
	var turns []domain.Turn
	for _, t := range texts {
		turns = append(turns, domain.Turn{Role: domain.RoleUser, Text: t})
	}
	return turns
}

func TestExtractMergesStatedFields(t *testing.T) {
	fake := &fakeLLM{responses: []string{`{"goal": "build_muscle"}`}}
	e := NewRequirementExtractor(fake)

	updated, missing, err := e.Extract(context.Background(), userTurns("I want to build muscle"), domain.RequirementSet{})

	require.NoError(t, err)
	assert.Equal(t, "build_muscle", updated.Goal)
	assert.Contains(t, missing, domain.FieldDurationWeeks)
	assert.Contains(t, missing, domain.FieldFrequency)
}

func TestExtractMonotonicMerge(t *testing.T) {
	// A later turn that does not mention the goal must not revert it.
	fake := &fakeLLM{responses: []string{`{"duration_weeks": 12, "frequency_per_week": 4}`}}
	e := NewRequirementExtractor(fake)

	prior := domain.RequirementSet{Goal: "build_muscle"}
	updated, _, err := e.Extract(context.Background(), userTurns("12 weeks, 4 days a week"), prior)

	require.NoError(t, err)
	assert.Equal(t, "build_muscle", updated.Goal)
	assert.Equal(t, 12, updated.DurationWeeks)
	assert.Equal(t, 4, updated.FrequencyPerWeek)
	assert.True(t, updated.IsComplete())
}

func TestExtractDropsInvalidFields(t *testing.T) {
	// Non-positive duration and out-of-range frequency must be treated as
	// still missing, not accepted malformed.
	fake := &fakeLLM{responses: []string{`{"goal": "lose_weight", "duration_weeks": -3, "frequency_per_week": 9, "experience_level": "ninja"}`}}
	e := NewRequirementExtractor(fake)

	updated, missing, err := e.Extract(context.Background(), userTurns("whatever"), domain.RequirementSet{})

	require.NoError(t, err)
	assert.Equal(t, "lose_weight", updated.Goal)
	assert.Zero(t, updated.DurationWeeks)
	assert.Zero(t, updated.FrequencyPerWeek)
	assert.Empty(t, updated.ExperienceLevel)
	assert.Contains(t, missing, domain.FieldDurationWeeks)
	assert.Contains(t, missing, domain.FieldFrequency)
}

func TestExtractModelFailureLeavesPriorUntouched(t *testing.T) {
	fake := &fakeLLM{err: errors.New("model unavailable")}
	e := NewRequirementExtractor(fake)

	prior := domain.RequirementSet{Goal: "build_muscle", DurationWeeks: 8}
	updated, _, err := e.Extract(context.Background(), userTurns("4 days"), prior)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExtraction)
	assert.Equal(t, prior, updated)
}

func TestExtractUnparseableResponse(t *testing.T) {
	fake := &fakeLLM{responses: []string{"sorry, I cannot help with that"}}
	e := NewRequirementExtractor(fake)

	_, _, err := e.Extract(context.Background(), userTurns("hello"), domain.RequirementSet{})

	assert.ErrorIs(t, err, ErrExtraction)
}

func TestExtractHandlesMarkdownFencedJSON(t *testing.T) {
	fake := &fakeLLM{responses: []string{"Here you go:\n```json\n{\"goal\": \"general_fitness\", \"equipment\": [\"dumbbells\", \"dumbbells\", \"\"]}\n```"}}
	e := NewRequirementExtractor(fake)

	updated, _, err := e.Extract(context.Background(), userTurns("just general fitness with dumbbells"), domain.RequirementSet{})

	require.NoError(t, err)
	assert.Equal(t, "general_fitness", updated.Goal)
	assert.Equal(t, []string{"dumbbells"}, updated.Equipment)
}

func TestFollowUpQuestionPriority(t *testing.T) {
	tests := []struct {
		name    string
		reqs    domain.RequirementSet
		wantFor string
	}{
		{"nothing known", domain.RequirementSet{}, domain.FieldGoal},
		{"goal known", domain.RequirementSet{Goal: "build_muscle"}, domain.FieldDurationWeeks},
		{"goal and duration known", domain.RequirementSet{Goal: "build_muscle", DurationWeeks: 12}, domain.FieldFrequency},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			question := FollowUpQuestion(tt.reqs.Missing())
			assert.Equal(t, fieldQuestions[tt.wantFor], question)
		})
	}
}
