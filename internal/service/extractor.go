package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"alcyxob/coach-orchestrator/internal/domain"
	"alcyxob/coach-orchestrator/internal/llm"
)

// --- Error Definitions ---
var (
	ErrExtraction = errors.New("requirement extraction failed")
)

const extractorSystemPrompt = `You extract structured workout-plan requirements from a conversation.
Respond with a single JSON object and nothing else. Include ONLY fields the user has actually stated:
{
  "goal": "build_muscle" | "lose_weight" | "general_fitness" | "<free text>",
  "duration_weeks": <positive integer>,
  "frequency_per_week": <integer 1-7>,
  "experience_level": "beginner" | "intermediate" | "advanced",
  "equipment": ["..."],
  "constraints": ["... e.g. injuries ..."]
}
Omit any field the user has not mentioned. Never guess.`

// extractedRequirements is the wire shape the model is asked to produce.
// Numbers arrive as json.Number-ish floats; validation happens afterwards.
type extractedRequirements struct {
	Goal             string   `json:"goal"`
	DurationWeeks    int      `json:"duration_weeks"`
	FrequencyPerWeek int      `json:"frequency_per_week"`
	ExperienceLevel  string   `json:"experience_level"`
	Equipment        []string `json:"equipment"`
	Constraints      []string `json:"constraints"`
}

// RequirementExtractor turns conversation history into a RequirementSet
// using the generative model, with strict validation of the model's output.
type RequirementExtractor struct {
	llm llm.CompletionClient
}

// NewRequirementExtractor creates an extractor.
func NewRequirementExtractor(client llm.CompletionClient) *RequirementExtractor {
	return &RequirementExtractor{llm: client}
}

// Extract calls the model over the full turn history and merges what it
// finds into prior. It is a pure function of its inputs aside from the
// model call, so a transient failure can be retried with unmodified state.
// Returns the updated set and the fields still missing, in priority order.
func (e *RequirementExtractor) Extract(ctx context.Context, turns []domain.Turn, prior domain.RequirementSet) (domain.RequirementSet, []string, error) {
	messages := []llm.Message{{Role: "system", Content: extractorSystemPrompt}}
	for _, turn := range turns {
		messages = append(messages, llm.Message{Role: turn.Role, Content: turn.Text})
	}

	content, err := e.llm.Complete(ctx, messages)
	if err != nil {
		return prior, prior.Missing(), fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	raw := llm.ExtractJSON(content)
	if raw == "" {
		return prior, prior.Missing(), fmt.Errorf("%w: no JSON object in model response", ErrExtraction)
	}

	var extracted extractedRequirements
	if err := json.Unmarshal([]byte(raw), &extracted); err != nil {
		return prior, prior.Missing(), fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	updated := prior
	updated.Merge(validateExtracted(extracted))
	return updated, updated.Missing(), nil
}

// validateExtracted coerces the model output into a RequirementSet,
// dropping any field that fails validation so it is treated as still
// missing rather than accepted malformed.
func validateExtracted(in extractedRequirements) domain.RequirementSet {
	var out domain.RequirementSet

	if goal := strings.TrimSpace(in.Goal); goal != "" {
		out.Goal = goal // known enum values and custom text are both accepted
	}
	if in.DurationWeeks > 0 {
		out.DurationWeeks = in.DurationWeeks
	}
	if in.FrequencyPerWeek >= 1 && in.FrequencyPerWeek <= 7 {
		out.FrequencyPerWeek = in.FrequencyPerWeek
	}
	switch strings.ToLower(strings.TrimSpace(in.ExperienceLevel)) {
	case domain.ExperienceBeginner, domain.ExperienceIntermediate, domain.ExperienceAdvanced:
		out.ExperienceLevel = strings.ToLower(strings.TrimSpace(in.ExperienceLevel))
	}
	out.Equipment = cleanStringSet(in.Equipment)
	out.Constraints = cleanStringSet(in.Constraints)

	return out
}

// cleanStringSet trims entries and drops empties and duplicates, keeping
// first-seen order.
func cleanStringSet(in []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[strings.ToLower(s)] {
			continue
		}
		seen[strings.ToLower(s)] = true
		out = append(out, s)
	}
	return out
}

// FollowUpQuestion returns the question to ask for the single
// highest-priority missing field. The fixed priority order avoids
// oscillating between fields or asking for everything at once.
func FollowUpQuestion(missing []string) string {
	if len(missing) == 0 {
		return ""
	}
	for _, field := range domain.FieldPriority {
		for _, m := range missing {
			if m == field {
				return fieldQuestions[field]
			}
		}
	}
	return fieldQuestions[missing[0]]
}

var fieldQuestions = map[string]string{
	domain.FieldGoal:            "What's your main goal - building muscle, losing weight, or general fitness?",
	domain.FieldDurationWeeks:   "How many weeks should the plan run?",
	domain.FieldFrequency:       "How many days per week can you train?",
	domain.FieldExperienceLevel: "How would you rate your training experience - beginner, intermediate, or advanced?",
	domain.FieldEquipment:       "What equipment do you have access to?",
	domain.FieldConstraints:     "Any injuries or other constraints I should know about?",
}
