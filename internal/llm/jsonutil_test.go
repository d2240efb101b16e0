package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "bare object",
			content: `{"goal": "build_muscle"}`,
			want:    `{"goal": "build_muscle"}`,
		},
		{
			name:    "markdown fenced with language tag",
			content: "```json\n{\"goal\": \"build_muscle\"}\n```",
			want:    `{"goal": "build_muscle"}`,
		},
		{
			name:    "markdown fenced without language tag",
			content: "```\n{\"duration_weeks\": 12}\n```",
			want:    `{"duration_weeks": 12}`,
		},
		{
			name:    "commentary around the object",
			content: "Sure! Here are the requirements I found:\n{\"goal\": \"lose_weight\"}\nLet me know if that looks right.",
			want:    `{"goal": "lose_weight"}`,
		},
		{
			name:    "trailing comma removed",
			content: `{"equipment": ["barbell", "dumbbell",], "frequency_per_week": 3,}`,
			want:    `{"equipment": ["barbell", "dumbbell"], "frequency_per_week": 3}`,
		},
		{
			name:    "line comments stripped",
			content: "{\n  \"goal\": \"build_muscle\", // primary goal\n  \"duration_weeks\": 8\n}",
			want:    "{\n  \"goal\": \"build_muscle\",\n  \"duration_weeks\": 8\n}",
		},
		{
			name:    "slashes inside strings survive",
			content: `{"source": "https://example.com/path"}`,
			want:    `{"source": "https://example.com/path"}`,
		},
		{
			name:    "no object present",
			content: "I could not determine any requirements from that message.",
			want:    "",
		},
		{
			name:    "empty input",
			content: "",
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSON(tt.content))
		})
	}
}

func TestExtractJSONNestedObjectParses(t *testing.T) {
	content := "```json\n{\n  \"name\": \"Strength Block\",\n  \"weeks\": [{\"week_number\": 1, \"sessions\": [],}],\n}\n```"

	extracted := ExtractJSON(content)
	require.NotEmpty(t, extracted)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal([]byte(extracted), &parsed))
	assert.Equal(t, "Strength Block", parsed["name"])
}
