// Package workoutapi is the client for the external workout domain service,
// which owns persistent storage for exercises, training plans and workout
// sessions. This service never writes those resources directly; everything
// goes through these endpoints.
package workoutapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"alcyxob/coach-orchestrator/internal/config"
	"alcyxob/coach-orchestrator/internal/domain"
)

// --- Error Definitions ---
var (
	ErrUnavailable = errors.New("workout service unavailable")
)

// Client defines the operations the orchestrator needs from the workout
// domain service. Every create call carries an idempotency key so that a
// retried commit step does not duplicate resources.
type Client interface {
	ListExercises(ctx context.Context) ([]domain.Exercise, error)
	CreateExercise(ctx context.Context, idempotencyKey, name, category string) (string, error)
	CreatePlan(ctx context.Context, idempotencyKey string, plan CreatePlanRequest) (string, error)
	CreateSession(ctx context.Context, idempotencyKey, planID string, session CreateSessionRequest) (string, error)
}

// CreatePlanRequest is the payload for plan creation. Exercise references
// inside it must already be fully resolved ids.
type CreatePlanRequest struct {
	UserID           string `json:"userId"`
	Name             string `json:"name"`
	Difficulty       string `json:"difficulty"`
	DurationWeeks    int    `json:"durationWeeks"`
	FrequencyPerWeek int    `json:"frequencyPerWeek"`
}

// SessionExercise is one prescribed exercise within a session record.
type SessionExercise struct {
	ExerciseID  string  `json:"exerciseId"`
	Sets        int     `json:"sets"`
	Reps        int     `json:"reps"`
	Weight      float64 `json:"weight,omitempty"`
	RestSeconds int     `json:"restSeconds"`
}

// CreateSessionRequest is the payload for one workout session record.
type CreateSessionRequest struct {
	Name       string            `json:"name"`
	WeekNumber int               `json:"weekNumber"`
	Sequence   int               `json:"sequence"`
	Exercises  []SessionExercise `json:"exercises"`
}

// httpClient implements Client over the service's REST API.
type httpClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates a workout-service client from configuration.
func NewClient(cfg config.WorkoutAPIConfig) Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &httpClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// createdResponse is the common shape of all create responses.
type createdResponse struct {
	ID string `json:"id"`
}

// ListExercises fetches the current exercise library snapshot.
func (c *httpClient) ListExercises(ctx context.Context) ([]domain.Exercise, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/exercises", nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req, "")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError(resp)
	}

	var exercises []domain.Exercise
	if err := json.NewDecoder(resp.Body).Decode(&exercises); err != nil {
		return nil, fmt.Errorf("decoding exercise list: %w", err)
	}
	return exercises, nil
}

// CreateExercise creates a new exercise library entry and returns its id.
func (c *httpClient) CreateExercise(ctx context.Context, idempotencyKey, name, category string) (string, error) {
	payload := map[string]string{"name": name, "category": category}
	return c.postCreate(ctx, "/exercises", idempotencyKey, payload)
}

// CreatePlan creates the plan record and returns its id.
func (c *httpClient) CreatePlan(ctx context.Context, idempotencyKey string, plan CreatePlanRequest) (string, error) {
	return c.postCreate(ctx, "/plans", idempotencyKey, plan)
}

// CreateSession creates one workout session under a plan and returns its id.
func (c *httpClient) CreateSession(ctx context.Context, idempotencyKey, planID string, session CreateSessionRequest) (string, error) {
	return c.postCreate(ctx, "/plans/"+planID+"/workouts", idempotencyKey, session)
}

// postCreate handles the shared POST-and-decode-id flow.
func (c *httpClient) postCreate(ctx context.Context, path, idempotencyKey string, payload any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	c.setHeaders(req, idempotencyKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	// 200 covers idempotent replays where the service returns the
	// previously created resource instead of a fresh 201.
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", c.statusError(resp)
	}

	var created createdResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("decoding create response: %w", err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("create response missing id")
	}
	return created.ID, nil
}

func (c *httpClient) setHeaders(req *http.Request, idempotencyKey string) {
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}
}

func (c *httpClient) statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("workout service returned %d: %s", resp.StatusCode, string(body))
}
