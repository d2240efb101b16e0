package service

import (
	"context"
	"fmt"
	"log"
	"sync"

	"alcyxob/coach-orchestrator/internal/domain"
	"alcyxob/coach-orchestrator/internal/workoutapi"
)

// CommitFatalError is raised only when plan creation itself fails: the plan
// is the parent of all session records, so nothing further can be created.
// The partial result accumulated so far is carried along.
type CommitFatalError struct {
	Result *domain.CommitResult
	Cause  error
}

func (e *CommitFatalError) Error() string {
	return fmt.Sprintf("plan creation failed: %v", e.Cause)
}

func (e *CommitFatalError) Unwrap() error { return e.Cause }

// CommitOrchestrator persists an approved draft to the workout domain
// service in three ordered steps:
//
//  1. best-effort batch creation of new exercises (all attempted, in parallel)
//  2. plan creation (exercise failures are reported, not blocking)
//  3. best-effort batch creation of one session record per SessionPlan
//
// Steps are separated by barriers, not locks; sub-requests within a step
// are independent and dispatched concurrently. Every request carries an
// idempotency key derived from (session id, resource kind, index), so a
// retried commit never duplicates resources.
type CommitOrchestrator struct {
	api workoutapi.Client
}

// NewCommitOrchestrator creates a commit orchestrator.
func NewCommitOrchestrator(api workoutapi.Client) *CommitOrchestrator {
	return &CommitOrchestrator{api: api}
}

// idempotencyKey builds the deterministic key for one resource creation.
func idempotencyKey(sessionID, kind string, index int) string {
	return fmt.Sprintf("%s:%s:%d", sessionID, kind, index)
}

// Commit runs the full commit for a session whose draft has been approved.
// The returned CommitResult always reflects every attempted sub-operation;
// partial failure of steps 1 and 3 is data, not an error. Only a plan
// creation failure is returned as *CommitFatalError.
func (o *CommitOrchestrator) Commit(ctx context.Context, session *domain.ConversationSession) (*domain.CommitResult, error) {
	draft := session.Draft
	sessionID := session.ID.Hex()
	result := &domain.CommitResult{}

	// Step 1: create new exercises, best-effort, concurrently. Failures do
	// not abort the rest of the batch; exercises are independent entities.
	newExercises := draft.NewExercises()
	result.Exercises = make([]domain.ResourceOutcome, len(newExercises))
	exerciseIDs := make(map[string]string) // name -> created id

	var wg sync.WaitGroup
	var mu sync.Mutex
	for i, ex := range newExercises {
		wg.Add(1)
		go func(i int, ex domain.ExerciseCandidate) {
			defer wg.Done()
			key := idempotencyKey(sessionID, "exercise", i)
			id, err := o.api.CreateExercise(ctx, key, ex.Name, ex.Category)
			outcome := domain.ResourceOutcome{Name: ex.Name, Index: i}
			if err != nil {
				outcome.Outcome = domain.OutcomeFailed
				outcome.Error = err.Error()
			} else {
				outcome.Outcome = domain.OutcomeCreated
				outcome.ID = id
			}
			mu.Lock()
			result.Exercises[i] = outcome
			if err == nil {
				exerciseIDs[ex.Name] = id
			}
			mu.Unlock()
		}(i, ex)
	}
	wg.Wait() // barrier: plan creation must see all exercise outcomes

	// Step 2: plan creation. Exercise failures are best-effort partial
	// results, not blockers; they are reported in the result and the
	// affected references are simply absent from the session records.
	if !result.ExercisesSucceeded() {
		log.Printf("WARN: commit for session %s: %d/%d exercise creations failed, continuing",
			sessionID, len(result.Exercises)-countCreated(result.Exercises), len(result.Exercises))
	}

	planID, err := o.api.CreatePlan(ctx, idempotencyKey(sessionID, "plan", 0), workoutapi.CreatePlanRequest{
		UserID:           session.UserID.Hex(),
		Name:             draft.Name,
		Difficulty:       draft.Difficulty,
		DurationWeeks:    draft.DurationWeeks,
		FrequencyPerWeek: draft.FrequencyPerWeek,
	})
	if err != nil {
		result.Plan = &domain.ResourceOutcome{Name: draft.Name, Outcome: domain.OutcomeFailed, Error: err.Error()}
		return result, &CommitFatalError{Result: result, Cause: err}
	}
	result.Plan = &domain.ResourceOutcome{Name: draft.Name, Outcome: domain.OutcomeCreated, ID: planID}

	// Step 3: session records, best-effort, concurrently, after the plan
	// barrier. Index order of keys follows week/session order so a retry
	// of the failed subset is idempotent by session index.
	o.createSessions(ctx, sessionID, planID, draft, exerciseIDs, result)

	if failed := result.FailedSessions(); len(failed) > 0 {
		log.Printf("WARN: commit for session %s completed with %d/%d session creations failed",
			sessionID, len(failed), len(result.Sessions))
	}
	return result, nil
}

// createSessions dispatches the per-SessionPlan creations.
func (o *CommitOrchestrator) createSessions(ctx context.Context, sessionID, planID string, draft *domain.GeneratedPlanDraft, exerciseIDs map[string]string, result *domain.CommitResult) {
	type job struct {
		index      int
		weekNumber int
		plan       domain.SessionPlan
	}
	var jobs []job
	idx := 0
	for _, week := range draft.Weeks {
		for _, sp := range week.Sessions {
			jobs = append(jobs, job{index: idx, weekNumber: week.WeekNumber, plan: sp})
			idx++
		}
	}

	result.Sessions = make([]domain.ResourceOutcome, len(jobs))

	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, j := range jobs {
		wg.Add(1)
		go func(j job) {
			defer wg.Done()
			req := workoutapi.CreateSessionRequest{
				Name:       j.plan.Name,
				WeekNumber: j.weekNumber,
				Sequence:   j.plan.Sequence,
			}
			for _, ex := range j.plan.Exercises {
				id := resolvedExerciseID(ex, exerciseIDs)
				if id == "" {
					// The exercise creation failed in step 1; its failure
					// is already reported in the result.
					continue
				}
				req.Exercises = append(req.Exercises, workoutapi.SessionExercise{
					ExerciseID:  id,
					Sets:        ex.Sets,
					Reps:        ex.Reps,
					Weight:      ex.Weight,
					RestSeconds: ex.RestSeconds,
				})
			}

			key := idempotencyKey(sessionID, "session", j.index)
			id, err := o.api.CreateSession(ctx, key, planID, req)
			outcome := domain.ResourceOutcome{Name: j.plan.Name, Index: j.index}
			if err != nil {
				outcome.Outcome = domain.OutcomeFailed
				outcome.Error = err.Error()
			} else {
				outcome.Outcome = domain.OutcomeCreated
				outcome.ID = id
			}
			mu.Lock()
			result.Sessions[j.index] = outcome
			mu.Unlock()
		}(j)
	}
	wg.Wait()
}

// resolvedExerciseID prefers the id matched during resolution and falls
// back to the id assigned when the exercise was created in step 1.
func resolvedExerciseID(ex domain.ExerciseCandidate, created map[string]string) string {
	if ex.ExerciseID != "" {
		return ex.ExerciseID
	}
	return created[ex.Name]
}

func countCreated(outcomes []domain.ResourceOutcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Outcome == domain.OutcomeCreated {
			n++
		}
	}
	return n
}
