package service

import (
	"context"
	"log"
	"sync"
	"time"

	"alcyxob/coach-orchestrator/internal/domain"
	"alcyxob/coach-orchestrator/internal/workoutapi"
)

// libraryCacheTTL bounds how stale a library snapshot may get. A stale
// snapshot only risks creating a duplicate exercise on commit, so a short
// TTL is plenty.
const libraryCacheTTL = 5 * time.Minute

// CachedLibrary provides read-only exercise-library snapshots fetched from
// the workout domain service, refreshed on a TTL. Safe for concurrent use.
type CachedLibrary struct {
	api workoutapi.Client

	mu        sync.Mutex
	snapshot  []domain.Exercise
	fetchedAt time.Time
}

// NewCachedLibrary creates a library snapshot provider.
func NewCachedLibrary(api workoutapi.Client) *CachedLibrary {
	return &CachedLibrary{api: api}
}

// Snapshot returns the current library, fetching from the workout service
// if the cached copy is absent or expired. On refresh failure a non-empty
// stale snapshot is served rather than failing the caller.
func (l *CachedLibrary) Snapshot(ctx context.Context) ([]domain.Exercise, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.snapshot != nil && time.Since(l.fetchedAt) < libraryCacheTTL {
		return l.snapshot, nil
	}

	fresh, err := l.api.ListExercises(ctx)
	if err != nil {
		if l.snapshot != nil {
			log.Printf("WARN: exercise library refresh failed, serving stale snapshot: %v", err)
			return l.snapshot, nil
		}
		return nil, err
	}

	l.snapshot = fresh
	l.fetchedAt = time.Now()
	return l.snapshot, nil
}
