package repository

import (
	"alcyxob/coach-orchestrator/internal/domain"
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrUpdateFailed = RepositoryError("update failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// SessionRepository defines the interface for persisting conversation
// sessions. The session is the only durable state this service owns; it is
// saved after every state transition so that a crash mid-conversation loses
// at most the in-flight turn.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.ConversationSession) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ConversationSession, error)
	Update(ctx context.Context, session *domain.ConversationSession) error
	Delete(ctx context.Context, id primitive.ObjectID, userID primitive.ObjectID) error // Ensure user owns the session
}
