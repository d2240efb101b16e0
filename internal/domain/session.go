// internal/domain/session.go
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SessionState tracks where a conversation sits in the plan-creation flow.
type SessionState string

const (
	StateCollecting      SessionState = "COLLECTING"
	StateReadyToGenerate SessionState = "READY_TO_GENERATE"
	StatePreviewing      SessionState = "PREVIEWING"
	StateApproved        SessionState = "APPROVED"
	StateCommitting      SessionState = "COMMITTING"
	StateCommitted       SessionState = "COMMITTED"
	StateFailed          SessionState = "FAILED"
)

// IsTerminal reports whether the session can no longer accept messages.
// FAILED is not terminal: the caller may retry the commit.
func (s SessionState) IsTerminal() bool {
	return s == StateCommitted
}

// Turn roles within a conversation.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is a single message in the conversation, either side.
type Turn struct {
	Role      string    `bson:"role" json:"role"`
	Text      string    `bson:"text" json:"text"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// ConversationSession holds everything the orchestrator knows about one
// plan-creation conversation. It is the only durable state this service owns.
type ConversationSession struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID       primitive.ObjectID  `bson:"userId" json:"userId"`
	Turns        []Turn              `bson:"turns" json:"turns"`
	Requirements RequirementSet      `bson:"requirements" json:"requirements"`
	State        SessionState        `bson:"state" json:"state"`
	Draft        *GeneratedPlanDraft `bson:"draft,omitempty" json:"draft,omitempty"`
	CommitResult *CommitResult       `bson:"commitResult,omitempty" json:"commitResult,omitempty"`
	CreatedAt    time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// AppendTurn records a message at the end of the conversation.
func (s *ConversationSession) AppendTurn(role, text string) {
	s.Turns = append(s.Turns, Turn{Role: role, Text: text, CreatedAt: time.Now().UTC()})
}
