package storage

import (
	"context"

	"alcyxob/coach-orchestrator/internal/domain"
)

// SessionArchive stores transcripts of terminal sessions (committed or
// abandoned) so the orchestrator can delete them from its own database
// without losing the conversation history.
type SessionArchive interface {
	// ArchiveSession writes the full session, serialized as JSON, under a
	// deterministic object key derived from the session id.
	ArchiveSession(ctx context.Context, session *domain.ConversationSession) error
}

// NoopArchive is used when archival is disabled in config.
type NoopArchive struct{}

func (NoopArchive) ArchiveSession(ctx context.Context, session *domain.ConversationSession) error {
	return nil
}
