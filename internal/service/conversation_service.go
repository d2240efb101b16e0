package service

import (
	"context"
	"errors"
	"log"

	"alcyxob/coach-orchestrator/internal/domain"
	"alcyxob/coach-orchestrator/internal/repository"
	"alcyxob/coach-orchestrator/internal/storage"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrSessionNotFound     = errors.New("conversation session not found")
	ErrSessionAccessDenied = errors.New("access denied to this conversation session")
	ErrSessionBusy         = errors.New("session is already processing a message")
	ErrSessionTerminal     = errors.New("session is already committed")
	ErrNotPreviewing       = errors.New("session has no plan preview awaiting approval")
	ErrAbandonForbidden    = errors.New("session cannot be abandoned once commit has started")
)

// AdvanceResult is what one conversation turn produces: either a follow-up
// question (state COLLECTING) or a plan preview (state PREVIEWING).
type AdvanceResult struct {
	SessionID primitive.ObjectID
	State     domain.SessionState
	Question  string
	Draft     *domain.GeneratedPlanDraft
}

// ConversationService is the conversation state machine. It owns each
// session for its lifetime and is the only mutator of session state.
type ConversationService interface {
	// Advance processes one user message. A nil session id starts a new session.
	Advance(ctx context.Context, sessionID primitive.ObjectID, userID primitive.ObjectID, message string) (*AdvanceResult, error)
	// Approve commits the previewed plan.
	Approve(ctx context.Context, sessionID, userID primitive.ObjectID) (*domain.CommitResult, error)
	// Modify re-synthesizes the previewed plan with a change instruction.
	Modify(ctx context.Context, sessionID, userID primitive.ObjectID, instruction string) (*AdvanceResult, error)
	// Get returns the session for transcript/preview display.
	Get(ctx context.Context, sessionID, userID primitive.ObjectID) (*domain.ConversationSession, error)
	// Abandon archives and discards a session that has not started committing.
	Abandon(ctx context.Context, sessionID, userID primitive.ObjectID) error
}

// conversationService implements the ConversationService interface.
type conversationService struct {
	sessionRepo repository.SessionRepository
	extractor   *RequirementExtractor
	synthesizer *PlanSynthesizer
	committer   *CommitOrchestrator
	archive     storage.SessionArchive
	guard       *sessionGuard
}

// NewConversationService creates a new instance of conversationService.
func NewConversationService(
	sessionRepo repository.SessionRepository,
	extractor *RequirementExtractor,
	synthesizer *PlanSynthesizer,
	committer *CommitOrchestrator,
	archive storage.SessionArchive,
) ConversationService {
	return &conversationService{
		sessionRepo: sessionRepo,
		extractor:   extractor,
		synthesizer: synthesizer,
		committer:   committer,
		archive:     archive,
		guard:       newSessionGuard(),
	}
}

// Advance appends the turn, merges newly stated requirements, and either
// asks the next follow-up question or generates the plan preview.
func (s *conversationService) Advance(ctx context.Context, sessionID, userID primitive.ObjectID, message string) (*AdvanceResult, error) {
	session, err := s.loadOrCreate(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}

	if !s.guard.acquire(session.ID.Hex()) {
		return nil, ErrSessionBusy
	}
	defer s.guard.release(session.ID.Hex())

	if session.State.IsTerminal() {
		return nil, ErrSessionTerminal
	}

	session.AppendTurn(domain.RoleUser, message)

	switch session.State {
	case domain.StateCollecting:
		return s.collectAndMaybeGenerate(ctx, session)
	case domain.StateReadyToGenerate:
		// A previous synthesis attempt failed; requirements are complete.
		// The new message may still refine them before the retry.
		return s.collectAndMaybeGenerate(ctx, session)
	case domain.StatePreviewing, domain.StateFailed:
		// A message while previewing is a modification request.
		return s.modifyLocked(ctx, session, message)
	default:
		return nil, ErrSessionBusy
	}
}

// collectAndMaybeGenerate runs extraction and, once the requirement set is
// complete, synthesis. Session state is persisted after every transition.
func (s *conversationService) collectAndMaybeGenerate(ctx context.Context, session *domain.ConversationSession) (*AdvanceResult, error) {
	updated, missing, err := s.extractor.Extract(ctx, session.Turns, session.Requirements)
	if err != nil {
		// ExtractionError: conversation state unchanged, re-ask the same
		// question. The turn is still persisted so the user's words are
		// not lost.
		log.Printf("WARN: extraction failed for session %s: %v", session.ID.Hex(), err)
		question := FollowUpQuestion(session.Requirements.Missing())
		if question == "" {
			question = fieldQuestions[domain.FieldGoal]
		}
		session.AppendTurn(domain.RoleAssistant, question)
		if perr := s.sessionRepo.Update(ctx, session); perr != nil {
			return nil, perr
		}
		return &AdvanceResult{SessionID: session.ID, State: session.State, Question: question}, nil
	}

	session.Requirements = updated

	if !updated.IsComplete() {
		question := FollowUpQuestion(missing)
		session.AppendTurn(domain.RoleAssistant, question)
		session.State = domain.StateCollecting
		if err := s.sessionRepo.Update(ctx, session); err != nil {
			return nil, err
		}
		return &AdvanceResult{SessionID: session.ID, State: session.State, Question: question}, nil
	}

	// Requirements complete: transition and persist before the (slow)
	// synthesis call so a crash resumes from READY_TO_GENERATE.
	session.State = domain.StateReadyToGenerate
	if err := s.sessionRepo.Update(ctx, session); err != nil {
		return nil, err
	}

	return s.synthesizeAndPreview(ctx, session, "")
}

// synthesizeAndPreview invokes the synthesizer and moves to PREVIEWING on
// success. On failure the session remains in READY_TO_GENERATE and the
// error is surfaced as retryable.
func (s *conversationService) synthesizeAndPreview(ctx context.Context, session *domain.ConversationSession, modification string) (*AdvanceResult, error) {
	draft, err := s.synthesizer.Synthesize(ctx, session.Requirements, modification)
	if err != nil {
		session.State = domain.StateReadyToGenerate
		if perr := s.sessionRepo.Update(ctx, session); perr != nil {
			log.Printf("ERROR: persisting session %s after synthesis failure: %v", session.ID.Hex(), perr)
		}
		return nil, err
	}

	session.Draft = draft
	session.State = domain.StatePreviewing
	session.AppendTurn(domain.RoleAssistant, "Here is your plan preview: "+draft.Name)
	if err := s.sessionRepo.Update(ctx, session); err != nil {
		return nil, err
	}

	return &AdvanceResult{SessionID: session.ID, State: session.State, Draft: draft}, nil
}

// Approve performs the ordered commit of the previewed plan. Callable from
// PREVIEWING, or from FAILED to retry a commit whose plan creation failed
// (safe thanks to idempotency keys).
func (s *conversationService) Approve(ctx context.Context, sessionID, userID primitive.ObjectID) (*domain.CommitResult, error) {
	session, err := s.load(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}

	if !s.guard.acquire(session.ID.Hex()) {
		return nil, ErrSessionBusy
	}
	defer s.guard.release(session.ID.Hex())

	if session.State != domain.StatePreviewing && session.State != domain.StateFailed {
		if session.State.IsTerminal() {
			return session.CommitResult, ErrSessionTerminal
		}
		return nil, ErrNotPreviewing
	}

	session.State = domain.StateApproved
	if err := s.sessionRepo.Update(ctx, session); err != nil {
		return nil, err
	}

	// Once COMMITTING starts, the commit runs to completion and reports
	// whatever partial result occurred; abandonment is no longer allowed.
	session.State = domain.StateCommitting
	if err := s.sessionRepo.Update(ctx, session); err != nil {
		return nil, err
	}

	result, err := s.committer.Commit(ctx, session)
	session.CommitResult = result

	var fatal *CommitFatalError
	if errors.As(err, &fatal) {
		session.State = domain.StateFailed
		if perr := s.sessionRepo.Update(ctx, session); perr != nil {
			log.Printf("ERROR: persisting session %s after commit failure: %v", session.ID.Hex(), perr)
		}
		return result, err
	}

	session.State = domain.StateCommitted
	if perr := s.sessionRepo.Update(ctx, session); perr != nil {
		log.Printf("ERROR: persisting session %s after commit: %v", session.ID.Hex(), perr)
	}

	// Archive the finished conversation; failure here never fails the commit.
	if aerr := s.archive.ArchiveSession(ctx, session); aerr != nil {
		log.Printf("WARN: archiving session %s failed: %v", session.ID.Hex(), aerr)
	}

	return result, nil
}

// Modify loops the previewed plan back through the synthesizer with the
// user's change instruction. Requirements are already complete, so the
// session re-enters READY_TO_GENERATE rather than COLLECTING.
func (s *conversationService) Modify(ctx context.Context, sessionID, userID primitive.ObjectID, instruction string) (*AdvanceResult, error) {
	session, err := s.load(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}

	if !s.guard.acquire(session.ID.Hex()) {
		return nil, ErrSessionBusy
	}
	defer s.guard.release(session.ID.Hex())

	session.AppendTurn(domain.RoleUser, instruction)
	return s.modifyLocked(ctx, session, instruction)
}

// modifyLocked assumes the guard is held and the user turn appended.
func (s *conversationService) modifyLocked(ctx context.Context, session *domain.ConversationSession, instruction string) (*AdvanceResult, error) {
	if session.State != domain.StatePreviewing && session.State != domain.StateFailed {
		return nil, ErrNotPreviewing
	}

	session.State = domain.StateReadyToGenerate
	if err := s.sessionRepo.Update(ctx, session); err != nil {
		return nil, err
	}

	return s.synthesizeAndPreview(ctx, session, instruction)
}

// Get returns the session for display.
func (s *conversationService) Get(ctx context.Context, sessionID, userID primitive.ObjectID) (*domain.ConversationSession, error) {
	return s.load(ctx, sessionID, userID)
}

// Abandon archives and deletes a session. Permitted in any state before
// COMMITTING; once commit has started it must run to completion.
func (s *conversationService) Abandon(ctx context.Context, sessionID, userID primitive.ObjectID) error {
	session, err := s.load(ctx, sessionID, userID)
	if err != nil {
		return err
	}

	if !s.guard.acquire(session.ID.Hex()) {
		return ErrSessionBusy
	}
	defer s.guard.release(session.ID.Hex())

	switch session.State {
	case domain.StateCommitting, domain.StateCommitted:
		return ErrAbandonForbidden
	}

	if aerr := s.archive.ArchiveSession(ctx, session); aerr != nil {
		log.Printf("WARN: archiving abandoned session %s failed: %v", session.ID.Hex(), aerr)
	}

	return s.sessionRepo.Delete(ctx, sessionID, userID)
}

// load fetches a session and checks ownership.
func (s *conversationService) load(ctx context.Context, sessionID, userID primitive.ObjectID) (*domain.ConversationSession, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if session.UserID != userID {
		return nil, ErrSessionAccessDenied
	}
	return session, nil
}

// loadOrCreate fetches an existing session or creates a fresh one when the
// id is nil (first message of a new conversation).
func (s *conversationService) loadOrCreate(ctx context.Context, sessionID, userID primitive.ObjectID) (*domain.ConversationSession, error) {
	if sessionID == primitive.NilObjectID {
		session := &domain.ConversationSession{
			UserID: userID,
			State:  domain.StateCollecting,
		}
		id, err := s.sessionRepo.Create(ctx, session)
		if err != nil {
			return nil, err
		}
		session.ID = id
		return session, nil
	}
	return s.load(ctx, sessionID, userID)
}
