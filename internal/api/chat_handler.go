package api

import (
	"errors"
	"net/http"

	"alcyxob/coach-orchestrator/internal/domain"
	"alcyxob/coach-orchestrator/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChatHandler holds the conversation service dependency.
type ChatHandler struct {
	conversationService service.ConversationService
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(conversationService service.ConversationService) *ChatHandler {
	return &ChatHandler{conversationService: conversationService}
}

// --- DTOs for API (Data Transfer Objects) ---

// MessageRequest is the body of POST /plan-chat. SessionID is omitted to
// start a new conversation.
type MessageRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message" binding:"required"`
}

// ApproveRequest is the body of POST /plan-chat/approve. Exactly one of
// Approved / Modification should be set.
type ApproveRequest struct {
	SessionID    string `json:"sessionId" binding:"required"`
	Approved     bool   `json:"approved"`
	Modification string `json:"modification"`
}

// AdvanceResponse returns either a follow-up question or a plan preview.
type AdvanceResponse struct {
	SessionID string                     `json:"sessionId"`
	State     domain.SessionState        `json:"state"`
	Question  string                     `json:"question,omitempty"`
	Preview   *domain.GeneratedPlanDraft `json:"preview,omitempty"`
}

// CommitResponse wraps the commit result with the final session state.
type CommitResponse struct {
	SessionID string               `json:"sessionId"`
	State     domain.SessionState  `json:"state"`
	Result    *domain.CommitResult `json:"result"`
}

// SessionResponse is the transcript view of a session.
type SessionResponse struct {
	SessionID    string                     `json:"sessionId"`
	State        domain.SessionState        `json:"state"`
	Turns        []domain.Turn              `json:"turns"`
	Requirements domain.RequirementSet      `json:"requirements"`
	Preview      *domain.GeneratedPlanDraft `json:"preview,omitempty"`
	Result       *domain.CommitResult       `json:"result,omitempty"`
}

// --- Handler Methods ---

// PostMessage handles one conversational turn.
// POST /api/v1/plan-chat
func (h *ChatHandler) PostMessage(c *gin.Context) {
	var req MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	userID, ok := h.userID(c)
	if !ok {
		return
	}

	sessionID := primitive.NilObjectID
	if req.SessionID != "" {
		var err error
		sessionID, err = primitive.ObjectIDFromHex(req.SessionID)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid session ID format.")
			return
		}
	}

	result, err := h.conversationService.Advance(c.Request.Context(), sessionID, userID, req.Message)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, AdvanceResponse{
		SessionID: result.SessionID.Hex(),
		State:     result.State,
		Question:  result.Question,
		Preview:   result.Draft,
	})
}

// PostApprove handles approval or modification of a previewed plan.
// POST /api/v1/plan-chat/approve
func (h *ChatHandler) PostApprove(c *gin.Context) {
	var req ApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	if !req.Approved && req.Modification == "" {
		abortWithError(c, http.StatusBadRequest, "Either 'approved' or 'modification' is required.")
		return
	}

	userID, ok := h.userID(c)
	if !ok {
		return
	}

	sessionID, err := primitive.ObjectIDFromHex(req.SessionID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid session ID format.")
		return
	}

	if req.Approved {
		result, err := h.conversationService.Approve(c.Request.Context(), sessionID, userID)
		if err != nil {
			var fatal *service.CommitFatalError
			if errors.As(err, &fatal) {
				// Partial result travels with the error so the caller can
				// retry precisely.
				c.JSON(http.StatusBadGateway, CommitResponse{
					SessionID: req.SessionID,
					State:     domain.StateFailed,
					Result:    fatal.Result,
				})
				return
			}
			h.handleServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, CommitResponse{
			SessionID: req.SessionID,
			State:     domain.StateCommitted,
			Result:    result,
		})
		return
	}

	advance, err := h.conversationService.Modify(c.Request.Context(), sessionID, userID, req.Modification)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, AdvanceResponse{
		SessionID: advance.SessionID.Hex(),
		State:     advance.State,
		Preview:   advance.Draft,
	})
}

// GetSession returns the transcript and current state of a session.
// GET /api/v1/plan-chat/:id
func (h *ChatHandler) GetSession(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	sessionID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid session ID format.")
		return
	}

	session, err := h.conversationService.Get(c.Request.Context(), sessionID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SessionResponse{
		SessionID:    session.ID.Hex(),
		State:        session.State,
		Turns:        session.Turns,
		Requirements: session.Requirements,
		Preview:      session.Draft,
		Result:       session.CommitResult,
	})
}

// DeleteSession abandons a session.
// DELETE /api/v1/plan-chat/:id
func (h *ChatHandler) DeleteSession(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	sessionID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid session ID format.")
		return
	}

	if err := h.conversationService.Abandon(c.Request.Context(), sessionID, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// userID pulls the authenticated user id from the JWT context.
func (h *ChatHandler) userID(c *gin.Context) (primitive.ObjectID, bool) {
	userIDStr, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(userIDStr)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid user ID format in token.")
		return primitive.NilObjectID, false
	}
	return userID, true
}

// handleServiceError maps service errors to HTTP responses with enough
// detail for the UI to offer a precise retry.
func (h *ChatHandler) handleServiceError(c *gin.Context, err error) {
	var synthesisErr *service.SynthesisError
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrSessionAccessDenied):
		abortWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrSessionBusy):
		c.Header("Retry-After", "2")
		abortWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrSessionTerminal),
		errors.Is(err, service.ErrNotPreviewing),
		errors.Is(err, service.ErrAbandonForbidden):
		abortWithError(c, http.StatusConflict, err.Error())
	case errors.As(err, &synthesisErr):
		// Retryable: the session stays in READY_TO_GENERATE.
		abortWithError(c, http.StatusBadGateway, "Plan generation failed, please try again: "+synthesisErr.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred.")
	}
}
