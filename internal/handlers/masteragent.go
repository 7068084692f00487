package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lumawell/luma-backend/internal/apierr"
	"github.com/lumawell/luma-backend/internal/logger"
	"github.com/lumawell/luma-backend/internal/requestdata"
	"github.com/lumawell/luma-backend/internal/services"
)

// MasterAgentHandler exposes the nudge delivery contract: event ingestion,
// per-surface nudge fetch, accept/dismiss transitions, feedback, and the
// derived context read.
type MasterAgentHandler struct {
	log         *logger.Logger
	eventSvc    services.EventService
	contextSvc  services.ContextService
	nudgeSvc    services.NudgeService
	feedbackSvc services.FeedbackService
}

func NewMasterAgentHandler(
	log *logger.Logger,
	eventSvc services.EventService,
	contextSvc services.ContextService,
	nudgeSvc services.NudgeService,
	feedbackSvc services.FeedbackService,
) *MasterAgentHandler {
	return &MasterAgentHandler{
		log:         log.With("handler", "MasterAgentHandler"),
		eventSvc:    eventSvc,
		contextSvc:  contextSvc,
		nudgeSvc:    nudgeSvc,
		feedbackSvc: feedbackSvc,
	}
}

// POST /api/v1/master-agent/events
// Fire-and-forget from the client; failures are still surfaced here so the
// server logs them, the client just does not look.
func (h *MasterAgentHandler) LogEvent(c *gin.Context) {
	var input services.EventInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, apierr.Validation("invalid request body: %v", err))
		return
	}
	event, err := h.eventSvc.Log(c.Request.Context(), nil, input)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondCreated(c, gin.H{"event_id": event.ID})
}

// GET /api/v1/master-agent/nudges/:surface
func (h *MasterAgentHandler) GetNudges(c *gin.Context) {
	surface := c.Param("surface")
	nudges, err := h.nudgeSvc.ListPending(c.Request.Context(), surface)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"nudges": nudges})
}

// POST /api/v1/master-agent/nudges/:id/accept
func (h *MasterAgentHandler) AcceptNudge(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, apierr.Validation("invalid nudge id"))
		return
	}
	if _, err := h.nudgeSvc.Accept(c.Request.Context(), id); err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"accepted": true})
}

// POST /api/v1/master-agent/nudges/:id/dismiss
func (h *MasterAgentHandler) DismissNudge(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, apierr.Validation("invalid nudge id"))
		return
	}
	if _, err := h.nudgeSvc.Dismiss(c.Request.Context(), id); err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"dismissed": true})
}

// POST /api/v1/master-agent/feedback
func (h *MasterAgentHandler) RecordFeedback(c *gin.Context) {
	var input services.FeedbackInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, apierr.Validation("invalid request body: %v", err))
		return
	}
	feedback, err := h.feedbackSvc.Record(c.Request.Context(), nil, input)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondCreated(c, gin.H{"feedback_id": feedback.ID})
}

// GET /api/v1/master-agent/context
func (h *MasterAgentHandler) GetContext(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, apierr.Unauthorized("not authenticated"))
		return
	}
	snapshot, err := h.contextSvc.Snapshot(c.Request.Context(), rd.UserID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"context": snapshot})
}
