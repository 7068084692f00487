package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/lumawell/luma-backend/internal/apierr"
	"github.com/lumawell/luma-backend/internal/services"
)

type JournalHandler struct {
	journalService services.JournalService
}

func NewJournalHandler(journalService services.JournalService) *JournalHandler {
	return &JournalHandler{journalService: journalService}
}

// POST /api/v1/journal/entries
func (jh *JournalHandler) Create(c *gin.Context) {
	var input services.JournalEntryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, apierr.Validation("invalid request body: %v", err))
		return
	}
	entry, err := jh.journalService.Create(c.Request.Context(), input)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondCreated(c, gin.H{"entry": entry})
}

// GET /api/v1/journal/entries?days=30
func (jh *JournalHandler) List(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))
	entries, err := jh.journalService.ListRecent(c.Request.Context(), days)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"entries": entries})
}
