package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/lumawell/luma-backend/internal/apierr"
	"github.com/lumawell/luma-backend/internal/services"
)

type MoodHandler struct {
	moodService services.MoodService
}

func NewMoodHandler(moodService services.MoodService) *MoodHandler {
	return &MoodHandler{moodService: moodService}
}

// POST /api/v1/moods
func (mh *MoodHandler) Checkin(c *gin.Context) {
	var input services.MoodCheckinInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, apierr.Validation("invalid request body: %v", err))
		return
	}
	checkin, err := mh.moodService.Checkin(c.Request.Context(), input)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondCreated(c, gin.H{"checkin": checkin})
}

// GET /api/v1/moods?days=14
func (mh *MoodHandler) List(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "14"))
	checkins, err := mh.moodService.ListRecent(c.Request.Context(), days)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"checkins": checkins})
}
