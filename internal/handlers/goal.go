package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lumawell/luma-backend/internal/apierr"
	"github.com/lumawell/luma-backend/internal/services"
)

type GoalHandler struct {
	goalService services.GoalService
}

func NewGoalHandler(goalService services.GoalService) *GoalHandler {
	return &GoalHandler{goalService: goalService}
}

// POST /api/v1/goals
func (gh *GoalHandler) Create(c *gin.Context) {
	var input services.GoalInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, apierr.Validation("invalid request body: %v", err))
		return
	}
	goal, err := gh.goalService.Create(c.Request.Context(), input)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondCreated(c, gin.H{"goal": goal})
}

// GET /api/v1/goals?status=active
func (gh *GoalHandler) List(c *gin.Context) {
	goals, err := gh.goalService.List(c.Request.Context(), c.Query("status"))
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"goals": goals})
}

// POST /api/v1/goals/:id/complete
func (gh *GoalHandler) Complete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, apierr.Validation("invalid goal id"))
		return
	}
	goal, err := gh.goalService.Complete(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"goal": goal})
}
