package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/lumawell/luma-backend/internal/services"
)

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GET /user
func (uh *UserHandler) GetMe(c *gin.Context) {
	me, err := uh.userService.GetMe(c.Request.Context(), nil)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"me": me})
}
