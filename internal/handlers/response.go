package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lumawell/luma-backend/internal/apierr"
)

// Envelope is the app-wide response shape. Every caller treats non-2xx or
// success:false as failure, so both are kept in sync here.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

func RespondData(c *gin.Context, status int, data any) {
	c.JSON(status, Envelope{Success: true, Data: data})
}

func RespondOK(c *gin.Context, data any) {
	RespondData(c, http.StatusOK, data)
}

func RespondCreated(c *gin.Context, data any) {
	RespondData(c, http.StatusCreated, data)
}

func RespondError(c *gin.Context, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(apierr.StatusOf(err), Envelope{
		Success: false,
		Error:   msg,
		Code:    apierr.CodeOf(err),
	})
}
