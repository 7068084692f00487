package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/lumawell/luma-backend/internal/handlers"
	"github.com/lumawell/luma-backend/internal/middleware"
)

type RouterConfig struct {
	AuthHandler        *handlers.AuthHandler
	AuthMiddleware     *middleware.AuthMiddleware
	UserHandler        *handlers.UserHandler
	MasterAgentHandler *handlers.MasterAgentHandler
	GoalHandler        *handlers.GoalHandler
	JournalHandler     *handlers.JournalHandler
	MoodHandler        *handlers.MoodHandler
	AllowOrigins       []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()
	router.Use(otelgin.Middleware("luma-backend"))

	// Cors
	allowOrigins := cfg.AllowOrigins
	if len(allowOrigins) == 0 {
		allowOrigins = []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	router.POST("/register", cfg.AuthHandler.Register)
	router.POST("/login", cfg.AuthHandler.Login)

	// ===============
	// || Protected ||
	// ===============
	protected := router.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	// Auth
	protected.POST("/refresh", cfg.AuthHandler.Refresh)
	protected.POST("/logout", cfg.AuthHandler.Logout)
	// User
	protected.GET("/user", cfg.UserHandler.GetMe)

	api := protected.Group("/api/v1")
	// Master Agent
	masterAgent := api.Group("/master-agent")
	masterAgent.POST("/events", cfg.MasterAgentHandler.LogEvent)
	masterAgent.GET("/nudges/:surface", cfg.MasterAgentHandler.GetNudges)
	masterAgent.POST("/nudges/:id/accept", cfg.MasterAgentHandler.AcceptNudge)
	masterAgent.POST("/nudges/:id/dismiss", cfg.MasterAgentHandler.DismissNudge)
	masterAgent.POST("/feedback", cfg.MasterAgentHandler.RecordFeedback)
	masterAgent.GET("/context", cfg.MasterAgentHandler.GetContext)
	// Goals
	api.POST("/goals", cfg.GoalHandler.Create)
	api.GET("/goals", cfg.GoalHandler.List)
	api.POST("/goals/:id/complete", cfg.GoalHandler.Complete)
	// Journal
	api.POST("/journal/entries", cfg.JournalHandler.Create)
	api.GET("/journal/entries", cfg.JournalHandler.List)
	// Moods
	api.POST("/moods", cfg.MoodHandler.Checkin)
	api.GET("/moods", cfg.MoodHandler.List)

	return router
}
