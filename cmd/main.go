package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/lumawell/luma-backend/internal/clients/redis"
	"github.com/lumawell/luma-backend/internal/db"
	"github.com/lumawell/luma-backend/internal/handlers"
	"github.com/lumawell/luma-backend/internal/logger"
	"github.com/lumawell/luma-backend/internal/middleware"
	"github.com/lumawell/luma-backend/internal/observability"
	"github.com/lumawell/luma-backend/internal/repos"
	"github.com/lumawell/luma-backend/internal/server"
	"github.com/lumawell/luma-backend/internal/services"
	"github.com/lumawell/luma-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)
	rulesConfigPath := utils.GetEnv("LUMA_RULES_CONFIG", "", log)
	evalGateSeconds := utils.GetEnvAsInt("EVAL_GATE_SECONDS", 15, log)

	// Tracing
	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "luma-backend",
		Environment: utils.GetEnv("APP_ENV", "development", log),
		Version:     utils.GetEnv("APP_VERSION", "dev", log),
	})
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = otelShutdown(ctx)
	}()

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	userTokenRepo := repos.NewUserTokenRepo(thePG, log)
	userEventRepo := repos.NewUserEventRepo(thePG, log)
	nudgeRepo := repos.NewNudgeRepo(thePG, log)
	feedbackRepo := repos.NewFeedbackRepo(thePG, log)
	goalRepo := repos.NewGoalRepo(thePG, log)
	journalEntryRepo := repos.NewJournalEntryRepo(thePG, log)
	moodCheckinRepo := repos.NewMoodCheckinRepo(thePG, log)

	// Rule thresholds
	thresholds, err := services.LoadRuleThresholds(rulesConfigPath, log)
	if err != nil {
		log.Warn("Rule threshold overrides failed to load, using defaults", "error", err)
		thresholds = services.DefaultRuleThresholds()
	}

	// Evaluation gate (optional)
	var evalGate services.EvalGate
	gate, err := redis.NewEvalGate(log, time.Duration(evalGateSeconds)*time.Second)
	if err != nil {
		log.Warn("Redis eval gate unavailable, evaluating on every read", "error", err)
	} else {
		evalGate = gate
		defer gate.Close()
	}

	// Services
	log.Info("Setting up Services from main...")
	authService := services.NewAuthService(thePG, log, userRepo, userTokenRepo, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second, time.Duration(refreshTokenTTL)*time.Second)
	userService := services.NewUserService(thePG, log, userRepo)
	eventService := services.NewEventService(thePG, log, userEventRepo)
	contextService := services.NewContextService(thePG, log, userEventRepo, goalRepo, journalEntryRepo, moodCheckinRepo, thresholds)
	nudgeService := services.NewNudgeService(thePG, log, nudgeRepo, userEventRepo, contextService, services.DefaultRules(thresholds), evalGate)
	feedbackService := services.NewFeedbackService(thePG, log, feedbackRepo)
	goalService := services.NewGoalService(thePG, log, goalRepo, eventService)
	journalService := services.NewJournalService(thePG, log, journalEntryRepo, eventService)
	moodService := services.NewMoodService(thePG, log, moodCheckinRepo, eventService)

	// Handlers
	log.Info("Setting up handlers from main...")
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	masterAgentHandler := handlers.NewMasterAgentHandler(log, eventService, contextService, nudgeService, feedbackService)
	goalHandler := handlers.NewGoalHandler(goalService)
	journalHandler := handlers.NewJournalHandler(journalService)
	moodHandler := handlers.NewMoodHandler(moodService)

	// Middleware
	log.Info("Setting up middleware from main...")
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	log.Info("Setting up router from main...")
	var allowOrigins []string
	if v := utils.GetEnv("CORS_ALLOW_ORIGINS", "", log); v != "" {
		allowOrigins = strings.Split(v, ",")
	}
	router := server.NewRouter(server.RouterConfig{
		AuthHandler:        authHandler,
		AuthMiddleware:     authMiddleware,
		UserHandler:        userHandler,
		MasterAgentHandler: masterAgentHandler,
		GoalHandler:        goalHandler,
		JournalHandler:     journalHandler,
		MoodHandler:        moodHandler,
		AllowOrigins:       allowOrigins,
	})

	port := utils.GetEnv("PORT", "8080", log)
	fmt.Printf("Server listening on :%s\n", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server failed", "error", err)
	}
}
