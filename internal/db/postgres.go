package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/lumawell/luma-backend/internal/logger"
	"github.com/lumawell/luma-backend/internal/types"
	"github.com/lumawell/luma-backend/internal/utils"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	log.Info("Loading environment variables...")
	postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
	postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
	postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	postgresName := utils.GetEnv("POSTGRES_NAME", "luma", log)
	log.Debug("Environment variables loaded")

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

	log.Info("Connecting to Postgres...")
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		log.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	return &PostgresService{db: db, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	err := s.db.AutoMigrate(
		&types.User{},
		&types.UserToken{},
		&types.UserEvent{},
		&types.Nudge{},
		&types.Feedback{},
		&types.Goal{},
		&types.JournalEntry{},
		&types.MoodCheckin{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}
	s.log.Info("Configuring nudge dedup constraint...")
	// At most one pending nudge per (user, rule, surface). Inserts use
	// ON CONFLICT DO NOTHING against this index, which is what makes
	// concurrent rule evaluation idempotent without a lock.
	if err := s.db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS uq_nudge_active_rule_surface
		ON "nudge" ("user_id", "rule_name", "surface")
		WHERE "status" = 'pending'
	`).Error; err != nil {
		return fmt.Errorf("failed to create uq_nudge_active_rule_surface: %w", err)
	}
	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}
