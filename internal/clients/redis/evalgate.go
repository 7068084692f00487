package redis

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/lumawell/luma-backend/internal/logger"
)

// EvalGate caps how often synchronous rule evaluation runs per user. The
// key is a SET NX with a TTL; whoever sets it wins the evaluation slot.
// Redis being down fails open: evaluation just runs on every read.
type EvalGate interface {
	Allow(ctx context.Context, userID uuid.UUID) bool
	Close() error
}

type evalGate struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
	window time.Duration
}

func NewEvalGate(log *logger.Logger, window time.Duration) (EvalGate, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	prefix := strings.TrimSpace(os.Getenv("REDIS_EVAL_PREFIX"))
	if prefix == "" {
		prefix = "luma:evalgate"
	}
	if window <= 0 {
		window = 15 * time.Second
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &evalGate{
		log:    log.With("service", "RedisEvalGate"),
		rdb:    rdb,
		prefix: prefix,
		window: window,
	}, nil
}

func (g *evalGate) Allow(ctx context.Context, userID uuid.UUID) bool {
	key := fmt.Sprintf("%s:%s", g.prefix, userID)
	ok, err := g.rdb.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), g.window).Result()
	if err != nil {
		g.log.Warn("evalgate setnx failed, failing open", "error", err)
		return true
	}
	return ok
}

func (g *evalGate) Close() error {
	return g.rdb.Close()
}
