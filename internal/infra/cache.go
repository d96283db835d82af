package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"tradearena/internal/usecase"
)

const leaderboardTTL = 30 * time.Second

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(ctx context.Context, redisURL string, logger *zap.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	logger.Info("redis connected")
	return client, nil
}

// RedisLeaderboardCache caches ranked leaderboards in Redis with a short TTL.
// Cache misses and Redis failures both fall through to recomputation, so the
// cache is strictly an optimization.
type RedisLeaderboardCache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisLeaderboardCache creates a new RedisLeaderboardCache
func NewRedisLeaderboardCache(client *redis.Client, logger *zap.Logger) *RedisLeaderboardCache {
	return &RedisLeaderboardCache{
		client: client,
		logger: logger,
	}
}

func leaderboardKey(challengeID uuid.UUID) string {
	return "leaderboard:" + challengeID.String()
}

// Get returns the cached leaderboard for a challenge, if present
func (c *RedisLeaderboardCache) Get(ctx context.Context, challengeID uuid.UUID) ([]usecase.LeaderboardEntry, bool) {
	raw, err := c.client.Get(ctx, leaderboardKey(challengeID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("leaderboard cache read failed", zap.Error(err))
		}
		return nil, false
	}

	var entries []usecase.LeaderboardEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		c.logger.Warn("leaderboard cache entry corrupt, dropping",
			zap.String("challenge_id", challengeID.String()), zap.Error(err))
		c.client.Del(ctx, leaderboardKey(challengeID))
		return nil, false
	}

	return entries, true
}

// Set stores a leaderboard snapshot
func (c *RedisLeaderboardCache) Set(ctx context.Context, challengeID uuid.UUID, entries []usecase.LeaderboardEntry) {
	raw, err := json.Marshal(entries)
	if err != nil {
		c.logger.Warn("leaderboard cache encode failed", zap.Error(err))
		return
	}

	if err := c.client.Set(ctx, leaderboardKey(challengeID), raw, leaderboardTTL).Err(); err != nil {
		c.logger.Warn("leaderboard cache write failed", zap.Error(err))
	}
}

// Invalidate drops the cached leaderboard for a challenge
func (c *RedisLeaderboardCache) Invalidate(ctx context.Context, challengeID uuid.UUID) {
	if err := c.client.Del(ctx, leaderboardKey(challengeID)).Err(); err != nil {
		c.logger.Warn("leaderboard cache invalidation failed", zap.Error(err))
	}
}
