package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/wallboard-service/internal/domain"
)

const presenceKeyPrefix = "presence:"

// PresenceCache stores the latest status per agent.
type PresenceCache interface {
	// Get returns nil, nil when the agent has no cached presence.
	Get(ctx context.Context, agentCode string) (*domain.Presence, error)
	Set(ctx context.Context, presence domain.Presence) error
}

type redisPresenceCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisPresenceCache returns a Redis hash-backed cache. A zero ttl keeps
// entries until overwritten.
func NewRedisPresenceCache(client *redis.Client, ttl time.Duration) PresenceCache {
	return &redisPresenceCache{client: client, ttl: ttl}
}

func presenceKey(agentCode string) string {
	return presenceKeyPrefix + agentCode
}

func (c *redisPresenceCache) Get(ctx context.Context, agentCode string) (*domain.Presence, error) {
	fields, err := c.client.HGetAll(ctx, presenceKey(agentCode)).Result()
	if err != nil {
		return nil, fmt.Errorf("get presence %s: %w", agentCode, err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	presence := &domain.Presence{
		AgentCode: agentCode,
		Status:    domain.AgentStatus(fields["status"]),
	}
	if since, err := time.Parse(time.RFC3339Nano, fields["since"]); err == nil {
		presence.Since = since
	}
	if raw, ok := fields["team_id"]; ok && raw != "" {
		teamID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("decode presence team for %s: %w", agentCode, err)
		}
		presence.TeamID = &teamID
	}
	return presence, nil
}

func (c *redisPresenceCache) Set(ctx context.Context, presence domain.Presence) error {
	key := presenceKey(presence.AgentCode)
	teamID := ""
	if presence.TeamID != nil {
		teamID = strconv.FormatInt(*presence.TeamID, 10)
	}

	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key,
			"status", string(presence.Status),
			"since", presence.Since.UTC().Format(time.RFC3339Nano),
			"team_id", teamID,
		)
		if c.ttl > 0 {
			pipe.Expire(ctx, key, c.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("set presence %s: %w", presence.AgentCode, err)
	}
	return nil
}
