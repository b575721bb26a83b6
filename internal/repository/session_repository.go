package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// SessionRepository 维护已注销会话令牌的黑名单。
// 令牌本身是无状态签名令牌，黑名单只在注销后的剩余有效期内存在。
type SessionRepository interface {
	Denylist(ctx context.Context, token string, ttl time.Duration) error
	IsDenylisted(ctx context.Context, token string) (bool, error)
}

type redisSessionRepository struct {
	redisClient *redis.Client
}

// NewSessionRepository 创建一个新的 SessionRepository 实例。
func NewSessionRepository(redisClient *redis.Client) SessionRepository {
	return &redisSessionRepository{redisClient: redisClient}
}

// Denylist 将令牌加入黑名单，过期时间与令牌的剩余有效期对齐。
func (r *redisSessionRepository) Denylist(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		// 已过期的令牌无需拉黑
		return nil
	}
	if err := r.redisClient.Set(ctx, "blacklist:"+token, "true", ttl).Err(); err != nil {
		return fmt.Errorf("failed to denylist token: %w", err)
	}
	return nil
}

// IsDenylisted 检查令牌是否已被注销。
func (r *redisSessionRepository) IsDenylisted(ctx context.Context, token string) (bool, error) {
	_, err := r.redisClient.Get(ctx, "blacklist:"+token).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check token denylist: %w", err)
	}
	return true, nil
}
