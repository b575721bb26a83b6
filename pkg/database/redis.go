package database

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"

	"kids-talk-go/pkg/log"
)

// InitRedis 初始化 Redis 客户端连接，验证连通性后返回客户端。
func InitRedis(addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Info("Redis client connected successfully")
	return rdb, nil
}
