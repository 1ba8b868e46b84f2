package redis

import (
	"DocQA/backend/go/internal/config"
	"context"
	"fmt"
	"log"

	"github.com/go-redis/redis/v8"
)

// NewClient 使用配置创建 Redis 客户端并检查连接。
func NewClient(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// 使用 Ping 检查连接是否成功。
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("无法连接到 Redis: %w", err)
	}

	log.Println("✅ 成功连接到 Redis!")
	return rdb, nil
}
