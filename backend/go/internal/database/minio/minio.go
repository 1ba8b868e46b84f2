package minio

import (
	"DocQA/backend/go/internal/config"
	"context"
	"fmt"
	"log"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// NewClient 创建一个 MinIO 客户端，并确保配置的存储桶存在。
func NewClient(ctx context.Context, cfg *config.MinIOConfig) (*minio.Client, error) {
	// 使用配置中的端点、访问密钥和 Secret 密钥创建 MinIO 客户端。
	c, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""), // 静态凭证。
		Secure: cfg.Secure,                                                // 是否使用 HTTPS。
	})
	if err != nil {
		return nil, fmt.Errorf("无法创建 MinIO 客户端: %w", err)
	}

	exists, err := c.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("MinIO 初始化健康检查失败: %w", err)
	}
	if !exists {
		if err := c.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("创建存储桶 '%s' 失败: %w", cfg.Bucket, err)
		}
		log.Printf("✅ 已创建存储桶 '%s'", cfg.Bucket)
	}

	log.Println("✅ 成功连接到 MinIO!")
	return c, nil
}

// HealthCheck 检查 MinIO 连接的健康状况。
func HealthCheck(ctx context.Context, c *minio.Client, bucket string) error {
	if c == nil {
		return fmt.Errorf("MinIO 客户端未初始化")
	}
	if _, err := c.BucketExists(ctx, bucket); err != nil {
		return fmt.Errorf("MinIO 健康检查失败: %w", err)
	}
	return nil
}
