package kafka

import (
	"DocQA/backend/go/internal/config"
	"context"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaClient 持有事件主题的 writer 和用于管理的连接。
type KafkaClient struct {
	Writer *kafka.Writer
	Conn   *kafka.Conn // 用于管理的连接
	Config *config.KafkaConfig
}

// NewClient 连接到 Kafka，在主题不存在时自动创建，并返回绑定该主题的 writer。
func NewClient(cfg *config.KafkaConfig) (*KafkaClient, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("未配置 Kafka brokers")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("未配置 Kafka topic")
	}

	// 1. 建立管理连接
	conn, err := kafka.Dial("tcp", cfg.Brokers[0])
	if err != nil {
		return nil, fmt.Errorf("kafka 初始化连接失败: %w", err)
	}

	// 2. 检查主题是否存在
	partitions, err := conn.ReadPartitions()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("无法读取 Kafka 分区信息: %w", err)
	}
	exists := false
	for _, p := range partitions {
		if p.Topic == cfg.Topic {
			exists = true
			break
		}
	}

	// 3. 创建不存在的主题
	if !exists {
		log.Printf("主题 '%s' 不存在，准备创建...", cfg.Topic)
		err = conn.CreateTopics(kafka.TopicConfig{
			Topic:             cfg.Topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		})
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("自动创建 Kafka 主题失败: %w", err)
		}
	}

	// 4. 创建用于生产的 Writer
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
	}

	log.Println("✅ 成功初始化 Kafka 客户端!")
	return &KafkaClient{Writer: writer, Conn: conn, Config: cfg}, nil
}

// Close 安全地关闭 Kafka 连接。
func (c *KafkaClient) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.Writer != nil {
		if err := c.Writer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("关闭 Kafka writer 失败: %w", err))
		}
	}
	if c.Conn != nil {
		if err := c.Conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("关闭 Kafka 管理连接失败: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("关闭 Kafka 客户端时发生多个错误: %v", errs)
	}
	return nil
}

// HealthCheck 检查 Kafka 连接的健康状况。
func (c *KafkaClient) HealthCheck(ctx context.Context) error {
	if c == nil || c.Conn == nil {
		return fmt.Errorf("kafka 客户端未初始化，无法进行健康检查")
	}
	_, err := c.Conn.Controller()
	return err
}
