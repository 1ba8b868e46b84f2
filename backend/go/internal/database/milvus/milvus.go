package milvus

import (
	"DocQA/backend/go/internal/config"
	"context"
	"fmt"
	"log"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

// MilvusClient 包含了 Milvus 客户端实例和相关配置。
type MilvusClient struct {
	Client client.Client        // Milvus 客户端实例。
	Config *config.MilvusConfig // Milvus 配置。
}

// NewClient 创建一个新的 Milvus 客户端实例。
func NewClient(ctx context.Context, cfg *config.MilvusConfig) (*MilvusClient, error) {
	c, err := client.NewClient(ctx, client.Config{Address: cfg.Address})
	if err != nil {
		return nil, fmt.Errorf("无法连接到 Milvus: %w", err)
	}
	log.Println("✅ 成功连接到 Milvus!")
	return &MilvusClient{Client: c, Config: cfg}, nil
}

// Close 安全地关闭与 Milvus 的连接。
func (c *MilvusClient) Close() error {
	if c.Client == nil {
		return nil
	}
	return c.Client.Close()
}

// HealthCheck 检查 Milvus 连接的健康状况。
func (c *MilvusClient) HealthCheck(ctx context.Context) error {
	if c.Client == nil {
		return fmt.Errorf("Milvus client is nil")
	}
	if _, err := c.Client.ListCollections(ctx); err != nil {
		return fmt.Errorf("Milvus health check failed: %w", err)
	}
	return nil
}

// EnsureCollection 确保集合存在，不存在时按给定 schema 创建并在 vectorField 上建立索引，
// 最后加载集合以便查询。
func (c *MilvusClient) EnsureCollection(ctx context.Context, schema *entity.Schema, vectorField string) error {
	collName := schema.CollectionName
	exists, err := c.Client.HasCollection(ctx, collName)
	if err != nil {
		return fmt.Errorf("检查集合是否存在时出错: %w", err)
	}
	if !exists {
		if schema.Description == "" {
			schema.Description = c.Config.Description
		}
		if err := c.Client.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
			return fmt.Errorf("创建集合失败: %w", err)
		}
		idx, err := c.buildIndexFromConfig()
		if err != nil {
			return err
		}
		if err := c.Client.CreateIndex(ctx, collName, vectorField, idx, false); err != nil {
			return fmt.Errorf("为字段 '%s' 创建索引失败: %w", vectorField, err)
		}
		log.Printf("✅ 已创建集合 '%s'", collName)
	}

	if err := c.Client.LoadCollection(ctx, collName, false); err != nil {
		return fmt.Errorf("加载 Milvus 集合 '%s' 失败: %w", collName, err)
	}
	return nil
}

// MetricType 返回配置的相似度度量类型。
func (c *MilvusClient) MetricType() entity.MetricType {
	return entity.MetricType(c.Config.Index.MetricType)
}

// buildIndexFromConfig 是一个辅助函数，用于从配置构建索引实体。
func (c *MilvusClient) buildIndexFromConfig() (entity.Index, error) {
	indexCfg := c.Config.Index
	metricType := c.MetricType()

	switch indexCfg.IndexType {
	case "IVF_FLAT":
		return entity.NewIndexIvfFlat(metricType, intParam(indexCfg.Params, "nlist", 128))
	case "HNSW":
		return entity.NewIndexHNSW(metricType,
			intParam(indexCfg.Params, "M", 8),
			intParam(indexCfg.Params, "efConstruction", 96))
	case "IVF_SQ8":
		return entity.NewIndexIvfSQ8(metricType, intParam(indexCfg.Params, "nlist", 128))
	case "AUTOINDEX":
		return entity.NewIndexAUTOINDEX(metricType)
	default:
		return nil, fmt.Errorf("不支持的索引类型: %s", indexCfg.IndexType)
	}
}

// SearchParam 返回与索引类型匹配的查询参数。
func (c *MilvusClient) SearchParam() (entity.SearchParam, error) {
	switch c.Config.Index.IndexType {
	case "IVF_FLAT", "IVF_SQ8":
		return entity.NewIndexIvfFlatSearchParam(intParam(c.Config.Index.Params, "nprobe", 10))
	case "HNSW":
		return entity.NewIndexHNSWSearchParam(intParam(c.Config.Index.Params, "ef", 64))
	default:
		return entity.NewIndexAUTOINDEXSearchParam(1)
	}
}

// yaml 解析出的数字是 int，这里同时兼容 float64。
func intParam(params map[string]interface{}, key string, def int) int {
	switch v := params[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return def
	}
}
