package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppInfo 对应 'app' 部分，包含应用程序的基本信息。
type AppInfo struct {
	Name        string `yaml:"name"`        // 应用程序名称
	Version     string `yaml:"version"`     // 应用程序版本
	Environment string `yaml:"environment"` // 运行环境 (例如: "development", "production")
}

// LoggerConfig 定义了日志记录器的配置。
type LoggerConfig struct {
	Level string `yaml:"level"` // 日志级别 (例如: "info", "debug", "warn", "error")
}

// ServerConfig 定义了 HTTP 与 gRPC 监听地址和超时。
type ServerConfig struct {
	HTTPAddress    string `yaml:"httpAddress"`    // HTTP 监听地址
	GRPCAddress    string `yaml:"grpcAddress"`    // gRPC 健康检查监听地址, 为空则不启动
	ReadTimeout    string `yaml:"readTimeout"`    // 例如: "30s"
	WriteTimeout   string `yaml:"writeTimeout"`   // 上传大文件时需要足够长
	MaxUploadBytes int64  `yaml:"maxUploadBytes"` // 单个上传文件的最大字节数
}

// MiddlewareConfig 包含所有中间件的配置。
type MiddlewareConfig struct {
	RateLimiter    RateLimiterConfig    `yaml:"rateLimiter"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuitBreaker"`
}

// RateLimiterConfig 定义了限流器的配置。每个客户端 IP 拥有独立的限流器。
type RateLimiterConfig struct {
	Enabled   bool    `yaml:"enabled"`
	Algorithm string  `yaml:"algorithm"` // "tokenBucket", "fixedWindow" 或 "slidingLog"
	Rate      float64 `yaml:"rate"`      // tokenBucket: 每秒生成的令牌数
	Capacity  int     `yaml:"capacity"`  // tokenBucket: 桶容量 (突发上限)
	Limit     int     `yaml:"limit"`     // fixedWindow / slidingLog: 每个窗口允许的请求数
	Window    string  `yaml:"window"`    // fixedWindow / slidingLog: 窗口长度, 例如: "1m"
	Clients   int     `yaml:"clients"`   // 同时跟踪的客户端数量上限
}

// CircuitBreakerConfig 定义了 LLM 调用熔断器的配置。
type CircuitBreakerConfig struct {
	Enabled          bool   `yaml:"enabled"`
	FailureThreshold uint32 `yaml:"failureThreshold"`
	SuccessThreshold uint32 `yaml:"successThreshold"`
	Timeout          string `yaml:"timeout"` // 例如: "30s"
}

// SQLiteConfig 定义了内嵌 SQLite 数据库的配置。
type SQLiteConfig struct {
	Path string `yaml:"path"` // 数据库文件路径
}

// MySQLConfig 定义了 MySQL 数据库的连接配置。
type MySQLConfig struct {
	Address         string `yaml:"address"`         // MySQL 服务器地址
	Username        string `yaml:"username"`        // 用户名
	Password        string `yaml:"password"`        // 密码
	Database        string `yaml:"database"`        // 数据库名称
	MaxOpenConns    int    `yaml:"maxOpenConns"`    // 最大打开连接数
	MaxIdleConns    int    `yaml:"maxIdleConns"`    // 最大空闲连接数
	ConnMaxLifetime int    `yaml:"connMaxLifetime"` // 连接最大生命周期 (秒)
}

// RelationalConfig 选择关系型数据库驱动。
type RelationalConfig struct {
	Driver string       `yaml:"driver"` // "sqlite" 或 "mysql"
	SQLite SQLiteConfig `yaml:"sqlite"`
	MySQL  MySQLConfig  `yaml:"mysql"`
}

// IndexConfig 定义了 Milvus 集合中索引的配置。
type IndexConfig struct {
	IndexType  string                 `yaml:"indexType"`  // 索引类型 (例如: "IVF_FLAT", "HNSW")
	MetricType string                 `yaml:"metricType"` // 相似度度量类型 (例如: "L2", "COSINE")
	Params     map[string]interface{} `yaml:"params"`     // 索引参数 (例如: {"nlist": 128})
}

// MilvusConfig 定义了 Milvus 数据库的连接和集合配置。
type MilvusConfig struct {
	Address     string      `yaml:"address"`     // Milvus 服务地址
	Description string      `yaml:"description"` // 集合描述
	Index       IndexConfig `yaml:"index"`       // 索引配置
}

// RedisConfig 定义了 Redis 数据库的连接配置。
type RedisConfig struct {
	Address  string `yaml:"address"`  // Redis 服务器地址 (例如: "localhost:6379")
	Password string `yaml:"password"` // Redis 密码
	DB       int    `yaml:"db"`       // Redis 数据库编号
}

// MinIOConfig 定义了 MinIO 对象存储的连接配置。
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`  // MinIO 服务端点
	AccessKey string `yaml:"accessKey"` // 访问密钥
	SecretKey string `yaml:"secretKey"` // Secret 密钥
	Bucket    string `yaml:"bucket"`    // 上传文件存储桶
	Secure    bool   `yaml:"secure"`    // 是否使用HTTPS
}

// KafkaConfig 定义了 Kafka 消息队列的连接配置。
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"` // Kafka Broker 地址列表
	Topic   string   `yaml:"topic"`   // 文档生命周期事件主题
}

// DatabaseConfigs 包含所有外部存储的配置。
type DatabaseConfigs struct {
	Relational RelationalConfig `yaml:"relational"`
	Milvus     MilvusConfig     `yaml:"milvus"`
	Redis      RedisConfig      `yaml:"redis"`
	MinIO      MinIOConfig      `yaml:"minio"`
	Kafka      KafkaConfig      `yaml:"kafka"`
}

// VectorStoreConfig 选择向量库实现。
type VectorStoreConfig struct {
	Type       string `yaml:"type"`       // "local" 或 "milvus"
	Path       string `yaml:"path"`       // local 类型的索引目录
	Collection string `yaml:"collection"` // 全局集合名称
	BatchSize  int    `yaml:"batchSize"`  // 每批计算 embedding 的 chunk 数
	Workers    int    `yaml:"workers"`    // 并行计算 embedding 的批次数
}

// EmbeddingConfig 选择本地 embedding 函数。
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"`  // "hash" 或 "ollama"
	Model     string `yaml:"model"`     // ollama 模型名称
	BaseURL   string `yaml:"baseURL"`   // ollama 服务地址
	Dimension int    `yaml:"dimension"` // hash 向量维度
}

// ChunkerConfig 定义了切分窗口。
type ChunkerConfig struct {
	Size    int `yaml:"size"`    // 窗口长度 (字符)
	Overlap int `yaml:"overlap"` // 相邻窗口重叠 (字符)
}

// RetrievalConfig 定义了检索参数。
type RetrievalConfig struct {
	TopK        int     `yaml:"topK"`
	MaxDistance float64 `yaml:"maxDistance"` // 0 表示不过滤
}

// LLMConfig 包含了回答生成模型的配置。
type LLMConfig struct {
	Provider string `yaml:"provider"` // "openai", "gemini" 或 "ollama"
	APIKey   string `yaml:"apiKey"`   // 为空时使用占位回答
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"baseURL"` // OpenAI 兼容服务地址 (可选)
	Timeout  string `yaml:"timeout"` // 单次调用超时, 例如: "60s"
}

// StorageConfig 选择上传文件的存储位置。
type StorageConfig struct {
	Type string `yaml:"type"` // "local" 或 "minio"
	Dir  string `yaml:"dir"`  // local 类型的上传目录
}

// CacheConfig 选择问答缓存实现。
type CacheConfig struct {
	Type     string `yaml:"type"`     // "none", "memory" 或 "redis"
	Capacity int    `yaml:"capacity"` // memory 类型的最大条目数
	TTL      string `yaml:"ttl"`      // 例如: "10m"
}

// EventsConfig 控制文档生命周期事件的发布。
type EventsConfig struct {
	Enabled bool `yaml:"enabled"` // 为 true 时发布到 Kafka
}

// ReconcileConfig 控制孤儿向量的定期清理。
type ReconcileConfig struct {
	Interval string `yaml:"interval"` // 为空表示只通过接口手动触发
}

// AppConfig 是整个 YAML 文件的根结构，包含了应用程序的所有配置。
type AppConfig struct {
	App         AppInfo           `yaml:"app"`
	Logger      LoggerConfig      `yaml:"logger"`
	Server      ServerConfig      `yaml:"server"`
	Middleware  MiddlewareConfig  `yaml:"middleware"`
	Databases   DatabaseConfigs   `yaml:"databases"`
	VectorStore VectorStoreConfig `yaml:"vectorStore"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	Chunker     ChunkerConfig     `yaml:"chunker"`
	Retrieval   RetrievalConfig   `yaml:"retrieval"`
	LLM         LLMConfig         `yaml:"llm"`
	Storage     StorageConfig     `yaml:"storage"`
	Cache       CacheConfig       `yaml:"cache"`
	Events      EventsConfig      `yaml:"events"`
	Reconcile   ReconcileConfig   `yaml:"reconcile"`
}

// LoadConfig 从指定路径加载并解析 YAML 配置文件。
// 文件不存在时返回默认配置；随后补全缺省值并应用环境变量覆盖。
func LoadConfig(path string) (*AppConfig, error) {
	cfg := Default()
	yamlFile, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("无法读取 YAML 文件 '%s': %w", path, err)
	default:
		if err := yaml.Unmarshal(yamlFile, cfg); err != nil {
			return nil, fmt.Errorf("解析 YAML 文件失败: %w", err)
		}
	}
	cfg.ApplyDefaults()
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default 返回可以在单机上直接运行的配置: SQLite + 本地向量库 + 占位回答。
func Default() *AppConfig {
	cfg := &AppConfig{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults 为未设置的字段填充默认值。
func (c *AppConfig) ApplyDefaults() {
	setDefault(&c.App.Name, "docqa")
	setDefault(&c.Logger.Level, "info")
	setDefault(&c.Server.HTTPAddress, ":8000")
	setDefault(&c.Server.ReadTimeout, "30s")
	setDefault(&c.Server.WriteTimeout, "10m")
	if c.Server.MaxUploadBytes == 0 {
		c.Server.MaxUploadBytes = 64 << 20
	}
	if c.Middleware.RateLimiter.Rate == 0 {
		c.Middleware.RateLimiter.Rate = 20
	}
	if c.Middleware.RateLimiter.Capacity == 0 {
		c.Middleware.RateLimiter.Capacity = 40
	}
	setDefault(&c.Middleware.RateLimiter.Algorithm, "tokenBucket")
	if c.Middleware.RateLimiter.Limit == 0 {
		c.Middleware.RateLimiter.Limit = 600
	}
	setDefault(&c.Middleware.RateLimiter.Window, "1m")
	if c.Middleware.RateLimiter.Clients == 0 {
		c.Middleware.RateLimiter.Clients = 10000
	}
	if c.Middleware.CircuitBreaker.FailureThreshold == 0 {
		c.Middleware.CircuitBreaker.FailureThreshold = 5
	}
	if c.Middleware.CircuitBreaker.SuccessThreshold == 0 {
		c.Middleware.CircuitBreaker.SuccessThreshold = 1
	}
	setDefault(&c.Middleware.CircuitBreaker.Timeout, "30s")

	setDefault(&c.Databases.Relational.Driver, "sqlite")
	setDefault(&c.Databases.Relational.SQLite.Path, "rag_app.db")
	setDefault(&c.Databases.Milvus.Description, "RAG document chunks")
	setDefault(&c.Databases.Milvus.Index.IndexType, "AUTOINDEX")
	setDefault(&c.Databases.Milvus.Index.MetricType, "L2")
	setDefault(&c.Databases.MinIO.Bucket, "rag-uploads")
	setDefault(&c.Databases.Kafka.Topic, "rag_document_events")

	setDefault(&c.VectorStore.Type, "local")
	setDefault(&c.VectorStore.Path, "chroma_db")
	setDefault(&c.VectorStore.Collection, "rag_documents")
	if c.VectorStore.BatchSize == 0 {
		c.VectorStore.BatchSize = 64
	}
	if c.VectorStore.Workers == 0 {
		c.VectorStore.Workers = 4
	}

	setDefault(&c.Embedding.Provider, "hash")
	setDefault(&c.Embedding.Model, "all-minilm")
	if c.Embedding.Dimension == 0 {
		c.Embedding.Dimension = 384
	}

	if c.Chunker.Size == 0 {
		c.Chunker.Size = 1000
		if c.Chunker.Overlap == 0 {
			c.Chunker.Overlap = 200
		}
	}

	if c.Retrieval.TopK == 0 {
		c.Retrieval.TopK = 5
	}

	setDefault(&c.LLM.Provider, "openai")
	setDefault(&c.LLM.Timeout, "60s")
	if c.LLM.Model == "" {
		switch c.LLM.Provider {
		case "gemini":
			c.LLM.Model = "gemini-1.5-flash"
		case "ollama":
			c.LLM.Model = "llama3"
		default:
			c.LLM.Model = "gpt-3.5-turbo"
		}
	}

	setDefault(&c.Storage.Type, "local")
	setDefault(&c.Storage.Dir, "uploads")

	setDefault(&c.Cache.Type, "none")
	if c.Cache.Capacity == 0 {
		c.Cache.Capacity = 1024
	}
	setDefault(&c.Cache.TTL, "10m")
}

// ApplyEnv 用环境变量覆盖凭证。OPENAI_API_KEY 与原有部署方式保持一致。
func (c *AppConfig) ApplyEnv() {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logger.Level = v
	}
	switch c.LLM.Provider {
	case "gemini":
		if v := os.Getenv("GEMINI_API_KEY"); v != "" {
			c.LLM.APIKey = v
		}
	default:
		if v := os.Getenv("OPENAI_API_KEY"); v != "" {
			c.LLM.APIKey = v
		}
		if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
			c.LLM.BaseURL = v
		}
	}
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
}

// Validate 检查无法在运行时恢复的配置错误。
func (c *AppConfig) Validate() error {
	for name, d := range map[string]string{
		"server.readTimeout":        c.Server.ReadTimeout,
		"server.writeTimeout":       c.Server.WriteTimeout,
		"middleware.circuitBreaker": c.Middleware.CircuitBreaker.Timeout,
		"middleware.rateLimiter":    c.Middleware.RateLimiter.Window,
		"llm.timeout":               c.LLM.Timeout,
		"cache.ttl":                 c.Cache.TTL,
	} {
		if _, err := time.ParseDuration(d); err != nil {
			return fmt.Errorf("invalid duration for %s: %w", name, err)
		}
	}
	if c.Reconcile.Interval != "" {
		if _, err := time.ParseDuration(c.Reconcile.Interval); err != nil {
			return fmt.Errorf("invalid duration for reconcile.interval: %w", err)
		}
	}
	if c.Chunker.Size <= 0 || c.Chunker.Overlap < 0 || c.Chunker.Overlap >= c.Chunker.Size {
		return fmt.Errorf("invalid chunker config: size=%d overlap=%d (need 0 <= overlap < size)", c.Chunker.Size, c.Chunker.Overlap)
	}
	return nil
}

// Duration 解析一个已经通过 Validate 检查的时长字符串。
func Duration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}
