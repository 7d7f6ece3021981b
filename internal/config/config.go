// Package config 提供配置加载和管理功能
package config

import (
	"time"
)

// Config 应用配置根结构
type Config struct {
	App           AppConfig           `yaml:"app" mapstructure:"app"`
	Server        ServerConfig        `yaml:"server" mapstructure:"server"`
	Cache         CacheConfig         `yaml:"cache" mapstructure:"cache"`
	Vector        VectorConfig        `yaml:"vector" mapstructure:"vector"`
	Embedding     EmbeddingConfig     `yaml:"embedding" mapstructure:"embedding"`
	Generation    GenerationConfig    `yaml:"generation" mapstructure:"generation"`
	Retrieval     RetrievalConfig     `yaml:"retrieval" mapstructure:"retrieval"`
	Session       SessionConfig       `yaml:"session" mapstructure:"session"`
	Ingest        IngestConfig        `yaml:"ingest" mapstructure:"ingest"`
	Observability ObservabilityConfig `yaml:"observability" mapstructure:"observability"`
	Security      SecurityConfig      `yaml:"security" mapstructure:"security"`
}

// AppConfig 应用基础配置
type AppConfig struct {
	Name    string `yaml:"name" mapstructure:"name"`
	Version string `yaml:"version" mapstructure:"version"`
	Env     string `yaml:"env" mapstructure:"env"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	HTTP HTTPServerConfig `yaml:"http" mapstructure:"http"`
}

// HTTPServerConfig HTTP 服务器配置
type HTTPServerConfig struct {
	Host         string        `yaml:"host" mapstructure:"host"`
	Port         int           `yaml:"port" mapstructure:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
}

// CacheConfig 缓存配置
type CacheConfig struct {
	Redis RedisConfig `yaml:"redis" mapstructure:"redis"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Host         string        `yaml:"host" mapstructure:"host"`
	Port         int           `yaml:"port" mapstructure:"port"`
	Password     string        `yaml:"password" mapstructure:"password"`
	DB           int           `yaml:"db" mapstructure:"db"`
	PoolSize     int           `yaml:"pool_size" mapstructure:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns" mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout" mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
}

// VectorConfig 向量数据库配置
type VectorConfig struct {
	Milvus MilvusConfig `yaml:"milvus" mapstructure:"milvus"`
}

// MilvusConfig Milvus 配置
type MilvusConfig struct {
	Host               string `yaml:"host" mapstructure:"host"`
	Port               int    `yaml:"port" mapstructure:"port"`
	User               string `yaml:"user" mapstructure:"user"`
	Password           string `yaml:"password" mapstructure:"password"`
	CollectionPrefix   string `yaml:"collection_prefix" mapstructure:"collection_prefix"`
	MetricType         string `yaml:"metric_type" mapstructure:"metric_type"`
	HNSWM              int    `yaml:"hnsw_m" mapstructure:"hnsw_m"`
	HNSWEfConstruction int    `yaml:"hnsw_ef_construction" mapstructure:"hnsw_ef_construction"`
}

// EmbeddingConfig Embedding 配置
type EmbeddingConfig struct {
	// Backend 选择实现：remote（HTTP 提供商）或 synthetic（本地随机向量，无凭证开发用）
	Backend       string        `yaml:"backend" mapstructure:"backend"`
	Endpoint      string        `yaml:"endpoint" mapstructure:"endpoint"`
	APIKey        string        `yaml:"api_key" mapstructure:"api_key"`
	Model         string        `yaml:"model" mapstructure:"model"`
	Dimension     int           `yaml:"dimension" mapstructure:"dimension"`
	MaxInputRunes int           `yaml:"max_input_runes" mapstructure:"max_input_runes"`
	BatchSize     int           `yaml:"batch_size" mapstructure:"batch_size"`
	ChunkDelay    time.Duration `yaml:"chunk_delay" mapstructure:"chunk_delay"`
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// GenerationConfig 答案生成模型配置
type GenerationConfig struct {
	APIKey          string        `yaml:"api_key" mapstructure:"api_key"`
	Model           string        `yaml:"model" mapstructure:"model"`
	Temperature     float32       `yaml:"temperature" mapstructure:"temperature"`
	TopP            float32       `yaml:"top_p" mapstructure:"top_p"`
	TopK            float32       `yaml:"top_k" mapstructure:"top_k"`
	MaxOutputTokens int32         `yaml:"max_output_tokens" mapstructure:"max_output_tokens"`
	Timeout         time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// RetrievalConfig 检索管线配置
type RetrievalConfig struct {
	TopK             int     `yaml:"top_k" mapstructure:"top_k"`
	ScoreThreshold   float64 `yaml:"score_threshold" mapstructure:"score_threshold"`
	MinSentenceRunes int     `yaml:"min_sentence_runes" mapstructure:"min_sentence_runes"`
	FallbackRunes    int     `yaml:"fallback_runes" mapstructure:"fallback_runes"`
}

// SessionConfig 会话存储配置
type SessionConfig struct {
	TTL         time.Duration `yaml:"ttl" mapstructure:"ttl"`
	MaxMessages int           `yaml:"max_messages" mapstructure:"max_messages"`
}

// IngestConfig 摄取配置
type IngestConfig struct {
	// Feeds 按分类组织的 RSS 源列表
	Feeds     map[string][]string `yaml:"feeds" mapstructure:"feeds"`
	Timeout   time.Duration       `yaml:"timeout" mapstructure:"timeout"`
	UserAgent string              `yaml:"user_agent" mapstructure:"user_agent"`
}

// ObservabilityConfig 可观测性配置
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
	Tracing TracingConfig `yaml:"tracing" mapstructure:"tracing"`
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// TracingConfig 追踪配置
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled" mapstructure:"enabled"`
	Endpoint   string  `yaml:"endpoint" mapstructure:"endpoint"`
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	RateLimit RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
	CORS      CORSConfig      `yaml:"cors" mapstructure:"cors"`
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled" mapstructure:"enabled"`
	RequestsPerSecond int  `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int  `yaml:"burst" mapstructure:"burst"`
}

// CORSConfig CORS 配置
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods" mapstructure:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers" mapstructure:"allowed_headers"`
}
