package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full application configuration, loaded from YAML with
// environment overrides for deployment-sensitive values.
type Config struct {
	Aliyun   AliyunConfig   `yaml:"aliyun"`
	Qdrant   QdrantConfig   `yaml:"qdrant"`
	Redis    RedisConfig    `yaml:"redis"`
	MinIO    MinIOConfig    `yaml:"minio"`
	Server   ServerConfig   `yaml:"server"`
	Logger   LoggerConfig   `yaml:"logger"`
	Tracing  TracingConfig  `yaml:"tracing"`
	Matching MatchingConfig `yaml:"matching"`
}

// AliyunConfig covers both the chat-completion model used for role
// extraction and the embedding model, served from the same OpenAI-compatible
// DashScope endpoint family.
type AliyunConfig struct {
	APIKey    string          `yaml:"api_key"`
	APIURL    string          `yaml:"api_url"`
	Model     string          `yaml:"model"`
	Embedding EmbeddingConfig `yaml:"embedding"`
}

// EmbeddingConfig configures the embedding provider.
type EmbeddingConfig struct {
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	BaseURL    string `yaml:"base_url"`
}

// QdrantConfig configures the consultant vector store.
type QdrantConfig struct {
	Endpoint       string `yaml:"endpoint"`
	Collection     string `yaml:"collection"`
	Dimension      int    `yaml:"dimension"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// RedisConfig configures the query-vector cache.
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`

	PoolSize     int `yaml:"pool_size"`
	MinIdleConns int `yaml:"min_idle_conns"`

	DialTimeoutSeconds  int `yaml:"dial_timeout_seconds"`
	ReadTimeoutSeconds  int `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int `yaml:"write_timeout_seconds"`

	// QueryVectorTTLMinutes bounds how long a cached query embedding may be
	// reused before it is recomputed.
	QueryVectorTTLMinutes int `yaml:"query_vector_ttl_minutes"`
}

// MinIOConfig configures the resume object store.
type MinIOConfig struct {
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"accessKeyID"`
	SecretAccessKey string `yaml:"secretAccessKey"`
	UseSSL          bool   `yaml:"useSSL"`
	ResumesBucket   string `yaml:"resumesBucket"`
	Location        string `yaml:"location"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// LoggerConfig configures the zerolog-backed logger.
type LoggerConfig struct {
	Level        string `yaml:"level"`
	Format       string `yaml:"format"`
	TimeFormat   string `yaml:"time_format"`
	ReportCaller bool   `yaml:"report_caller"`
}

// TracingConfig configures the OTLP trace exporter. Tracing is disabled
// when the endpoint is empty.
type TracingConfig struct {
	Endpoint    string `yaml:"endpoint"`
	ServiceName string `yaml:"service_name"`
}

// MatchingConfig carries the tunables of the matching and overview paths.
// It is passed explicitly into the components that need it so each can be
// tested with different bounds.
type MatchingConfig struct {
	// ResultLimit is the fixed top-K cut applied to each query's results.
	ResultLimit int `yaml:"result_limit"`
	// RecallPoolSize is how many candidates are pulled from the store and
	// scored before the top-K cut.
	RecallPoolSize int `yaml:"recall_pool_size"`
	// ScoreCap caps the normalized match score; even the best matches
	// rarely deserve a full 100.
	ScoreCap int `yaml:"score_cap"`
	// DefaultRawSimilarity substitutes for a missing or malformed raw
	// similarity value from the store.
	DefaultRawSimilarity float64 `yaml:"default_raw_similarity"`
	// SkillBoost is the per-matched-skill additive bias applied in raw
	// similarity space. The skill filter is advisory: it shifts ranking,
	// it never excludes.
	SkillBoost float64 `yaml:"skill_boost"`
	// TopSkills is the N of the overview's top-N skill ranking.
	TopSkills int `yaml:"top_skills"`
	// OverviewScanLimit bounds the full-corpus scan of the overview path.
	OverviewScanLimit int `yaml:"overview_scan_limit"`
	// CollaboratorTimeoutSeconds bounds every embedding/store/LLM call.
	CollaboratorTimeoutSeconds int `yaml:"collaborator_timeout_seconds"`
}

// CollaboratorTimeout returns the configured collaborator timeout as a
// duration, falling back to 30s.
func (m MatchingConfig) CollaboratorTimeout() time.Duration {
	if m.CollaboratorTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(m.CollaboratorTimeoutSeconds) * time.Second
}

// LoadConfig reads the YAML file at path, applies defaults and environment
// overrides, and returns the resulting configuration.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}

	cfg.applyDefaults()
	cfg.applyEnvOverrides()
	return cfg, nil
}

// Default returns a configuration with all defaults applied and no file
// input, useful for tests.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Aliyun.APIURL == "" {
		c.Aliyun.APIURL = "https://dashscope.aliyuncs.com/compatible-mode/v1/chat/completions"
	}
	if c.Aliyun.Model == "" {
		c.Aliyun.Model = "qwen-plus"
	}
	if c.Aliyun.Embedding.Model == "" {
		c.Aliyun.Embedding.Model = "text-embedding-v3"
	}
	if c.Aliyun.Embedding.BaseURL == "" {
		c.Aliyun.Embedding.BaseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1/embeddings"
	}
	if c.Aliyun.Embedding.Dimensions <= 0 {
		c.Aliyun.Embedding.Dimensions = 1024
	}

	if c.Qdrant.Endpoint == "" {
		c.Qdrant.Endpoint = "http://localhost:6333"
	}
	if c.Qdrant.Collection == "" {
		c.Qdrant.Collection = "consultants"
	}
	if c.Qdrant.Dimension <= 0 {
		c.Qdrant.Dimension = c.Aliyun.Embedding.Dimensions
	}
	if c.Qdrant.TimeoutSeconds <= 0 {
		c.Qdrant.TimeoutSeconds = 30
	}

	if c.Redis.QueryVectorTTLMinutes <= 0 {
		c.Redis.QueryVectorTTLMinutes = 24 * 60
	}

	if c.MinIO.ResumesBucket == "" {
		c.MinIO.ResumesBucket = "consultant-resumes"
	}

	if c.Server.Address == "" {
		c.Server.Address = ":8000"
	}

	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Logger.Format == "" {
		c.Logger.Format = "json"
	}

	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = "consultant-match"
	}

	if c.Matching.ResultLimit <= 0 {
		c.Matching.ResultLimit = 3
	}
	if c.Matching.RecallPoolSize <= 0 {
		c.Matching.RecallPoolSize = 100
	}
	if c.Matching.ScoreCap <= 0 {
		c.Matching.ScoreCap = 90
	}
	if c.Matching.DefaultRawSimilarity <= 0 {
		c.Matching.DefaultRawSimilarity = 0.2
	}
	if c.Matching.SkillBoost <= 0 {
		c.Matching.SkillBoost = 0.02
	}
	if c.Matching.TopSkills <= 0 {
		c.Matching.TopSkills = 10
	}
	if c.Matching.OverviewScanLimit <= 0 {
		c.Matching.OverviewScanLimit = 500
	}
	if c.Matching.CollaboratorTimeoutSeconds <= 0 {
		c.Matching.CollaboratorTimeoutSeconds = 30
	}
}

// applyEnvOverrides lets deployment environments override the values that
// differ between environments without editing the file.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("ALIYUN_API_KEY"); v != "" {
		c.Aliyun.APIKey = v
	}
	if v := os.Getenv("QDRANT_ENDPOINT"); v != "" {
		c.Qdrant.Endpoint = v
	}
	if v := os.Getenv("QDRANT_COLLECTION"); v != "" {
		c.Qdrant.Collection = v
	}
	if v := os.Getenv("REDIS_ADDRESS"); v != "" {
		c.Redis.Address = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("MINIO_ENDPOINT"); v != "" {
		c.MinIO.Endpoint = v
	}
	if v := os.Getenv("MINIO_ACCESS_KEY_ID"); v != "" {
		c.MinIO.AccessKeyID = v
	}
	if v := os.Getenv("MINIO_SECRET_ACCESS_KEY"); v != "" {
		c.MinIO.SecretAccessKey = v
	}
	if v := os.Getenv("SERVER_ADDRESS"); v != "" {
		c.Server.Address = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logger.Level = v
	}
	if v := os.Getenv("OTLP_ENDPOINT"); v != "" {
		c.Tracing.Endpoint = v
	}
	if v := os.Getenv("MATCH_RESULT_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Matching.ResultLimit = n
		}
	}
}
