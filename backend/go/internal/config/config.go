package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// FieldConfig describes one field of the Milvus collection.
type FieldConfig struct {
	Name         string `yaml:"name"`
	DataType     string `yaml:"dataType"` // "VarChar", "FloatVector", "Int64", ...
	IsPrimaryKey bool   `yaml:"isPrimaryKey"`
	IsAutoID     bool   `yaml:"isAutoID"`
	Dim          int    `yaml:"dim,omitempty"`       // vector fields only
	MaxLength    int    `yaml:"maxLength,omitempty"` // VarChar fields only
}

// IndexConfig describes the vector index built on the collection.
type IndexConfig struct {
	FieldName  string                 `yaml:"fieldName"`
	IndexType  string                 `yaml:"indexType"`  // "IVF_FLAT", "HNSW", "AUTOINDEX"
	MetricType string                 `yaml:"metricType"` // "COSINE", "IP", "L2"
	Params     map[string]interface{} `yaml:"params"`
}

// SchemaConfig is the Milvus collection schema.
type SchemaConfig struct {
	CollectionName string        `yaml:"collectionName"`
	Description    string        `yaml:"description"`
	VectorField    string        `yaml:"vectorField"`
	Fields         []FieldConfig `yaml:"fields"`
	Index          IndexConfig   `yaml:"index"`
}

// MilvusConfig holds the Milvus address and schema.
type MilvusConfig struct {
	Address string       `yaml:"address"`
	Schema  SchemaConfig `yaml:"schema"`
}

// RedisConfig holds the Redis connection settings.
type RedisConfig struct {
	Address   string `yaml:"address"` // e.g. "localhost:6379"
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"keyPrefix"`
}

// MySQLConfig holds the MySQL connection settings.
type MySQLConfig struct {
	Address         string `yaml:"address"`
	Username        string `yaml:"username"`
	Password        string `yaml:"password"`
	Database        string `yaml:"database"`
	MaxOpenConns    int    `yaml:"maxOpenConns"`
	MaxIdleConns    int    `yaml:"maxIdleConns"`
	ConnMaxLifetime int    `yaml:"connMaxLifetime"` // seconds
}

// SQLiteConfig points at the local relationship database file.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// MinIOConfig holds the object storage settings used for exports.
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Secure    bool   `yaml:"secure"`
}

// MongoConfig holds the MongoDB settings used for the transcript.
type MongoConfig struct {
	Address    string `yaml:"address"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

// Neo4jConfig holds the graph database settings.
type Neo4jConfig struct {
	Uri      string `yaml:"uri"` // e.g. "bolt://localhost:7687"
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// EtcdConfig holds the service registry settings.
type EtcdConfig struct {
	Endpoints   []string `yaml:"endpoints"`
	Username    string   `yaml:"username"`
	Password    string   `yaml:"password"`
	ServiceName string   `yaml:"serviceName"`
	LeaseTTL    int64    `yaml:"leaseTTL"` // seconds
}

// KafkaConfig holds the broker list and the memory event topic.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topics  []string `yaml:"topics"`
}

// DatabaseConfigs groups every backing service. An empty address disables that service.
type DatabaseConfigs struct {
	Milvus  MilvusConfig `yaml:"milvus"`
	Redis   RedisConfig  `yaml:"redis"`
	MySQL   MySQLConfig  `yaml:"mysql"`
	SQLite  SQLiteConfig `yaml:"sqlite"`
	MinIO   MinIOConfig  `yaml:"minio"`
	MongoDB MongoConfig  `yaml:"mongodb"`
	Neo4j   Neo4jConfig  `yaml:"neo4j"`
	Etcd    EtcdConfig   `yaml:"etcd"`
	Kafka   KafkaConfig  `yaml:"kafka"`
}

// AppInfo is the 'app' section.
type AppInfo struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"` // "development", "production"
	Address     string `yaml:"address"`
}

// AuthConfig configures bearer-token authentication.
type AuthConfig struct {
	Method          string `yaml:"method"` // "jwt" or "none"
	JwtSecret       string `yaml:"jwtSecret"`
	TokenTTL        int    `yaml:"tokenTTL"` // seconds
	AllowTokenIssue bool   `yaml:"allowTokenIssue"`
}

// LoggerConfig is the 'logger' section.
type LoggerConfig struct {
	Level string `yaml:"level"` // "debug", "info", "warn", "error"
}

// ProviderConfig is the shared shape of an LLM or embedding provider.
type ProviderConfig struct {
	APIKey  string `yaml:"apiKey"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"baseURL"`
}

// LLMConfig selects the fallback completion provider.
type LLMConfig struct {
	Provider          string         `yaml:"provider"` // "groq", "openai", "ollama", "gemini"
	SystemInstruction string         `yaml:"systemInstruction"`
	Groq              ProviderConfig `yaml:"groq"`
	OpenAI            ProviderConfig `yaml:"openai"`
	Ollama            ProviderConfig `yaml:"ollama"`
	Gemini            ProviderConfig `yaml:"gemini"`
}

// EmbeddingConfig selects the embedding provider.
type EmbeddingConfig struct {
	Provider  string         `yaml:"provider"` // "hash", "openai", "ollama", "gemini"
	Dimension int            `yaml:"dimension"`
	CacheSize int            `yaml:"cacheSize"`
	OpenAI    ProviderConfig `yaml:"openai"`
	Ollama    ProviderConfig `yaml:"ollama"`
	Gemini    ProviderConfig `yaml:"gemini"`
}

// MemoryConfig selects the fact stores and the retrieval threshold.
type MemoryConfig struct {
	KeyIndex            string  `yaml:"keyIndex"`    // "memory" or "redis"
	VectorIndex         string  `yaml:"vectorIndex"` // "chromem" or "milvus"
	ChromemPath         string  `yaml:"chromemPath"` // empty keeps chromem in memory
	SimilarityThreshold float32 `yaml:"similarityThreshold"`
	TopK                int     `yaml:"topK"`
	Transcript          string  `yaml:"transcript"` // "memory", "mongo" or "none"
	TranscriptCapacity  int     `yaml:"transcriptCapacity"`
}

// AnomalyConfig configures the per-user request scrutiny.
type AnomalyConfig struct {
	Enabled bool   `yaml:"enabled"`
	Backend string `yaml:"backend"` // "memory" or "redis"
	Limit   int    `yaml:"limit"`
	Window  string `yaml:"window"` // e.g. "10s"
}

// EncryptionConfig configures at-rest encryption of fact values.
type EncryptionConfig struct {
	MasterKey string `yaml:"masterKey"` // empty disables encryption
}

// RelationshipsConfig selects the relationship table backend.
type RelationshipsConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "mysql"
}

// AppConfig is the root of the YAML file.
type AppConfig struct {
	App           AppInfo             `yaml:"app"`
	Auth          AuthConfig          `yaml:"auth"`
	LLM           LLMConfig           `yaml:"llm"`
	Embedding     EmbeddingConfig     `yaml:"embedding"`
	Memory        MemoryConfig        `yaml:"memory"`
	Anomaly       AnomalyConfig       `yaml:"anomaly"`
	Encryption    EncryptionConfig    `yaml:"encryption"`
	Relationships RelationshipsConfig `yaml:"relationships"`
	Logger        LoggerConfig        `yaml:"logger"`
	Databases     DatabaseConfigs     `yaml:"databases"`
	Middleware    MiddlewareConfig    `yaml:"middleware"`
}

// MiddlewareConfig holds the HTTP middleware settings.
type MiddlewareConfig struct {
	RateLimiter    RateLimiterConfig    `yaml:"rateLimiter"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuitBreaker"`
}

// RateLimiterConfig configures the edge rate limiter.
type RateLimiterConfig struct {
	Enabled     bool              `yaml:"enabled"`
	Algorithm   string            `yaml:"algorithm"` // "tokenBucket" or "slidingLog"
	PerClient   bool              `yaml:"perClient"` // one limiter per remote address
	SlidingLog  SlidingLogConfig  `yaml:"slidingLog"`
	TokenBucket TokenBucketConfig `yaml:"tokenBucket"`
}

// SlidingLogConfig configures the sliding window log algorithm.
type SlidingLogConfig struct {
	Limit  int    `yaml:"limit"`
	Window string `yaml:"window"`
}

// TokenBucketConfig configures the token bucket algorithm.
type TokenBucketConfig struct {
	Rate     float64 `yaml:"rate"` // tokens per second
	Capacity int     `yaml:"capacity"`
}

// CircuitBreakerConfig configures both the HTTP breaker and the LLM breaker.
type CircuitBreakerConfig struct {
	Enabled          bool   `yaml:"enabled"`
	FailureThreshold uint32 `yaml:"failureThreshold"`
	SuccessThreshold uint32 `yaml:"successThreshold"`
	Timeout          string `yaml:"timeout"` // e.g. "30s"
}

// Default values shared by Default and LoadConfig.
const (
	DefaultJWTSecret     = "your_default_secret_key"
	DefaultGroqBaseURL   = "https://api.groq.com/openai/v1"
	DefaultGroqModel     = "llama-3.3-70b-versatile"
	DefaultAddress       = ":5000"
	DefaultEmbeddingDim  = 384
	DefaultThreshold     = 0.5
	DefaultAnomalyLimit  = 5
	DefaultAnomalyWindow = "10s"
	DefaultTokenTTL      = 3600
)

// DefaultSystemInstruction is sent with every LLM fallback.
const DefaultSystemInstruction = "You are a personal memory assistant. Prefer facts the user has asked you to remember. " +
	"If you do not know something about the user, say so and ask them instead of assuming. " +
	"Users can save facts with '@store <key> is <value>'."

// Default returns a configuration that runs with no external services.
func Default() *AppConfig {
	cfg := &AppConfig{
		App:  AppInfo{Name: "recall", Version: "1.0.0", Environment: "development", Address: DefaultAddress},
		Auth: AuthConfig{Method: "none", JwtSecret: DefaultJWTSecret, TokenTTL: DefaultTokenTTL},
		LLM: LLMConfig{
			Provider: "groq",
			Groq:     ProviderConfig{Model: DefaultGroqModel, BaseURL: DefaultGroqBaseURL},
		},
		Embedding: EmbeddingConfig{Provider: "hash", Dimension: DefaultEmbeddingDim, CacheSize: 1024},
		Memory: MemoryConfig{
			KeyIndex:            "memory",
			VectorIndex:         "chromem",
			SimilarityThreshold: DefaultThreshold,
			TopK:                1,
			Transcript:          "memory",
			TranscriptCapacity:  200,
		},
		Anomaly:       AnomalyConfig{Enabled: true, Backend: "memory", Limit: DefaultAnomalyLimit, Window: DefaultAnomalyWindow},
		Relationships: RelationshipsConfig{Driver: "sqlite"},
		Logger:        LoggerConfig{Level: "info"},
		Databases: DatabaseConfigs{
			SQLite: SQLiteConfig{Path: "relationships.db"},
			Kafka:  KafkaConfig{Topics: []string{"memory_events"}},
			Etcd:   EtcdConfig{ServiceName: "recall-memory", LeaseTTL: 10},
		},
	}
	return cfg
}

// LoadConfig reads the YAML file at path on top of Default and applies environment overrides.
// A missing file is not an error: the defaults plus environment are returned.
func LoadConfig(path string) (*AppConfig, error) {
	cfg := Default()
	yamlFile, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	default:
		if err := yaml.Unmarshal(yamlFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file '%s': %w", path, err)
		}
	}
	applyEnv(cfg, os.Getenv)
	fillDefaults(cfg)
	return cfg, nil
}

func applyEnv(cfg *AppConfig, getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&cfg.Auth.JwtSecret, "JWT_SECRET")
	set(&cfg.LLM.Groq.APIKey, "GROQ_API_KEY")
	set(&cfg.LLM.OpenAI.APIKey, "OPENAI_API_KEY")
	set(&cfg.Embedding.OpenAI.APIKey, "OPENAI_API_KEY")
	set(&cfg.LLM.Gemini.APIKey, "GEMINI_API_KEY")
	set(&cfg.Embedding.Gemini.APIKey, "GEMINI_API_KEY")
	set(&cfg.Encryption.MasterKey, "RECALL_MASTER_KEY")
	set(&cfg.App.Address, "RECALL_ADDRESS")
}

func fillDefaults(cfg *AppConfig) {
	if cfg.Auth.JwtSecret == "" {
		cfg.Auth.JwtSecret = DefaultJWTSecret
	}
	if cfg.Auth.TokenTTL <= 0 {
		cfg.Auth.TokenTTL = DefaultTokenTTL
	}
	if cfg.App.Address == "" {
		cfg.App.Address = DefaultAddress
	}
	if cfg.LLM.SystemInstruction == "" {
		cfg.LLM.SystemInstruction = DefaultSystemInstruction
	}
	if cfg.LLM.Groq.BaseURL == "" {
		cfg.LLM.Groq.BaseURL = DefaultGroqBaseURL
	}
	if cfg.LLM.Groq.Model == "" {
		cfg.LLM.Groq.Model = DefaultGroqModel
	}
	if cfg.Embedding.Dimension <= 0 {
		cfg.Embedding.Dimension = DefaultEmbeddingDim
	}
	if cfg.Memory.SimilarityThreshold <= 0 {
		cfg.Memory.SimilarityThreshold = DefaultThreshold
	}
	if cfg.Memory.TopK <= 0 {
		cfg.Memory.TopK = 1
	}
	if cfg.Anomaly.Limit <= 0 {
		cfg.Anomaly.Limit = DefaultAnomalyLimit
	}
	if cfg.Anomaly.Window == "" {
		cfg.Anomaly.Window = DefaultAnomalyWindow
	}
}
