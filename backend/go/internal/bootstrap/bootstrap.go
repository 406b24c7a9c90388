// Package bootstrap builds the memory and relationship services from configuration.
// Every optional backend is selected by its config section; an empty address
// keeps the in-process implementation.
package bootstrap

import (
	"Recall_1.0/backend/go/internal/auth"
	"Recall_1.0/backend/go/internal/config"
	"Recall_1.0/backend/go/internal/crypto"
	"Recall_1.0/backend/go/internal/database/kafka"
	"Recall_1.0/backend/go/internal/database/milvus"
	"Recall_1.0/backend/go/internal/database/minio"
	"Recall_1.0/backend/go/internal/database/mongo"
	"Recall_1.0/backend/go/internal/database/mysql"
	"Recall_1.0/backend/go/internal/database/neo4j"
	"Recall_1.0/backend/go/internal/database/redis"
	"Recall_1.0/backend/go/internal/embedding"
	"Recall_1.0/backend/go/internal/llm"
	"Recall_1.0/backend/go/internal/memory/anomaly"
	"Recall_1.0/backend/go/internal/memory/export"
	"Recall_1.0/backend/go/internal/memory/publisher"
	"Recall_1.0/backend/go/internal/memory/service"
	"Recall_1.0/backend/go/internal/memory/store"
	"Recall_1.0/backend/go/internal/memory/transcript"
	"Recall_1.0/backend/go/internal/models"
	relservice "Recall_1.0/backend/go/internal/relationship/service"
	relstore "Recall_1.0/backend/go/internal/relationship/store"
	httpx "Recall_1.0/backend/go/pkg/http"
	"Recall_1.0/backend/go/pkg/logger"
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/go-redis/redis/v8"
)

const (
	milvusFlushInterval = 5 * time.Second
	healthTimeout       = 2 * time.Second
)

// Components are the long-lived collaborators of one process.
type Components struct {
	Memory        *service.MemoryService
	Relationships *relservice.Service
	Graph         store.GraphStore
	// Tokens is nil unless auth.method is "jwt".
	Tokens *auth.Tokens

	closers []func(ctx context.Context)
	checks  []healthCheck
	log     *logger.Logger
}

type healthCheck struct {
	name  string
	check func(ctx context.Context) error
}

// Build wires every backend named by cfg. On error the parts already opened are closed.
func Build(ctx context.Context, cfg *config.AppConfig, log *logger.Logger) (*Components, error) {
	c := &Components{log: log}
	if err := c.build(ctx, cfg); err != nil {
		c.Close(context.Background())
		return nil, err
	}
	return c, nil
}

func (c *Components) build(ctx context.Context, cfg *config.AppConfig) error {
	embedder, err := embedding.NewEmdModel(cfg.Embedding)
	if err != nil {
		return fmt.Errorf("embedding: %w", err)
	}
	if cl, ok := embedder.(interface{ Close() error }); ok {
		c.onClose("embedding", func(context.Context) error { return cl.Close() })
	}

	var rdb *goredis.Client
	needRedis := cfg.Memory.KeyIndex == "redis" || (cfg.Anomaly.Enabled && cfg.Anomaly.Backend == "redis")
	if needRedis {
		if rdb, err = redis.GetClient(&cfg.Databases.Redis); err != nil {
			return err
		}
		c.onClose("redis", func(context.Context) error { return redis.Close() })
		c.onHealth("redis", redis.HealthCheck)
	}

	keys, err := c.keyIndex(cfg, rdb)
	if err != nil {
		return err
	}
	vectors, err := c.vectorIndex(ctx, cfg)
	if err != nil {
		return err
	}
	facts := store.New(keys, vectors, embedder)

	if c.Graph, err = c.graph(ctx, cfg); err != nil {
		return err
	}

	if c.Relationships, err = c.relationships(ctx, cfg); err != nil {
		return err
	}

	detector, err := c.detector(cfg, rdb)
	if err != nil {
		return err
	}
	if md, ok := detector.(*anomaly.MemoryDetector); ok {
		stop := md.StartSweeper(0)
		c.onClose("anomaly sweeper", func(context.Context) error { stop(); return nil })
	}

	completion, err := c.completion(cfg)
	if err != nil {
		return err
	}

	pub, err := c.publisher(cfg)
	if err != nil {
		return err
	}

	turns, err := c.transcript(ctx, cfg)
	if err != nil {
		return err
	}

	exporter, err := c.exporter(ctx, cfg)
	if err != nil {
		return err
	}

	if cfg.Auth.Method == "jwt" {
		c.Tokens = auth.FromConfig(cfg.Auth)
	}

	c.Memory = service.NewMemoryService(service.Deps{
		Store:             facts,
		Graph:             c.Graph,
		Relationships:     c.Relationships,
		Detector:          detector,
		LLM:               completion,
		Sealer:            crypto.NewSealer(cfg.Encryption.MasterKey),
		Publisher:         pub,
		Transcript:        turns,
		Exporter:          exporter,
		Logger:            c.log,
		SystemInstruction: cfg.LLM.SystemInstruction,
		Threshold:         cfg.Memory.SimilarityThreshold,
		TopK:              cfg.Memory.TopK,
	})
	return nil
}

// Close releases every backend in reverse order of opening.
func (c *Components) Close(ctx context.Context) {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i](ctx)
	}
	c.closers = nil
}

// Health runs every backend check and reports "ok" or the error text per backend.
func (c *Components) Health(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()
	out := make(map[string]string, len(c.checks))
	for _, hc := range c.checks {
		if err := hc.check(ctx); err != nil {
			out[hc.name] = err.Error()
			continue
		}
		out[hc.name] = "ok"
	}
	return out
}

func (c *Components) onHealth(name string, fn func(ctx context.Context) error) {
	c.checks = append(c.checks, healthCheck{name: name, check: fn})
}

func (c *Components) onClose(name string, fn func(ctx context.Context) error) {
	c.closers = append(c.closers, func(ctx context.Context) {
		if err := fn(ctx); err != nil {
			c.log.WithError(models.ErrorInfo{Message: err.Error()}).Warn("failed to close " + name)
		}
	})
}

func (c *Components) keyIndex(cfg *config.AppConfig, rdb *goredis.Client) (store.KeyIndex, error) {
	switch cfg.Memory.KeyIndex {
	case "redis":
		return store.NewRedisKeyIndex(rdb, cfg.Databases.Redis.KeyPrefix), nil
	case "memory", "":
		return store.NewMemoryKeyIndex(), nil
	default:
		return nil, fmt.Errorf("unsupported key index: %s", cfg.Memory.KeyIndex)
	}
}

func (c *Components) vectorIndex(ctx context.Context, cfg *config.AppConfig) (store.VectorIndex, error) {
	switch cfg.Memory.VectorIndex {
	case "milvus":
		client, err := milvus.GetClient(ctx, &cfg.Databases.Milvus)
		if err != nil {
			return nil, err
		}
		c.onClose("milvus", func(context.Context) error { client.Close(); return nil })
		c.onHealth("milvus", client.HealthCheck)
		if err := client.EnsureCollection(ctx); err != nil {
			return nil, err
		}
		client.StartAutoFlush(milvusFlushInterval)
		return store.NewMilvusIndex(client), nil
	case "chromem", "":
		return store.NewChromemIndex(cfg.Memory.ChromemPath)
	default:
		return nil, fmt.Errorf("unsupported vector index: %s", cfg.Memory.VectorIndex)
	}
}

func (c *Components) graph(ctx context.Context, cfg *config.AppConfig) (store.GraphStore, error) {
	if cfg.Databases.Neo4j.Uri == "" {
		return store.NewMemoryGraph(), nil
	}
	client, err := neo4j.GetClient(ctx, &cfg.Databases.Neo4j)
	if err != nil {
		return nil, err
	}
	c.onClose("neo4j", func(ctx context.Context) error { client.Close(ctx); return nil })
	c.onHealth("neo4j", client.HealthCheck)
	return store.NewNeo4jStore(client), nil
}

func (c *Components) relationships(ctx context.Context, cfg *config.AppConfig) (*relservice.Service, error) {
	var (
		backing relstore.Store
		err     error
	)
	switch cfg.Relationships.Driver {
	case "mysql":
		db, derr := mysql.GetDB(&cfg.Databases.MySQL)
		if derr != nil {
			return nil, derr
		}
		c.onHealth("mysql", mysql.HealthCheck)
		backing, err = relstore.NewGormStore(db)
	case "sqlite", "":
		backing, err = relstore.OpenSQLite(cfg.Databases.SQLite.Path)
	default:
		return nil, fmt.Errorf("unsupported relationships driver: %s", cfg.Relationships.Driver)
	}
	if err != nil {
		return nil, err
	}
	c.onClose("relationships", func(context.Context) error { return backing.Close() })

	svc := relservice.NewService(backing)
	if err := svc.Load(ctx); err != nil {
		return nil, err
	}
	return svc, nil
}

func (c *Components) detector(cfg *config.AppConfig, rdb *goredis.Client) (anomaly.Detector, error) {
	if cfg.Anomaly.Enabled && cfg.Anomaly.Backend == "redis" {
		d, err := anomaly.NewRedisDetector(rdb, cfg.Databases.Redis.KeyPrefix, cfg.Anomaly)
		if err != nil {
			return nil, err
		}
		return d, nil
	}
	return anomaly.NewFromConfig(cfg.Anomaly)
}

// completion returns a nil LLM when no provider is configured, so the
// dispatcher offers to store instead of failing.
func (c *Components) completion(cfg *config.AppConfig) (llm.LLM, error) {
	client, err := llm.NewClient(cfg.LLM)
	if errors.Is(err, llm.ErrNotConfigured) {
		c.log.Warn("no LLM configured, fallback answers are disabled")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if cl, ok := client.(interface{ Close() error }); ok {
		c.onClose("llm", func(context.Context) error { return cl.Close() })
	}

	if !cfg.Middleware.CircuitBreaker.Enabled {
		return client, nil
	}
	breaker, err := httpx.NewBreaker("llm", cfg.Middleware.CircuitBreaker)
	if err != nil {
		return nil, err
	}
	return llm.NewGuarded(client, breaker), nil
}

func (c *Components) publisher(cfg *config.AppConfig) (publisher.Publisher, error) {
	if len(cfg.Databases.Kafka.Brokers) == 0 {
		return publisher.Noop{}, nil
	}
	client, err := kafka.GetClient(&cfg.Databases.Kafka)
	if err != nil {
		return nil, err
	}
	c.onClose("kafka", func(context.Context) error { return client.Close() })
	c.onHealth("kafka", client.HealthCheck)
	return publisher.NewKafka(client.Writer, cfg.Databases.Kafka.Topics[0]), nil
}

func (c *Components) transcript(ctx context.Context, cfg *config.AppConfig) (transcript.Store, error) {
	switch cfg.Memory.Transcript {
	case "none":
		return nil, nil
	case "mongo":
		coll, err := mongo.Collection(&cfg.Databases.MongoDB)
		if err != nil {
			return nil, err
		}
		c.onClose("mongo", mongo.Close)
		c.onHealth("mongo", mongo.HealthCheck)
		s, err := transcript.NewMongoStore(ctx, coll)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "memory", "":
		return transcript.NewRing(cfg.Memory.TranscriptCapacity), nil
	default:
		return nil, fmt.Errorf("unsupported transcript backend: %s", cfg.Memory.Transcript)
	}
}

func (c *Components) exporter(ctx context.Context, cfg *config.AppConfig) (*export.Exporter, error) {
	if cfg.Databases.MinIO.Endpoint == "" {
		return nil, nil
	}
	client, err := minio.GetClient(ctx, &cfg.Databases.MinIO)
	if err != nil {
		return nil, err
	}
	c.onHealth("minio", minio.HealthCheck)
	return export.New(client, cfg.Databases.MinIO.Bucket), nil
}
