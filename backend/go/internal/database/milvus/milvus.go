package milvus

import (
	"Recall_1.0/backend/go/internal/config"
	"Recall_1.0/backend/go/pkg/logger"
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

// Field names of the fact collection. The vector field name comes from the schema config.
const (
	FieldID        = "memory_id"
	FieldNamespace = "namespace"
	FieldPayload   = "payload"
)

var (
	instance *MilvusClient
	once     sync.Once
	initErr  error
)

// MilvusClient holds the Milvus client and its schema configuration.
type MilvusClient struct {
	Client client.Client
	Config *config.MilvusConfig

	log             *logger.Logger
	cancelAutoFlush context.CancelFunc
}

// Hit is one search result.
type Hit struct {
	ID      string
	Score   float32
	Payload string
}

// GetClient creates the process-wide Milvus client on first use.
func GetClient(ctx context.Context, cfg *config.MilvusConfig) (*MilvusClient, error) {
	once.Do(func() {
		c, err := client.NewClient(ctx, client.Config{Address: cfg.Address})
		if err != nil {
			initErr = fmt.Errorf("failed to connect to Milvus: %w", err)
			return
		}
		instance = &MilvusClient{Client: c, Config: cfg, log: logger.New("milvus", "", "")}
		instance.log.Info("connected to Milvus at " + cfg.Address)
	})
	return instance, initErr
}

// Close stops the auto flush loop and closes the connection.
func (c *MilvusClient) Close() {
	if c.Client != nil {
		c.StopAutoFlush(context.Background())
		c.Client.Close()
	}
}

// HealthCheck lists collections to check the connection.
func (c *MilvusClient) HealthCheck(ctx context.Context) error {
	if c.Client == nil {
		return fmt.Errorf("milvus client is nil")
	}
	if _, err := c.Client.ListCollections(ctx); err != nil {
		return fmt.Errorf("milvus health check failed: %w", err)
	}
	return nil
}

// Upsert writes one record, replacing any record with the same id.
func (c *MilvusClient) Upsert(ctx context.Context, id, namespace, payload string, vector []float32) error {
	collName := c.Config.Schema.CollectionName
	cols := upsertColumns(c.Config.Schema.VectorField, id, namespace, payload, vector)
	if _, err := c.Client.Upsert(ctx, collName, "", cols...); err != nil {
		return fmt.Errorf("failed to upsert into Milvus: %w", err)
	}
	return nil
}

// Search returns the topK nearest records inside namespace.
func (c *MilvusClient) Search(ctx context.Context, namespace string, topK int, vector []float32) ([]Hit, error) {
	collName := c.Config.Schema.CollectionName

	sp, err := c.searchParam()
	if err != nil {
		return nil, err
	}
	results, err := c.Client.Search(
		ctx,
		collName,
		nil,
		NamespaceExpr(namespace),
		[]string{FieldID, FieldPayload},
		[]entity.Vector{entity.FloatVector(vector)},
		c.Config.Schema.VectorField,
		c.metricType(),
		topK,
		sp,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search namespace '%s': %w", namespace, err)
	}

	var hits []Hit
	for _, res := range results {
		payloads := res.Fields.GetColumn(FieldPayload)
		for i := 0; i < res.ResultCount; i++ {
			id, err := res.IDs.GetAsString(i)
			if err != nil {
				return nil, fmt.Errorf("failed to read result id: %w", err)
			}
			hit := Hit{ID: id, Score: res.Scores[i]}
			if payloads != nil {
				if hit.Payload, err = payloads.GetAsString(i); err != nil {
					return nil, fmt.Errorf("failed to read result payload: %w", err)
				}
			}
			hits = append(hits, hit)
		}
	}
	return hits, nil
}

// Delete removes the record with id from namespace.
func (c *MilvusClient) Delete(ctx context.Context, id, namespace string) error {
	expr := fmt.Sprintf("%s == %s && %s", FieldID, strconv.Quote(id), NamespaceExpr(namespace))
	if err := c.Client.Delete(ctx, c.Config.Schema.CollectionName, "", expr); err != nil {
		return fmt.Errorf("failed to delete from Milvus: %w", err)
	}
	return nil
}

// NamespaceExpr is the boolean filter selecting one namespace.
func NamespaceExpr(namespace string) string {
	return FieldNamespace + " == " + strconv.Quote(namespace)
}

// FlushCollection persists in-memory segments.
func (c *MilvusClient) FlushCollection(ctx context.Context) error {
	collName := c.Config.Schema.CollectionName
	if err := c.Client.Flush(ctx, collName, false); err != nil {
		return fmt.Errorf("failed to flush collection '%s': %w", collName, err)
	}
	return nil
}

// StartAutoFlush flushes the collection every interval until StopAutoFlush.
func (c *MilvusClient) StartAutoFlush(interval time.Duration) {
	if c.cancelAutoFlush != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancelAutoFlush = cancel

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				flushCtx, flushCancel := context.WithTimeout(context.Background(), 10*time.Second)
				if err := c.FlushCollection(flushCtx); err != nil {
					c.log.Warn(err.Error())
				}
				flushCancel()
			}
		}
	}()
}

// StopAutoFlush stops the loop and runs one last flush.
func (c *MilvusClient) StopAutoFlush(ctx context.Context) {
	if c.cancelAutoFlush == nil {
		return
	}
	c.cancelAutoFlush()
	c.cancelAutoFlush = nil
	if err := c.FlushCollection(ctx); err != nil {
		c.log.Warn("final flush failed: " + err.Error())
	}
}

// EnsureCollection creates the collection and its index when missing, then loads it.
func (c *MilvusClient) EnsureCollection(ctx context.Context) error {
	collName := c.Config.Schema.CollectionName
	exists, err := c.Client.HasCollection(ctx, collName)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if !exists {
		schema, err := BuildSchema(c.Config.Schema)
		if err != nil {
			return err
		}
		if err := c.Client.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}
		idx, err := c.buildIndexFromConfig()
		if err != nil {
			return err
		}
		if err := c.Client.CreateIndex(ctx, collName, c.Config.Schema.Index.FieldName, idx, false); err != nil {
			return fmt.Errorf("failed to create index on '%s': %w", c.Config.Schema.Index.FieldName, err)
		}
		c.log.Info("created Milvus collection " + collName)
	}

	if err := c.Client.LoadCollection(ctx, collName, false); err != nil {
		return fmt.Errorf("failed to load collection '%s': %w", collName, err)
	}
	return nil
}

// BuildSchema converts the YAML schema into a Milvus schema.
func BuildSchema(cfg config.SchemaConfig) (*entity.Schema, error) {
	schema := entity.NewSchema().
		WithName(cfg.CollectionName).
		WithDescription(cfg.Description)

	for _, fieldCfg := range cfg.Fields {
		field := entity.NewField().WithName(fieldCfg.Name)
		if fieldCfg.IsPrimaryKey {
			field = field.WithIsPrimaryKey(true)
		}
		if fieldCfg.IsAutoID {
			field = field.WithIsAutoID(true)
		}

		switch fieldCfg.DataType {
		case "Int64":
			field = field.WithDataType(entity.FieldTypeInt64)
		case "VarChar":
			field = field.WithDataType(entity.FieldTypeVarChar).WithMaxLength(int64(fieldCfg.MaxLength))
		case "FloatVector":
			field = field.WithDataType(entity.FieldTypeFloatVector).WithDim(int64(fieldCfg.Dim))
		case "Float":
			field = field.WithDataType(entity.FieldTypeFloat)
		case "Bool":
			field = field.WithDataType(entity.FieldTypeBool)
		default:
			return nil, fmt.Errorf("unsupported data type: %s", fieldCfg.DataType)
		}
		schema = schema.WithField(field)
	}
	return schema, nil
}

func (c *MilvusClient) metricType() entity.MetricType {
	if m := strings.ToUpper(c.Config.Schema.Index.MetricType); m != "" {
		return entity.MetricType(m)
	}
	return entity.COSINE
}

func (c *MilvusClient) searchParam() (entity.SearchParam, error) {
	switch c.Config.Schema.Index.IndexType {
	case "IVF_FLAT", "IVF_SQ8", "IVF_PQ":
		return entity.NewIndexIvfFlatSearchParam(intParam(c.Config.Schema.Index.Params, "nprobe", 10))
	case "HNSW":
		return entity.NewIndexHNSWSearchParam(intParam(c.Config.Schema.Index.Params, "ef", 64))
	default:
		return entity.NewIndexAUTOINDEXSearchParam(1)
	}
}

func (c *MilvusClient) buildIndexFromConfig() (entity.Index, error) {
	indexCfg := c.Config.Schema.Index
	metricType := c.metricType()

	switch indexCfg.IndexType {
	case "IVF_FLAT":
		return entity.NewIndexIvfFlat(metricType, intParam(indexCfg.Params, "nlist", 128))
	case "HNSW":
		return entity.NewIndexHNSW(metricType, intParam(indexCfg.Params, "M", 8), intParam(indexCfg.Params, "efConstruction", 96))
	case "IVF_SQ8":
		return entity.NewIndexIvfSQ8(metricType, intParam(indexCfg.Params, "nlist", 128))
	case "IVF_PQ":
		return entity.NewIndexIvfPQ(metricType, intParam(indexCfg.Params, "nlist", 128), intParam(indexCfg.Params, "m", 16), intParam(indexCfg.Params, "nbits", 8))
	case "AUTOINDEX", "":
		return entity.NewIndexAUTOINDEX(metricType)
	default:
		return nil, fmt.Errorf("unsupported index type: %s", indexCfg.IndexType)
	}
}

func intParam(params map[string]interface{}, key string, def int) int {
	if v, ok := params[key].(int); ok {
		return v
	}
	return def
}

func upsertColumns(vectorField, id, namespace, payload string, vector []float32) []entity.Column {
	return []entity.Column{
		entity.NewColumnVarChar(FieldID, []string{id}),
		entity.NewColumnVarChar(FieldNamespace, []string{namespace}),
		entity.NewColumnVarChar(FieldPayload, []string{payload}),
		entity.NewColumnFloatVector(vectorField, len(vector), [][]float32{vector}),
	}
}
