package kafka

import (
	"Recall_1.0/backend/go/internal/config"
	"Recall_1.0/backend/go/pkg/logger"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaClient holds the shared writer and the admin connection.
type KafkaClient struct {
	Writer *kafka.Writer
	Conn   *kafka.Conn
	Config *config.KafkaConfig
}

var (
	client  *KafkaClient
	once    sync.Once
	initErr error
)

// GetClient connects on first use and creates every configured topic that is missing.
func GetClient(cfg *config.KafkaConfig) (*KafkaClient, error) {
	once.Do(func() {
		if len(cfg.Brokers) == 0 {
			initErr = fmt.Errorf("no kafka brokers configured")
			return
		}
		if len(cfg.Topics) == 0 {
			initErr = fmt.Errorf("no kafka topics configured")
			return
		}

		conn, err := kafka.Dial("tcp", cfg.Brokers[0])
		if err != nil {
			initErr = fmt.Errorf("failed to dial kafka: %w", err)
			return
		}

		if err := ensureTopics(conn, cfg.Topics); err != nil {
			initErr = err
			conn.Close()
			return
		}

		// Topic is set per message, so one writer serves every topic.
		writer := &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Balancer:     &kafka.Hash{},
			BatchTimeout: 10 * time.Millisecond,
			BatchSize:    100,
			Async:        true,
			Completion: func(messages []kafka.Message, err error) {
				if err != nil {
					logger.New("kafka", "", "").Warn(fmt.Sprintf("failed to deliver %d messages: %v", len(messages), err))
				}
			},
		}

		logger.New("kafka", "", "").Info("kafka client initialized")
		client = &KafkaClient{Writer: writer, Conn: conn, Config: cfg}
	})

	return client, initErr
}

func ensureTopics(conn *kafka.Conn, topics []string) error {
	partitions, err := conn.ReadPartitions()
	if err != nil {
		return fmt.Errorf("failed to read kafka partitions: %w", err)
	}
	existing := make(map[string]struct{})
	for _, p := range partitions {
		existing[p.Topic] = struct{}{}
	}

	var missing []kafka.TopicConfig
	for _, name := range topics {
		if _, ok := existing[name]; !ok {
			missing = append(missing, kafka.TopicConfig{
				Topic:             name,
				NumPartitions:     1,
				ReplicationFactor: 1,
			})
		}
	}
	if len(missing) == 0 {
		return nil
	}
	if err := conn.CreateTopics(missing...); err != nil {
		return fmt.Errorf("failed to create kafka topics: %w", err)
	}
	return nil
}

// Close flushes the writer and closes the admin connection.
func (c *KafkaClient) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.Writer != nil {
		if err := c.Writer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close kafka writer: %w", err))
		}
	}
	if c.Conn != nil {
		if err := c.Conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close kafka admin connection: %w", err))
		}
	}
	return errors.Join(errs...)
}

// HealthCheck asks the broker for its controller.
func (c *KafkaClient) HealthCheck(ctx context.Context) error {
	if c == nil || c.Conn == nil {
		return fmt.Errorf("kafka client is not initialized")
	}
	_, err := c.Conn.Controller()
	return err
}
