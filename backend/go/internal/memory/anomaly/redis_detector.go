package anomaly

import (
	"Recall_1.0/backend/go/internal/config"
	"Recall_1.0/backend/go/internal/database/redis"
	"context"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// RedisDetector keeps one sorted set of request timestamps per user, so the
// window is shared by every replica.
type RedisDetector struct {
	rdb    *goredis.Client
	prefix string
	limit  int
	window time.Duration
	now    func() time.Time
}

// NewRedisDetector creates a RedisDetector.
func NewRedisDetector(rdb *goredis.Client, prefix string, cfg config.AnomalyConfig) (*RedisDetector, error) {
	window, err := ParseWindow(cfg)
	if err != nil {
		return nil, err
	}
	return &RedisDetector{rdb: rdb, prefix: prefix, limit: limitOf(cfg), window: window, now: time.Now}, nil
}

func (d *RedisDetector) Inspect(ctx context.Context, user string) (Verdict, error) {
	key := redis.Key(d.prefix, "anomaly", user)
	now := d.now()
	boundary := now.Add(-d.window).UnixNano()

	var card *goredis.IntCmd
	_, err := d.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(boundary, 10))
		pipe.ZAdd(ctx, key, &goredis.Z{Score: float64(now.UnixNano()), Member: uuid.NewString()})
		card = pipe.ZCard(ctx, key)
		pipe.PExpire(ctx, key, d.window)
		return nil
	})
	if err != nil {
		return Normal, fmt.Errorf("failed to record request: %w", err)
	}
	if card.Val() > int64(d.limit) {
		return Flag, nil
	}
	return Normal, nil
}
