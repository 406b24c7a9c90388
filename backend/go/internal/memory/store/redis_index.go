package store

import (
	"Recall_1.0/backend/go/internal/database/redis"
	"Recall_1.0/backend/go/internal/models"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	goredis "github.com/go-redis/redis/v8"
)

// RedisKeyIndex keeps each owner's facts in a hash and their order in a sorted set.
//
//	<prefix>:facts:<owner>  HASH  storageKey -> fact JSON
//	<prefix>:order:<owner>  ZSET  storageKey scored by insertion sequence
//	<prefix>:seq:<owner>    STRING counter
type RedisKeyIndex struct {
	rdb    *goredis.Client
	prefix string
}

// NewRedisKeyIndex creates a RedisKeyIndex.
func NewRedisKeyIndex(rdb *goredis.Client, prefix string) *RedisKeyIndex {
	return &RedisKeyIndex{rdb: rdb, prefix: prefix}
}

func (r *RedisKeyIndex) factsKey(owner string) string { return redis.Key(r.prefix, "facts", owner) }
func (r *RedisKeyIndex) orderKey(owner string) string { return redis.Key(r.prefix, "order", owner) }
func (r *RedisKeyIndex) seqKey(owner string) string   { return redis.Key(r.prefix, "seq", owner) }

func (r *RedisKeyIndex) Put(ctx context.Context, fact *models.Fact) (bool, error) {
	data, err := json.Marshal(fact)
	if err != nil {
		return false, fmt.Errorf("failed to marshal fact: %w", err)
	}
	seq, err := r.rdb.Incr(ctx, r.seqKey(fact.Owner)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to allocate sequence: %w", err)
	}

	var added *goredis.IntCmd
	_, err = r.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		added = pipe.HSet(ctx, r.factsKey(fact.Owner), fact.StorageKey, data)
		pipe.ZAddNX(ctx, r.orderKey(fact.Owner), &goredis.Z{Score: float64(seq), Member: fact.StorageKey})
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to store fact: %w", err)
	}
	return added.Val() == 1, nil
}

func (r *RedisKeyIndex) Get(ctx context.Context, owner, storageKey string) (*models.Fact, error) {
	data, err := r.rdb.HGet(ctx, r.factsKey(owner), storageKey).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrFactNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read fact: %w", err)
	}
	var f models.Fact
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to decode fact: %w", err)
	}
	return &f, nil
}

func (r *RedisKeyIndex) Keys(ctx context.Context, owner string) ([]string, error) {
	keys, err := r.rdb.ZRange(ctx, r.orderKey(owner), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	return keys, nil
}

func (r *RedisKeyIndex) List(ctx context.Context, owner string) ([]*models.Fact, error) {
	keys, err := r.Keys(ctx, owner)
	if err != nil || len(keys) == 0 {
		return nil, err
	}
	vals, err := r.rdb.HMGet(ctx, r.factsKey(owner), keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read facts: %w", err)
	}
	out := make([]*models.Fact, 0, len(vals))
	for _, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var f models.Fact
		if err := json.Unmarshal([]byte(s), &f); err != nil {
			return nil, fmt.Errorf("failed to decode fact: %w", err)
		}
		out = append(out, &f)
	}
	return out, nil
}

func (r *RedisKeyIndex) Delete(ctx context.Context, owner, storageKey string) error {
	var removed *goredis.IntCmd
	_, err := r.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		removed = pipe.HDel(ctx, r.factsKey(owner), storageKey)
		pipe.ZRem(ctx, r.orderKey(owner), storageKey)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete fact: %w", err)
	}
	if removed.Val() == 0 {
		return ErrFactNotFound
	}
	return nil
}
