package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/huangsam/firewatch/internal/contract"
	"github.com/huangsam/firewatch/schema"
)

// DefaultKeyPrefix namespaces every key written by the Redis store.
const DefaultKeyPrefix = "firewatch:gatekeeper:"

var _ contract.StateStore = &RedisStore{} // Compile-time check

// RedisStore keeps state as JSON values, one key per device, so several
// firewatch processes can share cooldowns. A ttl of zero keeps keys forever.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (r *RedisStore) stateKey(deviceID string) string {
	return r.prefix + "device:" + deviceID
}

func (r *RedisStore) indexKey() string {
	return r.prefix + "devices"
}

// Load implements contract.StateStore.
func (r *RedisStore) Load(ctx context.Context, deviceID string) (schema.GatekeeperState, error) {
	val, err := r.client.Get(ctx, r.stateKey(deviceID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return schema.GatekeeperState{}, nil
		}
		return schema.GatekeeperState{}, fmt.Errorf("failed to get state: %w", err)
	}

	var state schema.GatekeeperState
	if err := json.Unmarshal(val, &state); err != nil {
		return schema.GatekeeperState{}, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	return state, nil
}

// Save implements contract.StateStore.
func (r *RedisStore) Save(ctx context.Context, deviceID string, state schema.GatekeeperState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.stateKey(deviceID), data, r.ttl)
		pipe.SAdd(ctx, r.indexKey(), deviceID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to set state: %w", err)
	}
	return nil
}

// Delete implements contract.StateStore.
func (r *RedisStore) Delete(ctx context.Context, deviceID string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.stateKey(deviceID))
		pipe.SRem(ctx, r.indexKey(), deviceID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete state: %w", err)
	}
	return nil
}

// GetStatus implements contract.StateStore. The device count comes from the
// index set and may include devices whose keys already expired.
func (r *RedisStore) GetStatus(ctx context.Context) (schema.StateStatus, error) {
	status := schema.StateStatus{Backend: string(schema.RedisState)}
	n, err := r.client.SCard(ctx, r.indexKey()).Result()
	if err != nil {
		return status, fmt.Errorf("failed to count devices: %w", err)
	}
	status.Devices = int(n)
	return status, nil
}

// Close implements contract.StateStore.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
