// Package state provides gatekeeper state backends: in-process memory and Redis.
package state

import (
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/huangsam/firewatch/internal/contract"
	"github.com/huangsam/firewatch/schema"
)

// NewStore returns the state backend selected in the configuration.
func NewStore(cfg *contract.Config) (contract.StateStore, error) {
	switch cfg.StateBackend {
	case schema.RedisState:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return NewRedisStore(client, DefaultKeyPrefix, cfg.StateTTL), nil
	case schema.MemoryState, "":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported state backend: %s", cfg.StateBackend)
	}
}

// copyState detaches a state from the caller's pointers.
func copyState(s schema.GatekeeperState) schema.GatekeeperState {
	var out schema.GatekeeperState
	if s.LastReading != nil {
		r := s.LastReading.Clone()
		out.LastReading = &r
	}
	if s.LastAlertAt != nil {
		t := *s.LastAlertAt
		out.LastAlertAt = &t
	}
	return out
}
