package core

import (
	"context"
	"fmt"
	"time"

	"github.com/huangsam/firewatch/internal/contract"
	"github.com/huangsam/firewatch/schema"
)

// CleanupOlderThan deletes readings observed more than days before now.
func CleanupOlderThan(ctx context.Context, store contract.ReadingStore, days int, now time.Time) (schema.CleanupResult, error) {
	if days < 0 {
		return schema.CleanupResult{}, fmt.Errorf("days must not be negative (received %d)", days)
	}
	total, err := store.Count(ctx)
	if err != nil {
		return schema.CleanupResult{}, fmt.Errorf("count readings: %w", err)
	}

	cutoff := now.Add(-time.Duration(days) * 24 * time.Hour)
	deleted, err := store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return schema.CleanupResult{}, fmt.Errorf("delete readings before %s: %w", cutoff.Format(contract.DateTimeFormat), err)
	}
	return schema.CleanupResult{TotalBefore: total, Deleted: deleted, Cutoff: cutoff}, nil
}

// CleanupAll deletes every reading and resets the ID sequence.
func CleanupAll(ctx context.Context, store contract.ReadingStore) (schema.CleanupResult, error) {
	total, err := store.Count(ctx)
	if err != nil {
		return schema.CleanupResult{}, fmt.Errorf("count readings: %w", err)
	}
	deleted, err := store.DeleteAll(ctx)
	if err != nil {
		return schema.CleanupResult{}, fmt.Errorf("delete all readings: %w", err)
	}
	return schema.CleanupResult{TotalBefore: total, Deleted: deleted, All: true}, nil
}
