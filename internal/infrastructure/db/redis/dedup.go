package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const dedupTTL = 24 * time.Hour

// DedupChecker provides idempotency checks for analysis submissions.
// Key format: dedup:<person_id>:<idempotency_key>
type DedupChecker struct {
	client *redis.Client
}

// NewDedupChecker creates a DedupChecker wrapping the given Redis client.
func NewDedupChecker(client *redis.Client) *DedupChecker {
	return &DedupChecker{client: client}
}

// IsDuplicate reports whether this submission has already been processed.
func (d *DedupChecker) IsDuplicate(ctx context.Context, personID, key string) (bool, error) {
	n, err := d.client.Exists(ctx, d.key(personID, key)).Result()
	if err != nil {
		return false, fmt.Errorf("dedup check: %w", err)
	}
	return n > 0, nil
}

// Mark records that this submission has been processed (expires after dedupTTL).
func (d *DedupChecker) Mark(ctx context.Context, personID, key string) error {
	return d.client.Set(ctx, d.key(personID, key), "1", dedupTTL).Err()
}

func (d *DedupChecker) key(personID, key string) string {
	return fmt.Sprintf("dedup:%s:%s", personID, key)
}
