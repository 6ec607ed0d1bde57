package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/rocketshoes/internal/domain"
	"github.com/utafrali/rocketshoes/internal/repository"
	apperrors "github.com/utafrali/rocketshoes/pkg/errors"
)

// SnapshotRepository implements repository.SnapshotRepository using Redis.
type SnapshotRepository struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewSnapshotRepository creates a Redis-backed repository. A ttl of zero
// keeps the snapshot until it is overwritten.
func NewSnapshotRepository(client *redis.Client, ttl time.Duration) *SnapshotRepository {
	return &SnapshotRepository{
		client: client,
		key:    repository.SnapshotKey,
		ttl:    ttl,
	}
}

// Load retrieves the snapshot.
func (r *SnapshotRepository) Load(ctx context.Context) (domain.Cart, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFound("cart snapshot", r.key)
		}
		return nil, fmt.Errorf("redis get cart snapshot: %w", err)
	}
	return repository.DecodeSnapshot(data)
}

// Save overwrites the snapshot, refreshing the TTL.
func (r *SnapshotRepository) Save(ctx context.Context, cart domain.Cart) error {
	data, err := repository.EncodeSnapshot(cart)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set cart snapshot: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func (r *SnapshotRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
