// Package limiter gates how often a room may be reset.
package limiter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/caro-backend/internal/apperror"
)

const resetKeyPrefix = "reset:"

// ResetLimiter counts accepted resets per room over a rolling window.
//
// The counter lives in redis under reset:<roomID> with a TTL equal to the
// window; key expiry is the window restart, so the first reset after the
// window elapses starts a fresh count at 1.
type ResetLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

func NewResetLimiter(client *redis.Client, limit int, window time.Duration) *ResetLimiter {
	return &ResetLimiter{
		client: client,
		limit:  int64(limit),
		window: window,
	}
}

// Allow - admits or rejects one reset request for the room.
func (that *ResetLimiter) Allow(ctx context.Context, roomID string) error {
	resetKey := resetKeyPrefix + roomID

	count, err := that.client.Incr(ctx, resetKey).Result()
	if err != nil {
		return fmt.Errorf("failed to increment reset counter: %w", err)
	}

	if count == 1 {
		if err = that.client.Expire(ctx, resetKey, that.window).Err(); err != nil {
			return fmt.Errorf("failed to set reset window: %w", err)
		}
	}

	if count > that.limit {
		return apperror.ErrResetRateLimited
	}

	return nil
}

// Forget - drops the counter for a room, used when the room itself is destroyed.
func (that *ResetLimiter) Forget(ctx context.Context, roomID string) error {
	if err := that.client.Del(ctx, resetKeyPrefix+roomID).Err(); err != nil {
		return fmt.Errorf("failed to delete reset counter: %w", err)
	}

	return nil
}
