package limiter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/caro-backend/internal/apperror"
	"github.com/rocketscienceinc/caro-backend/testing/suite"
)

func TestResetLimiter_Allow(t *testing.T) {
	t.Run("Admits up to the limit, rejects the rest", func(t *testing.T) {
		ctx, st := suite.New(t)

		resetLimiter := NewResetLimiter(st.Storage, 3, time.Minute)

		// When: three resets arrive within the window
		for i := 0; i < 3; i++ {
			// Then: all three are admitted
			require.NoError(t, resetLimiter.Allow(ctx, "r1"))
		}

		// Then: the fourth within the same window is rejected
		err := resetLimiter.Allow(ctx, "r1")
		require.ErrorIs(t, err, apperror.ErrResetRateLimited)
	})

	t.Run("Rooms are limited independently", func(t *testing.T) {
		ctx, st := suite.New(t)

		resetLimiter := NewResetLimiter(st.Storage, 1, time.Minute)

		require.NoError(t, resetLimiter.Allow(ctx, "r1"))
		require.ErrorIs(t, resetLimiter.Allow(ctx, "r1"), apperror.ErrResetRateLimited)

		// Then: another room still has its own budget
		require.NoError(t, resetLimiter.Allow(ctx, "r2"))
	})

	t.Run("Window elapse restarts the count at one", func(t *testing.T) {
		ctx, st := suite.New(t)

		resetLimiter := NewResetLimiter(st.Storage, 2, time.Second)

		require.NoError(t, resetLimiter.Allow(ctx, "r1"))
		require.NoError(t, resetLimiter.Allow(ctx, "r1"))
		require.ErrorIs(t, resetLimiter.Allow(ctx, "r1"), apperror.ErrResetRateLimited)

		// When: the window elapses
		time.Sleep(1100 * time.Millisecond)

		// Then: the room has a fresh budget again
		require.NoError(t, resetLimiter.Allow(ctx, "r1"))
		require.NoError(t, resetLimiter.Allow(ctx, "r1"))
		require.ErrorIs(t, resetLimiter.Allow(ctx, "r1"), apperror.ErrResetRateLimited)
	})
}

func TestResetLimiter_Forget(t *testing.T) {
	ctx, st := suite.New(t)

	resetLimiter := NewResetLimiter(st.Storage, 1, time.Minute)

	// Given: a room that used up its budget
	require.NoError(t, resetLimiter.Allow(ctx, "r1"))
	require.ErrorIs(t, resetLimiter.Allow(ctx, "r1"), apperror.ErrResetRateLimited)

	// When: the counter is dropped
	require.NoError(t, resetLimiter.Forget(ctx, "r1"))

	// Then: the room starts over
	require.NoError(t, resetLimiter.Allow(ctx, "r1"))
}
