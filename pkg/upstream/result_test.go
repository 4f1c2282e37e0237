package upstream

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCall(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		res := Call(context.Background(), 50*time.Millisecond, func(ctx context.Context) (int, error) {
			return 42, nil
		})
		assert.True(t, res.OK())
		assert.Equal(t, 42, res.Value)
	})

	t.Run("failure", func(t *testing.T) {
		res := Call(context.Background(), 50*time.Millisecond, func(ctx context.Context) (int, error) {
			return 0, errors.New("backend down")
		})
		assert.Equal(t, StatusFailure, res.Status)
		assert.Equal(t, -1, res.ValueOr(-1))
	})

	t.Run("timeout even when fn ignores its context", func(t *testing.T) {
		release := make(chan struct{})
		defer close(release)

		start := time.Now()
		res := Call(context.Background(), 20*time.Millisecond, func(ctx context.Context) (int, error) {
			<-release
			return 1, nil
		})
		assert.Equal(t, StatusTimeout, res.Status)
		assert.Less(t, time.Since(start), 500*time.Millisecond)
	})

	t.Run("panic becomes failure", func(t *testing.T) {
		res := Call(context.Background(), 50*time.Millisecond, func(ctx context.Context) (int, error) {
			panic("boom")
		})
		assert.Equal(t, StatusFailure, res.Status)
		assert.ErrorIs(t, res.Err, ErrPanic)
	})

	t.Run("parent cancellation is a failure, not a timeout", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		res := Call(ctx, time.Second, func(ctx context.Context) (int, error) {
			<-ctx.Done()
			return 0, ctx.Err()
		})
		assert.Equal(t, StatusFailure, res.Status)
	})
}
