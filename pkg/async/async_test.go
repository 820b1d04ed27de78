package async_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/statekit/pkg/async"
)

func TestAsync(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("returns result", func(t *testing.T) {
		t.Parallel()
		f := async.Async(ctx, 42, func(_ context.Context, n int) (string, error) {
			time.Sleep(10 * time.Millisecond)
			return fmt.Sprintf("Number: %d", n), nil
		})

		res, err := f.Await()
		require.NoError(t, err)
		assert.Equal(t, "Number: 42", res)
		assert.True(t, f.IsComplete())
	})

	t.Run("propagates error", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("boom")
		f := async.Async(ctx, 1, func(_ context.Context, _ int) (int, error) {
			return 0, boom
		})

		_, err := f.Await()
		assert.ErrorIs(t, err, boom)
	})

	t.Run("recovers panic", func(t *testing.T) {
		t.Parallel()
		f := async.Async(ctx, 1, func(_ context.Context, _ int) (int, error) {
			panic("kaboom")
		})

		_, err := f.Await()
		require.ErrorIs(t, err, async.ErrPanic)
		assert.Contains(t, err.Error(), "kaboom")
	})

	t.Run("skips fn on canceled context", func(t *testing.T) {
		t.Parallel()
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		called := false
		f := async.Async(cctx, 1, func(_ context.Context, _ int) (int, error) {
			called = true
			return 1, nil
		})

		_, err := f.Await()
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, called)
	})
}

func TestResolveReject(t *testing.T) {
	t.Parallel()

	r := async.Resolve("ok")
	require.True(t, r.IsComplete())
	v, err := r.Await()
	require.NoError(t, err)
	assert.Equal(t, "ok", v)

	boom := errors.New("boom")
	j := async.Reject[int](boom)
	require.True(t, j.IsComplete())
	_, err = j.Await()
	assert.ErrorIs(t, err, boom)

	select {
	case <-r.Done():
	default:
		t.Fatal("resolved future must expose a closed Done channel")
	}
}

func TestAwaitWithTimeout(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	slow := async.Async(ctx, 0, func(_ context.Context, _ int) (int, error) {
		time.Sleep(200 * time.Millisecond)
		return 1, nil
	})

	_, err := slow.AwaitWithTimeout(20 * time.Millisecond)
	assert.ErrorIs(t, err, async.ErrTimeout)

	res, err := slow.AwaitWithTimeout(time.Second)
	require.NoError(t, err)
	assert.Equal(t, 1, res)
}

func TestWaitAll(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	double := func(_ context.Context, n int) (int, error) { return n * 2, nil }

	res, err := async.WaitAll(
		async.Async(ctx, 1, double),
		async.Async(ctx, 2, double),
		async.Async(ctx, 3, double),
	)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4, 6}, res)

	boom := errors.New("boom")
	_, err = async.WaitAll(async.Resolve(1), async.Reject[int](boom), async.Resolve(3))
	assert.ErrorIs(t, err, boom)
}

func TestWaitAny(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sleepy := func(d time.Duration) func(context.Context, int) (int, error) {
		return func(_ context.Context, n int) (int, error) {
			time.Sleep(d)
			return n, nil
		}
	}

	idx, res, err := async.WaitAny(
		async.Async(ctx, 1, sleepy(150*time.Millisecond)),
		async.Async(ctx, 2, sleepy(5*time.Millisecond)),
	)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	assert.Equal(t, 2, res)

	_, _, err = async.WaitAny[int]()
	assert.ErrorIs(t, err, async.ErrNoFutures)
}

func TestWaitSettled(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	boom := errors.New("boom")

	slow := async.Async(ctx, "slow", func(_ context.Context, s string) (string, error) {
		time.Sleep(80 * time.Millisecond)
		return s, nil
	})
	failing := async.Async(ctx, "failing", func(_ context.Context, _ string) (string, error) {
		time.Sleep(10 * time.Millisecond)
		return "", boom
	})
	fast := async.Resolve("fast")

	out := async.WaitSettled(slow, failing, fast)
	require.Len(t, out, 3)

	// slow finishes well after the others
	assert.Equal(t, 0, out[2].Index)
	assert.Equal(t, "slow", out[2].Result)

	indexes := []int{out[0].Index, out[1].Index, out[2].Index}
	sort.Ints(indexes)
	assert.Equal(t, []int{0, 1, 2}, indexes)

	for _, s := range out {
		if s.Index == 1 {
			assert.ErrorIs(t, s.Err, boom)
		} else {
			assert.NoError(t, s.Err)
		}
	}

	assert.Nil(t, async.WaitSettled[int]())
}
