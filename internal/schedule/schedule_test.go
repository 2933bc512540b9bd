package schedule

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_InvalidSpec(t *testing.T) {
	_, err := New("every now and then", func(context.Context) {})
	assert.Error(t, err)

	_, err = New("*/5 * * * * *", func(context.Context) {})
	assert.Error(t, err, "seconds field is not accepted")
}

func TestNext(t *testing.T) {
	r, err := New("0 * * * *", func(context.Context) {})
	require.NoError(t, err)

	from := time.Date(2024, 1, 1, 10, 15, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC), r.Next(from))

	every, err := New("@every 15m", func(context.Context) {})
	require.NoError(t, err)
	assert.Equal(t, from.Add(15*time.Minute), every.Next(from))
}

func TestRun_TicksUntilCancelled(t *testing.T) {
	var runs atomic.Int32
	r, err := New("@every 1s", func(context.Context) { runs.Add(1) })
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2500*time.Millisecond)
	defer cancel()
	require.NoError(t, r.Run(ctx))

	assert.GreaterOrEqual(t, runs.Load(), int32(1))
}

func TestRun_SkipsOverlappingRuns(t *testing.T) {
	var started atomic.Int32
	r, err := New("@every 1s", func(ctx context.Context) {
		started.Add(1)
		<-ctx.Done()
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 3500*time.Millisecond)
	defer cancel()
	require.NoError(t, r.Run(ctx))

	assert.Equal(t, int32(1), started.Load())
}
