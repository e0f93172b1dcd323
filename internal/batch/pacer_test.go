package batch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedDelay_FirstRecordImmediate(t *testing.T) {
	t.Parallel()
	p := FixedDelay{Delay: time.Hour}

	start := time.Now()
	require.NoError(t, p.Wait(context.Background(), 0))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestFixedDelay_ZeroDelay(t *testing.T) {
	t.Parallel()
	require.NoError(t, FixedDelay{}.Wait(context.Background(), 5))
}

func TestFixedDelay_Cancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := FixedDelay{Delay: time.Hour}.Wait(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRatePacer(t *testing.T) {
	t.Parallel()
	// 1200/min = one token every 50ms.
	p := NewRatePacer(1200)

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, p.Wait(context.Background(), i))
	}
	elapsed := time.Since(start)
	assert.GreaterOrEqual(t, elapsed, 80*time.Millisecond)
	assert.Less(t, elapsed, time.Second)
}

func TestNewPacer(t *testing.T) {
	t.Parallel()
	assert.IsType(t, &RatePacer{}, NewPacer(time.Second, 30))
	assert.Equal(t, FixedDelay{Delay: 2 * time.Second}, NewPacer(2*time.Second, 0))
}
