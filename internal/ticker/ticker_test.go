package ticker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStart_FiresEachTaskIndependently(t *testing.T) {
	var fast, slow atomic.Int32
	h := Start(context.Background(),
		Task{Name: "fast", Interval: 5 * time.Millisecond, Run: func(context.Context, time.Time) { fast.Add(1) }},
		Task{Name: "slow", Interval: 25 * time.Millisecond, Run: func(context.Context, time.Time) { slow.Add(1) }},
	)
	time.Sleep(120 * time.Millisecond)
	h.Stop()

	assert.Greater(t, fast.Load(), slow.Load())
	assert.GreaterOrEqual(t, slow.Load(), int32(1))
}

func TestStop_DeregistersTasks(t *testing.T) {
	var n atomic.Int32
	h := Start(context.Background(), Task{Name: "t", Interval: 5 * time.Millisecond, Run: func(context.Context, time.Time) { n.Add(1) }})
	time.Sleep(30 * time.Millisecond)
	h.Stop()
	after := n.Load()
	time.Sleep(30 * time.Millisecond)

	assert.Equal(t, after, n.Load(), "task fired after Stop")
	h.Stop() // second call is a no-op
}

func TestStart_ParentCancelStopsTasks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := Start(ctx, Task{Name: "t", Interval: 5 * time.Millisecond, Run: func(context.Context, time.Time) {}})
	cancel()

	done := make(chan struct{})
	go func() {
		h.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		require.FailNow(t, "tasks did not stop after parent cancel")
	}
}

func TestStart_SkipsInvalidTasks(t *testing.T) {
	h := Start(context.Background(),
		Task{Name: "no-interval", Run: func(context.Context, time.Time) {}},
		Task{Name: "no-func", Interval: time.Millisecond},
	)
	h.Stop()
}
