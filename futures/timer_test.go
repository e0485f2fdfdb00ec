package futures

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Swind/go-future-pool/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTimer_FiresInDeadlineOrder tests the shared deadline heap
// Main test items:
// 1. Sleepers added out of order are woken in deadline order
// 2. Pending drops to zero once every sleeper fired
func TestTimer_FiresInDeadlineOrder(t *testing.T) {
	timer := NewTimer()
	defer timer.Stop()

	var mu sync.Mutex
	var order []int
	fired := make(chan struct{}, 3)

	for i, d := range []time.Duration{60 * time.Millisecond, 20 * time.Millisecond, 40 * time.Millisecond} {
		f := timer.Sleep(d)
		w := core.WakerFunc(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			fired <- struct{}{}
		})
		require.Equal(t, core.Pending, pollWith(f, w))
	}
	assert.Equal(t, 3, timer.Pending())

	for range 3 {
		select {
		case <-fired:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for sleepers")
		}
	}

	mu.Lock()
	assert.Equal(t, []int{1, 2, 0}, order)
	mu.Unlock()
	assert.Equal(t, 0, timer.Pending())
}

func TestTimer_ZeroDuration(t *testing.T) {
	timer := NewTimer()
	defer timer.Stop()

	assert.Equal(t, core.Ready, pollWith(timer.Sleep(0), newCountingWaker()))
	assert.Equal(t, 0, timer.Pending())
}

// An early poll keeps the sleeper pending and hands the timer the newest waker.
func TestTimer_EarlyPollRearms(t *testing.T) {
	timer := NewTimer()
	defer timer.Stop()

	first, second := newCountingWaker(), newCountingWaker()
	f := timer.Sleep(30 * time.Millisecond)

	require.Equal(t, core.Pending, pollWith(f, first))
	require.Equal(t, core.Pending, pollWith(f, second))
	assert.Equal(t, 1, timer.Pending(), "a repoll must not schedule twice")

	select {
	case <-second.woke:
	case <-time.After(2 * time.Second):
		t.Fatal("second waker never fired")
	}
	assert.Zero(t, first.n.Load())
	assert.Equal(t, core.Ready, pollWith(f, second))
}

func TestTimer_StopDropsSleepers(t *testing.T) {
	timer := NewTimer()

	w := newCountingWaker()
	require.Equal(t, core.Pending, pollWith(timer.Sleep(20*time.Millisecond), w))
	timer.Stop()

	assert.Equal(t, 0, timer.Pending())
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, w.n.Load())
}

// TestTimer_WithThreadPool parks many sleepers on one worker
func TestTimer_WithThreadPool(t *testing.T) {
	timer := NewTimer()
	defer timer.Stop()

	pool, err := core.NewThreadPoolWithConfig(1, &core.ThreadPoolConfig{Logger: core.NewNoOpLogger()})
	require.NoError(t, err)

	const sleepers = 200
	var completed atomic.Int32
	var wg sync.WaitGroup
	wg.Add(sleepers)

	for i := range sleepers {
		pool.Spawn(Sequence(
			timer.Sleep(time.Duration(i%10)*time.Millisecond),
			Run(func(context.Context) {
				completed.Add(1)
				wg.Done()
			}),
		))
	}
	wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, pool.Shutdown(ctx))
	assert.Equal(t, int32(sleepers), completed.Load())
}
