package watch

import (
	"sync/atomic"
	"testing"
	"time"

	"dbdhistory/internal/page"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quiet = 20 * time.Millisecond

func TestWatcher_BurstRunsOnce(t *testing.T) {
	var runs int32
	w := New(quiet, func() { atomic.AddInt32(&runs, 1) })

	for i := 0; i < 10; i++ {
		w.Notify()
		time.Sleep(2 * time.Millisecond)
	}

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&runs) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(3 * quiet)
	assert.Equal(t, int32(1), atomic.LoadInt32(&runs))
}

func TestWatcher_SeparateBurstsRunSeparately(t *testing.T) {
	var runs int32
	w := New(quiet, func() { atomic.AddInt32(&runs, 1) })

	w.Notify()
	require.Eventually(t, func() bool { return atomic.LoadInt32(&runs) == 1 }, time.Second, 5*time.Millisecond)
	w.Notify()
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&runs) == 2 }, time.Second, 5*time.Millisecond)
}

func TestWatcher_GateDropsNotifications(t *testing.T) {
	var runs int32
	var open atomic.Bool
	w := New(quiet, func() { atomic.AddInt32(&runs, 1) }, WithGate(open.Load))

	w.Notify()
	time.Sleep(3 * quiet)
	assert.Equal(t, int32(0), atomic.LoadInt32(&runs))

	open.Store(true)
	w.Notify()
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&runs) == 1 }, time.Second, 5*time.Millisecond)
}

func TestWatcher_StopDiscardsPendingRun(t *testing.T) {
	var runs int32
	w := New(quiet, func() { atomic.AddInt32(&runs, 1) })

	w.Notify()
	w.Stop()
	w.Notify()
	time.Sleep(3 * quiet)
	assert.Equal(t, int32(0), atomic.LoadInt32(&runs))
}

func TestWatcher_RunsArePosted(t *testing.T) {
	posted := make(chan func(), 1)
	var runs int32
	w := New(quiet, func() { atomic.AddInt32(&runs, 1) }, WithPost(func(fn func()) { posted <- fn }))

	w.Observe([]page.Mutation{{}})

	select {
	case fn := <-posted:
		assert.Equal(t, int32(0), atomic.LoadInt32(&runs), "nothing runs until the posted task does")
		fn()
	case <-time.After(time.Second):
		t.Fatal("run was never posted")
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&runs))
}
