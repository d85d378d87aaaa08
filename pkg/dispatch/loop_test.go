package dispatch

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startLoop(t *testing.T, cfg Config) *Loop {
	t.Helper()
	l := NewLoop(cfg)
	go l.Run(context.Background())
	t.Cleanup(l.Close)
	return l
}

func TestLoop_RunsInOrder(t *testing.T) {
	l := startLoop(t, Config{})

	var got []int
	for i := 0; i < 100; i++ {
		l.Post(func() { got = append(got, i) })
	}
	require.NoError(t, l.Do(context.Background(), func() {}))

	require.Len(t, got, 100)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestLoop_SerializesConcurrentPosts(t *testing.T) {
	l := startLoop(t, Config{})

	counter := 0
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				_ = l.Do(context.Background(), func() { counter++ })
			}
		}()
	}
	wg.Wait()

	var final int
	require.NoError(t, l.Do(context.Background(), func() { final = counter }))
	assert.Equal(t, 800, final)
}

func TestLoop_PostFromCallback(t *testing.T) {
	l := startLoop(t, Config{})

	done := make(chan struct{})
	l.Post(func() {
		l.Post(func() { close(done) })
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("nested post did not run")
	}
}

func TestLoop_DoAfterClose(t *testing.T) {
	l := NewLoop(Config{})
	l.Close()
	l.Close()

	assert.ErrorIs(t, l.Do(context.Background(), func() {}), ErrClosed)
}

func TestLoop_DoContextCanceled(t *testing.T) {
	l := NewLoop(Config{})
	t.Cleanup(l.Close)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, l.Do(ctx, func() {}), context.Canceled)
}

func TestLoop_RunStopsOnContext(t *testing.T) {
	l := NewLoop(Config{})
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(ctx) }()
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}

	select {
	case <-l.Done():
	default:
		t.Error("loop not closed after Run returned")
	}
}

func TestLoop_RecoversPanic(t *testing.T) {
	var recovered atomic.Value
	l := startLoop(t, Config{OnPanic: func(v any) { recovered.Store(v) }})

	require.NoError(t, l.Do(context.Background(), func() { panic("boom") }))

	ran := false
	require.NoError(t, l.Do(context.Background(), func() { ran = true }))
	assert.True(t, ran)
	assert.Equal(t, "boom", recovered.Load())
}

func TestLoop_AfterFunc(t *testing.T) {
	l := startLoop(t, Config{})

	fired := make(chan struct{})
	l.AfterFunc(10*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
}

func TestLoop_AfterFuncStop(t *testing.T) {
	l := startLoop(t, Config{})

	var fired atomic.Bool
	timer := l.AfterFunc(20*time.Millisecond, func() { fired.Store(true) })
	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, l.Do(context.Background(), func() {}))
	assert.False(t, fired.Load())
}

func TestLoop_StopAfterQueued(t *testing.T) {
	l := NewLoop(Config{})
	t.Cleanup(l.Close)

	var fired atomic.Bool
	timer := l.AfterFunc(time.Millisecond, func() { fired.Store(true) })

	// Let the timer post its callback while the loop is not yet running.
	time.Sleep(20 * time.Millisecond)
	assert.True(t, timer.Stop())

	go l.Run(context.Background())
	require.NoError(t, l.Do(context.Background(), func() {}))
	assert.False(t, fired.Load())
}
