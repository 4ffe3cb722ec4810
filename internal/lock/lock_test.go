package lock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	locker := NewKeyedMutex()
	ctx := context.Background()

	var mu sync.Mutex
	inside := 0
	maxInside := 0

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(ctx, "wf-1")
			if !assert.NoError(t, err) {
				return
			}

			mu.Lock()
			inside++
			if inside > maxInside {
				maxInside = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxInside)
	assert.Equal(t, 0, locker.Len())
}

func TestKeyedMutex_DifferentKeysDoNotBlock(t *testing.T) {
	locker := NewKeyedMutex()
	ctx := context.Background()

	unlockA, err := locker.Lock(ctx, "a")
	require.NoError(t, err)
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB, err := locker.Lock(ctx, "b")
		if err == nil {
			unlockB()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different key blocked")
	}
}

func TestKeyedMutex_ContextCancelled(t *testing.T) {
	locker := NewKeyedMutex()

	unlock, err := locker.Lock(context.Background(), "wf-1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = locker.Lock(ctx, "wf-1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()

	// The abandoned waiter hands the lock back, so the key becomes free again
	assert.Eventually(t, func() bool { return locker.Len() == 0 }, time.Second, 5*time.Millisecond)

	unlock, err = locker.Lock(context.Background(), "wf-1")
	require.NoError(t, err)
	unlock()
}
