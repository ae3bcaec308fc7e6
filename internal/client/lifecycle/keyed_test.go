package lifecycle

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	var k keyedMutex
	var inside, overlap atomic.Int32

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.lock("a")
			if inside.Add(1) > 1 {
				overlap.Store(1)
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(0), overlap.Load())
	assert.Equal(t, 0, k.size(), "unused locks are dropped")
}

func TestKeyedMutex_DifferentKeysDoNotBlock(t *testing.T) {
	var k keyedMutex
	unlockA := k.lock("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := k.lock("b")
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on another key blocked")
	}
}
