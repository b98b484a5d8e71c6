package syncutil_test

import (
	"sync"
	"testing"
	"time"

	"github.com/prilive-com/stickerforge/internal/syncutil"
	"github.com/stretchr/testify/assert"
)

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	var km syncutil.KeyedMutex
	var wg sync.WaitGroup
	counter := 0

	for i := 0; i < 50; i++ {
		syncutil.Go(&wg, func() {
			unlock := km.Lock("same")
			defer unlock()
			counter++ // data race here without the lock
		})
	}

	wg.Wait()
	assert.Equal(t, 50, counter)
}

func TestKeyedMutex_DistinctKeysProceedInParallel(t *testing.T) {
	var km syncutil.KeyedMutex

	unlockA := km.Lock("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := km.Lock("b")
		unlockB()
		close(done)
	}()

	select {
	case <-done:
		// "b" acquired while "a" is held
	case <-time.After(2 * time.Second):
		t.Fatal("lock on distinct key blocked")
	}
}

func TestKeyedMutex_ReacquireAfterUnlock(t *testing.T) {
	var km syncutil.KeyedMutex

	unlock := km.Lock("k")
	unlock()

	acquired := make(chan struct{})
	go func() {
		u := km.Lock("k")
		u()
		close(acquired)
	}()

	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatal("could not reacquire released key")
	}
}
