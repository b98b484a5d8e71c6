// Package syncutil provides synchronization utilities for stickerforge.
//
// This package provides helper functions that complement the standard sync package,
// offering cleaner APIs for common concurrency patterns.
//
// # WaitGroup Helper
//
// The Go function provides a cleaner way to spawn goroutines tracked by a WaitGroup:
//
//	var wg sync.WaitGroup
//	syncutil.Go(&wg, func() {
//	    // work
//	})
//	wg.Wait()
//
// This is equivalent to:
//
//	var wg sync.WaitGroup
//	wg.Add(1)
//	go func() {
//	    defer wg.Done()
//	    // work
//	}()
//	wg.Wait()
//
// # Keyed Mutual Exclusion
//
// KeyedMutex serializes work per key while letting unrelated keys proceed
// in parallel. The pack registry uses it so concurrent adds against the
// same pack serialize but different packs never contend:
//
//	var km syncutil.KeyedMutex
//	unlock := km.Lock("42/cats")
//	defer unlock()
package syncutil
