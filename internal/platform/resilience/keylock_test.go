package resilience

import (
	"sync"
	"testing"
)

func TestKeyLock_SerializesSameKey(t *testing.T) {
	var l KeyLock
	var mu sync.Mutex
	active := 0
	maxActive := 0

	const workers = 16
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			release := l.Lock("grp-1:3")
			defer release()

			mu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			mu.Unlock()

			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()

	if maxActive != 1 {
		t.Fatalf("expected one holder at a time, saw %d", maxActive)
	}
}

func TestKeyLock_DistinctKeysDoNotBlock(t *testing.T) {
	var l KeyLock

	releaseA := l.Lock("grp-1:1")
	defer releaseA()

	done := make(chan struct{})
	go func() {
		release := l.Lock("grp-1:2")
		release()
		close(done)
	}()

	<-done
}

func TestKeyLock_ReleaseAllowsReacquire(t *testing.T) {
	var l KeyLock

	release := l.Lock("k")
	release()

	release = l.Lock("k")
	release()
}
