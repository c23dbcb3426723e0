package service_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desaismitha/Shered-sub002/internal/service"
)

func TestTripLocks_SerializesSameTrip(t *testing.T) {
	locks := service.NewTripLocks()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock(7)
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
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

	assert.Equal(t, 1, maxSeen, "two holders of the same trip lock at once")
	assert.Zero(t, locks.Len(), "idle locks are discarded")
}

func TestTripLocks_DifferentTripsDoNotContend(t *testing.T) {
	locks := service.NewTripLocks()
	unlockA := locks.Lock(1)
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := locks.Lock(2)
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		require.Fail(t, "lock on trip 2 blocked behind trip 1")
	}
	assert.Equal(t, 1, locks.Len())
}
