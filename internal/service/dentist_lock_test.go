package service

import (
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestDentistLocker_SerializesSameDentist(t *testing.T) {
	locker := NewDentistLocker(quietLogger())
	defer locker.Stop()

	var inside, maxInside atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locker.Lock(1)
			n := inside.Add(1)
			for {
				m := maxInside.Load()
				if n <= m || maxInside.CompareAndSwap(m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside.Load())
}

func TestDentistLocker_IndependentDentists(t *testing.T) {
	locker := NewDentistLocker(quietLogger())
	defer locker.Stop()

	unlock := locker.Lock(1)
	defer unlock()

	done := make(chan struct{})
	go func() {
		locker.Lock(2)()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on another dentist should not block")
	}
}

func TestDentistLocker_CleanupStale(t *testing.T) {
	locker := newDentistLocker(quietLogger(), time.Hour, time.Nanosecond)
	defer locker.Stop()

	locker.Lock(1)()
	held := locker.Lock(2)
	time.Sleep(time.Millisecond)

	assert.Equal(t, 1, locker.cleanupStale(), "only the released lock is removed")
	held()

	// Locking again after cleanup still works.
	locker.Lock(1)()
}

func TestDentistLocker_StopTwice(t *testing.T) {
	locker := NewDentistLocker(quietLogger())
	locker.Stop()
	assert.NotPanics(t, locker.Stop)
}
