package service

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// Interval for cleaning up stale mutexes
	lockCleanupInterval = 10 * time.Minute

	// How long a mutex must be unused before cleanup
	lockStaleThreshold = 10 * time.Minute
)

// DentistLocker serializes the check-then-write sequence of bookings per dentist
// inside this process. The row lock taken in the database covers other processes.
type DentistLocker struct {
	log *logrus.Logger

	locks sync.Map // map[uint]*mutexWithTimestamp

	staleAfter time.Duration
	stopChan   chan struct{}
	wg         sync.WaitGroup
	stopped    atomic.Bool
}

// mutexWithTimestamp tracks mutex usage for cleanup
type mutexWithTimestamp struct {
	mu       sync.Mutex
	lastUsed atomic.Int64 // Unix nanoseconds
}

// NewDentistLocker starts the background cleanup goroutine. Call Stop() during shutdown.
func NewDentistLocker(log *logrus.Logger) *DentistLocker {
	return newDentistLocker(log, lockCleanupInterval, lockStaleThreshold)
}

func newDentistLocker(log *logrus.Logger, interval, staleAfter time.Duration) *DentistLocker {
	l := &DentistLocker{
		log:        log,
		staleAfter: staleAfter,
		stopChan:   make(chan struct{}),
	}

	l.wg.Add(1)
	go l.cleanupLoop(interval)

	return l
}

// Lock blocks until the dentist's mutex is held and returns the unlock function.
func (l *DentistLocker) Lock(dentistID uint) func() {
	for {
		value, _ := l.locks.LoadOrStore(dentistID, &mutexWithTimestamp{})
		mt := value.(*mutexWithTimestamp)
		mt.mu.Lock()

		// The sweeper may have dropped this mutex between LoadOrStore and Lock.
		if current, ok := l.locks.Load(dentistID); ok && current == mt {
			mt.lastUsed.Store(time.Now().UnixNano())
			return func() {
				mt.lastUsed.Store(time.Now().UnixNano())
				mt.mu.Unlock()
			}
		}
		mt.mu.Unlock()
	}
}

// Stop gracefully shuts down the cleanup goroutine.
// Safe to call multiple times.
func (l *DentistLocker) Stop() {
	if l.stopped.CompareAndSwap(false, true) {
		close(l.stopChan)
		l.wg.Wait()
		l.log.Info("DentistLocker stopped")
	}
}

func (l *DentistLocker) cleanupLoop(interval time.Duration) {
	defer l.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopChan:
			l.log.Debug("Dentist lock cleanup goroutine stopping")
			return
		case <-ticker.C:
			l.cleanupStale()
		}
	}
}

// cleanupStale removes unused mutexes; TryLock skips any that are held.
func (l *DentistLocker) cleanupStale() int {
	cutoff := time.Now().Add(-l.staleAfter).UnixNano()
	var cleaned int

	l.locks.Range(func(key, value any) bool {
		mt, ok := value.(*mutexWithTimestamp)
		if !ok {
			return true
		}

		if mt.mu.TryLock() {
			if mt.lastUsed.Load() < cutoff {
				l.locks.Delete(key)
				cleaned++
			}
			mt.mu.Unlock()
		}
		return true
	})

	if cleaned > 0 {
		l.log.Debugf("Cleaned up %d stale dentist locks", cleaned)
	}
	return cleaned
}
