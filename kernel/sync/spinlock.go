// Package sync provides the spinlock used to guard short kernel critical
// sections.
package sync

import (
	"runtime"
	"sync/atomic"
)

// attemptsBeforeYielding bounds the number of busy-wait iterations performed
// by Acquire before it hands the CPU to another task.
const attemptsBeforeYielding = 64

var (
	// yieldFn is invoked by Acquire when the lock stays contended. It is
	// mocked by tests.
	yieldFn = runtime.Gosched
)

// Spinlock implements a lock where each task trying to acquire it busy-waits
// till the lock becomes available. The zero value is an unlocked, unnamed
// lock.
type Spinlock struct {
	state uint32
	name  string
}

// Init resets the lock to the released state and assigns it a name that is
// reported in diagnostics.
func (l *Spinlock) Init(name string) {
	l.name = name
	atomic.StoreUint32(&l.state, 0)
}

// Name returns the name assigned to the lock by Init.
func (l *Spinlock) Name() string {
	return l.name
}

// Acquire blocks until the lock can be acquired by the currently active task.
// Any attempt to re-acquire a lock already held by the current task will cause
// a deadlock.
func (l *Spinlock) Acquire() {
	for attempt := uint32(1); ; attempt++ {
		if atomic.LoadUint32(&l.state) == 0 && atomic.CompareAndSwapUint32(&l.state, 0, 1) {
			return
		}

		if attempt%attemptsBeforeYielding == 0 {
			yieldFn()
		}
	}
}

// TryToAcquire attempts to acquire the lock and returns true if the lock could
// be acquired or false otherwise.
func (l *Spinlock) TryToAcquire() bool {
	return atomic.SwapUint32(&l.state, 1) == 0
}

// Release relinquishes a held lock allowing other tasks to acquire it. Calling
// Release while the lock is free has no effect.
func (l *Spinlock) Release() {
	atomic.StoreUint32(&l.state, 0)
}
