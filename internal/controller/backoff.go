package controller

import (
	"sync"
	"time"

	"k8s.io/apimachinery/pkg/types"
)

// fibMinutes is the shared Fibonacci backoff table (spec.md §3, §4.8):
// reconcile-error and spec-parse-error counters both walk this sequence,
// expressed in minutes and capped at maxBackoff.
var fibMinutes = []int{1, 1, 2, 3, 5, 8, 13, 21, 34, 55}

const maxBackoff = 60 * time.Minute

// fibDelay returns the requeue delay for the n-th consecutive error. n is
// 1-indexed; n<=0 is treated as 1. Past the table's length the delay stays
// pinned at the cap.
func fibDelay(n int) time.Duration {
	if n <= 0 {
		n = 1
	}
	idx := n - 1
	var minutes int
	if idx < len(fibMinutes) {
		minutes = fibMinutes[idx]
	} else {
		return maxBackoff
	}
	d := time.Duration(minutes) * time.Minute
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

// reconcileBackoff is the in-memory, process-wide counter for reconcile
// errors (spec.md §3 "Backoff state"). Reset on a successful reconcile;
// entries are never removed, bounded by cluster resource count.
type reconcileBackoff struct {
	mu    sync.Mutex
	count map[types.NamespacedName]int
}

func newReconcileBackoff() *reconcileBackoff {
	return &reconcileBackoff{count: make(map[types.NamespacedName]int)}
}

// recordFailure increments and returns the new error count for key.
func (b *reconcileBackoff) recordFailure(key types.NamespacedName) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.count[key]++
	return b.count[key]
}

// reset clears the error count for key after a successful reconcile.
func (b *reconcileBackoff) reset(key types.NamespacedName) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.count[key] = 0
}

// errorCount returns the current error count for key, 0 if none recorded.
func (b *reconcileBackoff) errorCount(key types.NamespacedName) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count[key]
}

// delay returns the current Fibonacci requeue delay for key.
func (b *reconcileBackoff) delay(key types.NamespacedName) time.Duration {
	return fibDelay(b.errorCount(key))
}

// gitMutexes lazily keys a mutex per (namespace, name), held across any Git
// clone/fetch/reset for that resource (spec.md §3 "Per-resource
// serialization lock").
type gitMutexes struct {
	mu    sync.Mutex
	locks map[types.NamespacedName]*sync.Mutex
}

func newGitMutexes() *gitMutexes {
	return &gitMutexes{locks: make(map[types.NamespacedName]*sync.Mutex)}
}

// For returns the mutex for key, creating it on first use.
func (g *gitMutexes) For(key types.NamespacedName) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()
	m, ok := g.locks[key]
	if !ok {
		m = &sync.Mutex{}
		g.locks[key] = m
	}
	return m
}
