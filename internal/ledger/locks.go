package ledger

import (
	"sort"
	"sync"
)

// keyedLocks hands out one mutex per key and drops it once no caller
// holds or waits on it.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

type refLock struct {
	sync.Mutex
	refs int
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{locks: make(map[string]*refLock)}
}

func (k *keyedLocks) acquire(key string) *refLock {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &refLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return l
}

func (k *keyedLocks) release(key string, l *refLock) {
	l.Unlock()

	k.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(k.locks, key)
	}
	k.mu.Unlock()
}

// lock acquires every key in sorted order and returns the release func.
// Duplicate keys are locked once.
func (k *keyedLocks) lock(keys ...string) func() {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)

	type held struct {
		key string
		l   *refLock
	}
	var acquired []held
	for i, key := range sorted {
		if i > 0 && key == sorted[i-1] {
			continue
		}
		acquired = append(acquired, held{key, k.acquire(key)})
	}

	return func() {
		for i := len(acquired) - 1; i >= 0; i-- {
			k.release(acquired[i].key, acquired[i].l)
		}
	}
}

func (k *keyedLocks) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
