package ledger

import (
	"sort"
	"sync"
)

// keyedMutex holds one mutex per currency id.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func (k *keyedMutex) get(id uint) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.locks == nil {
		k.locks = make(map[uint]*sync.Mutex)
	}
	m, ok := k.locks[id]
	if !ok {
		m = &sync.Mutex{}
		k.locks[id] = m
	}
	return m
}

// lock acquires the mutexes of ids in ascending order and returns the
// matching unlock. Duplicates are locked once.
func (k *keyedMutex) lock(ids ...uint) func() {
	uniq := make([]uint, 0, len(ids))
	seen := make(map[uint]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			uniq = append(uniq, id)
		}
	}
	sort.Slice(uniq, func(i, j int) bool { return uniq[i] < uniq[j] })

	held := make([]*sync.Mutex, 0, len(uniq))
	for _, id := range uniq {
		m := k.get(id)
		m.Lock()
		held = append(held, m)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}
