// Package index implements the in-memory Robin-Hood hash table that holds
// the authoritative key/value state: a 32-bit integer key mapped to an owned
// opaque byte blob. It knows nothing about the AOF or RDB on-disk formats;
// the persistence layer drives it through Save/Get/Remove/Iterate.
package index

import "sync"

type slotState uint8

const (
	empty slotState = iota
	occupied
	deleted
)

const (
	initialCapacity = 16
	maxLoadFactor   = 0.7
)

// Index is an open-addressed Robin-Hood hash table from int32 key to an
// owned []byte value. Capacity is always a power of two.
type Index struct {
	mu sync.RWMutex

	states []slotState
	keys   []int32
	values [][]byte

	size     int // live (occupied) entry count
	capacity int
	mask     uint32

	rehashes int // number of capacity-doubling rehashes performed, for metrics
}

// New creates an empty index with the default initial capacity.
func New() *Index {
	return newWithCapacity(initialCapacity)
}

func newWithCapacity(capacity int) *Index {
	return &Index{
		states:   make([]slotState, capacity),
		keys:     make([]int32, capacity),
		values:   make([][]byte, capacity),
		capacity: capacity,
		mask:     uint32(capacity - 1),
	}
}

// mix is a reversible 32-bit integer hash: xor-shift plus odd multiplies
// (the Murmur3 finalizer). Reversibility isn't exploited here, but it gives
// good avalanche behavior for sequential integer keys, which is the common
// case for this engine's IDs.
func mix(key int32) uint32 {
	h := uint32(key)
	h ^= h >> 16
	h *= 0x85ebca6b
	h ^= h >> 13
	h *= 0xc2b2ae35
	h ^= h >> 16
	return h
}

func (idx *Index) slotFor(key int32) uint32 {
	return mix(key) & idx.mask
}

// probeDistance returns how far slot i is from its ideal (hashed) slot for
// the key stored there, accounting for wraparound.
func (idx *Index) probeDistance(i uint32, key int32) uint32 {
	ideal := idx.slotFor(key)
	if i >= ideal {
		return i - ideal
	}
	return uint32(idx.capacity) - ideal + i
}

// Save is an idempotent upsert: bytes is copied into an owned buffer. If the
// load factor would exceed 0.7 after the insert, the table is rehashed to
// double capacity first.
func (idx *Index) Save(key int32, value []byte) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if float64(idx.size+1)/float64(idx.capacity) > maxLoadFactor {
		idx.rehash()
	}

	owned := make([]byte, len(value))
	copy(owned, value)

	if pos, found := idx.find(key); found {
		idx.values[pos] = owned
		return
	}
	idx.insert(key, owned)
}

// insert performs the Robin-Hood probe-and-displace walk. Callers must hold
// idx.mu and have already ensured headroom via rehash.
func (idx *Index) insert(key int32, value []byte) {
	pos := idx.slotFor(key)
	dist := uint32(0)

	for {
		switch idx.states[pos] {
		case empty:
			idx.states[pos] = occupied
			idx.keys[pos] = key
			idx.values[pos] = value
			idx.size++
			return

		case deleted:
			// Tombstones are fair game for a fresh insert: Save has already
			// looked the key up with find and only reaches insert when it is
			// absent, so filling this hole can't leave a second live copy
			// further down the probe chain.
			idx.states[pos] = occupied
			idx.keys[pos] = key
			idx.values[pos] = value
			idx.size++
			return

		case occupied:
			if idx.keys[pos] == key {
				// Key equality short-circuits to in-place overwrite.
				idx.values[pos] = value
				return
			}
			incumbentDist := idx.probeDistance(pos, idx.keys[pos])
			if dist > incumbentDist {
				// Swap: the richer (shorter-distance) incumbent yields its
				// slot to the poorer (longer-distance) newcomer, and probing
				// continues for the displaced incumbent.
				key, idx.keys[pos] = idx.keys[pos], key
				value, idx.values[pos] = idx.values[pos], value
				dist = incumbentDist
			}
		}

		pos = (pos + 1) & idx.mask
		dist++
	}
}

// Get returns the stored value and true if key is present.
func (idx *Index) Get(key int32) ([]byte, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	pos, found := idx.find(key)
	if !found {
		return nil, false
	}
	return idx.values[pos], true
}

// find probes from key's ideal slot, stopping at the first Empty slot.
// Callers must hold idx.mu (read or write).
func (idx *Index) find(key int32) (uint32, bool) {
	pos := idx.slotFor(key)
	dist := uint32(0)

	for {
		switch idx.states[pos] {
		case empty:
			return 0, false
		case occupied:
			if idx.keys[pos] == key {
				return pos, true
			}
		}
		pos = (pos + 1) & idx.mask
		dist++
		if dist >= uint32(idx.capacity) {
			return 0, false
		}
	}
}

// Remove deletes key if present, tombstoning its slot, and reports whether
// it was found.
func (idx *Index) Remove(key int32) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	pos, found := idx.find(key)
	if !found {
		return false
	}
	idx.states[pos] = deleted
	idx.values[pos] = nil
	idx.size--
	return true
}

// Iterate visits every live (Occupied) entry exactly once, in capacity
// (bucket) order. Order is not stable across rehashes. fn must not call
// back into the index.
func (idx *Index) Iterate(fn func(key int32, value []byte)) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	for i, state := range idx.states {
		if state == occupied {
			fn(idx.keys[i], idx.values[i])
		}
	}
}

// Len returns the number of live keys.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.size
}

// Capacity returns the current bucket count.
func (idx *Index) Capacity() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.capacity
}

// Rehashes returns the number of capacity-doubling rehash events performed
// over the index's lifetime, for metrics.
func (idx *Index) Rehashes() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.rehashes
}

// rehash copies every Occupied entry into a fresh table of double capacity
// and releases the old arrays. Callers must hold idx.mu.
func (idx *Index) rehash() {
	old := idx
	fresh := newWithCapacity(old.capacity * 2)

	for i, state := range old.states {
		if state == occupied {
			fresh.insert(old.keys[i], old.values[i])
		}
	}

	idx.states = fresh.states
	idx.keys = fresh.keys
	idx.values = fresh.values
	idx.capacity = fresh.capacity
	idx.mask = fresh.mask
	idx.size = fresh.size
	idx.rehashes++
}

// Clone returns a point-in-time deep copy of the index: every live key and
// an independent copy of its owned buffer. Used by the snapshot engine to
// get a consistent view to stream to disk without holding the index lock
// for the duration of the dump.
func (idx *Index) Clone() *Index {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	clone := newWithCapacity(idx.capacity)
	copy(clone.states, idx.states)
	copy(clone.keys, idx.keys)
	for i, v := range idx.values {
		if v != nil {
			cp := make([]byte, len(v))
			copy(cp, v)
			clone.values[i] = cp
		}
	}
	clone.size = idx.size
	return clone
}
