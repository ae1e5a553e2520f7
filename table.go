package mediatype

// entry is one occupied table slot. A nil fn marks the slot empty; handlers
// are never nil, so no separate occupancy bit is needed.
type entry struct {
	hash uint64
	key  string
	fn   thunk
}

// table is an open-addressed, linear-probed handler index keyed by raw
// media-type bytes. Registration stores each key once as an owned string;
// lookups probe with borrowed views and do not allocate. There is no delete:
// registrations are permanent, so probe chains never break and no tombstones
// exist.
//
// The slot count is always a power of two so the hash maps to a slot with a
// mask instead of a modulo.
type table struct {
	entries []entry
	used    int
}

const minTableSize = 16

// insert stores fn under key. The first registration for a key wins: insert
// reports false and leaves the table untouched when the key is already
// present.
func (t *table) insert(key string, fn thunk) bool {
	if t.entries == nil {
		t.entries = make([]entry, minTableSize)
	}
	// Grow ahead of the probe so an occupied table keeps at least a quarter
	// of its slots empty and every probe chain terminates.
	if (t.used+1)*4 > len(t.entries)*3 {
		t.grow()
	}
	mask := uint64(len(t.entries) - 1)
	h := hashKey(key)
	for i := h & mask; ; i = (i + 1) & mask {
		e := &t.entries[i]
		if e.fn == nil {
			*e = entry{hash: h, key: key, fn: fn}
			t.used++
			return true
		}
		if e.hash == h && e.key == key {
			return false
		}
	}
}

// grow doubles the slot count and reinserts every occupied entry. Stored
// hashes are reused, so keys are not rehashed.
func (t *table) grow() {
	old := t.entries
	t.entries = make([]entry, len(old)*2)
	mask := uint64(len(t.entries) - 1)
	for i := range old {
		if old[i].fn == nil {
			continue
		}
		j := old[i].hash & mask
		for t.entries[j].fn != nil {
			j = (j + 1) & mask
		}
		t.entries[j] = old[i]
	}
}

// lookup finds the thunk stored under a borrowed label view. It is a free
// function rather than a method so it can be generic over the label
// spelling.
func lookup[K keyBytes](t *table, k K) (thunk, bool) {
	if t.entries == nil {
		return nil, false
	}
	mask := uint64(len(t.entries) - 1)
	h := hashKey(k)
	for i := h & mask; ; i = (i + 1) & mask {
		e := &t.entries[i]
		if e.fn == nil {
			return nil, false
		}
		if e.hash == h && keyEqual(k, e.key) {
			return e.fn, true
		}
	}
}

// keys returns every registered media type in table order. Order is a
// function of the hash layout, not registration order.
func (t *table) keys() []string {
	if t.used == 0 {
		return nil
	}
	out := make([]string, 0, t.used)
	for i := range t.entries {
		if t.entries[i].fn != nil {
			out = append(out, t.entries[i].key)
		}
	}
	return out
}
