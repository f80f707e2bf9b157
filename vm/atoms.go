package vm

import "sync"

// ---------------------------------------------------------------------------
// AtomTable: Interned strings
// ---------------------------------------------------------------------------

// AtomTable interns strings to unique IDs. Atoms are immutable, unique
// strings used for identifiers, property names, and string constants.
// Atom 0 is reserved for the empty string so that a zero NameAtom on a
// function means "anonymous".
type AtomTable struct {
	mu     sync.RWMutex
	byName map[string]uint32 // name -> ID
	byID   []string          // ID -> name
}

// NewAtomTable creates a new atom table with the reserved empty atom.
func NewAtomTable() *AtomTable {
	t := &AtomTable{
		byName: make(map[string]uint32),
		byID:   make([]string, 0, 256),
	}
	t.byName[""] = 0
	t.byID = append(t.byID, "")
	return t
}

// Intern returns the ID for a string, creating a new atom if needed.
func (t *AtomTable) Intern(name string) uint32 {
	// Fast path: read-only lookup
	t.mu.RLock()
	if id, ok := t.byName[name]; ok {
		t.mu.RUnlock()
		return id
	}
	t.mu.RUnlock()

	// Slow path: need to add a new atom
	t.mu.Lock()
	defer t.mu.Unlock()

	// Double-check after acquiring write lock
	if id, ok := t.byName[name]; ok {
		return id
	}

	id := uint32(len(t.byID))
	t.byName[name] = id
	t.byID = append(t.byID, name)
	return id
}

// Lookup returns the ID for a string, or 0 and false if not interned.
func (t *AtomTable) Lookup(name string) (uint32, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	id, ok := t.byName[name]
	return id, ok
}

// Name returns the string for an atom ID, or "" if invalid.
func (t *AtomTable) Name(id uint32) string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if int(id) >= len(t.byID) {
		return ""
	}
	return t.byID[id]
}

// Len returns the number of interned atoms, including the reserved
// empty atom.
func (t *AtomTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byID)
}

// Each calls fn for every atom in the table's native order (ID order).
// The table must not be mutated from within fn.
func (t *AtomTable) Each(fn func(id uint32, name string)) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for id, name := range t.byID {
		fn(uint32(id), name)
	}
}
