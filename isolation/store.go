package isolation

// Lifetime tags a stored value.
type Lifetime uint8

const (
	// Transient values are recomputed every bar.
	Transient Lifetime = iota
	// Persistent values survive from bar to bar until a full reset.
	Persistent
)

func (l Lifetime) String() string {
	if l == Persistent {
		return "persistent"
	}
	return "transient"
}

type entry struct {
	set bool
	tag Lifetime
	val any
}

// Store holds the values of one script instance. A Store must never be
// shared between two scripts.
type Store struct {
	slots []entry
}

// NewStore returns a store with room for n sites. The store grows on demand
// if a larger id is used.
func NewStore(n int) *Store {
	return &Store{slots: make([]entry, n)}
}

// Reset forgets every value.
func (s *Store) Reset() {
	for i := range s.slots {
		s.slots[i] = entry{}
	}
}

// ResetStep forgets transient values only.
func (s *Store) ResetStep() {
	for i := range s.slots {
		if s.slots[i].set && s.slots[i].tag == Transient {
			s.slots[i] = entry{}
		}
	}
}

// GetOrInit returns the value stored for id, calling factory once to create
// it when the site is empty.
func (s *Store) GetOrInit(id SiteID, tag Lifetime, factory func() any) any {
	if id < 0 {
		panic("isolation: use of undeclared site")
	}
	if int(id) >= len(s.slots) {
		grown := make([]entry, int(id)+1)
		copy(grown, s.slots)
		s.slots = grown
	}
	e := &s.slots[id]
	if !e.set {
		e.val = factory()
		e.tag = tag
		e.set = true
	}
	return e.val
}

// Len returns the number of occupied sites.
func (s *Store) Len() int {
	n := 0
	for _, e := range s.slots {
		if e.set {
			n++
		}
	}
	return n
}
