package isolation

// Slot is a typed handle on one declared site. Get returns a pointer to the
// stored value so script code can update it in place.
type Slot[T any] struct {
	id   SiteID
	tag  Lifetime
	init func() T
}

// Var declares a persistent site. init supplies the value used on the first
// bar of a run (and again after a full reset).
func Var[T any](s *Sites, name string, init func() T) Slot[T] {
	return declare(s, name, Persistent, init)
}

// Local declares a transient site that starts from init on every bar.
func Local[T any](s *Sites, name string, init func() T) Slot[T] {
	return declare(s, name, Transient, init)
}

func declare[T any](s *Sites, name string, tag Lifetime, init func() T) Slot[T] {
	id, _ := s.Declare(name)
	if init == nil {
		init = func() T {
			var zero T
			return zero
		}
	}
	return Slot[T]{id: id, tag: tag, init: init}
}

// ID returns the site id.
func (s Slot[T]) ID() SiteID { return s.id }

// Get returns the live value for this site in st.
func (s Slot[T]) Get(st *Store) *T {
	v := st.GetOrInit(s.id, s.tag, func() any {
		x := s.init()
		return &x
	})
	return v.(*T)
}
