package resolver

// Set is an insertion-ordered set of module names. The first insertion of a
// name wins; later insertions are ignored.
type Set struct {
	names []string
	index map[string]struct{}
}

// NewSet creates a set holding names in the given order.
func NewSet(names ...string) *Set {
	s := &Set{index: make(map[string]struct{}, len(names))}
	for _, n := range names {
		s.Add(n)
	}
	return s
}

// Add inserts name and reports whether it was not already present.
func (s *Set) Add(name string) bool {
	if _, ok := s.index[name]; ok {
		return false
	}
	s.index[name] = struct{}{}
	s.names = append(s.names, name)
	return true
}

// Has reports membership.
func (s *Set) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Names returns a copy of the members in insertion order.
func (s *Set) Names() []string {
	return append([]string(nil), s.names...)
}

// Len returns the number of members.
func (s *Set) Len() int {
	return len(s.names)
}
