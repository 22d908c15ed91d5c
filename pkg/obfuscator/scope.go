package obfuscator

import "strconv"

// Counter hands out synthetic names prefix1, prefix2, ... in order. Names in
// the taken set are skipped so a synthetic name never aliases an identifier
// that already exists in the file.
type Counter struct {
	prefix string
	next   int
	taken  map[string]struct{}
}

// NewCounter returns a counter starting at 1. taken may be nil.
func NewCounter(prefix string, taken map[string]struct{}) *Counter {
	return &Counter{prefix: prefix, next: 1, taken: taken}
}

// Next returns the next free synthetic name.
func (c *Counter) Next() string {
	for {
		name := c.prefix + strconv.Itoa(c.next)
		c.next++
		if _, used := c.taken[name]; !used {
			return name
		}
	}
}

// ScopeTable maps original parameter and local names to synthetic names for
// one method. The first declaration of a name wins: a later declaration of
// the same name, shadowing in an inner block included, reuses the mapping.
type ScopeTable struct {
	names map[string]string
	own   int
}

// NewScopeTable returns an empty table, or a copy of parent when parent is
// non-nil. Methods of local and anonymous classes inherit the enclosing
// method's bindings this way.
func NewScopeTable(parent *ScopeTable) *ScopeTable {
	s := &ScopeTable{names: make(map[string]string)}
	if parent != nil {
		for name, synthetic := range parent.names {
			s.names[name] = synthetic
		}
	}
	return s
}

// Bind returns the synthetic name for name, drawing a new one from next if
// name is not yet bound. The boolean reports whether a new binding was made.
func (s *ScopeTable) Bind(name string, next func() string) (string, bool) {
	if synthetic, ok := s.names[name]; ok {
		return synthetic, false
	}
	synthetic := next()
	s.names[name] = synthetic
	s.own++
	return synthetic, true
}

// Lookup returns the synthetic name bound to name.
func (s *ScopeTable) Lookup(name string) (string, bool) {
	synthetic, ok := s.names[name]
	return synthetic, ok
}

// Own returns the number of bindings made in this table rather than inherited.
func (s *ScopeTable) Own() int {
	return s.own
}
