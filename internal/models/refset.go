package models

import "sort"

// refSet is an unordered set of record IDs on one side of the client/contact link.
type refSet map[string]struct{}

func newRefSet(ids []string) refSet {
	s := make(refSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s refSet) has(id string) bool {
	_, ok := s[id]
	return ok
}

// add reports whether id was newly inserted.
func (s *refSet) add(id string) bool {
	if *s == nil {
		*s = make(refSet)
	}
	if s.has(id) {
		return false
	}
	(*s)[id] = struct{}{}
	return true
}

// remove reports whether id was present.
func (s refSet) remove(id string) bool {
	if !s.has(id) {
		return false
	}
	delete(s, id)
	return true
}

// sorted never returns nil so empty sets encode as [].
func (s refSet) sorted() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
