package pool

import "container/list"

// entryList is an LRU-ordered collection of idle entries: front is the
// most-recently-released entry, back is the least-recently-used — the
// eviction victim. container/list already is the intrusive doubly-linked
// list the design calls for, so it's used directly rather than reimplemented;
// the element index below is what turns it into O(1) remove-by-entry.
type entryList[R comparable, C Connection] struct {
	l     *list.List
	elems map[uint64]*list.Element
}

func newEntryList[R comparable, C Connection]() *entryList[R, C] {
	return &entryList[R, C]{
		l:     list.New(),
		elems: make(map[uint64]*list.Element),
	}
}

// PushFront inserts e as the most-recently-released entry.
func (s *entryList[R, C]) PushFront(e *Entry[R, C]) {
	if _, ok := s.elems[e.id]; ok {
		return
	}
	s.elems[e.id] = s.l.PushFront(e)
}

// Remove drops e from the list; no-op if e isn't present.
func (s *entryList[R, C]) Remove(e *Entry[R, C]) {
	el, ok := s.elems[e.id]
	if !ok {
		return
	}
	s.l.Remove(el)
	delete(s.elems, e.id)
}

// Back returns the least-recently-used entry, or nil if the list is empty.
func (s *entryList[R, C]) Back() *Entry[R, C] {
	el := s.l.Back()
	if el == nil {
		return nil
	}
	return el.Value.(*Entry[R, C])
}

// Len returns the number of idle entries held.
func (s *entryList[R, C]) Len() int { return s.l.Len() }

// Each iterates front (MRU) to back (LRU), stopping early if fn returns false.
func (s *entryList[R, C]) Each(fn func(*Entry[R, C]) bool) {
	for el := s.l.Front(); el != nil; {
		next := el.Next()
		if !fn(el.Value.(*Entry[R, C])) {
			return
		}
		el = next
	}
}
