package resource

import (
	"sync"

	"github.com/wippyai/gobject-runtime/object"
)

// store is the slot array behind a Table. Freed handles are reused.
type store struct {
	entries  []entry
	freeList []Handle
	mu       sync.RWMutex
	closed   bool
}

type entry struct {
	obj     object.Object
	borrows uint32
	valid   bool
}

func newStore() *store {
	return &store{
		entries:  make([]entry, 0, 64),
		freeList: make([]Handle, 0, 16),
	}
}

func (s *store) create(o object.Object) (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrClosed
	}
	e := entry{obj: o, valid: true}
	if len(s.freeList) > 0 {
		h := s.freeList[len(s.freeList)-1]
		s.freeList = s.freeList[:len(s.freeList)-1]
		s.entries[h-1] = e
		return h, nil
	}
	s.entries = append(s.entries, e)
	return Handle(len(s.entries)), nil
}

// at returns the live entry for h. Callers hold s.mu.
func (s *store) at(h Handle) *entry {
	if h == 0 || int(h) > len(s.entries) {
		return nil
	}
	e := &s.entries[h-1]
	if !e.valid {
		return nil
	}
	return e
}

func (s *store) get(h Handle) (object.Object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e := s.at(h)
	if e == nil {
		return object.Object{}, false
	}
	return e.obj, true
}

// remove invalidates h and returns its object, whose table reference
// passes to the caller.
func (s *store) remove(h Handle) (object.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.at(h)
	switch {
	case e == nil:
		return object.Object{}, ErrInvalidHandle
	case e.borrows > 0:
		return object.Object{}, ErrOutstandingBorrow
	}
	o := e.obj
	*e = entry{}
	s.freeList = append(s.freeList, h)
	return o, nil
}

func (s *store) borrow(h Handle) (object.Object, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.at(h)
	if e == nil {
		return object.Object{}, false
	}
	e.borrows++
	return e.obj, true
}

func (s *store) returnBorrow(h Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.at(h)
	if e == nil || e.borrows == 0 {
		return false
	}
	e.borrows--
	return true
}

func (s *store) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, e := range s.entries {
		if e.valid {
			n++
		}
	}
	return n
}

// snapshot returns the live handles in order.
func (s *store) snapshot() ([]Handle, []object.Object) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var hs []Handle
	var objs []object.Object
	for i, e := range s.entries {
		if e.valid {
			hs = append(hs, Handle(i+1))
			objs = append(objs, e.obj)
		}
	}
	return hs, objs
}

// close marks the store closed and hands back every live entry.
func (s *store) close() ([]entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, false
	}
	s.closed = true
	var live []entry
	for _, e := range s.entries {
		if e.valid {
			live = append(live, e)
		}
	}
	s.entries = nil
	s.freeList = nil
	return live, true
}
