package resource

import (
	"fmt"
	"sync"

	"github.com/wippyai/gobject-runtime/gtype"
	"github.com/wippyai/gobject-runtime/object"
	"go.uber.org/multierr"
)

// Table maps integer handles to object instances for callers that cannot
// hold Go values, such as guest modules. Each live handle owns one
// reference to its instance.
type Table struct {
	store     *store
	observers []Observer
	obsMu     sync.RWMutex
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{store: newStore()}
}

// Insert adds a reference to o and returns its handle. It returns 0 for a
// nil handle or a closed table.
func (t *Table) Insert(o object.Object) Handle {
	if o.IsNil() {
		return 0
	}
	ref := o.Ref()
	h, err := t.store.create(ref)
	if err != nil {
		ref.Unref()
		return 0
	}
	t.notify(Event{Type: EventInserted, Handle: h, Object: ref})
	return h
}

// Get returns the instance behind h. The handle is borrowed from the table
// and stays valid until h is dropped.
func (t *Table) Get(h Handle) (object.Object, bool) {
	return t.store.get(h)
}

// GetTyped is Get restricted to instances of type typ.
func (t *Table) GetTyped(h Handle, typ gtype.Type) (object.Object, bool) {
	o, ok := t.store.get(h)
	if !ok || !o.IsA(typ) {
		return object.Object{}, false
	}
	return o, true
}

// Take removes h and transfers its reference to the caller.
func (t *Table) Take(h Handle) (object.Object, error) {
	o, err := t.store.remove(h)
	if err != nil {
		return object.Object{}, err
	}
	t.notify(Event{Type: EventTaken, Handle: h, Object: o})
	return o, nil
}

// Drop removes h and releases its reference. It fails while h is
// borrowed.
func (t *Table) Drop(h Handle) error {
	o, err := t.store.remove(h)
	if err != nil {
		return err
	}
	t.notify(Event{Type: EventDropped, Handle: h, Object: o})
	o.Unref()
	return nil
}

// Borrow pins h until ReturnBorrow. A borrowed handle cannot be dropped or
// taken.
func (t *Table) Borrow(h Handle) (object.Object, bool) {
	o, ok := t.store.borrow(h)
	if ok {
		t.notify(Event{Type: EventBorrowed, Handle: h, Object: o})
	}
	return o, ok
}

// ReturnBorrow releases one Borrow of h.
func (t *Table) ReturnBorrow(h Handle) bool {
	o, _ := t.store.get(h)
	if !t.store.returnBorrow(h) {
		return false
	}
	t.notify(Event{Type: EventBorrowReturned, Handle: h, Object: o})
	return true
}

// Subscribe adds an observer for lifecycle events.
func (t *Table) Subscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, o)
}

// Unsubscribe removes an observer.
func (t *Table) Unsubscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	for i, obs := range t.observers {
		if obs == o {
			t.observers = append(t.observers[:i], t.observers[i+1:]...)
			return
		}
	}
}

// Len returns the number of live handles.
func (t *Table) Len() int {
	return t.store.len()
}

// Each calls fn for every live handle until fn returns false. fn may
// modify the table.
func (t *Table) Each(fn func(Handle, object.Object) bool) {
	hs, objs := t.store.snapshot()
	for i, h := range hs {
		if !fn(h, objs[i]) {
			return
		}
	}
}

// Clear drops every handle that is not borrowed.
func (t *Table) Clear() {
	hs, _ := t.store.snapshot()
	for _, h := range hs {
		_ = t.Drop(h)
	}
}

// Close releases every reference and rejects further inserts. Handles
// still borrowed are released too; each is reported in the returned error.
func (t *Table) Close() error {
	live, ok := t.store.close()
	if !ok {
		return nil
	}
	var err error
	for _, e := range live {
		if e.borrows > 0 {
			err = multierr.Append(err, fmt.Errorf("%s: %w", e.obj, ErrOutstandingBorrow))
		}
		e.obj.Unref()
	}
	return err
}

func (t *Table) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnResourceEvent(e)
	}
}
