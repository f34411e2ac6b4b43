package resource

import (
	"testing"

	"github.com/wippyai/gobject-runtime/errors"
	"github.com/wippyai/gobject-runtime/object"
)

type testObserver struct {
	events []Event
}

func (o *testObserver) OnResourceEvent(e Event) {
	o.events = append(o.events, e)
}

func TestTable_Basic(t *testing.T) {
	table := NewTable()
	obj := object.MustNew(object.Type())
	defer obj.Unref()

	h := table.Insert(obj)
	if h == 0 {
		t.Fatal("Expected non-zero handle")
	}
	if obj.RefCount() != 2 {
		t.Fatalf("Expected table to hold a reference, RefCount = %d", obj.RefCount())
	}

	got, ok := table.Get(h)
	if !ok || !got.Equal(obj) {
		t.Fatal("Get failed")
	}
	if _, ok := table.GetTyped(h, object.Type()); !ok {
		t.Fatal("GetTyped with correct type failed")
	}
	if _, ok := table.GetTyped(h, object.InitiallyUnownedType()); ok {
		t.Fatal("GetTyped with wrong type should fail")
	}

	if err := table.Drop(h); err != nil {
		t.Fatalf("Drop failed: %v", err)
	}
	if obj.RefCount() != 1 {
		t.Fatalf("Expected Drop to release the reference, RefCount = %d", obj.RefCount())
	}
	if table.Len() != 0 {
		t.Fatal("Expected Len() == 0 after Drop")
	}
	if err := table.Drop(h); !errors.IsKind(err, errors.KindInvalidArgument) {
		t.Fatalf("Expected invalid handle, got %v", err)
	}
}

func TestTable_Take(t *testing.T) {
	table := NewTable()
	obj := object.MustNew(object.Type())
	h := table.Insert(obj)
	obj.Unref()

	owned, err := table.Take(h)
	if err != nil {
		t.Fatalf("Take failed: %v", err)
	}
	if owned.RefCount() != 1 {
		t.Fatalf("Expected the caller to own the only reference, RefCount = %d", owned.RefCount())
	}
	if _, ok := table.Get(h); ok {
		t.Fatal("Handle should be gone after Take")
	}
	owned.Unref()
}

func TestTable_Observer(t *testing.T) {
	table := NewTable()
	obs := &testObserver{}
	table.Subscribe(obs)
	obj := object.MustNew(object.Type())
	defer obj.Unref()

	h := table.Insert(obj)
	table.Borrow(h)
	table.ReturnBorrow(h)
	_ = table.Drop(h)

	want := []EventType{EventInserted, EventBorrowed, EventBorrowReturned, EventDropped}
	if len(obs.events) != len(want) {
		t.Fatalf("Expected %d events, got %d", len(want), len(obs.events))
	}
	for i, e := range obs.events {
		if e.Type != want[i] || e.Handle != h {
			t.Errorf("event %d = %s/%d, want %s/%d", i, e.Type, e.Handle, want[i], h)
		}
	}

	table.Unsubscribe(obs)
	table.Insert(obj)
	if len(obs.events) != len(want) {
		t.Fatal("Unsubscribed observer should not receive events")
	}
	if err := table.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestTable_BorrowBlocksDrop(t *testing.T) {
	table := NewTable()
	obj := object.MustNew(object.Type())
	defer obj.Unref()
	h := table.Insert(obj)

	if _, ok := table.Borrow(h); !ok {
		t.Fatal("Borrow failed")
	}
	if err := table.Drop(h); !errors.Is(err, ErrOutstandingBorrow) {
		t.Fatalf("Expected outstanding borrow, got %v", err)
	}
	if _, err := table.Take(h); err == nil {
		t.Fatal("Take of a borrowed handle should fail")
	}
	if !table.ReturnBorrow(h) {
		t.Fatal("ReturnBorrow failed")
	}
	if table.ReturnBorrow(h) {
		t.Fatal("ReturnBorrow without Borrow should fail")
	}
	if err := table.Drop(h); err != nil {
		t.Fatalf("Drop failed: %v", err)
	}
}

func TestTable_HandleReuse(t *testing.T) {
	table := NewTable()
	obj := object.MustNew(object.Type())
	defer obj.Unref()

	h1 := table.Insert(obj)
	h2 := table.Insert(obj)
	if h1 == h2 {
		t.Fatal("Handles should be distinct")
	}
	_ = table.Drop(h1)
	if h3 := table.Insert(obj); h3 != h1 {
		t.Fatalf("Expected freed handle %d to be reused, got %d", h1, h3)
	}
	if table.Len() != 2 {
		t.Fatalf("Expected Len() == 2, got %d", table.Len())
	}

	var seen int
	table.Each(func(Handle, object.Object) bool {
		seen++
		return false
	})
	if seen != 1 {
		t.Fatal("Each should stop when fn returns false")
	}

	table.Clear()
	if table.Len() != 0 || obj.RefCount() != 1 {
		t.Fatalf("Clear left Len() = %d, RefCount = %d", table.Len(), obj.RefCount())
	}
}

func TestTable_Close(t *testing.T) {
	table := NewTable()
	obj := object.MustNew(object.Type())
	defer obj.Unref()

	table.Insert(obj)
	h := table.Insert(obj)
	table.Borrow(h)

	err := table.Close()
	if !errors.Is(err, ErrOutstandingBorrow) {
		t.Fatalf("Expected Close to report the borrowed handle, got %v", err)
	}
	if obj.RefCount() != 1 {
		t.Fatalf("Close should release every reference, RefCount = %d", obj.RefCount())
	}
	if table.Insert(obj) != 0 {
		t.Fatal("Insert after Close should fail")
	}
	if obj.RefCount() != 1 {
		t.Fatal("Failed Insert must not leak a reference")
	}
	if err := table.Close(); err != nil {
		t.Fatalf("Second Close should be a no-op, got %v", err)
	}
}

func TestTable_NilObject(t *testing.T) {
	if NewTable().Insert(object.Object{}) != 0 {
		t.Fatal("Insert of a nil handle should fail")
	}
}
