package resource

import (
	"github.com/wippyai/gobject-runtime/errors"
	"github.com/wippyai/gobject-runtime/object"
)

// Handle is an opaque reference to an instance in a table.
// Handle 0 is reserved and always invalid.
type Handle uint32

var (
	ErrClosed            = errors.New(errors.PhaseABI, errors.KindClosed).Detail("handle table closed").Build()
	ErrInvalidHandle     = errors.New(errors.PhaseABI, errors.KindInvalidArgument).Detail("invalid handle").Build()
	ErrOutstandingBorrow = errors.New(errors.PhaseABI, errors.KindFailed).Detail("handle has outstanding borrows").Build()
)

// Event types for handle lifecycle notifications.
type EventType uint8

const (
	EventInserted EventType = iota
	EventDropped
	EventTaken
	EventBorrowed
	EventBorrowReturned
)

func (t EventType) String() string {
	switch t {
	case EventInserted:
		return "inserted"
	case EventDropped:
		return "dropped"
	case EventTaken:
		return "taken"
	case EventBorrowed:
		return "borrowed"
	case EventBorrowReturned:
		return "borrow-returned"
	}
	return "unknown"
}

// Event describes a handle lifecycle change. Object is borrowed and only
// valid during the notification.
type Event struct {
	Object object.Object
	Handle Handle
	Type   EventType
}

// Observer receives notifications about handle lifecycle events.
type Observer interface {
	OnResourceEvent(Event)
}
