package signal

import (
	"fmt"
	"strings"
	"sync"

	"github.com/wippyai/gobject-runtime/errors"
	"github.com/wippyai/gobject-runtime/gtype"
	"github.com/wippyai/gobject-runtime/param"
	"github.com/wippyai/gobject-runtime/value"
	"go.uber.org/zap"
)

// ID identifies a registered signal. Zero is never valid.
type ID uint32

// Flags select the class handler stage and dispatch options.
type Flags uint32

const (
	FlagRunFirst Flags = 1 << iota
	FlagRunLast
	FlagRunCleanup
	FlagNoRecurse
	FlagDetailed
	FlagAction
	FlagDeprecated
)

// Has reports whether all bits of f2 are set.
func (f Flags) Has(f2 Flags) bool {
	return f&f2 == f2
}

// Handler is a connected callback or class handler. It returns the zero
// Value when it produces no result.
type Handler func(e *Emission) value.Value

// Accumulator folds each handler result into acc and reports whether the
// emission continues.
type Accumulator func(e *Emission, acc *value.Value, ret value.Value) bool

// Query describes a registered signal.
type Query struct {
	classHandler Handler
	accumulator  Accumulator
	Name         string
	Params       []gtype.Type
	ID           ID
	Owner        gtype.Type
	Return       gtype.Type
	Flags        Flags
}

// HasReturn reports whether the signal declares a return type.
func (q *Query) HasReturn() bool {
	return q.Return != gtype.None && q.Return != gtype.Invalid
}

// Builder collects the definition of a signal before registration.
type Builder struct {
	classHandler Handler
	accumulator  Accumulator
	name         string
	params       []gtype.Type
	ret          gtype.Type
	flags        Flags
}

// NewBuilder starts a signal definition with no parameters and no return value.
func NewBuilder(name string) *Builder {
	return &Builder{name: name, ret: gtype.None}
}

// Name returns the signal name as given.
func (b *Builder) Name() string {
	return b.name
}

// Params sets the parameter types, excluding the emitting instance.
func (b *Builder) Params(types ...gtype.Type) *Builder {
	b.params = append([]gtype.Type(nil), types...)
	return b
}

// Returns sets the return type.
func (b *Builder) Returns(t gtype.Type) *Builder {
	b.ret = t
	return b
}

// Flags adds dispatch flags.
func (b *Builder) Flags(f Flags) *Builder {
	b.flags |= f
	return b
}

func (b *Builder) RunFirst() *Builder   { return b.Flags(FlagRunFirst) }
func (b *Builder) RunLast() *Builder    { return b.Flags(FlagRunLast) }
func (b *Builder) RunCleanup() *Builder { return b.Flags(FlagRunCleanup) }
func (b *Builder) Detailed() *Builder   { return b.Flags(FlagDetailed) }
func (b *Builder) NoRecurse() *Builder  { return b.Flags(FlagNoRecurse) }
func (b *Builder) Action() *Builder     { return b.Flags(FlagAction) }

// ClassHandler sets the default handler run at the stage chosen by the
// RunFirst, RunLast or RunCleanup flag.
func (b *Builder) ClassHandler(h Handler) *Builder {
	b.classHandler = h
	return b
}

// Accumulator sets the function combining handler results.
func (b *Builder) Accumulator(a Accumulator) *Builder {
	b.accumulator = a
	return b
}

type ownerName struct {
	name  string
	owner gtype.Type
}

type registry struct {
	byName  map[ownerName]ID
	signals []*Query
	mu      sync.RWMutex
}

var (
	reg     *registry
	regOnce sync.Once
)

func registryInstance() *registry {
	regOnce.Do(func() {
		reg = &registry{
			byName:  make(map[ownerName]ID),
			signals: make([]*Query, 1, 32),
		}
	})
	return reg
}

func (b *Builder) check(owner gtype.Type) (string, error) {
	name := param.Canonicalize(b.name)
	if !param.ValidName(name) {
		return "", errors.Registration("signal", b.name, fmt.Errorf("invalid signal name"))
	}
	if !owner.IsA(gtype.Object) && !owner.IsInterface() {
		return "", errors.Registration("signal", name, fmt.Errorf("%s can not own signals", owner))
	}
	for i, p := range b.params {
		if !p.IsValid() || p == gtype.None {
			return "", errors.Registration("signal", name, fmt.Errorf("parameter %d has invalid type", i))
		}
	}
	if !b.ret.IsValid() {
		return "", errors.Registration("signal", name, fmt.Errorf("invalid return type"))
	}
	if b.accumulator != nil && b.ret == gtype.None {
		return "", errors.Registration("signal", name, fmt.Errorf("accumulator requires a return type"))
	}
	return name, nil
}

func (r *registry) clash(owner gtype.Type, name string) error {
	if _, dup := r.byName[ownerName{owner: owner, name: name}]; dup {
		return errors.Registration("signal", name, fmt.Errorf("already registered on %s", owner))
	}
	for _, anc := range owner.Ancestors() {
		if anc == owner {
			continue
		}
		if _, clash := r.byName[ownerName{owner: anc, name: name}]; clash {
			return errors.Registration("signal", name, fmt.Errorf("already registered on ancestor %s", anc))
		}
	}
	return nil
}

// Validate reports the error Register would return for b on owner, without
// installing anything.
func Validate(owner gtype.Type, b *Builder) error {
	name, err := b.check(owner)
	if err != nil {
		return err
	}
	r := registryInstance()
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.clash(owner, name)
}

// Register installs the signal described by b on owner, a class or interface.
func Register(owner gtype.Type, b *Builder) (ID, error) {
	name, err := b.check(owner)
	if err != nil {
		return 0, err
	}

	flags := b.flags
	if flags&(FlagRunFirst|FlagRunLast|FlagRunCleanup) == 0 {
		flags |= FlagRunLast
	}

	r := registryInstance()
	r.mu.Lock()
	defer r.mu.Unlock()

	key := ownerName{owner: owner, name: name}
	if err := r.clash(owner, name); err != nil {
		return 0, err
	}

	id := ID(len(r.signals))
	r.signals = append(r.signals, &Query{
		ID:           id,
		Name:         name,
		Owner:        owner,
		Flags:        flags,
		Params:       append([]gtype.Type(nil), b.params...),
		Return:       b.ret,
		classHandler: b.classHandler,
		accumulator:  b.accumulator,
	})
	r.byName[key] = id

	Logger().Debug("registered signal",
		zap.String("name", name),
		zap.String("owner", owner.Name()),
		zap.Uint32("id", uint32(id)))
	return id, nil
}

// MustRegister is Register that panics on error.
func MustRegister(owner gtype.Type, b *Builder) ID {
	id, err := Register(owner, b)
	if err != nil {
		panic(err)
	}
	return id
}

// Lookup finds a signal by name on t, its ancestors or its interfaces.
func Lookup(name string, t gtype.Type) (ID, bool) {
	name = param.Canonicalize(name)
	r := registryInstance()
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, anc := range t.Ancestors() {
		if id, ok := r.byName[ownerName{owner: anc, name: name}]; ok {
			return id, true
		}
	}
	for _, iface := range t.Interfaces() {
		if id, ok := r.byName[ownerName{owner: iface, name: name}]; ok {
			return id, true
		}
	}
	return 0, false
}

// ParseName resolves "signal" or "signal::detail" on t. A detail is only
// accepted for detailed signals.
func ParseName(detailed string, t gtype.Type) (ID, string, error) {
	name, detail, hasDetail := strings.Cut(detailed, "::")
	id, ok := Lookup(name, t)
	if !ok {
		return 0, "", errors.NotFound(errors.PhaseSignal, "signal", name)
	}
	if hasDetail {
		if detail == "" {
			return 0, "", errors.InvalidArgument(errors.PhaseSignal, fmt.Sprintf("empty detail in %q", detailed))
		}
		if q, _ := QueryID(id); !q.Flags.Has(FlagDetailed) {
			return 0, "", errors.InvalidArgument(errors.PhaseSignal,
				fmt.Sprintf("signal '%s' of type '%s' does not support details", name, t))
		}
	}
	return id, detail, nil
}

// QueryID returns the description of a registered signal.
func QueryID(id ID) (*Query, bool) {
	r := registryInstance()
	r.mu.RLock()
	defer r.mu.RUnlock()

	if id == 0 || int(id) >= len(r.signals) {
		return nil, false
	}
	return r.signals[id], true
}

// ListIDs returns the signals registered directly on t.
func ListIDs(t gtype.Type) []ID {
	r := registryInstance()
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []ID
	for _, q := range r.signals[1:] {
		if q.Owner == t {
			out = append(out, q.ID)
		}
	}
	return out
}

// AccumulatorTrueHandled stops the emission at the first handler returning true.
func AccumulatorTrueHandled(_ *Emission, acc *value.Value, ret value.Value) bool {
	*acc = ret
	return !ret.Bool()
}

// AccumulatorFirstWins keeps the first result and stops the emission.
func AccumulatorFirstWins(_ *Emission, acc *value.Value, ret value.Value) bool {
	*acc = ret
	return false
}
