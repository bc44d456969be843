// Package event runs caller-registered hooks around graph writes.
package event

import (
	"context"
	"fmt"
	"sync"

	"ageorm/model"
)

type Name string

const (
	PreAdd     Name = "pre_add"
	PostAdd    Name = "post_add"
	PreUpdate  Name = "pre_update"
	PostUpdate Name = "post_update"
	PreDelete  Name = "pre_delete"
	PostDelete Name = "post_delete"
)

// Names lists every event in the order a write fires them.
var Names = []Name{PreAdd, PostAdd, PreUpdate, PostUpdate, PreDelete, PostDelete}

// Handler is called with the entity being written and the dispatch context,
// which carries at least "graph". A non-nil error from a pre_ handler aborts
// the write.
type Handler func(ctx context.Context, e *model.Entity, name Name, info map[string]any) error

// Target selects the entities a handler applies to.
type Target struct {
	kind  *model.Kind
	typ   *model.Type
	label string
}

var (
	All      = Target{}
	Vertices = kindTarget(model.Vertex)
	Edges    = kindTarget(model.Edge)
)

func kindTarget(k model.Kind) Target {
	return Target{kind: &k}
}

// ForType matches entities of exactly t.
func ForType(t *model.Type) Target {
	return Target{typ: t}
}

// ForLabel matches entities carrying label, whatever their type.
func ForLabel(label string) Target {
	return Target{label: label}
}

func (t Target) matches(e *model.Entity) bool {
	switch {
	case t.typ != nil:
		return e.Type() == t.typ
	case t.label != "":
		return e.Label() == t.label
	case t.kind != nil:
		return e.Kind() == *t.kind
	default:
		return true
	}
}

type registration struct {
	id     uint64
	target Target
	fn     Handler
}

var listeners = struct {
	sync.RWMutex
	next   uint64
	byName map[Name][]registration
}{byName: make(map[Name][]registration)}

// Listen registers fn for events on target. The returned function removes
// the registration.
func Listen(target Target, events []Name, fn Handler) (remove func()) {
	listeners.Lock()
	defer listeners.Unlock()
	listeners.next++
	id := listeners.next
	for _, name := range events {
		listeners.byName[name] = append(listeners.byName[name], registration{id: id, target: target, fn: fn})
	}
	return func() {
		listeners.Lock()
		defer listeners.Unlock()
		for _, name := range events {
			regs := listeners.byName[name]
			kept := regs[:0:0]
			for _, r := range regs {
				if r.id != id {
					kept = append(kept, r)
				}
			}
			listeners.byName[name] = kept
		}
	}
}

// Dispatch calls every handler registered for name whose target matches e,
// in registration order, stopping at the first error.
func Dispatch(ctx context.Context, e *model.Entity, name Name, info map[string]any) error {
	listeners.RLock()
	regs := append([]registration(nil), listeners.byName[name]...)
	listeners.RUnlock()

	for _, r := range regs {
		if !r.target.matches(e) {
			continue
		}
		if err := r.fn(ctx, e, name, info); err != nil {
			return fmt.Errorf("%s handler for %s: %w", name, e.Label(), err)
		}
	}
	return nil
}
