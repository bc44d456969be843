package model

import (
	"sort"
	"sync"
	"sync/atomic"
)

// registry maps labels to their declared types for the life of the process.
// Labels are only ever added.
var registry = struct {
	sync.RWMutex
	types map[string]*Type
}{types: make(map[string]*Type)}

// Define validates t and registers it under its label. Abstract types are
// validated but not registered. Defining a label twice fails with
// *AlreadyExistsError.
func Define(t Type) (*Type, error) {
	compiled, err := compile(t)
	if err != nil {
		return nil, err
	}
	if compiled.Abstract {
		return compiled, nil
	}

	registry.Lock()
	defer registry.Unlock()
	if _, exists := registry.types[compiled.Label]; exists {
		return nil, NewAlreadyExistsError("label", compiled.Label)
	}
	registry.types[compiled.Label] = compiled
	return compiled, nil
}

// MustDefine is Define for package-level declarations.
func MustDefine(t Type) *Type {
	compiled, err := Define(t)
	if err != nil {
		panic(err)
	}
	return compiled
}

func Lookup(label string) (*Type, bool) {
	registry.RLock()
	defer registry.RUnlock()
	t, ok := registry.types[label]
	return t, ok
}

// Registered returns every registered type ordered by label.
func Registered() []*Type {
	registry.RLock()
	defer registry.RUnlock()
	out := make([]*Type, 0, len(registry.types))
	for _, t := range registry.types {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// Target is a relationship target: a type given directly, or a label
// resolved through the registry the first time it is needed.
type Target struct {
	label    string
	resolved atomic.Pointer[Type]
}

// To targets t directly.
func To(t *Type) *Target {
	target := &Target{label: t.Label}
	target.resolved.Store(t)
	return target
}

// ToLabel targets whatever type is registered under label when the
// relationship is first loaded. It allows forward and self references.
func ToLabel(label string) *Target {
	return &Target{label: label}
}

func (t *Target) Label() string {
	return t.label
}

// Resolve returns the target type or *UnresolvableReferenceError.
func (t *Target) Resolve() (*Type, error) {
	if typ := t.resolved.Load(); typ != nil {
		return typ, nil
	}
	typ, ok := Lookup(t.label)
	if !ok {
		return nil, &UnresolvableReferenceError{Label: t.label}
	}
	t.resolved.Store(typ)
	return typ, nil
}
