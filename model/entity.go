package model

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"

	"ageorm/agtype"
	"ageorm/store"
)

// Binding ties a persisted entity to the graph it was loaded from or saved to.
type Binding struct {
	Executor store.Executor
	Graph    string
}

func (b Binding) Bound() bool {
	return b.Executor != nil && b.Graph != ""
}

// Relation is one entry of an expanded vertex: the edge that reached the
// target and the target itself. Each is an *Entity when its label is
// registered and an *agtype.GraphRecord otherwise.
type Relation struct {
	Edge   any
	Target any
}

// Entity is a vertex or edge instance of a declared Type.
type Entity struct {
	typ   *Type
	label string

	id    int64
	hasID bool

	start, end   int64
	hasEndpoints bool

	values  map[string]any
	extra   map[string]any
	dirty   map[string]struct{}
	binding Binding

	resolved  map[string]any
	relations map[string][]Relation
}

// New constructs a transient entity. Missing fields take their declared
// defaults and every field starts dirty.
func New(t *Type, fields map[string]any) (*Entity, error) {
	e := newEntity(t)
	for name, v := range fields {
		if _, isRel := t.Relationship(name); isRel {
			return nil, NewValidationError(name, errors.New("relationships cannot be set as fields"))
		}
		f, ok := t.Field(name)
		if !ok {
			return nil, NewValidationError(name, fmt.Errorf("%s has no such field", t.Label))
		}
		if err := checkValue(f, v); err != nil {
			return nil, NewValidationError(name, err)
		}
		e.values[name] = v
	}
	for _, f := range t.Fields {
		if _, set := e.values[f.Name]; set {
			continue
		}
		if f.Default != nil {
			e.values[f.Name] = cloneDefault(f.Default)
			continue
		}
		if f.Required {
			return nil, NewValidationError(f.Name, ErrRequired)
		}
	}
	for _, f := range t.Fields {
		e.dirty[f.Name] = struct{}{}
	}
	return e, nil
}

// MustNew is New for tests and fixtures.
func MustNew(t *Type, fields map[string]any) *Entity {
	e, err := New(t, fields)
	if err != nil {
		panic(err)
	}
	return e
}

func newEntity(t *Type) *Entity {
	return &Entity{
		typ:    t,
		values: make(map[string]any, len(t.Fields)),
		extra:  make(map[string]any),
		dirty:  make(map[string]struct{}),
	}
}

func (e *Entity) Type() *Type { return e.typ }

func (e *Entity) Kind() Kind { return e.typ.Kind }

// Label returns the stored label, or the type's label when none was loaded.
func (e *Entity) Label() string {
	if e.label != "" {
		return e.label
	}
	return e.typ.Label
}

// ID returns the database identity. ok is false for transient entities.
func (e *Entity) ID() (id int64, ok bool) {
	return e.id, e.hasID
}

func (e *Entity) Persisted() bool { return e.hasID }

func (e *Entity) Binding() Binding { return e.binding }

// StartID and EndID return an edge's endpoint identities.
func (e *Entity) StartID() (int64, bool) { return e.start, e.hasEndpoints }

func (e *Entity) EndID() (int64, bool) { return e.end, e.hasEndpoints }

// Get returns a field or retained property value.
func (e *Entity) Get(name string) (any, bool) {
	if v, ok := e.values[name]; ok {
		return v, true
	}
	v, ok := e.extra[name]
	return v, ok
}

// Check validates the stored value of every declared field in declaration
// order. Loaded entities are not checked on hydration, so data written by
// other clients can fail here.
func (e *Entity) Check() []*ValidationError {
	var out []*ValidationError
	for _, f := range e.typ.Fields {
		v, ok := e.values[f.Name]
		if !ok || v == nil {
			if f.Required {
				out = append(out, NewValidationError(f.Name, ErrRequired))
			}
			continue
		}
		if err := checkValue(f, v); err != nil {
			out = append(out, NewValidationError(f.Name, err))
		}
	}
	return out
}

// Set assigns a field and marks it dirty. Properties retained from a loaded
// record that the type does not declare may be set too.
func (e *Entity) Set(name string, v any) error {
	if _, isRel := e.typ.Relationship(name); isRel {
		return NewValidationError(name, errors.New("relationships cannot be set as fields"))
	}
	if f, ok := e.typ.Field(name); ok {
		if err := checkValue(f, v); err != nil {
			return NewValidationError(name, err)
		}
		e.values[name] = v
		e.dirty[name] = struct{}{}
		return nil
	}
	if _, ok := e.extra[name]; ok {
		e.extra[name] = v
		e.dirty[name] = struct{}{}
		return nil
	}
	return NewValidationError(name, fmt.Errorf("%s has no such field", e.typ.Label))
}

func (e *Entity) String() string {
	var b strings.Builder
	b.WriteString(e.Label())
	b.WriteByte('(')
	if e.hasID {
		b.WriteString("id=")
		b.WriteString(strconv.FormatInt(e.id, 10))
	} else {
		b.WriteString("transient")
	}
	b.WriteByte(')')
	return b.String()
}

// StringField returns name as a string, or "" when unset or not a string.
func (e *Entity) StringField(name string) string {
	v, _ := e.Get(name)
	s, _ := v.(string)
	return s
}

// IntField returns name as an int64. Floats without a fraction convert.
func (e *Entity) IntField(name string) (int64, bool) {
	v, _ := e.Get(name)
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case float64:
		if x == float64(int64(x)) {
			return int64(x), true
		}
	}
	return 0, false
}

func (e *Entity) FloatField(name string) (float64, bool) {
	v, _ := e.Get(name)
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	}
	if n, ok := e.IntField(name); ok {
		return float64(n), true
	}
	return 0, false
}

func (e *Entity) BoolField(name string) (value, ok bool) {
	v, _ := e.Get(name)
	value, ok = v.(bool)
	return value, ok
}

// Dirty returns the changed field names, declared fields first.
func (e *Entity) Dirty() []string {
	names := e.propertyNames()
	out := names[:0]
	for _, name := range names {
		if _, ok := e.dirty[name]; ok {
			out = append(out, name)
		}
	}
	return out
}

func (e *Entity) IsDirty() bool { return len(e.dirty) > 0 }

func (e *Entity) MarkClean() {
	clear(e.dirty)
}

// Dump returns the persisted properties: declared fields in declaration
// order, then retained undeclared properties by name. With dirtyOnly only
// changed properties are included.
func (e *Entity) Dump(dirtyOnly bool) agtype.Properties {
	names := e.propertyNames()
	props := make(agtype.Properties, 0, len(names))
	for _, name := range names {
		if dirtyOnly {
			if _, ok := e.dirty[name]; !ok {
				continue
			}
		}
		v, _ := e.Get(name)
		props = append(props, agtype.Property{Key: name, Value: v})
	}
	return props
}

func (e *Entity) propertyNames() []string {
	names := make([]string, 0, len(e.values)+len(e.extra))
	for _, f := range e.typ.Fields {
		if _, ok := e.values[f.Name]; ok {
			names = append(names, f.Name)
		} else if _, dirty := e.dirty[f.Name]; dirty {
			names = append(names, f.Name)
		}
	}
	extras := make([]string, 0, len(e.extra))
	for name := range e.extra {
		extras = append(extras, name)
	}
	sort.Strings(extras)
	return append(names, extras...)
}

// Bind records the identity and graph assigned by a successful write.
func (e *Entity) Bind(b Binding, id int64) {
	e.binding = b
	e.id = id
	e.hasID = true
}

// Detach clears identity and binding after a delete. An edge also loses its
// endpoints, so it can be connected again between any two vertices.
func (e *Entity) Detach() {
	e.binding = Binding{}
	e.id = 0
	e.hasID = false
	e.start, e.end, e.hasEndpoints = 0, 0, false
}

// CheckEndpoints reports whether SetEndpoints(start, end) would succeed.
func (e *Entity) CheckEndpoints(start, end int64) error {
	if e.typ.Kind != Edge {
		return fmt.Errorf("%s is not an edge type", e.typ.Label)
	}
	if e.hasEndpoints && (e.start != start || e.end != end) {
		return fmt.Errorf("%s endpoints are already set", e.Label())
	}
	return nil
}

// SetEndpoints sets an edge's endpoint identities. They can be set once.
func (e *Entity) SetEndpoints(start, end int64) error {
	if err := e.CheckEndpoints(start, end); err != nil {
		return err
	}
	e.start, e.end, e.hasEndpoints = start, end, true
	return nil
}

// Relations returns the grouped result of the last expand, keyed by edge label.
func (e *Entity) Relations() map[string][]Relation {
	return e.relations
}

func (e *Entity) SetRelations(rel map[string][]Relation) {
	e.relations = rel
}

// RelationLabels returns the edge labels present in Relations, sorted.
func (e *Entity) RelationLabels() []string {
	labels := make([]string, 0, len(e.relations))
	for l := range e.relations {
		labels = append(labels, l)
	}
	slices.Sort(labels)
	return labels
}
