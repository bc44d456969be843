package model

import (
	"errors"

	"ageorm/agtype"
)

// Hydrate builds a clean, persisted entity of type t from a decoded record.
// Properties t does not declare are retained as they are.
func Hydrate(rec *agtype.GraphRecord, t *Type, b Binding) (*Entity, error) {
	if rec == nil {
		return nil, errors.New("hydrating: nil record")
	}
	if t == nil {
		return nil, errors.New("hydrating: nil type")
	}
	e := newEntity(t)
	e.label = rec.Label
	e.id, e.hasID = rec.ID, true
	e.binding = b
	if rec.Edge {
		e.start, e.end, e.hasEndpoints = rec.StartID, rec.EndID, true
	}

	for k, v := range rec.Properties {
		if f, ok := t.Field(k); ok {
			e.values[k] = coerce(f, v)
			continue
		}
		e.extra[k] = v
	}
	for _, f := range t.Fields {
		if _, ok := e.values[f.Name]; !ok && f.Default != nil {
			e.values[f.Name] = cloneDefault(f.Default)
		}
	}
	return e, nil
}

// HydrateAny turns a graph record whose label is registered into an
// *Entity. Anything else is returned unchanged.
func HydrateAny(v agtype.Value, b Binding) any {
	rec, ok := v.(*agtype.GraphRecord)
	if !ok {
		return v
	}
	t, ok := Lookup(rec.Label)
	if !ok {
		return v
	}
	e, err := Hydrate(rec, t, b)
	if err != nil {
		return v
	}
	return e
}
