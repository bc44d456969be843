package model

import (
	"context"
	"fmt"

	"ageorm/agtype"
	"ageorm/store"
)

// Related loads the relationship slot name. Single relationships yield an
// *Entity or nil, many relationships a []*Entity. Results are cached on the
// entity when the relationship enables caching, until Refresh.
func (e *Entity) Related(ctx context.Context, name string) (any, error) {
	rel, ok := e.typ.Relationship(name)
	if !ok {
		return nil, NewValidationError(name, fmt.Errorf("%s has no such relationship", e.typ.Label))
	}
	if !e.binding.Bound() || !e.hasID {
		return nil, NewDetachedError(e.Label(), "relationship "+name)
	}
	if rel.Cache {
		if v, ok := e.resolved[name]; ok {
			return v, nil
		}
	}

	target, err := rel.Target.Resolve()
	if err != nil {
		return nil, err
	}
	records, err := store.Cypher(ctx, e.binding.Executor, e.binding.Graph, RelationshipCypher(e.id, rel, target.Label))
	if err != nil {
		return nil, fmt.Errorf("loading relationship %s: %w", name, err)
	}

	entities := make([]*Entity, 0, len(records))
	for _, rec := range records {
		gr, ok := rec.Result().(*agtype.GraphRecord)
		if !ok {
			continue
		}
		related, err := Hydrate(gr, target, e.binding)
		if err != nil {
			return nil, fmt.Errorf("loading relationship %s: %w", name, err)
		}
		entities = append(entities, related)
	}

	var value any
	if rel.Many {
		value = entities
	} else if len(entities) > 0 {
		value = entities[0]
	} else {
		value = (*Entity)(nil)
	}
	if rel.Cache {
		if e.resolved == nil {
			e.resolved = make(map[string]any)
		}
		e.resolved[name] = value
	}
	return value, nil
}

// One loads a single-valued relationship.
func (e *Entity) One(ctx context.Context, name string) (*Entity, error) {
	v, err := e.Related(ctx, name)
	if err != nil {
		return nil, err
	}
	switch x := v.(type) {
	case *Entity:
		return x, nil
	default:
		return nil, NewValidationError(name, fmt.Errorf("relationship holds many entities"))
	}
}

// Many loads a multi-valued relationship.
func (e *Entity) Many(ctx context.Context, name string) ([]*Entity, error) {
	v, err := e.Related(ctx, name)
	if err != nil {
		return nil, err
	}
	switch x := v.(type) {
	case []*Entity:
		return x, nil
	default:
		return nil, NewValidationError(name, fmt.Errorf("relationship holds a single entity"))
	}
}

// Refresh drops the cached value of one relationship.
func (e *Entity) Refresh(name string) {
	delete(e.resolved, name)
}

// RelationshipCypher is the traversal issued to load rel from vertex id.
func RelationshipCypher(id int64, rel Relationship, targetLabel string) string {
	left, right := rel.Direction.Arrows()
	depth := ""
	if rel.Depth > 1 {
		depth = fmt.Sprintf("*1..%d", rel.Depth)
	}
	return fmt.Sprintf("MATCH (n)%s[:%s%s]%s(m:%s) WHERE id(n) = %d RETURN m",
		left, rel.EdgeLabel, depth, right, targetLabel, id)
}
