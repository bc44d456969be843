package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"ageorm/graph"
	"ageorm/model"
)

type Result struct {
	VerticesCreated int
	EdgesCreated    int
	FilesSkipped    int
	Errors          []error
}

type Options struct {
	// Bulk inserts each label with one SQL statement instead of one Cypher
	// CREATE per entity. Lifecycle events do not fire.
	Bulk bool
	// Workers bounds how many labels are bulk inserted at once. Values below
	// one mean one.
	Workers int
	Exclude []string
}

// Run loads every seed file under paths into g. Vertices are created before
// edges; an edge whose endpoints failed to persist is reported and skipped.
// Per-entity failures are collected in Result.Errors.
func Run(ctx context.Context, g *graph.Graph, paths []string, options Options) (*Result, error) {
	files, err := walkSeedFiles(paths, options.Exclude)
	if err != nil {
		return nil, fmt.Errorf("walking seed files: %w", err)
	}

	result := &Result{}
	keys := make(map[string]*model.Entity)
	var vertices []*model.Entity
	var edges []graph.Triple

	var seeds []*Seed
	for _, path := range files {
		seed, err := ParseFile(path)
		if err != nil {
			if errors.Is(err, ErrEmptySeed) {
				result.FilesSkipped++
				continue
			}
			result.Errors = append(result.Errors, err)
			continue
		}
		seeds = append(seeds, seed)

		for _, v := range seed.Vertices {
			if _, dup := keys[v.Key]; dup {
				result.Errors = append(result.Errors, fmt.Errorf("%s: duplicate key %s", path, v.Key))
				continue
			}
			e, err := build(v.Type, model.Vertex, v.Properties)
			if err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("%s: vertex %s: %w", path, v.Key, err))
				continue
			}
			keys[v.Key] = e
			vertices = append(vertices, e)
		}
	}

	if options.Bulk {
		n, errs := inParallel(byLabel(vertices), options.Workers, func(group []*model.Entity) error {
			return g.BulkAdd(ctx, group)
		})
		result.VerticesCreated += n
		result.Errors = append(result.Errors, errs...)
	} else {
		for _, e := range vertices {
			if err := g.Add(ctx, e); err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("adding %s: %w", e.Label(), err))
				continue
			}
			result.VerticesCreated++
		}
	}

	for _, seed := range seeds {
		for _, s := range seed.Edges {
			from, to := keys[s.From], keys[s.To]
			if from == nil || to == nil {
				result.Errors = append(result.Errors, fmt.Errorf("%s: edge %s -> %s: unknown key", seed.SourceFile, s.From, s.To))
				continue
			}
			if !from.Persisted() || !to.Persisted() {
				result.Errors = append(result.Errors, fmt.Errorf("%s: edge %s -> %s: endpoint not persisted", seed.SourceFile, s.From, s.To))
				continue
			}
			e, err := build(s.Type, model.Edge, s.Properties)
			if err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("%s: edge %s -> %s: %w", seed.SourceFile, s.From, s.To, err))
				continue
			}
			edges = append(edges, graph.Triple{From: from, Edge: e, To: to})
		}
	}

	if options.Bulk {
		n, errs := inParallel(triplesByLabel(edges), options.Workers, func(group []graph.Triple) error {
			return g.BulkAddEdges(ctx, group)
		})
		result.EdgesCreated += n
		result.Errors = append(result.Errors, errs...)
		return result, nil
	}
	for _, tr := range edges {
		if err := g.Connect(ctx, tr.From, tr.Edge, tr.To); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("connecting %s: %w", tr.Edge.Label(), err))
			continue
		}
		result.EdgesCreated++
	}
	return result, nil
}

// build constructs an entity of the registered type named name, matched by
// label first and then by type name.
func build(name string, kind model.Kind, props map[string]any) (*model.Entity, error) {
	t, ok := model.Lookup(name)
	if !ok {
		for _, candidate := range model.Registered() {
			if strings.EqualFold(candidate.Name, name) {
				t, ok = candidate, true
				break
			}
		}
	}
	if !ok {
		return nil, fmt.Errorf("unknown type %s", name)
	}
	if t.Kind != kind {
		return nil, fmt.Errorf("%s is a %s type", name, t.Kind)
	}
	return model.New(t, props)
}

// inParallel runs insert for every group with at most workers in flight. It
// returns the number of items in groups that succeeded and the errors of the
// rest, in completion order.
func inParallel[T any](groups [][]T, workers int, insert func([]T) error) (int, []error) {
	var (
		mu      sync.Mutex
		created int
		errs    []error
		eg      errgroup.Group
	)
	eg.SetLimit(max(workers, 1))
	for _, group := range groups {
		eg.Go(func() error {
			err := insert(group)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return nil
			}
			created += len(group)
			return nil
		})
	}
	_ = eg.Wait()
	return created, errs
}

func byLabel(entities []*model.Entity) [][]*model.Entity {
	index := make(map[string]int)
	var out [][]*model.Entity
	for _, e := range entities {
		i, ok := index[e.Label()]
		if !ok {
			i = len(out)
			index[e.Label()] = i
			out = append(out, nil)
		}
		out[i] = append(out[i], e)
	}
	return out
}

func triplesByLabel(triples []graph.Triple) [][]graph.Triple {
	index := make(map[string]int)
	var out [][]graph.Triple
	for _, tr := range triples {
		label := tr.Edge.Label()
		i, ok := index[label]
		if !ok {
			i = len(out)
			index[label] = i
			out = append(out, nil)
		}
		out[i] = append(out[i], tr)
	}
	return out
}

func walkSeedFiles(roots []string, excludes []string) ([]string, error) {
	excluded := make([]string, 0, len(excludes))
	for _, path := range excludes {
		if path == "" {
			continue
		}
		excluded = append(excluded, filepath.Clean(path))
	}

	var files []string
	for _, root := range roots {
		if root == "" {
			continue
		}
		root = filepath.Clean(root)
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() && isExcluded(path, excluded) {
				return filepath.SkipDir
			}
			if d.IsDir() {
				return nil
			}
			if !isSeedFile(d.Name()) || isExcluded(path, excluded) {
				return nil
			}
			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

func isSeedFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

func isExcluded(path string, excludes []string) bool {
	clean := filepath.Clean(path)
	for _, exclude := range excludes {
		if exclude == clean || strings.HasPrefix(clean, exclude+string(os.PathSeparator)) {
			return true
		}
	}
	return false
}
