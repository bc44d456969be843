package validate

import (
	"context"
	"errors"
	"fmt"

	"ageorm/agtype"
	"ageorm/graph"
	"ageorm/model"
)

type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warning"
)

const (
	codeMissingRequired   = "missing_required_property"
	codeInvalidValue      = "invalid_property_value"
	codeOrphanedEntity    = "orphaned_entity"
	codeUnregisteredLabel = "unregistered_label"
)

type Issue struct {
	Severity Severity
	Code     string
	Message  string
	Label    string
	Entity   string
}

type Report struct {
	Issues []Issue
}

// Errors returns the issues with SeverityError.
func (r *Report) Errors() []Issue { return r.filter(SeverityError) }

// Warnings returns the issues with SeverityWarn.
func (r *Report) Warnings() []Issue { return r.filter(SeverityWarn) }

func (r *Report) filter(s Severity) []Issue {
	var out []Issue
	for _, issue := range r.Issues {
		if issue.Severity == s {
			out = append(out, issue)
		}
	}
	return out
}

// Run audits the data stored in g against the vertex types in types. Every
// vertex of each type is loaded and checked field by field; vertices without
// edges and labels with no registered type are reported as warnings.
func Run(ctx context.Context, g *graph.Graph, types []*model.Type) (*Report, error) {
	if g == nil {
		return nil, fmt.Errorf("graph is required")
	}

	issues := make([]Issue, 0)
	for _, t := range types {
		if t.Kind != model.Vertex {
			continue
		}
		for e, err := range g.Query(t).Iter(ctx) {
			if err != nil {
				return nil, fmt.Errorf("scan %s: %w", t.Label, err)
			}
			issues = append(issues, checkEntity(e)...)
		}
	}

	labels, err := g.Cypher(ctx, "MATCH (n) RETURN DISTINCT label(n)", graph.CypherOptions{})
	if err != nil {
		return nil, fmt.Errorf("list labels: %w", err)
	}
	for _, v := range labels {
		label := plainString(v)
		if label == "" {
			continue
		}
		if _, ok := model.Lookup(label); !ok {
			issues = append(issues, Issue{
				Severity: SeverityWarn,
				Code:     codeUnregisteredLabel,
				Message:  "label has no registered type",
				Label:    label,
			})
		}
	}

	orphans, err := g.Cypher(ctx,
		"MATCH (n) WHERE NOT exists((n)-[]-()) RETURN id(n), label(n)",
		graph.CypherOptions{Columns: []string{"id", "label"}, Remap: true})
	if err != nil {
		return nil, fmt.Errorf("list orphaned entities: %w", err)
	}
	for _, v := range orphans {
		row, ok := v.(map[string]any)
		if !ok {
			continue
		}
		label := plainString(row["label"])
		issues = append(issues, Issue{
			Severity: SeverityWarn,
			Code:     codeOrphanedEntity,
			Message:  "vertex has no edges",
			Label:    label,
			Entity:   fmt.Sprintf("%s(id=%v)", label, row["id"]),
		})
	}

	return &Report{Issues: issues}, nil
}

func checkEntity(e *model.Entity) []Issue {
	var issues []Issue
	for _, problem := range e.Check() {
		issue := Issue{
			Severity: SeverityError,
			Code:     codeInvalidValue,
			Message:  fmt.Sprintf("invalid value for %s: %v", problem.Name, problem.Err),
			Label:    e.Label(),
			Entity:   e.String(),
		}
		if errors.Is(problem, model.ErrRequired) {
			issue.Code = codeMissingRequired
			issue.Message = fmt.Sprintf("missing required property: %s", problem.Name)
		}
		issues = append(issues, issue)
	}
	return issues
}

func plainString(v any) string {
	if val, ok := v.(agtype.Value); ok {
		v = agtype.Plain(val)
	}
	s, _ := v.(string)
	return s
}
