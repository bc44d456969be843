package main

import (
	"path/filepath"
	"testing"

	"ageorm/agtype"
	"ageorm/internal/config"
	"ageorm/model"
)

func TestParseParams(t *testing.T) {
	params, err := parseParams([]string{"name = Ada", "age=36", "tags=[\"a\"]", "note=a=b", ""})
	if err != nil {
		t.Fatalf("parseParams: %v", err)
	}
	if params["name"] != "Ada" {
		t.Fatalf("name = %#v", params["name"])
	}
	if params["age"] != int64(36) {
		t.Fatalf("age = %#v", params["age"])
	}
	if tags, ok := params["tags"].([]any); !ok || len(tags) != 1 {
		t.Fatalf("tags = %#v", params["tags"])
	}
	if params["note"] != "a=b" {
		t.Fatalf("note = %#v", params["note"])
	}
}

func TestParseParams_Invalid(t *testing.T) {
	if _, err := parseParams([]string{"novalue"}); err == nil {
		t.Fatalf("expected error for missing =")
	}
	if _, err := parseParams([]string{"=1"}); err == nil {
		t.Fatalf("expected error for empty key")
	}
}

func TestParseParams_BadJSONStaysString(t *testing.T) {
	params, err := parseParams([]string{"raw={oops"})
	if err != nil {
		t.Fatalf("parseParams: %v", err)
	}
	if params["raw"] != "{oops" {
		t.Fatalf("raw = %#v", params["raw"])
	}
}

func TestJSONValue(t *testing.T) {
	if got := jsonValue(agtype.Scalar{Value: 3.5}); got != 3.5 {
		t.Fatalf("scalar = %#v", got)
	}
	row := jsonValue(map[string]any{"x": agtype.Raw{Text: "tok"}}).(map[string]any)
	if row["x"] != "tok" {
		t.Fatalf("row = %#v", row)
	}
}

func TestLabelType(t *testing.T) {
	got := labelType("CliUnregistered", true)
	if got.Kind != model.Edge || got.Label != "CliUnregistered" {
		t.Fatalf("unexpected type: %+v", got)
	}
}

func TestRunInit(t *testing.T) {
	dir := t.TempDir()
	if err := runInit(dir, "My-Project", ""); err != nil {
		t.Fatalf("runInit: %v", err)
	}

	t.Setenv("AGE_DSN", "postgres://localhost/agedb")
	cfg, err := config.LoadProjectConfig(filepath.Join(dir, "ageorm.yaml"))
	if err != nil {
		t.Fatalf("scaffolded config does not load: %v", err)
	}
	if cfg.Graph != "my_project" {
		t.Fatalf("graph = %q", cfg.Graph)
	}
	if cfg.Database.DSN != "postgres://localhost/agedb" {
		t.Fatalf("dsn = %q", cfg.Database.DSN)
	}
	if _, err := config.LoadSchema(cfg.SchemaPath()); err != nil {
		t.Fatalf("scaffolded schema does not load: %v", err)
	}

	if err := runInit(dir, "My-Project", ""); err == nil {
		t.Fatalf("expected error when files exist")
	}
}

func TestRootCommands(t *testing.T) {
	root := rootCmd()
	for _, name := range []string{"init", "validate", "graph", "label", "index", "cypher", "count", "load", "serve", "version"} {
		if _, _, err := root.Find([]string{name}); err != nil {
			t.Fatalf("missing command %s: %v", name, err)
		}
	}
}
