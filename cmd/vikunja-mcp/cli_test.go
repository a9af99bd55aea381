package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/jmhooper/vikunja-mcp/internal/config"
	"github.com/jmhooper/vikunja-mcp/internal/ops"
	"github.com/jmhooper/vikunja-mcp/internal/session"
	"github.com/jmhooper/vikunja-mcp/internal/task"
)

// fakeRemote serves scripted tasks for CLI tests.
type fakeRemote struct {
	tasks []task.Task
}

func (f *fakeRemote) Query(ctx context.Context, remoteFilter string) ([]task.Task, error) {
	return f.tasks, nil
}

func (f *fakeRemote) FetchAll(ctx context.Context) ([]task.Task, error) {
	return f.tasks, nil
}

// testDeps builds CLI dependencies over an in-memory store.
func testDeps(t *testing.T, remote *fakeRemote) *ops.Deps {
	t.Helper()
	store, err := session.NewStore(nil, 30*time.Minute, 0)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(store.Close)

	return &ops.Deps{
		Cfg:    config.DefaultConfig(),
		Remote: remote,
		Store:  store,
		Schema: task.DefaultSchema(),
	}
}

// runApp runs the CLI with captured stdout.
func runApp(t *testing.T, deps *ops.Deps, args ...string) (string, error) {
	t.Helper()
	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	app := newCLIApp(deps)
	err := app.Run(append([]string{"vikunja-mcp"}, args...))

	w.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	os.Stdout = oldStdout

	return buf.String(), err
}

func TestCLIValidate(t *testing.T) {
	deps := testDeps(t, &fakeRemote{})

	out, err := runApp(t, deps, "validate", "priority >= 3 AND done = false")
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}

	var result map[string]any
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("failed to parse output: %v\nOutput: %s", err, out)
	}
	if result["valid"] != true {
		t.Error("expected valid=true")
	}
	if result["server_compatible"] != true {
		t.Error("expected server_compatible=true")
	}
	if result["remote_filter"] != "priority >= 3 && done = false" {
		t.Errorf("remote_filter = %v", result["remote_filter"])
	}
}

func TestCLIValidate_Invalid(t *testing.T) {
	deps := testDeps(t, &fakeRemote{})

	_, err := runApp(t, deps, "validate", "bogus = 1")
	if err == nil {
		t.Fatal("validate of unknown field should fail")
	}
}

func TestCLIFiltersLifecycle(t *testing.T) {
	deps := testDeps(t, &fakeRemote{})

	if _, err := runApp(t, deps, "filters", "save", "urgent", "priority >= 4"); err != nil {
		t.Fatalf("filters save failed: %v", err)
	}

	out, err := runApp(t, deps, "filters", "list")
	if err != nil {
		t.Fatalf("filters list failed: %v", err)
	}
	var list ops.ListFiltersOutput
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if list.Total != 1 || list.Filters[0].Name != "urgent" {
		t.Errorf("list = %+v, want the saved filter", list)
	}

	if _, err := runApp(t, deps, "filters", "delete", "urgent"); err != nil {
		t.Fatalf("filters delete failed: %v", err)
	}
	if _, err := runApp(t, deps, "filters", "delete", "urgent"); err == nil {
		t.Error("second delete should fail")
	}
}

func TestCLIQuery(t *testing.T) {
	deps := testDeps(t, &fakeRemote{tasks: []task.Task{{ID: 1, Title: "Release", Priority: 5}}})

	out, err := runApp(t, deps, "query", "priority >= 3")
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}

	var output ops.FilterTasksOutput
	if err := json.Unmarshal([]byte(out), &output); err != nil {
		t.Fatalf("failed to parse output: %v\nOutput: %s", err, out)
	}
	if output.Provenance != ops.ProvenanceServer {
		t.Errorf("provenance = %q, want server", output.Provenance)
	}
	if len(output.Items) != 1 {
		t.Errorf("items = %d, want 1", len(output.Items))
	}
}

func TestIsCLIMode(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected bool
	}{
		{"no args", []string{"vikunja-mcp"}, false},
		{"known subcommand", []string{"vikunja-mcp", "validate"}, true},
		{"filters subcommand", []string{"vikunja-mcp", "filters"}, true},
		{"help flag", []string{"vikunja-mcp", "--help"}, true},
		{"version flag", []string{"vikunja-mcp", "-v"}, true},
		{"unknown arg", []string{"vikunja-mcp", "bogus"}, false},
	}

	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args
			if got := isCLIMode(); got != tt.expected {
				t.Errorf("isCLIMode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestIsHelpOrVersion(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected bool
	}{
		{"no args", []string{"vikunja-mcp"}, false},
		{"help", []string{"vikunja-mcp", "help"}, true},
		{"help flag", []string{"vikunja-mcp", "--help"}, true},
		{"short help", []string{"vikunja-mcp", "-h"}, true},
		{"version flag", []string{"vikunja-mcp", "--version"}, true},
		{"subcommand", []string{"vikunja-mcp", "validate"}, false},
	}

	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args
			if got := isHelpOrVersion(); got != tt.expected {
				t.Errorf("isHelpOrVersion() = %v, want %v", got, tt.expected)
			}
		})
	}
}
