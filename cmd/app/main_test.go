package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/atrium/internal/models"
	"github.com/starford/atrium/internal/testutil"
)

type cliEnv struct {
	backend *testutil.Backend
	config  string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	backend := testutil.NewBackend(t)
	backend.Seed("clients",
		models.Client{ID: "c1", ClientInput: models.ClientInput{Name: "Acme", Email: "a@x.com", Phone: "555"}},
		models.Client{ID: "c2", ClientInput: models.ClientInput{Name: "Globex"}},
	)
	backend.Seed("projects",
		models.Project{ID: "p1", ProjectInput: models.ProjectInput{Name: "Site", ClientID: "c1", Status: models.ProjectActive}},
		models.Project{ID: "p2", ProjectInput: models.ProjectInput{Name: "App", ClientID: "c2", Status: models.ProjectOnHold}},
	)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := fmt.Sprintf("app:\n  log_level: error\napi:\n  base_url: %s\njournal:\n  path: %s\n",
		backend.URL, filepath.Join(dir, "journal.db"))
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	return &cliEnv{backend: backend, config: path}
}

// run executes the CLI with stdin and returns what it printed.
func (e *cliEnv) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	argv := append([]string{"atrium", "--config", e.config}, args...)
	err := newApp(strings.NewReader(stdin), &out).Run(context.Background(), argv)
	return out.String(), err
}

func TestClientsList(t *testing.T) {
	e := newCLIEnv(t)
	out, err := e.run(t, "", "clients", "list")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"NAME", "Acme", "a@x.com", "Globex"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestProjectsListFilter(t *testing.T) {
	e := newCLIEnv(t)
	out, err := e.run(t, "", "projects", "list", "--client", "c2")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "App") || strings.Contains(out, "Site") {
		t.Errorf("output:\n%s", out)
	}
}

func TestTasksEmptyList(t *testing.T) {
	e := newCLIEnv(t)
	out, err := e.run(t, "", "tasks", "list")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "No tasks found.") {
		t.Errorf("output:\n%s", out)
	}
}

func TestTasksCreate(t *testing.T) {
	e := newCLIEnv(t)
	out, err := e.run(t, "", "tasks", "create", "--title", "Write docs", "--project", "p1")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != "created task t1" {
		t.Errorf("output = %q", out)
	}

	out, _ = e.run(t, "", "tasks", "list", "--status", "todo")
	if !strings.Contains(out, "Write docs") || !strings.Contains(out, "medium") {
		t.Errorf("list output:\n%s", out)
	}
}

func TestCreateValidation(t *testing.T) {
	e := newCLIEnv(t)
	if _, err := e.run(t, "", "clients", "create", "--email", "bad"); err == nil {
		t.Fatal("expected validation error")
	}
	if e.backend.Len("clients") != 2 {
		t.Errorf("clients = %d, want 2", e.backend.Len("clients"))
	}
}

func TestClientsUpdate(t *testing.T) {
	e := newCLIEnv(t)
	if _, err := e.run(t, "", "clients", "update", "--phone", "999", "c1"); err != nil {
		t.Fatal(err)
	}
	out, _ := e.run(t, "", "clients", "list")
	if !strings.Contains(out, "999") || !strings.Contains(out, "a@x.com") {
		t.Errorf("output:\n%s", out)
	}
}

func TestUpdateUnknown(t *testing.T) {
	e := newCLIEnv(t)
	if _, err := e.run(t, "", "clients", "update", "--name", "X", "nope"); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("err = %v", err)
	}
}

func TestDeleteConfirmation(t *testing.T) {
	e := newCLIEnv(t)

	out, err := e.run(t, "n\n", "clients", "delete", "c1")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Are you sure you want to delete this client?") || !strings.Contains(out, "Aborted.") {
		t.Errorf("output = %q", out)
	}
	if e.backend.Len("clients") != 2 {
		t.Fatalf("declined delete removed a client")
	}

	if _, err := e.run(t, "y\n", "clients", "delete", "c1"); err != nil {
		t.Fatal(err)
	}
	if _, err := e.run(t, "", "projects", "delete", "--yes", "p2"); err != nil {
		t.Fatal(err)
	}
	if e.backend.Len("clients") != 1 || e.backend.Len("projects") != 1 {
		t.Errorf("clients = %d, projects = %d", e.backend.Len("clients"), e.backend.Len("projects"))
	}
}

func TestDiagnostics(t *testing.T) {
	e := newCLIEnv(t)
	e.backend.Fail(http.MethodGet, "clients", http.StatusInternalServerError)

	if _, err := e.run(t, "", "clients", "list"); err == nil {
		t.Fatal("expected list error")
	}

	out, err := e.run(t, "", "diagnostics", "--resource", "clients")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "load") || !strings.Contains(out, "500") || !strings.Contains(out, "server") {
		t.Errorf("output:\n%s", out)
	}
}

func TestSummary(t *testing.T) {
	e := newCLIEnv(t)
	out, err := e.run(t, "", "summary")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Clients:", "Projects:", "Recent Projects", "Tasks Overview"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPromptConfirmer(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"yes", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		got, err := newPromptConfirmer(strings.NewReader(tt.input), &out).Confirm(context.Background(), "Delete this task?")
		if err != nil {
			t.Fatalf("%q: %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("%q: got %v, want %v", tt.input, got, tt.want)
		}
		if out.String() != "Delete this task? [y/N]: " {
			t.Errorf("prompt = %q", out.String())
		}
	}
}
