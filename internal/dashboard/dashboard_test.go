package dashboard

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/starford/atrium/internal/apiclient"
	"github.com/starford/atrium/internal/controller"
	"github.com/starford/atrium/internal/models"
	"github.com/starford/atrium/internal/testutil"
)

func testDashboard(t *testing.T) (*Dashboard, *testutil.Backend, *testutil.Reporter) {
	t.Helper()
	backend := testutil.NewBackend(t)
	api, err := apiclient.New(backend.URL)
	if err != nil {
		t.Fatal(err)
	}
	rep := &testutil.Reporter{}
	d := New(Config{
		API:       api,
		Confirmer: controller.Accept,
		Reporter:  rep,
		Logger:    slog.New(slog.NewJSONHandler(io.Discard, nil)),
	})
	return d, backend, rep
}

func seed(b *testutil.Backend) {
	b.Seed("clients",
		models.Client{ID: "c1", ClientInput: models.ClientInput{Name: "Acme", Email: "a@x.com", Phone: "555"}},
		models.Client{ID: "c2", ClientInput: models.ClientInput{Name: "Globex"}},
	)
	b.Seed("projects",
		models.Project{ID: "p1", ProjectInput: models.ProjectInput{Name: "Site", ClientID: "c1", Status: models.ProjectActive}},
		models.Project{ID: "p2", ProjectInput: models.ProjectInput{Name: "App", ClientID: "c2", Status: models.ProjectOnHold}},
		models.Project{ID: "p3", ProjectInput: models.ProjectInput{Name: "Orphan", ClientID: "c9", Status: models.ProjectCompleted}},
	)
	b.Seed("tasks",
		models.Task{ID: "t1", TaskInput: models.TaskInput{ProjectID: "p1", Title: "Design", Status: models.TaskDone, Priority: models.PriorityLow}},
		models.Task{ID: "t2", TaskInput: models.TaskInput{ProjectID: "p1", Title: "Build", Status: models.TaskInProgress, Priority: models.PriorityHigh}},
		models.Task{ID: "t3", TaskInput: models.TaskInput{ProjectID: "p2", Title: "Plan", Status: models.TaskTodo, Priority: models.PriorityMedium}},
	)
}

func TestMountLoadsEveryPage(t *testing.T) {
	d, backend, rep := testDashboard(t)
	seed(backend)
	d.Mount(context.Background())

	if n := len(d.Clients.Items()); n != 2 {
		t.Errorf("clients = %d, want 2", n)
	}
	if n := len(d.Projects.Items()); n != 3 {
		t.Errorf("projects = %d, want 3", n)
	}
	if n := len(d.Projects.Clients.Items()); n != 2 {
		t.Errorf("project page client options = %d, want 2", n)
	}
	if n := len(d.Tasks.Projects.Items()); n != 3 {
		t.Errorf("task page project options = %d, want 3", n)
	}
	if len(rep.Failures()) != 0 {
		t.Errorf("unexpected failures: %+v", rep.Failures())
	}
}

func TestClientsTableScenario(t *testing.T) {
	d, backend, _ := testDashboard(t)
	d.Clients.Mount(context.Background())
	if text := d.Clients.Table().Text(); !strings.Contains(text, "No clients found.") {
		t.Errorf("empty table = %q", text)
	}

	backend.Seed("clients", models.Client{ID: "1", ClientInput: models.ClientInput{Name: "Acme", Email: "a@x.com", Phone: "555"}})
	d.Clients.Mount(context.Background())
	table := d.Clients.Table()
	if len(table.Rows) != 1 || strings.Join(table.Rows[0].Cells, " / ") != "Acme / a@x.com / 555" {
		t.Errorf("rows = %+v", table.Rows)
	}
}

func TestProjectsFilterByClient(t *testing.T) {
	d, backend, _ := testDashboard(t)
	seed(backend)
	d.Projects.Mount(context.Background())

	d.Projects.SetFilter(FilterClient, "c2")
	table := d.Projects.Table()
	if len(table.Rows) != 1 || table.Rows[0].ID != "p2" || table.Rows[0].Cells[1] != "Globex" {
		t.Errorf("filtered rows = %+v", table.Rows)
	}

	d.Projects.SetFilter(FilterClient, "")
	table = d.Projects.Table()
	if len(table.Rows) != 3 || table.Rows[2].Cells[1] != models.Placeholder {
		t.Errorf("unfiltered rows = %+v", table.Rows)
	}
}

func TestTasksFilterAndCreateScenario(t *testing.T) {
	d, backend, _ := testDashboard(t)
	seed(backend)
	ctx := context.Background()
	d.Tasks.Mount(ctx)

	d.Tasks.SetFilter(FilterProject, "p1")
	d.Tasks.SetFilter(FilterStatus, string(models.TaskInProgress))
	if rows := d.Tasks.Table().Rows; len(rows) != 1 || rows[0].ID != "t2" {
		t.Errorf("filtered rows = %+v", rows)
	}

	d.Tasks.BeginCreate()
	ok := d.Tasks.Submit(ctx, models.TaskInput{ProjectID: "p1", Title: "Write report", Status: models.TaskTodo, Priority: models.PriorityHigh})
	if !ok {
		t.Fatalf("submit: %v", d.Tasks.Err())
	}
	first := d.Tasks.Items()[0]
	if first.Title != "Write report" || first.ID == "" {
		t.Errorf("first task = %+v, want the created one", first)
	}
}

func TestProjectsPrependAndClientsAppend(t *testing.T) {
	d, backend, _ := testDashboard(t)
	seed(backend)
	ctx := context.Background()
	d.Mount(ctx)

	d.Projects.BeginCreate()
	d.Projects.Submit(ctx, models.ProjectInput{Name: "New", ClientID: "c1", Status: models.ProjectActive})
	if got := d.Projects.Items()[0].Name; got != "New" {
		t.Errorf("first project = %q, want New", got)
	}

	d.Clients.BeginCreate()
	d.Clients.Submit(ctx, models.ClientInput{Name: "Initech"})
	items := d.Clients.Items()
	if got := items[len(items)-1].Name; got != "Initech" {
		t.Errorf("last client = %q, want Initech", got)
	}
}

func TestSummary(t *testing.T) {
	d, backend, rep := testDashboard(t)
	seed(backend)

	s := d.Summary(context.Background())
	if s.Clients != 2 || s.Projects != 3 || s.Tasks != 3 {
		t.Errorf("counts = %d/%d/%d", s.Clients, s.Projects, s.Tasks)
	}
	if len(s.Recent) != 3 || s.Recent[0].ID != "p3" {
		t.Errorf("recent = %+v", s.Recent)
	}
	if s.Overview.Total() != 3 {
		t.Errorf("overview = %+v", s.Overview)
	}
	if v := s.View(); v.Recent.Rows[1].Cells[1] != "Globex" {
		t.Errorf("recent client = %q", v.Recent.Rows[1].Cells[1])
	}
	if len(rep.Failures()) != 0 {
		t.Errorf("failures = %+v", rep.Failures())
	}
}

func TestSummaryPartialFailure(t *testing.T) {
	d, backend, rep := testDashboard(t)
	seed(backend)
	backend.Fail("GET", "tasks", 500)

	s := d.Summary(context.Background())
	if s.Tasks != 0 || s.Overview.Total() != 0 {
		t.Errorf("failed parts should be zero: %+v", s)
	}
	if s.Clients != 2 {
		t.Errorf("clients = %d, want 2", s.Clients)
	}
	if n := len(rep.Failures()); n != 2 {
		t.Errorf("failures = %d, want 2 (count and overview)", n)
	}
}
