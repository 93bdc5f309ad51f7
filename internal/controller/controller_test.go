package controller_test

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"

	"github.com/starford/atrium/internal/controller"
	"github.com/starford/atrium/internal/models"
	"github.com/starford/atrium/internal/testutil"
)

var errBoom = errors.New("boom")

// stubBackend is an in-memory Backend with per-verb failure injection.
type stubBackend struct {
	mu      sync.Mutex
	list    []models.Task
	created models.Task
	updated models.Task
	failOn  map[string]error
	calls   []string
}

func (s *stubBackend) record(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, op)
	return s.failOn[op]
}

func (s *stubBackend) List(context.Context) ([]models.Task, error) {
	if err := s.record("list"); err != nil {
		return nil, err
	}
	return slices.Clone(s.list), nil
}

func (s *stubBackend) Create(_ context.Context, in models.TaskInput) (models.Task, error) {
	if err := s.record("create"); err != nil {
		return models.Task{}, err
	}
	if s.created.ID != "" {
		return s.created, nil
	}
	return models.Task{ID: "new", TaskInput: in}, nil
}

func (s *stubBackend) Update(_ context.Context, id string, in models.TaskInput) (models.Task, error) {
	if err := s.record("update:" + id); err != nil {
		return models.Task{}, err
	}
	if s.updated.ID != "" {
		return s.updated, nil
	}
	return models.Task{ID: id, TaskInput: in}, nil
}

func (s *stubBackend) Delete(_ context.Context, id string) error {
	return s.record("delete:" + id)
}

func (s *stubBackend) failing(op string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn == nil {
		s.failOn = map[string]error{}
	}
	s.failOn[op] = errBoom
}

func (s *stubBackend) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.calls)
}

func task(id, project string, status models.TaskStatus) models.Task {
	return models.Task{ID: id, TaskInput: models.TaskInput{
		ProjectID: project, Title: "task " + id, Status: status, Priority: models.PriorityMedium,
	}}
}

func newTasks(t *testing.T, b *stubBackend, confirm controller.Confirmer) (*controller.Controller[models.Task, models.TaskInput], *testutil.Reporter) {
	t.Helper()
	rep := &testutil.Reporter{}
	c := controller.New[models.Task, models.TaskInput](b, controller.Config[models.Task, models.TaskInput]{
		Resource:  "tasks",
		Placement: controller.Prepend,
		Blank:     models.NewTaskInput,
		Filters: []controller.Filter[models.Task]{
			{Key: "project_id", Match: func(t models.Task, v string) bool { return t.ProjectID == v }},
			{Key: "status", Match: func(t models.Task, v string) bool { return string(t.Status) == v }},
		},
		Confirmer:     confirm,
		ConfirmPrompt: "Delete this task?",
		Reporter:      rep,
	})
	c.Load(context.Background())
	return c, rep
}

func ids(items []models.Task) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestLoadReplacesList(t *testing.T) {
	b := &stubBackend{list: []models.Task{task("1", "p1", models.TaskTodo)}}
	c, _ := newTasks(t, b, nil)
	if got := ids(c.Items()); !slices.Equal(got, []string{"1"}) {
		t.Fatalf("items = %v, want [1]", got)
	}

	b.list = []models.Task{task("2", "p1", models.TaskTodo), task("3", "p1", models.TaskDone)}
	c.Load(context.Background())
	if got := ids(c.Items()); !slices.Equal(got, []string{"2", "3"}) {
		t.Errorf("items after reload = %v, want [2 3]", got)
	}
}

func TestLoadFailureKeepsItems(t *testing.T) {
	b := &stubBackend{list: []models.Task{task("1", "p1", models.TaskTodo)}}
	c, rep := newTasks(t, b, nil)

	b.failing("list")
	c.Load(context.Background())

	if got := ids(c.Items()); !slices.Equal(got, []string{"1"}) {
		t.Errorf("items = %v, want [1]", got)
	}
	if n := len(rep.Failures()); n != 1 {
		t.Fatalf("failures = %d, want 1", n)
	}
	if f := rep.Failures()[0]; f.Op != controller.OpLoad || !errors.Is(f.Err, errBoom) {
		t.Errorf("failure = %+v", f)
	}
	if c.Snapshot().Phase != controller.PhaseError {
		t.Errorf("phase = %s, want error", c.Snapshot().Phase)
	}

	c.BeginCreate()
	if c.Snapshot().Phase != controller.PhaseIdle {
		t.Errorf("phase after next action = %s, want idle", c.Snapshot().Phase)
	}
}

func TestCreatePrependsServerRepresentation(t *testing.T) {
	b := &stubBackend{list: []models.Task{task("1", "p1", models.TaskTodo)}}
	c, _ := newTasks(t, b, nil)

	in := models.TaskInput{ProjectID: "p1", Title: "Write report", Status: models.TaskTodo, Priority: models.PriorityHigh}
	b.created = models.Task{ID: "t9", TaskInput: in}

	c.BeginCreate()
	if !c.Submit(context.Background(), in) {
		t.Fatalf("submit failed: %v", c.Err())
	}

	items := c.Items()
	if items[0].ID != "t9" {
		t.Errorf("first task = %q, want t9", items[0].ID)
	}
	if got := ids(items); !slices.Equal(got, []string{"t9", "1"}) {
		t.Errorf("items = %v", got)
	}
	snap := c.Snapshot()
	if snap.FormVisible || snap.Editing != nil {
		t.Errorf("form should be closed: %+v", snap)
	}
}

func TestCreateAppendsForAppendPlacement(t *testing.T) {
	b := &stubBackend{list: []models.Task{task("1", "p1", models.TaskTodo)}}
	c := controller.New[models.Task, models.TaskInput](b, controller.Config[models.Task, models.TaskInput]{
		Resource: "tasks", Placement: controller.Append,
	})
	c.Load(context.Background())
	c.BeginCreate()
	c.Submit(context.Background(), models.TaskInput{Title: "x"})
	if got := ids(c.Items()); !slices.Equal(got, []string{"1", "new"}) {
		t.Errorf("items = %v, want [1 new]", got)
	}
}

func TestCreateWithExistingIDDoesNotDuplicate(t *testing.T) {
	b := &stubBackend{list: []models.Task{task("1", "p1", models.TaskTodo), task("2", "p1", models.TaskTodo)}}
	c, _ := newTasks(t, b, nil)
	b.created = task("2", "p9", models.TaskDone)

	c.BeginCreate()
	c.Submit(context.Background(), models.TaskInput{Title: "dup"})

	items := c.Items()
	if got := ids(items); !slices.Equal(got, []string{"1", "2"}) {
		t.Fatalf("items = %v, want [1 2]", got)
	}
	if items[1].ProjectID != "p9" {
		t.Errorf("existing entry should adopt the server copy: %+v", items[1])
	}
}

func TestUpdateReplacesOnlyMatchingItem(t *testing.T) {
	b := &stubBackend{list: []models.Task{
		task("1", "p1", models.TaskTodo),
		task("2", "p1", models.TaskTodo),
		task("3", "p2", models.TaskTodo),
	}}
	c, _ := newTasks(t, b, nil)
	before := c.Items()

	b.updated = models.Task{ID: "2", TaskInput: models.TaskInput{Title: "canonical", Status: models.TaskDone}}
	c.BeginEdit(before[1])
	if got := c.Snapshot().Form.Title; got != "task 2" {
		t.Errorf("form pre-populated with %q, want %q", got, "task 2")
	}
	if !c.Submit(context.Background(), models.TaskInput{Title: "typed by user"}) {
		t.Fatalf("submit failed: %v", c.Err())
	}

	after := c.Items()
	if got := ids(after); !slices.Equal(got, []string{"1", "2", "3"}) {
		t.Fatalf("order changed: %v", got)
	}
	if after[1].Title != "canonical" {
		t.Errorf("updated title = %q, want server copy", after[1].Title)
	}
	if after[0] != before[0] || after[2] != before[2] {
		t.Error("untouched items changed")
	}
	if calls := b.Calls(); calls[len(calls)-1] != "update:2" {
		t.Errorf("last call = %q, want update:2", calls[len(calls)-1])
	}
}

func TestSubmitFailureLeavesStateAndKeepsDraft(t *testing.T) {
	for _, op := range []string{"create", "update:1"} {
		t.Run(op, func(t *testing.T) {
			b := &stubBackend{list: []models.Task{task("1", "p1", models.TaskTodo)}}
			c, rep := newTasks(t, b, nil)
			if op == "create" {
				c.BeginCreate()
			} else {
				c.BeginEdit(c.Items()[0])
			}
			before := c.Snapshot()

			b.failing(op)
			in := models.TaskInput{Title: "unsaved"}
			if c.Submit(context.Background(), in) {
				t.Fatal("submit should fail")
			}

			after := c.Snapshot()
			if !slices.Equal(ids(after.Items), ids(before.Items)) {
				t.Errorf("items changed: %v", ids(after.Items))
			}
			if !after.FormVisible {
				t.Error("form should stay open")
			}
			if (after.Editing == nil) != (before.Editing == nil) {
				t.Error("editing target changed")
			}
			if after.Form.Title != "unsaved" {
				t.Errorf("form = %q, want user input kept", after.Form.Title)
			}
			if len(rep.Failures()) != 1 {
				t.Errorf("failures = %d, want 1", len(rep.Failures()))
			}
		})
	}
}

func TestCancelClosesForm(t *testing.T) {
	b := &stubBackend{list: []models.Task{task("1", "p1", models.TaskTodo)}}
	c, _ := newTasks(t, b, nil)
	c.BeginEdit(c.Items()[0])
	c.Cancel()
	snap := c.Snapshot()
	if snap.FormVisible || snap.Editing != nil {
		t.Errorf("form still open: %+v", snap)
	}
	if snap.Form.Status != models.TaskTodo || snap.Form.Priority != models.PriorityMedium {
		t.Errorf("blank form = %+v, want defaults", snap.Form)
	}
}

func TestRemoveConfirmed(t *testing.T) {
	b := &stubBackend{list: []models.Task{task("1", "p1", models.TaskTodo), task("2", "p1", models.TaskTodo)}}
	var prompt string
	confirm := controller.ConfirmFunc(func(_ context.Context, p string) (bool, error) {
		prompt = p
		return true, nil
	})
	c, _ := newTasks(t, b, confirm)

	if !c.Remove(context.Background(), "1") {
		t.Fatal("remove failed")
	}
	if got := ids(c.Items()); !slices.Equal(got, []string{"2"}) {
		t.Errorf("items = %v, want [2]", got)
	}
	if prompt != "Delete this task?" {
		t.Errorf("prompt = %q", prompt)
	}
}

func TestRemoveDeclinedSendsNothing(t *testing.T) {
	b := &stubBackend{list: []models.Task{task("1", "p1", models.TaskTodo)}}
	c, _ := newTasks(t, b, controller.Decline)
	calls := len(b.Calls())

	if c.Remove(context.Background(), "1") {
		t.Fatal("declined remove reported success")
	}
	if len(b.Calls()) != calls {
		t.Errorf("request issued without confirmation: %v", b.Calls())
	}
	if got := ids(c.Items()); !slices.Equal(got, []string{"1"}) {
		t.Errorf("items = %v, want [1]", got)
	}
}

func TestRemoveConfirmerErrorIsReported(t *testing.T) {
	b := &stubBackend{list: []models.Task{task("1", "p1", models.TaskTodo)}}
	confirm := controller.ConfirmFunc(func(context.Context, string) (bool, error) { return false, errBoom })
	c, rep := newTasks(t, b, confirm)

	c.Remove(context.Background(), "1")
	if len(rep.Failures()) != 1 || !errors.Is(rep.Failures()[0].Err, controller.ErrNotConfirmed) {
		t.Errorf("failures = %+v", rep.Failures())
	}
	if len(c.Items()) != 1 {
		t.Error("item removed despite confirmer error")
	}
}

func TestRemoveFailureKeepsItem(t *testing.T) {
	b := &stubBackend{list: []models.Task{task("1", "p1", models.TaskTodo)}}
	c, rep := newTasks(t, b, controller.Accept)
	b.failing("delete:1")

	if c.Remove(context.Background(), "1") {
		t.Fatal("failed remove reported success")
	}
	if len(c.Items()) != 1 {
		t.Error("item removed despite server failure")
	}
	if len(rep.Failures()) != 1 {
		t.Errorf("failures = %d, want 1", len(rep.Failures()))
	}
}

func TestContextConfirmer(t *testing.T) {
	b := &stubBackend{list: []models.Task{task("1", "p1", models.TaskTodo)}}
	c, _ := newTasks(t, b, controller.ContextConfirmer)

	if c.Remove(context.Background(), "1") {
		t.Fatal("no decision should decline")
	}
	if !c.Remove(controller.WithDecision(context.Background(), true), "1") {
		t.Fatal("explicit yes should confirm")
	}
}

func TestFiltersAreLocalAndCombined(t *testing.T) {
	b := &stubBackend{list: []models.Task{
		task("1", "p1", models.TaskTodo),
		task("2", "p1", models.TaskDone),
		task("3", "p2", models.TaskTodo),
	}}
	c, _ := newTasks(t, b, nil)
	calls := len(b.Calls())

	c.SetFilter("project_id", "p1")
	if got := ids(c.Visible()); !slices.Equal(got, []string{"1", "2"}) {
		t.Errorf("project filter = %v", got)
	}
	c.SetFilter("status", "todo")
	if got := ids(c.Visible()); !slices.Equal(got, []string{"1"}) {
		t.Errorf("project+status filter = %v", got)
	}
	c.SetFilter("status", "todo")
	if got := ids(c.Visible()); !slices.Equal(got, []string{"1"}) {
		t.Errorf("filter not idempotent: %v", got)
	}
	if len(c.Items()) != 3 {
		t.Error("filtering mutated items")
	}

	c.SetFilter("project_id", "")
	c.SetFilter("status", "")
	c.SetFilter("unknown", "x")
	if got := ids(c.Visible()); !slices.Equal(got, ids(c.Items())) {
		t.Errorf("visible = %v, want all items", got)
	}
	if len(b.Calls()) != calls {
		t.Error("filtering reached the backend")
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	b := &stubBackend{list: []models.Task{task("1", "p1", models.TaskTodo)}}
	c, _ := newTasks(t, b, nil)
	snap := c.Snapshot()
	snap.Items[0].Title = "mutated"
	snap.Filters["status"] = "done"
	if c.Items()[0].Title == "mutated" || c.Filter("status") != "" {
		t.Error("snapshot aliases controller state")
	}
}

type notifyRecorder struct {
	mu     sync.Mutex
	events []string
}

func (n *notifyRecorder) Notify(resource, op, id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, resource+"."+op+":"+id)
}

func TestNotifierSeesSuccessfulOperations(t *testing.T) {
	b := &stubBackend{list: []models.Task{task("1", "p1", models.TaskTodo)}}
	n := &notifyRecorder{}
	c := controller.New[models.Task, models.TaskInput](b, controller.Config[models.Task, models.TaskInput]{
		Resource: "tasks", Confirmer: controller.Accept, Notifier: n,
	})
	ctx := context.Background()
	c.Load(ctx)
	c.BeginCreate()
	c.Submit(ctx, models.TaskInput{Title: "x"})
	b.failing("delete:1")
	c.Remove(ctx, "1")

	want := []string{"tasks.load:", "tasks.create:new"}
	if !slices.Equal(n.events, want) {
		t.Errorf("events = %v, want %v", n.events, want)
	}
}
