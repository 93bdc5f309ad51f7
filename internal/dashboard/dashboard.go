// Package dashboard instantiates one resource controller per page and wires
// each to the REST client, the failure sinks and the change notifier.
package dashboard

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/starford/atrium/internal/apiclient"
	"github.com/starford/atrium/internal/controller"
	"github.com/starford/atrium/internal/models"
	"github.com/starford/atrium/internal/view"
)

// Confirmation prompts shown before deletes.
const (
	ConfirmDeleteClient  = "Are you sure you want to delete this client?"
	ConfirmDeleteProject = "Delete this project?"
	ConfirmDeleteTask    = "Delete this task?"
)

// Filter keys.
const (
	FilterClient  = "client_id"
	FilterProject = "project_id"
	FilterStatus  = "status"
)

type (
	ClientController  = controller.Controller[models.Client, models.ClientInput]
	ProjectController = controller.Controller[models.Project, models.ProjectInput]
	TaskController    = controller.Controller[models.Task, models.TaskInput]
)

// ClientsPage is the clients list.
type ClientsPage struct {
	*ClientController
}

// Table renders the visible clients.
func (p *ClientsPage) Table() view.Table {
	return view.Clients(p.Visible())
}

// Mount runs the page's initial fetch.
func (p *ClientsPage) Mount(ctx context.Context) {
	p.Load(ctx)
}

// ProjectsPage is the projects list with its own copy of the clients used
// for the client filter and the client column.
type ProjectsPage struct {
	*ProjectController
	Clients *controller.OptionSet[models.Client]
}

// Table renders the visible projects.
func (p *ProjectsPage) Table() view.Table {
	return view.Projects(p.Visible(), p.Clients.Items())
}

// Mount fetches projects and client options concurrently.
func (p *ProjectsPage) Mount(ctx context.Context) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { p.Load(gctx); return nil })
	g.Go(func() error { p.Clients.Load(gctx); return nil })
	_ = g.Wait()
}

// TasksPage is the tasks list with its own copy of the projects used for
// the project filter and the task form.
type TasksPage struct {
	*TaskController
	Projects *controller.OptionSet[models.Project]
}

// Table renders the visible tasks.
func (p *TasksPage) Table() view.Table {
	return view.Tasks(p.Visible())
}

// Mount fetches tasks and project options concurrently.
func (p *TasksPage) Mount(ctx context.Context) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { p.Load(gctx); return nil })
	g.Go(func() error { p.Projects.Load(gctx); return nil })
	_ = g.Wait()
}

// Dashboard holds every page.
type Dashboard struct {
	Clients  *ClientsPage
	Projects *ProjectsPage
	Tasks    *TasksPage

	api      *apiclient.Client
	reporter controller.Reporter
	logger   *slog.Logger
}

// Config wires a Dashboard.
type Config struct {
	API       *apiclient.Client
	Confirmer controller.Confirmer
	Reporter  controller.Reporter
	Notifier  controller.Notifier
	Logger    *slog.Logger
}

// New builds the three pages. Nothing is fetched until Mount.
func New(cfg Config) *Dashboard {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Reporter == nil {
		cfg.Reporter = controller.SlogReporter{Logger: cfg.Logger}
	}

	clients := controller.New[models.Client, models.ClientInput](cfg.API.Clients(), controller.Config[models.Client, models.ClientInput]{
		Resource:      "clients",
		Placement:     controller.Append,
		Confirmer:     cfg.Confirmer,
		ConfirmPrompt: ConfirmDeleteClient,
		Reporter:      cfg.Reporter,
		Notifier:      cfg.Notifier,
	})

	projects := controller.New[models.Project, models.ProjectInput](cfg.API.Projects(), controller.Config[models.Project, models.ProjectInput]{
		Resource:  "projects",
		Placement: controller.Prepend,
		Blank:     models.NewProjectInput,
		Filters: []controller.Filter[models.Project]{
			{Key: FilterClient, Match: func(p models.Project, v string) bool { return p.ClientID == v }},
		},
		Confirmer:     cfg.Confirmer,
		ConfirmPrompt: ConfirmDeleteProject,
		Reporter:      cfg.Reporter,
		Notifier:      cfg.Notifier,
	})

	tasks := controller.New[models.Task, models.TaskInput](cfg.API.Tasks(), controller.Config[models.Task, models.TaskInput]{
		Resource:  "tasks",
		Placement: controller.Prepend,
		Blank:     models.NewTaskInput,
		Filters: []controller.Filter[models.Task]{
			{Key: FilterProject, Match: func(t models.Task, v string) bool { return t.ProjectID == v }},
			{Key: FilterStatus, Match: func(t models.Task, v string) bool { return string(t.Status) == v }},
		},
		Confirmer:     cfg.Confirmer,
		ConfirmPrompt: ConfirmDeleteTask,
		Reporter:      cfg.Reporter,
		Notifier:      cfg.Notifier,
	})

	return &Dashboard{
		Clients: &ClientsPage{ClientController: clients},
		Projects: &ProjectsPage{
			ProjectController: projects,
			Clients:           controller.NewOptionSet[models.Client](cfg.API.Clients(), "clients", cfg.Reporter),
		},
		Tasks: &TasksPage{
			TaskController: tasks,
			Projects:       controller.NewOptionSet[models.Project](cfg.API.Projects(), "projects", cfg.Reporter),
		},
		api:      cfg.API,
		reporter: cfg.Reporter,
		logger:   cfg.Logger,
	}
}

// Mount runs every page's initial fetch concurrently.
func (d *Dashboard) Mount(ctx context.Context) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { d.Clients.Mount(gctx); return nil })
	g.Go(func() error { d.Projects.Mount(gctx); return nil })
	g.Go(func() error { d.Tasks.Mount(gctx); return nil })
	_ = g.Wait()
	d.logger.Info("dashboard mounted",
		slog.Int("clients", len(d.Clients.Items())),
		slog.Int("projects", len(d.Projects.Items())),
		slog.Int("tasks", len(d.Tasks.Items())))
}
