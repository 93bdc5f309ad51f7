package web

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/starford/atrium/internal/dashboard"
	"github.com/starford/atrium/internal/models"
	"github.com/starford/atrium/internal/view"
)

// Config wires the web routes.
type Config struct {
	Dashboard   *dashboard.Dashboard
	AuthEnabled bool
	Token       string
	// Events, if non-nil, is mounted at GET /api/events.
	Events http.Handler
}

// NewRouter creates a chi router with every page and JSON route mounted.
// The pages share the dashboard's controllers, so every open tab sees the
// same lists, filters and form.
func NewRouter(cfg Config) chi.Router {
	d := cfg.Dashboard

	clients := &resource[models.Client, models.ClientInput]{
		name:    "clients",
		prompt:  dashboard.ConfirmDeleteClient,
		ctrl:    d.Clients.ClientController,
		mount:   d.Clients.Mount,
		table:   d.Clients.Table,
		filters: func() []view.FilterControl { return nil },
		form:    view.ClientForm,
		decode:  decodeClient,
		label:   func(c models.Client) string { return c.Name },
	}
	projects := &resource[models.Project, models.ProjectInput]{
		name:   "projects",
		prompt: dashboard.ConfirmDeleteProject,
		ctrl:   d.Projects.ProjectController,
		mount:  d.Projects.Mount,
		table:  d.Projects.Table,
		filters: func() []view.FilterControl {
			return view.ProjectFilters(d.Projects.Filter(dashboard.FilterClient), d.Projects.Clients.Items())
		},
		form: func(in models.ProjectInput, editing bool) view.Form {
			return view.ProjectForm(in, editing, d.Projects.Clients.Items())
		},
		decode: decodeProject,
		label:  func(p models.Project) string { return p.Name },
	}
	tasks := &resource[models.Task, models.TaskInput]{
		name:   "tasks",
		prompt: dashboard.ConfirmDeleteTask,
		ctrl:   d.Tasks.TaskController,
		mount:  d.Tasks.Mount,
		table:  d.Tasks.Table,
		filters: func() []view.FilterControl {
			return view.TaskFilters(d.Tasks.Filter(dashboard.FilterProject), d.Tasks.Filter(dashboard.FilterStatus), d.Tasks.Projects.Items())
		},
		form: func(in models.TaskInput, editing bool) view.Form {
			return view.TaskForm(in, editing, d.Tasks.Projects.Items())
		},
		decode: decodeTask,
		label:  func(t models.Task) string { return t.Title },
	}

	r := chi.NewRouter()
	r.Use(AuthMiddleware(cfg.AuthEnabled, cfg.Token))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		render(w, http.StatusOK, "summary", summaryPage{Nav: nav("/"), Summary: d.Summary(r.Context()).View()})
	})
	clients.routes(r)
	projects.routes(r)
	tasks.routes(r)

	r.Route("/api", func(r chi.Router) {
		r.Get("/summary", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, d.Summary(r.Context()))
		})
		r.Get("/clients", clients.snapshot)
		r.Get("/projects", projects.snapshot)
		r.Get("/tasks", tasks.snapshot)
		if cfg.Events != nil {
			r.Get("/events", cfg.Events.ServeHTTP)
		}
	})

	return r
}

func decodeClient(v url.Values) models.ClientInput {
	return models.ClientInput{
		Name:  v.Get("name"),
		Email: v.Get("email"),
		Phone: v.Get("phone"),
	}
}

func decodeProject(v url.Values) models.ProjectInput {
	return models.ProjectInput{
		Name:        v.Get("name"),
		Description: v.Get("description"),
		Status:      models.ProjectStatus(v.Get("status")),
		ClientID:    v.Get("client_id"),
		StartDate:   v.Get("start_date"),
		DueDate:     v.Get("due_date"),
	}
}

func decodeTask(v url.Values) models.TaskInput {
	return models.TaskInput{
		ProjectID:   v.Get("project_id"),
		Title:       v.Get("title"),
		Description: v.Get("description"),
		Status:      models.TaskStatus(v.Get("status")),
		Priority:    models.Priority(v.Get("priority")),
		Deadline:    v.Get("deadline"),
	}
}
