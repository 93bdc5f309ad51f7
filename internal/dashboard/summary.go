package dashboard

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/atrium/internal/controller"
	"github.com/starford/atrium/internal/models"
	"github.com/starford/atrium/internal/view"
)

// Summary holds the figures of the home page. Parts that failed to load are
// left zero.
type Summary struct {
	Clients  int                 `json:"clients"`
	Projects int                 `json:"projects"`
	Tasks    int                 `json:"tasks"`
	Recent   []models.Project    `json:"recent_projects"`
	Overview models.TaskOverview `json:"tasks_overview"`

	clientList []models.Client
}

// View renders the summary.
func (s Summary) View() view.Summary {
	return view.NewSummary(s.Clients, s.Projects, s.Tasks, s.Recent, s.clientList, s.Overview)
}

// Summary fetches the auxiliary read endpoints concurrently. Each failure is
// reported and does not stop the others.
func (d *Dashboard) Summary(ctx context.Context) Summary {
	var s Summary
	g, gctx := errgroup.WithContext(ctx)

	part := func(resource string, fn func(context.Context) error) {
		g.Go(func() error {
			if err := fn(gctx); err != nil {
				d.reporter.Report(ctx, controller.Failure{Resource: resource, Op: "summary", Err: err, At: time.Now()})
			}
			return nil
		})
	}

	part("clients", func(ctx context.Context) (err error) {
		s.Clients, err = d.api.Clients().Count(ctx)
		return err
	})
	part("projects", func(ctx context.Context) (err error) {
		s.Projects, err = d.api.Projects().Count(ctx)
		return err
	})
	part("tasks", func(ctx context.Context) (err error) {
		s.Tasks, err = d.api.Tasks().Count(ctx)
		return err
	})
	part("projects", func(ctx context.Context) (err error) {
		s.Recent, err = d.api.RecentProjects(ctx)
		return err
	})
	part("tasks", func(ctx context.Context) (err error) {
		s.Overview, err = d.api.TaskOverview(ctx)
		return err
	})
	part("clients", func(ctx context.Context) (err error) {
		s.clientList, err = d.api.Clients().List(ctx)
		return err
	})

	_ = g.Wait()
	if s.Recent == nil {
		s.Recent = []models.Project{}
	}
	return s
}
