package apiclient

import (
	"context"
	"net/url"

	"github.com/starford/atrium/internal/models"
)

// Resource is the REST collection at /{name} holding entities E created
// from inputs I.
type Resource[E any, I any] struct {
	client *Client
	path   string
}

// NewResource binds a collection path (e.g. "/clients") to c.
func NewResource[E any, I any](c *Client, path string) *Resource[E, I] {
	return &Resource[E, I]{client: c, path: path}
}

// List handles GET /{name}.
func (r *Resource[E, I]) List(ctx context.Context) ([]E, error) {
	var out []E
	if err := r.client.do(ctx, "GET", r.path, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []E{}
	}
	return out, nil
}

// Create handles POST /{name}. The returned entity carries the server ID.
func (r *Resource[E, I]) Create(ctx context.Context, in I) (E, error) {
	var out E
	err := r.client.do(ctx, "POST", r.path, in, &out)
	return out, err
}

// Update handles PUT /{name}/{id} and returns the canonical entity.
func (r *Resource[E, I]) Update(ctx context.Context, id string, in I) (E, error) {
	var out E
	err := r.client.do(ctx, "PUT", r.itemPath(id), in, &out)
	return out, err
}

// Delete handles DELETE /{name}/{id}.
func (r *Resource[E, I]) Delete(ctx context.Context, id string) error {
	return r.client.do(ctx, "DELETE", r.itemPath(id), nil, nil)
}

// Count handles GET /{name}/count.
func (r *Resource[E, I]) Count(ctx context.Context) (int, error) {
	var out models.Count
	if err := r.client.do(ctx, "GET", r.path+"/count", nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

func (r *Resource[E, I]) itemPath(id string) string {
	return r.path + "/" + url.PathEscape(id)
}

// Clients returns the /clients collection.
func (c *Client) Clients() *Resource[models.Client, models.ClientInput] {
	return NewResource[models.Client, models.ClientInput](c, "/clients")
}

// Projects returns the /projects collection.
func (c *Client) Projects() *Resource[models.Project, models.ProjectInput] {
	return NewResource[models.Project, models.ProjectInput](c, "/projects")
}

// Tasks returns the /tasks collection.
func (c *Client) Tasks() *Resource[models.Task, models.TaskInput] {
	return NewResource[models.Task, models.TaskInput](c, "/tasks")
}

// RecentProjects handles GET /projects/recent.
func (c *Client) RecentProjects(ctx context.Context) ([]models.Project, error) {
	var out []models.Project
	if err := c.do(ctx, "GET", "/projects/recent", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// TaskOverview handles GET /tasks/overview.
func (c *Client) TaskOverview(ctx context.Context) (models.TaskOverview, error) {
	var out models.TaskOverview
	err := c.do(ctx, "GET", "/tasks/overview", nil, &out)
	return out, err
}
