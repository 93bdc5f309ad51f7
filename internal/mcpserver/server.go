// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the dashboard's clients, projects and tasks as tools for LLM
// integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/atrium/internal/controller"
	"github.com/starford/atrium/internal/dashboard"
	"github.com/starford/atrium/internal/models"
)

const dataModelURI = "atrium://data-model"

// Server wraps the MCP server with the dashboard tools.
type Server struct {
	mcp  *server.MCPServer
	dash *dashboard.Dashboard

	// mu serializes tool calls. Each one drives a shared controller
	// through several steps (open form, submit, read back).
	mu sync.Mutex
}

// New creates a new MCP server with all tools registered. The dashboard's
// controllers must use controller.ContextConfirmer so that the confirm
// argument of delete_* reaches them.
func New(d *dashboard.Dashboard, version string) *Server {
	s := &Server{dash: d}

	s.mcp = server.NewMCPServer(
		"Atrium",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_clients",
		mcp.WithDescription("List all clients."),
	), s.listClients)

	s.mcp.AddTool(mcp.NewTool("list_projects",
		mcp.WithDescription("List projects, optionally only those of one client."),
		mcp.WithString("client_id", mcp.Description("Only projects of this client (empty for all)")),
	), s.listProjects)

	s.mcp.AddTool(mcp.NewTool("list_tasks",
		mcp.WithDescription("List tasks, optionally narrowed by project and status."),
		mcp.WithString("project_id", mcp.Description("Only tasks of this project (empty for all)")),
		mcp.WithString("status", mcp.Description("Only tasks with this status"), mcp.Enum("todo", "in_progress", "done")),
	), s.listTasks)

	s.mcp.AddTool(mcp.NewTool("save_client",
		mcp.WithDescription("Create a client, or update it when id is given."),
		mcp.WithString("id", mcp.Description("Client to update; omit to create")),
		mcp.WithString("name", mcp.Description("Client name (required on create)")),
		mcp.WithString("email", mcp.Description("Email address")),
		mcp.WithString("phone", mcp.Description("Phone number")),
	), s.saveClient)

	s.mcp.AddTool(mcp.NewTool("save_project",
		mcp.WithDescription("Create a project, or update it when id is given. Read "+dataModelURI+" for the field rules."),
		mcp.WithString("id", mcp.Description("Project to update; omit to create")),
		mcp.WithString("name", mcp.Description("Project name (required on create)")),
		mcp.WithString("description", mcp.Description("Free text")),
		mcp.WithString("status", mcp.Description("Project status"), mcp.Enum("active", "completed", "on_hold")),
		mcp.WithString("client_id", mcp.Description("Owning client id")),
		mcp.WithString("start_date", mcp.Description("YYYY-MM-DD")),
		mcp.WithString("due_date", mcp.Description("YYYY-MM-DD")),
	), s.saveProject)

	s.mcp.AddTool(mcp.NewTool("save_task",
		mcp.WithDescription("Create a task, or update it when id is given. Read "+dataModelURI+" for the field rules."),
		mcp.WithString("id", mcp.Description("Task to update; omit to create")),
		mcp.WithString("project_id", mcp.Description("Owning project id")),
		mcp.WithString("title", mcp.Description("Task title (required on create)")),
		mcp.WithString("description", mcp.Description("Free text")),
		mcp.WithString("status", mcp.Description("Task status"), mcp.Enum("todo", "in_progress", "done")),
		mcp.WithString("priority", mcp.Description("Task priority"), mcp.Enum("low", "medium", "high")),
		mcp.WithString("deadline", mcp.Description("YYYY-MM-DD")),
	), s.saveTask)

	for _, name := range []string{"client", "project", "task"} {
		s.mcp.AddTool(mcp.NewTool("delete_"+name,
			mcp.WithDescription(fmt.Sprintf("Delete a %s. Nothing happens unless confirm is true; ask the user first.", name)),
			mcp.WithString("id", mcp.Required(), mcp.Description(fmt.Sprintf("The %s id", name))),
			mcp.WithBoolean("confirm", mcp.Description("Must be true to delete")),
		), s.deleteHandler(name))
	}

	s.mcp.AddTool(mcp.NewTool("summary",
		mcp.WithDescription("Counts of clients, projects and tasks, the most recent projects and the task status overview."),
	), s.summary)

	s.mcp.AddTool(mcp.NewTool("get_data_model",
		mcp.WithDescription("Returns the fields, enums and rules of clients, projects and tasks."),
	), s.getDataModel)

	s.mcp.AddResource(
		mcp.NewResource(dataModelURI, "Data Model",
			mcp.WithResourceDescription("Fields, enums and rules of clients, projects and tasks."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readDataModelResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

// loaded reports the controller's failure after a load, if any.
func loaded(phase controller.Phase, err error) *mcp.CallToolResult {
	if phase == controller.PhaseError && err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return nil
}

func (s *Server) listClients(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	page := s.dash.Clients
	page.Mount(ctx)
	if res := loaded(page.Snapshot().Phase, page.Err()); res != nil {
		return res, nil
	}
	return jsonResult(page.Visible())
}

func (s *Server) listProjects(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	page := s.dash.Projects
	page.Mount(ctx)
	if res := loaded(page.Snapshot().Phase, page.Err()); res != nil {
		return res, nil
	}
	page.SetFilter(dashboard.FilterClient, req.GetString("client_id", ""))
	return jsonResult(page.Visible())
}

func (s *Server) listTasks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	page := s.dash.Tasks
	page.Mount(ctx)
	if res := loaded(page.Snapshot().Phase, page.Err()); res != nil {
		return res, nil
	}
	page.SetFilter(dashboard.FilterProject, req.GetString("project_id", ""))
	page.SetFilter(dashboard.FilterStatus, req.GetString("status", ""))
	return jsonResult(page.Visible())
}

type validatable interface {
	Validate() error
}

// save opens the controller's form for id (or a blank one), lets apply
// overwrite the provided fields and submits it.
func save[E controller.Entity[I], I validatable](ctx context.Context, c *controller.Controller[E, I], id string, apply func(in *I)) (*mcp.CallToolResult, error) {
	if id != "" {
		if _, ok := c.Find(id); !ok {
			c.Load(ctx)
		}
		item, ok := c.Find(id)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
		}
		c.BeginEdit(item)
	} else {
		c.BeginCreate()
	}

	in := c.Snapshot().Form
	apply(&in)
	if err := in.Validate(); err != nil {
		c.Cancel()
		return mcp.NewToolResultError(err.Error()), nil
	}

	before := c.Items()
	if !c.Submit(ctx, in) {
		err := c.Err()
		c.Cancel()
		if err == nil {
			err = errors.New("save failed")
		}
		return mcp.NewToolResultError(err.Error()), nil
	}

	if id != "" {
		item, _ := c.Find(id)
		return jsonResult(item)
	}
	for _, e := range c.Items() {
		if !containsKey(before, e.Key()) {
			return jsonResult(e)
		}
	}
	return mcp.NewToolResultText("saved"), nil
}

func containsKey[E interface{ Key() string }](items []E, id string) bool {
	for _, e := range items {
		if e.Key() == id {
			return true
		}
	}
	return false
}

// set overwrites *dst with the argument key when the caller supplied it.
func set[T ~string](req mcp.CallToolRequest, key string, dst *T) {
	if v, ok := req.GetArguments()[key].(string); ok {
		*dst = T(v)
	}
}

func (s *Server) saveClient(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return save(ctx, s.dash.Clients.ClientController, req.GetString("id", ""), func(in *models.ClientInput) {
		set(req, "name", &in.Name)
		set(req, "email", &in.Email)
		set(req, "phone", &in.Phone)
	})
}

func (s *Server) saveProject(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return save(ctx, s.dash.Projects.ProjectController, req.GetString("id", ""), func(in *models.ProjectInput) {
		set(req, "name", &in.Name)
		set(req, "description", &in.Description)
		set(req, "status", &in.Status)
		set(req, "client_id", &in.ClientID)
		set(req, "start_date", &in.StartDate)
		set(req, "due_date", &in.DueDate)
	})
}

func (s *Server) saveTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return save(ctx, s.dash.Tasks.TaskController, req.GetString("id", ""), func(in *models.TaskInput) {
		set(req, "project_id", &in.ProjectID)
		set(req, "title", &in.Title)
		set(req, "description", &in.Description)
		set(req, "status", &in.Status)
		set(req, "priority", &in.Priority)
		set(req, "deadline", &in.Deadline)
	})
}

type remover interface {
	Remove(ctx context.Context, id string) bool
	Err() error
}

func (s *Server) deleteHandler(name string) server.ToolHandlerFunc {
	var c remover
	switch name {
	case "client":
		c = s.dash.Clients
	case "project":
		c = s.dash.Projects
	default:
		c = s.dash.Tasks
	}
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		confirm := req.GetBool("confirm", false)

		s.mu.Lock()
		defer s.mu.Unlock()
		if c.Remove(controller.WithDecision(ctx, confirm), id) {
			return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", id)), nil
		}
		if !confirm {
			return mcp.NewToolResultError("not deleted: call again with confirm=true once the user agreed"), nil
		}
		if err := c.Err(); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("not deleted: %s", id)), nil
	}
}

func (s *Server) summary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return jsonResult(s.dash.Summary(ctx))
}

func (s *Server) getDataModel(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(DataModel), nil
}

func (s *Server) readDataModelResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      dataModelURI,
			MIMEType: "text/markdown",
			Text:     DataModel,
		},
	}, nil
}
