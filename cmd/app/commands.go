package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/starford/atrium/internal"
	"github.com/starford/atrium/internal/controller"
	"github.com/starford/atrium/internal/dashboard"
	"github.com/starford/atrium/internal/journal"
	"github.com/starford/atrium/internal/models"
	"github.com/starford/atrium/internal/view"
)

type commands struct {
	stdin  io.Reader
	stdout io.Writer
}

// withEnv opens the shared environment with logs on stderr.
func (c *commands) withEnv(cmd *cli.Command, fn func(env *internal.Env) error) error {
	cfg, path, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	env, err := internal.Open(
		internal.WithConfig(cfg),
		internal.WithConfigPath(path),
		internal.WithLogOutput(os.Stderr),
	)
	if err != nil {
		return err
	}
	defer env.Close()
	return fn(env)
}

// confirmer asks on stdin unless --yes was given.
func (c *commands) confirmer(cmd *cli.Command) controller.Confirmer {
	if cmd.Bool("yes") {
		return controller.Accept
	}
	return newPromptConfirmer(c.stdin, c.stdout)
}

func (c *commands) summary(ctx context.Context, cmd *cli.Command) error {
	return c.withEnv(cmd, func(env *internal.Env) error {
		d := env.Dashboard(controller.Decline, nil)
		_, err := io.WriteString(c.stdout, d.Summary(ctx).View().Text())
		return err
	})
}

func (c *commands) diagnostics(ctx context.Context, cmd *cli.Command) error {
	return c.withEnv(cmd, func(env *internal.Env) error {
		entries, err := env.Journal.Recent(ctx, journal.Filter{
			Resource: cmd.String("resource"),
			Kind:     cmd.String("kind"),
			Limit:    int(cmd.Int("limit")),
		})
		if err != nil {
			return err
		}
		t := view.Table{
			Columns: []string{"Time", "Resource", "Op", "Target", "Kind", "Status", "Message"},
			Empty:   "No failures recorded.",
		}
		for _, e := range entries {
			status := models.Placeholder
			if e.Status != 0 {
				status = strconv.Itoa(e.Status)
			}
			t.Rows = append(t.Rows, view.Row{ID: strconv.FormatInt(e.ID, 10), Cells: []string{
				e.OccurredAt.Local().Format("2006-01-02 15:04:05"),
				e.Resource, e.Op, orPlaceholder(e.Target), e.Kind, status, e.Message,
			}})
		}
		_, err = io.WriteString(c.stdout, t.Text())
		return err
	})
}

func orPlaceholder(s string) string {
	if s == "" {
		return models.Placeholder
	}
	return s
}

type validatable interface {
	Validate() error
}

// page is what the resource subcommands need from a dashboard page.
type page[E controller.Entity[I], I validatable] struct {
	ctrl  *controller.Controller[E, I]
	mount func(ctx context.Context)
	table func() view.Table
}

// resourceCommand describes the list/create/update/delete subcommands of
// one resource.
type resourceCommand[E controller.Entity[I], I validatable] struct {
	name     string
	singular string
	// fields are the flags of create and update.
	fields []cli.Flag
	// filters are the extra flags of list, applied by filter.
	filters []cli.Flag
	page    func(d *dashboard.Dashboard) page[E, I]
	filter  func(cmd *cli.Command, c *controller.Controller[E, I])
	// apply copies every set field flag onto in.
	apply func(cmd *cli.Command, in *I)
}

func (rc resourceCommand[E, I]) command(c *commands) *cli.Command {
	yes := &cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Delete without asking"}
	return &cli.Command{
		Name:  rc.name,
		Usage: "Manage " + rc.name,
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List " + rc.name,
				Flags:  rc.filters,
				Action: func(ctx context.Context, cmd *cli.Command) error { return rc.list(ctx, cmd, c) },
			},
			{
				Name:   "create",
				Usage:  "Create a " + rc.singular,
				Flags:  rc.fields,
				Action: func(ctx context.Context, cmd *cli.Command) error { return rc.save(ctx, cmd, c, "") },
			},
			{
				Name:      "update",
				Usage:     "Update a " + rc.singular,
				ArgsUsage: "<id>",
				Flags:     rc.fields,
				Action: func(ctx context.Context, cmd *cli.Command) error {
					id := cmd.Args().First()
					if id == "" {
						return errors.New("missing id")
					}
					return rc.save(ctx, cmd, c, id)
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete a " + rc.singular,
				ArgsUsage: "<id>",
				Flags:     []cli.Flag{yes},
				Action:    func(ctx context.Context, cmd *cli.Command) error { return rc.remove(ctx, cmd, c) },
			},
		},
	}
}

func (rc resourceCommand[E, I]) list(ctx context.Context, cmd *cli.Command, c *commands) error {
	return c.withEnv(cmd, func(env *internal.Env) error {
		p := rc.page(env.Dashboard(controller.Decline, nil))
		p.mount(ctx)
		if err := p.ctrl.Err(); err != nil {
			return err
		}
		if rc.filter != nil {
			rc.filter(cmd, p.ctrl)
		}
		_, err := io.WriteString(c.stdout, p.table().Text())
		return err
	})
}

func (rc resourceCommand[E, I]) save(ctx context.Context, cmd *cli.Command, c *commands, id string) error {
	return c.withEnv(cmd, func(env *internal.Env) error {
		p := rc.page(env.Dashboard(controller.Decline, nil))
		if id != "" {
			p.ctrl.Load(ctx)
			if err := p.ctrl.Err(); err != nil {
				return err
			}
			item, ok := p.ctrl.Find(id)
			if !ok {
				return fmt.Errorf("%s %s: not found", rc.singular, id)
			}
			p.ctrl.BeginEdit(item)
		} else {
			p.ctrl.BeginCreate()
		}

		in := p.ctrl.Snapshot().Form
		rc.apply(cmd, &in)
		if err := in.Validate(); err != nil {
			return fmt.Errorf("invalid %s: %w", rc.singular, err)
		}

		before := p.ctrl.Items()
		if !p.ctrl.Submit(ctx, in) {
			return p.ctrl.Err()
		}
		if id != "" {
			fmt.Fprintf(c.stdout, "updated %s %s\n", rc.singular, id)
			return nil
		}
		for _, e := range p.ctrl.Items() {
			if !containsKey(before, e.Key()) {
				fmt.Fprintf(c.stdout, "created %s %s\n", rc.singular, e.Key())
				return nil
			}
		}
		fmt.Fprintf(c.stdout, "created %s\n", rc.singular)
		return nil
	})
}

func containsKey[E interface{ Key() string }](items []E, id string) bool {
	for _, e := range items {
		if e.Key() == id {
			return true
		}
	}
	return false
}

func (rc resourceCommand[E, I]) remove(ctx context.Context, cmd *cli.Command, c *commands) error {
	id := cmd.Args().First()
	if id == "" {
		return errors.New("missing id")
	}
	return c.withEnv(cmd, func(env *internal.Env) error {
		p := rc.page(env.Dashboard(c.confirmer(cmd), nil))
		if p.ctrl.Remove(ctx, id) {
			fmt.Fprintf(c.stdout, "deleted %s %s\n", rc.singular, id)
			return nil
		}
		if err := p.ctrl.Err(); err != nil {
			return err
		}
		fmt.Fprintln(c.stdout, "Aborted.")
		return nil
	})
}

// setString copies the flag name onto dst when it was given.
func setString[T ~string](cmd *cli.Command, name string, dst *T) {
	if cmd.IsSet(name) {
		*dst = T(cmd.String(name))
	}
}

func clientsCommand(c *commands) *cli.Command {
	return resourceCommand[models.Client, models.ClientInput]{
		name:     "clients",
		singular: "client",
		fields: []cli.Flag{
			&cli.StringFlag{Name: "name", Usage: "Client name"},
			&cli.StringFlag{Name: "email", Usage: "Email address"},
			&cli.StringFlag{Name: "phone", Usage: "Phone number"},
		},
		page: func(d *dashboard.Dashboard) page[models.Client, models.ClientInput] {
			return page[models.Client, models.ClientInput]{ctrl: d.Clients.ClientController, mount: d.Clients.Mount, table: d.Clients.Table}
		},
		apply: func(cmd *cli.Command, in *models.ClientInput) {
			setString(cmd, "name", &in.Name)
			setString(cmd, "email", &in.Email)
			setString(cmd, "phone", &in.Phone)
		},
	}.command(c)
}

func projectsCommand(c *commands) *cli.Command {
	return resourceCommand[models.Project, models.ProjectInput]{
		name:     "projects",
		singular: "project",
		fields: []cli.Flag{
			&cli.StringFlag{Name: "name", Usage: "Project name"},
			&cli.StringFlag{Name: "description", Usage: "Free text"},
			&cli.StringFlag{Name: "status", Usage: "active, completed or on_hold"},
			&cli.StringFlag{Name: "client", Usage: "Owning client id"},
			&cli.StringFlag{Name: "start-date", Usage: "YYYY-MM-DD"},
			&cli.StringFlag{Name: "due-date", Usage: "YYYY-MM-DD"},
		},
		filters: []cli.Flag{
			&cli.StringFlag{Name: "client", Usage: "Only projects of this client id"},
		},
		page: func(d *dashboard.Dashboard) page[models.Project, models.ProjectInput] {
			return page[models.Project, models.ProjectInput]{ctrl: d.Projects.ProjectController, mount: d.Projects.Mount, table: d.Projects.Table}
		},
		filter: func(cmd *cli.Command, ctrl *controller.Controller[models.Project, models.ProjectInput]) {
			ctrl.SetFilter(dashboard.FilterClient, cmd.String("client"))
		},
		apply: func(cmd *cli.Command, in *models.ProjectInput) {
			setString(cmd, "name", &in.Name)
			setString(cmd, "description", &in.Description)
			setString(cmd, "status", &in.Status)
			setString(cmd, "client", &in.ClientID)
			setString(cmd, "start-date", &in.StartDate)
			setString(cmd, "due-date", &in.DueDate)
		},
	}.command(c)
}

func tasksCommand(c *commands) *cli.Command {
	return resourceCommand[models.Task, models.TaskInput]{
		name:     "tasks",
		singular: "task",
		fields: []cli.Flag{
			&cli.StringFlag{Name: "project", Usage: "Owning project id"},
			&cli.StringFlag{Name: "title", Usage: "Task title"},
			&cli.StringFlag{Name: "description", Usage: "Free text"},
			&cli.StringFlag{Name: "status", Usage: "todo, in_progress or done"},
			&cli.StringFlag{Name: "priority", Usage: "low, medium or high"},
			&cli.StringFlag{Name: "deadline", Usage: "YYYY-MM-DD"},
		},
		filters: []cli.Flag{
			&cli.StringFlag{Name: "project", Usage: "Only tasks of this project id"},
			&cli.StringFlag{Name: "status", Usage: "Only tasks with this status"},
		},
		page: func(d *dashboard.Dashboard) page[models.Task, models.TaskInput] {
			return page[models.Task, models.TaskInput]{ctrl: d.Tasks.TaskController, mount: d.Tasks.Mount, table: d.Tasks.Table}
		},
		filter: func(cmd *cli.Command, ctrl *controller.Controller[models.Task, models.TaskInput]) {
			ctrl.SetFilter(dashboard.FilterProject, cmd.String("project"))
			ctrl.SetFilter(dashboard.FilterStatus, cmd.String("status"))
		},
		apply: func(cmd *cli.Command, in *models.TaskInput) {
			setString(cmd, "project", &in.ProjectID)
			setString(cmd, "title", &in.Title)
			setString(cmd, "description", &in.Description)
			setString(cmd, "status", &in.Status)
			setString(cmd, "priority", &in.Priority)
			setString(cmd, "deadline", &in.Deadline)
		},
	}.command(c)
}
