// Package view projects controller snapshots into renderer-neutral tables,
// forms and filter controls. Nothing here talks to the network or mutates
// controller state.
package view

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/starford/atrium/internal/models"
)

// Table is a rendered list page.
type Table struct {
	Title   string
	Columns []string
	Rows    []Row
	// Empty is shown instead of rows when there are none.
	Empty string
}

// Row is one entity in a table.
type Row struct {
	ID    string
	Cells []string
}

// Text renders t as a tab-aligned plain-text table.
func (t Table) Text() string {
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(append([]string{"ID"}, upper(t.Columns)...), "\t"))
	for _, r := range t.Rows {
		fmt.Fprintln(w, strings.Join(append([]string{r.ID}, r.Cells...), "\t"))
	}
	w.Flush()
	if len(t.Rows) == 0 {
		sb.WriteString(t.Empty)
		sb.WriteString("\n")
	}
	return sb.String()
}

func upper(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToUpper(s)
	}
	return out
}

// Clients renders the clients table.
func Clients(items []models.Client) Table {
	t := Table{
		Title:   "Clients",
		Columns: []string{"Name", "Email", "Phone"},
		Rows:    make([]Row, 0, len(items)),
		Empty:   "No clients found.",
	}
	for _, c := range items {
		t.Rows = append(t.Rows, Row{ID: c.ID, Cells: []string{c.Name, c.Email, c.Phone}})
	}
	return t
}

// Projects renders the projects table. Client names are resolved against
// clients; unknown IDs show the placeholder.
func Projects(items []models.Project, clients []models.Client) Table {
	t := Table{
		Title:   "Projects",
		Columns: []string{"Name", "Client", "Status", "Due Date"},
		Rows:    make([]Row, 0, len(items)),
		Empty:   "No projects found.",
	}
	for _, p := range items {
		t.Rows = append(t.Rows, Row{ID: p.ID, Cells: []string{
			p.Name,
			models.ClientName(clients, p.ClientID),
			string(p.Status),
			orPlaceholder(p.DueDate),
		}})
	}
	return t
}

// Tasks renders the tasks table.
func Tasks(items []models.Task) Table {
	t := Table{
		Title:   "Tasks",
		Columns: []string{"Title", "Status", "Priority", "Deadline"},
		Rows:    make([]Row, 0, len(items)),
		Empty:   "No tasks found.",
	}
	for _, task := range items {
		t.Rows = append(t.Rows, Row{ID: task.ID, Cells: []string{
			task.Title,
			task.Status.Label(),
			string(task.Priority),
			models.FormatDate(task.Deadline),
		}})
	}
	return t
}

func orPlaceholder(s string) string {
	if s == "" {
		return models.Placeholder
	}
	return s
}
