package view

import (
	"fmt"
	"strings"

	"github.com/starford/atrium/internal/models"
)

// Stat is a headline count.
type Stat struct {
	Label string
	Value int
}

// Progress is one bar of the task overview.
type Progress struct {
	Label   string
	Percent int
}

// Summary is the dashboard home page.
type Summary struct {
	Stats    []Stat
	Recent   Table
	Overview []Progress
}

// NewSummary renders the home page from fetched figures.
func NewSummary(clients, projects, tasks int, recent []models.Project, clientList []models.Client, overview models.TaskOverview) Summary {
	rt := Table{
		Title:   "Recent Projects",
		Columns: []string{"Name", "Client", "Status"},
		Rows:    make([]Row, 0, len(recent)),
		Empty:   "No projects found.",
	}
	for _, p := range recent {
		rt.Rows = append(rt.Rows, Row{ID: p.ID, Cells: []string{
			p.Name, models.ClientName(clientList, p.ClientID), p.Status.Label(),
		}})
	}

	ov := make([]Progress, 0, len(models.TaskStatuses))
	for _, s := range models.TaskStatuses {
		ov = append(ov, Progress{Label: s.Label(), Percent: overview.Percent(s)})
	}

	return Summary{
		Stats: []Stat{
			{Label: "Clients", Value: clients},
			{Label: "Projects", Value: projects},
			{Label: "Tasks", Value: tasks},
		},
		Recent:   rt,
		Overview: ov,
	}
}

// Text renders s as plain text.
func (s Summary) Text() string {
	var sb strings.Builder
	for _, st := range s.Stats {
		fmt.Fprintf(&sb, "%-10s %d\n", st.Label+":", st.Value)
	}
	sb.WriteString("\n" + s.Recent.Title + "\n")
	sb.WriteString(s.Recent.Text())
	sb.WriteString("\nTasks Overview\n")
	for _, p := range s.Overview {
		fmt.Fprintf(&sb, "%-12s %3d%%\n", p.Label, p.Percent)
	}
	return sb.String()
}
