package view

import (
	"github.com/starford/atrium/internal/models"
)

// Field kinds.
const (
	KindText     = "text"
	KindEmail    = "email"
	KindTextarea = "textarea"
	KindSelect   = "select"
	KindDate     = "date"
)

// Option is one choice of a select field or filter.
type Option struct {
	Value string
	Label string
}

// Field is one form input.
type Field struct {
	Name    string
	Label   string
	Kind    string
	Value   string
	Options []Option
}

// Form is the modal create/edit form of a page.
type Form struct {
	Title  string
	Submit string
	Fields []Field
}

func newForm(noun string, editing bool, fields ...Field) Form {
	verb := "New"
	action := "Create"
	if editing {
		verb = "Edit"
		action = "Update"
	}
	return Form{Title: verb + " " + noun, Submit: action + " " + noun, Fields: fields}
}

// ClientForm renders the client form for in.
func ClientForm(in models.ClientInput, editing bool) Form {
	return newForm("Client", editing,
		Field{Name: "name", Label: "Name", Kind: KindText, Value: in.Name},
		Field{Name: "email", Label: "Email", Kind: KindEmail, Value: in.Email},
		Field{Name: "phone", Label: "Phone", Kind: KindText, Value: in.Phone},
	)
}

// ProjectForm renders the project form; clients populate the client select.
func ProjectForm(in models.ProjectInput, editing bool, clients []models.Client) Form {
	return newForm("Project", editing,
		Field{Name: "name", Label: "Project Name", Kind: KindText, Value: in.Name},
		Field{Name: "description", Label: "Description", Kind: KindTextarea, Value: in.Description},
		Field{Name: "client_id", Label: "Client", Kind: KindSelect, Value: in.ClientID,
			Options: append([]Option{{Label: "Select Client"}}, ClientOptions(clients)...)},
		Field{Name: "status", Label: "Status", Kind: KindSelect, Value: string(in.Status),
			Options: ProjectStatusOptions()},
		Field{Name: "start_date", Label: "Start Date", Kind: KindDate, Value: in.StartDate},
		Field{Name: "due_date", Label: "Due Date", Kind: KindDate, Value: in.DueDate},
	)
}

// TaskForm renders the task form; projects populate the project select.
func TaskForm(in models.TaskInput, editing bool, projects []models.Project) Form {
	return newForm("Task", editing,
		Field{Name: "title", Label: "Task Title", Kind: KindText, Value: in.Title},
		Field{Name: "description", Label: "Description", Kind: KindTextarea, Value: in.Description},
		Field{Name: "project_id", Label: "Project", Kind: KindSelect, Value: in.ProjectID,
			Options: append([]Option{{Label: "Select Project"}}, ProjectOptions(projects)...)},
		Field{Name: "status", Label: "Status", Kind: KindSelect, Value: string(in.Status),
			Options: TaskStatusOptions()},
		Field{Name: "priority", Label: "Priority", Kind: KindSelect, Value: string(in.Priority),
			Options: PriorityOptions()},
		Field{Name: "deadline", Label: "Deadline", Kind: KindDate, Value: dateValue(in.Deadline)},
	)
}

// dateValue trims timestamps so a date input can show them.
func dateValue(s string) string {
	if s == "" {
		return ""
	}
	if t, err := models.ParseDate(s); err == nil {
		return t.Format(models.DateLayout)
	}
	return s
}

// ClientOptions lists clients by name.
func ClientOptions(clients []models.Client) []Option {
	out := make([]Option, 0, len(clients))
	for _, c := range clients {
		out = append(out, Option{Value: c.ID, Label: c.Name})
	}
	return out
}

// ProjectOptions lists projects by name.
func ProjectOptions(projects []models.Project) []Option {
	out := make([]Option, 0, len(projects))
	for _, p := range projects {
		out = append(out, Option{Value: p.ID, Label: p.Name})
	}
	return out
}

// ProjectStatusOptions lists project statuses.
func ProjectStatusOptions() []Option {
	return []Option{
		{Value: string(models.ProjectActive), Label: "Active"},
		{Value: string(models.ProjectCompleted), Label: "Completed"},
		{Value: string(models.ProjectOnHold), Label: "On Hold"},
	}
}

// TaskStatusOptions lists task statuses.
func TaskStatusOptions() []Option {
	return []Option{
		{Value: string(models.TaskTodo), Label: "To Do"},
		{Value: string(models.TaskInProgress), Label: "In Progress"},
		{Value: string(models.TaskDone), Label: "Done"},
	}
}

// PriorityOptions lists task priorities.
func PriorityOptions() []Option {
	return []Option{
		{Value: string(models.PriorityLow), Label: "Low"},
		{Value: string(models.PriorityMedium), Label: "Medium"},
		{Value: string(models.PriorityHigh), Label: "High"},
	}
}

// FilterControl is a select that narrows a list page.
type FilterControl struct {
	Key     string
	Label   string
	Value   string
	Options []Option
}

// ProjectFilters renders the filters of the projects page.
func ProjectFilters(clientID string, clients []models.Client) []FilterControl {
	return []FilterControl{{
		Key:     "client_id",
		Label:   "Filter by Client",
		Value:   clientID,
		Options: append([]Option{{Label: "All Clients"}}, ClientOptions(clients)...),
	}}
}

// TaskFilters renders the filters of the tasks page.
func TaskFilters(projectID, status string, projects []models.Project) []FilterControl {
	return []FilterControl{
		{
			Key:     "project_id",
			Label:   "Filter by Project",
			Value:   projectID,
			Options: append([]Option{{Label: "All Projects"}}, ProjectOptions(projects)...),
		},
		{
			Key:     "status",
			Label:   "Filter by Status",
			Value:   status,
			Options: append([]Option{{Label: "All Statuses"}}, TaskStatusOptions()...),
		},
	}
}
