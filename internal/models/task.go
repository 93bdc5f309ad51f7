package models

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// TaskStatus is the progress state of a task.
type TaskStatus string

// Task statuses.
const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskDone       TaskStatus = "done"
)

// TaskStatuses lists the valid statuses in display order.
var TaskStatuses = []TaskStatus{TaskTodo, TaskInProgress, TaskDone}

// Label returns the human-readable status.
func (s TaskStatus) Label() string { return label(string(s)) }

// Priority ranks a task.
type Priority string

// Task priorities.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities lists the valid priorities in display order.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// TaskInput holds the editable fields of a task.
type TaskInput struct {
	ProjectID   string     `json:"project_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      TaskStatus `json:"status"`
	Priority    Priority   `json:"priority"`
	Deadline    string     `json:"deadline,omitempty"`
}

// NewTaskInput returns a blank task form.
func NewTaskInput() TaskInput {
	return TaskInput{Status: TaskTodo, Priority: PriorityMedium}
}

// Validate checks the task form. ProjectID is not resolved here.
func (in TaskInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required),
		validation.Field(&in.Status, validation.Required,
			validation.In(TaskTodo, TaskInProgress, TaskDone)),
		validation.Field(&in.Priority, validation.Required,
			validation.In(PriorityLow, PriorityMedium, PriorityHigh)),
		validation.Field(&in.Deadline, dateLike),
	)
}

// Task is a single item of work within a project.
type Task struct {
	ID string `json:"id"`
	TaskInput
}

// Key returns the task ID.
func (t Task) Key() string { return t.ID }

// Input returns the editable fields.
func (t Task) Input() TaskInput { return t.TaskInput }

func label(s string) string {
	return strings.ReplaceAll(s, "_", " ")
}
