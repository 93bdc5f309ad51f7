package models

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ProjectStatus is the lifecycle state of a project.
type ProjectStatus string

// Project statuses.
const (
	ProjectActive    ProjectStatus = "active"
	ProjectCompleted ProjectStatus = "completed"
	ProjectOnHold    ProjectStatus = "on_hold"
)

// ProjectStatuses lists the valid statuses in display order.
var ProjectStatuses = []ProjectStatus{ProjectActive, ProjectCompleted, ProjectOnHold}

// Label returns the human-readable status.
func (s ProjectStatus) Label() string { return label(string(s)) }

// ProjectInput holds the editable fields of a project.
type ProjectInput struct {
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Status      ProjectStatus `json:"status"`
	ClientID    string        `json:"client_id"`
	StartDate   string        `json:"start_date,omitempty"`
	DueDate     string        `json:"due_date,omitempty"`
}

// NewProjectInput returns a blank project form.
func NewProjectInput() ProjectInput {
	return ProjectInput{Status: ProjectActive}
}

// Validate checks the project form. ClientID is not resolved here.
func (in ProjectInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required),
		validation.Field(&in.Status, validation.Required,
			validation.In(ProjectActive, ProjectCompleted, ProjectOnHold)),
		validation.Field(&in.StartDate, dateLike),
		validation.Field(&in.DueDate, dateLike),
	)
}

// Project is a unit of work for a client.
type Project struct {
	ID string `json:"id"`
	ProjectInput
}

// Key returns the project ID.
func (p Project) Key() string { return p.ID }

// Input returns the editable fields.
func (p Project) Input() ProjectInput { return p.ProjectInput }

// ProjectName resolves id against projects, returning Placeholder when absent.
func ProjectName(projects []Project, id string) string {
	for _, p := range projects {
		if p.ID == id {
			return p.Name
		}
	}
	return Placeholder
}
