package models

import (
	"encoding/json"
	"testing"
)

func TestClientJSONFlattensInput(t *testing.T) {
	c := Client{ID: "1", ClientInput: ClientInput{Name: "Acme", Email: "a@x.com", Phone: "555"}}
	data, err := json.Marshal(c)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"id":"1","name":"Acme","email":"a@x.com","phone":"555"}`
	if string(data) != want {
		t.Errorf("json = %s, want %s", data, want)
	}

	var back Client
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back != c {
		t.Errorf("round trip = %+v, want %+v", back, c)
	}
}

func TestTaskJSONOmitsEmptyOptionals(t *testing.T) {
	task := Task{ID: "t9", TaskInput: TaskInput{ProjectID: "p1", Title: "Write report", Status: TaskTodo, Priority: PriorityHigh}}
	data, _ := json.Marshal(task)
	want := `{"id":"t9","project_id":"p1","title":"Write report","status":"todo","priority":"high"}`
	if string(data) != want {
		t.Errorf("json = %s, want %s", data, want)
	}
}

func TestClientInputValidate(t *testing.T) {
	tests := []struct {
		name    string
		in      ClientInput
		wantErr bool
	}{
		{"valid", ClientInput{Name: "Acme", Email: "a@x.com", Phone: "555"}, false},
		{"email optional", ClientInput{Name: "Acme"}, false},
		{"missing name", ClientInput{Email: "a@x.com"}, true},
		{"bad email", ClientInput{Name: "Acme", Email: "nope"}, true},
		{"email without user", ClientInput{Name: "Acme", Email: "@x.com"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestProjectInputValidate(t *testing.T) {
	in := NewProjectInput()
	in.Name = "Website"
	if err := in.Validate(); err != nil {
		t.Fatalf("default project should validate: %v", err)
	}

	in.Status = "archived"
	if err := in.Validate(); err == nil {
		t.Error("unknown status should fail")
	}

	in.Status = ProjectOnHold
	in.DueDate = "next week"
	if err := in.Validate(); err == nil {
		t.Error("free-form due date should fail")
	}

	in.DueDate = "2025-03-01"
	if err := in.Validate(); err != nil {
		t.Errorf("dated project should validate: %v", err)
	}
}

func TestTaskInputValidate(t *testing.T) {
	in := NewTaskInput()
	if in.Status != TaskTodo || in.Priority != PriorityMedium {
		t.Fatalf("defaults = %q/%q, want todo/medium", in.Status, in.Priority)
	}
	if err := in.Validate(); err == nil {
		t.Error("missing title should fail")
	}

	in.Title = "Write report"
	in.Deadline = "2025-03-01T10:00:00Z"
	if err := in.Validate(); err != nil {
		t.Errorf("RFC 3339 deadline should validate: %v", err)
	}

	in.Priority = "urgent"
	if err := in.Validate(); err == nil {
		t.Error("unknown priority should fail")
	}
}

func TestFormatDate(t *testing.T) {
	tests := map[string]string{
		"":                     Placeholder,
		"2025-03-01":           "2025-03-01",
		"2025-03-01T10:00:00Z": "2025-03-01",
		"someday":              "someday",
	}
	for in, want := range tests {
		if got := FormatDate(in); got != want {
			t.Errorf("FormatDate(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNameLookupsFallBackToPlaceholder(t *testing.T) {
	clients := []Client{{ID: "c1", ClientInput: ClientInput{Name: "Acme"}}}
	if got := ClientName(clients, "c1"); got != "Acme" {
		t.Errorf("ClientName = %q, want Acme", got)
	}
	if got := ClientName(clients, "gone"); got != Placeholder {
		t.Errorf("dangling client = %q, want %q", got, Placeholder)
	}
	if got := ProjectName(nil, "p1"); got != Placeholder {
		t.Errorf("dangling project = %q, want %q", got, Placeholder)
	}
}

func TestTaskOverviewPercent(t *testing.T) {
	o := TaskOverview{Todo: 2, InProgress: 6, Done: 2}
	if got := o.Percent(TaskInProgress); got != 60 {
		t.Errorf("in progress = %d%%, want 60%%", got)
	}
	if got := (TaskOverview{}).Percent(TaskDone); got != 0 {
		t.Errorf("empty overview = %d%%, want 0%%", got)
	}
	if got := TaskInProgress.Label(); got != "in progress" {
		t.Errorf("label = %q", got)
	}
}
