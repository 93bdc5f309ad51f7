package models

// Count is the body of GET /{resource}/count.
type Count struct {
	Count int `json:"count"`
}

// TaskOverview is the body of GET /tasks/overview.
type TaskOverview struct {
	Todo       int `json:"todo"`
	InProgress int `json:"in_progress"`
	Done       int `json:"done"`
}

// Total returns the number of tasks across all statuses.
func (o TaskOverview) Total() int {
	return o.Todo + o.InProgress + o.Done
}

// Percent returns the share of tasks in status s, rounded down.
func (o TaskOverview) Percent(s TaskStatus) int {
	total := o.Total()
	if total == 0 {
		return 0
	}
	var n int
	switch s {
	case TaskTodo:
		n = o.Todo
	case TaskInProgress:
		n = o.InProgress
	case TaskDone:
		n = o.Done
	}
	return n * 100 / total
}
