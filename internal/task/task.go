package task

import "time"

// Task is a task record fetched from the remote API. The field set is
// closed: only the fields declared in the schema exist, and anything else
// in a remote payload is dropped during decoding rather than carried
// dynamically.
type Task struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Done        bool      `json:"done"`
	Priority    int64     `json:"priority"`
	PercentDone float64   `json:"percent_done"`
	DueDate     time.Time `json:"due_date"`
	Created     time.Time `json:"created"`
	Updated     time.Time `json:"updated"`
	ProjectID   int64     `json:"project_id"`
	Labels      []string  `json:"labels,omitempty"`
	Assignees   []string  `json:"assignees,omitempty"`
}

// Field returns the value of the named filterable field. The bool result
// is false for names outside the closed field set.
func (t *Task) Field(name string) (any, bool) {
	switch name {
	case "id":
		return t.ID, true
	case "title":
		return t.Title, true
	case "description":
		return t.Description, true
	case "done":
		return t.Done, true
	case "priority":
		return t.Priority, true
	case "percent_done":
		return t.PercentDone, true
	case "due_date":
		return t.DueDate, true
	case "created":
		return t.Created, true
	case "updated":
		return t.Updated, true
	case "project_id":
		return t.ProjectID, true
	case "labels":
		return t.Labels, true
	case "assignees":
		return t.Assignees, true
	default:
		return nil, false
	}
}
