// Package store holds the persisted task document and its in-memory form.
package store

import (
	"errors"
)

// Sentinel errors shared by the engine packages.
var (
	// ErrCorruptStore reports a persisted document that fails structural
	// checks on load.
	ErrCorruptStore = errors.New("corrupt task store")
	// ErrNotFound reports a well-formed address with no matching node.
	ErrNotFound = errors.New("not found")
)

// Status is a task or subtask lifecycle status.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusDone       Status = "done"
	StatusDeferred   Status = "deferred"
	StatusBlocked    Status = "blocked"

	// StatusCompleted is accepted as a synonym for done wherever
	// statuses are compared.
	StatusCompleted Status = "completed"
)

// NormalizeStatus maps synonym spellings onto their canonical status.
// Unknown values pass through unchanged.
func NormalizeStatus(s Status) Status {
	if s == StatusCompleted {
		return StatusDone
	}
	return s
}

// IsDone reports whether the status counts as done.
func (s Status) IsDone() bool {
	return NormalizeStatus(s) == StatusDone
}

// KnownStatus reports whether s is one of the recognized statuses,
// including the "completed" synonym.
func KnownStatus(s Status) bool {
	switch NormalizeStatus(s) {
	case StatusPending, StatusInProgress, StatusDone, StatusDeferred, StatusBlocked:
		return true
	}
	return false
}

// Priority orders tasks for selection.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank returns a sortable weight: high=0, medium=1, low=2. Unknown or
// empty priorities rank as medium.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityLow:
		return 2
	default:
		return 1
	}
}

// Task is a top-level unit of work.
type Task struct {
	ID           int       `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Details      string    `json:"details,omitempty"`
	TestStrategy string    `json:"testStrategy,omitempty"`
	Status       Status    `json:"status"`
	Priority     Priority  `json:"priority,omitempty"`
	Dependencies []int     `json:"dependencies"`
	Subtasks     []Subtask `json:"subtasks,omitempty"`

	// ParentTaskID is zero for a genuine top-level task. Documents
	// produced by other tools can carry a stale back-reference here;
	// the structural editor refuses to convert such a record again.
	ParentTaskID int `json:"parentTaskId,omitempty"`
}

// Subtask is a unit of work owned by a parent task. Its ID is unique
// only within the parent's subtask list.
type Subtask struct {
	ID           int      `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description,omitempty"`
	Details      string   `json:"details,omitempty"`
	TestStrategy string   `json:"testStrategy,omitempty"`
	Status       Status   `json:"status"`
	Priority     Priority `json:"priority,omitempty"`
	Dependencies []int    `json:"dependencies,omitempty"`

	// ParentTaskID is a non-owning back-reference, set when the subtask
	// was materialized from a standalone task. Containment is always
	// recomputed from the owning task's list, never from this field.
	ParentTaskID int `json:"parentTaskId,omitempty"`
}

// Meta carries project-level metadata alongside the task list.
type Meta struct {
	ProjectName string `json:"projectName,omitempty"`
	Description string `json:"description,omitempty"`
	Version     string `json:"version,omitempty"`
}

// Document is the full persisted store: every task, every subtask, and
// the project metadata. Mutation is always in place; callers decide
// when to Save.
type Document struct {
	Tasks []Task `json:"tasks"`
	Meta  *Meta  `json:"meta,omitempty"`

	// index maps task ID to position in Tasks. Rebuilt lazily; any
	// structural edit must call Reindex or clear it.
	index map[int]int `json:"-"`
}

// Reindex rebuilds the task-ID index after structural changes.
func (d *Document) Reindex() {
	d.index = make(map[int]int, len(d.Tasks))
	for i := range d.Tasks {
		d.index[d.Tasks[i].ID] = i
	}
}

// GetTask returns the task with the given ID, or nil.
func (d *Document) GetTask(id int) *Task {
	if d.index == nil {
		d.Reindex()
	}
	pos, ok := d.index[id]
	if !ok || pos >= len(d.Tasks) || d.Tasks[pos].ID != id {
		// Index is stale; rebuild once and retry.
		d.Reindex()
		pos, ok = d.index[id]
		if !ok {
			return nil
		}
	}
	return &d.Tasks[pos]
}

// MaxTaskID returns the highest task ID in the document, or 0.
func (d *Document) MaxTaskID() int {
	max := 0
	for i := range d.Tasks {
		if d.Tasks[i].ID > max {
			max = d.Tasks[i].ID
		}
	}
	return max
}
