// Package edit performs structural changes: adding, removing, and
// converting tasks and subtasks while preserving graph invariants.
package edit

import (
	"errors"
	"fmt"

	"github.com/taskweave/taskweave/internal/integrity"
	"github.com/taskweave/taskweave/internal/store"
	"github.com/taskweave/taskweave/internal/taskid"
)

var (
	// ErrSelfReference reports an attempt to convert a task into a
	// subtask of itself.
	ErrSelfReference = errors.New("task cannot become a subtask of itself")
	// ErrAlreadySubtask reports a conversion target that already
	// belongs to a parent task.
	ErrAlreadySubtask = errors.New("task is already a subtask")
	// ErrCircularConversion reports a conversion that would make a
	// task contain one of its own ancestors.
	ErrCircularConversion = errors.New("conversion would create circular containment")
	// ErrHasSubtasks reports a conversion target that owns subtasks.
	// Nesting stops at two levels, so converting it would orphan them.
	ErrHasSubtasks = errors.New("task with subtasks cannot become a subtask")
)

// SubtaskPayload carries caller-supplied fields for a new subtask.
// An empty status defaults to pending; an empty priority stays empty
// and ranks as medium.
type SubtaskPayload struct {
	Title        string
	Description  string
	Details      string
	TestStrategy string
	Status       store.Status
	Priority     store.Priority
	Dependencies []int
}

// TaskPayload carries caller-supplied fields for a new task.
type TaskPayload struct {
	Title        string
	Description  string
	Details      string
	TestStrategy string
	Priority     store.Priority
	Dependencies []int
}

// AddSubtask appends a new subtask under parentID with the next free
// sibling id. Fails with store.ErrNotFound when the parent does not
// resolve to a task; the document is unchanged on failure.
func AddSubtask(doc *store.Document, parentID int, p SubtaskPayload) (taskid.Address, error) {
	parent := doc.GetTask(parentID)
	if parent == nil {
		return taskid.Address{}, fmt.Errorf("%w: task %d", store.ErrNotFound, parentID)
	}

	nextID := 0
	for i := range parent.Subtasks {
		if parent.Subtasks[i].ID > nextID {
			nextID = parent.Subtasks[i].ID
		}
	}
	nextID++

	st := store.Subtask{
		ID:           nextID,
		Title:        p.Title,
		Description:  p.Description,
		Details:      p.Details,
		TestStrategy: p.TestStrategy,
		Status:       p.Status,
		Priority:     p.Priority,
		Dependencies: p.Dependencies,
	}
	if st.Status == "" {
		st.Status = store.StatusPending
	}
	parent.Subtasks = append(parent.Subtasks, st)
	return taskid.SubtaskAddr(parentID, nextID), nil
}

// ConvertTaskToSubtask reassigns an existing top-level task as a new
// subtask of parentID. The task's content moves under a fresh sibling
// id and the task leaves the top-level list. A target that owns
// subtasks is refused with ErrHasSubtasks; remove or promote its
// subtasks first. Dependency values elsewhere that referenced the old
// task id are left alone; the validator surfaces them as dangling on
// the next scan.
func ConvertTaskToSubtask(doc *store.Document, parentID, taskID int) (taskid.Address, error) {
	if taskID == parentID {
		return taskid.Address{}, fmt.Errorf("%w: task %d", ErrSelfReference, taskID)
	}
	parent := doc.GetTask(parentID)
	if parent == nil {
		return taskid.Address{}, fmt.Errorf("%w: task %d", store.ErrNotFound, parentID)
	}
	target := doc.GetTask(taskID)
	if target == nil {
		return taskid.Address{}, fmt.Errorf("%w: task %d", store.ErrNotFound, taskID)
	}
	if target.ParentTaskID != 0 {
		return taskid.Address{}, fmt.Errorf("%w: task %d belongs to task %d",
			ErrAlreadySubtask, taskID, target.ParentTaskID)
	}
	if len(target.Subtasks) > 0 {
		return taskid.Address{}, fmt.Errorf("%w: task %d has %d subtasks",
			ErrHasSubtasks, taskID, len(target.Subtasks))
	}
	// The parent must not depend, even transitively, on the task it is
	// about to contain. Same reachability the validator uses.
	if integrity.Reaches(doc, taskid.TaskAddr(parentID), taskid.TaskAddr(taskID)) {
		return taskid.Address{}, fmt.Errorf("%w: task %d is an ancestor of task %d",
			ErrCircularConversion, taskID, parentID)
	}

	nextID := 0
	for i := range parent.Subtasks {
		if parent.Subtasks[i].ID > nextID {
			nextID = parent.Subtasks[i].ID
		}
	}
	nextID++

	st := store.Subtask{
		ID:           nextID,
		Title:        target.Title,
		Description:  target.Description,
		Details:      target.Details,
		TestStrategy: target.TestStrategy,
		Status:       target.Status,
		Priority:     target.Priority,
		Dependencies: target.Dependencies,
		ParentTaskID: parentID,
	}
	parent.Subtasks = append(parent.Subtasks, st)

	for i := range doc.Tasks {
		if doc.Tasks[i].ID == taskID {
			doc.Tasks = append(doc.Tasks[:i], doc.Tasks[i+1:]...)
			break
		}
	}
	doc.Reindex()
	return taskid.SubtaskAddr(parentID, nextID), nil
}

// RemoveSubtask deletes the subtask at addr from its parent. With
// convertToTask, the subtask is re-materialized as a new top-level
// task that depends on its former parent; the new task is returned.
func RemoveSubtask(doc *store.Document, addr taskid.Address, convertToTask bool) (*store.Task, error) {
	if !addr.IsSubtask() {
		return nil, fmt.Errorf("%w: %s is not a subtask address", taskid.ErrInvalidAddress, addr)
	}
	parent := doc.GetTask(addr.Task)
	if parent == nil {
		return nil, fmt.Errorf("%w: task %d", store.ErrNotFound, addr.Task)
	}

	idx := -1
	for i := range parent.Subtasks {
		if parent.Subtasks[i].ID == addr.Sub {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: subtask %s", store.ErrNotFound, addr)
	}

	removed := parent.Subtasks[idx]
	parent.Subtasks = append(parent.Subtasks[:idx], parent.Subtasks[idx+1:]...)
	if len(parent.Subtasks) == 0 {
		parent.Subtasks = nil
	}

	if !convertToTask {
		return nil, nil
	}

	newTask := store.Task{
		ID:           doc.MaxTaskID() + 1,
		Title:        removed.Title,
		Description:  removed.Description,
		Details:      removed.Details,
		TestStrategy: removed.TestStrategy,
		Status:       removed.Status,
		Priority:     removed.Priority,
		Dependencies: removed.Dependencies,
	}
	if newTask.Priority == "" {
		newTask.Priority = parent.Priority
	}
	if !containsInt(newTask.Dependencies, addr.Task) {
		newTask.Dependencies = append(newTask.Dependencies, addr.Task)
	}
	doc.Tasks = append(doc.Tasks, newTask)
	doc.Reindex()
	return doc.GetTask(newTask.ID), nil
}

// AddTask appends a new top-level task with id max+1. Dependencies
// that do not resolve to existing tasks are dropped and returned as
// warnings rather than failing the operation.
func AddTask(doc *store.Document, p TaskPayload) (*store.Task, []int, error) {
	var dropped []int
	deps := make([]int, 0, len(p.Dependencies))
	for _, dep := range p.Dependencies {
		if doc.GetTask(dep) != nil {
			deps = append(deps, dep)
		} else {
			dropped = append(dropped, dep)
		}
	}

	t := store.Task{
		ID:           doc.MaxTaskID() + 1,
		Title:        p.Title,
		Description:  p.Description,
		Details:      p.Details,
		TestStrategy: p.TestStrategy,
		Status:       store.StatusPending,
		Priority:     p.Priority,
		Dependencies: deps,
	}
	if t.Priority == "" {
		t.Priority = store.PriorityMedium
	}
	doc.Tasks = append(doc.Tasks, t)
	doc.Reindex()
	return doc.GetTask(t.ID), dropped, nil
}

func containsInt(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
