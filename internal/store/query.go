package store

import (
	"fmt"
	"sort"

	"github.com/taskweave/taskweave/internal/taskid"
)

// Node is a uniform handle on either a task or a subtask, paired with
// its resolved address. Exactly one of Task/Subtask is non-nil.
type Node struct {
	Addr    taskid.Address
	Task    *Task
	Subtask *Subtask
}

// Status returns the node's status.
func (n Node) Status() Status {
	if n.Subtask != nil {
		return n.Subtask.Status
	}
	return n.Task.Status
}

// SetStatus sets the node's status in place.
func (n Node) SetStatus(s Status) {
	if n.Subtask != nil {
		n.Subtask.Status = s
		return
	}
	n.Task.Status = s
}

// Priority returns the node's own declared priority. An empty value is
// not resolved against the owning task; Rank treats it as medium.
func (n Node) Priority() Priority {
	if n.Subtask != nil {
		return n.Subtask.Priority
	}
	return n.Task.Priority
}

// Dependencies returns the node's raw dependency values.
func (n Node) Dependencies() []int {
	if n.Subtask != nil {
		return n.Subtask.Dependencies
	}
	return n.Task.Dependencies
}

// Title returns the node's title.
func (n Node) Title() string {
	if n.Subtask != nil {
		return n.Subtask.Title
	}
	return n.Task.Title
}

// Resolve looks up the node at addr. Fails with ErrNotFound when the
// task, or the subtask within it, does not exist.
func (d *Document) Resolve(addr taskid.Address) (Node, error) {
	task := d.GetTask(addr.Task)
	if task == nil {
		return Node{}, fmt.Errorf("%w: task %d", ErrNotFound, addr.Task)
	}
	if !addr.IsSubtask() {
		return Node{Addr: addr, Task: task}, nil
	}
	for i := range task.Subtasks {
		if task.Subtasks[i].ID == addr.Sub {
			return Node{Addr: addr, Subtask: &task.Subtasks[i]}, nil
		}
	}
	return Node{}, fmt.Errorf("%w: subtask %s", ErrNotFound, addr)
}

// Flatten returns every task and subtask with its resolved address,
// ordered by address. The returned nodes alias the document; mutating
// them mutates the store.
func (d *Document) Flatten() []Node {
	nodes := make([]Node, 0, len(d.Tasks))
	for i := range d.Tasks {
		t := &d.Tasks[i]
		nodes = append(nodes, Node{Addr: taskid.TaskAddr(t.ID), Task: t})
		for j := range t.Subtasks {
			st := &t.Subtasks[j]
			nodes = append(nodes, Node{Addr: taskid.SubtaskAddr(t.ID, st.ID), Subtask: st})
		}
	}
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].Addr.Less(nodes[j].Addr)
	})
	return nodes
}

// ResolveDep resolves a raw dependency value of the node at from.
// Subtask dependencies resolve against sibling subtask ids first, then
// against global task ids; task dependencies resolve against task ids
// only. Returns the resolved address and whether resolution succeeded.
func (d *Document) ResolveDep(from taskid.Address, dep int) (taskid.Address, bool) {
	if from.IsSubtask() {
		if parent := d.GetTask(from.Task); parent != nil {
			for i := range parent.Subtasks {
				if parent.Subtasks[i].ID == dep {
					return taskid.SubtaskAddr(from.Task, dep), true
				}
			}
		}
	}
	if d.GetTask(dep) != nil {
		return taskid.TaskAddr(dep), true
	}
	return taskid.Address{}, false
}
