// Package taskid defines the two-level address scheme for tasks and subtasks.
package taskid

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidAddress reports a malformed task or subtask address.
var ErrInvalidAddress = errors.New("invalid address")

// Address identifies either a task (Sub == 0) or a subtask of a task
// (Sub > 0). Task ids and subtask ids are always positive, so zero is
// free to mean "no subtask component".
type Address struct {
	Task int
	Sub  int
}

// TaskAddr returns the address of a top-level task.
func TaskAddr(id int) Address {
	return Address{Task: id}
}

// SubtaskAddr returns the address of a subtask within a parent task.
func SubtaskAddr(parent, id int) Address {
	return Address{Task: parent, Sub: id}
}

// IsSubtask reports whether the address names a subtask.
func (a Address) IsSubtask() bool {
	return a.Sub > 0
}

// String formats the address: "7" for a task, "7.2" for a subtask.
func (a Address) String() string {
	if a.IsSubtask() {
		return strconv.Itoa(a.Task) + "." + strconv.Itoa(a.Sub)
	}
	return strconv.Itoa(a.Task)
}

// Less orders addresses by task id, then subtask id. A task sorts
// before its own subtasks.
func (a Address) Less(b Address) bool {
	if a.Task != b.Task {
		return a.Task < b.Task
	}
	return a.Sub < b.Sub
}

// Parse parses a textual address. A plain positive integer is a task
// address; exactly one dot splits parent and subtask ids. Anything
// else fails with ErrInvalidAddress.
func Parse(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Address{}, fmt.Errorf("%w: empty", ErrInvalidAddress)
	}

	parts := strings.Split(s, ".")
	switch len(parts) {
	case 1:
		id, err := parseID(parts[0])
		if err != nil {
			return Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
		}
		return TaskAddr(id), nil
	case 2:
		parent, err := parseID(parts[0])
		if err != nil {
			return Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
		}
		sub, err := parseID(parts[1])
		if err != nil {
			return Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
		}
		return SubtaskAddr(parent, sub), nil
	default:
		return Address{}, fmt.Errorf("%w: %q has too many segments", ErrInvalidAddress, s)
	}
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, fmt.Errorf("id must be positive, got %d", id)
	}
	return id, nil
}
