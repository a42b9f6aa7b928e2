// Package status applies status changes and their required side
// effects on related nodes.
package status

import (
	"fmt"

	"github.com/taskweave/taskweave/internal/store"
	"github.com/taskweave/taskweave/internal/taskid"
)

// Advisory is a non-mutating signal surfaced to the caller alongside a
// successful update. Upward propagation is advisory only.
type Advisory string

const (
	// AdvisoryParentEligible means every sibling of the updated subtask
	// is now done while the parent task is not.
	AdvisoryParentEligible Advisory = "parent eligible for completion"
	// AdvisoryParentIncomplete means the parent task is done while its
	// subtasks no longer all are. The parent is never auto-corrected.
	AdvisoryParentIncomplete Advisory = "parent is done but subtasks are not all done"
)

// Result reports one status update.
type Result struct {
	Addr     taskid.Address
	Old      store.Status
	New      store.Status
	Cascaded []taskid.Address
	Advisory Advisory
	Err      error
}

// Set resolves addr and applies the new status. Setting a task to done
// force-sets every subtask of that task to done (downward cascade).
// Subtask updates may return an advisory about the parent; the parent
// is never mutated. Fails with store.ErrNotFound on a missing node and
// leaves the document untouched on any failure.
func Set(doc *store.Document, addr taskid.Address, newStatus store.Status) (Result, error) {
	if !store.KnownStatus(newStatus) {
		return Result{Addr: addr}, fmt.Errorf("unknown status %q", newStatus)
	}
	newStatus = store.NormalizeStatus(newStatus)

	n, err := doc.Resolve(addr)
	if err != nil {
		return Result{Addr: addr}, err
	}

	res := Result{Addr: addr, Old: n.Status(), New: newStatus}
	n.SetStatus(newStatus)

	if n.Task != nil && newStatus.IsDone() {
		for i := range n.Task.Subtasks {
			st := &n.Task.Subtasks[i]
			if !st.Status.IsDone() {
				st.Status = store.StatusDone
				res.Cascaded = append(res.Cascaded, taskid.SubtaskAddr(addr.Task, st.ID))
			}
		}
	}

	if n.Subtask != nil {
		parent := doc.GetTask(addr.Task)
		switch {
		case allDone(parent.Subtasks) && !parent.Status.IsDone():
			res.Advisory = AdvisoryParentEligible
		case parent.Status.IsDone() && !allDone(parent.Subtasks):
			res.Advisory = AdvisoryParentIncomplete
		}
	}

	return res, nil
}

// SetBatch applies the same status to each address independently. A
// failure on one item never blocks the rest; per-item errors are
// carried in the results.
func SetBatch(doc *store.Document, addrs []taskid.Address, newStatus store.Status) []Result {
	results := make([]Result, 0, len(addrs))
	for _, addr := range addrs {
		res, err := Set(doc, addr, newStatus)
		res.Err = err
		results = append(results, res)
	}
	return results
}

func allDone(subtasks []store.Subtask) bool {
	for i := range subtasks {
		if !subtasks[i].Status.IsDone() {
			return false
		}
	}
	return true
}
