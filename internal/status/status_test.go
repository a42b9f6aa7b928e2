package status

import (
	"errors"
	"testing"

	"github.com/taskweave/taskweave/internal/store"
	"github.com/taskweave/taskweave/internal/taskid"
)

func parentWithSubtasks(statuses ...store.Status) *store.Document {
	subtasks := make([]store.Subtask, len(statuses))
	for i, s := range statuses {
		subtasks[i] = store.Subtask{ID: i + 1, Title: "s", Status: s}
	}
	d := &store.Document{Tasks: []store.Task{
		{ID: 1, Title: "parent", Status: store.StatusInProgress, Subtasks: subtasks},
	}}
	d.Reindex()
	return d
}

func TestSetCascadesDoneToSubtasks(t *testing.T) {
	doc := parentWithSubtasks(store.StatusDone, store.StatusPending, store.StatusInProgress)

	res, err := Set(doc, taskid.TaskAddr(1), store.StatusDone)
	if err != nil {
		t.Fatalf("Set: %v", err)
	}
	for _, st := range doc.Tasks[0].Subtasks {
		if !st.Status.IsDone() {
			t.Errorf("subtask %d not done after cascade: %s", st.ID, st.Status)
		}
	}
	// Only the two not-already-done subtasks cascade.
	if len(res.Cascaded) != 2 {
		t.Errorf("cascaded: got %v, want 1.2 and 1.3", res.Cascaded)
	}
}

func TestSetCompletedSynonym(t *testing.T) {
	doc := parentWithSubtasks(store.StatusPending)

	res, err := Set(doc, taskid.TaskAddr(1), store.StatusCompleted)
	if err != nil {
		t.Fatalf("Set: %v", err)
	}
	if res.New != store.StatusDone {
		t.Errorf("new status: got %s, want done", res.New)
	}
	if doc.Tasks[0].Status != store.StatusDone {
		t.Errorf("stored status: got %s, want done", doc.Tasks[0].Status)
	}
	if !doc.Tasks[0].Subtasks[0].Status.IsDone() {
		t.Error("completed must cascade like done")
	}
}

func TestSetParentEligibleAdvisory(t *testing.T) {
	doc := parentWithSubtasks(store.StatusDone, store.StatusPending)

	res, err := Set(doc, taskid.SubtaskAddr(1, 2), store.StatusDone)
	if err != nil {
		t.Fatalf("Set: %v", err)
	}
	if res.Advisory != AdvisoryParentEligible {
		t.Errorf("advisory: got %q, want %q", res.Advisory, AdvisoryParentEligible)
	}
	// Advisory only: the parent is never mutated.
	if doc.Tasks[0].Status != store.StatusInProgress {
		t.Errorf("parent status changed to %s", doc.Tasks[0].Status)
	}
}

func TestSetNoAdvisoryWhileSiblingsPending(t *testing.T) {
	doc := parentWithSubtasks(store.StatusPending, store.StatusPending)

	res, err := Set(doc, taskid.SubtaskAddr(1, 1), store.StatusDone)
	if err != nil {
		t.Fatalf("Set: %v", err)
	}
	if res.Advisory != "" {
		t.Errorf("unexpected advisory %q", res.Advisory)
	}
}

func TestSetParentIncompleteAdvisory(t *testing.T) {
	doc := parentWithSubtasks(store.StatusDone, store.StatusDone)
	doc.Tasks[0].Status = store.StatusDone

	res, err := Set(doc, taskid.SubtaskAddr(1, 1), store.StatusPending)
	if err != nil {
		t.Fatalf("Set: %v", err)
	}
	if res.Advisory != AdvisoryParentIncomplete {
		t.Errorf("advisory: got %q, want %q", res.Advisory, AdvisoryParentIncomplete)
	}
	if doc.Tasks[0].Status != store.StatusDone {
		t.Error("parent must not be auto-corrected")
	}
}

func TestSetNotFound(t *testing.T) {
	doc := parentWithSubtasks(store.StatusPending)

	if _, err := Set(doc, taskid.TaskAddr(9), store.StatusDone); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Set missing task: got %v, want ErrNotFound", err)
	}
	if _, err := Set(doc, taskid.SubtaskAddr(1, 9), store.StatusDone); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Set missing subtask: got %v, want ErrNotFound", err)
	}
}

func TestSetUnknownStatus(t *testing.T) {
	doc := parentWithSubtasks(store.StatusPending)
	if _, err := Set(doc, taskid.TaskAddr(1), store.Status("bogus")); err == nil {
		t.Error("unknown status should fail")
	}
	if doc.Tasks[0].Status != store.StatusInProgress {
		t.Error("failed set must not mutate the document")
	}
}

func TestSetBatchIsolatesFailures(t *testing.T) {
	doc := parentWithSubtasks(store.StatusPending, store.StatusPending)

	addrs := []taskid.Address{
		taskid.SubtaskAddr(1, 1),
		taskid.TaskAddr(42), // missing
		taskid.SubtaskAddr(1, 2),
	}
	results := SetBatch(doc, addrs, store.StatusDone)
	if len(results) != 3 {
		t.Fatalf("SetBatch: got %d results, want 3", len(results))
	}
	if results[0].Err != nil || results[2].Err != nil {
		t.Errorf("valid items failed: %v, %v", results[0].Err, results[2].Err)
	}
	if !errors.Is(results[1].Err, store.ErrNotFound) {
		t.Errorf("missing item: got %v, want ErrNotFound", results[1].Err)
	}
	// The bad address did not block the later update.
	if !doc.Tasks[0].Subtasks[1].Status.IsDone() {
		t.Error("item after failure was not applied")
	}
}
