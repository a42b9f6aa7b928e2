// Package generate is the boundary to the external content generator.
// The engine never trusts generated records: everything is validated
// and defaulted here before the structural editor admits it.
package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/taskweave/taskweave/internal/edit"
	"github.com/taskweave/taskweave/internal/store"
	"github.com/taskweave/taskweave/internal/taskid"
)

// Record is a draft task- or subtask-like record as returned by a
// generator. Field types are deliberately loose; Sanitize narrows them.
type Record struct {
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	Details      string         `json:"details"`
	TestStrategy string         `json:"testStrategy"`
	Status       store.Status   `json:"status"`
	Priority     store.Priority `json:"priority"`
	Dependencies []any          `json:"dependencies"`
}

// ParentContext describes the task a generator expands into subtasks.
type ParentContext struct {
	Addr        string `json:"addr"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Details     string `json:"details"`
}

// Generator turns a natural-language brief into draft records. The
// engine treats the call as an opaque blocking step; timeout and retry
// live with the caller, never inside the graph engine.
type Generator interface {
	Tasks(ctx context.Context, brief string, count int, projectContext string) ([]Record, error)
	Subtasks(ctx context.Context, parent ParentContext, count int) ([]Record, error)
}

// Clean is a sanitized record ready for the structural editor.
type Clean struct {
	Title        string
	Description  string
	Details      string
	TestStrategy string
	Status       store.Status
	Priority     store.Priority
	Dependencies []int
}

// Sanitize applies defaults and drops invalid values: a missing title
// becomes a numbered placeholder, a missing or unknown status becomes
// pending, an unknown priority is cleared, and dependency entries that
// are not positive integers are dropped.
func Sanitize(rec Record, ordinal int) Clean {
	c := Clean{
		Title:        strings.TrimSpace(rec.Title),
		Description:  rec.Description,
		Details:      rec.Details,
		TestStrategy: rec.TestStrategy,
		Status:       store.NormalizeStatus(rec.Status),
		Priority:     rec.Priority,
	}
	if c.Title == "" {
		c.Title = fmt.Sprintf("Untitled task %d", ordinal)
	}
	if !store.KnownStatus(c.Status) {
		c.Status = store.StatusPending
	}
	switch c.Priority {
	case store.PriorityHigh, store.PriorityMedium, store.PriorityLow:
	default:
		c.Priority = ""
	}
	for _, raw := range rec.Dependencies {
		if dep, ok := numericDep(raw); ok {
			c.Dependencies = append(c.Dependencies, dep)
		}
	}
	return c
}

// numericDep coerces a raw dependency entry to a positive integer.
// JSON numbers must be whole; numeric strings are tolerated because
// generators routinely quote ids. Everything else is dropped.
func numericDep(raw any) (int, bool) {
	switch v := raw.(type) {
	case float64:
		if v == float64(int(v)) && int(v) > 0 {
			return int(v), true
		}
	case json.Number:
		if n, err := strconv.Atoi(v.String()); err == nil && n > 0 {
			return n, true
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			return n, true
		}
	case int:
		if v > 0 {
			return v, true
		}
	}
	return 0, false
}

// IngestResult reports one admitted record.
type IngestResult struct {
	Addr    taskid.Address
	Dropped []int
}

// IngestTasks sanitizes each record and adds it as a top-level task.
// Dependencies that survive sanitization but resolve to nothing are
// dropped by the editor and reported per record.
func IngestTasks(doc *store.Document, recs []Record) []IngestResult {
	results := make([]IngestResult, 0, len(recs))
	for i, rec := range recs {
		c := Sanitize(rec, i+1)
		task, dropped, _ := edit.AddTask(doc, edit.TaskPayload{
			Title:        c.Title,
			Description:  c.Description,
			Details:      c.Details,
			TestStrategy: c.TestStrategy,
			Priority:     c.Priority,
			Dependencies: c.Dependencies,
		})
		task.Status = c.Status
		results = append(results, IngestResult{
			Addr:    taskid.TaskAddr(task.ID),
			Dropped: dropped,
		})
	}
	return results
}

// IngestSubtasks sanitizes each record and adds it under parentID.
// Fails with store.ErrNotFound when the parent does not exist; records
// already admitted stay admitted, consistent with per-item batch
// semantics elsewhere.
func IngestSubtasks(doc *store.Document, parentID int, recs []Record) ([]IngestResult, error) {
	results := make([]IngestResult, 0, len(recs))
	for i, rec := range recs {
		c := Sanitize(rec, i+1)
		addr, err := edit.AddSubtask(doc, parentID, edit.SubtaskPayload{
			Title:        c.Title,
			Description:  c.Description,
			Details:      c.Details,
			TestStrategy: c.TestStrategy,
			Status:       c.Status,
			Priority:     c.Priority,
			Dependencies: c.Dependencies,
		})
		if err != nil {
			return results, err
		}
		results = append(results, IngestResult{Addr: addr})
	}
	return results, nil
}
