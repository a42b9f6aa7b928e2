// Package cmd provides tests for CLI command handlers.
package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	charmlog "github.com/charmbracelet/log"

	"github.com/taskweave/taskweave/internal/config"
	"github.com/taskweave/taskweave/internal/logging"
	"github.com/taskweave/taskweave/internal/store"
)

func testLogger() *charmlog.Logger {
	return logging.FromConfig("error", "text")
}

// chdir is t.Chdir for Go toolchains older than 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}

func writeTasksFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "tasks.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

const sampleTasks = `{
  "tasks": [
    {"id": 1, "title": "Set up repo", "status": "done", "priority": "high", "dependencies": []},
    {"id": 2, "title": "Build API", "status": "pending", "priority": "high", "dependencies": [1],
     "subtasks": [
       {"id": 1, "title": "Define routes", "status": "pending"},
       {"id": 2, "title": "Wire handlers", "status": "pending", "dependencies": [1]}
     ]},
    {"id": 3, "title": "Write docs", "status": "pending", "priority": "low", "dependencies": [99]}
  ]
}`

func TestRun(t *testing.T) {
	t.Run("shows help with --help flag", func(t *testing.T) {
		if err := Run(context.Background(), []string{"--help"}); err != nil {
			t.Errorf("expected no error with --help, got %v", err)
		}
	})

	t.Run("shows version with --version flag", func(t *testing.T) {
		if err := Run(context.Background(), []string{"--version"}); err != nil {
			t.Errorf("expected no error with --version, got %v", err)
		}
	})

	t.Run("unknown command returns error", func(t *testing.T) {
		err := Run(context.Background(), []string{"frobnicate"})
		if err == nil {
			t.Fatal("expected error for unknown command, got nil")
		}
		if !strings.Contains(err.Error(), "unknown command") {
			t.Errorf("expected 'unknown command' error, got %v", err)
		}
	})

	t.Run("no command returns error", func(t *testing.T) {
		if err := Run(context.Background(), []string{}); err == nil {
			t.Error("expected error when no command given")
		}
	})

	t.Run("ls without tasks file returns error", func(t *testing.T) {
		chdir(t, t.TempDir())
		if err := Run(context.Background(), []string{"ls"}); err == nil {
			t.Error("expected error for ls without tasks file")
		}
	})

	t.Run("ls with tasks file succeeds", func(t *testing.T) {
		dir := t.TempDir()
		path := writeTasksFile(t, dir, sampleTasks)
		if err := Run(context.Background(), []string{"--file", path, "ls"}); err != nil {
			t.Errorf("ls returned error: %v", err)
		}
	})
}

func TestSetStatusCommand(t *testing.T) {
	dir := t.TempDir()
	path := writeTasksFile(t, dir, sampleTasks)
	cfg := &config.Config{TasksFile: path}

	t.Run("marks task done and cascades", func(t *testing.T) {
		err := setStatusCommand(cfg, testLogger(), []string{"--id", "2", "--status", "done"})
		if err != nil {
			t.Fatalf("setStatusCommand() error = %v", err)
		}
		doc, err := store.Load(path)
		if err != nil {
			t.Fatal(err)
		}
		task := doc.GetTask(2)
		if task.Status != store.StatusDone {
			t.Errorf("task 2 status = %s, want done", task.Status)
		}
		for _, st := range task.Subtasks {
			if st.Status != store.StatusDone {
				t.Errorf("subtask 2.%d status = %s, want done", st.ID, st.Status)
			}
		}
	})

	t.Run("mixed batch saves the good updates", func(t *testing.T) {
		err := setStatusCommand(cfg, testLogger(), []string{"--id", "3,42", "--status", "in-progress"})
		if err != nil {
			t.Fatalf("setStatusCommand() error = %v", err)
		}
		doc, err := store.Load(path)
		if err != nil {
			t.Fatal(err)
		}
		if got := doc.GetTask(3).Status; got != store.StatusInProgress {
			t.Errorf("task 3 status = %s, want in-progress", got)
		}
	})

	t.Run("malformed address fails only its item", func(t *testing.T) {
		err := setStatusCommand(cfg, testLogger(), []string{"--id", "1,abc,3", "--status", "deferred"})
		if err != nil {
			t.Fatalf("setStatusCommand() error = %v", err)
		}
		doc, err := store.Load(path)
		if err != nil {
			t.Fatal(err)
		}
		if got := doc.GetTask(1).Status; got != store.StatusDeferred {
			t.Errorf("task 1 status = %s, want deferred", got)
		}
		if got := doc.GetTask(3).Status; got != store.StatusDeferred {
			t.Errorf("task 3 status = %s, want deferred", got)
		}
	})

	t.Run("all-malformed batch returns error", func(t *testing.T) {
		if err := setStatusCommand(cfg, testLogger(), []string{"--id", "abc,1.x", "--status", "done"}); err == nil {
			t.Error("expected error when no address parses")
		}
	})

	t.Run("all-failure batch returns error", func(t *testing.T) {
		err := setStatusCommand(cfg, testLogger(), []string{"--id", "42", "--status", "done"})
		if err == nil {
			t.Error("expected error when every update fails")
		}
	})

	t.Run("missing flags return error", func(t *testing.T) {
		if err := setStatusCommand(cfg, testLogger(), []string{"--id", "1"}); err == nil {
			t.Error("expected error without --status")
		}
	})
}

func TestRepairCommand(t *testing.T) {
	dir := t.TempDir()
	path := writeTasksFile(t, dir, sampleTasks)
	cfg := &config.Config{TasksFile: path}

	t.Run("dry run does not save", func(t *testing.T) {
		if err := repairCommand(cfg, testLogger(), []string{"--dry-run"}); err != nil {
			t.Fatalf("repairCommand() error = %v", err)
		}
		doc, err := store.Load(path)
		if err != nil {
			t.Fatal(err)
		}
		if got := doc.GetTask(3).Dependencies; len(got) != 1 {
			t.Errorf("dry run mutated the file: deps = %v", got)
		}
	})

	t.Run("removes the dangling edge and saves", func(t *testing.T) {
		if err := repairCommand(cfg, testLogger(), nil); err != nil {
			t.Fatalf("repairCommand() error = %v", err)
		}
		doc, err := store.Load(path)
		if err != nil {
			t.Fatal(err)
		}
		if got := doc.GetTask(3).Dependencies; len(got) != 0 {
			t.Errorf("task 3 deps = %v, want none after repair", got)
		}
	})

	t.Run("validate after repair reports healthy", func(t *testing.T) {
		if err := validateCommand(cfg, testLogger(), nil); err != nil {
			t.Errorf("validateCommand() error = %v", err)
		}
	})
}

func TestAddTaskCommand(t *testing.T) {
	dir := t.TempDir()
	path := writeTasksFile(t, dir, sampleTasks)
	cfg := &config.Config{TasksFile: path}

	err := addTaskCommand(cfg, testLogger(), []string{
		"--title", "Ship it", "--priority", "high", "--deps", "1,99"})
	if err != nil {
		t.Fatalf("addTaskCommand() error = %v", err)
	}

	doc, err := store.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	task := doc.GetTask(4)
	if task == nil {
		t.Fatal("expected task 4 to exist")
	}
	if task.Title != "Ship it" {
		t.Errorf("title = %q", task.Title)
	}
	// 99 resolves to nothing and is dropped on the way in.
	if len(task.Dependencies) != 1 || task.Dependencies[0] != 1 {
		t.Errorf("deps = %v, want [1]", task.Dependencies)
	}

	if err := addTaskCommand(cfg, testLogger(), nil); err == nil {
		t.Error("expected error without --title")
	}
}

func TestConvertAndRemoveSubtaskCommands(t *testing.T) {
	dir := t.TempDir()
	path := writeTasksFile(t, dir, sampleTasks)
	cfg := &config.Config{TasksFile: path}

	if err := convertCommand(cfg, testLogger(), []string{"--parent", "2", "--task", "3"}); err != nil {
		t.Fatalf("convertCommand() error = %v", err)
	}
	doc, err := store.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if doc.GetTask(3) != nil {
		t.Error("task 3 should be gone after conversion")
	}
	if got := len(doc.GetTask(2).Subtasks); got != 3 {
		t.Fatalf("parent has %d subtasks, want 3", got)
	}

	if err := removeSubtaskCommand(cfg, testLogger(), []string{"--id", "2.3", "--to-task"}); err != nil {
		t.Fatalf("removeSubtaskCommand() error = %v", err)
	}
	doc, err = store.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := len(doc.GetTask(2).Subtasks); got != 2 {
		t.Errorf("parent has %d subtasks after removal, want 2", got)
	}
	// Converted task gets the next free top-level id. Task 3 moved under
	// task 2 earlier, so the highest remaining id is 2.
	if doc.GetTask(3) == nil {
		t.Error("expected converted subtask to reappear as task 3")
	}

	if err := removeSubtaskCommand(cfg, testLogger(), []string{"--id", "2"}); err == nil {
		t.Error("expected error removing a task address")
	}
}

func TestNextCommand(t *testing.T) {
	dir := t.TempDir()
	path := writeTasksFile(t, dir, sampleTasks)
	cfg := &config.Config{TasksFile: path}

	if err := nextCommand(cfg, nil); err != nil {
		t.Errorf("nextCommand() error = %v", err)
	}

	allDone := `{"tasks": [{"id": 1, "title": "Only task", "status": "done", "dependencies": []}]}`
	cfg2 := &config.Config{TasksFile: writeTasksFile(t, t.TempDir(), allDone)}
	if err := nextCommand(cfg2, nil); err != nil {
		t.Errorf("nextCommand() with nothing eligible should not error, got %v", err)
	}
}

func TestParseIntList(t *testing.T) {
	tests := []struct {
		input    string
		expected []int
		wantErr  bool
	}{
		{"", nil, false},
		{"  ", nil, false},
		{"1,2,3", []int{1, 2, 3}, false},
		{" 1 , 2 ", []int{1, 2}, false},
		{"1,,2", []int{1, 2}, false},
		{"1,x", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseIntList(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseIntList(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if len(got) != len(tt.expected) {
				t.Fatalf("parseIntList(%q) = %v, want %v", tt.input, got, tt.expected)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("parseIntList(%q)[%d] = %d, want %d", tt.input, i, got[i], tt.expected[i])
				}
			}
		})
	}
}

func TestJoinInts(t *testing.T) {
	if got := joinInts(nil); got != "-" {
		t.Errorf("joinInts(nil) = %q, want -", got)
	}
	if got := joinInts([]int{1, 2}); got != "1,2" {
		t.Errorf("joinInts([1 2]) = %q, want 1,2", got)
	}
}
