package cmd

import (
	"flag"
	"fmt"
	"strconv"
	"strings"

	charmlog "github.com/charmbracelet/log"

	"github.com/taskweave/taskweave/internal/config"
	"github.com/taskweave/taskweave/internal/edit"
	"github.com/taskweave/taskweave/internal/store"
	"github.com/taskweave/taskweave/internal/taskid"
)

func addTaskCommand(cfg *config.Config, logger *charmlog.Logger, args []string) error {
	fs := flag.NewFlagSet("add-task", flag.ContinueOnError)
	title := fs.String("title", "", "Task title")
	desc := fs.String("desc", "", "Task description")
	details := fs.String("details", "", "Implementation details")
	testStrategy := fs.String("test-strategy", "", "Test strategy")
	priority := fs.String("priority", "", "Priority (high, medium, low)")
	deps := fs.String("deps", "", "Comma-delimited task ids this task depends on")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *title == "" {
		return fmt.Errorf("add-task requires --title")
	}

	depIDs, err := parseIntList(*deps)
	if err != nil {
		return err
	}

	doc, err := loadDoc(cfg)
	if err != nil {
		return err
	}

	task, dropped, err := edit.AddTask(doc, edit.TaskPayload{
		Title:        *title,
		Description:  *desc,
		Details:      *details,
		TestStrategy: *testStrategy,
		Priority:     store.Priority(*priority),
		Dependencies: depIDs,
	})
	if err != nil {
		return err
	}
	for _, d := range dropped {
		logger.Warn("dropped unresolvable dependency", "dep", d)
	}

	fmt.Printf("Added task %d: %s (priority %s, deps %s)\n",
		task.ID, task.Title, task.Priority, joinInts(task.Dependencies))
	return saveDoc(cfg, logger, doc)
}

func addSubtaskCommand(cfg *config.Config, logger *charmlog.Logger, args []string) error {
	fs := flag.NewFlagSet("add-subtask", flag.ContinueOnError)
	parent := fs.Int("parent", 0, "Parent task id")
	title := fs.String("title", "", "Subtask title")
	desc := fs.String("desc", "", "Subtask description")
	deps := fs.String("deps", "", "Comma-delimited dependency ids (sibling subtask or task ids)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *parent <= 0 || *title == "" {
		return fmt.Errorf("add-subtask requires --parent and --title")
	}

	depIDs, err := parseIntList(*deps)
	if err != nil {
		return err
	}

	doc, err := loadDoc(cfg)
	if err != nil {
		return err
	}

	addr, err := edit.AddSubtask(doc, *parent, edit.SubtaskPayload{
		Title:        *title,
		Description:  *desc,
		Dependencies: depIDs,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Added subtask %s: %s\n", addr, *title)
	return saveDoc(cfg, logger, doc)
}

func removeSubtaskCommand(cfg *config.Config, logger *charmlog.Logger, args []string) error {
	fs := flag.NewFlagSet("remove-subtask", flag.ContinueOnError)
	id := fs.String("id", "", "Subtask address (e.g. 2.1)")
	toTask := fs.Bool("to-task", false, "Convert the subtask into a new top-level task")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return fmt.Errorf("remove-subtask requires --id")
	}

	addr, err := taskid.Parse(*id)
	if err != nil {
		return err
	}

	doc, err := loadDoc(cfg)
	if err != nil {
		return err
	}

	newTask, err := edit.RemoveSubtask(doc, addr, *toTask)
	if err != nil {
		return err
	}
	if newTask != nil {
		fmt.Printf("Converted subtask %s into task %d (deps %s)\n",
			addr, newTask.ID, joinInts(newTask.Dependencies))
	} else {
		fmt.Printf("Removed subtask %s\n", addr)
	}
	return saveDoc(cfg, logger, doc)
}

func convertCommand(cfg *config.Config, logger *charmlog.Logger, args []string) error {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	parent := fs.Int("parent", 0, "Parent task id")
	task := fs.Int("task", 0, "Task id to convert into a subtask")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *parent <= 0 || *task <= 0 {
		return fmt.Errorf("convert requires --parent and --task")
	}

	doc, err := loadDoc(cfg)
	if err != nil {
		return err
	}

	addr, err := edit.ConvertTaskToSubtask(doc, *parent, *task)
	if err != nil {
		return err
	}

	fmt.Printf("Converted task %d into subtask %s\n", *task, addr)
	logger.Info("stale references to the old task id, if any, will surface on validate",
		"old_id", *task)
	return saveDoc(cfg, logger, doc)
}

func parseIntList(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", part, err)
		}
		out = append(out, n)
	}
	return out, nil
}
