package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	charmlog "github.com/charmbracelet/log"

	"github.com/taskweave/taskweave/internal/config"
	"github.com/taskweave/taskweave/internal/generate"
	"github.com/taskweave/taskweave/internal/store"
	"github.com/taskweave/taskweave/internal/taskid"
)

// newGenerator builds the configured command generator. The retry and
// timeout policy lives here, at the caller, not inside the engine.
func newGenerator(cfg *config.Config) (*generate.CommandGenerator, error) {
	if cfg.Generator.Binary == "" {
		return nil, fmt.Errorf("no content generator configured; set generator.binary in taskweave.toml or --generator")
	}
	return generate.NewCommandGenerator(generate.CommandConfig{
		Binary:  cfg.Generator.Binary,
		Args:    cfg.Generator.Args,
		Timeout: time.Duration(cfg.Generator.TimeoutSeconds) * time.Second,
	}), nil
}

func expandCommand(ctx context.Context, cfg *config.Config, logger *charmlog.Logger, args []string) error {
	fs := flag.NewFlagSet("expand", flag.ContinueOnError)
	id := fs.Int("id", 0, "Task id to expand into subtasks")
	num := fs.Int("num", 3, "Number of subtasks to generate")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id <= 0 {
		return fmt.Errorf("expand requires --id")
	}

	gen, err := newGenerator(cfg)
	if err != nil {
		return err
	}

	doc, err := loadDoc(cfg)
	if err != nil {
		return err
	}
	task := doc.GetTask(*id)
	if task == nil {
		return fmt.Errorf("%w: task %d", store.ErrNotFound, *id)
	}

	parent := generate.ParentContext{
		Addr:        taskid.TaskAddr(task.ID).String(),
		Title:       task.Title,
		Description: task.Description,
		Details:     task.Details,
	}
	logger.Info("generating subtasks", "task", task.ID, "count", *num)
	recs, err := generate.WithRetry(ctx, cfg.Generator.Retries,
		time.Duration(cfg.Generator.BackoffSeconds)*time.Second,
		func(ctx context.Context) ([]generate.Record, error) {
			return gen.Subtasks(ctx, parent, *num)
		})
	if err != nil {
		return err
	}

	results, err := generate.IngestSubtasks(doc, *id, recs)
	if err != nil {
		return err
	}
	for _, res := range results {
		fmt.Printf("Added subtask %s\n", res.Addr)
	}
	return saveDoc(cfg, logger, doc)
}

func parseCommand(ctx context.Context, cfg *config.Config, logger *charmlog.Logger, args []string) error {
	fs := flag.NewFlagSet("parse", flag.ContinueOnError)
	brief := fs.String("brief", "", "Natural-language brief to break into tasks")
	num := fs.Int("num", 10, "Number of tasks to generate")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *brief == "" {
		return fmt.Errorf("parse requires --brief")
	}

	gen, err := newGenerator(cfg)
	if err != nil {
		return err
	}

	// parse may bootstrap a brand new tasks file.
	doc, err := loadDoc(cfg)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		doc = &store.Document{Tasks: []store.Task{}}
		if cfg.ProjectName != "" {
			doc.Meta = &store.Meta{ProjectName: cfg.ProjectName}
		}
	}

	projectContext := ""
	if doc.Meta != nil {
		projectContext = doc.Meta.ProjectName
	}

	logger.Info("generating tasks", "count", *num)
	recs, err := generate.WithRetry(ctx, cfg.Generator.Retries,
		time.Duration(cfg.Generator.BackoffSeconds)*time.Second,
		func(ctx context.Context) ([]generate.Record, error) {
			return gen.Tasks(ctx, *brief, *num, projectContext)
		})
	if err != nil {
		return err
	}

	results := generate.IngestTasks(doc, recs)
	for _, res := range results {
		fmt.Printf("Added task %s\n", res.Addr)
		for _, d := range res.Dropped {
			logger.Warn("dropped unresolvable dependency", "task", res.Addr, "dep", d)
		}
	}
	return saveDoc(cfg, logger, doc)
}
