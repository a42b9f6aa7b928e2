// Package cmd implements the CLI command structure for taskweave.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	charmlog "github.com/charmbracelet/log"

	"github.com/taskweave/taskweave/internal/config"
	"github.com/taskweave/taskweave/internal/logging"
	"github.com/taskweave/taskweave/internal/store"
	"github.com/taskweave/taskweave/internal/ui"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Run executes the taskweave CLI.
func Run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("taskweave", flag.ContinueOnError)
	fs.Usage = func() {
		printUsage(fs, os.Stderr)
	}
	help := fs.Bool("help", false, "Show help")
	fs.BoolVar(help, "h", false, "Show help")
	showVersion := fs.Bool("version", false, "Show version")
	fs.BoolVar(showVersion, "v", false, "Show version")

	cfg, err := config.Load(fs, args)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if *help {
		printUsage(fs, os.Stdout)
		return nil
	}
	if *showVersion {
		fmt.Printf("taskweave %s\n", Version)
		return nil
	}

	logger := logging.FromConfig(cfg.LogLevel, cfg.LogFormat)

	remainingArgs := fs.Args()
	if len(remainingArgs) == 0 {
		printUsage(fs, os.Stderr)
		return fmt.Errorf("no command given")
	}
	subcommand := remainingArgs[0]
	remainingArgs = remainingArgs[1:]

	switch subcommand {
	case "set-status":
		return setStatusCommand(cfg, logger, remainingArgs)
	case "validate":
		return validateCommand(cfg, logger, remainingArgs)
	case "repair":
		return repairCommand(cfg, logger, remainingArgs)
	case "add-task":
		return addTaskCommand(cfg, logger, remainingArgs)
	case "add-subtask":
		return addSubtaskCommand(cfg, logger, remainingArgs)
	case "remove-subtask":
		return removeSubtaskCommand(cfg, logger, remainingArgs)
	case "convert":
		return convertCommand(cfg, logger, remainingArgs)
	case "next":
		return nextCommand(cfg, remainingArgs)
	case "ls":
		return lsCommand(cfg, remainingArgs)
	case "expand":
		return expandCommand(ctx, cfg, logger, remainingArgs)
	case "parse":
		return parseCommand(ctx, cfg, logger, remainingArgs)
	case "tui":
		return ui.RunTUI(ctx, cfg.TasksFile, cfg.SchemaFile)
	case "version", "--version", "-v":
		fmt.Printf("taskweave %s\n", Version)
		return nil
	case "help", "--help", "-h":
		printUsage(fs, os.Stdout)
		return nil
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", subcommand)
		printUsage(fs, os.Stderr)
		return fmt.Errorf("unknown command: %s", subcommand)
	}
}

// loadDoc loads the tasks file, applying the configured schema when set.
func loadDoc(cfg *config.Config) (*store.Document, error) {
	return store.LoadWithSchema(cfg.TasksFile, cfg.SchemaFile)
}

func saveDoc(cfg *config.Config, logger *charmlog.Logger, doc *store.Document) error {
	if err := doc.Save(cfg.TasksFile); err != nil {
		return err
	}
	logger.Debug("saved tasks file", "path", cfg.TasksFile)
	return nil
}

func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintf(w, `taskweave manages a project's task dependency and status graph.

Usage:
  taskweave [flags] <command> [command flags]

Commands:
  set-status      Set the status of one or more nodes (--id 1,2.1 --status done)
  validate        Report dangling and circular dependencies
  repair          Remove invalid dependency edges and save
  add-task        Add a top-level task
  add-subtask     Add a subtask under a parent task
  remove-subtask  Remove a subtask, optionally converting it to a task
  convert         Convert an existing task into a subtask of another
  next            Show the next actionable node
  ls              List every task and subtask
  expand          Generate subtasks for a task via the content generator
  parse           Generate tasks from a brief via the content generator
  tui             Open the terminal board
  version         Show version

Flags:
`)
	fs.SetOutput(w)
	fs.PrintDefaults()
}

// joinInts formats a dependency list for display.
func joinInts(vals []int) string {
	if len(vals) == 0 {
		return "-"
	}
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return strings.Join(parts, ",")
}
