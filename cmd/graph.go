package cmd

import (
	"flag"
	"fmt"

	charmlog "github.com/charmbracelet/log"

	"github.com/taskweave/taskweave/internal/config"
	"github.com/taskweave/taskweave/internal/integrity"
)

// validateCommand reports findings as data; an unhealthy graph is not
// a command failure.
func validateCommand(cfg *config.Config, logger *charmlog.Logger, args []string) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	doc, err := loadDoc(cfg)
	if err != nil {
		return err
	}

	dangling := integrity.FindDangling(doc)
	cycles := integrity.FindCycles(doc)

	if len(dangling) == 0 && len(cycles) == 0 {
		fmt.Println("Graph is healthy: no dangling or circular dependencies.")
		return nil
	}

	for _, d := range dangling {
		fmt.Printf("dangling: %s depends on %d, which does not exist\n", d.Addr, d.Dep)
	}
	for _, c := range cycles {
		fmt.Printf("cycle: %s", c.Path[0])
		for _, addr := range c.Path[1:] {
			fmt.Printf(" -> %s", addr)
		}
		fmt.Printf(" -> %s\n", c.Path[0])
	}
	fmt.Printf("%d dangling, %d cycles. Run `taskweave repair` to fix.\n", len(dangling), len(cycles))
	return nil
}

func repairCommand(cfg *config.Config, logger *charmlog.Logger, args []string) error {
	fs := flag.NewFlagSet("repair", flag.ContinueOnError)
	dryRun := fs.Bool("dry-run", false, "Report changes without saving")
	if err := fs.Parse(args); err != nil {
		return err
	}

	doc, err := loadDoc(cfg)
	if err != nil {
		return err
	}

	changes := integrity.Repair(doc)
	if len(changes) == 0 {
		fmt.Println("Nothing to repair.")
		return nil
	}
	for _, c := range changes {
		fmt.Printf("removed %s -> %d (%s)\n", c.Addr, c.Dep, c.Reason)
	}
	if *dryRun {
		logger.Info("dry run, not saving", "changes", len(changes))
		return nil
	}
	return saveDoc(cfg, logger, doc)
}
