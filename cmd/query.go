package cmd

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/taskweave/taskweave/internal/config"
	"github.com/taskweave/taskweave/internal/selector"
	"github.com/taskweave/taskweave/internal/view"
)

func nextCommand(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("next", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	doc, err := loadDoc(cfg)
	if err != nil {
		return err
	}

	n, ok := selector.Next(doc)
	if !ok {
		fmt.Println("No eligible node: everything is either done, blocked, or waiting on dependencies.")
		return nil
	}
	fmt.Printf("Next: %s  %s (priority %s, deps %s)\n",
		n.Addr, n.Title(), n.Priority(), joinInts(n.Dependencies()))
	return nil
}

func lsCommand(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("ls", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	doc, err := loadDoc(cfg)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tPRIORITY\tTITLE\tDEPS")
	for _, row := range view.Rows(doc) {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			row.Addr, row.Status, row.Priority, row.Title, formatDeps(row.Deps))
	}
	return w.Flush()
}

// formatDeps renders each dependency with its resolved status, marking
// unresolved values.
func formatDeps(deps []view.Dep) string {
	if len(deps) == 0 {
		return "-"
	}
	parts := make([]string, len(deps))
	for i, d := range deps {
		if d.Resolved {
			parts[i] = fmt.Sprintf("%s(%s)", d.Addr, d.Status)
		} else {
			parts[i] = fmt.Sprintf("%d(missing)", d.Value)
		}
	}
	return strings.Join(parts, " ")
}
