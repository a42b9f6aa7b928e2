package cmd

import (
	"flag"
	"fmt"
	"strings"

	charmlog "github.com/charmbracelet/log"

	"github.com/taskweave/taskweave/internal/config"
	"github.com/taskweave/taskweave/internal/status"
	"github.com/taskweave/taskweave/internal/store"
	"github.com/taskweave/taskweave/internal/taskid"
)

// setStatusCommand applies a status to one or more nodes. Batch items
// are independent: one bad address never blocks the rest, and that
// includes addresses that fail to parse at all.
func setStatusCommand(cfg *config.Config, logger *charmlog.Logger, args []string) error {
	fs := flag.NewFlagSet("set-status", flag.ContinueOnError)
	ids := fs.String("id", "", "Comma-delimited node addresses (e.g. 1,2.3)")
	newStatus := fs.String("status", "", "New status (pending, in-progress, done, deferred, blocked)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *ids == "" || *newStatus == "" {
		return fmt.Errorf("set-status requires --id and --status")
	}

	// Each comma item stands alone. A malformed address fails that item
	// only; the rest of the batch still parses and applies.
	var addrs []taskid.Address
	parseFailures := 0
	for _, item := range strings.Split(*ids, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		addr, err := taskid.Parse(item)
		if err != nil {
			parseFailures++
			logger.Warn("status update failed", "id", item, "err", err)
			continue
		}
		addrs = append(addrs, addr)
	}
	if parseFailures == 0 && len(addrs) == 0 {
		return fmt.Errorf("set-status requires at least one address")
	}

	doc, err := loadDoc(cfg)
	if err != nil {
		return err
	}

	results := status.SetBatch(doc, addrs, store.Status(*newStatus))
	failures := parseFailures
	for _, res := range results {
		if res.Err != nil {
			failures++
			logger.Warn("status update failed", "id", res.Addr, "err", res.Err)
			continue
		}
		fmt.Printf("%s: %s -> %s\n", res.Addr, res.Old, res.New)
		for _, cascaded := range res.Cascaded {
			fmt.Printf("  %s -> %s (cascade)\n", cascaded, store.StatusDone)
		}
		if res.Advisory != "" {
			fmt.Printf("  note: %s\n", res.Advisory)
		}
	}

	total := parseFailures + len(results)
	if failures == total {
		return fmt.Errorf("no status updates applied")
	}
	if err := saveDoc(cfg, logger, doc); err != nil {
		return err
	}
	if failures > 0 {
		logger.Warn("some updates failed", "failed", failures, "total", total)
	}
	return nil
}
