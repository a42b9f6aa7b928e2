// Package view builds read-only flattened projections of the graph for
// presentation layers. Rendering happens elsewhere; the engine never
// formats text for display.
package view

import (
	"github.com/taskweave/taskweave/internal/store"
)

// Dep is one dependency value with its resolution outcome.
type Dep struct {
	Value    int
	Addr     string
	Status   store.Status
	Resolved bool
}

// Row is one node of the flattened view.
type Row struct {
	Addr     string
	Title    string
	Status   store.Status
	Priority store.Priority
	Deps     []Dep
}

// Rows returns every task and subtask in address order, each
// dependency annotated with its resolved address and status.
func Rows(doc *store.Document) []Row {
	nodes := doc.Flatten()
	rows := make([]Row, 0, len(nodes))
	for _, n := range nodes {
		row := Row{
			Addr:     n.Addr.String(),
			Title:    n.Title(),
			Status:   n.Status(),
			Priority: n.Priority(),
		}
		for _, dep := range n.Dependencies() {
			d := Dep{Value: dep}
			if addr, ok := doc.ResolveDep(n.Addr, dep); ok {
				if depNode, err := doc.Resolve(addr); err == nil {
					d.Addr = addr.String()
					d.Status = depNode.Status()
					d.Resolved = true
				}
			}
			row.Deps = append(row.Deps, d)
		}
		rows = append(rows, row)
	}
	return rows
}

// Counts tallies nodes per normalized status.
func Counts(doc *store.Document) map[store.Status]int {
	counts := make(map[store.Status]int)
	for _, n := range doc.Flatten() {
		counts[store.NormalizeStatus(n.Status())]++
	}
	return counts
}
