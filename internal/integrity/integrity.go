// Package integrity detects and repairs dangling and circular
// dependencies in the task graph.
package integrity

import (
	"github.com/taskweave/taskweave/internal/store"
	"github.com/taskweave/taskweave/internal/taskid"
)

// Reason classifies why a dependency edge was removed by Repair.
type Reason string

const (
	ReasonDangling Reason = "dangling"
	ReasonCyclic   Reason = "cyclic"
)

// Dangling is a dependency value that resolves to no existing node.
type Dangling struct {
	Addr taskid.Address
	Dep  int
}

// Edge is a traversable dependency edge. Implicit edges link a subtask
// to its parent task and carry no dependency value.
type Edge struct {
	From     taskid.Address
	To       taskid.Address
	Dep      int
	Implicit bool
}

// Cycle is one circular dependency chain. Path lists the nodes in
// traversal order, starting and ending implied at Path[0]; Closing is
// the edge that was traversed last when the cycle was detected.
type Cycle struct {
	Path    []taskid.Address
	Closing Edge
}

// Change records one edge removed by Repair.
type Change struct {
	Addr   taskid.Address
	Dep    int
	Reason Reason
}

// FindDangling returns every dependency value, across all tasks and
// subtasks, that does not resolve under the sibling-first rule. Pure
// query; the document is not mutated.
func FindDangling(doc *store.Document) []Dangling {
	var out []Dangling
	seen := make(map[Dangling]bool)
	for _, n := range doc.Flatten() {
		for _, dep := range n.Dependencies() {
			if _, ok := doc.ResolveDep(n.Addr, dep); !ok {
				d := Dangling{Addr: n.Addr, Dep: dep}
				if !seen[d] {
					seen[d] = true
					out = append(out, d)
				}
			}
		}
	}
	return out
}

// neighbors returns the outgoing edges of a node: one edge per
// resolvable dependency value, plus the implicit edge from a subtask to
// its parent task. Dangling dependencies yield no edge; they cannot
// participate in a cycle.
func neighbors(doc *store.Document, n store.Node) []Edge {
	var edges []Edge
	for _, dep := range n.Dependencies() {
		if to, ok := doc.ResolveDep(n.Addr, dep); ok {
			edges = append(edges, Edge{From: n.Addr, To: to, Dep: dep})
		}
	}
	if n.Addr.IsSubtask() {
		edges = append(edges, Edge{
			From:     n.Addr,
			To:       taskid.TaskAddr(n.Addr.Task),
			Implicit: true,
		})
	}
	return edges
}

// DFS colors.
const (
	white = iota // unvisited
	grey         // in progress
	black        // done
)

type walker struct {
	doc    *store.Document
	byAddr map[taskid.Address]store.Node
	color  map[taskid.Address]int
	stack  []taskid.Address
	cycles []Cycle
}

// FindCycles returns every distinct cycle in the dependency graph,
// where edges are explicit dependencies plus implicit subtask-to-parent
// containment. Self-dependencies are cycles of length one. Pure query;
// O(V+E) per scan.
func FindCycles(doc *store.Document) []Cycle {
	w := &walker{
		doc:    doc,
		byAddr: make(map[taskid.Address]store.Node),
		color:  make(map[taskid.Address]int),
	}
	nodes := doc.Flatten()
	for _, n := range nodes {
		w.byAddr[n.Addr] = n
	}
	for _, n := range nodes {
		if w.color[n.Addr] == white {
			w.visit(n.Addr)
		}
	}
	return w.cycles
}

func (w *walker) visit(addr taskid.Address) {
	w.color[addr] = grey
	w.stack = append(w.stack, addr)

	for _, e := range neighbors(w.doc, w.byAddr[addr]) {
		switch w.color[e.To] {
		case white:
			w.visit(e.To)
		case grey:
			w.recordCycle(e)
		}
	}

	w.stack = w.stack[:len(w.stack)-1]
	w.color[addr] = black
}

// recordCycle captures the path from the revisited node back to itself.
// The closing edge is the one just traversed.
func (w *walker) recordCycle(closing Edge) {
	start := 0
	for i, a := range w.stack {
		if a == closing.To {
			start = i
			break
		}
	}
	path := make([]taskid.Address, len(w.stack)-start)
	copy(path, w.stack[start:])
	w.cycles = append(w.cycles, Cycle{Path: path, Closing: closing})
}

// Reaches reports whether target is reachable from start over
// dependency and containment edges. The structural editor uses this for
// its circular-conversion precondition; it shares the validator's
// adjacency so both agree on what an edge is.
func Reaches(doc *store.Document, start, target taskid.Address) bool {
	startNode, err := doc.Resolve(start)
	if err != nil {
		return false
	}
	visited := map[taskid.Address]bool{start: true}
	queue := []store.Node{startNode}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, e := range neighbors(doc, n) {
			if e.To == target {
				return true
			}
			if visited[e.To] {
				continue
			}
			visited[e.To] = true
			if next, err := doc.Resolve(e.To); err == nil {
				queue = append(queue, next)
			}
		}
	}
	return false
}

// Repair removes every dangling dependency edge and, for every cycle,
// the edge that closed it in detection order. Nodes are never removed.
// Deterministic and idempotent: a second run reports no changes.
// Mutates the document in place; does not persist.
func Repair(doc *store.Document) []Change {
	var changes []Change

	for _, d := range FindDangling(doc) {
		if removeDep(doc, d.Addr, d.Dep) {
			changes = append(changes, Change{Addr: d.Addr, Dep: d.Dep, Reason: ReasonDangling})
		}
	}

	// Removing one closing edge can expose further cycles that shared
	// it, so rescan until the graph is clean.
	for {
		cycles := FindCycles(doc)
		if len(cycles) == 0 {
			break
		}
		removed := false
		for _, c := range cycles {
			if c.Closing.Implicit {
				// Containment edges are structural and cannot be
				// removed; cycles never close on them because no edge
				// leads from a task into its own subtasks.
				continue
			}
			if removeDep(doc, c.Closing.From, c.Closing.Dep) {
				removed = true
				changes = append(changes, Change{
					Addr:   c.Closing.From,
					Dep:    c.Closing.Dep,
					Reason: ReasonCyclic,
				})
			}
		}
		if !removed {
			break
		}
	}

	return changes
}

// removeDep deletes every occurrence of value dep from the node's
// dependency list. Returns false when the node or value is gone.
func removeDep(doc *store.Document, addr taskid.Address, dep int) bool {
	n, err := doc.Resolve(addr)
	if err != nil {
		return false
	}
	old := n.Dependencies()
	kept := old[:0]
	for _, d := range old {
		if d != dep {
			kept = append(kept, d)
		}
	}
	if len(kept) == len(old) {
		return false
	}
	if n.Subtask != nil {
		n.Subtask.Dependencies = kept
	} else {
		n.Task.Dependencies = kept
	}
	return true
}
