// Package selector picks the next actionable node under dependency and
// priority constraints.
package selector

import (
	"sort"

	"github.com/taskweave/taskweave/internal/store"
)

// Next returns the best eligible node: status pending or in-progress,
// every dependency resolved to a node whose status is done. Unresolved
// dependencies count as unsatisfied. Ranking: priority high > medium >
// low, then fewer dependencies, then lower address. ok is false when
// nothing is eligible, which is an expected steady state.
func Next(doc *store.Document) (store.Node, bool) {
	candidates := Eligible(doc)
	if len(candidates) == 0 {
		return store.Node{}, false
	}
	return candidates[0], true
}

// Eligible returns every eligible node, best first.
func Eligible(doc *store.Document) []store.Node {
	var eligible []store.Node
	for _, n := range doc.Flatten() {
		switch store.NormalizeStatus(n.Status()) {
		case store.StatusPending, store.StatusInProgress:
		default:
			continue
		}
		if depsSatisfied(doc, n) {
			eligible = append(eligible, n)
		}
	}

	sort.Slice(eligible, func(i, j int) bool {
		a, b := eligible[i], eligible[j]
		if ra, rb := a.Priority().Rank(), b.Priority().Rank(); ra != rb {
			return ra < rb
		}
		if la, lb := len(a.Dependencies()), len(b.Dependencies()); la != lb {
			return la < lb
		}
		return a.Addr.Less(b.Addr)
	})
	return eligible
}

func depsSatisfied(doc *store.Document, n store.Node) bool {
	for _, dep := range n.Dependencies() {
		addr, ok := doc.ResolveDep(n.Addr, dep)
		if !ok {
			return false
		}
		depNode, err := doc.Resolve(addr)
		if err != nil || !depNode.Status().IsDone() {
			return false
		}
	}
	return true
}
