package menu

import (
	"fmt"
	"sort"

	"github.com/meridian-homes/meridian/internal/shared"
)

// TreeResult carries the assembled forest plus integrity observations the
// caller should surface to administrators.
type TreeResult struct {
	Roots []*TreeNode
	// Orphans lists node IDs whose parent_id referenced a nonexistent node.
	// They are promoted to roots instead of being dropped.
	Orphans []int64
	// Cycles lists node IDs that were unreachable from any root because their
	// parent chain loops. One node per loop is promoted to a root so nothing
	// is lost.
	Cycles []int64
}

// BuildTree assembles a flat node sequence into a forest in two passes.
// Children are ordered by sort_order ascending, ties broken by id. A
// duplicate id is a data-integrity fault and aborts assembly; orphaned or
// cyclic parent references never do.
func BuildTree(nodes []Node) (TreeResult, error) {
	var res TreeResult
	if len(nodes) == 0 {
		return res, nil
	}

	wrappers := make(map[int64]*TreeNode, len(nodes))
	order := make([]*TreeNode, 0, len(nodes))
	for _, n := range nodes {
		if _, dup := wrappers[n.ID]; dup {
			return TreeResult{}, fmt.Errorf("%w: duplicate menu id %d", shared.ErrIntegrity, n.ID)
		}
		tn := &TreeNode{Node: n}
		wrappers[n.ID] = tn
		order = append(order, tn)
	}

	for _, tn := range order {
		if tn.ParentID == nil {
			res.Roots = append(res.Roots, tn)
			continue
		}
		parent, ok := wrappers[*tn.ParentID]
		if !ok {
			res.Orphans = append(res.Orphans, tn.ID)
			res.Roots = append(res.Roots, tn)
			continue
		}
		parent.Children = append(parent.Children, tn)
	}

	// Nodes inside a parent loop are attached to each other but reachable
	// from no root. Promote one node per loop so every input node appears in
	// the output exactly once; the walk is visited-bounded so a loop that
	// slipped past write validation cannot hang assembly.
	reached := make(map[int64]bool, len(order))
	markReached(res.Roots, reached)
	for _, tn := range order {
		if reached[tn.ID] {
			continue
		}
		res.Cycles = append(res.Cycles, tn.ID)
		res.Roots = append(res.Roots, tn)
		markReached([]*TreeNode{tn}, reached)
	}

	sortSiblings(res.Roots)
	for _, tn := range order {
		sortSiblings(tn.Children)
	}
	return res, nil
}

func markReached(roots []*TreeNode, reached map[int64]bool) {
	stack := append([]*TreeNode(nil), roots...)
	for len(stack) > 0 {
		tn := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if reached[tn.ID] {
			continue
		}
		reached[tn.ID] = true
		stack = append(stack, tn.Children...)
	}
}

func sortSiblings(siblings []*TreeNode) {
	sort.SliceStable(siblings, func(i, j int) bool {
		if siblings[i].SortOrder != siblings[j].SortOrder {
			return siblings[i].SortOrder < siblings[j].SortOrder
		}
		return siblings[i].ID < siblings[j].ID
	})
}
