package menu

import (
	"errors"
	"testing"

	"github.com/meridian-homes/meridian/internal/shared"
)

func ptr(v int64) *int64 { return &v }

func TestBuildTreeNestsAndOrders(t *testing.T) {
	nodes := []Node{
		{ID: 1, Name: "projects", SortOrder: 2},
		{ID: 2, Name: "dashboard", SortOrder: 1},
		{ID: 3, Name: "customers", ParentID: ptr(1), SortOrder: 2},
		{ID: 4, Name: "sales-control", ParentID: ptr(1), SortOrder: 1},
	}
	res, err := BuildTree(nodes)
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}
	if len(res.Roots) != 2 {
		t.Fatalf("roots = %d, want 2", len(res.Roots))
	}
	if res.Roots[0].Name != "dashboard" || res.Roots[1].Name != "projects" {
		t.Fatalf("root order wrong: %s, %s", res.Roots[0].Name, res.Roots[1].Name)
	}
	children := res.Roots[1].Children
	if len(children) != 2 || children[0].Name != "sales-control" || children[1].Name != "customers" {
		t.Fatalf("children wrong: %+v", children)
	}
	if len(res.Orphans) != 0 || len(res.Cycles) != 0 {
		t.Fatalf("unexpected integrity findings: %+v", res)
	}
}

func TestBuildTreePromotesOrphans(t *testing.T) {
	nodes := []Node{
		{ID: 1, Name: "root"},
		{ID: 2, Name: "stray", ParentID: ptr(99)},
	}
	res, err := BuildTree(nodes)
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}
	if len(res.Roots) != 2 {
		t.Fatalf("orphan must surface as root, roots = %d", len(res.Roots))
	}
	if len(res.Orphans) != 1 || res.Orphans[0] != 2 {
		t.Fatalf("orphans = %v, want [2]", res.Orphans)
	}
}

func TestBuildTreeRejectsDuplicateID(t *testing.T) {
	nodes := []Node{
		{ID: 1, Name: "a"},
		{ID: 1, Name: "b"},
	}
	_, err := BuildTree(nodes)
	if !errors.Is(err, shared.ErrIntegrity) {
		t.Fatalf("err = %v, want ErrIntegrity", err)
	}
}

func TestBuildTreeSurvivesParentLoop(t *testing.T) {
	nodes := []Node{
		{ID: 1, Name: "root"},
		{ID: 2, Name: "a", ParentID: ptr(3)},
		{ID: 3, Name: "b", ParentID: ptr(2)},
	}
	res, err := BuildTree(nodes)
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}
	if len(res.Cycles) == 0 {
		t.Fatal("loop must be reported")
	}
	// Every node appears somewhere in the forest.
	seen := map[int64]bool{}
	var walk func([]*TreeNode)
	walk = func(list []*TreeNode) {
		for _, tn := range list {
			if seen[tn.ID] {
				continue
			}
			seen[tn.ID] = true
			walk(tn.Children)
		}
	}
	walk(res.Roots)
	if len(seen) != 3 {
		t.Fatalf("forest lost nodes, saw %d of 3", len(seen))
	}
}

func TestBuildTreeEmpty(t *testing.T) {
	res, err := BuildTree(nil)
	if err != nil || len(res.Roots) != 0 {
		t.Fatalf("empty input: res=%+v err=%v", res, err)
	}
}
