package scanner

import (
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-homes/meridian/internal/menu"
)

func TestNormalizeRoute(t *testing.T) {
	cases := []struct {
		route string
		want  string
	}{
		{"/projects/{projectID}/sales-control", "/projects/*/sales-control"},
		{"/menus/{menuID}/", "/menus/*"},
		{"/admin/roles/{role}/menus/{menuID}", "/admin/roles/*/menus/*"},
		{"/", "/"},
		{"/menus", "/menus"},
	}
	for _, tc := range cases {
		if got := normalizeRoute(tc.route); got != tc.want {
			t.Errorf("normalizeRoute(%q) = %q, want %q", tc.route, got, tc.want)
		}
	}
}

func TestIdentifierIsStableAcrossParamRenames(t *testing.T) {
	a := Identifier("GET", normalizeRoute("/projects/{projectID}/sales-control"))
	b := Identifier("GET", normalizeRoute("/projects/{id}/sales-control"))
	if a != b {
		t.Fatalf("identifiers differ: %q vs %q", a, b)
	}
	if a != "GET:/projects/*/sales-control" {
		t.Fatalf("identifier = %q", a)
	}
}

func TestCollectWalksRouterAndSkipsPublic(t *testing.T) {
	noop := func(w http.ResponseWriter, r *http.Request) {}
	r := chi.NewRouter()
	r.Get("/healthz", noop)
	r.Post("/auth/login", noop)
	r.Get("/menus", noop)
	r.Route("/projects/{projectID}", func(r chi.Router) {
		r.Get("/sales-control", noop)
	})

	descriptors, err := Collect(r)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}

	byID := map[string]RouteDescriptor{}
	for _, d := range descriptors {
		byID[d.Identifier] = d
	}
	if _, ok := byID["GET:/healthz"]; ok {
		t.Fatal("public route must not be cataloged")
	}
	if _, ok := byID["POST:/auth/login"]; ok {
		t.Fatal("auth routes must not be cataloged")
	}
	if _, ok := byID["GET:/menus"]; !ok {
		t.Fatalf("expected /menus in catalog, got %v", descriptors)
	}
	sc, ok := byID["GET:/projects/*/sales-control"]
	if !ok {
		t.Fatalf("expected sales-control route, got %v", descriptors)
	}
	if sc.Name != "GET projects sales-control" {
		t.Fatalf("name = %q", sc.Name)
	}
}

func TestResolveMenuPicksDeepestCoveringNode(t *testing.T) {
	mr := NewMenuResolver([]menu.Node{
		{ID: 1, Name: "projects", Path: "/projects"},
		{ID: 2, Name: "sales-control", Path: "/projects/*/sales-control"},
		{ID: 3, Name: "menus", Path: "/menus"},
	})

	cases := []struct {
		path   string
		wantID int64 // 0 means unresolved
	}{
		{"/projects/*/sales-control", 2},
		{"/projects/*/sales-control/export", 2},
		{"/projects/*", 1},
		{"/projects", 1},
		{"/menus/*", 3},
		{"/admin/audit-logs", 0},
		{"/", 0},
	}
	for _, tc := range cases {
		node := mr.Resolve(tc.path)
		switch {
		case tc.wantID == 0 && node != nil:
			t.Errorf("Resolve(%q) = menu %d, want unresolved", tc.path, node.ID)
		case tc.wantID != 0 && node == nil:
			t.Errorf("Resolve(%q) = unresolved, want menu %d", tc.path, tc.wantID)
		case tc.wantID != 0 && node.ID != tc.wantID:
			t.Errorf("Resolve(%q) = menu %d, want %d", tc.path, node.ID, tc.wantID)
		}
	}
}

func TestAnnotateFillsMenuLinkAndToleratesUnresolved(t *testing.T) {
	mr := NewMenuResolver([]menu.Node{
		{ID: 7, Name: "menus", Path: "/menus"},
	})
	descriptors := []RouteDescriptor{
		{Method: "GET", Path: "/menus", Identifier: "GET:/menus"},
		{Method: "POST", Path: "/admin/audit-logs/purge", Identifier: "POST:/admin/audit-logs/purge"},
	}

	mr.Annotate(descriptors)

	if descriptors[0].MenuID == nil || *descriptors[0].MenuID != 7 {
		t.Fatalf("menus route not linked: %+v", descriptors[0])
	}
	if descriptors[0].MenuPath != "/menus" {
		t.Fatalf("menu path = %q", descriptors[0].MenuPath)
	}
	if descriptors[1].MenuID != nil || descriptors[1].MenuPath != "" {
		t.Fatalf("uncovered route must stay unresolved: %+v", descriptors[1])
	}
}

func TestCollectIsSorted(t *testing.T) {
	noop := func(w http.ResponseWriter, r *http.Request) {}
	r := chi.NewRouter()
	r.Get("/zebra", noop)
	r.Get("/alpha", noop)

	descriptors, err := Collect(r)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	for i := 1; i < len(descriptors); i++ {
		if descriptors[i-1].Identifier > descriptors[i].Identifier {
			t.Fatalf("descriptors not sorted: %v", descriptors)
		}
	}
}
