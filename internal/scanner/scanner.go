package scanner

import (
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-homes/meridian/internal/menu"
	"github.com/meridian-homes/meridian/internal/rbac"
)

// RouteDescriptor is one route discovered by walking the router. MenuID and
// MenuPath are set when a menu node's path covers the route; routes under no
// menu are cataloged unresolved.
type RouteDescriptor struct {
	Method     string `json:"method"`
	Path       string `json:"path"`
	Identifier string `json:"identifier"`
	Name       string `json:"name"`
	MenuID     *int64 `json:"menu_id,omitempty"`
	MenuPath   string `json:"menu_path,omitempty"`
}

// Collect walks the mounted router and returns a descriptor per
// method+route, sorted by identifier. Public routes are skipped; they
// need no permission to reach.
func Collect(routes chi.Routes) ([]RouteDescriptor, error) {
	var descriptors []RouteDescriptor
	walker := func(method, route string, handler http.Handler, middlewares ...func(http.Handler) http.Handler) error {
		path := normalizeRoute(route)
		if rbac.PublicRoute(path) {
			return nil
		}
		descriptors = append(descriptors, RouteDescriptor{
			Method:     method,
			Path:       path,
			Identifier: Identifier(method, path),
			Name:       displayName(method, path),
		})
		return nil
	}
	if err := chi.Walk(routes, walker); err != nil {
		return nil, err
	}
	sort.Slice(descriptors, func(i, j int) bool {
		return descriptors[i].Identifier < descriptors[j].Identifier
	})
	return descriptors, nil
}

// Identifier builds the stable permission identifier for a route. Path
// parameters collapse to the wildcard segment so the identifier survives
// parameter renames.
func Identifier(method, path string) string {
	return method + ":" + path
}

// normalizeRoute rewrites a chi route pattern into the catalog's path
// form: {param} placeholders become wildcard segments and trailing
// slashes are dropped.
func normalizeRoute(route string) string {
	segments := strings.Split(route, "/")
	for i, seg := range segments {
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			segments[i] = "*"
		}
	}
	path := strings.Join(segments, "/")
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return path
}

// MenuResolver maps normalized route paths onto the menu tree by path.
type MenuResolver struct {
	menus []menu.Node
}

// NewMenuResolver builds a resolver over the given menu nodes.
func NewMenuResolver(menus []menu.Node) *MenuResolver {
	return &MenuResolver{menus: menus}
}

// Resolve returns the menu owning a route path: the deepest node whose path
// covers the route segment by segment, with `*` standing for one segment on
// either side. Nil when no node covers the route.
func (mr *MenuResolver) Resolve(path string) *menu.Node {
	var best *menu.Node
	bestDepth := 0
	for i := range mr.menus {
		node := &mr.menus[i]
		depth, ok := coverDepth(node.Path, path)
		if ok && depth > bestDepth {
			best = node
			bestDepth = depth
		}
	}
	return best
}

// Annotate fills MenuID and MenuPath on every descriptor a menu covers.
func (mr *MenuResolver) Annotate(descriptors []RouteDescriptor) {
	if mr == nil {
		return
	}
	for i := range descriptors {
		if node := mr.Resolve(descriptors[i].Path); node != nil {
			id := node.ID
			descriptors[i].MenuID = &id
			descriptors[i].MenuPath = node.Path
		}
	}
}

// coverDepth reports whether menuPath is a segment-wise prefix of routePath
// and how many segments it spans. Empty segments never match.
func coverDepth(menuPath, routePath string) (int, bool) {
	mp := splitSegments(menuPath)
	rp := splitSegments(routePath)
	if len(mp) == 0 || len(mp) > len(rp) {
		return 0, false
	}
	for i, seg := range mp {
		if seg == "" || rp[i] == "" {
			return 0, false
		}
		if seg == "*" || rp[i] == "*" {
			continue
		}
		if seg != rp[i] {
			return 0, false
		}
	}
	return len(mp), true
}

func splitSegments(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// displayName derives a readable default name for a catalog entry, e.g.
// "GET projects sales-control".
func displayName(method, path string) string {
	var words []string
	for _, seg := range strings.Split(path, "/") {
		if seg == "" || seg == "*" {
			continue
		}
		words = append(words, seg)
	}
	if len(words) == 0 {
		words = []string{"root"}
	}
	return method + " " + strings.Join(words, " ")
}
