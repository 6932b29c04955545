package rbac

import (
	"sort"
	"strings"
)

// ScopeWildcard grants access to every project.
const ScopeWildcard = "*"

// ProjectScope is the parsed form of a user's raw project-access string:
// either all projects or a specific set of project identifiers. Parsing
// happens once at the boundary so callers never re-split raw strings.
type ProjectScope struct {
	all bool
	ids map[string]struct{}
}

// ParseProjectScope parses a comma-separated project id list. Segments are
// trimmed so stray whitespace in stored data cannot cause mismatches. The
// wildcard token anywhere in the list grants all projects. An empty string
// yields a scope that allows nothing.
func ParseProjectScope(raw string) ProjectScope {
	var scope ProjectScope
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if part == ScopeWildcard {
			scope.all = true
			continue
		}
		if scope.ids == nil {
			scope.ids = make(map[string]struct{})
		}
		scope.ids[part] = struct{}{}
	}
	return scope
}

// AllProjects reports whether the scope carries the wildcard.
func (s ProjectScope) AllProjects() bool {
	return s.all
}

// Allows reports whether the scope permits access to the given project id.
// The empty scope fails closed.
func (s ProjectScope) Allows(projectID string) bool {
	if s.all {
		return true
	}
	_, ok := s.ids[strings.TrimSpace(projectID)]
	return ok
}

// IsEmpty reports whether the scope permits no project at all.
func (s ProjectScope) IsEmpty() bool {
	return !s.all && len(s.ids) == 0
}

// String renders the scope back to its wire format.
func (s ProjectScope) String() string {
	if s.all {
		return ScopeWildcard
	}
	ids := make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return strings.Join(ids, ",")
}
