package rbac

import "strings"

// MatchPattern reports whether path matches a route pattern. A `*` segment
// matches exactly one non-empty path segment and never spans a `/`; matching
// is anchored at both ends. Patterns are compared segment by segment rather
// than compiled to regular expressions.
func MatchPattern(pattern, path string) bool {
	ps := strings.Split(pattern, "/")
	xs := strings.Split(normalizePath(path), "/")
	if len(ps) != len(xs) {
		return false
	}
	for i := range ps {
		if ps[i] == "*" {
			if xs[i] == "" {
				return false
			}
			continue
		}
		if ps[i] != xs[i] {
			return false
		}
	}
	return true
}

// MatchAny reports whether any pattern in the set matches the path.
func MatchAny(patterns []string, path string) bool {
	for _, p := range patterns {
		if MatchPattern(p, path) {
			return true
		}
	}
	return false
}

// ExtractProjectID pulls the project identifier segment out of a
// /projects/{id}/... path. The second return is false when the path carries
// no project segment.
func ExtractProjectID(path string) (string, bool) {
	segments := strings.Split(normalizePath(path), "/")
	for i := 0; i < len(segments)-1; i++ {
		if segments[i] == "projects" && segments[i+1] != "" {
			return segments[i+1], true
		}
	}
	return "", false
}

// normalizePath strips a trailing slash so /projects/5/ and /projects/5 are
// the same route. The root path stays as is.
func normalizePath(path string) string {
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	if path == "" {
		return "/"
	}
	return path
}
