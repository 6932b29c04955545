package rbac

import "testing"

func TestParseProjectScopeWildcard(t *testing.T) {
	scope := ParseProjectScope("*")
	if !scope.AllProjects() {
		t.Fatal("expected wildcard scope")
	}
	if !scope.Allows("P-001") || !scope.Allows("anything") {
		t.Fatal("wildcard must allow every project")
	}
	if scope.String() != "*" {
		t.Fatalf("String() = %q, want *", scope.String())
	}
}

func TestParseProjectScopeList(t *testing.T) {
	scope := ParseProjectScope(" P-002 ,P-001,, ")
	if scope.AllProjects() {
		t.Fatal("unexpected wildcard")
	}
	if !scope.Allows("P-001") || !scope.Allows("P-002") {
		t.Fatal("listed projects must be allowed")
	}
	if scope.Allows("P-003") {
		t.Fatal("unlisted project must be denied")
	}
	if got := scope.String(); got != "P-001,P-002" {
		t.Fatalf("String() = %q, want sorted list", got)
	}
}

func TestEmptyScopeFailsClosed(t *testing.T) {
	for _, raw := range []string{"", " ", ",,,"} {
		scope := ParseProjectScope(raw)
		if !scope.IsEmpty() {
			t.Fatalf("ParseProjectScope(%q) should be empty", raw)
		}
		if scope.Allows("P-001") {
			t.Fatalf("empty scope must deny, raw=%q", raw)
		}
	}
}

func TestWildcardAmongIDs(t *testing.T) {
	scope := ParseProjectScope("P-001,*,P-002")
	if !scope.AllProjects() {
		t.Fatal("wildcard anywhere in the list grants all projects")
	}
}
