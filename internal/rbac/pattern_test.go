package rbac

import "testing"

func TestMatchPattern(t *testing.T) {
	cases := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"/projects/*/sales-control", "/projects/P-001/sales-control", true},
		{"/projects/*/sales-control", "/projects/P-001/sales-control/", true},
		{"/projects/*/sales-control", "/projects/sales-control", false},
		{"/projects/*/sales-control", "/projects/P-001/appointments", false},
		{"/projects/*/sales-control", "/projects/P-001/sales-control/extra", false},
		// An empty segment is not a segment: `*` must not swallow it.
		{"/projects/*/sales-control", "/projects//sales-control", false},
		{"/projects/*", "/projects//", false},
		{"/projects/*", "/projects/P-001", true},
		{"/projects/*", "/projects", false},
		{"/projects", "/projects", true},
		{"/projects", "/projects/", true},
		{"/me", "/me", true},
		{"/me", "/menus", false},
	}
	for _, tc := range cases {
		if got := MatchPattern(tc.pattern, tc.path); got != tc.want {
			t.Errorf("MatchPattern(%q, %q) = %v, want %v", tc.pattern, tc.path, got, tc.want)
		}
	}
}

func TestExtractProjectID(t *testing.T) {
	cases := []struct {
		path   string
		wantID string
		wantOK bool
	}{
		{"/projects/P-001/sales-control", "P-001", true},
		{"/projects/P-001", "P-001", true},
		{"/projects", "", false},
		{"/projects/", "", false},
		{"/me/menus", "", false},
		{"/admin/projects/P-009/units", "P-009", true},
	}
	for _, tc := range cases {
		id, ok := ExtractProjectID(tc.path)
		if id != tc.wantID || ok != tc.wantOK {
			t.Errorf("ExtractProjectID(%q) = (%q, %v), want (%q, %v)", tc.path, id, ok, tc.wantID, tc.wantOK)
		}
	}
}
