package rbac

import (
	"context"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// recordingQuerier captures the SQL a repository method issues without a
// database behind it.
type recordingQuerier struct {
	sql  string
	args []any
}

func (q *recordingQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	q.sql = sql
	q.args = args
	return pgconn.CommandTag{}, nil
}

func (q *recordingQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	q.sql = sql
	q.args = args
	return nil, nil
}

func (q *recordingQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	q.sql = sql
	q.args = args
	return emptyRow{}
}

type emptyRow struct{}

func (emptyRow) Scan(dest ...any) error { return nil }

func TestUpsertCatalogKeepsCuratedFieldsOnRescan(t *testing.T) {
	repo := NewRepository(nil)
	q := &recordingQuerier{}

	if _, _, err := repo.UpsertCatalogTx(context.Background(), q, ButtonPermission{
		Name:       "GET menus",
		Identifier: "GET:/menus",
		Method:     "GET",
		Path:       "/menus",
	}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	// A rescan must never erase the name, description or menu link an
	// administrator has set on an existing row.
	for _, clause := range []string{
		"name = EXCLUDED.name",
		"description = EXCLUDED.description",
		"menu_id = EXCLUDED.menu_id",
	} {
		if strings.Contains(q.sql, clause) {
			t.Fatalf("conflict update must not contain %q:\n%s", clause, q.sql)
		}
	}
	if !strings.Contains(q.sql, "menu_id = COALESCE(button_permissions.menu_id, EXCLUDED.menu_id)") {
		t.Fatalf("conflict update must fill a missing menu link without overwriting:\n%s", q.sql)
	}
	for _, clause := range []string{"method = EXCLUDED.method", "path = EXCLUDED.path"} {
		if !strings.Contains(q.sql, clause) {
			t.Fatalf("conflict update must refresh %q:\n%s", clause, q.sql)
		}
	}
}
