package shared_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/meridian-homes/meridian/internal/shared"
)

func newManager(t *testing.T) *shared.SessionManager {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return shared.NewSessionManager(client, "test_session", time.Hour, false)
}

func TestSessionRoundTrip(t *testing.T) {
	sm := newManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	sess.SetUser("7")
	sess.Set("csrf_token", "abc")

	rec := httptest.NewRecorder()
	if err := sm.Commit(ctx, rec, sess); err != nil {
		t.Fatalf("commit: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "test_session" {
		t.Fatalf("cookies = %v", cookies)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	req2.AddCookie(cookies[0])
	sess2, err := sm.Load(ctx, req2)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if sess2.User() != "7" {
		t.Fatalf("user = %q, want 7", sess2.User())
	}
	if sess2.Get("csrf_token") != "abc" {
		t.Fatalf("value = %q", sess2.Get("csrf_token"))
	}
}

func TestSessionDestroy(t *testing.T) {
	sm := newManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, _ := sm.Load(ctx, req)
	sess.SetUser("7")
	rec := httptest.NewRecorder()
	if err := sm.Commit(ctx, rec, sess); err != nil {
		t.Fatalf("commit: %v", err)
	}
	cookie := rec.Result().Cookies()[0]

	sm.Destroy(sess)
	rec2 := httptest.NewRecorder()
	if err := sm.Commit(ctx, rec2, sess); err != nil {
		t.Fatalf("destroy commit: %v", err)
	}
	expired := rec2.Result().Cookies()
	if len(expired) != 1 || expired[0].MaxAge != -1 {
		t.Fatalf("expected expiring cookie, got %v", expired)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	req2.AddCookie(cookie)
	sess2, err := sm.Load(ctx, req2)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if sess2.User() != "" {
		t.Fatal("destroyed session must not resolve a user")
	}
}

func TestCSRFTokenLifecycle(t *testing.T) {
	cm := shared.NewCSRFManager("secret")
	sess := &shared.Session{ID: "abc"}

	token, err := cm.EnsureToken(sess)
	if err != nil || token == "" {
		t.Fatalf("ensure: %q %v", token, err)
	}
	again, err := cm.EnsureToken(sess)
	if err != nil || again != token {
		t.Fatalf("token must be stable per session: %q vs %q", token, again)
	}
	if err := cm.VerifyToken(sess, token); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := cm.VerifyToken(sess, "forged"); err == nil {
		t.Fatal("forged token must fail")
	}
	if err := cm.VerifyToken(sess, ""); err == nil {
		t.Fatal("missing token must fail")
	}
}
