package auth_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-homes/meridian/internal/auth"
	"github.com/meridian-homes/meridian/internal/rbac"
	"github.com/meridian-homes/meridian/internal/shared"
)

type stubHandlerRepo struct {
	user *auth.User
}

func (s *stubHandlerRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	if s.user == nil {
		return nil, shared.ErrNotFound
	}
	return s.user, nil
}

func (s *stubHandlerRepo) IdentityByID(ctx context.Context, id int64) (rbac.Identity, error) {
	return rbac.Identity{}, shared.ErrNotFound
}

func (s *stubHandlerRepo) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	return nil
}

func (s *stubHandlerRepo) DeleteSession(ctx context.Context, id string) error {
	return nil
}

func newHandler(t *testing.T, repo auth.Repository) (*auth.Handler, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	sessions := shared.NewSessionManager(client, "test_session", time.Hour, false)
	csrf := shared.NewCSRFManager("csrfsecret")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return auth.NewHandler(logger, auth.NewService(repo), sessions, csrf), sessions
}

func testMount(h *auth.Handler) http.Handler {
	r := chi.NewRouter()
	r.Route("/auth", h.MountRoutes)
	return r
}

func loginRequest(t *testing.T, sm *shared.SessionManager, body string) (*httptest.ResponseRecorder, *http.Request) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	sess, err := sm.Load(context.Background(), req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	return httptest.NewRecorder(), req
}

func TestLoginSuccess(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	repo := &stubHandlerRepo{user: &auth.User{
		ID:           7,
		Email:        "sales@meridian.local",
		PasswordHash: string(hash),
		Role:         "SALES_PERSON",
		IsActive:     true,
	}}
	handler, sm := newHandler(t, repo)

	rec, req := loginRequest(t, sm, `{"email":"sales@meridian.local","password":"secret123"}`)
	testMount(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d body = %s", rec.Code, rec.Body.String())
	}
	var payload struct {
		User struct {
			ID   int64  `json:"id"`
			Role string `json:"role"`
		} `json:"user"`
		CSRFToken string `json:"csrf_token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.User.ID != 7 || payload.User.Role != "SALES_PERSON" {
		t.Fatalf("user = %+v", payload.User)
	}
	if payload.CSRFToken == "" {
		t.Fatal("login must issue a csrf token")
	}

	sess := shared.SessionFromContext(req.Context())
	if sess.User() != "7" {
		t.Fatalf("session user = %q", sess.User())
	}
}

func TestLoginBadPassword(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	repo := &stubHandlerRepo{user: &auth.User{
		ID:           7,
		Email:        "sales@meridian.local",
		PasswordHash: string(hash),
		IsActive:     true,
	}}
	handler, sm := newHandler(t, repo)

	rec, req := loginRequest(t, sm, `{"email":"sales@meridian.local","password":"wrongpass"}`)
	testMount(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("code = %d, want 401", rec.Code)
	}
	sess := shared.SessionFromContext(req.Context())
	if sess.User() != "" {
		t.Fatal("failed login must not bind a user")
	}
}

func TestLoginRejectsInvalidPayload(t *testing.T) {
	handler, sm := newHandler(t, &stubHandlerRepo{})
	rec, req := loginRequest(t, sm, `{"email":"not-an-email","password":"x"}`)
	testMount(handler).ServeHTTP(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("code = %d, want 422", rec.Code)
	}
}
