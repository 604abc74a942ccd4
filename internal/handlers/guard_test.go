package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/devhub-se/apiserver/config"
	"github.com/devhub-se/apiserver/internal/authz"
	"github.com/devhub-se/apiserver/internal/events"
	"github.com/devhub-se/apiserver/internal/store"
	"github.com/devhub-se/apiserver/types"
	"github.com/go-chi/chi/v5"
)

const testSecret = "test-secret"

func testRolesConfig() config.RolesConfig {
	return config.RolesConfig{
		AdminRoles:        []string{authz.RoleForumAdmin, authz.RoleNewsAdmin, authz.RoleSuperAdmin},
		ForumAdminRoles:   []string{authz.RoleForumAdmin, authz.RoleSuperAdmin},
		NewsAdminRoles:    []string{authz.RoleNewsAdmin, authz.RoleSuperAdmin},
		SnippetAdminRoles: []string{authz.RoleForumAdmin, authz.RoleNewsAdmin, authz.RoleSuperAdmin},
	}
}

type fakeUserSource struct {
	users map[int]types.User
}

func (f *fakeUserSource) GetByID(_ context.Context, id int) (types.User, error) {
	user, ok := f.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func newTestGuard(t *testing.T, users ...types.User) *Guard {
	t.Helper()

	roles, err := authz.NewRoles(testRolesConfig())
	if err != nil {
		t.Fatalf("NewRoles failed: %v", err)
	}

	source := &fakeUserSource{users: make(map[int]types.User)}
	for _, user := range users {
		source.users[user.ID] = user
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewGuard(authz.NewEngine(source, roles), testSecret, log, events.NewPublisher(nil, log))
}

func snippetTestResource(guard *Guard, snippets map[int]types.Snippet) authz.Resource {
	return authz.Resource{
		Name: "snippet",
		Lookup: func(_ context.Context, id int) (authz.Owned, error) {
			snippet, ok := snippets[id]
			if !ok {
				return nil, store.ErrNotFound
			}
			return snippet, nil
		},
		AdminRoles: guard.Engine().Roles().SnippetAdmins(),
	}
}

func bearerFor(t *testing.T, userID int) string {
	t.Helper()
	token, err := issueToken(userID, []byte(testSecret), defaultTokenTTL)
	if err != nil {
		t.Fatalf("issueToken failed: %v", err)
	}
	return "Bearer " + token
}

func decodeMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body MessageResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode message body: %v", err)
	}
	return body.Message
}

func TestRequireAuthRejectsMissingToken(t *testing.T) {
	guard := newTestGuard(t)

	router := chi.NewRouter()
	router.With(guard.RequireAuth).Get("/secret", func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without a token")
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/secret", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if got := decodeMessage(t, rec); got != "Authentication required" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestRequireAuthInjectsSubject(t *testing.T) {
	guard := newTestGuard(t, types.User{ID: 9, Username: "alice", Role: authz.RoleUser})

	var gotSubject int
	router := chi.NewRouter()
	router.With(guard.RequireAuth).Get("/secret", func(w http.ResponseWriter, r *http.Request) {
		id, err := userIDFromContext(r.Context())
		if err != nil {
			t.Fatalf("subject missing from context: %v", err)
		}
		gotSubject = id
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/secret", nil)
	req.Header.Set("Authorization", bearerFor(t, 9))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotSubject != 9 {
		t.Fatalf("expected subject 9, got %d", gotSubject)
	}
}

func TestRequireAuthRejectsBadToken(t *testing.T) {
	guard := newTestGuard(t)

	router := chi.NewRouter()
	router.With(guard.RequireAuth).Get("/secret", func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run with a garbage token")
	})

	req := httptest.NewRequest(http.MethodGet, "/secret", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestOptionalAuthPassesAnonymous(t *testing.T) {
	guard := newTestGuard(t)

	router := chi.NewRouter()
	router.With(guard.OptionalAuth).Get("/open", func(w http.ResponseWriter, r *http.Request) {
		if _, err := userIDFromContext(r.Context()); err == nil {
			t.Fatal("did not expect a subject for an anonymous request")
		}
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/open", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRequireOwnerPermitsOwner(t *testing.T) {
	guard := newTestGuard(t, types.User{ID: 1, Username: "alice", Role: authz.RoleUser})
	resource := snippetTestResource(guard, map[int]types.Snippet{7: {ID: 7, UserID: 1}})

	router := chi.NewRouter()
	router.With(guard.RequireAuth, guard.RequireOwner(resource, "snippetID")).
		Delete("/snippets/{snippetID}", func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok || user.ID != 1 {
				t.Fatalf("expected resolved user 1 in context, got %+v ok=%v", user, ok)
			}
			loaded, ok := ResourceFromContext(r.Context())
			if !ok || loaded.OwnerID() != 1 {
				t.Fatal("expected resolved resource in context")
			}
			w.WriteHeader(http.StatusOK)
		})

	req := httptest.NewRequest(http.MethodDelete, "/snippets/7", nil)
	req.Header.Set("Authorization", bearerFor(t, 1))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRequireOwnerDenials(t *testing.T) {
	owner := types.User{ID: 1, Username: "alice", Role: authz.RoleUser}
	stranger := types.User{ID: 2, Username: "bob", Role: authz.RoleUser}
	admin := types.User{ID: 3, Username: "root", Role: authz.RoleSuperAdmin}

	tests := []struct {
		name        string
		caller      int
		target      string
		wantStatus  int
		wantMessage string
	}{
		{"stranger is forbidden", 2, "/snippets/7", http.StatusForbidden, "Unauthorized"},
		{"unknown user", 42, "/snippets/7", http.StatusNotFound, "User not found"},
		{"missing resource", 1, "/snippets/404", http.StatusNotFound, "Resource not found"},
		{"missing resource for admin", 3, "/snippets/404", http.StatusNotFound, "Resource not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			guard := newTestGuard(t, owner, stranger, admin)
			resource := snippetTestResource(guard, map[int]types.Snippet{7: {ID: 7, UserID: 1}})

			router := chi.NewRouter()
			router.With(guard.RequireAuth, guard.RequireOwner(resource, "snippetID")).
				Delete("/snippets/{snippetID}", func(w http.ResponseWriter, r *http.Request) {
					t.Fatal("handler must not run on denial")
				})

			req := httptest.NewRequest(http.MethodDelete, tt.target, nil)
			req.Header.Set("Authorization", bearerFor(t, tt.caller))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
			if got := decodeMessage(t, rec); got != tt.wantMessage {
				t.Fatalf("expected message %q, got %q", tt.wantMessage, got)
			}
		})
	}
}

func TestRequireOwnerAdminOverride(t *testing.T) {
	admin := types.User{ID: 3, Username: "root", Role: authz.RoleSuperAdmin}
	guard := newTestGuard(t, admin)
	resource := snippetTestResource(guard, map[int]types.Snippet{7: {ID: 7, UserID: 1}})

	router := chi.NewRouter()
	router.With(guard.RequireAuth, guard.RequireOwner(resource, "snippetID")).
		Delete("/snippets/{snippetID}", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})

	req := httptest.NewRequest(http.MethodDelete, "/snippets/7", nil)
	req.Header.Set("Authorization", bearerFor(t, 3))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRequireOwnerBadID(t *testing.T) {
	guard := newTestGuard(t, types.User{ID: 1, Username: "alice", Role: authz.RoleUser})
	resource := snippetTestResource(guard, nil)

	router := chi.NewRouter()
	router.With(guard.RequireAuth, guard.RequireOwner(resource, "snippetID")).
		Delete("/snippets/{snippetID}", func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler must not run for a malformed id")
		})

	req := httptest.NewRequest(http.MethodDelete, "/snippets/abc", nil)
	req.Header.Set("Authorization", bearerFor(t, 1))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

// A lookup failure that is not a missing row maps to 500 and the cause is
// logged, never leaked into the response body.
func TestRequireOwnerLookupFailure(t *testing.T) {
	caller := types.User{ID: 1, Username: "alice", Role: authz.RoleUser}
	roles, err := authz.NewRoles(testRolesConfig())
	if err != nil {
		t.Fatalf("NewRoles failed: %v", err)
	}
	source := &fakeUserSource{users: map[int]types.User{1: caller}}

	var logBuf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&logBuf, nil))
	guard := NewGuard(authz.NewEngine(source, roles), testSecret, log, events.NewPublisher(nil, log))

	resource := authz.Resource{
		Name: "snippet",
		Lookup: func(_ context.Context, _ int) (authz.Owned, error) {
			return nil, errors.New("connection reset")
		},
		AdminRoles: guard.Engine().Roles().SnippetAdmins(),
	}

	router := chi.NewRouter()
	router.With(guard.RequireAuth, guard.RequireOwner(resource, "snippetID")).
		Delete("/snippets/{snippetID}", func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler must not run when the lookup fails")
		})

	req := httptest.NewRequest(http.MethodDelete, "/snippets/7", nil)
	req.Header.Set("Authorization", bearerFor(t, 1))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if got := decodeMessage(t, rec); got != "Failed to authorize request" {
		t.Fatalf("unexpected message %q", got)
	}
	if !strings.Contains(logBuf.String(), "connection reset") {
		t.Fatalf("expected the cause in the error log, got %q", logBuf.String())
	}
}

func TestRequireRole(t *testing.T) {
	editor := types.User{ID: 4, Username: "editor", Role: authz.RoleNewsAdmin}
	plain := types.User{ID: 5, Username: "carol", Role: authz.RoleUser}
	guard := newTestGuard(t, editor, plain)

	router := chi.NewRouter()
	router.With(guard.RequireAuth, guard.RequireRole("news", guard.Engine().Roles().NewsAdmins())).
		Post("/news", func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok || user.Role != authz.RoleNewsAdmin {
				t.Fatal("expected resolved news admin in context")
			}
			w.WriteHeader(http.StatusCreated)
		})

	req := httptest.NewRequest(http.MethodPost, "/news", nil)
	req.Header.Set("Authorization", bearerFor(t, 4))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 for news admin, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/news", nil)
	req.Header.Set("Authorization", bearerFor(t, 5))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for plain user, got %d", rec.Code)
	}
	if got := decodeMessage(t, rec); got != "Unauthorized" {
		t.Fatalf("unexpected message %q", got)
	}
}
