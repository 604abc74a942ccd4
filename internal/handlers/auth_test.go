package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/devhub-se/apiserver/internal/authz"
	"github.com/devhub-se/apiserver/internal/services"
	"github.com/devhub-se/apiserver/internal/store"
	"github.com/devhub-se/apiserver/types"
	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"
)

// fakeUserRepo mimics the store: username and email matching is
// case-insensitive, ids are assigned sequentially.
type fakeUserRepo struct {
	users  map[int]types.User
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int]types.User), nextID: 1}
}

func (f *fakeUserRepo) GetByID(_ context.Context, id int) (types.User, error) {
	user, ok := f.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) GetByUsername(_ context.Context, username string) (types.User, error) {
	for _, user := range f.users {
		if strings.EqualFold(user.Username, username) {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (types.User, error) {
	for _, user := range f.users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (f *fakeUserRepo) GetByOAuth(_ context.Context, provider, oauthID string) (types.User, error) {
	for _, user := range f.users {
		if user.OAuthProvider == provider && user.OAuthID == oauthID {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (f *fakeUserRepo) Create(_ context.Context, user types.User) (types.User, error) {
	user.ID = f.nextID
	f.nextID++
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeUserRepo) Update(_ context.Context, user types.User) (types.User, error) {
	if _, ok := f.users[user.ID]; !ok {
		return types.User{}, store.ErrNotFound
	}
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeUserRepo) Delete(_ context.Context, id int) error {
	if _, ok := f.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.users, id)
	return nil
}

func newAuthRouter(t *testing.T, repo *fakeUserRepo) chi.Router {
	t.Helper()

	userService := services.NewUserService(repo)
	users := make([]types.User, 0, len(repo.users))
	for _, user := range repo.users {
		users = append(users, user)
	}
	guard := newTestGuard(t, users...)

	router := chi.NewRouter()
	router.Route("/auth", func(r chi.Router) {
		AuthRouter(r, userService, testSecret, guard)
	})
	return router
}

func postJSON(t *testing.T, router http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRegister(t *testing.T) {
	repo := newFakeUserRepo()
	router := newAuthRouter(t, repo)

	rec := postJSON(t, router, "/auth/register", RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "hunter22",
	})

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp AuthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Username != "alice" {
		t.Fatalf("expected username alice, got %q", resp.Username)
	}
	if resp.AccessToken == "" {
		t.Fatal("expected a token in the response")
	}

	user, err := repo.GetByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("user not persisted: %v", err)
	}
	if user.Role != authz.RoleUser {
		t.Fatalf("new accounts must start as %q, got %q", authz.RoleUser, user.Role)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("hunter22")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	repo := newFakeUserRepo()
	repo.users[1] = types.User{ID: 1, Username: "Alice", Email: "alice@example.com"}
	router := newAuthRouter(t, repo)

	rec := postJSON(t, router, "/auth/register", RegisterRequest{
		Username: "alice",
		Email:    "other@example.com",
		Password: "hunter22",
	})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if got := decodeMessage(t, rec); got != "Username already taken" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestRegisterMissingFields(t *testing.T) {
	router := newAuthRouter(t, newFakeUserRepo())

	rec := postJSON(t, router, "/auth/register", RegisterRequest{Username: "alice"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt failed: %v", err)
	}
	repo := newFakeUserRepo()
	repo.users[1] = types.User{ID: 1, Username: "alice", PasswordHash: string(hash)}
	router := newAuthRouter(t, repo)

	// Case-insensitive username lookup.
	rec := postJSON(t, router, "/auth/login", LoginRequest{Username: "ALICE", Password: "hunter22"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp AuthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.AccessToken == "" {
		t.Fatal("expected a token in the response")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt failed: %v", err)
	}
	repo := newFakeUserRepo()
	repo.users[1] = types.User{ID: 1, Username: "alice", PasswordHash: string(hash)}
	router := newAuthRouter(t, repo)

	rec := postJSON(t, router, "/auth/login", LoginRequest{Username: "alice", Password: "wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if got := decodeMessage(t, rec); got != "Invalid credentials" {
		t.Fatalf("unexpected message %q", got)
	}
}

// Accounts provisioned through social login carry no password hash and
// must not be able to log in with an empty password.
func TestLoginOAuthOnlyAccount(t *testing.T) {
	repo := newFakeUserRepo()
	repo.users[1] = types.User{ID: 1, Username: "alice", OAuthProvider: "github", OAuthID: "123"}
	router := newAuthRouter(t, repo)

	rec := postJSON(t, router, "/auth/login", LoginRequest{Username: "alice", Password: ""})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty password, got %d", rec.Code)
	}

	rec = postJSON(t, router, "/auth/login", LoginRequest{Username: "alice", Password: "anything"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for oauth-only account, got %d", rec.Code)
	}
}

func TestMe(t *testing.T) {
	repo := newFakeUserRepo()
	repo.users[1] = types.User{ID: 1, Username: "alice", Email: "alice@example.com", Role: authz.RoleUser}
	repo.nextID = 2
	router := newAuthRouter(t, repo)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", bearerFor(t, 1))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var user types.User
	if err := json.NewDecoder(rec.Body).Decode(&user); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if user.Username != "alice" {
		t.Fatalf("expected alice, got %q", user.Username)
	}
}
