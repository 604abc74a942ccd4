package handlers

import (
	"context"
	"testing"

	"github.com/devhub-se/apiserver/internal/authz"
	"github.com/devhub-se/apiserver/internal/oauth"
	"github.com/devhub-se/apiserver/internal/services"
	"github.com/devhub-se/apiserver/types"
)

func newOAuthHandlerForTest(repo *fakeUserRepo) *OAuthHandler {
	return NewOAuthHandler(services.NewUserService(repo), nil, testSecret)
}

// An account registered with a password and later signed in through a
// provider gets the provider identity persisted, so the next login
// resolves by provider id instead of email.
func TestResolveUserLinksByEmail(t *testing.T) {
	repo := newFakeUserRepo()
	repo.users[1] = types.User{ID: 1, Username: "alice", Email: "alice@example.com", Role: authz.RoleUser}
	repo.nextID = 2
	handler := newOAuthHandlerForTest(repo)

	identity := oauth.Identity{Provider: "github", ID: "42", Username: "alice-gh", Email: "alice@example.com"}
	user, err := handler.resolveUser(context.Background(), identity)
	if err != nil {
		t.Fatalf("resolveUser failed: %v", err)
	}
	if user.ID != 1 {
		t.Fatalf("expected existing account 1, got %d", user.ID)
	}

	linked, err := repo.GetByOAuth(context.Background(), "github", "42")
	if err != nil {
		t.Fatalf("provider link not persisted: %v", err)
	}
	if linked.ID != 1 {
		t.Fatalf("expected link on account 1, got %d", linked.ID)
	}

	// A second resolution hits the provider-id path even if the provider
	// email has since changed.
	identity.Email = "new@example.com"
	again, err := handler.resolveUser(context.Background(), identity)
	if err != nil {
		t.Fatalf("resolveUser failed on second pass: %v", err)
	}
	if again.ID != 1 {
		t.Fatalf("expected the linked account, got %d", again.ID)
	}
}

func TestResolveUserProvisionsAccount(t *testing.T) {
	repo := newFakeUserRepo()
	repo.users[1] = types.User{ID: 1, Username: "bob", Email: "bob@example.com"}
	repo.nextID = 2
	handler := newOAuthHandlerForTest(repo)

	identity := oauth.Identity{Provider: "google", ID: "g-7", Username: "Bob", Email: "bob.new@example.com"}
	user, err := handler.resolveUser(context.Background(), identity)
	if err != nil {
		t.Fatalf("resolveUser failed: %v", err)
	}

	if user.ID == 1 {
		t.Fatal("expected a new account, not the unrelated existing one")
	}
	if user.Role != authz.RoleUser {
		t.Fatalf("provisioned accounts must start as %q, got %q", authz.RoleUser, user.Role)
	}
	if user.PasswordHash != "" {
		t.Fatal("provisioned accounts must carry no password")
	}
	// "bob" is taken case-insensitively, so the handle gets a suffix.
	if user.Username != "bob1" {
		t.Fatalf("expected collision-suffixed username bob1, got %q", user.Username)
	}
}
