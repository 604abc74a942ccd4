package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/devhub-se/apiserver/internal/store"
	"github.com/devhub-se/apiserver/types"
)

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

func newTestEngine(t *testing.T, users ...types.User) *Engine {
	t.Helper()

	roles, err := NewRoles(validRolesConfig())
	if err != nil {
		t.Fatalf("NewRoles failed: %v", err)
	}

	source := &fakeUserSource{users: make(map[int]types.User)}
	for _, user := range users {
		source.users[user.ID] = user
	}
	return NewEngine(source, roles)
}

func snippetResource(engine *Engine, snippets map[int]types.Snippet) Resource {
	return Resource{
		Name: "snippet",
		Lookup: func(_ context.Context, id int) (Owned, error) {
			snippet, ok := snippets[id]
			if !ok {
				return nil, store.ErrNotFound
			}
			return snippet, nil
		},
		AdminRoles: engine.Roles().SnippetAdmins(),
	}
}

func TestAuthorizeOwnedOwnerPermitted(t *testing.T) {
	owner := types.User{ID: 1, Username: "alice", Role: RoleUser}
	engine := newTestEngine(t, owner)
	resource := snippetResource(engine, map[int]types.Snippet{
		7: {ID: 7, UserID: 1},
	})

	user, target, err := engine.AuthorizeOwned(context.Background(), 1, resource, 7)
	if err != nil {
		t.Fatalf("expected permit, got %v", err)
	}
	if user.ID != 1 {
		t.Fatalf("expected resolved user 1, got %d", user.ID)
	}
	if target.OwnerID() != 1 {
		t.Fatalf("expected resolved resource owned by 1, got %d", target.OwnerID())
	}
}

func TestAuthorizeOwnedAdminOverride(t *testing.T) {
	admin := types.User{ID: 2, Username: "root", Role: RoleSuperAdmin}
	engine := newTestEngine(t, admin)
	resource := snippetResource(engine, map[int]types.Snippet{
		7: {ID: 7, UserID: 1},
	})

	if _, _, err := engine.AuthorizeOwned(context.Background(), 2, resource, 7); err != nil {
		t.Fatalf("expected admin override to permit, got %v", err)
	}
}

func newsResource(engine *Engine, articles map[int]types.News) Resource {
	return Resource{
		Name: "news",
		Lookup: func(_ context.Context, id int) (Owned, error) {
			article, ok := articles[id]
			if !ok {
				return nil, store.ErrNotFound
			}
			return article, nil
		},
		AdminRoles: engine.Roles().NewsAdmins(),
	}
}

// Admin override is scoped per domain: a forum admin has no standing on a
// news article they don't own, while a news admin does.
func TestAuthorizeOwnedDomainScopedAdmin(t *testing.T) {
	forumAdmin := types.User{ID: 2, Username: "mod", Role: RoleForumAdmin}
	newsAdmin := types.User{ID: 3, Username: "editor", Role: RoleNewsAdmin}
	engine := newTestEngine(t, forumAdmin, newsAdmin)
	resource := newsResource(engine, map[int]types.News{
		5: {ID: 5, UserID: 1},
	})

	_, _, err := engine.AuthorizeOwned(context.Background(), 2, resource, 5)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for forum admin on news, got %v", err)
	}

	if _, _, err := engine.AuthorizeOwned(context.Background(), 3, resource, 5); err != nil {
		t.Fatalf("expected news admin override to permit, got %v", err)
	}
}

func TestAuthorizeOwnedNonOwnerDenied(t *testing.T) {
	stranger := types.User{ID: 3, Username: "bob", Role: RoleUser}
	engine := newTestEngine(t, stranger)
	resource := snippetResource(engine, map[int]types.Snippet{
		7: {ID: 7, UserID: 1},
	})

	_, _, err := engine.AuthorizeOwned(context.Background(), 3, resource, 7)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestAuthorizeOwnedUnauthenticated(t *testing.T) {
	engine := newTestEngine(t)
	resource := snippetResource(engine, map[int]types.Snippet{
		7: {ID: 7, UserID: 1},
	})

	_, _, err := engine.AuthorizeOwned(context.Background(), 0, resource, 7)
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestAuthorizeOwnedUnknownCaller(t *testing.T) {
	engine := newTestEngine(t)
	resource := snippetResource(engine, map[int]types.Snippet{
		7: {ID: 7, UserID: 1},
	})

	_, _, err := engine.AuthorizeOwned(context.Background(), 99, resource, 7)
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

// A missing resource reads as not-found even for admins; admin status never
// substitutes for existence.
func TestAuthorizeOwnedMissingResource(t *testing.T) {
	admin := types.User{ID: 2, Username: "root", Role: RoleSuperAdmin}
	engine := newTestEngine(t, admin)
	resource := snippetResource(engine, map[int]types.Snippet{})

	_, _, err := engine.AuthorizeOwned(context.Background(), 2, resource, 404)
	if !errors.Is(err, ErrResourceNotFound) {
		t.Fatalf("expected ErrResourceNotFound, got %v", err)
	}
}

// Existence is decided before ownership: a non-owner probing a missing id
// sees the same not-found as everyone else, never a forbidden.
func TestAuthorizeOwnedExistenceBeforeOwnership(t *testing.T) {
	stranger := types.User{ID: 3, Username: "bob", Role: RoleUser}
	engine := newTestEngine(t, stranger)
	resource := snippetResource(engine, map[int]types.Snippet{})

	_, _, err := engine.AuthorizeOwned(context.Background(), 3, resource, 404)
	if !errors.Is(err, ErrResourceNotFound) {
		t.Fatalf("expected ErrResourceNotFound, got %v", err)
	}
}

func TestAuthorizeRole(t *testing.T) {
	newsAdmin := types.User{ID: 4, Username: "editor", Role: RoleNewsAdmin}
	plain := types.User{ID: 5, Username: "carol", Role: RoleUser}
	engine := newTestEngine(t, newsAdmin, plain)
	allowed := engine.Roles().NewsAdmins()

	if _, err := engine.AuthorizeRole(context.Background(), 4, allowed); err != nil {
		t.Fatalf("expected permit for news admin, got %v", err)
	}

	_, err := engine.AuthorizeRole(context.Background(), 5, allowed)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for plain user, got %v", err)
	}

	_, err = engine.AuthorizeRole(context.Background(), 0, allowed)
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}

	_, err = engine.AuthorizeRole(context.Background(), 42, allowed)
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

// The role used for decisions comes from the user record, not the token:
// updating the record is enough to change the outcome.
func TestAuthorizeRoleReflectsCurrentRecord(t *testing.T) {
	roles, err := NewRoles(validRolesConfig())
	if err != nil {
		t.Fatalf("NewRoles failed: %v", err)
	}
	source := &fakeUserSource{users: map[int]types.User{
		6: {ID: 6, Username: "dave", Role: RoleNewsAdmin},
	}}
	engine := NewEngine(source, roles)

	if _, err := engine.AuthorizeRole(context.Background(), 6, roles.NewsAdmins()); err != nil {
		t.Fatalf("expected permit before demotion, got %v", err)
	}

	source.users[6] = types.User{ID: 6, Username: "dave", Role: RoleUser}
	_, err = engine.AuthorizeRole(context.Background(), 6, roles.NewsAdmins())
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden after demotion, got %v", err)
	}
}
