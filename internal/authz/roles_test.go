package authz

import (
	"testing"

	"github.com/devhub-se/apiserver/config"
)

func validRolesConfig() config.RolesConfig {
	return config.RolesConfig{
		AdminRoles:        []string{RoleForumAdmin, RoleNewsAdmin, RoleSuperAdmin},
		ForumAdminRoles:   []string{RoleForumAdmin, RoleSuperAdmin},
		NewsAdminRoles:    []string{RoleNewsAdmin, RoleSuperAdmin},
		SnippetAdminRoles: []string{RoleForumAdmin, RoleNewsAdmin, RoleSuperAdmin},
	}
}

func TestNewRoles(t *testing.T) {
	roles, err := NewRoles(validRolesConfig())
	if err != nil {
		t.Fatalf("NewRoles failed: %v", err)
	}

	if !roles.IsAdmin(RoleForumAdmin) {
		t.Fatalf("expected %s to be an admin role", RoleForumAdmin)
	}
	if !roles.IsAdmin(RoleSuperAdmin) {
		t.Fatalf("expected %s to be an admin role", RoleSuperAdmin)
	}
	if roles.IsAdmin(RoleUser) {
		t.Fatalf("did not expect %s to be an admin role", RoleUser)
	}
}

func TestNewRolesEmptyAdminList(t *testing.T) {
	cfg := validRolesConfig()
	cfg.AdminRoles = nil

	if _, err := NewRoles(cfg); err == nil {
		t.Fatal("expected error for empty admin roles list")
	}
}

func TestNewRolesUnknownRole(t *testing.T) {
	cfg := validRolesConfig()
	cfg.AdminRoles = append(cfg.AdminRoles, "galactic_admin")

	if _, err := NewRoles(cfg); err == nil {
		t.Fatal("expected error for unknown admin role")
	}
}

func TestNewRolesDomainRoleOutsideAdminSet(t *testing.T) {
	cfg := validRolesConfig()
	cfg.NewsAdminRoles = append(cfg.NewsAdminRoles, RoleUser)

	if _, err := NewRoles(cfg); err == nil {
		t.Fatal("expected error for domain role outside the admin set")
	}
}

func TestIsAllowed(t *testing.T) {
	allowed := []string{RoleNewsAdmin, RoleSuperAdmin}

	if !IsAllowed(RoleNewsAdmin, allowed) {
		t.Fatalf("expected %s to be allowed", RoleNewsAdmin)
	}
	if IsAllowed(RoleForumAdmin, allowed) {
		t.Fatalf("did not expect %s to be allowed", RoleForumAdmin)
	}
	if IsAllowed(RoleUser, nil) {
		t.Fatal("did not expect any role to be allowed by an empty list")
	}
}

func TestDomainAdminLists(t *testing.T) {
	roles, err := NewRoles(validRolesConfig())
	if err != nil {
		t.Fatalf("NewRoles failed: %v", err)
	}

	if got := len(roles.ForumAdmins()); got != 2 {
		t.Fatalf("expected 2 forum admin roles, got %d", got)
	}
	if got := len(roles.NewsAdmins()); got != 2 {
		t.Fatalf("expected 2 news admin roles, got %d", got)
	}
	if got := len(roles.SnippetAdmins()); got != 3 {
		t.Fatalf("expected 3 snippet admin roles, got %d", got)
	}
}
