package authz

import (
	"fmt"

	"github.com/devhub-se/apiserver/config"
)

// Role values form a closed enumeration. Every user carries exactly one.
const (
	RoleUser       = "user"
	RoleForumAdmin = "forum_admin"
	RoleNewsAdmin  = "news_admin"
	RoleSuperAdmin = "super_admin"
)

var knownRoles = map[string]struct{}{
	RoleUser:       {},
	RoleForumAdmin: {},
	RoleNewsAdmin:  {},
	RoleSuperAdmin: {},
}

// Roles holds the admin-role configuration supplied at startup. Which roles
// count as admins, globally or per domain, is decided here and nowhere else.
type Roles struct {
	admin        map[string]struct{}
	forumAdmin   []string
	newsAdmin    []string
	snippetAdmin []string
}

// NewRoles builds the role configuration. It fails when the admin list is
// empty or names a role outside the enumeration, which is fatal at startup.
func NewRoles(cfg config.RolesConfig) (*Roles, error) {
	if len(cfg.AdminRoles) == 0 {
		return nil, fmt.Errorf("admin roles configuration is empty")
	}

	admin := make(map[string]struct{}, len(cfg.AdminRoles))
	for _, role := range cfg.AdminRoles {
		if _, ok := knownRoles[role]; !ok {
			return nil, fmt.Errorf("unknown admin role %q", role)
		}
		admin[role] = struct{}{}
	}

	for _, list := range [][]string{cfg.ForumAdminRoles, cfg.NewsAdminRoles, cfg.SnippetAdminRoles} {
		for _, role := range list {
			if _, ok := admin[role]; !ok {
				return nil, fmt.Errorf("domain admin role %q is not in the admin roles list", role)
			}
		}
	}

	return &Roles{
		admin:        admin,
		forumAdmin:   cfg.ForumAdminRoles,
		newsAdmin:    cfg.NewsAdminRoles,
		snippetAdmin: cfg.SnippetAdminRoles,
	}, nil
}

// IsAdmin reports whether the role belongs to the configured admin subset.
func (r *Roles) IsAdmin(role string) bool {
	_, ok := r.admin[role]
	return ok
}

// IsAllowed reports whether the role is a member of the given allow-list.
func IsAllowed(role string, allowed []string) bool {
	for _, candidate := range allowed {
		if role == candidate {
			return true
		}
	}
	return false
}

// ForumAdmins returns the admin roles that may override ownership of forum
// resources.
func (r *Roles) ForumAdmins() []string { return r.forumAdmin }

// NewsAdmins returns the admin roles that may override ownership of news
// resources.
func (r *Roles) NewsAdmins() []string { return r.newsAdmin }

// SnippetAdmins returns the admin roles that may override ownership of
// snippets.
func (r *Roles) SnippetAdmins() []string { return r.snippetAdmin }
