// Package auth checks credentials, keeps sessions and evaluates permissions.
package auth

import (
	"slices"
	"strings"

	"github.com/areiqi/sitedb/internal/models"
)

// Actions a permission map can grant on a section
const (
	ActionView   = "view"
	ActionAdd    = "add"
	ActionEdit   = "edit"
	ActionDelete = "delete"
	ActionAll    = "all"
)

// HasPermission reports whether id may perform action on section.
// SUPER_ADMIN may do anything and VIEWER may only view. Other roles consult
// the permission map, where the "all" key or action grants everything.
func HasPermission(id *models.Identity, section, action string) bool {
	if id == nil {
		return false
	}
	switch id.Role {
	case models.RoleSuperAdmin:
		return true
	case models.RoleViewer:
		return action == ActionView
	}
	if _, ok := id.Permissions[ActionAll]; ok {
		return true
	}

	allowed, ok := grants(id.Permissions, section)
	if !ok {
		return false
	}
	return slices.Contains(allowed, action) || slices.Contains(allowed, ActionAll)
}

// grants looks up section as named, then its plural, so "project" reads the
// "projects" key while "gallery" and "trash" keep their own names.
func grants(perms models.Permissions, section string) ([]string, bool) {
	if allowed, ok := perms[section]; ok {
		return allowed, true
	}
	if strings.HasSuffix(section, "s") {
		return nil, false
	}
	allowed, ok := perms[section+"s"]
	return allowed, ok
}
