// Package policy is the access-control evaluator: pure functions from an
// authenticated actor and a project to an allow/deny decision. It has no
// database access; callers load the project (with its allocation set) first
// and evaluate once per request.
package policy

import "github.com/diewo77/impacttracker/internal/models"

// Actor is the resolved identity every operation receives from the auth
// boundary. The role is taken from the verified token and never re-derived.
type Actor struct {
	ID   uint
	Role models.Role
}

// IsAdmin reports whether the actor has full read/write capability.
func (a Actor) IsAdmin() bool { return a.Role == models.RoleAdmin }

// CanViewProject decides read access to a project and everything under it
// (indicators, entries, allocations).
//
//   - admin: always
//   - chef_projet: only projects they own
//   - donateur: only projects where they hold an allocation row
func CanViewProject(actor Actor, project *models.Project) bool {
	switch actor.Role {
	case models.RoleAdmin:
		return true
	case models.RoleChefProjet:
		return project.ChefProjectID == actor.ID
	case models.RoleDonateur:
		return project.HasDonor(actor.ID)
	}
	return false
}

// CanEditProject decides write access to project metadata and donor
// allocations. Chefs de projet are read-only on the project record itself.
func CanEditProject(actor Actor) bool {
	return actor.Role == models.RoleAdmin
}

// CanManageIndicators decides write access to indicators and entries of a
// project: admin, or the chef de projet who owns it. Donateurs have no write
// capability anywhere.
func CanManageIndicators(actor Actor, project *models.Project) bool {
	if actor.Role == models.RoleAdmin {
		return true
	}
	return actor.Role == models.RoleChefProjet && project.ChefProjectID == actor.ID
}

// CanManageUsers decides access to the user administration surface.
func CanManageUsers(actor Actor) bool {
	return actor.Role == models.RoleAdmin
}

// CanViewAuditLog decides access to the audit trail.
func CanViewAuditLog(actor Actor) bool {
	return actor.Role == models.RoleAdmin
}
