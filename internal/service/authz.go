package service

import (
	"siteqa-reports/internal/models"
)

// AuthorizationContext is the acting user plus the roles they hold across
// their organizations, computed per request and never persisted.
type AuthorizationContext struct {
	UserID      string
	Memberships []models.Membership
}

// RoleIn returns the caller's role in one organization, if any
func (a AuthorizationContext) RoleIn(organizationID string) (models.OrgRole, bool) {
	for _, m := range a.Memberships {
		if m.OrganizationID == organizationID {
			return m.Role, true
		}
	}
	return "", false
}

// CanView reports whether the entry's organization is among the caller's
// memberships. Roles in other organizations never grant visibility.
func (a AuthorizationContext) CanView(entry *models.ReportQueueEntry) bool {
	_, ok := a.RoleIn(entry.OrganizationID)
	return ok
}

// CanRetry reports whether the caller may retry the entry: the original
// requester, or an owner/admin of the owning organization.
func (a AuthorizationContext) CanRetry(entry *models.ReportQueueEntry) bool {
	if entry.RequestedBy == a.UserID {
		return true
	}
	role, ok := a.RoleIn(entry.OrganizationID)
	if !ok {
		return false
	}
	return role == models.RoleOwner || role == models.RoleAdmin
}

// CanDelete reports whether the caller may delete the entry: the original
// requester, or an owner/admin/project_manager of the owning organization.
func (a AuthorizationContext) CanDelete(entry *models.ReportQueueEntry) bool {
	if entry.RequestedBy == a.UserID {
		return true
	}
	role, ok := a.RoleIn(entry.OrganizationID)
	if !ok {
		return false
	}
	return role == models.RoleOwner || role == models.RoleAdmin || role == models.RoleProjectManager
}
