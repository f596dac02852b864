package models

// OrgRole represents a user's role within one organization
type OrgRole string

const (
	RoleOwner          OrgRole = "owner"
	RoleAdmin          OrgRole = "admin"
	RoleProjectManager OrgRole = "project_manager"
	RoleInspector      OrgRole = "inspector"
	RoleViewer         OrgRole = "viewer"
)

// Membership is one (organization, role) pair for a user. A user may belong
// to several organizations, each with an independent role.
type Membership struct {
	OrganizationID string  `json:"organizationId" bson:"organizationId"`
	UserID         string  `json:"userId" bson:"userId"`
	Role           OrgRole `json:"role" bson:"role"`
}

// Identity is the acting user resolved from the request's credentials
type Identity struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}
