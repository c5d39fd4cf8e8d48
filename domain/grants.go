package domain

// Role is one named bundle of permission inclusions and exclusions. Permission
// codes are opaque strings scoped by a domain prefix, e.g.
// "iam.authorization.CREATE_ROLE".
type Role struct {
	Name                string   `bson:"name" json:"name"`
	IncludedPermissions []string `bson:"included_permissions,omitempty" json:"included_permissions,omitempty"`
	ExcludedPermissions []string `bson:"excluded_permissions,omitempty" json:"excluded_permissions,omitempty"`
}

// GrantSet aggregates a principal's direct grants and assigned roles.
// Exclusion is absolute: an excluded permission can never be granted back by
// any inclusion, from the same role or another.
type GrantSet struct {
	AdministratorAccess bool     `bson:"administrator_access" json:"administrator_access"`
	IncludedPermissions []string `bson:"included_permissions,omitempty" json:"included_permissions,omitempty"`
	ExcludedPermissions []string `bson:"excluded_permissions,omitempty" json:"excluded_permissions,omitempty"`
	Roles               []Role   `bson:"roles,omitempty" json:"roles,omitempty"`
}
