// Package rbac computes whether a principal's aggregated grants satisfy a
// required permission set. Resolution is a pure function of the grant set and
// the requirement; nothing here reads or writes state.
package rbac

import "github.com/authcore-io/authcore/domain"

// Permissions guarding the session management surface.
const (
	PermSessionsListSelf  = "iam.authentication.LIST_SESSIONS_SELF"
	PermSessionsClearSelf = "iam.authentication.CLEAR_SESSIONS_SELF"
	PermSessionsListAll   = "iam.authentication.LIST_SESSIONS_ALL"
	PermSessionsClearAll  = "iam.authentication.CLEAR_SESSIONS_ALL"
)

type permSet map[string]struct{}

func (s permSet) add(perms []string) {
	for _, p := range perms {
		s[p] = struct{}{}
	}
}

func (s permSet) has(perm string) bool {
	_, ok := s[perm]
	return ok
}

// HasPermission reports whether grants satisfy every permission in required.
//
// The order of evaluation is deliberate and load-bearing:
//
//  1. An empty requirement always passes.
//  2. Administrator access bypasses everything else.
//  3. Exclusions are checked first, unioned across the user and all assigned
//     roles. An exclusion from any one role vetoes that permission no matter
//     what another role includes; the most restrictive role wins.
//  4. Only then is the effective inclusion set computed and checked.
func HasPermission(grants *domain.GrantSet, required []string) bool {
	if len(required) == 0 {
		return true
	}
	if grants == nil {
		return false
	}
	if grants.AdministratorAccess {
		return true
	}

	userExcluded := permSet{}
	userExcluded.add(grants.ExcludedPermissions)

	roleExcluded := permSet{}
	for _, role := range grants.Roles {
		roleExcluded.add(role.ExcludedPermissions)
	}

	for _, perm := range required {
		if userExcluded.has(perm) || roleExcluded.has(perm) {
			return false
		}
	}

	effective := permSet{}
	for _, role := range grants.Roles {
		for _, perm := range role.IncludedPermissions {
			if !roleExcluded.has(perm) {
				effective[perm] = struct{}{}
			}
		}
	}
	for _, perm := range grants.IncludedPermissions {
		if !userExcluded.has(perm) {
			effective[perm] = struct{}{}
		}
	}

	for _, perm := range required {
		if !effective.has(perm) {
			return false
		}
	}
	return true
}
