// Package permission decides whether a caller may act on a group, given a
// snapshot of the caller's memberships. All predicates are pure and total:
// they perform no I/O and never fail, they only return false.
package permission

import "github.com/caregrid/caregrid/internal/models"

// IsAdminOf reports whether the memberships grant admin standing in the group.
func IsAdminOf(memberships []models.GroupMembership, groupID uint64) bool {
	for _, m := range memberships {
		if m.GroupID == groupID && m.Role == models.RoleAdmin {
			return true
		}
	}
	return false
}

// IsMemberOf reports whether the memberships grant any standing in the group.
func IsMemberOf(memberships []models.GroupMembership, groupID uint64) bool {
	for _, m := range memberships {
		if m.GroupID == groupID {
			return true
		}
	}
	return false
}

// CanInviteMembers reports whether the caller may issue or revoke invitations.
func CanInviteMembers(memberships []models.GroupMembership, groupID uint64) bool {
	return IsAdminOf(memberships, groupID)
}

// CanChangeMemberRole reports whether the caller may set targetRole's holder
// to newRole. adminCount is the group's current number of admins; demoting
// the last admin is refused so the group can never become unmanageable.
func CanChangeMemberRole(memberships []models.GroupMembership, groupID, targetUserID, callerUserID uint64, targetRole, newRole models.Role, adminCount int) bool {
	if !IsAdminOf(memberships, groupID) {
		return false
	}
	if targetRole == models.RoleAdmin && newRole != models.RoleAdmin && adminCount <= 1 {
		return false
	}
	return true
}

// CanRemoveMember reports whether the caller may remove the target from the
// group. Admins may remove anyone, and any member may remove themselves,
// except the group's sole admin, who must transfer adminship first.
func CanRemoveMember(memberships []models.GroupMembership, groupID, targetUserID, callerUserID uint64, targetIsSoleAdmin bool) bool {
	if targetIsSoleAdmin {
		return false
	}
	if callerUserID == targetUserID {
		return IsMemberOf(memberships, groupID)
	}
	return IsAdminOf(memberships, groupID)
}

// CanManagePatients reports whether the caller may change the group's patient
// roster. By default any member may; requiresAdmin restricts it to admins.
func CanManagePatients(memberships []models.GroupMembership, groupID uint64, requiresAdmin bool) bool {
	if requiresAdmin {
		return IsAdminOf(memberships, groupID)
	}
	return IsMemberOf(memberships, groupID)
}
