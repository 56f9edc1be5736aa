package permission

import (
	"testing"

	"github.com/caregrid/caregrid/internal/models"
)

func membershipsFixture() []models.GroupMembership {
	return []models.GroupMembership{
		{GroupID: 1, UserID: 10, Role: models.RoleAdmin},
		{GroupID: 1, UserID: 11, Role: models.RoleMember},
		{GroupID: 2, UserID: 10, Role: models.RoleMember},
	}
}

func TestIsAdminOf(t *testing.T) {
	ms := membershipsFixture()
	cases := []struct {
		name    string
		groupID uint64
		want    bool
	}{
		{"admin in group", 1, true},
		{"member only", 2, false},
		{"no membership", 3, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsAdminOf(ms, tc.groupID); got != tc.want {
				t.Fatalf("IsAdminOf(%d) = %v, want %v", tc.groupID, got, tc.want)
			}
		})
	}
}

func TestCanInviteMembers(t *testing.T) {
	ms := membershipsFixture()
	if !CanInviteMembers(ms, 1) {
		t.Fatalf("expected admin to invite")
	}
	if CanInviteMembers(ms, 2) {
		t.Fatalf("expected plain member not to invite")
	}
	if CanInviteMembers(nil, 1) {
		t.Fatalf("expected non-member not to invite")
	}
}

func TestCanChangeMemberRole(t *testing.T) {
	ms := membershipsFixture()
	cases := []struct {
		name       string
		targetRole models.Role
		newRole    models.Role
		adminCount int
		want       bool
	}{
		{"promote member", models.RoleMember, models.RoleAdmin, 1, true},
		{"demote one of two admins", models.RoleAdmin, models.RoleMember, 2, true},
		{"demote last admin", models.RoleAdmin, models.RoleMember, 1, false},
		{"reassert admin role", models.RoleAdmin, models.RoleAdmin, 1, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CanChangeMemberRole(ms, 1, 11, 10, tc.targetRole, tc.newRole, tc.adminCount)
			if got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}

	if CanChangeMemberRole(ms, 2, 11, 10, models.RoleMember, models.RoleAdmin, 1) {
		t.Fatalf("non-admin caller must not change roles")
	}
}

func TestCanRemoveMember(t *testing.T) {
	ms := membershipsFixture()
	cases := []struct {
		name              string
		targetUserID      uint64
		callerUserID      uint64
		targetIsSoleAdmin bool
		want              bool
	}{
		{"admin removes member", 11, 10, false, true},
		{"member removes self", 11, 11, false, true},
		{"member removes other", 10, 11, false, false},
		{"sole admin removes self", 10, 10, true, false},
		{"one of two admins leaves", 10, 10, false, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CanRemoveMember(ms, 1, tc.targetUserID, tc.callerUserID, tc.targetIsSoleAdmin)
			if got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCanManagePatients(t *testing.T) {
	ms := membershipsFixture()
	if !CanManagePatients(ms, 2, false) {
		t.Fatalf("open policy should allow any member")
	}
	if CanManagePatients(ms, 2, true) {
		t.Fatalf("admin-only policy should reject a plain member")
	}
	if !CanManagePatients(ms, 1, true) {
		t.Fatalf("admin-only policy should allow an admin")
	}
	if CanManagePatients(ms, 3, false) {
		t.Fatalf("non-member should never manage patients")
	}
}
