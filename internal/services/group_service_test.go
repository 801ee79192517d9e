package services

import (
	"testing"

	"monedero/internal/events"
	"monedero/internal/models"
	"monedero/internal/testutil"
)

func TestCreateGroup(t *testing.T) {
	t.Run("creator_becomes_admin_with_general_pocket", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGroupService(db, events.Nop())
		user := testutil.CreateTestUser(t, db)

		group, err := svc.CreateGroup(user.ID, "Household", "Shared expenses")
		testutil.AssertNoError(t, err)
		if group.CreatorID == nil || *group.CreatorID != user.ID {
			t.Error("expected group creator to be recorded")
		}

		var member models.Membership
		testutil.AssertNoError(t, db.Where("group_id = ? AND user_id = ?", group.ID, user.ID).First(&member).Error)
		if member.Role != models.RoleAdmin {
			t.Errorf("expected creator role admin, got %s", member.Role)
		}

		var general models.Pocket
		testutil.AssertNoError(t, db.Where("group_id = ? AND name = ?", group.ID, models.GeneralPocketName).First(&general).Error)
		testutil.AssertBalance(t, general.Balance, 0)
	})

	t.Run("empty_name_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGroupService(db, events.Nop())
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateGroup(user.ID, "", "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestGetUserGroups(t *testing.T) {
	t.Run("only_own_memberships", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGroupService(db, events.Nop())
		creator := testutil.CreateTestUser(t, db)
		member := testutil.CreateTestUser(t, db)
		outsider := testutil.CreateTestUser(t, db)

		group, err := svc.CreateGroup(creator.ID, "Trip", "")
		testutil.AssertNoError(t, err)
		testutil.AddTestMember(t, db, member.ID, group.ID, models.RoleMember)
		_, err = svc.CreateGroup(creator.ID, "Household", "")
		testutil.AssertNoError(t, err)

		groups, err := svc.GetUserGroups(creator.ID)
		testutil.AssertNoError(t, err)
		if len(groups) != 2 {
			t.Errorf("expected creator to see 2 groups, got %d", len(groups))
		}

		groups, err = svc.GetUserGroups(member.ID)
		testutil.AssertNoError(t, err)
		if len(groups) != 1 {
			t.Errorf("expected member to see 1 group, got %d", len(groups))
		}

		groups, err = svc.GetUserGroups(outsider.ID)
		testutil.AssertNoError(t, err)
		if len(groups) != 0 {
			t.Errorf("expected outsider to see no groups, got %d", len(groups))
		}
	})
}

func TestGetGroupByID(t *testing.T) {
	t.Run("non_member_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGroupService(db, events.Nop())
		creator := testutil.CreateTestUser(t, db)
		outsider := testutil.CreateTestUser(t, db)
		group := testutil.CreateTestGroup(t, db, creator.ID, 0)

		_, err := svc.GetGroupByID(creator.ID, group.ID)
		testutil.AssertNoError(t, err)

		_, err = svc.GetGroupByID(outsider.ID, group.ID)
		testutil.AssertAppError(t, err, "NOT_GROUP_MEMBER")
	})
}

func TestAddMemberByEmail(t *testing.T) {
	t.Run("admin_adds_member", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGroupService(db, events.Nop())
		admin := testutil.CreateTestUser(t, db)
		invitee := testutil.CreateTestUserWithEmail(t, db, "invitee@test.com")
		group := testutil.CreateTestGroup(t, db, admin.ID, 0)

		member, err := svc.AddMemberByEmail(admin.ID, group.ID, "invitee@test.com", models.RoleMember)
		testutil.AssertNoError(t, err)
		if member.UserID != invitee.ID {
			t.Errorf("expected membership for %s, got %s", invitee.ID, member.UserID)
		}
		if member.Role != models.RoleMember {
			t.Errorf("expected role member, got %s", member.Role)
		}
	})

	t.Run("non_admin_cannot_add", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGroupService(db, events.Nop())
		admin := testutil.CreateTestUser(t, db)
		member := testutil.CreateTestUser(t, db)
		testutil.CreateTestUserWithEmail(t, db, "someone@test.com")
		group := testutil.CreateTestGroup(t, db, admin.ID, 0)
		testutil.AddTestMember(t, db, member.ID, group.ID, models.RoleMember)

		_, err := svc.AddMemberByEmail(member.ID, group.ID, "someone@test.com", models.RoleMember)
		testutil.AssertAppError(t, err, "ADMIN_REQUIRED")
	})

	t.Run("unknown_email", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGroupService(db, events.Nop())
		admin := testutil.CreateTestUser(t, db)
		group := testutil.CreateTestGroup(t, db, admin.ID, 0)

		_, err := svc.AddMemberByEmail(admin.ID, group.ID, "ghost@test.com", models.RoleMember)
		testutil.AssertAppError(t, err, "USER_NOT_FOUND")
	})

	t.Run("already_member", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGroupService(db, events.Nop())
		admin := testutil.CreateTestUserWithEmail(t, db, "admin@test.com")
		group := testutil.CreateTestGroup(t, db, admin.ID, 0)

		_, err := svc.AddMemberByEmail(admin.ID, group.ID, "admin@test.com", models.RoleMember)
		testutil.AssertAppError(t, err, "ALREADY_MEMBER")
	})
}

func TestGetMembers(t *testing.T) {
	t.Run("lists_members_with_creator_flag", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGroupService(db, events.Nop())
		creator := testutil.CreateTestUser(t, db)
		member := testutil.CreateTestUser(t, db)
		group := testutil.CreateTestGroup(t, db, creator.ID, 0)
		testutil.AddTestMember(t, db, member.ID, group.ID, models.RoleMember)

		members, err := svc.GetMembers(member.ID, group.ID)
		testutil.AssertNoError(t, err)
		if len(members) != 2 {
			t.Fatalf("expected 2 members, got %d", len(members))
		}
		for _, m := range members {
			if m.UserID == creator.ID && !m.IsCreator {
				t.Error("expected the creator flag to be set")
			}
			if m.UserID == member.ID && m.IsCreator {
				t.Error("expected a plain member not to be flagged as creator")
			}
		}
	})

	t.Run("non_member_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGroupService(db, events.Nop())
		creator := testutil.CreateTestUser(t, db)
		outsider := testutil.CreateTestUser(t, db)
		group := testutil.CreateTestGroup(t, db, creator.ID, 0)

		_, err := svc.GetMembers(outsider.ID, group.ID)
		testutil.AssertAppError(t, err, "NOT_GROUP_MEMBER")
	})
}

func TestChangeMemberRole(t *testing.T) {
	t.Run("promote_and_demote", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGroupService(db, events.Nop())
		creator := testutil.CreateTestUser(t, db)
		member := testutil.CreateTestUser(t, db)
		group := testutil.CreateTestGroup(t, db, creator.ID, 0)
		testutil.AddTestMember(t, db, member.ID, group.ID, models.RoleMember)

		promoted, err := svc.ChangeMemberRole(creator.ID, group.ID, member.ID, models.RoleAdmin)
		testutil.AssertNoError(t, err)
		if promoted.Role != models.RoleAdmin {
			t.Errorf("expected role admin after promotion, got %s", promoted.Role)
		}

		demoted, err := svc.ChangeMemberRole(creator.ID, group.ID, member.ID, models.RoleMember)
		testutil.AssertNoError(t, err)
		if demoted.Role != models.RoleMember {
			t.Errorf("expected role member after demotion, got %s", demoted.Role)
		}
	})

	t.Run("creator_role_protected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGroupService(db, events.Nop())
		creator := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		group := testutil.CreateTestGroup(t, db, creator.ID, 0)
		testutil.AddTestMember(t, db, other.ID, group.ID, models.RoleAdmin)

		_, err := svc.ChangeMemberRole(other.ID, group.ID, creator.ID, models.RoleMember)
		testutil.AssertAppError(t, err, "CREATOR_ROLE_PROTECTED")
	})

	t.Run("last_admin_protected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGroupService(db, events.Nop())
		admin := testutil.CreateTestUser(t, db)
		member := testutil.CreateTestUser(t, db)

		// A group whose creator is gone: the remaining admin cannot step down.
		group := &models.Group{Name: "Orphaned"}
		testutil.AssertNoError(t, db.Create(group).Error)
		testutil.AddTestMember(t, db, admin.ID, group.ID, models.RoleAdmin)
		testutil.AddTestMember(t, db, member.ID, group.ID, models.RoleMember)

		_, err := svc.ChangeMemberRole(admin.ID, group.ID, admin.ID, models.RoleMember)
		testutil.AssertAppError(t, err, "LAST_ADMIN")

		// Promoting a second admin unblocks the demotion.
		_, err = svc.ChangeMemberRole(admin.ID, group.ID, member.ID, models.RoleAdmin)
		testutil.AssertNoError(t, err)
		_, err = svc.ChangeMemberRole(admin.ID, group.ID, admin.ID, models.RoleMember)
		testutil.AssertNoError(t, err)
	})

	t.Run("invalid_role", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGroupService(db, events.Nop())
		creator := testutil.CreateTestUser(t, db)
		member := testutil.CreateTestUser(t, db)
		group := testutil.CreateTestGroup(t, db, creator.ID, 0)
		testutil.AddTestMember(t, db, member.ID, group.ID, models.RoleMember)

		_, err := svc.ChangeMemberRole(creator.ID, group.ID, member.ID, models.MemberRole("owner"))
		testutil.AssertAppError(t, err, "INVALID_ROLE")
	})

	t.Run("unknown_member", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGroupService(db, events.Nop())
		creator := testutil.CreateTestUser(t, db)
		stranger := testutil.CreateTestUser(t, db)
		group := testutil.CreateTestGroup(t, db, creator.ID, 0)

		_, err := svc.ChangeMemberRole(creator.ID, group.ID, stranger.ID, models.RoleAdmin)
		testutil.AssertAppError(t, err, "MEMBER_NOT_FOUND")
	})
}
