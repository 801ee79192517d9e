package services

import (
	"testing"

	"monedero/internal/events"
	"monedero/internal/models"
	"monedero/internal/testutil"
)

func TestCreatePocket(t *testing.T) {
	t.Run("personal_with_opening_balance", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPocketService(db, events.Nop())
		user := testutil.CreateTestUser(t, db)

		pocket, err := svc.CreatePocket(models.PersonalScope(user.ID), "Wallet", "#3b82f6", "wallet", 50000)
		testutil.AssertNoError(t, err)

		if pocket.ID == "" {
			t.Fatal("expected non-empty pocket ID")
		}
		testutil.AssertBalance(t, pocket.Balance, 50000)
		if pocket.UserID == nil || *pocket.UserID != user.ID {
			t.Errorf("expected personal ownership, got %+v", pocket)
		}
	})

	t.Run("empty_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPocketService(db, events.Nop())
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreatePocket(models.PersonalScope(user.ID), "", "", "", 0)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("duplicate_name_in_context", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPocketService(db, events.Nop())
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreatePocket(models.PersonalScope(user.ID), "Wallet", "", "", 0)
		testutil.AssertNoError(t, err)

		_, err = svc.CreatePocket(models.PersonalScope(user.ID), "Wallet", "", "", 0)
		testutil.AssertAppError(t, err, "DUPLICATE_POCKET_NAME")
	})

	t.Run("same_name_allowed_across_contexts", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPocketService(db, events.Nop())
		user := testutil.CreateTestUser(t, db)
		group := testutil.CreateTestGroup(t, db, user.ID, 0)

		_, err := svc.CreatePocket(models.PersonalScope(user.ID), "Ahorros", "", "", 0)
		testutil.AssertNoError(t, err)

		_, err = svc.CreatePocket(models.GroupScope(user.ID, group.ID), "Ahorros", "", "", 0)
		testutil.AssertNoError(t, err)
	})

	t.Run("group_opening_balance_funded_from_general", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPocketService(db, events.Nop())
		user := testutil.CreateTestUser(t, db)
		group := testutil.CreateTestGroup(t, db, user.ID, 100000)
		scope := models.GroupScope(user.ID, group.ID)

		pocket, err := svc.CreatePocket(scope, "Mercado", "", "", 30000)
		testutil.AssertNoError(t, err)
		testutil.AssertBalance(t, pocket.Balance, 30000)

		var general models.Pocket
		err = db.Where("group_id = ? AND name = ?", group.ID, models.GeneralPocketName).First(&general).Error
		testutil.AssertNoError(t, err)
		testutil.AssertBalance(t, general.Balance, 70000)
	})

	t.Run("group_opening_balance_exceeds_general", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPocketService(db, events.Nop())
		user := testutil.CreateTestUser(t, db)
		group := testutil.CreateTestGroup(t, db, user.ID, 10000)

		_, err := svc.CreatePocket(models.GroupScope(user.ID, group.ID), "Mercado", "", "", 30000)
		testutil.AssertAppError(t, err, "INSUFFICIENT_BALANCE")
	})

	t.Run("non_member_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPocketService(db, events.Nop())
		creator := testutil.CreateTestUser(t, db)
		outsider := testutil.CreateTestUser(t, db)
		group := testutil.CreateTestGroup(t, db, creator.ID, 0)

		_, err := svc.CreatePocket(models.GroupScope(outsider.ID, group.ID), "Mercado", "", "", 0)
		testutil.AssertAppError(t, err, "NOT_GROUP_MEMBER")
	})
}

func TestGetPockets(t *testing.T) {
	t.Run("context_isolation", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPocketService(db, events.Nop())
		user := testutil.CreateTestUser(t, db)
		group := testutil.CreateTestGroup(t, db, user.ID, 0)
		testutil.CreateTestPocket(t, db, user.ID, 1000)
		testutil.CreateTestGroupPocket(t, db, group.ID, "Mercado", 2000)

		personal, err := svc.GetPockets(models.PersonalScope(user.ID))
		testutil.AssertNoError(t, err)
		if len(personal) != 1 {
			t.Fatalf("expected 1 personal pocket, got %d", len(personal))
		}

		// Group context shows the General pocket plus the extra one
		grouped, err := svc.GetPockets(models.GroupScope(user.ID, group.ID))
		testutil.AssertNoError(t, err)
		if len(grouped) != 2 {
			t.Fatalf("expected 2 group pockets, got %d", len(grouped))
		}
	})

	t.Run("other_users_pockets_invisible", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPocketService(db, events.Nop())
		user := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		testutil.CreateTestPocket(t, db, other.ID, 1000)

		pockets, err := svc.GetPockets(models.PersonalScope(user.ID))
		testutil.AssertNoError(t, err)
		if len(pockets) != 0 {
			t.Errorf("expected no pockets, got %d", len(pockets))
		}
	})
}

func TestUpdatePocket(t *testing.T) {
	t.Run("rename_and_recolor", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPocketService(db, events.Nop())
		user := testutil.CreateTestUser(t, db)
		pocket := testutil.CreateTestPocket(t, db, user.ID, 5000)

		name := "Renamed"
		color := "#22c55e"
		updated, err := svc.UpdatePocket(models.PersonalScope(user.ID), pocket.ID, PocketUpdate{Name: &name, Color: &color})
		testutil.AssertNoError(t, err)
		if updated.Name != "Renamed" || updated.Color != "#22c55e" {
			t.Errorf("unexpected pocket after update: %+v", updated)
		}
		testutil.AssertBalance(t, updated.Balance, 5000)
	})

	t.Run("personal_balance_set_directly", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPocketService(db, events.Nop())
		user := testutil.CreateTestUser(t, db)
		pocket := testutil.CreateTestPocket(t, db, user.ID, 5000)

		balance := int64(9000)
		updated, err := svc.UpdatePocket(models.PersonalScope(user.ID), pocket.ID, PocketUpdate{Balance: &balance})
		testutil.AssertNoError(t, err)
		testutil.AssertBalance(t, updated.Balance, 9000)
	})

	t.Run("group_balance_raise_debits_general", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPocketService(db, events.Nop())
		user := testutil.CreateTestUser(t, db)
		group := testutil.CreateTestGroup(t, db, user.ID, 50000)
		pocket := testutil.CreateTestGroupPocket(t, db, group.ID, "Mercado", 10000)

		balance := int64(25000)
		updated, err := svc.UpdatePocket(models.GroupScope(user.ID, group.ID), pocket.ID, PocketUpdate{Balance: &balance})
		testutil.AssertNoError(t, err)
		testutil.AssertBalance(t, updated.Balance, 25000)

		var general models.Pocket
		err = db.Where("group_id = ? AND name = ?", group.ID, models.GeneralPocketName).First(&general).Error
		testutil.AssertNoError(t, err)
		testutil.AssertBalance(t, general.Balance, 35000)
	})

	t.Run("group_balance_lower_credits_general", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPocketService(db, events.Nop())
		user := testutil.CreateTestUser(t, db)
		group := testutil.CreateTestGroup(t, db, user.ID, 50000)
		pocket := testutil.CreateTestGroupPocket(t, db, group.ID, "Mercado", 20000)

		balance := int64(5000)
		_, err := svc.UpdatePocket(models.GroupScope(user.ID, group.ID), pocket.ID, PocketUpdate{Balance: &balance})
		testutil.AssertNoError(t, err)

		var general models.Pocket
		err = db.Where("group_id = ? AND name = ?", group.ID, models.GeneralPocketName).First(&general).Error
		testutil.AssertNoError(t, err)
		testutil.AssertBalance(t, general.Balance, 65000)
	})

	t.Run("general_pocket_protected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPocketService(db, events.Nop())
		user := testutil.CreateTestUser(t, db)
		group := testutil.CreateTestGroup(t, db, user.ID, 50000)

		var general models.Pocket
		err := db.Where("group_id = ? AND name = ?", group.ID, models.GeneralPocketName).First(&general).Error
		testutil.AssertNoError(t, err)

		balance := int64(99999)
		_, err = svc.UpdatePocket(models.GroupScope(user.ID, group.ID), general.ID, PocketUpdate{Balance: &balance})
		testutil.AssertAppError(t, err, "GENERAL_POCKET_PROTECTED")
	})
}

func TestDeletePocket(t *testing.T) {
	t.Run("unused_pocket_deleted", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPocketService(db, events.Nop())
		user := testutil.CreateTestUser(t, db)
		pocket := testutil.CreateTestPocket(t, db, user.ID, 0)

		err := svc.DeletePocket(models.PersonalScope(user.ID), pocket.ID)
		testutil.AssertNoError(t, err)

		_, err = svc.GetPocketByID(models.PersonalScope(user.ID), pocket.ID)
		testutil.AssertAppError(t, err, "POCKET_NOT_FOUND")
	})

	t.Run("referenced_pocket_blocked", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPocketService(db, events.Nop())
		user := testutil.CreateTestUser(t, db)
		pocket := testutil.CreateTestPocket(t, db, user.ID, 10000)
		testutil.CreateTestTransaction(t, db, user.ID, pocket.ID, models.TransactionTypeIncome, 10000)

		err := svc.DeletePocket(models.PersonalScope(user.ID), pocket.ID)
		testutil.AssertAppError(t, err, "POCKET_IN_USE")
	})

	t.Run("general_pocket_undeletable", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPocketService(db, events.Nop())
		user := testutil.CreateTestUser(t, db)
		group := testutil.CreateTestGroup(t, db, user.ID, 0)

		var general models.Pocket
		err := db.Where("group_id = ? AND name = ?", group.ID, models.GeneralPocketName).First(&general).Error
		testutil.AssertNoError(t, err)

		err = svc.DeletePocket(models.GroupScope(user.ID, group.ID), general.ID)
		testutil.AssertAppError(t, err, "GENERAL_POCKET_PROTECTED")
	})
}
