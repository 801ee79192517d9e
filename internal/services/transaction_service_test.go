package services

import (
	"testing"
	"time"

	"monedero/internal/events"
	"monedero/internal/models"
	"monedero/internal/pagination"
	"monedero/internal/testutil"
)

func TestCreateTransaction(t *testing.T) {
	t.Run("income_increases_balance", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		pockets := NewPocketService(db, events.Nop())
		svc := NewTransactionService(db, pockets, events.Nop())
		user := testutil.CreateTestUser(t, db)
		pocket := testutil.CreateTestPocket(t, db, user.ID, 0)
		scope := models.PersonalScope(user.ID)

		transaction, err := svc.CreateTransaction(scope, pocket.ID, nil, models.TransactionTypeIncome, 5000, time.Now(), "Salary")
		testutil.AssertNoError(t, err)
		if transaction.ID == "" {
			t.Fatal("expected non-empty transaction ID")
		}

		updated, err := pockets.GetPocketByID(scope, pocket.ID)
		testutil.AssertNoError(t, err)
		testutil.AssertBalance(t, updated.Balance, 5000)
	})

	t.Run("expense_decreases_balance", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		pockets := NewPocketService(db, events.Nop())
		svc := NewTransactionService(db, pockets, events.Nop())
		user := testutil.CreateTestUser(t, db)
		pocket := testutil.CreateTestPocket(t, db, user.ID, 50000)
		scope := models.PersonalScope(user.ID)

		_, err := svc.CreateTransaction(scope, pocket.ID, nil, models.TransactionTypeExpense, 10000, time.Now(), "Groceries")
		testutil.AssertNoError(t, err)

		updated, err := pockets.GetPocketByID(scope, pocket.ID)
		testutil.AssertNoError(t, err)
		testutil.AssertBalance(t, updated.Balance, 40000)
	})

	t.Run("expense_exceeding_balance_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		pockets := NewPocketService(db, events.Nop())
		svc := NewTransactionService(db, pockets, events.Nop())
		user := testutil.CreateTestUser(t, db)
		pocket := testutil.CreateTestPocket(t, db, user.ID, 3000)
		scope := models.PersonalScope(user.ID)

		_, err := svc.CreateTransaction(scope, pocket.ID, nil, models.TransactionTypeExpense, 5000, time.Now(), "")
		testutil.AssertAppError(t, err, "INSUFFICIENT_BALANCE")

		// Balance untouched on rejection
		updated, err := pockets.GetPocketByID(scope, pocket.ID)
		testutil.AssertNoError(t, err)
		testutil.AssertBalance(t, updated.Balance, 3000)
	})

	t.Run("zero_and_negative_amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		pockets := NewPocketService(db, events.Nop())
		svc := NewTransactionService(db, pockets, events.Nop())
		user := testutil.CreateTestUser(t, db)
		pocket := testutil.CreateTestPocket(t, db, user.ID, 0)
		scope := models.PersonalScope(user.ID)

		_, err := svc.CreateTransaction(scope, pocket.ID, nil, models.TransactionTypeIncome, 0, time.Now(), "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")

		_, err = svc.CreateTransaction(scope, pocket.ID, nil, models.TransactionTypeIncome, -100, time.Now(), "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("transfer_type_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		pockets := NewPocketService(db, events.Nop())
		svc := NewTransactionService(db, pockets, events.Nop())
		user := testutil.CreateTestUser(t, db)
		pocket := testutil.CreateTestPocket(t, db, user.ID, 0)

		_, err := svc.CreateTransaction(models.PersonalScope(user.ID), pocket.ID, nil, models.TransactionTypeTransfer, 1000, time.Now(), "")
		testutil.AssertAppError(t, err, "INVALID_TRANSACTION_TYPE")
	})

	t.Run("category_type_mismatch", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		pockets := NewPocketService(db, events.Nop())
		svc := NewTransactionService(db, pockets, events.Nop())
		user := testutil.CreateTestUser(t, db)
		pocket := testutil.CreateTestPocket(t, db, user.ID, 10000)
		category := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeIncome)

		_, err := svc.CreateTransaction(models.PersonalScope(user.ID), pocket.ID, &category.ID, models.TransactionTypeExpense, 1000, time.Now(), "")
		testutil.AssertAppError(t, err, "CATEGORY_TYPE_MISMATCH")
	})

	t.Run("pocket_from_other_context_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		pockets := NewPocketService(db, events.Nop())
		svc := NewTransactionService(db, pockets, events.Nop())
		user := testutil.CreateTestUser(t, db)
		group := testutil.CreateTestGroup(t, db, user.ID, 0)
		groupPocket := testutil.CreateTestGroupPocket(t, db, group.ID, "Mercado", 0)

		// Group pocket is not reachable from the personal context
		_, err := svc.CreateTransaction(models.PersonalScope(user.ID), groupPocket.ID, nil, models.TransactionTypeIncome, 1000, time.Now(), "")
		testutil.AssertAppError(t, err, "POCKET_NOT_FOUND")
	})
}

func TestUpdateTransaction(t *testing.T) {
	t.Run("amount_change_reverses_then_reapplies", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		pockets := NewPocketService(db, events.Nop())
		svc := NewTransactionService(db, pockets, events.Nop())
		user := testutil.CreateTestUser(t, db)
		pocket := testutil.CreateTestPocket(t, db, user.ID, 50000)
		scope := models.PersonalScope(user.ID)

		transaction, err := svc.CreateTransaction(scope, pocket.ID, nil, models.TransactionTypeExpense, 10000, time.Now(), "")
		testutil.AssertNoError(t, err)

		amount := int64(4000)
		_, err = svc.UpdateTransaction(scope, transaction.ID, TransactionUpdate{Amount: &amount})
		testutil.AssertNoError(t, err)

		// 50000 - 10000 + 10000 - 4000
		updated, err := pockets.GetPocketByID(scope, pocket.ID)
		testutil.AssertNoError(t, err)
		testutil.AssertBalance(t, updated.Balance, 46000)
	})

	t.Run("type_flip_moves_balance_both_ways", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		pockets := NewPocketService(db, events.Nop())
		svc := NewTransactionService(db, pockets, events.Nop())
		user := testutil.CreateTestUser(t, db)
		pocket := testutil.CreateTestPocket(t, db, user.ID, 10000)
		scope := models.PersonalScope(user.ID)

		transaction, err := svc.CreateTransaction(scope, pocket.ID, nil, models.TransactionTypeIncome, 2000, time.Now(), "")
		testutil.AssertNoError(t, err)

		expense := models.TransactionTypeExpense
		_, err = svc.UpdateTransaction(scope, transaction.ID, TransactionUpdate{Type: &expense})
		testutil.AssertNoError(t, err)

		// 10000 + 2000 - 2000 - 2000
		updated, err := pockets.GetPocketByID(scope, pocket.ID)
		testutil.AssertNoError(t, err)
		testutil.AssertBalance(t, updated.Balance, 8000)
	})

	t.Run("pocket_move_shifts_delta", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		pockets := NewPocketService(db, events.Nop())
		svc := NewTransactionService(db, pockets, events.Nop())
		user := testutil.CreateTestUser(t, db)
		first := testutil.CreateTestPocket(t, db, user.ID, 20000)
		second := testutil.CreateTestPocket(t, db, user.ID, 20000)
		scope := models.PersonalScope(user.ID)

		transaction, err := svc.CreateTransaction(scope, first.ID, nil, models.TransactionTypeExpense, 5000, time.Now(), "")
		testutil.AssertNoError(t, err)

		_, err = svc.UpdateTransaction(scope, transaction.ID, TransactionUpdate{PocketID: &second.ID})
		testutil.AssertNoError(t, err)

		updatedFirst, err := pockets.GetPocketByID(scope, first.ID)
		testutil.AssertNoError(t, err)
		testutil.AssertBalance(t, updatedFirst.Balance, 20000)

		updatedSecond, err := pockets.GetPocketByID(scope, second.ID)
		testutil.AssertNoError(t, err)
		testutil.AssertBalance(t, updatedSecond.Balance, 15000)
	})

	t.Run("transfer_row_not_editable", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		pockets := NewPocketService(db, events.Nop())
		svc := NewTransactionService(db, pockets, events.Nop())
		user := testutil.CreateTestUser(t, db)
		from := testutil.CreateTestPocket(t, db, user.ID, 10000)
		to := testutil.CreateTestPocket(t, db, user.ID, 0)
		scope := models.PersonalScope(user.ID)

		result, err := svc.CreateTransfer(scope, from.ID, to.ID, 3000, "")
		testutil.AssertNoError(t, err)

		amount := int64(1000)
		_, err = svc.UpdateTransaction(scope, result.Transaction.ID, TransactionUpdate{Amount: &amount})
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_EDITABLE")
	})
}

func TestDeleteTransaction(t *testing.T) {
	t.Run("income_delete_restores_balance", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		pockets := NewPocketService(db, events.Nop())
		svc := NewTransactionService(db, pockets, events.Nop())
		user := testutil.CreateTestUser(t, db)
		pocket := testutil.CreateTestPocket(t, db, user.ID, 0)
		scope := models.PersonalScope(user.ID)

		transaction, err := svc.CreateTransaction(scope, pocket.ID, nil, models.TransactionTypeIncome, 5000, time.Now(), "")
		testutil.AssertNoError(t, err)

		err = svc.DeleteTransaction(scope, transaction.ID)
		testutil.AssertNoError(t, err)

		updated, err := pockets.GetPocketByID(scope, pocket.ID)
		testutil.AssertNoError(t, err)
		testutil.AssertBalance(t, updated.Balance, 0)
	})

	t.Run("transfer_delete_reverses_both_legs", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		pockets := NewPocketService(db, events.Nop())
		svc := NewTransactionService(db, pockets, events.Nop())
		user := testutil.CreateTestUser(t, db)
		from := testutil.CreateTestPocket(t, db, user.ID, 10000)
		to := testutil.CreateTestPocket(t, db, user.ID, 2000)
		scope := models.PersonalScope(user.ID)

		result, err := svc.CreateTransfer(scope, from.ID, to.ID, 4000, "")
		testutil.AssertNoError(t, err)

		err = svc.DeleteTransaction(scope, result.Transaction.ID)
		testutil.AssertNoError(t, err)

		updatedFrom, err := pockets.GetPocketByID(scope, from.ID)
		testutil.AssertNoError(t, err)
		testutil.AssertBalance(t, updatedFrom.Balance, 10000)

		updatedTo, err := pockets.GetPocketByID(scope, to.ID)
		testutil.AssertNoError(t, err)
		testutil.AssertBalance(t, updatedTo.Balance, 2000)
	})
}

func TestCreateTransfer(t *testing.T) {
	t.Run("conserves_total_across_pockets", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		pockets := NewPocketService(db, events.Nop())
		svc := NewTransactionService(db, pockets, events.Nop())
		user := testutil.CreateTestUser(t, db)
		from := testutil.CreateTestPocket(t, db, user.ID, 50000)
		to := testutil.CreateTestPocket(t, db, user.ID, 10000)
		scope := models.PersonalScope(user.ID)

		result, err := svc.CreateTransfer(scope, from.ID, to.ID, 15000, "Savings top-up")
		testutil.AssertNoError(t, err)

		testutil.AssertBalance(t, result.From.Balance, 35000)
		testutil.AssertBalance(t, result.To.Balance, 25000)
		if result.From.Balance+result.To.Balance != 60000 {
			t.Errorf("transfer must conserve the total, got %d", result.From.Balance+result.To.Balance)
		}
		if result.Transaction.Type != models.TransactionTypeTransfer {
			t.Errorf("expected transfer row, got %s", result.Transaction.Type)
		}
	})

	t.Run("same_pocket_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		pockets := NewPocketService(db, events.Nop())
		svc := NewTransactionService(db, pockets, events.Nop())
		user := testutil.CreateTestUser(t, db)
		pocket := testutil.CreateTestPocket(t, db, user.ID, 10000)

		_, err := svc.CreateTransfer(models.PersonalScope(user.ID), pocket.ID, pocket.ID, 1000, "")
		testutil.AssertAppError(t, err, "SAME_POCKET_TRANSFER")
	})

	t.Run("insufficient_balance_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		pockets := NewPocketService(db, events.Nop())
		svc := NewTransactionService(db, pockets, events.Nop())
		user := testutil.CreateTestUser(t, db)
		from := testutil.CreateTestPocket(t, db, user.ID, 500)
		to := testutil.CreateTestPocket(t, db, user.ID, 0)

		_, err := svc.CreateTransfer(models.PersonalScope(user.ID), from.ID, to.ID, 1000, "")
		testutil.AssertAppError(t, err, "INSUFFICIENT_BALANCE")
	})

	t.Run("cross_context_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		pockets := NewPocketService(db, events.Nop())
		svc := NewTransactionService(db, pockets, events.Nop())
		user := testutil.CreateTestUser(t, db)
		group := testutil.CreateTestGroup(t, db, user.ID, 0)
		personal := testutil.CreateTestPocket(t, db, user.ID, 10000)
		groupPocket := testutil.CreateTestGroupPocket(t, db, group.ID, "Mercado", 0)

		_, err := svc.CreateTransfer(models.PersonalScope(user.ID), personal.ID, groupPocket.ID, 1000, "")
		testutil.AssertAppError(t, err, "CROSS_CONTEXT_TRANSFER")
	})
}

func TestGetTransactions(t *testing.T) {
	t.Run("excludes_transfers_by_default", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		pockets := NewPocketService(db, events.Nop())
		svc := NewTransactionService(db, pockets, events.Nop())
		user := testutil.CreateTestUser(t, db)
		from := testutil.CreateTestPocket(t, db, user.ID, 50000)
		to := testutil.CreateTestPocket(t, db, user.ID, 0)
		scope := models.PersonalScope(user.ID)

		_, err := svc.CreateTransaction(scope, from.ID, nil, models.TransactionTypeIncome, 1000, time.Now(), "")
		testutil.AssertNoError(t, err)
		_, err = svc.CreateTransaction(scope, from.ID, nil, models.TransactionTypeExpense, 2000, time.Now(), "")
		testutil.AssertNoError(t, err)
		_, err = svc.CreateTransfer(scope, from.ID, to.ID, 3000, "")
		testutil.AssertNoError(t, err)

		response, err := svc.GetTransactions(scope, pagination.PageRequest{}, TransactionFilter{})
		testutil.AssertNoError(t, err)
		if response.TotalItems != 2 {
			t.Errorf("expected 2 transactions, got %d", response.TotalItems)
		}

		transferType := models.TransactionTypeTransfer
		transfers, err := svc.GetTransactions(scope, pagination.PageRequest{}, TransactionFilter{Type: &transferType})
		testutil.AssertNoError(t, err)
		if transfers.TotalItems != 1 {
			t.Errorf("expected 1 transfer, got %d", transfers.TotalItems)
		}
	})

	t.Run("newest_first", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		pockets := NewPocketService(db, events.Nop())
		svc := NewTransactionService(db, pockets, events.Nop())
		user := testutil.CreateTestUser(t, db)
		pocket := testutil.CreateTestPocket(t, db, user.ID, 0)
		scope := models.PersonalScope(user.ID)

		older := time.Now().AddDate(0, 0, -2)
		newer := time.Now()
		_, err := svc.CreateTransaction(scope, pocket.ID, nil, models.TransactionTypeIncome, 1000, older, "old")
		testutil.AssertNoError(t, err)
		_, err = svc.CreateTransaction(scope, pocket.ID, nil, models.TransactionTypeIncome, 1000, newer, "new")
		testutil.AssertNoError(t, err)

		response, err := svc.GetTransactions(scope, pagination.PageRequest{}, TransactionFilter{})
		testutil.AssertNoError(t, err)
		if len(response.Data) != 2 {
			t.Fatalf("expected 2 transactions, got %d", len(response.Data))
		}
		if response.Data[0].Description != "new" {
			t.Errorf("expected newest transaction first, got %q", response.Data[0].Description)
		}
	})
}
