package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	apperrors "monedero/internal/errors"
	"monedero/internal/events"
	"monedero/internal/logger"
	"monedero/internal/models"
	"monedero/internal/money"
	"monedero/internal/pagination"
)

// transactionService handles the movement ledger.
type transactionService struct {
	db      *gorm.DB
	pockets PocketServicer
	bus     events.Bus
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, pockets PocketServicer, bus events.Bus) TransactionServicer {
	return &transactionService{db: db, pockets: pockets, bus: bus}
}

// CreateTransaction records an income or expense against a pocket and adjusts
// the pocket balance atomically. Expenses must be covered by the pocket.
func (s *transactionService) CreateTransaction(scope models.Scope, pocketID string, categoryID *string, transactionType models.TransactionType, amount int64, date time.Time, description string) (*models.Transaction, error) {
	if transactionType != models.TransactionTypeIncome && transactionType != models.TransactionTypeExpense {
		return nil, apperrors.ErrInvalidTransactionType
	}
	if amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if pocketID == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "pocket is required")
	}
	if err := requireScope(s.db, scope); err != nil {
		return nil, err
	}

	if categoryID != nil && *categoryID != "" {
		if err := s.checkCategory(scope, *categoryID, transactionType); err != nil {
			return nil, err
		}
	} else {
		categoryID = nil
	}

	if date.IsZero() {
		date = time.Now()
	}

	userID, groupID := ownership(scope)
	transaction := &models.Transaction{
		UserID:      userID,
		GroupID:     groupID,
		PocketID:    pocketID,
		CategoryID:  categoryID,
		Type:        transactionType,
		Amount:      amount,
		Date:        date,
		Description: description,
		CreatedByID: scope.UserID,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		pocket, err := s.lockPocket(tx, scope, pocketID)
		if err != nil {
			return err
		}
		if transactionType == models.TransactionTypeExpense && pocket.Balance < amount {
			return insufficientBalance(pocket)
		}
		if err := tx.Create(transaction).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return s.pockets.ApplyDelta(tx, pocket, transaction.SignedDelta())
	})
	if err != nil {
		return nil, err
	}

	s.publish(scope, "created")
	return transaction, nil
}

// GetTransactions lists transactions in the context, newest first. Transfers
// are excluded unless explicitly requested through the type filter.
func (s *transactionService) GetTransactions(scope models.Scope, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	if err := requireScope(s.db, scope); err != nil {
		return nil, err
	}
	page.Defaults()

	query := scoped(s.db.Model(&models.Transaction{}), scope)
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	} else {
		query = query.Where("type <> ?", models.TransactionTypeTransfer)
	}
	if filter.PocketID != nil {
		query = query.Where("pocket_id = ?", *filter.PocketID)
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.FromDate != nil {
		query = query.Where("date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("date <= ?", *filter.ToDate)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	err := query.
		Preload("Pocket").
		Preload("Category").
		Preload("CreatedBy").
		Order("date DESC, created_at DESC").
		Scopes(pagination.Paginate(page)).
		Find(&transactions).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	response := pagination.NewPageResponse(transactions, page.Page, page.PageSize, total)
	return &response, nil
}

// GetTransactionByID returns a single transaction in the context.
func (s *transactionService) GetTransactionByID(scope models.Scope, transactionID string) (*models.Transaction, error) {
	if err := requireScope(s.db, scope); err != nil {
		return nil, err
	}

	var transaction models.Transaction
	err := scoped(s.db, scope).
		Preload("Pocket").
		Preload("ToPocket").
		Preload("Category").
		Preload("CreatedBy").
		Where("id = ?", transactionID).
		First(&transaction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// UpdateTransaction edits an income or expense by reversing its old balance
// effect and applying the new one in a single database transaction. Transfer
// rows cannot be edited; delete and re-create instead.
func (s *transactionService) UpdateTransaction(scope models.Scope, transactionID string, update TransactionUpdate) (*models.Transaction, error) {
	if err := requireScope(s.db, scope); err != nil {
		return nil, err
	}

	transaction, err := s.findTransaction(scope, transactionID)
	if err != nil {
		return nil, err
	}
	if transaction.Type == models.TransactionTypeTransfer {
		return nil, apperrors.ErrTransactionNotEditable
	}

	newType := transaction.Type
	if update.Type != nil {
		if *update.Type != models.TransactionTypeIncome && *update.Type != models.TransactionTypeExpense {
			return nil, apperrors.ErrInvalidTransactionType
		}
		newType = *update.Type
	}
	newAmount := transaction.Amount
	if update.Amount != nil {
		if *update.Amount <= 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
		}
		newAmount = *update.Amount
	}
	newPocketID := transaction.PocketID
	if update.PocketID != nil && *update.PocketID != "" {
		newPocketID = *update.PocketID
	}
	newCategoryID := transaction.CategoryID
	if update.CategoryID != nil {
		if *update.CategoryID == "" {
			newCategoryID = nil
		} else {
			newCategoryID = update.CategoryID
		}
	}
	if newCategoryID != nil {
		if err := s.checkCategory(scope, *newCategoryID, newType); err != nil {
			return nil, err
		}
	}

	updates := map[string]interface{}{
		"type":      newType,
		"amount":    newAmount,
		"pocket_id": newPocketID,
	}
	if update.CategoryID != nil {
		updates["category_id"] = newCategoryID
	}
	if update.Date != nil {
		updates["date"] = *update.Date
	}
	if update.Description != nil {
		updates["description"] = *update.Description
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		oldPocket, err := s.lockPocket(tx, scope, transaction.PocketID)
		if err != nil {
			return err
		}
		if err := s.pockets.ApplyDelta(tx, oldPocket, -transaction.SignedDelta()); err != nil {
			return err
		}

		newPocket := oldPocket
		if newPocketID != oldPocket.ID {
			newPocket, err = s.lockPocket(tx, scope, newPocketID)
			if err != nil {
				return err
			}
		}
		if newType == models.TransactionTypeExpense && newPocket.Balance < newAmount {
			return insufficientBalance(newPocket)
		}
		newDelta := money.Signed(newAmount, newType == models.TransactionTypeIncome)
		if err := s.pockets.ApplyDelta(tx, newPocket, newDelta); err != nil {
			return err
		}

		if err := tx.Model(transaction).Updates(updates).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(scope, "updated")
	return transaction, nil
}

// DeleteTransaction removes a transaction and reverses its balance effect.
// Deleting a transfer reverses both legs.
func (s *transactionService) DeleteTransaction(scope models.Scope, transactionID string) error {
	if err := requireScope(s.db, scope); err != nil {
		return err
	}

	transaction, err := s.findTransaction(scope, transactionID)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		pocket, err := s.lockPocket(tx, scope, transaction.PocketID)
		if err != nil {
			return err
		}
		if err := s.pockets.ApplyDelta(tx, pocket, -transaction.SignedDelta()); err != nil {
			return err
		}

		if transaction.Type == models.TransactionTypeTransfer && transaction.ToPocketID != nil {
			toPocket, err := s.lockPocket(tx, scope, *transaction.ToPocketID)
			if err != nil {
				return err
			}
			if err := s.pockets.ApplyDelta(tx, toPocket, -transaction.Amount); err != nil {
				return err
			}
		}

		if err := tx.Delete(transaction).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(scope, "deleted")
	return nil
}

// CreateTransfer moves an amount between two pockets of the same context. The
// move is stored as a single transfer row and both balances change atomically.
func (s *transactionService) CreateTransfer(scope models.Scope, fromPocketID, toPocketID string, amount int64, description string) (*TransferResult, error) {
	if fromPocketID == "" || toPocketID == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "source and destination pockets are required")
	}
	if fromPocketID == toPocketID {
		return nil, apperrors.ErrSamePocketTransfer
	}
	if amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if err := requireScope(s.db, scope); err != nil {
		return nil, err
	}

	userID, groupID := ownership(scope)
	transaction := &models.Transaction{
		UserID:      userID,
		GroupID:     groupID,
		PocketID:    fromPocketID,
		ToPocketID:  &toPocketID,
		Type:        models.TransactionTypeTransfer,
		Amount:      amount,
		Date:        time.Now(),
		Description: description,
		CreatedByID: scope.UserID,
	}

	var from, to *models.Pocket
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		from, err = s.transferPocket(tx, scope, fromPocketID)
		if err != nil {
			return err
		}
		to, err = s.transferPocket(tx, scope, toPocketID)
		if err != nil {
			return err
		}
		if from.Balance < amount {
			return insufficientBalance(from)
		}

		if err := tx.Create(transaction).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := s.pockets.ApplyDelta(tx, from, -amount); err != nil {
			return err
		}
		return s.pockets.ApplyDelta(tx, to, amount)
	})
	if err != nil {
		return nil, err
	}

	s.publish(scope, "transferred")
	return &TransferResult{Transaction: transaction, From: from, To: to}, nil
}

// findTransaction loads a transaction restricted to the context.
func (s *transactionService) findTransaction(scope models.Scope, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := scoped(s.db, scope).Where("id = ?", transactionID).First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// lockPocket loads a context pocket inside an open database transaction.
func (s *transactionService) lockPocket(tx *gorm.DB, scope models.Scope, pocketID string) (*models.Pocket, error) {
	var pocket models.Pocket
	if err := scoped(tx, scope).Where("id = ?", pocketID).First(&pocket).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPocketNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &pocket, nil
}

// transferPocket loads a transfer endpoint. A pocket that exists but lives in
// another context is reported as a cross-context transfer, not as missing.
func (s *transactionService) transferPocket(tx *gorm.DB, scope models.Scope, pocketID string) (*models.Pocket, error) {
	pocket, err := s.lockPocket(tx, scope, pocketID)
	if err == nil {
		return pocket, nil
	}
	if !errors.Is(err, apperrors.ErrPocketNotFound) {
		return nil, err
	}

	var count int64
	if countErr := tx.Model(&models.Pocket{}).Where("id = ?", pocketID).Count(&count).Error; countErr != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, countErr)
	}
	if count > 0 {
		return nil, apperrors.ErrCrossContextTransfer
	}
	return nil, err
}

// checkCategory verifies a category exists in the context and matches the
// transaction type.
func (s *transactionService) checkCategory(scope models.Scope, categoryID string, transactionType models.TransactionType) error {
	var category models.Category
	if err := scoped(s.db, scope).Where("id = ?", categoryID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrCategoryNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if string(category.Type) != string(transactionType) {
		return apperrors.ErrCategoryTypeMismatch
	}
	return nil
}

func insufficientBalance(pocket *models.Pocket) error {
	return apperrors.WithMessage(apperrors.ErrInsufficientBalance,
		fmt.Sprintf("insufficient balance in pocket %q: %s available", pocket.Name, money.Format(pocket.Balance)))
}

func (s *transactionService) publish(scope models.Scope, action string) {
	event := events.Event{Entity: events.EntityTransactions, Action: action, UserID: scope.UserID, GroupID: scope.GroupID}
	if err := s.bus.Publish(context.Background(), event); err != nil {
		logger.Get().Warnf("Failed to publish transaction event: %v", err)
	}
}
