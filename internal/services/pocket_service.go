package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	apperrors "monedero/internal/errors"
	"monedero/internal/events"
	"monedero/internal/logger"
	"monedero/internal/models"
	"monedero/internal/money"
)

// pocketService handles pocket-related business logic.
type pocketService struct {
	db  *gorm.DB
	bus events.Bus
}

// NewPocketService creates a new PocketServicer.
func NewPocketService(db *gorm.DB, bus events.Bus) PocketServicer {
	return &pocketService{db: db, bus: bus}
}

// CreatePocket creates a pocket in the given context. A personal pocket gets
// its opening balance directly; a group pocket's opening balance is funded by
// debiting the group's General pocket in the same transaction.
func (s *pocketService) CreatePocket(scope models.Scope, name, color, icon string, openingBalance int64) (*models.Pocket, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "pocket name is required")
	}
	if openingBalance < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "opening balance cannot be negative")
	}
	if err := requireScope(s.db, scope); err != nil {
		return nil, err
	}
	if err := s.checkDuplicateName(scope, name, ""); err != nil {
		return nil, err
	}

	userID, groupID := ownership(scope)
	pocket := &models.Pocket{
		UserID:  userID,
		GroupID: groupID,
		Name:    name,
		Color:   color,
		Icon:    icon,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if scope.IsPersonal() {
			pocket.Balance = openingBalance
			if err := tx.Create(pocket).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			return nil
		}

		if err := tx.Create(pocket).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if openingBalance == 0 {
			return nil
		}

		general, err := s.generalPocket(tx, *scope.GroupID)
		if err != nil {
			return err
		}
		if general.Balance < openingBalance {
			return apperrors.WithMessage(apperrors.ErrInsufficientBalance,
				fmt.Sprintf("insufficient balance in the General pocket: %s available", money.Format(general.Balance)))
		}
		if err := s.ApplyDelta(tx, general, -openingBalance); err != nil {
			return err
		}
		if err := s.ApplyDelta(tx, pocket, openingBalance); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(scope, "created")
	return pocket, nil
}

// GetPockets returns all pockets visible in the context, newest first.
func (s *pocketService) GetPockets(scope models.Scope) ([]models.Pocket, error) {
	if err := requireScope(s.db, scope); err != nil {
		return nil, err
	}

	var pockets []models.Pocket
	if err := scoped(s.db, scope).Order("created_at DESC").Find(&pockets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return pockets, nil
}

// GetPocketByID returns a single pocket in the context.
func (s *pocketService) GetPocketByID(scope models.Scope, pocketID string) (*models.Pocket, error) {
	if err := requireScope(s.db, scope); err != nil {
		return nil, err
	}
	return s.findPocket(s.db, scope, pocketID)
}

// UpdatePocket updates pocket attributes. Balance edits are allowed directly
// on personal pockets; on group pockets the difference is settled against the
// General pocket, and the General pocket itself cannot be edited at all.
func (s *pocketService) UpdatePocket(scope models.Scope, pocketID string, update PocketUpdate) (*models.Pocket, error) {
	if err := requireScope(s.db, scope); err != nil {
		return nil, err
	}

	pocket, err := s.findPocket(s.db, scope, pocketID)
	if err != nil {
		return nil, err
	}
	if pocket.IsGeneral() {
		return nil, apperrors.WithMessage(apperrors.ErrGeneralPocket, "the General pocket cannot be edited")
	}

	updates := make(map[string]interface{})
	if update.Name != nil && *update.Name != pocket.Name {
		if *update.Name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "pocket name is required")
		}
		if err := s.checkDuplicateName(scope, *update.Name, pocket.ID); err != nil {
			return nil, err
		}
		updates["name"] = *update.Name
	}
	if update.Color != nil {
		updates["color"] = *update.Color
	}
	if update.Icon != nil {
		updates["icon"] = *update.Icon
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(pocket).Updates(updates).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		if update.Balance == nil || *update.Balance == pocket.Balance {
			return nil
		}
		if *update.Balance < 0 {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "balance cannot be negative")
		}

		diff := *update.Balance - pocket.Balance
		if scope.IsPersonal() {
			return s.ApplyDelta(tx, pocket, diff)
		}

		// Group pockets are funded from General: raising a balance debits
		// it, lowering one credits it back.
		general, err := s.generalPocket(tx, *scope.GroupID)
		if err != nil {
			return err
		}
		if diff > 0 && general.Balance < diff {
			return apperrors.WithMessage(apperrors.ErrInsufficientBalance,
				fmt.Sprintf("insufficient balance in the General pocket: %s available", money.Format(general.Balance)))
		}
		if err := s.ApplyDelta(tx, general, -diff); err != nil {
			return err
		}
		return s.ApplyDelta(tx, pocket, diff)
	})
	if err != nil {
		return nil, err
	}

	s.publish(scope, "updated")
	return pocket, nil
}

// DeletePocket soft-deletes a pocket. Pockets referenced by transactions or
// contributions cannot be deleted, nor can a group's General pocket.
func (s *pocketService) DeletePocket(scope models.Scope, pocketID string) error {
	if err := requireScope(s.db, scope); err != nil {
		return err
	}

	pocket, err := s.findPocket(s.db, scope, pocketID)
	if err != nil {
		return err
	}
	if pocket.IsGeneral() {
		return apperrors.WithMessage(apperrors.ErrGeneralPocket, "the General pocket cannot be deleted")
	}

	var count int64
	if err := s.db.Model(&models.Transaction{}).
		Where("pocket_id = ? OR to_pocket_id = ?", pocket.ID, pocket.ID).
		Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.ErrPocketInUse
	}
	if err := s.db.Model(&models.Contribution{}).
		Where("user_pocket_id = ? OR group_pocket_id = ?", pocket.ID, pocket.ID).
		Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.ErrPocketInUse
	}

	if err := s.db.Delete(pocket).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.publish(scope, "deleted")
	return nil
}

// ApplyDelta implements PocketServicer.
func (s *pocketService) ApplyDelta(tx *gorm.DB, pocket *models.Pocket, delta int64) error {
	pocket.Balance += delta
	if err := tx.Model(pocket).Update("balance", pocket.Balance).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// findPocket loads a pocket restricted to the context.
func (s *pocketService) findPocket(db *gorm.DB, scope models.Scope, pocketID string) (*models.Pocket, error) {
	var pocket models.Pocket
	if err := scoped(db, scope).Where("id = ?", pocketID).First(&pocket).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPocketNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &pocket, nil
}

// generalPocket loads a group's General pocket for update.
func (s *pocketService) generalPocket(tx *gorm.DB, groupID string) (*models.Pocket, error) {
	var general models.Pocket
	err := tx.Where("group_id = ? AND name = ?", groupID, models.GeneralPocketName).First(&general).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrGeneralPocketMissing
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &general, nil
}

// checkDuplicateName rejects a pocket name already used in the context.
func (s *pocketService) checkDuplicateName(scope models.Scope, name, excludeID string) error {
	q := scoped(s.db.Model(&models.Pocket{}), scope).Where("name = ?", name)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.ErrDuplicatePocketName
	}
	return nil
}

func (s *pocketService) publish(scope models.Scope, action string) {
	event := events.Event{Entity: events.EntityPockets, Action: action, UserID: scope.UserID, GroupID: scope.GroupID}
	if err := s.bus.Publish(context.Background(), event); err != nil {
		logger.Get().Warnf("Failed to publish pocket event: %v", err)
	}
}
