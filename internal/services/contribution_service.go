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

// contributionService moves money across the personal/group boundary. This is
// the only operation allowed to touch two contexts at once.
type contributionService struct {
	db      *gorm.DB
	pockets PocketServicer
	bus     events.Bus
}

// NewContributionService creates a new ContributionServicer.
func NewContributionService(db *gorm.DB, pockets PocketServicer, bus events.Bus) ContributionServicer {
	return &contributionService{db: db, pockets: pockets, bus: bus}
}

// Contribute debits a personal pocket and credits a group pocket by the same
// amount. Three rows are written atomically: a personal expense, a group
// income and the contribution record linking them.
func (s *contributionService) Contribute(userID, groupID, userPocketID, groupPocketID string, amount int64, date time.Time, description string) (*models.Contribution, error) {
	if groupID == "" || userPocketID == "" || groupPocketID == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "group, source pocket and destination pocket are required")
	}
	if amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}

	var group models.Group
	if err := s.db.Where("id = ?", groupID).First(&group).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrGroupNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if _, err := membership(s.db, userID, groupID); err != nil {
		return nil, err
	}

	if date.IsZero() {
		date = time.Now()
	}
	if description == "" {
		description = fmt.Sprintf("Contribution to %s", group.Name)
	}

	contribution := &models.Contribution{
		UserID:        userID,
		GroupID:       groupID,
		UserPocketID:  userPocketID,
		GroupPocketID: groupPocketID,
		Amount:        amount,
		Date:          date,
		Description:   description,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		userPocket, err := s.contextPocket(tx, models.PersonalScope(userID), userPocketID)
		if err != nil {
			return err
		}
		groupPocket, err := s.contextPocket(tx, models.GroupScope(userID, groupID), groupPocketID)
		if err != nil {
			return err
		}
		if userPocket.Balance < amount {
			return apperrors.WithMessage(apperrors.ErrInsufficientBalance,
				fmt.Sprintf("insufficient balance in pocket %q: %s available", userPocket.Name, money.Format(userPocket.Balance)))
		}

		expense := &models.Transaction{
			UserID:      &userID,
			PocketID:    userPocket.ID,
			Type:        models.TransactionTypeExpense,
			Amount:      amount,
			Date:        date,
			Description: description,
			CreatedByID: userID,
		}
		if err := tx.Create(expense).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := s.pockets.ApplyDelta(tx, userPocket, -amount); err != nil {
			return err
		}

		income := &models.Transaction{
			GroupID:     &groupID,
			PocketID:    groupPocket.ID,
			Type:        models.TransactionTypeIncome,
			Amount:      amount,
			Date:        date,
			Description: description,
			CreatedByID: userID,
		}
		if err := tx.Create(income).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := s.pockets.ApplyDelta(tx, groupPocket, amount); err != nil {
			return err
		}

		contribution.ExpenseID = expense.ID
		contribution.IncomeID = income.ID
		if err := tx.Create(contribution).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(userID, groupID)
	return contribution, nil
}

// GetContributions lists the user's own contributions plus those made to
// groups they belong to, newest first.
func (s *contributionService) GetContributions(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Contribution], error) {
	page.Defaults()

	memberGroups := s.db.Model(&models.Membership{}).Select("group_id").Where("user_id = ?", userID)
	query := s.db.Model(&models.Contribution{}).
		Where("user_id = ? OR group_id IN (?)", userID, memberGroups)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var contributions []models.Contribution
	err := query.
		Preload("User").
		Preload("Group").
		Preload("UserPocket").
		Preload("GroupPocket").
		Order("date DESC, created_at DESC").
		Scopes(pagination.Paginate(page)).
		Find(&contributions).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	response := pagination.NewPageResponse(contributions, page.Page, page.PageSize, total)
	return &response, nil
}

// contextPocket loads a pocket that must live in the given context.
func (s *contributionService) contextPocket(tx *gorm.DB, scope models.Scope, pocketID string) (*models.Pocket, error) {
	var pocket models.Pocket
	if err := scoped(tx, scope).Where("id = ?", pocketID).First(&pocket).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPocketNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &pocket, nil
}

func (s *contributionService) publish(userID, groupID string) {
	event := events.Event{Entity: events.EntityContributions, Action: "created", UserID: userID, GroupID: &groupID}
	if err := s.bus.Publish(context.Background(), event); err != nil {
		logger.Get().Warnf("Failed to publish contribution event: %v", err)
	}
}
