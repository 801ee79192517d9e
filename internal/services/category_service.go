package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	apperrors "monedero/internal/errors"
	"monedero/internal/events"
	"monedero/internal/logger"
	"monedero/internal/models"
)

// categoryService handles category-related business logic.
type categoryService struct {
	db  *gorm.DB
	bus events.Bus
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB, bus events.Bus) CategoryServicer {
	return &categoryService{db: db, bus: bus}
}

// CreateCategory creates a category in the given context.
func (s *categoryService) CreateCategory(scope models.Scope, name string, categoryType models.CategoryType, color string) (*models.Category, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}
	if categoryType != models.CategoryTypeIncome && categoryType != models.CategoryTypeExpense {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category type must be income or expense")
	}
	if err := requireScope(s.db, scope); err != nil {
		return nil, err
	}

	userID, groupID := ownership(scope)
	category := &models.Category{
		UserID:  userID,
		GroupID: groupID,
		Name:    name,
		Type:    categoryType,
		Color:   color,
	}
	if err := s.db.Create(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.publish(scope, "created")
	return category, nil
}

// GetCategories lists the context's categories, optionally limited to one
// type so transaction forms only offer matching classifiers.
func (s *categoryService) GetCategories(scope models.Scope, categoryType *models.CategoryType) ([]models.Category, error) {
	if err := requireScope(s.db, scope); err != nil {
		return nil, err
	}

	query := scoped(s.db, scope)
	if categoryType != nil {
		query = query.Where("type = ?", *categoryType)
	}

	var categories []models.Category
	if err := query.Order("name ASC").Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return categories, nil
}

// GetCategoryByID returns a single category in the context.
func (s *categoryService) GetCategoryByID(scope models.Scope, categoryID string) (*models.Category, error) {
	if err := requireScope(s.db, scope); err != nil {
		return nil, err
	}
	return s.findCategory(scope, categoryID)
}

// UpdateCategory updates name and color. The type is fixed at creation: past
// transactions already classified under it would otherwise change meaning.
func (s *categoryService) UpdateCategory(scope models.Scope, categoryID string, name, color *string) (*models.Category, error) {
	if err := requireScope(s.db, scope); err != nil {
		return nil, err
	}

	category, err := s.findCategory(scope, categoryID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if name != nil {
		if *name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
		}
		updates["name"] = *name
	}
	if color != nil {
		updates["color"] = *color
	}
	if len(updates) > 0 {
		if err := s.db.Model(category).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	s.publish(scope, "updated")
	return category, nil
}

// DeleteCategory soft-deletes a category that no transaction references.
func (s *categoryService) DeleteCategory(scope models.Scope, categoryID string) error {
	if err := requireScope(s.db, scope); err != nil {
		return err
	}

	category, err := s.findCategory(scope, categoryID)
	if err != nil {
		return err
	}

	var count int64
	if err := s.db.Model(&models.Transaction{}).Where("category_id = ?", category.ID).Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.ErrCategoryInUse
	}

	if err := s.db.Delete(category).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.publish(scope, "deleted")
	return nil
}

func (s *categoryService) findCategory(scope models.Scope, categoryID string) (*models.Category, error) {
	var category models.Category
	if err := scoped(s.db, scope).Where("id = ?", categoryID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

func (s *categoryService) publish(scope models.Scope, action string) {
	event := events.Event{Entity: events.EntityCategories, Action: action, UserID: scope.UserID, GroupID: scope.GroupID}
	if err := s.bus.Publish(context.Background(), event); err != nil {
		logger.Get().Warnf("Failed to publish category event: %v", err)
	}
}
