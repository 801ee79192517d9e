package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "monedero/internal/errors"
	"monedero/internal/models"
)

// scoped narrows a query to the entities visible in the given context:
// personal rows of the acting user, or rows of the selected group.
func scoped(q *gorm.DB, scope models.Scope) *gorm.DB {
	if scope.IsPersonal() {
		return q.Where("user_id = ? AND group_id IS NULL", scope.UserID)
	}
	return q.Where("group_id = ?", *scope.GroupID)
}

// membership returns the acting user's membership in a group, or
// ErrNotGroupMember when there is none.
func membership(db *gorm.DB, userID, groupID string) (*models.Membership, error) {
	var m models.Membership
	if err := db.Where("user_id = ? AND group_id = ?", userID, groupID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotGroupMember
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &m, nil
}

// requireScope verifies the acting user may operate in the scope. Personal
// scopes always pass; group scopes require membership.
func requireScope(db *gorm.DB, scope models.Scope) error {
	if scope.IsPersonal() {
		return nil
	}
	_, err := membership(db, scope.UserID, *scope.GroupID)
	return err
}

// ownership returns the owner columns for new rows in the scope. Exactly one
// of the two is non-nil, matching the XOR constraint on context-owned tables.
func ownership(scope models.Scope) (userID, groupID *string) {
	if scope.IsPersonal() {
		uid := scope.UserID
		return &uid, nil
	}
	return nil, scope.GroupID
}
