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
)

// groupService handles groups and memberships.
type groupService struct {
	db  *gorm.DB
	bus events.Bus
}

// NewGroupService creates a new GroupServicer.
func NewGroupService(db *gorm.DB, bus events.Bus) GroupServicer {
	return &groupService{db: db, bus: bus}
}

// CreateGroup creates a group with its creator as admin and an empty General
// pocket, all in one transaction.
func (s *groupService) CreateGroup(userID, name, description string) (*models.Group, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "group name is required")
	}

	group := &models.Group{
		Name:        name,
		Description: description,
		CreatorID:   &userID,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(group).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		member := &models.Membership{
			UserID:  userID,
			GroupID: group.ID,
			Role:    models.RoleAdmin,
		}
		if err := tx.Create(member).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		general := &models.Pocket{
			GroupID: &group.ID,
			Name:    models.GeneralPocketName,
			Balance: 0,
		}
		if err := tx.Create(general).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(userID, group.ID, events.EntityGroups, "created")
	return group, nil
}

// GetUserGroups lists the groups the user belongs to.
func (s *groupService) GetUserGroups(userID string) ([]models.Group, error) {
	var groups []models.Group
	err := s.db.
		Joins("JOIN memberships ON memberships.group_id = groups.id").
		Where("memberships.user_id = ? AND memberships.deleted_at IS NULL", userID).
		Order("groups.created_at ASC").
		Find(&groups).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return groups, nil
}

// GetGroupByID returns a group the user is a member of.
func (s *groupService) GetGroupByID(userID, groupID string) (*models.Group, error) {
	group, err := s.findGroup(groupID)
	if err != nil {
		return nil, err
	}
	if _, err := membership(s.db, userID, groupID); err != nil {
		return nil, err
	}
	return group, nil
}

// AddMemberByEmail adds a user to the group. Only admins may add members.
func (s *groupService) AddMemberByEmail(actorID, groupID, email string, role models.MemberRole) (*models.Membership, error) {
	if email == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "email is required")
	}
	if role == "" {
		role = models.RoleMember
	}
	if role != models.RoleAdmin && role != models.RoleMember {
		return nil, apperrors.ErrInvalidRole
	}

	if _, err := s.findGroup(groupID); err != nil {
		return nil, err
	}
	if err := s.requireAdmin(actorID, groupID); err != nil {
		return nil, err
	}

	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.WithMessage(apperrors.ErrUserNotFound, fmt.Sprintf("no user with email %q", email))
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var count int64
	if err := s.db.Model(&models.Membership{}).
		Where("user_id = ? AND group_id = ?", user.ID, groupID).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrAlreadyMember
	}

	member := &models.Membership{
		UserID:  user.ID,
		GroupID: groupID,
		Role:    role,
	}
	if err := s.db.Create(member).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	member.User = user

	s.publish(actorID, groupID, events.EntityMemberships, "created")
	return member, nil
}

// GetMembers lists a group's members. Any member may look.
func (s *groupService) GetMembers(actorID, groupID string) ([]GroupMember, error) {
	group, err := s.findGroup(groupID)
	if err != nil {
		return nil, err
	}
	if _, err := membership(s.db, actorID, groupID); err != nil {
		return nil, err
	}

	var memberships []models.Membership
	err = s.db.Preload("User").
		Where("group_id = ?", groupID).
		Order("created_at ASC").
		Find(&memberships).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	members := make([]GroupMember, 0, len(memberships))
	for _, m := range memberships {
		members = append(members, GroupMember{
			UserID:    m.UserID,
			Email:     m.User.Email,
			Name:      m.User.Name,
			Role:      m.Role,
			IsCreator: group.CreatorID != nil && *group.CreatorID == m.UserID,
		})
	}
	return members, nil
}

// ChangeMemberRole promotes or demotes a member. Admin-only; the creator's
// role is fixed, and the last remaining admin cannot be demoted.
func (s *groupService) ChangeMemberRole(actorID, groupID, memberUserID string, role models.MemberRole) (*models.Membership, error) {
	if role != models.RoleAdmin && role != models.RoleMember {
		return nil, apperrors.ErrInvalidRole
	}

	group, err := s.findGroup(groupID)
	if err != nil {
		return nil, err
	}
	if err := s.requireAdmin(actorID, groupID); err != nil {
		return nil, err
	}
	if group.CreatorID != nil && *group.CreatorID == memberUserID {
		return nil, apperrors.ErrCreatorRole
	}

	var member models.Membership
	if err := s.db.Where("user_id = ? AND group_id = ?", memberUserID, groupID).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrMemberNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if member.Role == role {
		return &member, nil
	}

	if member.Role == models.RoleAdmin && role == models.RoleMember {
		var admins int64
		if err := s.db.Model(&models.Membership{}).
			Where("group_id = ? AND role = ?", groupID, models.RoleAdmin).
			Count(&admins).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if admins <= 1 {
			return nil, apperrors.ErrLastAdmin
		}
	}

	member.Role = role
	if err := s.db.Model(&member).Update("role", role).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.publish(actorID, groupID, events.EntityMemberships, "updated")
	return &member, nil
}

func (s *groupService) findGroup(groupID string) (*models.Group, error) {
	var group models.Group
	if err := s.db.Where("id = ?", groupID).First(&group).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrGroupNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &group, nil
}

func (s *groupService) requireAdmin(userID, groupID string) error {
	m, err := membership(s.db, userID, groupID)
	if err != nil {
		return err
	}
	if m.Role != models.RoleAdmin {
		return apperrors.ErrAdminRequired
	}
	return nil
}

func (s *groupService) publish(userID, groupID, entity, action string) {
	event := events.Event{Entity: entity, Action: action, UserID: userID, GroupID: &groupID}
	if err := s.bus.Publish(context.Background(), event); err != nil {
		logger.Get().Warnf("Failed to publish group event: %v", err)
	}
}
