package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "monedero/internal/errors"
	"monedero/internal/models"
	"monedero/internal/services"
)

// GroupHandler handles group and membership requests.
type GroupHandler struct {
	groupService services.GroupServicer
}

// NewGroupHandler creates a new GroupHandler.
func NewGroupHandler(groupService services.GroupServicer) *GroupHandler {
	return &GroupHandler{groupService: groupService}
}

// CreateGroupRequest represents the request payload for creating a group
type CreateGroupRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=100"`
	Description string `json:"description" binding:"max=500"`
}

// AddMemberRequest represents the request payload for adding a member.
type AddMemberRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role" binding:"omitempty,member_role"`
}

// ChangeRoleRequest represents the request payload for changing a member's role.
type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required,member_role"`
}

// CreateGroup handles the creation of a new group
// @Summary     Create a group
// @Description Create a group; the creator becomes admin and a General pocket is created with it
// @Tags        groups
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateGroupRequest true "Group details"
// @Success     201 {object} models.Group "Group created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /groups [post]
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	group, err := h.groupService.CreateGroup(userID, req.Name, req.Description)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"group": group})
}

// GetGroups lists the groups the user belongs to
// @Summary     List groups
// @Description List the groups the authenticated user is a member of
// @Tags        groups
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} models.Group "Groups"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /groups [get]
func (h *GroupHandler) GetGroups(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	groups, err := h.groupService.GetUserGroups(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

// GetGroup returns a single group
// @Summary     Get a group
// @Description Get one of the user's groups by ID
// @Tags        groups
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Group ID"
// @Success     200 {object} models.Group "Group"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not a member"
// @Failure     404 {object} ErrorResponse "Group not found"
// @Router      /groups/{id} [get]
func (h *GroupHandler) GetGroup(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	group, err := h.groupService.GetGroupByID(userID, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"group": group})
}

// AddMember adds a user to the group by email
// @Summary     Add a group member
// @Description Add a user to the group by email; admin only
// @Tags        groups
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Group ID"
// @Param       request body AddMemberRequest true "Member details"
// @Success     201 {object} models.Membership "Member added"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Admin required"
// @Failure     404 {object} ErrorResponse "Group or user not found"
// @Failure     409 {object} ErrorResponse "Already a member"
// @Router      /groups/{id}/members [post]
func (h *GroupHandler) AddMember(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	member, err := h.groupService.AddMemberByEmail(userID, c.Param("id"), req.Email, models.MemberRole(req.Role))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"member": member})
}

// GetMembers lists the members of a group
// @Summary     List group members
// @Description List the members of a group the user belongs to
// @Tags        groups
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Group ID"
// @Success     200 {array} services.GroupMember "Members"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not a member"
// @Failure     404 {object} ErrorResponse "Group not found"
// @Router      /groups/{id}/members [get]
func (h *GroupHandler) GetMembers(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	members, err := h.groupService.GetMembers(userID, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"members": members})
}

// ChangeMemberRole promotes or demotes a group member
// @Summary     Change a member's role
// @Description Change a member's role; admin only, the creator's role is fixed and the last admin cannot be demoted
// @Tags        groups
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Group ID"
// @Param       user_id path string true "Member user ID"
// @Param       request body ChangeRoleRequest true "New role"
// @Success     200 {object} models.Membership "Role changed"
// @Failure     400 {object} ErrorResponse "Invalid role, creator or last admin"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Admin required"
// @Failure     404 {object} ErrorResponse "Group or member not found"
// @Router      /groups/{id}/members/{user_id}/role [put]
func (h *GroupHandler) ChangeMemberRole(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ChangeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	member, err := h.groupService.ChangeMemberRole(userID, c.Param("id"), c.Param("user_id"), models.MemberRole(req.Role))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"member": member})
}
