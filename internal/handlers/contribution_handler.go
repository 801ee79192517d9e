package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "monedero/internal/errors"
	"monedero/internal/pagination"
	"monedero/internal/services"
)

// ContributionHandler handles contribution requests.
type ContributionHandler struct {
	contributionService services.ContributionServicer
}

// NewContributionHandler creates a new ContributionHandler.
func NewContributionHandler(contributionService services.ContributionServicer) *ContributionHandler {
	return &ContributionHandler{contributionService: contributionService}
}

// CreateContributionRequest represents the request payload for a contribution
type CreateContributionRequest struct {
	GroupID       string  `json:"group_id" binding:"required"`
	UserPocketID  string  `json:"user_pocket_id" binding:"required"`
	GroupPocketID string  `json:"group_pocket_id" binding:"required"`
	Amount        int64   `json:"amount" binding:"required,gt=0"`
	Date          *string `json:"date"`
	Description   string  `json:"description" binding:"max=500"`
}

// CreateContribution moves money from a personal pocket into a group pocket
// @Summary     Contribute to a group
// @Description Debit a personal pocket and credit a group pocket; a personal expense, group income and contribution record are written atomically
// @Tags        contributions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateContributionRequest true "Contribution details"
// @Success     201 {object} models.Contribution "Contribution recorded"
// @Failure     400 {object} ErrorResponse "Invalid input or insufficient balance"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not a member"
// @Failure     404 {object} ErrorResponse "Group or pocket not found"
// @Router      /contributions [post]
func (h *ContributionHandler) CreateContribution(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateContributionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var date time.Time
	if req.Date != nil && *req.Date != "" {
		date, err = parseDate(*req.Date)
		if err != nil {
			respondWithError(c, err)
			return
		}
	}

	contribution, err := h.contributionService.Contribute(
		userID,
		req.GroupID,
		req.UserPocketID,
		req.GroupPocketID,
		req.Amount,
		date,
		req.Description,
	)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"contribution": contribution})
}

// GetContributions lists the user's visible contributions
// @Summary     List contributions
// @Description List the user's own contributions and those made to groups they belong to, newest first
// @Tags        contributions
// @Produce     json
// @Security    BearerAuth
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[models.Contribution] "Contributions"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /contributions [get]
func (h *ContributionHandler) GetContributions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	response, err := h.contributionService.GetContributions(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}
