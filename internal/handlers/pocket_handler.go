package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "monedero/internal/errors"
	"monedero/internal/models"
	"monedero/internal/money"
	"monedero/internal/services"
)

// PocketHandler handles pocket-related requests.
type PocketHandler struct {
	pocketService services.PocketServicer
}

// NewPocketHandler creates a new PocketHandler.
func NewPocketHandler(pocketService services.PocketServicer) *PocketHandler {
	return &PocketHandler{pocketService: pocketService}
}

// CreatePocketRequest represents the request payload for creating a pocket
type CreatePocketRequest struct {
	Name           string `json:"name" binding:"required,min=1,max=100"`
	Color          string `json:"color" binding:"omitempty,hex_color"`
	Icon           string `json:"icon" binding:"max=50"`
	OpeningBalance int64  `json:"opening_balance" binding:"gte=0"`
}

// UpdatePocketRequest represents the request payload for updating a pocket.
type UpdatePocketRequest struct {
	Name    *string `json:"name" binding:"omitempty,min=1,max=100"`
	Color   *string `json:"color" binding:"omitempty,hex_color"`
	Icon    *string `json:"icon" binding:"omitempty,max=50"`
	Balance *int64  `json:"balance" binding:"omitempty,gte=0"`
}

// PocketResponse represents a pocket in the response
type PocketResponse struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Balance          int64  `json:"balance"`
	BalanceFormatted string `json:"balance_formatted"`
	Color            string `json:"color"`
	Icon             string `json:"icon"`
	IsGeneral        bool   `json:"is_general"`
}

func pocketResponse(p *models.Pocket) PocketResponse {
	return PocketResponse{
		ID:               p.ID,
		Name:             p.Name,
		Balance:          p.Balance,
		BalanceFormatted: money.Format(p.Balance),
		Color:            p.Color,
		Icon:             p.Icon,
		IsGeneral:        p.IsGeneral(),
	}
}

// CreatePocket handles the creation of a new pocket
// @Summary     Create a pocket
// @Description Create a pocket in the personal context, or in a group context when group_id is given
// @Tags        pockets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       group_id query string false "Group context"
// @Param       request body CreatePocketRequest true "Pocket details"
// @Success     201 {object} PocketResponse "Pocket created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     409 {object} ErrorResponse "Duplicate pocket name"
// @Router      /pockets [post]
func (h *PocketHandler) CreatePocket(c *gin.Context) {
	scope, err := getScope(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreatePocketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	pocket, err := h.pocketService.CreatePocket(scope, req.Name, req.Color, req.Icon, req.OpeningBalance)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"pocket": pocketResponse(pocket)})
}

// GetPockets lists the pockets of the active context
// @Summary     List pockets
// @Description List all pockets of the personal or selected group context
// @Tags        pockets
// @Produce     json
// @Security    BearerAuth
// @Param       group_id query string false "Group context"
// @Success     200 {array} PocketResponse "Pockets"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /pockets [get]
func (h *PocketHandler) GetPockets(c *gin.Context) {
	scope, err := getScope(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	pockets, err := h.pocketService.GetPockets(scope)
	if err != nil {
		respondWithError(c, err)
		return
	}

	responses := make([]PocketResponse, 0, len(pockets))
	for i := range pockets {
		responses = append(responses, pocketResponse(&pockets[i]))
	}
	c.JSON(http.StatusOK, gin.H{"pockets": responses})
}

// GetPocket returns a single pocket
// @Summary     Get a pocket
// @Description Get one pocket of the active context by ID
// @Tags        pockets
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Pocket ID"
// @Param       group_id query string false "Group context"
// @Success     200 {object} PocketResponse "Pocket"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Pocket not found"
// @Router      /pockets/{id} [get]
func (h *PocketHandler) GetPocket(c *gin.Context) {
	scope, err := getScope(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	pocket, err := h.pocketService.GetPocketByID(scope, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"pocket": pocketResponse(pocket)})
}

// UpdatePocket updates a pocket
// @Summary     Update a pocket
// @Description Update pocket attributes; balance edits on group pockets settle against the General pocket
// @Tags        pockets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Pocket ID"
// @Param       group_id query string false "Group context"
// @Param       request body UpdatePocketRequest true "Fields to update"
// @Success     200 {object} PocketResponse "Updated pocket"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Pocket not found"
// @Router      /pockets/{id} [put]
func (h *PocketHandler) UpdatePocket(c *gin.Context) {
	scope, err := getScope(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdatePocketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	pocket, err := h.pocketService.UpdatePocket(scope, c.Param("id"), services.PocketUpdate{
		Name:    req.Name,
		Color:   req.Color,
		Icon:    req.Icon,
		Balance: req.Balance,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"pocket": pocketResponse(pocket)})
}

// DeletePocket deletes a pocket
// @Summary     Delete a pocket
// @Description Delete a pocket that no transaction or contribution references
// @Tags        pockets
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Pocket ID"
// @Param       group_id query string false "Group context"
// @Success     204 "Pocket deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Pocket not found"
// @Failure     409 {object} ErrorResponse "Pocket in use"
// @Router      /pockets/{id} [delete]
func (h *PocketHandler) DeletePocket(c *gin.Context) {
	scope, err := getScope(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.pocketService.DeletePocket(scope, c.Param("id")); err != nil {
		respondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
