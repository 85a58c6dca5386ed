package handler

import (
	"net/http"

	"github.com/gdugdh24/roomshare-backend/internal/domain"
	"github.com/gdugdh24/roomshare-backend/internal/usecase/matching"
	"github.com/gdugdh24/roomshare-backend/internal/usecase/views"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type MatchingHandler struct {
	matchingUseCase *matching.MatchingUseCase
	viewsUseCase    *views.ViewsUseCase
	logger          *zap.Logger
}

func NewMatchingHandler(matchingUseCase *matching.MatchingUseCase, viewsUseCase *views.ViewsUseCase, logger *zap.Logger) *MatchingHandler {
	return &MatchingHandler{
		matchingUseCase: matchingUseCase,
		viewsUseCase:    viewsUseCase,
		logger:          logger,
	}
}

// CreateRequest handles POST /room-sharing/requests
// @Summary Ask to share a room
// @Tags room-sharing
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body matching.CreateRequest true "Request data"
// @Success 201 {object} domain.MatchingRequest
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /room-sharing/requests [post]
func (h *MatchingHandler) CreateRequest(c *gin.Context) {
	userID, _, ok := caller(c)
	if !ok {
		return
	}

	var req matching.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	mr, err := h.matchingUseCase.Create(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, mr)
}

// ToApprove handles GET /room-sharing/requests/to-approve
// @Summary Requests waiting for my decision
// @Tags room-sharing
// @Security BearerAuth
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {array} views.RequestItem
// @Router /room-sharing/requests/to-approve [get]
func (h *MatchingHandler) ToApprove(c *gin.Context) {
	h.list(c, func(userID int, role domain.Role, page views.Page) ([]*views.RequestItem, error) {
		return h.viewsUseCase.ToApprove(c.Request.Context(), userID, role, page)
	})
}

// History handles GET /room-sharing/requests/history
func (h *MatchingHandler) History(c *gin.Context) {
	h.list(c, func(userID int, role domain.Role, page views.Page) ([]*views.RequestItem, error) {
		return h.viewsUseCase.History(c.Request.Context(), userID, role, page)
	})
}

// Mine handles GET /room-sharing/requests/mine
func (h *MatchingHandler) Mine(c *gin.Context) {
	h.list(c, func(userID int, _ domain.Role, page views.Page) ([]*views.RequestItem, error) {
		return h.viewsUseCase.Mine(c.Request.Context(), userID, page)
	})
}

func (h *MatchingHandler) list(c *gin.Context, fetch func(int, domain.Role, views.Page) ([]*views.RequestItem, error)) {
	userID, role, ok := caller(c)
	if !ok {
		return
	}

	var page views.Page
	if err := c.ShouldBindQuery(&page); err != nil {
		badRequest(c, "invalid pagination")
		return
	}

	items, err := fetch(userID, role, page)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"count": len(items),
	})
}

// GetRequest handles GET /room-sharing/requests/:id
// @Summary Get one request
// @Tags room-sharing
// @Security BearerAuth
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} views.RequestItem
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /room-sharing/requests/{id} [get]
func (h *MatchingHandler) GetRequest(c *gin.Context) {
	userID, _, ok := caller(c)
	if !ok {
		return
	}

	item, err := h.viewsUseCase.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

// Approve handles POST /room-sharing/requests/:id/approve
// @Summary Poster accepts a request
// @Tags room-sharing
// @Security BearerAuth
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} domain.MatchingRequest
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /room-sharing/requests/{id}/approve [post]
func (h *MatchingHandler) Approve(c *gin.Context) {
	h.posterDecision(c, domain.PosterAccept)
}

// Reject handles POST /room-sharing/requests/:id/reject
func (h *MatchingHandler) Reject(c *gin.Context) {
	h.posterDecision(c, domain.PosterReject)
}

// LandlordApprove handles POST /room-sharing/requests/:id/landlord-approve
// @Summary Landlord approves and a contract is created
// @Tags room-sharing
// @Security BearerAuth
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} domain.MatchingRequest
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /room-sharing/requests/{id}/landlord-approve [post]
func (h *MatchingHandler) LandlordApprove(c *gin.Context) {
	h.landlordDecision(c, domain.LandlordApprove)
}

// LandlordReject handles POST /room-sharing/requests/:id/landlord-reject
func (h *MatchingHandler) LandlordReject(c *gin.Context) {
	h.landlordDecision(c, domain.LandlordReject)
}

func (h *MatchingHandler) posterDecision(c *gin.Context, decision domain.PosterDecision) {
	userID, _, ok := caller(c)
	if !ok {
		return
	}

	mr, err := h.matchingUseCase.Decide(c.Request.Context(), c.Param("id"), userID, decision)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, mr)
}

func (h *MatchingHandler) landlordDecision(c *gin.Context, decision domain.LandlordDecision) {
	userID, role, ok := caller(c)
	if !ok {
		return
	}
	if role != domain.RoleLandlord {
		respondError(c, h.logger, domain.ErrForbidden)
		return
	}

	mr, err := h.matchingUseCase.LandlordDecide(c.Request.Context(), c.Param("id"), userID, decision)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, mr)
}
