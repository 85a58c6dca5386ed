package handler

import (
	"net/http"
	"strconv"

	"github.com/gdugdh24/roomshare-backend/internal/usecase/sharing"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SharingHandler struct {
	sharingUseCase *sharing.SharingUseCase
	logger         *zap.Logger
}

func NewSharingHandler(sharingUseCase *sharing.SharingUseCase, logger *zap.Logger) *SharingHandler {
	return &SharingHandler{
		sharingUseCase: sharingUseCase,
		logger:         logger,
	}
}

// GetRoom handles GET /rooms/:id
// @Summary Get room sharing state
// @Tags rooms
// @Security BearerAuth
// @Produce json
// @Param id path int true "Room ID"
// @Success 200 {object} domain.Room
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /rooms/{id} [get]
func (h *SharingHandler) GetRoom(c *gin.Context) {
	roomID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid room id")
		return
	}

	room, err := h.sharingUseCase.GetRoom(c.Request.Context(), roomID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, room)
}

// UpdateRoom handles PATCH /rooms/:id
// @Summary Toggle room sharing
// @Description Only the current occupant may toggle; enabling requires saved requirements
// @Tags rooms
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Room ID"
// @Param request body sharing.SetSharingRequest true "Sharing flag"
// @Success 200 {object} domain.Room
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /rooms/{id} [patch]
func (h *SharingHandler) UpdateRoom(c *gin.Context) {
	userID, _, ok := caller(c)
	if !ok {
		return
	}

	roomID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid room id")
		return
	}

	var req sharing.SetSharingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if req.SharingEnabled == nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "is required", Code: "validation_failed", Field: "sharingEnabled"})
		return
	}

	room, err := h.sharingUseCase.SetSharingEnabled(c.Request.Context(), userID, roomID, *req.SharingEnabled)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, room)
}

// EnableSharing handles POST /room-sharing/enable
// @Summary Save requirements and enable sharing
// @Tags room-sharing
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body sharing.RequirementsRequest true "Requirements"
// @Success 200 {object} sharing.EnableSharingResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /room-sharing/enable [post]
func (h *SharingHandler) EnableSharing(c *gin.Context) {
	userID, _, ok := caller(c)
	if !ok {
		return
	}

	var req sharing.RequirementsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	resp, err := h.sharingUseCase.EnableSharing(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// SubmitRequirements handles POST /room-sharing/requirements
// @Summary Save co-tenant requirements
// @Tags room-sharing
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body sharing.RequirementsRequest true "Requirements"
// @Success 200 {object} domain.RequirementsRecord
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /room-sharing/requirements [post]
func (h *SharingHandler) SubmitRequirements(c *gin.Context) {
	userID, _, ok := caller(c)
	if !ok {
		return
	}

	var req sharing.RequirementsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	rec, err := h.sharingUseCase.SubmitRequirements(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, rec)
}

// GetRequirements handles GET /room-sharing/requirements?roomId=
func (h *SharingHandler) GetRequirements(c *gin.Context) {
	roomID, err := strconv.Atoi(c.Query("roomId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "roomId is required", Code: "validation_failed", Field: "roomId"})
		return
	}

	rec, err := h.sharingUseCase.GetRequirements(c.Request.Context(), roomID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, rec)
}
