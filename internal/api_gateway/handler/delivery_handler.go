package handler

import (
	"log/slog"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mc-economy-bridge/internal/api_gateway/service"
)

// DeliveryHandler serves the item queue the server plugin drains on player join
type DeliveryHandler struct {
	economy service.EconomyService
	logger  *slog.Logger
}

func NewDeliveryHandler(logger *slog.Logger, economy service.EconomyService) *DeliveryHandler {
	return &DeliveryHandler{
		economy: economy,
		logger:  logger,
	}
}

func (h *DeliveryHandler) Give(c *gin.Context) {
	var req GiveItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	item, err := h.economy.QueueItem(c.Request.Context(), req.GameUUID, req.Item, req.Quantity)
	if err != nil {
		respondEconomyError(c, h.logger, "queue_item", err)
		return
	}

	RespondCreated(c, mapDeliveryToResponse(item))
}

func (h *DeliveryHandler) Pending(c *gin.Context) {
	items, err := h.economy.PendingItems(c.Request.Context(), c.Param("game_uuid"))
	if err != nil {
		respondEconomyError(c, h.logger, "pending_items", err)
		return
	}

	res := make([]DeliveryResponse, 0, len(items))
	for _, item := range items {
		res = append(res, mapDeliveryToResponse(item))
	}
	RespondOK(c, res)
}

func (h *DeliveryHandler) Claim(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		RespondBadRequest(c, "Invalid delivery ID")
		return
	}

	item, err := h.economy.ClaimItem(c.Request.Context(), id)
	if err != nil {
		respondEconomyError(c, h.logger, "claim_item", err)
		return
	}

	RespondOK(c, mapDeliveryToResponse(item))
}
