package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/mc-economy-bridge/internal/api_gateway/service"
)

// LinkHandler issues and redeems link codes
type LinkHandler struct {
	economy service.EconomyService
	logger  *slog.Logger
}

func NewLinkHandler(logger *slog.Logger, economy service.EconomyService) *LinkHandler {
	return &LinkHandler{
		economy: economy,
		logger:  logger,
	}
}

// Issue is called by the server plugin when a player runs the in-game link command
func (h *LinkHandler) Issue(c *gin.Context) {
	var req IssueLinkCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	code, err := h.economy.IssueLinkCode(c.Request.Context(), req.GameUUID)
	if err != nil {
		respondEconomyError(c, h.logger, "issue_link_code", err)
		return
	}

	RespondCreated(c, mapLinkCodeToResponse(code))
}

func (h *LinkHandler) Redeem(c *gin.Context) {
	var req RedeemLinkCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	acc, err := h.economy.RedeemLinkCode(c.Request.Context(), req.Code, req.IdentityKey)
	if err != nil {
		respondEconomyError(c, h.logger, "redeem_link_code", err)
		return
	}

	RespondOK(c, mapAccountToResponse(acc))
}
