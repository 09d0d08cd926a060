package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/mc-economy-bridge/internal/api_gateway/service"
)

// AccountHandler serves balances, transfers and admin adjustments
type AccountHandler struct {
	economy service.EconomyService
	logger  *slog.Logger
}

func NewAccountHandler(logger *slog.Logger, economy service.EconomyService) *AccountHandler {
	return &AccountHandler{
		economy: economy,
		logger:  logger,
	}
}

// GetByKey returns the account for an identity, creating it with the starting balance on first query
func (h *AccountHandler) GetByKey(c *gin.Context) {
	key := c.Param("key")

	acc, err := h.economy.Balance(c.Request.Context(), key)
	if err != nil {
		respondEconomyError(c, h.logger, "balance", err)
		return
	}

	RespondOK(c, mapAccountToResponse(acc))
}

// GetBalanceByGameUUID reports zero for a game identity with no linked account
func (h *AccountHandler) GetBalanceByGameUUID(c *gin.Context) {
	gameUUID := c.Param("game_uuid")

	balance, err := h.economy.BalanceByGameUUID(c.Request.Context(), gameUUID)
	if err != nil {
		respondEconomyError(c, h.logger, "balance_by_game_uuid", err)
		return
	}

	RespondOK(c, GameBalanceResponse{GameUUID: gameUUID, Balance: balance})
}

func (h *AccountHandler) Transfer(c *gin.Context) {
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid transfer request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if req.FromKey == req.ToKey {
		RespondBadRequest(c, "Cannot transfer to the same account")
		return
	}

	result, err := h.economy.Transfer(c.Request.Context(), req.FromKey, req.ToKey, req.Amount)
	if err != nil {
		respondEconomyError(c, h.logger, "transfer", err)
		return
	}

	h.logger.Info("Transfer completed via API",
		"from", req.FromKey,
		"to", req.ToKey,
		"amount", result.Amount.String(),
	)
	RespondOK(c, TransferResponse{
		From:   mapAccountToResponse(result.From),
		To:     mapAccountToResponse(result.To),
		Amount: result.Amount,
	})
}

// AdminAdjust adds a signed delta to a balance. The result is clamped at zero.
func (h *AccountHandler) AdminAdjust(c *gin.Context) {
	var req AdminAdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid adjust request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	acc, err := h.economy.AdminAdjust(c.Request.Context(), req.IdentityKey, req.Delta)
	if err != nil {
		respondEconomyError(c, h.logger, "admin_adjust", err)
		return
	}

	h.logger.Info("Admin adjustment applied via API", "identity_key", req.IdentityKey, "delta", req.Delta.String())
	RespondOK(c, mapAccountToResponse(acc))
}
