package handler

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/mc-economy-bridge/internal/economy"
)

// respondEconomyError maps an economy failure onto its HTTP status
func respondEconomyError(c *gin.Context, logger *slog.Logger, op string, err error) {
	switch {
	case errors.Is(err, economy.ErrInsufficientFunds),
		errors.Is(err, economy.ErrSelfPurchase),
		errors.Is(err, economy.ErrListingUnavailable),
		errors.Is(err, economy.ErrInvalidOrUsedCode),
		errors.Is(err, economy.ErrGameIdentityTaken):
		RespondConflict(c, err.Error())

	case errors.Is(err, economy.ErrListingNotFound),
		errors.Is(err, economy.ErrItemNotFound):
		RespondNotFound(c, err.Error())

	case errors.Is(err, economy.ErrMissingIdentity),
		errors.Is(err, economy.ErrInvalidAmount),
		errors.Is(err, economy.ErrValueTooLong):
		RespondBadRequest(c, err.Error())

	case errors.Is(err, economy.ErrAccountNotLinked),
		errors.Is(err, economy.ErrInvalidListing),
		errors.Is(err, economy.ErrInvalidItem):
		RespondUnprocessable(c, err.Error())

	case economy.IsRetryable(err):
		logger.Warn("Economy store unavailable", "op", op, "error", err)
		RespondServiceUnavailable(c)

	default:
		logger.Error("Unexpected economy failure", "op", op, "error", err)
		RespondInternalError(c)
	}
	_ = c.Error(err)
}
