package handler

import (
	"log/slog"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mc-economy-bridge/internal/api_gateway/service"
)

// MarketHandler serves listings and purchases
type MarketHandler struct {
	economy  service.EconomyService
	logger   *slog.Logger
	pageSize int
}

func NewMarketHandler(logger *slog.Logger, economy service.EconomyService, pageSize int) *MarketHandler {
	return &MarketHandler{
		economy:  economy,
		logger:   logger,
		pageSize: pageSize,
	}
}

func (h *MarketHandler) List(c *gin.Context) {
	var params PaginationParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters: "+err.Error())
		return
	}
	if params.PerPage == 0 {
		params.PerPage = h.pageSize
	}

	listings, err := h.economy.ActiveListings(c.Request.Context(), params.PerPage, (params.Page-1)*params.PerPage)
	if err != nil {
		respondEconomyError(c, h.logger, "active_listings", err)
		return
	}

	res := make([]ListingResponse, 0, len(listings))
	for _, l := range listings {
		res = append(res, mapListingToResponse(l))
	}
	RespondWithPage(c, res, params.Page, params.PerPage)
}

func (h *MarketHandler) CreateListing(c *gin.Context) {
	var req CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	l, err := h.economy.CreateListing(c.Request.Context(), req.SellerGameUUID, req.Item, req.Quantity, req.UnitPrice)
	if err != nil {
		respondEconomyError(c, h.logger, "create_listing", err)
		return
	}

	RespondCreated(c, mapListingToResponse(l))
}

func (h *MarketHandler) Purchase(c *gin.Context) {
	idParam := c.Param("id")
	id, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil || id <= 0 {
		RespondBadRequest(c, "Invalid listing ID")
		return
	}

	var req PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.economy.Purchase(c.Request.Context(), req.BuyerKey, id)
	if err != nil {
		respondEconomyError(c, h.logger, "purchase", err)
		return
	}

	res := PurchaseResponse{
		Listing:   mapListingToResponse(result.Listing),
		Buyer:     mapAccountToResponse(result.Buyer),
		TotalCost: result.TotalCost,
	}
	if result.Delivery != nil {
		d := mapDeliveryToResponse(result.Delivery)
		res.Delivery = &d
	}
	RespondOK(c, res)
}
