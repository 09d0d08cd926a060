package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mc-economy-bridge/internal/api_gateway/service"
)

const defaultHistoryPerPage = 10

// HistoryHandler serves relayed events. History lags commits by the relay poll interval.
type HistoryHandler struct {
	history service.HistoryService
	logger  *slog.Logger
}

func NewHistoryHandler(logger *slog.Logger, history service.HistoryService) *HistoryHandler {
	return &HistoryHandler{
		history: history,
		logger:  logger,
	}
}

func (h *HistoryHandler) GetByIdentityKey(c *gin.Context) {
	key := c.Param("key")

	var params PaginationParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters: "+err.Error())
		return
	}
	if params.PerPage == 0 {
		params.PerPage = defaultHistoryPerPage
	}

	entries, total, err := h.history.GetHistory(c.Request.Context(), key, params.Page, params.PerPage)
	if err != nil {
		h.logger.Error("Failed to get history", "identity_key", key, "error", err)
		RespondInternalError(c)
		return
	}

	res := make([]EventResponse, 0, len(entries))
	for _, e := range entries {
		res = append(res, mapEntryToResponse(e))
	}
	RespondWithPaginatedData(c, http.StatusOK, res, params.Page, params.PerPage, int(total))
}

func (h *HistoryHandler) GetEvent(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		RespondBadRequest(c, "Invalid event ID")
		return
	}

	entry, err := h.history.GetEvent(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to get event", "event_id", idParam, "error", err)
		RespondInternalError(c)
		return
	}
	if entry == nil {
		RespondNotFound(c, "Event not found")
		return
	}

	RespondOK(c, mapEntryToResponse(entry))
}
