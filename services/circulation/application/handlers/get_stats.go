package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ghuser/circulationledger/pkg/httpx"
	"github.com/ghuser/circulationledger/pkg/logger"
	appsvcs "github.com/ghuser/circulationledger/services/circulation/application/services"
)

// StatsResponse holds lifetime lending counters projected from loan events.
// They trail the ledger by the event delivery delay.
type StatsResponse struct {
	ItemID      uuid.UUID  `json:"item_id"       example:"123e4567-e89b-12d3-a456-426614174000"`
	Borrows     int64      `json:"borrows"       example:"12"`
	Returns     int64      `json:"returns"       example:"11"`
	LastEventAt *time.Time `json:"last_event_at"`
} // @name StatsResponse

// GetStatsHandler handles GET /items/{id}/stats.
type GetStatsHandler struct {
	base
}

// NewGetStatsHandler returns a GetStatsHandler backed by the given services.
func NewGetStatsHandler(svc *appsvcs.Services, log logger.Logger) *GetStatsHandler {
	return &GetStatsHandler{base: newBase(svc, log)}
}

// Execute returns the item's lending counters.
//
//	@Summary		Get lending stats
//	@Description	Lifetime borrow and return counts maintained by the worker. Eventually consistent.
//	@Tags			items
//	@Produce		json
//	@Param			id	path		string	true	"Item ID"	format(uuid)
//	@Success		200	{object}	StatsResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		503	{object}	ErrorResponse
//	@Router			/items/{id}/stats [get]
func (h *GetStatsHandler) Execute(w http.ResponseWriter, r *http.Request) {
	id, err := itemID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	stats, err := h.svc.Query.Stats(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusOK, StatsResponse{
		ItemID:      stats.ItemID,
		Borrows:     stats.Borrows,
		Returns:     stats.Returns,
		LastEventAt: stats.LastEventAt,
	})
}
