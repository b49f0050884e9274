package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/ghuser/circulationledger/pkg/httpx"
	"github.com/ghuser/circulationledger/pkg/logger"
	appsvcs "github.com/ghuser/circulationledger/services/circulation/application/services"
)

// RemoveItemResponse confirms a removal.
type RemoveItemResponse struct {
	ID      uuid.UUID `json:"id"      example:"123e4567-e89b-12d3-a456-426614174000"`
	Removed bool      `json:"removed" example:"true"`
} // @name RemoveItemResponse

// DeleteItemHandler handles DELETE /items/{id}.
type DeleteItemHandler struct {
	base
}

// NewDeleteItemHandler returns a DeleteItemHandler backed by the given services.
func NewDeleteItemHandler(svc *appsvcs.Services, log logger.Logger) *DeleteItemHandler {
	return &DeleteItemHandler{base: newBase(svc, log)}
}

// Execute removes an item with no open loans. Its loan history is kept.
//
//	@Summary	Remove item
//	@Tags		items
//	@Produce	json
//	@Param		id	path		string	true	"Item ID"	format(uuid)
//	@Success	200	{object}	RemoveItemResponse
//	@Failure	404	{object}	ErrorResponse
//	@Failure	409	{object}	ErrorResponse
//	@Failure	500	{object}	ErrorResponse
//	@Router		/items/{id} [delete]
func (h *DeleteItemHandler) Execute(w http.ResponseWriter, r *http.Request) {
	id, err := itemID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.svc.Circulation.RemoveItem(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusOK, RemoveItemResponse{ID: id, Removed: true})
}
