package handlers

import (
	"net/http"

	"github.com/ghuser/circulationledger/pkg/httpx"
	"github.com/ghuser/circulationledger/pkg/logger"
	appsvcs "github.com/ghuser/circulationledger/services/circulation/application/services"
)

// GetItemHandler handles GET /items/{id}.
type GetItemHandler struct {
	base
}

// NewGetItemHandler returns a GetItemHandler backed by the given services.
func NewGetItemHandler(svc *appsvcs.Services, log logger.Logger) *GetItemHandler {
	return &GetItemHandler{base: newBase(svc, log)}
}

// Execute returns one item.
//
//	@Summary	Get item
//	@Tags		items
//	@Produce	json
//	@Param		id	path		string	true	"Item ID"	format(uuid)
//	@Success	200	{object}	ItemResponse
//	@Failure	404	{object}	ErrorResponse
//	@Failure	500	{object}	ErrorResponse
//	@Router		/items/{id} [get]
func (h *GetItemHandler) Execute(w http.ResponseWriter, r *http.Request) {
	id, err := itemID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	view, err := h.svc.Query.GetItem(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusOK, newItemResponse(view))
}

// GetAvailabilityHandler handles GET /items/{id}/availability.
type GetAvailabilityHandler struct {
	base
}

// NewGetAvailabilityHandler returns a GetAvailabilityHandler backed by the given services.
func NewGetAvailabilityHandler(svc *appsvcs.Services, log logger.Logger) *GetAvailabilityHandler {
	return &GetAvailabilityHandler{base: newBase(svc, log)}
}

// Execute returns the item's derived availability.
//
//	@Summary		Get availability
//	@Description	Total copies, open loans and the derived lending state, read from one snapshot.
//	@Tags			items
//	@Produce		json
//	@Param			id	path		string	true	"Item ID"	format(uuid)
//	@Success		200	{object}	AvailabilityResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/items/{id}/availability [get]
func (h *GetAvailabilityHandler) Execute(w http.ResponseWriter, r *http.Request) {
	id, err := itemID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	avail, err := h.svc.Query.Availability(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusOK, newAvailabilityResponse(avail))
}
