package handlers

import (
	"net/http"
	"strconv"

	"github.com/ghuser/circulationledger/pkg/httpx"
	"github.com/ghuser/circulationledger/pkg/logger"
	appsvcs "github.com/ghuser/circulationledger/services/circulation/application/services"
	"github.com/ghuser/circulationledger/services/circulation/domain/repositories"
)

// ListItemsHandler handles GET /items.
type ListItemsHandler struct {
	base
}

// NewListItemsHandler returns a ListItemsHandler backed by the given services.
func NewListItemsHandler(svc *appsvcs.Services, log logger.Logger) *ListItemsHandler {
	return &ListItemsHandler{base: newBase(svc, log)}
}

// Execute lists catalog items with their availability, newest first.
//
//	@Summary		List items
//	@Description	Lists catalog items newest first. search matches title or author case-insensitively as a literal substring. The total match count is returned in X-Total-Count.
//	@Tags			items
//	@Produce		json
//	@Param			search	query		string	false	"Substring of title or author"
//	@Param			limit	query		int		false	"Page size (default 100, max 1000)"
//	@Param			offset	query		int		false	"Items to skip"
//	@Success		200		{array}		ItemResponse
//	@Header			200		{integer}	X-Total-Count	"Total number of matches"
//	@Failure		400		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/items [get]
func (h *ListItemsHandler) Execute(w http.ResponseWriter, r *http.Request) {
	opts, ok := parsePage(w, r)
	if !ok {
		return
	}

	views, total, err := h.svc.Query.ListItems(r.Context(), repositories.ItemFilter{
		Search:    r.URL.Query().Get("search"),
		QueryOpts: opts,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp := make([]ItemResponse, len(views))
	for i, v := range views {
		resp[i] = newItemResponse(v)
	}
	w.Header().Set(httpx.HeaderTotalCount, strconv.Itoa(total))
	httpx.JSON(w, http.StatusOK, resp)
}
