package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/ghuser/circulationledger/pkg/errhttp"
	"github.com/ghuser/circulationledger/pkg/httpx"
	"github.com/ghuser/circulationledger/pkg/logger"
	appsvcs "github.com/ghuser/circulationledger/services/circulation/application/services"
)

// ListLoansHandler handles GET /loans.
type ListLoansHandler struct {
	base
}

// NewListLoansHandler returns a ListLoansHandler backed by the given services.
func NewListLoansHandler(svc *appsvcs.Services, log logger.Logger) *ListLoansHandler {
	return &ListLoansHandler{base: newBase(svc, log)}
}

// Execute lists loan records newest first.
//
//	@Summary		List loans
//	@Description	Lists loan records newest first, optionally for one item. Records of removed items are still listed.
//	@Tags			circulation
//	@Produce		json
//	@Param			item_id	query		string	false	"Item ID"	format(uuid)
//	@Param			limit	query		int		false	"Page size (default 100, max 1000)"
//	@Param			offset	query		int		false	"Records to skip"
//	@Success		200		{array}		LoanResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/loans [get]
func (h *ListLoansHandler) Execute(w http.ResponseWriter, r *http.Request) {
	opts, ok := parsePage(w, r)
	if !ok {
		return
	}

	var filter *uuid.UUID
	if raw := r.URL.Query().Get("item_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpx.JSON(w, http.StatusBadRequest, httpx.ErrorResponse{
				Error:  "Invalid query parameters",
				Code:   errhttp.CodeInvalidInput,
				Fields: map[string]string{"item_id": "Must be a valid UUID"},
			})
			return
		}
		filter = &id
	}

	loans, err := h.svc.Query.ListLoans(r.Context(), filter, opts)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp := make([]LoanResponse, len(loans))
	for i, l := range loans {
		resp[i] = newLoanResponse(l)
	}
	httpx.JSON(w, http.StatusOK, resp)
}
