package handlers

import (
	"net/http"

	"github.com/ghuser/circulationledger/pkg/httpx"
	"github.com/ghuser/circulationledger/pkg/logger"
	pkgvalidator "github.com/ghuser/circulationledger/pkg/validator"
	appsvcs "github.com/ghuser/circulationledger/services/circulation/application/services"
)

// BorrowRequest is the request body for POST /items/{id}/borrow.
type BorrowRequest struct {
	Borrower string `json:"borrower" validate:"max=255" example:"Ada Lovelace"`
} // @name BorrowRequest

// BorrowResponse is the opened loan and the item's availability after it.
type BorrowResponse struct {
	Loan         LoanResponse         `json:"loan"`
	Availability AvailabilityResponse `json:"availability"`
} // @name BorrowResponse

// PostBorrowHandler handles POST /items/{id}/borrow.
type PostBorrowHandler struct {
	base
}

// NewPostBorrowHandler returns a PostBorrowHandler backed by the given services.
func NewPostBorrowHandler(svc *appsvcs.Services, log logger.Logger) *PostBorrowHandler {
	return &PostBorrowHandler{base: newBase(svc, log)}
}

// Execute lends one copy of the item.
//
//	@Summary		Borrow item
//	@Description	Opens a loan of one copy. Fails with capacity_exhausted when every copy is out. Send an Idempotency-Key to make retries safe.
//	@Tags			circulation
//	@Accept			json
//	@Produce		json
//	@Param			id				path		string			true	"Item ID"	format(uuid)
//	@Param			Idempotency-Key	header		string			false	"Client-chosen key; a retry with the same key replays the first response"
//	@Param			request			body		BorrowRequest	true	"Borrower"
//	@Success		201				{object}	BorrowResponse
//	@Failure		400				{object}	ErrorResponse
//	@Failure		404				{object}	ErrorResponse
//	@Failure		409				{object}	ErrorResponse
//	@Failure		422				{object}	ErrorResponse
//	@Failure		500				{object}	ErrorResponse
//	@Router			/items/{id}/borrow [post]
func (h *PostBorrowHandler) Execute(w http.ResponseWriter, r *http.Request) {
	id, err := itemID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	req, ok := pkgvalidator.ValidateRequest[BorrowRequest](w, r)
	if !ok {
		return
	}

	res, err := h.svc.Circulation.Borrow(r.Context(), id, req.Borrower)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, BorrowResponse{
		Loan:         newLoanResponse(res.Loan),
		Availability: newAvailabilityResponse(res.Availability),
	})
}
