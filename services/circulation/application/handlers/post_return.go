package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/ghuser/circulationledger/pkg/httpx"
	"github.com/ghuser/circulationledger/pkg/logger"
	pkgvalidator "github.com/ghuser/circulationledger/pkg/validator"
	appsvcs "github.com/ghuser/circulationledger/services/circulation/application/services"
	"github.com/ghuser/circulationledger/services/circulation/domain"
)

// ReturnRequest is the optional request body for POST /items/{id}/return.
type ReturnRequest struct {
	RecordID string `json:"record_id" validate:"omitempty,uuid" example:"9b2f7c1e-8a4d-4c3b-9e55-0f6a1d2c3b4a"`
} // @name ReturnRequest

// ReturnResponse is the closed loan and the item's availability after it.
type ReturnResponse struct {
	RecordID     uuid.UUID            `json:"record_id"    example:"9b2f7c1e-8a4d-4c3b-9e55-0f6a1d2c3b4a"`
	Loan         LoanResponse         `json:"loan"`
	Availability AvailabilityResponse `json:"availability"`
} // @name ReturnResponse

// PostReturnHandler handles POST /items/{id}/return.
type PostReturnHandler struct {
	base
}

// NewPostReturnHandler returns a PostReturnHandler backed by the given services.
func NewPostReturnHandler(svc *appsvcs.Services, log logger.Logger) *PostReturnHandler {
	return &PostReturnHandler{base: newBase(svc, log)}
}

// Execute closes a loan of the item.
//
//	@Summary		Return item
//	@Description	Closes record_id when given, otherwise the most recently opened loan of the item.
//	@Tags			circulation
//	@Accept			json
//	@Produce		json
//	@Param			id				path		string			true	"Item ID"	format(uuid)
//	@Param			Idempotency-Key	header		string			false	"Client-chosen key; a retry with the same key replays the first response"
//	@Param			request			body		ReturnRequest	false	"Record to close"
//	@Success		200				{object}	ReturnResponse
//	@Failure		400				{object}	ErrorResponse
//	@Failure		404				{object}	ErrorResponse
//	@Failure		409				{object}	ErrorResponse
//	@Failure		422				{object}	ErrorResponse
//	@Failure		500				{object}	ErrorResponse
//	@Router			/items/{id}/return [post]
func (h *PostReturnHandler) Execute(w http.ResponseWriter, r *http.Request) {
	id, err := itemID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	req, ok := pkgvalidator.ValidateOptionalRequest[ReturnRequest](w, r)
	if !ok {
		return
	}

	var recordID *uuid.UUID
	if req.RecordID != "" {
		rid, err := uuid.Parse(req.RecordID)
		if err != nil {
			h.fail(w, r, domain.ErrLoanNotFound)
			return
		}
		recordID = &rid
	}

	res, err := h.svc.Circulation.Return(r.Context(), id, recordID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusOK, ReturnResponse{
		RecordID:     res.Loan.ID,
		Loan:         newLoanResponse(res.Loan),
		Availability: newAvailabilityResponse(res.Availability),
	})
}
