package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ghuser/circulationledger/pkg/httpx"
	"github.com/ghuser/circulationledger/pkg/logger"
	pkgvalidator "github.com/ghuser/circulationledger/pkg/validator"
	appsvcs "github.com/ghuser/circulationledger/services/circulation/application/services"
)

// UpdateItemRequest is the request body for PUT /items/{id}. Omitted fields
// are left unchanged; "year": null clears the year.
type UpdateItemRequest struct {
	Title       *string     `json:"title"        validate:"omitempty,max=255" example:"The Great Gatsby"`
	Author      *string     `json:"author"       validate:"omitempty,max=255" example:"F. Scott Fitzgerald"`
	Year        NullableInt `json:"year"         swaggertype:"integer" extensions:"x-nullable" example:"1925"` // null clears the year
	TotalCopies *int        `json:"total_copies" validate:"omitempty,gte=0" example:"4"`
} // @name UpdateItemRequest

// NullableInt tells an omitted field (Set false) apart from an explicit null
// (Set true, Value nil).
type NullableInt struct {
	Set   bool
	Value *int
}

func (n *NullableInt) UnmarshalJSON(b []byte) error {
	n.Set = true
	if string(b) == "null" {
		n.Value = nil
		return nil
	}
	var v int
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

// PutItemHandler handles PUT /items/{id}.
type PutItemHandler struct {
	base
}

// NewPutItemHandler returns a PutItemHandler backed by the given services.
func NewPutItemHandler(svc *appsvcs.Services, log logger.Logger) *PutItemHandler {
	return &PutItemHandler{base: newBase(svc, log)}
}

// Execute updates an item.
//
//	@Summary		Update item
//	@Description	Changes the given fields. A new total_copies below the open loans is rejected and nothing is changed.
//	@Tags			items
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Item ID"	format(uuid)
//	@Param			request	body		UpdateItemRequest	true	"Fields to change"
//	@Success		200		{object}	ItemResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/items/{id} [put]
func (h *PutItemHandler) Execute(w http.ResponseWriter, r *http.Request) {
	id, err := itemID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	req, ok := pkgvalidator.ValidateOptionalRequest[UpdateItemRequest](w, r)
	if !ok {
		return
	}

	view, err := h.svc.Catalog.Update(r.Context(), id, appsvcs.UpdateItemInput{
		Title:       req.Title,
		Author:      req.Author,
		Year:        req.Year.Value,
		ClearYear:   req.Year.Set && req.Year.Value == nil,
		TotalCopies: req.TotalCopies,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusOK, newItemResponse(view))
}
