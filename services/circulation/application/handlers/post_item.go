package handlers

import (
	"net/http"

	"github.com/ghuser/circulationledger/pkg/httpx"
	"github.com/ghuser/circulationledger/pkg/logger"
	pkgvalidator "github.com/ghuser/circulationledger/pkg/validator"
	appsvcs "github.com/ghuser/circulationledger/services/circulation/application/services"
)

// CreateItemRequest is the request body for POST /items.
type CreateItemRequest struct {
	Title       string `json:"title"        validate:"max=255" example:"The Great Gatsby"`
	Author      string `json:"author"       validate:"max=255" example:"F. Scott Fitzgerald"`
	Year        *int   `json:"year"         example:"1925"`
	TotalCopies *int   `json:"total_copies" validate:"omitempty,gte=0" example:"3"`
} // @name CreateItemRequest

// PostItemHandler handles POST /items requests.
type PostItemHandler struct {
	base
}

// NewPostItemHandler returns a PostItemHandler backed by the given services.
func NewPostItemHandler(svc *appsvcs.Services, log logger.Logger) *PostItemHandler {
	return &PostItemHandler{base: newBase(svc, log)}
}

// Execute catalogs a new item.
//
//	@Summary		Create item
//	@Description	Catalogs a new item. total_copies defaults to 1.
//	@Tags			items
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CreateItemRequest	true	"Item creation request"
//	@Success		201		{object}	ItemResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/items [post]
func (h *PostItemHandler) Execute(w http.ResponseWriter, r *http.Request) {
	req, ok := pkgvalidator.ValidateRequest[CreateItemRequest](w, r)
	if !ok {
		return
	}

	view, err := h.svc.Catalog.Create(r.Context(), appsvcs.CreateItemInput{
		Title:       req.Title,
		Author:      req.Author,
		Year:        req.Year,
		TotalCopies: req.TotalCopies,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, newItemResponse(view))
}
