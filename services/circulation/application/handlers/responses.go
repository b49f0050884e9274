// Package handlers holds one HTTP handler per circulation endpoint. Each
// decodes and validates its request, calls a single application service and
// maps the result or error to JSON.
package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ghuser/circulationledger/pkg/errhttp"
	"github.com/ghuser/circulationledger/pkg/httpx"
	"github.com/ghuser/circulationledger/pkg/logger"
	"github.com/ghuser/circulationledger/pkg/telemetry"
	pkgvalidator "github.com/ghuser/circulationledger/pkg/validator"
	appsvcs "github.com/ghuser/circulationledger/services/circulation/application/services"
	"github.com/ghuser/circulationledger/services/circulation/domain"
	"github.com/ghuser/circulationledger/services/circulation/domain/models"
	"github.com/ghuser/circulationledger/services/circulation/domain/repositories"
)

// CodeStatsUnavailable is returned by the stats endpoint when no Redis is configured.
const CodeStatsUnavailable = "stats_unavailable"

// ItemResponse is a catalog item with its current availability.
type ItemResponse struct {
	ID           uuid.UUID `json:"id"            example:"123e4567-e89b-12d3-a456-426614174000"`
	Title        string    `json:"title"         example:"The Great Gatsby"`
	Author       string    `json:"author"        example:"F. Scott Fitzgerald"`
	Year         *int      `json:"year"          example:"1925"`
	TotalCopies  int       `json:"total_copies"  example:"3"`
	Available    int       `json:"available"     example:"2"`
	OpenLoans    int       `json:"open_loans"    example:"1"`
	LendingState string    `json:"lending_state" example:"partially_loaned"`
	CreatedAt    time.Time `json:"created_at"    example:"2024-01-15T10:30:00Z"`
	UpdatedAt    time.Time `json:"updated_at"    example:"2024-01-15T10:30:00Z"`
} // @name ItemResponse

// LoanResponse is one loan record.
type LoanResponse struct {
	ID       uuid.UUID  `json:"id"        example:"9b2f7c1e-8a4d-4c3b-9e55-0f6a1d2c3b4a"`
	ItemID   uuid.UUID  `json:"item_id"   example:"123e4567-e89b-12d3-a456-426614174000"`
	Borrower string     `json:"borrower"  example:"Ada Lovelace"`
	Status   string     `json:"status"    example:"open"`
	OpenedAt time.Time  `json:"opened_at" example:"2024-01-15T10:30:00Z"`
	ClosedAt *time.Time `json:"closed_at"`
} // @name LoanResponse

// AvailabilityResponse is the derived lending state of an item.
type AvailabilityResponse struct {
	ItemID       uuid.UUID `json:"item_id"       example:"123e4567-e89b-12d3-a456-426614174000"`
	TotalCopies  int       `json:"total_copies"  example:"3"`
	OpenLoans    int       `json:"open_loans"    example:"1"`
	Available    int       `json:"available"     example:"2"`
	LendingState string    `json:"lending_state" example:"partially_loaned"`
} // @name AvailabilityResponse

// ErrorResponse documents httpx.ErrorResponse for swagger.
type ErrorResponse struct {
	Error  string            `json:"error"            example:"item not found"`
	Code   string            `json:"code"             example:"not_found"`
	Fields map[string]string `json:"fields,omitempty"`
} // @name ErrorResponse

func newItemResponse(v *models.ItemView) ItemResponse {
	return ItemResponse{
		ID:           v.Item.ID,
		Title:        v.Item.Title.String(),
		Author:       v.Item.Author,
		Year:         v.Item.Year,
		TotalCopies:  v.Item.TotalCopies,
		Available:    v.Availability.Available(),
		OpenLoans:    v.Availability.OpenLoans,
		LendingState: string(v.Availability.State()),
		CreatedAt:    v.Item.CreatedAt,
		UpdatedAt:    v.Item.UpdatedAt,
	}
}

func newLoanResponse(l *models.LoanRecord) LoanResponse {
	return LoanResponse{
		ID:       l.ID,
		ItemID:   l.ItemID,
		Borrower: l.Borrower.String(),
		Status:   string(l.Status()),
		OpenedAt: l.OpenedAt,
		ClosedAt: l.ClosedAt,
	}
}

func newAvailabilityResponse(a models.Availability) AvailabilityResponse {
	return AvailabilityResponse{
		ItemID:       a.ItemID,
		TotalCopies:  a.TotalCopies,
		OpenLoans:    a.OpenLoans,
		Available:    a.Available(),
		LendingState: string(a.State()),
	}
}

// base carries what every handler needs.
type base struct {
	svc *appsvcs.Services
	log logger.Logger
}

func newBase(svc *appsvcs.Services, log logger.Logger) base {
	if log == nil {
		log = logger.Nop()
	}
	return base{svc: svc, log: log}
}

// fail writes err. Server-side failures are logged with their cause and
// reported to Sentry; the client only sees the generic message.
func (b base) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, appsvcs.ErrStatsUnavailable) {
		httpx.JSONErrorCode(w, http.StatusServiceUnavailable, CodeStatsUnavailable, err.Error())
		return
	}
	if status, code := errhttp.Classify(err); status >= http.StatusInternalServerError {
		b.log.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"code", code,
			"error", err,
		)
		telemetry.ReportError(r.Context(), err)
	}
	errhttp.WriteError(w, err)
}

// itemID reads the {id} path parameter. An id that is not a UUID cannot
// name an item, so it is reported as not found.
func itemID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, domain.ErrItemNotFound
	}
	return id, nil
}

type pageQuery struct {
	Limit  int `json:"limit"  validate:"gte=0,lte=1000"`
	Offset int `json:"offset" validate:"gte=0"`
}

// parsePage reads limit and offset. Writes a 400 and returns false when
// either is malformed.
func parsePage(w http.ResponseWriter, r *http.Request) (repositories.QueryOpts, bool) {
	var q pageQuery
	fields := map[string]string{}
	for name, dst := range map[string]*int{"limit": &q.Limit, "offset": &q.Offset} {
		raw := r.URL.Query().Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			fields[name] = "Must be an integer"
			continue
		}
		*dst = n
	}
	if len(fields) == 0 {
		if err := pkgvalidator.Validate(&q); err != nil {
			fields = pkgvalidator.FormatValidationErrors(err)
		}
	}
	if len(fields) > 0 {
		httpx.JSON(w, http.StatusBadRequest, httpx.ErrorResponse{
			Error:  "Invalid query parameters",
			Code:   errhttp.CodeInvalidInput,
			Fields: fields,
		})
		return repositories.QueryOpts{}, false
	}
	return repositories.QueryOpts{Limit: q.Limit, Offset: q.Offset}, true
}
