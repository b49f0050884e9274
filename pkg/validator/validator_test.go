package validator_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ghuser/circulationledger/pkg/httpx"
	pkgvalidator "github.com/ghuser/circulationledger/pkg/validator"
)

type sampleStruct struct {
	ItemID   string `validate:"required,uuid"`
	Borrower string `validate:"notblank,max=10"`
	Copies   *int   `validate:"omitempty,gte=0"`
}

func intPtr(n int) *int { return &n }

func TestValidate_valid(t *testing.T) {
	s := sampleStruct{
		ItemID:   "550e8400-e29b-41d4-a716-446655440000",
		Borrower: "alice",
		Copies:   intPtr(0),
	}
	if err := pkgvalidator.Validate(&s); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestFormatValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		in    sampleStruct
		field string
		want  string
	}{
		{"missing uuid", sampleStruct{Borrower: "bob"}, "ItemID", "This field is required"},
		{"bad uuid", sampleStruct{ItemID: "nope", Borrower: "bob"}, "ItemID", "Must be a valid UUID"},
		{"blank borrower", sampleStruct{ItemID: "550e8400-e29b-41d4-a716-446655440000", Borrower: "   "}, "Borrower", "This field is required"},
		{"long borrower", sampleStruct{ItemID: "550e8400-e29b-41d4-a716-446655440000", Borrower: "12345678901"}, "Borrower", "Maximum length is 10"},
		{"negative copies", sampleStruct{ItemID: "550e8400-e29b-41d4-a716-446655440000", Borrower: "bob", Copies: intPtr(-1)}, "Copies", "Must be greater than or equal to 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := pkgvalidator.FormatValidationErrors(pkgvalidator.Validate(&tt.in))
			if m[tt.field] != tt.want {
				t.Errorf("%s: got %q, want %q (all: %v)", tt.field, m[tt.field], tt.want, m)
			}
		})
	}
}

func TestFormatValidationErrors_nonValidationError(t *testing.T) {
	m := pkgvalidator.FormatValidationErrors(http.ErrNoCookie)
	if len(m) != 0 {
		t.Errorf("expected empty map for non-validation error, got %v", m)
	}
}

// --- ValidateRequest ---

type borrowReq struct {
	Borrower string `json:"borrower" validate:"notblank,max=255"`
	Copies   *int   `json:"total_copies" validate:"omitempty,gte=0"`
}

type returnReq struct {
	RecordID *string `json:"record_id" validate:"omitempty,uuid"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) httpx.ErrorResponse {
	t.Helper()
	var body httpx.ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return body
}

func TestValidateRequest_valid(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"borrower":"alice"}`))
	w := httptest.NewRecorder()

	req, ok := pkgvalidator.ValidateRequest[borrowReq](w, r)
	if !ok {
		t.Fatalf("expected ok=true, got false. Response: %s", w.Body.String())
	}
	if req.Borrower != "alice" {
		t.Errorf("unexpected Borrower: %q", req.Borrower)
	}
}

func TestValidateRequest_rejections(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantCode  int
		wantError string
		wantField string
	}{
		{"malformed json", "{bad json", http.StatusBadRequest, "Invalid JSON", ""},
		{"empty body", "", http.StatusBadRequest, "Request body required", ""},
		{"blank borrower", `{"borrower":"  "}`, http.StatusBadRequest, "Validation failed", "borrower"},
		{"non-integer copies", `{"borrower":"a","total_copies":"three"}`, http.StatusBadRequest, "Invalid JSON", "total_copies"},
		{"negative copies", `{"borrower":"a","total_copies":-2}`, http.StatusBadRequest, "Validation failed", "total_copies"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			if _, ok := pkgvalidator.ValidateRequest[borrowReq](w, r); ok {
				t.Fatal("expected ok=false")
			}
			if w.Code != tt.wantCode {
				t.Errorf("expected %d, got %d", tt.wantCode, w.Code)
			}
			body := decodeError(t, w)
			if body.Error != tt.wantError {
				t.Errorf("error: got %q, want %q", body.Error, tt.wantError)
			}
			if body.Code != pkgvalidator.CodeInvalidInput {
				t.Errorf("code: got %q", body.Code)
			}
			if tt.wantField != "" {
				if _, ok := body.Fields[tt.wantField]; !ok {
					t.Errorf("expected field %q in %v", tt.wantField, body.Fields)
				}
			}
		})
	}
}

func TestValidateRequest_bodyTooLarge(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"borrower":"`+strings.Repeat("a", 64)+`"}`))
	r.Body = http.MaxBytesReader(w, r.Body, 16)

	if _, ok := pkgvalidator.ValidateRequest[borrowReq](w, r); ok {
		t.Fatal("expected ok=false")
	}
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", w.Code)
	}
}

func TestValidateOptionalRequest(t *testing.T) {
	t.Run("empty body is allowed", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", http.NoBody)
		w := httptest.NewRecorder()

		req, ok := pkgvalidator.ValidateOptionalRequest[returnReq](w, r)
		if !ok {
			t.Fatalf("expected ok=true, got %s", w.Body.String())
		}
		if req.RecordID != nil {
			t.Errorf("expected nil record id, got %v", *req.RecordID)
		}
	})

	t.Run("body is still validated", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"record_id":"not-a-uuid"}`))
		w := httptest.NewRecorder()

		if _, ok := pkgvalidator.ValidateOptionalRequest[returnReq](w, r); ok {
			t.Fatal("expected ok=false")
		}
		if !strings.Contains(w.Body.String(), "UUID") {
			t.Errorf("expected UUID error in body, got: %s", w.Body.String())
		}
	})
}
