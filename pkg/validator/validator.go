package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/ghuser/circulationledger/pkg/httpx"
)

// CodeInvalidInput is the error code attached to every rejected request body.
const CodeInvalidInput = "invalid_input"

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]

		// ignore unexported or explicitly ignored
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	if err := validate.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(fmt.Sprintf("register notblank: %v", err))
	}
}

// Validate runs struct-level validation using go-playground/validator tags.
func Validate(s any) error {
	return validate.Struct(s)
}

// FormatValidationErrors converts validator.ValidationErrors into a map of
// field name → human-readable message.
func FormatValidationErrors(err error) map[string]string {
	errs := make(map[string]string)
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return errs
	}
	for _, e := range ve {
		errs[e.Field()] = formatFieldError(e)
	}
	return errs
}

func formatFieldError(e validator.FieldError) string {
	switch e.Tag() {
	case "required", "notblank":
		return "This field is required"
	case "uuid", "uuid4":
		return "Must be a valid UUID"
	case "min":
		return fmt.Sprintf("Minimum length is %s", e.Param())
	case "max":
		return fmt.Sprintf("Maximum length is %s", e.Param())
	case "gte":
		return fmt.Sprintf("Must be greater than or equal to %s", e.Param())
	case "lte":
		return fmt.Sprintf("Must be less than or equal to %s", e.Param())
	default:
		return fmt.Sprintf("Validation failed on '%s'", e.Tag())
	}
}

// ValidateRequest decodes the JSON request body into T, validates it, and
// writes an appropriate error response if either step fails.
// Returns (parsedStruct, true) on success or (nil, false) on failure.
func ValidateRequest[T any](w http.ResponseWriter, r *http.Request) (*T, bool) {
	return decodeAndValidate[T](w, r, false)
}

// ValidateOptionalRequest is ValidateRequest for endpoints whose body may be
// omitted entirely; an empty body yields the zero T, which is still validated.
func ValidateOptionalRequest[T any](w http.ResponseWriter, r *http.Request) (*T, bool) {
	return decodeAndValidate[T](w, r, true)
}

func decodeAndValidate[T any](w http.ResponseWriter, r *http.Request, optional bool) (*T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if !(optional && errors.Is(err, io.EOF)) {
			writeDecodeError(w, err)
			return nil, false
		}
	}
	if err := Validate(&req); err != nil {
		httpx.JSON(w, http.StatusBadRequest, httpx.ErrorResponse{
			Error:  "Validation failed",
			Code:   CodeInvalidInput,
			Fields: FormatValidationErrors(err),
		})
		return nil, false
	}
	return &req, true
}

func writeDecodeError(w http.ResponseWriter, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		httpx.JSONErrorCode(w, http.StatusRequestEntityTooLarge, CodeInvalidInput, "Request body too large")
		return
	}

	resp := httpx.ErrorResponse{Error: "Invalid JSON", Code: CodeInvalidInput}
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, io.EOF):
		resp.Error = "Request body required"
	case errors.As(err, &typeErr) && typeErr.Field != "":
		resp.Fields = map[string]string{typeErr.Field: fmt.Sprintf("Must be of type %s", typeErr.Type.String())}
	}
	httpx.JSON(w, http.StatusBadRequest, resp)
}
