package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/miniforvaltaren/api/internal/domain"
	"github.com/miniforvaltaren/api/internal/service"
	"go.uber.org/zap"
)

const problemContentType = "application/problem+json"

// maxBodyBytes caps JSON and form request bodies
const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report json names so field errors match the request body
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return toJSONFieldName(fld.Name)
		}
		return name
	})
	return v
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func respondProblem(w http.ResponseWriter, problem domain.APIError) {
	w.Header().Set("Content-Type", problemContentType)
	w.WriteHeader(problem.Status)
	_ = json.NewEncoder(w).Encode(problem)
}

// respondWithError sends a problem document typed by status code
func respondWithError(w http.ResponseWriter, status int, message string) {
	respondProblem(w, domain.APIError{
		Type:   getErrorType(status),
		Title:  http.StatusText(status),
		Status: status,
		Detail: message,
	})
}

// respondValidationError renders validator/v10 failures as per-field messages
func respondValidationError(w http.ResponseWriter, err error) {
	fields := make(map[string]string)
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			fields[fe.Field()] = formatValidationError(fe)
		}
	}
	respondProblem(w, domain.APIError{
		Type:   domain.ErrorTypeValidation,
		Title:  "Validation Error",
		Status: http.StatusBadRequest,
		Detail: domain.MsgInvalidFields,
		Errors: fields,
	})
}

func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return "Must be a valid email address"
	case "max":
		return fmt.Sprintf("Must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("Must be at least %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("Must be greater than or equal to %s", fe.Param())
	case "gt":
		return fmt.Sprintf("Must be greater than %s", fe.Param())
	case "lte":
		return fmt.Sprintf("Must be less than or equal to %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", fe.Param())
	default:
		return domain.GetValidationMessage(fe.Tag())
	}
}

// toJSONFieldName lower-cases the first letter of a Go field name
func toJSONFieldName(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

func getErrorType(status int) string {
	switch status {
	case http.StatusBadRequest:
		return domain.ErrorTypeBadRequest
	case http.StatusUnauthorized:
		return domain.ErrorTypeUnauthorized
	case http.StatusForbidden:
		return domain.ErrorTypeForbidden
	case http.StatusNotFound:
		return domain.ErrorTypeNotFound
	case http.StatusConflict:
		return domain.ErrorTypeConflict
	default:
		return domain.ErrorTypeInternal
	}
}

// decodeJSON reads and validates a JSON body into dst. It writes the 400 and
// returns false when either step fails.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		respondValidationError(w, err)
		return false
	}
	return true
}

// pathID parses a uuid path parameter. Malformed ids are reported as 404,
// the same as ids that belong to someone else.
func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		respondWithError(w, http.StatusNotFound, "Resource not found")
		return uuid.Nil, false
	}
	return id, true
}

// queryID parses an optional uuid filter
func queryID(w http.ResponseWriter, r *http.Request, name string) (*uuid.UUID, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		respondProblem(w, domain.APIError{
			Type:   domain.ErrorTypeValidation,
			Title:  "Validation Error",
			Status: http.StatusBadRequest,
			Detail: domain.MsgInvalidFields,
			Errors: map[string]string{name: "Must be a valid UUID"},
		})
		return nil, false
	}
	return &id, true
}

func queryInt(r *http.Request, name string, fallback int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return fallback
	}
	return n
}

// handleServiceError maps service errors to problem responses. Anything it
// does not recognise is logged and answered with a generic 500.
func handleServiceError(w http.ResponseWriter, logger *zap.Logger, err error, action string) {
	var verr *service.ValidationError
	var qerr *service.QuotaError

	switch {
	case errors.As(err, &verr):
		problem := domain.APIError{
			Type:   domain.ErrorTypeValidation,
			Title:  "Validation Error",
			Status: http.StatusBadRequest,
			Detail: domain.MsgInvalidFields,
		}
		if verr.Field != "" {
			problem.Errors = map[string]string{verr.Field: verr.Message}
		} else {
			problem.Detail = verr.Message
		}
		respondProblem(w, problem)
	case errors.As(err, &qerr):
		respondProblem(w, domain.APIError{
			Type:   domain.ErrorTypeQuotaExceeded,
			Title:  "Plan Limit Reached",
			Status: http.StatusForbidden,
			Detail: fmt.Sprintf("Your %s plan allows %d %s", qerr.Plan, qerr.Limit, qerr.Kind),
		})
	case errors.Is(err, service.ErrUnauthorized):
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, service.ErrForbidden):
		respondWithError(w, http.StatusForbidden, "You do not have permission to perform this action")
	case errors.Is(err, service.ErrNotFound):
		respondWithError(w, http.StatusNotFound, "Resource not found")
	case errors.Is(err, service.ErrUserNotFound):
		respondWithError(w, http.StatusNotFound, "user not found")
	case errors.Is(err, service.ErrLeaseNotAllowed):
		respondWithError(w, http.StatusNotFound, domain.MsgLeaseNotAllowed)
	case errors.Is(err, service.ErrDuplicatePeriod):
		respondWithError(w, http.StatusConflict, domain.MsgDuplicatePeriod)
	case errors.Is(err, service.ErrInvoiceAlreadyPaid),
		errors.Is(err, service.ErrCannotRemoveLastOwner),
		errors.Is(err, service.ErrCannotRemoveAccountHolder),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrNoBillingCustomer):
		respondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrBillingDisabled):
		respondWithError(w, http.StatusServiceUnavailable, err.Error())
	default:
		logger.Error("failed to "+action, zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Operation failed")
	}
}
