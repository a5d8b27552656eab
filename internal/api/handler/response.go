// internal/api/handler/response.go
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"rewardvault/internal/api/middleware"
	"rewardvault/internal/service"
	"rewardvault/internal/util" // For custom errors
)

// DefaultTimeout bounds every request handled by the router.
const DefaultTimeout = 30 * time.Second

const (
	defaultLimit = 10
	maxLimit     = 100
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

// NewValidator returns a validator with the custom rules used by request bodies.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("gh_phone", func(fl validator.FieldLevel) bool {
		return service.PhonePattern.MatchString(fl.Field().String())
	})
	// Money fields validate as numbers, so gt/gte tags apply to them.
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// responder holds the helpers shared by all handlers.
type responder struct {
	logger   *slog.Logger
	validate *validator.Validate
}

func newResponder(logger *slog.Logger) responder {
	return responder{logger: logger, validate: NewValidator()}
}

// Helper function to send JSON responses.
func (h responder) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// Helper function to send error responses.
func (h responder) respondWithError(w http.ResponseWriter, err error) {
	statusCode := http.StatusInternalServerError
	message := "Internal server error"

	switch {
	case util.IsError(err, util.ErrInvalidInput):
		statusCode = http.StatusBadRequest
		message = "Invalid input"
	case util.IsError(err, util.ErrBelowMinimum):
		statusCode = http.StatusBadRequest
		message = "Amount is below the minimum"
	case util.IsError(err, util.ErrUnauthorized):
		statusCode = http.StatusUnauthorized
		message = "Authentication required"
	case util.IsError(err, util.ErrForbidden):
		statusCode = http.StatusForbidden
		message = "Forbidden"
	case util.IsError(err, util.ErrUserBlocked):
		statusCode = http.StatusForbidden
		message = "Account is blocked"
	case util.IsError(err, util.ErrNotFound), util.IsError(err, util.ErrUserNotFound),
		util.IsError(err, util.ErrDeviceNotFound), util.IsError(err, util.ErrAccountNotFound):
		statusCode = http.StatusNotFound
		message = "Resource not found"
	case util.IsError(err, util.ErrInsufficientFunds):
		statusCode = http.StatusPaymentRequired // 402 Payment Required
		message = "Insufficient funds"
	case util.IsError(err, util.ErrDuplicateEntry):
		statusCode = http.StatusConflict
		message = "Resource already exists"
	case util.IsError(err, util.ErrAlreadyProcessed):
		statusCode = http.StatusConflict
		message = "Record already processed"
	case util.IsError(err, util.ErrNotEligibleYet):
		statusCode = http.StatusConflict
		message = "Not yet eligible"
	default:
		h.logger.Error("Unhandled service error", "error", err)
	}

	h.respondWithJSON(w, statusCode, ErrorResponse{Error: message})
}

// decode reads a JSON body into dst and runs struct validation on it.
func (h responder) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.respondWithError(w, util.ErrInvalidInput)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		resp := ErrorResponse{Error: "Validation failed", Details: map[string]string{}}
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				resp.Details[fe.Field()] = fmt.Sprintf("Field Validation Failed on '%s' tag", fe.Tag())
			}
		}
		h.respondWithJSON(w, http.StatusBadRequest, resp)
		return false
	}
	return true
}

// currentUser returns the authenticated caller or writes a 401.
func (h responder) currentUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.respondWithError(w, util.ErrUnauthorized)
	}
	return id, ok
}

// pathID parses a UUID URL parameter or writes a 400.
func (h responder) pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		h.respondWithError(w, util.ErrInvalidInput)
		return uuid.Nil, false
	}
	return id, true
}

// pagination reads limit and offset query parameters, falling back to defaults.
func pagination(r *http.Request) (int, int) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}
