package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"marketplace/internal/auth"
	"marketplace/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// validate checks request payloads using their `validate` tags. Field names
// in messages follow the JSON names.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// writeJSON writes a JSON response with the given status code. The status
// is already sent when encoding fails, so the error is only logged.
func writeJSON(w http.ResponseWriter, status int, data any, logger zerolog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error().Err(err).Int("status", status).Msg("failed to encode response")
	}
}

// writeError writes an error response with the given status code, code and message.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, logger zerolog.Logger) {
	reqID := middleware.GetReqID(r.Context())

	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Str("error", message).
		Str("code", code).
		Int("status", status).
		Str("request_id", reqID).
		Msg("handler error")

	writeJSON(w, status, model.ErrorResponse{
		Error:         code,
		Message:       message,
		CorrelationID: reqID,
	}, logger)
}

// writeServiceError maps a service error onto its HTTP response. Domain
// errors carry their own status; anything else is a 500 with the error text.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, logger zerolog.Logger) {
	var de *model.DomainError
	if errors.As(err, &de) {
		writeError(w, r, de.Status, de.Code, de.Message, logger)
		return
	}
	writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, err.Error(), logger)
}

// decodeJSON reads a JSON body into dst and validates it. It writes the
// error response itself and reports whether decoding succeeded.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, logger zerolog.Logger) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body: "+err.Error(), logger)
		return false
	}

	if err := validate.Struct(dst); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeValidation, validationMessage(err), logger)
		return false
	}
	return true
}

// validationMessage flattens validator errors into one line.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}

// uuidParam parses a UUID path parameter.
func uuidParam(w http.ResponseWriter, r *http.Request, name string, logger zerolog.Logger) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeValidation, fmt.Sprintf("invalid %s format", name), logger)
		return uuid.Nil, false
	}
	return id, true
}

// pageParams reads limit and offset query parameters. Missing values are
// returned as zero so the service applies its defaults.
func pageParams(w http.ResponseWriter, r *http.Request, logger zerolog.Logger) (int, int, bool) {
	read := func(name string) (int, bool) {
		raw := r.URL.Query().Get(name)
		if raw == "" {
			return 0, true
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, model.ErrCodeValidation, fmt.Sprintf("invalid %s parameter", name), logger)
			return 0, false
		}
		return v, true
	}

	limit, ok := read("limit")
	if !ok {
		return 0, 0, false
	}
	offset, ok := read("offset")
	if !ok {
		return 0, 0, false
	}
	return limit, offset, true
}

// principal returns the authenticated caller. Routes are mounted behind the
// auth middleware, so a missing principal is a wiring error.
func principal(w http.ResponseWriter, r *http.Request, logger zerolog.Logger) (auth.Principal, bool) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, model.ErrCodeUnauthorised, "authentication required", logger)
		return auth.Principal{}, false
	}
	return p, true
}
