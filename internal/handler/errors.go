package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"moviemeter/internal/logging"
	"moviemeter/internal/service"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func WriteError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}

func WriteSuccess(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// statusFromError maps service errors to HTTP statuses. Unknown errors are
// storage failures and become 500.
func statusFromError(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrConflict),
		errors.Is(err, service.ErrSelfRating),
		errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrMissingToken):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrTokenInvalid),
		errors.Is(err, service.ErrTokenExpired),
		errors.Is(err, service.ErrTokenReuse),
		errors.Is(err, service.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFromError(err)
	if status == http.StatusInternalServerError {
		logging.Ctx(r.Context()).Error().Err(err).Msg("request failed")
	}
	WriteError(w, err.Error(), status)
}

// validationMessage turns validator errors into a short client message.
func validationMessage(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return "invalid request"
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is required", field))
		case "email":
			messages = append(messages, fmt.Sprintf("%s must be a valid email", field))
		case "min":
			messages = append(messages, fmt.Sprintf("%s must be at least %s characters", field, fe.Param()))
		case "gte", "lte":
			messages = append(messages, fmt.Sprintf("%s must be between %d and %d", field, service.MinScore, service.MaxScore))
		default:
			messages = append(messages, fmt.Sprintf("%s is invalid", field))
		}
	}
	return strings.Join(messages, ", ")
}
