package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"loan-ledger/internal/api/handler/dto"
	"loan-ledger/internal/api/middleware"
	"loan-ledger/internal/domain/ownership"
	"loan-ledger/internal/pkg/apperrors"

	"github.com/go-chi/chi/v5"
)

func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return fmt.Errorf("no request body")
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		slog.Default().Error("Failed to marshal JSON response", "error", err)
		http.Error(w, `{"success":false,"error":{"message":"Internal server error"}}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(response)
}

func respondData(w http.ResponseWriter, status int, data any) {
	respondJSON(w, status, dto.NewEnvelope(data))
}

func respondList[T any](w http.ResponseWriter, items []T) {
	respondJSON(w, http.StatusOK, dto.NewListEnvelope(items, len(items)))
}

// respondError maps an error onto the error envelope. A record owned by
// someone else is reported as 401, the same as a missing identity.
func respondError(w http.ResponseWriter, err error) {
	status, message, field := http.StatusInternalServerError, "An unexpected error occurred.", ""
	var validationError *apperrors.ValidationError

	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		status, message = http.StatusNotFound, "Resource not found."
	case errors.Is(err, apperrors.ErrForbidden):
		status, message = http.StatusUnauthorized, "Not authorized to access this resource."
	case errors.Is(err, apperrors.ErrUnauthorized):
		status, message = http.StatusUnauthorized, "Unauthorized"
	case errors.As(err, &validationError):
		status, message, field = http.StatusBadRequest, validationError.Message, validationError.Field
	case errors.Is(err, apperrors.ErrInvalidArgument), errors.Is(err, apperrors.ErrValidation):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, apperrors.ErrAlreadyExists), errors.Is(err, apperrors.ErrConflict):
		status, message = http.StatusConflict, err.Error()
	default:
		slog.Default().Error("Unhandled internal error", "error", err, "code", apperrors.CodeOf(err))
	}

	respondJSON(w, status, dto.ErrorResponse{
		Error: dto.ErrorDetail{
			Message: message,
			Field:   field,
		},
	})
}

// rejectPayload reports a body that failed to decode. The target record is
// resolved first so a missing or foreign record outranks a bad payload.
func rejectPayload(w http.ResponseWriter, decodeErr error, resolve func() error) {
	if err := resolve(); err != nil {
		respondError(w, err)
		return
	}
	respondError(w, invalidArgument(decodeErr))
}

func invalidArgument(err error) error {
	return fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err)
}

func principalFrom(r *http.Request) (ownership.Principal, error) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		return "", fmt.Errorf("%w: no principal on request", apperrors.ErrUnauthorized)
	}
	return p, nil
}

func idFromURL(r *http.Request, param string) (int64, error) {
	idStr := chi.URLParam(r, param)
	if idStr == "" {
		return 0, invalidArgument(fmt.Errorf("%s not found in URL path", param))
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return 0, invalidArgument(fmt.Errorf("%s must be a positive integer", param))
	}
	return id, nil
}

func principalAndID(r *http.Request, param string) (ownership.Principal, int64, error) {
	p, err := principalFrom(r)
	if err != nil {
		return "", 0, err
	}
	id, err := idFromURL(r, param)
	if err != nil {
		return "", 0, err
	}
	return p, id, nil
}
