package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/shiftsync/backend/internal/domain"
)

func (h *Handler) logInternalServerError(r *http.Request, err error) {
	slog.Error("internal server error", "method", r.Method, "path", r.URL.Path, "error", err)
}

func (h *Handler) readJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logInternalServerError(r, err)
	}
}

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func (h *Handler) errorResponse(w http.ResponseWriter, r *http.Request, status int, msg string) {
	h.writeJSON(w, r, status, Response{
		Success: false,
		Message: msg,
		Data:    nil,
	})
}

func (h *Handler) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		h.errorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	h.errorResponse(w, r, http.StatusBadRequest, validationErrors[0].Translate(h.translator))
}

func (h *Handler) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	h.logInternalServerError(r, err)
	h.errorResponse(w, r, http.StatusInternalServerError, "internal server error")
}

// domainError answers a rejected store or arbiter call. Only storage failures
// are logged; the rest are ordinary rejections.
func (h *Handler) domainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		h.errorResponse(w, r, http.StatusNotFound, "shift not found")
	case errors.Is(err, domain.ErrForbidden):
		h.errorResponse(w, r, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrScheduleConflict):
		h.errorResponse(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrInvalidArgument):
		h.errorResponse(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthenticated):
		h.errorResponse(w, r, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrTransientStorage):
		h.logInternalServerError(r, err)
		w.Header().Set("Retry-After", "1")
		h.errorResponse(w, r, http.StatusServiceUnavailable, "storage temporarily unavailable, please retry")
	default:
		h.internalServerError(w, r, err)
	}
}

func (h *Handler) successResponse(w http.ResponseWriter, r *http.Request, msg string, data any) {
	h.writeJSON(w, r, http.StatusOK, Response{
		Success: true,
		Message: msg,
		Data:    data,
	})
}
