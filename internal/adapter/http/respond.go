package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"adcore/internal/core/domain"
)

type errorResponse struct {
	Error       string              `json:"error"`
	Transaction *domain.Transaction `json:"transaction,omitempty"`
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case errors.Is(err, domain.ErrGatewayFailure):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidCriterion):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// encoding should rarely fail; log and move on
		h.logger.Error("encode response error", slog.Any("error", err))
	}
}

// writeError answers with the mapped status. Internal errors are logged and
// hidden from the client.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, tx *domain.Transaction) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.Any("error", err))
		msg = "internal error"
	}
	h.writeJSON(w, status, errorResponse{Error: msg, Transaction: tx})
}

func (h *Handler) badRequest(w http.ResponseWriter, r *http.Request, format string, args ...any) {
	h.writeError(w, r, fmt.Errorf("%w: "+format, append([]any{domain.ErrValidation}, args...)...), nil)
}

// decode reads a JSON body into v.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, domain.ErrValidation) {
			h.writeError(w, r, err, nil)
		} else {
			h.badRequest(w, r, "invalid JSON")
		}
		return false
	}
	return true
}

// pathID parses the {id} URL parameter.
func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		h.badRequest(w, r, "invalid id %q", chi.URLParam(r, "id"))
		return 0, false
	}
	return id, true
}
