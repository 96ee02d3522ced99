package httpadapter

import (
	"net/http"

	"adcore/internal/core/domain"
)

// handleAdRequest selects an ad for the user context in the body. It answers
// 204 No Content when nothing can be served.
func (h *Handler) handleAdRequest(w http.ResponseWriter, r *http.Request) {
	var userCtx domain.UserContext
	if !h.decode(w, r, &userCtx) {
		return
	}
	resp, err := h.svc.Serving.RequestAd(r.Context(), userCtx)
	if err != nil {
		h.writeError(w, r, err, nil)
		return
	}
	if resp == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// handleEvaluateTargeting reports whether the user context in the body
// matches the ad group targeting.
func (h *Handler) handleEvaluateTargeting(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var userCtx domain.UserContext
	if !h.decode(w, r, &userCtx) {
		return
	}
	matched, err := h.svc.Targeting.EvaluateTargeting(r.Context(), id, userCtx)
	if err != nil {
		h.writeError(w, r, err, nil)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"ad_group_id": id, "matched": matched})
}

func (h *Handler) handleCheckBudget(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	avail, err := h.svc.Budget.CheckBudgetAvailability(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err, nil)
		return
	}
	h.writeJSON(w, http.StatusOK, avail)
}
