package httpadapter

import (
	"net/http"

	"adcore/internal/core/domain"
)

func (h *Handler) handleCreateCampaign(w http.ResponseWriter, r *http.Request) {
	advertiserID, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var c domain.Campaign
	if !h.decode(w, r, &c) {
		return
	}
	c.ID = 0
	c.AdvertiserID = advertiserID
	if err := h.svc.Catalog.CreateCampaign(r.Context(), &c); err != nil {
		h.writeError(w, r, err, nil)
		return
	}
	h.writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) handleListCampaigns(w http.ResponseWriter, r *http.Request) {
	advertiserID, ok := h.pathID(w, r)
	if !ok {
		return
	}
	list, err := h.svc.Catalog.ListCampaigns(r.Context(), advertiserID)
	if err != nil {
		h.writeError(w, r, err, nil)
		return
	}
	h.writeJSON(w, http.StatusOK, list)
}

func (h *Handler) handleGetCampaign(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	c, err := h.svc.Catalog.GetCampaign(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err, nil)
		return
	}
	h.writeJSON(w, http.StatusOK, c)
}

func (h *Handler) handleUpdateCampaign(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var c domain.Campaign
	if !h.decode(w, r, &c) {
		return
	}
	c.ID = id
	if err := h.svc.Catalog.UpdateCampaign(r.Context(), &c); err != nil {
		h.writeError(w, r, err, nil)
		return
	}
	h.writeJSON(w, http.StatusOK, c)
}

func (h *Handler) handleDeleteCampaign(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Catalog.DeleteCampaign(r.Context(), id); err != nil {
		h.writeError(w, r, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleCreateAdGroup(w http.ResponseWriter, r *http.Request) {
	campaignID, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var g domain.AdGroup
	if !h.decode(w, r, &g) {
		return
	}
	g.ID = 0
	g.CampaignID = campaignID
	if err := h.svc.Catalog.CreateAdGroup(r.Context(), &g); err != nil {
		h.writeError(w, r, err, nil)
		return
	}
	h.writeJSON(w, http.StatusCreated, g)
}

func (h *Handler) handleListAdGroups(w http.ResponseWriter, r *http.Request) {
	campaignID, ok := h.pathID(w, r)
	if !ok {
		return
	}
	list, err := h.svc.Catalog.ListAdGroups(r.Context(), campaignID)
	if err != nil {
		h.writeError(w, r, err, nil)
		return
	}
	h.writeJSON(w, http.StatusOK, list)
}

func (h *Handler) handleGetAdGroup(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	g, err := h.svc.Catalog.GetAdGroup(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err, nil)
		return
	}
	h.writeJSON(w, http.StatusOK, g)
}

func (h *Handler) handleUpdateAdGroup(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var g domain.AdGroup
	if !h.decode(w, r, &g) {
		return
	}
	g.ID = id
	if err := h.svc.Catalog.UpdateAdGroup(r.Context(), &g); err != nil {
		h.writeError(w, r, err, nil)
		return
	}
	h.writeJSON(w, http.StatusOK, g)
}

func (h *Handler) handleDeleteAdGroup(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Catalog.DeleteAdGroup(r.Context(), id); err != nil {
		h.writeError(w, r, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleCreateCriterion(w http.ResponseWriter, r *http.Request) {
	adGroupID, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var c domain.TargetingCriterion
	if !h.decode(w, r, &c) {
		return
	}
	c.ID = 0
	c.AdGroupID = adGroupID
	if err := h.svc.Catalog.CreateCriterion(r.Context(), &c); err != nil {
		h.writeError(w, r, err, nil)
		return
	}
	h.writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) handleListCriteria(w http.ResponseWriter, r *http.Request) {
	adGroupID, ok := h.pathID(w, r)
	if !ok {
		return
	}
	list, err := h.svc.Catalog.ListCriteria(r.Context(), adGroupID)
	if err != nil {
		h.writeError(w, r, err, nil)
		return
	}
	h.writeJSON(w, http.StatusOK, list)
}

func (h *Handler) handleGetCriterion(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	c, err := h.svc.Catalog.GetCriterion(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err, nil)
		return
	}
	h.writeJSON(w, http.StatusOK, c)
}

func (h *Handler) handleUpdateCriterion(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var c domain.TargetingCriterion
	if !h.decode(w, r, &c) {
		return
	}
	c.ID = id
	if err := h.svc.Catalog.UpdateCriterion(r.Context(), &c); err != nil {
		h.writeError(w, r, err, nil)
		return
	}
	h.writeJSON(w, http.StatusOK, c)
}

func (h *Handler) handleDeleteCriterion(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Catalog.DeleteCriterion(r.Context(), id); err != nil {
		h.writeError(w, r, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
