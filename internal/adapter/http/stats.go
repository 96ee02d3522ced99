package httpadapter

import (
	"net/http"
	"strconv"
	"time"

	"adcore/internal/core/port"
)

// handleStatsOverview returns aggregated completed ledger activity over a
// period. It accepts optional `from`, `to` (RFC3339 timestamps) and
// `advertiser_id` query parameters. If no period is provided, it defaults to
// the last 24 hours.
func (h *Handler) handleStatsOverview(w http.ResponseWriter, r *http.Request) {
	var (
		q       = r.URL.Query()
		fromStr = q.Get("from")
		toStr   = q.Get("to")
		req     port.StatsReq
		err     error
	)

	if fromStr != "" {
		req.From, err = time.Parse(time.RFC3339, fromStr)
		if err != nil {
			h.badRequest(w, r, "invalid 'from' timestamp")
			return
		}
	} else {
		req.From = time.Now().Add(-24 * time.Hour)
	}

	if toStr != "" {
		req.To, err = time.Parse(time.RFC3339, toStr)
		if err != nil {
			h.badRequest(w, r, "invalid 'to' timestamp")
			return
		}
	} else {
		req.To = time.Now()
	}

	if aid := q.Get("advertiser_id"); aid != "" {
		id, err := strconv.ParseInt(aid, 10, 64)
		if err != nil {
			h.badRequest(w, r, "invalid advertiser_id")
			return
		}
		req.AdvertiserID = &id
	}

	stats, err := h.svc.Billing.GetStats(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err, nil)
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}
