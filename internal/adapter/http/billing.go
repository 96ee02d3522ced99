package httpadapter

import (
	"errors"
	"net/http"
	"strconv"

	"adcore/internal/core/domain"
	"adcore/internal/core/port"
)

const idempotencyHeader = "Idempotency-Key"

func (h *Handler) handleGetAdvertiser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	adv, err := h.svc.Billing.GetAdvertiser(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err, nil)
		return
	}
	h.writeJSON(w, http.StatusOK, adv)
}

// handleProcessPayment funds an advertiser balance. A failed gateway call
// answers 502 with the failed transaction in the body.
func (h *Handler) handleProcessPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req port.PaymentRequest
	if !h.decode(w, r, &req) {
		return
	}
	req.AdvertiserID = id
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = r.Header.Get(idempotencyHeader)
	}
	if req.Amount <= 0 {
		h.badRequest(w, r, "amount must be positive")
		return
	}

	tx, err := h.svc.Billing.ProcessPayment(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err, tx)
		return
	}
	h.writeJSON(w, http.StatusCreated, tx)
}

func (h *Handler) handleProcessRefund(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req port.RefundRequest
	if !h.decode(w, r, &req) {
		return
	}
	req.TransactionID = id
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = r.Header.Get(idempotencyHeader)
	}
	if req.Amount != nil && *req.Amount <= 0 {
		h.badRequest(w, r, "amount must be positive")
		return
	}

	tx, err := h.svc.Billing.ProcessRefund(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err, tx)
		return
	}
	h.writeJSON(w, http.StatusCreated, tx)
}

func (h *Handler) handleBalanceCheck(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	amount, err := domain.ParseMoney(r.URL.Query().Get("amount"))
	if err != nil {
		h.writeError(w, r, err, nil)
		return
	}
	sufficient, err := h.svc.Billing.CheckSufficientBalance(r.Context(), id, amount)
	if err != nil {
		h.writeError(w, r, err, nil)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"advertiser_id": id, "amount": amount, "sufficient": sufficient})
}

func (h *Handler) handleDeduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req port.DeductRequest
	if !h.decode(w, r, &req) {
		return
	}
	req.AdvertiserID = id

	tx, err := h.svc.Billing.DeductFromBalance(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err, nil)
		return
	}
	h.writeJSON(w, http.StatusCreated, tx)
}

// handleListTransactions accepts optional `type`, `status`, `limit` and
// `offset` query parameters.
func (h *Handler) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	f := domain.TransactionFilter{Limit: 50}
	if v := q.Get("type"); v != "" {
		t := domain.TransactionType(v)
		if t != domain.TransactionCharge && t != domain.TransactionRefund {
			h.badRequest(w, r, "invalid type %q", v)
			return
		}
		f.Type = &t
	}
	if v := q.Get("status"); v != "" {
		s := domain.TransactionStatus(v)
		if s != domain.TransactionPending && !s.Terminal() {
			h.badRequest(w, r, "invalid status %q", v)
			return
		}
		f.Status = &s
	}
	for name, dst := range map[string]*int{"limit": &f.Limit, "offset": &f.Offset} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			h.badRequest(w, r, "invalid %s", name)
			return
		}
		*dst = n
	}

	txs, err := h.svc.Billing.ListTransactions(r.Context(), id, f)
	if err != nil {
		h.writeError(w, r, err, nil)
		return
	}
	h.writeJSON(w, http.StatusOK, txs)
}

func (h *Handler) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	tx, err := h.svc.Billing.GetTransaction(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err, nil)
		return
	}
	h.writeJSON(w, http.StatusOK, tx)
}

type statusUpdate struct {
	Status           domain.TransactionStatus `json:"status"`
	PaymentReference string                   `json:"payment_reference,omitempty"`
}

// handleUpdateTransactionStatus settles a pending transaction reported by an
// external system. It never moves balances.
func (h *Handler) handleUpdateTransactionStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req statusUpdate
	if !h.decode(w, r, &req) {
		return
	}
	tx, err := h.svc.Billing.UpdateTransactionStatus(r.Context(), id, req.Status, req.PaymentReference)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) && !req.Status.Terminal() {
			h.badRequest(w, r, "status must be completed or failed")
			return
		}
		h.writeError(w, r, err, nil)
		return
	}
	h.writeJSON(w, http.StatusOK, tx)
}
