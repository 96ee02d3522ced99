package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adcore/internal/adapter/memory"
	"adcore/internal/adapter/payment"
	"adcore/internal/adapter/usecase"
	"adcore/internal/core/domain"
)

type testServer struct {
	srv      *httptest.Server
	store    *memory.Store
	adv      domain.Advertiser
	campaign domain.Campaign
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.New()

	adv := domain.Advertiser{Name: "acme", Currency: "USD"}
	require.NoError(t, store.CreateAdvertiser(context.Background(), &adv))
	campaign := domain.Campaign{AdvertiserID: adv.ID, Name: "funding", Status: domain.CampaignDraft, StartDate: time.Now()}
	require.NoError(t, store.CreateCampaign(context.Background(), &campaign))

	targeting := usecase.NewTargetingUseCase(store, store, usecase.WithLogger(logger))
	budget := usecase.NewBudgetUseCase(store, store, store, usecase.WithLogger(logger))
	billing := usecase.NewBillingUseCase(store, store, payment.NewSandbox(), usecase.WithLogger(logger))
	h := NewHandler(Services{
		Serving:   usecase.NewServingUseCase(store, targeting, budget, billing, usecase.WithLogger(logger)),
		Targeting: targeting,
		Budget:    budget,
		Billing:   billing,
		Catalog:   usecase.NewCatalogUseCase(store, store, store, usecase.WithLogger(logger)),
	}, logger)

	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)
	return &testServer{srv: srv, store: store, adv: adv, campaign: campaign}
}

func (s *testServer) do(t *testing.T, method, path string, body any, out any) int {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, s.srv.URL+path, rdr)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestServeFlow(t *testing.T) {
	s := newTestServer(t)
	advPath := fmt.Sprintf("/api/v1/advertisers/%d", s.adv.ID)

	var tx domain.Transaction
	code := s.do(t, http.MethodPost, advPath+"/payments", map[string]any{
		"campaign_id":     s.campaign.ID,
		"amount":          "10.00",
		"payment_method":  "card",
		"idempotency_key": "top-up-1",
	}, &tx)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, domain.TransactionCompleted, tx.Status)
	assert.Equal(t, domain.Money(1000), tx.Amount)

	var campaign domain.Campaign
	code = s.do(t, http.MethodPost, advPath+"/campaigns", map[string]any{
		"name":       "spring",
		"budget":     "50.00",
		"status":     "active",
		"start_date": time.Now().Add(-time.Hour).UTC().Format(time.RFC3339),
	}, &campaign)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, s.adv.ID, campaign.AdvertiserID)

	var group domain.AdGroup
	code = s.do(t, http.MethodPost, fmt.Sprintf("/api/v1/campaigns/%d/adgroups", campaign.ID), map[string]any{
		"name":       "ios users",
		"bid_amount": "2.50",
		"status":     "active",
	}, &group)
	require.Equal(t, http.StatusCreated, code)

	var criterion domain.TargetingCriterion
	code = s.do(t, http.MethodPost, fmt.Sprintf("/api/v1/adgroups/%d/criteria", group.ID), map[string]any{
		"criteria_type":  "device",
		"operator":       "equals",
		"criteria_value": "ios",
	}, &criterion)
	require.Equal(t, http.StatusCreated, code)

	var eval struct {
		Matched bool `json:"matched"`
	}
	code = s.do(t, http.MethodPost, fmt.Sprintf("/api/v1/adgroups/%d/targeting/evaluate", group.ID),
		domain.UserContext{UserID: "u1", Device: "IOS"}, &eval)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, eval.Matched)

	code = s.do(t, http.MethodPost, "/api/v1/ad/request", domain.UserContext{UserID: "u2", Device: "android"}, nil)
	assert.Equal(t, http.StatusNoContent, code)

	var ad struct {
		Token     string       `json:"token"`
		AdGroupID int64        `json:"ad_group_id"`
		Cost      domain.Money `json:"cost"`
	}
	code = s.do(t, http.MethodPost, "/api/v1/ad/request", domain.UserContext{UserID: "u1", Device: "ios"}, &ad)
	require.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, ad.Token)
	assert.Equal(t, group.ID, ad.AdGroupID)
	assert.Equal(t, domain.Money(1), ad.Cost)

	var adv domain.Advertiser
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, advPath, nil, &adv))
	assert.Equal(t, domain.Money(999), adv.AccountBalance)

	var avail domain.BudgetAvailability
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/campaigns/%d/budget", campaign.ID), nil, &avail))
	assert.True(t, avail.Available)
	assert.Equal(t, domain.Money(4999), avail.Remaining)

	var charges []domain.Transaction
	code = s.do(t, http.MethodGet, advPath+"/transactions?type=charge&status=completed", nil, &charges)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, charges, 2)
}

func TestRefundFlow(t *testing.T) {
	s := newTestServer(t)
	advPath := fmt.Sprintf("/api/v1/advertisers/%d", s.adv.ID)

	var charge domain.Transaction
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, advPath+"/payments", map[string]any{
		"campaign_id": s.campaign.ID, "amount": "20.00", "payment_method": "card", "idempotency_key": "pay-1",
	}, &charge))

	var refund domain.Transaction
	code := s.do(t, http.MethodPost, fmt.Sprintf("/api/v1/transactions/%d/refunds", charge.ID), map[string]any{
		"amount": "5.00", "reason": "unused", "idempotency_key": "refund-1",
	}, &refund)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, domain.TransactionRefund, refund.Type)
	require.NotNil(t, refund.OriginalTransactionID)
	assert.Equal(t, charge.ID, *refund.OriginalTransactionID)

	var check struct {
		Sufficient bool `json:"sufficient"`
	}
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, advPath+"/balance/check?amount=15.00", nil, &check))
	assert.True(t, check.Sufficient)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, advPath+"/balance/check?amount=15.01", nil, &check))
	assert.False(t, check.Sufficient)

	var original domain.Transaction
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/transactions/%d", charge.ID), nil, &original))
	assert.Equal(t, domain.Money(2000), original.Amount)
}

func TestErrorMapping(t *testing.T) {
	s := newTestServer(t)
	advPath := fmt.Sprintf("/api/v1/advertisers/%d", s.adv.ID)

	var body errorResponse
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/v1/campaigns/999", nil, &body))
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/v1/campaigns/abc", nil, &body))
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, advPath+"/balance/check?amount=1.005", nil, &body))

	body = errorResponse{}
	code := s.do(t, http.MethodPost, advPath+"/payments", map[string]any{
		"campaign_id": s.campaign.ID, "amount": "3.00", "payment_method": payment.DeclineMethod, "idempotency_key": "declined",
	}, &body)
	assert.Equal(t, http.StatusBadGateway, code)
	require.NotNil(t, body.Transaction)
	assert.Equal(t, domain.TransactionFailed, body.Transaction.Status)
	failedPath := fmt.Sprintf("/api/v1/transactions/%d", body.Transaction.ID)

	body = errorResponse{}
	code = s.do(t, http.MethodPost, advPath+"/deductions", map[string]any{"campaign_id": s.campaign.ID, "amount": "1.00"}, &body)
	assert.Equal(t, http.StatusPaymentRequired, code)

	assert.Equal(t, http.StatusConflict, s.do(t, http.MethodPatch, failedPath, map[string]any{"status": "completed"}, &body))
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPatch, failedPath, map[string]any{"status": "pending"}, &body))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.NotFoundError("campaign", 1), http.StatusNotFound},
		{domain.ErrBudgetExhausted, http.StatusPaymentRequired},
		{domain.ErrInsufficientFunds, http.StatusPaymentRequired},
		{fmt.Errorf("charge: %w", domain.ErrGatewayFailure), http.StatusBadGateway},
		{domain.ErrInvalidCriterion, http.StatusBadRequest},
		{domain.ErrValidation, http.StatusBadRequest},
		{domain.ErrInvalidTransition, http.StatusConflict},
		{domain.ErrConflict, http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
