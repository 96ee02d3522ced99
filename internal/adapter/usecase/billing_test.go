package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"adcore/internal/core/domain"
	"adcore/internal/core/port"
	"adcore/internal/core/port/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newBilling(s *seed, gw port.PaymentGateway) *BillingUseCase {
	return NewBillingUseCase(s.store, s.store, gw, WithClock(fixedClock))
}

func TestProcessPaymentCreditsBalance(t *testing.T) {
	s := newSeed(t, 100, 10000, nil)
	gw := mocks.NewMockPaymentGateway(t)
	gw.EXPECT().
		Charge(mock.Anything, mock.MatchedBy(func(c port.PaymentCall) bool {
			return c.Amount == 5000 && c.Currency == "USD" && c.Method == "card" && c.IdempotencyKey != ""
		})).
		Return(port.PaymentReceipt{Reference: "gw-1"}, nil).
		Once()

	svc := newBilling(s, gw)
	tx, err := svc.ProcessPayment(context.Background(), port.PaymentRequest{
		AdvertiserID:  s.adv.ID,
		CampaignID:    s.campaign.ID,
		Amount:        5000,
		PaymentMethod: "card",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionCompleted, tx.Status)
	assert.Equal(t, domain.TransactionCharge, tx.Type)
	assert.Equal(t, "gw-1", tx.PaymentReference)
	assert.Equal(t, domain.Money(5100), s.balance(t, s.adv.ID))
}

func TestProcessPaymentGatewayFailure(t *testing.T) {
	s := newSeed(t, 100, 10000, nil)
	gw := mocks.NewMockPaymentGateway(t)
	gw.EXPECT().
		Charge(mock.Anything, mock.Anything).
		Return(port.PaymentReceipt{}, errors.New("card declined")).
		Once()

	svc := newBilling(s, gw)
	tx, err := svc.ProcessPayment(context.Background(), port.PaymentRequest{
		AdvertiserID:  s.adv.ID,
		CampaignID:    s.campaign.ID,
		Amount:        5000,
		PaymentMethod: "card",
	})
	require.ErrorIs(t, err, domain.ErrGatewayFailure)
	require.NotNil(t, tx)
	assert.Equal(t, domain.TransactionFailed, tx.Status)
	assert.Contains(t, tx.FailureReason, "card declined")
	assert.Equal(t, domain.Money(100), s.balance(t, s.adv.ID))
}

func TestProcessPaymentUnknownAdvertiser(t *testing.T) {
	s := newSeed(t, 100, 10000, nil)
	svc := newBilling(s, mocks.NewMockPaymentGateway(t))

	_, err := svc.ProcessPayment(context.Background(), port.PaymentRequest{
		AdvertiserID:  9999,
		CampaignID:    s.campaign.ID,
		Amount:        5000,
		PaymentMethod: "card",
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProcessPaymentReplayCallsGatewayOnce(t *testing.T) {
	s := newSeed(t, 0, 10000, nil)
	gw := mocks.NewMockPaymentGateway(t)
	gw.EXPECT().
		Charge(mock.Anything, mock.MatchedBy(func(c port.PaymentCall) bool { return c.IdempotencyKey == "top-up-1" })).
		Return(port.PaymentReceipt{Reference: "gw-1"}, nil).
		Once()

	svc := newBilling(s, gw)
	req := port.PaymentRequest{
		AdvertiserID:   s.adv.ID,
		CampaignID:     s.campaign.ID,
		Amount:         2500,
		PaymentMethod:  "card",
		IdempotencyKey: "top-up-1",
	}
	first, err := svc.ProcessPayment(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.ProcessPayment(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, domain.Money(2500), s.balance(t, s.adv.ID))

	req.Amount = 9999
	_, err = svc.ProcessPayment(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestProcessRefund(t *testing.T) {
	s := newSeed(t, 0, 10000, nil)
	gw := mocks.NewMockPaymentGateway(t)
	gw.EXPECT().Charge(mock.Anything, mock.Anything).Return(port.PaymentReceipt{Reference: "gw-1"}, nil).Once()
	gw.EXPECT().
		Refund(mock.Anything, mock.MatchedBy(func(c port.PaymentCall) bool {
			return c.OriginalReference == "gw-1" && c.Amount == 1500
		})).
		Return(port.PaymentReceipt{Reference: "gw-r1"}, nil).
		Once()

	svc := newBilling(s, gw)
	ctx := context.Background()
	charge, err := svc.ProcessPayment(ctx, port.PaymentRequest{
		AdvertiserID: s.adv.ID, CampaignID: s.campaign.ID, Amount: 4000, PaymentMethod: "card",
	})
	require.NoError(t, err)

	amount := domain.Money(1500)
	refund, err := svc.ProcessRefund(ctx, port.RefundRequest{TransactionID: charge.ID, Amount: &amount, Reason: "duplicate"})
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionRefund, refund.Type)
	assert.Equal(t, domain.TransactionCompleted, refund.Status)
	require.NotNil(t, refund.OriginalTransactionID)
	assert.Equal(t, charge.ID, *refund.OriginalTransactionID)
	assert.Equal(t, domain.Money(2500), s.balance(t, s.adv.ID))

	// the original charge is never rewritten
	orig, err := svc.GetTransaction(ctx, charge.ID)
	require.NoError(t, err)
	assert.Equal(t, *charge, *orig)
}

func TestProcessRefundDefaultsToOriginalAmount(t *testing.T) {
	s := newSeed(t, 0, 10000, nil)
	gw := mocks.NewMockPaymentGateway(t)
	gw.EXPECT().Charge(mock.Anything, mock.Anything).Return(port.PaymentReceipt{Reference: "gw-1"}, nil).Once()
	gw.EXPECT().Refund(mock.Anything, mock.Anything).Return(port.PaymentReceipt{Reference: "gw-r1"}, nil).Once()

	svc := newBilling(s, gw)
	charge, err := svc.ProcessPayment(context.Background(), port.PaymentRequest{
		AdvertiserID: s.adv.ID, CampaignID: s.campaign.ID, Amount: 4000, PaymentMethod: "card",
	})
	require.NoError(t, err)

	refund, err := svc.ProcessRefund(context.Background(), port.RefundRequest{TransactionID: charge.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.Money(4000), refund.Amount)
	assert.Equal(t, domain.Money(0), s.balance(t, s.adv.ID))
}

func TestProcessRefundAboveOriginalIsAccepted(t *testing.T) {
	s := newSeed(t, 10000, 10000, nil)
	gw := mocks.NewMockPaymentGateway(t)
	gw.EXPECT().Charge(mock.Anything, mock.Anything).Return(port.PaymentReceipt{Reference: "gw-1"}, nil).Once()
	gw.EXPECT().Refund(mock.Anything, mock.Anything).Return(port.PaymentReceipt{Reference: "gw-r1"}, nil).Once()

	svc := newBilling(s, gw)
	charge, err := svc.ProcessPayment(context.Background(), port.PaymentRequest{
		AdvertiserID: s.adv.ID, CampaignID: s.campaign.ID, Amount: 1000, PaymentMethod: "card",
	})
	require.NoError(t, err)

	amount := domain.Money(3000)
	refund, err := svc.ProcessRefund(context.Background(), port.RefundRequest{TransactionID: charge.ID, Amount: &amount})
	require.NoError(t, err)
	assert.Equal(t, domain.Money(3000), refund.Amount)
	assert.Equal(t, domain.Money(8000), s.balance(t, s.adv.ID))
}

func TestProcessRefundInsufficientBalance(t *testing.T) {
	s := newSeed(t, 0, 10000, nil)
	gw := mocks.NewMockPaymentGateway(t)
	gw.EXPECT().Charge(mock.Anything, mock.Anything).Return(port.PaymentReceipt{Reference: "gw-1"}, nil).Once()

	billing := newBilling(s, gw)
	ctx := context.Background()
	charge, err := billing.ProcessPayment(ctx, port.PaymentRequest{
		AdvertiserID: s.adv.ID, CampaignID: s.campaign.ID, Amount: 1000, PaymentMethod: "card",
	})
	require.NoError(t, err)
	_, err = billing.DeductFromBalance(ctx, port.DeductRequest{AdvertiserID: s.adv.ID, CampaignID: s.campaign.ID, Amount: 900})
	require.NoError(t, err)

	// the gateway must not be asked to pay out money the balance cannot cover
	refund, err := billing.ProcessRefund(ctx, port.RefundRequest{TransactionID: charge.ID})
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)
	require.NotNil(t, refund)
	assert.Equal(t, domain.TransactionFailed, refund.Status)
	assert.Equal(t, domain.Money(100), s.balance(t, s.adv.ID))
}

func TestProcessRefundRequiresCompletedCharge(t *testing.T) {
	s := newSeed(t, 0, 10000, nil)
	gw := mocks.NewMockPaymentGateway(t)
	gw.EXPECT().Charge(mock.Anything, mock.Anything).Return(port.PaymentReceipt{}, errors.New("timeout")).Once()

	svc := newBilling(s, gw)
	failed, err := svc.ProcessPayment(context.Background(), port.PaymentRequest{
		AdvertiserID: s.adv.ID, CampaignID: s.campaign.ID, Amount: 1000, PaymentMethod: "card",
	})
	require.ErrorIs(t, err, domain.ErrGatewayFailure)

	_, err = svc.ProcessRefund(context.Background(), port.RefundRequest{TransactionID: failed.ID})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = svc.ProcessRefund(context.Background(), port.RefundRequest{TransactionID: 9999})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProcessRefundRejectsBalanceDeduction(t *testing.T) {
	s := newSeed(t, 1000, 10000, nil)
	svc := newBilling(s, mocks.NewMockPaymentGateway(t))
	ctx := context.Background()

	spent, err := svc.DeductFromBalance(ctx, port.DeductRequest{AdvertiserID: s.adv.ID, CampaignID: s.campaign.ID, Amount: 400})
	require.NoError(t, err)

	_, err = svc.ProcessRefund(ctx, port.RefundRequest{TransactionID: spent.ID})
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, domain.Money(600), s.balance(t, s.adv.ID))

	refundType := domain.TransactionRefund
	refunds, err := svc.ListTransactions(ctx, s.adv.ID, domain.TransactionFilter{Type: &refundType})
	require.NoError(t, err)
	assert.Empty(t, refunds)
}

func TestForeignCampaignIsRejected(t *testing.T) {
	s := newSeed(t, 1000, 10000, nil)
	other := s.addAdvertiser(t, 0)
	foreign := s.addCampaign(t, other.ID, 10000, nil)
	// the gateway mock fails the test if Charge is reached
	svc := newBilling(s, mocks.NewMockPaymentGateway(t))
	ctx := context.Background()

	_, err := svc.DeductFromBalance(ctx, port.DeductRequest{AdvertiserID: s.adv.ID, CampaignID: foreign.ID, Amount: 100})
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.ProcessPayment(ctx, port.PaymentRequest{
		AdvertiserID: s.adv.ID, CampaignID: foreign.ID, Amount: 100, PaymentMethod: "card",
	})
	require.ErrorIs(t, err, domain.ErrValidation)

	assert.Equal(t, domain.Money(1000), s.balance(t, s.adv.ID))
	txs, err := svc.ListTransactions(ctx, s.adv.ID, domain.TransactionFilter{})
	require.NoError(t, err)
	assert.Empty(t, txs)
}

// completeConcurrently settles the pending transaction from inside the
// gateway call, as a second request with the same key would.
func completeConcurrently(t *testing.T, s *seed) func(context.Context, port.PaymentCall) {
	return func(ctx context.Context, call port.PaymentCall) {
		_, err := s.store.SettleTransaction(ctx, port.Settlement{
			TransactionID:    call.TransactionID,
			Status:           domain.TransactionCompleted,
			PaymentReference: "gw-1",
			BalanceDelta:     call.Amount,
		})
		require.NoError(t, err)
	}
}

func TestProcessPaymentSettledConcurrently(t *testing.T) {
	s := newSeed(t, 0, 10000, nil)
	gw := mocks.NewMockPaymentGateway(t)
	gw.EXPECT().
		Charge(mock.Anything, mock.Anything).
		Run(completeConcurrently(t, s)).
		Return(port.PaymentReceipt{Reference: "gw-1"}, nil).
		Once()

	svc := newBilling(s, gw)
	tx, err := svc.ProcessPayment(context.Background(), port.PaymentRequest{
		AdvertiserID: s.adv.ID, CampaignID: s.campaign.ID, Amount: 2500, PaymentMethod: "card", IdempotencyKey: "top-up-1",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionCompleted, tx.Status)
	assert.Equal(t, "gw-1", tx.PaymentReference)
	assert.Equal(t, domain.Money(2500), s.balance(t, s.adv.ID))
}

func TestProcessPaymentFailureAfterConcurrentSettle(t *testing.T) {
	s := newSeed(t, 0, 10000, nil)
	gw := mocks.NewMockPaymentGateway(t)
	gw.EXPECT().
		Charge(mock.Anything, mock.Anything).
		Run(completeConcurrently(t, s)).
		Return(port.PaymentReceipt{}, errors.New("timeout")).
		Once()

	svc := newBilling(s, gw)
	tx, err := svc.ProcessPayment(context.Background(), port.PaymentRequest{
		AdvertiserID: s.adv.ID, CampaignID: s.campaign.ID, Amount: 2500, PaymentMethod: "card", IdempotencyKey: "top-up-1",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionCompleted, tx.Status)
	assert.Equal(t, domain.Money(2500), s.balance(t, s.adv.ID))
}

func TestDeductFromBalance(t *testing.T) {
	s := newSeed(t, 1000, 10000, nil)
	svc := newBilling(s, mocks.NewMockPaymentGateway(t))
	ctx := context.Background()

	tx, err := svc.DeductFromBalance(ctx, port.DeductRequest{AdvertiserID: s.adv.ID, CampaignID: s.campaign.ID, Amount: 250})
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionCompleted, tx.Status)
	assert.Equal(t, domain.TransactionCharge, tx.Type)
	assert.True(t, strings.HasPrefix(tx.PaymentReference, "internal-"), tx.PaymentReference)
	assert.Equal(t, domain.Money(750), s.balance(t, s.adv.ID))

	_, err = svc.DeductFromBalance(ctx, port.DeductRequest{AdvertiserID: s.adv.ID, CampaignID: s.campaign.ID, Amount: 751})
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)
	assert.Equal(t, domain.Money(750), s.balance(t, s.adv.ID))

	txs, err := svc.ListTransactions(ctx, s.adv.ID, domain.TransactionFilter{})
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}

// TestConcurrentDeductions ensures concurrent deductions never drive the
// balance below zero.
func TestConcurrentDeductions(t *testing.T) {
	s := newSeed(t, 100, 10000, nil)
	svc := newBilling(s, mocks.NewMockPaymentGateway(t))

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int64
	)
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.DeductFromBalance(context.Background(), port.DeductRequest{
				AdvertiserID: s.adv.ID, CampaignID: s.campaign.ID, Amount: 7,
			})
			if err == nil {
				succeeded.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(14), succeeded.Load())
	assert.Equal(t, domain.Money(2), s.balance(t, s.adv.ID))
}

func TestUpdateTransactionStatus(t *testing.T) {
	s := newSeed(t, 500, 10000, nil)
	svc := newBilling(s, mocks.NewMockPaymentGateway(t))
	ctx := context.Background()

	tx, err := svc.CreateTransaction(ctx, port.NewTransaction{
		CampaignID: s.campaign.ID, AdvertiserID: s.adv.ID, Amount: 300, Type: domain.TransactionCharge,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionPending, tx.Status)
	assert.NotEmpty(t, tx.IdempotencyKey)

	_, err = svc.UpdateTransactionStatus(ctx, tx.ID, domain.TransactionPending, "")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	done, err := svc.UpdateTransactionStatus(ctx, tx.ID, domain.TransactionCompleted, "ext-7")
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionCompleted, done.Status)
	assert.Equal(t, "ext-7", done.PaymentReference)
	assert.Equal(t, domain.Money(500), s.balance(t, s.adv.ID))

	_, err = svc.UpdateTransactionStatus(ctx, tx.ID, domain.TransactionFailed, "")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestCreateTransactionValidation(t *testing.T) {
	s := newSeed(t, 0, 10000, nil)
	svc := newBilling(s, mocks.NewMockPaymentGateway(t))

	_, err := svc.CreateTransaction(context.Background(), port.NewTransaction{
		CampaignID: s.campaign.ID, AdvertiserID: s.adv.ID, Amount: 0, Type: domain.TransactionCharge,
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.CreateTransaction(context.Background(), port.NewTransaction{
		CampaignID: s.campaign.ID, AdvertiserID: s.adv.ID, Amount: 10, Type: "bonus",
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCheckSufficientBalance(t *testing.T) {
	s := newSeed(t, 300, 10000, nil)
	svc := newBilling(s, mocks.NewMockPaymentGateway(t))
	ctx := context.Background()

	ok, err := svc.CheckSufficientBalance(ctx, s.adv.ID, 300)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.CheckSufficientBalance(ctx, s.adv.ID, 301)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.CheckSufficientBalance(ctx, 9999, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListTransactionsFilters(t *testing.T) {
	s := newSeed(t, 1000, 10000, nil)
	svc := newBilling(s, mocks.NewMockPaymentGateway(t))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.DeductFromBalance(ctx, port.DeductRequest{AdvertiserID: s.adv.ID, CampaignID: s.campaign.ID, Amount: 10})
		require.NoError(t, err)
	}
	_, err := svc.CreateTransaction(ctx, port.NewTransaction{
		CampaignID: s.campaign.ID, AdvertiserID: s.adv.ID, Amount: 5, Type: domain.TransactionCharge,
	})
	require.NoError(t, err)

	completed := domain.TransactionCompleted
	txs, err := svc.ListTransactions(ctx, s.adv.ID, domain.TransactionFilter{Status: &completed, Limit: 2})
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Greater(t, txs[0].ID, txs[1].ID)

	_, err = svc.ListTransactions(ctx, 9999, domain.TransactionFilter{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
