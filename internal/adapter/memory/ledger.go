package memory

import (
	"context"
	"fmt"
	"sort"

	"adcore/internal/core/domain"
	"adcore/internal/core/port"
)

func (s *Store) CreateTransaction(_ context.Context, tx *domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.insertTransactionLocked(tx)
}

func ownershipError(tx *domain.Transaction) error {
	return fmt.Errorf("%w: campaign %d does not belong to advertiser %d",
		domain.ErrValidation, tx.CampaignID, tx.AdvertiserID)
}

func (s *Store) insertTransactionLocked(tx *domain.Transaction) error {
	if _, ok := s.advertisers[tx.AdvertiserID]; !ok {
		return domain.NotFoundError("advertiser", tx.AdvertiserID)
	}
	c, ok := s.campaigns[tx.CampaignID]
	if !ok {
		return domain.NotFoundError("campaign", tx.CampaignID)
	}
	if c.AdvertiserID != tx.AdvertiserID {
		return ownershipError(tx)
	}
	if _, dup := s.txByKey[tx.IdempotencyKey]; dup {
		return fmt.Errorf("idempotency key %q: %w", tx.IdempotencyKey, domain.ErrConflict)
	}
	tx.ID = s.nextID()
	tx.CreatedAt = s.now().UTC()
	tx.UpdatedAt = tx.CreatedAt
	s.transactions[tx.ID] = *tx
	s.txByKey[tx.IdempotencyKey] = tx.ID
	return nil
}

func (s *Store) GetTransaction(_ context.Context, id int64) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.transactions[id]
	if !ok {
		return nil, domain.NotFoundError("transaction", id)
	}
	return &tx, nil
}

func (s *Store) GetTransactionByIdempotencyKey(_ context.Context, key string) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.txByKey[key]
	if !ok {
		return nil, fmt.Errorf("transaction with idempotency key %q: %w", key, domain.ErrNotFound)
	}
	tx := s.transactions[id]
	return &tx, nil
}

func (s *Store) ListTransactions(_ context.Context, advertiserID int64, f domain.TransactionFilter) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Transaction, 0)
	for _, tx := range s.transactions {
		if tx.AdvertiserID != advertiserID {
			continue
		}
		if f.Type != nil && tx.Type != *f.Type {
			continue
		}
		if f.Status != nil && tx.Status != *f.Status {
			continue
		}
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })

	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return out[:0], nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *Store) SettleTransaction(_ context.Context, st port.Settlement) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.transactions[st.TransactionID]
	if !ok {
		return nil, domain.NotFoundError("transaction", st.TransactionID)
	}
	if !domain.CanTransition(tx.Status, st.Status) {
		return nil, fmt.Errorf("transaction %d %s -> %s: %w", tx.ID, tx.Status, st.Status, domain.ErrInvalidTransition)
	}
	adv, ok := s.advertisers[tx.AdvertiserID]
	if !ok {
		return nil, domain.NotFoundError("advertiser", tx.AdvertiserID)
	}
	if adv.AccountBalance+st.BalanceDelta < 0 {
		return nil, fmt.Errorf("advertiser %d: %w", adv.ID, domain.ErrInsufficientFunds)
	}

	now := s.now().UTC()
	if st.BalanceDelta != 0 {
		adv.AccountBalance += st.BalanceDelta
		adv.UpdatedAt = now
		s.advertisers[adv.ID] = adv
	}
	tx.Status = st.Status
	if st.PaymentReference != "" {
		tx.PaymentReference = st.PaymentReference
	}
	tx.FailureReason = st.FailureReason
	tx.UpdatedAt = now
	s.transactions[tx.ID] = tx
	return &tx, nil
}

func (s *Store) DeductBalance(_ context.Context, tx *domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	adv, ok := s.advertisers[tx.AdvertiserID]
	if !ok {
		return domain.NotFoundError("advertiser", tx.AdvertiserID)
	}
	if adv.AccountBalance < tx.Amount {
		return fmt.Errorf("advertiser %d: %w", adv.ID, domain.ErrInsufficientFunds)
	}
	if err := s.insertTransactionLocked(tx); err != nil {
		return err
	}
	adv.AccountBalance -= tx.Amount
	adv.UpdatedAt = tx.CreatedAt
	s.advertisers[adv.ID] = adv
	return nil
}

func (s *Store) GetStats(_ context.Context, req port.StatsReq) (*port.StatsResp, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var resp port.StatsResp
	for _, tx := range s.transactions {
		if tx.Status != domain.TransactionCompleted {
			continue
		}
		if tx.CreatedAt.Before(req.From) || tx.CreatedAt.After(req.To) {
			continue
		}
		if req.AdvertiserID != nil && tx.AdvertiserID != *req.AdvertiserID {
			continue
		}
		switch tx.Type {
		case domain.TransactionCharge:
			resp.Charges++
			resp.ChargedAmount += tx.Amount
		case domain.TransactionRefund:
			resp.Refunds++
			resp.RefundedAmount += tx.Amount
		}
	}
	return &resp, nil
}
