// Package memory provides in-process implementations of every repository
// port. It backs unit tests and STORE_DRIVER=memory local runs; all methods
// are safe for concurrent use.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"adcore/internal/core/domain"
	"adcore/internal/core/port"
)

var (
	_ port.CampaignRepository    = (*Store)(nil)
	_ port.AdGroupRepository     = (*Store)(nil)
	_ port.CriterionRepository   = (*Store)(nil)
	_ port.AdvertiserRepository  = (*Store)(nil)
	_ port.TransactionRepository = (*Store)(nil)
	_ port.SpendReader           = (*Store)(nil)
	_ port.SpendRecorder         = (*Store)(nil)
)

type spendKey struct {
	campaignID int64
	day        int64 // unix seconds of the UTC day start
}

// Store keeps all rows in maps guarded by one lock. Reads return copies.
type Store struct {
	mu sync.RWMutex

	seq int64

	campaigns    map[int64]domain.Campaign
	adGroups     map[int64]domain.AdGroup
	criteria     map[int64]domain.TargetingCriterion
	advertisers  map[int64]domain.Advertiser
	transactions map[int64]domain.Transaction
	txByKey      map[string]int64
	spend        map[spendKey]domain.Money

	now func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{
		campaigns:    make(map[int64]domain.Campaign),
		adGroups:     make(map[int64]domain.AdGroup),
		criteria:     make(map[int64]domain.TargetingCriterion),
		advertisers:  make(map[int64]domain.Advertiser),
		transactions: make(map[int64]domain.Transaction),
		txByKey:      make(map[string]int64),
		spend:        make(map[spendKey]domain.Money),
		now:          time.Now,
	}
}

func (s *Store) nextID() int64 {
	s.seq++
	return s.seq
}

// Campaigns

func (s *Store) CreateCampaign(_ context.Context, c *domain.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.advertisers[c.AdvertiserID]; !ok {
		return domain.NotFoundError("advertiser", c.AdvertiserID)
	}
	c.ID = s.nextID()
	c.CreatedAt = s.now().UTC()
	c.UpdatedAt = c.CreatedAt
	s.campaigns[c.ID] = *c
	return nil
}

func (s *Store) GetCampaign(_ context.Context, id int64) (*domain.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.campaigns[id]
	if !ok {
		return nil, domain.NotFoundError("campaign", id)
	}
	return &c, nil
}

func (s *Store) UpdateCampaign(_ context.Context, c *domain.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.campaigns[c.ID]
	if !ok {
		return domain.NotFoundError("campaign", c.ID)
	}
	c.AdvertiserID = old.AdvertiserID
	c.CreatedAt = old.CreatedAt
	c.UpdatedAt = s.now().UTC()
	s.campaigns[c.ID] = *c
	return nil
}

func (s *Store) DeleteCampaign(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.campaigns[id]; !ok {
		return domain.NotFoundError("campaign", id)
	}
	for _, tx := range s.transactions {
		if tx.CampaignID == id {
			return fmt.Errorf("campaign %d has ledger transactions: %w", id, domain.ErrConflict)
		}
	}
	for gid, g := range s.adGroups {
		if g.CampaignID == id {
			s.deleteAdGroupLocked(gid)
		}
	}
	for k := range s.spend {
		if k.campaignID == id {
			delete(s.spend, k)
		}
	}
	delete(s.campaigns, id)
	return nil
}

func (s *Store) ListCampaignsByAdvertiser(_ context.Context, advertiserID int64) ([]domain.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Campaign, 0)
	for _, c := range s.campaigns {
		if c.AdvertiserID == advertiserID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Ad groups

func (s *Store) CreateAdGroup(_ context.Context, g *domain.AdGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.campaigns[g.CampaignID]; !ok {
		return domain.NotFoundError("campaign", g.CampaignID)
	}
	g.ID = s.nextID()
	g.CreatedAt = s.now().UTC()
	g.UpdatedAt = g.CreatedAt
	s.adGroups[g.ID] = *g
	return nil
}

func (s *Store) GetAdGroup(_ context.Context, id int64) (*domain.AdGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.adGroups[id]
	if !ok {
		return nil, domain.NotFoundError("ad group", id)
	}
	return &g, nil
}

func (s *Store) UpdateAdGroup(_ context.Context, g *domain.AdGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.adGroups[g.ID]
	if !ok {
		return domain.NotFoundError("ad group", g.ID)
	}
	g.CampaignID = old.CampaignID
	g.CreatedAt = old.CreatedAt
	g.UpdatedAt = s.now().UTC()
	s.adGroups[g.ID] = *g
	return nil
}

func (s *Store) DeleteAdGroup(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.adGroups[id]; !ok {
		return domain.NotFoundError("ad group", id)
	}
	s.deleteAdGroupLocked(id)
	return nil
}

func (s *Store) deleteAdGroupLocked(id int64) {
	for cid, c := range s.criteria {
		if c.AdGroupID == id {
			delete(s.criteria, cid)
		}
	}
	delete(s.adGroups, id)
}

func (s *Store) ListAdGroupsByCampaign(_ context.Context, campaignID int64) ([]domain.AdGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.AdGroup, 0)
	for _, g := range s.adGroups {
		if g.CampaignID == campaignID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ListServingCandidates(_ context.Context, now time.Time) ([]port.ServingCandidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]port.ServingCandidate, 0)
	for _, g := range s.adGroups {
		if g.Status != domain.AdGroupActive {
			continue
		}
		c, ok := s.campaigns[g.CampaignID]
		if !ok || !c.Servable(now) {
			continue
		}
		out = append(out, port.ServingCandidate{AdGroup: g, Campaign: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AdGroup.ID < out[j].AdGroup.ID })
	return out, nil
}

// Targeting criteria

func (s *Store) CreateCriterion(_ context.Context, c *domain.TargetingCriterion) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.adGroups[c.AdGroupID]; !ok {
		return domain.NotFoundError("ad group", c.AdGroupID)
	}
	c.ID = s.nextID()
	c.CreatedAt = s.now().UTC()
	c.UpdatedAt = c.CreatedAt
	s.criteria[c.ID] = *c
	return nil
}

func (s *Store) GetCriterion(_ context.Context, id int64) (*domain.TargetingCriterion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.criteria[id]
	if !ok {
		return nil, domain.NotFoundError("targeting criterion", id)
	}
	return &c, nil
}

func (s *Store) UpdateCriterion(_ context.Context, c *domain.TargetingCriterion) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.criteria[c.ID]
	if !ok {
		return domain.NotFoundError("targeting criterion", c.ID)
	}
	c.AdGroupID = old.AdGroupID
	c.CreatedAt = old.CreatedAt
	c.UpdatedAt = s.now().UTC()
	s.criteria[c.ID] = *c
	return nil
}

func (s *Store) DeleteCriterion(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.criteria[id]; !ok {
		return domain.NotFoundError("targeting criterion", id)
	}
	delete(s.criteria, id)
	return nil
}

func (s *Store) ListCriteriaByAdGroup(_ context.Context, adGroupID int64) ([]domain.TargetingCriterion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.TargetingCriterion, 0)
	for _, c := range s.criteria {
		if c.AdGroupID == adGroupID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Advertisers

func (s *Store) CreateAdvertiser(_ context.Context, a *domain.Advertiser) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.AccountBalance < 0 {
		return fmt.Errorf("%w: negative opening balance", domain.ErrValidation)
	}
	a.ID = s.nextID()
	a.CreatedAt = s.now().UTC()
	a.UpdatedAt = a.CreatedAt
	s.advertisers[a.ID] = *a
	return nil
}

func (s *Store) GetAdvertiser(_ context.Context, id int64) (*domain.Advertiser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.advertisers[id]
	if !ok {
		return nil, domain.NotFoundError("advertiser", id)
	}
	return &a, nil
}
