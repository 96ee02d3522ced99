package usecase

import (
	"context"

	"adcore/internal/core/domain"
	"adcore/internal/core/port"
)

// CatalogUseCase validates and stores campaigns, ad groups and targeting
// criteria. It holds no decision logic.
type CatalogUseCase struct {
	campaigns port.CampaignRepository
	adGroups  port.AdGroupRepository
	criteria  port.CriterionRepository
	settings
}

var _ port.CatalogUseCase = (*CatalogUseCase)(nil)

func NewCatalogUseCase(campaigns port.CampaignRepository, adGroups port.AdGroupRepository, criteria port.CriterionRepository, opts ...Option) *CatalogUseCase {
	return &CatalogUseCase{campaigns: campaigns, adGroups: adGroups, criteria: criteria, settings: applyOptions(opts)}
}

func (u *CatalogUseCase) CreateCampaign(ctx context.Context, c *domain.Campaign) error {
	if c.Status == "" {
		c.Status = domain.CampaignDraft
	}
	if c.StartDate.IsZero() {
		c.StartDate = u.now().UTC()
	}
	if err := c.Validate(); err != nil {
		return err
	}
	return u.campaigns.CreateCampaign(ctx, c)
}

func (u *CatalogUseCase) GetCampaign(ctx context.Context, id int64) (*domain.Campaign, error) {
	return u.campaigns.GetCampaign(ctx, id)
}

// UpdateCampaign replaces the mutable fields; the owning advertiser is kept.
func (u *CatalogUseCase) UpdateCampaign(ctx context.Context, c *domain.Campaign) error {
	old, err := u.campaigns.GetCampaign(ctx, c.ID)
	if err != nil {
		return err
	}
	c.AdvertiserID = old.AdvertiserID
	if err := c.Validate(); err != nil {
		return err
	}
	return u.campaigns.UpdateCampaign(ctx, c)
}

func (u *CatalogUseCase) DeleteCampaign(ctx context.Context, id int64) error {
	return u.campaigns.DeleteCampaign(ctx, id)
}

func (u *CatalogUseCase) ListCampaigns(ctx context.Context, advertiserID int64) ([]domain.Campaign, error) {
	return u.campaigns.ListCampaignsByAdvertiser(ctx, advertiserID)
}

func (u *CatalogUseCase) CreateAdGroup(ctx context.Context, g *domain.AdGroup) error {
	if g.Status == "" {
		g.Status = domain.AdGroupDraft
	}
	if err := g.Validate(); err != nil {
		return err
	}
	return u.adGroups.CreateAdGroup(ctx, g)
}

func (u *CatalogUseCase) GetAdGroup(ctx context.Context, id int64) (*domain.AdGroup, error) {
	return u.adGroups.GetAdGroup(ctx, id)
}

func (u *CatalogUseCase) UpdateAdGroup(ctx context.Context, g *domain.AdGroup) error {
	old, err := u.adGroups.GetAdGroup(ctx, g.ID)
	if err != nil {
		return err
	}
	g.CampaignID = old.CampaignID
	if err := g.Validate(); err != nil {
		return err
	}
	return u.adGroups.UpdateAdGroup(ctx, g)
}

func (u *CatalogUseCase) DeleteAdGroup(ctx context.Context, id int64) error {
	return u.adGroups.DeleteAdGroup(ctx, id)
}

func (u *CatalogUseCase) ListAdGroups(ctx context.Context, campaignID int64) ([]domain.AdGroup, error) {
	return u.adGroups.ListAdGroupsByCampaign(ctx, campaignID)
}

// CreateCriterion refuses criteria that could never match, so stored rules
// always compile.
func (u *CatalogUseCase) CreateCriterion(ctx context.Context, c *domain.TargetingCriterion) error {
	if err := c.Validate(); err != nil {
		return err
	}
	return u.criteria.CreateCriterion(ctx, c)
}

func (u *CatalogUseCase) GetCriterion(ctx context.Context, id int64) (*domain.TargetingCriterion, error) {
	return u.criteria.GetCriterion(ctx, id)
}

func (u *CatalogUseCase) UpdateCriterion(ctx context.Context, c *domain.TargetingCriterion) error {
	old, err := u.criteria.GetCriterion(ctx, c.ID)
	if err != nil {
		return err
	}
	c.AdGroupID = old.AdGroupID
	if err := c.Validate(); err != nil {
		return err
	}
	return u.criteria.UpdateCriterion(ctx, c)
}

func (u *CatalogUseCase) DeleteCriterion(ctx context.Context, id int64) error {
	return u.criteria.DeleteCriterion(ctx, id)
}

func (u *CatalogUseCase) ListCriteria(ctx context.Context, adGroupID int64) ([]domain.TargetingCriterion, error) {
	return u.criteria.ListCriteriaByAdGroup(ctx, adGroupID)
}
