package usecase

import (
	"context"
	"log/slog"

	"adcore/internal/core/domain"
	"adcore/internal/core/port"
	"adcore/internal/metrics"
)

// TargetingUseCase evaluates ad group targeting. Evaluation itself is pure;
// this type only loads the criteria.
type TargetingUseCase struct {
	adGroups port.AdGroupRepository
	criteria port.CriterionRepository
	settings
}

var _ port.TargetingUseCase = (*TargetingUseCase)(nil)

func NewTargetingUseCase(adGroups port.AdGroupRepository, criteria port.CriterionRepository, opts ...Option) *TargetingUseCase {
	return &TargetingUseCase{adGroups: adGroups, criteria: criteria, settings: applyOptions(opts)}
}

// EvaluateTargeting reports whether user may see the ad group.
func (u *TargetingUseCase) EvaluateTargeting(ctx context.Context, adGroupID int64, user domain.UserContext) (bool, error) {
	if _, err := u.adGroups.GetAdGroup(ctx, adGroupID); err != nil {
		return false, err
	}
	return u.matches(ctx, adGroupID, user)
}

func (u *TargetingUseCase) matches(ctx context.Context, adGroupID int64, user domain.UserContext) (bool, error) {
	criteria, err := u.criteria.ListCriteriaByAdGroup(ctx, adGroupID)
	if err != nil {
		return false, err
	}
	for _, c := range criteria {
		if _, err := domain.Compile(c); err != nil {
			u.logger.Warn("targeting criterion never matches",
				slog.Int64("ad_group_id", adGroupID),
				slog.Int64("criterion_id", c.ID),
				slog.Any("error", err))
		}
	}
	ok := domain.Evaluate(criteria, user)
	metrics.ObserveTargeting(ok)
	return ok, nil
}
