package redisadapter

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adcore/internal/adapter/memory"
	"adcore/internal/core/domain"
)

type fixture struct {
	mr    *miniredis.Miniredis
	store *memory.Store
	cache *CriteriaCache
	group domain.AdGroup
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	ctx := context.Background()
	store := memory.New()
	adv := domain.Advertiser{Name: "acme", Currency: "USD"}
	require.NoError(t, store.CreateAdvertiser(ctx, &adv))
	camp := domain.Campaign{AdvertiserID: adv.ID, Budget: 100, Status: domain.CampaignActive, StartDate: time.Now()}
	require.NoError(t, store.CreateCampaign(ctx, &camp))
	group := domain.AdGroup{CampaignID: camp.ID, BidAmount: 1000, Status: domain.AdGroupActive}
	require.NoError(t, store.CreateAdGroup(ctx, &group))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &fixture{
		mr:    mr,
		store: store,
		cache: NewCriteriaCache(store, rdb, time.Minute, logger),
		group: group,
	}
}

func (f *fixture) liveKey(t *testing.T) string {
	t.Helper()
	key, err := f.cache.currentKey(context.Background(), f.group.ID)
	require.NoError(t, err)
	return key
}

// writeDuringLoad runs a write through the cache while a list is being
// loaded, between the cache miss and the cache fill.
type writeDuringLoad struct {
	*memory.Store
	write func()
}

func (r *writeDuringLoad) ListCriteriaByAdGroup(ctx context.Context, adGroupID int64) ([]domain.TargetingCriterion, error) {
	list, err := r.Store.ListCriteriaByAdGroup(ctx, adGroupID)
	if w := r.write; w != nil {
		r.write = nil
		w()
	}
	return list, err
}

func TestCriteriaCacheWriteDuringLoadIsNotServedStale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c := domain.TargetingCriterion{AdGroupID: f.group.ID, CriteriaType: "location", Operator: domain.OpEquals, CriteriaValue: "US"}
	require.NoError(t, f.store.CreateCriterion(ctx, &c))

	repo := &writeDuringLoad{Store: f.store}
	cache := NewCriteriaCache(repo, f.cache.rdb, time.Minute, f.cache.logger)
	repo.write = func() {
		updated := c
		updated.CriteriaValue = "CA"
		require.NoError(t, cache.UpdateCriterion(ctx, &updated))
	}

	list, err := cache.ListCriteriaByAdGroup(ctx, f.group.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "US", list[0].CriteriaValue)

	list, err = cache.ListCriteriaByAdGroup(ctx, f.group.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "CA", list[0].CriteriaValue)
}

func TestCriteriaCacheReadThrough(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c := domain.TargetingCriterion{AdGroupID: f.group.ID, CriteriaType: "gender", Operator: domain.OpEquals, CriteriaValue: "female"}
	require.NoError(t, f.cache.CreateCriterion(ctx, &c))

	list, err := f.cache.ListCriteriaByAdGroup(ctx, f.group.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	key := f.liveKey(t)
	assert.True(t, f.mr.Exists(key))
	f.mr.FastForward(30 * time.Second)
	assert.Greater(t, f.mr.TTL(key), time.Duration(0))

	// a write behind the cache's back is not visible until the entry expires
	other := domain.TargetingCriterion{AdGroupID: f.group.ID, CriteriaType: "device", Operator: domain.OpEquals, CriteriaValue: "ios"}
	require.NoError(t, f.store.CreateCriterion(ctx, &other))
	list, err = f.cache.ListCriteriaByAdGroup(ctx, f.group.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	f.mr.FastForward(time.Minute)
	list, err = f.cache.ListCriteriaByAdGroup(ctx, f.group.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestCriteriaCacheInvalidatesOnWrite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c := domain.TargetingCriterion{AdGroupID: f.group.ID, CriteriaType: "age", Operator: domain.OpBetween, CriteriaValue: "18-24"}
	require.NoError(t, f.cache.CreateCriterion(ctx, &c))
	_, err := f.cache.ListCriteriaByAdGroup(ctx, f.group.ID)
	require.NoError(t, err)
	stale := f.liveKey(t)

	c.CriteriaValue = "25-34"
	require.NoError(t, f.cache.UpdateCriterion(ctx, &c))
	assert.NotEqual(t, stale, f.liveKey(t))
	assert.False(t, f.mr.Exists(f.liveKey(t)))

	list, err := f.cache.ListCriteriaByAdGroup(ctx, f.group.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "25-34", list[0].CriteriaValue)

	require.NoError(t, f.cache.DeleteCriterion(ctx, c.ID))
	list, err = f.cache.ListCriteriaByAdGroup(ctx, f.group.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, f.cache.AdGroups(f.store).DeleteAdGroup(ctx, f.group.ID))
	assert.False(t, f.mr.Exists(f.liveKey(t)))
}

func TestCriteriaCacheFallsBackWhenRedisIsDown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c := domain.TargetingCriterion{AdGroupID: f.group.ID, CriteriaType: "device", Operator: domain.OpIn, CriteriaValue: "ios,android"}
	require.NoError(t, f.store.CreateCriterion(ctx, &c))

	f.mr.Close()
	list, err := f.cache.ListCriteriaByAdGroup(ctx, f.group.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCriteriaCacheDropsCorruptEntries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.mr.Set(f.liveKey(t), "{not json"))
	list, err := f.cache.ListCriteriaByAdGroup(ctx, f.group.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}
