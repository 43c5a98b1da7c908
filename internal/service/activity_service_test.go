package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/reward-scanner/internal/errors"
	"github.com/reward-scanner/internal/storage"
	"github.com/reward-scanner/internal/types"
)

func TestActivityService_Pagination(t *testing.T) {
	provider := &fakeActivityProvider{pages: map[string]*types.ActivityPage{
		"": {
			Data:   []types.ActivityEntry{rewardEntry(100, 1609459200, 500000000), {Type: "payment_v2", Height: 99}},
			Cursor: "abc",
		},
		"abc": {
			Data:   []types.ActivityEntry{rewardEntry(101, 1609459260, 250000000)},
			Cursor: "def",
		},
		"def": {
			Data: []types.ActivityEntry{{Type: "assert_location_v1", Height: 102}, rewardEntry(103, 1609459400, 1)},
		},
	}}
	svc := NewActivityService(provider, missingPath(t))

	records, fromCache, err := svc.Fetch(quietContext(), "acct")
	require.NoError(t, err)

	assert.False(t, fromCache)
	assert.Equal(t, []string{"", "abc", "def"}, provider.cursors)
	require.Len(t, records, 3)
	assert.Equal(t, []int64{100, 101, 103}, []int64{records[0].Height, records[1].Height, records[2].Height})
	assert.Equal(t, types.StageFetched, records[0].Stage)
}

func TestActivityService_StopsOnNonSuccessStatus(t *testing.T) {
	provider := &fakeActivityProvider{
		pages: map[string]*types.ActivityPage{
			"": {Data: []types.ActivityEntry{rewardEntry(100, 1, 5)}, Cursor: "abc"},
		},
		errs: map[string]error{
			"abc": apperrors.NewProviderStatusError("/accounts/acct/activity", 429),
		},
	}
	svc := NewActivityService(provider, missingPath(t))

	records, _, err := svc.Fetch(quietContext(), "acct")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(100), records[0].Height)
}

func TestActivityService_TransportErrorPropagates(t *testing.T) {
	provider := &fakeActivityProvider{errs: map[string]error{"": errors.New("connection refused")}}
	svc := NewActivityService(provider, missingPath(t))

	_, _, err := svc.Fetch(quietContext(), "acct")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestActivityService_NoRewards(t *testing.T) {
	provider := &fakeActivityProvider{pages: map[string]*types.ActivityPage{
		"": {Data: []types.ActivityEntry{{Type: "payment_v2", Height: 1}}},
	}}
	svc := NewActivityService(provider, missingPath(t))

	_, _, err := svc.Fetch(quietContext(), "acct")
	require.Error(t, err)
	assert.Equal(t, "NO_REWARD_ACTIVITY", apperrors.Categorize(err).Code)
}

func TestActivityService_FirstPageFailureIsEmpty(t *testing.T) {
	provider := &fakeActivityProvider{errs: map[string]error{
		"": apperrors.NewProviderStatusError("/accounts/acct/activity", 500),
	}}
	svc := NewActivityService(provider, missingPath(t))

	_, _, err := svc.Fetch(quietContext(), "acct")
	require.Error(t, err)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryIntegrity))
}

func TestActivityService_ReadsCache(t *testing.T) {
	files := testFiles(t)
	cached := []*types.RewardBlockRecord{
		types.NewRewardBlockRecord(rewardEntry(100, 1609459200, 500000000, 100000000)),
	}
	require.NoError(t, storage.WriteActivityFile(files.RawActivityPath(), cached))

	provider := &fakeActivityProvider{}
	svc := NewActivityService(provider, files.RawActivityPath())

	records, fromCache, err := svc.Fetch(quietContext(), "acct")
	require.NoError(t, err)

	assert.True(t, fromCache)
	assert.Empty(t, provider.cursors, "the API must not be called when the cache exists")
	require.Len(t, records, 1)
	assert.Equal(t, cached[0].Rewards, records[0].Rewards)
}

func TestActivityService_MalformedCache(t *testing.T) {
	files := testFiles(t)
	require.NoError(t, writeFile(files.RawActivityPath(), "type,height,rewards\nrewards_v2,100,\"[{'amount': 1}]\"\n"))

	svc := NewActivityService(&fakeActivityProvider{}, files.RawActivityPath())

	_, _, err := svc.Fetch(quietContext(), "acct")
	require.Error(t, err)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryCache))
}
