package service

import (
	"context"
	"fmt"

	apperrors "github.com/reward-scanner/internal/errors"
	"github.com/reward-scanner/internal/logging"
	"github.com/reward-scanner/internal/storage"
	"github.com/reward-scanner/internal/types"
)

// ActivityProvider returns one page of account activity per call
type ActivityProvider interface {
	FetchActivityPage(ctx context.Context, address, cursor string) (*types.ActivityPage, error)
}

// ActivityService produces the reward-typed block records of an account, either
// from the raw activity artifact of a previous run or by paging through the API.
type ActivityService struct {
	provider  ActivityProvider
	cachePath string
}

// NewActivityService creates an activity service reading its cache from cachePath
func NewActivityService(provider ActivityProvider, cachePath string) *ActivityService {
	return &ActivityService{
		provider:  provider,
		cachePath: cachePath,
	}
}

// Fetch returns the account's reward records in API order.
// The boolean reports whether the records came from the cached artifact.
func (s *ActivityService) Fetch(ctx context.Context, account string) ([]*types.RewardBlockRecord, bool, error) {
	logger := logging.FromContext(ctx).WithField("account", account)
	logger.Info("Get transactions for account")

	var (
		records   []*types.RewardBlockRecord
		fromCache bool
	)

	if storage.FileExists(s.cachePath) {
		logger.Infof("Reading from cache %s", s.cachePath)
		cached, err := storage.ReadActivityFile(s.cachePath)
		if err != nil {
			return nil, false, err
		}
		records = cached
		fromCache = true
	} else {
		logger.Info("Local cache does not exist, pulling from API")
		entries, err := s.fetchAllPages(ctx, account)
		if err != nil {
			return nil, false, err
		}
		records = filterRewards(entries)
	}

	if len(records) == 0 {
		return nil, fromCache, apperrors.NewNoRewardActivityError(account)
	}

	first := records[0]
	logger.Debugf("First reward block: height=%d time=%d type=%s rewards=%d", first.Height, first.Time, first.Type, len(first.Rewards))
	logger.Infof("Loaded %d reward blocks", len(records))

	return records, fromCache, nil
}

// fetchAllPages follows cursors until a page comes back without one.
// A non-success HTTP status ends paging early and keeps what was accumulated.
func (s *ActivityService) fetchAllPages(ctx context.Context, account string) ([]types.ActivityEntry, error) {
	logger := logging.FromContext(ctx)

	var (
		activity []types.ActivityEntry
		cursor   string
	)
	for page := 1; ; page++ {
		result, err := s.provider.FetchActivityPage(ctx, account, cursor)
		if err != nil {
			if apperrors.IsProviderStatus(err) {
				logger.WithError(err).Warnf("Stopping pagination at page %d, keeping %d entries", page, len(activity))
				return activity, nil
			}
			return nil, fmt.Errorf("fetch activity page %d: %w", page, err)
		}

		activity = append(activity, result.Data...)
		logger.Debugf("Page %d: %d entries accumulated", page, len(activity))

		if !result.HasMore() {
			return activity, nil
		}
		cursor = result.Cursor
	}
}

func filterRewards(entries []types.ActivityEntry) []*types.RewardBlockRecord {
	records := make([]*types.RewardBlockRecord, 0, len(entries))
	for _, entry := range entries {
		if entry.IsReward() {
			records = append(records, types.NewRewardBlockRecord(entry))
		}
	}
	return records
}
