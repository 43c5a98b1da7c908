package service

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/reward-scanner/internal/config"
	apperrors "github.com/reward-scanner/internal/errors"
	"github.com/reward-scanner/internal/logging"
	"github.com/reward-scanner/internal/types"
)

// fakeActivityProvider serves pages keyed by the cursor that requests them
type fakeActivityProvider struct {
	pages   map[string]*types.ActivityPage
	errs    map[string]error
	cursors []string
}

func (f *fakeActivityProvider) FetchActivityPage(ctx context.Context, address, cursor string) (*types.ActivityPage, error) {
	f.cursors = append(f.cursors, cursor)
	if err, ok := f.errs[cursor]; ok {
		return nil, err
	}
	page, ok := f.pages[cursor]
	if !ok {
		return nil, apperrors.NewProviderStatusError("/accounts/"+address+"/activity", 404)
	}
	return page, nil
}

// fakePriceProvider serves quotes by height; missing heights answer 404
type fakePriceProvider struct {
	prices  map[int64]int64
	errs    map[int64]error
	heights []int64
}

func (f *fakePriceProvider) PriceAtBlock(ctx context.Context, height int64) (*types.BlockPrice, error) {
	f.heights = append(f.heights, height)
	if err, ok := f.errs[height]; ok {
		return nil, err
	}
	price, ok := f.prices[height]
	if !ok {
		return nil, apperrors.NewProviderStatusError("/oracle/prices", 404)
	}
	return &types.BlockPrice{Height: height, Price: price, Timestamp: 1609459000 + height}, nil
}

// quietContext carries a logger that discards output
func quietContext() context.Context {
	return logging.WithLogger(context.Background(), logging.NewLoggerWithWriter(logging.LevelDebug, logging.FormatText, io.Discard))
}

func testFiles(t *testing.T) config.FilesConfig {
	t.Helper()
	return config.FilesConfig{
		Dir:            t.TempDir(),
		RawActivity:    config.DefaultRawActivityFile,
		DollarPerBlock: config.DefaultDollarPerBlockFile,
		RewardsOnly:    config.DefaultRewardsOnlyFile,
	}
}

func missingPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "absent.csv")
}

func rewardEntry(height, time int64, amounts ...int64) types.ActivityEntry {
	rewards := make([]types.RewardEntry, 0, len(amounts))
	for _, amount := range amounts {
		rewards = append(rewards, types.RewardEntry{Type: "poc_witnesses", Amount: amount})
	}
	return types.ActivityEntry{Type: "rewards_v2", Height: height, Time: time, Rewards: rewards}
}

func int64Ptr(v int64) *int64       { return &v }
func float64Ptr(v float64) *float64 { return &v }

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}
