package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/reward-scanner/internal/logging"
	"github.com/reward-scanner/internal/types"
)

// CacheUsage records which stages were served from a cached artifact
type CacheUsage struct {
	RawActivity    bool
	DollarPerBlock bool
}

// RewardPipeline runs fetch, aggregation, pricing, export and yearly summation for
// one account. Each pipeline owns its record sequence; nothing is shared between runs.
type RewardPipeline struct {
	account  string
	activity *ActivityService
	prices   *PriceService
	exporter *ExportService

	runID   string
	records []*types.RewardBlockRecord
	cache   CacheUsage
}

// NewRewardPipeline creates a pipeline for a single account
func NewRewardPipeline(account string, activity *ActivityService, prices *PriceService, exporter *ExportService) *RewardPipeline {
	return &RewardPipeline{
		account:  account,
		activity: activity,
		prices:   prices,
		exporter: exporter,
		runID:    uuid.New().String(),
	}
}

// Run executes the whole pipeline and returns the USD rewards earned in year
func (p *RewardPipeline) Run(ctx context.Context, year int) (float64, error) {
	logger := logging.FromContext(ctx).WithFields(map[string]interface{}{
		"runId":   p.runID,
		"account": p.account,
	})
	ctx = logging.WithLogger(ctx, logger)

	records, fromCache, err := p.activity.Fetch(ctx, p.account)
	if err != nil {
		return 0, fmt.Errorf("fetch reward activity: %w", err)
	}
	p.records = records
	p.cache.RawActivity = fromCache

	if err := p.exporter.Export(ctx, ArtifactRawActivity, p.records); err != nil {
		return 0, err
	}

	AggregateRewards(ctx, p.records)

	enriched, fromCache, err := p.prices.Enrich(ctx, p.records)
	if err != nil {
		return 0, fmt.Errorf("set dollar per block: %w", err)
	}
	p.records = enriched
	p.cache.DollarPerBlock = fromCache

	if err := p.exporter.Export(ctx, ArtifactDollarPerBlock, p.records); err != nil {
		return 0, err
	}
	if err := p.exporter.ExportRewardsOnly(ctx, p.records); err != nil {
		return 0, err
	}

	total, err := SumUSDForYear(ctx, p.records, year)
	if err != nil {
		return 0, fmt.Errorf("sum rewards for %d: %w", year, err)
	}

	logger.WithFields(map[string]interface{}{
		"year":            year,
		"blocks":          len(p.records),
		"rawFromCache":    p.cache.RawActivity,
		"pricesFromCache": p.cache.DollarPerBlock,
	}).Infof("Total USD rewards: %v", total)

	return total, nil
}

// Records returns the pipeline's current record sequence
func (p *RewardPipeline) Records() []*types.RewardBlockRecord {
	return p.records
}

// CacheUsage reports which stages were served from cached artifacts
func (p *RewardPipeline) CacheUsage() CacheUsage {
	return p.cache
}

// RunID identifies this pipeline's log lines
func (p *RewardPipeline) RunID() string {
	return p.runID
}
