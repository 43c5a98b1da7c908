package service

import (
	"context"
	"fmt"

	apperrors "github.com/reward-scanner/internal/errors"
	"github.com/reward-scanner/internal/logging"
	"github.com/reward-scanner/internal/storage"
	"github.com/reward-scanner/internal/types"
)

// PriceProvider returns the oracle price at a block height
type PriceProvider interface {
	PriceAtBlock(ctx context.Context, height int64) (*types.BlockPrice, error)
}

// PriceLookupCache keeps quotes between runs
type PriceLookupCache interface {
	Lookup(ctx context.Context, height int64) (*types.BlockPrice, bool, error)
	Store(ctx context.Context, quote *types.BlockPrice) error
}

// PriceService attaches a historical price and USD value to each block
type PriceService struct {
	provider  PriceProvider
	cache     PriceLookupCache // optional
	cachePath string
}

// NewPriceService creates a price service reading its artifact cache from cachePath.
// cache may be nil.
func NewPriceService(provider PriceProvider, cache PriceLookupCache, cachePath string) *PriceService {
	return &PriceService{
		provider:  provider,
		cache:     cache,
		cachePath: cachePath,
	}
}

// Enrich prices every block one at a time in sequence.
// When the dollar-per-block artifact exists it replaces records wholesale and no
// lookups happen; the boolean reports that case.
func (s *PriceService) Enrich(ctx context.Context, records []*types.RewardBlockRecord) ([]*types.RewardBlockRecord, bool, error) {
	logger := logging.FromContext(ctx)
	logger.Info("Setting the dollar value per block")

	if storage.FileExists(s.cachePath) {
		logger.Infof("Reading from cache %s", s.cachePath)
		cached, err := storage.ReadActivityFile(s.cachePath)
		if err != nil {
			return nil, false, err
		}
		return cached, true, nil
	}

	priced := 0
	for _, record := range records {
		if record.Stage < types.StageAggregated {
			return nil, false, apperrors.NewRewardTotalNotCompiledError(record.Height)
		}

		quote, err := s.priceAt(ctx, record.Height)
		record.Stage = types.StageEnriched
		if err != nil {
			if apperrors.IsProviderStatus(err) {
				logger.WithField("height", record.Height).WithError(err).Warn("Failed to get price for block")
				continue
			}
			return nil, false, fmt.Errorf("price for block %d: %w", record.Height, err)
		}

		record.SetPrice(*quote)
		priced++
	}

	logger.Infof("Priced %d of %d blocks", priced, len(records))
	return records, false, nil
}

// priceAt consults the optional quote cache before asking the provider.
// Cache failures are logged and fall through to the provider.
func (s *PriceService) priceAt(ctx context.Context, height int64) (*types.BlockPrice, error) {
	logger := logging.FromContext(ctx).WithField("height", height)

	if s.cache != nil {
		quote, found, err := s.cache.Lookup(ctx, height)
		if err != nil {
			logger.WithError(err).Warn("Price cache lookup failed")
		} else if found {
			logger.Debugf("Price cache hit: %v at %d", quote.DisplayPrice(), quote.Timestamp)
			return quote, nil
		}
	}

	quote, err := s.provider.PriceAtBlock(ctx, height)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Store(ctx, quote); err != nil {
			logger.WithError(err).Warn("Price cache store failed")
		}
	}
	return quote, nil
}
