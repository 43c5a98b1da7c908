package service

import (
	"context"

	"github.com/reward-scanner/internal/logging"
	"github.com/reward-scanner/internal/types"
)

// RewardTotal sums reward amounts in display units
func RewardTotal(rewards []types.RewardEntry) float64 {
	total := 0.0
	for _, reward := range rewards {
		total += float64(reward.Amount) / types.Multiplier
	}
	return total
}

// AggregateRewards compiles reward_total for every block from its reward entries.
// The total is recomputed from scratch, so repeated runs give the same result.
func AggregateRewards(ctx context.Context, records []*types.RewardBlockRecord) {
	logger := logging.FromContext(ctx)
	logger.Info("Compiling rewards per block")

	for _, record := range records {
		record.RewardTotal = RewardTotal(record.Rewards)
		if record.Stage < types.StageAggregated {
			record.Stage = types.StageAggregated
		}
	}

	logger.Infof("Compilation of rewards per block completed for %d blocks", len(records))
}
