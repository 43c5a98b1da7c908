package service

import (
	"context"
	"strconv"
	"time"

	apperrors "github.com/reward-scanner/internal/errors"
	"github.com/reward-scanner/internal/logging"
	"github.com/reward-scanner/internal/types"
)

// ParseYear validates a 4-digit year argument
func ParseYear(raw string) (int, error) {
	if len(raw) != 4 {
		return 0, apperrors.NewInvalidParameterError("year", "must be a 4-digit year")
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1000 {
		return 0, apperrors.NewInvalidParameterError("year", "must be a 4-digit year")
	}
	return year, nil
}

// YearWindow returns the inclusive UTC epoch bounds used for a year:
// Jan 1 00:00:01 through Dec 31 23:59:59.
func YearWindow(year int) (start, end int64) {
	start = time.Date(year, time.January, 1, 0, 0, 1, 0, time.UTC).Unix()
	end = time.Date(year, time.December, 31, 23, 59, 59, 0, time.UTC).Unix()
	return start, end
}

// SumUSDForYear sums usd_total over blocks whose time falls inside the year window.
// Every record must carry a usd_total; the first one without it aborts the sum.
func SumUSDForYear(ctx context.Context, records []*types.RewardBlockRecord, year int) (float64, error) {
	logger := logging.FromContext(ctx)
	start, end := YearWindow(year)

	total := 0.0
	for _, record := range records {
		if !record.HasUSDTotal() {
			logger.WithField("height", record.Height).Error("Block is lacking a usd_total value")
			return 0, apperrors.NewMissingUSDTotalError(record.Height)
		}
		if record.Time < start || record.Time > end {
			continue
		}

		total += *record.USDTotal

		priceTime := int64(0)
		if record.PriceTime != nil {
			priceTime = *record.PriceTime
		}
		logger.WithFields(map[string]interface{}{
			"height":    record.Height,
			"priceTime": priceTime,
		}).Infof("Adding block: running total %v", total)
	}

	return total, nil
}
