package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	apperrors "github.com/reward-scanner/internal/errors"
	"github.com/reward-scanner/internal/types"
)

// FileExists reports whether a cached artifact is present at path
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// WriteActivityFile writes records with a header derived from the first record's key set.
// The file is replaced atomically; an empty record set is rejected and nothing is written.
func WriteActivityFile(path string, records []*types.RewardBlockRecord) error {
	if len(records) == 0 {
		return apperrors.NewEmptyExportError(path)
	}

	header := records[0].Columns()
	return writeAtomically(path, func(w *csv.Writer) error {
		if err := w.Write(header); err != nil {
			return err
		}
		for _, record := range records {
			row := make([]string, len(header))
			for i, column := range header {
				cell, err := activityCell(record, column)
				if err != nil {
					return fmt.Errorf("block %d column %s: %w", record.Height, column, err)
				}
				row[i] = cell
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteRewardsOnlyFile writes the slim height/price/price_time/reward_total/usd_total view.
// Price is written in display units; unset values become empty cells.
func WriteRewardsOnlyFile(path string, records []*types.RewardBlockRecord) error {
	if len(records) == 0 {
		return apperrors.NewEmptyExportError(path)
	}

	return writeAtomically(path, func(w *csv.Writer) error {
		if err := w.Write(types.RewardsOnlyColumns); err != nil {
			return err
		}
		for _, record := range records {
			row := []string{
				formatInt(record.Height),
				formatOptionalFloat(record.DisplayPrice()),
				formatOptionalInt(record.PriceTime),
				"",
				formatOptionalFloat(record.USDTotal),
			}
			if record.Stage >= types.StageAggregated {
				row[3] = formatFloat(record.RewardTotal)
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReadActivityFile loads records previously written by WriteActivityFile.
// The record stage is inferred from the columns present in the header.
func ReadActivityFile(path string) ([]*types.RewardBlockRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, apperrors.NewCacheParseError(path, 0, "header", fmt.Errorf("file is empty"))
		}
		return nil, apperrors.NewCacheParseError(path, 0, "header", err)
	}

	index := make(map[string]int, len(header))
	for i, column := range header {
		index[column] = i
	}
	if _, ok := index[types.ColumnHeight]; !ok {
		return nil, apperrors.NewCacheParseError(path, 0, types.ColumnHeight, fmt.Errorf("column missing from header"))
	}

	stage := types.StageFetched
	if _, ok := index[types.ColumnRewardTotal]; ok {
		stage = types.StageAggregated
	}
	if _, ok := index[types.ColumnUSDTotal]; ok {
		stage = types.StageEnriched
	}

	var records []*types.RewardBlockRecord
	for row := 1; ; row++ {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.NewCacheParseError(path, row, "row", err)
		}

		cell := func(column string) string {
			if i, ok := index[column]; ok && i < len(fields) {
				return fields[i]
			}
			return ""
		}

		record, column, err := parseActivityRow(cell, stage)
		if err != nil {
			return nil, apperrors.NewCacheParseError(path, row, column, err)
		}
		records = append(records, record)
	}

	return records, nil
}

func parseActivityRow(cell func(string) string, stage types.RecordStage) (*types.RewardBlockRecord, string, error) {
	record := &types.RewardBlockRecord{
		Type:  cell(types.ColumnType),
		Hash:  cell(types.ColumnHash),
		Stage: stage,
	}

	ints := []struct {
		column string
		dst    *int64
	}{
		{types.ColumnHeight, &record.Height},
		{types.ColumnTime, &record.Time},
		{types.ColumnStartEpoch, &record.StartEpoch},
		{types.ColumnEndEpoch, &record.EndEpoch},
	}
	for _, field := range ints {
		raw := cell(field.column)
		if raw == "" && field.column != types.ColumnHeight {
			continue
		}
		v, err := parseInt(raw)
		if err != nil {
			return nil, field.column, err
		}
		*field.dst = v
	}

	rewards, err := decodeRewards(cell(types.ColumnRewards))
	if err != nil {
		return nil, types.ColumnRewards, err
	}
	record.Rewards = rewards

	if stage >= types.StageAggregated {
		if raw := cell(types.ColumnRewardTotal); raw != "" {
			total, err := parseFloat(raw)
			if err != nil {
				return nil, types.ColumnRewardTotal, err
			}
			record.RewardTotal = total
		}
	}

	if stage >= types.StageEnriched {
		if record.Price, err = parseOptionalInt(cell(types.ColumnPrice)); err != nil {
			return nil, types.ColumnPrice, err
		}
		if record.PriceTime, err = parseOptionalInt(cell(types.ColumnPriceTime)); err != nil {
			return nil, types.ColumnPriceTime, err
		}
		if record.USDTotal, err = parseOptionalFloat(cell(types.ColumnUSDTotal)); err != nil {
			return nil, types.ColumnUSDTotal, err
		}
	}

	return record, "", nil
}

func activityCell(record *types.RewardBlockRecord, column string) (string, error) {
	switch column {
	case types.ColumnType:
		return record.Type, nil
	case types.ColumnHash:
		return record.Hash, nil
	case types.ColumnHeight:
		return formatInt(record.Height), nil
	case types.ColumnTime:
		return formatInt(record.Time), nil
	case types.ColumnStartEpoch:
		return formatInt(record.StartEpoch), nil
	case types.ColumnEndEpoch:
		return formatInt(record.EndEpoch), nil
	case types.ColumnRewards:
		return encodeRewards(record.Rewards)
	case types.ColumnRewardTotal:
		return formatFloat(record.RewardTotal), nil
	case types.ColumnPrice:
		return formatOptionalInt(record.Price), nil
	case types.ColumnPriceTime:
		return formatOptionalInt(record.PriceTime), nil
	case types.ColumnUSDTotal:
		return formatOptionalFloat(record.USDTotal), nil
	default:
		return "", fmt.Errorf("unknown column %q", column)
	}
}

// writeAtomically writes to a temp file next to path and renames it into place
func writeAtomically(path string, write func(w *csv.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}

	w := csv.NewWriter(tmp)
	if err := write(w); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
