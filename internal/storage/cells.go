package storage

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"

	"github.com/reward-scanner/internal/types"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// fixedPointDigits keeps large integers out of scientific notation
const fixedPointDigits = 20

func formatInt(v int64) string {
	return decimal.NewFromInt(v).StringFixed(fixedPointDigits)
}

func formatFloat(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', fixedPointDigits, 64)
	}
	return decimal.NewFromFloat(v).StringFixed(fixedPointDigits)
}

func formatOptionalInt(v *int64) string {
	if v == nil {
		return ""
	}
	return formatInt(*v)
}

func formatOptionalFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

// parseInt reads an integer cell, accepting the fixed-point form written by formatInt
func parseInt(raw string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if !d.IsInteger() {
		return 0, fmt.Errorf("%q is not an integer", raw)
	}
	return d.IntPart(), nil
}

func parseFloat(raw string) (float64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	f, _ := d.Float64()
	return f, nil
}

func parseOptionalInt(raw string) (*int64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	v, err := parseInt(raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func parseOptionalFloat(raw string) (*float64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	v, err := parseFloat(raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// encodeRewards stores the nested reward entries as a JSON array cell
func encodeRewards(rewards []types.RewardEntry) (string, error) {
	if rewards == nil {
		rewards = []types.RewardEntry{}
	}
	data, err := json.Marshal(rewards)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeRewards(raw string) ([]types.RewardEntry, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []types.RewardEntry{}, nil
	}
	var rewards []types.RewardEntry
	if err := json.Unmarshal([]byte(raw), &rewards); err != nil {
		return nil, err
	}
	if rewards == nil {
		rewards = []types.RewardEntry{}
	}
	return rewards, nil
}
