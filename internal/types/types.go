// Package types provides common type definitions for the reward scanner.
package types

import "strings"

// Multiplier converts between the smallest currency unit and the display unit.
// The ledger API uses it for both reward amounts and oracle prices.
const Multiplier = 100000000

// RewardActivityMarker is the substring that identifies reward-typed activity.
const RewardActivityMarker = "reward"

// RecordStage tracks how far a record has progressed through the pipeline.
// The stage decides which columns a record carries when it is persisted.
type RecordStage int

const (
	// StageFetched represents a record as returned by the activity API
	StageFetched RecordStage = iota
	// StageAggregated represents a record whose reward total has been compiled
	StageAggregated
	// StageEnriched represents a record that went through the price lookup
	StageEnriched
)

// String returns the stage name
func (s RecordStage) String() string {
	switch s {
	case StageFetched:
		return "fetched"
	case StageAggregated:
		return "aggregated"
	case StageEnriched:
		return "enriched"
	default:
		return "unknown"
	}
}

// Column names used by the tabular artifacts.
const (
	ColumnType        = "type"
	ColumnHash        = "hash"
	ColumnHeight      = "height"
	ColumnTime        = "time"
	ColumnStartEpoch  = "start_epoch"
	ColumnEndEpoch    = "end_epoch"
	ColumnRewards     = "rewards"
	ColumnRewardTotal = "reward_total"
	ColumnPrice       = "price"
	ColumnPriceTime   = "price_time"
	ColumnUSDTotal    = "usd_total"
)

var (
	fetchedColumns = []string{
		ColumnType, ColumnHash, ColumnHeight, ColumnTime,
		ColumnStartEpoch, ColumnEndEpoch, ColumnRewards,
	}
	aggregatedColumns = append(append([]string{}, fetchedColumns...), ColumnRewardTotal)
	enrichedColumns   = append(append([]string{}, aggregatedColumns...), ColumnPrice, ColumnPriceTime, ColumnUSDTotal)
)

// RewardsOnlyColumns is the fixed column set of the slim rewards export.
var RewardsOnlyColumns = []string{ColumnHeight, ColumnPrice, ColumnPriceTime, ColumnRewardTotal, ColumnUSDTotal}

// RewardEntry represents one credited amount within a block's reward set
type RewardEntry struct {
	Type    string `json:"type,omitempty"`
	Account string `json:"account,omitempty"`
	Gateway string `json:"gateway,omitempty"`
	Amount  int64  `json:"amount"` // Smallest currency unit
}

// ActivityEntry represents one item returned by the account activity endpoint
type ActivityEntry struct {
	Type       string        `json:"type"`
	Hash       string        `json:"hash,omitempty"`
	Height     int64         `json:"height"`
	Time       int64         `json:"time"`
	StartEpoch int64         `json:"start_epoch,omitempty"`
	EndEpoch   int64         `json:"end_epoch,omitempty"`
	Rewards    []RewardEntry `json:"rewards,omitempty"`
}

// IsReward reports whether the activity is reward-typed
func (a ActivityEntry) IsReward() bool {
	return strings.Contains(a.Type, RewardActivityMarker)
}

// ActivityPage represents one page of account activity.
// An empty Cursor marks the last page.
type ActivityPage struct {
	Data   []ActivityEntry
	Cursor string
}

// HasMore reports whether another page can be requested
func (p *ActivityPage) HasMore() bool {
	return p.Cursor != ""
}

// BlockPrice represents an oracle price quote at a block height
type BlockPrice struct {
	Height    int64 `json:"height"`
	Price     int64 `json:"price"`     // Smallest currency unit
	Timestamp int64 `json:"timestamp"` // Epoch seconds
}

// DisplayPrice returns the price in display units
func (p BlockPrice) DisplayPrice() float64 {
	return float64(p.Price) / Multiplier
}

// RewardBlockRecord represents one ledger block carrying rewards for the account.
// Price, PriceTime and USDTotal stay nil when the price lookup failed.
type RewardBlockRecord struct {
	Type       string
	Hash       string
	Height     int64
	Time       int64
	StartEpoch int64
	EndEpoch   int64
	Rewards    []RewardEntry

	Stage       RecordStage
	RewardTotal float64
	Price       *int64
	PriceTime   *int64
	USDTotal    *float64
}

// NewRewardBlockRecord creates a record from a fetched activity entry
func NewRewardBlockRecord(entry ActivityEntry) *RewardBlockRecord {
	rewards := make([]RewardEntry, len(entry.Rewards))
	copy(rewards, entry.Rewards)

	return &RewardBlockRecord{
		Type:       entry.Type,
		Hash:       entry.Hash,
		Height:     entry.Height,
		Time:       entry.Time,
		StartEpoch: entry.StartEpoch,
		EndEpoch:   entry.EndEpoch,
		Rewards:    rewards,
		Stage:      StageFetched,
	}
}

// Columns returns the record's key set in export order
func (r *RewardBlockRecord) Columns() []string {
	switch {
	case r.Stage >= StageEnriched:
		return enrichedColumns
	case r.Stage >= StageAggregated:
		return aggregatedColumns
	default:
		return fetchedColumns
	}
}

// HasUSDTotal reports whether the USD value has been computed
func (r *RewardBlockRecord) HasUSDTotal() bool {
	return r.USDTotal != nil
}

// SetPrice attaches a price quote and derives the USD value from the reward total.
// The reward total is divided by Multiplier a second time before it is multiplied
// by the smallest-unit price; callers rely on this exact arithmetic.
func (r *RewardBlockRecord) SetPrice(quote BlockPrice) {
	price := quote.Price
	priceTime := quote.Timestamp
	usdTotal := r.RewardTotal / Multiplier * float64(price)

	r.Price = &price
	r.PriceTime = &priceTime
	r.USDTotal = &usdTotal
}

// DisplayPrice returns the price in display units, or nil when no price is set
func (r *RewardBlockRecord) DisplayPrice() *float64 {
	if r.Price == nil {
		return nil
	}
	display := float64(*r.Price) / Multiplier
	return &display
}
