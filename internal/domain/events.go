package domain

import (
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/google/uuid"
)

// ──────────────────────────────────────────────────────────────────────────────
// Event records
//
// Every committed operation appends immutable event records to the ledger's
// notification log.  Observers consume them either by polling
// (GET /api/events?after=<seq>) or over the WebSocket hub.
// ──────────────────────────────────────────────────────────────────────────────

// EventType identifies the kind of notification.
type EventType string

const (
	EventPairCreated      EventType = "pair_created"
	EventLiquidityAdded   EventType = "liquidity_added"
	EventLiquidityRemoved EventType = "liquidity_removed"
	EventSwapExecuted     EventType = "swap_executed" // one per hop
	EventFeeUpdated       EventType = "fee_updated"
)

// Attribute keys shared by event payloads.
const (
	AttrPair      = "pair"
	AttrDepositor = "depositor"
	AttrActor     = "actor"
	AttrTrader    = "trader"
	AttrRecipient = "recipient"
	AttrAmountA   = "amount_low"
	AttrAmountB   = "amount_high"
	AttrShares    = "shares"
	AttrAssetIn   = "asset_in"
	AttrAssetOut  = "asset_out"
	AttrAmountIn  = "amount_in"
	AttrAmountOut = "amount_out"
	AttrOldFeeBps = "old_fee_bps"
	AttrNewFeeBps = "new_fee_bps"
)

// Event is one immutable record in the append-only notification log.
// Seq is assigned by the log on append and is strictly increasing.
type Event struct {
	ID         uuid.UUID         `json:"id"         db:"id"`
	Seq        int64             `json:"seq"        db:"seq"`
	Type       EventType         `json:"type"       db:"type"`
	Attributes map[string]string `json:"attributes" db:"-"`
	CreatedAt  time.Time         `json:"created_at" db:"created_at"`
}

func newEvent(typ EventType, attrs map[string]string) Event {
	return Event{
		ID:         uuid.New(),
		Type:       typ,
		Attributes: attrs,
		CreatedAt:  time.Now().UTC(),
	}
}

// NewPairCreatedEvent records the registration of a new canonical pair.
func NewPairCreatedEvent(key PairKey) Event {
	return newEvent(EventPairCreated, map[string]string{
		AttrPair: key.String(),
	})
}

// NewLiquidityAddedEvent records a committed deposit.  Amounts are in
// canonical (low, high) order.
func NewLiquidityAddedEvent(key PairKey, depositor uuid.UUID, amountLow, amountHigh, shares sdkmath.Int) Event {
	return newEvent(EventLiquidityAdded, map[string]string{
		AttrPair:      key.String(),
		AttrDepositor: depositor.String(),
		AttrAmountA:   amountLow.String(),
		AttrAmountB:   amountHigh.String(),
		AttrShares:    shares.String(),
	})
}

// NewLiquidityRemovedEvent records a committed withdrawal.  Amounts are in
// canonical (low, high) order.
func NewLiquidityRemovedEvent(key PairKey, depositor uuid.UUID, amountLow, amountHigh, shares sdkmath.Int) Event {
	return newEvent(EventLiquidityRemoved, map[string]string{
		AttrPair:      key.String(),
		AttrDepositor: depositor.String(),
		AttrAmountA:   amountLow.String(),
		AttrAmountB:   amountHigh.String(),
		AttrShares:    shares.String(),
	})
}

// NewSwapEvent records one hop of a committed swap.
func NewSwapEvent(key PairKey, trader, recipient uuid.UUID, assetIn, assetOut AssetID, amountIn, amountOut sdkmath.Int) Event {
	return newEvent(EventSwapExecuted, map[string]string{
		AttrPair:      key.String(),
		AttrTrader:    trader.String(),
		AttrRecipient: recipient.String(),
		AttrAssetIn:   string(assetIn),
		AttrAssetOut:  string(assetOut),
		AttrAmountIn:  amountIn.String(),
		AttrAmountOut: amountOut.String(),
	})
}

// NewFeeUpdatedEvent records a committed fee change with old and new values.
// The actor is the admin account that made the change.
func NewFeeUpdatedEvent(oldBps, newBps int64, by uuid.UUID) Event {
	return newEvent(EventFeeUpdated, map[string]string{
		AttrOldFeeBps: formatInt64(oldBps),
		AttrNewFeeBps: formatInt64(newBps),
		AttrActor:     by.String(),
	})
}

func formatInt64(v int64) string {
	return sdkmath.NewInt(v).String()
}
