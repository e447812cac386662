// Package ws holds WebSocket message types and the Hub implementation.
// messages.go defines all message structs broadcast to connected clients.
package ws

import (
	"time"

	"github.com/evetabi/amm/internal/domain"
)

// MsgType identifies the kind of WS message so clients can switch on it.
type MsgType string

const (
	MsgTypePoolUpdate MsgType = "pool_update"
	MsgTypeEvent      MsgType = "event"
	MsgTypeError      MsgType = "error"
)

// ──────────────────────────────────────────────────────────────────────────────
// PoolUpdateMessage — pushed after every committed operation and on the
// periodic broadcast tick.
// ──────────────────────────────────────────────────────────────────────────────

// PoolUpdateMessage carries the current reserves, share supply, and spot
// price of one pool.
type PoolUpdateMessage struct {
	Type      MsgType            `json:"type"`
	Pool      domain.PoolSummary `json:"pool"`
	Timestamp time.Time          `json:"timestamp"`
}

// ──────────────────────────────────────────────────────────────────────────────
// EventMessage — one committed ledger event.
// ──────────────────────────────────────────────────────────────────────────────

// EventMessage wraps a committed event record for push delivery.  Clients
// that miss messages can backfill from GET /api/events using the seq cursor.
type EventMessage struct {
	Type      MsgType      `json:"type"`
	Event     domain.Event `json:"event"`
	Timestamp time.Time    `json:"timestamp"`
}

// ──────────────────────────────────────────────────────────────────────────────
// ErrorMessage — sent to a single client on a non-fatal error.
// ──────────────────────────────────────────────────────────────────────────────

// ErrorMessage is sent directly to one client (not broadcast).
type ErrorMessage struct {
	Type    MsgType `json:"type"`
	Code    string  `json:"code"`
	Message string  `json:"message"`
}
