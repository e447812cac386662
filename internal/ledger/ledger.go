// Package ledger owns the in-memory pair ledger: the mapping of canonical
// asset pairs to pool state and of (pair, depositor) to ownership positions.
//
// The ledger is single-writer: every state-mutating operation must hold the
// operation guard (Begin/release) for its full duration, plans its effects
// against a snapshot, and installs them atomically with Apply only after
// every validation and external transfer has succeeded.  A plan that is
// never applied leaves zero trace.  Read-only queries never take the
// operation guard; they read committed state under a shared lock and return
// copies.
package ledger

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/evetabi/amm/internal/domain"
)

// positionKey flattens (pair, depositor) into one map key.
type positionKey struct {
	pair      domain.PairKey
	depositor uuid.UUID
}

// Ledger is the authoritative pool and position state plus the global fee
// parameter.  All fields are guarded by mu; inFlight is the operation-scoped
// reentrancy flag.
type Ledger struct {
	mu        sync.RWMutex
	inFlight  atomic.Bool
	pools     map[domain.PairKey]*domain.Pool
	positions map[positionKey]*domain.Position
	feeBps    int64
}

// New creates an empty ledger with the default fee rate.
func New() *Ledger {
	return &Ledger{
		pools:     make(map[domain.PairKey]*domain.Pool),
		positions: make(map[positionKey]*domain.Position),
		feeBps:    domain.DefaultFeeBps,
	}
}

// Restore installs persisted state at boot.  Must be called before the
// ledger is shared; it takes ownership of the given records.
func (l *Ledger) Restore(pools []*domain.Pool, positions []*domain.Position, feeBps int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, p := range pools {
		l.pools[p.Key] = p
	}
	for _, pos := range positions {
		l.positions[positionKey{pair: pos.Key, depositor: pos.Depositor}] = pos
	}
	if feeBps > 0 {
		l.feeBps = feeBps
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Operation guard
// ──────────────────────────────────────────────────────────────────────────────

// Begin acquires the single-writer operation guard.  While one mutating
// operation is in flight, any further mutating invocation — re-entrant or
// overlapping — fails with ErrReentrantCall rather than observing
// intermediate state.  The returned release function must be called on every
// path, including failure paths.
func (l *Ledger) Begin() (release func(), err error) {
	if !l.inFlight.CompareAndSwap(false, true) {
		return nil, domain.ErrReentrantCall
	}
	return func() { l.inFlight.Store(false) }, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Read-only queries (no operation guard; committed-state snapshots)
// ──────────────────────────────────────────────────────────────────────────────

// FeeBps returns the current global swap fee in basis points.
func (l *Ledger) FeeBps() int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.feeBps
}

// Pool returns a copy of the pool for the canonical pair, or ErrPairNotFound.
func (l *Ledger) Pool(key domain.PairKey) (*domain.Pool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.pools[key]
	if !ok {
		return nil, domain.ErrPairNotFound
	}
	return p.Clone(), nil
}

// Pools returns copies of every pool, ordered by canonical key.
func (l *Ledger) Pools() []*domain.Pool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*domain.Pool, 0, len(l.pools))
	for _, p := range l.pools {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Key.Low != out[j].Key.Low {
			return out[i].Key.Low < out[j].Key.Low
		}
		return out[i].Key.High < out[j].Key.High
	})
	return out
}

// Position returns a copy of the depositor's position in the pair.  A
// depositor with no recorded position holds zero shares; ErrPairNotFound is
// returned only when the pair itself is unknown.
func (l *Ledger) Position(key domain.PairKey, depositor uuid.UUID) (*domain.Position, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if _, ok := l.pools[key]; !ok {
		return nil, domain.ErrPairNotFound
	}
	if pos, ok := l.positions[positionKey{pair: key, depositor: depositor}]; ok {
		return pos.Clone(), nil
	}
	return emptyPosition(key, depositor), nil
}

// Positions returns copies of every position in the given pair.
func (l *Ledger) Positions(key domain.PairKey) []*domain.Position {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []*domain.Position
	for pk, pos := range l.positions {
		if pk.pair == key {
			out = append(out, pos.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Depositor.String() < out[j].Depositor.String()
	})
	return out
}

// ──────────────────────────────────────────────────────────────────────────────
// Commit
// ──────────────────────────────────────────────────────────────────────────────

// Commit is the set of post-state records a plan installs atomically.
type Commit struct {
	Pools     []*domain.Pool
	Positions []*domain.Position
	FeeBps    *int64
}

// Apply installs a plan's commit in one step.  Callers must hold the
// operation guard and must only apply a commit whose every prior step
// (validation, external transfers, persistence) succeeded.
func (l *Ledger) Apply(c Commit) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, p := range c.Pools {
		l.pools[p.Key] = p
	}
	for _, pos := range c.Positions {
		l.positions[positionKey{pair: pos.Key, depositor: pos.Depositor}] = pos
	}
	if c.FeeBps != nil {
		l.feeBps = *c.FeeBps
	}
}

// snapshotPool returns a clone of the committed pool under the read lock.
func (l *Ledger) snapshotPool(key domain.PairKey) (*domain.Pool, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.pools[key]
	if !ok {
		return nil, false
	}
	return p.Clone(), true
}

// snapshotPosition returns a clone of the committed position, or a zeroed
// position when the depositor has none.
func (l *Ledger) snapshotPosition(key domain.PairKey, depositor uuid.UUID) *domain.Position {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if pos, ok := l.positions[positionKey{pair: key, depositor: depositor}]; ok {
		return pos.Clone()
	}
	return emptyPosition(key, depositor)
}

func emptyPosition(key domain.PairKey, depositor uuid.UUID) *domain.Position {
	pos := &domain.Position{
		Key:       key,
		Depositor: depositor,
	}
	pos.ShareAmount = zeroInt()
	pos.ShareRatio = zeroInt()
	return pos
}

func nowUTC() time.Time { return time.Now().UTC() }
