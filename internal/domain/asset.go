// Package domain defines the core entities and pure pricing math for the
// evetabi constant-product AMM.
package domain

import (
	"fmt"
	"strings"
)

// ──────────────────────────────────────────────────────────────────────────────
// AssetID
// ──────────────────────────────────────────────────────────────────────────────

// AssetID identifies a fungible asset type by its denomination, e.g. "atom".
// The empty string is the null asset and is never a valid pool member.
type AssetID string

// NullAsset is the zero value of AssetID; no pool may contain it.
const NullAsset AssetID = ""

// Validate checks that the asset identifier is well formed: non-empty,
// lowercase alphanumeric (plus '-'), at most 64 bytes.  '/' is excluded from
// the alphabet because it separates the two sides of a PairKey's "low/high"
// string form; allowing it would make that form ambiguous.
func (a AssetID) Validate() error {
	if a == NullAsset {
		return ErrNullAsset
	}
	if len(a) > 64 {
		return fmt.Errorf("%w: %q exceeds 64 bytes", ErrInvalidAsset, a)
	}
	for _, r := range a {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '-':
		default:
			return fmt.Errorf("%w: %q contains %q", ErrInvalidAsset, a, r)
		}
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// PairKey — canonical unordered asset pair
// ──────────────────────────────────────────────────────────────────────────────

// PairKey is the canonical identity of a pool: the two asset identifiers
// ordered lexicographically so that (A,B) and (B,A) resolve to one ledger
// entry.  Low < High always holds for a key built via NewPairKey.
type PairKey struct {
	Low  AssetID `json:"low"  db:"asset_low"`
	High AssetID `json:"high" db:"asset_high"`
}

// NewPairKey canonicalizes two asset identifiers into a PairKey.
// Fails with ErrIdenticalAssets when the two are equal and with
// ErrNullAsset / ErrInvalidAsset when either identifier is malformed.
func NewPairKey(a, b AssetID) (PairKey, error) {
	if a == b {
		return PairKey{}, ErrIdenticalAssets
	}
	if err := a.Validate(); err != nil {
		return PairKey{}, err
	}
	if err := b.Validate(); err != nil {
		return PairKey{}, err
	}
	if a < b {
		return PairKey{Low: a, High: b}, nil
	}
	return PairKey{Low: b, High: a}, nil
}

// ParsePairKey parses the "low/high" string form produced by String().
// The input does not need to be pre-ordered.
func ParsePairKey(s string) (PairKey, error) {
	parts := strings.SplitN(s, "/", 2)
	if len(parts) != 2 {
		return PairKey{}, fmt.Errorf("%w: %q is not of the form a/b", ErrInvalidAsset, s)
	}
	return NewPairKey(AssetID(parts[0]), AssetID(parts[1]))
}

// String renders the canonical "low/high" form used in events and URLs.
func (k PairKey) String() string {
	return string(k.Low) + "/" + string(k.High)
}

// Contains reports whether the given asset is one of the pair's two sides.
func (k PairKey) Contains(a AssetID) bool {
	return a == k.Low || a == k.High
}

// Other returns the opposite side of the pair for a member asset.
// Returns NullAsset when a is not a member.
func (k PairKey) Other(a AssetID) AssetID {
	switch a {
	case k.Low:
		return k.High
	case k.High:
		return k.Low
	}
	return NullAsset
}
