package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestAssetIDValidate(t *testing.T) {
	valid := []AssetID{"atom", "usdc", "wrapped-btc", "ibc-27394fb0", "a", "x0"}
	for _, a := range valid {
		if err := a.Validate(); err != nil {
			t.Errorf("%q: unexpected error %v", a, err)
		}
	}

	if err := NullAsset.Validate(); !errors.Is(err, ErrNullAsset) {
		t.Errorf("null asset: got %v", err)
	}
	invalid := []AssetID{"ATOM", "at om", "atom!", "ätom", "ibc/27394fb0", AssetID(strings.Repeat("a", 65))}
	for _, a := range invalid {
		if err := a.Validate(); !errors.Is(err, ErrInvalidAsset) {
			t.Errorf("%q: got %v, want ErrInvalidAsset", a, err)
		}
	}
}

func TestNewPairKeyCanonical(t *testing.T) {
	k1, err := NewPairKey("usdc", "atom")
	if err != nil {
		t.Fatalf("NewPairKey: %v", err)
	}
	k2, err := NewPairKey("atom", "usdc")
	if err != nil {
		t.Fatalf("NewPairKey: %v", err)
	}
	if k1 != k2 {
		t.Fatalf("orders disagree: %v vs %v", k1, k2)
	}
	if k1.Low != "atom" || k1.High != "usdc" {
		t.Fatalf("not canonical: %v", k1)
	}
	if k1.String() != "atom/usdc" {
		t.Fatalf("String() = %q", k1.String())
	}
}

func TestNewPairKeyRejections(t *testing.T) {
	if _, err := NewPairKey("atom", "atom"); !errors.Is(err, ErrIdenticalAssets) {
		t.Fatalf("identical: got %v", err)
	}
	// Identity wins over validity: two equal malformed assets are "identical".
	if _, err := NewPairKey("", ""); !errors.Is(err, ErrIdenticalAssets) {
		t.Fatalf("both null: got %v", err)
	}
	if _, err := NewPairKey("", "atom"); !errors.Is(err, ErrNullAsset) {
		t.Fatalf("null side: got %v", err)
	}
	if _, err := NewPairKey("atom", "USDC"); !errors.Is(err, ErrInvalidAsset) {
		t.Fatalf("invalid side: got %v", err)
	}
}

func TestParsePairKey(t *testing.T) {
	k, err := ParsePairKey("usdc/atom")
	if err != nil {
		t.Fatalf("ParsePairKey: %v", err)
	}
	if k.Low != "atom" || k.High != "usdc" {
		t.Fatalf("not canonical: %v", k)
	}
	if _, err := ParsePairKey("atom"); err == nil {
		t.Fatal("expected error for missing separator")
	}
}

// The "low/high" string form is the pair's identity in event attributes and
// URLs, so String followed by ParsePairKey must return the original key.
// That only holds because '/' is outside the asset alphabet.
func TestPairKeyStringRoundTrip(t *testing.T) {
	for _, pair := range [][2]AssetID{
		{"atom", "usdc"},
		{"wrapped-btc", "eth"},
		{"ibc-27394fb0", "atom"},
	} {
		k, err := NewPairKey(pair[0], pair[1])
		if err != nil {
			t.Fatalf("NewPairKey(%q, %q): %v", pair[0], pair[1], err)
		}
		back, err := ParsePairKey(k.String())
		if err != nil {
			t.Fatalf("ParsePairKey(%q): %v", k.String(), err)
		}
		if back != k {
			t.Errorf("round trip lost the key: %q parsed to %v", k.String(), back)
		}
	}

	// A slash-bearing identifier would collide with the separator and re-parse
	// as a different key, so it must be rejected at construction.
	if _, err := NewPairKey("a/b", "c"); !errors.Is(err, ErrInvalidAsset) {
		t.Fatalf("slash-bearing asset: got %v, want ErrInvalidAsset", err)
	}
}

func TestPairKeyMembership(t *testing.T) {
	k, _ := NewPairKey("atom", "usdc")
	if !k.Contains("atom") || !k.Contains("usdc") || k.Contains("btc") {
		t.Fatalf("Contains misbehaves for %v", k)
	}
	if k.Other("atom") != "usdc" || k.Other("usdc") != "atom" {
		t.Fatalf("Other misbehaves for %v", k)
	}
	if k.Other("btc") != NullAsset {
		t.Fatalf("Other(non-member) = %q", k.Other("btc"))
	}
}
