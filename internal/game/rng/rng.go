// Package rng provides the randomness abstraction used by the combat and
// loot systems.
package rng

import (
	"crypto/rand"
	"encoding/binary"
	"math/big"
)

// Source is the randomness provider for combat rolls and loot drops.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int

	// Float64 returns a random float64 in [0.0, 1.0).
	Float64() float64
}

// Between returns a uniform random int in [lo, hi] inclusive.
//
// Precondition: src must be non-nil; lo <= hi.
// Postcondition: Returns a value v with lo <= v <= hi.
func Between(src Source, lo, hi int) int {
	if lo >= hi {
		return lo
	}
	return lo + src.Intn(hi-lo+1)
}

// Chance reports whether a random event with probability p occurred.
//
// Precondition: src must be non-nil.
// Postcondition: Always false for p <= 0; always true for p >= 1.
func Chance(src Source, p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return src.Float64() < p
}

// cryptoSource implements Source using crypto/rand.
//
// Invariant: All values produced are cryptographically secure and uniformly
// distributed.
type cryptoSource struct{}

// NewCryptoSource returns a Source backed by crypto/rand.
//
// Postcondition: Every value returned by Intn is in [0, n).
func NewCryptoSource() Source {
	return &cryptoSource{}
}

// Intn returns a cryptographically secure random int in [0, n).
//
// Precondition: n > 0. Panics with "rng: Intn called with n <= 0" if n <= 0.
// Panics with "rng: crypto/rand failure: <err>" if crypto/rand fails.
func (c *cryptoSource) Intn(n int) int {
	if n <= 0 {
		panic("rng: Intn called with n <= 0")
	}
	val, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("rng: crypto/rand failure: " + err.Error())
	}
	return int(val.Int64())
}

// Float64 returns a cryptographically secure random float64 in [0.0, 1.0).
// Uses the upper 53 bits of a random uint64, matching math/rand's precision.
func (c *cryptoSource) Float64() float64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic("rng: crypto/rand failure: " + err.Error())
	}
	return float64(binary.BigEndian.Uint64(buf[:])>>11) / (1 << 53)
}
