// Package simulate generates synthetic clickstream events for simulated
// users and sessions.
package simulate

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
)

// Source supplies every random draw the generator makes. Implementations
// need not be safe for concurrent use.
type Source interface {
	// IntRange returns a uniform integer in [lo, hi], both inclusive.
	IntRange(lo, hi int) int

	// Choice returns a uniformly chosen element of options.
	Choice(options []string) string
}

// RandSource is a seedable Source backed by a ChaCha8 generator.
// It also implements io.Reader so session UUIDs come from the same seed.
type RandSource struct {
	seed   uint64
	chacha *rand.ChaCha8
	rng    *rand.Rand
}

// NewRandSource creates a deterministic source from seed.
func NewRandSource(seed uint64) *RandSource {
	var key [32]byte
	for i := 0; i < 4; i++ {
		binary.LittleEndian.PutUint64(key[i*8:], seed+uint64(i)*0x9e3779b97f4a7c15)
	}
	chacha := rand.NewChaCha8(key)
	return &RandSource{
		seed:   seed,
		chacha: chacha,
		rng:    rand.New(chacha),
	}
}

// NewEntropySource creates a source seeded from crypto/rand.
func NewEntropySource() *RandSource {
	var b [8]byte
	if _, err := cryptorand.Read(b[:]); err != nil {
		return NewRandSource(rand.Uint64())
	}
	return NewRandSource(binary.LittleEndian.Uint64(b[:]))
}

// Seed returns the seed the source was created with.
func (s *RandSource) Seed() uint64 {
	return s.seed
}

// IntRange returns a uniform integer in [lo, hi].
func (s *RandSource) IntRange(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + s.rng.IntN(hi-lo+1)
}

// Choice returns a uniformly chosen element of options.
func (s *RandSource) Choice(options []string) string {
	if len(options) == 0 {
		return ""
	}
	return options[s.rng.IntN(len(options))]
}

// Read fills p with pseudo-random bytes.
func (s *RandSource) Read(p []byte) (int, error) {
	return s.chacha.Read(p)
}
