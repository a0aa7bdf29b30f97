// Package random provides seed generation for the anomaly random source.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
)

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}

	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// ResolveSeed returns seed unchanged when non-zero, otherwise a fresh one.
func ResolveSeed(seed int64) (int64, error) {
	if seed != 0 {
		return seed, nil
	}
	return NewSeed()
}

// NewSource returns a math/rand generator seeded with seed. It satisfies the
// anomaly chooser interface.
func NewSource(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}
