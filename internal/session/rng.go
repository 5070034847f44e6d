// Package session runs a practice session: hidden-value initialization,
// periodic drift, attempt evaluation, and the guess/feedback state machine.
package session

import (
	"math/rand"
	"time"
)

// NewRand returns the session's random source: fixed seed when seeded is
// set (reproducible replay), otherwise seeded with the current time.
func NewRand(seeded bool, seed int64) *rand.Rand {
	if seeded {
		return rand.New(rand.NewSource(seed))
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}
