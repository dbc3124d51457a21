package app

import (
	"time"

	"github.com/google/uuid"
)

// newID produces a random identifier for new entities.
// Isolated here so the ID strategy can evolve independently.
func newID() string {
	return uuid.NewString()
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }
