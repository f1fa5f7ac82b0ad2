package app

import (
	"time"

	"github.com/neomorfeo/lifegarden/internal/domain"
)

// Compile-time check: SystemClock implements domain.Clock.
var _ domain.Clock = SystemClock{}

// SystemClock reads the wall clock in a fixed location, so "today" follows
// the gardener's calendar rather than UTC.
type SystemClock struct {
	Location *time.Location
}

// NewSystemClock returns a clock for loc, or for the local zone when loc is nil.
func NewSystemClock(loc *time.Location) SystemClock {
	if loc == nil {
		loc = time.Local
	}
	return SystemClock{Location: loc}
}

// Today returns the current calendar day in the clock's location.
func (c SystemClock) Today() domain.Date {
	return domain.DateOf(time.Now().In(c.Location))
}
