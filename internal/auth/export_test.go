package auth

import "time"

// SetClock overrides the issuing clock in tests.
func (t *Tokens) SetClock(now func() time.Time) {
	t.now = now
}
