package cache

import "time"

// This file is only for test purpose and is only loaded by test framework.

// SetClock overrides the clock of the store for test purpose.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}
