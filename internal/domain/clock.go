package domain

import "github.com/jonboulle/clockwork"

// clock stamps Result.AnalyzedAt. Tests freeze it via SetClock so results
// compare equal across runs.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}
