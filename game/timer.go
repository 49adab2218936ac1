package game

import "time"

type ticker struct{}

func NewTickerGen() ticker {
	return ticker{}
}

func (t ticker) Create(duration time.Duration) <-chan time.Time {
	return time.NewTicker(duration).C
}

// timerScheduler is the production Scheduler: time.AfterFunc behind the
// interface so tests can substitute a manual one.
type timerScheduler struct{}

func NewScheduler() timerScheduler {
	return timerScheduler{}
}

func (timerScheduler) Schedule(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}
