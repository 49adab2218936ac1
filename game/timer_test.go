package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScheduler_FiresAfterDuration(t *testing.T) {
	t.Parallel()
	fired := make(chan struct{})
	NewScheduler().Schedule(10*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled callback never fired")
	}
}

func TestScheduler_CancelPreventsFiring(t *testing.T) {
	t.Parallel()
	fired := make(chan struct{}, 1)
	cancel := NewScheduler().Schedule(50*time.Millisecond, func() { fired <- struct{}{} })
	cancel()

	select {
	case <-fired:
		t.Fatal("cancelled callback fired anyway")
	case <-time.After(200 * time.Millisecond):
	}

	// cancelling again is a no-op
	cancel()
}

func TestTickerGen_Ticks(t *testing.T) {
	t.Parallel()
	ch := NewTickerGen().Create(10 * time.Millisecond)
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("ticker never ticked")
	}
}

func TestIdGen_UniqueIds(t *testing.T) {
	t.Parallel()
	g := NewIdGen()
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		id := g.Generate()
		assert.Len(t, id, roomIdLength)
		assert.False(t, seen[id], "id %q produced twice", id)
		seen[id] = true
	}
	for id := range seen {
		g.Dispose(id)
	}
}
