package table

import (
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/audioroom/backend/internal/game"
)

// Table owns one game instance and the single goroutine all access to
// it is serialized through. Packet handlers and background jobs submit
// closures via Do; the loop interleaves them with fixed-rate ticks, so
// game code never needs locks.
type Table struct {
	ID       string
	GameType string
	Created  time.Time

	g       game.Game
	work    chan func()
	done    chan struct{}
	tickDur time.Duration
}

func newTable(g game.Game, tickRateHz int) *Table {
	if tickRateHz <= 0 {
		tickRateHz = 20
	}
	t := &Table{
		ID:       uuid.NewString(),
		GameType: g.Base().Descriptor().TypeID,
		Created:  time.Now(),
		g:        g,
		work:     make(chan func(), 64),
		done:     make(chan struct{}),
		tickDur:  time.Second / time.Duration(tickRateHz),
	}
	go t.run()
	return t
}

func (t *Table) run() {
	ticker := time.NewTicker(t.tickDur)
	defer ticker.Stop()
	for {
		select {
		case <-t.done:
			return
		case fn := <-t.work:
			fn()
		case <-ticker.C:
			t.g.Base().Tick()
		}
	}
}

// Do runs fn on the table's loop. It returns false once the table has
// stopped; fn will not run in that case.
func (t *Table) Do(fn func()) bool {
	select {
	case <-t.done:
		return false
	case t.work <- fn:
		return true
	}
}

// DoSync runs fn on the loop and waits for it to finish.
func (t *Table) DoSync(fn func()) bool {
	doneCh := make(chan struct{})
	ok := t.Do(func() {
		defer close(doneCh)
		fn()
	})
	if !ok {
		return false
	}
	select {
	case <-doneCh:
		return true
	case <-t.done:
		return false
	}
}

// Stop halts the loop. The game is marked destroyed first so any
// in-flight closure that still runs sees a dead game.
func (t *Table) stop() {
	stopped := t.DoSync(func() {
		t.g.Base().Status = game.StatusDestroyed
	})
	if !stopped {
		return
	}
	close(t.done)
	log.Printf("[TABLE] %s (%s) stopped", t.ID, t.GameType)
}

// Game exposes the instance for loop-context code. Callers outside a Do
// closure must not touch it.
func (t *Table) Game() game.Game { return t.g }
