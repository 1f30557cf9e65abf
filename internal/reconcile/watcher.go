package reconcile

import (
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/draftforge/livedraft-backend/internal/domain"
	"github.com/draftforge/livedraft-backend/internal/engine"
)

// Watcher runs a client's advisory turn timer. There is no server clock
// authority: each client observes TurnStartedAt, arms a local timer, and on
// expiry the captain's client submits a fallback action through the normal
// submission path. The engine's guards make duplicate or stale expiries
// harmless, so firing at most once per observed turn is a UX nicety, not a
// correctness requirement.
type Watcher struct {
	clock    clockwork.Clock
	onExpire func(domain.Game)

	mu    sync.Mutex
	timer clockwork.Timer
	armed timerKey
	fired map[timerKey]bool
	done  bool
}

type timerKey struct {
	gameID uuid.UUID
	index  int
}

func NewWatcher(clock clockwork.Clock, onExpire func(domain.Game)) *Watcher {
	return &Watcher{clock: clock, onExpire: onExpire, fired: make(map[timerKey]bool)}
}

// Observe is called with each fresh view. It arms a timer for the current
// turn's deadline, re-arms when the turn advances, and disarms when nothing
// is drafting. Observing a turn that already fired does not fire it again.
func (w *Watcher) Observe(s *domain.Session, g *domain.Game) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done {
		return
	}
	if s == nil || g == nil || s.Status != domain.SessionInProgress || g.Status != domain.GameDrafting {
		w.disarmLocked()
		return
	}
	deadline, ok := engine.Deadline(g, s.PickTimeSeconds, s.BanTimeSeconds)
	if !ok {
		w.disarmLocked()
		return
	}
	key := timerKey{gameID: g.ID, index: g.CurrentActionIndex}
	if w.fired[key] {
		return
	}
	if w.timer != nil && w.armed == key {
		return
	}
	w.disarmLocked()

	delay := deadline.Sub(w.clock.Now())
	if delay < 0 {
		delay = 0
	}
	game := g.Clone()
	w.armed = key
	w.timer = w.clock.AfterFunc(delay, func() {
		w.expire(key, game)
	})
}

func (w *Watcher) expire(key timerKey, game domain.Game) {
	w.mu.Lock()
	if w.done || w.armed != key || w.fired[key] {
		w.mu.Unlock()
		return
	}
	w.fired[key] = true
	w.armed = timerKey{}
	w.timer = nil
	for k := range w.fired {
		if k.gameID != key.gameID {
			delete(w.fired, k)
		}
	}
	w.mu.Unlock()
	w.onExpire(game)
}

// Stop disarms the watcher permanently.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.done = true
	w.disarmLocked()
}

func (w *Watcher) disarmLocked() {
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.armed = timerKey{}
}
