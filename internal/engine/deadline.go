package engine

import (
	"time"

	"github.com/draftforge/livedraft-backend/internal/domain"
)

// Deadline returns when the current turn's advisory timer runs out. Timers
// are observed by clients, not enforced here: an expired deadline changes
// nothing until somebody submits. ok is false when no turn is running.
func Deadline(g *domain.Game, pickSeconds, banSeconds int) (time.Time, bool) {
	if g.Status != domain.GameDrafting || g.TurnStartedAt == nil {
		return time.Time{}, false
	}
	step, ok := StepAt(g.CurrentActionIndex)
	if !ok {
		return time.Time{}, false
	}
	seconds := pickSeconds
	if step.Action == ActionBan {
		seconds = banSeconds
	}
	return g.TurnStartedAt.Add(time.Duration(seconds) * time.Second), true
}

// Remaining returns how long the current turn has left at the given instant,
// clamped at zero once the deadline passed.
func Remaining(g *domain.Game, pickSeconds, banSeconds int, now time.Time) (time.Duration, bool) {
	deadline, ok := Deadline(g, pickSeconds, banSeconds)
	if !ok {
		return 0, false
	}
	left := deadline.Sub(now)
	if left < 0 {
		left = 0
	}
	return left, true
}
