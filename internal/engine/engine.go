// Package engine implements the draft turn machine as pure functions over
// domain.Game values. Callers load a game, apply a submission, and persist
// the returned copy; nothing here touches storage or clocks.
package engine

import (
	"errors"
	"math/rand"
	"slices"
	"time"

	"github.com/draftforge/livedraft-backend/internal/domain"
)

var (
	ErrWrongTurn           = errors.New("not this side's turn")
	ErrSlotFilled          = errors.New("slot already filled")
	ErrChampionUnavailable = errors.New("champion unavailable")
	ErrChampionRequired    = errors.New("champion required")
	ErrGameNotDrafting     = errors.New("game is not drafting")
	ErrGameNotCompleted    = errors.New("game is not completed")
	ErrBadSlot             = errors.New("slot out of range")
)

// Submission is one attempted draft action.
type Submission struct {
	Side     domain.Side
	Action   Action
	Champion string
}

// Result reports what an accepted submission did.
type Result struct {
	Side      domain.Side
	Action    Action
	Slot      int
	Champion  string
	Completed bool
}

// Apply validates sub against the game's current step and returns a copy of
// the game advanced by one action. The input game is never mutated. The
// returned error is one of the package sentinels.
func Apply(g domain.Game, carry Carryover, sub Submission, now time.Time) (domain.Game, Result, error) {
	if g.Status != domain.GameDrafting {
		return g, Result{}, ErrGameNotDrafting
	}
	step, ok := StepAt(g.CurrentActionIndex)
	if !ok {
		return g, Result{}, ErrGameNotDrafting
	}
	if sub.Side != step.Side || sub.Action != step.Action {
		return g, Result{}, ErrWrongTurn
	}
	if sub.Champion == "" {
		return g, Result{}, ErrChampionRequired
	}
	if usedInGame(&g, sub.Champion) || carry.Blocks(sub.Champion) {
		return g, Result{}, ErrChampionUnavailable
	}

	slot := SlotAt(g.CurrentActionIndex)
	target := slotsFor(&g, step.Side, step.Action)
	if slot >= len(target) || target[slot] != nil {
		return g, Result{}, ErrSlotFilled
	}

	updated := slices.Clone(target)
	champ := sub.Champion
	updated[slot] = &champ
	setSlotsFor(&g, step.Side, step.Action, updated)

	res := Result{Side: step.Side, Action: step.Action, Slot: slot, Champion: champ}

	g.CurrentActionIndex++
	if next, ok := StepAt(g.CurrentActionIndex); ok {
		phase := PhaseAt(g.CurrentActionIndex)
		g.CurrentPhase = &phase
		side := next.Side
		g.CurrentTurn = &side
		g.TurnStartedAt = &now
	} else {
		g.Status = domain.GameCompleted
		g.CurrentPhase = nil
		g.CurrentTurn = nil
		g.TurnStartedAt = nil
		g.CompletedAt = &now
		res.Completed = true
	}
	return g, res, nil
}

// Start returns a copy of a pending game moved to the top of the sequence
// in the drafting state.
func Start(g domain.Game, now time.Time) (domain.Game, error) {
	if g.Status != domain.GamePending {
		return g, ErrGameNotDrafting
	}
	g.Status = domain.GameDrafting
	phase := PhaseAt(0)
	g.CurrentPhase = &phase
	side := Sequence[0].Side
	g.CurrentTurn = &side
	g.CurrentActionIndex = 0
	g.TurnStartedAt = &now
	g.StartedAt = &now
	return g, nil
}

// Legal reports whether the champion could be submitted for the game's
// current step. Used for timeout fallbacks and UI hints.
func Legal(g *domain.Game, carry Carryover, champion string) bool {
	if champion == "" {
		return false
	}
	return !usedInGame(g, champion) && !carry.Blocks(champion)
}

// RandomLegal picks a uniformly random legal champion from pool, or ok=false
// when every pool entry is blocked.
func RandomLegal(g *domain.Game, carry Carryover, pool []string, rng *rand.Rand) (string, bool) {
	legal := make([]string, 0, len(pool))
	for _, c := range pool {
		if Legal(g, carry, c) {
			legal = append(legal, c)
		}
	}
	if len(legal) == 0 {
		return "", false
	}
	return legal[rng.Intn(len(legal))], true
}

func usedInGame(g *domain.Game, champion string) bool {
	for _, slots := range []domain.ChampionSlots{g.BlueBans, g.RedBans, g.BluePicks, g.RedPicks} {
		for _, c := range slots {
			if c != nil && *c == champion {
				return true
			}
		}
	}
	return false
}

func slotsFor(g *domain.Game, side domain.Side, action Action) domain.ChampionSlots {
	if action == ActionBan {
		return g.Bans(side)
	}
	return g.Picks(side)
}

func setSlotsFor(g *domain.Game, side domain.Side, action Action, slots domain.ChampionSlots) {
	switch {
	case side == domain.SideBlue && action == ActionBan:
		g.BlueBans = slots
	case side == domain.SideRed && action == ActionBan:
		g.RedBans = slots
	case side == domain.SideBlue && action == ActionPick:
		g.BluePicks = slots
	default:
		g.RedPicks = slots
	}
}
