package engine

import "github.com/draftforge/livedraft-backend/internal/domain"

// Carryover holds the champions earlier games of a session make unavailable.
// It is recomputed from prior game rows on every submission, never persisted.
type Carryover struct {
	mode  domain.DraftMode
	picks map[string]struct{}
	bans  map[string]struct{}
}

// CollectCarryover gathers pick and ban usage from prior games. Games still
// pending contribute nothing; drafting and completed games contribute every
// decided slot. Pick corrections are cosmetic and do not count.
func CollectCarryover(mode domain.DraftMode, prior []domain.Game) Carryover {
	c := Carryover{
		mode:  mode,
		picks: make(map[string]struct{}),
		bans:  make(map[string]struct{}),
	}
	for i := range prior {
		g := &prior[i]
		if g.Status == domain.GamePending {
			continue
		}
		collect(c.picks, g.BluePicks, g.RedPicks)
		collect(c.bans, g.BlueBans, g.RedBans)
	}
	return c
}

func collect(into map[string]struct{}, slots ...domain.ChampionSlots) {
	for _, ss := range slots {
		for _, c := range ss {
			if c != nil {
				into[*c] = struct{}{}
			}
		}
	}
}

// Blocks reports whether the mode forbids using the champion this game.
func (c Carryover) Blocks(champion string) bool {
	switch c.mode {
	case domain.ModeFearless:
		_, ok := c.picks[champion]
		return ok
	case domain.ModeIronman:
		if _, ok := c.picks[champion]; ok {
			return true
		}
		_, ok := c.bans[champion]
		return ok
	default:
		return false
	}
}
