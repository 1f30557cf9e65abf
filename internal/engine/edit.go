package engine

import "github.com/draftforge/livedraft-backend/internal/domain"

// EditPick records a correction for a decided pick slot on a finished game.
// The live slot arrays stay untouched; corrections live in a side map so the
// drafted history is never rewritten. Returns the game in the editing state.
func EditPick(g domain.Game, side domain.Side, slot int, champion string) (domain.Game, error) {
	if g.Status != domain.GameCompleted && g.Status != domain.GameEditing {
		return g, ErrGameNotCompleted
	}
	if slot < 0 || slot >= domain.SlotsPerSide {
		return g, ErrBadSlot
	}
	if g.Picks(side)[slot] == nil {
		return g, ErrBadSlot
	}
	if champion == "" {
		return g, ErrChampionRequired
	}

	edits := map[string]string{}
	for k, v := range g.EditedPicks.Data() {
		edits[k] = v
	}
	edits[domain.EditKey(side, slot)] = champion
	g.EditedPicks = domain.NewEditedPicks(edits)
	g.Status = domain.GameEditing
	return g, nil
}

// FinishEditing returns the game to the completed state.
func FinishEditing(g domain.Game) (domain.Game, error) {
	if g.Status != domain.GameEditing {
		return g, ErrGameNotCompleted
	}
	g.Status = domain.GameCompleted
	return g, nil
}

// EffectivePick returns the pick shown for a slot: the correction when one
// exists, otherwise the drafted champion.
func EffectivePick(g *domain.Game, side domain.Side, slot int) (string, bool) {
	if slot < 0 || slot >= domain.SlotsPerSide {
		return "", false
	}
	if c, ok := g.EditedPicks.Data()[domain.EditKey(side, slot)]; ok {
		return c, true
	}
	if c := g.Picks(side)[slot]; c != nil {
		return *c, true
	}
	return "", false
}
