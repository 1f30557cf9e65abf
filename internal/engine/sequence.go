package engine

import "github.com/draftforge/livedraft-backend/internal/domain"

type Action string

const (
	ActionBan  Action = "ban"
	ActionPick Action = "pick"
)

func ParseAction(s string) (Action, bool) {
	switch Action(s) {
	case ActionBan, ActionPick:
		return Action(s), true
	}
	return "", false
}

// Step is one entry of the draft sequence: which side acts and how.
type Step struct {
	Side   domain.Side
	Action Action
}

// Sequence is the canonical tournament draft order: six alternating bans,
// the 1-2-2-1 first pick round, four more bans starting red, then the
// closing 1-2-1 pick round.
var Sequence = [20]Step{
	{domain.SideBlue, ActionBan},  // 0  ban phase 1
	{domain.SideRed, ActionBan},   // 1
	{domain.SideBlue, ActionBan},  // 2
	{domain.SideRed, ActionBan},   // 3
	{domain.SideBlue, ActionBan},  // 4
	{domain.SideRed, ActionBan},   // 5
	{domain.SideBlue, ActionPick}, // 6  pick phase 1
	{domain.SideRed, ActionPick},  // 7
	{domain.SideRed, ActionPick},  // 8
	{domain.SideBlue, ActionPick}, // 9
	{domain.SideBlue, ActionPick}, // 10
	{domain.SideRed, ActionPick},  // 11
	{domain.SideRed, ActionBan},   // 12 ban phase 2
	{domain.SideBlue, ActionBan},  // 13
	{domain.SideRed, ActionBan},   // 14
	{domain.SideBlue, ActionBan},  // 15
	{domain.SideRed, ActionPick},  // 16 pick phase 2
	{domain.SideBlue, ActionPick}, // 17
	{domain.SideBlue, ActionPick}, // 18
	{domain.SideRed, ActionPick},  // 19
}

// SequenceLen is the number of actions in a complete draft.
const SequenceLen = len(Sequence)

// StepAt returns the step at index i, or ok=false past the end.
func StepAt(i int) (Step, bool) {
	if i < 0 || i >= SequenceLen {
		return Step{}, false
	}
	return Sequence[i], true
}

// PhaseAt returns the phase the given action index belongs to. Indexes past
// the end report the final phase.
func PhaseAt(i int) domain.Phase {
	switch {
	case i <= 5:
		return domain.PhaseBan1
	case i <= 11:
		return domain.PhasePick1
	case i <= 15:
		return domain.PhaseBan2
	default:
		return domain.PhasePick2
	}
}

// SlotAt returns which slot (0-4) of the acting side's ban or pick array the
// step at index i fills: the count of earlier steps with the same side and
// action.
func SlotAt(i int) int {
	if i < 0 || i >= SequenceLen {
		return -1
	}
	slot := 0
	for j := 0; j < i; j++ {
		if Sequence[j] == Sequence[i] {
			slot++
		}
	}
	return slot
}
