package domain

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneSlots(s ChampionSlots) ChampionSlots {
	if s == nil {
		return nil
	}
	out := make(ChampionSlots, len(s))
	for i, c := range s {
		out[i] = clonePtr(c)
	}
	return out
}

// Clone returns a copy sharing no pointers with the original.
func (s Session) Clone() Session {
	s.Team1CaptainID = clonePtr(s.Team1CaptainID)
	s.Team2CaptainID = clonePtr(s.Team2CaptainID)
	s.StartedAt = clonePtr(s.StartedAt)
	s.CompletedAt = clonePtr(s.CompletedAt)
	return s
}

// Clone returns a copy sharing no pointers or slot arrays with the original.
func (g Game) Clone() Game {
	g.CurrentPhase = clonePtr(g.CurrentPhase)
	g.CurrentTurn = clonePtr(g.CurrentTurn)
	g.TurnStartedAt = clonePtr(g.TurnStartedAt)
	g.Winner = clonePtr(g.Winner)
	g.StartedAt = clonePtr(g.StartedAt)
	g.CompletedAt = clonePtr(g.CompletedAt)
	g.BlueBans = cloneSlots(g.BlueBans)
	g.RedBans = cloneSlots(g.RedBans)
	g.BluePicks = cloneSlots(g.BluePicks)
	g.RedPicks = cloneSlots(g.RedPicks)
	if d := g.EditedPicks.Data(); d != nil {
		edits := make(map[string]string, len(d))
		for k, v := range d {
			edits[k] = v
		}
		g.EditedPicks = NewEditedPicks(edits)
	}
	return g
}

// Clone returns a copy sharing no pointers with the original.
func (p Participant) Clone() Participant {
	p.UserID = clonePtr(p.UserID)
	p.Team = clonePtr(p.Team)
	return p
}

// Clone returns a copy sharing no pointers with the original.
func (m Message) Clone() Message {
	m.UserID = clonePtr(m.UserID)
	return m
}
