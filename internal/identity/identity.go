// Package identity answers "who is this request acting as" for a session.
// There are no draft-scoped accounts: an authenticated user is recognized by
// user id, an anonymous captain by the display name remembered on their
// device. Roles are recomputed from the session row on every call and never
// cached server-side, so captaincy changes take effect on the next request.
package identity

import (
	"github.com/google/uuid"

	"github.com/draftforge/livedraft-backend/internal/domain"
)

type Role string

const (
	RoleTeam1Captain Role = "team1_captain"
	RoleTeam2Captain Role = "team2_captain"
	RoleSpectator    Role = "spectator"
	RoleUnaffiliated Role = "unaffiliated"
)

// CaptainRole maps a team slot to its captain role.
func CaptainRole(t domain.Team) Role {
	if t == domain.Team1 {
		return RoleTeam1Captain
	}
	return RoleTeam2Captain
}

// Team returns the team a captain role controls.
func (r Role) Team() (domain.Team, bool) {
	switch r {
	case RoleTeam1Captain:
		return domain.Team1, true
	case RoleTeam2Captain:
		return domain.Team2, true
	}
	return "", false
}

// Cached is what a client device remembers about itself for a session: the
// display name an anonymous captain claimed with, and the participant row it
// was handed when joining. Losing it orphans an anonymous captaincy.
type Cached struct {
	DisplayName   string    `json:"displayName"`
	ParticipantID uuid.UUID `json:"participantId"`
}

// IsCaptain reports whether the given credentials hold the team's captain
// slot. An authenticated claim matches only by user id; an anonymous claim
// matches by display name.
func IsCaptain(s *domain.Session, t domain.Team, userID *uuid.UUID, displayName string) bool {
	if id := s.CaptainID(t); id != nil {
		return userID != nil && *userID == *id
	}
	if name := s.CaptainName(t); name != "" {
		return displayName == name
	}
	return false
}

// Resolve computes the caller's role for a session. Checks run in order:
// authenticated captaincy, anonymous captaincy by remembered name, then a
// recorded spectator row. Anything else is unaffiliated.
func Resolve(s *domain.Session, participants []domain.Participant, userID *uuid.UUID, cached *Cached) Role {
	name := ""
	if cached != nil {
		name = cached.DisplayName
	}
	for _, t := range []domain.Team{domain.Team1, domain.Team2} {
		if id := s.CaptainID(t); id != nil {
			if userID != nil && *userID == *id {
				return CaptainRole(t)
			}
			continue
		}
		if n := s.CaptainName(t); n != "" && n == name {
			return CaptainRole(t)
		}
	}
	for i := range participants {
		p := &participants[i]
		if p.ParticipantType != domain.ParticipantSpectator {
			continue
		}
		if userID != nil && p.UserID != nil && *p.UserID == *userID {
			return RoleSpectator
		}
		if cached != nil && cached.ParticipantID != uuid.Nil && p.ID == cached.ParticipantID {
			return RoleSpectator
		}
	}
	return RoleUnaffiliated
}
