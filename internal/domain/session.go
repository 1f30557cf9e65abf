package domain

import (
	"time"

	"github.com/google/uuid"
)

// Team identifies one of the two team slots in a session. Which side of the
// map a team plays on is a separate, per-game concern.
type Team string

const (
	Team1 Team = "team1"
	Team2 Team = "team2"
)

func (t Team) Other() Team {
	if t == Team1 {
		return Team2
	}
	return Team1
}

func ParseTeam(s string) (Team, bool) {
	switch Team(s) {
	case Team1, Team2:
		return Team(s), true
	}
	return "", false
}

// Side is the map side a team drafts from. The empty string means the team
// has not chosen a side yet.
type Side string

const (
	SideBlue Side = "blue"
	SideRed  Side = "red"
)

func (s Side) Other() Side {
	if s == SideBlue {
		return SideRed
	}
	return SideBlue
}

func ParseSide(s string) (Side, bool) {
	switch Side(s) {
	case SideBlue, SideRed:
		return Side(s), true
	}
	return "", false
}

type DraftMode string

const (
	// ModeNormal carries nothing between games.
	ModeNormal DraftMode = "normal"
	// ModeFearless blocks champions picked in earlier games of the session.
	ModeFearless DraftMode = "fearless"
	// ModeIronman blocks champions picked or banned in earlier games.
	ModeIronman DraftMode = "ironman"
)

func ParseDraftMode(s string) (DraftMode, bool) {
	switch DraftMode(s) {
	case ModeNormal, ModeFearless, ModeIronman:
		return DraftMode(s), true
	}
	return "", false
}

type SessionStatus string

const (
	SessionLobby      SessionStatus = "lobby"
	SessionInProgress SessionStatus = "in_progress"
	SessionPaused     SessionStatus = "paused"
	SessionCompleted  SessionStatus = "completed"
	SessionCancelled  SessionStatus = "cancelled"
)

// Session is the root aggregate for one live draft: lobby setup, series
// configuration, and captaincy. Captains are stored denormalized on the
// session so that claiming a team slot is a single conditional write.
// An authenticated captain has CaptainID set; an anonymous captain has
// CaptainName set instead. At most one of the two is ever non-empty.
type Session struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	InviteToken string    `json:"inviteToken" gorm:"size:20;uniqueIndex;not null"`

	Team1Name string `json:"team1Name" gorm:"size:100;not null"`
	Team2Name string `json:"team2Name" gorm:"size:100;not null"`

	Team1CaptainID   *uuid.UUID `json:"team1CaptainId" gorm:"type:uuid"`
	Team1CaptainName string     `json:"team1CaptainName" gorm:"size:50"`
	Team2CaptainID   *uuid.UUID `json:"team2CaptainId" gorm:"type:uuid"`
	Team2CaptainName string     `json:"team2CaptainName" gorm:"size:50"`

	Team1Side  Side `json:"team1Side" gorm:"size:10"`
	Team2Side  Side `json:"team2Side" gorm:"size:10"`
	Team1Ready bool `json:"team1Ready"`
	Team2Ready bool `json:"team2Ready"`

	DraftMode       DraftMode `json:"draftMode" gorm:"size:20;not null;default:'normal'"`
	PlannedGames    int       `json:"plannedGames" gorm:"not null;default:1"`
	PickTimeSeconds int       `json:"pickTimeSeconds" gorm:"not null;default:30"`
	BanTimeSeconds  int       `json:"banTimeSeconds" gorm:"not null;default:30"`

	Status SessionStatus `json:"status" gorm:"size:20;not null;default:'lobby'"`
	// CurrentGameNumber is 0 while the session is still in the lobby and
	// 1-based once the first game starts.
	CurrentGameNumber int `json:"currentGameNumber" gorm:"not null;default:0"`

	CreatedBy   uuid.UUID  `json:"createdBy" gorm:"type:uuid;not null"`
	StartedAt   *time.Time `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (Session) TableName() string { return "live_draft_sessions" }

// Claimed reports whether the given team slot has a captain, authenticated
// or anonymous.
func (s *Session) Claimed(t Team) bool {
	return s.CaptainID(t) != nil || s.CaptainName(t) != ""
}

func (s *Session) CaptainID(t Team) *uuid.UUID {
	if t == Team1 {
		return s.Team1CaptainID
	}
	return s.Team2CaptainID
}

func (s *Session) CaptainName(t Team) string {
	if t == Team1 {
		return s.Team1CaptainName
	}
	return s.Team2CaptainName
}

func (s *Session) SideOf(t Team) Side {
	if t == Team1 {
		return s.Team1Side
	}
	return s.Team2Side
}

func (s *Session) ReadyOf(t Team) bool {
	if t == Team1 {
		return s.Team1Ready
	}
	return s.Team2Ready
}

func (s *Session) TeamName(t Team) string {
	if t == Team1 {
		return s.Team1Name
	}
	return s.Team2Name
}

// TeamOnSide returns which team slot currently holds the given side.
func (s *Session) TeamOnSide(side Side) (Team, bool) {
	switch side {
	case s.Team1Side:
		return Team1, true
	case s.Team2Side:
		return Team2, true
	}
	return "", false
}

// Active reports whether the session still accepts participant activity.
func (s *Session) Active() bool {
	switch s.Status {
	case SessionLobby, SessionInProgress, SessionPaused:
		return true
	}
	return false
}
