package client

import (
	"time"

	"github.com/google/uuid"
)

// Mirrors of the server's wire types. The server owns these shapes; this
// package tracks them so importers never reach into its internals.

type Team string

const (
	Team1 Team = "team1"
	Team2 Team = "team2"
)

type Side string

const (
	SideBlue Side = "blue"
	SideRed  Side = "red"
)

type DraftMode string

const (
	ModeNormal   DraftMode = "normal"
	ModeFearless DraftMode = "fearless"
	ModeIronman  DraftMode = "ironman"
)

type SessionStatus string

const (
	SessionLobby      SessionStatus = "lobby"
	SessionInProgress SessionStatus = "in_progress"
	SessionPaused     SessionStatus = "paused"
	SessionCompleted  SessionStatus = "completed"
	SessionCancelled  SessionStatus = "cancelled"
)

type GameStatus string

const (
	GamePending   GameStatus = "pending"
	GameDrafting  GameStatus = "drafting"
	GameCompleted GameStatus = "completed"
	GameEditing   GameStatus = "editing"
)

type Role string

const (
	RoleTeam1Captain Role = "team1_captain"
	RoleTeam2Captain Role = "team2_captain"
	RoleSpectator    Role = "spectator"
	RoleUnaffiliated Role = "unaffiliated"
)

// ChampionSlots is an ordered list of five slots; nil marks an undecided one.
type ChampionSlots []*string

type Session struct {
	ID          uuid.UUID `json:"id"`
	InviteToken string    `json:"inviteToken"`

	Team1Name string `json:"team1Name"`
	Team2Name string `json:"team2Name"`

	Team1CaptainID   *uuid.UUID `json:"team1CaptainId"`
	Team1CaptainName string     `json:"team1CaptainName"`
	Team2CaptainID   *uuid.UUID `json:"team2CaptainId"`
	Team2CaptainName string     `json:"team2CaptainName"`

	Team1Side  Side `json:"team1Side"`
	Team2Side  Side `json:"team2Side"`
	Team1Ready bool `json:"team1Ready"`
	Team2Ready bool `json:"team2Ready"`

	DraftMode       DraftMode `json:"draftMode"`
	PlannedGames    int       `json:"plannedGames"`
	PickTimeSeconds int       `json:"pickTimeSeconds"`
	BanTimeSeconds  int       `json:"banTimeSeconds"`

	Status            SessionStatus `json:"status"`
	CurrentGameNumber int           `json:"currentGameNumber"`

	CreatedBy   uuid.UUID  `json:"createdBy"`
	StartedAt   *time.Time `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type Game struct {
	ID         uuid.UUID `json:"id"`
	SessionID  uuid.UUID `json:"sessionId"`
	GameNumber int       `json:"gameNumber"`

	BlueSideTeam Team `json:"blueSideTeam"`

	Status             GameStatus `json:"status"`
	CurrentPhase       *string    `json:"currentPhase"`
	CurrentTurn        *Side      `json:"currentTurn"`
	CurrentActionIndex int        `json:"currentActionIndex"`
	TurnStartedAt      *time.Time `json:"turnStartedAt"`

	BlueBans  ChampionSlots `json:"blueBans"`
	RedBans   ChampionSlots `json:"redBans"`
	BluePicks ChampionSlots `json:"bluePicks"`
	RedPicks  ChampionSlots `json:"redPicks"`

	// EditedPicks maps "side:slot" to the corrected champion.
	EditedPicks map[string]string `json:"editedPicks"`

	Winner      *Side      `json:"winner"`
	StartedAt   *time.Time `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type Participant struct {
	ID              uuid.UUID  `json:"id"`
	SessionID       uuid.UUID  `json:"sessionId"`
	UserID          *uuid.UUID `json:"userId"`
	ParticipantType string     `json:"participantType"`
	Team            *Side      `json:"team"`
	DisplayName     string     `json:"displayName"`
	IsConnected     bool       `json:"isConnected"`
	LastSeenAt      time.Time  `json:"lastSeenAt"`
	IsCaptain       bool       `json:"isCaptain"`
	JoinedAt        time.Time  `json:"joinedAt"`
}

type Message struct {
	ID          uuid.UUID  `json:"id"`
	SessionID   uuid.UUID  `json:"sessionId"`
	UserID      *uuid.UUID `json:"userId"`
	DisplayName string     `json:"displayName"`
	Content     string     `json:"content"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Snapshot is the full state a client renders from, re-fetched whole on
// every change signal.
type Snapshot struct {
	Session      Session       `json:"session"`
	Games        []Game        `json:"games"`
	Participants []Participant `json:"participants"`
}

// CurrentGame returns the game the session is on, nil while in the lobby.
func (s *Snapshot) CurrentGame() *Game {
	for i := range s.Games {
		if s.Games[i].GameNumber == s.Session.CurrentGameNumber {
			return &s.Games[i]
		}
	}
	return nil
}

// Change tells the client which table of a session moved. It carries no
// data: receiving one means "re-fetch the snapshot".
type Change struct {
	Table     string    `json:"table"`
	SessionID uuid.UUID `json:"sessionId"`
}

type CreateSessionParams struct {
	Team1Name       string    `json:"team1Name,omitempty"`
	Team2Name       string    `json:"team2Name,omitempty"`
	DraftMode       DraftMode `json:"draftMode,omitempty"`
	PlannedGames    int       `json:"plannedGames,omitempty"`
	PickTimeSeconds int       `json:"pickTimeSeconds,omitempty"`
	BanTimeSeconds  int       `json:"banTimeSeconds,omitempty"`
}

type SubmitActionParams struct {
	Side     Side   `json:"side"`
	Action   string `json:"action"`
	Champion string `json:"champion"`
	// ExpectedIndex pins the submission to the turn the client saw.
	ExpectedIndex *int `json:"expectedIndex,omitempty"`
}

type EditPickParams struct {
	Side     Side   `json:"side"`
	Slot     int    `json:"slot"`
	Champion string `json:"champion"`
}
