package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type GameStatus string

const (
	GamePending   GameStatus = "pending"
	GameDrafting  GameStatus = "drafting"
	GameCompleted GameStatus = "completed"
	GameEditing   GameStatus = "editing"
)

type Phase string

const (
	PhaseBan1  Phase = "ban1"
	PhasePick1 Phase = "pick1"
	PhaseBan2  Phase = "ban2"
	PhasePick2 Phase = "pick2"
)

// SlotsPerSide is the number of bans and of picks each side makes in a
// tournament draft.
const SlotsPerSide = 5

// ChampionSlots is a fixed-length, ordered list of champion ids where a nil
// entry marks a slot that has not been decided yet. Stored as a jsonb array.
type ChampionSlots = datatypes.JSONSlice[*string]

// NewChampionSlots returns SlotsPerSide undecided slots.
func NewChampionSlots() ChampionSlots {
	return make(ChampionSlots, SlotsPerSide)
}

// EditedPicks maps a "side:slot" key (e.g. "blue:2") to the corrected
// champion id. Corrections never touch the live slot arrays.
type EditedPicks = datatypes.JSONType[map[string]string]

// NewEditedPicks wraps a correction map for storage as jsonb.
func NewEditedPicks(m map[string]string) EditedPicks {
	return datatypes.NewJSONType(m)
}

// EditKey builds the key under which a pick correction is recorded.
func EditKey(side Side, slot int) string {
	return fmt.Sprintf("%s:%d", side, slot)
}

// Game is one game of a session's series. Slot arrays are keyed by map side,
// not by team slot; BlueSideTeam says which team drafts from blue this game.
type Game struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	SessionID  uuid.UUID `json:"sessionId" gorm:"type:uuid;not null;uniqueIndex:idx_session_game"`
	GameNumber int       `json:"gameNumber" gorm:"not null;uniqueIndex:idx_session_game"`

	BlueSideTeam Team `json:"blueSideTeam" gorm:"size:10;not null"`

	Status GameStatus `json:"status" gorm:"size:20;not null;default:'pending'"`
	// CurrentPhase and CurrentTurn are nil unless the game is drafting.
	CurrentPhase       *Phase     `json:"currentPhase" gorm:"size:10"`
	CurrentTurn        *Side      `json:"currentTurn" gorm:"size:10"`
	CurrentActionIndex int        `json:"currentActionIndex" gorm:"not null;default:0"`
	TurnStartedAt      *time.Time `json:"turnStartedAt"`

	BlueBans  ChampionSlots `json:"blueBans" gorm:"type:jsonb"`
	RedBans   ChampionSlots `json:"redBans" gorm:"type:jsonb"`
	BluePicks ChampionSlots `json:"bluePicks" gorm:"type:jsonb"`
	RedPicks  ChampionSlots `json:"redPicks" gorm:"type:jsonb"`

	EditedPicks EditedPicks `json:"editedPicks" gorm:"type:jsonb"`

	Winner      *Side      `json:"winner" gorm:"size:10"`
	StartedAt   *time.Time `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (Game) TableName() string { return "live_draft_games" }

// TeamOnSide maps a map side to the team slot playing it this game.
func (g *Game) TeamOnSide(side Side) Team {
	if side == SideBlue {
		return g.BlueSideTeam
	}
	return g.BlueSideTeam.Other()
}

// SideOfTeam maps a team slot to the map side it plays this game.
func (g *Game) SideOfTeam(t Team) Side {
	if t == g.BlueSideTeam {
		return SideBlue
	}
	return SideRed
}

// Bans returns the ban slots for a side.
func (g *Game) Bans(side Side) ChampionSlots {
	if side == SideBlue {
		return g.BlueBans
	}
	return g.RedBans
}

// Picks returns the pick slots for a side.
func (g *Game) Picks(side Side) ChampionSlots {
	if side == SideBlue {
		return g.BluePicks
	}
	return g.RedPicks
}
