package domain

import (
	"time"

	"github.com/google/uuid"
)

type ParticipantType string

const (
	// ParticipantController acts for a team: a captain.
	ParticipantController ParticipantType = "controller"
	ParticipantSpectator  ParticipantType = "spectator"
)

// Participant records presence in a session. Rows here are bookkeeping for
// the roster view; authorization is resolved from the session's captain
// fields, never from this table.
type Participant struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	SessionID uuid.UUID `json:"sessionId" gorm:"type:uuid;not null;index"`
	// UserID is nil for anonymous participants.
	UserID          *uuid.UUID      `json:"userId" gorm:"type:uuid"`
	ParticipantType ParticipantType `json:"participantType" gorm:"size:20;not null"`
	// Team is the map side the participant acts for, nil for spectators and
	// for captains whose team has not chosen a side yet.
	Team        *Side     `json:"team" gorm:"size:10"`
	DisplayName string    `json:"displayName" gorm:"size:50;not null"`
	IsConnected bool      `json:"isConnected" gorm:"not null;default:true"`
	LastSeenAt  time.Time `json:"lastSeenAt"`
	IsCaptain   bool      `json:"isCaptain" gorm:"not null;default:false"`
	JoinedAt    time.Time `json:"joinedAt"`
}

func (Participant) TableName() string { return "live_draft_participants" }
