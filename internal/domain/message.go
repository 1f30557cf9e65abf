package domain

import (
	"time"

	"github.com/google/uuid"
)

// MaxMessageLength caps chat message content.
const MaxMessageLength = 500

// Message is a chat line scoped to a session. DisplayName is denormalized at
// write time so history survives participants leaving.
type Message struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	SessionID   uuid.UUID  `json:"sessionId" gorm:"type:uuid;not null;index"`
	UserID      *uuid.UUID `json:"userId" gorm:"type:uuid"`
	DisplayName string     `json:"displayName" gorm:"size:50;not null"`
	Content     string     `json:"content" gorm:"size:500;not null"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func (Message) TableName() string { return "live_draft_messages" }
