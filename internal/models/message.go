package models

import (
	"github.com/google/uuid"
	"time"
)

type Message struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	RequestID int64     `gorm:"not null;index"`
	SenderID  int64     `gorm:"not null"`
	Content   string    `gorm:"not null"`
	CreatedAt time.Time
}
