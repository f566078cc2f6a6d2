package services

import "github.com/acadmate/livechat/internal/models"

// MessageStore is the durable side of the gateway. *database.Database
// satisfies it; tests swap in fakes.
type MessageStore interface {
	SaveMessage(message *models.Message) error
}

// Broadcaster fans a payload out to every current member of a room.
// The in-process hub satisfies it directly; the Redis relay satisfies it
// for multi-instance deployments.
type Broadcaster interface {
	SendToRoom(roomID string, payload []byte)
}
