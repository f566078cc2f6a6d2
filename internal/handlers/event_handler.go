package handlers

import (
	"encoding/json"
	"log"
	"strconv"
	"time"

	"github.com/acadmate/livechat/internal/handlers/dto"
	"github.com/acadmate/livechat/internal/models"
	"github.com/acadmate/livechat/internal/services"
	"github.com/acadmate/livechat/internal/websocket"
)

// DeliveryPolicy decides whether a failed write gates the broadcast.
type DeliveryPolicy int

const (
	// AlwaysBroadcast delivers to the room even when the write failed.
	// Persistence is best effort; live delivery is not.
	AlwaysBroadcast DeliveryPolicy = iota

	// RequirePersist suppresses the broadcast when the write failed.
	RequirePersist
)

type EventHandler struct {
	store  services.MessageStore
	hub    *websocket.Hub
	caster services.Broadcaster

	// Policy applies to every send_message event this handler sees
	Policy DeliveryPolicy
}

func NewEventHandler(store services.MessageStore, hub *websocket.Hub, caster services.Broadcaster) *EventHandler {
	return &EventHandler{
		store:  store,
		hub:    hub,
		caster: caster,
		Policy: AlwaysBroadcast,
	}
}

func (h *EventHandler) HandleEvent(client *websocket.Client, evt *websocket.Event) error {
	switch evt.Type {
	case websocket.TypeJoinRoom:
		return h.handleJoinRoom(client, evt)

	case websocket.TypeSendMessage:
		return h.handleSendMessage(client, evt)

	default:
		log.Printf("Unknown event type: %s", evt.Type)
		return nil
	}
}

func (h *EventHandler) handleJoinRoom(client *websocket.Client, evt *websocket.Event) error {
	var payload dto.JoinRoomPayload
	if err := json.Unmarshal(evt.Data, &payload); err != nil {
		return websocket.ErrMalformedPayload
	}

	if payload.RequestID == nil {
		return websocket.ErrMalformedPayload
	}

	h.hub.JoinRoom(client, strconv.FormatInt(*payload.RequestID, 10))

	// No ack and no history replay for the joiner
	return nil
}

func (h *EventHandler) handleSendMessage(client *websocket.Client, evt *websocket.Event) error {
	var payload dto.SendMessagePayload
	if err := json.Unmarshal(evt.Data, &payload); err != nil {
		return websocket.ErrMalformedPayload
	}

	if payload.RequestID == nil {
		return websocket.ErrMalformedPayload
	}

	roomID := strconv.FormatInt(*payload.RequestID, 10)

	message := &models.Message{
		RequestID: *payload.RequestID,
		SenderID:  payload.SenderID,
		Content:   payload.Content,
	}

	// Best-effort write: the sender never learns about a failure here
	persistErr := h.store.SaveMessage(message)
	if persistErr != nil {
		log.Printf("Failed to save message: %v", persistErr)
		if h.Policy == RequirePersist {
			return nil
		}
	}

	// Broadcast the raw inbound data, not the persisted row, so nothing
	// store-assigned leaks into the room.
	out := websocket.Event{
		Type:      websocket.TypeNewMessage,
		Data:      evt.Data,
		Timestamp: time.Now(),
	}

	outData, err := json.Marshal(out)
	if err != nil {
		return err
	}

	h.caster.SendToRoom(roomID, outData)

	return nil
}
