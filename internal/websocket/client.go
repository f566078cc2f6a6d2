package websocket

import (
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Write deadline
	writeWait = 10 * time.Second

	// How long to wait for a pong from the client
	pongWait = 60 * time.Second

	// Ping interval
	pingPeriod = (pongWait * 9) / 10

	// Maximum inbound event size
	maxMessageSize = 512 * 1024 // 512KB
)

type ClientEventHandler interface {
	HandleEvent(client *Client, evt *Event) error
}

func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		ID:    uuid.New(),
		Conn:  conn,
		Send:  make(chan []byte, 256),
		Rooms: make(map[string]bool),
		Hub:   hub,
	}
}

// ReadPump reads events from the connection and dispatches them
func (c *Client) ReadPump(handler ClientEventHandler) {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var evt Event
		err := c.Conn.ReadJSON(&evt)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		if evt.Type == TypePong {
			continue
		}

		if handler != nil {
			if err := handler.HandleEvent(c, &evt); err != nil {
				log.Printf("Error handling %s event: %v", evt.Type, err)
				c.SendError(err.Error())
			}
		}
	}
}

// WritePump drains the send queue to the connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

			// Flush anything that queued up behind this write
			n := len(c.Send)
			for i := 0; i < n; i++ {
				if err := c.Conn.WriteMessage(websocket.TextMessage, <-c.Send); err != nil {
					return
				}
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) SendEvent(evtType EventType, data interface{}) error {
	evt := Event{
		Type:      evtType,
		Timestamp: time.Now(),
	}

	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			return err
		}
		evt.Data = jsonData
	}

	evtData, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	select {
	case c.Send <- evtData:
		return nil
	default:
		return ErrClientQueueFull
	}
}

func (c *Client) SendError(errorMsg string) {
	c.SendEvent(TypeError, map[string]string{
		"error": errorMsg,
	})
}

func (c *Client) IsInRoom(roomID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Rooms[roomID]
}
