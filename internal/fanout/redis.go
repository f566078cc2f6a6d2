package fanout

import (
	"context"
	"encoding/json"
	"log"

	"github.com/go-redis/redis/v8"

	ws "github.com/acadmate/livechat/internal/websocket"
)

// Channel every gateway instance publishes and subscribes on
const defaultChannel = "livechat:rooms"

// envelope carries one broadcast across the relay
type envelope struct {
	Room string          `json:"room"`
	Data json.RawMessage `json:"data"`
}

type publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisFanout relays room broadcasts through Redis pub/sub so that every
// gateway instance, this one included, delivers to its local hub. Local
// delivery therefore goes through the same path as remote delivery.
type RedisFanout struct {
	pub     publisher
	rdb     *redis.Client
	hub     *ws.Hub
	channel string
}

func NewRedisFanout(rdb *redis.Client, hub *ws.Hub) *RedisFanout {
	return &RedisFanout{
		pub:     rdb,
		rdb:     rdb,
		hub:     hub,
		channel: defaultChannel,
	}
}

// SendToRoom publishes the payload on the relay channel. If the publish
// fails, delivery degrades to the local hub so a Redis outage does not
// silence the room for members on this instance.
func (f *RedisFanout) SendToRoom(roomID string, payload []byte) {
	env := envelope{Room: roomID, Data: payload}

	data, err := json.Marshal(env)
	if err != nil {
		log.Printf("Failed to marshal fanout envelope: %v", err)
		return
	}

	if err := f.pub.Publish(context.Background(), f.channel, data).Err(); err != nil {
		log.Printf("Failed to publish to %s: %v", f.channel, err)
		f.hub.SendToRoom(roomID, payload)
	}
}

// Run subscribes to the relay channel and feeds the local hub until the
// context is cancelled
func (f *RedisFanout) Run(ctx context.Context) {
	sub := f.rdb.Subscribe(ctx, f.channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return

		case msg, ok := <-ch:
			if !ok {
				return
			}

			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				log.Printf("Dropping malformed fanout envelope: %v", err)
				continue
			}

			f.hub.SendToRoom(env.Room, env.Data)
		}
	}
}
