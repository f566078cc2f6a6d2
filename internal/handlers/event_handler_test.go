package handlers_test

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/acadmate/livechat/internal/handlers"
	"github.com/acadmate/livechat/internal/models"
	ws "github.com/acadmate/livechat/internal/websocket"
)

type fakeStore struct {
	mu    sync.Mutex
	saved []*models.Message
	err   error
}

func (s *fakeStore) SaveMessage(message *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, message)
	return nil
}

func (s *fakeStore) Saved() []*models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]*models.Message(nil), s.saved...)
}

type broadcastCall struct {
	roomID  string
	payload []byte
}

type fakeBroadcaster struct {
	calls []broadcastCall
}

func (b *fakeBroadcaster) SendToRoom(roomID string, payload []byte) {
	b.calls = append(b.calls, broadcastCall{roomID: roomID, payload: payload})
}

func newHandlerUnderTest(store *fakeStore) (*handlers.EventHandler, *ws.Hub, *fakeBroadcaster) {
	hub := ws.NewHub()
	caster := &fakeBroadcaster{}
	return handlers.NewEventHandler(store, hub, caster), hub, caster
}

func sendEvent(data string) *ws.Event {
	return &ws.Event{Type: ws.TypeSendMessage, Data: json.RawMessage(data)}
}

func joinEvent(data string) *ws.Event {
	return &ws.Event{Type: ws.TypeJoinRoom, Data: json.RawMessage(data)}
}

func decodeBroadcast(t *testing.T, payload []byte) ws.Event {
	t.Helper()

	var evt ws.Event
	if err := json.Unmarshal(payload, &evt); err != nil {
		t.Fatalf("broadcast payload is not an event envelope: %v", err)
	}
	return evt
}

func TestSendMessagePersistsAndBroadcasts(t *testing.T) {
	store := &fakeStore{}
	h, hub, caster := newHandlerUnderTest(store)
	client := ws.NewClient(hub, nil)

	data := `{"request_id":42,"sender_id":7,"content":"hello"}`
	if err := h.HandleEvent(client, sendEvent(data)); err != nil {
		t.Fatalf("HandleEvent returned %v", err)
	}

	if len(store.Saved()) != 1 {
		t.Fatalf("expected exactly 1 persisted message, got %d", len(store.Saved()))
	}
	msg := store.Saved()[0]
	if msg.RequestID != 42 || msg.SenderID != 7 || msg.Content != "hello" {
		t.Errorf("persisted message = %+v, want request 42 / sender 7 / %q", msg, "hello")
	}

	if len(caster.calls) != 1 {
		t.Fatalf("expected exactly 1 broadcast, got %d", len(caster.calls))
	}
	if caster.calls[0].roomID != "42" {
		t.Errorf("broadcast room = %q, want %q", caster.calls[0].roomID, "42")
	}

	evt := decodeBroadcast(t, caster.calls[0].payload)
	if evt.Type != ws.TypeNewMessage {
		t.Errorf("broadcast type = %q, want %q", evt.Type, ws.TypeNewMessage)
	}
	if string(evt.Data) != data {
		t.Errorf("broadcast data = %s, want the raw inbound payload %s", evt.Data, data)
	}
}

func TestPersistenceFailureDoesNotBlockBroadcast(t *testing.T) {
	store := &fakeStore{err: errors.New("store unreachable")}
	h, hub, caster := newHandlerUnderTest(store)
	client := ws.NewClient(hub, nil)

	data := `{"request_id":42,"sender_id":7,"content":"hello"}`

	// The sender must see no error even though the write failed
	if err := h.HandleEvent(client, sendEvent(data)); err != nil {
		t.Fatalf("HandleEvent surfaced a persistence failure: %v", err)
	}

	if len(store.Saved()) != 0 {
		t.Errorf("expected zero persisted rows, got %d", len(store.Saved()))
	}
	if len(caster.calls) != 1 {
		t.Fatalf("expected exactly 1 broadcast despite store failure, got %d", len(caster.calls))
	}
	if caster.calls[0].roomID != "42" {
		t.Errorf("broadcast room = %q, want %q", caster.calls[0].roomID, "42")
	}
}

func TestRequirePersistSuppressesBroadcast(t *testing.T) {
	store := &fakeStore{err: errors.New("store unreachable")}
	h, hub, caster := newHandlerUnderTest(store)
	h.Policy = handlers.RequirePersist
	client := ws.NewClient(hub, nil)

	if err := h.HandleEvent(client, sendEvent(`{"request_id":42,"sender_id":7,"content":"hi"}`)); err != nil {
		t.Fatalf("HandleEvent returned %v", err)
	}

	if len(caster.calls) != 0 {
		t.Errorf("expected no broadcast under RequirePersist, got %d", len(caster.calls))
	}
}

func TestJoinRoomRegistersMembership(t *testing.T) {
	h, hub, _ := newHandlerUnderTest(&fakeStore{})
	client := ws.NewClient(hub, nil)

	if err := h.HandleEvent(client, joinEvent(`{"request_id":42}`)); err != nil {
		t.Fatalf("HandleEvent returned %v", err)
	}
	if err := h.HandleEvent(client, joinEvent(`{"request_id":42}`)); err != nil {
		t.Fatalf("second join returned %v", err)
	}

	if got := len(hub.RoomMembers("42")); got != 1 {
		t.Errorf("expected 1 member in room 42, got %d", got)
	}
	if !client.IsInRoom("42") {
		t.Error("client does not know it joined room 42")
	}
}

func TestMalformedPayloadRejected(t *testing.T) {
	cases := []struct {
		name string
		evt  *ws.Event
	}{
		{"join without request_id", joinEvent(`{}`)},
		{"join with invalid json", joinEvent(`{"request_id":`)},
		{"send without request_id", sendEvent(`{"sender_id":7,"content":"hello"}`)},
		{"send with invalid json", sendEvent(`not json`)},
		{"send with non-numeric request_id", sendEvent(`{"request_id":"forty-two"}`)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := &fakeStore{}
			h, hub, caster := newHandlerUnderTest(store)
			client := ws.NewClient(hub, nil)

			if err := h.HandleEvent(client, tc.evt); !errors.Is(err, ws.ErrMalformedPayload) {
				t.Errorf("HandleEvent = %v, want ErrMalformedPayload", err)
			}
			if len(store.Saved()) != 0 {
				t.Errorf("malformed event persisted %d rows", len(store.Saved()))
			}
			if len(caster.calls) != 0 {
				t.Errorf("malformed event broadcast %d times", len(caster.calls))
			}
		})
	}
}

func TestSequentialSendsBroadcastInOrder(t *testing.T) {
	h, hub, caster := newHandlerUnderTest(&fakeStore{})
	client := ws.NewClient(hub, nil)

	first := `{"request_id":42,"sender_id":7,"content":"first"}`
	second := `{"request_id":42,"sender_id":7,"content":"second"}`

	if err := h.HandleEvent(client, sendEvent(first)); err != nil {
		t.Fatalf("first send returned %v", err)
	}
	if err := h.HandleEvent(client, sendEvent(second)); err != nil {
		t.Fatalf("second send returned %v", err)
	}

	if len(caster.calls) != 2 {
		t.Fatalf("expected 2 broadcasts, got %d", len(caster.calls))
	}
	for i, want := range []string{first, second} {
		evt := decodeBroadcast(t, caster.calls[i].payload)
		if string(evt.Data) != want {
			t.Errorf("broadcast %d data = %s, want %s", i, evt.Data, want)
		}
	}
}

func TestUnknownEventIgnored(t *testing.T) {
	store := &fakeStore{}
	h, hub, caster := newHandlerUnderTest(store)
	client := ws.NewClient(hub, nil)

	evt := &ws.Event{Type: "typing", Data: json.RawMessage(`{"request_id":42}`)}
	if err := h.HandleEvent(client, evt); err != nil {
		t.Errorf("unknown event type returned %v", err)
	}
	if len(store.Saved()) != 0 || len(caster.calls) != 0 {
		t.Error("unknown event type had side effects")
	}
}
