package dto

// JoinRoomPayload is the data of an inbound join_room event. RequestID is a
// pointer so a missing field can be told apart from a literal zero.
type JoinRoomPayload struct {
	RequestID *int64 `json:"request_id"`
}

// SendMessagePayload is the data of an inbound send_message event. Sender and
// content are opaque to the gateway and pass through unvalidated.
type SendMessagePayload struct {
	RequestID *int64 `json:"request_id"`
	SenderID  int64  `json:"sender_id"`
	Content   string `json:"content"`
}
