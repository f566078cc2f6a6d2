package websocket

import "errors"

var (
	ErrClientQueueFull  = errors.New("client message queue is full")
	ErrMalformedPayload = errors.New("malformed event payload")
)
