package ws

import (
	"context"

	"github.com/gorilla/websocket"
)

// Event is the single JSON frame shape used in both directions. Fields that do
// not apply to a given type are omitted.
type Event struct {
	Type     string `json:"type"`
	Move     string `json:"move,omitempty"`
	Position string `json:"position,omitempty"`
	Outcome  string `json:"outcome,omitempty"`
}

type EventHandler func(ctx context.Context, evt Event, c *Client) error

const (
	EventInit     = "init"
	EventMove     = "move"
	EventGameOver = "game_over"
)

// CloseInvalidSlot is sent when a client asks for a slot other than white or black.
const CloseInvalidSlot = 4000

func NewInitEvent(position string) Event {
	return Event{Type: EventInit, Position: position}
}

func NewMoveEvent(move, position string) Event {
	return Event{Type: EventMove, Move: move, Position: position}
}

func NewGameOverEvent(outcome string) Event {
	return Event{Type: EventGameOver, Outcome: outcome}
}

func closeMessage(code int, reason string) []byte {
	return websocket.FormatCloseMessage(code, reason)
}
