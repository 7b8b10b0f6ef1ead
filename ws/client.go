package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var (
	ErrClientClosed = errors.New("client closed")
	ErrBackpressure = errors.New("client egress full")
)

// Client is a participant connected over a websocket. Reads happen on the
// session goroutine, writes on the client's own write pump.
type Client struct {
	id         string
	RoomID     string
	Slot       Slot
	connection *websocket.Conn
	manager    *Manager
	logger     *zap.Logger

	mu     sync.Mutex
	egress chan Event
	closed bool
}

func NewClient(conn *websocket.Conn, roomID string, slot Slot, manager *Manager) *Client {
	id := uuid.NewString()

	return &Client{
		id:         id,
		RoomID:     roomID,
		Slot:       slot,
		connection: conn,
		manager:    manager,
		egress:     make(chan Event, manager.config.EgressBuffer),
		logger: manager.logger.With(
			zap.String("room", roomID),
			zap.String("slot", slot.String()),
			zap.String("client", id),
		),
	}
}

func (c *Client) ID() string {
	return c.id
}

// Send queues evt on the egress buffer. It never blocks: a full buffer yields
// ErrBackpressure and a closed client ErrClientClosed.
func (c *Client) Send(evt Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClientClosed
	}

	select {
	case c.egress <- evt:
		return nil
	default:
		return ErrBackpressure
	}
}

// Close closes the egress buffer. The write pump then closes the socket, which
// in turn ends the read loop.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.egress)
	}
}

// Reads frames until the connection fails. The returned error is the reason
// the session ended; it is never nil.
func (c *Client) readMessages(ctx context.Context) error {
	c.connection.SetReadLimit(c.manager.config.ReadLimit)

	if err := c.connection.SetReadDeadline(time.Now().Add(c.manager.config.PongWait)); err != nil {
		return err
	}

	c.connection.SetPongHandler(c.pongHandler)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			_, payload, err := c.connection.ReadMessage()
			if err != nil {
				return err
			}

			var evt Event

			if err := json.Unmarshal(payload, &evt); err != nil {
				c.logger.Debug("ignoring malformed frame", zap.Error(err))
				continue
			}

			if err := c.manager.routeEvent(ctx, evt, c); err != nil {
				c.logger.Warn("error handling event", zap.String("type", evt.Type), zap.Error(err))
			}
		}
	}
}

// writes events pushed to the client's egress buffer
func (c *Client) writeMessages(ctx context.Context) {
	ticker := time.NewTicker(c.manager.config.PingInterval())

	defer func() {
		ticker.Stop()
		c.connection.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-c.egress:
			if !ok {
				// closed by the session or by a same-slot rejoin
				return
			}

			data, err := json.Marshal(evt)
			if err != nil {
				c.logger.Error("marshalling event", zap.String("type", evt.Type), zap.Error(err))
				continue
			}

			if err := c.connection.SetWriteDeadline(time.Now().Add(c.manager.config.WriteWait)); err != nil {
				c.logger.Debug("setting write deadline", zap.Error(err))
				return
			}

			if err := c.connection.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Debug("write error", zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := c.connection.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.manager.config.WriteWait)); err != nil {
				c.logger.Debug("cannot send ping", zap.Error(err))
				return
			}
		}
	}
}

// Sets a new read deadline when a pong is received for a ping message.
func (c *Client) pongHandler(string) error {
	return c.connection.SetReadDeadline(time.Now().Add(c.manager.config.PongWait))
}
