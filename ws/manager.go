package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/judgegodwins/chess-relay/util"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

type wsURI struct {
	Room string `uri:"room" binding:"required,max=64"`
	Slot string `uri:"slot" binding:"required"`
}

// Manager drives websocket sessions against a shared Registry.
type Manager struct {
	config   *util.Config
	registry *Registry
	handlers map[string]EventHandler
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

func NewManager(config *util.Config, registry *Registry, logger *zap.Logger) *Manager {
	m := &Manager{
		config:   config,
		registry: registry,
		handlers: make(map[string]EventHandler),
		logger:   logger,
	}

	m.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     m.checkOrigin,
	}

	m.setupEventHandlers()

	return m
}

func (m *Manager) setupEventHandlers() {
	m.handlers[EventMove] = m.PieceMoveHandler
}

// Unknown event types are ignored so newer clients can talk to this server.
func (m *Manager) routeEvent(ctx context.Context, evt Event, c *Client) error {
	if handler, ok := m.handlers[evt.Type]; ok {
		return handler(ctx, evt, c)
	}

	c.logger.Debug("ignoring event", zap.String("type", evt.Type))
	return nil
}

// ServeWS upgrades GET /ws/:room/:slot and runs the session until the client goes away.
func (m *Manager) ServeWS(c *gin.Context) {
	var uri wsURI
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": err.Error(),
		})
		return
	}

	conn, err := m.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// the upgrader has already replied with an HTTP error
		m.logger.Warn("error upgrading to websocket connection", zap.Error(err))
		return
	}

	slot, err := ParseSlot(uri.Slot)
	if err != nil {
		m.logger.Info("rejecting connection", zap.String("room", uri.Room), zap.Error(err))
		m.reject(conn, CloseInvalidSlot, ErrInvalidSlot.Error())
		return
	}

	m.serve(c.Request.Context(), NewClient(conn, uri.Room, slot, m))
}

// reject closes conn with code before any message is exchanged.
func (m *Manager) reject(conn *websocket.Conn, code int, reason string) {
	deadline := time.Now().Add(m.config.WriteWait)
	if err := conn.WriteControl(websocket.CloseMessage, closeMessage(code, reason), deadline); err != nil {
		m.logger.Debug("error sending close message", zap.Error(err))
	}

	conn.Close()
}

// serve binds the client to its room, sends the initial position, then reads
// until disconnect. Whatever ends the session, the deferred cleanup unbinds
// the slot.
func (m *Manager) serve(parent context.Context, client *Client) {
	ctx, cancel := context.WithCancel(parent)

	outcome := m.registry.Join(client.RoomID, client.Slot, client, func(rm *Room) {
		if err := client.Send(NewInitEvent(rm.Position().Repr())); err != nil {
			client.logger.Warn("error queueing init event", zap.Error(err))
		}
	})

	client.logger.Info("session started", zap.Stringer("bind", outcome))

	defer func() {
		cancel()
		m.registry.Unbind(client.RoomID, client.Slot, client)
		client.Close()
		client.connection.Close()
	}()

	go client.writeMessages(ctx)

	err := client.readMessages(ctx)

	if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
		client.logger.Warn("session ended", zap.Error(err))
		return
	}

	client.logger.Debug("session ended", zap.Error(err))
}

// checkOrigin admits non-browser clients, which send no Origin header, and
// browsers from an allowed origin. An empty allow list admits everyone.
func (m *Manager) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")

	if origin == "" || len(m.config.AllowedOrigins) == 0 {
		return true
	}

	return lo.Contains(m.config.AllowedOrigins, origin) || lo.Contains(m.config.AllowedOrigins, "*")
}
