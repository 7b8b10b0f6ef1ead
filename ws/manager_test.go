package ws

import (
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/judgegodwins/chess-relay/game"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*httptest.Server, *Registry) {
	manager, registry := newTestManager()

	router := gin.New()
	router.GET("/ws/:room/:slot", manager.ServeWS)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return srv, registry
}

func dial(t *testing.T, srv *httptest.Server, room, slot string) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/" + room + "/" + slot

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var evt Event
	require.NoError(t, conn.ReadJSON(&evt))

	return evt
}

func sendMove(t *testing.T, conn *websocket.Conn, move string) {
	require.NoError(t, conn.WriteJSON(Event{Type: EventMove, Move: move}))
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func TestSessionScenario(t *testing.T) {
	srv, registry := newTestServer(t)

	white := dial(t, srv, "abcd1234", "white")
	require.Equal(t, NewInitEvent(game.DefaultFEN), readEvent(t, white))

	black := dial(t, srv, "abcd1234", "black")
	require.Equal(t, NewInitEvent(game.DefaultFEN), readEvent(t, black))

	info, ok := registry.Snapshot("abcd1234")
	require.True(t, ok)
	require.True(t, info.Full)

	sendMove(t, white, "e2e4")

	fromWhite := readEvent(t, white)
	fromBlack := readEvent(t, black)

	require.Equal(t, EventMove, fromWhite.Type)
	require.Equal(t, "e2e4", fromWhite.Move)
	require.Equal(t, fromWhite, fromBlack)
	require.True(t, strings.HasPrefix(fromWhite.Position, "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b"))
}

func TestSessionGameOver(t *testing.T) {
	srv, _ := newTestServer(t)

	white := dial(t, srv, "abcd1234", "white")
	readEvent(t, white)
	black := dial(t, srv, "abcd1234", "black")
	readEvent(t, black)

	steps := []struct {
		conn *websocket.Conn
		move string
	}{
		{white, "f2f3"},
		{black, "e7e5"},
		{white, "g2g4"},
		{black, "d8h4"},
	}

	for _, step := range steps {
		sendMove(t, step.conn, step.move)

		for _, conn := range []*websocket.Conn{white, black} {
			evt := readEvent(t, conn)
			require.Equal(t, EventMove, evt.Type)
			require.Equal(t, step.move, evt.Move)
		}
	}

	require.Equal(t, NewGameOverEvent("0-1"), readEvent(t, white))
	require.Equal(t, NewGameOverEvent("0-1"), readEvent(t, black))
}

func TestSessionIgnoresBadInput(t *testing.T) {
	srv, _ := newTestServer(t)

	white := dial(t, srv, "abcd1234", "white")
	readEvent(t, white)
	black := dial(t, srv, "abcd1234", "black")
	readEvent(t, black)

	// illegal move, unknown type, malformed frame, move of the wrong type
	sendMove(t, white, "e2e5")
	require.NoError(t, white.WriteJSON(map[string]string{"type": "chat", "message": "hi"}))
	require.NoError(t, white.WriteMessage(websocket.TextMessage, []byte("{not json")))
	require.NoError(t, white.WriteMessage(websocket.TextMessage, []byte(`{"type":"move","move":42}`)))

	// the connection is still open and the next legal move is the next thing either side sees
	sendMove(t, white, "e2e4")

	for _, conn := range []*websocket.Conn{white, black} {
		evt := readEvent(t, conn)
		require.Equal(t, EventMove, evt.Type)
		require.Equal(t, "e2e4", evt.Move)
	}
}

func TestSessionRejectsInvalidSlot(t *testing.T) {
	srv, registry := newTestServer(t)

	conn := dial(t, srv, "abcd1234", "green")
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	_, _, err := conn.ReadMessage()
	require.True(t, websocket.IsCloseError(err, CloseInvalidSlot), "got %v", err)

	require.Zero(t, registry.Len())
}

func TestSessionRejectsOversizedRoomID(t *testing.T) {
	srv, registry := newTestServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/" + strings.Repeat("a", 65) + "/white"

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Zero(t, registry.Len())
}

func TestSessionDisconnectDestroysRoom(t *testing.T) {
	srv, registry := newTestServer(t)

	white := dial(t, srv, "abcd1234", "white")
	readEvent(t, white)
	black := dial(t, srv, "abcd1234", "black")
	readEvent(t, black)

	require.Equal(t, 1, registry.Len())

	// one graceful close, one abrupt drop
	require.NoError(t, white.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))

	require.Eventually(t, func() bool {
		info, ok := registry.Snapshot("abcd1234")
		return ok && len(info.Slots) == 1 && info.Slots[0] == SlotBlack
	}, 2*time.Second, 10*time.Millisecond)

	black.Close()

	require.Eventually(t, func() bool {
		return registry.Len() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSessionReplacedOccupantIsDroppedSilently(t *testing.T) {
	srv, registry := newTestServer(t)

	first := dial(t, srv, "abcd1234", "white")
	readEvent(t, first)

	second := dial(t, srv, "abcd1234", "white")
	require.Equal(t, NewInitEvent(game.DefaultFEN), readEvent(t, second))

	// the first connection gets no message, just a closed channel
	require.NoError(t, first.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := first.ReadMessage()
	require.Error(t, err)
	require.False(t, isTimeout(err), "expected the server to drop the connection, got %v", err)

	// writes on the dropped connection do not disturb the room
	_ = first.WriteJSON(Event{Type: EventMove, Move: "e2e4"})

	sendMove(t, second, "d2d4")
	evt := readEvent(t, second)
	require.Equal(t, "d2d4", evt.Move)

	info, ok := registry.Snapshot("abcd1234")
	require.True(t, ok)
	require.Equal(t, []Slot{SlotWhite}, info.Slots)
}

func TestCheckOrigin(t *testing.T) {
	manager, _ := newTestManager()

	request := func(origin string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/ws/abcd1234/white", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}

	require.True(t, manager.checkOrigin(request("")))
	require.True(t, manager.checkOrigin(request("http://anywhere.example")))

	manager.config.AllowedOrigins = []string{"http://localhost:3000"}

	require.True(t, manager.checkOrigin(request("")))
	require.True(t, manager.checkOrigin(request("http://localhost:3000")))
	require.False(t, manager.checkOrigin(request("http://anywhere.example")))
}

func TestParseSlot(t *testing.T) {
	slot, err := ParseSlot("white")
	require.NoError(t, err)
	require.Equal(t, SlotWhite, slot)
	require.Equal(t, SlotBlack, slot.Opponent())

	slot, err = ParseSlot("black")
	require.NoError(t, err)
	require.Equal(t, SlotWhite, slot.Opponent())

	for _, s := range []string{"", "White", "green", "spectator"} {
		_, err := ParseSlot(s)
		require.ErrorIs(t, err, ErrInvalidSlot)
	}
}
