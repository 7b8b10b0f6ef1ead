package ws

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// MoveResult is what handling one submitted move did.
type MoveResult int

const (
	// MoveIgnored covers illegal or malformed moves, moves from a connection no
	// longer seated in its slot, and moves into a room that is gone.
	MoveIgnored MoveResult = iota
	// MoveAccepted means the move was applied and broadcast.
	MoveAccepted
	// MoveFinished means the move was applied, broadcast, and ended the game.
	MoveFinished
)

func (m *Manager) PieceMoveHandler(ctx context.Context, e Event, c *Client) error {
	m.ApplyMove(c.RoomID, c.Slot, c, e.Move)
	return nil
}

// ApplyMove validates move against the room's position and, if legal, applies
// it and broadcasts the new position to every participant, followed by a
// game_over event when the position is terminal. The whole step runs under the
// room lock, so concurrent submissions are applied one at a time against the
// position left by the previous one.
func (m *Manager) ApplyMove(roomID string, slot Slot, p Participant, move string) MoveResult {
	move = strings.TrimSpace(move)
	result := MoveIgnored

	found := m.registry.Do(roomID, func(rm *Room) {
		logger := rm.logger.With(zap.String("slot", slot.String()), zap.String("move", move))

		if !rm.Seated(slot, p) {
			logger.Debug("ignoring move from unseated participant", zap.String("client", p.ID()))
			return
		}

		position := rm.Position()

		if !position.TryApply(move) {
			logger.Debug("ignoring illegal move")
			return
		}

		rm.Broadcast(NewMoveEvent(move, position.Repr()))
		result = MoveAccepted

		if !position.IsTerminal() {
			return
		}

		outcome, _ := position.Outcome()
		rm.Broadcast(NewGameOverEvent(outcome))
		result = MoveFinished

		logger.Info("game over", zap.String("outcome", outcome))
	})

	if !found {
		m.logger.Debug("ignoring move for unknown room", zap.String("room", roomID))
	}

	return result
}
