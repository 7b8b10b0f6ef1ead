package ws

import (
	"github.com/judgegodwins/chess-relay/game"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Participant is one joined client as seen by a room.
type Participant interface {
	ID() string
	// Send queues evt for delivery without blocking.
	Send(evt Event) error
	// Close stops delivery. Later sends fail with ErrClientClosed.
	Close()
}

// Room is one game: its position and the participant in each slot. A Room is
// not safe for concurrent use on its own; the Registry hands it out only under
// the room's lock (see Registry.Do).
type Room struct {
	ID        string
	position  game.Position
	occupants map[Slot]Participant
	logger    *zap.Logger
}

func newRoom(id string, position game.Position, logger *zap.Logger) *Room {
	return &Room{
		ID:        id,
		position:  position,
		occupants: make(map[Slot]Participant),
		logger:    logger.With(zap.String("room", id)),
	}
}

func (rm *Room) Position() game.Position {
	return rm.position
}

// Occupant returns the participant bound to slot, or nil.
func (rm *Room) Occupant(slot Slot) Participant {
	return rm.occupants[slot]
}

// Seated reports whether p is the current occupant of slot.
func (rm *Room) Seated(slot Slot, p Participant) bool {
	occupant := rm.occupants[slot]
	return occupant != nil && occupant.ID() == p.ID()
}

// Slots returns the occupied slots in broadcast order.
func (rm *Room) Slots() []Slot {
	return lo.Filter(AllSlots, func(s Slot, _ int) bool {
		return rm.occupants[s] != nil
	})
}

func (rm *Room) empty() bool {
	return len(rm.occupants) == 0
}

// Broadcast queues evt to every occupant. A failed delivery is logged and does
// not affect the others. It returns the number of participants that accepted
// the event.
func (rm *Room) Broadcast(evt Event) int {
	delivered := 0

	for _, slot := range rm.Slots() {
		p := rm.occupants[slot]

		if err := p.Send(evt); err != nil {
			rm.logger.Warn("dropping event for participant",
				zap.String("slot", slot.String()),
				zap.String("client", p.ID()),
				zap.String("type", evt.Type),
				zap.Error(err),
			)
			continue
		}

		delivered++
	}

	return delivered
}

type RoomInfo struct {
	ID    string `json:"id"`
	Slots []Slot `json:"slots"`
	Full  bool   `json:"full"`
}

func (rm *Room) info() RoomInfo {
	slots := rm.Slots()

	return RoomInfo{
		ID:    rm.ID,
		Slots: slots,
		Full:  len(slots) == len(AllSlots),
	}
}
