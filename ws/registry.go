package ws

import (
	"errors"
	"sync"

	"github.com/judgegodwins/chess-relay/game"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

var ErrRoomNotFound = errors.New("room not found")

// BindOutcome tags what a bind did to the slot.
type BindOutcome int

const (
	// BindFresh means the slot was empty or already held by the same participant.
	BindFresh BindOutcome = iota
	// BindReplaced means another participant held the slot and was closed
	// without being told why.
	BindReplaced
)

func (b BindOutcome) String() string {
	return []string{"fresh", "replaced"}[b]
}

type roomEntry struct {
	mu     sync.Mutex
	room   *Room
	closed bool // set once the room leaves the registry
}

// Registry maps room ids to rooms. All methods are safe for concurrent use.
//
// The registry lock guards the map only; each room has its own lock that is
// held for every read or mutation of the room. When both are needed the
// registry lock is taken first. Nothing performs socket I/O under either lock:
// Broadcast only enqueues onto each participant's egress buffer.
type Registry struct {
	sync.RWMutex
	rooms  map[string]*roomEntry
	oracle game.Oracle
	logger *zap.Logger
}

func NewRegistry(oracle game.Oracle, logger *zap.Logger) *Registry {
	return &Registry{
		rooms:  make(map[string]*roomEntry),
		oracle: oracle,
		logger: logger,
	}
}

// ensureRoom returns the entry for id, creating the room and a fresh position
// if absent. The caller must hold the registry write lock.
func (r *Registry) ensureRoom(id string) *roomEntry {
	entry, ok := r.rooms[id]

	if !ok {
		entry = &roomEntry{room: newRoom(id, r.oracle.NewPosition(), r.logger)}
		r.rooms[id] = entry
		r.logger.Info("room created", zap.String("room", id))
	}

	return entry
}

// Join creates the room if needed and binds p to slot, as one step. onBound,
// when non-nil, runs under the room lock right after the bind so that anything
// it sends is ordered before any later broadcast in the room.
func (r *Registry) Join(id string, slot Slot, p Participant, onBound func(rm *Room)) BindOutcome {
	r.Lock()
	defer r.Unlock()

	entry := r.ensureRoom(id)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	outcome := r.bind(entry.room, slot, p)

	if onBound != nil {
		onBound(entry.room)
	}

	return outcome
}

// Bind places p in slot of an existing room.
func (r *Registry) Bind(id string, slot Slot, p Participant) (BindOutcome, error) {
	var outcome BindOutcome

	ok := r.Do(id, func(rm *Room) {
		outcome = r.bind(rm, slot, p)
	})

	if !ok {
		return BindFresh, ErrRoomNotFound
	}

	return outcome, nil
}

func (r *Registry) bind(rm *Room, slot Slot, p Participant) BindOutcome {
	prior := rm.occupants[slot]
	rm.occupants[slot] = p

	if prior == nil || prior.ID() == p.ID() {
		rm.logger.Info("participant bound", zap.String("slot", slot.String()), zap.String("client", p.ID()))
		return BindFresh
	}

	prior.Close()

	rm.logger.Info("participant replaced",
		zap.String("slot", slot.String()),
		zap.String("client", p.ID()),
		zap.String("replaced", prior.ID()),
	)

	return BindReplaced
}

// Unbind removes p from slot if p still holds it. The room is destroyed, along
// with its position, once no slot is bound. It reports whether the room was
// destroyed by this call.
func (r *Registry) Unbind(id string, slot Slot, p Participant) bool {
	r.Lock()
	defer r.Unlock()

	entry, ok := r.rooms[id]
	if !ok {
		return false
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	rm := entry.room

	if rm.Seated(slot, p) {
		delete(rm.occupants, slot)
		rm.logger.Info("participant unbound", zap.String("slot", slot.String()), zap.String("client", p.ID()))
	}

	if !rm.empty() {
		return false
	}

	entry.closed = true
	delete(r.rooms, id)
	rm.logger.Info("room destroyed")

	return true
}

// Do runs fn with exclusive access to the room. It reports false, without
// calling fn, if the room does not exist.
func (r *Registry) Do(id string, fn func(rm *Room)) bool {
	r.RLock()
	entry, ok := r.rooms[id]
	r.RUnlock()

	if !ok {
		return false
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	// the room may have been destroyed between the lookup and the lock
	if entry.closed {
		return false
	}

	fn(entry.room)

	return true
}

// Broadcast queues evt to every participant in the room and returns how many
// accepted it.
func (r *Registry) Broadcast(id string, evt Event) int {
	delivered := 0

	r.Do(id, func(rm *Room) {
		delivered = rm.Broadcast(evt)
	})

	return delivered
}

// Opponent returns the participant in the slot opposite to slot, or nil.
func (r *Registry) Opponent(id string, slot Slot) Participant {
	var opponent Participant

	r.Do(id, func(rm *Room) {
		opponent = rm.Occupant(slot.Opponent())
	})

	return opponent
}

func (r *Registry) Snapshot(id string) (RoomInfo, bool) {
	var info RoomInfo

	ok := r.Do(id, func(rm *Room) {
		info = rm.info()
	})

	return info, ok
}

// Len returns the number of live rooms.
func (r *Registry) Len() int {
	r.RLock()
	defer r.RUnlock()

	return len(r.rooms)
}

func (r *Registry) RoomIDs() []string {
	r.RLock()
	defer r.RUnlock()

	return lo.Keys(r.rooms)
}
