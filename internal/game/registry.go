package game

import (
	"math/rand"
	"strings"
	"sync"

	"github.com/avbelov/tunehunt/core/internal/model"
)

const (
	codeLen     = 6
	codeCharset = "abcdefghijklmnopqrstuvwxyz0123456789"

	// ~36 bits of code entropy make in-process collisions vanishingly
	// rare; a handful of retries is enough to never surface one.
	maxCodeAttempts = 5
)

// Registry is the process-wide mapping from room code to live room.
// It is constructed once at startup and injected into the gateway;
// nothing in the codebase reaches for it as a global.
//
// The registry lock is never held across room operations: Create inserts
// a fully built room, and DeleteIfEmpty only consults Room.Empty.
type Registry struct {
	mu    sync.RWMutex
	rooms map[model.RoomID]*Room
}

func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[model.RoomID]*Room),
	}
}

// Create generates a fresh room code, retrying on the off chance of a
// collision, and inserts a new room with the caller as host. A duplicate
// code is never surfaced to callers.
func (reg *Registry) Create(hostConn model.ConnID, hostName string, playlist []model.Track) (*Room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code := buildRoomCode()
		if _, taken := reg.rooms[code]; taken {
			continue
		}
		room := NewRoom(code, playlist, hostConn, hostName)
		reg.rooms[code] = room
		return room, nil
	}
	return nil, ErrNoFreeRoomCode
}

// Get resolves a room code to its live room.
func (reg *Registry) Get(id model.RoomID) (*Room, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	room, ok := reg.rooms[id]
	return room, ok
}

// DeleteIfEmpty removes the entry iff the room currently has zero
// players. Called after every player removal so an abandoned room is
// reclaimed on the last disconnect.
func (reg *Registry) DeleteIfEmpty(id model.RoomID) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	room, ok := reg.rooms[id]
	if !ok || !room.Empty() {
		return false
	}
	delete(reg.rooms, id)
	return true
}

func (reg *Registry) Len() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.rooms)
}

func buildRoomCode() model.RoomID {
	var builder strings.Builder
	builder.Grow(codeLen)

	for i := 0; i < codeLen; i++ {
		builder.WriteByte(codeCharset[rand.Intn(len(codeCharset))])
	}

	return model.RoomID(builder.String())
}
