package chat

import (
	"slices"
	"strings"
	"sync"
)

// Registry maps normalized room names to rooms. Rooms are created on first
// reference and, when reclamation is enabled, removed once their last member
// leaves.
type Registry struct {
	mu          sync.RWMutex
	rooms       map[string]*Room
	order       []string
	historySize int
	reclaim     bool
}

// NewRegistry creates an empty registry whose rooms keep historySize
// messages. A non-positive historySize selects DefaultHistorySize.
func NewRegistry(historySize int, reclaimEmpty bool) *Registry {
	if historySize <= 0 {
		historySize = DefaultHistorySize
	}
	return &Registry{
		rooms:       make(map[string]*Room),
		historySize: historySize,
		reclaim:     reclaimEmpty,
	}
}

// GetOrCreate returns the room for name, creating it if needed. The name is
// normalized first, so "General " and "general" resolve to the same room.
func (g *Registry) GetOrCreate(name string) *Room {
	name = NormalizeRoom(name)

	g.mu.RLock()
	room, ok := g.rooms[name]
	g.mu.RUnlock()
	if ok {
		return room
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if room, ok := g.rooms[name]; ok {
		return room
	}
	room = newRoom(name, g.historySize)
	g.rooms[name] = room
	g.order = append(g.order, name)
	return room
}

// Lookup returns the resident room for name without creating it.
func (g *Registry) Lookup(name string) (*Room, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	room, ok := g.rooms[NormalizeRoom(name)]
	return room, ok
}

// Len returns the number of resident rooms.
func (g *Registry) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms)
}

// Snapshot returns the occupancy of every resident room in creation order.
// Every room lock is held at once so the counts form a single point-in-time
// view even while participants are switching rooms.
func (g *Registry) Snapshot() Directory {
	g.mu.RLock()
	defer g.mu.RUnlock()

	rooms := make([]*Room, 0, len(g.order))
	for _, name := range g.order {
		rooms = append(rooms, g.rooms[name])
	}

	locking := slices.Clone(rooms)
	slices.SortFunc(locking, func(a, b *Room) int { return strings.Compare(a.name, b.name) })
	for _, room := range locking {
		room.mu.Lock()
	}
	dir := make(Directory, 0, len(rooms))
	for _, room := range rooms {
		dir = append(dir, RoomOccupancy{Room: room.name, Online: len(room.members)})
	}
	for _, room := range locking {
		room.mu.Unlock()
	}
	return dir
}

// Occupancy reports the member count of a single room. Unknown rooms report
// zero and are not created.
func (g *Registry) Occupancy(name string) RoomOccupancy {
	name = NormalizeRoom(name)
	room, ok := g.Lookup(name)
	if !ok {
		return RoomOccupancy{Room: name}
	}
	return RoomOccupancy{Room: name, Online: room.Online()}
}

// acquire returns the room for name with its lock held.
func (g *Registry) acquire(name string) *Room {
	for {
		room := g.GetOrCreate(name)
		room.mu.Lock()
		if !room.reclaimed {
			return room
		}
		room.mu.Unlock()
	}
}

// acquirePair locks from, which the caller is a member of, together with the
// room for name. Locks are taken in name order.
func (g *Registry) acquirePair(from *Room, name string) *Room {
	for {
		to := g.GetOrCreate(name)
		lockPair(from, to)
		if !to.reclaimed {
			return to
		}
		unlockPair(from, to)
	}
}

// reclaimIfEmpty drops room from the registry when reclamation is enabled and
// it has no members. It must be called without any room lock held.
func (g *Registry) reclaimIfEmpty(room *Room) bool {
	if !g.reclaim || room == nil {
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.rooms[room.name] != room {
		return false
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	if len(room.members) > 0 {
		return false
	}
	room.reclaimed = true
	delete(g.rooms, room.name)
	g.order = slices.DeleteFunc(g.order, func(name string) bool { return name == room.name })
	return true
}
