// Package room holds the room membership table and the private-room
// deriver. Membership is not persisted independent of connections: it
// disappears with the last member and is reconstructed on next join.
package room

import "sync"

// Table maps room identifiers to the set of subscribed connections. A
// connection may belong to many rooms; joining a new room never removes
// earlier subscriptions.
type Table struct {
	mu    sync.RWMutex
	rooms map[string]map[string]struct{} // room -> set of connIDs
}

// NewTable creates an empty membership table.
func NewTable() *Table {
	return &Table{
		rooms: make(map[string]map[string]struct{}),
	}
}

// AddMember subscribes a connection to a room, creating the room entry
// on first join.
func (t *Table) AddMember(roomID, connID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	members, exists := t.rooms[roomID]
	if !exists {
		members = make(map[string]struct{})
		t.rooms[roomID] = members
	}
	members[connID] = struct{}{}
}

// RemoveMember unsubscribes a connection from one room. Empty room
// entries are garbage-collected on the spot.
func (t *Table) RemoveMember(roomID, connID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.removeLocked(roomID, connID)
}

// RemoveAll unsubscribes a connection from every room it belonged to
// and returns those rooms. Called on disconnect.
func (t *Table) RemoveAll(connID string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var left []string
	for roomID, members := range t.rooms {
		if _, ok := members[connID]; ok {
			left = append(left, roomID)
			t.removeLocked(roomID, connID)
		}
	}
	return left
}

func (t *Table) removeLocked(roomID, connID string) {
	members, exists := t.rooms[roomID]
	if !exists {
		return
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(t.rooms, roomID)
	}
}

// MembersOf returns the connections subscribed to a room. A room with
// no entry is simply empty.
func (t *Table) MembersOf(roomID string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	members, exists := t.rooms[roomID]
	if !exists {
		return nil
	}
	connIDs := make([]string, 0, len(members))
	for connID := range members {
		connIDs = append(connIDs, connID)
	}
	return connIDs
}

// Contains reports whether a connection is subscribed to a room.
func (t *Table) Contains(roomID, connID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	_, ok := t.rooms[roomID][connID]
	return ok
}

// RoomCount returns the number of rooms with at least one member.
func (t *Table) RoomCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.rooms)
}
