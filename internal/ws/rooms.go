package ws

import (
	"log"
	"sync"

	"server_go/internal/service"
)

// Rooms groups live sessions into rooms keyed by conversation ID and routes
// events to exactly the members of one room. A session is a member of at
// most one room at a time.
type Rooms struct {
	mu      sync.RWMutex
	members map[int64]map[*Session]struct{}
	current map[*Session]int64
}

func NewRooms() *Rooms {
	return &Rooms{
		members: make(map[int64]map[*Session]struct{}),
		current: make(map[*Session]int64),
	}
}

var _ service.RoomBroadcaster = (*Rooms)(nil)

// Join moves the session into the conversation's room. This is a full
// replace: any previous room membership is removed first, under the same
// lock, so the one-room-per-session invariant holds across concurrent joins.
func (r *Rooms) Join(s *Session, conversationID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.removeLocked(s)

	room, ok := r.members[conversationID]
	if !ok {
		room = make(map[*Session]struct{})
		r.members[conversationID] = room
	}
	room[s] = struct{}{}
	r.current[s] = conversationID
}

// Leave removes the session from its room, if any.
func (r *Rooms) Leave(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(s)
}

func (r *Rooms) removeLocked(s *Session) {
	prev, ok := r.current[s]
	if !ok {
		return
	}
	delete(r.current, s)
	if room, ok := r.members[prev]; ok {
		delete(room, s)
		if len(room) == 0 {
			delete(r.members, prev)
		}
	}
}

// Current returns the session's room, if it is in one.
func (r *Rooms) Current(s *Session) (int64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.current[s]
	return id, ok
}

// Broadcast delivers the event to every session in the conversation's room
// and nowhere else. A failed write affects only that one connection.
func (r *Rooms) Broadcast(conversationID int64, event any) {
	r.mu.RLock()
	sessions := make([]*Session, 0, len(r.members[conversationID]))
	for s := range r.members[conversationID] {
		sessions = append(sessions, s)
	}
	r.mu.RUnlock()

	for _, s := range sessions {
		if err := s.WriteEvent(event); err != nil {
			log.Printf("ws: broadcast to session %s: %v", s.ID, err)
		}
	}
}
