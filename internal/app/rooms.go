package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/beacon/internal/core"
	"github.com/dkeye/beacon/internal/domain"
)

// Rooms manages conversation-scoped broadcast groups. Membership is the set
// of live connections that joined; nothing here is persisted and no
// authorization is checked — the gateway hands us identifiers it trusts.
type Rooms struct {
	mu    sync.RWMutex
	rooms map[domain.ConversationID]map[domain.UserID]core.SignalConnection
}

func NewRooms() *Rooms {
	return &Rooms{rooms: make(map[domain.ConversationID]map[domain.UserID]core.SignalConnection)}
}

// Join is idempotent; joining twice with the same connection is a no-op,
// joining with a fresh connection replaces the member's transport.
func (r *Rooms) Join(cid domain.ConversationID, uid domain.UserID, conn core.SignalConnection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[cid]
	if !ok {
		room = make(map[domain.UserID]core.SignalConnection)
		r.rooms[cid] = room
	}
	room[uid] = conn
	log.Info().Str("module", "app.rooms").Str("conversation", string(cid)).Str("user", string(uid)).Msg("joined room")
}

// Leave is idempotent; leaving a room never joined is safe.
func (r *Rooms) Leave(cid domain.ConversationID, uid domain.UserID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[cid]
	if !ok {
		return
	}
	delete(room, uid)
	if len(room) == 0 {
		delete(r.rooms, cid)
	}
	log.Info().Str("module", "app.rooms").Str("conversation", string(cid)).Str("user", string(uid)).Msg("left room")
}

// LeaveAll drops the user from every room, but only where the membership
// still belongs to conn. Cleanup of a stale handle after a reconnect must
// not evict the successor connection's memberships.
func (r *Rooms) LeaveAll(uid domain.UserID, conn core.SignalConnection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for cid, room := range r.rooms {
		if cur, ok := room[uid]; ok && cur == conn {
			delete(room, uid)
			if len(room) == 0 {
				delete(r.rooms, cid)
			}
		}
	}
}

func (r *Rooms) Members(cid domain.ConversationID) []domain.UserID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room := r.rooms[cid]
	out := make([]domain.UserID, 0, len(room))
	for uid := range room {
		out = append(out, uid)
	}
	return out
}

// Relay delivers a frame to every room member except the sender.
// At-most-once per member present at call time; no replay for late joiners.
func (r *Rooms) Relay(cid domain.ConversationID, from domain.UserID, f core.Frame) core.PublishResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := core.PublishResult{}
	for uid, conn := range r.rooms[cid] {
		if uid == from {
			continue
		}
		if err := conn.TrySend(f); err != nil {
			res.Dropped = append(res.Dropped, uid)
			continue
		}
		res.SentTo++
	}
	log.Debug().Str("module", "app.rooms").Str("conversation", string(cid)).Str("from", string(from)).Int("sent_to", res.SentTo).Int("dropped", len(res.Dropped)).Msg("relay result")
	return res
}
