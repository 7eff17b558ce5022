package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/beacon/internal/core"
	"github.com/dkeye/beacon/internal/domain"
)

// Presence is the process-wide registry of live connections, one per user.
// A reconnect replaces the prior entry; the caller gets the orphaned handle
// back so it can be closed.
type Presence struct {
	mu    sync.RWMutex
	conns map[domain.UserID]core.SignalConnection
}

func NewPresence() *Presence {
	return &Presence{conns: make(map[domain.UserID]core.SignalConnection)}
}

func (p *Presence) Register(uid domain.UserID, conn core.SignalConnection) (core.SignalConnection, bool) {
	p.mu.Lock()
	prev, replaced := p.conns[uid]
	p.conns[uid] = conn
	p.mu.Unlock()
	log.Info().Str("module", "app.presence").Str("user", string(uid)).Bool("replaced", replaced).Msg("registered connection")
	return prev, replaced
}

// Unregister removes the entry only if it still points at conn. A stale
// handle left over after a replace must not evict its successor.
func (p *Presence) Unregister(uid domain.UserID, conn core.SignalConnection) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if cur, ok := p.conns[uid]; !ok || cur != conn {
		return false
	}
	delete(p.conns, uid)
	log.Info().Str("module", "app.presence").Str("user", string(uid)).Msg("unregistered connection")
	return true
}

func (p *Presence) Get(uid domain.UserID) (core.SignalConnection, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	c, ok := p.conns[uid]
	return c, ok
}

func (p *Presence) IsOnline(uid domain.UserID) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.conns[uid]
	return ok
}

func (p *Presence) Online() []domain.UserID {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]domain.UserID, 0, len(p.conns))
	for uid := range p.conns {
		out = append(out, uid)
	}
	return out
}

// SendTo delivers a frame to a single user's live connection, if any.
// This is the personal-room path for direct events like call offers.
func (p *Presence) SendTo(uid domain.UserID, f core.Frame) error {
	p.mu.RLock()
	conn, ok := p.conns[uid]
	p.mu.RUnlock()
	if !ok {
		return domain.ErrReceiverOffline
	}
	return conn.TrySend(f)
}

// Broadcast fans a frame out to every registered connection except the sender.
func (p *Presence) Broadcast(from domain.UserID, f core.Frame) core.PublishResult {
	p.mu.RLock()
	defer p.mu.RUnlock()
	res := core.PublishResult{}
	for uid, conn := range p.conns {
		if uid == from {
			continue
		}
		if err := conn.TrySend(f); err != nil {
			res.Dropped = append(res.Dropped, uid)
			continue
		}
		res.SentTo++
	}
	log.Debug().Str("module", "app.presence").Str("from", string(from)).Int("sent_to", res.SentTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}
