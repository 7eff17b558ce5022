package app

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/beacon/internal/core"
	"github.com/dkeye/beacon/internal/domain"
)

// Purger is invoked whenever a call reaches its terminal state, so the
// signaling record never outlives the session it belongs to.
type Purger interface {
	Purge(id domain.CallID)
}

// Calls owns the call-session table. Every guard check and state commit for
// one call happens under a single lock, so racing mutators observe exactly
// one winner.
type Calls struct {
	mu       sync.Mutex
	sessions map[domain.CallID]*domain.CallSession

	presence core.Presence
	purger   Purger

	now   func() time.Time
	newID func() domain.CallID
}

func NewCalls(presence core.Presence, purger Purger) *Calls {
	return &Calls{
		sessions: make(map[domain.CallID]*domain.CallSession),
		presence: presence,
		purger:   purger,
		now:      time.Now,
		newID:    func() domain.CallID { return domain.CallID(uuid.NewString()) },
	}
}

// Create starts a ringing session. The receiver must be online and neither
// party may already have a ringing call.
func (c *Calls) Create(caller, receiver domain.UserID, t domain.CallType) (domain.CallSession, error) {
	if !t.Valid() {
		return domain.CallSession{}, domain.ErrInvalidCallType
	}
	if caller == receiver {
		return domain.CallSession{}, domain.ErrSelfCall
	}
	if !c.presence.IsOnline(receiver) {
		return domain.CallSession{}, domain.ErrReceiverOffline
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range c.sessions {
		if s.Status != domain.CallRinging {
			continue
		}
		if s.IsParty(caller) {
			return domain.CallSession{}, domain.ErrCallerBusy
		}
		if s.IsParty(receiver) {
			return domain.CallSession{}, domain.ErrReceiverBusy
		}
	}

	s := &domain.CallSession{
		ID:         c.newID(),
		CallerID:   caller,
		ReceiverID: receiver,
		Type:       t,
		Status:     domain.CallRinging,
		StartedAt:  c.now(),
	}
	c.sessions[s.ID] = s
	log.Info().Str("module", "app.calls").Str("call", string(s.ID)).Str("caller", string(caller)).Str("receiver", string(receiver)).Str("type", string(t)).Msg("call created")
	return *s, nil
}

func (c *Calls) Get(id domain.CallID, actor domain.UserID) (domain.CallSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, err := c.lookup(id, actor)
	if err != nil {
		return domain.CallSession{}, err
	}
	return *s, nil
}

// Accept moves ringing -> connected. Only the receiver may accept.
func (c *Calls) Accept(id domain.CallID, actor domain.UserID) (domain.CallSession, error) {
	c.mu.Lock()
	s, err := c.lookup(id, actor)
	if err != nil {
		c.mu.Unlock()
		return domain.CallSession{}, err
	}
	if actor != s.ReceiverID {
		c.mu.Unlock()
		return domain.CallSession{}, domain.ErrForbidden
	}
	if s.Status == domain.CallEnded {
		c.mu.Unlock()
		return domain.CallSession{}, domain.ErrCallEnded
	}
	if s.Status != domain.CallRinging {
		c.mu.Unlock()
		return domain.CallSession{}, domain.ErrNotRinging
	}
	s.Status = domain.CallConnected
	out := *s
	c.mu.Unlock()

	log.Info().Str("module", "app.calls").Str("call", string(id)).Str("by", string(actor)).Msg("call accepted")
	return out, nil
}

// Reject ends a ringing call; either party may reject.
func (c *Calls) Reject(id domain.CallID, actor domain.UserID) (domain.CallSession, error) {
	c.mu.Lock()
	s, err := c.lookup(id, actor)
	if err != nil {
		c.mu.Unlock()
		return domain.CallSession{}, err
	}
	if s.Status == domain.CallEnded {
		c.mu.Unlock()
		return domain.CallSession{}, domain.ErrCallEnded
	}
	if s.Status != domain.CallRinging {
		c.mu.Unlock()
		return domain.CallSession{}, domain.ErrNotRinging
	}
	s.Status = domain.CallEnded
	out := *s
	c.mu.Unlock()

	c.cleanup(id)
	log.Info().Str("module", "app.calls").Str("call", string(id)).Str("by", string(actor)).Msg("call rejected")
	return out, nil
}

// End terminates a ringing or connected call; either party may end.
func (c *Calls) End(id domain.CallID, actor domain.UserID) (domain.CallSession, error) {
	c.mu.Lock()
	s, err := c.lookup(id, actor)
	if err != nil {
		c.mu.Unlock()
		return domain.CallSession{}, err
	}
	if s.Status == domain.CallEnded {
		c.mu.Unlock()
		return domain.CallSession{}, domain.ErrCallEnded
	}
	s.Status = domain.CallEnded
	out := *s
	c.mu.Unlock()

	c.cleanup(id)
	log.Info().Str("module", "app.calls").Str("call", string(id)).Str("by", string(actor)).Msg("call ended")
	return out, nil
}

// SweepExpired force-ends ringing calls older than ttl and returns them so
// the gateway can notify both parties. It also drops ended sessions from the
// table; nothing else deletes them.
func (c *Calls) SweepExpired(ttl time.Duration) []domain.CallSession {
	cutoff := c.now().Add(-ttl)

	c.mu.Lock()
	var expired []domain.CallSession
	for id, s := range c.sessions {
		switch s.Status {
		case domain.CallRinging:
			if s.StartedAt.Before(cutoff) {
				s.Status = domain.CallEnded
				expired = append(expired, *s)
				delete(c.sessions, id)
			}
		case domain.CallEnded:
			delete(c.sessions, id)
		}
	}
	c.mu.Unlock()

	for _, s := range expired {
		c.cleanup(s.ID)
		log.Warn().Str("module", "app.calls").Str("call", string(s.ID)).Msg("ringing call timed out")
	}
	return expired
}

// Run drives the expiry sweep until ctx is canceled.
func (c *Calls) Run(ctx context.Context, interval, ttl time.Duration, onExpired func(domain.CallSession)) {
	if interval <= 0 || ttl <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, s := range c.SweepExpired(ttl) {
				if onExpired != nil {
					onExpired(s)
				}
			}
		}
	}
}

// lookup must be called with c.mu held.
func (c *Calls) lookup(id domain.CallID, actor domain.UserID) (*domain.CallSession, error) {
	s, ok := c.sessions[id]
	if !ok {
		return nil, domain.ErrCallNotFound
	}
	if !s.IsParty(actor) {
		return nil, domain.ErrForbidden
	}
	return s, nil
}

// cleanup runs after the terminal transition committed, outside the lock.
func (c *Calls) cleanup(id domain.CallID) {
	if c.purger != nil {
		c.purger.Purge(id)
	}
}
