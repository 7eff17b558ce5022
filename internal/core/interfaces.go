package core

import "github.com/dkeye/beacon/internal/domain"

// Frame is a marshaled wire event ready for transport.
type Frame []byte

// SignalConnection abstracts a system messaging transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// Presence is the read-only view other components hold on the live registry.
type Presence interface {
	IsOnline(uid domain.UserID) bool
}

// UserDirectory resolves user identity to profile data. The durable user
// store lives outside this process; this is its interface boundary.
type UserDirectory interface {
	Lookup(uid domain.UserID) (domain.User, bool)
}

// PublishResult reports delivery stats/backpressure to the caller.
type PublishResult struct {
	SentTo  int
	Dropped []domain.UserID
}
