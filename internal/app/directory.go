package app

import (
	"sync"

	"github.com/dkeye/beacon/internal/domain"
)

// StaticDirectory is an in-process core.UserDirectory used when no external
// user store is wired. Unknown users are refused at the gateway.
type StaticDirectory struct {
	mu    sync.RWMutex
	users map[domain.UserID]domain.User
}

func NewStaticDirectory(users ...domain.User) *StaticDirectory {
	d := &StaticDirectory{users: make(map[domain.UserID]domain.User, len(users))}
	for _, u := range users {
		d.users[u.ID] = u
	}
	return d
}

func (d *StaticDirectory) Add(u domain.User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[u.ID] = u
}

func (d *StaticDirectory) Lookup(uid domain.UserID) (domain.User, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.users[uid]
	return u, ok
}
