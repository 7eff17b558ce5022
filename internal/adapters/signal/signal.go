package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/beacon/internal/app"
	"github.com/dkeye/beacon/internal/auth"
	"github.com/dkeye/beacon/internal/config"
	"github.com/dkeye/beacon/internal/core"
	"github.com/dkeye/beacon/internal/domain"
)

var ErrBackpressure = errors.New("backpressure")

// Controller is the realtime gateway: it authenticates sockets, owns their
// read/write pumps, and routes events to presence, rooms and calls.
type Controller struct {
	Presence  *app.Presence
	Rooms     *app.Rooms
	Calls     *app.Calls
	Verifier  auth.Verifier
	Directory core.UserDirectory

	readLimit    int64
	pingPeriod   time.Duration
	writeTimeout time.Duration
	typing       *typingLimiter
}

func NewController(cfg *config.Config, presence *app.Presence, rooms *app.Rooms, calls *app.Calls, verifier auth.Verifier, dir core.UserDirectory) *Controller {
	return &Controller{
		Presence:     presence,
		Rooms:        rooms,
		Calls:        calls,
		Verifier:     verifier,
		Directory:    dir,
		readLimit:    cfg.ReadLimit,
		pingPeriod:   cfg.PingPeriod,
		writeTimeout: cfg.WriteTimeout,
		typing:       newTypingLimiter(cfg.TypingRateLimit, cfg.TypingRateInterval),
	}
}

// client is one authenticated live connection. Implements core.SignalConnection.
type client struct {
	userID domain.UserID
	user   domain.User
	conn   *websocket.Conn
	send   chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func newClient(user domain.User, conn *websocket.Conn) *client {
	return &client{
		userID: user.ID,
		user:   user,
		conn:   conn,
		send:   make(chan core.Frame, 32),
	}
}

func (c *client) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleWS authenticates and admits one socket. A failed credential never
// touches the registry.
func (ctl *Controller) HandleWS(ctx context.Context, c *gin.Context) {
	uid, err := ctl.Verifier.Verify(c.Query("token"))
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("ws auth refused")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	user, ok := ctl.Directory.Lookup(uid)
	if !ok {
		log.Warn().Str("module", "signal").Str("user", string(uid)).Msg("ws auth refused: unknown user")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	ws.SetReadLimit(ctl.readLimit)

	cl := newClient(user, ws)
	log.Info().Str("module", "signal").Str("user", string(uid)).Msg("new WS connection")

	ctl.admit(cl)

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, cl)
	go ctl.readPump(ctx, cancel, cl)
}

// admit registers the connection, evicting any prior handle for the same
// user, and announces the online transition to everyone else.
func (ctl *Controller) admit(cl *client) {
	prev, replaced := ctl.Presence.Register(cl.userID, cl)
	if replaced {
		ctl.Rooms.LeaveAll(cl.userID, prev)
		prev.Close()
		log.Info().Str("module", "signal").Str("user", string(cl.userID)).Msg("replaced stale connection")
	}

	ctl.broadcastAll(cl.userID, userEvent{Type: "user-online", UserID: cl.userID, User: cl.user})
}

// retire runs exactly once per connection, on read-loop exit. If the entry
// was already replaced by a reconnect, nothing is announced.
func (ctl *Controller) retire(cl *client) {
	cl.Close()
	if !ctl.Presence.Unregister(cl.userID, cl) {
		return
	}
	ctl.Rooms.LeaveAll(cl.userID, cl)
	ctl.broadcastAll(cl.userID, userEvent{Type: "user-offline", UserID: cl.userID, User: cl.user})
	log.Info().Str("module", "signal").Str("user", string(cl.userID)).Msg("connection retired")
}

type userEvent struct {
	Type   string        `json:"type"`
	UserID domain.UserID `json:"userId"`
	User   domain.User   `json:"user"`
}

// NotifyCallExpired tells both parties their ringing call timed out.
func (ctl *Controller) NotifyCallExpired(s domain.CallSession) {
	ev := struct {
		Type   string            `json:"type"`
		CallID domain.CallID     `json:"callId"`
		Status domain.CallStatus `json:"status"`
	}{Type: "call-timeout", CallID: s.ID, Status: s.Status}
	ctl.sendTo(s.CallerID, ev)
	ctl.sendTo(s.ReceiverID, ev)
}
