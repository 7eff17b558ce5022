package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/beacon/internal/core"
	"github.com/dkeye/beacon/internal/domain"
)

func (ctl *Controller) writePump(ctx context.Context, c *client) {
	ticker := time.NewTicker(ctl.pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Msg("writePump ctx done")
			return
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(ctl.writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.writeTimeout)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, cancel context.CancelFunc, c *client) {
	defer func() {
		log.Info().Str("module", "signal").Str("user", string(c.userID)).Msg("readPump closing")
		cancel()
		ctl.retire(c)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Debug().Err(err).Str("module", "signal").Str("user", string(c.userID)).Msg("readPump read error")
				return
			}
			ctl.handleEvent(c, data)
		}
	}
}

func (ctl *Controller) handleEvent(c *client, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad json")
		ctl.sendError(c, "bad_payload")
		return
	}

	switch env.Type {
	case "join-conversation":
		ctl.handleJoinConversation(c, data)
	case "leave-conversation":
		ctl.handleLeaveConversation(c, data)
	case "message-send":
		ctl.handleMessageSend(c, data)
	case "typing-start":
		ctl.handleTyping(c, data, true)
	case "typing-stop":
		ctl.handleTyping(c, data, false)
	case "call-offer":
		ctl.handleCallOffer(c, data)
	case "call-answer":
		ctl.handleCallAnswer(c, data)
	case "call-ice-candidate":
		ctl.handleCallCandidate(c, data)
	case "call-end":
		ctl.handleCallEnd(c, data)
	case "ping":
		ctl.handlePing(c)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown event")
		ctl.sendError(c, "unknown_event")
	}
}

func (ctl *Controller) sendJSON(c *client, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}

func (ctl *Controller) sendError(c *client, code string) {
	ctl.sendJSON(c, map[string]any{"type": "error", "error": code})
}

// sendTo delivers a direct event to the target's personal room.
func (ctl *Controller) sendTo(uid domain.UserID, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendTo marshal")
		return
	}
	if err := ctl.Presence.SendTo(uid, core.Frame(b)); err != nil {
		log.Debug().Err(err).Str("module", "signal").Str("target", string(uid)).Msg("direct send failed")
	}
}

// broadcastAll announces to every other live connection, fire-and-forget.
func (ctl *Controller) broadcastAll(from domain.UserID, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("broadcast marshal")
		return
	}
	ctl.Presence.Broadcast(from, core.Frame(b))
}
