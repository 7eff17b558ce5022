package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/beacon/internal/core"
	"github.com/dkeye/beacon/internal/domain"
)

func (ctl *Controller) handleJoinConversation(c *client, data []byte) {
	var p struct {
		Type           string `json:"type"`
		ConversationID string `json:"conversationId"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.ConversationID == "" {
		ctl.sendError(c, "bad_payload")
		return
	}
	ctl.Rooms.Join(domain.ConversationID(p.ConversationID), c.userID, c)
}

func (ctl *Controller) handleLeaveConversation(c *client, data []byte) {
	var p struct {
		Type           string `json:"type"`
		ConversationID string `json:"conversationId"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.ConversationID == "" {
		ctl.sendError(c, "bad_payload")
		return
	}
	ctl.Rooms.Leave(domain.ConversationID(p.ConversationID), c.userID)
}

func (ctl *Controller) handleMessageSend(c *client, data []byte) {
	var p struct {
		Type           string          `json:"type"`
		ConversationID string          `json:"conversationId"`
		Message        json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.ConversationID == "" || len(p.Message) == 0 {
		ctl.sendError(c, "bad_payload")
		return
	}

	out := struct {
		Type           string          `json:"type"`
		ConversationID string          `json:"conversationId"`
		Message        json.RawMessage `json:"message"`
		Sender         domain.User     `json:"sender"`
	}{
		Type:           "message-receive",
		ConversationID: p.ConversationID,
		Message:        p.Message,
		Sender:         c.user,
	}
	b, err := json.Marshal(out)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("message marshal")
		return
	}
	ctl.Rooms.Relay(domain.ConversationID(p.ConversationID), c.userID, core.Frame(b))
}

func (ctl *Controller) handleTyping(c *client, data []byte, started bool) {
	var p struct {
		Type           string `json:"type"`
		ConversationID string `json:"conversationId"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.ConversationID == "" {
		ctl.sendError(c, "bad_payload")
		return
	}

	// Clients are expected to debounce; the limiter only caps abuse.
	if started && !ctl.typing.Allow(c.userID) {
		log.Warn().Str("module", "signal").Str("user", string(c.userID)).Msg("typing rate limited")
		return
	}

	evType := "typing-stop"
	if started {
		evType = "typing-start"
	}
	out := struct {
		Type           string        `json:"type"`
		ConversationID string        `json:"conversationId"`
		UserID         domain.UserID `json:"userId"`
		UserName       string        `json:"userName,omitempty"`
	}{
		Type:           evType,
		ConversationID: p.ConversationID,
		UserID:         c.userID,
	}
	if started {
		out.UserName = c.user.Username
	}
	b, err := json.Marshal(out)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("typing marshal")
		return
	}
	ctl.Rooms.Relay(domain.ConversationID(p.ConversationID), c.userID, core.Frame(b))
}
