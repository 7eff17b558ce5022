package signal

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/beacon/internal/domain"
)

// handleCallOffer creates the call session and pushes the offer to the
// receiver's personal room. The offer blob passes through untouched.
func (ctl *Controller) handleCallOffer(c *client, data []byte) {
	var p struct {
		Type       string          `json:"type"`
		ReceiverID string          `json:"receiverId"`
		Offer      json.RawMessage `json:"offer"`
		CallType   string          `json:"callType"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.ReceiverID == "" || len(p.Offer) == 0 {
		ctl.sendError(c, "bad_payload")
		return
	}

	sess, err := ctl.Calls.Create(c.userID, domain.UserID(p.ReceiverID), domain.CallType(p.CallType))
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("caller", string(c.userID)).Str("receiver", p.ReceiverID).Msg("call offer refused")
		ctl.sendError(c, callErrorCode(err))
		return
	}

	// The caller needs the id before it can mutate or signal the call.
	ctl.sendJSON(c, struct {
		Type       string            `json:"type"`
		CallID     domain.CallID     `json:"callId"`
		ReceiverID domain.UserID     `json:"receiverId"`
		CallType   domain.CallType   `json:"callType"`
		Status     domain.CallStatus `json:"status"`
	}{"call-created", sess.ID, sess.ReceiverID, sess.Type, sess.Status})

	ctl.sendTo(sess.ReceiverID, struct {
		Type     string          `json:"type"`
		CallID   domain.CallID   `json:"callId"`
		CallerID domain.UserID   `json:"callerId"`
		Caller   domain.User     `json:"caller"`
		Offer    json.RawMessage `json:"offer"`
		CallType domain.CallType `json:"callType"`
	}{"call-offer", sess.ID, c.userID, c.user, p.Offer, sess.Type})
}

// handleCallAnswer relays the answer to the caller. When the payload names
// the call, the accept transition is applied first; a guard failure stops
// the relay so the caller never sees an answer for a dead call.
func (ctl *Controller) handleCallAnswer(c *client, data []byte) {
	var p struct {
		Type     string          `json:"type"`
		CallerID string          `json:"callerId"`
		CallID   string          `json:"callId"`
		Answer   json.RawMessage `json:"answer"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.CallerID == "" || len(p.Answer) == 0 {
		ctl.sendError(c, "bad_payload")
		return
	}

	if p.CallID != "" {
		if _, err := ctl.Calls.Accept(domain.CallID(p.CallID), c.userID); err != nil {
			log.Warn().Err(err).Str("module", "signal").Str("call", p.CallID).Msg("answer refused")
			ctl.sendError(c, callErrorCode(err))
			return
		}
	}

	ctl.sendTo(domain.UserID(p.CallerID), struct {
		Type       string          `json:"type"`
		ReceiverID domain.UserID   `json:"receiverId"`
		Receiver   domain.User     `json:"receiver"`
		Answer     json.RawMessage `json:"answer"`
		CallID     string          `json:"callId,omitempty"`
	}{"call-answer", c.userID, c.user, p.Answer, p.CallID})
}

func (ctl *Controller) handleCallCandidate(c *client, data []byte) {
	var p struct {
		Type      string          `json:"type"`
		TargetID  string          `json:"targetId"`
		Candidate json.RawMessage `json:"candidate"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.TargetID == "" || len(p.Candidate) == 0 {
		ctl.sendError(c, "bad_payload")
		return
	}

	ctl.sendTo(domain.UserID(p.TargetID), struct {
		Type      string          `json:"type"`
		SenderID  domain.UserID   `json:"senderId"`
		Candidate json.RawMessage `json:"candidate"`
	}{"call-ice-candidate", c.userID, p.Candidate})
}

func (ctl *Controller) handleCallEnd(c *client, data []byte) {
	var p struct {
		Type     string `json:"type"`
		TargetID string `json:"targetId"`
		CallID   string `json:"callId"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.TargetID == "" {
		ctl.sendError(c, "bad_payload")
		return
	}

	// Best effort: the relay goes out even if the session is already gone.
	if p.CallID != "" {
		if _, err := ctl.Calls.End(domain.CallID(p.CallID), c.userID); err != nil {
			log.Debug().Err(err).Str("module", "signal").Str("call", p.CallID).Msg("end transition skipped")
		}
	}

	ctl.sendTo(domain.UserID(p.TargetID), struct {
		Type     string        `json:"type"`
		SenderID domain.UserID `json:"senderId"`
	}{"call-end", c.userID})
}

func callErrorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrReceiverOffline):
		return "receiver_offline"
	case errors.Is(err, domain.ErrCallerBusy):
		return "caller_busy"
	case errors.Is(err, domain.ErrReceiverBusy):
		return "receiver_busy"
	case errors.Is(err, domain.ErrCallNotFound):
		return "call_not_found"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrCallEnded):
		return "call_ended"
	case errors.Is(err, domain.ErrNotRinging):
		return "not_ringing"
	case errors.Is(err, domain.ErrInvalidCallType):
		return "invalid_call_type"
	case errors.Is(err, domain.ErrSelfCall):
		return "self_call"
	default:
		return "internal_error"
	}
}
